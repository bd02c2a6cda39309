package unknown

import (
	"fmt"
	"sync"

	"LootLedger/internal/model"
	"LootLedger/internal/state"
)

// Ledger accumulates plausible item names missing from the catalog, keyed by exact OCR text.
type Ledger struct {
	mu      sync.RWMutex
	entries []model.UnknownItemEntry
	index   map[string]int
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Load reads the unknown items list. A missing file yields an empty ledger.
func Load(path string) (*Ledger, error) {
	var list []model.UnknownItemEntry
	if _, err := state.Load(path, &list); err != nil {
		return nil, fmt.Errorf("load unknown items: %w", err)
	}
	l := New()
	for _, e := range list {
		if i, ok := l.index[e.Name]; ok {
			l.entries[i].Count += e.Count
			l.entries[i].Confidence = max(l.entries[i].Confidence, e.Confidence)
			continue
		}
		l.index[e.Name] = len(l.entries)
		l.entries = append(l.entries, e)
	}
	return l, nil
}

// Save rewrites the whole list.
func (l *Ledger) Save(path string) error {
	entries := l.Entries()
	if entries == nil {
		entries = []model.UnknownItemEntry{}
	}
	if err := state.Save(path, entries); err != nil {
		return fmt.Errorf("save unknown items: %w", err)
	}
	return nil
}

// Record notes one sighting of name. Repeat sightings add to the count and keep
// the highest confidence seen.
func (l *Ledger) Record(name string, confidence float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i, ok := l.index[name]; ok {
		l.entries[i].Count++
		l.entries[i].Confidence = max(l.entries[i].Confidence, confidence)
		return
	}
	l.index[name] = len(l.entries)
	l.entries = append(l.entries, model.UnknownItemEntry{Name: name, Confidence: confidence, Count: 1})
}

// Get returns the entry for name.
func (l *Ledger) Get(name string) (model.UnknownItemEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[name]
	if !ok {
		return model.UnknownItemEntry{}, false
	}
	return l.entries[i], true
}

// Entries returns a copy of all entries in first-sighting order.
func (l *Ledger) Entries() []model.UnknownItemEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return nil
	}
	out := make([]model.UnknownItemEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Names returns entry names in first-sighting order.
func (l *Ledger) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of distinct names.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear drops every entry. Only the promotion workflow calls this.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.index = make(map[string]int)
}
