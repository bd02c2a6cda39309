package history

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"LootLedger/internal/calculator"
	"LootLedger/internal/model"
	"LootLedger/internal/state"
)

// DefaultRetention is the maximum number of records kept per item.
const DefaultRetention = 100

// ErrEmptyName is returned when an observation has no item name.
var ErrEmptyName = errors.New("observation has empty item name")

// Store owns every item's price ledger. All writes go through Append.
type Store struct {
	mu        sync.RWMutex
	items     map[string]*model.ItemHistory
	retention int
	trend     calculator.TrendParams
}

// NewStore creates an empty Store.
func NewStore(retention int, trend calculator.TrendParams) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		items:     make(map[string]*model.ItemHistory),
		retention: retention,
		trend:     trend,
	}
}

// Load reads the price history file into a new Store. A missing file yields an empty store.
// Ledgers longer than the retention cap are trimmed to their newest records.
func Load(path string, retention int, trend calculator.TrendParams) (*Store, error) {
	s := NewStore(retention, trend)
	var items map[string]*model.ItemHistory
	found, err := state.Load(path, &items)
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}
	if !found {
		log.Printf("[INFO] price history %s not found, starting empty", path)
		return s, nil
	}
	for name, h := range items {
		if h == nil {
			continue
		}
		if h.Name == "" {
			h.Name = name
		}
		h.Prices = s.trim(h.Prices)
		s.items[name] = h
	}
	log.Printf("[INFO] price history loaded: %d items", len(s.items))
	return s, nil
}

// Save writes the full price history.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := state.Save(path, s.items); err != nil {
		return fmt.Errorf("save price history: %w", err)
	}
	return nil
}

// SaveSnapshot regenerates the current-prices view and writes it to path.
func (s *Store) SaveSnapshot(path string) error {
	if err := state.Save(path, s.SnapshotAll()); err != nil {
		return fmt.Errorf("save current prices: %w", err)
	}
	return nil
}

// Append pushes an observation onto its item's ledger, creating the ledger on first sight
// and evicting the oldest records beyond the retention cap.
func (s *Store) Append(obs model.ItemObservation) error {
	if obs.Name == "" {
		return ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.items[obs.Name]
	if !ok {
		h = &model.ItemHistory{Name: obs.Name, FirstSeen: obs.Timestamp}
		s.items[obs.Name] = h
	}
	h.Prices = append(h.Prices, model.PriceRecord{
		Price:      obs.Price,
		Timestamp:  obs.Timestamp,
		Confidence: obs.Confidence,
	})
	h.Prices = s.trim(h.Prices)
	h.LastUpdate = obs.Timestamp
	return nil
}

// Aggregate computes the current statistics for one item.
func (s *Store) Aggregate(name string) (model.PriceAggregate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.items[name]
	if !ok || len(h.Prices) == 0 {
		return model.PriceAggregate{}, false
	}
	return aggregate(h, s.trend), true
}

// SnapshotAll recomputes aggregates for every item that has at least one record.
func (s *Store) SnapshotAll() map[string]model.PriceAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.PriceAggregate, len(s.items))
	for name, h := range s.items {
		if len(h.Prices) == 0 {
			continue
		}
		out[name] = aggregate(h, s.trend)
	}
	return out
}

// History returns a copy of one item's ledger.
func (s *Store) History(name string) (model.ItemHistory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.items[name]
	if !ok {
		return model.ItemHistory{}, false
	}
	cp := *h
	cp.Prices = append([]model.PriceRecord(nil), h.Prices...)
	return cp, true
}

// Names returns tracked item names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.items))
	for name := range s.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tracked items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) trim(prices []model.PriceRecord) []model.PriceRecord {
	if len(prices) <= s.retention {
		return prices
	}
	kept := make([]model.PriceRecord, s.retention)
	copy(kept, prices[len(prices)-s.retention:])
	return kept
}
