package catalog

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"LootLedger/internal/model"
	"LootLedger/internal/state"
)

const fileVersion = "1.0"

// Catalog is the known item mapping, keyed by exact name.
type Catalog struct {
	mu    sync.RWMutex
	items map[string]model.CatalogEntry
	// names is sorted by rune length desc, then lexicographically, so substring
	// lookups resolve deterministically to the longest matching name.
	names []string
}

// New builds a Catalog from entries. Later duplicates replace earlier ones.
func New(entries ...model.CatalogEntry) *Catalog {
	c := &Catalog{items: make(map[string]model.CatalogEntry, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		c.items[e.Name] = e
	}
	c.reindex()
	return c
}

// Load reads the catalog file. A missing file yields an empty catalog; a malformed one is an error.
func Load(path string) (*Catalog, error) {
	var f model.CatalogFile
	found, err := state.Load(path, &f)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if !found {
		log.Printf("[WARN] catalog file %s not found, starting with an empty catalog", path)
	}
	c := New(f.Items...)
	log.Printf("[INFO] catalog loaded: %d items", c.Len())
	return c, nil
}

// Save writes the catalog in list form.
func (c *Catalog) Save(path string) error {
	f := model.CatalogFile{
		Version:    fileVersion,
		LastUpdate: time.Now().Format(time.RFC3339),
		Items:      c.Entries(),
	}
	if err := state.Save(path, &f); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// Lookup resolves OCR text to a catalog entry: exact name first, then bidirectional
// substring containment with the longest catalog name winning.
func (c *Catalog) Lookup(text string) (model.CatalogEntry, bool) {
	if text == "" {
		return model.CatalogEntry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.items[text]; ok {
		return e, true
	}
	for _, name := range c.names {
		if strings.Contains(text, name) || strings.Contains(name, text) {
			return c.items[name], true
		}
	}
	return model.CatalogEntry{}, false
}

// Has reports whether name is an exact catalog key.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[name]
	return ok
}

// Add inserts an entry unless its name already exists. It reports whether it was added.
func (c *Catalog) Add(e model.CatalogEntry) bool {
	if e.Name == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[e.Name]; ok {
		return false
	}
	c.items[e.Name] = e
	c.reindex()
	return true
}

// Put inserts or replaces an entry.
func (c *Catalog) Put(e model.CatalogEntry) {
	if e.Name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[e.Name] = e
	c.reindex()
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Entries returns all entries sorted by name.
func (c *Catalog) Entries() []model.CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.CatalogEntry, 0, len(c.items))
	for _, e := range c.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Catalog) reindex() {
	names := make([]string, 0, len(c.items))
	for name := range c.items {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(names[i]), utf8.RuneCountInString(names[j])
		if li != lj {
			return li > lj
		}
		return names[i] < names[j]
	})
	c.names = names
}
