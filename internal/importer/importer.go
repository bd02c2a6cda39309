package importer

import (
	"fmt"
	"log"
	"time"
	"unicode"
	"unicode/utf8"

	"LootLedger/internal/catalog"
	"LootLedger/internal/classifier"
	"LootLedger/internal/history"
	"LootLedger/internal/model"
	"LootLedger/internal/recorder"
	"LootLedger/internal/unknown"
)

const minPromoteLen = 3

// Skipped is a name an import workflow declined, with the reason.
type Skipped struct {
	Name   string
	Reason string
}

// Result is the outcome of one import workflow.
type Result struct {
	Added   []model.CatalogEntry
	Updated []model.CatalogEntry
	Skipped []Skipped
}

// Importer mutates the catalog through the three explicit import workflows.
// It is the only writer of the catalog; the analysis pipeline only reads it.
type Importer struct {
	Catalog    *catalog.Catalog
	Unknown    *unknown.Ledger
	History    *history.Store
	Classifier *classifier.Classifier
	Recorder   recorder.Recorder

	CatalogPath string
	UnknownPath string

	now func() time.Time
}

// New creates an Importer persisting to catalogPath and unknownPath.
func New(cat *catalog.Catalog, ledger *unknown.Ledger, store *history.Store, catalogPath, unknownPath string) *Importer {
	return &Importer{
		Catalog:     cat,
		Unknown:     ledger,
		History:     store,
		Classifier:  classifier.New(),
		Recorder:    recorder.NewNoopRecorder(),
		CatalogPath: catalogPath,
		UnknownPath: unknownPath,
		now:         time.Now,
	}
}

// ImportPending adds hand-filled pending lines. Names already in the catalog are left untouched.
func (im *Importer) ImportPending(items []catalog.PendingItem) (*Result, error) {
	res := &Result{}
	for _, it := range items {
		e := model.CatalogEntry{
			Name:     it.Name,
			Value:    it.Price,
			Rarity:   it.Rarity,
			Category: im.Classifier.DetectCategory(it.Name),
		}
		if !im.Catalog.Add(e) {
			res.Skipped = append(res.Skipped, Skipped{Name: it.Name, Reason: "already in catalog"})
			continue
		}
		res.Added = append(res.Added, e)
	}
	if err := im.commit("PENDING", res, false); err != nil {
		return res, err
	}
	return res, nil
}

// PromoteUnknown moves every plausible unknown item into the catalog, valued from its
// price history when it has one and estimated from its name otherwise, then clears the ledger.
func (im *Importer) PromoteUnknown() (*Result, error) {
	res := &Result{}
	ts := im.now().Format(time.RFC3339)

	for _, u := range im.Unknown.Entries() {
		if im.Catalog.Has(u.Name) {
			res.Skipped = append(res.Skipped, Skipped{Name: u.Name, Reason: "already in catalog"})
			continue
		}
		if reason := rejectName(u.Name); reason != "" {
			res.Skipped = append(res.Skipped, Skipped{Name: u.Name, Reason: reason})
			continue
		}

		e := model.CatalogEntry{
			Name:         u.Name,
			Category:     im.Classifier.DetectCategory(u.Name),
			AutoImported: true,
			ImportTime:   ts,
			Confidence:   u.Confidence,
		}
		if agg, ok := im.History.Aggregate(u.Name); ok {
			e.Value = agg.Latest
			e.AvgValue = agg.Avg
		} else {
			e.Value = EstimateValue(u.Name)
			e.AvgValue = e.Value
		}
		e.Rarity = mapRarity(promoteRarity, e.AvgValue)

		im.Catalog.Add(e)
		res.Added = append(res.Added, e)
	}

	if err := im.commit("PROMOTE", res, true); err != nil {
		return res, err
	}
	return res, nil
}

// FromHistory writes one catalog entry per tracked item from its price statistics,
// replacing entries of the same name and keeping all others.
func (im *Importer) FromHistory() (*Result, error) {
	res := &Result{}
	for _, name := range im.History.Names() {
		agg, ok := im.History.Aggregate(name)
		if !ok {
			continue
		}
		e := model.CatalogEntry{
			Name:         name,
			Value:        agg.Latest,
			AvgValue:     agg.Avg,
			MinValue:     agg.Min,
			MaxValue:     agg.Max,
			PriceSamples: agg.SampleCount,
			Rarity:       mapRarity(historyRarity, agg.Avg),
			Category:     im.Classifier.DetectCategory(name),
			AutoImported: true,
			LastUpdate:   agg.LastUpdate,
		}
		if im.Catalog.Has(name) {
			res.Updated = append(res.Updated, e)
		} else {
			res.Added = append(res.Added, e)
		}
		im.Catalog.Put(e)
	}
	if err := im.commit("REBUILD", res, false); err != nil {
		return res, err
	}
	return res, nil
}

// commit saves the catalog when it changed and, for promotion, clears the ledger
// only after the catalog is safely on disk.
func (im *Importer) commit(kind string, res *Result, clearLedger bool) error {
	changed := len(res.Added) + len(res.Updated)
	if changed > 0 {
		if err := im.Catalog.Save(im.CatalogPath); err != nil {
			return err
		}
	}
	if clearLedger {
		im.Unknown.Clear()
		if err := im.Unknown.Save(im.UnknownPath); err != nil {
			return err
		}
	}
	log.Printf("[INFO] %s import: %d added, %d updated, %d skipped",
		kind, len(res.Added), len(res.Updated), len(res.Skipped))

	err := im.Recorder.RecordImport(&recorder.ImportEvent{
		Kind:    kind,
		Added:   len(res.Added),
		Skipped: len(res.Skipped),
		Note:    fmt.Sprintf("%d updated", len(res.Updated)),
	})
	if err != nil {
		log.Printf("[WARN] record import: %v", err)
	}
	return nil
}

func rejectName(name string) string {
	switch {
	case genericWords[name]:
		return "generic word"
	case utf8.RuneCountInString(name) < minPromoteLen:
		return "too short"
	case allDigits(name):
		return "all digits"
	}
	return ""
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
