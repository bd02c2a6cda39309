package importer

import (
	"path/filepath"
	"testing"
	"time"

	"LootLedger/internal/calculator"
	"LootLedger/internal/catalog"
	"LootLedger/internal/history"
	"LootLedger/internal/model"
	"LootLedger/internal/unknown"
)

func newTestImporter(t *testing.T, entries ...model.CatalogEntry) *Importer {
	t.Helper()
	dir := t.TempDir()
	im := New(catalog.New(entries...), unknown.New(), history.NewStore(0, calculator.DefaultTrendParams),
		filepath.Join(dir, "items_database.json"), filepath.Join(dir, "unknown_items.json"))
	im.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return im
}

func addPrices(t *testing.T, s *history.Store, name string, prices ...int) {
	t.Helper()
	for _, p := range prices {
		if err := s.Append(model.ItemObservation{Name: name, Price: p, Confidence: 0.9, Timestamp: "2025-02-01T00:00:00Z"}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestEstimateValue(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"精英防弹衣", 150000},
		{"K416突击步枪", 150000},
		{"战术背心", 80000},
		{"AK-12", 80000},
		{"训练用匕首", 30000},
		{"G3战斗步枪", 30000},
		{"神秘的盒子", 50000},
	}
	for _, tt := range tests {
		if got := EstimateValue(tt.name); got != tt.want {
			t.Errorf("EstimateValue(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMapRarity(t *testing.T) {
	tests := []struct {
		tiers []rarityTier
		price int
		want  model.Rarity
	}{
		{promoteRarity, 150000, model.RarityEpic},
		{promoteRarity, 149999, model.RarityRare},
		{promoteRarity, 40000, model.RarityUncommon},
		{promoteRarity, 39999, model.RarityCommon},
		{historyRarity, 180000, model.RarityEpic},
		{historyRarity, 150000, model.RarityRare},
		{historyRarity, 50000, model.RarityUncommon},
		{historyRarity, 49999, model.RarityCommon},
	}
	for _, tt := range tests {
		if got := mapRarity(tt.tiers, tt.price); got != tt.want {
			t.Errorf("mapRarity(%d) = %s, want %s", tt.price, got, tt.want)
		}
	}
}

func TestImportPending(t *testing.T) {
	im := newTestImporter(t, model.CatalogEntry{Name: "G18", Value: 5000, Rarity: model.RarityCommon, Category: model.CategoryWeapon})
	res, err := im.ImportPending([]catalog.PendingItem{
		{Name: "防暴头盔", Price: 42000, Rarity: model.RarityUncommon},
		{Name: "G18", Price: 9999, Rarity: model.RarityRare},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Added) != 1 || len(res.Skipped) != 1 {
		t.Fatalf("added=%v skipped=%v", res.Added, res.Skipped)
	}
	e, _ := im.Catalog.Lookup("防暴头盔")
	if e.Value != 42000 || e.Category != model.CategoryArmor {
		t.Errorf("entry = %+v", e)
	}
	if g, _ := im.Catalog.Lookup("G18"); g.Value != 5000 {
		t.Errorf("existing entry overwritten: %+v", g)
	}

	reloaded, err := catalog.Load(im.CatalogPath)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 2 {
		t.Errorf("saved catalog has %d items", reloaded.Len())
	}
}

func TestPromoteUnknown(t *testing.T) {
	im := newTestImporter(t, model.CatalogEntry{Name: "G18", Value: 5000})
	for _, name := range []string{"防暴头盔套装", "装备", "AK", "12345", "G18", "精英作战服"} {
		im.Unknown.Record(name, 0.7)
	}
	addPrices(t, im.History, "防暴头盔套装", 40000, 50000)

	res, err := im.PromoteUnknown()
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Added) != 2 {
		t.Fatalf("added = %+v", res.Added)
	}
	reasons := map[string]string{}
	for _, s := range res.Skipped {
		reasons[s.Name] = s.Reason
	}
	want := map[string]string{
		"装备":    "generic word",
		"AK":    "too short",
		"12345": "all digits",
		"G18":   "already in catalog",
	}
	for name, reason := range want {
		if reasons[name] != reason {
			t.Errorf("%s: reason %q, want %q", name, reasons[name], reason)
		}
	}

	helmet, _ := im.Catalog.Lookup("防暴头盔套装")
	if helmet.Value != 50000 || helmet.AvgValue != 45000 || helmet.Rarity != model.RarityUncommon {
		t.Errorf("helmet from history = %+v", helmet)
	}
	if helmet.Category != model.CategoryArmor || !helmet.AutoImported || helmet.ImportTime != "2025-03-01T00:00:00Z" {
		t.Errorf("helmet metadata = %+v", helmet)
	}

	elite, _ := im.Catalog.Lookup("精英作战服")
	if elite.Value != 150000 || elite.Rarity != model.RarityEpic {
		t.Errorf("estimated entry = %+v", elite)
	}

	if im.Unknown.Len() != 0 {
		t.Errorf("ledger not cleared: %d entries", im.Unknown.Len())
	}
	ledger, err := unknown.Load(im.UnknownPath)
	if err != nil {
		t.Fatal(err)
	}
	if ledger.Len() != 0 {
		t.Errorf("saved ledger not empty")
	}
}

func TestFromHistory(t *testing.T) {
	im := newTestImporter(t,
		model.CatalogEntry{Name: "G18", Value: 1, Rarity: model.RarityLegendary},
		model.CatalogEntry{Name: "非洲之心", Value: 900000, Rarity: model.RarityLegendary},
	)
	addPrices(t, im.History, "G18", 5000, 6000)
	addPrices(t, im.History, "M4A1突击步枪", 100000, 120000, 140000)

	res, err := im.FromHistory()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Added) != 1 || len(res.Updated) != 1 {
		t.Fatalf("added=%d updated=%d", len(res.Added), len(res.Updated))
	}

	g, _ := im.Catalog.Lookup("G18")
	if g.Value != 6000 || g.AvgValue != 5500 || g.Rarity != model.RarityCommon || g.PriceSamples != 2 {
		t.Errorf("G18 = %+v", g)
	}
	m, _ := im.Catalog.Lookup("M4A1突击步枪")
	if m.Value != 140000 || m.MinValue != 100000 || m.MaxValue != 140000 || m.Rarity != model.RarityRare || m.Category != model.CategoryWeapon {
		t.Errorf("M4A1 = %+v", m)
	}
	if h, _ := im.Catalog.Lookup("非洲之心"); h.Value != 900000 {
		t.Errorf("untracked entry changed: %+v", h)
	}
}
