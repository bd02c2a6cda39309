package analyzer

import (
	"testing"
	"time"

	"LootLedger/internal/calculator"
	"LootLedger/internal/catalog"
	"LootLedger/internal/history"
	"LootLedger/internal/model"
	"LootLedger/internal/unknown"
)

func newTestAnalyzer(entries ...model.CatalogEntry) *Analyzer {
	a := New(catalog.New(entries...), unknown.New(), history.NewStore(0, calculator.DefaultTrendParams))
	a.SetClock(func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) })
	return a
}

func frag(text string, conf, x, y float64) model.OcrFragment {
	return model.OcrFragment{Text: text, Confidence: conf, Center: model.Point{X: x, Y: y}}
}

func TestAnalyzeImageMatchesPriceToTheRight(t *testing.T) {
	a := newTestAnalyzer()
	image := []model.OcrFragment{
		frag("M4A1突击步枪", 0.9, 100, 200),
		frag("120,688", 0.8, 500, 205),
	}

	res, err := a.AnalyzeImage(image)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(res.Observations))
	}
	obs := res.Observations[0]
	if obs.Name != "M4A1突击步枪" || obs.Price != 120688 {
		t.Errorf("got %+v", obs)
	}
	if obs.Confidence != 0.8 {
		t.Errorf("confidence = %v, want the lower of item and price", obs.Confidence)
	}
	if obs.Source != model.SourceOCR {
		t.Errorf("source = %s", obs.Source)
	}
	if obs.Timestamp != "2025-03-01T12:00:00Z" {
		t.Errorf("timestamp = %s", obs.Timestamp)
	}

	if _, err := a.AnalyzeImage(image); err != nil {
		t.Fatal(err)
	}
	agg, ok := a.CurrentAggregates()["M4A1突击步枪"]
	if !ok {
		t.Fatal("aggregate missing")
	}
	if agg.SampleCount != 2 || agg.Avg != 120688 || agg.Trend != model.TrendUnknown {
		t.Errorf("got %+v", agg)
	}
	if a.Unknown.Len() != 0 {
		t.Errorf("matched item should not reach the unknown ledger")
	}
}

func TestAnalyzeImageOutOfBandNumber(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.AnalyzeImage([]model.OcrFragment{frag("999999999", 0.9, 0, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if res.PriceCandidates != 0 {
		t.Errorf("price candidates = %d, want 0", res.PriceCandidates)
	}
	if len(res.Observations) != 0 {
		t.Errorf("observations = %d, want 0", len(res.Observations))
	}
	if a.History.Len() != 0 {
		t.Errorf("history should be empty")
	}
}

func TestAnalyzeImageUnmatchedGoesToLedger(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.AnalyzeImage([]model.OcrFragment{frag("防暴头盔", 0.6, 10, 10)})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Observations) != 0 {
		t.Fatalf("expected no observations, got %+v", res.Observations)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0].Text != "防暴头盔" {
		t.Fatalf("unmatched = %+v", res.Unmatched)
	}
	e, ok := a.Unknown.Get("防暴头盔")
	if !ok || e.Count != 1 || e.Confidence != 0.6 {
		t.Errorf("ledger entry = %+v, %v", e, ok)
	}
	if a.History.Len() != 0 {
		t.Errorf("history should be empty")
	}
}

func TestAnalyzeImageCatalogIsAuthoritative(t *testing.T) {
	a := newTestAnalyzer(
		model.CatalogEntry{Name: "AK", Value: 1000, Rarity: model.RarityCommon, Category: model.CategoryWeapon},
		model.CatalogEntry{Name: "AK-47", Value: 30000, Rarity: model.RarityRare, Category: model.CategoryWeapon},
		model.CatalogEntry{Name: "非洲之心", Value: 900000, Rarity: model.RarityLegendary, Category: model.CategoryMaterial},
	)
	res, err := a.AnalyzeImage([]model.OcrFragment{
		frag("AK-47", 0.7, 100, 100),
		frag("12,345", 0.9, 300, 100),
		frag("非洲之心", 0.95, 100, 400),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Observations) != 2 {
		t.Fatalf("expected 2 observations, got %+v", res.Observations)
	}
	want := []model.ItemObservation{
		{Name: "AK-47", Price: 30000, Confidence: 0.7, Source: model.SourceCatalog},
		{Name: "非洲之心", Price: 900000, Confidence: 0.95, Source: model.SourceCatalog},
	}
	for i, w := range want {
		got := res.Observations[i]
		if got.Name != w.Name || got.Price != w.Price || got.Confidence != w.Confidence || got.Source != w.Source {
			t.Errorf("observation %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestAnalyzeImageNoiseFloor(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.AnalyzeImage([]model.OcrFragment{
		frag("M4A1突击步枪", 0.3, 100, 200),
		frag("刀", 0.9, 100, 300),
		frag("5,000", 0.39, 300, 200),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Discarded != 3 {
		t.Errorf("discarded = %d, want 3", res.Discarded)
	}
	if res.ItemCandidates != 0 || res.PriceCandidates != 0 {
		t.Errorf("candidates = %d/%d", res.ItemCandidates, res.PriceCandidates)
	}
	if a.Unknown.Len() != 0 || a.History.Len() != 0 {
		t.Errorf("noise must not have side effects")
	}
}

func TestAnalyzeImageTrimsWhitespace(t *testing.T) {
	a := newTestAnalyzer()
	for _, text := range []string{"防暴头盔", "防暴头盔 ", "\t防暴头盔\n"} {
		if _, err := a.AnalyzeImage([]model.OcrFragment{frag(text, 0.6, 10, 10)}); err != nil {
			t.Fatal(err)
		}
	}
	if a.Unknown.Len() != 1 {
		t.Fatalf("ledger names = %q, want one entry", a.Unknown.Names())
	}
	if e, _ := a.Unknown.Get("防暴头盔"); e.Count != 3 {
		t.Errorf("count = %d, want 3", e.Count)
	}

	res, err := a.AnalyzeImage([]model.OcrFragment{frag(" 7", 0.9, 0, 0), frag("   ", 0.9, 0, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Discarded != 2 {
		t.Errorf("discarded = %d, want 2", res.Discarded)
	}
}

func TestAnalyzeImagePriceOnLeftIsIgnored(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.AnalyzeImage([]model.OcrFragment{
		frag("8,800", 0.9, 50, 200),
		frag("战术背心", 0.9, 400, 200),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Observations) != 0 {
		t.Errorf("price left of the name must not match: %+v", res.Observations)
	}
	if len(res.Unmatched) != 1 {
		t.Errorf("unmatched = %+v", res.Unmatched)
	}
}

func TestPhaseReturnsToIdle(t *testing.T) {
	a := newTestAnalyzer()
	if a.Phase() != PhaseIdle {
		t.Fatalf("initial phase = %s", a.Phase())
	}
	a.AnalyzeImage([]model.OcrFragment{frag("M4A1突击步枪", 0.9, 0, 0)})
	if a.Phase() != PhaseIdle {
		t.Errorf("phase after analysis = %s", a.Phase())
	}
}
