package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"LootLedger/internal/analyzer"
	"LootLedger/internal/calculator"
	"LootLedger/internal/catalog"
	"LootLedger/internal/history"
	"LootLedger/internal/model"
	"LootLedger/internal/ocr"
	"LootLedger/internal/state"
	"LootLedger/internal/unknown"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestCollector(t *testing.T, rec ocr.Recognizer) (*Collector, string) {
	t.Helper()
	data := t.TempDir()
	a := analyzer.New(catalog.New(), unknown.New(), history.NewStore(0, calculator.DefaultTrendParams))
	c := NewCollector(a, rec, nil, Paths{
		History:       filepath.Join(data, "price_history.json"),
		CurrentPrices: filepath.Join(data, "current_prices.json"),
		Unknown:       filepath.Join(data, "unknown_items.json"),
		Pending:       filepath.Join(data, "pending_items.txt"),
		Processed:     filepath.Join(data, "processed_images.json"),
	})
	return c, data
}

func rifleShot() []model.OcrFragment {
	return []model.OcrFragment{
		{Text: "M4A1突击步枪", Confidence: 0.9, Center: model.Point{X: 100, Y: 200}},
		{Text: "120,688", Confidence: 0.8, Center: model.Point{X: 500, Y: 205}},
	}
}

func TestRunBatch(t *testing.T) {
	shots := t.TempDir()
	touch(t, shots, "a.png", "b.JPG", "notes.txt", "broken.png", "crash.png")

	rec := &ocr.StaticRecognizer{
		Fragments: map[string][]model.OcrFragment{
			filepath.Join(shots, "a.png"): rifleShot(),
			filepath.Join(shots, "b.JPG"): {{Text: "防暴头盔", Confidence: 0.6, Center: model.Point{X: 10, Y: 10}}},
		},
		Unreadable: map[string]bool{filepath.Join(shots, "broken.png"): true},
		Errors:     map[string]error{filepath.Join(shots, "crash.png"): errors.New("tesseract died")},
	}
	c, _ := newTestCollector(t, rec)

	report, err := c.RunBatch(shots)
	if err != nil {
		t.Fatal(err)
	}
	if report.Images != 4 {
		t.Errorf("images = %d, want 4", report.Images)
	}
	if report.Observations != 1 || report.Unknown != 1 {
		t.Errorf("observations/unknown = %d/%d", report.Observations, report.Unknown)
	}
	if len(report.Skipped) != 1 || !strings.HasSuffix(report.Skipped[0].Path, "broken.png") {
		t.Errorf("skipped = %+v", report.Skipped)
	}
	if report.Dir != shots || report.ID == "" {
		t.Errorf("report = %+v", report)
	}

	again, err := c.RunBatch(shots)
	if err != nil {
		t.Fatal(err)
	}
	if again.Images != 0 {
		t.Errorf("second scan re-read %d images", again.Images)
	}

	c.Forget()
	again, _ = c.RunBatch(shots)
	if again.Images != 4 {
		t.Errorf("after Forget: %d images", again.Images)
	}
	if agg, _ := c.Analyzer.History.Aggregate("M4A1突击步枪"); agg.SampleCount != 2 {
		t.Errorf("sample count = %d", agg.SampleCount)
	}
}

func TestRunBatchMissingDir(t *testing.T) {
	c, _ := newTestCollector(t, &ocr.StaticRecognizer{})
	if _, err := c.RunBatch(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFlush(t *testing.T) {
	shots := t.TempDir()
	touch(t, shots, "a.png", "b.png")
	rec := &ocr.StaticRecognizer{Fragments: map[string][]model.OcrFragment{
		filepath.Join(shots, "a.png"): rifleShot(),
		filepath.Join(shots, "b.png"): {{Text: "防暴头盔", Confidence: 0.6}},
	}}
	c, data := newTestCollector(t, rec)
	if _, err := c.RunBatch(shots); err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}

	for _, f := range []string{"price_history.json", "current_prices.json", "unknown_items.json", "pending_items.txt", "processed_images.json"} {
		if _, err := os.Stat(filepath.Join(data, f)); err != nil {
			t.Errorf("%s not written: %v", f, err)
		}
	}

	items, skipped, err := catalog.ReadPendingFile(filepath.Join(data, "pending_items.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 || len(skipped) != 1 || skipped[0].Text != "防暴头盔 | _____ | _____" {
		t.Errorf("pending: items=%+v skipped=%+v", items, skipped)
	}

	loaded, err := history.Load(filepath.Join(data, "price_history.json"), 0, calculator.DefaultTrendParams)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 1 {
		t.Errorf("history items = %d", loaded.Len())
	}
}

func TestWatcherAnalyzesNewFiles(t *testing.T) {
	shots := t.TempDir()
	path := filepath.Join(shots, "new.png")
	rec := &ocr.StaticRecognizer{Fragments: map[string][]model.OcrFragment{path: rifleShot()}}
	c, _ := newTestCollector(t, rec)

	w := NewWatcher(c, shots)
	w.Debounce = 50 * time.Millisecond
	done := make(chan *BatchReport, 1)
	w.OnBatch = func(r *BatchReport) { done <- r }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	touch(t, shots, "new.png", "ignored.txt")

	select {
	case r := <-done:
		if r.Observations != 1 {
			t.Errorf("observations = %d", r.Observations)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not analyze the new file")
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestFlushKeepsFilledPendingLines(t *testing.T) {
	shots := t.TempDir()
	a, b := filepath.Join(shots, "a.png"), filepath.Join(shots, "b.png")
	touch(t, shots, "a.png", "b.png")
	rec := &ocr.StaticRecognizer{Fragments: map[string][]model.OcrFragment{
		a: {{Text: "防暴头盔", Confidence: 0.6}},
		b: {{Text: "战术背心", Confidence: 0.7}},
	}}
	c, data := newTestCollector(t, rec)
	pending := filepath.Join(data, "pending_items.txt")

	c.ProcessFiles([]string{a})
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pending, []byte("防暴头盔 | 42000 | rare\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c.ProcessFiles([]string{b})
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	items, skipped, err := catalog.ReadPendingFile(pending)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Name != "防暴头盔" || items[0].Price != 42000 {
		t.Errorf("filled line lost: %+v", items)
	}
	if len(skipped) != 1 || skipped[0].Text != "战术背心 | _____ | _____" {
		t.Errorf("placeholders = %+v", skipped)
	}
}

func TestProcessedImagesSurviveRestart(t *testing.T) {
	shots := t.TempDir()
	path := filepath.Join(shots, "a.png")
	touch(t, shots, "a.png")
	rec := &ocr.StaticRecognizer{Fragments: map[string][]model.OcrFragment{path: rifleShot()}}

	c, _ := newTestCollector(t, rec)
	if _, err := c.RunBatch(shots); err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}

	restarted := NewCollector(c.Analyzer, rec, nil, c.Paths)
	if err := restarted.LoadProcessed(); err != nil {
		t.Fatal(err)
	}
	report, err := restarted.RunBatch(shots)
	if err != nil {
		t.Fatal(err)
	}
	if report.Images != 0 {
		t.Errorf("restart re-read %d images", report.Images)
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	report, _ = restarted.RunBatch(shots)
	if report.Images != 1 {
		t.Errorf("modified screenshot read %d times, want 1", report.Images)
	}
	if agg, _ := c.Analyzer.History.Aggregate("M4A1突击步枪"); agg.SampleCount != 2 {
		t.Errorf("sample count = %d", agg.SampleCount)
	}
}

func TestLoadProcessedMalformed(t *testing.T) {
	c, data := newTestCollector(t, &ocr.StaticRecognizer{})
	if err := os.WriteFile(filepath.Join(data, "processed_images.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadProcessed(); !errors.Is(err, state.ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestAcceptsIgnoresCase(t *testing.T) {
	c, _ := newTestCollector(t, &ocr.StaticRecognizer{})
	c.Extensions = []string{".PNG"}
	for name, want := range map[string]bool{"a.png": true, "b.PNG": true, "c.jpg": false} {
		if got := c.accepts(name); got != want {
			t.Errorf("accepts(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestDeliverAfterRunReturned(t *testing.T) {
	ready := make(chan string)
	done := make(chan struct{})
	close(done)

	returned := make(chan struct{})
	go func() {
		deliver("late.png", ready, done)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("deliver blocked after the watcher stopped")
	}
}
