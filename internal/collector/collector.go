package collector

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"LootLedger/internal/analyzer"
	"LootLedger/internal/notifier"
	"LootLedger/internal/ocr"
	"LootLedger/internal/recorder"
	"LootLedger/internal/state"
)

// DefaultExtensions are the screenshot formats picked up from a folder.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg"}

// Paths are the files written by Flush.
type Paths struct {
	History       string
	CurrentPrices string
	Unknown       string
	Pending       string
	Processed     string
}

// SkippedImage is an image that produced no analysis.
type SkippedImage struct {
	Path   string
	Reason string
}

// BatchReport summarizes one RunBatch or ProcessFiles call.
type BatchReport struct {
	ID           string
	Dir          string
	Images       int
	Observations int
	Unknown      int
	Skipped      []SkippedImage
	Duration     time.Duration
}

// Summary condenses the report for operator messages.
func (r *BatchReport) Summary() notifier.BatchSummary {
	return notifier.BatchSummary{
		Images:       r.Images,
		Observations: r.Observations,
		Unknown:      r.Unknown,
		Skipped:      len(r.Skipped),
		Duration:     r.Duration,
	}
}

// Collector feeds screenshots through OCR and the analyzer. Batches are serialized,
// so scheduled scans, the folder watcher and chat commands can share one Collector.
type Collector struct {
	Analyzer   *analyzer.Analyzer
	Recognizer ocr.Recognizer
	Recorder   recorder.Recorder
	Extensions []string
	Paths      Paths

	mu sync.Mutex
	// seen maps each analyzed image to the modification time it had when read.
	seen map[string]string
}

// NewCollector creates a new Collector.
func NewCollector(a *analyzer.Analyzer, r ocr.Recognizer, rec recorder.Recorder, paths Paths) *Collector {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Collector{
		Analyzer:   a,
		Recognizer: r,
		Recorder:   rec,
		Extensions: DefaultExtensions,
		Paths:      paths,
		seen:       make(map[string]string),
	}
}

// LoadProcessed restores the processed-image set written by Flush, so screenshots
// left in the folder are not appended to the history again after a restart.
func (c *Collector) LoadProcessed() error {
	if c.Paths.Processed == "" {
		return nil
	}
	seen := make(map[string]string)
	if _, err := state.Load(c.Paths.Processed, &seen); err != nil {
		return err
	}
	if seen == nil {
		seen = make(map[string]string)
	}
	c.mu.Lock()
	c.seen = seen
	c.mu.Unlock()
	return nil
}

// RunBatch analyzes every screenshot in dir not yet processed, in file name order.
// A processed file is read again only if it was modified since. Per-image failures are reported, never fatal.
func (c *Collector) RunBatch(dir string) (*BatchReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list screenshots: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !c.accepts(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	return c.process(dir, paths), nil
}

// ProcessFiles analyzes the given images as one batch, skipping unchanged ones already seen.
func (c *Collector) ProcessFiles(paths []string) *BatchReport {
	return c.process("", paths)
}

func (c *Collector) process(dir string, paths []string) *BatchReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	report := &BatchReport{ID: uuid.NewString(), Dir: dir}
	for _, p := range paths {
		stamp := modStamp(p)
		if prev, ok := c.seen[p]; ok && prev == stamp {
			continue
		}
		c.seen[p] = stamp
		c.processImage(report, p)
	}
	report.Duration = time.Since(start)

	if report.Images > 0 {
		log.Printf("[INFO] batch %s: %d images, %d observations, %d unknown, %d skipped (%s)",
			report.ID[:8], report.Images, report.Observations, report.Unknown, len(report.Skipped),
			report.Duration.Round(time.Millisecond))
		err := c.Recorder.RecordBatch(&recorder.BatchEvent{
			ID:           report.ID,
			Dir:          report.Dir,
			Images:       report.Images,
			Skipped:      len(report.Skipped),
			Observations: report.Observations,
			Unknown:      report.Unknown,
			DurationMs:   report.Duration.Milliseconds(),
		})
		if err != nil {
			log.Printf("[WARN] record batch: %v", err)
		}
	}
	return report
}

func (c *Collector) processImage(report *BatchReport, path string) {
	report.Images++

	frags, err := c.Recognizer.Recognize(path)
	switch {
	case errors.Is(err, ocr.ErrUnreadableImage):
		log.Printf("[WARN] skipping %s: %v", path, err)
		c.skip(report, path, err.Error())
		return
	case err != nil:
		log.Printf("[WARN] OCR failed on %s, treating as empty: %v", path, err)
		frags = nil
	}

	res, err := c.Analyzer.AnalyzeImage(frags)
	if err != nil {
		log.Printf("[ERROR] analyze %s: %v", path, err)
		c.skip(report, path, err.Error())
		return
	}
	report.Observations += len(res.Observations)
	report.Unknown += len(res.Unmatched)

	err = c.Recorder.RecordObservations(&recorder.ObservationEvent{
		BatchID:      report.ID,
		Image:        path,
		Observations: res.Observations,
	})
	if err != nil {
		log.Printf("[WARN] record observations for %s: %v", path, err)
	}
}

// modStamp identifies the version of the file at path. Unreadable paths get an
// empty stamp and are left for the recognizer to report.
func modStamp(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fi.ModTime().UTC().Format(time.RFC3339Nano)
}

func (c *Collector) skip(report *BatchReport, path, reason string) {
	report.Skipped = append(report.Skipped, SkippedImage{Path: path, Reason: reason})
	if err := c.Recorder.RecordSkipped(&recorder.SkippedImageEvent{
		BatchID: report.ID,
		Image:   path,
		Reason:  reason,
	}); err != nil {
		log.Printf("[WARN] record skipped image: %v", err)
	}
}

// Flush persists the price history, the current-prices snapshot, the unknown items
// and the processed-image set, and refreshes the pending-import template when unknown items exist. Pending lines
// the operator has already filled in survive the refresh.
func (c *Collector) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := c.Analyzer
	if err := a.History.Save(c.Paths.History); err != nil {
		return err
	}
	if err := a.History.SaveSnapshot(c.Paths.CurrentPrices); err != nil {
		return err
	}
	if err := a.Unknown.Save(c.Paths.Unknown); err != nil {
		return err
	}
	if c.Paths.Processed != "" {
		for p := range c.seen {
			if _, err := os.Stat(p); os.IsNotExist(err) {
				delete(c.seen, p)
			}
		}
		if err := state.Save(c.Paths.Processed, c.seen); err != nil {
			return err
		}
	}
	if c.Paths.Pending != "" && a.Unknown.Len() > 0 {
		if err := a.Catalog.RefreshPendingFile(c.Paths.Pending, a.Unknown.Names()); err != nil {
			return err
		}
	}
	return nil
}

// Forget clears the processed-image set so the next batch re-reads every file.
func (c *Collector) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = make(map[string]string)
}

func (c *Collector) accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range c.Extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
