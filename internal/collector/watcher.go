package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is analyzed,
// so half-written screenshots are not read.
const DefaultDebounce = 750 * time.Millisecond

// Watcher analyzes screenshots as they land in a folder.
type Watcher struct {
	Collector *Collector
	Dir       string
	Debounce  time.Duration
	// OnBatch, if set, is called after each debounced batch has been analyzed and flushed.
	OnBatch func(*BatchReport)

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a Watcher for dir.
func NewWatcher(c *Collector, dir string) *Watcher {
	return &Watcher{
		Collector: c,
		Dir:       dir,
		Debounce:  DefaultDebounce,
		pending:   make(map[string]*time.Timer),
	}
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}
	log.Printf("[INFO] watching %s for new screenshots", w.Dir)

	ready := make(chan string, 16)
	done := make(chan struct{})
	defer w.stopTimers()
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !w.Collector.accepts(ev.Name) {
				continue
			}
			w.schedule(ev.Name, ready, done)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] watcher error: %v", err)
		case path := <-ready:
			w.analyze(path)
		}
	}
}

func (w *Watcher) schedule(path string, ready chan<- string, done <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.Debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		deliver(path, ready, done)
	})
}

// deliver hands a settled path to Run, giving up once Run has returned.
func deliver(path string, ready chan<- string, done <-chan struct{}) {
	select {
	case ready <- path:
	case <-done:
	}
}

func (w *Watcher) analyze(path string) {
	report := w.Collector.ProcessFiles([]string{path})
	if report.Images == 0 {
		return
	}
	report.Dir = w.Dir
	if err := w.Collector.Flush(); err != nil {
		log.Printf("[ERROR] flush after %s: %v", path, err)
	}
	if w.OnBatch != nil {
		w.OnBatch(report)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
