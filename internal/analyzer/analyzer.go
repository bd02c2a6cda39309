package analyzer

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"LootLedger/internal/catalog"
	"LootLedger/internal/classifier"
	"LootLedger/internal/extractor"
	"LootLedger/internal/history"
	"LootLedger/internal/matcher"
	"LootLedger/internal/model"
	"LootLedger/internal/unknown"
)

// Options is the noise floor applied to every fragment before classification.
type Options struct {
	MinConfidence float64 `yaml:"min_confidence"`
	MinTextLength int     `yaml:"min_text_length"`
}

// DefaultOptions drops fragments under 40% confidence or shorter than two characters.
var DefaultOptions = Options{MinConfidence: 0.4, MinTextLength: 2}

// Phase is the analyzer's position in the per-image pipeline.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseClassifying
	PhaseMatching
	PhaseRecording
)

func (p Phase) String() string {
	switch p {
	case PhaseClassifying:
		return "classifying"
	case PhaseMatching:
		return "matching"
	case PhaseRecording:
		return "recording"
	default:
		return "idle"
	}
}

// Analyzer turns one image's OCR fragments into price observations and unknown-item sightings.
type Analyzer struct {
	Catalog    *catalog.Catalog
	Unknown    *unknown.Ledger
	History    *history.Store
	Classifier *classifier.Classifier
	Extractor  *extractor.Extractor
	Matcher    *matcher.Matcher
	Options    Options

	now   func() time.Time
	mu    sync.Mutex
	phase atomic.Int32
}

// New wires an Analyzer with the default classifier, extractor, matcher and noise floor.
func New(cat *catalog.Catalog, ledger *unknown.Ledger, store *history.Store) *Analyzer {
	return &Analyzer{
		Catalog:    cat,
		Unknown:    ledger,
		History:    store,
		Classifier: classifier.New(),
		Extractor:  extractor.Default(),
		Matcher:    matcher.New(matcher.DefaultParams),
		Options:    DefaultOptions,
		now:        time.Now,
	}
}

// SetClock replaces the timestamp source.
func (a *Analyzer) SetClock(now func() time.Time) {
	a.now = now
}

// Phase reports the current pipeline phase.
func (a *Analyzer) Phase() Phase {
	return Phase(a.phase.Load())
}

type itemCandidate struct {
	frag    model.OcrFragment
	isNamed bool // passed the name heuristic, not just an exact catalog key
}

// AnalyzeImage classifies, matches and records the fragments of a single image.
// Images are processed one at a time; concurrent callers are serialized.
func (a *Analyzer) AnalyzeImage(fragments []model.OcrFragment) (*model.AnalysisResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.setPhase(PhaseIdle)

	result := &model.AnalysisResult{}

	a.setPhase(PhaseClassifying)
	var items []itemCandidate
	var prices []matcher.PriceCandidate
	for _, f := range fragments {
		f.Text = strings.TrimSpace(f.Text)
		if f.Confidence < a.Options.MinConfidence || utf8.RuneCountInString(f.Text) < a.Options.MinTextLength {
			result.Discarded++
			continue
		}
		named := a.Classifier.IsItemName(f.Text)
		if named || a.Catalog.Has(f.Text) {
			items = append(items, itemCandidate{frag: f, isNamed: named})
		}
		for _, p := range a.Extractor.ExtractPrices(f.Text) {
			prices = append(prices, matcher.PriceCandidate{Price: p, Confidence: f.Confidence, Center: f.Center})
		}
	}
	result.ItemCandidates = len(items)
	result.PriceCandidates = len(prices)

	a.setPhase(PhaseMatching)
	ts := a.now().Format(time.RFC3339)
	var unmatched []itemCandidate
	for _, it := range items {
		if e, ok := a.Catalog.Lookup(it.frag.Text); ok {
			result.Observations = append(result.Observations, model.ItemObservation{
				Name:       e.Name,
				Price:      e.Value,
				Confidence: it.frag.Confidence,
				Timestamp:  ts,
				Source:     model.SourceCatalog,
			})
			continue
		}
		if p, ok := a.Matcher.FindNearestPrice(it.frag.Center, prices); ok {
			result.Observations = append(result.Observations, model.ItemObservation{
				Name:       it.frag.Text,
				Price:      p.Price,
				Confidence: min(it.frag.Confidence, p.Confidence),
				Timestamp:  ts,
				Source:     model.SourceOCR,
			})
			continue
		}
		if it.isNamed {
			unmatched = append(unmatched, it)
		}
	}

	a.setPhase(PhaseRecording)
	for _, obs := range result.Observations {
		if err := a.History.Append(obs); err != nil {
			return result, fmt.Errorf("record %q: %w", obs.Name, err)
		}
	}
	for _, it := range unmatched {
		a.Unknown.Record(it.frag.Text, it.frag.Confidence)
		result.Unmatched = append(result.Unmatched, model.UnmatchedCandidate{
			Text:       it.frag.Text,
			Confidence: it.frag.Confidence,
			Center:     it.frag.Center,
		})
	}

	if len(result.Observations) > 0 || len(result.Unmatched) > 0 {
		log.Printf("[INFO] analyzed %d fragments: %d observations, %d unknown, %d discarded",
			len(fragments), len(result.Observations), len(result.Unmatched), result.Discarded)
	}
	return result, nil
}

// CurrentAggregates returns the current-prices view of every tracked item.
func (a *Analyzer) CurrentAggregates() map[string]model.PriceAggregate {
	return a.History.SnapshotAll()
}

func (a *Analyzer) setPhase(p Phase) {
	a.phase.Store(int32(p))
}
