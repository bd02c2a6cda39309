package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// Default plausible game-currency band.
const (
	DefaultMinPrice = 100
	DefaultMaxPrice = 1_000_000
)

var (
	digitRun   = regexp.MustCompile(`[0-9]+`)
	separators = strings.NewReplacer(",", "", ".", "")
)

// Extractor pulls price-like integers out of OCR text.
type Extractor struct {
	Min int
	Max int
}

// New creates an Extractor for the inclusive band [min, max].
func New(min, max int) *Extractor {
	return &Extractor{Min: min, Max: max}
}

// Default returns an Extractor for [DefaultMinPrice, DefaultMaxPrice].
func Default() *Extractor {
	return New(DefaultMinPrice, DefaultMaxPrice)
}

// ExtractPrices strips thousands separators and decimal points, then returns every
// maximal digit run inside the band, in order of appearance. Runs outside the band
// (coordinates, counters, percentages) and runs too long to parse are dropped.
func (e *Extractor) ExtractPrices(text string) []int {
	cleaned := separators.Replace(text)
	var out []int
	for _, run := range digitRun.FindAllString(cleaned, -1) {
		n, err := strconv.ParseInt(run, 10, 64)
		if err != nil {
			continue
		}
		if n < int64(e.Min) || n > int64(e.Max) {
			continue
		}
		out = append(out, int(n))
	}
	return out
}

// InBand reports whether price lies in the extractor's band.
func (e *Extractor) InBand(price int) bool {
	return price >= e.Min && price <= e.Max
}
