package matcher

import (
	"math"

	"LootLedger/internal/model"
)

// Params are the layout thresholds of the target UI, in screenshot pixels.
type Params struct {
	MaxVertical      float64 `yaml:"max_vertical"`
	MaxHorizontal    float64 `yaml:"max_horizontal"`
	VerticalWeight   float64 `yaml:"vertical_weight"`
	HorizontalWeight float64 `yaml:"horizontal_weight"`
}

// DefaultParams: price on the same row (±50px), to the right within 800px,
// vertical misalignment weighted six times heavier than horizontal distance.
var DefaultParams = Params{
	MaxVertical:      50,
	MaxHorizontal:    800,
	VerticalWeight:   3,
	HorizontalWeight: 0.5,
}

// PriceCandidate is an in-band number found in a fragment.
type PriceCandidate struct {
	Price      int
	Confidence float64
	Center     model.Point
}

// Matcher pairs item names with prices from the same image.
type Matcher struct {
	params Params
}

// New creates a Matcher with the given params.
func New(p Params) *Matcher {
	return &Matcher{params: p}
}

// FindNearestPrice returns the best price candidate for an item located at item.
// Candidates left of the item, off its row, or too far right are rejected; among the
// rest the lowest weighted distance wins, earlier candidates winning ties.
func (m *Matcher) FindNearestPrice(item model.Point, prices []PriceCandidate) (PriceCandidate, bool) {
	var best PriceCandidate
	bestScore := math.Inf(1)
	found := false

	for _, p := range prices {
		dx := p.Center.X - item.X
		dy := math.Abs(p.Center.Y - item.Y)

		if dx < 0 {
			continue
		}
		if dy > m.params.MaxVertical {
			continue
		}
		if dx > m.params.MaxHorizontal {
			continue
		}

		score := dy*m.params.VerticalWeight + dx*m.params.HorizontalWeight
		if score < bestScore {
			bestScore = score
			best = p
			found = true
		}
	}
	return best, found
}
