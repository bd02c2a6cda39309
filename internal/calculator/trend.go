package calculator

import "LootLedger/internal/model"

// TrendParams controls trend classification.
type TrendParams struct {
	Window    int     `yaml:"trend_window"`    // size of the "recent" slice
	Threshold float64 `yaml:"trend_threshold"` // percent change separating stable from moving
}

// DefaultTrendParams compares the last 5 prices against everything before them, ±5%.
var DefaultTrendParams = TrendParams{Window: 5, Threshold: 5}

// CalculateTrend compares the mean of the last Window prices with the mean of the older ones.
// At least Window+1 prices are needed; with fewer, or a zero older mean, the trend is unknown.
func CalculateTrend(prices []int, p TrendParams) (trend model.Trend, changePct float64) {
	if p.Window <= 0 || len(prices) <= p.Window {
		return model.TrendUnknown, 0
	}
	split := len(prices) - p.Window
	recentAvg, _ := CalculateMean(prices[split:])
	olderAvg, _ := CalculateMean(prices[:split])
	if olderAvg == 0 {
		return model.TrendUnknown, 0
	}

	changePct = (recentAvg - olderAvg) / olderAvg * 100
	switch {
	case changePct > p.Threshold:
		return model.TrendRising, changePct
	case changePct < -p.Threshold:
		return model.TrendFalling, changePct
	default:
		return model.TrendStable, changePct
	}
}
