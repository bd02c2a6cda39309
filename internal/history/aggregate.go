package history

import (
	"sort"

	"LootLedger/internal/calculator"
	"LootLedger/internal/model"
)

// aggregate is a pure function of the ledger; h must have at least one record.
func aggregate(h *model.ItemHistory, trend calculator.TrendParams) model.PriceAggregate {
	prices := make([]int, len(h.Prices))
	for i, r := range h.Prices {
		prices[i] = r.Price
	}
	low, high, _ := calculator.CalculateRange(prices)
	avg, _ := calculator.CalculateAverage(prices)
	t, _ := calculator.CalculateTrend(prices, trend)

	return model.PriceAggregate{
		Name:        h.Name,
		Latest:      prices[len(prices)-1],
		Min:         low,
		Max:         high,
		Avg:         avg,
		Trend:       t,
		SampleCount: len(prices),
		LastUpdate:  h.LastUpdate,
	}
}

// SortByLatest orders aggregates by latest price, most expensive first, then by name.
func SortByLatest(aggs map[string]model.PriceAggregate) []model.PriceAggregate {
	out := make([]model.PriceAggregate, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Latest != out[j].Latest {
			return out[i].Latest > out[j].Latest
		}
		return out[i].Name < out[j].Name
	})
	return out
}
