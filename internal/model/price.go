package model

// PriceRecord is one entry in an item's price ledger.
type PriceRecord struct {
	Price      int     `json:"price"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

// ItemHistory is the persisted price ledger of a single item.
type ItemHistory struct {
	Name       string        `json:"name"`
	Prices     []PriceRecord `json:"prices"`
	FirstSeen  string        `json:"first_seen"`
	LastUpdate string        `json:"last_update"`
}

// Trend classifies recent price movement.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
	TrendUnknown Trend = "unknown"
)

// PriceAggregate is derived from an ItemHistory and never stored on its own.
type PriceAggregate struct {
	Name        string `json:"name"`
	Latest      int    `json:"latest_price"`
	Min         int    `json:"min_price"`
	Max         int    `json:"max_price"`
	Avg         int    `json:"avg_price"`
	Trend       Trend  `json:"trend"`
	SampleCount int    `json:"sample_count"`
	LastUpdate  string `json:"last_update"`
}
