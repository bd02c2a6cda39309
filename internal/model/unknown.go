package model

// UnknownItemEntry is a plausible item name not present in the catalog.
type UnknownItemEntry struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Count      int     `json:"count"`
}
