package model

// Point is a position in screenshot pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// OcrFragment is one piece of recognized text from a single image.
type OcrFragment struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0.0 ~ 1.0
	Center     Point   `json:"center"`
}

// ObservationSource tells which rule produced the observed price.
type ObservationSource string

const (
	SourceCatalog ObservationSource = "catalog"
	SourceOCR     ObservationSource = "ocr"
)

// ItemObservation is one item/price pairing produced by the analyzer.
type ItemObservation struct {
	Name       string            `json:"name"`
	Price      int               `json:"price"`
	Confidence float64           `json:"confidence"`
	Timestamp  string            `json:"timestamp"` // RFC 3339
	Source     ObservationSource `json:"source,omitempty"`
}

// UnmatchedCandidate is a plausible item name that had neither a catalog entry nor a nearby price.
type UnmatchedCandidate struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Center     Point   `json:"center"`
}

// AnalysisResult is the outcome of analyzing one image's fragments.
type AnalysisResult struct {
	Observations    []ItemObservation    `json:"observations"`
	Unmatched       []UnmatchedCandidate `json:"unmatched_candidates"`
	ItemCandidates  int                  `json:"item_candidates"`
	PriceCandidates int                  `json:"price_candidates"`
	Discarded       int                  `json:"discarded"`
}
