package recorder

import "LootLedger/internal/model"

// BatchEvent summarizes one pass over a screenshot folder.
type BatchEvent struct {
	ID           string
	Dir          string
	Images       int
	Skipped      int
	Observations int
	Unknown      int
	DurationMs   int64
}

// ObservationEvent is one image's recorded observations within a batch.
type ObservationEvent struct {
	BatchID      string
	Image        string
	Observations []model.ItemObservation
}

// SkippedImageEvent records an image that could not be analyzed.
type SkippedImageEvent struct {
	BatchID string
	Image   string
	Reason  string
}

// ImportEvent records a catalog mutation by an import workflow.
type ImportEvent struct {
	Kind    string // "PENDING", "PROMOTE", "REBUILD"
	Added   int
	Skipped int
	Note    string
}

// Recorder keeps an audit trail of pipeline activity.
type Recorder interface {
	RecordBatch(evt *BatchEvent) error
	RecordObservations(evt *ObservationEvent) error
	RecordSkipped(evt *SkippedImageEvent) error
	RecordImport(evt *ImportEvent) error
	Close() error
}
