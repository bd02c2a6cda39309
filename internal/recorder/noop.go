package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBatch(_ *BatchEvent) error { return nil }
func (n *NoopRecorder) RecordObservations(_ *ObservationEvent) error { return nil }
func (n *NoopRecorder) RecordSkipped(_ *SkippedImageEvent) error { return nil }
func (n *NoopRecorder) RecordImport(_ *ImportEvent) error { return nil }
func (n *NoopRecorder) Close() error { return nil }
