package ocr

import (
	"fmt"

	"LootLedger/internal/model"
)

// Recognizer turns an image file into recognized text fragments.
type Recognizer interface {
	Recognize(path string) ([]model.OcrFragment, error)
	Name() string
}

// StaticRecognizer returns canned fragments per file name, for development and testing.
// Files listed in Unreadable fail with ErrUnreadableImage; Errors maps files to OCR failures.
type StaticRecognizer struct {
	Fragments  map[string][]model.OcrFragment
	Unreadable map[string]bool
	Errors     map[string]error
}

func (s *StaticRecognizer) Name() string { return "static" }

func (s *StaticRecognizer) Recognize(path string) ([]model.OcrFragment, error) {
	if s.Unreadable[path] {
		return nil, fmt.Errorf("%w: %s", ErrUnreadableImage, path)
	}
	if err, ok := s.Errors[path]; ok {
		return nil, err
	}
	return s.Fragments[path], nil
}
