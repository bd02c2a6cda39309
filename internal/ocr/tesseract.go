package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"LootLedger/internal/model"
)

// Options configures the Tesseract recognizer.
type Options struct {
	Languages []string `yaml:"languages"`
	Level     string   `yaml:"level"`      // "line" or "word"
	MinHeight int      `yaml:"min_height"` // shorter images are upscaled to this height
}

// DefaultOptions reads simplified Chinese and English text lines.
var DefaultOptions = Options{
	Languages: []string{"chi_sim", "eng"},
	Level:     "line",
	MinHeight: 900,
}

// TesseractRecognizer runs Tesseract through gosseract and reports one fragment per
// text line (or word), positioned at the center of its bounding box in original pixels.
type TesseractRecognizer struct {
	opts Options
}

// NewTesseract creates a TesseractRecognizer.
func NewTesseract(opts Options) *TesseractRecognizer {
	if len(opts.Languages) == 0 {
		opts.Languages = DefaultOptions.Languages
	}
	return &TesseractRecognizer{opts: opts}
}

func (t *TesseractRecognizer) Name() string { return "tesseract" }

func (t *TesseractRecognizer) Recognize(path string) ([]model.OcrFragment, error) {
	img, err := prepare(path, t.opts.MinHeight)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.opts.Languages...); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImageFromBytes(img.png); err != nil {
		return nil, fmt.Errorf("set image %s: %w", path, err)
	}
	boxes, err := client.GetBoundingBoxes(t.level())
	if err != nil {
		return nil, fmt.Errorf("recognize %s: %w", path, err)
	}

	frags := make([]model.OcrFragment, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		cx := float64(b.Box.Min.X+b.Box.Max.X) / 2 / img.scale
		cy := float64(b.Box.Min.Y+b.Box.Max.Y) / 2 / img.scale
		frags = append(frags, model.OcrFragment{
			Text:       text,
			Confidence: b.Confidence / 100,
			Center:     model.Point{X: cx, Y: cy},
		})
	}
	return frags, nil
}

func (t *TesseractRecognizer) level() gosseract.PageIteratorLevel {
	if t.opts.Level == "word" {
		return gosseract.RIL_WORD
	}
	return gosseract.RIL_TEXTLINE
}
