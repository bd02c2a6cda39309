package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// prepared is a decoded, OCR-ready image plus the factor it was scaled by.
type prepared struct {
	png   []byte
	scale float64
}

// prepare decodes path, converts it to grayscale and upscales short screenshots so
// small UI text survives recognition. Decode failures wrap ErrUnreadableImage.
func prepare(path string, minHeight int) (*prepared, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableImage, path, err)
	}
	return prepareImage(img, minHeight)
}

func prepareImage(img image.Image, minHeight int) (*prepared, error) {
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)

	scale := 1.0
	if h := gray.Bounds().Dy(); minHeight > 0 && h > 0 && h < minHeight {
		scale = float64(minHeight) / float64(h)
		gray = imaging.Resize(gray, 0, minHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode preprocessed image: %w", err)
	}
	return &prepared{png: buf.Bytes(), scale: scale}, nil
}
