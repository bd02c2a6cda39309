package ocr

import "errors"

// ErrUnreadableImage is returned when an image file cannot be decoded.
var ErrUnreadableImage = errors.New("unreadable image")
