// Package imaging validates, shrinks and uploads listing photos one file at a time.
package imaging

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

var (
	ErrNotImage = errors.New("file is not a supported image")
	ErrTooLarge = errors.New("file exceeds the upload size limit")
	ErrEmpty    = errors.New("file is empty")
	ErrDecode   = errors.New("image could not be decoded")

	ErrTooManyPixels = errors.New("image dimensions exceed the pixel limit")
)

const (
	DefaultMaxUploadBytes int64 = 10 << 20
	DefaultMaxPixels      int64 = 50_000_000
)

var imagingLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	imagingLogger = l
}

var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// DetectContentType sniffs the image type from the first bytes of data.
func DetectContentType(data []byte) string {
	return http.DetectContentType(data)
}

// Validate checks that data is a supported image no larger than maxBytes and returns its sniffed type.
// The declared type of an upload is not trusted.
func Validate(data []byte, maxBytes int64) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), maxBytes)
	}

	contentType := DetectContentType(data)
	if !supportedTypes[contentType] {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, contentType)
	}
	return contentType, nil
}
