// Package objectstore puts processed listing images somewhere they can be served from.
package objectstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/debemdeboas/homestead/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var storeLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	storeLogger = l
}

// Uploader stores an object under key and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Extension returns the file extension for an image content type.
func Extension(contentType string) string {
	if ext, ok := extensions[strings.ToLower(contentType)]; ok {
		return ext
	}
	return "bin"
}

// NewKey builds "{prefix}{owner}/{unixMillis}-{uuid}.{ext}". The random part keeps keys unique
// within a millisecond.
func NewKey(prefix string, owner model.UserID, contentType string, now time.Time) string {
	return fmt.Sprintf("%s%s/%d-%s.%s", prefix, owner, now.UnixMilli(), uuid.NewString(), Extension(contentType))
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
