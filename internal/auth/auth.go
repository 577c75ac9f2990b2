// Package auth resolves the user behind a request. The resolved id owns drafts, uploads and listings.
package auth

import (
	"errors"

	"github.com/rs/zerolog"
)

var ErrNoUser = errors.New("no user ID in context")

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}
