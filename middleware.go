package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/homestead/internal/config"
	"github.com/debemdeboas/homestead/internal/routes"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps the image progress stream working through the recorder.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogger attaches l to the request context and logs each request once it completes.
func withLogger(l zerolog.Logger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		h.ServeHTTP(rec, r.WithContext(l.WithContext(r.Context())))

		l.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}

func cacheIt(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Uploaded object keys embed a uuid and never change.
		if strings.HasPrefix(r.URL.Path, routes.Uploads) {
			w.Header().Set(config.HCacheControl, "public, max-age=31536000, immutable")
		} else {
			w.Header().Set(config.HCacheControl, "no-cache")
			w.Header().Set("Vary", "Cookie")
		}

		h.ServeHTTP(w, r)
	})
}

func secureHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		h.ServeHTTP(w, r)
	})
}
