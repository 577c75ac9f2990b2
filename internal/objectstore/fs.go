package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSUploader writes objects under a local directory that the server exposes as static files.
type FSUploader struct { // implements Uploader
	dir           string
	publicBaseURL string
}

func NewFSUploader(dir, publicBaseURL string) *FSUploader {
	return &FSUploader{
		dir:           dir,
		publicBaseURL: publicBaseURL,
	}
}

func (u *FSUploader) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(u.dir, clean), nil
}

func (u *FSUploader) Upload(ctx context.Context, key string, body []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := u.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("error creating directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("error writing %s: %w", key, err)
	}

	storeLogger.Debug().Str("path", path).Int("bytes", len(body)).Msg("Stored object")
	return publicURL(u.publicBaseURL, key), nil
}

func (u *FSUploader) Delete(_ context.Context, key string) error {
	path, err := u.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error deleting %s: %w", key, err)
	}
	return nil
}
