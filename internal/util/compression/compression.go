// Package compression wraps the codecs used for blobs stored in SQLite.
package compression

import "github.com/klauspost/compress/gzip"

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ByName returns the compressor for "zstd" or "gzip"; anything else gets zstd.
func ByName(name string) Compressor {
	if name == "gzip" {
		return NewGzipCompressor(gzip.DefaultCompression)
	}
	return NewZstdCompressor()
}
