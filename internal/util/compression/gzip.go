package compression

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// GzipCompressor pools its writers; Compress and Decompress are safe for concurrent use.
type GzipCompressor struct {
	level   int
	writers sync.Pool
}

// NewGzipCompressor returns a compressor at level; out-of-range levels fall back to gzip.DefaultCompression.
func NewGzipCompressor(level int) *GzipCompressor {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return &GzipCompressor{level: level}
}

func (g *GzipCompressor) Level() int {
	return g.level
}

func (g *GzipCompressor) writer(dst io.Writer) (*gzip.Writer, error) {
	if w, ok := g.writers.Get().(*gzip.Writer); ok {
		w.Reset(dst)
		return w, nil
	}
	return gzip.NewWriterLevel(dst, g.level)
}

func (g *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w, err := g.writer(&b)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	g.writers.Put(w)
	return b.Bytes(), nil
}

func (g *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
