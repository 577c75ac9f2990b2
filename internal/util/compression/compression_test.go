package compression

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestCompressors(t *testing.T) {
	payload := []byte(`{"formData":{"title":"` + strings.Repeat("Sea view apartment ", 200) + `"},"currentStep":"media"}`)

	testCases := []struct {
		name       string
		compressor Compressor
	}{
		{name: "zstd", compressor: NewZstdCompressor()},
		{name: "gzip", compressor: NewGzipCompressor(gzip.DefaultCompression)},
		{name: "gzip best speed", compressor: NewGzipCompressor(gzip.BestSpeed)},
		{name: "by name zstd", compressor: ByName("zstd")},
		{name: "by name gzip", compressor: ByName("gzip")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			compressed, err := tc.compressor.Compress(payload)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if len(compressed) >= len(payload) {
				t.Errorf("Expected repetitive payload to shrink, %d >= %d", len(compressed), len(payload))
			}

			restored, err := tc.compressor.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(restored, payload) {
				t.Error("Restored payload differs from original")
			}
		})
	}
}

func TestDecompressGarbage(t *testing.T) {
	for name, c := range map[string]Compressor{"zstd": NewZstdCompressor(), "gzip": NewGzipCompressor(gzip.DefaultCompression)} {
		t.Run(name, func(t *testing.T) {
			if _, err := c.Decompress([]byte("not compressed at all")); err == nil {
				t.Error("Expected error decompressing garbage")
			}
		})
	}
}

func TestGzipCompressor(t *testing.T) {
	t.Run("invalid level falls back", func(t *testing.T) {
		if got := NewGzipCompressor(42).Level(); got != gzip.DefaultCompression {
			t.Errorf("Level() = %d, want %d", got, gzip.DefaultCompression)
		}
	})

	t.Run("pooled writers stay independent", func(t *testing.T) {
		c := NewGzipCompressor(gzip.BestSpeed)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				payload := bytes.Repeat([]byte{byte('a' + i)}, 512+i)
				compressed, err := c.Compress(payload)
				if err != nil {
					t.Errorf("Compress failed: %v", err)
					return
				}
				restored, err := c.Decompress(compressed)
				if err != nil || !bytes.Equal(restored, payload) {
					t.Errorf("round trip %d failed: %v", i, err)
				}
			}(i)
		}
		wg.Wait()
	})
}
