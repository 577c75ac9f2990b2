package compression

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdCompressor shares one encoder and decoder; EncodeAll and DecodeAll are safe for concurrent use.
type ZstdCompressor struct {
	once    sync.Once
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	initErr error
}

func NewZstdCompressor() *ZstdCompressor {
	return &ZstdCompressor{}
}

func (z *ZstdCompressor) init() {
	z.once.Do(func() {
		z.encoder, z.initErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if z.initErr != nil {
			return
		}
		z.decoder, z.initErr = zstd.NewReader(nil)
	})
}

func (z *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	z.init()
	if z.initErr != nil {
		return nil, z.initErr
	}
	return z.encoder.EncodeAll(data, nil), nil
}

func (z *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	z.init()
	if z.initErr != nil {
		return nil, z.initErr
	}
	return z.decoder.DecodeAll(data, nil)
}
