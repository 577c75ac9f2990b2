package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Preset is one compression pass: scale to fit MaxDimension, encode at Quality,
// and accept the result if it is at most MaxBytes.
type Preset struct {
	Quality      int
	MaxDimension int
	MaxBytes     int64
}

func DefaultPresets() []Preset {
	return []Preset{
		{Quality: 80, MaxDimension: 1920, MaxBytes: 1 << 20},
		{Quality: 60, MaxDimension: 1280, MaxBytes: 512 << 10},
	}
}

// Compressed is the outcome of Compress. Pass is -1 when the original bytes were kept.
type Compressed struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Pass        int
}

func (c Compressed) Passthrough() bool {
	return c.Pass < 0
}

type Compressor struct {
	presets   []Preset
	maxPixels int64
}

func NewCompressor(presets []Preset) *Compressor {
	if len(presets) == 0 {
		presets = DefaultPresets()
	}
	return &Compressor{presets: presets, maxPixels: DefaultMaxPixels}
}

// WithMaxPixels caps width*height of images Compress will decode. Zero or less keeps the default.
func (c *Compressor) WithMaxPixels(n int64) *Compressor {
	if n > 0 {
		c.maxPixels = n
	}
	return c
}

func (c *Compressor) Presets() []Preset {
	return c.presets
}

// Compress re-encodes data as JPEG, trying presets in order until one meets its size budget.
// When every preset misses, the smallest output wins. The result is never larger than data.
// Images above the pixel limit are refused before their pixels are decoded.
func (c *Compressor) Compress(data []byte, contentType string) (Compressed, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Compressed{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > c.maxPixels {
		return Compressed{}, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	original := Compressed{Data: data, ContentType: contentType, Width: cfg.Width, Height: cfg.Height, Pass: -1}

	first := c.presets[0]
	if int64(len(data)) <= first.MaxBytes && fits(cfg.Width, cfg.Height, first.MaxDimension) {
		return original, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Compressed{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var best *Compressed
	for i, p := range c.presets {
		img := scale(src, p.MaxDimension)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.Quality}); err != nil {
			return Compressed{}, fmt.Errorf("error encoding pass %d: %w", i, err)
		}

		b := img.Bounds()
		out := Compressed{Data: buf.Bytes(), ContentType: "image/jpeg", Width: b.Dx(), Height: b.Dy(), Pass: i}
		imagingLogger.Debug().
			Int("pass", i).
			Int("quality", p.Quality).
			Int("bytes", len(out.Data)).
			Int64("budget", p.MaxBytes).
			Msg("Compression pass")

		if best == nil || len(out.Data) < len(best.Data) {
			best = &out
		}
		if int64(len(out.Data)) <= p.MaxBytes {
			break
		}
	}

	if len(best.Data) >= len(data) {
		return original, nil
	}
	return *best, nil
}

func fits(w, h, maxDimension int) bool {
	return maxDimension <= 0 || (w <= maxDimension && h <= maxDimension)
}

// scale fits src inside maxDimension on a white background, since JPEG has no alpha.
func scale(src image.Image, maxDimension int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if !fits(w, h, maxDimension) {
		if w >= h {
			h = max(1, h*maxDimension/w)
			w = maxDimension
		} else {
			w = max(1, w*maxDimension/h)
			h = maxDimension
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}
	return dst
}
