// Package imaging re-encodes uploaded photos on the server so compression
// never depends on client behavior.
package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	defaultMaxWidth = 800
	defaultQuality  = 80
)

// Compressor rescales and re-encodes images into bounded JPEG payloads.
type Compressor struct {
	maxWidth int
	quality  int
}

// NewCompressor builds a compressor with the given bounds. Non-positive
// values fall back to the defaults.
func NewCompressor(maxWidth, quality int) *Compressor {
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	return &Compressor{maxWidth: maxWidth, quality: quality}
}

// MaxWidth reports the configured dimension ceiling.
func (c *Compressor) MaxWidth() int {
	return c.maxWidth
}

// Compress decodes src (jpeg/png/webp/gif), scales it uniformly so neither
// dimension exceeds the ceiling, and re-encodes as JPEG. Images already
// within bounds are never upscaled.
func (c *Compressor) Compress(src []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return c.encode(c.scale(img))
}

func (c *Compressor) scale(img image.Image) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= c.maxWidth && height <= c.maxWidth {
		return img
	}
	if width >= height {
		return imaging.Resize(img, c.maxWidth, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, c.maxWidth, imaging.Lanczos)
}

func (c *Compressor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	if buf.Len() == 0 {
		// a well-formed empty payload beats a nil result downstream
		return []byte{}, nil
	}
	return buf.Bytes(), nil
}
