package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestCompressShrinksOversizedImages(t *testing.T) {
	t.Parallel()

	c := NewCompressor(800, 80)
	out, err := c.Compress(encodePNG(t, 1600, 1200))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	w, h := decodeDims(t, out)
	if w > 800 || h > 800 {
		t.Fatalf("dimensions not bounded: %dx%d", w, h)
	}
	if w != 800 {
		t.Fatalf("expected landscape width 800, got %d", w)
	}
}

func TestCompressNeverUpscales(t *testing.T) {
	t.Parallel()

	c := NewCompressor(800, 80)
	out, err := c.Compress(encodePNG(t, 100, 100))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	w, h := decodeDims(t, out)
	if w > 100 || h > 100 {
		t.Fatalf("image was upscaled to %dx%d", w, h)
	}
}

func TestCompressPortraitBoundsHeight(t *testing.T) {
	t.Parallel()

	c := NewCompressor(300, 90)
	out, err := c.Compress(encodePNG(t, 600, 1200))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	w, h := decodeDims(t, out)
	if h != 300 {
		t.Fatalf("expected portrait height 300, got %d", h)
	}
	if w > 300 {
		t.Fatalf("width not bounded: %d", w)
	}
}

func TestCompressRejectsNonImages(t *testing.T) {
	t.Parallel()

	c := NewCompressor(800, 80)
	if _, err := c.Compress([]byte("definitely not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewCompressorFallbacks(t *testing.T) {
	t.Parallel()

	c := NewCompressor(0, 0)
	if c.MaxWidth() != defaultMaxWidth {
		t.Fatalf("unexpected max width %d", c.MaxWidth())
	}
	if c.quality != defaultQuality {
		t.Fatalf("unexpected quality %d", c.quality)
	}
}
