package imagegen

import (
	"math"
	"testing"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	src := NewPlaceholderRaster(120, 80)
	data, err := src.EncodePNG()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeRaster(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Width != 120 || got.Height != 80 {
		t.Fatalf("dimensions %dx%d, want 120x80", got.Width, got.Height)
	}
}

func TestHeightForWidthPreservesAspectRatio(t *testing.T) {
	r := &Raster{Width: 960, Height: 600}
	got := r.HeightForWidth(68)
	want := 68.0 * 600.0 / 960.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("HeightForWidth(68) = %f, want %f", got, want)
	}
}

func TestHeightForWidthZeroWidthRaster(t *testing.T) {
	r := &Raster{Width: 0, Height: 100}
	if got := r.HeightForWidth(68); got != 0 {
		t.Fatalf("degenerate raster should yield 0, got %f", got)
	}
}

func TestResize(t *testing.T) {
	src := NewPlaceholderRaster(100, 50)
	got := src.Resize(200, 100)
	if got.Width != 200 || got.Height != 100 {
		t.Fatalf("resize produced %dx%d", got.Width, got.Height)
	}
	if same := src.Resize(100, 50); same != src {
		t.Fatal("no-op resize should return the receiver")
	}
}

func TestDecodeRasterRejectsGarbage(t *testing.T) {
	if _, err := DecodeRaster([]byte("garbage")); err == nil {
		t.Fatal("expected decode error")
	}
}
