package imagegen

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Raster is a decoded image plus its intrinsic pixel dimensions, used to
// compute the millimeter height implied by a target millimeter width.
type Raster struct {
	Image  image.Image
	Width  int
	Height int
}

// DecodeRaster decodes PNG, JPEG, or GIF bytes into a Raster.
func DecodeRaster(data []byte) (*Raster, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	b := img.Bounds()
	return &Raster{Image: img, Width: b.Dx(), Height: b.Dy()}, nil
}

// EncodePNG re-encodes the raster to the canonical embedding format.
func (r *Raster) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Image); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG encodes the raster as JPEG at the given quality.
func (r *Raster) EncodeJPEG(quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, r.Image, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// HeightForWidth returns the height, in the caller's units, that preserves
// the aspect ratio at the given width.
func (r *Raster) HeightForWidth(width float64) float64 {
	if r.Width == 0 {
		return 0
	}
	return width * float64(r.Height) / float64(r.Width)
}

// Resize scales the raster to the exact pixel dimensions using Catmull-Rom
// interpolation.
func (r *Raster) Resize(width, height int) *Raster {
	if width <= 0 || height <= 0 || (width == r.Width && height == r.Height) {
		return r
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), r.Image, r.Image.Bounds(), xdraw.Over, nil)
	return &Raster{Image: dst, Width: width, Height: height}
}
