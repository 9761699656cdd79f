package imagegen

import (
	"context"
	"image"
	"image/color"
	"image/draw"
)

var (
	placeholderBG     = color.RGBA{R: 236, G: 239, B: 244, A: 255}
	placeholderBorder = color.RGBA{R: 38, G: 50, B: 56, A: 255}
)

const placeholderBorderPx = 4

// NewPlaceholderRaster builds the neutral bordered rectangle substituted
// when generation ultimately fails, so document production is never
// blocked. It carries no text.
func NewPlaceholderRaster(width, height int) *Raster {
	if width <= 0 {
		width = 768
	}
	if height <= 0 {
		height = 480
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholderBorder}, image.Point{}, draw.Src)
	inner := image.Rect(placeholderBorderPx, placeholderBorderPx, width-placeholderBorderPx, height-placeholderBorderPx)
	draw.Draw(img, inner, &image.Uniform{C: placeholderBG}, image.Point{}, draw.Src)
	return &Raster{Image: img, Width: width, Height: height}
}

// PlaceholderProvider generates placeholders locally. Used in fast/offline
// mode and in tests.
type PlaceholderProvider struct{}

func NewPlaceholderProvider() *PlaceholderProvider { return &PlaceholderProvider{} }

func (p *PlaceholderProvider) Name() string { return "placeholder" }

func (p *PlaceholderProvider) Generate(_ context.Context, req Request) ([]byte, error) {
	return NewPlaceholderRaster(req.Width, req.Height).EncodePNG()
}
