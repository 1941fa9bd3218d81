package pixelgrid

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage is returned when an image has no pixels at all.
var ErrEmptyImage = errors.New("image has zero size")

// Load decodes an image file (PNG, JPEG, GIF, BMP, TIFF or WebP) into a grid.
func Load(path string, pixelSize float64) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decoding %s (%s): %w", path, format, ErrEmptyImage)
	}
	return FromImage(img, pixelSize), nil
}

// FromImage converts an image into a grid. Image rows run downwards while grid
// Y runs upwards, so the bottom image row becomes Y=0.
// Pixels with zero alpha are skipped.
func FromImage(img image.Image, pixelSize float64) *Grid {
	b := img.Bounds()
	pixels := make(map[Point]Color, b.Dx()*b.Dy())
	for row := b.Min.Y; row < b.Max.Y; row++ {
		for col := b.Min.X; col < b.Max.X; col++ {
			c := color.NRGBAModel.Convert(img.At(col, row)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			p := Point{X: col - b.Min.X, Y: b.Max.Y - 1 - row}
			pixels[p] = Color{c.R, c.G, c.B, c.A}
		}
	}
	return New(pixels, pixelSize)
}
