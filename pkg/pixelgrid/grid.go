// Package pixelgrid provides the sparse colored pixel grid consumed by the mesher.
package pixelgrid

import (
	"fmt"
	"sort"
)

// Point is an integer pixel coordinate. Y grows upwards in model space.
type Point struct {
	X, Y int
}

// Add returns p offset by (dx, dy).
func (p Point) Add(dx, dy int) Point {
	return Point{p.X + dx, p.Y + dy}
}

// Less orders points by row, then column.
func (p Point) Less(other Point) bool {
	if p.Y != other.Y {
		return p.Y < other.Y
	}
	return p.X < other.X
}

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// RGB returns the color with alpha discarded, used for region equality.
func (c Color) RGB() RGB {
	return RGB{c.R, c.G, c.B}
}

// RGB is an opaque 8-bit color.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Grid is an immutable sparse mapping from pixel coordinate to color.
// Only pixels with non-zero alpha are stored.
type Grid struct {
	pixels    map[Point]Color
	order     []Point
	PixelSize float64 // Physical edge length of one pixel, in millimeters
}

// New creates a grid from a pixel map. Fully transparent pixels are dropped.
// The map is copied.
func New(pixels map[Point]Color, pixelSize float64) *Grid {
	g := &Grid{
		pixels:    make(map[Point]Color, len(pixels)),
		PixelSize: pixelSize,
	}
	for p, c := range pixels {
		if c.A == 0 {
			continue
		}
		g.pixels[p] = c
		g.order = append(g.order, p)
	}
	sort.Slice(g.order, func(i, j int) bool {
		return g.order[i].Less(g.order[j])
	})
	return g
}

// Len returns the number of pixels.
func (g *Grid) Len() int {
	return len(g.order)
}

// At returns the color at p and whether the pixel exists.
func (g *Grid) At(p Point) (Color, bool) {
	c, ok := g.pixels[p]
	return c, ok
}

// Has reports whether a pixel exists at p.
func (g *Grid) Has(p Point) bool {
	_, ok := g.pixels[p]
	return ok
}

// Points returns all pixel coordinates in row-major order (Y, then X).
// The returned slice must not be modified.
func (g *Grid) Points() []Point {
	return g.order
}

// Filter returns a new grid holding only the pixels in keep.
func (g *Grid) Filter(keep map[Point]struct{}) *Grid {
	pixels := make(map[Point]Color, len(keep))
	for p := range keep {
		if c, ok := g.pixels[p]; ok {
			pixels[p] = c
		}
	}
	return New(pixels, g.PixelSize)
}

// Bounds returns the inclusive min and max pixel coordinates.
// ok is false for an empty grid.
func (g *Grid) Bounds() (min, max Point, ok bool) {
	if len(g.order) == 0 {
		return Point{}, Point{}, false
	}
	min, max = g.order[0], g.order[0]
	for _, p := range g.order {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max, true
}

// Colors returns the distinct colors with their pixel counts, most frequent first.
func (g *Grid) Colors() []ColorCount {
	counts := make(map[RGB]int)
	for _, p := range g.order {
		counts[g.pixels[p].RGB()]++
	}

	result := make([]ColorCount, 0, len(counts))
	for c, n := range counts {
		result = append(result, ColorCount{Color: c, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Color.Hex() < result[j].Color.Hex()
	})
	return result
}

// ColorCount pairs a color with the number of pixels using it.
type ColorCount struct {
	Color RGB
	Count int
}
