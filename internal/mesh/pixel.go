package mesh

import (
	"sort"

	"github.com/Faultbox/pixelmesh/pkg/pixelgrid"
)

// PerPixel extrudes every pixel as its own box. Walls between two pixels of
// the footprint are omitted and corner vertices are shared, so the result is
// closed. It accepts any footprint and is the last resort of every Chain.
type PerPixel struct{}

// Name implements Strategy.
func (PerPixel) Name() string { return NamePixel }

// Build implements Strategy.
func (PerPixel) Build(pixels map[pixelgrid.Point]struct{}, ext Extrusion) (*Mesh, error) {
	b := newBuilder(pixels, ext)

	for _, p := range sortedPoints(pixels) {
		x, y := p.X, p.Y

		// Top face, counter-clockwise from above
		t0 := b.vertex(x, y, true, p)
		t1 := b.vertex(x+1, y, true, p)
		t2 := b.vertex(x+1, y+1, true, p)
		t3 := b.vertex(x, y+1, true, p)
		b.triangle(t0, t1, t2)
		b.triangle(t0, t2, t3)

		// Bottom face, reversed
		b0 := b.vertex(x, y, false, p)
		b1 := b.vertex(x+1, y, false, p)
		b2 := b.vertex(x+1, y+1, false, p)
		b3 := b.vertex(x, y+1, false, p)
		b.triangle(b0, b2, b1)
		b.triangle(b0, b3, b2)

		for _, side := range cellSides {
			if b.has(x+side.dx, y+side.dy) {
				continue
			}
			from := p.Add(side.from[0], side.from[1])
			to := p.Add(side.to[0], side.to[1])
			b.wall(from, to, p, p)
		}
	}
	return b.result(), nil
}

func sortedPoints(pixels map[pixelgrid.Point]struct{}) []pixelgrid.Point {
	pts := make([]pixelgrid.Point, 0, len(pixels))
	for p := range pixels {
		pts = append(pts, p)
	}
	sort.Slice(pts, func(i, j int) bool {
		return pts[i].Less(pts[j])
	})
	return pts
}
