package mesh

import (
	"sort"

	"github.com/Faultbox/pixelmesh/internal/region"
	"github.com/Faultbox/pixelmesh/pkg/pixelgrid"
)

// Rectangles merges the footprint into maximal axis-aligned rectangles and
// extrudes those. Every face edge is shared by exactly two triangles, so the
// output is manifold by construction. Footprints that are not a single edge
// component are rejected with ErrDiagonalOnly.
type Rectangles struct{}

// Name implements Strategy.
func (Rectangles) Name() string { return NameRectangle }

// rect holds inclusive pixel bounds.
type rect struct {
	x0, x1, y0, y1 int
}

// Build implements Strategy.
func (Rectangles) Build(pixels map[pixelgrid.Point]struct{}, ext Extrusion) (*Mesh, error) {
	if len(pixels) == 0 {
		return &Mesh{}, nil
	}
	if !region.IsEdgeConnected(pixels) {
		return nil, ErrDiagonalOnly
	}

	rects := mergeRects(pixels)
	corners := newCornerIndex(rects)
	b := newBuilder(pixels, ext)
	for _, r := range rects {
		emitRect(b, r, corners)
	}
	return b.result(), nil
}

// mergeRects merges rows into maximal strips, then stacks strips with an
// identical x-span on consecutive rows.
func mergeRects(pixels map[pixelgrid.Point]struct{}) []rect {
	rows := make(map[int][]int)
	for p := range pixels {
		rows[p.Y] = append(rows[p.Y], p.X)
	}
	ys := make([]int, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	sort.Ints(ys)

	type span struct{ x0, x1 int }
	open := make(map[span]int) // span -> index into rects, for rects ending on the previous row
	var rects []rect

	for _, y := range ys {
		xs := rows[y]
		sort.Ints(xs)

		next := make(map[span]int)
		for i := 0; i < len(xs); {
			j := i
			for j+1 < len(xs) && xs[j+1] == xs[j]+1 {
				j++
			}
			s := span{xs[i], xs[j]}
			if idx, ok := open[s]; ok && rects[idx].y1 == y-1 {
				rects[idx].y1 = y
				next[s] = idx
			} else {
				rects = append(rects, rect{x0: s.x0, x1: s.x1, y0: y, y1: y})
				next[s] = len(rects) - 1
			}
			i = j + 1
		}
		open = next
	}
	return rects
}

// cornerIndex finds rectangle corners lying on a grid line.
type cornerIndex struct {
	byRow map[int][]int // y -> sorted x of corners on that horizontal line
	byCol map[int][]int // x -> sorted y of corners on that vertical line
}

func newCornerIndex(rects []rect) *cornerIndex {
	ci := &cornerIndex{byRow: make(map[int][]int), byCol: make(map[int][]int)}
	seen := make(map[pixelgrid.Point]bool)
	for _, r := range rects {
		for _, c := range r.gridCorners() {
			if seen[c] {
				continue
			}
			seen[c] = true
			ci.byRow[c.Y] = append(ci.byRow[c.Y], c.X)
			ci.byCol[c.X] = append(ci.byCol[c.X], c.Y)
		}
	}
	for _, xs := range ci.byRow {
		sort.Ints(xs)
	}
	for _, ys := range ci.byCol {
		sort.Ints(ys)
	}
	return ci
}

// between returns sorted values of line strictly between lo and hi.
func between(line []int, lo, hi int) []int {
	i := sort.SearchInts(line, lo+1)
	j := sort.SearchInts(line, hi)
	return line[i:j]
}

// gridCorners returns the rectangle's corners in grid-vertex coordinates,
// counter-clockwise from the bottom-left.
func (r rect) gridCorners() [4]pixelgrid.Point {
	return [4]pixelgrid.Point{
		{X: r.x0, Y: r.y0},
		{X: r.x1 + 1, Y: r.y0},
		{X: r.x1 + 1, Y: r.y1 + 1},
		{X: r.x0, Y: r.y1 + 1},
	}
}

// cellAt returns the pixel of r touching the grid vertex p on its boundary.
func (r rect) cellAt(p pixelgrid.Point) pixelgrid.Point {
	return pixelgrid.Point{X: clamp(p.X, r.x0, r.x1), Y: clamp(p.Y, r.y0, r.y1)}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// outline returns the boundary vertices of r counter-clockwise, including
// every other rectangle corner lying on its edges.
func (r rect) outline(ci *cornerIndex) []pixelgrid.Point {
	c := r.gridCorners()
	var ring []pixelgrid.Point

	// Bottom, heading +X
	ring = append(ring, c[0])
	for _, x := range between(ci.byRow[c[0].Y], c[0].X, c[1].X) {
		ring = append(ring, pixelgrid.Point{X: x, Y: c[0].Y})
	}
	// Right, heading +Y
	ring = append(ring, c[1])
	for _, y := range between(ci.byCol[c[1].X], c[1].Y, c[2].Y) {
		ring = append(ring, pixelgrid.Point{X: c[1].X, Y: y})
	}
	// Top, heading -X
	ring = append(ring, c[2])
	top := between(ci.byRow[c[2].Y], c[3].X, c[2].X)
	for i := len(top) - 1; i >= 0; i-- {
		ring = append(ring, pixelgrid.Point{X: top[i], Y: c[2].Y})
	}
	// Left, heading -Y
	ring = append(ring, c[3])
	left := between(ci.byCol[c[3].X], c[0].Y, c[3].Y)
	for i := len(left) - 1; i >= 0; i-- {
		ring = append(ring, pixelgrid.Point{X: c[3].X, Y: left[i]})
	}
	return ring
}

// emitRect writes the top and bottom faces of r and its perimeter walls.
func emitRect(b *builder, r rect, ci *cornerIndex) {
	ring := r.outline(ci)

	top := make([]uint32, len(ring))
	bottom := make([]uint32, len(ring))
	for i, p := range ring {
		cell := r.cellAt(p)
		top[i] = b.vertex(p.X, p.Y, true, cell)
		bottom[i] = b.vertex(p.X, p.Y, false, cell)
	}

	if len(ring) == 4 {
		b.triangle(top[0], top[1], top[2])
		b.triangle(top[0], top[2], top[3])
		b.triangle(bottom[0], bottom[2], bottom[1])
		b.triangle(bottom[0], bottom[3], bottom[2])
	} else {
		// T-junctions on the edges: fan from the center so every boundary
		// segment gets its own triangle.
		cx := float64(r.x0+r.x1+1) / 2
		cy := float64(r.y0+r.y1+1) / 2
		ct := b.free(cx, cy, true)
		cb := b.free(cx, cy, false)
		for i := range ring {
			j := (i + 1) % len(ring)
			b.triangle(ct, top[i], top[j])
			b.triangle(cb, bottom[j], bottom[i])
		}
	}

	for i := range ring {
		j := (i + 1) % len(ring)
		from, to := ring[i], ring[j]
		if !b.has(acrossCell(from, to)) {
			b.wall(from, to, r.cellAt(from), r.cellAt(to))
		}
	}
}

// acrossCell returns the pixel on the right of the directed axis-aligned
// segment from -> to, adjacent to its start.
func acrossCell(from, to pixelgrid.Point) (int, int) {
	switch {
	case to.X > from.X: // heading +X, outside is below
		return from.X, from.Y - 1
	case to.X < from.X: // heading -X, outside is above
		return from.X - 1, from.Y
	case to.Y > from.Y: // heading +Y, outside is right
		return from.X, from.Y
	default: // heading -Y, outside is left
		return from.X - 1, from.Y - 1
	}
}
