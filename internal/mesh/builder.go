package mesh

import (
	"github.com/Faultbox/pixelmesh/pkg/math"
	"github.com/Faultbox/pixelmesh/pkg/pixelgrid"
)

// vertexKey identifies a shared vertex by grid corner, plane and sector.
// Sector is zero except at pinch corners, where each touching pixel gets its
// own copy so the two solids stay topologically separate.
type vertexKey struct {
	x, y   int
	top    bool
	sector int8
}

// builder accumulates a mesh with coordinate-keyed vertex sharing.
// It is owned by a single Build call and never shared.
type builder struct {
	pixels map[pixelgrid.Point]struct{}
	ext    Extrusion
	index  map[vertexKey]uint32
	mesh   *Mesh
}

func newBuilder(pixels map[pixelgrid.Point]struct{}, ext Extrusion) *builder {
	return &builder{
		pixels: pixels,
		ext:    ext,
		index:  make(map[vertexKey]uint32),
		mesh:   &Mesh{},
	}
}

func (b *builder) has(x, y int) bool {
	_, ok := b.pixels[pixelgrid.Point{X: x, Y: y}]
	return ok
}

// isPinch reports whether exactly two diagonally opposite pixels meet at the
// grid corner (x, y).
func (b *builder) isPinch(x, y int) bool {
	sw, se := b.has(x-1, y-1), b.has(x, y-1)
	nw, ne := b.has(x-1, y), b.has(x, y)
	return (sw && ne && !se && !nw) || (se && nw && !sw && !ne)
}

// vertex returns the index of the grid corner (x, y) on the top or bottom
// plane, as seen from the pixel cell. cell must be one of the four pixels
// touching the corner.
func (b *builder) vertex(x, y int, top bool, cell pixelgrid.Point) uint32 {
	key := vertexKey{x: x, y: y, top: top}
	if b.isPinch(x, y) {
		key.sector = int8(1 + (cell.X - (x - 1)) + 2*(cell.Y-(y-1)))
	}
	if idx, ok := b.index[key]; ok {
		return idx
	}

	z := b.ext.ZBottom
	if top {
		z = b.ext.ZTop
	}
	idx := uint32(len(b.mesh.Vertices))
	b.mesh.Vertices = append(b.mesh.Vertices, math.Vec3{
		X: float64(x) * b.ext.PixelSize,
		Y: float64(y) * b.ext.PixelSize,
		Z: z,
	})
	b.index[key] = idx
	return idx
}

// free appends an unshared vertex at fractional grid coordinates.
func (b *builder) free(gx, gy float64, top bool) uint32 {
	z := b.ext.ZBottom
	if top {
		z = b.ext.ZTop
	}
	idx := uint32(len(b.mesh.Vertices))
	b.mesh.Vertices = append(b.mesh.Vertices, math.Vec3{
		X: gx * b.ext.PixelSize,
		Y: gy * b.ext.PixelSize,
		Z: z,
	})
	return idx
}

func (b *builder) triangle(a, c, d uint32) {
	b.mesh.Triangles = append(b.mesh.Triangles, Triangle{a, c, d})
}

// wall emits the vertical quad under the boundary segment from -> to.
// The solid lies to the left of the segment, so the quad faces right.
func (b *builder) wall(from, to pixelgrid.Point, fromCell, toCell pixelgrid.Point) {
	ab := b.vertex(from.X, from.Y, false, fromCell)
	bb := b.vertex(to.X, to.Y, false, toCell)
	bt := b.vertex(to.X, to.Y, true, toCell)
	at := b.vertex(from.X, from.Y, true, fromCell)
	b.triangle(ab, bb, bt)
	b.triangle(ab, bt, at)
}

// boundarySide describes one side of a pixel cell: the neighbor across it and
// the directed boundary segment with the cell on its left.
type boundarySide struct {
	dx, dy   int
	from, to [2]int
}

var cellSides = [4]boundarySide{
	{dx: 0, dy: -1, from: [2]int{0, 0}, to: [2]int{1, 0}}, // bottom, heading +X
	{dx: 1, dy: 0, from: [2]int{1, 0}, to: [2]int{1, 1}},  // right, heading +Y
	{dx: 0, dy: 1, from: [2]int{1, 1}, to: [2]int{0, 1}},  // top, heading -X
	{dx: -1, dy: 0, from: [2]int{0, 1}, to: [2]int{0, 0}}, // left, heading -Y
}

func (b *builder) result() *Mesh {
	return b.mesh
}
