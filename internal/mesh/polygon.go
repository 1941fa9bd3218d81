package mesh

import (
	"fmt"

	"github.com/hajimehoshi/go-libtess2"

	"github.com/Faultbox/pixelmesh/internal/region"
	"github.com/Faultbox/pixelmesh/pkg/pixelgrid"
)

// Polygon traces the footprint outline, triangulates it with holes and
// extrudes the result. It produces the fewest triangles but only accepts
// footprints whose outline is one polygon without pinch corners. Every
// triangulation is checked against the outline before it is used, and
// anything that does not tile the footprint exactly is rejected with
// ErrTriangulation.
type Polygon struct{}

// Name implements Strategy.
func (Polygon) Name() string { return NamePolygon }

// Build implements Strategy.
func (Polygon) Build(pixels map[pixelgrid.Point]struct{}, ext Extrusion) (*Mesh, error) {
	if len(pixels) == 0 {
		return &Mesh{}, nil
	}
	if !region.IsEdgeConnected(pixels) {
		return nil, ErrDiagonalOnly
	}

	rings, err := Outline(pixels)
	if err != nil {
		return nil, err
	}
	tris, err := triangulate(rings)
	if err != nil {
		return nil, err
	}
	if err := checkTiling(rings, tris, len(pixels)); err != nil {
		return nil, err
	}

	b := newBuilder(pixels, ext)
	for _, t := range tris {
		b.triangle(
			b.vertex(t[0].X, t[0].Y, true, t[0]),
			b.vertex(t[1].X, t[1].Y, true, t[1]),
			b.vertex(t[2].X, t[2].Y, true, t[2]),
		)
	}
	for _, t := range tris {
		b.triangle(
			b.vertex(t[0].X, t[0].Y, false, t[0]),
			b.vertex(t[2].X, t[2].Y, false, t[2]),
			b.vertex(t[1].X, t[1].Y, false, t[1]),
		)
	}
	for _, r := range rings {
		for i, from := range r {
			to := r[(i+1)%len(r)]
			b.wall(from, to, from, to)
		}
	}
	return b.result(), nil
}

type flatTriangle [3]pixelgrid.Point

// triangulate runs the tessellator under the odd winding rule, which keeps
// hole interiors out without needing a point inside each hole. Output
// triangles are mapped back onto ring vertices and wound counter-clockwise.
func triangulate(rings []Ring) (tris []flatTriangle, err error) {
	defer func() {
		if r := recover(); r != nil {
			tris, err = nil, fmt.Errorf("%w: tessellator panic: %v", ErrTriangulation, r)
		}
	}()

	contours := make([]libtess2.Contour, len(rings))
	for i, r := range rings {
		c := make(libtess2.Contour, len(r))
		for j, p := range r {
			c[j] = libtess2.Vertex{X: float32(p.X), Y: float32(p.Y)}
		}
		contours[i] = c
	}

	elements, verts, err := libtess2.Tesselate(contours, libtess2.WindingRuleOdd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTriangulation, err)
	}
	if len(elements)%3 != 0 {
		return nil, fmt.Errorf("%w: %d element indices", ErrTriangulation, len(elements))
	}

	known := make(map[pixelgrid.Point]bool)
	for _, r := range rings {
		for _, p := range r {
			known[p] = true
		}
	}
	points := make([]pixelgrid.Point, len(verts))
	for i, v := range verts {
		p := pixelgrid.Point{X: int(v.X), Y: int(v.Y)}
		if float32(p.X) != v.X || float32(p.Y) != v.Y || !known[p] {
			return nil, fmt.Errorf("%w: vertex (%v, %v) is not on the outline", ErrTriangulation, v.X, v.Y)
		}
		points[i] = p
	}

	tris = make([]flatTriangle, 0, len(elements)/3)
	for i := 0; i < len(elements); i += 3 {
		var t flatTriangle
		for k := 0; k < 3; k++ {
			e := elements[i+k]
			if e < 0 || e >= len(points) {
				return nil, fmt.Errorf("%w: element index %d", ErrTriangulation, e)
			}
			t[k] = points[e]
		}
		switch a := Ring(t[:]).Area2(); {
		case a == 0:
			return nil, fmt.Errorf("%w: degenerate triangle %v", ErrTriangulation, t)
		case a < 0:
			t[1], t[2] = t[2], t[1]
		}
		tris = append(tris, t)
	}
	return tris, nil
}

type flatEdge struct{ from, to pixelgrid.Point }

// checkTiling verifies that the triangles exactly cover the footprint: each
// outline edge is used once in its own direction, every other edge once in
// each direction, and the covered area equals the pixel count.
func checkTiling(rings []Ring, tris []flatTriangle, pixelCount int) error {
	uses := make(map[flatEdge]int, 3*len(tris))
	area2 := 0
	for _, t := range tris {
		area2 += Ring(t[:]).Area2()
		for k := 0; k < 3; k++ {
			uses[flatEdge{t[k], t[(k+1)%3]}]++
		}
	}
	if area2 != 2*pixelCount {
		return fmt.Errorf("%w: triangles cover %v pixels, want %d", ErrTriangulation, float64(area2)/2, pixelCount)
	}

	outline := make(map[flatEdge]bool)
	for _, r := range rings {
		for i, p := range r {
			e := flatEdge{p, r[(i+1)%len(r)]}
			outline[e] = true
			if uses[e] != 1 || uses[flatEdge{e.to, e.from}] != 0 {
				return fmt.Errorf("%w: outline edge %v-%v not covered once", ErrTriangulation, e.from, e.to)
			}
		}
	}
	for e, n := range uses {
		if outline[e] {
			continue
		}
		if n != 1 || uses[flatEdge{e.to, e.from}] != 1 {
			return fmt.Errorf("%w: interior edge %v-%v used %d times", ErrTriangulation, e.from, e.to, n)
		}
	}
	return nil
}
