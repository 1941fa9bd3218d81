package mesh

import (
	"sort"

	"github.com/Faultbox/pixelmesh/pkg/pixelgrid"
)

// Ring is a closed boundary loop in grid-vertex coordinates. The footprint
// lies to the left of every edge, so outer rings run counter-clockwise and
// hole rings clockwise.
type Ring []pixelgrid.Point

// Area2 returns twice the signed area of the ring. Positive means
// counter-clockwise.
func (r Ring) Area2() int {
	sum := 0
	for i, p := range r {
		q := r[(i+1)%len(r)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum
}

// simplify drops vertices that lie on a straight run.
func (r Ring) simplify() Ring {
	if len(r) < 4 {
		return r
	}
	out := make(Ring, 0, len(r))
	n := len(r)
	for i, p := range r {
		prev := r[(i+n-1)%n]
		next := r[(i+1)%n]
		d1x, d1y := p.X-prev.X, p.Y-prev.Y
		d2x, d2y := next.X-p.X, next.Y-p.Y
		if d1x*d2y-d1y*d2x == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Outline returns the boundary rings of the footprint: the outer ring
// first, then holes, each simplified to its corners. It fails with
// ErrPinchVertex when the boundary touches itself at a corner and with
// ErrMultiplePolygons unless there is exactly one outer ring.
func Outline(pixels map[pixelgrid.Point]struct{}) ([]Ring, error) {
	next := make(map[pixelgrid.Point]pixelgrid.Point)
	for p := range pixels {
		for _, side := range cellSides {
			if _, ok := pixels[p.Add(side.dx, side.dy)]; ok {
				continue
			}
			from := p.Add(side.from[0], side.from[1])
			if _, dup := next[from]; dup {
				return nil, ErrPinchVertex
			}
			next[from] = p.Add(side.to[0], side.to[1])
		}
	}

	starts := make([]pixelgrid.Point, 0, len(next))
	for p := range next {
		starts = append(starts, p)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Less(starts[j]) })

	var outer []Ring
	var holes []Ring
	visited := make(map[pixelgrid.Point]bool, len(next))
	for _, s := range starts {
		if visited[s] {
			continue
		}
		var ring Ring
		for p := s; !visited[p]; p = next[p] {
			visited[p] = true
			ring = append(ring, p)
		}
		ring = ring.simplify()
		if ring.Area2() > 0 {
			outer = append(outer, ring)
		} else {
			holes = append(holes, ring)
		}
	}
	if len(outer) != 1 {
		return nil, ErrMultiplePolygons
	}
	return append(outer, holes...), nil
}
