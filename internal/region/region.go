// Package region groups same-colored pixels into connected regions.
package region

import (
	"fmt"
	"sort"

	"github.com/Faultbox/pixelmesh/pkg/pixelgrid"
)

// Connectivity selects which neighbors join a region.
type Connectivity int

// Connectivity modes.
const (
	Disabled Connectivity = 0 // Every pixel is its own region
	Edge     Connectivity = 4 // Pixels sharing an edge
	Corner   Connectivity = 8 // Pixels sharing an edge or a corner
)

// Valid reports whether c is one of 0, 4 or 8.
func (c Connectivity) Valid() bool {
	return c == Disabled || c == Edge || c == Corner
}

// String returns a human-readable mode name.
func (c Connectivity) String() string {
	switch c {
	case Disabled:
		return "disabled"
	case Edge:
		return "4-connected"
	case Corner:
		return "8-connected"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

var (
	edgeOffsets = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	cornerOffsets = [8][2]int{
		{1, 0}, {-1, 0}, {0, 1}, {0, -1},
		{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	}
)

// offsets returns the neighbor offsets examined for the mode.
func (c Connectivity) offsets() [][2]int {
	switch c {
	case Edge:
		return edgeOffsets[:]
	case Corner:
		return cornerOffsets[:]
	default:
		return nil
	}
}

// Region is a set of same-colored pixels connected under the rule that built it.
type Region struct {
	Color  pixelgrid.RGB
	Pixels map[pixelgrid.Point]struct{}
}

// Len returns the number of pixels in the region.
func (r *Region) Len() int {
	return len(r.Pixels)
}

// Has reports whether p belongs to the region.
func (r *Region) Has(p pixelgrid.Point) bool {
	_, ok := r.Pixels[p]
	return ok
}

// Points returns the region's pixels in row-major order.
func (r *Region) Points() []pixelgrid.Point {
	pts := make([]pixelgrid.Point, 0, len(r.Pixels))
	for p := range r.Pixels {
		pts = append(pts, p)
	}
	sort.Slice(pts, func(i, j int) bool {
		return pts[i].Less(pts[j])
	})
	return pts
}

// Merge partitions the grid into maximal same-color components under mode.
// Seeds are taken in grid order, so the result is deterministic.
func Merge(grid *pixelgrid.Grid, mode Connectivity) []*Region {
	visited := make(map[pixelgrid.Point]bool, grid.Len())
	var regions []*Region

	for _, seed := range grid.Points() {
		if visited[seed] {
			continue
		}
		seedColor, _ := grid.At(seed)
		color := seedColor.RGB()

		pixels := flood(seed, mode.offsets(), visited, func(p pixelgrid.Point) bool {
			c, ok := grid.At(p)
			return ok && c.RGB() == color
		})
		regions = append(regions, &Region{Color: color, Pixels: pixels})
	}
	return regions
}

// flood runs a breadth-first fill from seed with an explicit queue.
// member decides whether a neighbor may join; visited is shared with the caller.
func flood(seed pixelgrid.Point, offsets [][2]int, visited map[pixelgrid.Point]bool,
	member func(pixelgrid.Point) bool) map[pixelgrid.Point]struct{} {

	pixels := map[pixelgrid.Point]struct{}{seed: {}}
	visited[seed] = true

	queue := []pixelgrid.Point{seed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, off := range offsets {
			n := cur.Add(off[0], off[1])
			if visited[n] || !member(n) {
				continue
			}
			visited[n] = true
			pixels[n] = struct{}{}
			queue = append(queue, n)
		}
	}
	return pixels
}
