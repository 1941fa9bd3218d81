package region

import (
	"github.com/Faultbox/pixelmesh/pkg/pixelgrid"
)

// EdgeComponents re-floods the region using edge adjacency only.
// A region built with 4-connectivity always yields exactly one component.
func (r *Region) EdgeComponents() []*Region {
	parts := Components(r.Pixels)
	out := make([]*Region, len(parts))
	for i, px := range parts {
		out[i] = &Region{Color: r.Color, Pixels: px}
	}
	return out
}

// Components splits a pixel set into its edge-connected components,
// seeded in row-major order.
func Components(pixels map[pixelgrid.Point]struct{}) []map[pixelgrid.Point]struct{} {
	visited := make(map[pixelgrid.Point]bool, len(pixels))
	member := func(p pixelgrid.Point) bool {
		_, ok := pixels[p]
		return ok
	}

	var parts []map[pixelgrid.Point]struct{}
	for _, seed := range sortedPoints(pixels) {
		if visited[seed] {
			continue
		}
		parts = append(parts, flood(seed, edgeOffsets[:], visited, member))
	}
	return parts
}

// IsEdgeConnected reports whether the pixel set forms a single edge component.
// The empty set is not connected.
func IsEdgeConnected(pixels map[pixelgrid.Point]struct{}) bool {
	if len(pixels) == 0 {
		return false
	}
	var seed pixelgrid.Point
	for p := range pixels {
		seed = p
		break
	}
	visited := make(map[pixelgrid.Point]bool, len(pixels))
	reached := flood(seed, edgeOffsets[:], visited, func(p pixelgrid.Point) bool {
		_, ok := pixels[p]
		return ok
	})
	return len(reached) == len(pixels)
}

// SplitDiagonal replaces every region by its edge components, so regions
// joined only through corners become separate regions. Order is preserved.
func SplitDiagonal(regions []*Region) []*Region {
	out := make([]*Region, 0, len(regions))
	for _, r := range regions {
		out = append(out, r.EdgeComponents()...)
	}
	return out
}

// TrimWeak removes pixels that have no edge neighbor of any color in the
// footprint of all regions. Such a pixel would touch the model at a single
// point. Removal repeats until nothing changes; emptied regions are dropped.
// Input regions are not modified.
func TrimWeak(regions []*Region) (trimmed []*Region, removed int) {
	footprint := Footprint(regions)

	for {
		var weak []pixelgrid.Point
		for p := range footprint {
			if !hasEdgeNeighbor(footprint, p) {
				weak = append(weak, p)
			}
		}
		if len(weak) == 0 {
			break
		}
		for _, p := range weak {
			delete(footprint, p)
		}
		removed += len(weak)
	}

	for _, r := range regions {
		kept := make(map[pixelgrid.Point]struct{}, len(r.Pixels))
		for p := range r.Pixels {
			if _, ok := footprint[p]; ok {
				kept[p] = struct{}{}
			}
		}
		if len(kept) == 0 {
			continue
		}
		trimmed = append(trimmed, &Region{Color: r.Color, Pixels: kept})
	}
	return trimmed, removed
}

func hasEdgeNeighbor(pixels map[pixelgrid.Point]struct{}, p pixelgrid.Point) bool {
	for _, off := range edgeOffsets {
		if _, ok := pixels[p.Add(off[0], off[1])]; ok {
			return true
		}
	}
	return false
}

// Footprint returns the union of the regions' pixel sets.
func Footprint(regions []*Region) map[pixelgrid.Point]struct{} {
	n := 0
	for _, r := range regions {
		n += len(r.Pixels)
	}
	fp := make(map[pixelgrid.Point]struct{}, n)
	for _, r := range regions {
		for p := range r.Pixels {
			fp[p] = struct{}{}
		}
	}
	return fp
}

// FilterGrid returns a new grid holding only the pixels of the given regions.
func FilterGrid(grid *pixelgrid.Grid, regions []*Region) *pixelgrid.Grid {
	return grid.Filter(Footprint(regions))
}

func sortedPoints(pixels map[pixelgrid.Point]struct{}) []pixelgrid.Point {
	r := Region{Pixels: pixels}
	return r.Points()
}
