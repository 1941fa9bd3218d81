// Package manifold finds and repairs topology defects in triangle meshes.
//
// Scan reports defects without changing anything, Repair runs a fixed
// sequence of repairs and Check combines the two.
package manifold

import (
	"math"
	"sort"

	"github.com/Faultbox/pixelmesh/internal/mesh"
	pmath "github.com/Faultbox/pixelmesh/pkg/math"
)

const (
	// Tolerance is the distance below which two vertices coincide.
	Tolerance = 1e-6
	// AreaEpsilon is the area below which a face is degenerate.
	AreaEpsilon = 1e-12
)

// Issues counts the defects found in a mesh.
type Issues struct {
	InvalidFaces         int // Faces referencing a missing vertex
	NonFiniteVertices    int
	DuplicateVertices    int // Coincident vertices; split pinch corners count here too
	UnreferencedVertices int
	DegenerateFaces      int
	DuplicateFaces       int
	NonManifoldEdges     int // Edges shared by more than two faces
	BoundaryEdges        int // Edges used by a single face
	InconsistentEdges    int // Edges whose two faces wind the same way
	InvertedComponents   int // Closed components wound inward

	Vertices   int
	Faces      int
	Edges      int
	Components int
}

// Defects returns the number of issues that make a mesh unprintable.
// Duplicate vertices are informational only.
func (i Issues) Defects() int {
	return i.InvalidFaces + i.NonFiniteVertices + i.UnreferencedVertices +
		i.DegenerateFaces + i.DuplicateFaces + i.NonManifoldEdges +
		i.BoundaryEdges + i.InconsistentEdges + i.InvertedComponents
}

// Clean reports whether the mesh is a closed, consistently wound manifold.
func (i Issues) Clean() bool {
	return i.Defects() == 0
}

// Euler returns V - E + F, which is 2 per closed genus-0 component.
func (i Issues) Euler() int {
	return i.Vertices - i.Edges + i.Faces
}

type edgeKey [2]uint32

func undirected(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// edgeUse records how often an undirected edge is traversed in each
// direction. fwd counts lo->hi.
type edgeUse struct {
	fwd, rev int
}

func (u edgeUse) total() int { return u.fwd + u.rev }

func edgeUses(tris []mesh.Triangle) map[edgeKey]edgeUse {
	uses := make(map[edgeKey]edgeUse, 3*len(tris)/2)
	for _, t := range tris {
		for k := 0; k < 3; k++ {
			a, b := t[k], t[(k+1)%3]
			key := undirected(a, b)
			u := uses[key]
			if a < b {
				u.fwd++
			} else {
				u.rev++
			}
			uses[key] = u
		}
	}
	return uses
}

func faceKey(t mesh.Triangle) [3]uint32 {
	k := [3]uint32(t)
	sort.Slice(k[:], func(i, j int) bool { return k[i] < k[j] })
	return k
}

type posKey [3]int64

func quantize(v pmath.Vec3) posKey {
	return posKey{
		int64(math.Round(v.X / Tolerance)),
		int64(math.Round(v.Y / Tolerance)),
		int64(math.Round(v.Z / Tolerance)),
	}
}

func degenerate(m *mesh.Mesh, t mesh.Triangle) bool {
	if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
		return true
	}
	a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
	return !(pmath.TriangleArea(a, b, c) >= AreaEpsilon)
}

// Scan inspects m and counts its defects. It does not modify m.
func Scan(m *mesh.Mesh) Issues {
	var is Issues
	if m == nil {
		return is
	}
	n := uint32(len(m.Vertices))

	var tris []mesh.Triangle
	for _, t := range m.Triangles {
		if t[0] >= n || t[1] >= n || t[2] >= n {
			is.InvalidFaces++
			continue
		}
		tris = append(tris, t)
	}

	seen := make(map[posKey]bool, len(m.Vertices))
	for _, v := range m.Vertices {
		if !v.IsFinite() {
			is.NonFiniteVertices++
			continue
		}
		k := quantize(v)
		if seen[k] {
			is.DuplicateVertices++
		}
		seen[k] = true
	}

	used := make([]bool, n)
	faces := make(map[[3]uint32]bool, len(tris))
	for _, t := range tris {
		used[t[0]], used[t[1]], used[t[2]] = true, true, true
		if degenerate(m, t) {
			is.DegenerateFaces++
		}
		k := faceKey(t)
		if faces[k] {
			is.DuplicateFaces++
		}
		faces[k] = true
	}
	for _, u := range used {
		if u {
			is.Vertices++
		} else {
			is.UnreferencedVertices++
		}
	}

	uses := edgeUses(tris)
	for _, u := range uses {
		switch total := u.total(); {
		case total == 1:
			is.BoundaryEdges++
		case total > 2:
			is.NonManifoldEdges++
		case u.fwd != 1:
			is.InconsistentEdges++
		}
	}

	comps := faceComponents(tris)
	for _, comp := range comps {
		if vol, closed := componentVolume(m.Vertices, tris, comp, uses); closed && vol < 0 {
			is.InvertedComponents++
		}
	}

	is.Faces = len(tris)
	is.Edges = len(uses)
	is.Components = len(comps)
	return is
}

// componentVolume returns six times the signed volume of the faces in comp,
// measured from their mean vertex, and whether every edge of comp is shared
// by exactly two faces.
func componentVolume(verts []pmath.Vec3, tris []mesh.Triangle, comp []int, uses map[edgeKey]edgeUse) (float64, bool) {
	closed := true
	var origin pmath.Vec3
	for _, fi := range comp {
		t := tris[fi]
		for k := 0; k < 3; k++ {
			if uses[undirected(t[k], t[(k+1)%3])].total() != 2 {
				closed = false
			}
		}
		origin = origin.Add(verts[t[0]])
	}
	if !closed || len(comp) == 0 {
		return 0, false
	}
	origin = origin.Scale(1 / float64(len(comp)))

	var vol float64
	for _, fi := range comp {
		t := tris[fi]
		a := verts[t[0]].Sub(origin)
		b := verts[t[1]].Sub(origin)
		c := verts[t[2]].Sub(origin)
		vol += a.Dot(b.Cross(c))
	}
	return vol, true
}

// faceComponents groups faces that share a vertex.
func faceComponents(tris []mesh.Triangle) [][]int {
	parent := make(map[uint32]uint32)
	var find func(uint32) uint32
	find = func(v uint32) uint32 {
		p, ok := parent[v]
		if !ok {
			parent[v] = v
			return v
		}
		if p == v {
			return v
		}
		root := find(p)
		parent[v] = root
		return root
	}
	for _, t := range tris {
		r := find(t[0])
		parent[find(t[1])] = r
		parent[find(t[2])] = r
	}

	index := make(map[uint32]int)
	var groups [][]int
	for i, t := range tris {
		r := find(t[0])
		g, ok := index[r]
		if !ok {
			g = len(groups)
			index[r] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
