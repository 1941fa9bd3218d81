package manifold

import (
	"github.com/Faultbox/pixelmesh/internal/mesh"
	pmath "github.com/Faultbox/pixelmesh/pkg/math"
)

// Fixes counts the changes made by each repair step.
type Fixes struct {
	InvalidFaces         int
	NonFiniteVertices    int
	MergedVertices       int
	DegenerateFaces      int
	DuplicateFaces       int
	FlippedFaces         int
	UnreferencedVertices int
	ClosedHoles          int
	ReorientedComponents int
}

// Total returns the number of changes across all steps.
func (f Fixes) Total() int {
	return f.InvalidFaces + f.NonFiniteVertices + f.MergedVertices + f.DegenerateFaces +
		f.DuplicateFaces + f.FlippedFaces + f.UnreferencedVertices + f.ClosedHoles +
		f.ReorientedComponents
}

// Repair returns a repaired copy of m. The steps run in a fixed order and
// each is idempotent:
//
//  1. drop faces with missing vertices and faces on non-finite vertices
//  2. merge coincident vertices on open edges
//  3. drop faces below AreaEpsilon
//  4. drop duplicate faces
//  5. make winding consistent across shared edges
//  6. drop unreferenced vertices
//  7. close boundary loops
//  8. turn every closed component outward
//
// Coincident vertices on closed edges are kept apart, so solids that touch
// only at a corner stay separate.
func Repair(m *mesh.Mesh) (*mesh.Mesh, Fixes) {
	var f Fixes
	if m == nil {
		return &mesh.Mesh{}, f
	}
	r := m.Clone()

	f.InvalidFaces, f.NonFiniteVertices = stripInvalid(r)
	f.MergedVertices = mergeOpenVertices(r)
	f.DegenerateFaces = dropDegenerate(r)
	f.DuplicateFaces = dropDuplicateFaces(r)
	f.FlippedFaces = orientConsistently(r)
	f.UnreferencedVertices = dropUnreferenced(r)
	f.ClosedHoles = closeHoles(r)
	f.ReorientedComponents = orientOutward(r)
	return r, f
}

func stripInvalid(m *mesh.Mesh) (faces, vertices int) {
	n := uint32(len(m.Vertices))
	bad := make([]bool, n)
	for i, v := range m.Vertices {
		if !v.IsFinite() {
			bad[i] = true
			vertices++
		}
	}

	out := m.Triangles[:0]
	for _, t := range m.Triangles {
		if t[0] >= n || t[1] >= n || t[2] >= n {
			faces++
			continue
		}
		if bad[t[0]] || bad[t[1]] || bad[t[2]] {
			continue
		}
		out = append(out, t)
	}
	m.Triangles = out
	return faces, vertices
}

// mergeOpenVertices welds coincident vertices that sit on boundary edges.
func mergeOpenVertices(m *mesh.Mesh) int {
	open := make(map[uint32]bool)
	for key, u := range edgeUses(m.Triangles) {
		if u.total() == 1 {
			open[key[0]], open[key[1]] = true, true
		}
	}
	if len(open) == 0 {
		return 0
	}

	first := make(map[posKey]uint32)
	remap := make(map[uint32]uint32)
	for i := range m.Vertices {
		v := uint32(i)
		if !open[v] {
			continue
		}
		k := quantize(m.Vertices[v])
		if target, ok := first[k]; ok {
			remap[v] = target
			continue
		}
		first[k] = v
	}
	for i, t := range m.Triangles {
		for k, v := range t {
			if target, ok := remap[v]; ok {
				m.Triangles[i][k] = target
			}
		}
	}
	return len(remap)
}

func dropDegenerate(m *mesh.Mesh) int {
	out := m.Triangles[:0]
	dropped := 0
	for _, t := range m.Triangles {
		if degenerate(m, t) {
			dropped++
			continue
		}
		out = append(out, t)
	}
	m.Triangles = out
	return dropped
}

func dropDuplicateFaces(m *mesh.Mesh) int {
	seen := make(map[[3]uint32]bool, len(m.Triangles))
	out := m.Triangles[:0]
	dropped := 0
	for _, t := range m.Triangles {
		k := faceKey(t)
		if seen[k] {
			dropped++
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	m.Triangles = out
	return dropped
}

func flip(t mesh.Triangle) mesh.Triangle {
	return mesh.Triangle{t[0], t[2], t[1]}
}

// hasEdge reports whether t traverses a -> b.
func hasEdge(t mesh.Triangle, a, b uint32) bool {
	for k := 0; k < 3; k++ {
		if t[k] == a && t[(k+1)%3] == b {
			return true
		}
	}
	return false
}

// orientConsistently walks faces across two-face edges and flips any
// neighbor that traverses the shared edge in the same direction.
func orientConsistently(m *mesh.Mesh) int {
	byEdge := make(map[edgeKey][]int)
	for i, t := range m.Triangles {
		for k := 0; k < 3; k++ {
			key := undirected(t[k], t[(k+1)%3])
			byEdge[key] = append(byEdge[key], i)
		}
	}

	flipped := 0
	visited := make([]bool, len(m.Triangles))
	for seed := range m.Triangles {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		queue := []int{seed}
		for len(queue) > 0 {
			fi := queue[0]
			queue = queue[1:]
			t := m.Triangles[fi]
			for k := 0; k < 3; k++ {
				a, b := t[k], t[(k+1)%3]
				faces := byEdge[undirected(a, b)]
				if len(faces) != 2 {
					continue
				}
				g := faces[0]
				if g == fi {
					g = faces[1]
				}
				if visited[g] {
					continue
				}
				visited[g] = true
				if hasEdge(m.Triangles[g], a, b) {
					m.Triangles[g] = flip(m.Triangles[g])
					flipped++
				}
				queue = append(queue, g)
			}
		}
	}
	return flipped
}

func dropUnreferenced(m *mesh.Mesh) int {
	remap := make([]int64, len(m.Vertices))
	for i := range remap {
		remap[i] = -1
	}
	var verts []pmath.Vec3
	for i, t := range m.Triangles {
		for k, v := range t {
			if remap[v] < 0 {
				remap[v] = int64(len(verts))
				verts = append(verts, m.Vertices[v])
			}
			m.Triangles[i][k] = uint32(remap[v])
		}
	}
	dropped := len(m.Vertices) - len(verts)
	m.Vertices = verts
	return dropped
}

// closeHoles fills every boundary loop with a fan around its centroid.
// Loops of three vertices get a single face.
func closeHoles(m *mesh.Mesh) int {
	uses := edgeUses(m.Triangles)
	next := make(map[uint32]uint32)
	var starts []uint32
	for _, t := range m.Triangles {
		for k := 0; k < 3; k++ {
			a, b := t[k], t[(k+1)%3]
			if uses[undirected(a, b)].total() != 1 {
				continue
			}
			if _, ok := next[a]; ok {
				// Two open edges leave a; the loop is ambiguous.
				continue
			}
			next[a] = b
			starts = append(starts, a)
		}
	}

	closed := 0
	visited := make(map[uint32]bool, len(next))
	for _, s := range starts {
		if visited[s] {
			continue
		}
		var loop []uint32
		v := s
		for {
			visited[v] = true
			loop = append(loop, v)
			n, ok := next[v]
			if !ok || visited[n] {
				if n != s || !ok {
					loop = nil
				}
				break
			}
			v = n
		}
		if len(loop) < 3 {
			continue
		}

		if len(loop) == 3 {
			m.Triangles = append(m.Triangles, mesh.Triangle{loop[2], loop[1], loop[0]})
		} else {
			var c pmath.Vec3
			for _, v := range loop {
				c = c.Add(m.Vertices[v])
			}
			c = c.Scale(1 / float64(len(loop)))
			ci := uint32(len(m.Vertices))
			m.Vertices = append(m.Vertices, c)
			for i, a := range loop {
				b := loop[(i+1)%len(loop)]
				m.Triangles = append(m.Triangles, mesh.Triangle{b, a, ci})
			}
		}
		closed++
	}
	return closed
}

// orientOutward flips every closed component whose signed volume is negative.
func orientOutward(m *mesh.Mesh) int {
	uses := edgeUses(m.Triangles)
	reoriented := 0
	for _, comp := range faceComponents(m.Triangles) {
		vol, closed := componentVolume(m.Vertices, m.Triangles, comp, uses)
		if !closed || vol >= 0 {
			continue
		}
		for _, fi := range comp {
			m.Triangles[fi] = flip(m.Triangles[fi])
		}
		reoriented++
	}
	return reoriented
}
