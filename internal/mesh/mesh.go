// Package mesh extrudes pixel footprints into closed triangle meshes.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/pixelmesh/pkg/math"
)

// Mesh validation errors.
var (
	ErrIndexOutOfRange = errors.New("triangle index out of range")
	ErrRepeatedVertex  = errors.New("triangle references the same vertex twice")
)

// Triangle holds three vertex indices, counter-clockwise seen from outside.
type Triangle [3]uint32

// Mesh is an indexed triangle mesh in model units.
// Meshes are produced once and treated as values afterwards.
type Mesh struct {
	Vertices  []math.Vec3
	Triangles []Triangle
}

// Empty reports whether the mesh has no triangles.
func (m *Mesh) Empty() bool {
	return m == nil || len(m.Triangles) == 0
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices:  make([]math.Vec3, len(m.Vertices)),
		Triangles: make([]Triangle, len(m.Triangles)),
	}
	copy(out.Vertices, m.Vertices)
	copy(out.Triangles, m.Triangles)
	return out
}

// Validate checks the invariants every strategy must uphold: indices are in
// range and no triangle repeats a vertex.
func (m *Mesh) Validate() error {
	n := uint32(len(m.Vertices))
	for i, t := range m.Triangles {
		if t[0] >= n || t[1] >= n || t[2] >= n {
			return fmt.Errorf("triangle %d %v with %d vertices: %w", i, t, n, ErrIndexOutOfRange)
		}
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			return fmt.Errorf("triangle %d %v: %w", i, t, ErrRepeatedVertex)
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounding box. ok is false for a mesh without vertices.
func (m *Mesh) Bounds() (min, max math.Vec3, ok bool) {
	if m == nil || len(m.Vertices) == 0 {
		return math.Vec3{}, math.Vec3{}, false
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		min = min.Min(v)
		max = max.Max(v)
	}
	return min, max, true
}

// Merge concatenates meshes into one, offsetting indices.
// Nil meshes are skipped.
func Merge(meshes ...*Mesh) *Mesh {
	out := &Mesh{}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		base := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, t := range m.Triangles {
			out.Triangles = append(out.Triangles, Triangle{t[0] + base, t[1] + base, t[2] + base})
		}
	}
	return out
}

// Volume returns the signed enclosed volume. It is positive for a closed
// mesh wound outward.
func (m *Mesh) Volume() float64 {
	var sum float64
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		sum += a.Dot(b.Cross(c))
	}
	return sum / 6
}

// TopArea returns the total area of triangles facing straight up, which
// for an extruded footprint is the footprint area.
func (m *Mesh) TopArea() float64 {
	var sum float64
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Z > 0 && n.X == 0 && n.Y == 0 {
			sum += n.Z / 2
		}
	}
	return sum
}
