// Package stl converts meshes to and from STL files through model3d.
package stl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/unixpickle/model3d/model3d"

	"github.com/Faultbox/pixelmesh/internal/mesh"
	pmath "github.com/Faultbox/pixelmesh/pkg/math"
)

// STL errors.
var (
	ErrInvalidSTL = errors.New("invalid STL data")
	ErrTooLarge   = errors.New("too many triangles for STL")
)

// Triangles converts the meshes into one model3d triangle list, keeping
// triangle order and winding.
func Triangles(meshes ...*mesh.Mesh) ([]*model3d.Triangle, error) {
	total := 0
	for _, m := range meshes {
		if m != nil {
			total += len(m.Triangles)
		}
	}
	if uint64(total) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d", ErrTooLarge, total)
	}

	tris := make([]*model3d.Triangle, 0, total)
	for _, m := range meshes {
		if m == nil {
			continue
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		for _, t := range m.Triangles {
			tris = append(tris, &model3d.Triangle{
				coord(m.Vertices[t[0]]),
				coord(m.Vertices[t[1]]),
				coord(m.Vertices[t[2]]),
			})
		}
	}
	return tris, nil
}

// FromTriangles builds an indexed mesh from a triangle list. Vertices with
// identical coordinates are shared, in order of first use.
func FromTriangles(tris []*model3d.Triangle) *mesh.Mesh {
	m := &mesh.Mesh{}
	index := make(map[model3d.Coord3D]uint32)
	for _, t := range tris {
		var tri mesh.Triangle
		for k, c := range t {
			idx, ok := index[c]
			if !ok {
				idx = uint32(len(m.Vertices))
				m.Vertices = append(m.Vertices, pmath.Vec3{X: c.X, Y: c.Y, Z: c.Z})
				index[c] = idx
			}
			tri[k] = idx
		}
		m.Triangles = append(m.Triangles, tri)
	}
	return m
}

func coord(v pmath.Vec3) model3d.Coord3D {
	return model3d.Coord3D{X: v.X, Y: v.Y, Z: v.Z}
}

// Write encodes the meshes as one binary STL solid.
func Write(w io.Writer, meshes ...*mesh.Mesh) error {
	tris, err := Triangles(meshes...)
	if err != nil {
		return fmt.Errorf("writing STL: %w", err)
	}
	_, err = w.Write(model3d.EncodeSTL(tris))
	return err
}

// WriteFile writes the meshes to path, grouping connected triangles
// together in the file.
func WriteFile(path string, meshes ...*mesh.Mesh) error {
	tris, err := Triangles(meshes...)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return model3d.NewMeshTriangles(tris).SaveGroupedSTL(path)
}

// Read decodes an STL stream into an indexed mesh.
func Read(r io.Reader) (*mesh.Mesh, error) {
	tris, err := model3d.ReadSTL(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSTL, err)
	}
	return FromTriangles(tris), nil
}

// ReadFile reads an STL file from disk.
func ReadFile(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f))
}
