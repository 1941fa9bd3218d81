package mesh

import (
	"errors"
	"math"
	"testing"

	pmath "github.com/Faultbox/pixelmesh/pkg/math"
)

func unitCube() *Mesh {
	m, _ := PerPixel{}.Build(pixels(0, 0), Extrusion{PixelSize: 1, ZBottom: 0, ZTop: 1})
	return m
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		tris []Triangle
		want error
	}{
		{"ok", []Triangle{{0, 1, 2}}, nil},
		{"out of range", []Triangle{{0, 1, 3}}, ErrIndexOutOfRange},
		{"repeated", []Triangle{{0, 1, 1}}, ErrRepeatedVertex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{
				Vertices:  make([]pmath.Vec3, 3),
				Triangles: tt.tris,
			}
			err := m.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	var m *Mesh
	if !m.Empty() {
		t.Error("nil mesh should be empty")
	}
	if unitCube().Empty() {
		t.Error("cube should not be empty")
	}
}

func TestClone(t *testing.T) {
	m := unitCube()
	c := m.Clone()
	c.Vertices[0].X = 42
	c.Triangles[0][0] = 7

	if m.Vertices[0].X == 42 || m.Triangles[0][0] == 7 {
		t.Error("clone shares storage with the original")
	}
}

func TestBounds(t *testing.T) {
	if _, _, ok := (&Mesh{}).Bounds(); ok {
		t.Error("expected no bounds for empty mesh")
	}

	min, max, ok := unitCube().Bounds()
	if !ok {
		t.Fatal("expected bounds")
	}
	if min != (pmath.Vec3{}) || max != (pmath.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("expected [0,1]^3, got %v - %v", min, max)
	}
}

func TestMerge(t *testing.T) {
	a, b := unitCube(), unitCube()
	m := Merge(a, nil, b)

	if len(m.Vertices) != 16 || len(m.Triangles) != 24 {
		t.Fatalf("expected 16 vertices and 24 triangles, got %d and %d", len(m.Vertices), len(m.Triangles))
	}
	if m.Triangles[12][0] != b.Triangles[0][0]+8 {
		t.Errorf("expected second mesh offset by 8, got %v", m.Triangles[12])
	}
	if err := m.Validate(); err != nil {
		t.Errorf("merged mesh invalid: %v", err)
	}
}

func TestVolumeAndTopArea(t *testing.T) {
	m := unitCube()
	if v := m.Volume(); math.Abs(v-1) > 1e-9 {
		t.Errorf("expected volume 1, got %v", v)
	}
	if a := m.TopArea(); math.Abs(a-1) > 1e-9 {
		t.Errorf("expected top area 1, got %v", a)
	}
}
