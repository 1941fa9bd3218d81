package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/pixelmesh/pkg/pixelgrid"
)

// Structural errors. Strategies return them for footprints they cannot
// handle; Chain recovers by trying the next strategy.
var (
	ErrDiagonalOnly     = errors.New("footprint is joined only through corners")
	ErrPinchVertex      = errors.New("footprint outline touches itself at a corner")
	ErrMultiplePolygons = errors.New("footprint outline is not a single polygon")
	ErrTriangulation    = errors.New("triangulation failed")
	ErrInvalidExtrusion = errors.New("invalid extrusion")
	ErrUnknownStrategy  = errors.New("unknown mesh strategy")
)

// Strategy names as used in configuration.
const (
	NamePixel     = "pixel"
	NameRectangle = "rectangle"
	NamePolygon   = "polygon"
)

// Extrusion describes the slab a footprint is swept through.
type Extrusion struct {
	PixelSize float64 // Edge length of one pixel
	ZBottom   float64
	ZTop      float64
}

// Validate rejects non-positive or infinite pixel sizes and empty or
// unbounded slabs.
func (e Extrusion) Validate() error {
	if !(e.PixelSize > 0) || math.IsInf(e.PixelSize, 1) {
		return fmt.Errorf("%w: pixel size %v must be positive and finite", ErrInvalidExtrusion, e.PixelSize)
	}
	if math.IsInf(e.ZBottom, 0) || math.IsInf(e.ZTop, 0) {
		return fmt.Errorf("%w: bounds %v and %v must be finite", ErrInvalidExtrusion, e.ZBottom, e.ZTop)
	}
	if !(e.ZTop > e.ZBottom) {
		return fmt.Errorf("%w: top %v must be above bottom %v", ErrInvalidExtrusion, e.ZTop, e.ZBottom)
	}
	return nil
}

// Strategy turns a pixel footprint into an extruded solid.
type Strategy interface {
	// Name returns the configuration name of the strategy.
	Name() string
	// Build extrudes the footprint between ext.ZBottom and ext.ZTop.
	Build(pixels map[pixelgrid.Point]struct{}, ext Extrusion) (*Mesh, error)
}

// Chain tries strategies in order and returns the first mesh that builds
// and passes Validate. End the chain with PerPixel so it never fails on
// geometric input.
type Chain []Strategy

// Name returns the name of the first strategy in the chain.
func (c Chain) Name() string {
	if len(c) == 0 {
		return ""
	}
	return c[0].Name()
}

// Build implements Strategy.
func (c Chain) Build(pixels map[pixelgrid.Point]struct{}, ext Extrusion) (*Mesh, error) {
	m, _, err := c.BuildWith(pixels, ext)
	return m, err
}

// BuildWith is Build that also reports which strategy produced the mesh and
// the errors of the strategies that were skipped.
func (c Chain) BuildWith(pixels map[pixelgrid.Point]struct{}, ext Extrusion) (*Mesh, Attempt, error) {
	var attempt Attempt
	if err := ext.Validate(); err != nil {
		return nil, attempt, err
	}

	for _, s := range c {
		m, err := s.Build(pixels, ext)
		if err == nil {
			err = m.Validate()
		}
		if err != nil {
			attempt.Skipped = append(attempt.Skipped, Skipped{Strategy: s.Name(), Err: err})
			continue
		}
		attempt.Strategy = s.Name()
		return m, attempt, nil
	}
	return nil, attempt, fmt.Errorf("no strategy could build footprint of %d pixels: %w",
		len(pixels), attempt.lastErr())
}

// Attempt records how Chain arrived at a mesh.
type Attempt struct {
	Strategy string
	Skipped  []Skipped
}

// Skipped is a strategy that rejected the footprint.
type Skipped struct {
	Strategy string
	Err      error
}

// FellBack reports whether the first choice was rejected.
func (a Attempt) FellBack() bool {
	return len(a.Skipped) > 0
}

func (a Attempt) lastErr() error {
	if len(a.Skipped) == 0 {
		return ErrUnknownStrategy
	}
	return a.Skipped[len(a.Skipped)-1].Err
}

// NewStrategy returns the fallback chain starting at the named strategy:
// polygon -> rectangle -> pixel.
func NewStrategy(name string) (Chain, error) {
	switch name {
	case NamePolygon:
		return Chain{Polygon{}, Rectangles{}, PerPixel{}}, nil
	case NameRectangle:
		return Chain{Rectangles{}, PerPixel{}}, nil
	case NamePixel:
		return Chain{PerPixel{}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Names lists the valid strategy names.
func Names() []string {
	return []string{NamePixel, NameRectangle, NamePolygon}
}
