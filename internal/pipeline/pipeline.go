// Package pipeline turns a pixel grid into printable objects: one extruded
// solid per color region plus a backing plate under their combined footprint.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/pixelmesh/internal/config"
	"github.com/Faultbox/pixelmesh/internal/logger"
	"github.com/Faultbox/pixelmesh/internal/manifold"
	"github.com/Faultbox/pixelmesh/internal/mesh"
	"github.com/Faultbox/pixelmesh/internal/region"
	"github.com/Faultbox/pixelmesh/pkg/pixelgrid"
)

// ErrInvalidOptions is returned by Run before any work starts.
var ErrInvalidOptions = errors.New("invalid pipeline options")

// Role tells a region solid from the backing plate.
type Role string

const (
	RoleRegion  Role = "region"
	RoleBacking Role = "backing"
)

// Options controls a pipeline run. The pixel size comes from the grid.
type Options struct {
	ColorHeight  float64 // Top of the region solids; their bottom is Z=0
	BaseHeight   float64 // Plate thickness below Z=0; <= 0 disables the plate
	Connectivity region.Connectivity
	Strategy     string
	TrimWeak     bool
	Workers      int         // 0 means GOMAXPROCS
	Logger       *zap.Logger // nil means logger.Named("pipeline")
}

// FromConfig maps loaded configuration onto Options.
func FromConfig(cfg *config.Config) Options {
	return Options{
		ColorHeight:  cfg.Mesh.ColorHeight,
		BaseHeight:   cfg.Mesh.BaseHeight,
		Connectivity: region.Connectivity(cfg.Mesh.Connectivity),
		Strategy:     cfg.Mesh.Strategy,
		TrimWeak:     cfg.Mesh.TrimWeak,
		Workers:      cfg.Mesh.Workers,
	}
}

// Validate returns every violation combined.
func (o Options) Validate() error {
	var err error
	if !positive(o.ColorHeight) {
		err = multierr.Append(err, fmt.Errorf("color height %v must be positive and finite", o.ColorHeight))
	}
	if math.IsNaN(o.BaseHeight) || math.IsInf(o.BaseHeight, 0) {
		err = multierr.Append(err, fmt.Errorf("base height %v must be finite", o.BaseHeight))
	}
	if !o.Connectivity.Valid() {
		err = multierr.Append(err, fmt.Errorf("connectivity %d must be 0, 4 or 8", int(o.Connectivity)))
	}
	if _, serr := mesh.NewStrategy(o.Strategy); serr != nil {
		err = multierr.Append(err, serr)
	}
	if o.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("workers %d must not be negative", o.Workers))
	}
	return err
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Object is one printable solid.
type Object struct {
	ID       uuid.UUID
	Name     string
	Role     Role
	Color    pixelgrid.RGB // Zero for the backing plate
	Pixels   int
	Mesh     *mesh.Mesh
	Strategy string         // Strategy that produced the mesh
	Skipped  []mesh.Skipped // Strategies that rejected the footprint first
	Report   manifold.Report
}

// Result is the ordered output of a run: regions in merge order, then the
// backing plate if enabled.
type Result struct {
	Objects []Object
	Trimmed int // Pixels removed by weak-connection trimming
}

// Regions returns the region objects.
func (r *Result) Regions() []Object {
	var out []Object
	for _, o := range r.Objects {
		if o.Role == RoleRegion {
			out = append(out, o)
		}
	}
	return out
}

// Backing returns the backing plate, or nil when it is disabled.
func (r *Result) Backing() *Object {
	for i := range r.Objects {
		if r.Objects[i].Role == RoleBacking {
			return &r.Objects[i]
		}
	}
	return nil
}

// Meshes returns every object's mesh in order.
func (r *Result) Meshes() []*mesh.Mesh {
	out := make([]*mesh.Mesh, len(r.Objects))
	for i, o := range r.Objects {
		out[i] = o.Mesh
	}
	return out
}

// Run merges the grid into regions, meshes each region in parallel, checks
// every mesh and builds the backing plate from the footprint of the regions
// that were actually emitted.
func Run(ctx context.Context, grid *pixelgrid.Grid, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if grid == nil {
		grid = pixelgrid.New(nil, 1)
	}
	ext := mesh.Extrusion{PixelSize: grid.PixelSize, ZBottom: 0, ZTop: opts.ColorHeight}
	if err := ext.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logger.Named("pipeline")
	}
	start := time.Now()

	chain, _ := mesh.NewStrategy(opts.Strategy)
	regions := region.Merge(grid, opts.Connectivity)
	log.Debug("regions merged",
		zap.Int("pixels", grid.Len()),
		zap.Int("regions", len(regions)),
		zap.Stringer("connectivity", opts.Connectivity))

	res := &Result{}
	if opts.TrimWeak {
		regions, res.Trimmed = region.TrimWeak(regions)
		if res.Trimmed > 0 {
			log.Info("trimmed weakly connected pixels", zap.Int("removed", res.Trimmed))
		}
	}
	if chain.Name() != mesh.NamePixel {
		n := len(regions)
		regions = region.SplitDiagonal(regions)
		if len(regions) != n {
			log.Debug("split corner-joined regions", zap.Int("before", n), zap.Int("after", len(regions)))
		}
	}

	objects, err := buildRegions(ctx, regions, chain, ext, opts.Workers, log)
	if err != nil {
		return nil, err
	}
	res.Objects = objects

	if opts.BaseHeight > 0 {
		plate := mesh.Extrusion{PixelSize: grid.PixelSize, ZBottom: -opts.BaseHeight, ZTop: 0}
		obj, err := buildBacking(region.Footprint(regions), chain, plate, log)
		if err != nil {
			return nil, err
		}
		res.Objects = append(res.Objects, obj)
	}

	triangles := 0
	for _, o := range res.Objects {
		triangles += len(o.Mesh.Triangles)
	}
	log.Info("pipeline finished",
		zap.Int("objects", len(res.Objects)),
		zap.Int("triangles", triangles),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// buildRegions meshes regions on a bounded set of goroutines. Each result is
// stored at its region's index, so output order never depends on scheduling.
func buildRegions(ctx context.Context, regions []*region.Region, chain mesh.Chain,
	ext mesh.Extrusion, workers int, log *zap.Logger) ([]Object, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	objects := make([]Object, len(regions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, r := range regions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			name := fmt.Sprintf("region-%03d-%s", i, strings.TrimPrefix(r.Color.Hex(), "#"))
			obj, err := buildObject(name, r.Pixels, chain, ext, log)
			if err != nil {
				return fmt.Errorf("region %d: %w", i, err)
			}
			obj.Role = RoleRegion
			obj.Color = r.Color
			objects[i] = obj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return objects, nil
}

func buildObject(name string, pixels map[pixelgrid.Point]struct{}, chain mesh.Chain,
	ext mesh.Extrusion, log *zap.Logger) (Object, error) {
	m, attempt, err := chain.BuildWith(pixels, ext)
	if err != nil {
		return Object{}, err
	}
	checked, report := manifold.Check(m)

	obj := Object{
		ID:       uuid.New(),
		Name:     name,
		Pixels:   len(pixels),
		Mesh:     checked,
		Strategy: attempt.Strategy,
		Skipped:  attempt.Skipped,
		Report:   report,
	}
	logObject(log, obj)
	return obj, nil
}

// buildBacking meshes each edge component of the footprint separately so
// the reducing strategies can handle plates with several islands.
func buildBacking(footprint map[pixelgrid.Point]struct{}, chain mesh.Chain,
	ext mesh.Extrusion, log *zap.Logger) (Object, error) {
	obj := Object{
		ID:     uuid.New(),
		Name:   "backing",
		Role:   RoleBacking,
		Pixels: len(footprint),
		Mesh:   &mesh.Mesh{},
	}

	used := make(map[string]bool)
	var parts []*mesh.Mesh
	for _, comp := range region.Components(footprint) {
		m, attempt, err := chain.BuildWith(comp, ext)
		if err != nil {
			return Object{}, fmt.Errorf("backing plate: %w", err)
		}
		used[attempt.Strategy] = true
		obj.Skipped = append(obj.Skipped, attempt.Skipped...)
		parts = append(parts, m)
	}
	if len(parts) > 0 {
		obj.Mesh = mesh.Merge(parts...)
	}
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)
	obj.Strategy = strings.Join(names, ",")

	obj.Mesh, obj.Report = manifold.Check(obj.Mesh)
	logObject(log, obj)
	return obj, nil
}

func logObject(log *zap.Logger, obj Object) {
	fields := []zap.Field{
		zap.String("object", obj.Name),
		zap.Int("pixels", obj.Pixels),
		zap.String("strategy", obj.Strategy),
		zap.Int("vertices", obj.Report.Vertices),
		zap.Int("triangles", obj.Report.Triangles),
	}
	if len(obj.Skipped) > 0 {
		skipped := make([]string, len(obj.Skipped))
		for i, s := range obj.Skipped {
			skipped[i] = s.Strategy + ": " + s.Err.Error()
		}
		fields = append(fields, zap.Strings("skipped", skipped))
	}
	if !obj.Report.Valid {
		log.Warn("mesh not manifold after repair", append(fields, zap.String("report", obj.Report.Summary()))...)
		return
	}
	if obj.Report.Repaired {
		fields = append(fields, zap.String("report", obj.Report.Summary()))
	}
	log.Debug("object built", fields...)
}
