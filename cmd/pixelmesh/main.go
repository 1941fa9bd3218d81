// pixelmesh turns pixel art into 3D-printable STL solids, one per color region.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/pixelmesh/internal/config"
	"github.com/Faultbox/pixelmesh/internal/logger"
	"github.com/Faultbox/pixelmesh/internal/manifold"
	"github.com/Faultbox/pixelmesh/internal/mesh"
	"github.com/Faultbox/pixelmesh/internal/pipeline"
	"github.com/Faultbox/pixelmesh/internal/region"
	"github.com/Faultbox/pixelmesh/internal/stl"
	"github.com/Faultbox/pixelmesh/pkg/pixelgrid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build", "b":
		cmdBuild(args)
	case "regions", "r":
		cmdRegions(args)
	case "check", "c":
		cmdCheck(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pixelmesh - pixel art to 3D-printable meshes

Usage:
  pixelmesh <command> [options]

Commands:
  build [options] <image>      Mesh every color region and the backing plate
  regions [options] <image>    List the color regions of an image
  check [options] <file.stl>   Scan an STL file and repair it if needed

Options:
  -config <file>        Config file (default ./pixelmesh.yaml)
  -pixel-size <mm>      Pixel edge length
  -height <mm>          Color layer height
  -base <mm>            Backing plate height (0 disables)
  -connectivity <n>     Region connectivity: 0, 4 or 8
  -strategy <name>      pixel, rectangle or polygon
  -trim                 Remove pixels without an edge neighbor
  -workers <n>          Parallel region workers
  -o <file.stl>         Output STL file
  -split                Write one STL file per object
  -debug                Enable debug logging

Examples:
  pixelmesh build -strategy polygon -o sprite.stl sprite.png
  pixelmesh build -split -base 0 -o parts.stl sprite.png
  pixelmesh regions -connectivity 4 sprite.png
  pixelmesh check -o fixed.stl broken.stl`)
}

// setup parses flags, loads and validates the config and initializes
// logging. It returns the positional arguments; with image set, a missing
// argument falls back to input.path from the config.
func setup(usage string, image bool, args []string) (*config.Config, []string) {
	if err := config.ParseFlags(args); err != nil {
		fatalf("%v", err)
	}
	rest := config.Args()

	cfg, err := config.Load()
	if err != nil {
		fatalf("%v", err)
	}
	if len(rest) < 1 && image && cfg.Input.Path != "" {
		rest = []string{cfg.Input.Path}
	}
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: "+usage)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fatalf("invalid configuration:\n  %s", strings.ReplaceAll(err.Error(), "; ", "\n  "))
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatalf("initializing logger: %v", err)
	}
	return cfg, rest
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func cmdBuild(args []string) {
	cfg, rest := setup("pixelmesh build [options] <image>", true, args)
	defer logger.Sync()

	grid, err := pixelgrid.Load(rest[0], cfg.Input.PixelSize)
	if err != nil {
		fatalf("%v", err)
	}
	logger.Info("image loaded",
		zap.String("path", rest[0]),
		zap.Int("pixels", grid.Len()),
		zap.Int("colors", len(grid.Colors())))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := pipeline.Run(ctx, grid, pipeline.FromConfig(cfg))
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("Image:    %s\n", rest[0])
	fmt.Printf("Pixels:   %d", grid.Len())
	if res.Trimmed > 0 {
		fmt.Printf(" (%d trimmed)", res.Trimmed)
	}
	fmt.Println()
	fmt.Printf("Objects:  %d\n", len(res.Objects))
	fmt.Println()
	fmt.Printf("  %-24s %-8s %7s %9s %9s  %s\n", "NAME", "COLOR", "PIXELS", "VERTICES", "TRIANGLES", "STATUS")

	invalid := 0
	for _, o := range res.Objects {
		color := o.Color.Hex()
		if o.Role == pipeline.RoleBacking {
			color = "-"
		}
		status := o.Strategy
		if o.Report.Repaired {
			status += ", repaired"
		}
		if !o.Report.Valid {
			status += ", NOT MANIFOLD"
			invalid++
		}
		fmt.Printf("  %-24s %-8s %7d %9d %9d  %s\n",
			o.Name, color, o.Pixels, o.Report.Vertices, o.Report.Triangles, status)
	}

	if cfg.Output.Path != "" {
		if err := export(cfg.Output, res); err != nil {
			fatalf("%v", err)
		}
	}
	if invalid > 0 {
		logger.Warn("some meshes are not manifold", zap.Int("objects", invalid))
		logger.Sync()
		os.Exit(2)
	}
}

// export writes the objects as one combined STL file, or one file per
// object named after the output path and the object.
func export(out config.OutputConfig, res *pipeline.Result) error {
	if !out.Split {
		if err := stl.WriteFile(out.Path, res.Meshes()...); err != nil {
			return fmt.Errorf("writing %s: %w", out.Path, err)
		}
		fmt.Printf("\nWrote %s\n", out.Path)
		return nil
	}

	ext := filepath.Ext(out.Path)
	base := strings.TrimSuffix(out.Path, ext)
	if ext == "" {
		ext = ".stl"
	}
	fmt.Println()
	for _, o := range res.Objects {
		path := base + "-" + o.Name + ext
		if err := stl.WriteFile(path, o.Mesh); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}

func cmdRegions(args []string) {
	cfg, rest := setup("pixelmesh regions [options] <image>", true, args)
	defer logger.Sync()

	grid, err := pixelgrid.Load(rest[0], cfg.Input.PixelSize)
	if err != nil {
		fatalf("%v", err)
	}

	mode := region.Connectivity(cfg.Mesh.Connectivity)
	regions := region.Merge(grid, mode)
	removed := 0
	if cfg.Mesh.TrimWeak {
		regions, removed = region.TrimWeak(regions)
	}
	if cfg.Mesh.Strategy != mesh.NamePixel {
		regions = region.SplitDiagonal(regions)
	}

	width, height := gridSize(grid)
	fmt.Printf("Image:        %s\n", rest[0])
	fmt.Printf("Size:         %dx%d pixels\n", width, height)
	fmt.Printf("Pixels:       %d (%d trimmed)\n", grid.Len(), removed)
	fmt.Printf("Colors:       %d\n", len(grid.Colors()))
	fmt.Printf("Connectivity: %s\n", mode)
	fmt.Printf("Regions:      %d\n", len(regions))
	fmt.Println()

	for i, r := range regions {
		pts := r.Points()
		fmt.Printf("  %3d  %s  %6d pixels  first (%d,%d)\n", i, r.Color.Hex(), r.Len(), pts[0].X, pts[0].Y)
	}
}

// gridSize returns the extent of the opaque pixels, 0x0 when there are none.
func gridSize(grid *pixelgrid.Grid) (width, height int) {
	min, max, ok := grid.Bounds()
	if !ok {
		return 0, 0
	}
	return max.X - min.X + 1, max.Y - min.Y + 1
}

func cmdCheck(args []string) {
	cfg, rest := setup("pixelmesh check [options] <file.stl>", false, args)
	defer logger.Sync()

	m, err := stl.ReadFile(rest[0])
	if err != nil {
		fatalf("%v", err)
	}

	fixed, report := manifold.Check(m)
	logger.Debug("mesh checked", zap.String("path", rest[0]), zap.String("report", report.Summary()))

	fmt.Printf("File:       %s\n", rest[0])
	printIssues("Before", report.Before)
	if report.Repaired {
		f := report.Fixes
		fmt.Println("Fixes:")
		fmt.Printf("  invalid faces %d, non-finite vertices %d, merged vertices %d\n",
			f.InvalidFaces, f.NonFiniteVertices, f.MergedVertices)
		fmt.Printf("  degenerate faces %d, duplicate faces %d, flipped faces %d\n",
			f.DegenerateFaces, f.DuplicateFaces, f.FlippedFaces)
		fmt.Printf("  unreferenced vertices %d, closed holes %d, reoriented components %d\n",
			f.UnreferencedVertices, f.ClosedHoles, f.ReorientedComponents)
		printIssues("After", report.After)
	}
	fmt.Printf("Volume:     %.3f\n", fixed.Volume())

	if cfg.Output.Path != "" && report.Repaired {
		if err := stl.WriteFile(cfg.Output.Path, fixed); err != nil {
			fatalf("writing %s: %v", cfg.Output.Path, err)
		}
		fmt.Printf("Wrote %s\n", cfg.Output.Path)
	}
	if !report.Valid {
		fmt.Println("Result:     NOT MANIFOLD")
		os.Exit(2)
	}
	fmt.Println("Result:     manifold")
}

func printIssues(label string, is manifold.Issues) {
	fmt.Printf("%s:\n", label)
	fmt.Printf("  vertices %d, faces %d, edges %d, components %d, euler %d\n",
		is.Vertices, is.Faces, is.Edges, is.Components, is.Euler())
	fmt.Printf("  boundary edges %d, non-manifold edges %d, inconsistent edges %d\n",
		is.BoundaryEdges, is.NonManifoldEdges, is.InconsistentEdges)
	fmt.Printf("  degenerate faces %d, duplicate faces %d, inverted components %d\n",
		is.DegenerateFaces, is.DuplicateFaces, is.InvertedComponents)
	fmt.Printf("  duplicate vertices %d, unreferenced vertices %d\n",
		is.DuplicateVertices, is.UnreferencedVertices)
}
