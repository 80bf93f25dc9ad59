// meshc is a CLI utility for building and inspecting binary mesh files.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/Faultbox/meshkit/internal/config"
	"github.com/Faultbox/meshkit/internal/logger"
	"github.com/Faultbox/meshkit/pkg/halffloat"
	"github.com/Faultbox/meshkit/pkg/mesh"
	"github.com/Faultbox/meshkit/pkg/obj"
	"github.com/Faultbox/meshkit/pkg/shapes"
)

var errUsage = errors.New("usage")

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	err = run(cfg, args[0], args[1:], os.Stdout)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "%v\n", err)
		printUsage(os.Stderr)
		os.Exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, command string, args []string, out io.Writer) error {
	switch command {
	case "convert", "c":
		return cmdConvert(cfg, args, out)
	case "shape", "s":
		return cmdShape(cfg, args, out)
	case "info", "i":
		return cmdInfo(cfg, args, out)
	case "half":
		return cmdHalf(args, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `meshc - binary mesh utility

Usage:
  meshc [flags] <command> [args]

Commands:
  convert <in.obj> <out.mesh>   Weld a Wavefront OBJ into a mesh file
  shape <name> <out.mesh>       Generate a shape (%s)
  info <file.mesh>              Show mesh file information
  half <value>...               Show half-float encodings

Flags:
  -config <path>     Config file (default ./meshkit.yaml)
  -epsilon <e>       Weld tolerance
  -search-limit <n>  Vertices scanned per weld, 0 for all
  -max-verts <n>     Index capacity cap
  -no-normals        Mesh files carry no normals section
  -no-texcoords      Mesh files carry no texcoord section
  -debug             Verbose logging

Examples:
  meshc convert teapot.obj teapot.mesh
  meshc -epsilon 0.001 convert scan.obj scan.mesh
  meshc shape torus torus.mesh
  meshc -no-texcoords info scan.mesh
  meshc half 1 0.5 65504
`, strings.Join(shapes.Names(), ", "))
}

func cmdConvert(cfg *config.Config, args []string, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: meshc convert <in.obj> <out.mesh>", errUsage)
	}
	log := logger.Named("meshc")

	model, err := obj.Load(args[0])
	if err != nil {
		return err
	}
	log.Debug("parsed model",
		zap.String("path", args[0]),
		zap.Int("positions", len(model.Positions)),
		zap.Int("groups", len(model.Groups)),
		zap.Int("skipped", model.Skipped),
	)

	total := model.Triangles()
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("welding"),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	var w mesh.Welder
	stats, err := model.Feed(&w, obj.FeedOptions{
		Weld:     cfg.WeldOptions(),
		MaxVerts: cfg.Weld.MaxVerts,
		Progress: func(done, _ int) { _ = bar.Set(done) },
	})
	_ = bar.Finish()
	if err != nil {
		w.Release()
		return fmt.Errorf("welding %s: %w", args[0], err)
	}

	d, err := w.Finalize()
	if err != nil {
		return err
	}
	if err := writeMesh(cfg, args[1], d); err != nil {
		return err
	}

	fmt.Fprintf(out, "Triangles: %d (%d dropped)\n", stats.Triangles, stats.Dropped)
	fmt.Fprintf(out, "Welded:    %d corners\n", stats.Welded)
	printData(out, args[1], d)
	return nil
}

func cmdShape(cfg *config.Config, args []string, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: meshc shape <name> <out.mesh>", errUsage)
	}

	var w mesh.Welder
	if err := shapes.Build(&w, args[0], cfg.WeldOptions()); err != nil {
		w.Release()
		return err
	}
	d, err := w.Finalize()
	if err != nil {
		return err
	}
	if err := writeMesh(cfg, args[1], d); err != nil {
		return err
	}
	printData(out, args[1], d)
	return nil
}

// writeMesh saves d, warning when the configured reader would not expect
// the sections the file carries.
func writeMesh(cfg *config.Config, path string, d *mesh.Data) error {
	l := d.Layout()
	want := cfg.LoadOptions()
	if l.Normals != want.Normals || l.TexCoords != want.TexCoords {
		logger.Named("meshc").Warn("mesh layout differs from configured load options",
			zap.Stringer("layout", l),
			zap.Bool("expect_normals", want.Normals),
			zap.Bool("expect_texcoords", want.TexCoords),
		)
	}
	return mesh.SaveFile(path, d)
}

func cmdInfo(cfg *config.Config, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: meshc info <file.mesh>", errUsage)
	}

	d, err := mesh.LoadFile(args[0], cfg.LoadOptions())
	if err != nil {
		return err
	}
	printData(out, args[0], d)
	return nil
}

func printData(out io.Writer, path string, d *mesh.Data) {
	fmt.Fprintf(out, "Mesh:      %s\n", path)
	fmt.Fprintf(out, "Layout:    %s\n", d.Layout())
	fmt.Fprintf(out, "Indices:   %d (%d triangles)\n", d.IndexCount(), d.IndexCount()/3)
	fmt.Fprintf(out, "Vertices:  %d\n", d.VertexCount())
	fmt.Fprintf(out, "Radius:    %g\n", d.Radius)
}

func cmdHalf(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: meshc half <value>...", errUsage)
	}

	for _, arg := range args {
		f, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return fmt.Errorf("parsing %q: %w", arg, err)
		}
		h := halffloat.Encode(float32(f))
		fmt.Fprintf(out, "%-14s 0x%04x  -> %g\n", arg, h, halffloat.Decode(h))
	}
	return nil
}
