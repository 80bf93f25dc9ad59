package shapes

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/meshkit/pkg/mesh"
)

// ErrUnknownShape reports a name missing from the catalog.
var ErrUnknownShape = errors.New("unknown shape")

// catalog holds the command-line shapes at unit scale.
var catalog = map[string]func(mesh.Builder, mesh.WeldOptions) error{
	"sphere": func(b mesh.Builder, opts mesh.WeldOptions) error { return Sphere(b, opts, 1, 32, 16) },
	"torus":  func(b mesh.Builder, opts mesh.WeldOptions) error { return Torus(b, opts, 1, 0.3, 48, 24) },
	"disk":   func(b mesh.Builder, opts mesh.WeldOptions) error { return Disk(b, opts, 0.25, 1, 32, 4, 360) },
	"cylinder": func(b mesh.Builder, opts mesh.WeldOptions) error {
		return Cylinder(b, opts, 1, 1, 2, 32, 4, 360)
	},
	"cone": func(b mesh.Builder, opts mesh.WeldOptions) error { return Cylinder(b, opts, 1, 0, 2, 32, 4, 360) },
	"cube": func(b mesh.Builder, opts mesh.WeldOptions) error { return Cube(b, opts, 1) },
}

// Names lists the catalog shapes in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build generates the named catalog shape into b, welding with opts.
func Build(b mesh.Builder, name string, opts mesh.WeldOptions) error {
	gen, ok := catalog[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("%w: %q (have %s)", ErrUnknownShape, name, strings.Join(Names(), ", "))
	}
	return gen(b, opts)
}
