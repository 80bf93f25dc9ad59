package shapes

import (
	"errors"
	"math"
	"testing"

	"github.com/Faultbox/meshkit/pkg/mesh"
)

var weld = mesh.DefaultWeldOptions()

func finalize(t *testing.T, w *mesh.Welder) *mesh.Data {
	t.Helper()
	if w.Truncated() {
		t.Fatalf("generator overflowed its own capacity: %d dropped", w.DroppedTriangles())
	}
	d, err := w.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return d
}

func checkUnitNormals(t *testing.T, d *mesh.Data) {
	t.Helper()
	if !d.Layout().Normals || !d.Layout().TexCoords {
		t.Fatalf("expected normals and texcoords, got %s", d.Layout())
	}
	for i, n := range d.Normals {
		if l := n.Length(); l != 0 && math.Abs(float64(l)-1) > 1e-4 {
			t.Errorf("normal %d has length %v", i, l)
		}
	}
}

func TestSphere(t *testing.T) {
	const slices, stacks = 8, 4
	var w mesh.Welder
	if err := Sphere(&w, weld, 2, slices, stacks); err != nil {
		t.Fatalf("Sphere: %v", err)
	}
	d := finalize(t, &w)

	if got, want := d.IndexCount(), slices*stacks*6; got != want {
		t.Errorf("expected %d indices, got %d", want, got)
	}
	if got, want := d.VertexCount(), (slices+1)*(stacks+1); got != want {
		t.Errorf("expected %d vertices, got %d", want, got)
	}
	if math.Abs(float64(d.Radius)-2) > 1e-5 {
		t.Errorf("expected radius 2, got %v", d.Radius)
	}
	for i, p := range d.Positions {
		if l := p.Length(); math.Abs(float64(l)-2) > 1e-4 {
			t.Errorf("vertex %d off the sphere: |p|=%v", i, l)
		}
	}
	checkUnitNormals(t, d)
}

func TestTorus(t *testing.T) {
	var w mesh.Welder
	if err := Torus(&w, weld, 1, 0.25, 12, 6); err != nil {
		t.Fatalf("Torus: %v", err)
	}
	d := finalize(t, &w)

	if got, want := d.IndexCount(), 12*7*6; got != want {
		t.Errorf("expected %d indices, got %d", want, got)
	}
	if math.Abs(float64(d.Radius)-1.25) > 1e-4 {
		t.Errorf("expected radius 1.25, got %v", d.Radius)
	}
	for i, p := range d.Positions {
		ring := math.Hypot(float64(p[0]), float64(p[1])) - 1
		tube := math.Hypot(ring, float64(p[2]))
		if math.Abs(tube-0.25) > 1e-4 {
			t.Errorf("vertex %d off the tube: %v", i, tube)
		}
	}
	checkUnitNormals(t, d)
}

func TestDisk(t *testing.T) {
	var w mesh.Welder
	if err := Disk(&w, weld, 0.5, 1, 16, 2, 360); err != nil {
		t.Fatalf("Disk: %v", err)
	}
	d := finalize(t, &w)

	if got, want := d.IndexCount(), 16*2*6; got != want {
		t.Errorf("expected %d indices, got %d", want, got)
	}
	// A closed ring shares the seam: 3 radii x 16 angles.
	if got := d.VertexCount(); got != 48 {
		t.Errorf("expected 48 vertices, got %d", got)
	}
	for i, p := range d.Positions {
		r := math.Hypot(float64(p[0]), float64(p[1]))
		if p[2] != 0 || r < 0.5-1e-5 || r > 1+1e-5 {
			t.Errorf("vertex %d outside the annulus: %v", i, p)
		}
	}
	for i, n := range d.Normals {
		if n != (mesh.Vec3{0, 0, 1}) {
			t.Errorf("normal %d: expected +z, got %v", i, n)
		}
	}
}

func TestCylinder(t *testing.T) {
	var w mesh.Welder
	if err := Cylinder(&w, weld, 1, 1, 3, 10, 3, 360); err != nil {
		t.Fatalf("Cylinder: %v", err)
	}
	d := finalize(t, &w)

	if got, want := d.IndexCount(), 10*3*6; got != want {
		t.Errorf("expected %d indices, got %d", want, got)
	}
	for i, p := range d.Positions {
		if r := math.Hypot(float64(p[0]), float64(p[1])); math.Abs(r-1) > 1e-5 {
			t.Errorf("vertex %d off the tube: r=%v", i, r)
		}
		if p[2] < 0 || p[2] > 3+1e-5 {
			t.Errorf("vertex %d outside length: z=%v", i, p[2])
		}
	}
	for i, n := range d.Normals {
		if math.Abs(float64(n[2])) > 1e-6 {
			t.Errorf("straight tube normal %d should be radial, got %v", i, n)
		}
	}
	checkUnitNormals(t, d)
}

func TestCylinder_Cone(t *testing.T) {
	var w mesh.Welder
	if err := Cylinder(&w, weld, 1, 0, 1, 8, 1, 360); err != nil {
		t.Fatalf("Cylinder: %v", err)
	}
	d := finalize(t, &w)

	for i, n := range d.Normals {
		if n.Length() == 0 {
			t.Errorf("cone normal %d is zero", i)
		}
		if n[2] <= 0 {
			t.Errorf("cone normal %d should lean towards the tip, got %v", i, n)
		}
	}
}

func TestCube(t *testing.T) {
	var w mesh.Welder
	if err := Cube(&w, weld, 0.5); err != nil {
		t.Fatalf("Cube: %v", err)
	}
	d := finalize(t, &w)

	if d.IndexCount() != 36 {
		t.Errorf("expected 36 indices, got %d", d.IndexCount())
	}
	if d.VertexCount() != 24 {
		t.Errorf("expected 24 vertices (4 per face), got %d", d.VertexCount())
	}
	want := float32(math.Sqrt(0.75))
	if math.Abs(float64(d.Radius-want)) > 1e-5 {
		t.Errorf("expected radius %v, got %v", want, d.Radius)
	}

	// Every triangle winds counter-clockwise seen from outside.
	for i := 0; i < len(d.Indices); i += 3 {
		a, b, c := d.Positions[d.Indices[i]], d.Positions[d.Indices[i+1]], d.Positions[d.Indices[i+2]]
		n := d.Normals[d.Indices[i]]
		e1 := mesh.Vec3{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		e2 := mesh.Vec3{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		cross := mesh.Vec3{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		if dot := cross[0]*n[0] + cross[1]*n[1] + cross[2]*n[2]; dot <= 0 {
			t.Errorf("triangle %d winds inward", i/3)
		}
	}
}

func TestInvalidShapes(t *testing.T) {
	tests := []struct {
		name string
		gen  func(b mesh.Builder) error
	}{
		{"sphere radius", func(b mesh.Builder) error { return Sphere(b, weld, 0, 8, 8) }},
		{"sphere slices", func(b mesh.Builder) error { return Sphere(b, weld, 1, 0, 8) }},
		{"torus", func(b mesh.Builder) error { return Torus(b, weld, 1, 0, 8, 8) }},
		{"disk", func(b mesh.Builder) error { return Disk(b, weld, 0, 1, 8, 0, 360) }},
		{"cylinder", func(b mesh.Builder) error { return Cylinder(b, weld, 0, 0, 1, 8, 1, 360) }},
		{"cube", func(b mesh.Builder) error { return Cube(b, weld, -1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w mesh.Welder
			if err := tt.gen(&w); !errors.Is(err, ErrInvalidShape) {
				t.Errorf("expected ErrInvalidShape, got %v", err)
			}
			if w.Building() {
				t.Error("invalid shape should not start a mesh")
			}
		})
	}
}

type failingBuilder struct {
	calls int
	after int
}

var errFull = errors.New("builder full")

func (f *failingBuilder) BeginMesh(int) error { return nil }

func (f *failingBuilder) AddTriangle(mesh.Triangle, mesh.WeldOptions) (mesh.AddResult, error) {
	f.calls++
	if f.calls > f.after {
		return mesh.AddResult{}, errFull
	}
	return mesh.AddResult{Added: 3}, nil
}

func TestBuilderErrorStopsGeneration(t *testing.T) {
	b := &failingBuilder{after: 5}
	if err := Sphere(b, weld, 1, 8, 8); !errors.Is(err, errFull) {
		t.Fatalf("expected builder error, got %v", err)
	}
	if b.calls != 6 {
		t.Errorf("expected generation to stop at the failing call, got %d calls", b.calls)
	}
}

type recordingBuilder struct {
	seen []mesh.WeldOptions
}

func (r *recordingBuilder) BeginMesh(int) error { return nil }

func (r *recordingBuilder) AddTriangle(_ mesh.Triangle, opts mesh.WeldOptions) (mesh.AddResult, error) {
	r.seen = append(r.seen, opts)
	return mesh.AddResult{Added: 3}, nil
}

func TestWeldOptionsReachBuilder(t *testing.T) {
	opts := mesh.WeldOptions{Epsilon: 0.25, SearchLimit: 7}
	var r recordingBuilder
	if err := Cube(&r, opts, 1); err != nil {
		t.Fatalf("Cube: %v", err)
	}
	if len(r.seen) != 12 {
		t.Fatalf("expected 12 triangles, got %d", len(r.seen))
	}
	for i, got := range r.seen {
		if got != opts {
			t.Fatalf("triangle %d welded with %+v, want %+v", i, got, opts)
		}
	}
}

func TestCoarseEpsilonWeldsMore(t *testing.T) {
	var fine, coarse mesh.Welder
	if err := Cube(&fine, weld, 0.5); err != nil {
		t.Fatalf("Cube: %v", err)
	}
	if err := Cube(&coarse, mesh.WeldOptions{Epsilon: 10}, 0.5); err != nil {
		t.Fatalf("Cube: %v", err)
	}
	if fine.VertexCount() != 24 {
		t.Errorf("expected 24 vertices with the default epsilon, got %d", fine.VertexCount())
	}
	if coarse.VertexCount() != 1 {
		t.Errorf("expected every corner to weld with epsilon 10, got %d vertices", coarse.VertexCount())
	}
}
