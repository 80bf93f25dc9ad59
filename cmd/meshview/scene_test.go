package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshkit/internal/config"
	"github.com/Faultbox/meshkit/internal/engine/gpu"
	"github.com/Faultbox/meshkit/internal/engine/gpu/gputest"
	"github.com/Faultbox/meshkit/internal/engine/shader"
	"github.com/Faultbox/meshkit/pkg/mesh"
	"github.com/Faultbox/meshkit/pkg/shapes"
)

func newTestScene(t *testing.T) (*scene, *gputest.Context) {
	t.Helper()
	ctx := gputest.New()
	sc, err := newScene(ctx, config.Default())
	if err != nil {
		t.Fatalf("newScene: %v", err)
	}
	t.Cleanup(sc.destroy)
	return sc, ctx
}

func TestNewSceneShaderChoice(t *testing.T) {
	tests := []struct {
		shader  string
		wantErr bool
	}{
		{"flat", false},
		{"POINT_LIGHT_DIFF", false},
		{"texture_replace", true},
		{"toon", true},
	}
	for _, tt := range tests {
		t.Run(tt.shader, func(t *testing.T) {
			cfg := config.Default()
			cfg.Viewer.Shader = tt.shader
			sc, err := newScene(gputest.New(), cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if sc != nil {
				sc.destroy()
			}
		})
	}
}

func TestNewSceneCompileFailure(t *testing.T) {
	ctx := gputest.New()
	ctx.FailProgram = true
	if _, err := newScene(ctx, config.Default()); !errors.Is(err, gpu.ErrProgram) {
		t.Errorf("expected ErrProgram, got %v", err)
	}
}

func TestSceneDrawsMeshAndRing(t *testing.T) {
	sc, ctx := newTestScene(t)
	if err := sc.loadSource("cube"); err != nil {
		t.Fatalf("loadSource: %v", err)
	}

	if err := sc.draw(16.0 / 9.0); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(ctx.Draws) != 2 {
		t.Fatalf("expected mesh and ring draws, got %d", len(ctx.Draws))
	}
	if d := ctx.Draws[0]; !d.Indexed || d.Mode != gpu.Triangles || d.Count != 36 {
		t.Errorf("unexpected mesh draw %+v", d)
	}
	if d := ctx.Draws[1]; d.Indexed || d.Mode != gpu.LineLoop || d.Count != ringSegments {
		t.Errorf("unexpected ring draw %+v", d)
	}
	if sc.shaders.Current() != shader.Flat {
		t.Errorf("expected ring drawn with flat shader, got %s", sc.shaders.Current())
	}

	// The ring sits on the bounding sphere around the origin.
	m, err := sc.ring.MapForUpdate()
	if err != nil {
		t.Fatalf("MapForUpdate: %v", err)
	}
	defer m.Unmap()
	for _, i := range []int{0, ringSegments / 4, ringSegments - 1} {
		v, err := m.Vertex(i)
		if err != nil {
			t.Fatalf("Vertex(%d): %v", i, err)
		}
		got := mgl32.Vec3(v).Len()
		if !mgl32.FloatEqualThreshold(got, sc.mesh.BoundingRadius(), 1e-4) {
			t.Errorf("ring vertex %d at distance %v, expected %v", i, got, sc.mesh.BoundingRadius())
		}
	}
}

func TestSceneRingHidden(t *testing.T) {
	sc, ctx := newTestScene(t)
	if err := sc.loadSource("sphere"); err != nil {
		t.Fatalf("loadSource: %v", err)
	}
	sc.showRing = false

	if err := sc.draw(1); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(ctx.Draws) != 1 {
		t.Errorf("expected only the mesh draw, got %d", len(ctx.Draws))
	}
	if sc.shaders.Current() != shader.DefaultLight {
		t.Errorf("expected configured shader, got %s", sc.shaders.Current())
	}
}

func TestSceneSelectShader(t *testing.T) {
	sc, _ := newTestScene(t)
	if err := sc.loadSource("cube"); err != nil {
		t.Fatalf("loadSource: %v", err)
	}
	sc.showRing = false

	for i, want := range viewShaders {
		sc.selectShader(i)
		if err := sc.draw(1); err != nil {
			t.Fatalf("draw with %s: %v", want, err)
		}
		if sc.shaders.Current() != want {
			t.Errorf("expected %s, got %s", want, sc.shaders.Current())
		}
	}

	sc.selectShader(len(viewShaders))
	if sc.shader != viewShaders[len(viewShaders)-1] {
		t.Error("out of range selection should be ignored")
	}
}

func TestSceneLoadFiles(t *testing.T) {
	dir := t.TempDir()

	var w mesh.Welder
	if err := shapes.Build(&w, "torus", mesh.DefaultWeldOptions()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	want, err := w.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	meshPath := filepath.Join(dir, "torus.mesh")
	if err := mesh.SaveFile(meshPath, want); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	objPath := filepath.Join(dir, "tri.obj")
	if err := os.WriteFile(objPath, []byte("v 0 0 0\nv 2 0 0\nv 0 2 0\nf 1 2 3\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	sc, _ := newTestScene(t)

	if err := sc.loadSource(meshPath); err != nil {
		t.Fatalf("load .mesh: %v", err)
	}
	if sc.mesh.IndexCount() != want.IndexCount() || sc.mesh.VertexCount() != want.VertexCount() {
		t.Errorf("expected %d/%d, got %d/%d", want.IndexCount(), want.VertexCount(), sc.mesh.IndexCount(), sc.mesh.VertexCount())
	}

	if err := sc.loadSource(objPath); err != nil {
		t.Fatalf("load .obj: %v", err)
	}
	if sc.mesh.IndexCount() != 3 || sc.mesh.BoundingRadius() != 2 {
		t.Errorf("unexpected obj mesh: %d indices, radius %v", sc.mesh.IndexCount(), sc.mesh.BoundingRadius())
	}
	if sc.cam.Distance <= 2 {
		t.Errorf("expected camera refit outside radius 2, got %v", sc.cam.Distance)
	}

	if err := sc.loadSource(filepath.Join(dir, "missing.obj")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestSceneSaveMesh(t *testing.T) {
	sc, _ := newTestScene(t)
	if err := sc.loadSource("cube"); err != nil {
		t.Fatalf("loadSource: %v", err)
	}

	path := filepath.Join(t.TempDir(), "cube.mesh")
	if err := sc.saveMesh(path); err != nil {
		t.Fatalf("saveMesh: %v", err)
	}
	d, err := mesh.LoadFile(path, mesh.DefaultLoadOptions())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if d.IndexCount() != 36 || d.VertexCount() != 24 {
		t.Errorf("expected 36/24, got %d/%d", d.IndexCount(), d.VertexCount())
	}
}

func TestSceneUpdate(t *testing.T) {
	sc, _ := newTestScene(t)
	sc.speed = 90

	sc.update(1)
	if !mgl32.FloatEqualThreshold(sc.angle, mgl32.DegToRad(90), 1e-5) {
		t.Errorf("expected quarter turn, got %v", sc.angle)
	}

	sc.spin = false
	sc.update(1)
	if !mgl32.FloatEqualThreshold(sc.angle, mgl32.DegToRad(90), 1e-5) {
		t.Errorf("expected paused spin, got %v", sc.angle)
	}
}
