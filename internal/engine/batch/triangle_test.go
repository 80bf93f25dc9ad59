package batch

import (
	"errors"
	"testing"

	"github.com/Faultbox/meshkit/internal/engine/gpu"
	"github.com/Faultbox/meshkit/internal/engine/gpu/gputest"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

func quad(normals bool) []mesh.Triangle {
	a, b, c, d := mesh.Vec3{0, 0, 0}, mesh.Vec3{1, 0, 0}, mesh.Vec3{1, 1, 0}, mesh.Vec3{0, 1, 0}
	t1 := mesh.Triangle{Positions: [3]mesh.Vec3{a, b, c}}
	t2 := mesh.Triangle{Positions: [3]mesh.Vec3{a, c, d}}
	if normals {
		n := [3]mesh.Vec3{{0, 0, 2}, {0, 0, 2}, {0, 0, 2}}
		t1.Normals = &n
		t2.Normals = &n
	}
	return []mesh.Triangle{t1, t2}
}

func buildQuad(t *testing.T, ctx *gputest.Context, normals bool) *TriangleBatch {
	t.Helper()
	b := NewTriangleBatch(ctx)
	if err := b.BeginMesh(6); err != nil {
		t.Fatalf("BeginMesh: %v", err)
	}
	for _, tr := range quad(normals) {
		if _, err := b.AddTriangle(tr, mesh.DefaultWeldOptions()); err != nil {
			t.Fatalf("AddTriangle: %v", err)
		}
	}
	if err := b.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	return b
}

func TestTriangleBatch_Lifecycle(t *testing.T) {
	ctx := gputest.New()
	b := NewTriangleBatch(ctx)
	if b.State() != Empty {
		t.Fatalf("expected empty, got %s", b.State())
	}

	if err := b.BeginMesh(6); err != nil {
		t.Fatalf("BeginMesh: %v", err)
	}
	if b.State() != Building {
		t.Errorf("expected building, got %s", b.State())
	}
	if b.positions.State != gpu.CPUOwned || b.indices.State != gpu.CPUOwned {
		t.Errorf("expected staged slots, got %s/%s", b.positions.State, b.indices.State)
	}
	if ctx.Live() != 0 {
		t.Errorf("expected no GPU buffers while building, got %d", ctx.Live())
	}

	for _, tr := range quad(true) {
		if _, err := b.AddTriangle(tr, mesh.DefaultWeldOptions()); err != nil {
			t.Fatalf("AddTriangle: %v", err)
		}
	}
	if b.IndexCount() != 6 || b.VertexCount() != 4 {
		t.Errorf("expected 6 indices / 4 vertices, got %d/%d", b.IndexCount(), b.VertexCount())
	}
	if b.normals.State != gpu.CPUOwned {
		t.Errorf("expected staged normals, got %s", b.normals.State)
	}

	if err := b.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if b.State() != Finalized {
		t.Errorf("expected finalized, got %s", b.State())
	}
	if ctx.Live() != 3 {
		t.Errorf("expected 3 buffers (indices, positions, normals), got %d", ctx.Live())
	}
	if b.texCoords.Present() {
		t.Error("texcoords should be absent")
	}
	if b.IndexCount() != 6 || b.VertexCount() != 4 {
		t.Errorf("counts changed after End: %d/%d", b.IndexCount(), b.VertexCount())
	}
	if got := len(ctx.Buffers[b.indices.ID]); got != 12 {
		t.Errorf("expected 12 index bytes, got %d", got)
	}
	if got := len(ctx.Buffers[b.positions.ID]); got != 48 {
		t.Errorf("expected 48 position bytes, got %d", got)
	}

	b.Destroy()
	if b.State() != Destroyed {
		t.Errorf("expected destroyed, got %s", b.State())
	}
	if ctx.Live() != 0 {
		t.Errorf("expected all buffers deleted, got %d", ctx.Live())
	}
}

func TestTriangleBatch_BoundingRadius(t *testing.T) {
	b := buildQuad(t, gputest.New(), false)

	want := float32(1.4142135)
	if got := b.BoundingRadius(); got < want-1e-5 || got > want+1e-5 {
		t.Errorf("expected radius %v, got %v", want, got)
	}
}

func TestTriangleBatch_Draw(t *testing.T) {
	ctx := gputest.New()
	b := buildQuad(t, ctx, true)

	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(ctx.Draws) != 1 {
		t.Fatalf("expected 1 draw, got %d", len(ctx.Draws))
	}
	d := ctx.Draws[0]
	if !d.Indexed || d.Mode != gpu.Triangles || d.Count != 6 || d.Buffer != b.indices.ID {
		t.Errorf("unexpected draw %+v", d)
	}
	want := []gpu.Attribute{gpu.AttribVertex, gpu.AttribNormal}
	if len(d.Attribs) != len(want) {
		t.Fatalf("expected attribs %v, got %v", want, d.Attribs)
	}
	for i := range want {
		if d.Attribs[i] != want[i] {
			t.Errorf("expected attribs %v, got %v", want, d.Attribs)
		}
	}
	if len(ctx.Enabled) != 0 {
		t.Errorf("expected attributes disabled after draw, got %v", ctx.Enabled)
	}
}

func TestTriangleBatch_DrawEmptyIsNoop(t *testing.T) {
	ctx := gputest.New()
	b := NewTriangleBatch(ctx)
	if err := b.BeginMesh(0); err != nil {
		t.Fatalf("BeginMesh: %v", err)
	}
	if err := b.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(ctx.Draws) != 0 {
		t.Errorf("expected no draw calls, got %d", len(ctx.Draws))
	}
}

func TestTriangleBatch_StateErrors(t *testing.T) {
	ctx := gputest.New()
	b := NewTriangleBatch(ctx)

	if err := b.Draw(); !errors.Is(err, ErrNotFinalized) {
		t.Errorf("Draw before End: expected ErrNotFinalized, got %v", err)
	}
	if err := b.End(); !errors.Is(err, ErrNotBegun) {
		t.Errorf("End before BeginMesh: expected ErrNotBegun, got %v", err)
	}
	if _, err := b.AddTriangle(quad(false)[0], mesh.DefaultWeldOptions()); !errors.Is(err, ErrNotBegun) {
		t.Errorf("AddTriangle before BeginMesh: expected ErrNotBegun, got %v", err)
	}
	if _, err := b.Snapshot(); !errors.Is(err, ErrNotFinalized) {
		t.Errorf("Snapshot before End: expected ErrNotFinalized, got %v", err)
	}

	b.Destroy()
	if err := b.BeginMesh(3); !errors.Is(err, ErrDestroyed) {
		t.Errorf("BeginMesh after Destroy: expected ErrDestroyed, got %v", err)
	}
	if err := b.Draw(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Draw after Destroy: expected ErrDestroyed, got %v", err)
	}
}

func TestTriangleBatch_DestroyPartiallyBuilt(t *testing.T) {
	ctx := gputest.New()
	b := NewTriangleBatch(ctx)
	if err := b.BeginMesh(6); err != nil {
		t.Fatalf("BeginMesh: %v", err)
	}
	if _, err := b.AddTriangle(quad(false)[0], mesh.DefaultWeldOptions()); err != nil {
		t.Fatalf("AddTriangle: %v", err)
	}

	b.Destroy()
	b.Destroy()
	if len(ctx.Deleted()) != 0 {
		t.Errorf("expected no GPU deletes for a batch never finalized, got %v", ctx.Deleted())
	}
}

func TestTriangleBatch_EndFailureKeepsStaging(t *testing.T) {
	ctx := gputest.New()
	b := NewTriangleBatch(ctx)
	if err := b.BeginMesh(6); err != nil {
		t.Fatalf("BeginMesh: %v", err)
	}
	for _, tr := range quad(true) {
		if _, err := b.AddTriangle(tr, mesh.DefaultWeldOptions()); err != nil {
			t.Fatalf("AddTriangle: %v", err)
		}
	}

	// Indices and positions get buffers, normals do not.
	ctx.FailGen = 2
	err := b.End()
	if !errors.Is(err, gpu.ErrResource) {
		t.Fatalf("expected ErrResource, got %v", err)
	}
	if b.State() != Building {
		t.Errorf("expected building after failed End, got %s", b.State())
	}
	if ctx.Live() != 0 {
		t.Errorf("expected partial uploads released, got %d live", ctx.Live())
	}

	ctx.FailGen = 0
	if err := b.End(); err != nil {
		t.Fatalf("retry End: %v", err)
	}
	if b.IndexCount() != 6 || b.VertexCount() != 4 {
		t.Errorf("expected 6/4 after retry, got %d/%d", b.IndexCount(), b.VertexCount())
	}
}

func TestTriangleBatch_GenFailure(t *testing.T) {
	ctx := gputest.New()
	ctx.FailGen = 1
	b := NewTriangleBatch(ctx)
	if err := b.BeginMesh(3); err != nil {
		t.Fatalf("BeginMesh: %v", err)
	}
	if _, err := b.AddTriangle(quad(false)[0], mesh.DefaultWeldOptions()); err != nil {
		t.Fatalf("AddTriangle: %v", err)
	}
	if err := b.End(); !errors.Is(err, gpu.ErrResource) {
		t.Fatalf("expected ErrResource, got %v", err)
	}
	if ctx.Live() != 0 {
		t.Errorf("expected no live buffers, got %d", ctx.Live())
	}
}

func TestTriangleBatch_Truncation(t *testing.T) {
	b := NewTriangleBatch(gputest.New())
	if err := b.BeginMesh(3); err != nil {
		t.Fatalf("BeginMesh: %v", err)
	}
	tris := quad(false)
	if res, _ := b.AddTriangle(tris[0], mesh.DefaultWeldOptions()); res.Dropped {
		t.Fatal("first triangle should fit")
	}
	res, err := b.AddTriangle(tris[1], mesh.DefaultWeldOptions())
	if err != nil {
		t.Fatalf("AddTriangle: %v", err)
	}
	if !res.Dropped {
		t.Error("expected second triangle dropped")
	}
	if err := b.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if !b.Truncated() || b.DroppedTriangles() != 1 {
		t.Errorf("expected truncation reported, got %v/%d", b.Truncated(), b.DroppedTriangles())
	}
	if b.IndexCount() != 3 || b.VertexCount() != 3 {
		t.Errorf("expected 3/3, got %d/%d", b.IndexCount(), b.VertexCount())
	}
}

func TestTriangleBatch_BeginMeshReleasesPrevious(t *testing.T) {
	ctx := gputest.New()
	b := buildQuad(t, ctx, false)
	old := b.positions.ID

	if err := b.BeginMesh(3); err != nil {
		t.Fatalf("BeginMesh: %v", err)
	}
	if _, ok := ctx.Buffers[old]; ok {
		t.Error("expected previous buffers released")
	}
	if b.IndexCount() != 0 || b.BoundingRadius() != 0 {
		t.Errorf("expected cleared counters, got %d indices radius %v", b.IndexCount(), b.BoundingRadius())
	}
}

func TestTriangleBatch_UploadValidates(t *testing.T) {
	ctx := gputest.New()
	b := buildQuad(t, ctx, false)
	before := b.positions.ID

	bad := &mesh.Data{Indices: []uint16{0, 1, 7}, Positions: make([]mesh.Vec3, 3)}
	if err := b.Upload(bad); !errors.Is(err, mesh.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if b.positions.ID != before || b.IndexCount() != 6 {
		t.Error("failed Upload changed the batch")
	}
}

func TestTriangleBatch_SatisfiesBuilder(t *testing.T) {
	var _ interface {
		BeginMesh(int) error
		AddTriangle(mesh.Triangle, mesh.WeldOptions) (mesh.AddResult, error)
	} = NewTriangleBatch(gputest.New())
}
