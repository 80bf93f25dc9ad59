package batch

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshkit/internal/engine/gpu"
	"github.com/Faultbox/meshkit/internal/logger"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

// TriangleBatch is an indexed triangle mesh. Triangles are welded on the CPU
// between BeginMesh and End, then moved into static GPU buffers.
type TriangleBatch struct {
	ctx   gpu.Context
	log   *zap.Logger
	state State

	welder mesh.Welder

	indices   gpu.BufferSlot
	positions gpu.BufferSlot
	normals   gpu.BufferSlot
	texCoords gpu.BufferSlot

	indexCount  int
	vertexCount int
	layout      mesh.Layout
	radius      float32
	dropped     int
}

// NewTriangleBatch returns an empty batch that issues its GPU calls on ctx.
func NewTriangleBatch(ctx gpu.Context) *TriangleBatch {
	return &TriangleBatch{
		ctx:       ctx,
		log:       logger.Named("batch"),
		indices:   gpu.BufferSlot{Target: gpu.ElementArrayBuffer},
		positions: gpu.BufferSlot{Target: gpu.ArrayBuffer, Components: 3},
		normals:   gpu.BufferSlot{Target: gpu.ArrayBuffer, Components: 3},
		texCoords: gpu.BufferSlot{Target: gpu.ArrayBuffer, Components: 2},
	}
}

// State returns the lifecycle state.
func (b *TriangleBatch) State() State {
	return b.state
}

// BeginMesh starts a new mesh holding at most maxVerts indices. Any previous
// mesh, staged or uploaded, is released.
func (b *TriangleBatch) BeginMesh(maxVerts int) error {
	if b.state == Destroyed {
		return ErrDestroyed
	}
	if err := b.welder.BeginMesh(maxVerts); err != nil {
		return err
	}

	b.releaseBuffers()
	b.indices.State = gpu.CPUOwned
	b.positions.State = gpu.CPUOwned
	b.indexCount, b.vertexCount, b.radius, b.dropped = 0, 0, 0, 0
	b.layout = mesh.Layout{}
	b.state = Building
	return nil
}

// AddTriangle welds one triangle into the staged mesh. See mesh.Welder.
func (b *TriangleBatch) AddTriangle(tri mesh.Triangle, opts mesh.WeldOptions) (mesh.AddResult, error) {
	if b.state != Building {
		return mesh.AddResult{}, stateError(b.state, Building)
	}

	res, err := b.welder.AddTriangle(tri, opts)
	if err != nil {
		return res, err
	}
	if l := b.welder.Layout(); l.Normals {
		b.normals.State = gpu.CPUOwned
	}
	if l := b.welder.Layout(); l.TexCoords {
		b.texCoords.State = gpu.CPUOwned
	}
	return res, nil
}

// End uploads the staged mesh to the GPU and frees staging. If an upload
// fails the batch stays in Building with staging intact, so End may be
// retried.
func (b *TriangleBatch) End() error {
	if b.state != Building {
		return stateError(b.state, Building)
	}

	d, err := b.welder.Data()
	if err != nil {
		return err
	}
	if err := b.upload(d); err != nil {
		return err
	}

	b.dropped = b.welder.DroppedTriangles()
	if b.dropped > 0 {
		b.log.Warn("mesh truncated",
			zap.Int("dropped_triangles", b.dropped),
			zap.Int("capacity", b.welder.MaxIndexes()),
		)
	}
	b.welder.Release()

	b.log.Debug("mesh finalized",
		zap.Int("indices", b.indexCount),
		zap.Int("vertices", b.vertexCount),
		zap.Stringer("layout", b.layout),
		zap.Float32("radius", b.radius),
	)
	return nil
}

// Upload replaces the batch contents with an already welded mesh, skipping
// the weld step. d is validated first; on any failure the batch keeps its
// previous contents.
func (b *TriangleBatch) Upload(d *mesh.Data) error {
	if b.state == Destroyed {
		return ErrDestroyed
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if err := b.upload(d); err != nil {
		return err
	}
	b.welder.Release()
	b.dropped = 0
	return nil
}

// upload moves d into fresh buffer objects. Existing buffers are swapped out
// only once every new one is in place.
func (b *TriangleBatch) upload(d *mesh.Data) error {
	fresh := [4]gpu.BufferSlot{
		{Target: gpu.ElementArrayBuffer},
		{Target: gpu.ArrayBuffer, Components: 3},
		{Target: gpu.ArrayBuffer, Components: 3},
		{Target: gpu.ArrayBuffer, Components: 2},
	}
	data := [4][]byte{gpu.Bytes(d.Indices), gpu.Bytes(d.Positions), nil, nil}
	want := [4]bool{true, true, d.Normals != nil, d.TexCoords != nil}
	if want[2] {
		data[2] = gpu.Bytes(d.Normals)
	}
	if want[3] {
		data[3] = gpu.Bytes(d.TexCoords)
	}

	for i := range fresh {
		if !want[i] {
			continue
		}
		if err := fresh[i].Upload(b.ctx, data[i], gpu.StaticDraw); err != nil {
			for j := 0; j < i; j++ {
				fresh[j].Release(b.ctx)
			}
			b.log.Error("mesh upload failed", zap.Error(err))
			return err
		}
	}

	b.releaseBuffers()
	b.indices, b.positions, b.normals, b.texCoords = fresh[0], fresh[1], fresh[2], fresh[3]
	b.indexCount = len(d.Indices)
	b.vertexCount = len(d.Positions)
	b.layout = d.Layout()
	b.radius = d.Radius
	b.state = Finalized
	return nil
}

// Draw binds the mesh to the conventional attribute channels and draws every
// index as triangles. An empty mesh draws nothing.
func (b *TriangleBatch) Draw() error {
	if b.state != Finalized {
		return stateError(b.state, Finalized)
	}
	if b.indexCount == 0 {
		return nil
	}

	b.ctx.EnableAttrib(gpu.AttribVertex, b.positions.ID, b.positions.Components)
	if b.normals.OnGPU() {
		b.ctx.EnableAttrib(gpu.AttribNormal, b.normals.ID, b.normals.Components)
	}
	if b.texCoords.OnGPU() {
		b.ctx.EnableAttrib(gpu.AttribTexture0, b.texCoords.ID, b.texCoords.Components)
	}

	b.ctx.DrawElements(gpu.Triangles, b.indices.ID, int32(b.indexCount))

	b.ctx.DisableAttrib(gpu.AttribVertex)
	if b.normals.OnGPU() {
		b.ctx.DisableAttrib(gpu.AttribNormal)
	}
	if b.texCoords.OnGPU() {
		b.ctx.DisableAttrib(gpu.AttribTexture0)
	}
	return nil
}

// IndexCount returns the number of indices, staged or uploaded.
func (b *TriangleBatch) IndexCount() int {
	if b.state == Building {
		return b.welder.IndexCount()
	}
	return b.indexCount
}

// VertexCount returns the number of unique vertices, staged or uploaded.
func (b *TriangleBatch) VertexCount() int {
	if b.state == Building {
		return b.welder.VertexCount()
	}
	return b.vertexCount
}

// Layout returns the optional attributes of the mesh.
func (b *TriangleBatch) Layout() mesh.Layout {
	if b.state == Building {
		return b.welder.Layout()
	}
	return b.layout
}

// BoundingRadius returns the distance from the origin to the farthest
// vertex. It is zero until the mesh is finalized.
func (b *TriangleBatch) BoundingRadius() float32 {
	return b.radius
}

// Truncated reports whether triangles were dropped for lack of capacity.
func (b *TriangleBatch) Truncated() bool {
	return b.DroppedTriangles() > 0
}

// DroppedTriangles returns how many triangles did not fit.
func (b *TriangleBatch) DroppedTriangles() int {
	if b.state == Building {
		return b.welder.DroppedTriangles()
	}
	return b.dropped
}

// Destroy frees staging and GPU buffers. It is safe on a batch in any state,
// including one that was never finalized, and may be called more than once.
func (b *TriangleBatch) Destroy() {
	if b.state == Destroyed {
		return
	}
	b.welder.Release()
	b.releaseBuffers()
	b.indexCount, b.vertexCount = 0, 0
	b.state = Destroyed
}

func (b *TriangleBatch) releaseBuffers() {
	b.indices.Release(b.ctx)
	b.positions.Release(b.ctx)
	b.normals.Release(b.ctx)
	b.texCoords.Release(b.ctx)
}
