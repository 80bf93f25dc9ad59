package batch

import (
	"encoding/binary"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/meshkit/internal/engine/gpu"
	"github.com/Faultbox/meshkit/internal/logger"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

// Color is an RGBA color.
type Color [4]float32

// Batch builds an unindexed vertex stream one vertex at a time, the way
// fixed-function immediate mode did, and draws it with DrawArrays.
//
// Normal3f, Color4f and TexCoord2f set attributes of the next vertex;
// Vertex3f completes it. Vertices past the capacity given to Begin are
// dropped.
type Batch struct {
	ctx   gpu.Context
	log   *zap.Logger
	state State

	primitive gpu.Primitive
	maxVerts  int
	building  int
	numVerts  int
	dropped   int

	// Staging, allocated on first use of each attribute.
	verts     []mesh.Vec3
	normals   []mesh.Vec3
	colors    []Color
	texCoords []mesh.Vec2

	vertSlot     gpu.BufferSlot
	normalSlot   gpu.BufferSlot
	colorSlot    gpu.BufferSlot
	texCoordSlot gpu.BufferSlot

	mapping *Mapping
}

// NewBatch returns an empty batch that issues its GPU calls on ctx.
func NewBatch(ctx gpu.Context) *Batch {
	return &Batch{
		ctx:          ctx,
		log:          logger.Named("batch"),
		vertSlot:     gpu.BufferSlot{Target: gpu.ArrayBuffer, Components: 3},
		normalSlot:   gpu.BufferSlot{Target: gpu.ArrayBuffer, Components: 3},
		colorSlot:    gpu.BufferSlot{Target: gpu.ArrayBuffer, Components: 4},
		texCoordSlot: gpu.BufferSlot{Target: gpu.ArrayBuffer, Components: 2},
	}
}

// State returns the lifecycle state.
func (b *Batch) State() State {
	return b.state
}

// Primitive returns the primitive the batch draws.
func (b *Batch) Primitive() gpu.Primitive {
	return b.primitive
}

// VertexCount returns the number of vertices Draw will submit.
func (b *Batch) VertexCount() int {
	if b.state == Building {
		return b.building
	}
	return b.numVerts
}

// Capacity returns the vertex capacity given to Begin.
func (b *Batch) Capacity() int {
	return b.maxVerts
}

// Dropped returns how many vertices were ignored for lack of capacity since
// the last Begin or Reset.
func (b *Batch) Dropped() int {
	return b.dropped
}

// Begin starts a batch of at most maxVerts vertices drawn as primitive. Any
// previous contents are released.
func (b *Batch) Begin(primitive gpu.Primitive, maxVerts int) error {
	switch {
	case b.state == Destroyed:
		return ErrDestroyed
	case b.state == Mapped:
		return ErrMapped
	case maxVerts < 0:
		return fmt.Errorf("%w: %d", mesh.ErrInvalidCapacity, maxVerts)
	}

	b.releaseBuffers()
	b.primitive = primitive
	b.maxVerts = maxVerts
	b.building, b.numVerts, b.dropped = 0, 0, 0
	b.verts, b.normals, b.colors, b.texCoords = nil, nil, nil, nil
	b.state = Building
	return nil
}

// Reset reopens a finalized batch for new vertex data, keeping its buffers
// and capacity. Attributes not rewritten before End keep their old contents.
func (b *Batch) Reset(primitive gpu.Primitive) error {
	if b.state != Finalized {
		return stateError(b.state, Finalized)
	}
	b.primitive = primitive
	b.building, b.dropped = 0, 0
	b.state = Building
	return nil
}

// Vertex3f completes the current vertex.
func (b *Batch) Vertex3f(x, y, z float32) {
	if b.state != Building {
		return
	}
	if b.building >= b.maxVerts {
		b.dropped++
		return
	}
	b.verts = stage(b.verts, b.maxVerts)
	b.verts[b.building] = mesh.Vec3{x, y, z}
	b.building++
}

// Normal3f sets the normal of the current vertex.
func (b *Batch) Normal3f(x, y, z float32) {
	if b.state != Building || b.building >= b.maxVerts {
		return
	}
	b.normals = stage(b.normals, b.maxVerts)
	b.normals[b.building] = mesh.Vec3{x, y, z}
}

// Color4f sets the color of the current vertex.
func (b *Batch) Color4f(r, g, bl, a float32) {
	if b.state != Building || b.building >= b.maxVerts {
		return
	}
	b.colors = stage(b.colors, b.maxVerts)
	b.colors[b.building] = Color{r, g, bl, a}
}

// TexCoord2f sets the texture coordinate of the current vertex.
func (b *Batch) TexCoord2f(s, t float32) {
	if b.state != Building || b.building >= b.maxVerts {
		return
	}
	b.texCoords = stage(b.texCoords, b.maxVerts)
	b.texCoords[b.building] = mesh.Vec2{s, t}
}

// CopyVertexData3f replaces all positions at once. While building the whole
// capacity is marked as used; on a finalized batch the GPU buffer is
// updated in place.
func (b *Batch) CopyVertexData3f(v []mesh.Vec3) error {
	return copyData(b, &b.verts, &b.vertSlot, v)
}

// CopyNormalDataf replaces all normals at once.
func (b *Batch) CopyNormalDataf(n []mesh.Vec3) error {
	return copyData(b, &b.normals, &b.normalSlot, n)
}

// CopyColorData4f replaces all colors at once.
func (b *Batch) CopyColorData4f(c []Color) error {
	return copyData(b, &b.colors, &b.colorSlot, c)
}

// CopyTexCoordData2f replaces all texture coordinates at once.
func (b *Batch) CopyTexCoordData2f(t []mesh.Vec2) error {
	return copyData(b, &b.texCoords, &b.texCoordSlot, t)
}

func copyData[T gpu.Scalar](b *Batch, staging *[]T, slot *gpu.BufferSlot, src []T) error {
	if len(src) > b.maxVerts {
		src = src[:b.maxVerts]
	}

	switch b.state {
	case Building:
		*staging = stage(*staging, b.maxVerts)
		copy(*staging, src)
		b.building = b.maxVerts
		return nil
	case Finalized:
		if slot.OnGPU() {
			return b.ctx.BufferSubData(slot.Target, slot.ID, 0, gpu.Bytes(src))
		}
		full := make([]T, b.maxVerts)
		copy(full, src)
		return slot.Upload(b.ctx, gpu.Bytes(full), gpu.StreamDraw)
	default:
		return stateError(b.state, Finalized)
	}
}

// stage allocates a staging array on first use.
func stage[T any](s []T, n int) []T {
	if s == nil {
		s = make([]T, n)
	}
	return s
}

// End uploads every attribute written since Begin or Reset. Buffers are
// sized to the full capacity so later Copy calls and mappings can reach
// every vertex. On failure the batch stays in Building.
func (b *Batch) End() error {
	if b.state != Building {
		return stateError(b.state, Building)
	}

	uploads := []struct {
		slot *gpu.BufferSlot
		data []byte
	}{
		{&b.vertSlot, gpu.Bytes(b.verts)},
		{&b.normalSlot, gpu.Bytes(b.normals)},
		{&b.colorSlot, gpu.Bytes(b.colors)},
		{&b.texCoordSlot, gpu.Bytes(b.texCoords)},
	}
	for _, u := range uploads {
		if u.data == nil {
			continue
		}
		if err := u.slot.Upload(b.ctx, u.data, gpu.StreamDraw); err != nil {
			b.log.Error("batch upload failed", zap.Error(err))
			return err
		}
	}

	if b.dropped > 0 {
		b.log.Warn("batch overflow",
			zap.Int("dropped_vertices", b.dropped),
			zap.Int("capacity", b.maxVerts),
		)
	}

	b.numVerts = b.building
	b.verts, b.normals, b.colors, b.texCoords = nil, nil, nil, nil
	b.state = Finalized
	return nil
}

// Draw submits the batch with every present attribute bound to its
// conventional channel. A batch with no vertices draws nothing.
func (b *Batch) Draw() error {
	if b.state != Finalized {
		return stateError(b.state, Finalized)
	}
	if b.numVerts == 0 || !b.vertSlot.OnGPU() {
		return nil
	}

	bound := b.bindings()
	for _, bd := range bound {
		b.ctx.EnableAttrib(bd.attr, bd.slot.ID, bd.slot.Components)
	}
	b.ctx.DrawArrays(b.primitive, 0, int32(b.numVerts))
	for _, bd := range bound {
		b.ctx.DisableAttrib(bd.attr)
	}
	return nil
}

type binding struct {
	attr gpu.Attribute
	slot *gpu.BufferSlot
}

func (b *Batch) bindings() []binding {
	all := []binding{
		{gpu.AttribVertex, &b.vertSlot},
		{gpu.AttribColor, &b.colorSlot},
		{gpu.AttribNormal, &b.normalSlot},
		{gpu.AttribTexture0, &b.texCoordSlot},
	}
	out := all[:0]
	for _, bd := range all {
		if bd.slot.OnGPU() {
			out = append(out, bd)
		}
	}
	return out
}

// MapForUpdate maps every buffer of a finalized batch for reading and
// writing. Draw fails with ErrMapped until the returned Mapping is released
// with Unmap.
func (b *Batch) MapForUpdate() (*Mapping, error) {
	if b.state != Finalized {
		return nil, stateError(b.state, Finalized)
	}

	m := &Mapping{batch: b, count: b.maxVerts}
	targets := []struct {
		slot *gpu.BufferSlot
		mem  *[]byte
	}{
		{&b.vertSlot, &m.verts},
		{&b.normalSlot, &m.normals},
		{&b.colorSlot, &m.colors},
		{&b.texCoordSlot, &m.texCoords},
	}
	for i, t := range targets {
		if !t.slot.OnGPU() {
			continue
		}
		mem, err := t.slot.Map(b.ctx, gpu.ReadWrite)
		if err != nil {
			for _, done := range targets[:i] {
				_ = done.slot.Unmap(b.ctx)
			}
			return nil, err
		}
		*t.mem = mem
	}

	b.mapping = m
	b.state = Mapped
	return m, nil
}

// Destroy releases all buffers, unmapping first if needed. It is safe in
// any state and may be called more than once.
func (b *Batch) Destroy() {
	if b.state == Destroyed {
		return
	}
	if b.mapping != nil {
		b.mapping.closed = true
		b.mapping = nil
	}
	b.releaseBuffers()
	b.verts, b.normals, b.colors, b.texCoords = nil, nil, nil, nil
	b.state = Destroyed
}

func (b *Batch) releaseBuffers() {
	b.vertSlot.Release(b.ctx)
	b.normalSlot.Release(b.ctx)
	b.colorSlot.Release(b.ctx)
	b.texCoordSlot.Release(b.ctx)
}

// Mapping is CPU access to a mapped Batch. It is valid until Unmap; after
// that every method returns ErrMappingClosed.
type Mapping struct {
	batch  *Batch
	count  int
	closed bool

	verts     []byte
	normals   []byte
	colors    []byte
	texCoords []byte
}

// Len returns the number of addressable vertices, the batch capacity.
func (m *Mapping) Len() int {
	return m.count
}

// Vertex returns the position of vertex i.
func (m *Mapping) Vertex(i int) (mesh.Vec3, error) {
	var v mesh.Vec3
	if err := m.check(m.verts, i); err != nil {
		return v, err
	}
	for c := range v {
		v[c] = getFloat(m.verts, i*3+c)
	}
	return v, nil
}

// SetVertex overwrites the position of vertex i.
func (m *Mapping) SetVertex(i int, v mesh.Vec3) error {
	return m.put(m.verts, i, v[:])
}

// SetNormal overwrites the normal of vertex i.
func (m *Mapping) SetNormal(i int, n mesh.Vec3) error {
	return m.put(m.normals, i, n[:])
}

// SetColor overwrites the color of vertex i.
func (m *Mapping) SetColor(i int, c Color) error {
	return m.put(m.colors, i, c[:])
}

// SetTexCoord overwrites the texture coordinate of vertex i.
func (m *Mapping) SetTexCoord(i int, t mesh.Vec2) error {
	return m.put(m.texCoords, i, t[:])
}

// Unmap hands the buffers back to the GPU and returns the batch to
// Finalized. Every buffer is unmapped even if one fails; the first error is
// returned.
func (m *Mapping) Unmap() error {
	if m.closed {
		return ErrMappingClosed
	}
	m.closed = true

	b := m.batch
	var first error
	for _, s := range []*gpu.BufferSlot{&b.vertSlot, &b.normalSlot, &b.colorSlot, &b.texCoordSlot} {
		if err := s.Unmap(b.ctx); err != nil && first == nil {
			first = err
		}
	}
	m.verts, m.normals, m.colors, m.texCoords = nil, nil, nil, nil
	b.mapping = nil
	b.state = Finalized
	return first
}

func (m *Mapping) check(mem []byte, i int) error {
	switch {
	case m.closed:
		return ErrMappingClosed
	case mem == nil:
		return ErrNoAttribute
	case i < 0 || i >= m.count:
		return fmt.Errorf("%w: vertex %d of %d", mesh.ErrIndexOutOfRange, i, m.count)
	}
	return nil
}

func (m *Mapping) put(mem []byte, i int, v []float32) error {
	if err := m.check(mem, i); err != nil {
		return err
	}
	gpu.PutFloat32s(mem, i*len(v), v...)
	return nil
}

func getFloat(mem []byte, i int) float32 {
	return math.Float32frombits(binary.NativeEndian.Uint32(mem[i*4:]))
}
