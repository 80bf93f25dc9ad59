package batch

import (
	"fmt"
	"io"

	"github.com/Faultbox/meshkit/internal/engine/gpu"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

// Snapshot reads the finalized mesh back from GPU memory. Each buffer is
// mapped read-only for the duration of the copy. A mesh without indices
// still returns its vertices, and every attribute in the layout comes back
// as a non-nil slice.
func (b *TriangleBatch) Snapshot() (*mesh.Data, error) {
	if b.state != Finalized {
		return nil, stateError(b.state, Finalized)
	}

	d := &mesh.Data{
		Indices:   make([]uint16, 0, b.indexCount),
		Positions: []mesh.Vec3{},
		Radius:    b.radius,
	}
	if b.layout.Normals {
		d.Normals = []mesh.Vec3{}
	}
	if b.layout.TexCoords {
		d.TexCoords = []mesh.Vec2{}
	}

	reads := []struct {
		slot *gpu.BufferSlot
		read func(mem []byte)
	}{
		{&b.indices, func(mem []byte) {
			d.Indices = gpu.ReadUint16s(d.Indices, mem)[:b.indexCount]
		}},
		{&b.positions, func(mem []byte) {
			d.Positions = toVec3(gpu.ReadFloat32s(nil, mem), b.vertexCount)
		}},
		{&b.normals, func(mem []byte) {
			d.Normals = toVec3(gpu.ReadFloat32s(nil, mem), b.vertexCount)
		}},
		{&b.texCoords, func(mem []byte) {
			d.TexCoords = toVec2(gpu.ReadFloat32s(nil, mem), b.vertexCount)
		}},
	}
	for _, r := range reads {
		if !r.slot.OnGPU() || r.slot.Size == 0 {
			continue
		}
		if err := b.readSlot(r.slot, r.read); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (b *TriangleBatch) readSlot(s *gpu.BufferSlot, read func(mem []byte)) error {
	mem, err := s.Map(b.ctx, gpu.ReadOnly)
	if err != nil {
		return fmt.Errorf("mapping buffer %d: %w", s.ID, err)
	}
	b.state = Mapped
	read(mem)
	b.state = Finalized
	if err := s.Unmap(b.ctx); err != nil {
		return fmt.Errorf("unmapping buffer %d: %w", s.ID, err)
	}
	return nil
}

// SaveMesh writes the finalized mesh to w in the binary mesh format.
func (b *TriangleBatch) SaveMesh(w io.Writer) error {
	d, err := b.Snapshot()
	if err != nil {
		return err
	}
	return mesh.Encode(w, d)
}

// SaveMeshFile writes the finalized mesh to path.
func (b *TriangleBatch) SaveMeshFile(path string) error {
	d, err := b.Snapshot()
	if err != nil {
		return err
	}
	return mesh.SaveFile(path, d)
}

// LoadMesh replaces the batch contents with a mesh read from r. Saved meshes
// are already welded, so the data goes straight to the GPU. The batch is
// untouched unless the whole mesh decodes and uploads.
func (b *TriangleBatch) LoadMesh(r io.Reader, opts mesh.LoadOptions) error {
	if b.state == Destroyed {
		return ErrDestroyed
	}
	d, err := mesh.Decode(r, opts)
	if err != nil {
		return err
	}
	return b.Upload(d)
}

// LoadMeshFile is LoadMesh reading from path.
func (b *TriangleBatch) LoadMeshFile(path string, opts mesh.LoadOptions) error {
	if b.state == Destroyed {
		return ErrDestroyed
	}
	d, err := mesh.LoadFile(path, opts)
	if err != nil {
		return err
	}
	return b.Upload(d)
}

func toVec3(f []float32, n int) []mesh.Vec3 {
	out := make([]mesh.Vec3, n)
	for i := range out {
		copy(out[i][:], f[i*3:i*3+3])
	}
	return out
}

func toVec2(f []float32, n int) []mesh.Vec2 {
	out := make([]mesh.Vec2, n)
	for i := range out {
		copy(out[i][:], f[i*2:i*2+2])
	}
	return out
}
