// Package mesh builds compact indexed triangle meshes and reads and writes
// them in a flat binary format.
//
// The Welder deduplicates vertices as triangles are added; the resulting Data
// is what gets uploaded to the GPU or persisted to disk.
package mesh

import (
	"errors"
	"fmt"
	gomath "math"
)

// Mesh errors.
var (
	ErrNotBuilding       = errors.New("mesh is not being built (call BeginMesh first)")
	ErrInvalidCapacity   = errors.New("invalid mesh capacity")
	ErrAttributeMismatch = errors.New("triangle attributes do not match mesh layout")
	ErrTruncatedMesh     = errors.New("truncated mesh data")
	ErrInvalidHeader     = errors.New("invalid mesh header")
	ErrIndexOutOfRange   = errors.New("mesh index out of range")
	ErrAttributeLength   = errors.New("attribute array length does not match vertex count")
)

// MaxVertices is the number of unique vertices addressable by 16-bit indices.
const MaxVertices = 1 << 16

// Vec3 is a position or normal.
type Vec3 [3]float32

// Vec2 is a texture coordinate.
type Vec2 [2]float32

// LengthSquared returns the squared magnitude of v.
func (v Vec3) LengthSquared() float32 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// Length returns the magnitude of v.
func (v Vec3) Length() float32 {
	return float32(gomath.Sqrt(float64(v.LengthSquared())))
}

// Normalize returns v scaled to unit length. A zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// Triangle is one input triangle. Normals and TexCoords are nil when the
// mesh does not carry that attribute.
type Triangle struct {
	Positions [3]Vec3
	Normals   *[3]Vec3
	TexCoords *[3]Vec2
}

// Layout records which optional attributes a mesh carries.
// Positions are always present.
type Layout struct {
	Normals   bool
	TexCoords bool
}

// String returns a short description such as "positions+normals".
func (l Layout) String() string {
	s := "positions"
	if l.Normals {
		s += "+normals"
	}
	if l.TexCoords {
		s += "+texcoords"
	}
	return s
}

// Data is a finalized, deduplicated mesh.
//
// Normals and TexCoords are nil when absent; when present they hold exactly
// one entry per position.
type Data struct {
	Indices   []uint16
	Positions []Vec3
	Normals   []Vec3
	TexCoords []Vec2
	Radius    float32
}

// Layout reports which optional attributes d carries.
func (d *Data) Layout() Layout {
	return Layout{
		Normals:   d.Normals != nil,
		TexCoords: d.TexCoords != nil,
	}
}

// IndexCount returns the number of indices (three per triangle).
func (d *Data) IndexCount() int {
	return len(d.Indices)
}

// VertexCount returns the number of unique vertices.
func (d *Data) VertexCount() int {
	return len(d.Positions)
}

// Validate checks the structural invariants of a finalized mesh.
func (d *Data) Validate() error {
	vc := len(d.Positions)
	if vc > MaxVertices {
		return fmt.Errorf("%w: %d vertices", ErrInvalidHeader, vc)
	}
	if len(d.Indices)%3 != 0 {
		return fmt.Errorf("%w: index count %d is not a multiple of 3", ErrInvalidHeader, len(d.Indices))
	}
	if d.Normals != nil && len(d.Normals) != vc {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrAttributeLength, len(d.Normals), vc)
	}
	if d.TexCoords != nil && len(d.TexCoords) != vc {
		return fmt.Errorf("%w: %d texcoords for %d vertices", ErrAttributeLength, len(d.TexCoords), vc)
	}
	for i, idx := range d.Indices {
		if int(idx) >= vc {
			return fmt.Errorf("%w: index %d at %d (vertex count %d)", ErrIndexOutOfRange, idx, i, vc)
		}
	}
	return nil
}

// BoundingRadius returns the distance from the origin to the farthest
// position. This encloses the mesh in a sphere centered at its local origin;
// it is not the minimal enclosing sphere.
func BoundingRadius(positions []Vec3) float32 {
	var maxSq float32
	for _, p := range positions {
		if l := p.LengthSquared(); l > maxSq {
			maxSq = l
		}
	}
	return float32(gomath.Sqrt(float64(maxSq)))
}
