// Package gpu defines the graphics device interface used by batches and
// shaders, along with the buffer ownership states they track.
//
// A Context is bound to the thread that owns the GL context. Nothing in this
// package or its users locks; all calls must come from that thread.
package gpu

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// GPU errors.
var (
	// ErrResource reports a failed buffer creation, allocation or mapping.
	ErrResource = errors.New("gpu resource failure")
	// ErrProgram reports a shader compile or link failure.
	ErrProgram = errors.New("shader program failure")
)

// Target is a buffer binding point.
type Target uint32

// Buffer targets.
const (
	ArrayBuffer Target = iota
	ElementArrayBuffer
)

// Usage is a buffer storage hint.
type Usage uint32

// Usage hints.
const (
	StaticDraw Usage = iota
	DynamicDraw
	StreamDraw
)

// Access selects how a mapped buffer may be used.
type Access uint32

// Map access modes.
const (
	ReadOnly Access = iota
	WriteOnly
	ReadWrite
)

// Primitive is a draw topology.
type Primitive uint32

// Draw primitives.
const (
	Points Primitive = iota
	Lines
	LineLoop
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
)

// String returns the primitive name.
func (p Primitive) String() string {
	switch p {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case LineLoop:
		return "line_loop"
	case LineStrip:
		return "line_strip"
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle_strip"
	case TriangleFan:
		return "triangle_fan"
	default:
		return fmt.Sprintf("Primitive(%d)", uint32(p))
	}
}

// Attribute is a conventional vertex attribute channel. Stock shaders bind
// their inputs to these locations.
type Attribute uint32

// Attribute channels.
const (
	AttribVertex Attribute = iota
	AttribColor
	AttribNormal
	AttribTexture0
	AttribTexture1
	AttribTexture2
	AttribTexture3
)

// Context is the set of graphics calls batches and shaders need. The GL
// implementation lives in package glctx.
type Context interface {
	// GenBuffer creates a buffer object.
	GenBuffer() (uint32, error)
	// DeleteBuffer releases a buffer object. Deleting 0 is a no-op.
	DeleteBuffer(id uint32)
	// BufferData allocates size bytes for the buffer and copies data into it
	// when data is not nil.
	BufferData(target Target, id uint32, size int, data []byte, usage Usage) error
	// BufferSubData replaces bytes starting at offset.
	BufferSubData(target Target, id uint32, offset int, data []byte) error
	// MapBuffer exposes the buffer memory. The slice is valid until UnmapBuffer.
	// Mapping an empty buffer fails with ErrResource and leaves nothing bound.
	MapBuffer(target Target, id uint32, access Access) ([]byte, error)
	// UnmapBuffer ends a MapBuffer.
	UnmapBuffer(target Target, id uint32) error

	// EnableAttrib binds buffer id to channel attr with the given float
	// component count.
	EnableAttrib(attr Attribute, id uint32, components int32)
	// DisableAttrib turns off channel attr.
	DisableAttrib(attr Attribute)
	// DrawElements draws count uint16 indices from index buffer id.
	DrawElements(mode Primitive, id uint32, count int32)
	// DrawArrays draws count vertices from the enabled attributes.
	DrawArrays(mode Primitive, first, count int32)

	// CreateProgram compiles and links a program, binding each attribute name
	// to its channel before linking.
	CreateProgram(vertexSrc, fragmentSrc string, attribs map[Attribute]string) (uint32, error)
	// DeleteProgram releases a program.
	DeleteProgram(id uint32)
	// UseProgram makes the program current.
	UseProgram(id uint32)
	// UniformLocation returns -1 for an unknown or inactive uniform.
	UniformLocation(program uint32, name string) int32
	UniformMatrix4(loc int32, m mgl32.Mat4)
	UniformVec4(loc int32, v mgl32.Vec4)
	UniformVec3(loc int32, v mgl32.Vec3)
	UniformInt(loc int32, v int32)
}
