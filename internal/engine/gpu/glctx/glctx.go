// Package glctx implements gpu.Context on OpenGL 4.1 core.
package glctx

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshkit/internal/engine/gpu"
	"github.com/Faultbox/meshkit/internal/logger"
)

// Context issues GL calls. It must be created and used on the thread that
// owns the current GL context.
type Context struct {
	vao uint32
	log *zap.Logger
}

// New initializes the GL function pointers and binds the vertex array object
// that all attribute bindings go through.
// IMPORTANT: Must be called AFTER the OpenGL context is made current!
func New() (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	c := &Context{log: logger.Named("gl")}
	c.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	// Core profile refuses attribute pointers without a bound VAO.
	gl.GenVertexArrays(1, &c.vao)
	gl.BindVertexArray(c.vao)

	// Enable depth testing
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	return c, nil
}

// Close releases the vertex array object.
func (c *Context) Close() {
	if c.vao != 0 {
		gl.BindVertexArray(0)
		gl.DeleteVertexArrays(1, &c.vao)
		c.vao = 0
	}
}

// GenBuffer implements gpu.Context.
func (c *Context) GenBuffer() (uint32, error) {
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("%w: glGenBuffers returned 0 (0x%x)", gpu.ErrResource, gl.GetError())
	}
	return id, nil
}

// DeleteBuffer implements gpu.Context.
func (c *Context) DeleteBuffer(id uint32) {
	if id != 0 {
		gl.DeleteBuffers(1, &id)
	}
}

// BufferData implements gpu.Context.
func (c *Context) BufferData(target gpu.Target, id uint32, size int, data []byte, usage gpu.Usage) error {
	t := glTarget(target)
	drainErrors()
	gl.BindBuffer(t, id)
	gl.BufferData(t, size, ptr(data), glUsage(usage))
	err := checkError("glBufferData")
	gl.BindBuffer(t, 0)
	if err != nil {
		c.log.Warn("buffer allocation failed", zap.Uint32("buffer", id), zap.Int("bytes", size), zap.Error(err))
	}
	return err
}

// BufferSubData implements gpu.Context.
func (c *Context) BufferSubData(target gpu.Target, id uint32, offset int, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	t := glTarget(target)
	drainErrors()
	gl.BindBuffer(t, id)
	gl.BufferSubData(t, offset, len(data), ptr(data))
	err := checkError("glBufferSubData")
	gl.BindBuffer(t, 0)
	return err
}

// MapBuffer implements gpu.Context. The buffer stays bound until UnmapBuffer.
func (c *Context) MapBuffer(target gpu.Target, id uint32, access gpu.Access) ([]byte, error) {
	t := glTarget(target)
	gl.BindBuffer(t, id)

	var size int32
	gl.GetBufferParameteriv(t, gl.BUFFER_SIZE, &size)
	if size == 0 {
		gl.BindBuffer(t, 0)
		return nil, fmt.Errorf("%w: buffer %d is empty", gpu.ErrResource, id)
	}

	p := gl.MapBuffer(t, glAccess(access))
	if p == nil {
		gl.BindBuffer(t, 0)
		return nil, fmt.Errorf("%w: glMapBuffer failed (0x%x)", gpu.ErrResource, gl.GetError())
	}
	return unsafe.Slice((*byte)(p), int(size)), nil
}

// UnmapBuffer implements gpu.Context.
func (c *Context) UnmapBuffer(target gpu.Target, id uint32) error {
	t := glTarget(target)
	gl.BindBuffer(t, id)
	ok := gl.UnmapBuffer(t)
	gl.BindBuffer(t, 0)
	if !ok {
		// The store was corrupted while mapped (e.g. a display mode change).
		return fmt.Errorf("%w: buffer %d contents lost while mapped", gpu.ErrResource, id)
	}
	return nil
}

// EnableAttrib implements gpu.Context.
func (c *Context) EnableAttrib(attr gpu.Attribute, id uint32, components int32) {
	gl.EnableVertexAttribArray(uint32(attr))
	gl.BindBuffer(gl.ARRAY_BUFFER, id)
	gl.VertexAttribPointerWithOffset(uint32(attr), components, gl.FLOAT, false, 0, 0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// DisableAttrib implements gpu.Context.
func (c *Context) DisableAttrib(attr gpu.Attribute) {
	gl.DisableVertexAttribArray(uint32(attr))
}

// DrawElements implements gpu.Context.
func (c *Context) DrawElements(mode gpu.Primitive, id uint32, count int32) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, id)
	gl.DrawElements(glPrimitive(mode), count, gl.UNSIGNED_SHORT, nil)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
}

// DrawArrays implements gpu.Context.
func (c *Context) DrawArrays(mode gpu.Primitive, first, count int32) {
	gl.DrawArrays(glPrimitive(mode), first, count)
}

// UseProgram implements gpu.Context.
func (c *Context) UseProgram(id uint32) {
	gl.UseProgram(id)
}

// DeleteProgram implements gpu.Context.
func (c *Context) DeleteProgram(id uint32) {
	if id != 0 {
		gl.DeleteProgram(id)
	}
}

// UniformLocation implements gpu.Context.
func (c *Context) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// UniformMatrix4 implements gpu.Context.
func (c *Context) UniformMatrix4(loc int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

// UniformVec4 implements gpu.Context.
func (c *Context) UniformVec4(loc int32, v mgl32.Vec4) {
	gl.Uniform4fv(loc, 1, &v[0])
}

// UniformVec3 implements gpu.Context.
func (c *Context) UniformVec3(loc int32, v mgl32.Vec3) {
	gl.Uniform3fv(loc, 1, &v[0])
}

// UniformInt implements gpu.Context.
func (c *Context) UniformInt(loc int32, v int32) {
	gl.Uniform1i(loc, v)
}

func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}

// drainErrors clears stale errors so checkError reports only the next call.
func drainErrors() {
	for i := 0; i < 16 && gl.GetError() != gl.NO_ERROR; i++ {
	}
}

func checkError(call string) error {
	switch code := gl.GetError(); code {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("%w: %s: out of memory", gpu.ErrResource, call)
	default:
		return fmt.Errorf("%w: %s: error 0x%x", gpu.ErrResource, call, code)
	}
}

func glTarget(t gpu.Target) uint32 {
	if t == gpu.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func glUsage(u gpu.Usage) uint32 {
	switch u {
	case gpu.DynamicDraw:
		return gl.DYNAMIC_DRAW
	case gpu.StreamDraw:
		return gl.STREAM_DRAW
	default:
		return gl.STATIC_DRAW
	}
}

func glAccess(a gpu.Access) uint32 {
	switch a {
	case gpu.ReadOnly:
		return gl.READ_ONLY
	case gpu.WriteOnly:
		return gl.WRITE_ONLY
	default:
		return gl.READ_WRITE
	}
}

func glPrimitive(p gpu.Primitive) uint32 {
	switch p {
	case gpu.Points:
		return gl.POINTS
	case gpu.Lines:
		return gl.LINES
	case gpu.LineLoop:
		return gl.LINE_LOOP
	case gpu.LineStrip:
		return gl.LINE_STRIP
	case gpu.TriangleStrip:
		return gl.TRIANGLE_STRIP
	case gpu.TriangleFan:
		return gl.TRIANGLE_FAN
	default:
		return gl.TRIANGLES
	}
}
