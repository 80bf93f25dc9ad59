// Package gputest provides an in-memory gpu.Context for tests.
package gputest

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshkit/internal/engine/gpu"
)

// DrawCall records one DrawElements or DrawArrays call.
type DrawCall struct {
	Mode    gpu.Primitive
	Indexed bool
	Buffer  uint32
	First   int32
	Count   int32
	// Attribs holds the channels enabled when the call was made.
	Attribs []gpu.Attribute
}

// Binding is an enabled attribute channel.
type Binding struct {
	Buffer     uint32
	Components int32
}

// Program is a linked fake program.
type Program struct {
	Vertex   string
	Fragment string
	Attribs  map[gpu.Attribute]string
}

// Context stores buffers in memory and records draws. Set the Fail* fields
// to inject errors.
type Context struct {
	Buffers  map[uint32][]byte
	Programs map[uint32]Program
	Enabled  map[gpu.Attribute]Binding
	Draws    []DrawCall
	Current  uint32
	Uniforms map[int32]any

	// FailGen makes GenBuffer fail after that many successful calls when > 0.
	FailGen int
	// FailData makes BufferData fail for allocations of at least that size
	// when > 0.
	FailData int
	// FailMap makes MapBuffer fail.
	FailMap bool
	// FailUnmap makes UnmapBuffer report lost contents.
	FailUnmap bool
	// FailProgram makes CreateProgram fail.
	FailProgram bool

	nextID  uint32
	gens    int
	mapped  map[uint32]bool
	locs    map[string]int32
	deleted []uint32
}

// New returns an empty context.
func New() *Context {
	return &Context{
		Buffers:  make(map[uint32][]byte),
		Programs: make(map[uint32]Program),
		Enabled:  make(map[gpu.Attribute]Binding),
		Uniforms: make(map[int32]any),
		mapped:   make(map[uint32]bool),
		locs:     make(map[string]int32),
	}
}

// Live returns the number of buffers not yet deleted.
func (c *Context) Live() int {
	return len(c.Buffers)
}

// Deleted returns the ids passed to DeleteBuffer, in order.
func (c *Context) Deleted() []uint32 {
	return c.deleted
}

// IsMapped reports whether buffer id is currently mapped.
func (c *Context) IsMapped(id uint32) bool {
	return c.mapped[id]
}

// Uniform returns the last value set for name on program, if any.
func (c *Context) Uniform(program uint32, name string) (any, bool) {
	loc, ok := c.locs[key(program, name)]
	if !ok {
		return nil, false
	}
	v, ok := c.Uniforms[loc]
	return v, ok
}

func (c *Context) GenBuffer() (uint32, error) {
	if c.FailGen > 0 && c.gens >= c.FailGen {
		return 0, fmt.Errorf("%w: out of buffer names", gpu.ErrResource)
	}
	c.gens++
	c.nextID++
	c.Buffers[c.nextID] = nil
	return c.nextID, nil
}

func (c *Context) DeleteBuffer(id uint32) {
	if id == 0 {
		return
	}
	delete(c.Buffers, id)
	delete(c.mapped, id)
	c.deleted = append(c.deleted, id)
}

func (c *Context) BufferData(target gpu.Target, id uint32, size int, data []byte, usage gpu.Usage) error {
	if _, ok := c.Buffers[id]; !ok {
		return fmt.Errorf("%w: no buffer %d", gpu.ErrResource, id)
	}
	if c.FailData > 0 && size >= c.FailData {
		return fmt.Errorf("%w: out of memory", gpu.ErrResource)
	}
	buf := make([]byte, size)
	copy(buf, data)
	c.Buffers[id] = buf
	return nil
}

func (c *Context) BufferSubData(target gpu.Target, id uint32, offset int, data []byte) error {
	buf, ok := c.Buffers[id]
	if !ok {
		return fmt.Errorf("%w: no buffer %d", gpu.ErrResource, id)
	}
	if offset < 0 || offset+len(data) > len(buf) {
		return fmt.Errorf("%w: sub data out of range", gpu.ErrResource)
	}
	copy(buf[offset:], data)
	return nil
}

func (c *Context) MapBuffer(target gpu.Target, id uint32, access gpu.Access) ([]byte, error) {
	buf, ok := c.Buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: no buffer %d", gpu.ErrResource, id)
	}
	if c.FailMap {
		return nil, fmt.Errorf("%w: map failed", gpu.ErrResource)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: buffer %d is empty", gpu.ErrResource, id)
	}
	if c.mapped[id] {
		return nil, fmt.Errorf("%w: buffer %d already mapped", gpu.ErrResource, id)
	}
	c.mapped[id] = true
	return buf, nil
}

func (c *Context) UnmapBuffer(target gpu.Target, id uint32) error {
	if !c.mapped[id] {
		return fmt.Errorf("%w: buffer %d not mapped", gpu.ErrResource, id)
	}
	delete(c.mapped, id)
	if c.FailUnmap {
		return fmt.Errorf("%w: contents lost", gpu.ErrResource)
	}
	return nil
}

func (c *Context) EnableAttrib(attr gpu.Attribute, id uint32, components int32) {
	c.Enabled[attr] = Binding{Buffer: id, Components: components}
}

func (c *Context) DisableAttrib(attr gpu.Attribute) {
	delete(c.Enabled, attr)
}

func (c *Context) DrawElements(mode gpu.Primitive, id uint32, count int32) {
	c.Draws = append(c.Draws, DrawCall{Mode: mode, Indexed: true, Buffer: id, Count: count, Attribs: c.enabled()})
}

func (c *Context) DrawArrays(mode gpu.Primitive, first, count int32) {
	c.Draws = append(c.Draws, DrawCall{Mode: mode, First: first, Count: count, Attribs: c.enabled()})
}

func (c *Context) CreateProgram(vertexSrc, fragmentSrc string, attribs map[gpu.Attribute]string) (uint32, error) {
	if c.FailProgram {
		return 0, fmt.Errorf("%w: link failed", gpu.ErrProgram)
	}
	c.nextID++
	c.Programs[c.nextID] = Program{Vertex: vertexSrc, Fragment: fragmentSrc, Attribs: attribs}
	return c.nextID, nil
}

func (c *Context) DeleteProgram(id uint32) {
	delete(c.Programs, id)
}

func (c *Context) UseProgram(id uint32) {
	c.Current = id
}

func (c *Context) UniformLocation(program uint32, name string) int32 {
	if _, ok := c.Programs[program]; !ok {
		return -1
	}
	k := key(program, name)
	if loc, ok := c.locs[k]; ok {
		return loc
	}
	loc := int32(len(c.locs))
	c.locs[k] = loc
	return loc
}

func (c *Context) UniformMatrix4(loc int32, m mgl32.Mat4) { c.Uniforms[loc] = m }
func (c *Context) UniformVec4(loc int32, v mgl32.Vec4)    { c.Uniforms[loc] = v }
func (c *Context) UniformVec3(loc int32, v mgl32.Vec3)    { c.Uniforms[loc] = v }
func (c *Context) UniformInt(loc int32, v int32)          { c.Uniforms[loc] = v }

func (c *Context) enabled() []gpu.Attribute {
	out := make([]gpu.Attribute, 0, len(c.Enabled))
	for a := range c.Enabled {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func key(program uint32, name string) string {
	return fmt.Sprintf("%d/%s", program, name)
}

var _ gpu.Context = (*Context)(nil)
