package mesh

import "fmt"

// DefaultEpsilon is the weld tolerance used when WeldOptions.Epsilon is not positive.
const DefaultEpsilon float32 = 0.00001

// WeldOptions controls how AddTriangle matches vertices.
type WeldOptions struct {
	// Epsilon is the per-component absolute tolerance. Values <= 0 select DefaultEpsilon.
	Epsilon float32
	// SearchLimit caps how many unique vertices are scanned, starting at
	// index 0. Values <= 0 scan the whole list.
	SearchLimit int
}

// DefaultWeldOptions returns the default tolerance with an unbounded search.
func DefaultWeldOptions() WeldOptions {
	return WeldOptions{Epsilon: DefaultEpsilon}
}

func (o WeldOptions) withDefaults() WeldOptions {
	if o.Epsilon <= 0 {
		o.Epsilon = DefaultEpsilon
	}
	return o
}

// AddResult describes what happened to one triangle.
type AddResult struct {
	Welded  int  // corners that reused an existing vertex
	Added   int  // corners that created a new vertex
	Dropped bool // triangle discarded because the mesh is full
}

// Welder accumulates triangles into a deduplicated vertex list and an index
// list. The zero value is ready for BeginMesh.
//
// A Welder is not safe for concurrent use.
type Welder struct {
	indices   []uint16
	positions []Vec3
	normals   []Vec3
	texCoords []Vec2

	maxIndexes int
	layout     Layout
	layoutSet  bool
	building   bool
	dropped    int
}

// NewWelder returns a Welder with staging sized for maxVerts indices.
func NewWelder(maxVerts int) (*Welder, error) {
	w := &Welder{}
	if err := w.BeginMesh(maxVerts); err != nil {
		return nil, err
	}
	return w, nil
}

// BeginMesh allocates staging for up to maxVerts indices. The number of
// unique vertices can only be smaller. Calling it again discards anything
// staged so far.
func (w *Welder) BeginMesh(maxVerts int) error {
	if maxVerts < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, maxVerts)
	}

	vertCap := min(maxVerts, MaxVertices)
	w.indices = make([]uint16, 0, maxVerts)
	w.positions = make([]Vec3, 0, vertCap)
	w.normals = make([]Vec3, 0, vertCap)
	w.texCoords = make([]Vec2, 0, vertCap)

	w.maxIndexes = maxVerts
	w.layout = Layout{}
	w.layoutSet = false
	w.building = true
	w.dropped = 0
	return nil
}

// Building reports whether staging is allocated.
func (w *Welder) Building() bool {
	return w.building
}

// IndexCount returns the number of indices staged so far.
func (w *Welder) IndexCount() int {
	return len(w.indices)
}

// VertexCount returns the number of unique vertices staged so far.
func (w *Welder) VertexCount() int {
	return len(w.positions)
}

// MaxIndexes returns the capacity requested in BeginMesh.
func (w *Welder) MaxIndexes() int {
	return w.maxIndexes
}

// Layout returns the attribute layout fixed by the first triangle.
// Before any triangle is added it reports no optional attributes.
func (w *Welder) Layout() Layout {
	return w.layout
}

// Truncated reports whether any triangle was dropped for lack of capacity.
func (w *Welder) Truncated() bool {
	return w.dropped > 0
}

// DroppedTriangles returns how many triangles were dropped for lack of capacity.
func (w *Welder) DroppedTriangles() int {
	return w.dropped
}

// AddTriangle welds the three corners of tri into the mesh.
//
// The first triangle fixes the mesh layout: if it has no normals (or no
// texture coordinates) the mesh never has them. A later triangle with a
// different layout is rejected with ErrAttributeMismatch and nothing is
// staged.
//
// Normals are normalized before comparison. Each corner reuses the first
// existing vertex whose position, normal and texture coordinate all lie
// within opts.Epsilon per component; otherwise a new vertex is appended.
//
// Triangles are all-or-nothing: when the index or vertex capacity cannot hold
// the whole triangle it is dropped, Dropped is set in the result and the
// error is nil. Later triangles are still accepted (and dropped if they do
// not fit).
func (w *Welder) AddTriangle(tri Triangle, opts WeldOptions) (AddResult, error) {
	var res AddResult
	if !w.building {
		return res, ErrNotBuilding
	}

	in := Layout{Normals: tri.Normals != nil, TexCoords: tri.TexCoords != nil}
	if !w.layoutSet {
		w.layout = in
		w.layoutSet = true
		if !in.Normals {
			w.normals = nil
		}
		if !in.TexCoords {
			w.texCoords = nil
		}
	} else if in != w.layout {
		return res, fmt.Errorf("%w: mesh has %s, triangle has %s", ErrAttributeMismatch, w.layout, in)
	}
	opts = opts.withDefaults()

	var normals [3]Vec3
	if in.Normals {
		for i, n := range tri.Normals {
			normals[i] = n.Normalize()
		}
	}
	var texCoords [3]Vec2
	if in.TexCoords {
		texCoords = *tri.TexCoords
	}

	if len(w.indices)+3 > w.maxIndexes {
		w.dropped++
		return AddResult{Dropped: true}, nil
	}

	mark := len(w.positions)
	vertCap := min(w.maxIndexes, MaxVertices)
	var corners [3]uint16
	for i := range corners {
		if idx, ok := w.find(tri.Positions[i], normals[i], texCoords[i], opts); ok {
			corners[i] = idx
			res.Welded++
			continue
		}
		if len(w.positions) >= vertCap {
			w.truncate(mark)
			w.dropped++
			return AddResult{Dropped: true}, nil
		}
		corners[i] = w.appendVertex(tri.Positions[i], normals[i], texCoords[i])
		res.Added++
	}

	w.indices = append(w.indices, corners[:]...)
	return res, nil
}

// find returns the first staged vertex within the search window that matches
// the given attributes.
func (w *Welder) find(p, n Vec3, t Vec2, opts WeldOptions) (uint16, bool) {
	limit := len(w.positions)
	if opts.SearchLimit > 0 && opts.SearchLimit < limit {
		limit = opts.SearchLimit
	}
	eps := opts.Epsilon

	switch {
	case w.layout.Normals && w.layout.TexCoords:
		for i := 0; i < limit; i++ {
			if closeVec3(w.positions[i], p, eps) && closeVec3(w.normals[i], n, eps) && closeVec2(w.texCoords[i], t, eps) {
				return uint16(i), true
			}
		}
	case w.layout.Normals:
		for i := 0; i < limit; i++ {
			if closeVec3(w.positions[i], p, eps) && closeVec3(w.normals[i], n, eps) {
				return uint16(i), true
			}
		}
	case w.layout.TexCoords:
		for i := 0; i < limit; i++ {
			if closeVec3(w.positions[i], p, eps) && closeVec2(w.texCoords[i], t, eps) {
				return uint16(i), true
			}
		}
	default:
		for i := 0; i < limit; i++ {
			if closeVec3(w.positions[i], p, eps) {
				return uint16(i), true
			}
		}
	}
	return 0, false
}

func (w *Welder) appendVertex(p, n Vec3, t Vec2) uint16 {
	w.positions = append(w.positions, p)
	if w.layout.Normals {
		w.normals = append(w.normals, n)
	}
	if w.layout.TexCoords {
		w.texCoords = append(w.texCoords, t)
	}
	return uint16(len(w.positions) - 1)
}

// truncate drops vertices appended after mark.
func (w *Welder) truncate(mark int) {
	w.positions = w.positions[:mark]
	if w.normals != nil {
		w.normals = w.normals[:mark]
	}
	if w.texCoords != nil {
		w.texCoords = w.texCoords[:mark]
	}
}

// Indices returns the staged index list. The slice aliases staging memory
// and is only valid until the next AddTriangle, BeginMesh or Finalize.
func (w *Welder) Indices() []uint16 {
	return w.indices
}

// Positions returns the staged unique positions, aliasing staging memory.
func (w *Welder) Positions() []Vec3 {
	return w.positions
}

// Data copies the staged mesh out without ending the build. The radius is
// computed over the unique vertices.
func (w *Welder) Data() (*Data, error) {
	if !w.building {
		return nil, ErrNotBuilding
	}

	d := &Data{
		Indices:   clone(w.indices),
		Positions: clone(w.positions),
	}
	if w.layoutSet && w.layout.Normals {
		d.Normals = clone(w.normals)
	}
	if w.layoutSet && w.layout.TexCoords {
		d.TexCoords = clone(w.texCoords)
	}
	d.Radius = BoundingRadius(d.Positions)
	return d, nil
}

// Finalize returns the compacted mesh and releases staging. The Welder must
// be restarted with BeginMesh before it can be used again.
//
// A mesh that never received a triangle has no optional attributes.
func (w *Welder) Finalize() (*Data, error) {
	d, err := w.Data()
	if err != nil {
		return nil, err
	}
	w.Release()
	return d, nil
}

// Release frees staging without producing a mesh. It is safe to call on a
// Welder that was never started.
func (w *Welder) Release() {
	w.indices = nil
	w.positions = nil
	w.normals = nil
	w.texCoords = nil
	w.building = false
}

func closeEnough(candidate, compare, epsilon float32) bool {
	return candidate < compare+epsilon && candidate > compare-epsilon
}

func closeVec3(a, b Vec3, eps float32) bool {
	return closeEnough(a[0], b[0], eps) && closeEnough(a[1], b[1], eps) && closeEnough(a[2], b[2], eps)
}

func closeVec2(a, b Vec2, eps float32) bool {
	return closeEnough(a[0], b[0], eps) && closeEnough(a[1], b[1], eps)
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
