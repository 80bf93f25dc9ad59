package mesh

// Builder accepts welded triangles. Welder satisfies it, as does the GPU
// triangle batch, so generators and loaders can feed either.
type Builder interface {
	BeginMesh(maxVerts int) error
	AddTriangle(tri Triangle, opts WeldOptions) (AddResult, error)
}

var _ Builder = (*Welder)(nil)
