package obj

import (
	"github.com/Faultbox/meshkit/pkg/mesh"
)

// Triangles returns the number of triangles the model fans out to.
func (m *Model) Triangles() int {
	n := 0
	for _, g := range m.Groups {
		for _, f := range g.Faces {
			n += len(f) - 2
		}
	}
	return n
}

// Layout returns the attributes every face corner carries. A model where
// any corner lacks a normal is fed without normals; the same holds for
// texture coordinates.
func (m *Model) Layout() mesh.Layout {
	l := mesh.Layout{Normals: len(m.Normals) > 0, TexCoords: len(m.TexCoords) > 0}
	for _, g := range m.Groups {
		for _, f := range g.Faces {
			for _, c := range f {
				if c.N < 0 {
					l.Normals = false
				}
				if c.T < 0 {
					l.TexCoords = false
				}
			}
		}
	}
	return l
}

// FeedOptions controls Feed.
type FeedOptions struct {
	Weld mesh.WeldOptions
	// MaxVerts caps the index capacity passed to BeginMesh. Zero sizes the
	// mesh to the whole model; smaller values drop the trailing triangles.
	MaxVerts int
	// Progress, when set, is called after each triangle with the number
	// added so far and the total.
	Progress func(done, total int)
}

// FeedStats sums the weld results of a Feed.
type FeedStats struct {
	Triangles int
	Welded    int
	Added     int
	Dropped   int
}

// Feed starts a mesh on b sized for the whole model and adds every face,
// fan-triangulated, in file order.
func (m *Model) Feed(b mesh.Builder, opts FeedOptions) (FeedStats, error) {
	total := m.Triangles()
	capacity := total * 3
	if opts.MaxVerts > 0 && opts.MaxVerts < capacity {
		capacity = opts.MaxVerts
	}
	if err := b.BeginMesh(capacity); err != nil {
		return FeedStats{}, err
	}

	layout := m.Layout()
	var stats FeedStats
	var normals [3]mesh.Vec3
	var uvs [3]mesh.Vec2

	for _, g := range m.Groups {
		for _, f := range g.Faces {
			for k := 1; k+1 < len(f); k++ {
				corners := [3]Corner{f[0], f[k], f[k+1]}
				tri := mesh.Triangle{}
				for i, c := range corners {
					tri.Positions[i] = m.Positions[c.V]
					if layout.Normals {
						normals[i] = m.Normals[c.N]
					}
					if layout.TexCoords {
						uvs[i] = m.TexCoords[c.T]
					}
				}
				if layout.Normals {
					n := normals
					tri.Normals = &n
				}
				if layout.TexCoords {
					t := uvs
					tri.TexCoords = &t
				}

				res, err := b.AddTriangle(tri, opts.Weld)
				if err != nil {
					return stats, err
				}
				stats.Triangles++
				stats.Welded += res.Welded
				stats.Added += res.Added
				if res.Dropped {
					stats.Dropped++
				}
				if opts.Progress != nil {
					opts.Progress(stats.Triangles, total)
				}
			}
		}
	}
	return stats, nil
}
