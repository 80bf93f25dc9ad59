package main

import (
	"fmt"
	gomath "math"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshkit/internal/config"
	"github.com/Faultbox/meshkit/internal/engine/batch"
	"github.com/Faultbox/meshkit/internal/engine/camera"
	"github.com/Faultbox/meshkit/internal/engine/gpu"
	"github.com/Faultbox/meshkit/internal/engine/shader"
	"github.com/Faultbox/meshkit/internal/logger"
	"github.com/Faultbox/meshkit/pkg/mesh"
	"github.com/Faultbox/meshkit/pkg/obj"
	"github.com/Faultbox/meshkit/pkg/shapes"
)

// ringSegments is the vertex count of the bounding-radius ring.
const ringSegments = 64

// viewShaders are the stock shaders selectable with the number keys. The
// texture shaders are left out since the viewer binds no texture.
var viewShaders = []shader.ID{
	shader.Identity,
	shader.Flat,
	shader.Shaded,
	shader.DefaultLight,
	shader.PointLightDiff,
}

var ringColor = mgl32.Vec4{1, 0.8, 0.2, 1}

// scene is everything meshview draws, independent of the window.
type scene struct {
	ctx     gpu.Context
	log     *zap.Logger
	shaders *shader.Manager
	mesh    *batch.TriangleBatch
	ring    *batch.Batch
	cam     *camera.OrbitCamera

	weld  mesh.WeldOptions
	load  mesh.LoadOptions
	max   int
	color mgl32.Vec4

	shader   shader.ID
	spin     bool
	speed    float32 // Degrees per second
	angle    float32 // Radians
	showRing bool
}

func newScene(ctx gpu.Context, cfg *config.Config) (*scene, error) {
	id, err := shader.ParseID(cfg.Viewer.Shader)
	if err != nil {
		return nil, err
	}
	if !selectable(id) {
		return nil, fmt.Errorf("shader %s needs a texture", id)
	}

	shaders, err := shader.NewManager(ctx)
	if err != nil {
		return nil, err
	}

	s := &scene{
		ctx:      ctx,
		log:      logger.Named("viewer"),
		shaders:  shaders,
		mesh:     batch.NewTriangleBatch(ctx),
		ring:     batch.NewBatch(ctx),
		cam:      camera.NewOrbitCamera(),
		weld:     cfg.WeldOptions(),
		load:     cfg.LoadOptions(),
		max:      cfg.Weld.MaxVerts,
		color:    mgl32.Vec4(cfg.Viewer.Color),
		shader:   id,
		spin:     true,
		speed:    cfg.Viewer.RotateSpeed,
		showRing: true,
	}
	if err := s.buildRing(); err != nil {
		s.destroy()
		return nil, err
	}
	return s, nil
}

func selectable(id shader.ID) bool {
	for _, v := range viewShaders {
		if v == id {
			return true
		}
	}
	return false
}

// buildRing creates the ring batch with every vertex on the unit circle in
// the xy plane; updateRing turns it toward the camera each frame.
func (s *scene) buildRing() error {
	if err := s.ring.Begin(gpu.LineLoop, ringSegments); err != nil {
		return err
	}
	for i := 0; i < ringSegments; i++ {
		sin, cos := gomath.Sincos(2 * gomath.Pi * float64(i) / ringSegments)
		s.ring.Vertex3f(float32(cos), float32(sin), 0)
	}
	return s.ring.End()
}

// loadSource fills the mesh batch from an .obj file, a .mesh file or a
// shape name.
func (s *scene) loadSource(source string) error {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".obj":
		model, err := obj.Load(source)
		if err != nil {
			return err
		}
		stats, err := model.Feed(s.mesh, obj.FeedOptions{Weld: s.weld, MaxVerts: s.max})
		if err != nil {
			return fmt.Errorf("welding %s: %w", source, err)
		}
		s.log.Debug("model welded", zap.Int("triangles", stats.Triangles), zap.Int("welded", stats.Welded))
		if err := s.mesh.End(); err != nil {
			return err
		}
	case ".mesh":
		if err := s.mesh.LoadMeshFile(source, s.load); err != nil {
			return err
		}
	default:
		if err := shapes.Build(s.mesh, source, s.weld); err != nil {
			return err
		}
		if err := s.mesh.End(); err != nil {
			return err
		}
	}

	s.cam.FitRadius(s.mesh.BoundingRadius())
	s.log.Info("mesh loaded",
		zap.String("source", source),
		zap.Int("indices", s.mesh.IndexCount()),
		zap.Int("vertices", s.mesh.VertexCount()),
		zap.Stringer("layout", s.mesh.Layout()),
		zap.Float32("radius", s.mesh.BoundingRadius()),
	)
	return nil
}

// update advances the spin by dt seconds.
func (s *scene) update(dt float32) {
	if !s.spin {
		return
	}
	s.angle = float32(gomath.Mod(float64(s.angle+mgl32.DegToRad(s.speed*dt)), 2*gomath.Pi))
}

// selectShader switches to the n-th selectable shader.
func (s *scene) selectShader(n int) {
	if n < 0 || n >= len(viewShaders) {
		return
	}
	s.shader = viewShaders[n]
	s.log.Debug("shader selected", zap.Stringer("shader", s.shader))
}

// draw renders the mesh and the ring for a viewport of the given aspect.
func (s *scene) draw(aspect float32) error {
	view := s.cam.ViewMatrix()
	proj := s.cam.ProjectionMatrix(aspect)
	model := mgl32.HomogRotate3DY(s.angle)

	if err := s.shaders.Use(s.params(view, proj, model)); err != nil {
		return err
	}
	if err := s.mesh.Draw(); err != nil {
		return err
	}

	if !s.showRing || s.mesh.BoundingRadius() == 0 {
		return nil
	}
	if err := s.updateRing(view); err != nil {
		return err
	}
	if err := s.shaders.Use(shader.FlatParams{MVP: proj.Mul4(view), Color: ringColor}); err != nil {
		return err
	}
	return s.ring.Draw()
}

func (s *scene) params(view, proj, model mgl32.Mat4) shader.Params {
	modelView := view.Mul4(model)
	switch s.shader {
	case shader.Identity:
		return shader.IdentityParams{Color: s.color}
	case shader.Flat:
		return shader.FlatParams{MVP: proj.Mul4(modelView), Color: s.color}
	case shader.Shaded:
		return shader.ShadedParams{MVP: proj.Mul4(modelView)}
	case shader.PointLightDiff:
		r := s.mesh.BoundingRadius()
		return shader.PointLightDiffParams{
			ModelView:  modelView,
			Projection: proj,
			LightPos:   mgl32.Vec3{r * 2, r * 2, 0},
			Color:      s.color,
		}
	default:
		return shader.DefaultLightParams{ModelView: modelView, Projection: proj, Color: s.color}
	}
}

// updateRing places the ring on the bounding sphere's silhouette circle,
// facing the camera.
func (s *scene) updateRing(view mgl32.Mat4) error {
	r := s.mesh.BoundingRadius()
	right := view.Row(0).Vec3().Mul(r)
	up := view.Row(1).Vec3().Mul(r)

	m, err := s.ring.MapForUpdate()
	if err != nil {
		return err
	}
	for i := 0; i < m.Len(); i++ {
		sin, cos := gomath.Sincos(2 * gomath.Pi * float64(i) / float64(m.Len()))
		p := right.Mul(float32(cos)).Add(up.Mul(float32(sin)))
		if err := m.SetVertex(i, mesh.Vec3(p)); err != nil {
			_ = m.Unmap()
			return err
		}
	}
	return m.Unmap()
}

// saveMesh writes the uploaded mesh back out.
func (s *scene) saveMesh(path string) error {
	if err := s.mesh.SaveMeshFile(path); err != nil {
		return err
	}
	s.log.Info("mesh saved", zap.String("path", path))
	return nil
}

func (s *scene) destroy() {
	s.mesh.Destroy()
	s.ring.Destroy()
	s.shaders.Destroy()
}
