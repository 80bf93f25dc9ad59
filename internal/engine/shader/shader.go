// Package shader provides the stock shader programs meshes are drawn with.
//
// Each stock shader has a parameter struct holding exactly the uniforms it
// reads; Manager.Use selects the program from the struct type.
package shader

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshkit/internal/engine/gpu"
	"github.com/Faultbox/meshkit/internal/logger"
)

//go:embed glsl/*.vert glsl/*.frag
var sources embed.FS

// ErrUnknownShader reports a shader name or ID with no stock program.
var ErrUnknownShader = errors.New("unknown stock shader")

// ID names a stock shader.
type ID int

// Stock shaders.
const (
	Identity ID = iota
	Flat
	Shaded
	DefaultLight
	PointLightDiff
	TextureReplace
	TextureModulate
	TexturePointLightDiff
	numStock
)

var names = [numStock]string{
	Identity:              "identity",
	Flat:                  "flat",
	Shaded:                "shaded",
	DefaultLight:          "default_light",
	PointLightDiff:        "point_light_diff",
	TextureReplace:        "texture_replace",
	TextureModulate:       "texture_modulate",
	TexturePointLightDiff: "texture_point_light_diff",
}

// String returns the shader name as used in configuration.
func (id ID) String() string {
	if id < 0 || id >= numStock {
		return fmt.Sprintf("ID(%d)", int(id))
	}
	return names[id]
}

// ParseID looks a shader up by name.
func ParseID(name string) (ID, error) {
	for id, n := range names {
		if strings.EqualFold(n, name) {
			return ID(id), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShader, name)
}

// stock describes how to build one program.
type stock struct {
	vert, frag string
	attribs    map[gpu.Attribute]string
	uniforms   []string
}

var (
	vertexOnly  = map[gpu.Attribute]string{gpu.AttribVertex: "vVertex"}
	withColor   = map[gpu.Attribute]string{gpu.AttribVertex: "vVertex", gpu.AttribColor: "vColor"}
	withNormal  = map[gpu.Attribute]string{gpu.AttribVertex: "vVertex", gpu.AttribNormal: "vNormal"}
	withTexture = map[gpu.Attribute]string{gpu.AttribVertex: "vVertex", gpu.AttribTexture0: "vTexCoord0"}
	withBoth    = map[gpu.Attribute]string{gpu.AttribVertex: "vVertex", gpu.AttribNormal: "vNormal", gpu.AttribTexture0: "vTexCoord0"}
)

var stocks = [numStock]stock{
	Identity:              {"identity.vert", "identity.frag", vertexOnly, []string{"vColor"}},
	Flat:                  {"flat.vert", "flat.frag", vertexOnly, []string{"mvpMatrix", "vColor"}},
	Shaded:                {"shaded.vert", "shaded.frag", withColor, []string{"mvpMatrix"}},
	DefaultLight:          {"default_light.vert", "passthrough.frag", withNormal, []string{"mvMatrix", "pMatrix", "vColor"}},
	PointLightDiff:        {"point_light_diff.vert", "passthrough.frag", withNormal, []string{"mvMatrix", "pMatrix", "vLightPos", "vColor"}},
	TextureReplace:        {"texture.vert", "texture_replace.frag", withTexture, []string{"mvpMatrix", "textureUnit0"}},
	TextureModulate:       {"texture.vert", "texture_modulate.frag", withTexture, []string{"mvpMatrix", "vColor", "textureUnit0"}},
	TexturePointLightDiff: {"texture_point_light_diff.vert", "texture_point_light_diff.frag", withBoth, []string{"mvMatrix", "pMatrix", "vLightPos", "vColor", "textureUnit0"}},
}

// Source returns the GLSL sources of a stock shader.
func Source(id ID) (vertex, fragment string, err error) {
	if id < 0 || id >= numStock {
		return "", "", fmt.Errorf("%w: %v", ErrUnknownShader, id)
	}
	s := stocks[id]
	v, err := sources.ReadFile("glsl/" + s.vert)
	if err != nil {
		return "", "", err
	}
	f, err := sources.ReadFile("glsl/" + s.frag)
	if err != nil {
		return "", "", err
	}
	return string(v), string(f), nil
}

type program struct {
	id       uint32
	uniforms map[string]int32
}

// Manager owns the compiled stock programs of one gpu.Context.
type Manager struct {
	ctx      gpu.Context
	log      *zap.Logger
	programs [numStock]program
	current  ID
}

// NewManager compiles every stock shader. On failure nothing is left
// allocated.
func NewManager(ctx gpu.Context) (*Manager, error) {
	m := &Manager{ctx: ctx, log: logger.Named("shader"), current: -1}
	for id := ID(0); id < numStock; id++ {
		vs, fs, err := Source(id)
		if err != nil {
			m.Destroy()
			return nil, err
		}
		pid, err := ctx.CreateProgram(vs, fs, stocks[id].attribs)
		if err != nil {
			m.Destroy()
			return nil, fmt.Errorf("compiling %s: %w", id, err)
		}

		p := program{id: pid, uniforms: make(map[string]int32, len(stocks[id].uniforms))}
		for _, name := range stocks[id].uniforms {
			loc := ctx.UniformLocation(pid, name)
			if loc < 0 {
				m.log.Debug("uniform inactive", zap.Stringer("shader", id), zap.String("uniform", name))
			}
			p.uniforms[name] = loc
		}
		m.programs[id] = p
	}
	m.log.Info("stock shaders ready", zap.Int("count", int(numStock)))
	return m, nil
}

// Program returns the GL program of a stock shader, or 0.
func (m *Manager) Program(id ID) uint32 {
	if id < 0 || id >= numStock {
		return 0
	}
	return m.programs[id].id
}

// Current returns the shader last selected by Use, or -1.
func (m *Manager) Current() ID {
	return m.current
}

// Use makes the program for p current and uploads its uniforms.
func (m *Manager) Use(p Params) error {
	id := p.Shader()
	if id < 0 || id >= numStock || m.programs[id].id == 0 {
		return fmt.Errorf("%w: %v", ErrUnknownShader, id)
	}
	prog := m.programs[id]
	m.ctx.UseProgram(prog.id)
	m.current = id
	p.apply(m.ctx, prog.uniforms)
	return nil
}

// Destroy deletes every compiled program.
func (m *Manager) Destroy() {
	for i := range m.programs {
		if m.programs[i].id != 0 {
			m.ctx.DeleteProgram(m.programs[i].id)
		}
		m.programs[i] = program{}
	}
	m.current = -1
}
