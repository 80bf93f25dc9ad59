package shader

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshkit/internal/engine/gpu"
)

// Params is the uniform set of one stock shader. The concrete type selects
// the program.
type Params interface {
	Shader() ID
	apply(ctx gpu.Context, loc map[string]int32)
}

// IdentityParams draws untransformed vertices in a solid color.
type IdentityParams struct {
	Color mgl32.Vec4
}

// FlatParams draws transformed vertices in a solid color. Fully
// transparent fragments are discarded.
type FlatParams struct {
	MVP   mgl32.Mat4
	Color mgl32.Vec4
}

// ShadedParams draws transformed vertices with per-vertex colors from the
// color attribute.
type ShadedParams struct {
	MVP mgl32.Mat4
}

// DefaultLightParams lights with a directional light along the eye's view
// axis.
type DefaultLightParams struct {
	ModelView  mgl32.Mat4
	Projection mgl32.Mat4
	Color      mgl32.Vec4
}

// PointLightDiffParams lights diffusely from a point light given in eye
// coordinates.
type PointLightDiffParams struct {
	ModelView  mgl32.Mat4
	Projection mgl32.Mat4
	LightPos   mgl32.Vec3
	Color      mgl32.Vec4
}

// TextureReplaceParams draws the texture bound to TextureUnit.
type TextureReplaceParams struct {
	MVP         mgl32.Mat4
	TextureUnit int32
}

// TextureModulateParams multiplies the texture by Color.
type TextureModulateParams struct {
	MVP         mgl32.Mat4
	Color       mgl32.Vec4
	TextureUnit int32
}

// TexturePointLightDiffParams combines PointLightDiff with a modulated
// texture.
type TexturePointLightDiffParams struct {
	ModelView   mgl32.Mat4
	Projection  mgl32.Mat4
	LightPos    mgl32.Vec3
	Color       mgl32.Vec4
	TextureUnit int32
}

func (IdentityParams) Shader() ID              { return Identity }
func (FlatParams) Shader() ID                  { return Flat }
func (ShadedParams) Shader() ID                { return Shaded }
func (DefaultLightParams) Shader() ID          { return DefaultLight }
func (PointLightDiffParams) Shader() ID        { return PointLightDiff }
func (TextureReplaceParams) Shader() ID        { return TextureReplace }
func (TextureModulateParams) Shader() ID       { return TextureModulate }
func (TexturePointLightDiffParams) Shader() ID { return TexturePointLightDiff }

func (p IdentityParams) apply(ctx gpu.Context, loc map[string]int32) {
	ctx.UniformVec4(loc["vColor"], p.Color)
}

func (p FlatParams) apply(ctx gpu.Context, loc map[string]int32) {
	ctx.UniformMatrix4(loc["mvpMatrix"], p.MVP)
	ctx.UniformVec4(loc["vColor"], p.Color)
}

func (p ShadedParams) apply(ctx gpu.Context, loc map[string]int32) {
	ctx.UniformMatrix4(loc["mvpMatrix"], p.MVP)
}

func (p DefaultLightParams) apply(ctx gpu.Context, loc map[string]int32) {
	ctx.UniformMatrix4(loc["mvMatrix"], p.ModelView)
	ctx.UniformMatrix4(loc["pMatrix"], p.Projection)
	ctx.UniformVec4(loc["vColor"], p.Color)
}

func (p PointLightDiffParams) apply(ctx gpu.Context, loc map[string]int32) {
	ctx.UniformMatrix4(loc["mvMatrix"], p.ModelView)
	ctx.UniformMatrix4(loc["pMatrix"], p.Projection)
	ctx.UniformVec3(loc["vLightPos"], p.LightPos)
	ctx.UniformVec4(loc["vColor"], p.Color)
}

func (p TextureReplaceParams) apply(ctx gpu.Context, loc map[string]int32) {
	ctx.UniformMatrix4(loc["mvpMatrix"], p.MVP)
	ctx.UniformInt(loc["textureUnit0"], p.TextureUnit)
}

func (p TextureModulateParams) apply(ctx gpu.Context, loc map[string]int32) {
	ctx.UniformMatrix4(loc["mvpMatrix"], p.MVP)
	ctx.UniformVec4(loc["vColor"], p.Color)
	ctx.UniformInt(loc["textureUnit0"], p.TextureUnit)
}

func (p TexturePointLightDiffParams) apply(ctx gpu.Context, loc map[string]int32) {
	ctx.UniformMatrix4(loc["mvMatrix"], p.ModelView)
	ctx.UniformMatrix4(loc["pMatrix"], p.Projection)
	ctx.UniformVec3(loc["vLightPos"], p.LightPos)
	ctx.UniformVec4(loc["vColor"], p.Color)
	ctx.UniformInt(loc["textureUnit0"], p.TextureUnit)
}

// Default returns zero-ish parameters for id with identity matrices, white
// color and texture unit 0, for callers that pick a shader by name.
func Default(id ID) (Params, error) {
	white := mgl32.Vec4{1, 1, 1, 1}
	ident := mgl32.Ident4()
	switch id {
	case Identity:
		return IdentityParams{Color: white}, nil
	case Flat:
		return FlatParams{MVP: ident, Color: white}, nil
	case Shaded:
		return ShadedParams{MVP: ident}, nil
	case DefaultLight:
		return DefaultLightParams{ModelView: ident, Projection: ident, Color: white}, nil
	case PointLightDiff:
		return PointLightDiffParams{ModelView: ident, Projection: ident, Color: white}, nil
	case TextureReplace:
		return TextureReplaceParams{MVP: ident}, nil
	case TextureModulate:
		return TextureModulateParams{MVP: ident, Color: white}, nil
	case TexturePointLightDiff:
		return TexturePointLightDiffParams{ModelView: ident, Projection: ident, Color: white}, nil
	default:
		return nil, ErrUnknownShader
	}
}
