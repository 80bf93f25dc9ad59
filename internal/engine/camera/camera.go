// Package camera provides the orbit camera used by the mesh viewer.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance  float32
	RotationX float32 // Pitch (radians)
	RotationY float32 // Yaw (radians)

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32

	// Projection
	FovY float32 // Degrees
	Near float32
	Far  float32
}

// NewOrbitCamera creates an orbit camera framing a unit sphere.
func NewOrbitCamera() *OrbitCamera {
	c := &OrbitCamera{
		RotationX:       0.4,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FovY:            45,
	}
	c.FitRadius(1)
	return c
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cx := float32(gomath.Cos(float64(c.RotationX)))
	offset := mgl32.Vec3{
		c.Distance * cx * float32(gomath.Sin(float64(c.RotationY))),
		c.Distance * float32(gomath.Sin(float64(c.RotationX))),
		c.Distance * cx * float32(gomath.Cos(float64(c.RotationY))),
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns a perspective projection for the given aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX = mgl32.Clamp(c.RotationX+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = mgl32.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// FitRadius frames a sphere of the given radius around the center and
// derives the zoom limits and clip planes from it.
func (c *OrbitCamera) FitRadius(radius float32) {
	if radius <= 0 {
		radius = 1
	}
	halfFov := float64(mgl32.DegToRad(c.FovY)) / 2
	if halfFov <= 0 {
		halfFov = gomath.Pi / 8
	}
	c.Distance = radius / float32(gomath.Sin(halfFov)) * 1.1
	c.MinDistance = radius * 0.5
	c.MaxDistance = c.Distance * 10
	c.Near = radius * 0.01
	c.Far = c.MaxDistance + radius*2
}
