package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFitRadius(t *testing.T) {
	c := NewOrbitCamera()
	c.FitRadius(10)

	if c.Distance <= 10 {
		t.Errorf("expected camera outside the sphere, got distance %v", c.Distance)
	}
	if c.Near <= 0 || c.Far <= c.Distance+10 {
		t.Errorf("clip planes %v..%v do not enclose the sphere", c.Near, c.Far)
	}

	dist := c.Position().Sub(c.Center).Len()
	if !mgl32.FloatEqualThreshold(dist, c.Distance, 1e-3) {
		t.Errorf("expected position at distance %v, got %v", c.Distance, dist)
	}
}

func TestHandleZoomClamps(t *testing.T) {
	c := NewOrbitCamera()
	c.FitRadius(1)

	for i := 0; i < 100; i++ {
		c.HandleZoom(1)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("expected distance clamped to %v, got %v", c.MinDistance, c.Distance)
	}
	for i := 0; i < 100; i++ {
		c.HandleZoom(-1)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("expected distance clamped to %v, got %v", c.MaxDistance, c.Distance)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 10000)
	if c.RotationX != c.MaxPitch {
		t.Errorf("expected pitch %v, got %v", c.MaxPitch, c.RotationX)
	}
	c.HandleDrag(0, -20000)
	if c.RotationX != c.MinPitch {
		t.Errorf("expected pitch %v, got %v", c.MinPitch, c.RotationX)
	}
}

func TestViewMatrixLooksAtCenter(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = mgl32.Vec3{1, 2, 3}

	// The center lands on the view axis, straight ahead of the eye.
	p := c.ViewMatrix().Mul4x1(c.Center.Vec4(1))
	if !mgl32.FloatEqualThreshold(p.X(), 0, 1e-4) || !mgl32.FloatEqualThreshold(p.Y(), 0, 1e-4) {
		t.Errorf("expected center on the view axis, got %v", p)
	}
	if p.Z() >= 0 {
		t.Errorf("expected center in front of the camera, got z=%v", p.Z())
	}
}
