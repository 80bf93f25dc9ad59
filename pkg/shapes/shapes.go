// Package shapes generates common solids as welded triangle meshes.
//
// Each generator calls BeginMesh with an upper bound on its index count and
// then adds triangles with normals and texture coordinates. Finishing the
// mesh (End or Finalize) is left to the caller. The weld options passed to a
// generator are handed to every AddTriangle call it makes.
package shapes

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshkit/pkg/mesh"
)

// ErrInvalidShape reports non-positive tessellation or size arguments.
var ErrInvalidShape = errors.New("invalid shape parameters")

// cell holds the four corners of one tessellation cell, ordered so that
// (0,1,2) and (1,3,2) are the two triangles covering it.
type cell struct {
	p [4]mesh.Vec3
	n [4]mesh.Vec3
	t [4]mesh.Vec2
}

func (c *cell) set(i int, p, n mesh.Vec3, t mesh.Vec2) {
	c.p[i], c.n[i], c.t[i] = p, n, t
}

func (c *cell) emit(b mesh.Builder, opts mesh.WeldOptions) error {
	first := mesh.Triangle{
		Positions: [3]mesh.Vec3{c.p[0], c.p[1], c.p[2]},
		Normals:   &[3]mesh.Vec3{c.n[0], c.n[1], c.n[2]},
		TexCoords: &[3]mesh.Vec2{c.t[0], c.t[1], c.t[2]},
	}
	if _, err := b.AddTriangle(first, opts); err != nil {
		return err
	}
	second := mesh.Triangle{
		Positions: [3]mesh.Vec3{c.p[1], c.p[3], c.p[2]},
		Normals:   &[3]mesh.Vec3{c.n[1], c.n[3], c.n[2]},
		TexCoords: &[3]mesh.Vec2{c.t[1], c.t[3], c.t[2]},
	}
	_, err := b.AddTriangle(second, opts)
	return err
}

func sincos(a float64) (float32, float32) {
	s, c := math.Sincos(a)
	return float32(s), float32(c)
}

// Sphere generates a UV sphere centered at the origin. Poles lie on the z
// axis; texture t runs from 1 at the north pole to 0 at the south pole.
func Sphere(b mesh.Builder, opts mesh.WeldOptions, radius float32, slices, stacks int) error {
	if radius <= 0 || slices < 1 || stacks < 1 {
		return fmt.Errorf("%w: sphere radius=%v slices=%d stacks=%d", ErrInvalidShape, radius, slices, stacks)
	}
	if err := b.BeginMesh(slices * stacks * 6); err != nil {
		return err
	}

	drho := math.Pi / float64(stacks)
	dtheta := 2 * math.Pi / float64(slices)
	ds := 1 / float32(slices)
	dt := 1 / float32(stacks)

	point := func(theta, rho float64) mesh.Vec3 {
		st, ct := sincos(theta)
		sr, cr := sincos(rho)
		return mesh.Vec3{-st * sr, ct * sr, cr}
	}

	t := float32(1)
	var c cell
	for i := 0; i < stacks; i++ {
		rho := float64(i) * drho
		s := float32(0)
		for j := 0; j < slices; j++ {
			theta := float64(j) * dtheta
			thetaNext := float64(j+1) * dtheta
			if j+1 == slices {
				thetaNext = 0
			}

			corners := [4]mesh.Vec3{
				point(theta, rho),
				point(theta, rho+drho),
				point(thetaNext, rho),
				point(thetaNext, rho+drho),
			}
			uv := [4]mesh.Vec2{{s, t}, {s, t - dt}, {s + ds, t}, {s + ds, t - dt}}
			for k, n := range corners {
				c.set(k, scale(n, radius), n, uv[k])
			}
			if err := c.emit(b, opts); err != nil {
				return err
			}
			s += ds
		}
		t -= dt
	}
	return nil
}

// Torus generates a torus around the z axis.
func Torus(b mesh.Builder, opts mesh.WeldOptions, majorRadius, minorRadius float32, numMajor, numMinor int) error {
	if majorRadius <= 0 || minorRadius <= 0 || numMajor < 1 || numMinor < 1 {
		return fmt.Errorf("%w: torus radii=%v/%v segments=%d/%d", ErrInvalidShape, majorRadius, minorRadius, numMajor, numMinor)
	}
	if err := b.BeginMesh(numMajor * (numMinor + 1) * 6); err != nil {
		return err
	}

	majorStep := 2 * math.Pi / float64(numMajor)
	minorStep := 2 * math.Pi / float64(numMinor)

	var c cell
	for i := 0; i < numMajor; i++ {
		y0, x0 := sincos(float64(i) * majorStep)
		y1, x1 := sincos(float64(i+1) * majorStep)

		for j := 0; j <= numMinor; j++ {
			for k := 0; k < 4; k++ {
				ring, x, y := i, x0, y0
				if k%2 == 1 {
					ring, x, y = i+1, x1, y1
				}
				seg := j + k/2
				sb, cb := sincos(float64(seg) * minorStep)
				r := minorRadius*cb + majorRadius
				z := minorRadius * sb

				n := mesh.Vec3(mgl32.Vec3{x * cb, y * cb, sb}.Normalize())
				uv := mesh.Vec2{float32(ring) / float32(numMajor), float32(seg) / float32(numMinor)}
				c.set(k, mesh.Vec3{x * r, y * r, z}, n, uv)
			}
			if err := c.emit(b, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

// Disk generates a flat annulus in the xy plane facing +z. degrees sweeps
// the arc; 360 closes it.
func Disk(b mesh.Builder, opts mesh.WeldOptions, innerRadius, outerRadius float32, slices, stacks int, degrees float32) error {
	if outerRadius <= 0 || slices < 1 || stacks < 1 || degrees <= 0 {
		return fmt.Errorf("%w: disk outer=%v slices=%d stacks=%d degrees=%v", ErrInvalidShape, outerRadius, slices, stacks, degrees)
	}
	if err := b.BeginMesh(slices * stacks * 6); err != nil {
		return err
	}

	step := outerRadius - innerRadius
	if step < 0 {
		step = -step
	}
	step /= float32(stacks)
	sliceStep := float64(mgl32.DegToRad(degrees)) / float64(slices)
	texScale := 1 / outerRadius
	up := mesh.Vec3{0, 0, 1}

	var c cell
	for i := 0; i < stacks; i++ {
		inner := innerRadius + float32(i)*step
		outer := innerRadius + float32(i+1)*step
		for j := 0; j < slices; j++ {
			theta := float64(j) * sliceStep
			thetaNext := float64(j+1) * sliceStep
			if j == slices-1 && degrees == 360 {
				thetaNext = 0
			}
			st, ct := sincos(theta)
			sn, cn := sincos(thetaNext)

			corners := [4]mesh.Vec3{
				{ct * inner, st * inner, 0},
				{ct * outer, st * outer, 0},
				{cn * inner, sn * inner, 0},
				{cn * outer, sn * outer, 0},
			}
			for k, p := range corners {
				uv := mesh.Vec2{(p[0]*texScale + 1) * 0.5, (p[1]*texScale + 1) * 0.5}
				c.set(k, p, up, uv)
			}
			if err := c.emit(b, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cylinder generates an open tube along +z from baseRadius at z=0 to
// topRadius at z=length. A zero topRadius makes a cone.
func Cylinder(b mesh.Builder, opts mesh.WeldOptions, baseRadius, topRadius, length float32, slices, stacks int, degrees float32) error {
	if slices < 1 || stacks < 1 || degrees <= 0 || (baseRadius <= 0 && topRadius <= 0) {
		return fmt.Errorf("%w: cylinder radii=%v/%v slices=%d stacks=%d", ErrInvalidShape, baseRadius, topRadius, slices, stacks)
	}
	if err := b.BeginMesh(slices * stacks * 6); err != nil {
		return err
	}

	radiusStep := (topRadius - baseRadius) / float32(stacks)
	sliceStep := float64(mgl32.DegToRad(degrees)) / float64(slices)
	ds := 1 / float32(slices)
	dt := 1 / float32(stacks)

	// Rise over run gives the slant of the side normals.
	var zNormal float32
	if d := baseRadius - topRadius; d > 0.00001 || d < -0.00001 {
		zNormal = d
	}
	side := func(p mesh.Vec3) mesh.Vec3 {
		return mesh.Vec3(mgl32.Vec3{p[0], p[1], zNormal}.Normalize())
	}

	var c cell
	for i := 0; i < stacks; i++ {
		t, tNext := float32(i)*dt, float32(i+1)*dt
		if i == stacks-1 {
			tNext = 1
		}
		radius := baseRadius + radiusStep*float32(i)
		radiusNext := baseRadius + radiusStep*float32(i+1)
		z := float32(i) * (length / float32(stacks))
		zNext := float32(i+1) * (length / float32(stacks))
		apex := radiusNext < 0.00001 && radiusNext > -0.00001

		for j := 0; j < slices; j++ {
			s, sNext := float32(j)*ds, float32(j+1)*ds
			if j == slices-1 {
				sNext = 1
			}
			theta := float64(j) * sliceStep
			thetaNext := float64(j+1) * sliceStep
			if j == slices-1 && degrees == 360 {
				thetaNext = 0
			}
			st, ct := sincos(theta)
			sn, cn := sincos(thetaNext)

			lower := mesh.Vec3{ct * radius, st * radius, z}
			lowerNext := mesh.Vec3{cn * radius, sn * radius, z}
			upper := mesh.Vec3{ct * radiusNext, st * radiusNext, zNext}
			upperNext := mesh.Vec3{cn * radiusNext, sn * radiusNext, zNext}

			// At a cone tip the upper normals borrow the lower ones.
			nUpper, nUpperNext := side(upper), side(upperNext)
			if apex {
				nUpper, nUpperNext = side(lower), side(lowerNext)
			}

			c.set(0, upper, nUpper, mesh.Vec2{s, tNext})
			c.set(1, lower, side(lower), mesh.Vec2{s, t})
			c.set(2, upperNext, nUpperNext, mesh.Vec2{sNext, tNext})
			c.set(3, lowerNext, side(lowerNext), mesh.Vec2{sNext, t})
			if err := c.emit(b, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cube generates an axis-aligned cube centered at the origin with faces at
// distance radius. Each face carries its own normal and a full 0..1 texture.
func Cube(b mesh.Builder, opts mesh.WeldOptions, radius float32) error {
	if radius <= 0 {
		return fmt.Errorf("%w: cube radius=%v", ErrInvalidShape, radius)
	}
	if err := b.BeginMesh(36); err != nil {
		return err
	}

	// Each face is given by its normal and two in-plane axes u, v with
	// u x v = normal.
	faces := []struct{ n, u, v mgl32.Vec3 }{
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}},
	}

	var c cell
	for _, f := range faces {
		for k := 0; k < 4; k++ {
			su := float32(k%2)*2 - 1
			sv := float32(k/2)*2 - 1
			p := f.n.Add(f.u.Mul(su)).Add(f.v.Mul(sv)).Mul(radius)
			c.set(k, mesh.Vec3(p), mesh.Vec3(f.n), mesh.Vec2{(su + 1) / 2, (sv + 1) / 2})
		}
		if err := c.emit(b, opts); err != nil {
			return err
		}
	}
	return nil
}

func scale(v mesh.Vec3, s float32) mesh.Vec3 {
	return mesh.Vec3{v[0] * s, v[1] * s, v[2] * s}
}
