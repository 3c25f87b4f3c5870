// Package camera provides the perspective camera and the orbit controls
// that drive it.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// PerspectiveCamera is a pinhole camera. FOV is the vertical field of view
// in degrees.
type PerspectiveCamera struct {
	ID     string
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32

	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
}

// NewPerspectiveCamera creates a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float32) *PerspectiveCamera {
	return &PerspectiveCamera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Target: mgl32.Vec3{0, 0, -1},
		Up:     mgl32.Vec3{0, 1, 0},
	}
}

// LookAt points the camera at target.
func (c *PerspectiveCamera) LookAt(target mgl32.Vec3) {
	c.Target = target
}

// SetAspect updates the aspect ratio after a viewport resize.
func (c *PerspectiveCamera) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// ViewMatrix returns the world-to-camera matrix.
func (c *PerspectiveCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// ProjectionMatrix returns the camera-to-clip matrix.
func (c *PerspectiveCamera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *PerspectiveCamera) ViewProjection() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// Distance returns the distance from the camera to its target.
func (c *PerspectiveCamera) Distance() float32 {
	return c.Position.Sub(c.Target).Len()
}

// FitToBounds moves the target to the box center and backs the camera off
// along its current direction until the box fits the vertical field of view.
func (c *PerspectiveCamera) FitToBounds(min, max mgl32.Vec3) {
	center := min.Add(max).Mul(0.5)
	radius := max.Sub(min).Len() / 2

	dir := c.Position.Sub(c.Target)
	if dir.Len() < 1e-6 {
		dir = mgl32.Vec3{0, 0, 1}
	}
	dir = dir.Normalize()

	half := mgl32.DegToRad(c.FOV) / 2
	dist := radius / float32(gomath.Sin(float64(half)))

	c.Target = center
	c.Position = center.Add(dir.Mul(dist))
}
