package camera

import (
	gomath "math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// polarEpsilon keeps the camera off the poles where LookAt degenerates.
const polarEpsilon = 1e-6

// OrbitControls orbits a PerspectiveCamera around its target. Inputs are
// accumulated as deltas and applied on Update; with damping enabled each
// delta decays by DampingFactor per update instead of being applied at once.
type OrbitControls struct {
	Camera *PerspectiveCamera

	AutoRotate      bool
	AutoRotateSpeed float32 // 1.0 is one revolution per 60 seconds

	EnableDamping bool
	DampingFactor float32

	MinDistance float32
	MaxDistance float32

	MinPolarAngle float32
	MaxPolarAngle float32

	EnablePan bool

	DragSensitivity float32
	ZoomSensitivity float32

	thetaDelta float32
	phiDelta   float32
	scale      float32
	panOffset  mgl32.Vec3
}

// NewOrbitControls creates controls with the usual defaults: no auto
// rotation, damping factor 0.05, unbounded distance, pan enabled.
func NewOrbitControls(cam *PerspectiveCamera) *OrbitControls {
	return &OrbitControls{
		Camera:          cam,
		AutoRotateSpeed: 2,
		DampingFactor:   0.05,
		MinDistance:     0,
		MaxDistance:     float32(gomath.Inf(1)),
		MinPolarAngle:   0,
		MaxPolarAngle:   gomath.Pi,
		EnablePan:       true,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		scale:           1,
	}
}

// HandleDrag rotates around the target from a pointer drag delta in pixels.
func (o *OrbitControls) HandleDrag(deltaX, deltaY float32) {
	o.thetaDelta -= deltaX * o.DragSensitivity
	o.phiDelta -= deltaY * o.DragSensitivity
}

// HandleZoom dollies toward (positive delta) or away from the target.
func (o *OrbitControls) HandleZoom(delta float32) {
	o.scale *= 1 - delta*o.ZoomSensitivity
	if o.scale <= 0 {
		o.scale = polarEpsilon
	}
}

// Pan shifts the target and camera together. It reports false when panning
// is disabled.
func (o *OrbitControls) Pan(offset mgl32.Vec3) bool {
	if !o.EnablePan {
		return false
	}
	o.panOffset = o.panOffset.Add(offset)
	return true
}

// autoRotationAngle returns the auto-rotate angle for a step of dt.
func (o *OrbitControls) autoRotationAngle(dt time.Duration) float32 {
	return 2 * gomath.Pi / 60 * o.AutoRotateSpeed * float32(dt.Seconds())
}

// Update applies pending input and auto rotation. It reports whether the
// camera moved.
func (o *OrbitControls) Update(dt time.Duration) bool {
	cam := o.Camera
	if cam == nil {
		return false
	}

	offset := cam.Position.Sub(cam.Target)
	radius := offset.Len()
	theta := float32(gomath.Atan2(float64(offset[0]), float64(offset[2])))
	phi := float32(0)
	if radius > 0 {
		phi = float32(gomath.Acos(float64(mgl32.Clamp(offset[1]/radius, -1, 1))))
	}

	if o.AutoRotate {
		o.thetaDelta -= o.autoRotationAngle(dt)
	}

	factor := float32(1)
	if o.EnableDamping {
		factor = o.DampingFactor
	}
	theta += o.thetaDelta * factor
	phi += o.phiDelta * factor

	minPhi := max(o.MinPolarAngle, polarEpsilon)
	maxPhi := min(o.MaxPolarAngle, gomath.Pi-polarEpsilon)
	phi = mgl32.Clamp(phi, minPhi, maxPhi)

	radius = mgl32.Clamp(radius*o.scale, o.MinDistance, o.MaxDistance)

	target := cam.Target
	if o.EnablePan {
		target = target.Add(o.panOffset.Mul(factor))
	}

	sinPhi := float32(gomath.Sin(float64(phi)))
	next := mgl32.Vec3{
		radius * sinPhi * float32(gomath.Sin(float64(theta))),
		radius * float32(gomath.Cos(float64(phi))),
		radius * sinPhi * float32(gomath.Cos(float64(theta))),
	}

	prevPos, prevTarget := cam.Position, cam.Target
	cam.Target = target
	cam.Position = target.Add(next)

	if o.EnableDamping {
		o.thetaDelta *= 1 - o.DampingFactor
		o.phiDelta *= 1 - o.DampingFactor
		o.panOffset = o.panOffset.Mul(1 - o.DampingFactor)
	} else {
		o.thetaDelta, o.phiDelta = 0, 0
		o.panOffset = mgl32.Vec3{}
	}
	o.scale = 1

	return !prevPos.ApproxEqualThreshold(cam.Position, 1e-6) ||
		!prevTarget.ApproxEqualThreshold(cam.Target, 1e-6)
}
