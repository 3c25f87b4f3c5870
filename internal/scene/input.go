package scene

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrNoControls  = errors.New("active camera has no orbit controls")
	ErrPanDisabled = errors.New("panning is disabled")
)

// OrbitInput is one batch of pointer input for the active camera's orbit
// controls. DX and DY are drag deltas in pixels, Zoom is wheel steps
// (positive dollies in) and Pan is a world-space offset.
type OrbitInput struct {
	DX   float32    `json:"dx"`
	DY   float32    `json:"dy"`
	Zoom float32    `json:"zoom"`
	Pan  mgl32.Vec3 `json:"pan"`
}

// Orbit queues input on the active camera's controls. It is applied on the
// next Update. A pan while panning is disabled rejects the whole batch.
func (e *Engine) Orbit(in OrbitInput) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctl, ok := e.st.controls[e.st.active.Camera]
	if !ok {
		return ErrNoControls
	}
	if in.Pan != (mgl32.Vec3{}) && !ctl.EnablePan {
		return ErrPanDisabled
	}

	if in.DX != 0 || in.DY != 0 {
		ctl.HandleDrag(in.DX, in.DY)
	}
	if in.Zoom != 0 {
		ctl.HandleZoom(in.Zoom)
	}
	if in.Pan != (mgl32.Vec3{}) {
		ctl.Pan(in.Pan)
	}
	return nil
}
