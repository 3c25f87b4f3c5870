package scene

import (
	"github.com/Faultbox/anchorview/internal/engine/picking"
)

// Pick casts a ray from pixel (x, y) of the viewport through the active
// camera and returns the visible meshes it hits, nearest first. Meshes are
// tested against their world-space bounding boxes.
func (e *Engine) Pick(x, y float32) []picking.Hit {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := e.st
	sc, cam := st.scenes[st.active.Scene], st.cameras[st.active.Camera]
	if sc == nil || cam == nil {
		return nil
	}

	w, h := float32(e.opts.Width), float32(e.opts.Height)
	if w <= 0 || h <= 0 {
		return nil
	}
	ray := picking.ScreenToRay(x, y, w, h, cam.ViewProjection().Inv())

	targets := make([]picking.Target, 0, len(sc.Meshes))
	for _, m := range sc.Meshes {
		if !m.Visible || m.Geometry.IsEmpty() {
			continue
		}
		box := m.Geometry.BoundingBox
		targets = append(targets, picking.Target{
			ID:  m.ID,
			Box: picking.TransformAABB(box.Min.Array(), box.Max.Array(), m.Matrix()),
		})
	}
	return picking.Pick(ray, targets)
}
