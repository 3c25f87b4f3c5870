package scene

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/anchorview/internal/engine/material"
	"github.com/Faultbox/anchorview/internal/engine/renderer"
	"github.com/Faultbox/anchorview/pkg/geometry"
)

// MeshSnapshot is a private copy of one mesh at snapshot time.
type MeshSnapshot struct {
	ID       string
	Name     string
	Geometry *geometry.Geometry
	Material material.Standard
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Visible  bool
}

// Snapshot is a consistent copy of the engine, safe to use after the
// engine moves on.
type Snapshot struct {
	Taken    time.Time
	Document *Document
	Meshes   []MeshSnapshot
	Frame    renderer.Frame
}

// Snapshot copies the current state. Records that carry live state
// (meshes, cameras) are rewritten with their current transforms, so the
// document reloads to the state it was taken in.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := e.st
	snap := Snapshot{
		Taken:    time.Now(),
		Document: &Document{Active: st.active},
		Frame:    e.renderer.Frame(),
	}

	for _, cfg := range st.order {
		snap.Document.Configs = append(snap.Document.Configs, st.liveConfig(cfg))
	}

	if sc, ok := st.scenes[st.active.Scene]; ok {
		for _, m := range sc.Meshes {
			snap.Meshes = append(snap.Meshes, MeshSnapshot{
				ID:       m.ID,
				Name:     m.Name,
				Geometry: m.Geometry.Clone(),
				Material: *m.Material,
				Position: m.Position,
				Rotation: m.Quaternion(),
				Scale:    m.Scale,
				Visible:  m.Visible,
			})
		}
	}
	return snap
}

// Document returns the live document.
func (e *Engine) Document() *Document {
	return e.Snapshot().Document
}

func (st *state) liveConfig(cfg Config) Config {
	switch c := cfg.(type) {
	case *MeshConfig:
		m, ok := st.meshes[c.ID()]
		if !ok {
			return cfg
		}
		out := *c
		out.Position = optVector3(m.Position)
		out.Rotation = optVector3(m.Rotation)
		out.Scale = optVector3(m.Scale)
		visible := m.Visible
		out.Visible = &visible
		return &out
	case *PerspectiveCameraConfig:
		cam, ok := st.cameras[c.ID()]
		if !ok {
			return cfg
		}
		out := *c
		out.Position = vector3(cam.Position)
		target := vector3(cam.Target)
		out.LookAt = &target
		return &out
	}
	return cfg
}
