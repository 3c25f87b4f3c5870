package scene

import (
	"fmt"

	"github.com/Faultbox/anchorview/internal/engine/color"
	"github.com/Faultbox/anchorview/internal/engine/lighting"
	"github.com/Faultbox/anchorview/internal/engine/material"
	"github.com/Faultbox/anchorview/internal/engine/object"
	"github.com/Faultbox/anchorview/internal/engine/texture"
	"github.com/Faultbox/anchorview/pkg/geometry"
)

// Mesh is a placed geometry with a material.
type Mesh struct {
	object.Object
	GeometryID string
	MaterialID string
	Geometry   *geometry.Geometry
	Material   *material.Standard
}

// Scene is a root container of meshes and lights.
type Scene struct {
	ID     string
	Meshes []*Mesh
	Lights *lighting.Set

	// Background is either a color or a cube/image texture; nil fields are unset.
	BackgroundColor *color.Color
	BackgroundCube  *texture.CubeTexture
	BackgroundImage *texture.ImageTexture
	Environment     *texture.CubeTexture
}

// NewScene creates an empty scene.
func NewScene(id string) *Scene {
	return &Scene{ID: id, Lights: lighting.NewSet()}
}

// AddObject adds a mesh or light to the scene.
func (s *Scene) AddObject(obj interface{}) error {
	switch o := obj.(type) {
	case *Mesh:
		s.Meshes = append(s.Meshes, o)
	case *lighting.AmbientLight:
		s.Lights.AddAmbient(o)
	case *lighting.DirectionalLight:
		if !s.Lights.AddDirectional(o) {
			return fmt.Errorf("scene %s: %w: more than %d directional lights",
				s.ID, ErrInvalidConfig, lighting.MaxDirectionalLights)
		}
	default:
		return fmt.Errorf("scene %s: cannot add %T", s.ID, obj)
	}
	return nil
}

// Mesh returns the mesh with id.
func (s *Scene) Mesh(id string) (*Mesh, bool) {
	for _, m := range s.Meshes {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}
