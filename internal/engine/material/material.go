// Package material provides the metallic-roughness material applied to meshes.
package material

import (
	"errors"
	"fmt"

	"github.com/Faultbox/anchorview/internal/engine/color"
	"github.com/Faultbox/anchorview/internal/engine/texture"
)

// ErrOutOfRange is returned when a factor lies outside [0, 1].
var ErrOutOfRange = errors.New("material factor out of range")

// Standard is a physically based metallic-roughness material.
type Standard struct {
	ID              string
	Color           color.Color
	Metalness       float32
	Roughness       float32
	EnvMapIntensity float32
	Transparent     bool
	Opacity         float32

	Map    *texture.ImageTexture
	EnvMap *texture.CubeTexture
}

// NewStandard returns a white, fully rough, non-metallic, opaque material.
func NewStandard(id string) *Standard {
	return &Standard{
		ID:              id,
		Color:           color.White,
		Metalness:       0,
		Roughness:       1,
		EnvMapIntensity: 1,
		Opacity:         1,
	}
}

// Validate checks that every factor is in range.
func (m *Standard) Validate() error {
	factors := []struct {
		name string
		v    float32
	}{
		{"metalness", m.Metalness},
		{"roughness", m.Roughness},
		{"opacity", m.Opacity},
	}
	for _, f := range factors {
		if f.v < 0 || f.v > 1 || f.v != f.v {
			return fmt.Errorf("material %s: %s %v: %w", m.ID, f.name, f.v, ErrOutOfRange)
		}
	}
	if m.EnvMapIntensity < 0 || m.EnvMapIntensity != m.EnvMapIntensity {
		return fmt.Errorf("material %s: envMapIntensity %v: %w", m.ID, m.EnvMapIntensity, ErrOutOfRange)
	}
	return nil
}

// BaseColorFactor returns the color with opacity folded into alpha.
func (m *Standard) BaseColorFactor() [4]float32 {
	c := m.Color
	if m.Transparent {
		c.A *= m.Opacity
	}
	return c.Array()
}

// IsBlended reports whether the material needs alpha blending.
func (m *Standard) IsBlended() bool {
	return m.Transparent && m.BaseColorFactor()[3] < 1
}
