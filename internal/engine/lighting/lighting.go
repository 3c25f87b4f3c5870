// Package lighting provides ambient and directional lights and the bounded
// set a scene keeps them in.
package lighting

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/anchorview/internal/engine/color"
)

// MaxDirectionalLights is the maximum number of directional lights a set holds.
const MaxDirectionalLights = 8

// AmbientLight lights every surface equally.
type AmbientLight struct {
	ID        string
	Color     color.Color
	Intensity float32
}

// Contribution returns color scaled by intensity.
func (l *AmbientLight) Contribution() color.Color {
	return l.Color.Scale(l.Intensity)
}

// DirectionalLight shines from Position toward Target.
type DirectionalLight struct {
	ID        string
	Color     color.Color
	Intensity float32
	Position  mgl32.Vec3
	Target    mgl32.Vec3
}

// Direction returns the normalized direction light travels in.
// A light placed on its target shines straight down.
func (l *DirectionalLight) Direction() mgl32.Vec3 {
	d := l.Target.Sub(l.Position)
	if d.Len() < 1e-6 {
		return mgl32.Vec3{0, -1, 0}
	}
	return d.Normalize()
}

// Set holds the lights of one scene.
type Set struct {
	Ambient     []*AmbientLight
	Directional []*DirectionalLight
}

// NewSet creates an empty light set.
func NewSet() *Set {
	return &Set{
		Directional: make([]*DirectionalLight, 0, MaxDirectionalLights),
	}
}

// AddAmbient adds an ambient light. Ambient lights are unbounded; they sum.
func (s *Set) AddAmbient(l *AmbientLight) {
	s.Ambient = append(s.Ambient, l)
}

// AddDirectional adds a directional light.
// Returns false if the set is full.
func (s *Set) AddDirectional(l *DirectionalLight) bool {
	if len(s.Directional) >= MaxDirectionalLights {
		return false
	}
	s.Directional = append(s.Directional, l)
	return true
}

// Clear removes all lights.
func (s *Set) Clear() {
	s.Ambient = s.Ambient[:0]
	s.Directional = s.Directional[:0]
}

// Count returns the total number of lights.
func (s *Set) Count() int {
	return len(s.Ambient) + len(s.Directional)
}

// AmbientTotal sums every ambient contribution.
func (s *Set) AmbientTotal() color.Color {
	total := color.Color{A: 1}
	for _, l := range s.Ambient {
		total = total.Add(l.Contribution())
	}
	return total
}

// Directions returns directions as a flat float32 slice.
// Format: [x0, y0, z0, x1, y1, z1, ...]
func (s *Set) Directions() []float32 {
	result := make([]float32, 0, len(s.Directional)*3)
	for _, l := range s.Directional {
		d := l.Direction()
		result = append(result, d[0], d[1], d[2])
	}
	return result
}

// Radiance returns color*intensity per directional light as a flat slice.
func (s *Set) Radiance() []float32 {
	result := make([]float32, 0, len(s.Directional)*3)
	for _, l := range s.Directional {
		c := l.Color.Scale(l.Intensity)
		result = append(result, c.R, c.G, c.B)
	}
	return result
}

// Irradiance evaluates the Lambert term of the whole set for a surface
// normal: ambient plus every directional light facing the surface.
func (s *Set) Irradiance(normal mgl32.Vec3) color.Color {
	total := s.AmbientTotal()
	if normal.Len() < 1e-6 {
		return total
	}
	n := normal.Normalize()
	for _, l := range s.Directional {
		ndotl := n.Dot(l.Direction().Mul(-1))
		if ndotl <= 0 {
			continue
		}
		total = total.Add(l.Color.Scale(l.Intensity * ndotl))
	}
	return total
}
