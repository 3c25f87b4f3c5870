// Package shadow computes light-space matrices for directional shadow
// casting.
package shadow

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the center point of the AABB.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns the distance from center to corner (half-diagonal).
func (b AABB) Radius() float32 {
	return b.Max.Sub(b.Min).Len() / 2
}

// Empty reports whether the box encloses nothing.
func (b AABB) Empty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// EmptyAABB returns a box that any Extend call replaces.
func EmptyAABB() AABB {
	inf := float32(gomath.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Extend returns the smallest box containing b and other.
func (b AABB) Extend(other AABB) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], other.Min[i])
		b.Max[i] = max(b.Max[i], other.Max[i])
	}
	return b
}

// DirectionalLightMatrix computes the view-projection that fits
// sceneBounds into a directional light's shadow map. lightDir is the
// normalized direction TO the light.
func DirectionalLightMatrix(lightDir mgl32.Vec3, sceneBounds AABB) mgl32.Mat4 {
	center := sceneBounds.Center()
	radius := sceneBounds.Radius()
	if radius < 1e-3 {
		radius = 1
	}

	// Position light far enough to encompass entire scene
	lightDistance := radius * 2
	lightPos := center.Add(lightDir.Mul(lightDistance))

	// Avoid an up vector parallel to the light
	up := mgl32.Vec3{0, 1, 0}
	if abs32(lightDir[1]) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(lightPos, center, up)

	// Padding avoids edge artifacts
	padding := radius * 0.1
	halfSize := radius + padding
	far := lightDistance + radius + padding
	proj := mgl32.Ortho(-halfSize, halfSize, -halfSize, halfSize, 0.1, far)

	return proj.Mul4(view)
}

// abs32 returns the absolute value of a float32.
func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
