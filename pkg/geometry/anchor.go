package geometry

import (
	"errors"
	"fmt"

	"github.com/Faultbox/anchorview/pkg/math"
)

// Anchor errors.
var (
	ErrEmptyGeometry = errors.New("geometry has no vertices")
	ErrInvalidAnchor = errors.New("invalid anchor config")
)

// AnchorConfig describes how a freshly loaded geometry is re-pivoted.
// All fields are required; the zero value has a zero scale and collapses
// the geometry to a point. Use IdentityAnchor as a neutral starting value.
type AnchorConfig struct {
	// Rotation in radians, intrinsic XYZ order.
	Rotation math.Euler
	// Position is an offset expressed as a fraction of the half-extent of
	// the rotated and scaled bounding box on each axis. ±1 puts the
	// centroid at the box edge.
	Position math.Vec3
	// Scale factors per axis.
	Scale math.Vec3
}

// IdentityAnchor returns a config with no rotation, no offset and unit scale.
func IdentityAnchor() AnchorConfig {
	return AnchorConfig{Scale: math.Splat(1)}
}

// Validate checks that every component is finite and that the position
// components lie in [-1, 1].
func (c AnchorConfig) Validate() error {
	if !c.Rotation.Vec3().IsFinite() {
		return fmt.Errorf("%w: rotation %v is not finite", ErrInvalidAnchor, c.Rotation)
	}
	if !c.Scale.IsFinite() {
		return fmt.Errorf("%w: scale %v is not finite", ErrInvalidAnchor, c.Scale)
	}
	if !c.Position.IsFinite() {
		return fmt.Errorf("%w: position %v is not finite", ErrInvalidAnchor, c.Position)
	}
	for _, p := range [3]float32{c.Position.X, c.Position.Y, c.Position.Z} {
		if p < -1 || p > 1 {
			return fmt.Errorf("%w: position %v outside [-1, 1]", ErrInvalidAnchor, c.Position)
		}
	}
	return nil
}

// Anchor centers g, rotates it, scales it, centers it again and finally
// offsets it by Position times the half-extents of the resulting bounding
// box. g is mutated in place and returned.
//
// The order matters: the half-extents used for the offset are measured
// after rotation and scale, so the same Position means "edge of the box"
// regardless of the source mesh units or orientation.
//
// An empty geometry is rejected with ErrEmptyGeometry and left untouched.
func Anchor(g *Geometry, cfg AnchorConfig) (*Geometry, error) {
	if g.IsEmpty() {
		return g, ErrEmptyGeometry
	}

	g.Center()
	g.ComputeBoundingBox()

	g.ApplyQuaternion(math.QuatFromEuler(cfg.Rotation))
	g.Scale(cfg.Scale)

	// Rotation and scale move the box center when the shape is not
	// symmetric about it.
	g.Center()
	box := g.ComputeBoundingBox()

	g.Translate(box.HalfExtents().Mul(cfg.Position))
	return g, nil
}
