// Package object provides the transform shared by everything placed in a
// scene: meshes, lights and cameras.
package object

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Object is a node transform. Rotation holds Euler angles in radians,
// applied in intrinsic XYZ order.
type Object struct {
	ID       string
	Name     string
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
	Visible  bool
}

// New returns a visible object with identity transform.
func New(id string) Object {
	return Object{
		ID:      id,
		Scale:   mgl32.Vec3{1, 1, 1},
		Visible: true,
	}
}

// Quaternion returns the rotation as a quaternion.
func (o *Object) Quaternion() mgl32.Quat {
	return mgl32.AnglesToQuat(o.Rotation[0], o.Rotation[1], o.Rotation[2], mgl32.XYZ)
}

// Matrix returns the local-to-world matrix: translate * rotate * scale.
func (o *Object) Matrix() mgl32.Mat4 {
	t := mgl32.Translate3D(o.Position[0], o.Position[1], o.Position[2])
	r := o.Quaternion().Mat4()
	s := mgl32.Scale3D(o.Scale[0], o.Scale[1], o.Scale[2])
	return t.Mul4(r).Mul4(s)
}

// Field resolves an attribute path such as ".rotation.z" or "position.x"
// to the addressed component.
func (o *Object) Field(path string) (*float32, error) {
	parts := strings.Split(strings.TrimPrefix(path, "."), ".")
	if len(parts) != 2 {
		return nil, fmt.Errorf("attribute %q: expected <property>.<axis>", path)
	}

	var v *mgl32.Vec3
	switch parts[0] {
	case "position":
		v = &o.Position
	case "rotation":
		v = &o.Rotation
	case "scale":
		v = &o.Scale
	default:
		return nil, fmt.Errorf("attribute %q: unknown property %q", path, parts[0])
	}

	switch parts[1] {
	case "x":
		return &v[0], nil
	case "y":
		return &v[1], nil
	case "z":
		return &v[2], nil
	default:
		return nil, fmt.Errorf("attribute %q: unknown axis %q", path, parts[1])
	}
}
