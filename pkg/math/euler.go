package math

// Euler holds rotation angles in radians around the X, Y and Z axes.
// Angles compose in intrinsic XYZ order (see QuatFromEuler).
type Euler struct {
	X, Y, Z float32
}

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 {
	return deg * (pi / 180)
}

// EulerDeg builds an Euler from angles given in degrees.
func EulerDeg(x, y, z float32) Euler {
	return Euler{DegToRad(x), DegToRad(y), DegToRad(z)}
}

// IsZero reports whether all angles are zero.
func (e Euler) IsZero() bool {
	return e.X == 0 && e.Y == 0 && e.Z == 0
}

// Vec3 returns the angles as a vector.
func (e Euler) Vec3() Vec3 {
	return Vec3{e.X, e.Y, e.Z}
}

const pi = 3.14159265358979323846
