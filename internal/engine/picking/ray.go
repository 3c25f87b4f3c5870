// Package picking provides ray casting and object picking utilities.
package picking

import (
	gomath "math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// ScreenToRay converts pixel coordinates to a world-space ray.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj mgl32.Mat4) Ray {
	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // Flip Y

	near := unproject(invViewProj, mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(invViewProj, mgl32.Vec4{ndcX, ndcY, 1, 1})

	dir := far.Sub(near)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: near, Direction: dir}
}

func unproject(inv mgl32.Mat4, ndc mgl32.Vec4) mgl32.Vec3 {
	w := inv.Mul4x1(ndc)
	if w[3] != 0 {
		return w.Vec3().Mul(1 / w[3])
	}
	return w.Vec3()
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		if r.Direction[axis] != 0 {
			t1 := (box.Min[axis] - r.Origin[axis]) / r.Direction[axis]
			t2 := (box.Max[axis] - r.Origin[axis]) / r.Direction[axis]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > tmin {
				tmin = t1
			}
			if t2 < tmax {
				tmax = t2
			}
		} else if r.Origin[axis] < box.Min[axis] || r.Origin[axis] > box.Max[axis] {
			return 0, false
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// NewAABB creates an AABB from two corners, ordering each axis.
func NewAABB(a, b mgl32.Vec3) AABB {
	box := AABB{Min: a, Max: b}
	for i := 0; i < 3; i++ {
		if box.Min[i] > box.Max[i] {
			box.Min[i], box.Max[i] = box.Max[i], box.Min[i]
		}
	}
	return box
}

// TransformAABB returns the world-space box enclosing a local box after
// world is applied. Rotations grow the box to fit all eight corners.
func TransformAABB(localMin, localMax mgl32.Vec3, world mgl32.Mat4) AABB {
	out := AABB{
		Min: mgl32.Vec3{gomath.MaxFloat32, gomath.MaxFloat32, gomath.MaxFloat32},
		Max: mgl32.Vec3{-gomath.MaxFloat32, -gomath.MaxFloat32, -gomath.MaxFloat32},
	}
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{localMin[0], localMin[1], localMin[2]}
		if i&1 != 0 {
			c[0] = localMax[0]
		}
		if i&2 != 0 {
			c[1] = localMax[1]
		}
		if i&4 != 0 {
			c[2] = localMax[2]
		}
		p := mgl32.TransformCoordinate(c, world)
		for a := 0; a < 3; a++ {
			out.Min[a] = min(out.Min[a], p[a])
			out.Max[a] = max(out.Max[a], p[a])
		}
	}
	return out
}

// Target is one pickable object.
type Target struct {
	ID  string
	Box AABB
}

// Hit is a picked target and its distance along the ray.
type Hit struct {
	ID       string     `json:"id"`
	Distance float32    `json:"distance"`
	Point    mgl32.Vec3 `json:"point"`
}

// Pick returns every target the ray passes through, nearest first.
func Pick(r Ray, targets []Target) []Hit {
	var hits []Hit
	for _, tg := range targets {
		if t, ok := r.IntersectAABB(tg.Box); ok {
			hits = append(hits, Hit{ID: tg.ID, Distance: t, Point: r.At(t)})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}
