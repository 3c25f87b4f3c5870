// Package geometry holds mutable mesh vertex buffers and the anchor
// transform that normalizes their pivot, orientation and scale.
package geometry

import (
	"github.com/Faultbox/anchorview/pkg/math"
)

// Geometry is a mesh vertex buffer. Positions is required; Normals and UVs,
// when present, are parallel to Positions. Indices describe triangles.
type Geometry struct {
	Name      string
	Positions []math.Vec3
	Normals   []math.Vec3
	UVs       []math.Vec2
	Indices   []uint32

	// BoundingBox is refreshed by ComputeBoundingBox.
	BoundingBox math.Box3
}

// New creates a geometry from positions. The bounding box is computed.
func New(positions []math.Vec3) *Geometry {
	g := &Geometry{Positions: positions}
	g.ComputeBoundingBox()
	return g
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

// TriangleCount returns the number of triangles, read from Indices when
// present and from the vertex list otherwise.
func (g *Geometry) TriangleCount() int {
	if len(g.Indices) > 0 {
		return len(g.Indices) / 3
	}
	return g.VertexCount() / 3
}

// IsEmpty reports whether the geometry has no vertices.
func (g *Geometry) IsEmpty() bool {
	return g == nil || len(g.Positions) == 0
}

// ComputeBoundingBox recomputes and caches the axis-aligned bounding box.
func (g *Geometry) ComputeBoundingBox() math.Box3 {
	g.BoundingBox = math.Box3FromPoints(g.Positions)
	return g.BoundingBox
}

// Center translates the geometry so its bounding-box center is at the
// origin. It returns the offset that was applied.
func (g *Geometry) Center() math.Vec3 {
	box := g.ComputeBoundingBox()
	offset := box.Center().Scale(-1)
	g.Translate(offset)
	return offset
}

// Translate moves every vertex by offset.
func (g *Geometry) Translate(offset math.Vec3) {
	for i := range g.Positions {
		g.Positions[i] = g.Positions[i].Add(offset)
	}
	g.BoundingBox = g.BoundingBox.Translate(offset)
}

// ApplyQuaternion rotates every vertex and normal by q.
func (g *Geometry) ApplyQuaternion(q math.Quat) {
	q = q.Normalize()
	for i := range g.Positions {
		g.Positions[i] = q.Rotate(g.Positions[i])
	}
	for i := range g.Normals {
		g.Normals[i] = q.Rotate(g.Normals[i]).Normalize()
	}
	g.ComputeBoundingBox()
}

// Scale multiplies vertex coordinates component-wise by s.
// Normals are transformed by the inverse scale and re-normalized. A zero
// component flattens the mesh onto a plane; normals with any component
// along a collapsed axis then point along that axis.
func (g *Geometry) Scale(s math.Vec3) {
	for i := range g.Positions {
		g.Positions[i] = g.Positions[i].Mul(s)
	}
	for i := range g.Normals {
		g.Normals[i] = scaleNormal(g.Normals[i], s)
	}
	g.ComputeBoundingBox()
}

func scaleNormal(n, s math.Vec3) math.Vec3 {
	var flat math.Vec3
	if s.X == 0 {
		flat.X = n.X
	}
	if s.Y == 0 {
		flat.Y = n.Y
	}
	if s.Z == 0 {
		flat.Z = n.Z
	}
	if flat != (math.Vec3{}) {
		return flat.Normalize()
	}
	inv := math.Vec3{X: safeInv(s.X), Y: safeInv(s.Y), Z: safeInv(s.Z)}
	return n.Mul(inv).Normalize()
}

// Clone returns a deep copy.
func (g *Geometry) Clone() *Geometry {
	if g == nil {
		return nil
	}
	c := &Geometry{
		Name:        g.Name,
		Positions:   append([]math.Vec3(nil), g.Positions...),
		BoundingBox: g.BoundingBox,
	}
	if g.Normals != nil {
		c.Normals = append([]math.Vec3(nil), g.Normals...)
	}
	if g.UVs != nil {
		c.UVs = append([]math.Vec2(nil), g.UVs...)
	}
	if g.Indices != nil {
		c.Indices = append([]uint32(nil), g.Indices...)
	}
	return c
}

func safeInv(x float32) float32 {
	if x == 0 {
		return 0
	}
	return 1 / x
}
