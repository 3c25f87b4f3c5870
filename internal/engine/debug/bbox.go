// Package debug draws wireframe previews of rendered frames and saves them
// as screenshots.
package debug

import "github.com/go-gl/mathgl/mgl32"

// BBoxEdgeVertexCount is the number of endpoints of a box wireframe (12 edges × 2).
const BBoxEdgeVertexCount = 24

// BBoxEdges returns the endpoints of the 12 edges of the box lo..hi, two
// vertices per edge.
func BBoxEdges(lo, hi mgl32.Vec3) [BBoxEdgeVertexCount]mgl32.Vec3 {
	return [BBoxEdgeVertexCount]mgl32.Vec3{
		// Bottom face
		{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]},
		{hi[0], lo[1], lo[2]}, {hi[0], lo[1], hi[2]},
		{hi[0], lo[1], hi[2]}, {lo[0], lo[1], hi[2]},
		{lo[0], lo[1], hi[2]}, {lo[0], lo[1], lo[2]},
		// Top face
		{lo[0], hi[1], lo[2]}, {hi[0], hi[1], lo[2]},
		{hi[0], hi[1], lo[2]}, {hi[0], hi[1], hi[2]},
		{hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]},
		{lo[0], hi[1], hi[2]}, {lo[0], hi[1], lo[2]},
		// Vertical edges
		{lo[0], lo[1], lo[2]}, {lo[0], hi[1], lo[2]},
		{hi[0], lo[1], lo[2]}, {hi[0], hi[1], lo[2]},
		{hi[0], lo[1], hi[2]}, {hi[0], hi[1], hi[2]},
		{lo[0], lo[1], hi[2]}, {lo[0], hi[1], hi[2]},
	}
}

// PadBox grows lo..hi by padding on every side.
func PadBox(lo, hi mgl32.Vec3, padding float32) (mgl32.Vec3, mgl32.Vec3) {
	p := mgl32.Vec3{padding, padding, padding}
	return lo.Sub(p), hi.Add(p)
}
