package shadow

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestAABBExtend(t *testing.T) {
	b := EmptyAABB()
	if !b.Empty() {
		t.Fatal("expected empty box")
	}
	b = b.Extend(AABB{Min: mgl32.Vec3{-1, 0, 0}, Max: mgl32.Vec3{1, 2, 0}})
	b = b.Extend(AABB{Min: mgl32.Vec3{0, -3, -1}, Max: mgl32.Vec3{0, 0, 1}})

	if b.Min != (mgl32.Vec3{-1, -3, -1}) || b.Max != (mgl32.Vec3{1, 2, 1}) {
		t.Errorf("unexpected box %+v", b)
	}
	if c := b.Center(); c != (mgl32.Vec3{0, -0.5, 0}) {
		t.Errorf("center = %v", c)
	}
}

func TestDirectionalLightMatrixContainsScene(t *testing.T) {
	bounds := AABB{Min: mgl32.Vec3{-10, -5, -10}, Max: mgl32.Vec3{10, 5, 10}}
	dirs := []mgl32.Vec3{
		{0, 1, 0},
		mgl32.Vec3{-10, 40, 20}.Normalize(),
		mgl32.Vec3{1, 0, 0},
	}

	for _, dir := range dirs {
		m := DirectionalLightMatrix(dir, bounds)
		for i := 0; i < 8; i++ {
			c := bounds.Min
			if i&1 != 0 {
				c[0] = bounds.Max[0]
			}
			if i&2 != 0 {
				c[1] = bounds.Max[1]
			}
			if i&4 != 0 {
				c[2] = bounds.Max[2]
			}
			p := mgl32.TransformCoordinate(c, m)
			for a := 0; a < 3; a++ {
				if p[a] < -1 || p[a] > 1 {
					t.Errorf("dir %v: corner %v maps outside clip space: %v", dir, c, p)
				}
			}
		}
	}
}

func TestDirectionalLightMatrixCenterMapsToOrigin(t *testing.T) {
	bounds := AABB{Min: mgl32.Vec3{2, 2, 2}, Max: mgl32.Vec3{4, 4, 4}}
	m := DirectionalLightMatrix(mgl32.Vec3{0, 0, 1}, bounds)
	p := mgl32.TransformCoordinate(bounds.Center(), m)
	if abs32(p[0]) > 1e-4 || abs32(p[1]) > 1e-4 {
		t.Errorf("center maps to %v", p)
	}
}
