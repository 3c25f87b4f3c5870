package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/anchorview/internal/engine/camera"
	"github.com/Faultbox/anchorview/internal/engine/color"
	"github.com/Faultbox/anchorview/internal/engine/lighting"
	"github.com/Faultbox/anchorview/internal/engine/material"
)

func testCamera() *camera.PerspectiveCamera {
	cam := camera.NewPerspectiveCamera(45, 1, 0.1, 1000)
	cam.Position = mgl32.Vec3{0, 0, 10}
	cam.LookAt(mgl32.Vec3{})
	return cam
}

func unitBox(id string, at mgl32.Vec3) Drawable {
	return Drawable{
		ID:       id,
		World:    mgl32.Translate3D(at[0], at[1], at[2]),
		BoundMin: mgl32.Vec3{-1, -1, -1},
		BoundMax: mgl32.Vec3{1, 1, 1},
		Visible:  true,
	}
}

func TestNewRejectsEmptyViewport(t *testing.T) {
	_, err := New(Config{Width: 0, Height: 10})
	assert.ErrorIs(t, err, ErrInvalidSize)

	r, err := New(Config{Width: 100, Height: 100})
	require.NoError(t, err)
	assert.Equal(t, float32(1), r.Config().Exposure)
	assert.ErrorIs(t, r.Resize(-1, 4), ErrInvalidSize)
}

func TestRenderProjectsCenteredBox(t *testing.T) {
	r, err := New(DefaultConfig(200, 200))
	require.NoError(t, err)

	f := r.Render(testCamera(), lighting.NewSet(), []Drawable{unitBox("box", mgl32.Vec3{})})
	require.Len(t, f.Objects, 1)
	assert.Equal(t, uint64(1), f.Index)

	obj := f.Objects[0]
	assert.True(t, obj.InView)
	assert.InDelta(t, 10, obj.Depth, 1e-4)
	// Symmetric about the viewport center.
	assert.InDelta(t, 200-obj.ScreenMax[0], obj.ScreenMin[0], 1e-3)
	assert.InDelta(t, 200-obj.ScreenMax[1], obj.ScreenMin[1], 1e-3)
	assert.Less(t, obj.ScreenMin[0], float32(100))

	assert.Equal(t, f, r.Frame())
}

func TestRenderCullsBehindCamera(t *testing.T) {
	r, err := New(DefaultConfig(200, 200))
	require.NoError(t, err)

	hidden := unitBox("hidden", mgl32.Vec3{})
	hidden.Visible = false

	f := r.Render(testCamera(), nil, []Drawable{
		unitBox("behind", mgl32.Vec3{0, 0, 50}),
		hidden,
	})
	require.Len(t, f.Objects, 1)
	assert.False(t, f.Objects[0].InView)
	assert.Equal(t, [2]float32{}, f.Objects[0].ScreenMin)
}

func TestDrawOrder(t *testing.T) {
	r, err := New(DefaultConfig(200, 200))
	require.NoError(t, err)

	glass := material.NewStandard("glass")
	glass.Transparent = true
	glass.Opacity = 0.5

	nearGlass := unitBox("near-glass", mgl32.Vec3{0, 0, 3})
	nearGlass.Material = glass
	farGlass := unitBox("far-glass", mgl32.Vec3{0, 0, -3})
	farGlass.Material = glass

	f := r.Render(testCamera(), nil, []Drawable{
		nearGlass,
		unitBox("far", mgl32.Vec3{0, 0, -5}),
		farGlass,
		unitBox("near", mgl32.Vec3{0, 0, 2}),
	})

	var ids []string
	for _, o := range f.Objects {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"near", "far", "far-glass", "near-glass"}, ids)
}

func TestShadeRespondsToLights(t *testing.T) {
	r, err := New(Config{Width: 10, Height: 10, PhysicallyCorrectLights: true})
	require.NoError(t, err)

	dark := r.Render(testCamera(), lighting.NewSet(), []Drawable{unitBox("box", mgl32.Vec3{})})

	lights := lighting.NewSet()
	lights.AddDirectional(&lighting.DirectionalLight{
		Color:     color.White,
		Intensity: 3,
		Position:  mgl32.Vec3{0, 0, 10},
	})
	lit := r.Render(testCamera(), lights, []Drawable{unitBox("box", mgl32.Vec3{})})

	assert.Zero(t, dark.Objects[0].Shade[0])
	assert.Greater(t, lit.Objects[0].Shade[0], float32(0.5))
	assert.Equal(t, 1, lit.Lights)
	assert.Equal(t, uint64(2), lit.Index)
}

func TestToneMapping(t *testing.T) {
	hdr := color.Color{R: 4, G: 1, B: 0, A: 1}

	assert.Equal(t, hdr, NoToneMapping.Apply(hdr, 3))

	lin := LinearToneMapping.Apply(hdr, 0.5)
	assert.InDelta(t, 1, lin.R, 1e-6)
	assert.InDelta(t, 0.5, lin.G, 1e-6)

	rh := ReinhardToneMapping.Apply(hdr, 3)
	assert.InDelta(t, 12.0/13.0, rh.R, 1e-5)
	assert.InDelta(t, 0.75, rh.G, 1e-5)
	assert.Zero(t, rh.B)

	for _, tm := range []ToneMapping{CineonToneMapping, ACESFilmicToneMapping} {
		out := tm.Apply(hdr, 1)
		assert.LessOrEqual(t, out.R, float32(1.01), tm.String())
		assert.Greater(t, out.R, out.G, tm.String())
		assert.InDelta(t, 0, out.B, 1e-3, tm.String())
	}
}

func TestParseToneMapping(t *testing.T) {
	tests := map[string]ToneMapping{
		"":           NoToneMapping,
		"Reinhard":   ReinhardToneMapping,
		"2":          ReinhardToneMapping,
		"aces":       ACESFilmicToneMapping,
		"ACESFilmic": ACESFilmicToneMapping,
		"cineon":     CineonToneMapping,
	}
	for in, want := range tests {
		got, err := ParseToneMapping(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseToneMapping("filmic")
	assert.Error(t, err)
	_, err = ParseToneMapping("9")
	assert.Error(t, err)

	var tm ToneMapping
	require.NoError(t, tm.UnmarshalText([]byte("linear")))
	b, err := tm.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "linear", string(b))
}

func TestShadowMatrices(t *testing.T) {
	lights := lighting.NewSet()
	lights.AddDirectional(&lighting.DirectionalLight{Color: color.White, Intensity: 1, Position: mgl32.Vec3{5, 10, 5}})
	lights.AddDirectional(&lighting.DirectionalLight{Color: color.White, Intensity: 1, Position: mgl32.Vec3{-5, 2, 0}})
	items := []Drawable{unitBox("a", mgl32.Vec3{-3, 0, 0}), unitBox("b", mgl32.Vec3{3, 0, 0})}

	off, err := New(Config{Width: 10, Height: 10})
	require.NoError(t, err)
	assert.Empty(t, off.Render(testCamera(), lights, items).ShadowMatrices)

	on, err := New(Config{Width: 10, Height: 10, ShadowMap: true})
	require.NoError(t, err)
	f := on.Render(testCamera(), lights, items)
	require.Len(t, f.ShadowMatrices, 2)

	// every world corner of both boxes lands inside the light's clip volume
	for _, m := range f.ShadowMatrices {
		for _, it := range items {
			for _, c := range boxCorners(it.BoundMin, it.BoundMax) {
				p := m.Mul4x1(mgl32.TransformCoordinate(c, it.World).Vec4(1))
				for i := 0; i < 3; i++ {
					assert.LessOrEqual(t, p[i], float32(1.0001))
					assert.GreaterOrEqual(t, p[i], float32(-1.0001))
				}
			}
		}
	}

	hidden := items[0]
	hidden.Visible = false
	hidden2 := items[1]
	hidden2.Visible = false
	assert.Empty(t, on.Render(testCamera(), lights, []Drawable{hidden, hidden2}).ShadowMatrices)
}
