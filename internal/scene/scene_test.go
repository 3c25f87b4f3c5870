package scene

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/anchorview/internal/assets"
	"github.com/Faultbox/anchorview/internal/engine/animation"
	"github.com/Faultbox/anchorview/internal/engine/material"
	"github.com/Faultbox/anchorview/internal/engine/renderer"
)

// textureRoot writes the images the test document refers to.
func textureRoot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name string, size int) {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		f, err := os.Create(p)
		require.NoError(t, err)
		defer f.Close()
		require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, size, size))))
	}
	for _, face := range []string{"px", "nx", "py", "ny", "pz", "nz"} {
		write("lightblue/"+face+".png", 8)
	}
	write("colorMap.png", 16)
	return dir
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	m := assets.NewManager("testdata", textureRoot(t))
	e, err := New(m, Options{Width: 1280, Height: 720})
	require.NoError(t, err)
	return e
}

func loadTestDocument(t *testing.T) (*Engine, *Document) {
	t.Helper()
	doc, err := LoadDocument(filepath.Join("testdata", "scene.yaml"))
	require.NoError(t, err)
	e := newTestEngine(t)
	require.NoError(t, e.Load(context.Background(), doc))
	return e, doc
}

func decodeYAML(t *testing.T, src string) (Config, error) {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &node))
	return Decode(node.Content[0])
}

func TestDecode(t *testing.T) {
	tests := []struct {
		src  string
		kind Kind
	}{
		{"{type: Scene, vid: s}", KindScene},
		{"{type: PerspectiveCamera, vid: c, fov: 60}", KindPerspectiveCamera},
		{"{type: WebGLRenderer, vid: r}", KindWebGLRenderer},
		{"{type: OrbitControls, vid: o}", KindOrbitControls},
		{"{type: AmbientLight, vid: a}", KindAmbientLight},
		{"{type: DirectionalLight, vid: d}", KindDirectionalLight},
		{"{type: ImageTexture, vid: i, url: /a.png}", KindImageTexture},
		{"{type: CubeTexture, vid: c}", KindCubeTexture},
		{"{type: LoadGeometry, vid: g, url: /a.obj}", KindLoadGeometry},
		{"{type: MeshStandardMaterial, vid: m}", KindMeshStandardMaterial},
		{"{type: Mesh, vid: m, geometry: g, material: m}", KindMesh},
		{"{type: ScriptAnimation, vid: a}", KindScriptAnimation},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			cfg, err := decodeYAML(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cfg.Kind())
			assert.True(t, cfg.Kind().Valid())
			assert.NotEmpty(t, cfg.Kind().Module())
		})
	}

	cfg, err := decodeYAML(t, "{type: PerspectiveCamera, vid: c, fov: 60, position: {x: 1, y: 2, z: 3}}")
	require.NoError(t, err)
	cam := cfg.(*PerspectiveCameraConfig)
	assert.Equal(t, float32(60), cam.FOV)
	assert.Equal(t, Vector3{1, 2, 3}, cam.Position)
	assert.Equal(t, "c", cam.ID())
}

func TestDecodeErrors(t *testing.T) {
	_, err := decodeYAML(t, "{type: PointLight, vid: p}")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = decodeYAML(t, "{vid: p}")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = decodeYAML(t, "{type: Scene}")
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = decodeYAML(t, "{type: PerspectiveCamera, vid: c, fov: wide}")
	assert.Error(t, err)
}

func TestLoadGeometryAnchorDefaults(t *testing.T) {
	cfg, err := decodeYAML(t, "{type: LoadGeometry, vid: g, url: /a.obj, rotation: {x: 1}, position: {y: -0.5}, scale: {z: 3}}")
	require.NoError(t, err)

	a := cfg.(*LoadGeometryConfig).Anchor()
	assert.Equal(t, float32(1), a.Rotation.X)
	assert.Zero(t, a.Rotation.Y)
	assert.Zero(t, a.Rotation.Z)
	assert.Equal(t, float32(-0.5), a.Position.Y)
	assert.Zero(t, a.Position.X)
	assert.Equal(t, float32(1), a.Scale.X)
	assert.Equal(t, float32(1), a.Scale.Y)
	assert.Equal(t, float32(3), a.Scale.Z)

	bare := (&LoadGeometryConfig{}).Anchor()
	assert.Equal(t, float32(1), bare.Scale.X)
	assert.NoError(t, bare.Validate())
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"wrong module", "scene:\n  - {type: Mesh, vid: m}\n", ErrInvalidConfig},
		{"duplicate id", "scene:\n  - {type: Scene, vid: a}\ncamera:\n  - {type: PerspectiveCamera, vid: a}\n", ErrDuplicateID},
		{"unknown module", "lights:\n  - {type: AmbientLight, vid: a}\n", ErrUnknownKind},
		{"unknown kind", "light:\n  - {type: SpotLight, vid: a}\n", ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.src))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseDocumentJSON(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"scene":[{"type":"Scene","vid":"s"}],"camera":[{"type":"PerspectiveCamera","vid":"c","position":{"x":1,"y":2,"z":3}}]}`))
	require.NoError(t, err)
	require.Len(t, doc.Configs, 2)

	c, ok := doc.Find("c")
	require.True(t, ok)
	assert.Equal(t, KindPerspectiveCamera, c.Kind())
}

func TestEngineLoadsDocument(t *testing.T) {
	e, _ := loadTestDocument(t)

	assert.Equal(t, Active{Scene: "main", Camera: "cam"}, e.Active())

	sc, ok := e.Scene("main")
	require.True(t, ok)
	assert.Len(t, sc.Meshes, 2)
	assert.Len(t, sc.Lights.Ambient, 1)
	assert.Len(t, sc.Lights.Directional, 2)
	require.NotNil(t, sc.BackgroundCube)
	assert.Equal(t, 8, sc.BackgroundCube.Size())
	assert.Same(t, sc.BackgroundCube, sc.Environment)

	g, ok := e.Geometry("threeGeometry")
	require.True(t, ok)
	assert.InDelta(t, -69.6, g.BoundingBox.Min.X, 1e-2)
	assert.InDelta(t, -91.2, g.BoundingBox.Min.Y, 1e-2)
	assert.InDelta(t, -80, g.BoundingBox.Min.Z, 1e-2)
	assert.InDelta(t, 90.4, g.BoundingBox.Max.X, 1e-2)
	assert.InDelta(t, 68.8, g.BoundingBox.Max.Y, 1e-2)
	assert.InDelta(t, 80, g.BoundingBox.Max.Z, 1e-2)

	vis, ok := e.Geometry("visGeometry")
	require.True(t, ok)
	size := vis.BoundingBox.Size()
	assert.InDelta(t, 24, size.X, 1e-3)
	assert.InDelta(t, 12, size.Y, 1e-3)
	assert.InDelta(t, 6, size.Z, 1e-3)
	assert.InDelta(t, 0, vis.BoundingBox.Center().X, 1e-3)

	mesh, ok := e.Mesh("visMesh")
	require.True(t, ok)
	assert.True(t, mesh.Material.Transparent)
	assert.Equal(t, float32(0.8), mesh.Material.Opacity)
	require.NotNil(t, mesh.Material.Map)
	assert.Equal(t, 16, mesh.Material.Map.Info.Width)

	ctl, ok := e.Controls("cam")
	require.True(t, ok)
	assert.True(t, ctl.AutoRotate)
	assert.Equal(t, float32(0.5), ctl.AutoRotateSpeed)
	assert.False(t, ctl.EnablePan)
	assert.Equal(t, float32(100), ctl.MinDistance)
	assert.Equal(t, float32(200), ctl.MaxDistance)

	rc := e.RendererConfig()
	assert.Equal(t, renderer.ReinhardToneMapping, rc.ToneMapping)
	assert.Equal(t, float32(3), rc.Exposure)
	assert.True(t, rc.PhysicallyCorrectLights)
	assert.InDelta(t, 10.0/255, rc.ClearColor.R, 1e-4)

	cam, ok := e.Camera("cam")
	require.True(t, ok)
	assert.InDelta(t, 1280.0/720.0, cam.Aspect, 1e-4)
	assert.Equal(t, float32(0.01), cam.Near)
}

func TestEngineUpdateAndRender(t *testing.T) {
	e, _ := loadTestDocument(t)
	cam, _ := e.Camera("cam")
	start := cam.Position

	for i := 0; i < 10; i++ {
		require.NoError(t, e.Update(100*time.Millisecond))
	}
	require.NoError(t, e.Render())

	three, _ := e.Mesh("threeMesh")
	vis, _ := e.Mesh("visMesh")
	assert.InDelta(t, 0.2, three.Rotation[2], 1e-4)
	assert.InDelta(t, 0.7, vis.Rotation[1], 1e-4)

	assert.False(t, cam.Position.ApproxEqualThreshold(start, 1e-4), "auto rotate moved the camera")
	assert.InDelta(t, start.Sub(cam.Target).Len(), cam.Distance(), 1e-1)

	f := e.Frame()
	assert.Equal(t, uint64(1), f.Index)
	require.Len(t, f.Objects, 2)
	// Opaque chrome draws before the transparent glass.
	assert.Equal(t, "threeMesh", f.Objects[0].ID)
	assert.Equal(t, "visMesh", f.Objects[1].ID)
	assert.True(t, f.Objects[0].InView)
	assert.Equal(t, 3, f.Lights)
}

func TestApplyIncrementally(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Apply(&SceneConfig{Meta: Meta{VID: "s"}}))
	require.NoError(t, e.Apply(&PerspectiveCameraConfig{Meta: Meta{VID: "c"}, Position: Vector3{0, 0, 10}}))
	require.NoError(t, e.Apply(&LoadGeometryConfig{Meta: Meta{VID: "g"}, URL: "/cube.obj"}))
	require.NoError(t, e.Apply(&MeshStandardMaterialConfig{Meta: Meta{VID: "m"}}))
	require.NoError(t, e.Apply(&MeshConfig{Meta: Meta{VID: "box"}, Geometry: "g", Material: "m"}))

	assert.Equal(t, Active{Scene: "s", Camera: "c"}, e.Active())
	mesh, ok := e.Mesh("box")
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, mesh.Scale)

	err := e.Apply(&SceneConfig{Meta: Meta{VID: "s"}})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

type foreignConfig struct{ Meta }

func (*foreignConfig) Kind() Kind { return "Foreign" }

func TestApplyErrors(t *testing.T) {
	opacity := float32(3)
	tests := []struct {
		name string
		cfgs []Config
		want error
	}{
		{"unknown kind", []Config{&foreignConfig{Meta{VID: "x"}}}, ErrUnknownKind},
		{"missing id", []Config{&SceneConfig{}}, ErrMissingID},
		{"light without scene", []Config{&AmbientLightConfig{Meta: Meta{VID: "a"}}}, ErrUnresolvedRef},
		{"controls without camera", []Config{&OrbitControlsConfig{Meta: Meta{VID: "o"}}}, ErrUnresolvedRef},
		{"mesh missing geometry", []Config{
			&SceneConfig{Meta: Meta{VID: "s"}},
			&MeshStandardMaterialConfig{Meta: Meta{VID: "m"}},
			&MeshConfig{Meta: Meta{VID: "x"}, Geometry: "nope", Material: "m"},
		}, ErrUnresolvedRef},
		{"material missing map", []Config{
			&MeshStandardMaterialConfig{Meta: Meta{VID: "m"}, Map: "nope"},
		}, ErrUnresolvedRef},
		{"animation missing target", []Config{
			&ScriptAnimationConfig{Meta: Meta{VID: "a"}, Target: "nope"},
		}, ErrUnresolvedRef},
		{"scene bad background", []Config{
			&SceneConfig{Meta: Meta{VID: "s"}, Background: "nope"},
		}, ErrUnresolvedRef},
		{"bad opacity", []Config{
			&MeshStandardMaterialConfig{Meta: Meta{VID: "m"}, Opacity: &opacity},
		}, material.ErrOutOfRange},
		{"bad tone mapping", []Config{
			&RendererConfig{Meta: Meta{VID: "r"}, ToneMapping: "filmic"},
		}, ErrInvalidConfig},
		{"missing asset", []Config{
			&LoadGeometryConfig{Meta: Meta{VID: "g"}, URL: "/missing.obj"},
		}, assets.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			var err error
			for _, cfg := range tt.cfgs {
				if err = e.Apply(cfg); err != nil {
					break
				}
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestApplyRejectsUnknownScript(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Apply(&SceneConfig{Meta: Meta{VID: "s"}}))
	require.NoError(t, e.Apply(&LoadGeometryConfig{Meta: Meta{VID: "g"}, URL: "/cube.obj"}))
	require.NoError(t, e.Apply(&MeshStandardMaterialConfig{Meta: Meta{VID: "m"}}))
	require.NoError(t, e.Apply(&MeshConfig{Meta: Meta{VID: "x"}, Geometry: "g", Material: "m"}))

	err := e.Apply(&ScriptAnimationConfig{
		Meta:      Meta{VID: "a"},
		Target:    "x",
		Attribute: ".rotation.z",
		Script:    animation.ScriptConfig{Name: "bounce"},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, animation.ErrUnknownScript)
}

func TestLoadFailureKeepsState(t *testing.T) {
	e, _ := loadTestDocument(t)

	bad := &Document{Configs: []Config{
		&SceneConfig{Meta: Meta{VID: "other"}},
		&LoadGeometryConfig{Meta: Meta{VID: "g"}, URL: "/missing.obj"},
	}}
	assert.ErrorIs(t, e.Load(context.Background(), bad), assets.ErrNotFound)

	_, ok := e.Mesh("threeMesh")
	assert.True(t, ok)
	assert.Equal(t, "main", e.Active().Scene)
}

func TestSnapshotRoundTrip(t *testing.T) {
	e, _ := loadTestDocument(t)
	require.NoError(t, e.Update(time.Second))

	snap := e.Snapshot()
	require.Len(t, snap.Meshes, 2)
	assert.Equal(t, "threeMesh", snap.Meshes[0].ID)

	// The snapshot geometry is a copy.
	g, _ := e.Geometry("threeGeometry")
	assert.NotSame(t, g, snap.Meshes[0].Geometry)

	data, err := json.Marshal(snap.Document)
	require.NoError(t, err)

	var grouped map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &grouped))
	for _, module := range []string{"active", "texture", "scene", "camera", "renderer", "controls", "light", "geometry", "material", "mesh", "animation"} {
		assert.Contains(t, grouped, module)
	}

	doc, err := ParseDocument(data)
	require.NoError(t, err)
	assert.Len(t, doc.Configs, len(snap.Document.Configs))

	reloaded := newTestEngine(t)
	require.NoError(t, reloaded.Load(context.Background(), doc))

	orig, _ := e.Mesh("threeMesh")
	again, ok := reloaded.Mesh("threeMesh")
	require.True(t, ok)
	assert.InDelta(t, orig.Rotation[2], again.Rotation[2], 1e-6)
	assert.InDelta(t, 0.2, again.Rotation[2], 1e-4)

	cam, _ := e.Camera("cam")
	cam2, _ := reloaded.Camera("cam")
	assert.True(t, cam.Position.ApproxEqualThreshold(cam2.Position, 1e-4))

	// Re-anchoring the reloaded document gives the same geometry.
	g2, _ := reloaded.Geometry("threeGeometry")
	assert.InDelta(t, g.BoundingBox.Min.X, g2.BoundingBox.Min.X, 1e-3)
}

func TestSnapshotYAML(t *testing.T) {
	e, _ := loadTestDocument(t)
	out, err := yaml.Marshal(e.Document())
	require.NoError(t, err)

	doc, err := ParseDocument(out)
	require.NoError(t, err)
	_, ok := doc.Find("spinVis")
	assert.True(t, ok)
}

func TestResize(t *testing.T) {
	e, _ := loadTestDocument(t)
	require.NoError(t, e.Resize(400, 400))

	cam, _ := e.Camera("cam")
	assert.Equal(t, float32(1), cam.Aspect)
	assert.Equal(t, 400, e.RendererConfig().Width)
	assert.Error(t, e.Resize(0, 10))
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(doc, []byte("scene: []\n"), 0o644))

	w, err := NewWatcher(20 * time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.AddFile(doc))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan struct{}, 4)
	go func() {
		_ = w.Run(ctx, func() { changes <- struct{}{} })
	}()

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	select {
	case <-changes:
		t.Fatal("unexpected change for unrelated file")
	case <-time.After(100 * time.Millisecond):
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(doc, []byte("scene: []\n"), 0o644))
	}
	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestPick(t *testing.T) {
	doc, err := ParseDocument([]byte(`
scene:
  - {type: Scene, vid: main}
camera:
  - {type: PerspectiveCamera, vid: cam, position: {x: 0, y: 0, z: 20}}
geometry:
  - {type: LoadGeometry, vid: cube, url: /cube.obj}
material:
  - {type: MeshStandardMaterial, vid: plain}
mesh:
  - {type: Mesh, vid: center, geometry: cube, material: plain}
  - {type: Mesh, vid: behind, geometry: cube, material: plain, position: {z: -10}}
  - {type: Mesh, vid: aside, geometry: cube, material: plain, position: {x: 6}}
`))
	require.NoError(t, err)
	e := newTestEngine(t)
	require.NoError(t, e.Load(context.Background(), doc))

	hits := e.Pick(640, 360)
	require.Len(t, hits, 2)
	assert.Equal(t, "center", hits[0].ID)
	assert.InDelta(t, 19, hits[0].Distance, 0.2)
	assert.Equal(t, "behind", hits[1].ID)

	mesh, ok := e.Mesh("center")
	require.True(t, ok)
	mesh.Visible = false
	hits = e.Pick(640, 360)
	require.Len(t, hits, 1)
	assert.Equal(t, "behind", hits[0].ID)

	assert.Empty(t, e.Pick(0, 0))
}
