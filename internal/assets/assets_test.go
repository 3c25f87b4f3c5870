package assets

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/anchorview/pkg/formats"
	"github.com/Faultbox/anchorview/pkg/geometry"
	"github.com/Faultbox/anchorview/pkg/math"
)

const triangleOBJ = `o tri
v 0 0 0
v 2 0 0
v 0 2 0
f 1 2 3
o other
v 0 0 1
v 1 0 1
v 0 1 1
f 4 5 6
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestResolve(t *testing.T) {
	low := t.TempDir()
	high := t.TempDir()
	writeFile(t, low, "a.obj", triangleOBJ)
	writeFile(t, low, "shared.obj", triangleOBJ)
	writeFile(t, high, "shared.obj", triangleOBJ)
	writeFile(t, high, "models/b.obj", triangleOBJ)

	m := NewManager(low)
	require.NoError(t, m.AddRoot(high))
	assert.Equal(t, []string{filepath.Clean(high), filepath.Clean(low)}, m.Roots())

	tests := []struct {
		url  string
		want string
	}{
		{"/a.obj", filepath.Join(low, "a.obj")},
		{"a.obj", filepath.Join(low, "a.obj")},
		{"/shared.obj", filepath.Join(high, "shared.obj")},
		{"/models/b.obj", filepath.Join(high, "models", "b.obj")},
		{"/models/../a.obj", filepath.Join(low, "a.obj")},
		{"/../../a.obj", filepath.Join(low, "a.obj")},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := m.Resolve(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, url := range []string{"/missing.obj", "/", "/models"} {
		_, err := m.Resolve(url)
		assert.True(t, errors.Is(err, ErrNotFound), "%s: %v", url, err)
	}
}

func TestAddRootErrors(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "x.obj", triangleOBJ)

	m := NewManager()
	assert.Error(t, m.AddRoot(filepath.Join(dir, "nope")))
	assert.Error(t, m.AddRoot(file))
}

func TestLoadOBJ(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tri.obj", triangleOBJ)
	m := NewManager(dir)

	mesh, err := m.Load(context.Background(), "/tri.obj")
	require.NoError(t, err)
	assert.Equal(t, "obj", mesh.Format)
	require.Len(t, mesh.Parts, 2)

	first, ok := mesh.Part("")
	require.True(t, ok)
	assert.Equal(t, "tri", first.Name)
	assert.Equal(t, 3, first.Geometry.VertexCount())

	other, ok := mesh.Part("other")
	require.True(t, ok)
	assert.Equal(t, float32(1), other.Geometry.BoundingBox.Max.Z)

	_, ok = mesh.Part("nope")
	assert.False(t, ok)
}

func TestLoadReturnsPrivateCopies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tri.obj", triangleOBJ)
	m := NewManager(dir)
	ctx := context.Background()

	a, err := m.Load(ctx, "/tri.obj")
	require.NoError(t, err)
	_, err = geometry.Anchor(a.Parts[0].Geometry, geometry.AnchorConfig{
		Rotation: math.Euler{X: 1},
		Scale:    math.V3(80, 80, 80),
	})
	require.NoError(t, err)

	b, err := m.Load(ctx, "/tri.obj")
	require.NoError(t, err)
	assert.Equal(t, math.V3(0, 0, 0), b.Parts[0].Geometry.Positions[0])
	assert.Equal(t, math.V3(2, 0, 0), b.Parts[0].Geometry.Positions[1])

	stats := m.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)

	m.Invalidate()
	assert.Equal(t, CacheStats{}, m.Stats())
}

func TestLoadGLB(t *testing.T) {
	dir := t.TempDir()
	g := geometry.New([]math.Vec3{math.V3(0, 0, 0), math.V3(1, 0, 0), math.V3(0, 1, 0)})

	doc := gltf.NewDocument()
	formats.AppendGLTFMesh(doc, g, nil)
	require.NoError(t, gltf.SaveBinary(doc, filepath.Join(dir, "tri.glb")))

	m := NewManager(dir)
	mesh, err := m.Load(context.Background(), "/tri.glb")
	require.NoError(t, err)
	assert.Equal(t, "glb", mesh.Format)
	require.Len(t, mesh.Parts, 1)
	assert.Equal(t, 3, mesh.Parts[0].Geometry.VertexCount())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scene.fbx", "binary")
	writeFile(t, dir, "broken.obj", "f 1 2 3\n")
	m := NewManager(dir)
	ctx := context.Background()

	_, err := m.Load(ctx, "/scene.fbx")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat), "%v", err)

	_, err = m.Load(ctx, "/broken.obj")
	assert.True(t, errors.Is(err, formats.ErrInvalidOBJ), "%v", err)

	_, err = m.Load(ctx, "/missing.obj")
	assert.True(t, errors.Is(err, ErrNotFound), "%v", err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.Load(cancelled, "/broken.obj")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadAsync(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tri.obj", triangleOBJ)
	m := NewManager(dir)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch := m.LoadAsync(ctx, "/tri.obj")
			results[i] = <-ch
			_, open := <-ch
			assert.False(t, open)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NoError(t, r.Err)
		require.Len(t, r.Mesh.Parts, 2)
	}
	// Every caller got its own geometry.
	assert.NotSame(t, results[0].Mesh.Parts[0].Geometry, results[1].Mesh.Parts[0].Geometry)
	assert.Equal(t, 1, m.Stats().Entries)

	r := <-m.LoadAsync(ctx, "/missing.obj")
	assert.Nil(t, r.Mesh)
	assert.True(t, errors.Is(r.Err, ErrNotFound))
}
