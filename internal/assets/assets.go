// Package assets resolves, parses and caches mesh files.
package assets

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/anchorview/internal/logger"
	"github.com/Faultbox/anchorview/pkg/encoding"
	"github.com/Faultbox/anchorview/pkg/formats"
	"github.com/Faultbox/anchorview/pkg/geometry"
)

var (
	ErrNotFound          = errors.New("asset not found")
	ErrUnsupportedFormat = errors.New("unsupported asset format")
)

// Part is one named geometry inside a mesh file.
type Part struct {
	Name     string
	Material string
	Geometry *geometry.Geometry
}

// Mesh is a parsed mesh file.
type Mesh struct {
	URL    string
	Path   string
	Format string
	Parts  []Part
}

// Part returns the part called name, or the first part when name is empty.
func (m *Mesh) Part(name string) (Part, bool) {
	if len(m.Parts) == 0 {
		return Part{}, false
	}
	if name == "" {
		return m.Parts[0], true
	}
	for _, p := range m.Parts {
		if p.Name == name {
			return p, true
		}
	}
	return Part{}, false
}

// Clone returns a deep copy; geometries are never shared between clones.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.Parts = make([]Part, len(m.Parts))
	for i, p := range m.Parts {
		c.Parts[i] = Part{Name: p.Name, Material: p.Material, Geometry: p.Geometry.Clone()}
	}
	return &c
}

// Result is delivered by LoadAsync.
type Result struct {
	Mesh *Mesh
	Err  error
}

// Manager loads meshes from a list of root directories.
type Manager struct {
	roots []string
	cache *Cache
	group singleflight.Group
	log   *zap.Logger
	mu    sync.RWMutex
}

// NewManager creates a manager searching roots.
func NewManager(roots ...string) *Manager {
	m := &Manager{
		cache: NewCache(),
		log:   logger.Named("assets"),
	}
	for _, r := range roots {
		m.roots = append(m.roots, filepath.Clean(r))
	}
	return m
}

// AddRoot adds a directory to the search path.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "adding root %s", dir)
	}
	if !info.IsDir() {
		return errors.Errorf("adding root %s: not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, filepath.Clean(dir))
	m.mu.Unlock()
	return nil
}

// Roots returns the search path in priority order.
func (m *Manager) Roots() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.roots))
	for i := len(m.roots) - 1; i >= 0; i-- {
		out = append(out, m.roots[i])
	}
	return out
}

// Resolve maps a URL such as "/three.obj" onto an existing file under one
// of the roots. URLs are always relative to a root; ".." elements stop at
// the root.
func (m *Manager) Resolve(url string) (string, error) {
	rel := path.Clean("/" + encoding.NormalizePath(filepath.ToSlash(url)))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		return "", errors.Wrapf(ErrNotFound, "resolve %q", url)
	}

	for _, root := range m.Roots() {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", errors.Wrapf(ErrNotFound, "resolve %q", url)
}

// Load resolves and parses url, returning a private copy of the mesh.
func (m *Manager) Load(ctx context.Context, url string) (*Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := m.Resolve(url)
	if err != nil {
		return nil, err
	}

	if mesh, ok := m.cache.Get(p); ok {
		return mesh.Clone(), nil
	}

	v, err, shared := m.group.Do(p, func() (interface{}, error) {
		mesh, err := parse(url, p)
		if err != nil {
			return nil, err
		}
		m.cache.Set(p, mesh)
		return mesh, nil
	})
	if err != nil {
		m.log.Warn("load failed", zap.String("url", url), zap.Error(err))
		return nil, err
	}
	mesh := v.(*Mesh)
	m.log.Debug("loaded",
		zap.String("url", url),
		zap.String("path", p),
		zap.Int("parts", len(mesh.Parts)),
		zap.Bool("shared", shared),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return mesh.Clone(), nil
}

// LoadAsync loads url in the background. The returned channel receives
// exactly one Result and is then closed.
func (m *Manager) LoadAsync(ctx context.Context, url string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		mesh, err := m.Load(ctx, url)
		ch <- Result{Mesh: mesh, Err: err}
	}()
	return ch
}

// Stats returns cache statistics.
func (m *Manager) Stats() CacheStats {
	return m.cache.Stats()
}

// Invalidate drops every cached mesh, e.g. after files changed on disk.
func (m *Manager) Invalidate() {
	m.cache.Clear()
}

func parse(url, p string) (*Mesh, error) {
	ext := strings.ToLower(filepath.Ext(p))
	mesh := &Mesh{URL: url, Path: p, Format: strings.TrimPrefix(ext, ".")}

	switch ext {
	case ".obj":
		obj, err := formats.LoadOBJ(p)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", url)
		}
		for _, o := range obj.Objects {
			mesh.Parts = append(mesh.Parts, Part{Name: o.Name, Material: o.Material, Geometry: o.Geometry})
		}
	case ".gltf", ".glb":
		prims, err := formats.LoadGLTF(p)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", url)
		}
		for _, pr := range prims {
			mesh.Parts = append(mesh.Parts, Part{Name: pr.Name, Material: pr.Material, Geometry: pr.Geometry})
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "parsing %s", url)
	}
	return mesh, nil
}
