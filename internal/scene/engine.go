package scene

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/anchorview/internal/assets"
	"github.com/Faultbox/anchorview/internal/engine/animation"
	"github.com/Faultbox/anchorview/internal/engine/camera"
	"github.com/Faultbox/anchorview/internal/engine/lighting"
	"github.com/Faultbox/anchorview/internal/engine/material"
	"github.com/Faultbox/anchorview/internal/engine/renderer"
	"github.com/Faultbox/anchorview/internal/engine/texture"
	"github.com/Faultbox/anchorview/internal/logger"
	"github.com/Faultbox/anchorview/pkg/geometry"
)

// Loader fetches mesh files and resolves texture URLs.
type Loader interface {
	LoadAsync(ctx context.Context, url string) <-chan assets.Result
	Resolve(url string) (string, error)
}

// Options configures a new engine.
type Options struct {
	Width  int
	Height int
}

// state is everything built from one document. Reload swaps it whole.
type state struct {
	configs map[string]Config
	order   []Config
	active  Active

	scenes   map[string]*Scene
	cameras  map[string]*camera.PerspectiveCamera
	controls map[string]*camera.OrbitControls

	images     map[string]*texture.ImageTexture
	cubes      map[string]*texture.CubeTexture
	geometries map[string]*geometry.Geometry
	materials  map[string]*material.Standard
	meshes     map[string]*Mesh
	ambient    map[string]*lighting.AmbientLight
	directs    map[string]*lighting.DirectionalLight
	anims      map[string]*animation.ScriptAnimation
	mixer      animation.Mixer

	renderCfg renderer.Config

	// preloaded holds mesh files fetched ahead of Apply, keyed by geometry id.
	preloaded map[string]*assets.Mesh
}

func newState(width, height int) *state {
	return &state{
		configs:    make(map[string]Config),
		scenes:     make(map[string]*Scene),
		cameras:    make(map[string]*camera.PerspectiveCamera),
		controls:   make(map[string]*camera.OrbitControls),
		images:     make(map[string]*texture.ImageTexture),
		cubes:      make(map[string]*texture.CubeTexture),
		geometries: make(map[string]*geometry.Geometry),
		materials:  make(map[string]*material.Standard),
		meshes:     make(map[string]*Mesh),
		ambient:    make(map[string]*lighting.AmbientLight),
		directs:    make(map[string]*lighting.DirectionalLight),
		anims:      make(map[string]*animation.ScriptAnimation),
		renderCfg:  renderer.DefaultConfig(width, height),
		preloaded:  make(map[string]*assets.Mesh),
	}
}

// Engine owns the entities built from configuration records and advances
// them each tick. It implements the loop's Stage.
type Engine struct {
	mu       sync.RWMutex
	loader   Loader
	renderer *renderer.Renderer
	opts     Options
	st       *state
	log      *zap.Logger
}

// New creates an empty engine.
func New(loader Loader, opts Options) (*Engine, error) {
	r, err := renderer.New(renderer.DefaultConfig(opts.Width, opts.Height))
	if err != nil {
		return nil, err
	}
	return &Engine{
		loader:   loader,
		renderer: r,
		opts:     opts,
		st:       newState(opts.Width, opts.Height),
		log:      logger.Named("scene"),
	}, nil
}

// Apply builds the entity described by cfg.
func (e *Engine) Apply(cfg Config) error {
	return e.ApplyContext(context.Background(), cfg)
}

// ApplyContext is Apply with a context bounding any asset load.
func (e *Engine) ApplyContext(ctx context.Context, cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.apply(ctx, e.st, cfg); err != nil {
		return err
	}
	e.renderer.SetConfig(e.st.renderCfg)
	return nil
}

// Load builds every record of doc into a fresh state and swaps it in.
// Mesh files are fetched concurrently before any record is applied. On
// error the current state is kept.
func (e *Engine) Load(ctx context.Context, doc *Document) error {
	start := time.Now()
	st := newState(e.opts.Width, e.opts.Height)

	if err := e.preload(ctx, st, doc); err != nil {
		return err
	}

	cfgs := append([]Config(nil), doc.Configs...)
	sortByModule(cfgs)
	for _, cfg := range cfgs {
		if err := e.apply(ctx, st, cfg); err != nil {
			return err
		}
	}
	if err := st.setActive(doc.Active); err != nil {
		return err
	}
	st.order = append([]Config(nil), doc.Configs...)
	st.preloaded = nil

	e.mu.Lock()
	e.st = st
	e.renderer.SetConfig(st.renderCfg)
	e.mu.Unlock()

	e.log.Info("scene loaded",
		zap.Int("configs", len(doc.Configs)),
		zap.Int("meshes", len(st.meshes)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (e *Engine) preload(ctx context.Context, st *state, doc *Document) error {
	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for _, cfg := range doc.Configs {
		gc, ok := cfg.(*LoadGeometryConfig)
		if !ok {
			continue
		}
		g.Go(func() error {
			res := <-e.loader.LoadAsync(ctx, gc.URL)
			if res.Err != nil {
				return fmt.Errorf("geometry %s: %w", gc.ID(), res.Err)
			}
			mu.Lock()
			st.preloaded[gc.ID()] = res.Mesh
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// Update advances controls and animations by dt.
func (e *Engine) Update(dt time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.st
	if ctl, ok := st.controls[st.active.Camera]; ok {
		ctl.Update(dt)
	}
	st.mixer.Update(dt)
	return nil
}

// Render draws the active scene through the active camera.
func (e *Engine) Render() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := e.st
	sc := st.scenes[st.active.Scene]
	cam := st.cameras[st.active.Camera]
	if sc == nil {
		e.renderer.Render(cam, nil, nil)
		return nil
	}

	items := make([]renderer.Drawable, 0, len(sc.Meshes))
	for _, m := range sc.Meshes {
		box := m.Geometry.BoundingBox
		items = append(items, renderer.Drawable{
			ID:       m.ID,
			World:    m.Matrix(),
			BoundMin: box.Min.Array(),
			BoundMax: box.Max.Array(),
			Material: m.Material,
			Visible:  m.Visible,
		})
	}
	e.renderer.Render(cam, sc.Lights, items)
	return nil
}

// Frame returns the last rendered frame.
func (e *Engine) Frame() renderer.Frame {
	return e.renderer.Frame()
}

// Resize changes the viewport and every camera's aspect ratio.
func (e *Engine) Resize(width, height int) error {
	if err := e.renderer.Resize(width, height); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Width, e.opts.Height = width, height
	e.st.renderCfg.Width, e.st.renderCfg.Height = width, height
	for _, c := range e.st.cameras {
		c.SetAspect(width, height)
	}
	return nil
}

// SetActive selects the scene and camera to render.
func (e *Engine) SetActive(a Active) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.setActive(a)
}

// Active returns the active scene and camera ids.
func (e *Engine) Active() Active {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.active
}

// Scene returns the scene with id.
func (e *Engine) Scene(id string) (*Scene, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.st.scenes[id]
	return s, ok
}

// Mesh returns the mesh with id.
func (e *Engine) Mesh(id string) (*Mesh, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.st.meshes[id]
	return m, ok
}

// Geometry returns the anchored geometry with id.
func (e *Engine) Geometry(id string) (*geometry.Geometry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g, ok := e.st.geometries[id]
	return g, ok
}

// Camera returns the camera with id.
func (e *Engine) Camera(id string) (*camera.PerspectiveCamera, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.st.cameras[id]
	return c, ok
}

// Controls returns the orbit controls attached to camera id.
func (e *Engine) Controls(cameraID string) (*camera.OrbitControls, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.st.controls[cameraID]
	return c, ok
}

// Animation returns the animation with id.
func (e *Engine) Animation(id string) (*animation.ScriptAnimation, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.st.anims[id]
	return a, ok
}

// RendererConfig returns the renderer settings in effect.
func (e *Engine) RendererConfig() renderer.Config {
	return e.renderer.Config()
}

func (st *state) setActive(a Active) error {
	if a.Scene != "" {
		if _, ok := st.scenes[a.Scene]; !ok {
			return fmt.Errorf("active scene %q: %w", a.Scene, ErrUnresolvedRef)
		}
		st.active.Scene = a.Scene
	}
	if a.Camera != "" {
		if _, ok := st.cameras[a.Camera]; !ok {
			return fmt.Errorf("active camera %q: %w", a.Camera, ErrUnresolvedRef)
		}
		st.active.Camera = a.Camera
	}
	return nil
}
