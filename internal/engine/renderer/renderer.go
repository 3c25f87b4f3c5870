// Package renderer provides the headless renderer. It runs the per-frame
// transform pipeline of a forward renderer (model-view-projection, frustum
// test, draw ordering, shading inputs) and publishes the result as a Frame
// instead of rasterizing.
package renderer

import (
	"errors"
	"fmt"
	gomath "math"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/anchorview/internal/engine/camera"
	"github.com/Faultbox/anchorview/internal/engine/color"
	"github.com/Faultbox/anchorview/internal/engine/lighting"
	"github.com/Faultbox/anchorview/internal/engine/material"
	"github.com/Faultbox/anchorview/internal/engine/shadow"
	"github.com/Faultbox/anchorview/internal/logger"
)

// ErrInvalidSize is returned for a non-positive viewport.
var ErrInvalidSize = errors.New("invalid viewport size")

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int

	ClearColor              color.Color
	ToneMapping             ToneMapping
	Exposure                float32
	PhysicallyCorrectLights bool
	ShadowMap               bool
}

// DefaultConfig returns a black-clearing, untone-mapped renderer config.
func DefaultConfig(width, height int) Config {
	return Config{
		Width:      width,
		Height:     height,
		ClearColor: color.Black,
		Exposure:   1,
	}
}

// Drawable is one object submitted for a frame.
type Drawable struct {
	ID       string
	World    mgl32.Mat4
	BoundMin mgl32.Vec3 // local-space bounding box
	BoundMax mgl32.Vec3
	Material *material.Standard
	Visible  bool
}

// Renderer produces frames. It is safe for concurrent use: Render is called
// from the loop while Frame and Resize come from request handlers.
type Renderer struct {
	mu     sync.RWMutex
	config Config
	frame  Frame
	index  uint64
	start  time.Time
	log    *zap.Logger
}

// New creates a new renderer.
func New(cfg Config) (*Renderer, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, cfg.Width, cfg.Height)
	}
	if cfg.Exposure == 0 {
		cfg.Exposure = 1
	}

	r := &Renderer{
		config: cfg,
		start:  time.Now(),
		log:    logger.Named("renderer"),
	}
	r.log.Info("renderer initialized",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Stringer("tone_mapping", cfg.ToneMapping),
		zap.Float32("exposure", cfg.Exposure),
	)
	return r, nil
}

// Config returns the current configuration.
func (r *Renderer) Config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// SetConfig replaces the configuration, keeping the viewport size.
func (r *Renderer) SetConfig(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg.Width, cfg.Height = r.config.Width, r.config.Height
	if cfg.Exposure == 0 {
		cfg.Exposure = 1
	}
	r.config = cfg
}

// Resize handles viewport resize.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	r.mu.Lock()
	r.config.Width = width
	r.config.Height = height
	r.mu.Unlock()

	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return nil
}

// Frame returns the most recently rendered frame.
func (r *Renderer) Frame() Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frame
}

// Render runs the pipeline for one frame and stores the result.
func (r *Renderer) Render(cam *camera.PerspectiveCamera, lights *lighting.Set, items []Drawable) Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg := r.config
	r.index++

	f := Frame{
		Index:   r.index,
		Time:    time.Since(r.start),
		Width:   cfg.Width,
		Height:  cfg.Height,
		Clear:   cfg.ToneMapping.Apply(cfg.ClearColor.Linear(), cfg.Exposure).Array(),
		Shadows: cfg.ShadowMap,
	}

	if cam == nil {
		r.frame = f
		return f
	}

	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix()
	viewProj := proj.Mul4(view)
	f.Camera = CameraFrame{
		Position:   cam.Position,
		Target:     cam.Target,
		View:       view,
		Projection: proj,
	}

	if lights != nil {
		f.Lights = lights.Count()
	}

	for _, it := range items {
		if !it.Visible {
			continue
		}
		obj := r.project(it, viewProj, view, cfg)
		if lights != nil {
			obj.Shade = r.shade(it, lights, cam, cfg)
		}
		f.Objects = append(f.Objects, obj)
	}

	if cfg.ShadowMap && lights != nil && len(lights.Directional) > 0 {
		f.ShadowMatrices = shadowMatrices(lights, items)
	}

	sortDrawOrder(f.Objects)
	r.frame = f
	return f
}

// project computes clip-space data for one drawable.
func (r *Renderer) project(it Drawable, viewProj, view mgl32.Mat4, cfg Config) ObjectFrame {
	mvp := viewProj.Mul4(it.World)
	obj := ObjectFrame{
		ID:        it.ID,
		MVP:       mvp,
		ScreenMin: [2]float32{float32(gomath.Inf(1)), float32(gomath.Inf(1))},
		ScreenMax: [2]float32{float32(gomath.Inf(-1)), float32(gomath.Inf(-1))},
		BoundMin:  it.BoundMin,
		BoundMax:  it.BoundMax,
	}
	if it.Material != nil {
		obj.Blended = it.Material.IsBlended()
	}

	center := it.BoundMin.Add(it.BoundMax).Mul(0.5)
	eye := view.Mul4(it.World).Mul4x1(center.Vec4(1))
	obj.Depth = -eye[2]

	projected := 0
	for _, corner := range boxCorners(it.BoundMin, it.BoundMax) {
		clip := mvp.Mul4x1(corner.Vec4(1))
		if clip[3] <= 0 {
			continue
		}
		ndc := clip.Vec3().Mul(1 / clip[3])
		if gomath.Abs(float64(ndc[0])) <= 1 && gomath.Abs(float64(ndc[1])) <= 1 && ndc[2] >= -1 && ndc[2] <= 1 {
			obj.InView = true
		}
		sx := (ndc[0] + 1) / 2 * float32(cfg.Width)
		sy := (1 - ndc[1]) / 2 * float32(cfg.Height)
		obj.ScreenMin = [2]float32{min(obj.ScreenMin[0], sx), min(obj.ScreenMin[1], sy)}
		obj.ScreenMax = [2]float32{max(obj.ScreenMax[0], sx), max(obj.ScreenMax[1], sy)}
		projected++
	}
	if projected == 0 {
		obj.ScreenMin, obj.ScreenMax = [2]float32{}, [2]float32{}
	}
	return obj
}

// shade evaluates the lit, tone-mapped base color of the face pointing at
// the camera. Metallic surfaces take no diffuse light.
func (r *Renderer) shade(it Drawable, lights *lighting.Set, cam *camera.PerspectiveCamera, cfg Config) [3]float32 {
	base := color.White
	metal := float32(0)
	if it.Material != nil {
		base = it.Material.Color
		metal = it.Material.Metalness
	}
	center := it.World.Mul4x1(it.BoundMin.Add(it.BoundMax).Mul(0.5).Vec4(1)).Vec3()
	normal := cam.Position.Sub(center)

	irr := lights.Irradiance(normal)
	if !cfg.PhysicallyCorrectLights {
		// Legacy lighting mode scales punctual lights by pi.
		irr = irr.Scale(gomath.Pi)
	}
	lin := base.Linear()
	diffuse := (1 - metal) / gomath.Pi
	c := color.Color{
		R: lin.R * irr.R * diffuse,
		G: lin.G * irr.G * diffuse,
		B: lin.B * irr.B * diffuse,
		A: 1,
	}
	return cfg.ToneMapping.Apply(c, cfg.Exposure).RGB()
}

// shadowMatrices fits every visible drawable into the shadow map of each
// directional light. The result is nil when nothing is visible.
func shadowMatrices(lights *lighting.Set, items []Drawable) []mgl32.Mat4 {
	bounds := shadow.EmptyAABB()
	for _, it := range items {
		if !it.Visible {
			continue
		}
		for _, c := range boxCorners(it.BoundMin, it.BoundMax) {
			p := mgl32.TransformCoordinate(c, it.World)
			bounds = bounds.Extend(shadow.AABB{Min: p, Max: p})
		}
	}
	if bounds.Empty() {
		return nil
	}

	out := make([]mgl32.Mat4, 0, len(lights.Directional))
	for _, l := range lights.Directional {
		out = append(out, shadow.DirectionalLightMatrix(l.Direction().Mul(-1), bounds))
	}
	return out
}

func boxCorners(lo, hi mgl32.Vec3) [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]},
		{lo[0], hi[1], lo[2]}, {hi[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]}, {hi[0], lo[1], hi[2]},
		{lo[0], hi[1], hi[2]}, {hi[0], hi[1], hi[2]},
	}
}

// sortDrawOrder puts opaque objects first, front to back, then blended
// objects back to front.
func sortDrawOrder(objs []ObjectFrame) {
	sort.SliceStable(objs, func(i, j int) bool {
		a, b := objs[i], objs[j]
		if a.Blended != b.Blended {
			return !a.Blended
		}
		if a.Blended {
			return a.Depth > b.Depth
		}
		return a.Depth < b.Depth
	})
}
