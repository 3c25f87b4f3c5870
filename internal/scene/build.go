package scene

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/anchorview/internal/engine/animation"
	"github.com/Faultbox/anchorview/internal/engine/camera"
	"github.com/Faultbox/anchorview/internal/engine/color"
	"github.com/Faultbox/anchorview/internal/engine/lighting"
	"github.com/Faultbox/anchorview/internal/engine/material"
	"github.com/Faultbox/anchorview/internal/engine/object"
	"github.com/Faultbox/anchorview/internal/engine/renderer"
	"github.com/Faultbox/anchorview/internal/engine/texture"
	"github.com/Faultbox/anchorview/pkg/geometry"
)

// apply is the factory: it type-switches on the record and builds the
// matching entity into st.
func (e *Engine) apply(ctx context.Context, st *state, cfg Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	id := cfg.ID()
	if id == "" {
		return fmt.Errorf("%s: %w", cfg.Kind(), ErrMissingID)
	}
	if _, dup := st.configs[id]; dup {
		return fmt.Errorf("%s %q: %w", cfg.Kind(), id, ErrDuplicateID)
	}
	cfg.meta().Type = cfg.Kind()

	var err error
	switch c := cfg.(type) {
	case *SceneConfig:
		err = e.buildScene(st, c)
	case *PerspectiveCameraConfig:
		err = e.buildCamera(st, c)
	case *RendererConfig:
		err = e.buildRenderer(st, c)
	case *OrbitControlsConfig:
		err = e.buildControls(st, c)
	case *AmbientLightConfig:
		err = e.buildAmbient(st, c)
	case *DirectionalLightConfig:
		err = e.buildDirectional(st, c)
	case *ImageTextureConfig:
		err = e.buildImage(st, c)
	case *CubeTextureConfig:
		err = e.buildCube(st, c)
	case *LoadGeometryConfig:
		err = e.buildGeometry(ctx, st, c)
	case *MeshStandardMaterialConfig:
		err = e.buildMaterial(st, c)
	case *MeshConfig:
		err = e.buildMesh(st, c)
	case *ScriptAnimationConfig:
		err = e.buildAnimation(st, c)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownKind, cfg)
	}
	if err != nil {
		return fmt.Errorf("%s %q: %w", cfg.Kind(), id, err)
	}

	st.configs[id] = cfg
	st.order = append(st.order, cfg)
	e.log.Debug("applied", zap.String("kind", string(cfg.Kind())), zap.String("id", id))
	return nil
}

func ref(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrUnresolvedRef)
}

// activeScene returns the scene new objects are added to.
func (st *state) activeScene() (*Scene, error) {
	sc, ok := st.scenes[st.active.Scene]
	if !ok {
		return nil, fmt.Errorf("no scene to add to: %w", ErrUnresolvedRef)
	}
	return sc, nil
}

func (e *Engine) buildScene(st *state, c *SceneConfig) error {
	sc := NewScene(c.ID())

	if c.Background != "" {
		switch {
		case st.cubes[c.Background] != nil:
			sc.BackgroundCube = st.cubes[c.Background]
		case st.images[c.Background] != nil:
			sc.BackgroundImage = st.images[c.Background]
		default:
			col, err := color.Parse(c.Background)
			if err != nil {
				return ref("background", c.Background)
			}
			sc.BackgroundColor = &col
		}
	}
	if c.Environment != "" {
		cube, ok := st.cubes[c.Environment]
		if !ok {
			return ref("environment", c.Environment)
		}
		sc.Environment = cube
	}

	st.scenes[c.ID()] = sc
	if st.active.Scene == "" {
		st.active.Scene = c.ID()
	}
	return nil
}

func (e *Engine) buildCamera(st *state, c *PerspectiveCameraConfig) error {
	fov, near, far := c.FOV, c.Near, c.Far
	if fov == 0 {
		fov = 45
	}
	if near == 0 {
		near = 0.1
	}
	if far == 0 {
		far = 2000
	}
	if near >= far || fov <= 0 || fov >= 180 {
		return fmt.Errorf("%w: fov %v near %v far %v", ErrInvalidConfig, fov, near, far)
	}

	cam := camera.NewPerspectiveCamera(fov, 1, near, far)
	cam.ID = c.ID()
	cam.SetAspect(st.renderCfg.Width, st.renderCfg.Height)
	cam.Position = c.Position.vec()
	if c.Up != nil {
		cam.Up = c.Up.vec()
	}
	cam.LookAt(mgl32.Vec3{})
	if c.LookAt != nil {
		cam.LookAt(c.LookAt.vec())
	}

	st.cameras[c.ID()] = cam
	if st.active.Camera == "" {
		st.active.Camera = c.ID()
	}
	return nil
}

func (e *Engine) buildRenderer(st *state, c *RendererConfig) error {
	cfg := renderer.DefaultConfig(st.renderCfg.Width, st.renderCfg.Height)
	if c.ClearColor != "" {
		col, err := color.Parse(c.ClearColor)
		if err != nil {
			return fmt.Errorf("%w: clearColor: %w", ErrInvalidConfig, err)
		}
		cfg.ClearColor = col
	}
	tm, err := renderer.ParseToneMapping(c.ToneMapping)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.ToneMapping = tm
	if c.ToneMappingExposure != 0 {
		cfg.Exposure = c.ToneMappingExposure
	}
	cfg.PhysicallyCorrectLights = c.PhysicallyCorrectLights
	cfg.ShadowMap = c.ShadowMap

	st.renderCfg = cfg
	return nil
}

// buildControls attaches orbit controls to the active camera.
func (e *Engine) buildControls(st *state, c *OrbitControlsConfig) error {
	cam, ok := st.cameras[st.active.Camera]
	if !ok {
		return ref("camera", st.active.Camera)
	}
	if _, taken := st.controls[cam.ID]; taken {
		return fmt.Errorf("%w: camera %q already has controls", ErrInvalidConfig, cam.ID)
	}

	ctl := camera.NewOrbitControls(cam)
	ctl.AutoRotate = c.AutoRotate
	ctl.EnableDamping = c.EnableDamping
	if c.AutoRotateSpeed != nil {
		ctl.AutoRotateSpeed = *c.AutoRotateSpeed
	}
	if c.DampingFactor != nil {
		ctl.DampingFactor = *c.DampingFactor
	}
	if c.MinDistance != nil {
		ctl.MinDistance = *c.MinDistance
	}
	if c.MaxDistance != nil {
		ctl.MaxDistance = *c.MaxDistance
	}
	if c.EnablePan != nil {
		ctl.EnablePan = *c.EnablePan
	}
	if ctl.MinDistance > ctl.MaxDistance {
		return fmt.Errorf("%w: minDistance %v > maxDistance %v", ErrInvalidConfig, ctl.MinDistance, ctl.MaxDistance)
	}
	if c.Target != nil {
		cam.LookAt(c.Target.vec())
	}

	st.controls[cam.ID] = ctl
	return nil
}

func lightColor(s string) (color.Color, error) {
	if s == "" {
		return color.White, nil
	}
	col, err := color.Parse(s)
	if err != nil {
		return color.Color{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return col, nil
}

func intensity(p *float32) float32 {
	if p == nil {
		return 1
	}
	return *p
}

func (e *Engine) buildAmbient(st *state, c *AmbientLightConfig) error {
	col, err := lightColor(c.Color)
	if err != nil {
		return err
	}
	sc, err := st.activeScene()
	if err != nil {
		return err
	}
	l := &lighting.AmbientLight{ID: c.ID(), Color: col, Intensity: intensity(c.Intensity)}
	if err := sc.AddObject(l); err != nil {
		return err
	}
	st.ambient[c.ID()] = l
	return nil
}

func (e *Engine) buildDirectional(st *state, c *DirectionalLightConfig) error {
	col, err := lightColor(c.Color)
	if err != nil {
		return err
	}
	sc, err := st.activeScene()
	if err != nil {
		return err
	}
	l := &lighting.DirectionalLight{
		ID:        c.ID(),
		Color:     col,
		Intensity: intensity(c.Intensity),
		Position:  c.Position.vec(),
	}
	if c.Target != nil {
		l.Target = c.Target.vec()
	}
	if err := sc.AddObject(l); err != nil {
		return err
	}
	st.directs[c.ID()] = l
	return nil
}

func (e *Engine) buildImage(st *state, c *ImageTextureConfig) error {
	p, err := e.loader.Resolve(c.URL)
	if err != nil {
		return err
	}
	tex, err := texture.NewImageTexture(c.ID(), c.URL, p)
	if err != nil {
		return err
	}
	st.images[c.ID()] = tex
	return nil
}

func (e *Engine) buildCube(st *state, c *CubeTextureConfig) error {
	urls := c.Cube.array()
	var paths [6]string
	for i, u := range urls {
		if u == "" {
			return fmt.Errorf("%w: face %s missing", ErrInvalidConfig, texture.FaceNames[i])
		}
		p, err := e.loader.Resolve(u)
		if err != nil {
			return err
		}
		paths[i] = p
	}
	cube, err := texture.NewCubeTexture(c.ID(), urls, paths)
	if err != nil {
		return err
	}
	st.cubes[c.ID()] = cube
	return nil
}

// buildGeometry picks the requested part of the mesh file and anchors it.
// The mesh is taken from the preload set when present, otherwise loaded now.
func (e *Engine) buildGeometry(ctx context.Context, st *state, c *LoadGeometryConfig) error {
	anchor := c.Anchor()
	if err := anchor.Validate(); err != nil {
		return err
	}

	mesh, ok := st.preloaded[c.ID()]
	if !ok {
		res := <-e.loader.LoadAsync(ctx, c.URL)
		if res.Err != nil {
			return res.Err
		}
		mesh = res.Mesh
	}

	part, ok := mesh.Part(c.Part)
	if !ok {
		return ref("part", c.Part)
	}
	g, err := geometry.Anchor(part.Geometry, anchor)
	if err != nil {
		return err
	}
	g.Name = c.ID()
	st.geometries[c.ID()] = g
	return nil
}

func (e *Engine) buildMaterial(st *state, c *MeshStandardMaterialConfig) error {
	m := material.NewStandard(c.ID())
	if c.Color != "" {
		col, err := color.Parse(c.Color)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		m.Color = col
	}
	if c.Metalness != nil {
		m.Metalness = *c.Metalness
	}
	if c.Roughness != nil {
		m.Roughness = *c.Roughness
	}
	if c.EnvMapIntensity != nil {
		m.EnvMapIntensity = *c.EnvMapIntensity
	}
	if c.Opacity != nil {
		m.Opacity = *c.Opacity
	}
	m.Transparent = c.Transparent

	if c.Map != "" {
		tex, ok := st.images[c.Map]
		if !ok {
			return ref("map", c.Map)
		}
		m.Map = tex
	}
	if c.EnvMap != "" {
		cube, ok := st.cubes[c.EnvMap]
		if !ok {
			return ref("envMap", c.EnvMap)
		}
		m.EnvMap = cube
	}
	if err := m.Validate(); err != nil {
		return err
	}

	st.materials[c.ID()] = m
	return nil
}

func (e *Engine) buildMesh(st *state, c *MeshConfig) error {
	g, ok := st.geometries[c.Geometry]
	if !ok {
		return ref("geometry", c.Geometry)
	}
	m, ok := st.materials[c.Material]
	if !ok {
		return ref("material", c.Material)
	}
	sc, err := st.activeScene()
	if err != nil {
		return err
	}

	mesh := &Mesh{
		Object:     object.New(c.ID()),
		GeometryID: c.Geometry,
		MaterialID: c.Material,
		Geometry:   g,
		Material:   m,
	}
	mesh.Name = c.Name
	mesh.Position = c.Position.Resolve(0)
	mesh.Rotation = c.Rotation.Resolve(0)
	mesh.Scale = c.Scale.Resolve(1)
	if c.Visible != nil {
		mesh.Visible = *c.Visible
	}

	if err := sc.AddObject(mesh); err != nil {
		return err
	}
	st.meshes[c.ID()] = mesh
	return nil
}

func (e *Engine) buildAnimation(st *state, c *ScriptAnimationConfig) error {
	mesh, ok := st.meshes[c.Target]
	if !ok {
		return ref("target", c.Target)
	}
	a, err := animation.New(c.ID(), &mesh.Object, c.Attribute, c.Script)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Play != nil {
		a.Playing = *c.Play
	}
	st.anims[c.ID()] = a
	st.mixer.Add(a)
	return nil
}
