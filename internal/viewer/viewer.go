// Package viewer wires the scene engine, the render loop, the HTTP server
// and the document watcher into one running process.
package viewer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/anchorview/internal/assets"
	"github.com/Faultbox/anchorview/internal/config"
	"github.com/Faultbox/anchorview/internal/engine/loop"
	"github.com/Faultbox/anchorview/internal/exporter"
	"github.com/Faultbox/anchorview/internal/logger"
	"github.com/Faultbox/anchorview/internal/scene"
	"github.com/Faultbox/anchorview/internal/server"
)

const reloadDebounce = 200 * time.Millisecond

// Viewer is the main viewer instance.
type Viewer struct {
	cfg     *config.Config
	assets  *assets.Manager
	engine  *scene.Engine
	loop    *loop.Loop
	server  *server.Server
	watcher *scene.Watcher
	log     *zap.Logger
}

// New loads the scene document and prepares every component. Nothing runs
// until Run is called.
func New(ctx context.Context, cfg *config.Config) (*Viewer, error) {
	log := logger.Named("viewer")
	log.Info("initializing viewer",
		zap.String("document", cfg.Scene.Document),
		zap.Int("width", cfg.Render.Width),
		zap.Int("height", cfg.Render.Height),
	)

	v := &Viewer{
		cfg:    cfg,
		assets: assets.NewManager(),
		log:    log,
	}
	for _, root := range cfg.Scene.AssetRoots {
		if err := v.assets.AddRoot(root); err != nil {
			return nil, fmt.Errorf("asset root: %w", err)
		}
	}

	var err error
	v.engine, err = scene.New(v.assets, scene.Options{
		Width:  cfg.Render.Width,
		Height: cfg.Render.Height,
	})
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	if err := v.Reload(ctx); err != nil {
		return nil, err
	}

	rate := cfg.Render.TickRate
	if rate <= 0 {
		rate = int(time.Second / cfg.Render.TickInterval())
	}
	v.loop, err = loop.New(v.engine, rate)
	if err != nil {
		return nil, fmt.Errorf("creating loop: %w", err)
	}

	v.server = server.New(v.engine, v.loop, server.Options{
		StaticDir: cfg.Server.StaticDir,
		ExportDir: cfg.Export.Dir,
		ExportNames: exporter.Names{
			JSON: cfg.Export.JSONName,
			GLB:  cfg.Export.GLBName,
		},
		StreamInterval: cfg.Render.TickInterval(),
		AccessLog:      cfg.Logging.Level == "debug",
	})

	if cfg.Scene.Watch {
		if v.watcher, err = v.newWatcher(); err != nil {
			return nil, err
		}
	}

	log.Info("viewer initialized")
	return v, nil
}

func (v *Viewer) newWatcher() (*scene.Watcher, error) {
	w, err := scene.NewWatcher(reloadDebounce)
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.AddFile(v.cfg.Scene.Document); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", v.cfg.Scene.Document, err)
	}
	for _, root := range v.assets.Roots() {
		if err := w.AddDir(root); err != nil {
			v.log.Warn("not watching asset root", zap.String("root", root), zap.Error(err))
		}
	}
	return w, nil
}

// Engine returns the scene engine.
func (v *Viewer) Engine() *scene.Engine {
	return v.engine
}

// Loop returns the render loop.
func (v *Viewer) Loop() *loop.Loop {
	return v.loop
}

// Reload re-reads the document from disk and rebuilds the scene. Cached
// meshes are dropped so edited files are parsed again. On error the
// running scene is kept.
func (v *Viewer) Reload(ctx context.Context) error {
	doc, err := scene.LoadDocument(v.cfg.Scene.Document)
	if err != nil {
		return fmt.Errorf("loading %s: %w", v.cfg.Scene.Document, err)
	}
	v.assets.Invalidate()
	if err := v.engine.Load(ctx, doc); err != nil {
		return fmt.Errorf("building %s: %w", v.cfg.Scene.Document, err)
	}
	return nil
}

// Run drives the loop, the server, the frame stream and the watcher until
// ctx is cancelled or one of them fails.
func (v *Viewer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return v.loop.Run(ctx)
	})
	g.Go(func() error {
		v.server.Stream(ctx)
		return nil
	})
	if v.cfg.Server.Addr != "" {
		g.Go(func() error {
			return v.server.ListenAndServe(ctx, v.cfg.Server.Addr, v.cfg.Server.ShutdownTimeout)
		})
	}
	if v.watcher != nil {
		g.Go(func() error {
			return v.watcher.Run(ctx, func() {
				if err := v.Reload(ctx); err != nil {
					v.log.Error("reload failed, keeping current scene", zap.Error(err))
					return
				}
				v.log.Info("scene reloaded")
			})
		})
	}

	v.log.Info("viewer running", zap.Duration("tick", v.loop.Interval()))
	return g.Wait()
}

// Save writes the configured exports while rendering is paused.
func (v *Viewer) Save() ([]string, error) {
	return v.server.Save()
}

// Close releases the watcher.
func (v *Viewer) Close() {
	v.log.Info("closing viewer", zap.Uint64("frames", v.loop.Frames()))
	if v.watcher != nil {
		v.watcher.Close()
	}
}
