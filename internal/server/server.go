// Package server exposes the running scene over HTTP and streams rendered
// frames to websocket clients.
package server

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/anchorview/internal/engine/debug"
	"github.com/Faultbox/anchorview/internal/engine/picking"
	"github.com/Faultbox/anchorview/internal/engine/renderer"
	"github.com/Faultbox/anchorview/internal/exporter"
	"github.com/Faultbox/anchorview/internal/logger"
	"github.com/Faultbox/anchorview/internal/scene"
)

// Source is the scene being served.
type Source interface {
	Snapshot() scene.Snapshot
	Frame() renderer.Frame
	Pick(x, y float32) []picking.Hit
	Orbit(in scene.OrbitInput) error
	Resize(width, height int) error
}

// Pauser stops rendering while an export is written.
type Pauser interface {
	Pause()
	Resume()
}

// Options configures a Server.
type Options struct {
	StaticDir      string
	ExportDir      string
	ExportNames    exporter.Names
	StreamInterval time.Duration
	AccessLog      bool
}

// Server serves the scene API.
type Server struct {
	source Source
	pauser Pauser
	opts   Options
	router *mux.Router
	hub    *hub
	log    *zap.Logger

	saveMu sync.Mutex

	upgrader websocket.Upgrader
}

// New builds the router. pauser may be nil.
func New(source Source, pauser Pauser, opts Options) *Server {
	if opts.StreamInterval <= 0 {
		opts.StreamInterval = 100 * time.Millisecond
	}
	s := &Server{
		source: source,
		pauser: pauser,
		opts:   opts,
		router: mux.NewRouter(),
		hub:    newHub(),
		log:    logger.Named("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scene", s.handleScene).Methods(http.MethodGet)
	api.HandleFunc("/scene.glb", s.handleSceneGLB).Methods(http.MethodGet)
	api.HandleFunc("/frame", s.handleFrame).Methods(http.MethodGet)
	api.HandleFunc("/frame.png", s.handleFramePNG).Methods(http.MethodGet)
	api.HandleFunc("/orbit", s.handleOrbit).Methods(http.MethodPost)
	api.HandleFunc("/resize", s.handleResize).Methods(http.MethodPost)
	api.HandleFunc("/pick", s.handlePick).Methods(http.MethodGet).Queries("x", "{x}", "y", "{y}")
	api.HandleFunc("/save", s.handleSave).Methods(http.MethodPost)
	api.HandleFunc("/screenshot", s.handleScreenshot).Methods(http.MethodPost)
	s.router.HandleFunc("/ws", s.handleWS)

	if s.opts.StaticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.opts.StaticDir)))
	}
}

// Handler returns the root handler with panic recovery and, when enabled,
// an access log on stdout.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	if s.opts.AccessLog {
		h = handlers.LoggingHandler(os.Stdout, h)
	}
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	return s.hub.len()
}

// Stream broadcasts each new frame to websocket clients until ctx is done.
func (s *Server) Stream(ctx context.Context) {
	ticker := time.NewTicker(s.opts.StreamInterval)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-ctx.Done():
			s.hub.closeAll()
			return
		case <-ticker.C:
			frame := s.source.Frame()
			if frame.Index == last || s.hub.len() == 0 {
				continue
			}
			last = frame.Index
			if err := s.hub.broadcast(frame); err != nil {
				s.log.Warn("broadcast failed", zap.Error(err))
			}
		}
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "serving %s", addr)
	case <-ctx.Done():
	}

	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}
	return nil
}

// Save pauses rendering, writes the configured exports and resumes.
func (s *Server) Save() ([]string, error) {
	if s.opts.ExportDir == "" {
		return nil, errors.New("export dir not configured")
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if s.pauser != nil {
		s.pauser.Pause()
		defer s.pauser.Resume()
	}
	return exporter.SaveFiles(s.opts.ExportDir, s.opts.ExportNames, s.source.Snapshot())
}

// Screenshot writes a wireframe preview of the latest frame to the export
// directory.
func (s *Server) Screenshot() (string, error) {
	if s.opts.ExportDir == "" {
		return "", errors.New("export dir not configured")
	}
	path, err := debug.NewScreenshotCapture(s.opts.ExportDir, "frame").CaptureFrame(s.source.Frame())
	if err != nil {
		return "", errors.Wrap(err, "capturing frame")
	}
	s.log.Info("screenshot saved", zap.String("path", path))
	return path, nil
}
