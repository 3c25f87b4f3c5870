package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/anchorview/internal/engine/debug"
	"github.com/Faultbox/anchorview/internal/engine/picking"
	"github.com/Faultbox/anchorview/internal/engine/renderer"
	"github.com/Faultbox/anchorview/internal/exporter"
	"github.com/Faultbox/anchorview/internal/scene"
)

type errorResponse struct {
	Error string `json:"error"`
}

type saveResponse struct {
	Files []string `json:"files"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, errors.Wrap(err, "encoding response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.log.Debug("writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.Warn("request failed", zap.Int("status", status), zap.Error(err))
	data, _ := json.Marshal(errorResponse{Error: err.Error()})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	w.Write(data)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := exporter.WriteJSON(&buf, s.source.Snapshot()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

func (s *Server) handleSceneGLB(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := exporter.WriteGLB(&buf, s.source.Snapshot())
	if errors.Is(err, exporter.ErrEmptySnapshot) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeFile(w, "model/gltf-binary", "scene.glb", buf.Bytes())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.source.Frame())
}

func (s *Server) handleFramePNG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := debug.EncodePNG(&buf, debug.Preview(s.source.Frame())); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	path, err := s.Screenshot()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saveResponse{Files: []string{path}})
}

// maxInputBody bounds the JSON body of input requests.
const maxInputBody = 4 << 10

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInputBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(err, "decoding request"))
		return false
	}
	return true
}

func (s *Server) handleOrbit(w http.ResponseWriter, r *http.Request) {
	var in scene.OrbitInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	if err := s.source.Orbit(in); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, scene.ErrNoControls):
			status = http.StatusNotFound
		case errors.Is(err, scene.ErrPanDisabled):
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := s.source.Resize(req.Width, req.Height); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, renderer.ErrInvalidSize) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pickResponse struct {
	Hits []picking.Hit `json:"hits"`
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	x, err := strconv.ParseFloat(vars["x"], 32)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(err, "x"))
		return
	}
	y, err := strconv.ParseFloat(vars["y"], 32)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(err, "y"))
		return
	}
	hits := s.source.Pick(float32(x), float32(y))
	if hits == nil {
		hits = []picking.Hit{}
	}
	s.writeJSON(w, http.StatusOK, pickResponse{Hits: hits})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	files, err := s.Save()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saveResponse{Files: files})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	// the latest frame goes out immediately so clients need not wait a tick
	first, err := json.Marshal(s.source.Frame())
	if err != nil {
		first = nil
	}
	c := s.hub.register(conn, first)
	go c.writePump(s.hub, s.log)
	go c.readPump(s.hub)
}
