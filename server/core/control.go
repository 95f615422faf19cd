package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/experica/orthocam/config"
	"github.com/experica/orthocam/orthocam"
	"github.com/experica/orthocam/shared/geometry"
	"github.com/experica/orthocam/shared/lut"
)

const (
	maxRequestBody = 1 << 16  // 64 KB
	maxLUTBody     = 64 << 20 // 64 MB of .cube text
	controlTimeout = 2 * time.Second
)

// cameraPatch is the body of PATCH /camera. Absent fields are left alone.
type cameraPatch struct {
	ScreenToEye  *float32 `json:"screenToEye"`
	ScreenHeight *float32 `json:"screenHeight"`
	ScreenAspect *float32 `json:"screenAspect"`
	BGColor      *string  `json:"bgColor"`
	MapColor     *bool    `json:"mapColor"`
}

func (p cameraPatch) geometry() (config.GeometryConfig, error) {
	g := config.GeometryConfig{
		ScreenToEye:  p.ScreenToEye,
		ScreenHeight: p.ScreenHeight,
		ScreenAspect: p.ScreenAspect,
		MapColor:     p.MapColor,
	}
	if p.BGColor != nil {
		c, err := geometry.ParseColor(*p.BGColor)
		if err != nil {
			return g, fmt.Errorf("%w: bgColor %v", config.ErrInvalid, err)
		}
		g.BGColor = &config.YAMLColor{Color: c}
	}
	return g, g.Validate()
}

// ControlHandler serves the JSON control API of the command host.
func ControlHandler(s *Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /camera", GetCamera(s))
	mux.HandleFunc("PATCH /camera", PatchCamera(s))
	mux.HandleFunc("GET /lut", GetLUT(s))
	mux.HandleFunc("PUT /lut", PutLUT(s))
	mux.HandleFunc("DELETE /lut", DeleteLUT(s))
	mux.HandleFunc("GET /peers", ListPeers(s))
	mux.HandleFunc("GET /health", Health(s))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[control] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func contextWithTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), controlTimeout)
}

func cameraState(r *http.Request, s *Server) (orthocam.State, error) {
	ctx, cancel := contextWithTimeout(r)
	defer cancel()
	var st orthocam.State
	err := s.Do(ctx, func(cam *orthocam.OrthoCamera) {
		st = cam.State()
	})
	return st, err
}

func GetCamera(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := cameraState(r, s)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func PatchCamera(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		var patch cameraPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		g, err := patch.geometry()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := contextWithTimeout(r)
		defer cancel()
		var st orthocam.State
		err = s.Do(ctx, func(cam *orthocam.OrthoCamera) {
			ApplyGeometry(cam, g)
			st = cam.State()
		})
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		log.Printf("[control] camera updated: distance %.1f height %.1f aspect %.3f map %t",
			st.ScreenToEye, st.ScreenHeight, st.ScreenAspect, st.MapColor)
		writeJSON(w, http.StatusOK, st)
	}
}

func GetLUT(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		info, ok := s.LUTs().Info()
		if !ok {
			writeError(w, http.StatusNotFound, "no lut selected")
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

// PutLUT accepts a .cube file as the request body. The optional name query
// parameter labels it.
func PutLUT(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxLUTBody)
		cube, err := lut.ParseCubeFile(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "lut too large")
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		name := r.URL.Query().Get("name")
		if name == "" {
			name = "upload"
		}
		s.SelectLUT(name, cube)
		info, _ := s.LUTs().Info()
		log.Printf("[control] selected LUT %q (size %d)", name, cube.Size)
		writeJSON(w, http.StatusOK, info)
	}
}

func DeleteLUT(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.SelectLUT("", nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListPeers(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.Peers().List())
	}
}

func Health(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"observers": s.ObserverCount(),
		})
	}
}
