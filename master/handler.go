package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/experica/orthocam/shared/directory"
)

const maxRequestBody = 1 << 16 // 64 KB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[master] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid json")
		}
		return false
	}
	return true
}

func filterFrom(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{Version: q.Get("version"), Region: q.Get("region")}
	if v := q.Get("mapColor"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("mapColor: %q is not a boolean", v)
		}
		f.MapColor = &on
	}
	return f, nil
}

// ListServers returns the live command hosts with their display summaries.
// Query parameters version, region and mapColor narrow the list.
func ListServers(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := filterFrom(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, reg.List(f))
	}
}

func GetServer(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := reg.Get(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown host")
			return
		}
		writeJSON(w, http.StatusOK, h)
	}
}

func RegisterServer(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req directory.Register
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Name == "" || req.Address == "" {
			writeError(w, http.StatusBadRequest, "name and address required")
			return
		}

		id := reg.Register(req)
		log.Printf("[master] registered command host %q at %s (id=%s, %s)", req.Name, req.Address, id, req.Display)
		writeJSON(w, http.StatusCreated, directory.Registered{ID: id})
	}
}

func Heartbeat(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req directory.Heartbeat
		if !decodeBody(w, r, &req) {
			return
		}
		if !reg.Heartbeat(req.ID, req.Status) {
			writeError(w, http.StatusNotFound, "unknown host")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func Health(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"hosts":  len(reg.List(Filter{})),
		})
	}
}
