package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-explorer/internal/session"
	"media-explorer/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Ready       bool   `json:"ready"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Server      string `json:"server"`
	View        string `json:"view"`
	Directory   string `json:"directory,omitempty"`
	Readiness   string `json:"readiness"`
	Description string `json:"description,omitempty"`
	Polling     bool   `json:"polling"`

	// Directory counts
	Directories  int `json:"directories"`
	Initializing int `json:"initializing"`
	Failed       int `json:"failed"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the client
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	view := h.source.View()
	readiness := h.source.Readiness()

	response := HealthResponse{
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Server:       h.serverURL,
		View:         view.String(),
		Directory:    readiness.Directory,
		Readiness:    readiness.State.String(),
		Description:  readiness.Description,
		Polling:      h.source.Polling(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	for _, d := range h.source.Directories() {
		response.Directories++
		switch {
		case d.Failed:
			response.Failed++
		case !d.Ready:
			response.Initializing++
		}
	}

	response.Ready = view != session.ViewLoading
	switch {
	case !response.Ready:
		response.Status = statusStarting
	case response.Failed > 0:
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only while the directory list has not loaded
	if !response.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the current directory can be browsed
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.source.Readiness().State == session.StateReady {
		writeJSONStatus(w, http.StatusOK, "ready")
		return
	}
	writeJSONStatus(w, http.StatusServiceUnavailable, "not_ready")
}
