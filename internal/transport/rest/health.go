package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/frahmantamala/construction-dashboard/internal/session"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// Pinger reports whether the construction backend answers at all.
type Pinger interface {
	Ping(ctx context.Context) error
}

type SessionReader interface {
	Current() session.Snapshot
}

type HealthHandler struct {
	backend  Pinger
	sessions SessionReader
	timeout  time.Duration
}

func NewHealthHandler(backend Pinger, sessions SessionReader) *HealthHandler {
	return &HealthHandler{backend: backend, sessions: sessions, timeout: 2 * time.Second}
}

// pingHandler → the dashboard process is up
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "OK"}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// healthCheckHandler → backend reachability plus the session state
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	backendEntry := h.checkBackend(ctx)
	sessionEntry := h.checkSession()

	resp := HealthResponse{
		Status:    backendEntry.Status,
		CheckedAt: time.Now(),
		Components: map[string]CheckEntry{
			"backend": backendEntry,
			"session": sessionEntry,
		},
	}

	statusCode := http.StatusOK
	if backendEntry.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func (h *HealthHandler) checkBackend(ctx context.Context) CheckEntry {
	start := time.Now()
	err := h.backend.Ping(ctx)

	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	return entry
}

// The session never makes the process unhealthy; a signed-out dashboard still serves /login.
func (h *HealthHandler) checkSession() CheckEntry {
	entry := CheckEntry{Status: HealthHealthy, CheckedAt: time.Now()}
	if h.sessions == nil {
		return entry
	}

	snap := h.sessions.Current()
	details := map[string]any{
		"authenticated": snap.Authenticated(),
		"loading":       snap.Loading,
		"version":       snap.Version,
	}
	if snap.User != nil {
		details["role"] = snap.User.Role
	}
	if snap.Loading {
		entry.Status = HealthDegraded
		entry.Message = "session is being restored"
	}
	entry.Details = details
	return entry
}
