package handler

import (
	"context"
	"net/http"

	"github.com/chronicle-app/chronicle/internal/api/middleware"
	"github.com/chronicle-app/chronicle/internal/api/response"
)

// DBPinger verifies database connectivity for the status endpoint.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// StatusHandler handles the GET /api/status endpoint.
type StatusHandler struct {
	db      DBPinger
	version string
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(db DBPinger, version string) *StatusHandler {
	return &StatusHandler{db: db, version: version}
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type statusData struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Database databaseStatus `json:"database"`
}

// ServeHTTP handles the status request.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	connected := h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !connected {
		status = "degraded"
	}

	response.Success(w, http.StatusOK, statusData{
		Status:   status,
		Version:  h.version,
		Database: databaseStatus{Connected: connected},
	}, requestID)
}
