package handler

import (
	"context"
	"net/http"
	"time"
)

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		writeEnvelope(w, http.StatusServiceUnavailable, "Service unhealthy", map[string]string{"database": "down"})
		return
	}

	writeEnvelope(w, http.StatusOK, "Service is healthy", map[string]string{"database": "up"})
}
