package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/seqlink-go/internal/core/domain"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.Warn("readiness check failed", "error", err)
			h.writeError(w, r, http.StatusServiceUnavailable, domain.ErrServiceUnavailable.Code, domain.ErrServiceUnavailable.Message)
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleInfo handles GET /v1/info.
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, InfoResponse{
		Version:             h.info.Version,
		Commit:              h.info.Commit,
		Window:              h.coord.DefaultWindow(),
		AllowWindowOverride: h.coord.AllowsWindowOverride(),
		SessionTTLSeconds:   int64(h.coord.TTL().Seconds()),
		Cipher:              h.cipher,
	})
}
