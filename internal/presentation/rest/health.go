package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	pkgpostgres "github.com/bibbank/finance-service/pkg/postgres"
)

const serviceName = "finance-service"

// HealthHandler serves liveness, readiness and metrics over HTTP.
type HealthHandler struct {
	db      pkgpostgres.Pinger
	metrics http.Handler
	logger  *slog.Logger
}

// NewHealthHandler creates the HTTP handler. metrics may be nil.
func NewHealthHandler(db pkgpostgres.Pinger, metrics http.Handler, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, metrics: metrics, logger: logger}
}

// RegisterRoutes attaches the routes to the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.liveness)
	mux.HandleFunc("GET /readyz", h.readiness)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := pkgpostgres.HealthCheck(ctx, h.db); err != nil {
		h.logger.WarnContext(ctx, "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unavailable",
			"service":  serviceName,
			"database": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"service": serviceName,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}
