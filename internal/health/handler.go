package health

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httputil "roomres/pkg/http"
	"roomres/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether the reservation store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status        string `json:"status"`
	Storage       string `json:"storage,omitempty"`
	PendingAdmits int    `json:"pending_admissions"`
}

type HealthHandler struct {
	store   Pinger
	pending func() int
	log     *logger.Logger
}

// NewHealthHandler builds /health, /ready and /metrics. pending reports the admission
// queue depth and may be nil.
func NewHealthHandler(store Pinger, pending func() int, log *logger.Logger) *HealthHandler {
	if pending == nil {
		pending = func() int { return 0 }
	}
	return &HealthHandler{
		store:   store,
		pending: pending,
		log:     log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		PendingAdmits: h.pending(),
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Error("Storage health check failed",
			"error", err,
			"path", r.URL.Path,
		)
		if writeErr := httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:        "unavailable",
			Storage:       "error",
			PendingAdmits: h.pending(),
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        "ready",
		Storage:       "ok",
		PendingAdmits: h.pending(),
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
}
