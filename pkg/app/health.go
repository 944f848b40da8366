package app

import (
	"context"
	"net/http"
	"time"

	httputil "carpool/pkg/http"
	"carpool/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const readyTimeout = 2 * time.Second

type HealthResponse struct {
	Status       string `json:"status"`
	Dependencies string `json:"dependencies,omitempty"`
}

// ReadyFunc reports whether the backing stores answer. Nil means the process
// has nothing external to check.
type ReadyFunc func(ctx context.Context) error

type HealthHandler struct {
	ready ReadyFunc
	log   *logger.Logger
}

func NewHealthHandler(ready ReadyFunc, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		ready: ready,
		log:   log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	httputil.WriteSuccess(w, HealthResponse{Status: "ok"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.ready == nil {
		httputil.WriteSuccess(w, HealthResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.ready(ctx); err != nil {
		h.log.WithContext(r.Context()).Error("Readiness check failed",
			"error", err,
			"path", r.URL.Path,
		)
		httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:       "unavailable",
			Dependencies: "error",
		})
		return
	}

	httputil.WriteSuccess(w, HealthResponse{
		Status:       "ready",
		Dependencies: "ok",
	})
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
