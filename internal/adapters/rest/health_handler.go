package rest

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthChecks are the readiness probes, keyed by dependency name
type HealthChecks map[string]HealthCheck

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

type HealthHandler struct {
	*BaseHandler
	version string
	checks  HealthChecks
}

func NewHealthHandler(base *BaseHandler, version string, checks HealthChecks) *HealthHandler {
	return &HealthHandler{
		BaseHandler: base,
		version:     version,
		checks:      checks,
	}
}

// GetLiveness is a lightweight check with no external dependencies
func (h *HealthHandler) GetLiveness(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONResponse(w, r, HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   h.version,
	}, http.StatusOK)
}

// GetReadiness checks all critical dependencies
func (h *HealthHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	response := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   h.version,
		Checks:    make(map[string]string, len(h.checks)),
	}
	httpStatus := http.StatusOK

	if len(h.checks) == 0 {
		response.Status = "degraded"
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := h.checks[name](ctx)
		cancel()

		if err != nil {
			h.logger.Warn(r.Context(), "readiness check failed", "check", name, "error", err)
			response.Checks[name] = "down"
			response.Status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "up"
	}

	h.WriteJSONResponse(w, r, response, httpStatus)
}
