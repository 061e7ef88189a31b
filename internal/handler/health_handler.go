package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"lumiere/internal/gateway"
	"lumiere/internal/model"
	"lumiere/pkg/apierror"
)

const (
	healthTimestampLayout = "2006-01-02 15:04:05"
	readinessTimeout      = 2 * time.Second
)

// DependencyCheck is a named backend reachability test run by /ready.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	version  string
	location *time.Location
	checks   []DependencyCheck
	now      func() time.Time
}

func NewHealthHandler(version string, location *time.Location, checks ...DependencyCheck) *HealthHandler {
	if location == nil {
		location = time.UTC
	}
	return &HealthHandler{version: version, location: location, checks: checks, now: time.Now}
}

func (h *HealthHandler) Mount(r *gateway.Router) {
	r.Get("/health", h.Health, false)
	r.Get("/ready", h.Ready, false)
}

func (h *HealthHandler) Health(*gateway.RequestContext) (*gateway.Result, error) {
	return gateway.OK("", h.status("ok")), nil
}

// Ready runs every dependency check under one shared deadline. Failures are
// reported by name only; the underlying error stays in the log.
func (h *HealthHandler) Ready(rc *gateway.RequestContext) (*gateway.Result, error) {
	ctx := context.Background()
	if rc != nil && rc.Request != nil {
		ctx = rc.Request.Context()
	}
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	failed := make(map[string]string)
	for _, dep := range h.checks {
		if err := dep.Check(ctx); err != nil {
			slog.Warn("dependency check failed", "dependency", dep.Name, "error", err)
			failed[dep.Name] = "unreachable"
		}
	}

	if len(failed) > 0 {
		return nil, &apierror.APIError{
			Code:       "NOT_READY",
			Message:    "Service unavailable",
			Fields:     failed,
			HTTPStatus: http.StatusServiceUnavailable,
		}
	}

	return gateway.OK("", h.status("ready")), nil
}

func (h *HealthHandler) status(state string) model.HealthStatus {
	return model.HealthStatus{
		Status:    state,
		Timestamp: h.now().In(h.location).Format(healthTimestampLayout),
		Version:   h.version,
	}
}
