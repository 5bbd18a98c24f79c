package handlers

import (
	"net/http"
	"time"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/repositories"
)

// HealthHandlers serves liveness and readiness endpoints.
type HealthHandlers struct {
	version   string
	startedAt time.Time
	clock     func() time.Time
	checks    map[string]repositories.HealthRepository
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// WithHealthVersion sets the version string reported on /healthz.
func WithHealthVersion(version string) HealthOption {
	return func(h *HealthHandlers) {
		h.version = version
	}
}

// WithHealthClock overrides the time source, primarily for testing.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithHealthStartedAt sets the process start time used for uptime reporting.
func WithHealthStartedAt(startedAt time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if !startedAt.IsZero() {
			h.startedAt = startedAt
		}
	}
}

// WithHealthCheck registers a named dependency probe evaluated on /readyz.
func WithHealthCheck(name string, repo repositories.HealthRepository) HealthOption {
	return func(h *HealthHandlers) {
		if name == "" || repo == nil {
			return
		}
		if h.checks == nil {
			h.checks = make(map[string]repositories.HealthRepository)
		}
		h.checks[name] = repo
	}
}

// NewHealthHandlers constructs handlers for /healthz and /readyz.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		startedAt: time.Now(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

type healthCheckPayload struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string                        `json:"status"`
	Version   string                        `json:"version,omitempty"`
	Uptime    string                        `json:"uptime"`
	Timestamp string                        `json:"timestamp"`
	Checks    map[string]healthCheckPayload `json:"checks,omitempty"`
	Details   []string                      `json:"details,omitempty"`
}

// Healthz reports process liveness without touching dependencies.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	now := h.clock()
	writeJSONResponse(w, http.StatusOK, healthResponse{
		Status:    domain.HealthStatusOK,
		Version:   h.version,
		Uptime:    now.Sub(h.startedAt).String(),
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}

// Readyz evaluates every registered dependency probe and reports 503 when
// any of them fails.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.clock()

	response := healthResponse{
		Status:    domain.HealthStatusOK,
		Version:   h.version,
		Uptime:    now.Sub(h.startedAt).String(),
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	if len(h.checks) > 0 {
		response.Checks = make(map[string]healthCheckPayload, len(h.checks))
	}
	for name, repo := range h.checks {
		started := h.clock()
		err := repo.CheckReadiness(ctx)
		payload := healthCheckPayload{
			Status:    domain.HealthStatusOK,
			LatencyMS: h.clock().Sub(started).Milliseconds(),
		}
		if err != nil {
			payload.Status = domain.HealthStatusError
			payload.Error = err.Error()
			response.Status = domain.HealthStatusError
			response.Details = append(response.Details, name+": "+err.Error())
		}
		response.Checks[name] = payload
	}

	status := http.StatusOK
	if response.Status != domain.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, response)
}
