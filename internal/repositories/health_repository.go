package repositories

import (
	"context"
	"errors"
	"time"
)

const defaultProbeTimeout = 1500 * time.Millisecond

// Probe executes a dependency liveness check.
type Probe func(ctx context.Context) error

type probeHealthRepository struct {
	probe   Probe
	timeout time.Duration
}

var _ HealthRepository = (*probeHealthRepository)(nil)

// ProbeHealthOption customises the probe-backed health repository.
type ProbeHealthOption func(*probeHealthRepository)

// WithProbeTimeout overrides the timeout applied to the probe.
func WithProbeTimeout(timeout time.Duration) ProbeHealthOption {
	return func(repo *probeHealthRepository) {
		if timeout > 0 {
			repo.timeout = timeout
		}
	}
}

// NewProbeHealthRepository constructs a HealthRepository evaluating the given probe.
func NewProbeHealthRepository(probe Probe, opts ...ProbeHealthOption) (HealthRepository, error) {
	if probe == nil {
		return nil, errors.New("health repository: probe is required")
	}

	repo := &probeHealthRepository{
		probe:   probe,
		timeout: defaultProbeTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

func (r *probeHealthRepository) CheckReadiness(ctx context.Context) error {
	if ctx == nil {
		return errors.New("health repository: context is required")
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.probe(probeCtx)
}
