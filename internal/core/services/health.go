package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// Ensure HealthChecker implements the interface.
var _ driving.HealthService = (*HealthChecker)(nil)

// DefaultHealthTimeout bounds each dependency probe.
const DefaultHealthTimeout = 5 * time.Second

// Pinger is anything that can confirm it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthTarget is one dependency to probe.
type HealthTarget struct {
	Name   string
	URL    string
	Pinger Pinger
}

// HealthChecker probes external dependencies in order.
type HealthChecker struct {
	targets []HealthTarget
	timeout time.Duration
}

// NewHealthChecker creates a checker over the given targets. Targets with a
// nil Pinger are skipped.
func NewHealthChecker(targets ...HealthTarget) *HealthChecker {
	kept := make([]HealthTarget, 0, len(targets))
	for _, t := range targets {
		if t.Pinger != nil {
			kept = append(kept, t)
		}
	}
	return &HealthChecker{targets: kept, timeout: DefaultHealthTimeout}
}

// Check probes every target and returns a report.
func (h *HealthChecker) Check(ctx context.Context) domain.HealthReport {
	report := domain.HealthReport{Services: make([]domain.ServiceStatus, 0, len(h.targets))}
	for _, t := range h.targets {
		report.Services = append(report.Services, h.probe(ctx, t))
	}
	return report
}

// RequireHealthy stops at the first unreachable dependency and returns an
// error naming it.
func (h *HealthChecker) RequireHealthy(ctx context.Context) error {
	for _, t := range h.targets {
		status := h.probe(ctx, t)
		if !status.Running {
			return fmt.Errorf("%s is not reachable at %s: %s", t.Name, t.URL, status.Error)
		}
	}
	return nil
}

func (h *HealthChecker) probe(ctx context.Context, t HealthTarget) domain.ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := domain.ServiceStatus{Name: t.Name, URL: t.URL}
	if err := t.Pinger.Ping(ctx); err != nil {
		logger.Debug("Health check %s failed: %v", t.Name, err)
		status.Error = err.Error()
		return status
	}
	status.Running = true

	if v, ok := t.Pinger.(driven.VersionReporter); ok {
		version, err := v.Version(ctx)
		if err != nil {
			logger.Debug("Version of %s unavailable: %v", t.Name, err)
		} else {
			status.Version = version
		}
	}
	logger.Debug("Health check %s ok (version %q)", t.Name, status.Version)
	return status
}
