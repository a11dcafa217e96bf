package health

import (
	"context"
	"sort"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Searches still reach the backend.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	components map[string]Pinger
}

// New creates a Service. Nil pingers are skipped, so an unconfigured
// response cache simply does not appear in the report.
func New(components map[string]Pinger) *Service {
	c := make(map[string]Pinger, len(components))
	for name, p := range components {
		if p != nil {
			c[name] = p
		}
	}
	return &Service{components: c}
}

// Components returns the checked component names in sorted order.
func (s *Service) Components() []string {
	names := make([]string, 0, len(s.components))
	for name := range s.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check pings every component.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.components))
	status := Healthy
	for name, p := range s.components {
		if err := p.Ping(ctx); err != nil {
			checks[name] = CheckError
			status = Degraded
			continue
		}
		checks[name] = CheckOK
	}
	return Report{Status: status, Checks: checks}
}
