// Package health aggregates readiness checks for the registry's backends.
package health

import (
	"context"
	"time"
)

// DBPinger checks the authoritative store connection.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks the hosted search index. Optional: the registry runs
// without an index.
type IndexChecker interface {
	HealthCheck(ctx context.Context) error
}

// Status of a single check or the overall report.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// CheckResult is the outcome of one backend check.
type CheckResult struct {
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// Report is the full health report.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service runs the checks.
type Service struct {
	db    DBPinger
	index IndexChecker
}

// New creates a health service. index may be nil.
func New(db DBPinger, index IndexChecker) *Service {
	return &Service{db: db, index: index}
}

// Check runs all configured backend checks. The store decides liveness; an
// unhealthy index only degrades, reads fall back to the store anyway.
func (s *Service) Check(ctx context.Context) Report {
	report := Report{
		Status: StatusOK,
		Checks: make(map[string]CheckResult),
	}

	report.Checks["database"] = runCheck(ctx, s.db.Ping)
	if report.Checks["database"].Status != StatusOK {
		report.Status = StatusDown
	}

	if s.index != nil {
		report.Checks["search_index"] = runCheck(ctx, s.index.HealthCheck)
		if report.Checks["search_index"].Status != StatusOK && report.Status == StatusOK {
			report.Status = StatusDegraded
		}
	}

	return report
}

func runCheck(ctx context.Context, fn func(context.Context) error) CheckResult {
	start := time.Now()
	err := fn(ctx)
	res := CheckResult{
		Status:  StatusOK,
		Latency: time.Since(start).Round(time.Microsecond).String(),
	}
	if err != nil {
		res.Status = StatusDown
		res.Error = err.Error()
	}
	return res
}
