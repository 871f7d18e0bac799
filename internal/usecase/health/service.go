// Package health aggregates component probes into the /health report.
package health

import (
	"context"
	"time"
)

// Status is the overall verdict.
type Status string

const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is the verdict of one component.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
	// CheckLoading means no text index has been published yet.
	CheckLoading CheckResult = "loading"
)

// Component names used as Report.Checks keys.
const (
	ComponentDatabase = "database"
	ComponentIndex    = "index"
)

// pingTimeout caps the database probe so a hung connection cannot stall
// the health endpoint.
const pingTimeout = 2 * time.Second

// IndexInfo describes the active index snapshot.
type IndexInfo struct {
	Ready     bool
	Documents int
	Version   string
}

// Report is the result of one Check.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Index  IndexInfo
}

// Service runs the probes.
type Service struct {
	db    DBPinger
	index IndexChecker
}

// New creates a Service. Pass a nil db when the catalog lives in memory;
// the database probe is then omitted from reports.
func New(db DBPinger, index IndexChecker) *Service {
	return &Service{db: db, index: index}
}

// Check probes every component. The report is Healthy when all pass,
// Unhealthy when all fail and Degraded otherwise.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)
	if s.db != nil {
		checks[ComponentDatabase] = s.pingDB(ctx)
	}

	size, version, ready := s.index.IndexStatus()
	checks[ComponentIndex] = CheckLoading
	if ready {
		checks[ComponentIndex] = CheckOK
	}

	return Report{
		Status: overall(checks),
		Checks: checks,
		Index:  IndexInfo{Ready: ready, Documents: size, Version: version},
	}
}

func (s *Service) pingDB(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}

func overall(checks map[string]CheckResult) Status {
	failed := 0
	for _, r := range checks {
		if r != CheckOK {
			failed++
		}
	}
	switch {
	case failed == 0:
		return Healthy
	case failed == len(checks):
		return Unhealthy
	default:
		return Degraded
	}
}
