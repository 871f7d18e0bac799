package prodsearch

import (
	"context"

	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
)

// HealthStatus represents the aggregated engine health.
type HealthStatus struct {
	Status       string            // "ok", "degraded", "error"
	Checks       map[string]string // component → "ok"/"error"/"loading"
	IndexReady   bool
	IndexDocs    int
	IndexVersion string
}

// Health checks the catalog backend and the text index.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:       string(report.Status),
		Checks:       checks,
		IndexReady:   report.Index.Ready,
		IndexDocs:    report.Index.Documents,
		IndexVersion: report.Index.Version,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
