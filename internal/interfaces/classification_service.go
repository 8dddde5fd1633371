package interfaces

import (
	"context"

	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

// ClusterAnalysis is the outcome of classifying a single cluster.
type ClusterAnalysis struct {
	Severity  models.Severity
	Reasoning string
}

// ClassificationService is the contract for the external LLM collaborator
// that assigns severities and writes the digest summary.
type ClassificationService interface {
	// AnalyzeCluster classifies one cluster. Transport errors, malformed
	// responses, and out-of-range severity values all return an error;
	// the caller decides how to contain the fault.
	AnalyzeCluster(ctx context.Context, cluster *models.LogCluster) (*ClusterAnalysis, error)

	// Summarize produces the natural-language digest paragraph for a run.
	Summarize(ctx context.Context, totalLogs, errorCount, warningCount int64, topIssues []*models.LogCluster) (string, error)

	// HealthCheck reports whether the service can handle requests.
	HealthCheck(ctx context.Context) bool

	// Close releases client resources.
	Close() error
}
