package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxTopIssues bounds the top-issues list in every analysis result.
const MaxTopIssues = 10

// EmptyResultSummary is the fixed summary used when the analysis window
// contained no logs at all.
const EmptyResultSummary = "No logs found in the analyzed time range."

// AnalysisResult is the output of one analysis run. It is created once by
// the aggregator and read-only afterwards.
type AnalysisResult struct {
	Date               time.Time     `json:"date" validate:"required"`
	TotalLogsProcessed int64         `json:"total_logs_processed" validate:"min=0"`
	ErrorCount         int64         `json:"error_count" validate:"min=0"`
	WarningCount       int64         `json:"warning_count" validate:"min=0"`
	Clusters           []*LogCluster `json:"clusters"`
	TopIssues          []*LogCluster `json:"top_issues" validate:"max=10"`
	Summary            string        `json:"summary" validate:"required"`
	ExecutionTime      time.Duration `json:"execution_time" validate:"min=0"`
}

// ErrorRate returns the duplicate-weighted share of ERROR/CRITICAL logs.
// A run that processed nothing has a zero rate.
func (r *AnalysisResult) ErrorRate() float64 {
	if r.TotalLogsProcessed == 0 {
		return 0
	}
	return float64(r.ErrorCount) / float64(r.TotalLogsProcessed)
}

// WarningRate returns the duplicate-weighted share of WARNING logs.
func (r *AnalysisResult) WarningRate() float64 {
	if r.TotalLogsProcessed == 0 {
		return 0
	}
	return float64(r.WarningCount) / float64(r.TotalLogsProcessed)
}

// HighSeverityCount returns the number of top issues at high or critical
// severity.
func (r *AnalysisResult) HighSeverityCount() int {
	n := 0
	for _, c := range r.TopIssues {
		if c.Severity.IsHighSeverity() {
			n++
		}
	}
	return n
}

// Validate checks the struct tags plus the invariants tags cannot express:
// every top issue must carry an actionable severity, and every cluster
// must be internally consistent.
func (r *AnalysisResult) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	for i, c := range r.TopIssues {
		if !c.Severity.IsActionable() {
			return fmt.Errorf("top issue %d has non-actionable severity %q", i, c.Severity)
		}
	}
	for _, c := range r.Clusters {
		if c.Count != len(c.Members) {
			return fmt.Errorf("cluster %q count %d does not match %d members", c.Key, c.Count, len(c.Members))
		}
		found := false
		for _, m := range c.Members {
			if m == c.Representative {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("cluster %q representative is not a member", c.Key)
		}
	}
	return nil
}

// NewEmptyResult returns the canonical result for a window with no logs:
// zero counts, no clusters, and the fixed empty summary.
func NewEmptyResult(date time.Time, executionTime time.Duration) *AnalysisResult {
	return &AnalysisResult{
		Date:          date,
		Clusters:      []*LogCluster{},
		TopIssues:     []*LogCluster{},
		Summary:       EmptyResultSummary,
		ExecutionTime: executionTime,
	}
}

// ResultSummary is the lightweight listing shape returned by result
// storage queries.
type ResultSummary struct {
	ID                 string    `json:"id"`
	Date               time.Time `json:"date"`
	TotalLogsProcessed int64     `json:"total_logs_processed"`
	ErrorCount         int64     `json:"error_count"`
	WarningCount       int64     `json:"warning_count"`
	TopIssueCount      int       `json:"top_issue_count"`
	StoredAt           time.Time `json:"stored_at"`
}

// ReportMetadata describes one rendered report file on disk.
type ReportMetadata struct {
	Path      string    `json:"path"`
	Date      time.Time `json:"date"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
