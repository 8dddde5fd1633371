package analyzer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/interfaces"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

// Aggregator folds the classified clusters and the raw retrieval counts
// into a single AnalysisResult.
type Aggregator struct {
	service   interfaces.ClassificationService
	logger    arbor.ILogger
	maxIssues int
}

// NewAggregator creates an aggregator. maxIssues can shrink the digest
// below models.MaxTopIssues but never exceed it; values below 1 fall back
// to the model bound.
func NewAggregator(service interfaces.ClassificationService, logger arbor.ILogger, maxIssues int) *Aggregator {
	if maxIssues < 1 || maxIssues > models.MaxTopIssues {
		maxIssues = models.MaxTopIssues
	}
	return &Aggregator{service: service, logger: logger, maxIssues: maxIssues}
}

// Aggregate computes duplicate-weighted totals over the retrieved records,
// derives the bounded top-issues list, and requests the digest summary.
// A failed summary call degrades to a minimal generated fallback; the
// summary field is never empty.
func (a *Aggregator) Aggregate(ctx context.Context, date time.Time, clusters []*models.LogCluster, records []*models.LogRecord) *models.AnalysisResult {
	var total, errorCount, warningCount int64
	for _, r := range records {
		weight := int64(r.DuplicateCount)
		total += weight
		switch {
		case r.Level.IsErrorOrCritical():
			errorCount += weight
		case r.Level == models.LevelWarning:
			warningCount += weight
		}
	}

	topIssues := selectTopIssues(clusters, a.maxIssues)

	summary, err := a.service.Summarize(ctx, total, errorCount, warningCount, topIssues)
	if err != nil || summary == "" {
		if err != nil {
			a.logger.Warn().Err(err).Msg("Summary generation failed, using fallback summary")
		}
		summary = fallbackSummary(total, errorCount, warningCount, len(topIssues))
	}

	return &models.AnalysisResult{
		Date:               date,
		TotalLogsProcessed: total,
		ErrorCount:         errorCount,
		WarningCount:       warningCount,
		Clusters:           clusters,
		TopIssues:          topIssues,
		Summary:            summary,
	}
}

// selectTopIssues returns the actionable clusters ordered by severity rank
// descending then member count descending, truncated to maxIssues.
// Equal-rank equal-count ties keep the grouper's cluster order.
func selectTopIssues(clusters []*models.LogCluster, maxIssues int) []*models.LogCluster {
	actionable := make([]*models.LogCluster, 0, len(clusters))
	for _, c := range clusters {
		if c.Severity.IsActionable() {
			actionable = append(actionable, c)
		}
	}

	sort.SliceStable(actionable, func(i, j int) bool {
		ri, rj := actionable[i].Severity.Rank(), actionable[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return actionable[i].Count > actionable[j].Count
	})

	if len(actionable) > maxIssues {
		actionable = actionable[:maxIssues]
	}
	return actionable
}

func fallbackSummary(total, errorCount, warningCount int64, topIssues int) string {
	return fmt.Sprintf("Processed %d logs: %d errors, %d warnings, %d issues requiring attention.",
		total, errorCount, warningCount, topIssues)
}
