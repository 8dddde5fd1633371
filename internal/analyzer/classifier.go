package analyzer

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/interfaces"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

// FallbackSeverity is assigned to a cluster whose classification call
// failed. Medium keeps the cluster visible in the digest without claiming
// certainty the classifier never provided.
const FallbackSeverity = models.SeverityMedium

// Classifier assigns a severity to each cluster by fanning calls out to
// the classification service through a bounded worker pool. Faults are
// contained per cluster; Classify itself never fails.
type Classifier struct {
	service interfaces.ClassificationService
	logger  arbor.ILogger
	workers int
}

// NewClassifier creates a classifier with the given pool width. A width
// below 1 falls back to 5 workers.
func NewClassifier(service interfaces.ClassificationService, logger arbor.ILogger, workers int) *Classifier {
	if workers < 1 {
		workers = 5
	}
	return &Classifier{
		service: service,
		logger:  logger,
		workers: workers,
	}
}

// Classify dispatches every cluster to the classification service and
// blocks until all calls have completed. Each goroutine owns exactly one
// cluster, so the join barrier is the only synchronization needed before
// the results are read. A failed call marks its own cluster with the
// fallback severity and a reasoning string recording the failure.
func (c *Classifier) Classify(ctx context.Context, clusters []*models.LogCluster) {
	if len(clusters) == 0 {
		return
	}

	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup

	for _, cluster := range clusters {
		wg.Add(1)
		go func(cl *models.LogCluster) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			c.classifyOne(ctx, cl)
		}(cluster)
	}

	wg.Wait()

	c.logger.Debug().
		Int("clusters", len(clusters)).
		Int("workers", c.workers).
		Msg("Cluster classification completed")
}

func (c *Classifier) classifyOne(ctx context.Context, cluster *models.LogCluster) {
	analysis, err := c.service.AnalyzeCluster(ctx, cluster)
	if err != nil {
		c.logger.Warn().
			Str("cluster", cluster.Key).
			Err(err).
			Msg("Cluster classification failed, assigning fallback severity")
		cluster.Severity = FallbackSeverity
		cluster.Reasoning = fmt.Sprintf("classification failed: %v", err)
		return
	}

	cluster.Severity = analysis.Severity
	cluster.Reasoning = analysis.Reasoning
}
