package analyzer

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/common"
	"github.com/UnyieldingOrca/timberline-sub000/internal/interfaces"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

// Service orchestrates one analysis run: retrieve the day's records,
// group them, classify each cluster, aggregate into a result, then hand
// the result to the reporting surfaces. Reporting failures never fail a
// run; everything earlier follows the taxonomy in errors.go.
type Service struct {
	retriever  *Retriever
	grouper    *Grouper
	classifier *Classifier
	aggregator *Aggregator

	logStorage     interfaces.LogStorage
	classification interfaces.ClassificationService
	resultStorage  interfaces.ResultStorage
	reportSink     interfaces.ReportSink

	logger arbor.ILogger
}

// NewService wires the pipeline stages from configuration and the
// external collaborators. resultStorage and reportSink may be nil; the
// pipeline then runs without persistence.
func NewService(
	cfg *common.AnalysisConfig,
	logStorage interfaces.LogStorage,
	classification interfaces.ClassificationService,
	resultStorage interfaces.ResultStorage,
	reportSink interfaces.ReportSink,
	logger arbor.ILogger,
) *Service {
	return &Service{
		retriever:      NewRetriever(logStorage, logger, cfg.MaxRetries, cfg.MaxWindowDays),
		grouper:        NewGrouper(logger),
		classifier:     NewClassifier(classification, logger, cfg.ClassifyWorkers),
		aggregator:     NewAggregator(classification, logger, cfg.SummaryMaxIssues),
		logStorage:     logStorage,
		classification: classification,
		resultStorage:  resultStorage,
		reportSink:     reportSink,
		logger:         logger,
	}
}

// Run executes the pipeline for the UTC day containing date.
func (s *Service) Run(ctx context.Context, date time.Time) (*models.AnalysisResult, error) {
	started := time.Now()

	day := date.UTC().Truncate(24 * time.Hour)
	start := day
	end := day.Add(24 * time.Hour)

	s.logger.Info().
		Str("date", day.Format("2006-01-02")).
		Msg("Starting log analysis run")

	// The classification service is required for every non-empty run;
	// gate on it before touching the log store.
	if !s.classification.HealthCheck(ctx) {
		return nil, NewError(KindDependencyUnavailable, "classification service is unavailable")
	}

	records, err := s.retriever.Retrieve(ctx, start, end)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		s.logger.Info().
			Str("date", day.Format("2006-01-02")).
			Msg("No logs found in window, returning empty result")
		result := models.NewEmptyResult(day, time.Since(started))
		s.report(ctx, result)
		return result, nil
	}

	clusters := s.grouper.Group(records)
	s.classifier.Classify(ctx, clusters)

	result := s.aggregator.Aggregate(ctx, day, clusters, records)
	result.ExecutionTime = time.Since(started)

	s.report(ctx, result)

	s.logger.Info().
		Str("date", day.Format("2006-01-02")).
		Int64("total_logs", result.TotalLogsProcessed).
		Int64("errors", result.ErrorCount).
		Int64("warnings", result.WarningCount).
		Int("clusters", len(result.Clusters)).
		Int("top_issues", len(result.TopIssues)).
		Dur("duration", result.ExecutionTime).
		Msg("Log analysis run completed")

	return result, nil
}

// report renders, saves, and persists the result. Every failure here is a
// reporting fault: logged and swallowed so the run still completes.
func (s *Service) report(ctx context.Context, result *models.AnalysisResult) {
	var rendered string

	if s.reportSink != nil {
		location, err := s.reportSink.Save(result)
		if err != nil {
			s.logger.Error().
				Str("kind", string(KindReporting)).
				Err(err).
				Msg("Report save failed, continuing without report file")
		} else {
			rendered = location
			s.logger.Info().Str("location", location).Msg("Report saved")
		}
	}

	if s.resultStorage != nil {
		id, err := s.resultStorage.Store(ctx, result, rendered)
		if err != nil {
			s.logger.Error().
				Str("kind", string(KindReporting)).
				Err(err).
				Msg("Result persistence failed, continuing with in-memory result")
		} else {
			s.logger.Debug().Str("result_id", id).Msg("Result persisted")
		}
	}
}

// HealthCheck reports per-collaborator health plus an overall flag that is
// the AND of every component.
func (s *Service) HealthCheck(ctx context.Context) map[string]bool {
	health := map[string]bool{
		"log_store":      s.logStorage.HealthCheck(ctx),
		"classification": s.classification.HealthCheck(ctx),
	}
	if s.resultStorage != nil {
		health["result_storage"] = s.resultStorage.HealthCheck(ctx)
	}

	overall := true
	for _, ok := range health {
		overall = overall && ok
	}
	health["overall"] = overall
	return health
}
