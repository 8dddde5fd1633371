package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/UnyieldingOrca/timberline-sub000/internal/interfaces"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

const dateKeyLayout = "2006-01-02"

// storedResult is the persisted shape of one analysis run. The record is
// keyed by date so re-running a day replaces the earlier result.
type storedResult struct {
	ID             string
	Date           time.Time
	StoredAt       time.Time
	Result         *models.AnalysisResult
	ReportLocation string
}

// ResultStorage implements the ResultStorage interface for Badger
type ResultStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewResultStorage creates a new ResultStorage instance
func NewResultStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ResultStorage {
	return &ResultStorage{
		db:     db,
		logger: logger,
	}
}

func dateKey(date time.Time) string {
	return date.UTC().Format(dateKeyLayout)
}

func (s *ResultStorage) Store(ctx context.Context, result *models.AnalysisResult, reportLocation string) (string, error) {
	if result == nil {
		return "", fmt.Errorf("analysis result is required")
	}
	if err := result.Validate(); err != nil {
		return "", fmt.Errorf("invalid analysis result: %w", err)
	}

	record := &storedResult{
		ID:             uuid.New().String(),
		Date:           result.Date.UTC(),
		StoredAt:       time.Now().UTC(),
		Result:         result,
		ReportLocation: reportLocation,
	}

	if err := s.db.Store().Upsert(dateKey(result.Date), record); err != nil {
		return "", fmt.Errorf("failed to store analysis result: %w", err)
	}

	s.logger.Debug().
		Str("id", record.ID).
		Str("date", dateKey(result.Date)).
		Msg("Analysis result stored")

	return record.ID, nil
}

func (s *ResultStorage) GetByDate(ctx context.Context, date time.Time) (*models.AnalysisResult, error) {
	var record storedResult
	if err := s.db.Store().Get(dateKey(date), &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get analysis result: %w", err)
	}
	return record.Result, nil
}

// GetReportLocationByDate returns the report location stored alongside the result.
func (s *ResultStorage) GetReportLocationByDate(ctx context.Context, date time.Time) (string, error) {
	var record storedResult
	if err := s.db.Store().Get(dateKey(date), &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return "", interfaces.ErrResultNotFound
		}
		return "", fmt.Errorf("failed to get report location: %w", err)
	}
	return record.ReportLocation, nil
}

func (s *ResultStorage) ListRecent(ctx context.Context, limit int) ([]*models.ResultSummary, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("Date").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []storedResult
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}

	summaries := make([]*models.ResultSummary, len(records))
	for i := range records {
		summaries[i] = &models.ResultSummary{
			ID:                 records[i].ID,
			Date:               records[i].Date,
			TotalLogsProcessed: records[i].Result.TotalLogsProcessed,
			ErrorCount:         records[i].Result.ErrorCount,
			WarningCount:       records[i].Result.WarningCount,
			TopIssueCount:      len(records[i].Result.TopIssues),
			StoredAt:           records[i].StoredAt,
		}
	}
	return summaries, nil
}

func (s *ResultStorage) HealthCheck(ctx context.Context) bool {
	if s.db == nil || s.db.Store() == nil {
		return false
	}
	var record storedResult
	err := s.db.Store().Get("health-probe", &record)
	return err == nil || err == badgerhold.ErrNotFound
}
