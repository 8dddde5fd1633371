package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

// ErrResultNotFound is returned when no analysis result exists for the
// requested date.
var ErrResultNotFound = errors.New("analysis result not found")

// ResultStorage persists analysis results alongside the location of
// their rendered reports.
type ResultStorage interface {
	// Store saves a result and its report location, returning the
	// generated id. Storing a second result for the same date replaces
	// the first.
	Store(ctx context.Context, result *models.AnalysisResult, reportLocation string) (string, error)

	// GetByDate returns the result for the given date, or
	// ErrResultNotFound.
	GetByDate(ctx context.Context, date time.Time) (*models.AnalysisResult, error)

	// GetReportLocationByDate returns the report location stored with
	// the result for the given date, or ErrResultNotFound.
	GetReportLocationByDate(ctx context.Context, date time.Time) (string, error)

	// ListRecent returns up to limit result summaries, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.ResultSummary, error)

	// HealthCheck reports whether the store is usable.
	HealthCheck(ctx context.Context) bool
}

// ReportSink renders and retains report files.
type ReportSink interface {
	// Save renders the result and writes the report, returning its
	// location.
	Save(result *models.AnalysisResult) (string, error)

	// Read returns the rendered report at the given location.
	Read(location string) ([]byte, error)

	// List returns metadata for up to limit reports, newest first.
	List(limit int) ([]*models.ReportMetadata, error)

	// Cleanup removes reports older than retentionDays, returning how
	// many were removed.
	Cleanup(retentionDays int) (int, error)
}
