package analyzer

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/interfaces"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

// Retriever fetches log records for a time window from the log store,
// retrying transient failures with exponential backoff.
type Retriever struct {
	storage    interfaces.LogStorage
	logger     arbor.ILogger
	maxRetries int
	maxWindow  time.Duration

	// sleep is swappable so tests do not wait out real backoffs.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetriever creates a retriever with the given retry budget. A
// maxRetries below 1 falls back to 3 attempts.
func NewRetriever(storage interfaces.LogStorage, logger arbor.ILogger, maxRetries, maxWindowDays int) *Retriever {
	if maxRetries < 1 {
		maxRetries = 3
	}
	if maxWindowDays < 1 {
		maxWindowDays = 7
	}
	return &Retriever{
		storage:    storage,
		logger:     logger,
		maxRetries: maxRetries,
		maxWindow:  time.Duration(maxWindowDays) * 24 * time.Hour,
		sleep:      sleepCtx,
	}
}

// Retrieve returns all records in [start, end). The window must be
// non-empty; windows longer than the configured maximum are allowed but
// logged as a warning. On repeated store failure the final underlying
// error is returned unchanged inside a retrieval-kind wrapper.
func (r *Retriever) Retrieve(ctx context.Context, start, end time.Time) ([]*models.LogRecord, error) {
	if !start.Before(end) {
		return nil, NewError(KindValidation, "invalid time range: start %s is not before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	if end.Sub(start) > r.maxWindow {
		r.logger.Warn().
			Str("start", start.Format(time.RFC3339)).
			Str("end", end.Format(time.RFC3339)).
			Dur("window", end.Sub(start)).
			Msg("Time window exceeds configured maximum")
	}

	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			r.logger.Warn().
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Err(lastErr).
				Msg("Retrying log store query")
			if err := r.sleep(ctx, backoff); err != nil {
				return nil, WrapError(KindRetrieval, err)
			}
		}

		records, err := r.storage.QueryTimeRange(ctx, start, end)
		if err == nil {
			r.logger.Debug().
				Int("records", len(records)).
				Int("attempts", attempt+1).
				Msg("Log retrieval completed")
			return records, nil
		}
		lastErr = err
	}

	r.logger.Error().
		Int("attempts", r.maxRetries).
		Err(lastErr).
		Msg("Log retrieval failed after exhausting retries")

	return nil, WrapError(KindRetrieval, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
