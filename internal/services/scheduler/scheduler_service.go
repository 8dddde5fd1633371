// Package scheduler runs the daily analysis on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

// ErrRunInProgress is returned by TriggerNow when an analysis run is
// already in flight.
var ErrRunInProgress = errors.New("analysis already in progress")

// AnalysisRunner executes one analysis pass for the given date.
type AnalysisRunner interface {
	Run(ctx context.Context, date time.Time) (*models.AnalysisResult, error)
}

// Service triggers the analysis pipeline on a cron schedule. Each firing
// analyzes the previous calendar day.
type Service struct {
	runner     AnalysisRunner
	cron       *cron.Cron
	logger     arbor.ILogger
	runTimeout time.Duration

	mu        sync.Mutex // protects running and isRunning
	running   bool
	isRunning bool

	lastRun   *time.Time
	lastError string

	housekeep func()

	// now is swapped in tests
	now func() time.Time
}

// NewService creates a new scheduler service
func NewService(runner AnalysisRunner, logger arbor.ILogger) *Service {
	return &Service{
		runner:     runner,
		cron:       cron.New(),
		logger:     logger,
		runTimeout: 30 * time.Minute,
		now:        time.Now,
	}
}

// SetHousekeeping registers a callback run after every scheduled
// analysis, regardless of its outcome.
func (s *Service) SetHousekeeping(fn func()) {
	s.housekeep = fn
}

// Start begins the scheduler with the given cron expression
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		cronExpr = "0 6 * * *" // Default: daily at 06:00
	}

	if _, err := s.cron.AddFunc(cronExpr, s.runScheduledAnalysis); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("cron_expr", cronExpr).
		Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler and waits for an in-flight run to finish.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Scheduled analysis did not finish within shutdown timeout")
	}

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// TriggerNow runs the analysis for the given date outside the schedule.
// It shares the single-flight guard with scheduled runs.
func (s *Service) TriggerNow(ctx context.Context, date time.Time) (*models.AnalysisResult, error) {
	if !s.acquire() {
		return nil, ErrRunInProgress
	}
	defer s.release()

	return s.runner.Run(ctx, date)
}

// Status reports the last run time and error, if any.
func (s *Service) Status() (lastRun *time.Time, lastError string, inProgress bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastError, s.isRunning
}

// runScheduledAnalysis analyzes the previous calendar day. Panics from the
// pipeline are contained so a bad run cannot take down the scheduler.
func (s *Service) runScheduledAnalysis() {
	if !s.acquire() {
		s.logger.Warn().Msg("Skipping scheduled analysis: previous run still in progress")
		return
	}
	defer s.release()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Scheduled analysis panicked")
			s.recordOutcome(fmt.Errorf("panic: %v", r))
		}
	}()

	date := s.now().UTC().AddDate(0, 0, -1)

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	s.logger.Info().
		Str("date", date.Format("2006-01-02")).
		Msg("Starting scheduled analysis")

	result, err := s.runner.Run(ctx, date)
	s.recordOutcome(err)

	if s.housekeep != nil {
		s.housekeep()
	}

	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled analysis failed")
		return
	}

	s.logger.Info().
		Int64("total_logs", result.TotalLogsProcessed).
		Int("top_issues", len(result.TopIssues)).
		Str("execution_time", result.ExecutionTime.String()).
		Msg("Scheduled analysis complete")
}

func (s *Service) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return false
	}
	s.isRunning = true
	return true
}

func (s *Service) release() {
	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
}

func (s *Service) recordOutcome(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	s.lastRun = &now
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}
