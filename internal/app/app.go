// Package app wires configuration, storage, services, and handlers into
// one application container.
package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/analyzer"
	"github.com/UnyieldingOrca/timberline-sub000/internal/common"
	"github.com/UnyieldingOrca/timberline-sub000/internal/handlers"
	"github.com/UnyieldingOrca/timberline-sub000/internal/interfaces"
	"github.com/UnyieldingOrca/timberline-sub000/internal/services/llm"
	"github.com/UnyieldingOrca/timberline-sub000/internal/services/logstore"
	"github.com/UnyieldingOrca/timberline-sub000/internal/services/reports"
	"github.com/UnyieldingOrca/timberline-sub000/internal/services/scheduler"
	badgerstore "github.com/UnyieldingOrca/timberline-sub000/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	BadgerDB      *badgerstore.BadgerDB
	ResultStorage interfaces.ResultStorage

	// External collaborators
	LogStorage     interfaces.LogStorage
	Classification interfaces.ClassificationService
	ReportSink     interfaces.ReportSink

	// Pipeline
	AnalyzerService  *analyzer.Service
	SchedulerService *scheduler.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	AnalysisHandler *handlers.AnalysisHandler
}

// New creates the application container and wires every component.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Result storage
	db, err := badgerstore.NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.BadgerDB = db
	app.ResultStorage = badgerstore.NewResultStorage(db, logger)

	// Log store client
	app.LogStorage = logstore.NewClient(&cfg.LogStore, logstore.WithLogger(logger))

	// Classification service
	classification, err := llm.NewService(cfg, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	app.Classification = classification

	// Report sink
	app.ReportSink = reports.NewService(&cfg.Reports, logger)

	// Analysis pipeline and scheduler
	app.AnalyzerService = analyzer.NewService(
		&cfg.Analysis,
		app.LogStorage,
		app.Classification,
		app.ResultStorage,
		app.ReportSink,
		logger,
	)
	app.SchedulerService = scheduler.NewService(app.AnalyzerService, logger)
	app.SchedulerService.SetHousekeeping(func() {
		if _, err := app.ReportSink.Cleanup(cfg.Reports.RetentionDays); err != nil {
			logger.Warn().Err(err).Msg("Report cleanup failed")
		}
		if err := db.RunGC(); err != nil {
			logger.Warn().Err(err).Msg("Database garbage collection failed")
		}
	})

	// HTTP handlers
	app.APIHandler = handlers.NewAPIHandler()
	app.AnalysisHandler = handlers.NewAnalysisHandler(
		app.SchedulerService,
		app.AnalyzerService,
		app.ResultStorage,
		app.ReportSink,
		logger,
	)

	logger.Info().
		Str("log_store", cfg.LogStore.BaseURL).
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Msg("Application initialized")

	return app, nil
}

// Close releases application resources in reverse dependency order.
func (a *App) Close() error {
	var firstErr error

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.Classification != nil {
		if err := a.Classification.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.LogStorage != nil {
		if err := a.LogStorage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.BadgerDB != nil {
		if err := a.BadgerDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	a.Logger.Info().Msg("Application closed")
	return firstErr
}
