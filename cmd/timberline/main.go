package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/analyzer"
	"github.com/UnyieldingOrca/timberline-sub000/internal/app"
	"github.com/UnyieldingOrca/timberline-sub000/internal/common"
	"github.com/UnyieldingOrca/timberline-sub000/internal/server"
)

// Exit codes for one-shot analysis runs, keyed by pipeline error kind.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitDependency = 3
	exitRetrieval  = 4
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP  = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	analyzeDate  = flag.String("analyze", "", "Run one analysis for DATE (YYYY-MM-DD) and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	// Parse command-line flags
	flag.Parse()

	// Handle version flag
	if *showVersion || *showVersionV {
		fmt.Printf("Timberline version %s\n", common.GetVersion())
		os.Exit(exitOK)
	}

	// Merge port flags (shorthand takes precedence)
	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("timberline.toml"); err == nil {
			configFiles = append(configFiles, "timberline.toml")
		} else if _, err := os.Stat("deployments/local/timberline.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/timberline.toml")
		}
	}

	// 1. Load configuration (default -> file1 -> file2 -> ... -> env -> CLI)
	// Later config files override earlier ones
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(exitFailure)
	}

	// 2. Apply command-line flag overrides (highest priority)
	common.ApplyFlagOverrides(config, finalPort, *serverHost)

	// 3. Initialize logger with final configuration
	logger = common.InitLogger(config)

	// 4. Print banner
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("log_store", config.LogStore.BaseURL).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Msg("Application configuration loaded")

	// Initialize application
	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(exitFailure)
	}
	defer application.Close()

	// One-shot mode: run a single analysis and exit with a taxonomy code.
	// Close explicitly; os.Exit skips deferred calls.
	if *analyzeDate != "" {
		code := runOnce(application, *analyzeDate)
		if err := application.Close(); err != nil {
			logger.Warn().Err(err).Msg("Application shutdown reported errors")
		}
		os.Exit(code)
	}

	// Server mode: scheduler + HTTP API
	if config.Scheduler.Enabled {
		if err := application.SchedulerService.Start(config.Scheduler.Schedule); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start scheduler")
			os.Exit(exitFailure)
		}
	}

	srv := server.New(application)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Fatal().Str("panic", fmt.Sprintf("%v", r)).Msg("Server goroutine panicked")
			}
		}()

		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("Server ready - Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Interrupt signal received")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}

// runOnce executes a single analysis pass for the given date string.
func runOnce(application *app.App, rawDate string) int {
	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		logger.Error().Str("date", rawDate).Msg("Invalid date, expected YYYY-MM-DD")
		return exitValidation
	}

	result, err := application.AnalyzerService.Run(context.Background(), date)
	if err != nil {
		logger.Error().Err(err).Str("date", rawDate).Msg("Analysis failed")
		switch analyzer.KindOf(err) {
		case analyzer.KindValidation:
			return exitValidation
		case analyzer.KindDependencyUnavailable:
			return exitDependency
		case analyzer.KindRetrieval:
			return exitRetrieval
		default:
			return exitFailure
		}
	}

	logger.Info().
		Int64("total_logs", result.TotalLogsProcessed).
		Int64("errors", result.ErrorCount).
		Int64("warnings", result.WarningCount).
		Int("top_issues", len(result.TopIssues)).
		Str("execution_time", result.ExecutionTime.String()).
		Msg("Analysis complete")
	fmt.Println(result.Summary)

	return exitOK
}
