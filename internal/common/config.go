package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	LogStore    LogStoreConfig  `toml:"log_store"`
	Analysis    AnalysisConfig  `toml:"analysis"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	LLM         LLMConfig       `toml:"llm"`
	Reports     ReportsConfig   `toml:"reports"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// LogStoreConfig configures the log store client
type LogStoreConfig struct {
	BaseURL        string `toml:"base_url"`        // Log store REST endpoint
	Collection     string `toml:"collection"`      // Collection holding log records
	RequestTimeout string `toml:"request_timeout"` // Per-request timeout as duration string (default: "30s")
	RateLimit      int    `toml:"rate_limit"`      // Requests per second
	PageSize       int    `toml:"page_size"`       // Query pagination size
	Token          string `toml:"token"`           // Bearer token (optional)
}

// AnalysisConfig tunes the analysis pipeline
type AnalysisConfig struct {
	MaxRetries       int `toml:"max_retries"`        // Log store retrieval attempts (default: 3)
	ClassifyWorkers  int `toml:"classify_workers"`   // Concurrent classification calls (default: 5)
	MaxWindowDays    int `toml:"max_window_days"`    // Window size that triggers a warning (default: 7)
	SummaryMaxIssues int `toml:"summary_max_issues"` // Top issues kept in the digest (default: 10)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for classification (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1024)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for classification (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "claude")
	MaxRetries      int         `toml:"max_retries"`      // API call retries (default: 2)
}

// ReportsConfig configures report rendering and retention
type ReportsConfig struct {
	Dir           string `toml:"dir"`            // Directory for rendered reports
	RetentionDays int    `toml:"retention_days"` // Reports older than this are removed by cleanup
	WebhookURL    string `toml:"webhook_url"`    // Optional digest webhook (empty = disabled)
}

// SchedulerConfig configures the daily analysis job
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule (default: daily at 06:00)
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here; only user-facing settings
// should be exposed in timberline.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		LogStore: LogStoreConfig{
			BaseURL:        "http://localhost:19530",
			Collection:     "timberline_logs",
			RequestTimeout: "30s",
			RateLimit:      10,
			PageSize:       1000,
		},
		Analysis: AnalysisConfig{
			MaxRetries:       3,
			ClassifyWorkers:  5,
			MaxWindowDays:    7,
			SummaryMaxIssues: 10,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1024,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
			MaxRetries:      2,
		},
		Reports: ReportsConfig{
			Dir:           "./reports",
			RetentionDays: 30,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Schedule: "0 6 * * *", // 06:00 daily
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier
// files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TIMBERLINE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("TIMBERLINE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TIMBERLINE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("TIMBERLINE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("TIMBERLINE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("TIMBERLINE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if baseURL := os.Getenv("TIMBERLINE_LOG_STORE_URL"); baseURL != "" {
		config.LogStore.BaseURL = baseURL
	}
	if collection := os.Getenv("TIMBERLINE_LOG_STORE_COLLECTION"); collection != "" {
		config.LogStore.Collection = collection
	}

	if workers := os.Getenv("TIMBERLINE_CLASSIFY_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			config.Analysis.ClassifyWorkers = w
		}
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if provider := os.Getenv("TIMBERLINE_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	if dir := os.Getenv("TIMBERLINE_REPORTS_DIR"); dir != "" {
		config.Reports.Dir = dir
	}
	if webhook := os.Getenv("TIMBERLINE_WEBHOOK_URL"); webhook != "" {
		config.Reports.WebhookURL = webhook
	}

	if schedule := os.Getenv("TIMBERLINE_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
