package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/common"
	"github.com/UnyieldingOrca/timberline-sub000/internal/interfaces"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

const classifySystemPrompt = `You are a log analysis assistant for a service fleet.
You judge how urgent a group of similar log lines is for the on-call operator.
Respond with a single JSON object and nothing else.`

// healthCacheTTL bounds how often the health probe hits the provider.
const healthCacheTTL = time.Minute

// Service implements interfaces.ClassificationService on top of the
// provider factory. One instance is shared by all pipeline runs.
type Service struct {
	generator contentGenerator
	logger    arbor.ILogger
	timeout   time.Duration

	healthMu      sync.Mutex
	healthChecked time.Time
	healthOK      bool
}

// NewService creates the classification service. The provider choice
// (Claude or Gemini) comes from llm.default_provider in the config.
func NewService(cfg *common.Config, logger arbor.ILogger) (*Service, error) {
	timeoutStr := cfg.Claude.Timeout
	if ProviderType(cfg.LLM.DefaultProvider) == ProviderGemini {
		timeoutStr = cfg.Gemini.Timeout
	}
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM timeout duration %q: %w", timeoutStr, err)
	}

	factory := NewProviderFactory(&cfg.Claude, &cfg.Gemini, &cfg.LLM, logger)

	logger.Debug().
		Str("provider", string(cfg.LLM.DefaultProvider)).
		Dur("timeout", timeout).
		Msg("Classification service initialized")

	return &Service{
		generator: factory,
		logger:    logger,
		timeout:   timeout,
	}, nil
}

// clusterAnalysisResponse is the JSON shape the model is asked to return.
type clusterAnalysisResponse struct {
	Severity  string `json:"severity"`
	Reasoning string `json:"reasoning"`
}

// AnalyzeCluster classifies one cluster. Transport errors, non-JSON
// responses, and severities outside the fixed set all fail; the caller
// contains the fault.
func (s *Service) AnalyzeCluster(ctx context.Context, cluster *models.LogCluster) (*interfaces.ClusterAnalysis, error) {
	if cluster == nil || cluster.Representative == nil {
		return nil, fmt.Errorf("cluster has no representative record")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.generator.GenerateContent(timeoutCtx, &ContentRequest{
		System: classifySystemPrompt,
		Prompt: buildClassifyPrompt(cluster),
	})
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}

	analysis, err := parseClusterAnalysis(response)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("cluster", cluster.Key).
		Str("severity", string(analysis.Severity)).
		Msg("Cluster classified")

	return analysis, nil
}

// Summarize produces the digest paragraph for a completed run.
func (s *Service) Summarize(ctx context.Context, totalLogs, errorCount, warningCount int64, topIssues []*models.LogCluster) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.generator.GenerateContent(timeoutCtx, &ContentRequest{
		System: "You write one-paragraph operational digests for engineers. Plain text only.",
		Prompt: buildSummaryPrompt(totalLogs, errorCount, warningCount, topIssues),
	})
	if err != nil {
		return "", fmt.Errorf("summary call failed: %w", err)
	}

	summary := strings.TrimSpace(response)
	if summary == "" {
		return "", fmt.Errorf("summary response was empty")
	}
	return summary, nil
}

// HealthCheck probes the provider with a minimal request. Results are
// cached briefly so repeated gates do not burn quota.
func (s *Service) HealthCheck(ctx context.Context) bool {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	if time.Since(s.healthChecked) < healthCacheTTL {
		return s.healthOK
	}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	response, err := s.generator.GenerateContent(probeCtx, &ContentRequest{
		Prompt:    "Reply with the single word: ok",
		MaxTokens: 8,
	})

	s.healthChecked = time.Now()
	s.healthOK = err == nil && strings.TrimSpace(response) != ""

	if err != nil {
		s.logger.Warn().Err(err).Msg("Classification service health probe failed")
	}

	return s.healthOK
}

// Close releases provider clients.
func (s *Service) Close() error {
	if closer, ok := s.generator.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func buildClassifyPrompt(cluster *models.LogCluster) string {
	rep := cluster.Representative

	var b strings.Builder
	b.WriteString("Classify the severity of this group of similar log lines.\n\n")
	fmt.Fprintf(&b, "Representative message: %s\n", rep.Message)
	fmt.Fprintf(&b, "Log level: %s\n", rep.Level)
	fmt.Fprintf(&b, "Source service: %s\n", rep.Source)
	fmt.Fprintf(&b, "Occurrences in group: %d\n", cluster.Count)
	fmt.Fprintf(&b, "Distinct source services: %d\n", cluster.DistinctSources())
	b.WriteString("\nRespond with JSON: {\"severity\": \"low|medium|high|critical\", \"reasoning\": \"one sentence\"}")
	return b.String()
}

func buildSummaryPrompt(totalLogs, errorCount, warningCount int64, topIssues []*models.LogCluster) string {
	var b strings.Builder
	b.WriteString("Write a short daily digest of fleet log health.\n\n")
	fmt.Fprintf(&b, "Total logs processed: %d\n", totalLogs)
	fmt.Fprintf(&b, "Errors: %d\n", errorCount)
	fmt.Fprintf(&b, "Warnings: %d\n", warningCount)

	if len(topIssues) == 0 {
		b.WriteString("No issues required attention.\n")
	} else {
		b.WriteString("Top issues:\n")
		for i, issue := range topIssues {
			msg := ""
			if issue.Representative != nil {
				msg = issue.Representative.Message
			}
			fmt.Fprintf(&b, "%d. [%s] x%d: %s\n", i+1, issue.Severity, issue.Count, msg)
		}
	}

	b.WriteString("\nSummarize what went wrong and what the operator should look at first. One paragraph.")
	return b.String()
}

// parseClusterAnalysis extracts severity and reasoning from the model
// response. Tolerates markdown code fences around the JSON; rejects any
// severity outside the fixed set.
func parseClusterAnalysis(response string) (*interfaces.ClusterAnalysis, error) {
	cleaned := stripCodeFences(response)

	var parsed clusterAnalysisResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("malformed classification response: %w", err)
	}

	severity, ok := models.ParseSeverity(strings.ToLower(strings.TrimSpace(parsed.Severity)))
	if !ok {
		return nil, fmt.Errorf("unknown severity value %q in classification response", parsed.Severity)
	}

	return &interfaces.ClusterAnalysis{
		Severity:  severity,
		Reasoning: strings.TrimSpace(parsed.Reasoning),
	}, nil
}

func stripCodeFences(response string) string {
	cleaned := strings.TrimSpace(response)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}
