// Package reports renders daily analysis digests to markdown files and
// optionally pushes them to a webhook.
package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/common"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

const (
	reportFilePrefix = "daily-report-"
	reportFileExt    = ".md"
	webhookTimeout   = 10 * time.Second
)

// Service writes rendered reports to the configured directory.
type Service struct {
	dir        string
	webhookURL string
	httpClient *http.Client
	logger     arbor.ILogger
}

// NewService creates a new report sink service
func NewService(cfg *common.ReportsConfig, logger arbor.ILogger) *Service {
	return &Service{
		dir:        cfg.Dir,
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: webhookTimeout},
		logger:     logger,
	}
}

// Save renders the result to markdown and writes it under the report
// directory. When a webhook is configured the digest is also POSTed;
// webhook failures are logged but never fail the save.
func (s *Service) Save(result *models.AnalysisResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("analysis result is required")
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	rendered := Render(result)
	path := filepath.Join(s.dir, reportFileName(result.Date))

	if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	s.logger.Info().
		Str("path", path).
		Str("date", result.Date.UTC().Format("2006-01-02")).
		Msg("Report written")

	if s.webhookURL != "" {
		if err := s.postWebhook(result); err != nil {
			s.logger.Warn().Err(err).Str("url", s.webhookURL).Msg("Report webhook delivery failed")
		}
	}

	return path, nil
}

// Read returns the rendered report at the given location. Locations come
// from result storage, but only files inside the report directory are
// served.
func (s *Service) Read(location string) ([]byte, error) {
	dir, err := filepath.Abs(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report directory: %w", err)
	}
	path, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report location: %w", err)
	}
	if filepath.Dir(path) != dir {
		return nil, fmt.Errorf("report location %s is outside the report directory", location)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	return content, nil
}

// List returns metadata for up to limit reports, newest first.
func (s *Service) List(limit int) ([]*models.ReportMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.ReportMetadata{}, nil
		}
		return nil, fmt.Errorf("failed to read report directory: %w", err)
	}

	var reports []*models.ReportMetadata
	for _, entry := range entries {
		date, ok := parseReportFileName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		reports = append(reports, &models.ReportMetadata{
			Path:      filepath.Join(s.dir, entry.Name()),
			Date:      date,
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Date.After(reports[j].Date)
	})

	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

// Cleanup removes reports dated before the retention window, returning
// how many were removed.
func (s *Service) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	reports, err := s.List(0)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, report := range reports {
		if !report.Date.Before(cutoff) {
			continue
		}
		if err := os.Remove(report.Path); err != nil {
			s.logger.Warn().Err(err).Str("path", report.Path).Msg("Failed to remove expired report")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Int("retention_days", retentionDays).Msg("Expired reports removed")
	}
	return removed, nil
}

func (s *Service) postWebhook(result *models.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode digest: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func reportFileName(date time.Time) string {
	return reportFilePrefix + date.UTC().Format("2006-01-02") + reportFileExt
}

func parseReportFileName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, reportFilePrefix) || !strings.HasSuffix(name, reportFileExt) {
		return time.Time{}, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(name, reportFilePrefix), reportFileExt)
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
