package reports

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/common"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

func newTestService(t *testing.T, webhookURL string) *Service {
	t.Helper()
	return NewService(&common.ReportsConfig{
		Dir:           t.TempDir(),
		RetentionDays: 30,
		WebhookURL:    webhookURL,
	}, arbor.NewLogger())
}

func sampleResult(date time.Time) *models.AnalysisResult {
	rep := &models.LogRecord{
		ID:             1,
		Timestamp:      date.UnixMilli(),
		Message:        "db connection refused",
		Source:         "orders",
		Labels:         map[string]string{"app": "orders"},
		Level:          models.LevelError,
		DuplicateCount: 1,
	}
	cluster := &models.LogCluster{
		Key:            "app=orders",
		Representative: rep,
		Members:        []*models.LogRecord{rep},
		Count:          1,
		Severity:       models.SeverityHigh,
		Reasoning:      "database outage affecting order flow",
	}
	return &models.AnalysisResult{
		Date:               date,
		TotalLogsProcessed: 42,
		ErrorCount:         5,
		WarningCount:       3,
		Clusters:           []*models.LogCluster{cluster},
		TopIssues:          []*models.LogCluster{cluster},
		Summary:            "One high severity database issue.",
		ExecutionTime:      2 * time.Second,
	}
}

func TestSave(t *testing.T) {
	svc := newTestService(t, "")
	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	path, err := svc.Save(sampleResult(date))
	require.NoError(t, err)
	assert.Equal(t, "daily-report-2026-08-25.md", filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(content)
	assert.Contains(t, body, "# Daily Log Analysis Report - 2026-08-25")
	assert.Contains(t, body, "One high severity database issue.")
	assert.Contains(t, body, "Total logs processed: 42")
	assert.Contains(t, body, "[HIGH] app=orders")
	assert.Contains(t, body, "db connection refused")
	assert.Contains(t, body, "database outage affecting order flow")
}

func TestSave_OverwritesSameDate(t *testing.T) {
	svc := newTestService(t, "")
	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	first, err := svc.Save(sampleResult(date))
	require.NoError(t, err)

	updated := sampleResult(date)
	updated.Summary = "Revised summary."
	second, err := svc.Save(updated)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	content, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Revised summary.")
}

func TestSave_DeliversWebhook(t *testing.T) {
	var delivered bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered = true
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	_, err := svc.Save(sampleResult(time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, err)
	assert.True(t, delivered)
}

func TestSave_WebhookFailureNonFatal(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1")

	_, err := svc.Save(sampleResult(time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)))
	assert.NoError(t, err)
}

func TestRead(t *testing.T) {
	svc := newTestService(t, "")
	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	location, err := svc.Save(sampleResult(date))
	require.NoError(t, err)

	content, err := svc.Read(location)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Daily Log Analysis Report - 2026-08-25")
}

func TestRead_MissingFile(t *testing.T) {
	svc := newTestService(t, "")

	_, err := svc.Read(filepath.Join(svc.dir, "daily-report-2026-08-25.md"))
	assert.Error(t, err)
}

func TestRead_RejectsLocationOutsideDirectory(t *testing.T) {
	svc := newTestService(t, "")

	outside := filepath.Join(t.TempDir(), "daily-report-2026-08-25.md")
	require.NoError(t, os.WriteFile(outside, []byte("# stray"), 0644))

	_, err := svc.Read(outside)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the report directory")
}

func TestList(t *testing.T) {
	svc := newTestService(t, "")

	for day := 1; day <= 4; day++ {
		_, err := svc.Save(sampleResult(time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
	}
	// Stray file is ignored.
	require.NoError(t, os.WriteFile(filepath.Join(svc.dir, "notes.txt"), []byte("x"), 0644))

	reports, err := svc.List(2)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, 4, reports[0].Date.Day())
	assert.Equal(t, 3, reports[1].Date.Day())
	assert.Greater(t, reports[0].SizeBytes, int64(0))
}

func TestList_MissingDirectory(t *testing.T) {
	svc := NewService(&common.ReportsConfig{Dir: filepath.Join(t.TempDir(), "nope")}, arbor.NewLogger())

	reports, err := svc.List(10)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestCleanup(t *testing.T) {
	svc := newTestService(t, "")
	now := time.Now().UTC()

	_, err := svc.Save(sampleResult(now.AddDate(0, 0, -40)))
	require.NoError(t, err)
	_, err = svc.Save(sampleResult(now.AddDate(0, 0, -35)))
	require.NoError(t, err)
	_, err = svc.Save(sampleResult(now))
	require.NoError(t, err)

	removed, err := svc.Cleanup(30)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := svc.List(0)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestCleanup_ZeroRetentionIsNoop(t *testing.T) {
	svc := newTestService(t, "")
	_, err := svc.Save(sampleResult(time.Now().UTC().AddDate(0, 0, -100)))
	require.NoError(t, err)

	removed, err := svc.Cleanup(0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRender_NoIssues(t *testing.T) {
	result := models.NewEmptyResult(time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), time.Second)

	body := Render(result)
	assert.Contains(t, body, models.EmptyResultSummary)
	assert.Contains(t, body, "No issues requiring attention.")
}
