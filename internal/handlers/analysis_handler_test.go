package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/analyzer"
	"github.com/UnyieldingOrca/timberline-sub000/internal/interfaces"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
	"github.com/UnyieldingOrca/timberline-sub000/internal/services/scheduler"
)

type mockTrigger struct {
	result *models.AnalysisResult
	err    error
	dates  []time.Time
}

func (m *mockTrigger) TriggerNow(ctx context.Context, date time.Time) (*models.AnalysisResult, error) {
	m.dates = append(m.dates, date)
	return m.result, m.err
}

type mockHealth struct {
	components map[string]bool
}

func (m *mockHealth) HealthCheck(ctx context.Context) map[string]bool {
	return m.components
}

type mockResultStorage struct {
	result    *models.AnalysisResult
	getErr    error
	location  string
	summaries []*models.ResultSummary
	listErr   error
	limit     int
}

func (m *mockResultStorage) Store(ctx context.Context, result *models.AnalysisResult, reportLocation string) (string, error) {
	return "id", nil
}

func (m *mockResultStorage) GetByDate(ctx context.Context, date time.Time) (*models.AnalysisResult, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.result, nil
}

func (m *mockResultStorage) GetReportLocationByDate(ctx context.Context, date time.Time) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	return m.location, nil
}

func (m *mockResultStorage) ListRecent(ctx context.Context, limit int) ([]*models.ResultSummary, error) {
	m.limit = limit
	return m.summaries, m.listErr
}

func (m *mockResultStorage) HealthCheck(ctx context.Context) bool { return true }

type mockReportSink struct {
	reports []*models.ReportMetadata
	content []byte
	err     error
}

func (m *mockReportSink) Save(result *models.AnalysisResult) (string, error) { return "", nil }

func (m *mockReportSink) Read(location string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.content, nil
}

func (m *mockReportSink) List(limit int) ([]*models.ReportMetadata, error) {
	return m.reports, m.err
}

func (m *mockReportSink) Cleanup(retentionDays int) (int, error) { return 0, nil }

func newTestHandler(trigger *mockTrigger, health *mockHealth, storage *mockResultStorage, sink *mockReportSink) *AnalysisHandler {
	if trigger == nil {
		trigger = &mockTrigger{}
	}
	if health == nil {
		health = &mockHealth{components: map[string]bool{"overall": true}}
	}
	if storage == nil {
		storage = &mockResultStorage{}
	}
	if sink == nil {
		sink = &mockReportSink{}
	}
	return NewAnalysisHandler(trigger, health, storage, sink, arbor.NewLogger())
}

func TestAnalyzeHandler(t *testing.T) {
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	trigger := &mockTrigger{result: models.NewEmptyResult(date, time.Second)}
	h := newTestHandler(trigger, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze?date=2026-08-20", nil)
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, trigger.dates, 1)
	assert.Equal(t, date, trigger.dates[0])

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, models.EmptyResultSummary, result.Summary)
}

func TestAnalyzeHandler_DefaultsToYesterday(t *testing.T) {
	trigger := &mockTrigger{result: models.NewEmptyResult(time.Now(), time.Second)}
	h := newTestHandler(trigger, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, trigger.dates, 1)
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	assert.Equal(t, yesterday.Format("2006-01-02"), trigger.dates[0].Format("2006-01-02"))
}

func TestAnalyzeHandler_BadDate(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze?date=yesterday", nil)
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalyzeHandler_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", analyzer.NewError(analyzer.KindValidation, "bad window"), http.StatusBadRequest},
		{"dependency", analyzer.NewError(analyzer.KindDependencyUnavailable, "llm down"), http.StatusServiceUnavailable},
		{"retrieval", analyzer.NewError(analyzer.KindRetrieval, "store down"), http.StatusBadGateway},
		{"in progress", scheduler.ErrRunInProgress, http.StatusConflict},
		{"other", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&mockTrigger{err: tt.err}, nil, nil, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/analyze?date=2026-08-20", nil)
			rec := httptest.NewRecorder()
			h.AnalyzeHandler(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestListResultsHandler(t *testing.T) {
	storage := &mockResultStorage{
		summaries: []*models.ResultSummary{
			{ID: "a", TotalLogsProcessed: 10},
			{ID: "b", TotalLogsProcessed: 20},
		},
	}
	h := newTestHandler(nil, nil, storage, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/results?limit=5", nil)
	rec := httptest.NewRecorder()
	h.ListResultsHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, storage.limit)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["count"])
}

func TestGetResultHandler(t *testing.T) {
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	storage := &mockResultStorage{result: models.NewEmptyResult(date, time.Second)}
	h := newTestHandler(nil, nil, storage, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/results/2026-08-20", nil)
	rec := httptest.NewRecorder()
	h.GetResultHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetResultHandler_NotFound(t *testing.T) {
	storage := &mockResultStorage{getErr: interfaces.ErrResultNotFound}
	h := newTestHandler(nil, nil, storage, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/results/2026-08-20", nil)
	rec := httptest.NewRecorder()
	h.GetResultHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetResultHandler_BadDate(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/results/not-a-date", nil)
	rec := httptest.NewRecorder()
	h.GetResultHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReportHandler(t *testing.T) {
	storage := &mockResultStorage{location: "reports/daily-report-2026-08-20.md"}
	sink := &mockReportSink{content: []byte("# Daily Log Analysis Report - 2026-08-20\n")}
	h := newTestHandler(nil, nil, storage, sink)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/2026-08-20", nil)
	rec := httptest.NewRecorder()
	h.GetReportHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Daily Log Analysis Report - 2026-08-20")
}

func TestGetReportHandler_NotFound(t *testing.T) {
	storage := &mockResultStorage{getErr: interfaces.ErrResultNotFound}
	h := newTestHandler(nil, nil, storage, &mockReportSink{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/2026-08-20", nil)
	rec := httptest.NewRecorder()
	h.GetReportHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReportHandler_BadDate(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/not-a-date", nil)
	rec := httptest.NewRecorder()
	h.GetReportHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReportsHandler(t *testing.T) {
	sink := &mockReportSink{
		reports: []*models.ReportMetadata{{Path: "reports/daily-report-2026-08-20.md"}},
	}
	h := newTestHandler(nil, nil, nil, sink)

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	rec := httptest.NewRecorder()
	h.ListReportsHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["count"])
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]bool
		wantStatus int
		wantWord   string
	}{
		{
			name:       "healthy",
			components: map[string]bool{"log_store": true, "classification": true, "overall": true},
			wantStatus: http.StatusOK,
			wantWord:   "ok",
		},
		{
			name:       "degraded",
			components: map[string]bool{"log_store": false, "classification": true, "overall": false},
			wantStatus: http.StatusServiceUnavailable,
			wantWord:   "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(nil, &mockHealth{components: tt.components}, nil, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			rec := httptest.NewRecorder()
			h.HealthHandler(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantWord, body["status"])
		})
	}
}

func TestGetLimitParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"limit=5", 5},
		{"limit=0", 20},
		{"limit=-1", 20},
		{"limit=500", 20},
		{"limit=abc", 20},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/results?"+tt.query, nil)
		assert.Equal(t, tt.want, GetLimitParam(req, 20), tt.query)
	}
}
