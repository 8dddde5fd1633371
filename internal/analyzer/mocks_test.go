package analyzer

import (
	"context"
	"sync"
	"time"

	"github.com/UnyieldingOrca/timberline-sub000/internal/interfaces"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

// mockLogStorage implements interfaces.LogStorage for testing
type mockLogStorage struct {
	mu      sync.Mutex
	records []*models.LogRecord
	errs    []error // consumed per call; nil entry = success
	calls   int
	healthy bool
}

func (m *mockLogStorage) QueryTimeRange(ctx context.Context, start, end time.Time) ([]*models.LogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.calls
	m.calls++
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	return m.records, nil
}

func (m *mockLogStorage) HealthCheck(ctx context.Context) bool { return m.healthy }
func (m *mockLogStorage) Close() error                         { return nil }

func (m *mockLogStorage) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockClassificationService implements interfaces.ClassificationService
type mockClassificationService struct {
	mu           sync.Mutex
	analyzeFunc  func(cluster *models.LogCluster) (*interfaces.ClusterAnalysis, error)
	summary      string
	summaryErr   error
	healthy      bool
	analyzeCalls int
	summarized   bool

	inFlight    int
	maxInFlight int
}

func (m *mockClassificationService) AnalyzeCluster(ctx context.Context, cluster *models.LogCluster) (*interfaces.ClusterAnalysis, error) {
	m.mu.Lock()
	m.analyzeCalls++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.mu.Unlock()

	// Give other workers a chance to overlap so maxInFlight is meaningful.
	time.Sleep(time.Millisecond)

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.analyzeFunc != nil {
		return m.analyzeFunc(cluster)
	}
	return &interfaces.ClusterAnalysis{Severity: models.SeverityLow, Reasoning: "routine"}, nil
}

func (m *mockClassificationService) Summarize(ctx context.Context, totalLogs, errorCount, warningCount int64, topIssues []*models.LogCluster) (string, error) {
	m.mu.Lock()
	m.summarized = true
	m.mu.Unlock()
	if m.summaryErr != nil {
		return "", m.summaryErr
	}
	return m.summary, nil
}

func (m *mockClassificationService) HealthCheck(ctx context.Context) bool { return m.healthy }
func (m *mockClassificationService) Close() error                         { return nil }

func (m *mockClassificationService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analyzeCalls
}

// mockResultStorage implements interfaces.ResultStorage
type mockResultStorage struct {
	mu       sync.Mutex
	stored   []*models.AnalysisResult
	storeErr error
	healthy  bool
}

func (m *mockResultStorage) Store(ctx context.Context, result *models.AnalysisResult, reportLocation string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return "", m.storeErr
	}
	m.stored = append(m.stored, result)
	return "result-1", nil
}

func (m *mockResultStorage) GetByDate(ctx context.Context, date time.Time) (*models.AnalysisResult, error) {
	return nil, interfaces.ErrResultNotFound
}

func (m *mockResultStorage) GetReportLocationByDate(ctx context.Context, date time.Time) (string, error) {
	return "", interfaces.ErrResultNotFound
}

func (m *mockResultStorage) ListRecent(ctx context.Context, limit int) ([]*models.ResultSummary, error) {
	return nil, nil
}

func (m *mockResultStorage) HealthCheck(ctx context.Context) bool { return m.healthy }

// mockReportSink implements interfaces.ReportSink
type mockReportSink struct {
	saved   int
	saveErr error
}

func (m *mockReportSink) Save(result *models.AnalysisResult) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.saved++
	return "/tmp/report.md", nil
}

func (m *mockReportSink) Read(location string) ([]byte, error)             { return nil, nil }
func (m *mockReportSink) List(limit int) ([]*models.ReportMetadata, error) { return nil, nil }
func (m *mockReportSink) Cleanup(retentionDays int) (int, error)           { return 0, nil }

// record builds a LogRecord with duplicate count 1.
func record(id int64, ts int64, level models.LogLevel, source string, labels map[string]string) *models.LogRecord {
	return &models.LogRecord{
		ID:             id,
		Timestamp:      ts,
		Message:        "test message",
		Source:         source,
		Labels:         labels,
		Level:          level,
		DuplicateCount: 1,
	}
}
