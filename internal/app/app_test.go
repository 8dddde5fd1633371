package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnyieldingOrca/timberline-sub000/internal/common"
)

func newTestConfig(t *testing.T) *common.Config {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = t.TempDir()
	cfg.Reports.Dir = t.TempDir()
	return cfg
}

func TestNew_WiresAllComponents(t *testing.T) {
	application, err := New(newTestConfig(t), common.GetLogger())
	require.NoError(t, err)
	defer application.Close()

	assert.NotNil(t, application.BadgerDB)
	assert.NotNil(t, application.ResultStorage)
	assert.NotNil(t, application.LogStorage)
	assert.NotNil(t, application.Classification)
	assert.NotNil(t, application.ReportSink)
	assert.NotNil(t, application.AnalyzerService)
	assert.NotNil(t, application.SchedulerService)
	assert.NotNil(t, application.APIHandler)
	assert.NotNil(t, application.AnalysisHandler)
}

// One-shot runs close the app explicitly before exiting; Close must
// succeed on an app whose scheduler was never started.
func TestClose_WithoutSchedulerStart(t *testing.T) {
	application, err := New(newTestConfig(t), common.GetLogger())
	require.NoError(t, err)

	assert.NoError(t, application.Close())
}
