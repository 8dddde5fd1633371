package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnyieldingOrca/timberline-sub000/internal/common"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

func TestClusterKey(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
		want   string
	}{
		{"nil labels", nil, "no-labels"},
		{"empty labels", map[string]string{}, "no-labels"},
		{"single label", map[string]string{"app": "api"}, "app=api"},
		{"multiple labels sorted by key", map[string]string{"env": "prod", "app": "api"}, "app=api|env=prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clusterKey(tt.labels))
		})
	}
}

func TestGrouper_EmptyInput(t *testing.T) {
	g := NewGrouper(common.GetLogger())

	clusters := g.Group(nil)
	assert.Empty(t, clusters)

	clusters = g.Group([]*models.LogRecord{})
	assert.Empty(t, clusters)
}

func TestGrouper_SingleRecord(t *testing.T) {
	g := NewGrouper(common.GetLogger())

	rec := record(1, 100, models.LevelInfo, "api", map[string]string{"app": "a"})
	clusters := g.Group([]*models.LogRecord{rec})

	require.Len(t, clusters, 1)
	assert.Equal(t, 1, clusters[0].Count)
	assert.Same(t, rec, clusters[0].Representative)
}

func TestGrouper_RepresentativeSelection(t *testing.T) {
	g := NewGrouper(common.GetLogger())
	labels := map[string]string{"app": "a"}

	t.Run("error beats later info", func(t *testing.T) {
		errRec := record(1, 100, models.LevelError, "api", labels)
		infoRec := record(2, 200, models.LevelInfo, "api", labels)

		clusters := g.Group([]*models.LogRecord{errRec, infoRec})
		require.Len(t, clusters, 1)
		assert.Same(t, errRec, clusters[0].Representative)
	})

	t.Run("most recent error wins", func(t *testing.T) {
		older := record(1, 100, models.LevelError, "api", labels)
		newer := record(2, 300, models.LevelError, "api", labels)

		clusters := g.Group([]*models.LogRecord{older, newer})
		require.Len(t, clusters, 1)
		assert.Same(t, newer, clusters[0].Representative)
	})

	t.Run("warning beats info when no errors", func(t *testing.T) {
		warn := record(1, 100, models.LevelWarning, "api", labels)
		info := record(2, 500, models.LevelInfo, "api", labels)

		clusters := g.Group([]*models.LogRecord{warn, info})
		require.Len(t, clusters, 1)
		assert.Same(t, warn, clusters[0].Representative)
	})

	t.Run("timestamp tie keeps input order", func(t *testing.T) {
		first := record(1, 100, models.LevelError, "api", labels)
		second := record(2, 100, models.LevelError, "api", labels)

		clusters := g.Group([]*models.LogRecord{first, second})
		require.Len(t, clusters, 1)
		assert.Same(t, first, clusters[0].Representative)
	})
}

func TestGrouper_ClusterInvariants(t *testing.T) {
	g := NewGrouper(common.GetLogger())

	records := []*models.LogRecord{
		record(1, 100, models.LevelError, "api", map[string]string{"app": "a"}),
		record(2, 200, models.LevelInfo, "web", map[string]string{"app": "a"}),
		record(3, 150, models.LevelWarning, "api", map[string]string{"app": "b"}),
		record(4, 300, models.LevelDebug, "db", nil),
	}

	clusters := g.Group(records)

	memberSum := 0
	for _, c := range clusters {
		assert.Equal(t, len(c.Members), c.Count)
		memberSum += c.Count

		found := false
		for _, m := range c.Members {
			if m == c.Representative {
				found = true
			}
		}
		assert.True(t, found, "representative must be a member of cluster %s", c.Key)
	}
	assert.Equal(t, len(records), memberSum)
}

func TestGrouper_Ordering(t *testing.T) {
	g := NewGrouper(common.GetLogger())

	// Three clusters: big INFO cluster, small ERROR cluster, medium
	// WARNING cluster. Error-representative clusters sort first despite
	// size; the rest sort by member count.
	records := []*models.LogRecord{
		record(1, 100, models.LevelInfo, "api", map[string]string{"app": "big"}),
		record(2, 110, models.LevelInfo, "api", map[string]string{"app": "big"}),
		record(3, 120, models.LevelInfo, "api", map[string]string{"app": "big"}),
		record(4, 130, models.LevelError, "api", map[string]string{"app": "err"}),
		record(5, 140, models.LevelWarning, "api", map[string]string{"app": "warn"}),
		record(6, 150, models.LevelWarning, "api", map[string]string{"app": "warn"}),
	}

	clusters := g.Group(records)
	require.Len(t, clusters, 3)

	assert.Equal(t, "app=err", clusters[0].Key)
	assert.Equal(t, "app=big", clusters[1].Key)
	assert.Equal(t, "app=warn", clusters[2].Key)
}

func TestGrouper_Deterministic(t *testing.T) {
	g := NewGrouper(common.GetLogger())

	records := []*models.LogRecord{
		record(1, 100, models.LevelInfo, "api", map[string]string{"app": "a"}),
		record(2, 200, models.LevelInfo, "api", map[string]string{"app": "b"}),
		record(3, 300, models.LevelInfo, "api", map[string]string{"app": "c"}),
	}

	first := g.Group(records)
	for i := 0; i < 20; i++ {
		again := g.Group(records)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Key, again[j].Key)
		}
	}
}

func TestGrouper_EndToEndScenario(t *testing.T) {
	g := NewGrouper(common.GetLogger())

	errRec := record(1, 100, models.LevelError, "api", map[string]string{"app": "a"})
	infoRec := record(2, 200, models.LevelInfo, "api", map[string]string{"app": "a"})
	warnRec := record(3, 150, models.LevelWarning, "web", map[string]string{"app": "b"})

	clusters := g.Group([]*models.LogRecord{errRec, infoRec, warnRec})
	require.Len(t, clusters, 2)

	assert.Equal(t, "app=a", clusters[0].Key)
	assert.Equal(t, 2, clusters[0].Count)
	assert.Same(t, errRec, clusters[0].Representative)

	assert.Equal(t, "app=b", clusters[1].Key)
	assert.Equal(t, 1, clusters[1].Count)
	assert.Same(t, warnRec, clusters[1].Representative)
}
