package analyzer

import (
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

// noLabelsKey is the sentinel cluster key for records without labels.
const noLabelsKey = "no-labels"

// Grouper partitions records into clusters by exact label-set signature.
// Output is deterministic for a given input order: buckets are built in
// first-seen key order and all tie-breaks are stable.
type Grouper struct {
	logger arbor.ILogger
}

// NewGrouper creates a grouper.
func NewGrouper(logger arbor.ILogger) *Grouper {
	return &Grouper{logger: logger}
}

// Group partitions records into clusters, selects one representative per
// cluster, and orders clusters by (error/critical representative, member
// count) descending. Empty input yields an empty slice.
func (g *Grouper) Group(records []*models.LogRecord) []*models.LogCluster {
	if len(records) == 0 {
		return []*models.LogCluster{}
	}

	buckets := make(map[string][]*models.LogRecord)
	keyOrder := make([]string, 0)

	for _, record := range records {
		key := clusterKey(record.Labels)
		if _, seen := buckets[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		buckets[key] = append(buckets[key], record)
	}

	clusters := make([]*models.LogCluster, 0, len(keyOrder))
	for _, key := range keyOrder {
		members := buckets[key]
		clusters = append(clusters, &models.LogCluster{
			Key:            key,
			Representative: selectRepresentative(members),
			Members:        members,
			Count:          len(members),
		})
	}

	// Clusters with error/critical representatives first, then larger
	// clusters. SliceStable keeps first-seen order for full ties.
	sort.SliceStable(clusters, func(i, j int) bool {
		ei, ej := clusters[i].HasErrorRepresentative(), clusters[j].HasErrorRepresentative()
		if ei != ej {
			return ei
		}
		return clusters[i].Count > clusters[j].Count
	})

	g.logger.Debug().
		Int("records", len(records)).
		Int("clusters", len(clusters)).
		Msg("Grouped records into clusters")

	return clusters
}

// clusterKey derives the canonical grouping key from a label map: the
// sentinel for empty maps, otherwise "k1=v1|k2=v2|..." with keys sorted.
func clusterKey(labels map[string]string) string {
	if len(labels) == 0 {
		return noLabelsKey
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, "|")
}

// selectRepresentative picks the cluster representative by priority:
// most-recent ERROR/CRITICAL record, else most-recent WARNING, else
// most-recent of any level. Timestamp ties keep the earlier input record.
func selectRepresentative(members []*models.LogRecord) *models.LogRecord {
	if best := mostRecent(members, func(r *models.LogRecord) bool { return r.Level.IsErrorOrCritical() }); best != nil {
		return best
	}
	if best := mostRecent(members, func(r *models.LogRecord) bool { return r.Level == models.LevelWarning }); best != nil {
		return best
	}
	return mostRecent(members, func(*models.LogRecord) bool { return true })
}

func mostRecent(members []*models.LogRecord, match func(*models.LogRecord) bool) *models.LogRecord {
	var best *models.LogRecord
	for _, m := range members {
		if !match(m) {
			continue
		}
		if best == nil || m.Timestamp > best.Timestamp {
			best = m
		}
	}
	return best
}
