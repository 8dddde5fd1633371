package models

// Severity is the classification assigned to a cluster by the
// classification service. It is distinct from LogLevel: LogLevel is what
// the emitting service reported, Severity is how urgent the cluster is
// judged to be.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordering of the severity: low < medium < high < critical.
// Unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// IsActionable reports whether the severity warrants surfacing in the
// top-issues list (medium and above).
func (s Severity) IsActionable() bool {
	return s.Rank() >= SeverityMedium.Rank()
}

// IsHighSeverity reports whether the severity is high or critical.
func (s Severity) IsHighSeverity() bool {
	return s.Rank() >= SeverityHigh.Rank()
}

// ParseSeverity maps a string to a known Severity. Returns false for
// anything outside the fixed set.
func ParseSeverity(v string) (Severity, bool) {
	switch Severity(v) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(v), true
	default:
		return "", false
	}
}

// LogCluster groups records that share an exact label-set signature.
// Representative is always a member; Count always equals len(Members).
// Severity and Reasoning are written once, by the classifier.
type LogCluster struct {
	Key            string       `json:"key"`
	Representative *LogRecord   `json:"representative"`
	Members        []*LogRecord `json:"members"`
	Count          int          `json:"count"`
	Severity       Severity     `json:"severity,omitempty"`
	Reasoning      string       `json:"reasoning,omitempty"`
}

// DistinctSources returns the number of distinct record sources in the
// cluster.
func (c *LogCluster) DistinctSources() int {
	seen := make(map[string]struct{}, len(c.Members))
	for _, m := range c.Members {
		seen[m.Source] = struct{}{}
	}
	return len(seen)
}

// HasErrorRepresentative reports whether the representative record is at
// ERROR or CRITICAL level.
func (c *LogCluster) HasErrorRepresentative() bool {
	return c.Representative != nil && c.Representative.Level.IsErrorOrCritical()
}
