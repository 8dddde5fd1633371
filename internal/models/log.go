package models

import "time"

// LogLevel is the severity level reported by the emitting service.
type LogLevel string

const (
	LevelDebug    LogLevel = "DEBUG"
	LevelInfo     LogLevel = "INFO"
	LevelWarning  LogLevel = "WARNING"
	LevelError    LogLevel = "ERROR"
	LevelCritical LogLevel = "CRITICAL"
)

// IsErrorOrCritical reports whether the level is ERROR or CRITICAL.
func (l LogLevel) IsErrorOrCritical() bool {
	return l == LevelError || l == LevelCritical
}

// LogRecord is one (possibly deduplicated) log line retrieved from the
// log store. Records are created by the retriever and never mutated
// afterwards.
//
// DuplicateCount is the number of physically identical lines this record
// stands for upstream; all aggregate counts are weighted by it.
type LogRecord struct {
	ID             int64             `json:"id"`
	Timestamp      int64             `json:"timestamp"` // unix milliseconds, > 0
	Message        string            `json:"message" validate:"required"`
	Source         string            `json:"source" validate:"required"`
	Labels         map[string]string `json:"labels,omitempty"`
	Level          LogLevel          `json:"level"`
	DuplicateCount int               `json:"duplicate_count" validate:"min=1"`
}

// Time returns the record timestamp as a time.Time.
func (r *LogRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Label looks up a label value through an ordered fallback chain:
// the key itself, then each alternate key in order. Returns the first
// value present and true, or "" and false when none match.
func (r *LogRecord) Label(key string, alternates ...string) (string, bool) {
	if r.Labels == nil {
		return "", false
	}
	if v, ok := r.Labels[key]; ok {
		return v, true
	}
	for _, alt := range alternates {
		if v, ok := r.Labels[alt]; ok {
			return v, true
		}
	}
	return "", false
}
