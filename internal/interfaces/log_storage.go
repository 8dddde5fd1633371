package interfaces

import (
	"context"
	"time"

	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

// LogStorage is the contract for the external log store holding collected
// log records. Implementations wrap the store's wire protocol; transport
// failures surface as connection-kind errors.
type LogStorage interface {
	// QueryTimeRange returns all records with timestamps inside
	// [start, end). The caller owns retry policy.
	QueryTimeRange(ctx context.Context, start, end time.Time) ([]*models.LogRecord, error)

	// HealthCheck reports whether the store is reachable.
	HealthCheck(ctx context.Context) bool

	// Close releases the underlying connection.
	Close() error
}
