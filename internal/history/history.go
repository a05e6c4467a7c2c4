package history

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

// Reading source values.
const (
	SourceGateway   = "gateway"
	SourceSynthetic = "synthetic"
)

// Limits for Recent.
const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

// ErrInvalidSource is returned by RecordReading for an unknown source.
var ErrInvalidSource = errors.New("history: invalid reading source")

// ReadingEntry is a single row of the sensor reading log.
type ReadingEntry struct {
	ID          int64     `json:"id"`
	RecordedAt  time.Time `json:"recorded_at"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Source      string    `json:"source"`
}

// Repository stores snapshots and the reading log.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// SaveSnapshot replaces the stored snapshot.
	SaveSnapshot(ctx context.Context, p store.Persisted) error

	// LoadSnapshot returns the stored snapshot. The boolean is false when
	// nothing has been saved yet.
	LoadSnapshot(ctx context.Context) (store.Persisted, bool, error)

	// RecordReading appends a reading to the log.
	RecordReading(ctx context.Context, r device.SensorReading, source string) error

	// Recent returns up to limit readings, newest first.
	Recent(ctx context.Context, limit int) ([]ReadingEntry, error)
}
