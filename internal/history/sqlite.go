package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

// timeLayout is how timestamps are stored. Fixed-width nanoseconds keep
// lexical order equal to chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite history repository.
//
// Parameters:
//   - db: Open SQLite connection with migrations applied
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveSnapshot upserts the single snapshot row.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, p store.Persisted) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO store_snapshot (id, devices, readings, lamp_on, fan_on, temperature, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     devices = excluded.devices,
		     readings = excluded.readings,
		     lamp_on = excluded.lamp_on,
		     fan_on = excluded.fan_on,
		     temperature = excluded.temperature,
		     updated_at = excluded.updated_at`,
		string(p.Devices),
		string(p.Readings),
		p.LampOn,
		p.FanOn,
		p.Temperature,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the snapshot row.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) (store.Persisted, bool, error) {
	var (
		p                 store.Persisted
		devices, readings string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT devices, readings, lamp_on, fan_on, temperature
		 FROM store_snapshot WHERE id = 1`,
	).Scan(&devices, &readings, &p.LampOn, &p.FanOn, &p.Temperature)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Persisted{}, false, nil
	}
	if err != nil {
		return store.Persisted{}, false, fmt.Errorf("loading snapshot: %w", err)
	}

	p.Devices = []byte(devices)
	p.Readings = []byte(readings)
	return p, true, nil
}

// RecordReading inserts one reading into the log.
func (r *SQLiteRepository) RecordReading(ctx context.Context, reading device.SensorReading, source string) error {
	if source != SourceGateway && source != SourceSynthetic {
		return fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}

	recordedAt := reading.Timestamp
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sensor_readings (recorded_at, temperature, humidity, source) VALUES (?, ?, ?, ?)",
		recordedAt.UTC().Format(timeLayout),
		reading.Temperature,
		reading.Humidity,
		source,
	)
	if err != nil {
		return fmt.Errorf("inserting sensor reading: %w", err)
	}
	return nil
}

// Recent returns the newest readings first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum entries to return (default 50, max 500)
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]ReadingEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recorded_at, temperature, humidity, source
		 FROM sensor_readings
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sensor readings: %w", err)
	}
	defer rows.Close()

	entries := make([]ReadingEntry, 0, limit)
	for rows.Next() {
		var (
			e          ReadingEntry
			recordedAt string
		)
		if err := rows.Scan(&e.ID, &recordedAt, &e.Temperature, &e.Humidity, &e.Source); err != nil {
			return nil, fmt.Errorf("scanning sensor reading: %w", err)
		}
		e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensor readings: %w", err)
	}
	return entries, nil
}

// Prune deletes readings older than the given duration.
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(timeLayout)
	result, err := r.db.ExecContext(ctx, "DELETE FROM sensor_readings WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting sensor readings: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
