package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

const historySchema = `
CREATE TABLE IF NOT EXISTS lifecycle_history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    device_id   TEXT NOT NULL,
    from_status TEXT NOT NULL,
    to_status   TEXT NOT NULL,
    snapshot    TEXT NOT NULL,
    created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_lifecycle_history_device
    ON lifecycle_history (device_id, created_at);
`

// SQLiteHistory implements HistoryRecorder using SQLite.
//
// Snapshots are stored as JSON alongside the transition endpoints.
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory creates the journal table if needed and returns a
// recorder bound to the given connection.
//
// Parameters:
//   - db: Open SQLite connection used for writes
//
// Returns:
//   - *SQLiteHistory: Recorder ready for use
//   - error: If schema creation fails
func NewSQLiteHistory(db *sql.DB) (*SQLiteHistory, error) {
	if _, err := db.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("creating lifecycle history schema: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

// RecordTransition appends one lifecycle transition to the journal.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Unique device identifier
//   - from: State the device left
//   - to: State the device entered
//   - snap: Published view of the device at transition time
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (h *SQLiteHistory) RecordTransition(ctx context.Context, deviceID string, from, to Status, snap Snapshot) error {
	if deviceID == "" {
		return ErrInvalidID
	}

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}

	_, err = h.db.ExecContext(ctx,
		"INSERT INTO lifecycle_history (device_id, from_status, to_status, snapshot) VALUES (?, ?, ?, ?)",
		deviceID,
		string(from),
		string(to),
		string(snapJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting lifecycle transition: %w", err)
	}

	return nil
}

// Recent returns the newest journal entries for a device, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Unique device identifier
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []TransitionRecord: Entries ordered by created_at DESC
//   - error: nil on success, otherwise the underlying query error
func (h *SQLiteHistory) Recent(ctx context.Context, deviceID string, limit int) ([]TransitionRecord, error) {
	if deviceID == "" {
		return nil, ErrInvalidID
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT id, device_id, from_status, to_status, snapshot, created_at
		 FROM lifecycle_history
		 WHERE device_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		deviceID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying lifecycle history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	records := make([]TransitionRecord, 0, limit)
	for rows.Next() {
		var rec TransitionRecord
		var from, to, snapJSON, createdAt string

		if err := rows.Scan(&rec.ID, &rec.DeviceID, &from, &to, &snapJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning lifecycle history: %w", err)
		}

		rec.From = Status(from)
		rec.To = Status(to)
		if err := json.Unmarshal([]byte(snapJSON), &rec.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshalling snapshot: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = ts
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lifecycle history: %w", err)
	}

	return records, nil
}
