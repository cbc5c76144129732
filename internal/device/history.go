package device

import (
	"context"
	"time"
)

// historyWriteTimeout bounds a single journal write.
const historyWriteTimeout = 5 * time.Second

// TransitionRecord is one persisted lifecycle transition.
//
// Each record stores the full device snapshot at the moment of the
// transition, giving a local audit trail of how a device moved through
// its lifecycle. The journal is write-only at runtime: it is never read
// back to restore state on startup.
type TransitionRecord struct {
	// ID is the auto-incremented primary key for the journal row.
	ID int64 `json:"id"`

	// DeviceID is the unique identifier of the device.
	DeviceID string `json:"device_id"`

	// From is the lifecycle state the device left.
	From Status `json:"from"`

	// To is the lifecycle state the device entered.
	To Status `json:"to"`

	// Snapshot is the published view of the device at transition time.
	Snapshot Snapshot `json:"snapshot"`

	// CreatedAt is the timestamp of the transition (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRecorder persists device lifecycle transitions.
//
// Implementations must be thread-safe and use UTC timestamps.
type HistoryRecorder interface {
	// RecordTransition appends one lifecycle transition to the journal.
	RecordTransition(ctx context.Context, deviceID string, from, to Status, snap Snapshot) error

	// Recent returns the newest journal entries for a device, newest first.
	// Intended for inspection tooling; the registry never calls it.
	Recent(ctx context.Context, deviceID string, limit int) ([]TransitionRecord, error)
}
