package device

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestJournal(t *testing.T) *SQLiteHistory {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	journal, err := NewSQLiteHistory(db)
	if err != nil {
		t.Fatalf("NewSQLiteHistory() error = %v", err)
	}
	return journal
}

func TestRecordTransition(t *testing.T) {
	journal := openTestJournal(t)
	ctx := context.Background()

	snap := Snapshot{
		DeviceID:   "sensor42",
		DeviceType: KindBLE,
		Status:     StatusConnected,
		Properties: map[string]any{"battery": 87},
	}

	if err := journal.RecordTransition(ctx, "sensor42", StatusDisconnected, StatusConnected, snap); err != nil {
		t.Fatalf("RecordTransition() error = %v", err)
	}
	if err := journal.RecordTransition(ctx, "sensor42", StatusConnected, StatusOffline, snap); err != nil {
		t.Fatalf("RecordTransition() error = %v", err)
	}

	records, err := journal.Recent(ctx, "sensor42", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Recent() = %d records, want 2", len(records))
	}

	// Newest first
	if records[0].From != StatusConnected || records[0].To != StatusOffline {
		t.Errorf("newest record = %s→%s, want connected→offline",
			records[0].From, records[0].To)
	}
	if records[0].Snapshot.DeviceID != "sensor42" {
		t.Errorf("snapshot device_id = %q, want sensor42", records[0].Snapshot.DeviceID)
	}
	if records[0].CreatedAt.IsZero() {
		t.Error("created_at is zero, want parsed timestamp")
	}
}

func TestRecordTransitionEmptyID(t *testing.T) {
	journal := openTestJournal(t)

	err := journal.RecordTransition(context.Background(), "", StatusDisconnected, StatusConnected, Snapshot{})
	if !errors.Is(err, ErrInvalidID) {
		t.Errorf("RecordTransition() error = %v, want ErrInvalidID", err)
	}
}

func TestRecentLimits(t *testing.T) {
	journal := openTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		if err := journal.RecordTransition(ctx, "d1", StatusConnected, StatusOffline, Snapshot{DeviceID: "d1"}); err != nil {
			t.Fatalf("RecordTransition() error = %v", err)
		}
	}

	records, err := journal.Recent(ctx, "d1", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != defaultHistoryLimit {
		t.Errorf("Recent(limit=0) = %d records, want default %d", len(records), defaultHistoryLimit)
	}

	records, err = journal.Recent(ctx, "d1", 5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 5 {
		t.Errorf("Recent(limit=5) = %d records, want 5", len(records))
	}
}

func TestRecentUnknownDevice(t *testing.T) {
	journal := openTestJournal(t)

	records, err := journal.Recent(context.Background(), "ghost", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Recent() = %d records for unknown device, want 0", len(records))
	}
}
