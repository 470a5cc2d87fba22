package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Sync state keys.
const (
	SyncKeyLastTimestamp = "last_sync_timestamp"
	SyncKeyLastMessageID = "last_message_id"
	SyncKeyTotalSynced   = "total_synced_count"
)

// GetSyncValue returns the stored value for a sync-state key, or "" when
// the key has never been written.
func (db *DB) GetSyncValue(ctx context.Context, key string) (string, error) {
	var value string
	err := db.GetContext(ctx, &value, `SELECT value FROM sync_state WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync state %s: %w", key, err)
	}
	return value, nil
}

// SetSyncValue upserts one sync-state key.
func (db *DB) SetSyncValue(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set sync state %s: %w", key, err)
	}
	return nil
}

// LastSyncTimestamp returns the stored last sync time, or the zero time.
func (db *DB) LastSyncTimestamp(ctx context.Context) (time.Time, error) {
	value, err := db.GetSyncValue(ctx, SyncKeyLastTimestamp)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last sync timestamp: %w", err)
	}
	return ts, nil
}

// SetLastSyncTimestamp stores the moment the most recent ingestion started
// listing messages.
func (db *DB) SetLastSyncTimestamp(ctx context.Context, ts time.Time) error {
	return db.SetSyncValue(ctx, SyncKeyLastTimestamp, ts.UTC().Format(time.RFC3339))
}

// TotalSyncedCount returns the monotonic count of emails ever stored.
func (db *DB) TotalSyncedCount(ctx context.Context) (int, error) {
	value, err := db.GetSyncValue(ctx, SyncKeyTotalSynced)
	if err != nil || value == "" {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse total synced count: %w", err)
	}
	return n, nil
}

// IncrementSyncedCount adds delta to the monotonic total. Negative deltas
// are ignored.
func (db *DB) IncrementSyncedCount(ctx context.Context, delta int) error {
	if delta <= 0 {
		return nil
	}
	total, err := db.TotalSyncedCount(ctx)
	if err != nil {
		return err
	}
	return db.SetSyncValue(ctx, SyncKeyTotalSynced, strconv.Itoa(total+delta))
}
