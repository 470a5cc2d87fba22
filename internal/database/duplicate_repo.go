package database

import (
	"context"
	"fmt"
	"time"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// MarkAsDuplicate records that duplicateID is a duplicate of keptID and
// flags the duplicate for review. Already-recorded duplicates are ignored.
func (db *DB) MarkAsDuplicate(ctx context.Context, duplicateID, keptID, reason string, confidence *float64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO duplicate_groups
		(kept_transaction_id, duplicate_transaction_id, reason, confidence, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		keptID, duplicateID, reason, confidence, now)
	if err != nil {
		return fmt.Errorf("failed to insert duplicate group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return tx.Commit() // already recorded
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET needs_review = 1, updated_at = ? WHERE id = ?`,
		now, duplicateID); err != nil {
		return fmt.Errorf("failed to flag duplicate for review: %w", err)
	}

	return tx.Commit()
}

// IsDuplicate reports whether a transaction is already recorded as the
// duplicate side of a group.
func (db *DB) IsDuplicate(ctx context.Context, txID string) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM duplicate_groups WHERE duplicate_transaction_id = ?`, txID)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate group: %w", err)
	}
	return count > 0, nil
}

// ListDuplicateGroups returns all recorded duplicate relationships.
func (db *DB) ListDuplicateGroups(ctx context.Context) ([]models.DuplicateGroup, error) {
	var gs []models.DuplicateGroup
	err := db.SelectContext(ctx, &gs, `SELECT * FROM duplicate_groups ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list duplicate groups: %w", err)
	}
	return gs, nil
}
