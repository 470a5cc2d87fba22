package database

import (
	"context"
	"fmt"
	"time"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// InsertEvalFlag appends a ground-truth label for a transaction.
func (db *DB) InsertEvalFlag(ctx context.Context, txID string, verdict models.EvalVerdict, notes string) error {
	if !verdict.Valid() {
		return fmt.Errorf("invalid eval verdict %q", verdict)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO eval_flags (transaction_id, verdict, notes, created_at)
		VALUES (?, ?, ?, ?)`,
		txID, verdict, notes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert eval flag: %w", err)
	}
	return nil
}

// ListEvalFlags returns all ground-truth labels, oldest first.
func (db *DB) ListEvalFlags(ctx context.Context) ([]models.EvalFlag, error) {
	var fs []models.EvalFlag
	err := db.SelectContext(ctx, &fs, `SELECT * FROM eval_flags ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list eval flags: %w", err)
	}
	return fs, nil
}
