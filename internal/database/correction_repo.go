package database

import (
	"context"
	"fmt"
	"time"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// InsertCategoryCorrection appends one correction record.
func (db *DB) InsertCategoryCorrection(ctx context.Context, merchant, original, corrected, description string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO category_corrections (merchant, description, original_category, corrected_category, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		merchant, description, original, corrected, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert correction: %w", err)
	}
	return nil
}

// CorrectionsByMerchant returns the most recent corrections for a merchant.
func (db *DB) CorrectionsByMerchant(ctx context.Context, merchant string, limit int) ([]models.CategoryCorrection, error) {
	var cs []models.CategoryCorrection
	err := db.SelectContext(ctx, &cs, `
		SELECT * FROM category_corrections
		WHERE merchant = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, merchant, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections by merchant: %w", err)
	}
	return cs, nil
}

// RecentCorrections returns the most recent corrections across all merchants.
func (db *DB) RecentCorrections(ctx context.Context, limit int) ([]models.CategoryCorrection, error) {
	var cs []models.CategoryCorrection
	err := db.SelectContext(ctx, &cs, `
		SELECT * FROM category_corrections
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent corrections: %w", err)
	}
	return cs, nil
}
