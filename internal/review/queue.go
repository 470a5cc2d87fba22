// Package review surfaces low-confidence transactions for human
// adjudication and feeds the adjudications back into the categorizer.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chandrameenamohan/expense-tracker/internal/categorizer"
	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// Queue exposes the review workflow over flagged transactions.
type Queue struct {
	db          *database.DB
	categorizer *categorizer.Categorizer
	logger      *slog.Logger
}

// New creates a review queue.
func New(db *database.DB, cat *categorizer.Categorizer, logger *slog.Logger) *Queue {
	return &Queue{db: db, categorizer: cat, logger: logger.With("component", "review")}
}

// List returns flagged transactions, optionally filtered by source.
func (q *Queue) List(ctx context.Context, source models.Source) ([]models.Transaction, error) {
	return q.db.ReviewQueue(ctx, source)
}

// Count returns the number of flagged transactions.
func (q *Queue) Count(ctx context.Context) (int, error) {
	return q.db.ReviewQueueCount(ctx)
}

// Accept clears the review flag without changes.
func (q *Queue) Accept(ctx context.Context, txID string) error {
	return q.db.UpdateTransactionReview(ctx, txID, false)
}

// Recategorize resolves a flagged transaction with a new category and
// records the correction so the model learns from the adjudication.
func (q *Queue) Recategorize(ctx context.Context, txID, newCategory string) error {
	tx, err := q.db.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}

	if tx.Category != newCategory {
		if err := q.categorizer.Learn(ctx, tx.Merchant, tx.Category, newCategory, tx.Description); err != nil {
			return fmt.Errorf("failed to record correction: %w", err)
		}
	}
	if err := q.db.UpdateTransactionCategory(ctx, txID, newCategory); err != nil {
		return err
	}
	return q.db.UpdateTransactionReview(ctx, txID, false)
}
