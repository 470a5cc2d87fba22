package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// TransactionFilter narrows transaction reads. Zero values mean "no filter".
type TransactionFilter struct {
	From        time.Time
	To          time.Time
	Type        models.TxType
	Category    string
	Direction   models.Direction
	Bank        string
	NeedsReview *bool
	Source      models.Source
	Limit       int
	Offset      int
}

func (f TransactionFilter) where() (string, []any) {
	clause := " WHERE 1=1"
	var args []any
	if !f.From.IsZero() {
		clause += " AND date >= ?"
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		clause += " AND date <= ?"
		args = append(args, f.To)
	}
	if f.Type != "" {
		clause += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.Category != "" {
		clause += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.Direction != "" {
		clause += " AND direction = ?"
		args = append(args, f.Direction)
	}
	if f.Bank != "" {
		clause += " AND bank = ?"
		args = append(args, f.Bank)
	}
	if f.NeedsReview != nil {
		clause += " AND needs_review = ?"
		args = append(args, *f.NeedsReview)
	}
	if f.Source != "" {
		clause += " AND source = ?"
		args = append(args, f.Source)
	}
	return clause, args
}

// InsertTransaction stores one transaction. A composite key collision
// leaves the stored row untouched and returns ErrAlreadyExists.
func (db *DB) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	n, err := db.InsertTransactions(ctx, []*models.Transaction{tx})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// InsertTransactions stores a batch in one database transaction, ignoring
// rows that collide on (email_message_id, amount, merchant, date). Returns
// the number actually inserted.
func (db *DB) InsertTransactions(ctx context.Context, txns []*models.Transaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	dbtx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbtx.Rollback()

	stmt, err := dbtx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions
		(id, email_message_id, date, amount, currency, direction, type, merchant,
		 account, bank, reference, description, category, source, confidence,
		 needs_review, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var count int
	now := time.Now().UTC()
	for _, t := range txns {
		if t.Amount <= 0 {
			return count, fmt.Errorf("transaction %s has non-positive amount %v", t.ID, t.Amount)
		}
		if !t.Direction.Valid() {
			return count, fmt.Errorf("transaction %s has invalid direction %q", t.ID, t.Direction)
		}
		if !t.Type.Valid() {
			return count, fmt.Errorf("transaction %s has invalid type %q", t.ID, t.Type)
		}
		currency := t.Currency
		if currency == "" {
			currency = "INR"
		}
		createdAt := t.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		res, err := stmt.ExecContext(ctx,
			t.ID, t.EmailMessageID, t.Date, t.Amount, currency, t.Direction,
			t.Type, t.Merchant, t.Account, t.Bank, t.Reference, t.Description,
			t.Category, t.Source, t.Confidence, t.NeedsReview, createdAt, createdAt)
		if err != nil {
			return count, fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return count, fmt.Errorf("failed to get rows affected: %w", err)
		}
		count += int(n)
	}

	if err := dbtx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return count, nil
}

// GetTransaction returns a transaction by id.
func (db *DB) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	err := db.GetContext(ctx, &t, `SELECT * FROM transactions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}

// ListTransactions returns filtered transactions, newest first.
func (db *DB) ListTransactions(ctx context.Context, f TransactionFilter) ([]models.Transaction, error) {
	clause, args := f.where()
	query := `SELECT * FROM transactions` + clause + ` ORDER BY date DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	var txns []models.Transaction
	if err := db.SelectContext(ctx, &txns, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// CountTransactions returns the number of rows matching the filter.
func (db *DB) CountTransactions(ctx context.Context, f TransactionFilter) (int, error) {
	clause, args := f.where()
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM transactions`+clause, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// UpdateTransactionCategory sets the category and refreshes updated_at.
func (db *DB) UpdateTransactionCategory(ctx context.Context, id, category string) error {
	return db.touchUpdate(ctx, id, `UPDATE transactions SET category = ?, updated_at = ? WHERE id = ?`, category)
}

// UpdateTransactionMerchant sets the merchant and refreshes updated_at.
func (db *DB) UpdateTransactionMerchant(ctx context.Context, id, merchant string) error {
	return db.touchUpdate(ctx, id, `UPDATE transactions SET merchant = ?, updated_at = ? WHERE id = ?`, merchant)
}

// UpdateTransactionReview sets the needs_review flag and refreshes updated_at.
func (db *DB) UpdateTransactionReview(ctx context.Context, id string, needsReview bool) error {
	return db.touchUpdate(ctx, id, `UPDATE transactions SET needs_review = ?, updated_at = ? WHERE id = ?`, needsReview)
}

func (db *DB) touchUpdate(ctx context.Context, id, query string, value any) error {
	res, err := db.ExecContext(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReviewQueue returns transactions awaiting human adjudication, oldest
// first, optionally filtered by source.
func (db *DB) ReviewQueue(ctx context.Context, source models.Source) ([]models.Transaction, error) {
	query := `SELECT * FROM transactions WHERE needs_review = 1`
	var args []any
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY date ASC`

	var txns []models.Transaction
	if err := db.SelectContext(ctx, &txns, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list review queue: %w", err)
	}
	return txns, nil
}

// ReviewQueueCount returns the size of the review queue.
func (db *DB) ReviewQueueCount(ctx context.Context) (int, error) {
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM transactions WHERE needs_review = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to count review queue: %w", err)
	}
	return count, nil
}
