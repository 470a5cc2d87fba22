package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// InsertRawEmail stores one raw email. A message id that is already present
// leaves the stored row untouched and returns ErrAlreadyExists.
func (db *DB) InsertRawEmail(ctx context.Context, email *models.RawEmail) error {
	ids, err := db.InsertRawEmails(ctx, []*models.RawEmail{email})
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// InsertRawEmails stores a batch of raw emails in one transaction and
// returns the message ids actually inserted (conflicts are ignored).
func (db *DB) InsertRawEmails(ctx context.Context, emails []*models.RawEmail) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO raw_emails (message_id, from_addr, subject, date, body_text, body_html, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted []string
	now := time.Now().UTC()
	for _, e := range emails {
		fetchedAt := e.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = now
		}
		res, err := stmt.ExecContext(ctx, e.MessageID, e.From, e.Subject, e.Date, e.BodyText, e.BodyHTML, fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert raw email %s: %w", e.MessageID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n > 0 {
			inserted = append(inserted, e.MessageID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

// GetRawEmail returns a raw email by provider message id.
func (db *DB) GetRawEmail(ctx context.Context, messageID string) (*models.RawEmail, error) {
	var e models.RawEmail
	err := db.GetContext(ctx, &e, `SELECT * FROM raw_emails WHERE message_id = ?`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raw email: %w", err)
	}
	return &e, nil
}

// ListRawEmailIDs returns all stored message ids, oldest first.
func (db *DB) ListRawEmailIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := db.SelectContext(ctx, &ids, `SELECT message_id FROM raw_emails ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw emails: %w", err)
	}
	return ids, nil
}

// ListUnparsedEmailIDs returns message ids of raw emails that produced no
// transactions, oldest first. Used by the non-destructive reparse path.
func (db *DB) ListUnparsedEmailIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := db.SelectContext(ctx, &ids, `
		SELECT e.message_id FROM raw_emails e
		LEFT JOIN transactions t ON t.email_message_id = e.message_id
		WHERE t.id IS NULL
		ORDER BY e.date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unparsed emails: %w", err)
	}
	return ids, nil
}
