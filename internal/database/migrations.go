package database

import (
	"context"
	"fmt"
)

// migration is one numbered schema change. Migrations are applied in id
// order, each inside its own transaction, and recorded in the migrations
// table so startup is idempotent.
type migration struct {
	ID  int
	SQL string
}

var migrations = []migration{
	{
		ID: 1,
		SQL: `
CREATE TABLE raw_emails (
    message_id TEXT PRIMARY KEY,
    from_addr  TEXT NOT NULL DEFAULT '',
    subject    TEXT NOT NULL DEFAULT '',
    date       DATETIME NOT NULL,
    body_text  TEXT NOT NULL,
    body_html  TEXT NOT NULL DEFAULT '',
    fetched_at DATETIME NOT NULL
);

CREATE TABLE transactions (
    id               TEXT PRIMARY KEY,
    email_message_id TEXT NOT NULL REFERENCES raw_emails(message_id),
    date             DATETIME NOT NULL,
    amount           REAL NOT NULL CHECK (amount > 0),
    currency         TEXT NOT NULL DEFAULT 'INR',
    direction        TEXT NOT NULL CHECK (direction IN ('debit', 'credit')),
    type             TEXT NOT NULL CHECK (type IN ('upi', 'credit_card', 'bank_transfer', 'sip', 'loan')),
    merchant         TEXT NOT NULL DEFAULT '',
    account          TEXT NOT NULL DEFAULT '',
    bank             TEXT NOT NULL DEFAULT '',
    reference        TEXT NOT NULL DEFAULT '',
    description      TEXT NOT NULL DEFAULT '',
    category         TEXT NOT NULL DEFAULT '',
    source           TEXT NOT NULL CHECK (source IN ('regex', 'ai')),
    confidence       REAL,
    needs_review     BOOLEAN NOT NULL DEFAULT 0,
    created_at       DATETIME NOT NULL,
    updated_at       DATETIME NOT NULL,
    UNIQUE (email_message_id, amount, merchant, date)
);

CREATE INDEX idx_transactions_date ON transactions(date);
CREATE INDEX idx_transactions_category ON transactions(category);
CREATE INDEX idx_transactions_review ON transactions(needs_review);

CREATE TABLE sync_state (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`,
	},
	{
		ID: 2,
		SQL: `
CREATE TABLE category_corrections (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    merchant           TEXT NOT NULL,
    description        TEXT NOT NULL DEFAULT '',
    original_category  TEXT NOT NULL,
    corrected_category TEXT NOT NULL,
    created_at         DATETIME NOT NULL
);

CREATE INDEX idx_corrections_merchant ON category_corrections(merchant);`,
	},
	{
		ID: 3,
		SQL: `
CREATE TABLE duplicate_groups (
    id                       INTEGER PRIMARY KEY AUTOINCREMENT,
    kept_transaction_id      TEXT NOT NULL REFERENCES transactions(id),
    duplicate_transaction_id TEXT NOT NULL UNIQUE REFERENCES transactions(id),
    reason                   TEXT NOT NULL DEFAULT '',
    confidence               REAL,
    created_at               DATETIME NOT NULL
);`,
	},
	{
		ID: 4,
		SQL: `
CREATE TABLE eval_flags (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    transaction_id TEXT NOT NULL REFERENCES transactions(id),
    verdict        TEXT NOT NULL CHECK (verdict IN ('correct', 'wrong')),
    notes          TEXT NOT NULL DEFAULT '',
    created_at     DATETIME NOT NULL
);`,
	},
}

// Migrate applies pending migrations in id order. Each migration runs in a
// transaction and rolls back atomically on error.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS migrations (
        id         INTEGER PRIMARY KEY,
        applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.QueryContext(ctx, `SELECT id FROM migrations`)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration id: %w", err)
		}
		applied[id] = true
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("failed to close migration rows: %w", err)
	}

	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.ID, err)
		}
	}
	return nil
}

func (db *DB) applyMigration(ctx context.Context, m migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO migrations (id) VALUES (?)`, m.ID); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
