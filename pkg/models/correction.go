package models

import "time"

// CategoryCorrection is an append-only record of a user overriding the
// categorizer. Recent corrections are fed back into prompts as few-shot
// examples.
type CategoryCorrection struct {
	ID                int64     `db:"id"`
	Merchant          string    `db:"merchant"`
	Description       string    `db:"description"`
	OriginalCategory  string    `db:"original_category"`
	CorrectedCategory string    `db:"corrected_category"`
	CreatedAt         time.Time `db:"created_at"`
}
