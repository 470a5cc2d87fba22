// Package dedup finds transactions reported by more than one email (a bank
// alert and a card statement, say) and records the duplicate relationship.
// SQL proposes candidate pairs; the model confirms each pair.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/internal/llm"
	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// Engine confirms duplicate candidates and records groups.
type Engine struct {
	db                *database.DB
	client            *llm.Client
	dateToleranceDays int
	logger            *slog.Logger
}

// New creates a dedup engine with the given date tolerance.
func New(db *database.DB, client *llm.Client, dateToleranceDays int, logger *slog.Logger) *Engine {
	return &Engine{
		db:                db,
		client:            client,
		dateToleranceDays: dateToleranceDays,
		logger:            logger.With("component", "dedup"),
	}
}

// candidatePair is one SQL-proposed duplicate candidate; the first id is
// always the smaller, so each pair is emitted once.
type candidatePair struct {
	ID1 string `db:"id1"`
	ID2 string `db:"id2"`
}

// Run finds candidate pairs and asks the model to confirm each. When
// newIDs is non-empty, at least one side of every pair must be in it.
// Returns the number of duplicates recorded. Re-running over processed
// data records nothing new.
func (e *Engine) Run(ctx context.Context, newIDs []string) (int, error) {
	pairs, err := e.candidates(ctx, newIDs)
	if err != nil {
		return 0, err
	}
	if len(pairs) == 0 {
		return 0, nil
	}
	e.logger.Info("found duplicate candidates", "count", len(pairs))

	var recorded int
	for _, pair := range pairs {
		already, err := e.db.IsDuplicate(ctx, pair.ID2)
		if err != nil {
			return recorded, err
		}
		if already {
			continue
		}

		t1, err := e.db.GetTransaction(ctx, pair.ID1)
		if err != nil {
			return recorded, err
		}
		t2, err := e.db.GetTransaction(ctx, pair.ID2)
		if err != nil {
			return recorded, err
		}

		isDup, confidence := e.confirm(ctx, t1, t2)
		if !isDup {
			continue
		}

		// Keep the earlier (by id); mark the later as the duplicate.
		reason := fmt.Sprintf("same amount and direction within %d day(s), confirmed by model", e.dateToleranceDays)
		if err := e.db.MarkAsDuplicate(ctx, pair.ID2, pair.ID1, reason, confidence); err != nil {
			return recorded, err
		}
		recorded++
	}
	return recorded, nil
}

// candidates selects cross-email pairs with equal amount and direction
// whose dates fall within the tolerance.
func (e *Engine) candidates(ctx context.Context, newIDs []string) ([]candidatePair, error) {
	query := `
		SELECT t1.id AS id1, t2.id AS id2
		FROM transactions t1
		JOIN transactions t2
		  ON t1.amount = t2.amount
		 AND t1.direction = t2.direction
		 AND t1.id < t2.id
		 AND t1.email_message_id != t2.email_message_id
		 AND ABS(julianday(t1.date) - julianday(t2.date)) <= ?`
	args := []any{e.dateToleranceDays}

	if len(newIDs) > 0 {
		placeholders := strings.Repeat("?,", len(newIDs))
		placeholders = placeholders[:len(placeholders)-1]
		query += fmt.Sprintf(" AND (t1.id IN (%s) OR t2.id IN (%s))", placeholders, placeholders)
		for i := 0; i < 2; i++ {
			for _, id := range newIDs {
				args = append(args, id)
			}
		}
	}
	query += " ORDER BY t1.id, t2.id"

	var pairs []candidatePair
	if err := e.db.SelectContext(ctx, &pairs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select duplicate candidates: %w", err)
	}
	return pairs, nil
}

type dupVerdict struct {
	IsDuplicate bool     `json:"isDuplicate"`
	Confidence  *float64 `json:"confidence"`
}

// confirm asks the model for a pairwise judgment over the full fields of
// both transactions. Model failure means "not a duplicate".
func (e *Engine) confirm(ctx context.Context, t1, t2 *models.Transaction) (bool, *float64) {
	var b strings.Builder
	b.WriteString("Are these two records the same real-world transaction reported twice? ")
	b.WriteString("They come from different emails. Respond with JSON only: {\"isDuplicate\": true|false, \"confidence\": 0..1}\n\n")
	writeTransaction(&b, "A", t1)
	writeTransaction(&b, "B", t2)

	var verdict dupVerdict
	if !e.client.RunJSON(ctx, b.String(), &verdict) {
		return false, nil
	}
	return verdict.IsDuplicate, verdict.Confidence
}

func writeTransaction(b *strings.Builder, label string, t *models.Transaction) {
	fmt.Fprintf(b, "%s: date=%s amount=%.2f %s direction=%s type=%s merchant=%q account=%q bank=%q reference=%q description=%q\n",
		label, t.Date.Format("2006-01-02"), t.Amount, t.Currency, t.Direction,
		t.Type, t.Merchant, t.Account, t.Bank, t.Reference, t.Description)
}
