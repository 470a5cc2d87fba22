// Package insights derives read-side views of the ledger: month-over-month
// movement, category trends, recurring merchants, post-sync alerts, and
// rule-based suggestions. No model calls here.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// Options are the alert thresholds.
type Options struct {
	SpikeThreshold         float64
	LargeTransactionAmount float64
}

// Engine computes derived queries over the store.
type Engine struct {
	db     *database.DB
	opts   Options
	logger *slog.Logger
}

// New creates an insights engine.
func New(db *database.DB, opts Options, logger *slog.Logger) *Engine {
	return &Engine{db: db, opts: opts, logger: logger.With("component", "insights")}
}

// MonthOverMonth returns, for each month after the first with spend, the
// percent change against the previous month. Debits only.
func (e *Engine) MonthOverMonth(ctx context.Context) ([]models.MonthlyChange, error) {
	rows := []struct {
		Month string  `db:"month"`
		Total float64 `db:"total"`
	}{}
	err := e.db.SelectContext(ctx, &rows, `
		SELECT strftime('%Y-%m', date) AS month, SUM(amount) AS total
		FROM transactions
		WHERE direction = 'debit'
		GROUP BY month
		ORDER BY month ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}

	var changes []models.MonthlyChange
	for i := 1; i < len(rows); i++ {
		prev := rows[i-1].Total
		change := models.MonthlyChange{
			Month:         rows[i].Month,
			Total:         rows[i].Total,
			PreviousTotal: prev,
		}
		if prev != 0 {
			change.ChangePercent = (rows[i].Total - prev) / prev * 100
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// CategoryTrend compares each category's current month to the previous
// month, sorted by absolute percent change.
func (e *Engine) CategoryTrend(ctx context.Context, now time.Time) ([]models.CategoryTrend, error) {
	current := now.Format("2006-01")
	previous := now.AddDate(0, -1, 0).Format("2006-01")

	rows := []struct {
		Category string  `db:"category"`
		Month    string  `db:"month"`
		Total    float64 `db:"total"`
	}{}
	err := e.db.SelectContext(ctx, &rows, `
		SELECT category, strftime('%Y-%m', date) AS month, SUM(amount) AS total
		FROM transactions
		WHERE direction = 'debit'
		  AND category != ''
		  AND strftime('%Y-%m', date) IN (?, ?)
		GROUP BY category, month`, current, previous)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}

	byCategory := make(map[string]*models.CategoryTrend)
	for _, r := range rows {
		t, ok := byCategory[r.Category]
		if !ok {
			t = &models.CategoryTrend{Category: r.Category}
			byCategory[r.Category] = t
		}
		if r.Month == current {
			t.CurrentTotal = r.Total
		} else {
			t.PreviousTotal = r.Total
		}
	}

	var trends []models.CategoryTrend
	for _, t := range byCategory {
		if t.PreviousTotal != 0 {
			t.ChangePercent = (t.CurrentTotal - t.PreviousTotal) / t.PreviousTotal * 100
		} else if t.CurrentTotal > 0 {
			t.ChangePercent = 100
		}
		trends = append(trends, *t)
	}
	sort.Slice(trends, func(i, j int) bool {
		return math.Abs(trends[i].ChangePercent) > math.Abs(trends[j].ChangePercent)
	})
	return trends, nil
}

// RecurringMerchants returns merchants seen at least twice with totals and
// a coarse frequency label.
func (e *Engine) RecurringMerchants(ctx context.Context) ([]models.RecurringMerchant, error) {
	rows := []struct {
		Merchant  string  `db:"merchant"`
		Count     int     `db:"cnt"`
		Total     float64 `db:"total"`
		Average   float64 `db:"avg_amount"`
		FirstSeen string  `db:"first_seen"`
		LastSeen  string  `db:"last_seen"`
	}{}
	err := e.db.SelectContext(ctx, &rows, `
		SELECT merchant, COUNT(*) AS cnt, SUM(amount) AS total, AVG(amount) AS avg_amount,
		       MIN(date) AS first_seen, MAX(date) AS last_seen
		FROM transactions
		WHERE direction = 'debit' AND merchant != ''
		GROUP BY merchant
		HAVING COUNT(*) >= 2
		ORDER BY total DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring merchants: %w", err)
	}

	var out []models.RecurringMerchant
	for _, r := range rows {
		m := models.RecurringMerchant{
			Merchant: r.Merchant,
			Count:    r.Count,
			Total:    r.Total,
			Average:  r.Average,
		}
		m.FirstSeen, _ = parseStoredTime(r.FirstSeen)
		m.LastSeen, _ = parseStoredTime(r.LastSeen)

		// Mean gap between occurrences decides the label.
		meanGapDays := m.LastSeen.Sub(m.FirstSeen).Hours() / 24 / float64(r.Count-1)
		switch {
		case meanGapDays <= 10:
			m.Frequency = "weekly"
		case meanGapDays <= 45:
			m.Frequency = "monthly"
		default:
			m.Frequency = "occasional"
		}
		out = append(out, m)
	}
	return out, nil
}

// parseStoredTime reads a date as the sqlite driver stored it.
func parseStoredTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
