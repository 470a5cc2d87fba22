package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// weekStart returns the Monday 00:00 starting the ISO week containing t.
func weekStart(t time.Time) time.Time {
	t = t.Truncate(24 * time.Hour)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week started the previous Monday
	}
	return t.AddDate(0, 0, -(weekday - 1))
}

// GenerateAlerts compares the current ISO week's debits per category to the
// mean of the trailing four weeks and flags spikes, new categories, and
// large single transactions.
func (e *Engine) GenerateAlerts(ctx context.Context, now time.Time) ([]models.Alert, error) {
	start := weekStart(now)
	trailingStart := start.AddDate(0, 0, -28)

	current, err := e.categoryTotals(ctx, start, now)
	if err != nil {
		return nil, err
	}
	trailing, err := e.categoryTotals(ctx, trailingStart, start)
	if err != nil {
		return nil, err
	}

	var alerts []models.Alert
	for category, total := range current {
		avg := trailing[category] / 4

		if avg == 0 {
			if total > 0 {
				alerts = append(alerts, models.Alert{
					Type:     models.AlertNewCategory,
					Category: category,
					Amount:   total,
					Message:  fmt.Sprintf("first spending in %s this week: %.2f", category, total),
				})
			}
			continue
		}
		if total > avg*e.opts.SpikeThreshold {
			increase := (total - avg) / avg * 100
			alerts = append(alerts, models.Alert{
				Type:     models.AlertSpendingSpike,
				Category: category,
				Amount:   total,
				Message: fmt.Sprintf("%s spending is up %.0f%% this week (%.2f vs %.2f/week average)",
					category, increase, total, avg),
			})
		}
	}

	large, err := e.largeTransactions(ctx, start)
	if err != nil {
		return nil, err
	}
	alerts = append(alerts, large...)

	return alerts, nil
}

// categoryTotals sums debits per category over [from, to).
func (e *Engine) categoryTotals(ctx context.Context, from, to time.Time) (map[string]float64, error) {
	rows := []struct {
		Category string  `db:"category"`
		Total    float64 `db:"total"`
	}{}
	err := e.db.SelectContext(ctx, &rows, `
		SELECT category, SUM(amount) AS total
		FROM transactions
		WHERE direction = 'debit' AND category != ''
		  AND date >= ? AND date < ?
		GROUP BY category`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}

	totals := make(map[string]float64, len(rows))
	for _, r := range rows {
		totals[r.Category] = r.Total
	}
	return totals, nil
}

// largeTransactions flags debits at or above the configured amount since
// the current week start.
func (e *Engine) largeTransactions(ctx context.Context, since time.Time) ([]models.Alert, error) {
	txns := []struct {
		Merchant string  `db:"merchant"`
		Category string  `db:"category"`
		Amount   float64 `db:"amount"`
	}{}
	err := e.db.SelectContext(ctx, &txns, `
		SELECT merchant, category, amount
		FROM transactions
		WHERE direction = 'debit' AND amount >= ? AND date >= ?
		ORDER BY amount DESC`, e.opts.LargeTransactionAmount, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query large transactions: %w", err)
	}

	var alerts []models.Alert
	for _, t := range txns {
		alerts = append(alerts, models.Alert{
			Type:     models.AlertLargeTransaction,
			Category: t.Category,
			Amount:   t.Amount,
			Message:  fmt.Sprintf("large transaction: %.2f at %s", t.Amount, t.Merchant),
		})
	}
	return alerts, nil
}
