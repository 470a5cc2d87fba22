package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// Suggestions runs the flat rule set over the derived views. Rules are
// independent; each fires at most once.
func (e *Engine) Suggestions(ctx context.Context, now time.Time) ([]models.Suggestion, error) {
	var out []models.Suggestion

	trends, err := e.CategoryTrend(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, t := range trends {
		if t.ChangePercent > 50 && t.CurrentTotal > 500 {
			out = append(out, models.Suggestion{
				Rule: "category_spike",
				Message: fmt.Sprintf("%s is up %.0f%% versus last month (%.2f). Worth a look.",
					t.Category, t.ChangePercent, t.CurrentTotal),
			})
			break
		}
	}

	recurring, err := e.RecurringMerchants(ctx)
	if err != nil {
		return nil, err
	}
	var merchantTotal float64
	for _, m := range recurring {
		merchantTotal += m.Total
	}
	for _, m := range recurring {
		if m.Frequency == "weekly" && m.Total > 2000 {
			out = append(out, models.Suggestion{
				Rule: "recurring_weekly",
				Message: fmt.Sprintf("you pay %s roughly weekly, %.2f so far. A subscription or habit to review?",
					m.Merchant, m.Total),
			})
			break
		}
	}
	if len(recurring) > 0 && merchantTotal > 0 {
		top := recurring[0] // already sorted by total
		if top.Total/merchantTotal > 0.3 {
			out = append(out, models.Suggestion{
				Rule: "top_merchant_share",
				Message: fmt.Sprintf("%s accounts for %.0f%% of your tracked merchant spending.",
					top.Merchant, top.Total/merchantTotal*100),
			})
		}
	}

	changes, err := e.MonthOverMonth(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(changes) - 1; i >= 0; i-- {
		c := changes[i]
		if c.ChangePercent < -30 && c.PreviousTotal > 1000 {
			out = append(out, models.Suggestion{
				Rule: "spending_drop",
				Message: fmt.Sprintf("spending dropped %.0f%% in %s. Nice — or are some emails not being parsed?",
					-c.ChangePercent, c.Month),
			})
			break
		}
	}

	return out, nil
}
