// Package categorizer assigns each transaction one label from a closed
// category set, conditioning the model on the user's past corrections so
// adjudications stick.
package categorizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/internal/llm"
	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

const correctionLimit = 10

// Categorizer assigns categories via the model, with user corrections as
// few-shot examples.
type Categorizer struct {
	client       *llm.Client
	db           *database.DB
	categories   []string
	descriptions map[string]string
	logger       *slog.Logger
}

// New creates a categorizer over the given closed category set.
func New(client *llm.Client, db *database.DB, categories []string, descriptions map[string]string, logger *slog.Logger) *Categorizer {
	return &Categorizer{
		client:       client,
		db:           db,
		categories:   categories,
		descriptions: descriptions,
		logger:       logger.With("component", "categorizer"),
	}
}

type categoryResponse struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
}

// Categorize assigns one category to a single transaction. Any model
// failure degrades to {Other, 0}.
func (c *Categorizer) Categorize(ctx context.Context, tx *models.Transaction) (string, float64) {
	corrections, err := c.gatherCorrections(ctx, tx.Merchant)
	if err != nil {
		c.logger.Warn("failed to load corrections", "error", err)
	}

	prompt := c.buildPrompt(corrections) +
		"\nTransaction:\n" + formatTransaction(tx, 0) +
		"\nRespond with JSON only: {\"category\": \"...\", \"confidence\": 0..1}"

	var resp categoryResponse
	if !c.client.RunJSON(ctx, prompt, &resp) {
		return models.CategoryOther, 0
	}
	return c.validate(resp)
}

// CategorizeBatch assigns categories to many transactions with one model
// call. If the response length does not match, it falls through to
// per-transaction calls.
func (c *Categorizer) CategorizeBatch(ctx context.Context, txns []*models.Transaction) []string {
	if len(txns) == 0 {
		return nil
	}

	corrections, err := c.gatherCorrections(ctx, "")
	if err != nil {
		c.logger.Warn("failed to load corrections", "error", err)
	}

	var b strings.Builder
	b.WriteString(c.buildPrompt(corrections))
	b.WriteString("\nTransactions:\n")
	for i, tx := range txns {
		b.WriteString(formatTransaction(tx, i+1))
	}
	fmt.Fprintf(&b, "\nRespond with JSON only: an array of exactly %d objects, one per numbered transaction, each {\"category\": \"...\", \"confidence\": 0..1}", len(txns))

	var resp []categoryResponse
	if c.client.RunJSON(ctx, b.String(), &resp) && len(resp) == len(txns) {
		out := make([]string, len(txns))
		for i, r := range resp {
			out[i], _ = c.validate(r)
		}
		return out
	}

	c.logger.Debug("batch categorization fell back to single calls", "count", len(txns))
	out := make([]string, len(txns))
	for i, tx := range txns {
		out[i], _ = c.Categorize(ctx, tx)
	}
	return out
}

// Learn records a user correction so future prompts carry it.
func (c *Categorizer) Learn(ctx context.Context, merchant, original, corrected, description string) error {
	return c.db.InsertCategoryCorrection(ctx, merchant, original, corrected, description)
}

// gatherCorrections returns up to correctionLimit few-shot examples:
// merchant-specific first, backfilled with recent corrections from other
// merchants, recency order preserved.
func (c *Categorizer) gatherCorrections(ctx context.Context, merchant string) ([]models.CategoryCorrection, error) {
	var out []models.CategoryCorrection
	seen := make(map[int64]bool)

	if merchant != "" {
		byMerchant, err := c.db.CorrectionsByMerchant(ctx, merchant, correctionLimit)
		if err != nil {
			return nil, err
		}
		for _, corr := range byMerchant {
			seen[corr.ID] = true
			out = append(out, corr)
		}
	}

	if len(out) < correctionLimit {
		recent, err := c.db.RecentCorrections(ctx, correctionLimit)
		if err != nil {
			return out, err
		}
		for _, corr := range recent {
			if len(out) >= correctionLimit {
				break
			}
			if seen[corr.ID] {
				continue
			}
			out = append(out, corr)
		}
	}
	return out, nil
}

// buildPrompt lists the category set and the correction examples. The
// model is told corrections are authoritative.
func (c *Categorizer) buildPrompt(corrections []models.CategoryCorrection) string {
	var b strings.Builder
	b.WriteString("Categorize bank transactions. Pick exactly one category from this list:\n")
	for _, cat := range c.categories {
		if desc := c.descriptions[cat]; desc != "" {
			fmt.Fprintf(&b, "- %s: %s\n", cat, desc)
		} else {
			fmt.Fprintf(&b, "- %s\n", cat)
		}
	}
	if len(corrections) > 0 {
		b.WriteString("\nThe user has corrected past categorizations. Treat these as authoritative:\n")
		for _, corr := range corrections {
			fmt.Fprintf(&b, "- %s: was %s → corrected to %s\n",
				corr.Merchant, corr.OriginalCategory, corr.CorrectedCategory)
		}
	}
	return b.String()
}

// validate checks the model's label against the closed set and clamps
// confidence. Anything invalid becomes {Other, 0}.
func (c *Categorizer) validate(resp categoryResponse) (string, float64) {
	category := strings.TrimSpace(resp.Category)
	valid := false
	for _, cat := range c.categories {
		if strings.EqualFold(cat, category) {
			category = cat
			valid = true
			break
		}
	}
	if !valid {
		return models.CategoryOther, 0
	}

	confidence := 0.5
	if resp.Confidence != nil {
		confidence = *resp.Confidence
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return category, confidence
}

func formatTransaction(tx *models.Transaction, index int) string {
	var b strings.Builder
	if index > 0 {
		fmt.Fprintf(&b, "%d. ", index)
	}
	fmt.Fprintf(&b, "%s %s %.2f %s, merchant=%q, type=%s, bank=%q, description=%q\n",
		tx.Date.Format("2006-01-02"), tx.Direction, tx.Amount, tx.Currency,
		tx.Merchant, tx.Type, tx.Bank, tx.Description)
	return b.String()
}
