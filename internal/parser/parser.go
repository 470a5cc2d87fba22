// Package parser turns raw notification emails into normalized
// transactions. A fall-through chain of deterministic per-format parsers
// runs first; an AI-backed fallback catches what they miss.
package parser

import (
	"context"
	"log/slog"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// Parser extracts transactions from one email format.
type Parser interface {
	Name() string
	// CanParse reports whether the email looks like this parser's format.
	CanParse(email *models.RawEmail) bool
	// Parse extracts transactions. A nil or empty result means the parser
	// could not handle the email after all; dispatch continues.
	Parse(ctx context.Context, email *models.RawEmail) []models.Transaction
}

// Registry holds an ordered parser chain plus an optional fallback. The
// default wiring registers the five format parsers ahead of the AI
// fallback; passing an empty chain with only a fallback gives the all-AI
// mode.
type Registry struct {
	parsers  []Parser
	fallback Parser
	logger   *slog.Logger
}

// NewRegistry builds a registry from an ordered chain and a fallback,
// either of which may be nil/empty.
func NewRegistry(parsers []Parser, fallback Parser, logger *slog.Logger) *Registry {
	return &Registry{
		parsers:  parsers,
		fallback: fallback,
		logger:   logger.With("component", "parser"),
	}
}

// ParseEmail dispatches one email through the chain. A parser that claims
// the format but returns nothing does not stop dispatch; the email
// escalates to later parsers and finally the fallback. An unparseable
// email yields an empty slice, never an error.
func (r *Registry) ParseEmail(ctx context.Context, email *models.RawEmail) []models.Transaction {
	for _, p := range r.parsers {
		if !p.CanParse(email) {
			continue
		}
		if txns := r.safeParse(ctx, p, email); len(txns) > 0 {
			return txns
		}
		r.logger.Debug("parser claimed email but produced nothing",
			"parser", p.Name(), "message_id", email.MessageID)
	}

	if r.fallback != nil {
		if txns := r.safeParse(ctx, r.fallback, email); len(txns) > 0 {
			return txns
		}
	}

	r.logger.Warn("email unparseable", "message_id", email.MessageID, "subject", email.Subject)
	return nil
}

// safeParse contains parser panics so a bad edge case degrades into a nil
// result and dispatch continues.
func (r *Registry) safeParse(ctx context.Context, p Parser, email *models.RawEmail) (txns []models.Transaction) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("parser panicked", "parser", p.Name(),
				"message_id", email.MessageID, "panic", rec)
			txns = nil
		}
	}()
	return p.Parse(ctx, email)
}
