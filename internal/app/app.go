// Package app wires the pipeline together: ingest, parse, categorize,
// dedup, alert. Each sync step completes before the next starts; the
// store is the only shared state between them.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/chandrameenamohan/expense-tracker/internal/categorizer"
	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/internal/dedup"
	"github.com/chandrameenamohan/expense-tracker/internal/gmail"
	"github.com/chandrameenamohan/expense-tracker/internal/insights"
	"github.com/chandrameenamohan/expense-tracker/internal/notify"
	"github.com/chandrameenamohan/expense-tracker/internal/parser"
	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// Deps are the collaborators an App needs. Tests inject fakes.
type Deps struct {
	DB          *database.DB
	Ingestor    *gmail.Ingestor
	Registry    *parser.Registry
	Categorizer *categorizer.Categorizer
	Dedup       *dedup.Engine
	Insights    *insights.Engine
	Notifier    *notify.TelegramNotifier
	Logger      *slog.Logger
}

// App orchestrates the end-to-end pipeline.
type App struct {
	db          *database.DB
	ingestor    *gmail.Ingestor
	registry    *parser.Registry
	categorizer *categorizer.Categorizer
	dedup       *dedup.Engine
	insights    *insights.Engine
	notifier    *notify.TelegramNotifier
	logger      *slog.Logger
}

// New creates an App from its dependencies.
func New(deps Deps) *App {
	return &App{
		db:          deps.DB,
		ingestor:    deps.Ingestor,
		registry:    deps.Registry,
		categorizer: deps.Categorizer,
		dedup:       deps.Dedup,
		insights:    deps.Insights,
		notifier:    deps.Notifier,
		logger:      deps.Logger.With("component", "app"),
	}
}

// SyncOptions control one sync run.
type SyncOptions struct {
	Since          time.Time
	SkipCategorize bool
}

// SyncSummary reports what one sync run did.
type SyncSummary struct {
	MessagesFound     int
	NewEmails         int
	TransactionsAdded int
	DuplicatesFound   int
	Alerts            []models.Alert
}

// Sync runs the full pipeline: ingest new mail, parse it, persist and
// categorize the transactions, dedup against the ledger, and generate
// alerts.
func (a *App) Sync(ctx context.Context, opts SyncOptions) (*SyncSummary, error) {
	result, err := a.ingestor.Sync(ctx, opts.Since)
	if err != nil {
		return nil, err
	}
	summary := &SyncSummary{
		MessagesFound: result.MessagesFound,
		NewEmails:     result.NewEmailsStored,
	}

	added, newIDs, err := a.processEmails(ctx, result.NewMessageIDs, opts.SkipCategorize)
	if err != nil {
		return nil, err
	}
	summary.TransactionsAdded = added

	if a.dedup != nil && len(newIDs) > 0 {
		dups, err := a.dedup.Run(ctx, newIDs)
		if err != nil {
			return nil, err
		}
		summary.DuplicatesFound = dups
	}

	if a.insights != nil {
		alerts, err := a.insights.GenerateAlerts(ctx, time.Now())
		if err != nil {
			return nil, err
		}
		summary.Alerts = alerts
		a.notifier.SendAlerts(ctx, alerts)
	}

	return summary, nil
}

// ReparseOptions control a reparse run over stored raw emails.
type ReparseOptions struct {
	MissingOnly    bool
	SkipCategorize bool
}

// Reparse re-runs the pipeline over stored raw emails. The composite
// transaction key makes this non-destructive: already-extracted rows are
// silently skipped.
func (a *App) Reparse(ctx context.Context, opts ReparseOptions) (int, error) {
	var ids []string
	var err error
	if opts.MissingOnly {
		ids, err = a.db.ListUnparsedEmailIDs(ctx)
	} else {
		ids, err = a.db.ListRawEmailIDs(ctx)
	}
	if err != nil {
		return 0, err
	}
	a.logger.Info("reparsing stored emails", "count", len(ids))

	added, _, err := a.processEmails(ctx, ids, opts.SkipCategorize)
	return added, err
}

// processEmails parses each email, categorizes the yield, and persists it.
// Returns the number of rows inserted and the ids of every transaction parsed
// from an email that yielded at least one new row; within such an email, ids
// of rows skipped as composite-key duplicates are included too.
func (a *App) processEmails(ctx context.Context, messageIDs []string, skipCategorize bool) (int, []string, error) {
	var inserted int
	var insertedIDs []string

	for _, id := range messageIDs {
		email, err := a.db.GetRawEmail(ctx, id)
		if err != nil {
			return inserted, insertedIDs, err
		}

		txns := a.registry.ParseEmail(ctx, email)
		if len(txns) == 0 {
			continue
		}

		if !skipCategorize && a.categorizer != nil {
			refs := make([]*models.Transaction, len(txns))
			for i := range txns {
				refs[i] = &txns[i]
			}
			categories := a.categorizer.CategorizeBatch(ctx, refs)
			for i := range txns {
				txns[i].Category = categories[i]
			}
		}

		batch := make([]*models.Transaction, len(txns))
		for i := range txns {
			batch[i] = &txns[i]
		}
		n, err := a.db.InsertTransactions(ctx, batch)
		if err != nil {
			return inserted, insertedIDs, err
		}
		inserted += n
		if n > 0 {
			for _, t := range txns {
				insertedIDs = append(insertedIDs, t.ID)
			}
		}
	}
	return inserted, insertedIDs, nil
}
