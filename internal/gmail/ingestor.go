package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/internal/retry"
	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// IngestorConfig controls the sync window and fetch parallelism.
type IngestorConfig struct {
	Senders         []string
	SubjectKeywords []string
	FetchBatchSize  int
	LookbackMonths  int
	Retry           retry.Options
}

// Ingestor runs the incremental sync protocol against the provider.
type Ingestor struct {
	api    MailAPI
	db     *database.DB
	cfg    IngestorConfig
	logger *slog.Logger

	now func() time.Time // injectable clock for tests
}

// NewIngestor creates an ingestor.
func NewIngestor(api MailAPI, db *database.DB, cfg IngestorConfig, logger *slog.Logger) *Ingestor {
	if cfg.FetchBatchSize <= 0 {
		cfg.FetchBatchSize = 50
	}
	return &Ingestor{
		api:    api,
		db:     db,
		cfg:    cfg,
		logger: logger.With("component", "gmail"),
		now:    time.Now,
	}
}

// SyncResult summarizes one ingestion run. NewMessageIDs is the bridge to
// the parsing pipeline.
type SyncResult struct {
	MessagesFound   int
	NewEmailsStored int
	NewMessageIDs   []string
	SyncTimestamp   time.Time
}

// Sync enumerates matching messages since the effective cutoff, fetches
// bodies in bounded batches, persists raw emails, and advances the stored
// cursor. The since precedence is: explicit override, then the stored
// last-sync timestamp, then now minus the default lookback.
func (in *Ingestor) Sync(ctx context.Context, since time.Time) (*SyncResult, error) {
	effectiveSince, err := in.effectiveSince(ctx, since)
	if err != nil {
		return nil, err
	}
	syncStart := in.now().UTC()

	query := BuildQuery(in.cfg.Senders, in.cfg.SubjectKeywords, effectiveSince)
	in.logger.Info("listing messages", "query", query)

	ids, err := in.listAll(ctx, query)
	if err != nil {
		return nil, err
	}
	in.logger.Info("messages found", "count", len(ids))

	emails, err := in.fetchAll(ctx, ids)
	if err != nil {
		return nil, err
	}

	inserted, err := in.db.InsertRawEmails(ctx, emails)
	if err != nil {
		return nil, err
	}

	if err := in.db.SetLastSyncTimestamp(ctx, syncStart); err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if err := in.db.SetSyncValue(ctx, database.SyncKeyLastMessageID, ids[0]); err != nil {
			return nil, err
		}
	}
	if err := in.db.IncrementSyncedCount(ctx, len(inserted)); err != nil {
		return nil, err
	}

	return &SyncResult{
		MessagesFound:   len(ids),
		NewEmailsStored: len(inserted),
		NewMessageIDs:   inserted,
		SyncTimestamp:   syncStart,
	}, nil
}

func (in *Ingestor) effectiveSince(ctx context.Context, override time.Time) (time.Time, error) {
	if !override.IsZero() {
		return override, nil
	}
	last, err := in.db.LastSyncTimestamp(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !last.IsZero() {
		return last, nil
	}
	months := in.cfg.LookbackMonths
	if months <= 0 {
		months = 3
	}
	return in.now().AddDate(0, -months, 0), nil
}

// listAll pages through the listing cursor; every page request goes
// through the retry controller.
func (in *Ingestor) listAll(ctx context.Context, query string) ([]string, error) {
	var all []string
	pageToken := ""
	for {
		type page struct {
			ids  []string
			next string
		}
		p, err := retry.Do(ctx, func() (page, error) {
			ids, next, err := in.api.ListMessageIDs(ctx, query, pageToken)
			return page{ids: ids, next: next}, err
		}, in.cfg.Retry)
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		all = append(all, p.ids...)
		if p.next == "" {
			return all, nil
		}
		pageToken = p.next
	}
}

// fetchAll retrieves message bodies in bounded batches: parallel within a
// batch, each batch completing before the next starts. Individual decode
// failures are logged and skipped; fetch errors fail the sync.
func (in *Ingestor) fetchAll(ctx context.Context, ids []string) ([]*models.RawEmail, error) {
	var emails []*models.RawEmail
	var mu sync.Mutex

	for start := 0; start < len(ids); start += in.cfg.FetchBatchSize {
		end := start + in.cfg.FetchBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, id := range ids[start:end] {
			id := id
			g.Go(func() error {
				data, err := retry.Do(gctx, func() ([]byte, error) {
					return in.api.GetRawMessage(gctx, id)
				}, in.cfg.Retry)
				if err != nil {
					return err
				}

				email, err := ParseRawMessage(id, data)
				if err != nil {
					in.logger.Warn("failed to decode message", "message_id", id, "error", err)
					return nil
				}
				mu.Lock()
				emails = append(emails, email)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to fetch batch: %w", err)
		}
	}
	return emails, nil
}
