package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/chandrameenamohan/expense-tracker/internal/app"
	"github.com/chandrameenamohan/expense-tracker/internal/categorizer"
	"github.com/chandrameenamohan/expense-tracker/internal/config"
	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/internal/dedup"
	"github.com/chandrameenamohan/expense-tracker/internal/gmail"
	"github.com/chandrameenamohan/expense-tracker/internal/insights"
	"github.com/chandrameenamohan/expense-tracker/internal/llm"
	"github.com/chandrameenamohan/expense-tracker/internal/nlquery"
	"github.com/chandrameenamohan/expense-tracker/internal/notify"
	"github.com/chandrameenamohan/expense-tracker/internal/parser"
	"github.com/chandrameenamohan/expense-tracker/internal/retry"
	"github.com/chandrameenamohan/expense-tracker/internal/review"
)

// env holds the process-scoped handles every command needs. Constructed
// once per invocation; tests build the components directly instead.
type env struct {
	cfg    *config.Config
	db     *database.DB
	llm    *llm.Client
	logger *slog.Logger
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := database.New(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &env{
		cfg:    cfg,
		db:     db,
		llm:    llm.NewWithBinary(cfg.LLM.Binary, logger),
		logger: logger,
	}, nil
}

func (e *env) Close() {
	e.db.Close()
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
		})
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (e *env) retryOptions() retry.Options {
	return retry.Options{
		MaxRetries:   e.cfg.RateLimit.MaxRetries,
		InitialDelay: time.Duration(e.cfg.RateLimit.InitialDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(e.cfg.RateLimit.MaxDelayMs) * time.Millisecond,
		IsRetryable:  retry.IsRateLimit,
	}
}

func (e *env) newRegistry() *parser.Registry {
	fallback := parser.NewAIParser(e.llm, e.cfg.Parser.ConfidenceThreshold, e.cfg.Parser.BodyTruncationLimit)
	return parser.NewRegistry([]parser.Parser{
		parser.NewUPIParser(),
		parser.NewCreditCardParser(),
		parser.NewBankTransferParser(),
		parser.NewSIPParser(),
		parser.NewLoanParser(),
	}, fallback, e.logger)
}

func (e *env) newCategorizer() *categorizer.Categorizer {
	return categorizer.New(e.llm, e.db, e.cfg.Categories.List, e.cfg.Categories.Descriptions, e.logger)
}

func (e *env) newReviewQueue() *review.Queue {
	return review.New(e.db, e.newCategorizer(), e.logger)
}

func (e *env) newInsights() *insights.Engine {
	return insights.New(e.db, insights.Options{
		SpikeThreshold:         e.cfg.Alerts.SpikeThreshold,
		LargeTransactionAmount: e.cfg.Alerts.LargeTransactionAmount,
	}, e.logger)
}

func (e *env) newQueryEngine() *nlquery.Engine {
	return nlquery.New(e.db, e.llm, e.logger)
}

// newIngestor authorizes against the mail provider and builds the ingestor.
func (e *env) newIngestor(ctx context.Context) (*gmail.Ingestor, error) {
	auth := gmail.NewAuthenticator(gmail.AuthConfig{
		CredentialsPath: e.cfg.CredentialsPath(),
		TokenPath:       e.cfg.TokenPath(),
		RedirectPort:    e.cfg.Gmail.RedirectPort,
		AuthTimeout:     time.Duration(e.cfg.Gmail.AuthTimeoutMs) * time.Millisecond,
	}, e.logger)

	httpClient, err := auth.Client(ctx)
	if err != nil {
		return nil, err
	}
	api, err := gmail.NewMailAPI(ctx, httpClient)
	if err != nil {
		return nil, err
	}

	return gmail.NewIngestor(api, e.db, gmail.IngestorConfig{
		Senders:         e.cfg.Gmail.Senders,
		SubjectKeywords: e.cfg.Gmail.SubjectKeywords,
		FetchBatchSize:  e.cfg.Gmail.FetchBatchSize,
		LookbackMonths:  e.cfg.Sync.DefaultLookbackMonths,
		Retry:           e.retryOptions(),
	}, e.logger), nil
}

// newApp assembles the full pipeline for sync and reparse.
func (e *env) newApp(ctx context.Context, needMail bool) (*app.App, error) {
	var ingestor *gmail.Ingestor
	if needMail {
		var err error
		ingestor, err = e.newIngestor(ctx)
		if err != nil {
			return nil, err
		}
	}

	notifier, err := notify.NewTelegramNotifier(e.cfg.TelegramToken, e.cfg.TelegramChatID, e.logger)
	if err != nil {
		e.logger.Warn("telegram notifier disabled", "error", err)
	}

	return app.New(app.Deps{
		DB:          e.db,
		Ingestor:    ingestor,
		Registry:    e.newRegistry(),
		Categorizer: e.newCategorizer(),
		Dedup:       dedup.New(e.db, e.llm, e.cfg.Dedup.DateToleranceDays, e.logger),
		Insights:    e.newInsights(),
		Notifier:    notifier,
		Logger:      e.logger,
	}), nil
}

// warnIfModelMissing prints the degraded-mode notice when the external
// model binary does not respond.
func (e *env) warnIfModelMissing(ctx context.Context) bool {
	if e.llm.Available(ctx) {
		return true
	}
	fmt.Fprintf(os.Stderr, "notice: model binary %q unavailable; AI steps (fallback parsing, categorization, dedup confirmation) will be skipped\n", e.cfg.LLM.Binary)
	return false
}
