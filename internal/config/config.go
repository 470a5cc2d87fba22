package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// GmailConfig controls mail ingestion.
type GmailConfig struct {
	Senders         []string `json:"senders"`
	SubjectKeywords []string `json:"subjectKeywords"`
	RedirectPort    int      `json:"redirectPort"`
	AuthTimeoutMs   int      `json:"authTimeoutMs"`
	FetchBatchSize  int      `json:"fetchBatchSize"`
}

// CurrencyConfig controls amount display.
type CurrencyConfig struct {
	Code   string `json:"code"`
	Locale string `json:"locale"`
}

// AlertsConfig controls post-sync alert thresholds.
type AlertsConfig struct {
	SpikeThreshold         float64 `json:"spikeThreshold"`
	LargeTransactionAmount float64 `json:"largeTransactionAmount"`
}

// SyncConfig controls the ingestion window.
type SyncConfig struct {
	DefaultLookbackMonths int `json:"defaultLookbackMonths"`
}

// ParserConfig controls the extraction pipeline.
type ParserConfig struct {
	ConfidenceThreshold float64 `json:"confidenceThreshold"`
	BodyTruncationLimit int     `json:"bodyTruncationLimit"`
}

// RateLimitConfig controls provider-call backoff.
type RateLimitConfig struct {
	MaxRetries     int `json:"maxRetries"`
	InitialDelayMs int `json:"initialDelayMs"`
	MaxDelayMs     int `json:"maxDelayMs"`
}

// DedupConfig controls duplicate candidate selection.
type DedupConfig struct {
	DateToleranceDays int `json:"dateToleranceDays"`
}

// CategoriesConfig is the closed category set given to the categorizer.
type CategoriesConfig struct {
	List         []string          `json:"list"`
	Descriptions map[string]string `json:"descriptions"`
}

// LLMConfig names the external model binary.
type LLMConfig struct {
	Binary string `json:"binary"`
}

// Config is the full application configuration. Defaults live in code; an
// optional config.json in the base directory is deep-merged on top (arrays
// replaced wholesale); a handful of environment variables win over both.
type Config struct {
	Gmail      GmailConfig      `json:"gmail"`
	Currency   CurrencyConfig   `json:"currency"`
	Alerts     AlertsConfig     `json:"alerts"`
	Sync       SyncConfig       `json:"sync"`
	Parser     ParserConfig     `json:"parser"`
	RateLimit  RateLimitConfig  `json:"rateLimit"`
	Dedup      DedupConfig      `json:"dedup"`
	Categories CategoriesConfig `json:"categories"`
	LLM        LLMConfig        `json:"llm"`

	// Filled from the environment, not config.json.
	BaseDir          string `json:"-" env:"EXPENSE_TRACKER_DIR"`
	DBPathOverride   string `json:"-" env:"EXPENSE_TRACKER_DB"`
	LogLevel         string `json:"-" env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string `json:"-" env:"LOG_FORMAT" envDefault:"text"`
	TelegramToken    string `json:"-" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `json:"-" env:"TELEGRAM_CHAT_ID"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gmail: GmailConfig{
			Senders: []string{
				"alerts@hdfcbank.net",
				"alerts@axisbank.com",
				"alerts@icicibank.com",
				"credit_cards@icicibank.com",
				"alerts@sbicard.com",
				"noreply@phonepe.com",
				"no-reply@paytm.com",
				"donotreply@camsonline.com",
			},
			SubjectKeywords: []string{
				"transaction", "debited", "credited", "payment",
				"UPI", "alert", "statement",
			},
			RedirectPort:   8089,
			AuthTimeoutMs:  120000,
			FetchBatchSize: 50,
		},
		Currency: CurrencyConfig{Code: "INR", Locale: "en-IN"},
		Alerts: AlertsConfig{
			SpikeThreshold:         1.4,
			LargeTransactionAmount: 10000,
		},
		Sync:   SyncConfig{DefaultLookbackMonths: 3},
		Parser: ParserConfig{ConfidenceThreshold: 0.7, BodyTruncationLimit: 8000},
		RateLimit: RateLimitConfig{
			MaxRetries:     5,
			InitialDelayMs: 1000,
			MaxDelayMs:     32000,
		},
		Dedup: DedupConfig{DateToleranceDays: 1},
		Categories: CategoriesConfig{
			List:         models.DefaultCategories,
			Descriptions: models.DefaultCategoryDescriptions,
		},
		LLM: LLMConfig{Binary: "claude"},
	}
}

// Load builds the effective configuration: defaults, then config.json from
// the base directory if present, then environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.BaseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.BaseDir = filepath.Join(home, ".expense-tracker")
	}

	if err := mergeFile(cfg, filepath.Join(cfg.BaseDir, "config.json")); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile deep-merges a user config file into cfg. json.Unmarshal into the
// populated struct merges objects field-by-field and replaces slices
// wholesale, so users can shrink the sender allow-list. Maps are merged:
// existing keys stay and the file's keys are added or overwritten.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Parser.ConfidenceThreshold < 0 || c.Parser.ConfidenceThreshold > 1 {
		return fmt.Errorf("parser.confidenceThreshold must be in [0,1], got %v", c.Parser.ConfidenceThreshold)
	}
	if c.Gmail.FetchBatchSize < 1 {
		return fmt.Errorf("gmail.fetchBatchSize must be >= 1, got %d", c.Gmail.FetchBatchSize)
	}
	if c.Alerts.SpikeThreshold <= 0 {
		return fmt.Errorf("alerts.spikeThreshold must be > 0, got %v", c.Alerts.SpikeThreshold)
	}
	if c.Dedup.DateToleranceDays < 0 {
		return fmt.Errorf("dedup.dateToleranceDays must be >= 0, got %d", c.Dedup.DateToleranceDays)
	}
	if len(c.Categories.List) == 0 {
		return fmt.Errorf("categories.list must not be empty")
	}
	return nil
}

// DBPath is the sqlite file location, honouring the env override.
func (c *Config) DBPath() string {
	if c.DBPathOverride != "" {
		return c.DBPathOverride
	}
	return filepath.Join(c.BaseDir, "data.db")
}

// CredentialsPath is the mail-provider OAuth client file.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.BaseDir, "credentials.json")
}

// TokenPath is the cached refreshable OAuth token.
func (c *Config) TokenPath() string {
	return filepath.Join(c.BaseDir, "token.json")
}

// TelegramEnabled reports whether alert delivery to Telegram is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
