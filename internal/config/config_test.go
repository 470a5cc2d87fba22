package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Parser.ConfidenceThreshold != 0.7 {
		t.Errorf("threshold = %v", cfg.Parser.ConfidenceThreshold)
	}
	if cfg.Gmail.FetchBatchSize != 50 {
		t.Errorf("batch size = %v", cfg.Gmail.FetchBatchSize)
	}
	if len(cfg.Categories.List) != 10 {
		t.Errorf("categories = %d", len(cfg.Categories.List))
	}
}

func TestMergeFile_DeepMergeReplacesArraysWholesale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	err := os.WriteFile(path, []byte(`{
		"gmail": {"senders": ["only@bank.com"]},
		"alerts": {"spikeThreshold": 2.0}
	}`), 0o644)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := Default()
	if err := mergeFile(cfg, path); err != nil {
		t.Fatalf("merge: %v", err)
	}

	// The array shrinks to exactly what the user listed.
	if len(cfg.Gmail.Senders) != 1 || cfg.Gmail.Senders[0] != "only@bank.com" {
		t.Errorf("senders = %v", cfg.Gmail.Senders)
	}
	// Untouched siblings keep their defaults.
	if cfg.Gmail.FetchBatchSize != 50 {
		t.Errorf("batch size = %v", cfg.Gmail.FetchBatchSize)
	}
	if len(cfg.Gmail.SubjectKeywords) == 0 {
		t.Error("subject keywords lost")
	}
	if cfg.Alerts.SpikeThreshold != 2.0 {
		t.Errorf("spike threshold = %v", cfg.Alerts.SpikeThreshold)
	}
	if cfg.Alerts.LargeTransactionAmount != 10000 {
		t.Errorf("large amount = %v", cfg.Alerts.LargeTransactionAmount)
	}
}

func TestMergeFile_MissingFileIsFine(t *testing.T) {
	cfg := Default()
	if err := mergeFile(cfg, filepath.Join(t.TempDir(), "nope.json")); err != nil {
		t.Fatalf("missing file: %v", err)
	}
}

func TestMergeFile_MalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte("{nope"), 0o644)
	if err := mergeFile(Default(), path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate_Rejects(t *testing.T) {
	bad := Default()
	bad.Parser.ConfidenceThreshold = 1.5
	if err := bad.validate(); err == nil {
		t.Error("threshold out of range accepted")
	}

	bad = Default()
	bad.Gmail.FetchBatchSize = 0
	if err := bad.validate(); err == nil {
		t.Error("zero batch size accepted")
	}

	bad = Default()
	bad.Categories.List = nil
	if err := bad.validate(); err == nil {
		t.Error("empty category set accepted")
	}
}

func TestDBPath_EnvOverride(t *testing.T) {
	cfg := Default()
	cfg.BaseDir = "/home/u/.expense-tracker"
	if got := cfg.DBPath(); got != filepath.Join(cfg.BaseDir, "data.db") {
		t.Errorf("db path = %q", got)
	}
	cfg.DBPathOverride = "/tmp/other.db"
	if got := cfg.DBPath(); got != "/tmp/other.db" {
		t.Errorf("db path = %q", got)
	}
}
