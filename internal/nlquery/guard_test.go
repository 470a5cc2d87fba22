package nlquery

import (
	"strings"
	"testing"
)

func TestGuard_AllowsReads(t *testing.T) {
	allowed := []string{
		"SELECT * FROM transactions",
		"select amount from transactions where category = 'Food'",
		"WITH t AS (SELECT 1) SELECT * FROM t",
		"  SELECT 1",
		"-- note\nSELECT 1",
		"/* block */ SELECT 1",
	}
	for _, q := range allowed {
		if err := Guard(q); err != nil {
			t.Errorf("Guard(%q) = %v, want nil", q, err)
		}
	}
}

func TestGuard_RejectsWrites(t *testing.T) {
	rejected := []string{
		"DELETE FROM transactions WHERE category='Food';",
		"INSERT INTO transactions VALUES (1)",
		"UPDATE transactions SET amount = 0",
		"DROP TABLE transactions",
		"SELECT 1; DROP TABLE transactions",
		"SELECT * FROM transactions WHERE id IN (SELECT id FROM x); DELETE FROM transactions",
		"WITH t AS (SELECT 1) INSERT INTO transactions SELECT * FROM t",
		"PRAGMA journal_mode=DELETE",
		"VACUUM",
		"ATTACH DATABASE 'x' AS y",
		"CREATE TABLE z (a)",
		"REPLACE INTO transactions VALUES (1)",
		"/* SELECT */ DELETE FROM transactions",
		"",
	}
	for _, q := range rejected {
		if err := Guard(q); err == nil {
			t.Errorf("Guard(%q) = nil, want rejection", q)
		}
	}
}

func TestGuard_EveryKeywordEveryCasing(t *testing.T) {
	for _, kw := range forbiddenKeywords {
		for _, variant := range []string{kw, strings.ToLower(kw), kw[:1] + strings.ToLower(kw[1:])} {
			q := "SELECT * FROM t; " + variant + " something"
			if err := Guard(q); err == nil {
				t.Errorf("Guard let through %q", q)
			}
		}
	}
}

func TestGuard_KeywordInsideWordIsFine(t *testing.T) {
	// "created_at" contains CREATE but is not a write.
	ok := []string{
		"SELECT created_at FROM transactions",
		"SELECT * FROM transactions WHERE merchant = 'updatero'",
	}
	for _, q := range ok {
		if err := Guard(q); err != nil {
			t.Errorf("Guard(%q) = %v, want nil", q, err)
		}
	}
}

func TestGuard_KeywordInStringLiteralStillRejected(t *testing.T) {
	// The guard is syntactic on purpose: a false rejection is acceptable,
	// a false acceptance is not.
	if err := Guard("SELECT 'please delete me'"); err == nil {
		t.Error("expected the conservative guard to reject")
	}
}
