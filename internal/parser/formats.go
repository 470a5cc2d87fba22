package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

var (
	amountRegex = regexp.MustCompile(`(?i)(?:Rs\.?|INR|₹)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	// Masked account or card tail: "A/c XX1234", "card ending 5678".
	accountRegex  = regexp.MustCompile(`(?i)(?:a/c|account|card)(?:\s*(?:no|number)\.?)?\s*(?:ending\s*)?(?:in\s*|with\s*)?[Xx*]*([0-9]{3,6})`)
	bodyDateRegex = regexp.MustCompile(`\b([0-9]{2}[-/][0-9]{2}[-/][0-9]{2,4})\b`)
)

var bodyDateLayouts = []string{"02-01-2006", "02/01/2006", "02-01-06", "02/01/06"}

// extractAmount finds the first currency-marked amount in text.
func extractAmount(text string) (float64, bool) {
	m := amountRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return NormalizeAmount(m[1])
}

// extractAccount finds a masked account number or card tail.
func extractAccount(text string) string {
	m := accountRegex.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// extractBodyDate finds an in-body transaction date. Bank mails use
// DD-MM-YYYY variants; the email send date is the fallback.
func extractBodyDate(text string, fallback time.Time) time.Time {
	m := bodyDateRegex.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	for _, layout := range bodyDateLayouts {
		if d, err := time.Parse(layout, m[1]); err == nil {
			return d
		}
	}
	return fallback
}

// newRegexTransaction assembles a transaction produced by the
// deterministic tier.
func newRegexTransaction(email *models.RawEmail, txType models.TxType, amount float64, body string) models.Transaction {
	return models.Transaction{
		ID:             uuid.NewString(),
		EmailMessageID: email.MessageID,
		Date:           extractBodyDate(body, email.Date),
		Amount:         amount,
		Currency:       "INR",
		Direction:      DetectDirection(body),
		Type:           txType,
		Bank:           DetectBank(email),
		Account:        extractAccount(body),
		Source:         models.SourceRegex,
		NeedsReview:    false,
	}
}

func containsAny(text string, keywords ...string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
