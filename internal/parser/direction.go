package parser

import (
	"strings"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// Credit keywords are checked before debit ones because they are the more
// specific class; debit is the default when nothing matches.
var creditKeywords = []string{
	"credited", "received", "deposited", "refund", "cashback", "credit of",
}

var debitKeywords = []string{
	"debited", "spent", "paid", "withdrawn", "purchase", "sent", "deducted", "debit of",
}

// DetectDirection derives the money flow from the email text.
func DetectDirection(text string) models.Direction {
	lower := strings.ToLower(text)
	for _, kw := range creditKeywords {
		if strings.Contains(lower, kw) {
			return models.DirectionCredit
		}
	}
	for _, kw := range debitKeywords {
		if strings.Contains(lower, kw) {
			return models.DirectionDebit
		}
	}
	return models.DirectionDebit
}
