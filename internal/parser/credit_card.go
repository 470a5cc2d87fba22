package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// CreditCardParser handles card spend alerts ("spent on your credit card
// ending 1234 at MERCHANT").
type CreditCardParser struct {
	merchantRegex *regexp.Regexp
	refRegex      *regexp.Regexp
}

// NewCreditCardParser creates the credit-card format parser.
func NewCreditCardParser() *CreditCardParser {
	return &CreditCardParser{
		merchantRegex: regexp.MustCompile(`(?i)\bat\s+([A-Za-z0-9 .&'*\-]{2,60}?)(?:\s+on\b|\.|,|\n|$)`),
		refRegex:      regexp.MustCompile(`(?i)(?:ref(?:erence)?\s*(?:no|number)?\.?\s*:?\s*)([A-Z0-9]{6,20})`),
	}
}

func (p *CreditCardParser) Name() string { return "credit_card" }

// CanParse claims mails about credit card usage.
func (p *CreditCardParser) CanParse(email *models.RawEmail) bool {
	body := emailBody(email.BodyText, email.BodyHTML)
	return containsAny(email.Subject+" "+body, "credit card", "card ending", "card no", "card xx")
}

// Parse extracts one card transaction from the email body.
func (p *CreditCardParser) Parse(ctx context.Context, email *models.RawEmail) []models.Transaction {
	body := emailBody(email.BodyText, email.BodyHTML)
	if body == "" {
		return nil
	}

	amount, ok := extractAmount(body)
	if !ok {
		return nil
	}

	tx := newRegexTransaction(email, models.TypeCreditCard, amount, body)

	if m := p.merchantRegex.FindStringSubmatch(body); m != nil {
		tx.Merchant = strings.TrimSpace(m[1])
	}
	if tx.Merchant == "" {
		return nil
	}
	if m := p.refRegex.FindStringSubmatch(body); m != nil {
		tx.Reference = m[1]
	}
	tx.Description = strings.TrimSpace(email.Subject)

	return []models.Transaction{tx}
}
