package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// SIPParser handles recurring mutual-fund purchase confirmations.
type SIPParser struct {
	fundRegex  *regexp.Regexp
	folioRegex *regexp.Regexp
}

// NewSIPParser creates the SIP format parser.
func NewSIPParser() *SIPParser {
	return &SIPParser{
		fundRegex:  regexp.MustCompile(`(?i)(?:in|towards|for)\s+([A-Za-z0-9 .&\-]{3,80}?(?:fund|plan|scheme|growth|direct))(?:\.|,|\n|$|\s+via\b|\s+on\b)`),
		folioRegex: regexp.MustCompile(`(?i)folio\s*(?:no|number)?\.?\s*:?\s*([A-Z0-9/]{4,20})`),
	}
}

func (p *SIPParser) Name() string { return "sip" }

// CanParse claims mutual-fund purchase mails.
func (p *SIPParser) CanParse(email *models.RawEmail) bool {
	body := emailBody(email.BodyText, email.BodyHTML)
	return containsAny(email.Subject+" "+body, "sip", "mutual fund", "folio", "systematic investment")
}

// Parse extracts one SIP installment.
func (p *SIPParser) Parse(ctx context.Context, email *models.RawEmail) []models.Transaction {
	body := emailBody(email.BodyText, email.BodyHTML)
	if body == "" {
		return nil
	}

	amount, ok := extractAmount(body)
	if !ok {
		return nil
	}

	tx := newRegexTransaction(email, models.TypeSIP, amount, body)
	// A SIP installment is always money leaving the account.
	tx.Direction = models.DirectionDebit

	if m := p.fundRegex.FindStringSubmatch(body); m != nil {
		tx.Merchant = strings.TrimSpace(m[1])
	}
	if tx.Merchant == "" {
		return nil
	}
	if m := p.folioRegex.FindStringSubmatch(body); m != nil {
		tx.Reference = m[1]
	}
	tx.Description = strings.TrimSpace(email.Subject)

	return []models.Transaction{tx}
}
