package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// UPIParser handles instant-payment alerts ("debited via UPI", VPA
// mentions, UPI reference numbers).
type UPIParser struct {
	vpaRegex      *regexp.Regexp
	refRegex      *regexp.Regexp
	merchantRegex *regexp.Regexp
}

// NewUPIParser creates the UPI format parser.
func NewUPIParser() *UPIParser {
	return &UPIParser{
		vpaRegex:      regexp.MustCompile(`\b([\w.\-]+@[a-zA-Z][\w]*)\b`),
		refRegex:      regexp.MustCompile(`(?i)(?:UPI\s*(?:Ref|transaction)?\s*(?:no|id|number)?\.?\s*:?\s*)([0-9]{9,14})`),
		merchantRegex: regexp.MustCompile(`(?i)(?:to|from|at)\s+(?:VPA\s+)?([A-Za-z0-9 .&'\-@_]{2,60}?)(?:\s+on\b|\s+via\b|\s+ref\b|\.|,|\n|$)`),
	}
}

func (p *UPIParser) Name() string { return "upi" }

// CanParse claims mails that mention UPI or carry a VPA.
func (p *UPIParser) CanParse(email *models.RawEmail) bool {
	body := emailBody(email.BodyText, email.BodyHTML)
	return containsAny(email.Subject+" "+body, "upi", "vpa")
}

// Parse extracts one UPI transaction from the email body.
func (p *UPIParser) Parse(ctx context.Context, email *models.RawEmail) []models.Transaction {
	body := emailBody(email.BodyText, email.BodyHTML)
	if body == "" {
		return nil
	}

	amount, ok := extractAmount(body)
	if !ok {
		return nil
	}

	tx := newRegexTransaction(email, models.TypeUPI, amount, body)

	if m := p.refRegex.FindStringSubmatch(body); m != nil {
		tx.Reference = m[1]
	}
	tx.Merchant = p.merchant(body)
	if tx.Merchant == "" {
		return nil
	}
	tx.Description = strings.TrimSpace(email.Subject)

	return []models.Transaction{tx}
}

// merchant prefers the counterparty name, falling back to the VPA.
func (p *UPIParser) merchant(body string) string {
	if m := p.merchantRegex.FindStringSubmatch(body); m != nil {
		name := strings.TrimSpace(m[1])
		// A captured VPA is fine too, but strip trailing noise words.
		if name != "" && !strings.EqualFold(name, "your account") {
			return name
		}
	}
	if m := p.vpaRegex.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}
