package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// BankTransferParser handles NEFT/RTGS/IMPS movement alerts.
type BankTransferParser struct {
	modeRegex     *regexp.Regexp
	refRegex      *regexp.Regexp
	merchantRegex *regexp.Regexp
}

// NewBankTransferParser creates the bank-transfer format parser.
func NewBankTransferParser() *BankTransferParser {
	return &BankTransferParser{
		modeRegex:     regexp.MustCompile(`(?i)\b(NEFT|RTGS|IMPS)\b`),
		refRegex:      regexp.MustCompile(`(?i)(?:NEFT|RTGS|IMPS)[\s\w]*?(?:ref(?:erence)?\s*(?:no|number)?\.?\s*:?\s*)?\b([A-Z0-9]{10,22})\b`),
		merchantRegex: regexp.MustCompile(`(?i)(?:to|from|by)\s+([A-Za-z0-9 .&'\-]{2,60}?)(?:\s+on\b|\s+via\b|\.|,|\n|$)`),
	}
}

func (p *BankTransferParser) Name() string { return "bank_transfer" }

// CanParse claims mails that mention a transfer rail.
func (p *BankTransferParser) CanParse(email *models.RawEmail) bool {
	body := emailBody(email.BodyText, email.BodyHTML)
	return p.modeRegex.MatchString(email.Subject + " " + body)
}

// Parse extracts one transfer from the email body.
func (p *BankTransferParser) Parse(ctx context.Context, email *models.RawEmail) []models.Transaction {
	body := emailBody(email.BodyText, email.BodyHTML)
	if body == "" {
		return nil
	}

	amount, ok := extractAmount(body)
	if !ok {
		return nil
	}

	tx := newRegexTransaction(email, models.TypeBankTransfer, amount, body)

	if m := p.merchantRegex.FindStringSubmatch(body); m != nil {
		tx.Merchant = strings.TrimSpace(m[1])
	}
	if tx.Merchant == "" {
		return nil
	}
	if m := p.refRegex.FindStringSubmatch(body); m != nil {
		tx.Reference = m[1]
	}
	if mode := p.modeRegex.FindString(email.Subject + " " + body); mode != "" {
		tx.Description = strings.ToUpper(mode) + " transfer"
	}

	return []models.Transaction{tx}
}
