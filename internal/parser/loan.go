package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// LoanParser handles EMI and loan repayment debits.
type LoanParser struct {
	loanRegex *regexp.Regexp
	refRegex  *regexp.Regexp
}

// NewLoanParser creates the loan format parser.
func NewLoanParser() *LoanParser {
	return &LoanParser{
		loanRegex: regexp.MustCompile(`(?i)(?:towards|for)\s+(?:your\s+)?([A-Za-z ]{3,40}?(?:loan|emi))(?:\.|,|\n|$|\s+a/c\b|\s+account\b)`),
		refRegex:  regexp.MustCompile(`(?i)loan\s*(?:a/c|account)\s*(?:no|number)?\.?\s*:?\s*[Xx*]*([0-9]{4,16})`),
	}
}

func (p *LoanParser) Name() string { return "loan" }

// CanParse claims EMI/loan repayment mails.
func (p *LoanParser) CanParse(email *models.RawEmail) bool {
	body := emailBody(email.BodyText, email.BodyHTML)
	return containsAny(email.Subject+" "+body, "emi", "loan")
}

// Parse extracts one repayment debit.
func (p *LoanParser) Parse(ctx context.Context, email *models.RawEmail) []models.Transaction {
	body := emailBody(email.BodyText, email.BodyHTML)
	if body == "" {
		return nil
	}

	amount, ok := extractAmount(body)
	if !ok {
		return nil
	}

	tx := newRegexTransaction(email, models.TypeLoan, amount, body)
	tx.Direction = models.DirectionDebit

	tx.Merchant = "EMI"
	if m := p.loanRegex.FindStringSubmatch(body); m != nil {
		tx.Merchant = strings.TrimSpace(m[1])
	}
	if m := p.refRegex.FindStringSubmatch(body); m != nil {
		tx.Reference = m[1]
	}
	tx.Description = strings.TrimSpace(email.Subject)

	return []models.Transaction{tx}
}
