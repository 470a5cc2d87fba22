package parser

import (
	"strings"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

type bankPattern struct {
	Name     string
	Patterns []string
}

// Ordered: more specific entries first so "SBI Card" wins over "SBI".
var bankPatterns = []bankPattern{
	{Name: "HDFC Bank", Patterns: []string{"hdfcbank", "hdfc bank", "hdfc"}},
	{Name: "ICICI Bank", Patterns: []string{"icicibank", "icici bank", "icici"}},
	{Name: "Axis Bank", Patterns: []string{"axisbank", "axis bank", "axis"}},
	{Name: "SBI Card", Patterns: []string{"sbicard", "sbi card"}},
	{Name: "State Bank of India", Patterns: []string{"sbi.co.in", "state bank", "sbi"}},
	{Name: "Kotak Mahindra Bank", Patterns: []string{"kotak"}},
	{Name: "Yes Bank", Patterns: []string{"yesbank", "yes bank"}},
	{Name: "IDFC First Bank", Patterns: []string{"idfcfirstbank", "idfc"}},
	{Name: "Punjab National Bank", Patterns: []string{"pnb"}},
	{Name: "Paytm Payments Bank", Patterns: []string{"paytm"}},
}

// DetectBank scans the sender, subject, and body in that order against the
// pattern table.
func DetectBank(email *models.RawEmail) string {
	for _, field := range []string{email.From, email.Subject, email.BodyText} {
		lower := strings.ToLower(field)
		for _, bp := range bankPatterns {
			for _, p := range bp.Patterns {
				if strings.Contains(lower, p) {
					return bp.Name
				}
			}
		}
	}
	return ""
}
