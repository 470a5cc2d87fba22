package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chandrameenamohan/expense-tracker/internal/llm"
	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// AIParser is the fallback tier: it asks the model to extract transactions
// from emails the deterministic parsers could not handle.
type AIParser struct {
	client              *llm.Client
	confidenceThreshold float64
	bodyTruncationLimit int
}

// NewAIParser creates the fallback parser. Transactions whose confidence
// falls below threshold are flagged for review.
func NewAIParser(client *llm.Client, confidenceThreshold float64, bodyTruncationLimit int) *AIParser {
	if bodyTruncationLimit <= 0 {
		bodyTruncationLimit = 8000
	}
	return &AIParser{
		client:              client,
		confidenceThreshold: confidenceThreshold,
		bodyTruncationLimit: bodyTruncationLimit,
	}
}

func (p *AIParser) Name() string { return "ai" }

// CanParse always claims: the fallback has no format of its own.
func (p *AIParser) CanParse(email *models.RawEmail) bool { return true }

// aiTransaction is the shape the model is asked to return per transaction.
type aiTransaction struct {
	Amount      json.RawMessage `json:"amount"`
	Direction   string          `json:"direction"`
	Type        string          `json:"type"`
	Merchant    string          `json:"merchant"`
	Account     string          `json:"account"`
	Bank        string          `json:"bank"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Confidence  *float64        `json:"confidence"`
}

type aiResponse struct {
	Transactions []aiTransaction `json:"transactions"`
}

// Parse sends the email to the model and validates each returned entry.
// Model unavailability or malformed output yields nil so the pipeline
// treats the email as unparseable rather than failing.
func (p *AIParser) Parse(ctx context.Context, email *models.RawEmail) []models.Transaction {
	body := emailBody(email.BodyText, email.BodyHTML)
	if len(body) > p.bodyTruncationLimit {
		body = body[:p.bodyTruncationLimit]
	}

	var resp aiResponse
	if !p.client.RunJSON(ctx, p.buildPrompt(email, body), &resp) {
		return nil
	}

	var txns []models.Transaction
	for _, entry := range resp.Transactions {
		if tx, ok := p.validate(email, entry); ok {
			txns = append(txns, tx)
		}
	}
	return txns
}

func (p *AIParser) buildPrompt(email *models.RawEmail, body string) string {
	var b strings.Builder
	b.WriteString("Extract all financial transactions from this email. ")
	b.WriteString("Respond with JSON only: {\"transactions\": [{\"amount\", \"direction\" (debit|credit), ")
	b.WriteString("\"type\" (upi|credit_card|bank_transfer|sip|loan), \"merchant\", \"account\", \"bank\", ")
	b.WriteString("\"reference\", \"description\", \"date\" (YYYY-MM-DD), \"confidence\" (0..1)}]}. ")
	b.WriteString("Return {\"transactions\": []} if the email contains no transaction.\n\n")
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "From: %s\n", email.From)
	fmt.Fprintf(&b, "Date: %s\n\n", email.Date.Format("2006-01-02"))
	b.WriteString(body)
	return b.String()
}

// validate coerces one model entry into a transaction, rejecting entries
// without a usable positive amount.
func (p *AIParser) validate(email *models.RawEmail, entry aiTransaction) (models.Transaction, bool) {
	amount, ok := parseAIAmount(entry.Amount)
	if !ok {
		return models.Transaction{}, false
	}

	direction := models.Direction(strings.ToLower(entry.Direction))
	if !direction.Valid() {
		direction = models.DirectionDebit
	}
	txType := models.TxType(strings.ToLower(entry.Type))
	if !txType.Valid() {
		txType = models.TypeBankTransfer
	}

	confidence := 0.5
	if entry.Confidence != nil {
		confidence = *entry.Confidence
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	date := email.Date
	if entry.Date != "" {
		if d, err := time.Parse("2006-01-02", entry.Date); err == nil {
			date = d
		}
	}

	return models.Transaction{
		ID:             uuid.NewString(),
		EmailMessageID: email.MessageID,
		Date:           date,
		Amount:         amount,
		Currency:       "INR",
		Direction:      direction,
		Type:           txType,
		Merchant:       strings.TrimSpace(entry.Merchant),
		Account:        strings.TrimSpace(entry.Account),
		Bank:           strings.TrimSpace(entry.Bank),
		Reference:      strings.TrimSpace(entry.Reference),
		Description:    strings.TrimSpace(entry.Description),
		Source:         models.SourceAI,
		Confidence:     &confidence,
		NeedsReview:    confidence < p.confidenceThreshold,
	}, true
}

// parseAIAmount accepts either a JSON number or a currency string.
func parseAIAmount(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			n = -n
		}
		if n == 0 {
			return 0, false
		}
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return NormalizeAmount(s)
	}
	return 0, false
}
