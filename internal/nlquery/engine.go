// Package nlquery answers natural-language questions about the ledger: the
// model writes a read-only SQL statement, the guard vets it, the store runs
// it, and the model interprets the rows.
package nlquery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/internal/llm"
)

const maxInterpretRows = 100

// cannotAnswer is the sentinel the model returns for unanswerable questions.
const cannotAnswer = "CANNOT_ANSWER"

// schemaContext is the table context given to the model for SQL generation.
const schemaContext = `Database: sqlite. Dates are stored as text like '2025-01-15 09:00:00+00:00'; compare with date(...) or plain string ordering.

Tables:
- transactions(id TEXT, email_message_id TEXT, date DATETIME, amount REAL, currency TEXT,
  direction TEXT ('debit' money out | 'credit' money in),
  type TEXT ('upi','credit_card','bank_transfer','sip','loan'),
  merchant TEXT, account TEXT, bank TEXT, reference TEXT, description TEXT,
  category TEXT, source TEXT ('regex','ai'), confidence REAL,
  needs_review BOOLEAN, created_at DATETIME, updated_at DATETIME)
- raw_emails(message_id TEXT, from_addr TEXT, subject TEXT, date DATETIME, body_text TEXT, body_html TEXT, fetched_at DATETIME)
- category_corrections(id, merchant, description, original_category, corrected_category, created_at)
- duplicate_groups(id, kept_transaction_id, duplicate_transaction_id, reason, confidence, created_at)
- eval_flags(id, transaction_id, verdict, notes, created_at)`

// Response is what the caller gets back; Answer is always set.
type Response struct {
	Answer string
	SQL    string
	Rows   *database.QueryResult
	Err    error
}

// Engine runs the two-step question → SQL → answer flow.
type Engine struct {
	db     *database.DB
	client *llm.Client
	logger *slog.Logger
}

// New creates a query engine.
func New(db *database.DB, client *llm.Client, logger *slog.Logger) *Engine {
	return &Engine{db: db, client: client, logger: logger.With("component", "nlquery")}
}

// Ask answers one natural-language question.
func (e *Engine) Ask(ctx context.Context, question string) Response {
	query, err := e.generateSQL(ctx, question)
	if err != nil {
		return Response{Answer: "could not generate a query for that question", Err: err}
	}
	if strings.Contains(query, cannotAnswer) {
		return Response{Answer: "I cannot answer that question from the transaction data."}
	}

	if err := Guard(query); err != nil {
		e.logger.Warn("guard rejected generated SQL", "sql", query, "error", err)
		return Response{Answer: "the generated query was rejected by the read-only guard", SQL: query, Err: err}
	}

	result, err := e.db.QueryRows(ctx, query)
	if err != nil {
		return Response{Answer: fmt.Sprintf("query failed: %v", err), SQL: query, Err: err}
	}

	table := formatTable(result)
	answer := e.interpret(ctx, question, table)
	if answer == "" {
		// Always yield some response: fall back to the raw table.
		answer = table
	}
	return Response{Answer: answer, SQL: query, Rows: result}
}

// generateSQL asks the model for a single read statement.
func (e *Engine) generateSQL(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(`You translate questions about personal expenses into sqlite SQL.

%s

Write ONE read-only statement (SELECT or WITH) answering the question below.
If the question cannot be answered from these tables, return exactly:
SELECT '%s' as error;
Return only SQL, no explanation.

Question: %s`, schemaContext, cannotAnswer, question)

	res := e.client.Run(ctx, prompt, llm.FormatText)
	if !res.OK {
		return "", fmt.Errorf("model unavailable: %s", res.Error)
	}
	query := llm.Normalize(res.Output)
	if query == "" {
		return "", fmt.Errorf("model returned no SQL")
	}
	return query, nil
}

// interpret asks the model to answer the question from the result table.
func (e *Engine) interpret(ctx context.Context, question, table string) string {
	prompt := fmt.Sprintf(`Question: %s

Query results:
%s

Answer the question concisely in plain language using only these results. Mention amounts with their currency.`,
		question, table)

	res := e.client.Run(ctx, prompt, llm.FormatText)
	if !res.OK {
		return ""
	}
	return strings.TrimSpace(res.Output)
}

// formatTable renders up to maxInterpretRows rows as a pipe-delimited table.
func formatTable(result *database.QueryResult) string {
	var b strings.Builder
	b.WriteString(strings.Join(result.Columns, " | "))
	b.WriteByte('\n')

	n := len(result.Rows)
	if n > maxInterpretRows {
		n = maxInterpretRows
	}
	for _, row := range result.Rows[:n] {
		cells := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			cells[i] = fmt.Sprintf("%v", row[col])
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteByte('\n')
	}
	if len(result.Rows) > n {
		fmt.Fprintf(&b, "... (%d more rows)\n", len(result.Rows)-n)
	}
	return b.String()
}
