package dedup

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/internal/llm"
	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// verdictRunner answers every pairwise judgment the same way.
type verdictRunner struct {
	response string
	calls    int
}

func (r *verdictRunner) Run(ctx context.Context, args []string) (string, string, int, error) {
	r.calls++
	return r.response, "", 0, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedEmail(t *testing.T, db *database.DB, id string) {
	t.Helper()
	err := db.InsertRawEmail(context.Background(), &models.RawEmail{
		MessageID: id, Date: time.Now().UTC(), BodyText: "x",
	})
	if err != nil {
		t.Fatalf("seed email: %v", err)
	}
}

func seedTx(t *testing.T, db *database.DB, emailID string, amount float64, direction models.Direction, date time.Time) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		ID:             uuid.NewString(),
		EmailMessageID: emailID,
		Date:           date,
		Amount:         amount,
		Currency:       "INR",
		Direction:      direction,
		Type:           models.TypeUPI,
		Merchant:       "Merchant",
		Source:         models.SourceRegex,
	}
	if err := db.InsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("seed tx: %v", err)
	}
	return tx
}

func TestRun_ConfirmsAndRecordsDuplicate(t *testing.T) {
	db := openTestDB(t)
	runner := &verdictRunner{response: `{"isDuplicate": true, "confidence": 0.95}`}
	engine := New(db, llm.New(runner, testLogger()), 1, testLogger())
	ctx := context.Background()

	seedEmail(t, db, "e1")
	seedEmail(t, db, "e2")
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	t1 := seedTx(t, db, "e1", 500, models.DirectionDebit, day)
	t2 := seedTx(t, db, "e2", 500, models.DirectionDebit, day.Add(6*time.Hour))

	recorded, err := engine.Run(ctx, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if recorded != 1 {
		t.Fatalf("recorded = %d, want 1", recorded)
	}

	groups, err := db.ListDuplicateGroups(ctx)
	if err != nil || len(groups) != 1 {
		t.Fatalf("groups = %v, err = %v", groups, err)
	}
	// The smaller id is kept, the larger is the duplicate.
	kept, dup := t1.ID, t2.ID
	if kept > dup {
		kept, dup = dup, kept
	}
	if groups[0].KeptTransactionID != kept || groups[0].DuplicateTransactionID != dup {
		t.Errorf("group = %+v", groups[0])
	}

	got, _ := db.GetTransaction(ctx, dup)
	if !got.NeedsReview {
		t.Error("duplicate not flagged for review")
	}
}

func TestRun_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := &verdictRunner{response: `{"isDuplicate": true, "confidence": 0.9}`}
	engine := New(db, llm.New(runner, testLogger()), 1, testLogger())
	ctx := context.Background()

	seedEmail(t, db, "e1")
	seedEmail(t, db, "e2")
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	seedTx(t, db, "e1", 500, models.DirectionDebit, day)
	seedTx(t, db, "e2", 500, models.DirectionDebit, day)

	if _, err := engine.Run(ctx, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	recorded, err := engine.Run(ctx, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if recorded != 0 {
		t.Errorf("second run recorded %d", recorded)
	}

	groups, _ := db.ListDuplicateGroups(ctx)
	if len(groups) != 1 {
		t.Errorf("groups = %d, want 1", len(groups))
	}
}

func TestRun_RespectsDateTolerance(t *testing.T) {
	db := openTestDB(t)
	runner := &verdictRunner{response: `{"isDuplicate": true, "confidence": 0.9}`}
	engine := New(db, llm.New(runner, testLogger()), 1, testLogger())
	ctx := context.Background()

	seedEmail(t, db, "e1")
	seedEmail(t, db, "e2")
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	seedTx(t, db, "e1", 500, models.DirectionDebit, day)
	seedTx(t, db, "e2", 500, models.DirectionDebit, day.AddDate(0, 0, 5))

	recorded, err := engine.Run(ctx, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if recorded != 0 || runner.calls != 0 {
		t.Errorf("recorded = %d, model calls = %d; pair outside tolerance", recorded, runner.calls)
	}
}

func TestRun_SameEmailPairsExcluded(t *testing.T) {
	db := openTestDB(t)
	runner := &verdictRunner{response: `{"isDuplicate": true, "confidence": 0.9}`}
	engine := New(db, llm.New(runner, testLogger()), 1, testLogger())
	ctx := context.Background()

	seedEmail(t, db, "e1")
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	// Same email, same amount, different merchants: a legitimate
	// multi-transaction email, never a dedup candidate.
	seedTx(t, db, "e1", 500, models.DirectionDebit, day)
	b := &models.Transaction{
		ID: uuid.NewString(), EmailMessageID: "e1", Date: day, Amount: 500,
		Currency: "INR", Direction: models.DirectionDebit, Type: models.TypeUPI,
		Merchant: "OtherMerchant", Source: models.SourceRegex,
	}
	if err := db.InsertTransaction(ctx, b); err != nil {
		t.Fatalf("insert: %v", err)
	}

	recorded, err := engine.Run(ctx, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if recorded != 0 || runner.calls != 0 {
		t.Errorf("recorded = %d, calls = %d", recorded, runner.calls)
	}
}

func TestRun_ModelDenialRecordsNothing(t *testing.T) {
	db := openTestDB(t)
	runner := &verdictRunner{response: `{"isDuplicate": false, "confidence": 0.8}`}
	engine := New(db, llm.New(runner, testLogger()), 1, testLogger())
	ctx := context.Background()

	seedEmail(t, db, "e1")
	seedEmail(t, db, "e2")
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	seedTx(t, db, "e1", 500, models.DirectionDebit, day)
	seedTx(t, db, "e2", 500, models.DirectionDebit, day)

	recorded, err := engine.Run(ctx, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if recorded != 0 {
		t.Errorf("recorded = %d", recorded)
	}
	if runner.calls != 1 {
		t.Errorf("calls = %d, want 1", runner.calls)
	}
}

func TestRun_NewIDRestriction(t *testing.T) {
	db := openTestDB(t)
	runner := &verdictRunner{response: `{"isDuplicate": true, "confidence": 0.9}`}
	engine := New(db, llm.New(runner, testLogger()), 1, testLogger())
	ctx := context.Background()

	seedEmail(t, db, "e1")
	seedEmail(t, db, "e2")
	seedEmail(t, db, "e3")
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	seedTx(t, db, "e1", 500, models.DirectionDebit, day)
	seedTx(t, db, "e2", 500, models.DirectionDebit, day)
	newcomer := seedTx(t, db, "e3", 900, models.DirectionDebit, day)

	// Restricting to the newcomer's id skips the old e1/e2 pair.
	recorded, err := engine.Run(ctx, []string{newcomer.ID})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if recorded != 0 || runner.calls != 0 {
		t.Errorf("recorded = %d, calls = %d", recorded, runner.calls)
	}
}
