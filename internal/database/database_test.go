package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertTestEmail(t *testing.T, db *DB, messageID string) {
	t.Helper()
	err := db.InsertRawEmail(context.Background(), &models.RawEmail{
		MessageID: messageID,
		From:      "alerts@hdfcbank.net",
		Subject:   "transaction alert",
		Date:      time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		BodyText:  "Rs. 500 debited",
	})
	if err != nil {
		t.Fatalf("insert email %s: %v", messageID, err)
	}
}

func testTransaction(emailID string, amount float64, merchant string, date time.Time) *models.Transaction {
	return &models.Transaction{
		ID:             uuid.NewString(),
		EmailMessageID: emailID,
		Date:           date,
		Amount:         amount,
		Currency:       "INR",
		Direction:      models.DirectionDebit,
		Type:           models.TypeUPI,
		Merchant:       merchant,
		Bank:           "HDFC Bank",
		Source:         models.SourceRegex,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var applied int
	if err := db.Get(&applied, `SELECT COUNT(*) FROM migrations`); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != len(migrations) {
		t.Errorf("applied = %d, want %d", applied, len(migrations))
	}
}

func TestInsertRawEmails_IgnoresDuplicates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	emails := []*models.RawEmail{
		{MessageID: "m1", Date: time.Now().UTC(), BodyText: "a"},
		{MessageID: "m2", Date: time.Now().UTC(), BodyText: "b"},
	}
	inserted, err := db.InsertRawEmails(ctx, emails)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(inserted) != 2 {
		t.Fatalf("inserted = %v", inserted)
	}

	// Re-ingesting the same mailbox stores nothing new.
	inserted, err = db.InsertRawEmails(ctx, emails)
	if err != nil {
		t.Fatalf("re-insert: %v", err)
	}
	if len(inserted) != 0 {
		t.Errorf("re-insert stored %v", inserted)
	}
}

func TestInsertTransaction_CompositeKey(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertTestEmail(t, db, "e1")

	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	first := testTransaction("e1", 500, "Amazon", date)
	if err := db.InsertTransaction(ctx, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	// Same four key fields, different everything else.
	second := testTransaction("e1", 500, "Amazon", date)
	second.Bank = "ICICI Bank"
	second.Reference = "REF999"
	err := db.InsertTransaction(ctx, second)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}

	count, err := db.CountTransactions(ctx, TransactionFilter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestInsertTransactions_MultiFromOneEmail(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertTestEmail(t, db, "e1")

	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	batch := []*models.Transaction{
		testTransaction("e1", 100, "Swiggy", date),
		testTransaction("e1", 200, "Zomato", date),
		testTransaction("e1", 300, "Uber", date),
	}
	n, err := db.InsertTransactions(ctx, batch)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 3 {
		t.Errorf("inserted = %d, want 3", n)
	}

	txns, err := db.ListTransactions(ctx, TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, tx := range txns {
		if tx.EmailMessageID != "e1" {
			t.Errorf("transaction %s has email %s", tx.ID, tx.EmailMessageID)
		}
	}
}

func TestInsertTransaction_RejectsInvalid(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertTestEmail(t, db, "e1")

	bad := testTransaction("e1", 0, "X", time.Now().UTC())
	if err := db.InsertTransaction(ctx, bad); err == nil {
		t.Error("expected error for zero amount")
	}

	bad = testTransaction("e1", 10, "X", time.Now().UTC())
	bad.Direction = "sideways"
	if err := db.InsertTransaction(ctx, bad); err == nil {
		t.Error("expected error for invalid direction")
	}
}

func TestInsertTransaction_ForeignKeyEnforced(t *testing.T) {
	db := openTestDB(t)
	tx := testTransaction("missing-email", 10, "X", time.Now().UTC())
	if err := db.InsertTransaction(context.Background(), tx); err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestUpdateTransaction_TouchesUpdatedAt(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertTestEmail(t, db, "e1")

	tx := testTransaction("e1", 50, "Cafe", time.Now().UTC())
	if err := db.InsertTransaction(ctx, tx); err != nil {
		t.Fatalf("insert: %v", err)
	}
	before, _ := db.GetTransaction(ctx, tx.ID)

	time.Sleep(10 * time.Millisecond)
	if err := db.UpdateTransactionCategory(ctx, tx.ID, "Food"); err != nil {
		t.Fatalf("update: %v", err)
	}

	after, err := db.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.Category != "Food" {
		t.Errorf("category = %q", after.Category)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("updated_at not refreshed: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestUpdateTransaction_NotFound(t *testing.T) {
	db := openTestDB(t)
	err := db.UpdateTransactionMerchant(context.Background(), "nope", "X")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListTransactions_FiltersAndOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertTestEmail(t, db, "e1")
	insertTestEmail(t, db, "e2")

	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	older := testTransaction("e1", 100, "A", jan)
	newer := testTransaction("e2", 200, "B", feb)
	newer.Type = models.TypeCreditCard
	newer.Category = "Food"
	for _, tx := range []*models.Transaction{older, newer} {
		if err := db.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := db.ListTransactions(ctx, TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || !all[0].Date.After(all[1].Date) {
		t.Errorf("expected newest first, got %v", all)
	}

	food, err := db.ListTransactions(ctx, TransactionFilter{Category: "Food"})
	if err != nil {
		t.Fatalf("list food: %v", err)
	}
	if len(food) != 1 || food[0].Merchant != "B" {
		t.Errorf("food = %v", food)
	}

	ranged, err := db.ListTransactions(ctx, TransactionFilter{From: feb.AddDate(0, 0, -1)})
	if err != nil {
		t.Fatalf("list ranged: %v", err)
	}
	if len(ranged) != 1 {
		t.Errorf("ranged = %d rows", len(ranged))
	}
}

func TestReviewQueue(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertTestEmail(t, db, "e1")

	conf := 0.5
	flagged := testTransaction("e1", 75, "Unknown", time.Now().UTC())
	flagged.Source = models.SourceAI
	flagged.Confidence = &conf
	flagged.NeedsReview = true
	clean := testTransaction("e1", 80, "Known", time.Now().UTC())

	for _, tx := range []*models.Transaction{flagged, clean} {
		if err := db.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	queue, err := db.ReviewQueue(ctx, "")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != flagged.ID {
		t.Fatalf("queue = %v", queue)
	}

	count, err := db.ReviewQueueCount(ctx)
	if err != nil || count != 1 {
		t.Fatalf("count = %d, err = %v", count, err)
	}

	bySource, err := db.ReviewQueue(ctx, models.SourceRegex)
	if err != nil {
		t.Fatalf("queue by source: %v", err)
	}
	if len(bySource) != 0 {
		t.Errorf("regex queue = %v", bySource)
	}
}

func TestCorrections(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := db.InsertCategoryCorrection(ctx, "Amazon", "Shopping", "Bills", ""); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := db.InsertCategoryCorrection(ctx, "Swiggy", "Other", "Food", "dinner"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	byMerchant, err := db.CorrectionsByMerchant(ctx, "Amazon", 10)
	if err != nil {
		t.Fatalf("by merchant: %v", err)
	}
	if len(byMerchant) != 3 {
		t.Errorf("byMerchant = %d", len(byMerchant))
	}

	recent, err := db.RecentCorrections(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d", len(recent))
	}
	if recent[0].Merchant != "Swiggy" {
		t.Errorf("most recent = %q, want Swiggy", recent[0].Merchant)
	}
}

func TestMarkAsDuplicate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertTestEmail(t, db, "e1")
	insertTestEmail(t, db, "e2")

	kept := testTransaction("e1", 100, "A", time.Now().UTC())
	dup := testTransaction("e2", 100, "A", time.Now().UTC())
	for _, tx := range []*models.Transaction{kept, dup} {
		if err := db.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	conf := 0.9
	if err := db.MarkAsDuplicate(ctx, dup.ID, kept.ID, "same payment", &conf); err != nil {
		t.Fatalf("mark: %v", err)
	}

	// Re-marking is a no-op, not an error.
	if err := db.MarkAsDuplicate(ctx, dup.ID, kept.ID, "again", nil); err != nil {
		t.Fatalf("re-mark: %v", err)
	}

	groups, err := db.ListDuplicateGroups(ctx)
	if err != nil {
		t.Fatalf("list groups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if groups[0].KeptTransactionID != kept.ID || groups[0].DuplicateTransactionID != dup.ID {
		t.Errorf("group = %+v", groups[0])
	}

	// The duplicate side is flagged for review.
	got, _ := db.GetTransaction(ctx, dup.ID)
	if !got.NeedsReview {
		t.Error("duplicate not flagged for review")
	}

	isDup, err := db.IsDuplicate(ctx, dup.ID)
	if err != nil || !isDup {
		t.Errorf("IsDuplicate = %v, %v", isDup, err)
	}
}

func TestSyncState(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	ts, err := db.LastSyncTimestamp(ctx)
	if err != nil || !ts.IsZero() {
		t.Fatalf("initial ts = %v, err = %v", ts, err)
	}

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := db.SetLastSyncTimestamp(ctx, now); err != nil {
		t.Fatalf("set: %v", err)
	}
	ts, err = db.LastSyncTimestamp(ctx)
	if err != nil || !ts.Equal(now) {
		t.Errorf("ts = %v, err = %v", ts, err)
	}

	if err := db.IncrementSyncedCount(ctx, 5); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := db.IncrementSyncedCount(ctx, 3); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := db.IncrementSyncedCount(ctx, -2); err != nil {
		t.Fatalf("increment negative: %v", err)
	}
	total, err := db.TotalSyncedCount(ctx)
	if err != nil || total != 8 {
		t.Errorf("total = %d, err = %v", total, err)
	}
}

func TestEvalFlags(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertTestEmail(t, db, "e1")

	tx := testTransaction("e1", 10, "X", time.Now().UTC())
	if err := db.InsertTransaction(ctx, tx); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := db.InsertEvalFlag(ctx, tx.ID, models.VerdictCorrect, "looks right"); err != nil {
		t.Fatalf("flag: %v", err)
	}
	if err := db.InsertEvalFlag(ctx, tx.ID, "maybe", ""); err == nil {
		t.Error("expected error for invalid verdict")
	}

	flags, err := db.ListEvalFlags(ctx)
	if err != nil || len(flags) != 1 {
		t.Fatalf("flags = %v, err = %v", flags, err)
	}
	if flags[0].Verdict != models.VerdictCorrect || flags[0].Notes != "looks right" {
		t.Errorf("flag = %+v", flags[0])
	}
}

func TestQueryRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertTestEmail(t, db, "e1")
	if err := db.InsertTransaction(ctx, testTransaction("e1", 250, "Store", time.Now().UTC())); err != nil {
		t.Fatalf("insert: %v", err)
	}

	result, err := db.QueryRows(ctx, `SELECT merchant, amount FROM transactions`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d", len(result.Rows))
	}
	if result.Rows[0]["merchant"] != "Store" {
		t.Errorf("merchant = %v", result.Rows[0]["merchant"])
	}
}
