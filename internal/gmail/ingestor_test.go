package gmail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/internal/retry"
)

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

// fakeMailAPI serves canned messages, with optional rate-limit failures and
// pagination.
type fakeMailAPI struct {
	mu          sync.Mutex
	messages    map[string]string // id -> raw RFC822
	pageSize    int
	failures    int // rate-limit failures to inject before succeeding
	listCalls   int
	fetchCalls  int
	lastQueries []string
}

func rawMessage(id string) string {
	return fmt.Sprintf("From: alerts@hdfcbank.net\r\n"+
		"Subject: alert %s\r\n"+
		"Date: Wed, 15 Jan 2025 10:00:00 +0000\r\n"+
		"Content-Type: text/plain\r\n\r\n"+
		"Rs. 100 debited (%s)\r\n", id, id)
}

func newFakeMailAPI(ids ...string) *fakeMailAPI {
	messages := make(map[string]string, len(ids))
	for _, id := range ids {
		messages[id] = rawMessage(id)
	}
	return &fakeMailAPI{messages: messages, pageSize: 2}
}

func (f *fakeMailAPI) orderedIDs() []string {
	var ids []string
	for id := range f.messages {
		ids = append(ids, id)
	}
	// Deterministic order for pagination.
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	return ids
}

func (f *fakeMailAPI) ListMessageIDs(ctx context.Context, query, pageToken string) ([]string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastQueries = append(f.lastQueries, query)

	if f.failures > 0 {
		f.failures--
		return nil, "", &googleapi.Error{Code: http.StatusTooManyRequests}
	}

	ids := f.orderedIDs()
	start := 0
	if pageToken != "" {
		fmt.Sscanf(pageToken, "page-%d", &start)
	}
	end := start + f.pageSize
	if end >= len(ids) {
		return ids[start:], "", nil
	}
	return ids[start:end], fmt.Sprintf("page-%d", end), nil
}

func (f *fakeMailAPI) GetRawMessage(ctx context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	raw, ok := f.messages[id]
	if !ok {
		return nil, fmt.Errorf("no such message %s", id)
	}
	return []byte(raw), nil
}

func fastRetry() retry.Options {
	return retry.Options{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		IsRetryable:  retry.IsRateLimit,
	}
}

func newTestIngestor(api MailAPI, db *database.DB) *Ingestor {
	return NewIngestor(api, db, IngestorConfig{
		Senders:         []string{"alerts@hdfcbank.net"},
		SubjectKeywords: []string{"alert"},
		FetchBatchSize:  2,
		LookbackMonths:  3,
		Retry:           fastRetry(),
	}, testLogger())
}

func TestSync_StoresAllMessages(t *testing.T) {
	db := openTestDB(t)
	api := newFakeMailAPI("m1", "m2", "m3", "m4", "m5")
	in := newTestIngestor(api, db)

	result, err := in.Sync(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.MessagesFound != 5 || result.NewEmailsStored != 5 {
		t.Errorf("result = %+v", result)
	}
	if len(result.NewMessageIDs) != 5 {
		t.Errorf("new ids = %v", result.NewMessageIDs)
	}
	// Paged twice with size 2 plus the final page.
	if api.listCalls != 3 {
		t.Errorf("list calls = %d", api.listCalls)
	}

	total, err := db.TotalSyncedCount(context.Background())
	if err != nil || total != 5 {
		t.Errorf("total synced = %d, err = %v", total, err)
	}
	last, err := db.GetSyncValue(context.Background(), database.SyncKeyLastMessageID)
	if err != nil || last != "m1" {
		t.Errorf("last message id = %q, err = %v", last, err)
	}
}

func TestSync_Idempotent(t *testing.T) {
	db := openTestDB(t)
	api := newFakeMailAPI("m1", "m2")
	in := newTestIngestor(api, db)
	ctx := context.Background()

	first, err := in.Sync(ctx, time.Time{})
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if first.NewEmailsStored != 2 {
		t.Fatalf("first = %+v", first)
	}

	second, err := in.Sync(ctx, time.Time{})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.NewEmailsStored != 0 || len(second.NewMessageIDs) != 0 {
		t.Errorf("second = %+v", second)
	}

	// The monotonic total reflects unique emails only.
	total, _ := db.TotalSyncedCount(ctx)
	if total != 2 {
		t.Errorf("total = %d", total)
	}
}

func TestSync_RetriesRateLimit(t *testing.T) {
	db := openTestDB(t)
	api := newFakeMailAPI("m1")
	api.failures = 2
	in := newTestIngestor(api, db)

	result, err := in.Sync(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.NewEmailsStored != 1 {
		t.Errorf("result = %+v", result)
	}
	if api.listCalls < 3 {
		t.Errorf("list calls = %d, want retries", api.listCalls)
	}
}

func TestSync_SincePrecedence(t *testing.T) {
	db := openTestDB(t)
	api := newFakeMailAPI("m1")
	in := newTestIngestor(api, db)
	ctx := context.Background()

	// Stored cursor present, but the explicit override wins.
	stored := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := db.SetLastSyncTimestamp(ctx, stored); err != nil {
		t.Fatalf("set: %v", err)
	}
	override := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)

	if _, err := in.Sync(ctx, override); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(api.lastQueries) == 0 || !strings.Contains(api.lastQueries[0], "after:2024/12/25") {
		t.Errorf("queries = %v", api.lastQueries)
	}

	// Without an override the stored cursor is used.
	api.lastQueries = nil
	if _, err := in.Sync(ctx, time.Time{}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	found := false
	for _, q := range api.lastQueries {
		if strings.Contains(q, "after:") {
			found = true
		}
	}
	if !found {
		t.Errorf("queries = %v", api.lastQueries)
	}
}

func TestSync_AdvancesTimestamp(t *testing.T) {
	db := openTestDB(t)
	in := newTestIngestor(newFakeMailAPI(), db)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	if _, err := in.Sync(ctx, time.Time{}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	ts, err := db.LastSyncTimestamp(ctx)
	if err != nil {
		t.Fatalf("ts: %v", err)
	}
	if ts.Before(before) {
		t.Errorf("timestamp %v not advanced", ts)
	}
}
