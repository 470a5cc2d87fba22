package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

func TestNewTelegramNotifier_UnconfiguredIsNil(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	n, err := NewTelegramNotifier("", 0, logger)
	if err != nil || n != nil {
		t.Fatalf("notifier = %v, err = %v", n, err)
	}

	n, err = NewTelegramNotifier("token-only", 0, logger)
	if err != nil || n != nil {
		t.Fatalf("notifier = %v, err = %v", n, err)
	}

	// A nil notifier is safe to use.
	n.SendAlerts(context.Background(), []models.Alert{{Type: models.AlertSpendingSpike, Message: "x"}})
}
