// Package notify delivers post-sync alerts to an external channel. Only
// Telegram is implemented; delivery failures are logged, never fatal.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// TelegramNotifier sends alert summaries to a configured chat.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	logger *slog.Logger
}

// NewTelegramNotifier creates a notifier, or nil when token/chat are not
// configured — a nil notifier is a safe no-op.
func NewTelegramNotifier(token string, chatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:    b,
		chatID: chatID,
		logger: logger.With("component", "notify"),
	}, nil
}

// SendAlerts delivers the alerts as one message.
func (n *TelegramNotifier) SendAlerts(ctx context.Context, alerts []models.Alert) {
	if n == nil || len(alerts) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("Expense tracker alerts:\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "• [%s] %s\n", a.Type, a.Message)
	}

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   b.String(),
	})
	if err != nil {
		n.logger.Warn("failed to deliver alerts", "error", err)
	}
}
