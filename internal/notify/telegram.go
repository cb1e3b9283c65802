// Package notify delivers sync summaries to Telegram. The integration is
// optional and enabled only when a bot token and chat are configured.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/mikhno/subtrack/pkg/models"
)

// Telegram sends sync reports to a configured chat.
type Telegram struct {
	bot    *bot.Bot
	chatID int64
	logger *slog.Logger
}

// NewTelegram creates a new Telegram notifier
func NewTelegram(token string, chatID int64, logger *slog.Logger) (*Telegram, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
		logger: logger.With("component", "telegram_notifier"),
	}, nil
}

// SyncCompleted sends a summary of the sync run. Delivery failures are
// logged and swallowed; notifications never fail a sync.
func (t *Telegram) SyncCompleted(ctx context.Context, userID string, report *models.SyncReport) {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      formatReport(userID, report),
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		t.logger.Warn("failed to send sync notification", "error", err)
	}
}

func formatReport(userID string, report *models.SyncReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>%s</b> (user %s)\n", escapeHTML(report.Message), escapeHTML(userID)))

	for _, r := range report.Results {
		sb.WriteString(fmt.Sprintf("\n<b>%s:</b> found %d, added %d", r.Provider, r.Found, r.Added))
		for _, e := range r.Errors {
			sb.WriteString("\n  ⚠ " + escapeHTML(e))
		}
	}
	if len(report.Results) == 0 {
		sb.WriteString("\nNo active accounts to scan.")
	}

	return sb.String()
}

// escapeHTML escapes HTML special characters for Telegram
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
