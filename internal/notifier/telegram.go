package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gopkg.in/telebot.v4"
)

// TelegramSender mirrors the mail notification into a Telegram chat. Only
// the plain-text body is sent.
type TelegramSender struct {
	log    *slog.Logger
	bot    *telebot.Bot
	chatID int64
}

// NewTelegramSender creates a Telegram sender for the given chat.
func NewTelegramSender(log *slog.Logger, token string, chatID int64, timeout time.Duration) (*TelegramSender, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on acount", "account", bot.Me.Username)

	return &TelegramSender{log: log, bot: bot, chatID: chatID}, nil
}

// Send posts the message text to the configured chat. Connection-level
// failures are marked transient so the notifier retries them.
func (t *TelegramSender) Send(_ context.Context, msg *Message) error {
	_, err := t.bot.Send(telebot.ChatID(t.chatID), msg.Subject+"\n\n"+msg.Text)
	if err != nil {
		return classifySendErr(fmt.Errorf("failed to send telegram message: %w", err))
	}

	t.log.Info("Telegram notification sent", "chat_id", t.chatID, "subject", msg.Subject)

	return nil
}
