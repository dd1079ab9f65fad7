package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botSender is the part of *tgbotapi.BotAPI the notifier uses.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts announcements to an administrators' chat.
type Telegram struct {
	bot    botSender
	chatID int64
}

// NewTelegram authorizes the bot token and returns a notifier for chatID.
// Every Bot API request, the authorization included, is capped at timeout.
func NewTelegram(token string, chatID int64, timeout time.Duration, logger *slog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	bot.Debug = false
	if logger != nil {
		logger.Info("telegram notifier authorized", "account", bot.Self.UserName, "chat_id", chatID)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// NewTelegramWithSender wires an already constructed bot.
func NewTelegramWithSender(bot botSender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

// Notify sends the announcement. The Bot API client takes no context, so the
// send runs aside and Notify returns as soon as ctx is done; the abandoned
// request is still bounded by the HTTP client timeout.
func (t *Telegram) Notify(ctx context.Context, protocol, category string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatMessage(protocol, category))

	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send telegram message: %w", ctx.Err())
	}
}
