package notify

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fitness-checkout/internal/domain/ports/adapter"
)

var _ adapter.OpsNotifier = (*TelegramNotifier)(nil)

// TelegramNotifier pushes checkout failures to the ops channel. This is the
// channel behind the storefront's "our team has been notified" message.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram token empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Alert(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}

// NoopNotifier drops alerts; used when no ops channel is configured.
type NoopNotifier struct{}

func (NoopNotifier) Alert(ctx context.Context, text string) error { return nil }
