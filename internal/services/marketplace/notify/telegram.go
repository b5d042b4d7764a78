package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/louisbranch/scrapkart/internal/platform/timeouts"
)

// TelegramConfig configures the Telegram sale notifier.
type TelegramConfig struct {
	Token  string `env:"SCRAPKART_TELEGRAM_BOT_TOKEN"`
	ChatID int64  `env:"SCRAPKART_TELEGRAM_CHAT_ID"`
	// Endpoint overrides the Bot API URL template; it must contain two %s verbs.
	Endpoint string `env:"SCRAPKART_TELEGRAM_ENDPOINT"`
}

// Enabled reports whether enough configuration is present to send messages.
func (c TelegramConfig) Enabled() bool {
	return strings.TrimSpace(c.Token) != "" && c.ChatID != 0
}

// Telegram posts sale notifications to one chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram authenticates the bot token and returns a notifier. A nil
// client gets a client bounded by timeouts.Notification.
func NewTelegram(cfg TelegramConfig, client *http.Client) (*Telegram, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: timeouts.Notification}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: cfg.ChatID}, nil
}

// ListingSold sends the sale message to the configured chat.
func (t *Telegram) ListingSold(ctx context.Context, sale Sale) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, Message(sale))
	msg.DisableWebPagePreview = true
	// Send does not take a context; the caller's deadline still bounds the wait.
	sent := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		sent <- err
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("send telegram message: %w", ctx.Err())
	case err := <-sent:
		if err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
		return nil
	}
}
