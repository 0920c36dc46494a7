// Package telegram talks to the Telegram Bot API: replies go out through
// Client and inbound messages come in through Poller.
package telegram

import (
	"chat-relay/contract"
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var _ contract.IChatClient = (*Client)(nil)

// NewBot authenticates the token against the Bot API.
// An empty endpoint selects the public Telegram API.
func NewBot(token, endpoint string) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram authentication failed: %w", err)
	}
	return bot, nil
}

type Client struct {
	log *slog.Logger
	bot *tgbotapi.BotAPI
}

func NewClient(log *slog.Logger, bot *tgbotapi.BotAPI) *Client {
	return &Client{log: log, bot: bot}
}

// Send posts a plain text message to a chat.
// The Bot API library has no context support, so ctx is only checked upfront.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("sendMessage to chat %d: %w", chatID, err)
	}
	c.log.Debug("Reply sent", "chat_id", chatID, "length", len(text))
	return nil
}
