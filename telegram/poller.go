package telegram

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var _ contract.Worker = (*Poller)(nil)

const (
	DefaultBackoff = 3 * time.Second
	unknownSender  = "Unknown"
)

// UpdateSource is the long polling half of *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Poller long-polls the Bot API and hands every text message to onMessage
// in arrival order. Failed polls are reported to onError and retried after
// a backoff. The offset only moves forward so an update is never delivered twice.
type Poller struct {
	log       *slog.Logger
	source    UpdateSource
	timeout   int
	backoff   time.Duration
	offset    int
	onMessage func(domain.InboundMessage)
	onError   func(error)
}

func NewPoller(
	log *slog.Logger,
	source UpdateSource,
	timeoutSeconds int,
	backoff time.Duration,
	onMessage func(domain.InboundMessage),
	onError func(error)) *Poller {
	return &Poller{
		log:       log,
		source:    source,
		timeout:   timeoutSeconds,
		backoff:   backoff,
		onMessage: onMessage,
		onError:   onError,
	}
}

type pollResult struct {
	updates []tgbotapi.Update
	err     error
}

func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("Telegram polling started", "offset", p.offset, "timeout_seconds", p.timeout)
	for {
		if err := ctx.Err(); err != nil {
			p.log.Debug("Stopping telegram poller")
			return err
		}

		updates, err := p.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn("Telegram polling failed", "error", err, "retry_in", p.backoff)
			p.onError(err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff):
			}
			continue
		}

		for _, update := range updates {
			p.deliver(update)
		}
	}
}

// poll runs one getUpdates call. The call itself cannot be cancelled, so an
// abandoned request finishes in the background and its result is dropped.
func (p *Poller) poll(ctx context.Context) ([]tgbotapi.Update, error) {
	config := tgbotapi.NewUpdate(p.offset)
	config.Timeout = p.timeout

	done := make(chan pollResult, 1)
	go func() {
		updates, err := p.source.GetUpdates(config)
		done <- pollResult{updates: updates, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.updates, res.err
	}
}

func (p *Poller) deliver(update tgbotapi.Update) {
	if update.UpdateID >= p.offset {
		p.offset = update.UpdateID + 1
	}
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.Chat == nil {
		return
	}
	p.onMessage(domain.InboundMessage{
		ChatID:     msg.Chat.ID,
		Sender:     senderName(msg.From),
		Text:       msg.Text,
		ReceivedAt: msg.Time(),
	})
}

func senderName(user *tgbotapi.User) string {
	switch {
	case user == nil:
		return unknownSender
	case user.UserName != "":
		return user.UserName
	case user.FirstName != "":
		return user.FirstName
	default:
		return unknownSender
	}
}
