package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"time"
)

var _ contract.IMessageHandler = (*CommandService)(nil)

const (
	errBackendRequest  = "Backend request failed"
	errTelegramBot     = "Telegram bot error"
	errMessageHandling = "Message processing error"
	maxListedProducts  = 5
)

type commandHandler func(ctx context.Context, inv domain.CommandInvocation) string

// CommandService observes every inbound chat message and answers slash commands.
//
// Observe and Process are split so the caller can broadcast messages in arrival
// order while commands are answered concurrently by the dispatch pool.
type CommandService struct {
	log         *slog.Logger
	broadcaster contract.IBroadcaster
	gateway     contract.IGateway
	chat        contract.IChatClient
	journal     contract.IJournal
	monitoring  *observability.MonitoringManager
	handlers    map[domain.Verb]commandHandler
	now         func() time.Time
}

// NewCommandService builds the service. journal and monitoring may be nil.
func NewCommandService(
	log *slog.Logger,
	broadcaster contract.IBroadcaster,
	gateway contract.IGateway,
	chat contract.IChatClient,
	journal contract.IJournal,
	monitoring *observability.MonitoringManager,
) *CommandService {
	s := &CommandService{
		log:         log,
		broadcaster: broadcaster,
		gateway:     gateway,
		chat:        chat,
		journal:     journal,
		monitoring:  monitoring,
		now:         time.Now,
	}
	s.handlers = s.commandTable()
	return s
}

func (s *CommandService) commandTable() map[domain.Verb]commandHandler {
	return map[domain.Verb]commandHandler{
		domain.VerbStart:    s.start,
		domain.VerbStatus:   s.status,
		domain.VerbHelp:     s.help,
		domain.VerbReport:   s.report,
		domain.VerbProducts: s.products,
		domain.VerbProduct:  s.product,
	}
}

// Handle runs the whole pipeline for one message.
func (s *CommandService) Handle(ctx context.Context, msg domain.InboundMessage) {
	s.Observe(msg)
	s.Process(ctx, msg)
}

// Observe shows the raw message to the dashboard viewers, commands included.
func (s *CommandService) Observe(msg domain.InboundMessage) {
	s.broadcaster.Broadcast(domain.NewMessageEnvelope(msg.Sender, msg.Text, s.now()))
}

// Process answers a command and records it. Plain text is ignored.
// The record is written after the reply and never rolls it back.
func (s *CommandService) Process(ctx context.Context, msg domain.InboundMessage) {
	if !msg.IsCommand() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Command handling panicked", "chat_id", msg.ChatID, "panic", r)
			s.broadcaster.Broadcast(domain.NewErrorEnvelope(errMessageHandling, fmt.Errorf("%v", r)))
		}
	}()

	if inv, handler, ok := s.lookup(msg); ok {
		s.log.Debug("Command received", "verb", inv.Verb, "args", inv.Args, "sender", inv.Sender)
		s.reply(ctx, msg.ChatID, handler(ctx, inv))
		s.monitoring.IncrCommandsHandled()
	} else {
		s.log.Debug("Unrecognized command ignored", "text", msg.Text, "sender", msg.Sender)
	}

	s.persist(ctx, msg)
}

func (s *CommandService) lookup(msg domain.InboundMessage) (domain.CommandInvocation, commandHandler, bool) {
	verb, args, ok := domain.ParseCommand(msg.Text)
	if !ok {
		return domain.CommandInvocation{}, nil, false
	}
	if canonical, isAlias := domain.VerbAliases[verb]; isAlias {
		verb = canonical
	}
	handler, found := s.handlers[verb]
	if !found {
		return domain.CommandInvocation{}, nil, false
	}
	return domain.CommandInvocation{
		Verb:   verb,
		Args:   args,
		ChatID: msg.ChatID,
		Sender: msg.Sender,
	}, handler, true
}

func (s *CommandService) reply(ctx context.Context, chatID int64, text string) {
	if err := s.chat.Send(ctx, chatID, text); err != nil {
		s.log.Error("Failed to send reply", "chat_id", chatID, "error", err)
		s.monitoring.IncrPlatformErrors()
		s.broadcaster.Broadcast(domain.NewErrorEnvelope(errTelegramBot, err))
	}
}

// persist stores the command text in the backend. A record that failed for a
// retryable reason goes to the local journal when one is configured. A record
// the backend rejected is only logged.
func (s *CommandService) persist(ctx context.Context, msg domain.InboundMessage) {
	record := domain.BotMessage{Name: msg.Sender, Message: msg.Text, Platform: domain.PlatformTelegram}
	err := s.gateway.InsertMessage(ctx, record)
	if err == nil {
		return
	}
	if errors.IsRejected(err) {
		s.log.Error("Backend rejected bot message", "sender", msg.Sender, "error", err)
		return
	}
	s.log.Warn("Failed to save bot message", "sender", msg.Sender, "error", err)
	if s.journal == nil {
		return
	}
	if err := s.journal.Append(record); err != nil {
		s.log.Error("Failed to journal bot message", "sender", msg.Sender, "error", err)
	}
}

// gatewayFailed surfaces a backend failure to the dashboard viewers.
func (s *CommandService) gatewayFailed(operation string, err error) {
	s.log.Error("Backend request failed", "operation", operation, "error", err)
	s.monitoring.IncrGatewayErrors()
	s.broadcaster.Broadcast(domain.NewErrorEnvelope(errBackendRequest, err))
}
