//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type IRegistry interface {
	Register(t domain.Transport) *domain.Connection
	Unregister(c *domain.Connection)
	All() []*domain.Connection
	Len() int
}

type IBroadcaster interface {
	Broadcast(env domain.Envelope)
}

// IGateway is the storefront backend as seen by the relay.
// GetProduct returns nil without error when the product does not exist.
type IGateway interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	InsertMessage(ctx context.Context, msg domain.BotMessage) error
	CountMessagesSince(ctx context.Context, since time.Time) (int, error)
	CountCommentsSince(ctx context.Context, since time.Time) (int, error)
	CountProductsWithStockBelow(ctx context.Context, threshold int) (int, error)
}

type IChatClient interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type IJournal interface {
	Append(msg domain.BotMessage) error
	Pending(limit int) ([]domain.JournalEntry, error)
	Delete(key string) error
}

type IMessageHandler interface {
	Observe(msg domain.InboundMessage)
	Process(ctx context.Context, msg domain.InboundMessage)
}
