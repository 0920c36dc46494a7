package workers

import (
	"chat-relay/domain"
	"chat-relay/observability"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestChannelCapacityWorker_Sample(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitoring := observability.NewMonitoringManager(log)
	inbound := make(chan domain.InboundMessage, 4)
	inbound <- domain.InboundMessage{Text: "/start"}
	inbound <- domain.InboundMessage{Text: "/help"}
	worker := NewChannelCapacityWorker(log, []NamedChannel{
		{Name: "inbound", Channel: inbound},
		{Name: "not-a-channel", Channel: 42},
	}, monitoring, time.Minute)

	worker.Sample()

	queues := monitoring.GetLatest(0).Queues
	req.Equal(observability.QueueStats{Length: 2, Capacity: 4}, queues["inbound"])
	req.NotContains(queues, "not-a-channel")
}

func TestChannelCapacityWorker_Run_StopsOnCancel(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitoring := observability.NewMonitoringManager(log)
	inbound := make(chan domain.InboundMessage, 1)
	worker := NewChannelCapacityWorker(log, []NamedChannel{{Name: "inbound", Channel: inbound}}, monitoring, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()
	req.Eventually(func() bool {
		_, ok := monitoring.GetLatest(0).Queues["inbound"]
		return ok
	}, time.Second, 5*time.Millisecond)
	cancel()

	req.ErrorIs(<-done, context.Canceled)
}
