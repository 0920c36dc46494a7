package workers

import (
	"chat-relay/contract"
	"chat-relay/observability"
	"context"
	"log/slog"
	"reflect"
	"time"
)

var _ contract.Worker = (*ChannelCapacityWorker)(nil)

// highWatermarkPercent is the fill ratio above which a queue is reported as nearly full.
const highWatermarkPercent = 80

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the length and capacity of buffered channels.
// Reading len(channel) and cap(channel) is non-blocking, so this won't interfere
// with the producers and consumers of the channel.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	monitoring     *observability.MonitoringManager
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger,
	channels []NamedChannel, monitoring *observability.MonitoringManager,
	metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		channels:       channels,
		monitoring:     monitoring,
		metricInterval: metricInterval,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping channel capacity sampling")
			return ctx.Err()
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample records one measurement per channel.
func (w *ChannelCapacityWorker) Sample() {
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		capacity := v.Cap()
		length := v.Len()
		w.monitoring.SetQueueDepth(nc.Name, length, capacity)
		if capacity > 0 && length*100 >= capacity*highWatermarkPercent {
			w.log.Warn("Queue nearly full", "name", nc.Name, "length", length, "capacity", capacity)
		}
	}
}
