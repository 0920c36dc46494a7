package observability

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitoringManager_NilIsNoop(t *testing.T) {
	var mm *MonitoringManager

	require.NotPanics(t, func() {
		mm.IncrEnvelopesSent(3)
		mm.IncrFramesDropped()
		mm.IncrEvictions()
		mm.IncrCommandsHandled()
		mm.IncrGatewayErrors()
		mm.IncrPlatformErrors()
		mm.IncrJournalReplayed()
		mm.IncrJournalDropped()
	})
}

func TestMonitoringManager_Handler(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given some activity
	mm.IncrEnvelopesSent(2)
	mm.IncrEnvelopesSent(3)
	mm.IncrEvictions()
	mm.IncrGatewayErrors()
	mm.IncrJournalDropped()

	// When /healthz is requested
	rec := httptest.NewRecorder()
	mm.Handler(func() int { return 7 })(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	// Then counters are reported
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("application/json", rec.Header().Get("Content-Type"))
	var stats MonitoringStats
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
	req.Equal("ok", stats.Status)
	req.Equal(7, stats.Connections)
	req.Equal(uint64(5), stats.EnvelopesSent)
	req.Equal(uint64(1), stats.Evictions)
	req.Equal(uint64(1), stats.GatewayErrors)
	req.Equal(uint64(1), stats.JournalDropped)
	req.Positive(stats.NumGoroutine)
}

func TestMonitoringManager_QueueDepth(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug))

	req.Nil(mm.GetLatest(0).Queues)

	mm.SetQueueDepth("inbound", 3, 64)
	mm.SetQueueDepth("inbound", 5, 64)

	req.Equal(map[string]QueueStats{"inbound": {Length: 5, Capacity: 64}}, mm.GetLatest(0).Queues)
}
