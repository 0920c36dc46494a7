package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// MonitoringStats is the JSON document served on /healthz.
type MonitoringStats struct {
	Status            string  `json:"status"`
	Connections       int     `json:"connections"`
	EnvelopesSent     uint64  `json:"envelopes_sent"`
	FramesDropped     uint64  `json:"frames_dropped"`
	Evictions         uint64  `json:"evictions"`
	CommandsHandled   uint64  `json:"commands_handled"`
	GatewayErrors     uint64  `json:"gateway_errors"`
	PlatformErrors    uint64  `json:"platform_errors"`
	JournalReplayed   uint64  `json:"journal_replayed"`
	JournalDropped    uint64  `json:"journal_dropped"`
	UptimeSeconds     int64   `json:"uptime_seconds"`
	AllocMemMb        uint64  `json:"alloc_mem_mb"`
	NumGoroutine      int     `json:"num_goroutine"`
	ProcessRSSBytes   uint64  `json:"process_rss_bytes"`
	ProcessCPUPercent float64 `json:"process_cpu_percent"`

	Queues map[string]QueueStats `json:"queues,omitempty"`
}

type QueueStats struct {
	Length   int `json:"length"`
	Capacity int `json:"capacity"`
}

// MonitoringManager aggregates relay counters. A nil manager accepts every
// increment and ignores it, so components can run without monitoring.
type MonitoringManager struct {
	log       *slog.Logger
	startedAt time.Time
	mu        sync.RWMutex
	process   processStats
	queues    map[string]QueueStats

	envelopesSent   atomic.Uint64
	framesDropped   atomic.Uint64
	evictions       atomic.Uint64
	commandsHandled atomic.Uint64
	gatewayErrors   atomic.Uint64
	platformErrors  atomic.Uint64
	journalReplayed atomic.Uint64
	journalDropped  atomic.Uint64
}

type processStats struct {
	rss uint64
	cpu float64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log, startedAt: time.Now(), queues: make(map[string]QueueStats)}
}

// SetQueueDepth records the latest sample of a buffered channel.
func (mm *MonitoringManager) SetQueueDepth(name string, length, capacity int) {
	if mm == nil {
		return
	}
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.queues[name] = QueueStats{Length: length, Capacity: capacity}
}

func (mm *MonitoringManager) IncrEnvelopesSent(n int) {
	if mm != nil {
		mm.envelopesSent.Add(uint64(n))
	}
}

func (mm *MonitoringManager) IncrFramesDropped() {
	if mm != nil {
		mm.framesDropped.Add(1)
	}
}

func (mm *MonitoringManager) IncrEvictions() {
	if mm != nil {
		mm.evictions.Add(1)
	}
}

func (mm *MonitoringManager) IncrCommandsHandled() {
	if mm != nil {
		mm.commandsHandled.Add(1)
	}
}

func (mm *MonitoringManager) IncrGatewayErrors() {
	if mm != nil {
		mm.gatewayErrors.Add(1)
	}
}

func (mm *MonitoringManager) IncrPlatformErrors() {
	if mm != nil {
		mm.platformErrors.Add(1)
	}
}

func (mm *MonitoringManager) IncrJournalReplayed() {
	if mm != nil {
		mm.journalReplayed.Add(1)
	}
}

func (mm *MonitoringManager) IncrJournalDropped() {
	if mm != nil {
		mm.journalDropped.Add(1)
	}
}

// Run refreshes the process statistics every interval until ctx is cancelled.
func (mm *MonitoringManager) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mm.log.Debug("Monitoring stopped")
			return ctx.Err()
		case <-ticker.C:
			mm.updateProcessStats(p)
		}
	}
}

func (mm *MonitoringManager) updateProcessStats(p *process.Process) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		mm.log.Warn("Failed to collect process memory", "error", err)
		return
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		mm.log.Warn("Failed to collect process cpu", "error", err)
		return
	}
	mm.mu.Lock()
	mm.process = processStats{rss: memInfo.RSS, cpu: cpu}
	mm.mu.Unlock()
}

func (mm *MonitoringManager) GetLatest(connections int) MonitoringStats {
	mm.mu.RLock()
	ps := mm.process
	var queues map[string]QueueStats
	if len(mm.queues) > 0 {
		queues = make(map[string]QueueStats, len(mm.queues))
		for name, q := range mm.queues {
			queues[name] = q
		}
	}
	mm.mu.RUnlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MonitoringStats{
		Status:            "ok",
		Connections:       connections,
		EnvelopesSent:     mm.envelopesSent.Load(),
		FramesDropped:     mm.framesDropped.Load(),
		Evictions:         mm.evictions.Load(),
		CommandsHandled:   mm.commandsHandled.Load(),
		GatewayErrors:     mm.gatewayErrors.Load(),
		PlatformErrors:    mm.platformErrors.Load(),
		JournalReplayed:   mm.journalReplayed.Load(),
		JournalDropped:    mm.journalDropped.Load(),
		UptimeSeconds:     int64(time.Since(mm.startedAt).Seconds()),
		AllocMemMb:        m.Alloc / 1024 / 1024,
		NumGoroutine:      runtime.NumGoroutine(),
		ProcessRSSBytes:   ps.rss,
		ProcessCPUPercent: ps.cpu,
		Queues:            queues,
	}
}

// Handler serves GetLatest as JSON.
func (mm *MonitoringManager) Handler(connections func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(mm.GetLatest(connections())); err != nil {
			mm.log.Warn("Failed to write health response", "error", err)
		}
	}
}
