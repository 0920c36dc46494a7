package internal

import (
	"chat-relay/contract"
	"chat-relay/gateway"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"chat-relay/telegram"
	"chat-relay/transport"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// App is a fully wired relay: backend gateway, optional journal, Telegram
// poller, dispatch pool and the dashboard WebSocket server.
type App struct {
	log          *slog.Logger
	listener     net.Listener
	server       *http.Server
	orchestrator *runtime.Orchestrator
	closers      []func()
}

// NewApp connects to every external dependency and binds the listen address.
// Close releases whatever was opened, even when NewApp fails halfway.
func NewApp(ctx context.Context, log *slog.Logger, config Config) (app *App, err error) {
	app = &App{log: log}
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()

	// 1. Backend
	gw, err := app.openGateway(ctx, config)
	if err != nil {
		return app, err
	}

	// 2. Journal (optional)
	monitoring := observability.NewMonitoringManager(log)
	var journal contract.IJournal
	var replay contract.Worker
	if config.JournalEnabled() {
		db, err := repositories.OpenBadger(config.JournalPath)
		if err != nil {
			return app, fmt.Errorf("journal opening failed: %w", err)
		}
		app.closers = append(app.closers, func() {
			log.Info("Closing journal...")
			_ = db.Close()
		})
		j := repositories.NewJournal(db, log)
		journal = j
		replay = workers.NewReplayWorker(log, j, gw, monitoring, config.ReplayInterval)
	}

	// 3. Telegram
	bot, err := telegram.NewBot(config.TelegramBotToken, config.TelegramAPIEndpoint)
	if err != nil {
		return app, err
	}
	log.Info("Telegram bot authenticated", "username", bot.Self.UserName)

	// 4. Relay core
	registry := runtime.NewRegistry(log)
	fanout := workers.NewEventFanout(log, registry, monitoring)
	commands := services.NewCommandService(log, fanout, gw, telegram.NewClient(log, bot), journal, monitoring)
	app.orchestrator = runtime.NewOrchestrator(log, workers.NewSupervisor(log), registry, fanout, commands,
		config.NumberOfWorkers, config.BufferSize)

	app.orchestrator.Add(
		telegram.NewPoller(log, bot, config.TelegramPollTimeout, telegram.DefaultBackoff,
			app.orchestrator.Dispatch, app.orchestrator.ReportPlatformError),
		workers.NewLivenessWorker(log, registry, monitoring, config.PingInterval),
		workers.NewChannelCapacityWorker(log, []workers.NamedChannel{app.orchestrator.InboundQueue()},
			monitoring, config.MetricInterval),
		monitoring,
	)
	if replay != nil {
		app.orchestrator.Add(replay)
	}

	// 5. WebSocket server
	app.listener, err = net.Listen("tcp", config.Address())
	if err != nil {
		return app, fmt.Errorf("failed to listen on %s: %w", config.Address(), err)
	}
	app.server = &http.Server{
		Handler:           transport.NewMux(transport.NewServer(log, registry, config.ConnectionBufferSize), registry, monitoring),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return app, nil
}

// Addr is the bound WebSocket address, useful when the configured port is 0.
func (a *App) Addr() string {
	return a.listener.Addr().String()
}

// Run serves viewers and runs the workers until ctx is cancelled or the
// server fails. It always shuts both down before returning.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		a.log.Info("Starting WebSocket server", "address", a.Addr(), "at", time.Now().UTC())
		if err := a.server.Serve(a.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("websocket server error: %w", err)
		}
	}()

	orchestratorDone := make(chan struct{})
	go func() {
		a.orchestrator.Start(ctx)
		close(orchestratorDone)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.log.Info("Shutting down gracefully...")
	case err = <-errChan:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if shutdownErr := a.server.Shutdown(shutdownCtx); shutdownErr != nil {
		a.log.Warn("WebSocket server shutdown failed", "error", shutdownErr)
	}
	a.orchestrator.Stop()
	cancel()
	<-orchestratorDone
	return err
}

// Close releases the backend and journal handles in reverse opening order.
func (a *App) Close() {
	if a.listener != nil {
		_ = a.listener.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openGateway(ctx context.Context, config Config) (contract.IGateway, error) {
	backend, err := config.Backend()
	if err != nil {
		return nil, err
	}
	switch backend {
	case BackendPostgres:
		pingCtx, cancel := context.WithTimeout(ctx, config.GatewayTimeout)
		defer cancel()
		db, err := gateway.OpenPostgres(pingCtx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres connection failed: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		a.log.Info("Using Postgres backend")
		return gateway.NewPostgresGateway(a.log, db), nil
	default:
		a.log.Info("Using Supabase backend", "url", config.SupabaseURL)
		return gateway.NewSupabaseGateway(a.log, config.SupabaseURL, config.SupabaseAnonKey, config.GatewayTimeout), nil
	}
}
