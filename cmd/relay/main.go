package main

import (
	"chat-relay/internal"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Returning instead of exiting lets every defer run before the process stops.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wiring
	app, err := internal.NewApp(ctx, log, config)
	if err != nil {
		return exitRuntime, err
	}
	defer app.Close()

	// 4. Serve until a signal or a server failure
	if err := app.Run(ctx); err != nil {
		return exitRuntime, err
	}
	log.Info("Program stopped cleanly")
	return exitOK, nil
}
