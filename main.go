package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/evidenceledger/proxybid/internal/bidconfig"
	"github.com/evidenceledger/proxybid/internal/mainserver"
)

var (
	development bool

	adminPassword string
	port          string
	configFile    string
)

func main() {
	// If we are in development environment or not
	flag.BoolVar(&development, "dev", false, "Development mode")

	// The password for admin screens
	flag.StringVar(&adminPassword, "admin-password", "", "Admin password for the server")

	flag.StringVar(&port, "port", "", "Port for the HTTP server")

	// Optional YAML file with settings. Environment variables override it.
	flag.StringVar(&configFile, "config", "", "Configuration file")

	flag.Parse()

	// Check if we are in development or production.
	// The environment variable takes precedence over the flag
	if strings.ToLower(os.Getenv(bidconfig.EnvPrefix+"_DEVELOPMENT")) == "true" {
		development = true
	}

	// Initialize logging
	level := slog.LevelInfo
	if development {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Say if we are in development or not
	if development {
		slog.Info("Running in development mode")
	} else {
		slog.Info("Running in production mode")
	}

	// Command line values have priority over the environment and the config file
	if adminPassword != "" {
		os.Setenv(bidconfig.EnvPrefix+"_ADMIN_PASSWORD", adminPassword)
	}
	if port != "" {
		os.Setenv(bidconfig.EnvPrefix+"_PORT", port)
	}

	cfg, err := bidconfig.Load(configFile, development)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received")
		cancel()
	}()

	// Create the main server. This connects the database, the wizard store and the court client.
	srv, err := mainserver.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	// Start server
	if err := srv.Start(ctx); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
