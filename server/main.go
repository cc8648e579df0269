package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schlangen.tv/arena/config"
	"schlangen.tv/arena/engine"
)

func main() {
	configPath := flag.String("config", "", "JSON config file (optional)")
	envPath := flag.String("env", ".env", "dotenv file (optional)")
	port := flag.Int("port", 0, "Server port (overrides config)")
	dataDir := flag.String("data", "", "Data directory for leaderboard and profiles (overrides config)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	cfg.Validate()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))

	srv, err := engine.NewServer(cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.LogStats(ctx, 30*time.Second)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(cfg.Port) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", "err", err)
		}
	}
}
