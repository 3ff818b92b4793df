// Command server runs the ReqImple web site and JSON API.
//
// Configuration comes from the environment (and an optional .env file);
// see package config for the keys. The process stops gracefully on
// SIGINT or SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/reqimple/reqimple/internal/config"
	"github.com/reqimple/reqimple/internal/metrics"
	"github.com/reqimple/reqimple/internal/repository/sqlstore"
	"github.com/reqimple/reqimple/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("database ready", slog.String("dialect", string(store.Dialect())))

	srv, err := server.New(cfg, store, metrics.New(), logger)
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}
