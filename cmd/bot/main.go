// Command bot runs the ReqImple Telegram bot.
//
// It shares DATABASE_URL and the service layer with the web server but is
// a separate process. Set BOT_METRICS_PORT to expose its Prometheus
// counters.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/reqimple/reqimple/internal/auth"
	"github.com/reqimple/reqimple/internal/bot"
	"github.com/reqimple/reqimple/internal/bot/telegram"
	"github.com/reqimple/reqimple/internal/config"
	"github.com/reqimple/reqimple/internal/metrics"
	"github.com/reqimple/reqimple/internal/repository/sqlstore"
	"github.com/reqimple/reqimple/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bot failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	if err := tgbotapi.SetLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn)); err != nil {
		return fmt.Errorf("telegram logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()
	if cfg.BotMetricsPort > 0 {
		go serveMetrics(ctx, fmt.Sprintf(":%d", cfg.BotMetricsPort), m, logger)
	}

	chat := service.NewChatService(store, auth.NewPasswordService(auth.DefaultCost), m, logger)
	b := bot.New(chat, m, logger)

	api, err := telegram.Connect(cfg.TelegramBotToken)
	if err != nil {
		return err
	}
	return telegram.NewRunner(api, b, logger).Run(ctx)
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("bot metrics listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("bot metrics listener failed", slog.String("error", err.Error()))
	}
}
