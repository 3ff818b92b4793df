// Command admin manages the admin flag, which is never exposed over HTTP.
//
// Usage:
//
//	admin promote <username>
//	admin demote <username>
//
// It reads the same environment as the server (DATABASE_URL, SECRET_KEY).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/reqimple/reqimple/internal/auth"
	"github.com/reqimple/reqimple/internal/config"
	"github.com/reqimple/reqimple/internal/metrics"
	"github.com/reqimple/reqimple/internal/repository/sqlstore"
	"github.com/reqimple/reqimple/internal/service"
)

var errUsage = errors.New("usage: admin promote|demote <username>")

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	envFile := fs.String("env", ".env", "optional env file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 2 {
		return errUsage
	}

	var admin bool
	switch fs.Arg(0) {
	case "promote":
		admin = true
	case "demote":
	default:
		return errUsage
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)

	store, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := auth.NewTokenService(cfg.SecretKey)
	if err != nil {
		return err
	}
	authService := service.NewAuthService(store, tokens, auth.NewPasswordService(auth.DefaultCost), metrics.New(), logger, cfg.SessionTTL)

	user, err := authService.SetAdmin(ctx, fs.Arg(1), admin)
	if err != nil {
		return fmt.Errorf("%s %s: %w", fs.Arg(0), fs.Arg(1), err)
	}
	logger.Info("admin flag changed", slog.String("username", user.Username), slog.Bool("admin", user.IsAdmin))
	fmt.Fprintf(stdout, "%s is admin: %t\n", user.Username, user.IsAdmin)
	return nil
}
