// Package config loads process configuration from the environment.
//
// An optional .env file is read first; variables already present in the
// environment win over the file. Every binary shares the same keys:
//
//	SECRET_KEY            signing key for session and API tokens (required, 16+ chars)
//	DATABASE_URL          sqlite://path or postgres://... (default sqlite://data/reqimple.db)
//	TELEGRAM_BOT_TOKEN    required by the bot only
//	PORT                  HTTP listen port (default 8080)
//	LOG_LEVEL             debug, info, warn or error (default info)
//	LOG_FORMAT            text or json (default text)
//	GITHUB_CLIENT_ID      enables the GitHub account link together with the secret
//	GITHUB_CLIENT_SECRET
//	GITHUB_CALLBACK_URL   default http://localhost:PORT/profile/github/callback
//	SESSION_TTL           browser session lifetime (default 168h)
//	COOKIE_SECURE         mark cookies Secure (default false)
//	BOT_METRICS_PORT      port for the bot's /metrics listener (default 0, disabled)
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MinSecretLength is the shortest accepted SECRET_KEY.
const MinSecretLength = 16

type Config struct {
	SecretKey        string
	DatabaseURL      string
	TelegramBotToken string
	Port             int
	LogLevel         string
	LogFormat        string
	SessionTTL       time.Duration
	CookieSecure     bool
	BotMetricsPort   int

	GitHub struct {
		ClientID     string
		ClientSecret string
		CallbackURL  string
	}
}

// Load reads envFiles (".env" when none are given) into the environment,
// then builds and validates the Config. A missing env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		SecretKey:        v.GetString("secret_key"),
		DatabaseURL:      v.GetString("database_url"),
		TelegramBotToken: v.GetString("telegram_bot_token"),
		Port:             v.GetInt("port"),
		LogLevel:         strings.ToLower(v.GetString("log_level")),
		LogFormat:        strings.ToLower(v.GetString("log_format")),
		SessionTTL:       v.GetDuration("session_ttl"),
		CookieSecure:     v.GetBool("cookie_secure"),
		BotMetricsPort:   v.GetInt("bot_metrics_port"),
	}
	cfg.GitHub.ClientID = v.GetString("github_client_id")
	cfg.GitHub.ClientSecret = v.GetString("github_client_secret")
	cfg.GitHub.CallbackURL = v.GetString("github_callback_url")
	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/profile/github/callback", cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("secret_key", "")
	v.SetDefault("database_url", "sqlite://data/reqimple.db")
	v.SetDefault("telegram_bot_token", "")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("session_ttl", "168h")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("bot_metrics_port", 0)
	v.SetDefault("github_client_id", "")
	v.SetDefault("github_client_secret", "")
	v.SetDefault("github_callback_url", "")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.SecretKey) < MinSecretLength {
		return fmt.Errorf("SECRET_KEY must be at least %d characters", MinSecretLength)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	if c.BotMetricsPort < 0 || c.BotMetricsPort > 65535 {
		return fmt.Errorf("BOT_METRICS_PORT %d is out of range", c.BotMetricsPort)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if (c.GitHub.ClientID == "") != (c.GitHub.ClientSecret == "") {
		return errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set together")
	}
	return nil
}

// RequireTelegram checks the settings only the bot needs.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

func (c *Config) GitHubEnabled() bool {
	return c.GitHub.ClientID != "" && c.GitHub.ClientSecret != ""
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// NewLogger builds the process logger described by LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q is not a level", s)
	}
	return level, nil
}
