// Package telegram connects a bot.Bot to the Telegram Bot API using long
// polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/reqimple/reqimple/internal/bot"
)

// PollTimeout is the long-polling timeout in seconds.
const PollTimeout = 30

// Connect logs in with token and returns the API client.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connecting: %w", err)
	}
	return api, nil
}

// Runner feeds Telegram updates to a Bot and sends its replies back.
type Runner struct {
	api     *tgbotapi.BotAPI
	bot     *bot.Bot
	logger  *slog.Logger
	timeout int
}

func NewRunner(api *tgbotapi.BotAPI, b *bot.Bot, logger *slog.Logger) *Runner {
	return &Runner{api: api, bot: b, logger: logger, timeout: PollTimeout}
}

// Run polls for updates until ctx is cancelled. Messages are handled one
// at a time, in the order Telegram delivers them.
func (r *Runner) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = r.timeout
	updates := r.api.GetUpdatesChan(cfg)

	r.logger.Info("telegram bot started", slog.String("account", r.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			r.api.StopReceivingUpdates()
			r.logger.Info("telegram bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			r.handle(ctx, update)
		}
	}
}

func (r *Runner) handle(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	reply := r.bot.Handle(ctx, bot.Message{
		SenderID:  msg.From.ID,
		FirstName: msg.From.FirstName,
		Text:      msg.Text,
	})
	if reply == "" {
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ReplyToMessageID = msg.MessageID
	if _, err := r.api.Send(out); err != nil {
		r.logger.Error("telegram: sending reply",
			slog.Int64("chat", msg.Chat.ID),
			slog.String("error", err.Error()),
		)
	}
}
