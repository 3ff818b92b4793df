// Package bot implements the chat-bot conversation independently of any
// messaging platform. A transport (see the telegram subpackage) turns
// incoming updates into Message values, calls Handle and sends back the
// returned text.
//
// CONVERSATION:
//
//	/start              → help text
//	/ideas              → the five newest active ideas
//	title|description   → posts an idea as the sender's placeholder account
//	anything else       → usage hint
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reqimple/reqimple/internal/metrics"
	"github.com/reqimple/reqimple/internal/model"
	"github.com/reqimple/reqimple/internal/service"
)

// LatestCount is how many ideas /ideas lists.
const LatestCount = 5

const (
	helpReply    = "ReqImple bot\n/ideas - latest ideas\nSend: title|description"
	usageReply   = "Usage: title|description"
	noIdeasReply = "No ideas yet."
	errorReply   = "Something went wrong. Please try again later."
)

// IdeaBoard is the part of the domain the bot talks to.
// *service.ChatService implements it.
type IdeaBoard interface {
	LatestIdeas(ctx context.Context, n int) ([]model.Idea, error)
	PostIdea(ctx context.Context, sender service.ChatUser, title, description string) (*model.Idea, error)
}

// Message is one incoming chat message.
type Message struct {
	SenderID  int64
	FirstName string
	Text      string
}

// Bot answers chat messages. It holds no platform state and is safe for
// concurrent use.
type Bot struct {
	board   IdeaBoard
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(board IdeaBoard, m *metrics.Metrics, logger *slog.Logger) *Bot {
	return &Bot{board: board, metrics: m, logger: logger}
}

// Handle returns the reply to msg. An empty reply means the message is
// ignored (unknown slash commands without a "|"). Failures never escape: the cause is
// logged and the user gets one generic error reply.
func (b *Bot) Handle(ctx context.Context, msg Message) string {
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/") {
		switch commandName(text) {
		case "start":
			b.metrics.BotMessage("start", "ok")
			return helpReply
		case "ideas":
			return b.latest(ctx)
		default:
			if strings.Contains(text, "|") {
				return b.post(ctx, msg, text)
			}
			b.metrics.BotMessage("unknown", "ignored")
			return ""
		}
	}

	return b.post(ctx, msg, text)
}

func (b *Bot) latest(ctx context.Context) string {
	ideas, err := b.board.LatestIdeas(ctx, LatestCount)
	if err != nil {
		b.metrics.BotMessage("ideas", "error")
		b.logger.Error("bot: listing ideas", slog.String("error", err.Error()))
		return errorReply
	}
	b.metrics.BotMessage("ideas", "ok")

	if len(ideas) == 0 {
		return noIdeasReply
	}
	var sb strings.Builder
	sb.WriteString("Latest ideas:\n")
	for _, idea := range ideas {
		fmt.Fprintf(&sb, "\n• %s\n  by %s\n", idea.Title, idea.AuthorUsername)
	}
	return sb.String()
}

func (b *Bot) post(ctx context.Context, msg Message, text string) string {
	title, description, ok := strings.Cut(text, "|")
	if !ok {
		b.metrics.BotMessage("post", "usage")
		return usageReply
	}

	sender := service.ChatUser{PlatformID: msg.SenderID, FirstName: msg.FirstName}
	idea, err := b.board.PostIdea(ctx, sender, strings.TrimSpace(title), strings.TrimSpace(description))
	if err != nil {
		b.metrics.BotMessage("post", "error")
		b.logger.Error("bot: posting idea",
			slog.Int64("sender", msg.SenderID),
			slog.String("error", err.Error()),
		)
		return errorReply
	}

	b.metrics.BotMessage("post", "ok")
	return "Idea posted: " + idea.Title
}

// commandName extracts "ideas" from "/ideas@ReqImpleBot extra".
func commandName(text string) string {
	name, _, _ := strings.Cut(text[1:], " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name)
}
