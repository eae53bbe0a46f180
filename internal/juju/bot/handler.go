// Package bot holds Juju's message handler: the sequence that takes one
// inbound mention through command dispatch, prompt assembly, generation,
// memory update, and reply emission, behind a single error boundary.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bdobrica/Juju/internal/juju/commands"
	"github.com/bdobrica/Juju/internal/juju/memory"
	"github.com/bdobrica/Juju/internal/juju/persona"
	"github.com/bdobrica/Juju/internal/juju/prompt"
)

// Platform is the outbound surface of the chat platform.
type Platform interface {
	// ReplyTo sends text as a reply to the given event.
	ReplyTo(roomID, eventID, text string) error
	// SetTyping toggles the typing indicator in a room.
	SetTyping(roomID string, typing bool) error
	// MessageBody fetches the plain-text body of an event by ID.
	MessageBody(ctx context.Context, roomID, eventID string) (string, error)
}

// Generator produces a reply for an assembled turn sequence.
type Generator interface {
	Generate(ctx context.Context, turns []memory.Turn, useSearch bool) (string, error)
}

// Transcript records the plain-text chat log.
type Transcript interface {
	User(room, userTag, text string) error
	Bot(room, text string) error
}

// Inbound is one message addressed to the bot, already filtered (not from
// the bot itself, not a notice, mentions the bot) and mention-stripped.
type Inbound struct {
	RoomID  string
	EventID string
	Sender  string
	// RoomName is the room's display name, used for transcript lines.
	// Empty falls back to RoomID.
	RoomName string
	// Body is the message content with mention markers removed.
	Body string
	// RawBody is the original body, used for the transcript line.
	RawBody string
	// ReplyToID is the event the user replied to, or "" for a plain message.
	ReplyToID string
	// When is the message timestamp.
	When time.Time
}

// roomLabel is the human-readable room tag for transcript lines.
func (m Inbound) roomLabel() string {
	if m.RoomName != "" {
		return m.RoomName
	}
	return m.RoomID
}

// Config wires a Handler.
type Config struct {
	Platform   Platform
	Generator  Generator
	Memory     *memory.Store
	Transcript Transcript
	Dispatcher *commands.Dispatcher
	Assembler  *prompt.Assembler
	Replies    persona.Replies
	// Logger receives the structured operational log. Defaults to
	// slog.Default when nil; verbosity is the caller's configuration.
	Logger *slog.Logger
}

// Handler processes inbound messages one at a time per delivery.
type Handler struct {
	platform   Platform
	gen        Generator
	mem        *memory.Store
	transcript Transcript
	dispatcher *commands.Dispatcher
	assembler  *prompt.Assembler
	replies    persona.Replies
	log        *slog.Logger
}

// New creates a Handler.
func New(cfg Config) *Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		platform:   cfg.Platform,
		gen:        cfg.Generator,
		mem:        cfg.Memory,
		transcript: cfg.Transcript,
		dispatcher: cfg.Dispatcher,
		assembler:  cfg.Assembler,
		replies:    cfg.Replies,
		log:        log,
	}
}

// HandleMessage runs one inbound message to completion. Every failure on the
// conversational path lands here: it is logged and answered with the fixed
// apology, so no message goes silently unanswered.
func (h *Handler) HandleMessage(ctx context.Context, msg Inbound) {
	corrID := uuid.NewString()
	log := h.log.With("id", corrID, "room", msg.RoomID, "sender", msg.Sender)

	if err := h.platform.SetTyping(msg.RoomID, true); err != nil {
		log.Warn("typing indicator failed", "err", err)
	}

	if strings.TrimSpace(msg.Body) == "" {
		h.reply(log, msg, h.replies.Nudge)
		return
	}

	res := h.dispatcher.Dispatch(msg.Body)
	if res.Terminal {
		if res.Reset {
			if err := h.mem.Reset(msg.Sender); err != nil {
				log.Error("memory reset failed", "err", err)
				h.reply(log, msg, h.replies.Apology)
				return
			}
			log.Info("memory reset")
		}
		h.reply(log, msg, res.Reply)
		return
	}

	reply, err := h.converse(ctx, log, msg, res)
	if err != nil {
		log.Error("message handling failed", "err", err)
		h.reply(log, msg, h.replies.Apology)
		return
	}

	h.reply(log, msg, reply)

	if err := h.transcript.Bot(msg.roomLabel(), reply); err != nil {
		log.Warn("transcript write failed", "err", err)
	}
}

// converse is the conversational path: log the user line, resolve reply
// context, assemble the prompt, call generation, and persist the exchange.
// The returned reply is ready to send; any error is handled by the boundary
// in HandleMessage.
func (h *Handler) converse(ctx context.Context, log *slog.Logger, msg Inbound, res commands.Result) (string, error) {
	if err := h.transcript.User(msg.roomLabel(), msg.Sender, msg.RawBody); err != nil {
		return "", err
	}

	userText := res.Prompt
	if msg.ReplyToID != "" {
		quoted, err := h.platform.MessageBody(ctx, msg.RoomID, msg.ReplyToID)
		if err != nil {
			return "", err
		}
		userText = prompt.ComposeReply(quoted, userText)
	}

	if res.UseSearch {
		log.Info("web search enabled", "prompt", res.Prompt)
	}

	turns := h.assembler.Assemble(h.mem.History(msg.Sender), userText)

	reply, err := h.gen.Generate(ctx, turns, res.UseSearch)
	if err != nil {
		return "", err
	}

	err = h.mem.AppendExchange(msg.Sender,
		memory.NewTurn(memory.RoleUser, userText),
		memory.NewTurn(memory.RoleAssistant, reply),
	)
	if err != nil {
		return "", err
	}

	return reply, nil
}

// reply sends text back. A send failure is logged, not escalated: there is
// nothing left to answer with if the reply itself cannot be delivered.
func (h *Handler) reply(log *slog.Logger, msg Inbound, text string) {
	if err := h.platform.ReplyTo(msg.RoomID, msg.EventID, text); err != nil {
		log.Error("reply send failed", "err", err)
	}
}
