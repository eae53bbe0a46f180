// Package app assembles and runs the Juju application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/bdobrica/Juju/internal/juju/bot"
	"github.com/bdobrica/Juju/internal/juju/chatlog"
	"github.com/bdobrica/Juju/internal/juju/commands"
	"github.com/bdobrica/Juju/internal/juju/gemini"
	"github.com/bdobrica/Juju/internal/juju/matrix"
	"github.com/bdobrica/Juju/internal/juju/memory"
	"github.com/bdobrica/Juju/internal/juju/persona"
	"github.com/bdobrica/Juju/internal/juju/prompt"
	"github.com/bdobrica/Juju/internal/juju/store"
)

// Config holds application configuration.
type Config struct {
	// DatabasePath is the SQLite file holding platform-side state (the
	// Matrix sync position).
	DatabasePath string
	// MemoryPath is the JSON document holding per-user conversation memory.
	MemoryPath string
	// MemoryMaxTurns caps retained exchanges per user. Zero means the
	// package default.
	MemoryMaxTurns int
	// ChatLogPath is the plain-text transcript file.
	ChatLogPath string
	// PersonaPath is an optional persona document. When empty or missing,
	// the built-in persona is used.
	PersonaPath string
	// GeminiAPIKey authenticates against the generation backend.
	GeminiAPIKey string
	// GeminiModel overrides the generation model. Empty means the package
	// default.
	GeminiModel string
	Matrix      matrix.Config
}

// App is the assembled Juju application.
type App struct {
	config  *Config
	doc     *persona.Document
	store   *store.Store
	mem     *memory.Store
	chatLog *chatlog.Logger
	matrix  *matrix.Client
	handler *bot.Handler
}

// New creates a Juju application from config. Every subsystem is opened
// here; a failure tears down whatever already opened and reports which
// subsystem refused to start.
func New(config *Config) (*App, error) {
	doc, err := persona.Load(config.PersonaPath)
	if err != nil {
		return nil, fmt.Errorf("load persona: %w", err)
	}
	slog.Info("persona loaded", "name", doc.Metadata.Name, "model", doc.Model)

	slog.Info("opening database", "path", config.DatabasePath)
	st, err := store.New(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	mem, err := memory.Open(memory.Config{
		Path:     config.MemoryPath,
		MaxTurns: config.MemoryMaxTurns,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open conversation memory: %w", err)
	}
	slog.Info("conversation memory ready", "path", config.MemoryPath)

	chatLog, err := chatlog.Open(config.ChatLogPath, doc.Metadata.Name)
	if err != nil {
		mem.Close()
		st.Close()
		return nil, fmt.Errorf("open chat log: %w", err)
	}

	model := config.GeminiModel
	if model == "" {
		model = doc.Model
	}
	gen, err := gemini.New(context.Background(), gemini.Config{
		APIKey:   config.GeminiAPIKey,
		Model:    model,
		Fallback: doc.Replies.Fallback,
	})
	if err != nil {
		chatLog.Close()
		mem.Close()
		st.Close()
		return nil, fmt.Errorf("initialize generation client: %w", err)
	}

	// Inject the DB so the client can persist the sync token across restarts.
	matrixCfg := config.Matrix
	matrixCfg.DB = st.DB()
	slog.Info("connecting to Matrix", "homeserver", matrixCfg.Homeserver)
	matrixClient, err := matrix.New(&matrixCfg)
	if err != nil {
		chatLog.Close()
		mem.Close()
		st.Close()
		return nil, fmt.Errorf("initialize Matrix client: %w", err)
	}

	handler := bot.New(bot.Config{
		Platform:   matrixClient,
		Generator:  gen,
		Memory:     mem,
		Transcript: chatLog,
		Dispatcher: commands.New(commands.Config{
			ResetDone: doc.Replies.ResetDone,
			Help:      doc.Replies.Help,
			Ping:      doc.Replies.Ping,
			About:     doc.Replies.About,
		}),
		Assembler: &prompt.Assembler{
			Instruction: doc.Instruction,
			Now:         time.Now,
		},
		Replies: doc.Replies,
	})

	return &App{
		config:  config,
		doc:     doc,
		store:   st,
		mem:     mem,
		chatLog: chatLog,
		matrix:  matrixClient,
		handler: handler,
	}, nil
}

// Run starts the Matrix sync and blocks until an interrupt signal.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("starting Matrix sync")
	if err := a.matrix.Start(ctx, a.handleMessage); err != nil {
		return fmt.Errorf("start Matrix client: %w", err)
	}

	for _, roomID := range a.config.Matrix.Rooms {
		msg := fmt.Sprintf("✅ %s is online! Mention me to chat.", a.doc.Metadata.Name)
		if err := a.matrix.SendNotice(roomID, msg); err != nil {
			slog.Warn("startup notice failed", "room", roomID, "err", err)
		}
	}

	slog.Info("juju is running; press Ctrl+C to stop",
		"user", a.config.Matrix.UserID, "rooms", len(a.config.Matrix.Rooms))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	return nil
}

// Stop shuts down the application.
func (a *App) Stop() {
	slog.Info("stopping Matrix client")
	a.matrix.Stop()

	if err := a.chatLog.Close(); err != nil {
		slog.Warn("close chat log", "err", err)
	}
	if err := a.mem.Close(); err != nil {
		slog.Warn("close conversation memory", "err", err)
	}

	slog.Info("closing database")
	a.store.Close()
}

// handleMessage adapts raw Matrix message events into bot.Inbound deliveries.
// The platform client has already dropped the bot's own messages and
// non-text message types; what remains here is the mention gate.
func (a *App) handleMessage(ctx context.Context, evt *event.Event) {
	msg := evt.Content.AsMessage()
	if msg == nil {
		return
	}

	botID := id.UserID(a.matrix.UserID())
	if !matrix.MentionsBot(msg, botID, a.doc.Metadata.Name) {
		return
	}

	// Strip the legacy quoted-reply prefix so a reply's body is the user's
	// own words; the referenced event is resolved separately.
	msg.RemoveReplyFallback()

	var replyToID string
	if msg.RelatesTo != nil {
		if replyTo := msg.RelatesTo.GetReplyTo(); replyTo != "" {
			replyToID = replyTo.String()
		}
	}

	a.handler.HandleMessage(ctx, bot.Inbound{
		RoomID:    evt.RoomID.String(),
		RoomName:  a.matrix.RoomName(ctx, evt.RoomID.String()),
		EventID:   evt.ID.String(),
		Sender:    evt.Sender.String(),
		Body:      matrix.StripMention(msg.Body, botID, a.doc.Metadata.Name),
		RawBody:   msg.Body,
		ReplyToID: replyToID,
		When:      time.UnixMilli(evt.Timestamp),
	})
}
