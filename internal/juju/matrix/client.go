// Package matrix provides Juju's Matrix platform client: the sync loop that
// delivers inbound messages and the outbound send/reply/typing surface.
package matrix

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/bdobrica/Juju/common/retry"
)

// MaxReplyLength is the hard cap on outbound reply bodies. Longer generation
// output is truncated, never split across messages.
const MaxReplyLength = 2000

// typingTimeout is how long a single typing notification stays alive on the
// homeserver.
const typingTimeout = 30 * time.Second

// Config holds Matrix client configuration.
type Config struct {
	Homeserver  string
	UserID      string
	AccessToken string
	// DisplayName is the name other users see; used to recognize plain-text
	// mentions from clients that do not send m.mentions.
	DisplayName string
	// Rooms are room IDs Juju joins at startup. Mentions are answered in any
	// room the bot is a member of.
	Rooms []string
	// DB is an optional SQLite connection used to persist the sync token
	// across restarts. When nil an in-memory store is used and room history
	// is replayed on every restart.
	DB *sql.DB
}

// MessageHandler processes incoming Matrix messages.
type MessageHandler func(ctx context.Context, evt *event.Event)

// Client wraps the mautrix client.
type Client struct {
	client     *mautrix.Client
	config     *Config
	stopCh     chan struct{}
	msgHandler MessageHandler

	namesMu   sync.Mutex
	roomNames map[string]string
}

// New creates a Matrix client.
func New(config *Config) (*Client, error) {
	client, err := mautrix.NewClient(config.Homeserver, id.UserID(config.UserID), config.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("matrix: create client: %w", err)
	}

	c := &Client{
		client:    client,
		config:    config,
		stopCh:    make(chan struct{}),
		roomNames: make(map[string]string),
	}

	if config.DB != nil {
		client.Store = newDBSyncStore(config.DB)
	} else {
		slog.Warn("matrix: no DB configured, sync token kept in memory (history will replay on restart)")
	}

	return c, nil
}

// Start validates the credentials, joins the configured rooms, and begins
// syncing in the background.
func (c *Client) Start(ctx context.Context, handler MessageHandler) error {
	c.msgHandler = handler

	// A bad homeserver URL or token should fail startup, not surface later as
	// a silent sync loop. Transient homeserver errors get a few retries.
	err := retry.Do(ctx, retry.Config{MaxAttempts: 3, InitialDelay: time.Second}, func() error {
		_, err := c.client.Whoami(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("matrix: credential check: %w", err)
	}

	syncer := c.client.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.EventMessage, c.handleMessage)

	for _, roomID := range c.config.Rooms {
		if err := c.joinRoom(ctx, id.RoomID(roomID)); err != nil {
			return fmt.Errorf("matrix: join room %s: %w", roomID, err)
		}
	}

	// Sync in the background, reconnecting with exponential back-off so a
	// transient homeserver error does not leave the bot deaf.
	go func() {
		const (
			backoffMin = 2 * time.Second
			backoffMax = 5 * time.Minute
		)
		backoff := backoffMin
		for {
			if err := c.client.Sync(); err != nil {
				select {
				case <-c.stopCh:
					return
				default:
				}
				slog.Error("matrix: sync stopped, reconnecting", "err", err, "backoff", backoff)
				select {
				case <-c.stopCh:
					return
				case <-time.After(backoff):
				}
				backoff *= 2
				if backoff > backoffMax {
					backoff = backoffMax
				}
				continue
			}
			// Sync returned nil — clean StopSync.
			return
		}
	}()

	return nil
}

// Stop stops the sync loop.
func (c *Client) Stop() {
	close(c.stopCh)
	c.client.StopSync()
}

// ReplyTo sends text as a threaded reply to the given event, truncated to
// MaxReplyLength.
func (c *Client) ReplyTo(roomID, eventID, text string) error {
	content := event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    Truncate(text, MaxReplyLength),
		RelatesTo: &event.RelatesTo{
			InReplyTo: &event.InReplyTo{
				EventID: id.EventID(eventID),
			},
		},
	}

	_, err := c.client.SendMessageEvent(context.Background(), id.RoomID(roomID), event.EventMessage, &content)
	if err != nil {
		return fmt.Errorf("matrix: send reply: %w", err)
	}
	return nil
}

// SendNotice sends a notice message (the bot-voice message type).
func (c *Client) SendNotice(roomID, text string) error {
	content := event.MessageEventContent{
		MsgType: event.MsgNotice,
		Body:    text,
	}

	_, err := c.client.SendMessageEvent(context.Background(), id.RoomID(roomID), event.EventMessage, &content)
	if err != nil {
		return fmt.Errorf("matrix: send notice: %w", err)
	}
	return nil
}

// SetTyping toggles the typing indicator in a room.
func (c *Client) SetTyping(roomID string, typing bool) error {
	timeout := typingTimeout
	if !typing {
		timeout = 0
	}
	_, err := c.client.UserTyping(context.Background(), id.RoomID(roomID), typing, timeout)
	if err != nil {
		return fmt.Errorf("matrix: set typing: %w", err)
	}
	return nil
}

// MessageBody fetches the plain-text body of an event, used to quote the
// original message when a user replies to one.
func (c *Client) MessageBody(ctx context.Context, roomID, eventID string) (string, error) {
	evt, err := c.client.GetEvent(ctx, id.RoomID(roomID), id.EventID(eventID))
	if err != nil {
		return "", fmt.Errorf("matrix: fetch event %s: %w", eventID, err)
	}
	if err := evt.Content.ParseRaw(evt.Type); err != nil {
		return "", fmt.Errorf("matrix: parse event %s: %w", eventID, err)
	}
	msg := evt.Content.AsMessage()
	if msg == nil {
		return "", fmt.Errorf("matrix: event %s is not a message", eventID)
	}
	return msg.Body, nil
}

// RoomName returns the room's display name from its m.room.name state,
// falling back to the room ID for unnamed rooms. Names are cached; a rename
// is picked up on restart.
func (c *Client) RoomName(ctx context.Context, roomID string) string {
	c.namesMu.Lock()
	if name, ok := c.roomNames[roomID]; ok {
		c.namesMu.Unlock()
		return name
	}
	c.namesMu.Unlock()

	var content event.RoomNameEventContent
	err := c.client.StateEvent(ctx, id.RoomID(roomID), event.StateRoomName, "", &content)
	if err != nil {
		// M_NOT_FOUND means the room has no name; anything else is
		// transient and should not pin the fallback in the cache.
		if !errors.Is(err, mautrix.MNotFound) {
			slog.Warn("matrix: fetch room name", "room", roomID, "err", err)
			return roomID
		}
		content.Name = ""
	}

	name := content.Name
	if name == "" {
		name = roomID
	}
	c.namesMu.Lock()
	c.roomNames[roomID] = name
	c.namesMu.Unlock()
	return name
}

// UserID returns the bot's own user ID.
func (c *Client) UserID() string {
	return c.config.UserID
}

// handleMessage filters raw sync events down to text messages from other
// users before invoking the registered handler. Notices are skipped: on
// Matrix, m.notice is the message type bots speak in.
func (c *Client) handleMessage(ctx context.Context, evt *event.Event) {
	if evt.Sender == id.UserID(c.config.UserID) {
		return
	}

	msg := evt.Content.AsMessage()
	if msg == nil || msg.MsgType != event.MsgText {
		return
	}

	if c.msgHandler != nil {
		c.msgHandler(ctx, evt)
	}
}

// joinRoom joins a room, tolerating the already-a-member case.
func (c *Client) joinRoom(ctx context.Context, roomID id.RoomID) error {
	_, err := c.client.JoinRoomByID(ctx, roomID)
	if err != nil {
		// Homeservers answer M_FORBIDDEN when the bot is already a member.
		if errors.Is(err, mautrix.MForbidden) {
			slog.Warn("matrix: join room refused, continuing", "room", roomID)
			return nil
		}
		return err
	}
	return nil
}
