// Package chatlog appends the chat transcript to a plain text file: one line
// per user message and one per bot reply. Writes are synchronous and
// fire-and-forget — an I/O failure surfaces as an error on the current
// message and nothing is retried.
package chatlog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Logger appends transcript lines to a single file.
type Logger struct {
	mu      sync.Mutex
	f       *os.File
	botName string
	now     func() time.Time
}

// Open opens (creating if needed) the transcript file in append mode.
// botName tags the bot's own lines.
func Open(path, botName string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("chatlog: open %q: %w", path, err)
	}
	return &Logger{f: f, botName: botName, now: time.Now}, nil
}

// User records an inbound user message.
func (l *Logger) User(room, userTag, text string) error {
	return l.append(room, "USER "+userTag, text)
}

// Bot records an outbound bot reply.
func (l *Logger) Bot(room, text string) error {
	return l.append(room, "BOT "+l.botName, text)
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// append writes one "[timestamp] [room] actor: text" line.
func (l *Logger) append(room, actor, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("[%s] [%s] %s: %s\n",
		l.now().UTC().Format(time.RFC3339), room, actor, text)
	if _, err := l.f.WriteString(line); err != nil {
		return fmt.Errorf("chatlog: append: %w", err)
	}
	return nil
}
