package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// DefaultMaxTurns is the number of user+assistant exchanges retained per
// user. Twenty stored turns at the default.
const DefaultMaxTurns = 10

// Config holds store configuration.
type Config struct {
	// Path is the JSON document the table is loaded from and rewritten to.
	Path string

	// MaxTurns is the maximum number of exchanges (user+assistant pairs)
	// kept per user. When an append would exceed the cap, the oldest turns
	// are dropped from the front. Default: 10.
	MaxTurns int
}

// Store maps user IDs to their conversation histories and persists the full
// table to a single JSON document on every mutation. It is safe for
// concurrent use: updates for the same user cannot interleave and lose an
// exchange.
//
// There is no transactional guarantee between a mutation and its save — if
// the process dies in between, the most recent exchange is lost. That is the
// accepted failure policy.
type Store struct {
	mu       sync.Mutex
	path     string
	maxTurns int
	table    map[string]History
}

// Open loads the persisted document at cfg.Path into a new Store. A missing
// document is not an error: the store starts empty and the file is created
// on the first save.
func Open(cfg Config) (*Store, error) {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}

	s := &Store{
		path:     cfg.Path,
		maxTurns: cfg.MaxTurns,
		table:    make(map[string]History),
	}

	data, err := os.ReadFile(cfg.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: read %q: %w", cfg.Path, err)
	}
	if err := json.Unmarshal(data, &s.table); err != nil {
		return nil, fmt.Errorf("memory: parse %q: %w", cfg.Path, err)
	}
	return s, nil
}

// History returns a copy of the stored history for userID, oldest first.
// A user with no prior exchanges gets an empty (nil) history.
func (s *Store) History(userID string) History {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.table[userID]
	if len(h) == 0 {
		return nil
	}
	cp := make(History, len(h))
	copy(cp, h)
	return cp
}

// AppendExchange appends one user turn and one assistant turn to userID's
// history, evicts the oldest turns once the cap is exceeded, and rewrites
// the persisted document. The history is created lazily on first use.
func (s *Store) AppendExchange(userID string, user, assistant Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := append(s.table[userID], user, assistant)

	// Sliding window: drop whole turns from the front until the cap holds.
	if max := 2 * s.maxTurns; len(h) > max {
		h = append(History(nil), h[len(h)-max:]...)
	}
	s.table[userID] = h

	return s.save()
}

// Reset removes userID's entry entirely and rewrites the persisted document.
// A later message from that user starts a fresh history. Resetting an
// unknown user is a no-op apart from the rewrite.
func (s *Store) Reset(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.table, userID)
	return s.save()
}

// Len returns the number of turns currently stored for userID.
func (s *Store) Len(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.table[userID])
}

// Close flushes the table to disk one final time.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save serializes the full table and overwrites the document. Every save is
// a full rewrite; there is no append path. Must be called with mu held.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.table, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: marshal table: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("memory: write %q: %w", s.path, err)
	}
	return nil
}
