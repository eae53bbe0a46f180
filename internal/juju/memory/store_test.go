package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T, maxTurns int) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.json")
	s, err := Open(Config{Path: path, MaxTurns: maxTurns})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestOpen_MissingDocumentStartsEmpty(t *testing.T) {
	s, _ := newTestStore(t, 0)
	if got := s.Len("@alice:example.org"); got != 0 {
		t.Errorf("expected empty history, got %d turns", got)
	}
	if h := s.History("@alice:example.org"); h != nil {
		t.Errorf("expected nil history, got %v", h)
	}
}

func TestOpen_MalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(Config{Path: path}); err == nil {
		t.Fatal("expected parse error for malformed document")
	}
}

func TestAppendExchange_LengthAlwaysEven(t *testing.T) {
	s, _ := newTestStore(t, 10)
	user := "@alice:example.org"

	for i := 1; i <= 15; i++ {
		err := s.AppendExchange(user,
			NewTurn(RoleUser, fmt.Sprintf("question %d", i)),
			NewTurn(RoleAssistant, fmt.Sprintf("answer %d", i)),
		)
		if err != nil {
			t.Fatalf("AppendExchange %d: %v", i, err)
		}

		want := 2 * i
		if want > 20 {
			want = 20
		}
		got := s.Len(user)
		if got != want {
			t.Errorf("after %d exchanges: len = %d, want %d", i, got, want)
		}
		if got%2 != 0 {
			t.Errorf("after %d exchanges: odd history length %d", i, got)
		}
	}
}

func TestAppendExchange_FIFOEviction(t *testing.T) {
	s, _ := newTestStore(t, 10)
	user := "@alice:example.org"

	for i := 1; i <= 11; i++ {
		if err := s.AppendExchange(user,
			NewTurn(RoleUser, fmt.Sprintf("question %d", i)),
			NewTurn(RoleAssistant, fmt.Sprintf("answer %d", i)),
		); err != nil {
			t.Fatal(err)
		}
	}

	h := s.History(user)
	if len(h) != 20 {
		t.Fatalf("history length = %d, want 20", len(h))
	}
	// The oldest pair (exchange 1) must be gone; exchange 2 is now first.
	if got := h[0].Text(); got != "question 2" {
		t.Errorf("oldest stored turn = %q, want %q", got, "question 2")
	}
	if got := h[19].Text(); got != "answer 11" {
		t.Errorf("newest stored turn = %q, want %q", got, "answer 11")
	}
}

func TestReset_RemovesEntryEntirely(t *testing.T) {
	s, path := newTestStore(t, 10)
	user := "@alice:example.org"

	if err := s.AppendExchange(user,
		NewTurn(RoleUser, "hello"),
		NewTurn(RoleAssistant, "hi"),
	); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(user); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if got := s.Len(user); got != 0 {
		t.Errorf("after reset: len = %d, want 0", got)
	}

	// The persisted document must no longer contain the user's key at all.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var table map[string]json.RawMessage
	if err := json.Unmarshal(data, &table); err != nil {
		t.Fatal(err)
	}
	if _, ok := table[user]; ok {
		t.Error("reset left the user's key in the persisted document")
	}

	// A fresh exchange starts a new history.
	if err := s.AppendExchange(user,
		NewTurn(RoleUser, "again"),
		NewTurn(RoleAssistant, "welcome back"),
	); err != nil {
		t.Fatal(err)
	}
	if got := s.Len(user); got != 2 {
		t.Errorf("after reset+append: len = %d, want 2", got)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")

	s1, err := Open(Config{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.AppendExchange("@bob:example.org",
		NewTurn(RoleUser, "kya scene hai"),
		NewTurn(RoleAssistant, "sab mast"),
	); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	h := s2.History("@bob:example.org")
	if len(h) != 2 {
		t.Fatalf("reopened history length = %d, want 2", len(h))
	}
	if h[0].Role != RoleUser || h[0].Text() != "kya scene hai" {
		t.Errorf("first turn = %+v", h[0])
	}
	if h[1].Role != RoleAssistant || h[1].Text() != "sab mast" {
		t.Errorf("second turn = %+v", h[1])
	}
}

func TestStore_DocumentShape(t *testing.T) {
	s, path := newTestStore(t, 10)
	if err := s.AppendExchange("@eve:example.org",
		NewTurn(RoleUser, "hello"),
		NewTurn(RoleAssistant, "hi"),
	); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var table map[string][]struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}
	if err := json.Unmarshal(data, &table); err != nil {
		t.Fatalf("document does not match {role, parts:[{text}]} shape: %v", err)
	}
	turns := table["@eve:example.org"]
	if len(turns) != 2 || turns[0].Role != "user" || len(turns[0].Parts) != 1 || turns[0].Parts[0].Text != "hello" {
		t.Errorf("unexpected document content: %+v", turns)
	}
}

func TestHistory_ReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t, 10)
	user := "@alice:example.org"
	if err := s.AppendExchange(user,
		NewTurn(RoleUser, "hello"),
		NewTurn(RoleAssistant, "hi"),
	); err != nil {
		t.Fatal(err)
	}

	h := s.History(user)
	h[0] = NewTurn(RoleUser, "mutated")

	if got := s.History(user)[0].Text(); got != "hello" {
		t.Errorf("mutation through returned history leaked into the store: %q", got)
	}
}
