package matrix

import (
	"strings"
	"testing"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

const (
	botID   = id.UserID("@juju:example.org")
	botName = "JUJU"
)

func TestMentionsBot(t *testing.T) {
	tests := []struct {
		name    string
		content *event.MessageEventContent
		want    bool
	}{
		{"nil content", nil, false},
		{
			"structured mention",
			&event.MessageEventContent{
				Body:     "hey you",
				Mentions: &event.Mentions{UserIDs: []id.UserID{botID}},
			},
			true,
		},
		{
			"structured mention of someone else",
			&event.MessageEventContent{
				Body:     "hey you",
				Mentions: &event.Mentions{UserIDs: []id.UserID{"@alice:example.org"}},
			},
			false,
		},
		{
			"user ID in body",
			&event.MessageEventContent{Body: "@juju:example.org hello"},
			true,
		},
		{
			"display name in body",
			&event.MessageEventContent{Body: "JUJU: hello"},
			true,
		},
		{
			"no mention",
			&event.MessageEventContent{Body: "just chatting"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MentionsBot(tt.content, botID, botName); got != tt.want {
				t.Errorf("MentionsBot = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStripMention(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"display name prefix with colon", "JUJU: hello there", "hello there"},
		{"display name prefix bare", "JUJU hello there", "hello there"},
		{"user ID marker", "@juju:example.org hello", "hello"},
		{"user ID mid-sentence", "hello @juju:example.org how are you", "hello  how are you"},
		{"only a mention", "JUJU:", ""},
		{"only the user ID", "@juju:example.org", ""},
		{"whitespace around", "   JUJU:   hi   ", "hi"},
		{"no marker at all", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMention(tt.body, botID, botName); got != tt.want {
				t.Errorf("StripMention(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 2000); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}

	long := strings.Repeat("x", 2500)
	if got := Truncate(long, 2000); len(got) != 2000 {
		t.Errorf("len = %d, want 2000", len(got))
	}

	// Rune-safe: emoji are never split.
	emoji := strings.Repeat("❤️", 10)
	got := Truncate(emoji, 5)
	if !strings.HasPrefix(emoji, got) {
		t.Errorf("Truncate cut inside a rune: %q", got)
	}
}
