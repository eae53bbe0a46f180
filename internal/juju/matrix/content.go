package matrix

// content.go holds the pure-string helpers for recognizing whom a message is
// addressed to and for reducing a mention to its payload text.

import (
	"strings"
	"unicode/utf8"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// MentionsBot reports whether a message is addressed to the bot: either the
// structured m.mentions field lists the bot's user ID, or the plain body
// carries the bot's user ID or display name (older clients).
func MentionsBot(content *event.MessageEventContent, botID id.UserID, displayName string) bool {
	if content == nil {
		return false
	}
	if content.Mentions != nil {
		for _, uid := range content.Mentions.UserIDs {
			if uid == botID {
				return true
			}
		}
	}
	if strings.Contains(content.Body, botID.String()) {
		return true
	}
	return displayName != "" && strings.Contains(content.Body, displayName)
}

// StripMention removes the bot's mention markers from a message body: every
// occurrence of the bot's full user ID, and a leading "DisplayName:" or
// "DisplayName" prefix (the plain-text form clients render for pills). The
// result is whitespace-trimmed.
func StripMention(body string, botID id.UserID, displayName string) string {
	body = strings.ReplaceAll(body, botID.String(), "")
	body = strings.TrimSpace(body)

	if displayName != "" {
		if rest, ok := strings.CutPrefix(body, displayName); ok {
			rest = strings.TrimPrefix(rest, ":")
			body = rest
		}
	}

	return strings.TrimSpace(body)
}

// Truncate hard-caps s at max runes, cutting on a rune boundary so that a
// multi-byte character is never split.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
