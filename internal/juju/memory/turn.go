// Package memory implements Juju's per-user short-term conversation memory.
// Each user gets a bounded, ordered sequence of turns that is persisted to a
// single JSON document and replayed into the prompt on every exchange.
package memory

// Turn roles. The generation gateway maps these onto the backend's own role
// vocabulary; the persisted document always uses these strings.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Part is one text fragment of a turn. The persisted document mirrors the
// generation backend's content shape, so a turn carries a parts array even
// though Juju only ever writes a single text part.
type Part struct {
	Text string `json:"text"`
}

// Turn is a single role-tagged message in a conversation. Immutable once
// created.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// NewTurn creates a single-part turn.
func NewTurn(role, text string) Turn {
	return Turn{Role: role, Parts: []Part{{Text: text}}}
}

// Text returns the text of the first part, or "" for an empty turn.
func (t Turn) Text() string {
	if len(t.Parts) == 0 {
		return ""
	}
	return t.Parts[0].Text
}

// History is the ordered turn sequence for one user, oldest first. After any
// update its length is even (user+assistant pairs) and never exceeds twice
// the configured exchange cap.
type History []Turn
