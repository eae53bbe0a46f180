// Package prompt assembles the turn sequence sent to the generation backend:
// one system turn, the user's stored history, and the current user turn.
package prompt

import (
	"fmt"
	"time"

	"github.com/bdobrica/Juju/internal/juju/memory"
)

// dateLayout renders a human-readable calendar date, e.g.
// "Monday, 12 January 2025".
const dateLayout = "Monday, 2 January 2006"

// Assembler builds generation prompts around a fixed persona instruction.
type Assembler struct {
	// Instruction is the persona text for the system turn.
	Instruction string

	// Now supplies the current time for the date annotation. Defaults to
	// time.Now when nil.
	Now func() time.Time
}

// SystemTurn returns the system-instruction turn: the persona text plus the
// current calendar date, annotated so the model only uses it when asked.
func (a *Assembler) SystemTurn() memory.Turn {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	text := fmt.Sprintf(
		"%s IMPORTANT: Today's date is %s. Use this only if asked about the date or day.",
		a.Instruction, now().Format(dateLayout),
	)
	return memory.NewTurn(memory.RoleSystem, text)
}

// Assemble builds the full turn sequence for one generation call: system
// turn, stored history in order, then the current user turn.
func (a *Assembler) Assemble(history memory.History, userText string) []memory.Turn {
	turns := make([]memory.Turn, 0, len(history)+2)
	turns = append(turns, a.SystemTurn())
	turns = append(turns, history...)
	turns = append(turns, memory.NewTurn(memory.RoleUser, userText))
	return turns
}

// ComposeReply merges the quoted text of a replied-to message with the
// current message into a single user-turn text.
func ComposeReply(quoted, current string) string {
	return "User replied to:\n" + quoted + "\n\nUser says:\n" + current
}
