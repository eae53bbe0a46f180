// Package commands recognizes Juju's literal text commands and decides what
// happens to the rest of the message before any generation call is made.
package commands

import (
	"regexp"
	"strings"
)

// searchPrefix strips exactly one leading search/ask keyword and the
// whitespace run after it. Activation itself requires a literal space
// (see Dispatch); this only cleans the prompt.
var searchPrefix = regexp.MustCompile(`(?i)^(search|ask)\s+`)

// Config holds the canned replies for the terminal commands. All fields are
// required; the persona document supplies defaults.
type Config struct {
	ResetDone string
	Help      string
	Ping      string
	About     string
}

// Result is the outcome of dispatching one message.
//
// A terminal result (Terminal true) carries the canned Reply and, for the
// reset command, the Reset flag; the caller sends the reply and stops — no
// generation call, no memory write beyond the reset itself.
//
// A non-terminal result carries the Prompt text to forward to generation
// (with any search/ask keyword stripped) and whether the web-search
// capability should be requested.
type Result struct {
	Terminal  bool
	Reply     string
	Reset     bool
	Prompt    string
	UseSearch bool
}

// Dispatcher matches trimmed, mention-stripped message content against the
// fixed command set.
type Dispatcher struct {
	cfg Config
}

// New creates a Dispatcher with the given canned replies.
func New(cfg Config) *Dispatcher {
	return &Dispatcher{cfg: cfg}
}

// Dispatch classifies content. Exact matching (not substring) for
// reset/help/ping/about is case-insensitive; search/ask are case-insensitive
// prefix forms that continue to generation.
func (d *Dispatcher) Dispatch(content string) Result {
	content = strings.TrimSpace(content)
	lower := strings.ToLower(content)

	switch lower {
	case "reset":
		return Result{Terminal: true, Reset: true, Reply: d.cfg.ResetDone}
	case "help":
		return Result{Terminal: true, Reply: d.cfg.Help}
	case "ping":
		return Result{Terminal: true, Reply: d.cfg.Ping}
	case "about":
		return Result{Terminal: true, Reply: d.cfg.About}
	}

	// A literal "search " / "ask " space is what turns search on; a tab or
	// newline after the keyword is ordinary conversation.
	if strings.HasPrefix(lower, "search ") || strings.HasPrefix(lower, "ask ") {
		return Result{
			Prompt:    searchPrefix.ReplaceAllString(content, ""),
			UseSearch: true,
		}
	}

	return Result{Prompt: content}
}
