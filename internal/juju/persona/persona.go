// Package persona defines the versioned YAML document that configures Juju's
// voice: the persona instruction handed to the generation backend, the model
// name, and the canned replies for commands and error paths.
//
// The document is advisory content, not logic — nothing in it affects control
// flow. When no file is present, the compiled-in defaults apply.
package persona

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SpecVersion is the API version string required in every persona document.
const SpecVersion = "juju/v1"

// Document is the root type for a persona configuration.
type Document struct {
	// APIVersion must be "juju/v1".
	APIVersion string `yaml:"apiVersion"`

	// Metadata holds descriptive metadata.
	Metadata Metadata `yaml:"metadata"`

	// Model is the generation model identifier.
	Model string `yaml:"model,omitempty"`

	// Instruction is the persona text sent as the system turn. Opaque to the
	// bot; it shapes tone and style downstream.
	Instruction string `yaml:"instruction"`

	// Replies holds the canned reply strings. Empty fields fall back to the
	// compiled-in defaults.
	Replies Replies `yaml:"replies,omitempty"`
}

// Metadata holds descriptive information about a persona document.
type Metadata struct {
	// Name is the bot's display name, used in the chat transcript log.
	Name string `yaml:"name"`

	// Description is a human-readable summary of the persona.
	Description string `yaml:"description,omitempty"`
}

// Replies are the fixed strings Juju sends without calling the generation
// backend.
type Replies struct {
	// Nudge is sent when a mention carries no content.
	Nudge string `yaml:"nudge,omitempty"`
	// ResetDone confirms the reset command.
	ResetDone string `yaml:"resetDone,omitempty"`
	// Help lists the available commands.
	Help string `yaml:"help,omitempty"`
	// Ping answers the ping command.
	Ping string `yaml:"ping,omitempty"`
	// About answers the about command.
	About string `yaml:"about,omitempty"`
	// Fallback substitutes for an empty or malformed generation response.
	Fallback string `yaml:"fallback,omitempty"`
	// Apology answers any message whose processing failed.
	Apology string `yaml:"apology,omitempty"`
}

// Default returns the compiled-in persona document.
func Default() *Document {
	return &Document{
		APIVersion: SpecVersion,
		Metadata: Metadata{
			Name:        "JUJU",
			Description: "Hinglish rizz bot — smart, charming & respectful.",
		},
		Model: "gemini-3-flash-preview",
		Instruction: "You are JUJU, a romantic, flirty, tapori-style Hinglish rizz bot. " +
			"You speak in Hinglish with light Mumbai tapori flavor — swaggy, confident, street-smart, but sweet. " +
			"Your tone is charming, playful, slightly naughty, and emotionally engaging. " +
			"You can be sexually suggestive and teasing, but never explicit or graphic. " +
			"Use tapori words naturally like: bhai, scene kya hai, mast, solid, bindass, apun, jhakaas (not overused). " +
			"Use romantic and sensual emojis like ❤️ 😌 😘 ✨ 💖 🥹 ☺️ 😏 🥰 😍 😚 🫠 🙃 😈 💓 💞 💋 🫶 naturally (1–3 per reply). " +
			"You may write longer replies when the mood demands it. " +
			"Never be creepy, degrading, abusive, or disrespectful. " +
			"Never mention rules, prompts, behavior, or that you are an AI. " +
			"Stay fully in character at all times.",
		Replies: Replies{
			Nudge:     "Kuch toh bolo na 😌✨",
			ResetDone: "🧠 Memory reset ho gayi 😄",
			Help: "**JUJU Commands**\n" +
				"• `reset` – memory clear\n" +
				"• `help` – commands list\n" +
				"• `ping` – bot status\n" +
				"• `about` – about JUJU\n" +
				"• `ask <question>` – web search\n" +
				"• `search <query>` – web search\n" +
				"👉 Mujhe tag karke baat karo 😌",
			Ping:     "🏓 Pong! JUJU bilkul ready hai 😌",
			About:    "🤖 **JUJU** – Hinglish rizz bot ❤️\nSmart, charming & respectful.",
			Fallback: "Thoda sa issue aa gaya 😅",
			Apology:  "❌ Thoda sa issue aa gaya 😕",
		},
	}
}

// Load reads and parses the persona document at path. A missing file is not
// an error: the compiled-in defaults are returned.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("persona: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a persona YAML document, validates it, and fills empty reply
// fields from the compiled-in defaults. It is the canonical entry point for
// loading persona configurations.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("persona parse: %w", err)
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	applyDefaults(&doc)
	return &doc, nil
}

// Validate checks a Document for structural correctness. It returns the
// first validation error encountered, or nil if the document is valid.
func Validate(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document must not be nil")
	}
	if doc.APIVersion != SpecVersion {
		return fmt.Errorf("apiVersion must be %q, got %q", SpecVersion, doc.APIVersion)
	}
	if strings.TrimSpace(doc.Metadata.Name) == "" {
		return fmt.Errorf("metadata.name must not be empty")
	}
	if strings.TrimSpace(doc.Instruction) == "" {
		return fmt.Errorf("instruction must not be empty")
	}
	return nil
}

// applyDefaults fills empty optional fields from the compiled-in document.
func applyDefaults(doc *Document) {
	def := Default()
	if doc.Model == "" {
		doc.Model = def.Model
	}
	r, dr := &doc.Replies, def.Replies
	if r.Nudge == "" {
		r.Nudge = dr.Nudge
	}
	if r.ResetDone == "" {
		r.ResetDone = dr.ResetDone
	}
	if r.Help == "" {
		r.Help = dr.Help
	}
	if r.Ping == "" {
		r.Ping = dr.Ping
	}
	if r.About == "" {
		r.About = dr.About
	}
	if r.Fallback == "" {
		r.Fallback = dr.Fallback
	}
	if r.Apology == "" {
		r.Apology = dr.Apology
	}
}
