// Package gemini is the generation gateway: it translates Juju's turn
// sequence into a Gemini generateContent call and extracts the reply text.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/bdobrica/Juju/internal/juju/memory"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-3-flash-preview"

// Config configures the Gemini client.
type Config struct {
	// APIKey authenticates against the Gemini API.
	APIKey string

	// Model is the generation model identifier. Defaults to DefaultModel.
	Model string

	// Fallback is returned when the backend answers with no candidates or an
	// empty first text part. A malformed response never fails the turn;
	// transport and auth errors still do.
	Fallback string
}

// Client calls the Gemini generateContent API. Safe for concurrent use.
type Client struct {
	client   *genai.Client
	model    string
	fallback string
}

// New creates a Gemini client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Client{
		client:   client,
		model:    cfg.Model,
		fallback: cfg.Fallback,
	}, nil
}

// Generate sends the assembled turns to the model and returns the reply
// text. When useSearch is true the Google Search grounding tool is attached
// so the model can augment its answer with live web results.
//
// The call blocks until the backend answers or ctx is cancelled; there is no
// retry.
func (c *Client) Generate(ctx context.Context, turns []memory.Turn, useSearch bool) (string, error) {
	contents, config := buildRequest(turns)

	if useSearch {
		config.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}

	return extractText(resp, c.fallback), nil
}

// buildRequest maps Juju turns onto the Gemini wire vocabulary: the system
// turn becomes the systemInstruction, assistant turns take the model role,
// everything else the user role.
func buildRequest(turns []memory.Turn) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	contents := make([]*genai.Content, 0, len(turns))

	for _, t := range turns {
		content := &genai.Content{Parts: turnParts(t)}
		switch t.Role {
		case memory.RoleSystem:
			config.SystemInstruction = content
			continue
		case memory.RoleAssistant:
			content.Role = string(genai.RoleModel)
		default:
			content.Role = string(genai.RoleUser)
		}
		contents = append(contents, content)
	}

	return contents, config
}

// turnParts converts a turn's parts to the SDK part type.
func turnParts(t memory.Turn) []*genai.Part {
	parts := make([]*genai.Part, 0, len(t.Parts))
	for _, p := range t.Parts {
		parts = append(parts, &genai.Part{Text: p.Text})
	}
	return parts
}

// extractText pulls the first candidate's first text part out of a response,
// substituting fallback when the shape is missing or empty.
func extractText(resp *genai.GenerateContentResponse, fallback string) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return fallback
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 {
		return fallback
	}
	if text := cand.Content.Parts[0].Text; text != "" {
		return text
	}
	return fallback
}
