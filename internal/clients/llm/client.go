// Package llm provides the on-demand deep-analysis side channel. It is never
// called from the polling pipeline; only the analysis endpoint reaches it.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

const systemPrompt = `You are a markets analyst. Given a headline and the current
market snapshot, explain the likely market impact: affected assets, direction,
magnitude and the key levels to watch. Be concrete and brief.`

// Client wraps the Anthropic messages API.
type Client struct {
	client anthropic.Client
	model  string
	log    zerolog.Logger
}

// NewClient returns nil when no API key is configured; callers treat a nil
// client as the feature being disabled.
func NewClient(apiKey, model string, log zerolog.Logger) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log.With().Str("client", "llm").Logger(),
	}
}

// Analyze requests a one-shot analysis of a headline against the provided
// snapshot context. Errors are returned to the caller verbatim; there is no
// retry or fallback on this path.
func (c *Client) Analyze(ctx context.Context, headline, snapshot string) (string, error) {
	prompt := fmt.Sprintf("Headline: %s\n\nCurrent market snapshot:\n%s", headline, snapshot)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("analysis response contained no text")
	}

	return out.String(), nil
}
