package models

import (
	"context"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicLLM implements the Agent interface using Anthropic's Messages API.
// Ungrounded: Sources is always empty.
type AnthropicLLM struct {
	Client    *anthropic.Client
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

func NewAnthropicLLM(model, apiKey string, timeout time.Duration) *AnthropicLLM {
	cl := anthropic.NewClient(
		anthropicopt.WithAPIKey(apiKey),
	)
	return &AnthropicLLM{
		Client:    &cl,
		Model:     model, // e.g. "claude-3-5-sonnet-latest"
		MaxTokens: 4096,
		Timeout:   timeout,
	}
}

// Generate performs a single-turn completion and returns concatenated text.
func (a *AnthropicLLM) Generate(ctx context.Context, prompt string) (Response, error) {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	msg, err := a.Client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(a.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Response{}, err
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return Response{Text: b.String()}, nil
}

var _ Agent = (*AnthropicLLM)(nil)
