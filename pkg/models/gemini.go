package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ---------------------------- Google Gemini ----------------------------------

// GeminiLLM is the grounded backend: the Google Search retrieval tool is
// enabled on every request so the model may research the topic before
// answering. Citations returned by the backend are surfaced as Sources.
type GeminiLLM struct {
	Client  *genai.Client
	Model   string
	Timeout time.Duration
}

// NewGeminiLLM builds the client from an explicitly supplied API key so that a
// missing credential is caught at construction time, not mid-request.
func NewGeminiLLM(ctx context.Context, model, apiKey string, timeout time.Duration) (*GeminiLLM, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing Gemini API key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiLLM{Client: client, Model: model, Timeout: timeout}, nil
}

func (g *GeminiLLM) Generate(ctx context.Context, prompt string) (Response, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	model := g.Client.GenerativeModel(g.Model)
	model.Tools = []*genai.Tool{
		{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, errors.New("gemini: empty response")
	}

	candidate := resp.Candidates[0]

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	var sources []Source
	if candidate.CitationMetadata != nil {
		for _, cs := range candidate.CitationMetadata.CitationSources {
			if cs == nil || cs.URI == nil || *cs.URI == "" {
				continue
			}
			sources = append(sources, Source{Title: *cs.URI, URL: *cs.URI})
		}
	}

	return Response{Text: text.String(), Sources: sources}, nil
}

var _ Agent = (*GeminiLLM)(nil)
