package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// ---------------------------- Ollama -----------------------------------------

// OllamaLLM talks to a local Ollama daemon. Useful for offline development;
// ungrounded like the other alternates.
type OllamaLLM struct {
	Client  *ollama.Client
	Model   string
	Timeout time.Duration
}

func NewOllamaLLM(model string, timeout time.Duration) (*OllamaLLM, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	c := ollama.NewClient(u, httpClient)
	return &OllamaLLM{Client: c, Model: model, Timeout: timeout}, nil
}

func (o *OllamaLLM) Generate(ctx context.Context, prompt string) (Response, error) {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	var text strings.Builder

	req := &ollama.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
	}

	if err := o.Client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		if gr.Response != "" {
			text.WriteString(gr.Response)
		}
		return nil
	}); err != nil {
		return Response{}, err
	}

	return Response{Text: text.String()}, nil
}

var _ Agent = (*OllamaLLM)(nil)
