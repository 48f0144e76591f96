package models

import (
	"context"
	"fmt"
	"strings"
)

// DummyLLM is a lightweight model implementation useful for local testing without API calls.
type DummyLLM struct {
	Prefix string
}

func NewDummyLLM(prefix string) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix}
}

// Generate echoes the last non-empty line of the prompt. The output is plain
// prose, so downstream parsing exercises its degraded path.
func (d *DummyLLM) Generate(_ context.Context, prompt string) (Response, error) {
	lines := strings.Split(prompt, "\n")
	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate != "" {
			last = candidate
			break
		}
	}
	if last == "" {
		last = "<empty prompt>"
	}
	return Response{Text: fmt.Sprintf("%s %s", d.Prefix, last)}, nil
}

var _ Agent = (*DummyLLM)(nil)
