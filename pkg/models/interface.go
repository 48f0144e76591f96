package models

import (
	"context"
)

// Source is a citation attached to a grounded completion.
type Source struct {
	Title string
	URL   string
}

// Response carries the generated text plus any grounding citations the
// backend attached. Sources may be empty; callers must not rely on them.
type Response struct {
	Text    string
	Sources []Source
}

// Agent is the capability every model backend implements. Generate performs a
// single bounded completion; retry policy belongs to the caller.
type Agent interface {
	Generate(ctx context.Context, prompt string) (Response, error)
}
