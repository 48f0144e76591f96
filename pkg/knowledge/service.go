package knowledge

import (
	"context"
	"errors"
	"strings"

	"github.com/quantlattice/crypto-knowledge-server/pkg/models"
)

// Tool names accepted by the dispatcher.
const (
	ToolExplainConcept = "explain_crypto_concept"
	ToolStrategy       = "get_crypto_strategy"
	ToolIndicator      = "analyze_crypto_indicator"
)

// Tools returns the registered tool names in registration order.
func Tools() []string {
	return []string{ToolExplainConcept, ToolStrategy, ToolIndicator}
}

// KnownTool reports whether name is one of the registered tools.
func KnownTool(name string) bool {
	switch name {
	case ToolExplainConcept, ToolStrategy, ToolIndicator:
		return true
	}
	return false
}

// Request is a single tool invocation. Immutable; discarded once handled.
type Request struct {
	Tool     string
	Argument string
}

// Service dispatches tool invocations through the pipeline: validate, build
// the prompt, call the model, parse. It holds no per-request state and is safe
// for concurrent use.
type Service struct {
	model models.Agent
}

// NewService wires the dispatcher to a model backend.
func NewService(model models.Agent) (*Service, error) {
	if model == nil {
		return nil, errors.New("knowledge service requires a model backend")
	}
	return &Service{model: model}, nil
}

// Handle runs one invocation to completion. It returns either a fully
// populated record or a typed *Error; validation failures short-circuit
// before any network call, and parse irregularities never surface as errors.
func (s *Service) Handle(ctx context.Context, req Request) (*Record, error) {
	tool := strings.TrimSpace(req.Tool)
	if !KnownTool(tool) {
		return nil, newError(InvalidTool, "unknown tool: %q", req.Tool)
	}

	if strings.TrimSpace(req.Argument) == "" {
		return nil, newError(InvalidArgument, "tool %s requires a non-empty argument", tool)
	}

	spec := BuildPrompt(tool, req.Argument)

	resp, err := s.model.Generate(ctx, spec.Instruction)
	if err != nil {
		return nil, newError(Upstream, "model backend: %v", err)
	}

	record := Parse(resp, spec.RequiredFields)
	return &record, nil
}
