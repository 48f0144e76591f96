package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ToolHandler executes one tool invocation and returns the textual payload
// for the caller. A returned error becomes an isError result on the wire,
// never a dropped response.
type ToolHandler func(ctx context.Context, arguments map[string]any) (string, error)

// Options control how the server identifies itself during initialize.
type Options struct {
	Info            ServerInfo
	ProtocolVersion string
}

// Server answers MCP requests over a single transport. Tool invocations run
// concurrently; everything else is handled inline on the read loop.
type Server struct {
	transport Transport
	info      ServerInfo
	proto     string

	mu        sync.RWMutex
	handlers  map[string]ToolHandler
	specs     map[string]ToolDefinition
	toolOrder []string

	resources map[string]ResourceDefinition
	resText   map[string]string
	resOrder  []string

	wg sync.WaitGroup
}

// NewServer creates a server bound to the given transport.
func NewServer(transport Transport, opts Options) (*Server, error) {
	if transport == nil {
		return nil, errors.New("mcp: transport is nil")
	}

	info := opts.Info
	if strings.TrimSpace(info.Name) == "" {
		info.Name = "mcp-server"
	}
	if strings.TrimSpace(info.Version) == "" {
		info.Version = "dev"
	}

	proto := opts.ProtocolVersion
	if strings.TrimSpace(proto) == "" {
		proto = protocolVersion
	}

	return &Server{
		transport: transport,
		info:      info,
		proto:     proto,
		handlers:  make(map[string]ToolHandler),
		specs:     make(map[string]ToolDefinition),
		resources: make(map[string]ResourceDefinition),
		resText:   make(map[string]string),
	}, nil
}

// RegisterTool adds a tool using a lower-cased key. Duplicate names return an
// error.
func (s *Server) RegisterTool(def ToolDefinition, handler ToolHandler) error {
	key := strings.ToLower(strings.TrimSpace(def.Name))
	if key == "" {
		return errors.New("mcp: tool name is empty")
	}
	if handler == nil {
		return fmt.Errorf("mcp: tool %s has no handler", def.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[key]; exists {
		return fmt.Errorf("mcp: tool %s already registered", def.Name)
	}
	s.handlers[key] = handler
	s.specs[key] = def
	s.toolOrder = append(s.toolOrder, key)
	return nil
}

// RegisterResource adds a static resource served verbatim by resources/read.
func (s *Server) RegisterResource(def ResourceDefinition, text string) error {
	uri := strings.TrimSpace(def.URI)
	if uri == "" {
		return errors.New("mcp: resource uri is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.resources[uri]; exists {
		return fmt.Errorf("mcp: resource %s already registered", uri)
	}
	s.resources[uri] = def
	s.resText[uri] = text
	s.resOrder = append(s.resOrder, uri)
	return nil
}

// Serve reads requests until the transport closes, the context is cancelled,
// or a shutdown request arrives. Cancellation propagates into in-flight tool
// invocations so their outstanding model calls abort.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer s.wg.Wait()
	defer cancel()

	for {
		payload, err := s.transport.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("mcp: receive: %w", err)
		}

		var req request
		if err := json.Unmarshal(payload, &req); err != nil {
			s.replyError(ctx, nil, &rpcError{Code: codeParseError, Message: err.Error()})
			continue
		}

		if len(req.ID) == 0 || string(req.ID) == "null" {
			// Notification. Nothing in the tooling subset requires action.
			continue
		}

		switch req.Method {
		case "initialize":
			s.replyResult(ctx, req.ID, s.initializeResult())
		case "ping":
			s.replyResult(ctx, req.ID, struct{}{})
		case "tools/list":
			s.replyResult(ctx, req.ID, s.listToolsResult())
		case "tools/call":
			s.wg.Add(1)
			go func(req request) {
				defer s.wg.Done()
				result, rpcErr := s.callTool(ctx, req.Params)
				if rpcErr != nil {
					s.replyError(ctx, req.ID, rpcErr)
					return
				}
				s.replyResult(ctx, req.ID, result)
			}(req)
		case "resources/list":
			s.replyResult(ctx, req.ID, s.listResourcesResult())
		case "resources/read":
			result, rpcErr := s.readResource(req.Params)
			if rpcErr != nil {
				s.replyError(ctx, req.ID, rpcErr)
				continue
			}
			s.replyResult(ctx, req.ID, result)
		case "shutdown":
			s.replyResult(ctx, req.ID, struct{}{})
			return nil
		default:
			s.replyError(ctx, req.ID, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)})
		}
	}
}

func (s *Server) initializeResult() any {
	return map[string]any{
		"protocolVersion": s.proto,
		"serverInfo":      s.info,
		"capabilities": map[string]any{
			"tools": map[string]bool{
				"list": true,
				"call": true,
			},
			"resources": map[string]bool{
				"list": true,
				"read": true,
			},
		},
	}
}

func (s *Server) listToolsResult() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]ToolDefinition, 0, len(s.toolOrder))
	for _, key := range s.toolOrder {
		tools = append(tools, s.specs[key])
	}
	return map[string]any{"tools": tools}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (CallResult, *rpcError) {
	var payload struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(params, &payload); err != nil {
		return CallResult{}, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}

	s.mu.RLock()
	handler := s.handlers[strings.ToLower(strings.TrimSpace(payload.Name))]
	s.mu.RUnlock()

	if handler == nil {
		return errorResult(fmt.Sprintf("unknown tool: %s", payload.Name)), nil
	}

	text, err := handler(ctx, payload.Arguments)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return CallResult{Content: []Content{{Type: "text", Text: text}}}, nil
}

func (s *Server) listResourcesResult() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resources := make([]ResourceDefinition, 0, len(s.resOrder))
	for _, uri := range s.resOrder {
		resources = append(resources, s.resources[uri])
	}
	return map[string]any{"resources": resources}
}

func (s *Server) readResource(params json.RawMessage) (any, *rpcError) {
	var payload struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(params, &payload); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}

	s.mu.RLock()
	def, ok := s.resources[payload.URI]
	text := s.resText[payload.URI]
	s.mu.RUnlock()

	if !ok {
		return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("unknown resource: %s", payload.URI)}
	}

	return map[string]any{
		"contents": []ResourceContents{{
			URI:      def.URI,
			MimeType: def.MimeType,
			Text:     text,
		}},
	}, nil
}

func errorResult(message string) CallResult {
	return CallResult{
		IsError: true,
		Content: []Content{{Type: "text", Text: message}},
	}
}

func (s *Server) replyResult(ctx context.Context, id json.RawMessage, result any) {
	encoded, err := json.Marshal(result)
	if err != nil {
		s.replyError(ctx, id, &rpcError{Code: codeInternalError, Message: err.Error()})
		return
	}
	s.send(ctx, responseEnvelope{JSONRPC: "2.0", ID: id, Result: encoded})
}

func (s *Server) replyError(ctx context.Context, id json.RawMessage, rpcErr *rpcError) {
	s.send(ctx, responseEnvelope{JSONRPC: "2.0", ID: id, Error: rpcErr})
}

func (s *Server) send(ctx context.Context, env responseEnvelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	// A failed write means the peer is gone; the read loop notices separately.
	_ = s.transport.Send(ctx, payload)
}
