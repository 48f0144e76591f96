// Command server exposes the crypto knowledge tools over the Model Context
// Protocol on stdin/stdout. Configuration comes from the environment (a .env
// file is honoured); the backend credential is validated at startup so a
// missing key never surfaces mid-request.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/quantlattice/crypto-knowledge-server/pkg/knowledge"
	"github.com/quantlattice/crypto-knowledge-server/pkg/mcp"
	"github.com/quantlattice/crypto-knowledge-server/pkg/models"
)

const (
	serverName    = "crypto-knowledge-server"
	serverVersion = "0.1.0"

	defaultProvider = "gemini"
	defaultTimeout  = 120 * time.Second

	knowledgeResourceURI = "gemini://crypto-knowledge"
)

var defaultModels = map[string]string{
	"gemini":    "gemini-2.5-pro",
	"google":    "gemini-2.5-pro",
	"openai":    "gpt-4o",
	"anthropic": "claude-3-5-sonnet-latest",
	"claude":    "claude-3-5-sonnet-latest",
	"ollama":    "llama3",
}

func main() {
	// Stdout carries the protocol stream; everything human-readable goes to
	// stderr.
	log.SetOutput(os.Stderr)
	log.SetPrefix(serverName + ": ")

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := envOr("KNOWLEDGE_PROVIDER", defaultProvider)
	modelName := envOr("KNOWLEDGE_MODEL", defaultModels[provider])

	timeout := defaultTimeout
	if raw := os.Getenv("KNOWLEDGE_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			log.Fatalf("invalid KNOWLEDGE_TIMEOUT_SECONDS: %q", raw)
		}
		timeout = time.Duration(seconds) * time.Second
	}

	apiKey, err := credentialFor(provider)
	if err != nil {
		log.Fatalf("%v", err)
	}

	model, err := models.NewLLMProvider(ctx, provider, modelName, apiKey, timeout)
	if err != nil {
		log.Fatalf("init model backend: %v", err)
	}

	service, err := knowledge.NewService(model)
	if err != nil {
		log.Fatalf("init knowledge service: %v", err)
	}

	transport := mcp.NewStdioTransport(os.Stdin, os.Stdout)
	server, err := mcp.NewServer(transport, mcp.Options{
		Info: mcp.ServerInfo{Name: serverName, Version: serverVersion},
	})
	if err != nil {
		log.Fatalf("init server: %v", err)
	}

	registrations := []struct {
		tool        string
		description string
		argument    string
		argDoc      string
	}{
		{
			tool:        knowledge.ToolExplainConcept,
			description: "Explain a cryptocurrency or quantitative-finance concept",
			argument:    "topic",
			argDoc:      "The concept to explain, e.g. 'impermanent loss'.",
		},
		{
			tool:        knowledge.ToolStrategy,
			description: "Generate a detailed algorithmic trading strategy outline",
			argument:    "strategy_type",
			argDoc:      "The strategy family to outline, e.g. 'mean reversion'.",
		},
		{
			tool:        knowledge.ToolIndicator,
			description: "Analyse a technical indicator and show a reference implementation",
			argument:    "indicator",
			argDoc:      "The indicator to analyse, e.g. 'MACD'.",
		},
	}

	for _, reg := range registrations {
		def := mcp.ToolDefinition{
			Name:        reg.tool,
			Description: reg.description,
			InputSchema: argumentSchema(reg.argument, reg.argDoc),
		}
		if err := server.RegisterTool(def, toolHandler(service, reg.tool, reg.argument)); err != nil {
			log.Fatalf("register tool %s: %v", reg.tool, err)
		}
	}

	if err := server.RegisterResource(mcp.ResourceDefinition{
		URI:         knowledgeResourceURI,
		Name:        "crypto-knowledge",
		Description: "Static metadata describing this server.",
		MimeType:    "application/json",
	}, knowledgeBaseMetadata()); err != nil {
		log.Fatalf("register resource: %v", err)
	}

	log.Printf("serving over stdio (provider=%s model=%s)", provider, modelName)
	if err := server.Serve(ctx); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// toolHandler adapts one knowledge tool to the protocol handler signature.
func toolHandler(service *knowledge.Service, tool, argument string) mcp.ToolHandler {
	return func(ctx context.Context, arguments map[string]any) (string, error) {
		value, _ := arguments[argument].(string)
		record, err := service.Handle(ctx, knowledge.Request{Tool: tool, Argument: value})
		if err != nil {
			return "", err
		}
		return record.PrettyJSON()
	}
}

// credentialFor resolves the provider's API key. Local providers need none.
func credentialFor(provider string) (string, error) {
	switch provider {
	case "gemini", "google":
		key := os.Getenv("GOOGLE_API_KEY")
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
		if key == "" {
			return "", fmt.Errorf("GOOGLE_API_KEY or GEMINI_API_KEY is required for provider %q", provider)
		}
		return key, nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return "", fmt.Errorf("OPENAI_API_KEY is required for provider %q", provider)
		}
		return key, nil
	case "anthropic", "claude":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return "", fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", provider)
		}
		return key, nil
	default:
		return "", nil
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func argumentSchema(name, doc string) json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			name: map[string]any{
				"type":        "string",
				"description": doc,
			},
		},
		"required": []string{name},
	}
	data, _ := json.Marshal(schema)
	return data
}

func knowledgeBaseMetadata() string {
	metadata := map[string]any{
		"description": "Gemini-powered cryptocurrency and quantitative finance knowledge base",
		"capabilities": []string{
			"Concept explanations",
			"Trading strategy design",
			"Indicator implementation",
			"Reference code snippets",
		},
		"usage": "Invoke the tools with the relevant arguments",
	}
	data, _ := json.MarshalIndent(metadata, "", "  ")
	return string(data)
}
