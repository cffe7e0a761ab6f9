package llm

import (
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"

	"github.com/voocel/toolbridge/schema"
)

// DefaultProviderConfig returns a default provider configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Model:       "gpt-4.1-mini",
		Temperature: 0.7,
		MaxTokens:   2000,
		Timeout:     60 * time.Second,
	}
}

// NewProviderWithConfig creates a new LLM provider with custom configuration
func NewProviderWithConfig(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, schema.NewValidationError("api_key", "", "API key is required")
	}
	if config.Model == "" {
		return nil, schema.NewValidationError("model", "", "model is required")
	}
	return NewLiteLLMProvider(config)
}

// ProviderFamily names the API family a model is served by.
func ProviderFamily(model string) string {
	switch {
	case hasAnyPrefix(model, "claude"):
		return "anthropic"
	case hasAnyPrefix(model, "gemini"):
		return "gemini"
	default:
		// OpenAI and OpenAI-compatible endpoints
		return "openai"
	}
}

func hasAnyPrefix(model string, prefixes ...string) bool {
	return lo.ContainsBy(prefixes, func(p string) bool {
		return strings.HasPrefix(model, p)
	})
}

// ToolDefinitions describes tools listed by an MCP server for a model
// request. A missing schema type or property map is filled in so strict
// providers accept it.
func ToolDefinitions(list []mcp.Tool) []ToolDefinition {
	return lo.Map(list, func(t mcp.Tool, _ int) ToolDefinition {
		params := map[string]interface{}{
			"type":       lo.Ternary(t.InputSchema.Type == "", "object", t.InputSchema.Type),
			"properties": lo.Ternary(t.InputSchema.Properties == nil, map[string]any{}, t.InputSchema.Properties),
		}
		if len(t.InputSchema.Required) > 0 {
			params["required"] = t.InputSchema.Required
		}
		return ToolDefinition{
			Type: schema.ToolCallTypeFunction,
			Function: FunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		}
	})
}
