package llm

import (
	"context"
	"time"

	"github.com/voocel/toolbridge/schema"
)

// Provider represents an LLM provider interface
type Provider interface {
	// Chat sends a chat completion request
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Model returns the model name
	Model() string

	// Close closes the provider connection
	Close() error
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Messages    []schema.Message `json:"messages"`
	Model       string           `json:"model,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	ID           string         `json:"id"`
	Model        string         `json:"model"`
	Message      schema.Message `json:"message"`
	FinishReason string         `json:"finish_reason"`
	Usage        Usage          `json:"usage"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolDefinition represents a tool definition for function calling
type ToolDefinition struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef represents a function definition
type FunctionDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ProviderConfig contains configuration for LLM providers
type ProviderConfig struct {
	APIKey      string        `json:"api_key" mapstructure:"api_key"`
	BaseURL     string        `json:"base_url,omitempty" mapstructure:"base_url"`
	Model       string        `json:"model" mapstructure:"model"`
	Temperature float64       `json:"temperature,omitempty" mapstructure:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
	Timeout     time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`

	// LenientToolNames relaxes how tool messages without a call id are paired.
	LenientToolNames bool `json:"lenient_tool_names,omitempty" mapstructure:"lenient_tool_names"`
}
