package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voocel/litellm"

	"github.com/voocel/toolbridge/pkg/logger"
	"github.com/voocel/toolbridge/schema"
)

// LiteLLMProvider implements Provider interface using the litellm library.
// Every history is sanitized before it leaves the process.
type LiteLLMProvider struct {
	client   *litellm.Client
	config   ProviderConfig
	sanitize []SanitizeOption
}

// NewLiteLLMProvider creates a new LiteLLM provider
func NewLiteLLMProvider(config ProviderConfig) (*LiteLLMProvider, error) {
	var client *litellm.Client

	switch ProviderFamily(config.Model) {
	case "anthropic":
		if config.BaseURL != "" {
			client = litellm.New(
				litellm.WithAnthropic(config.APIKey, config.BaseURL),
				litellm.WithDefaults(config.MaxTokens, config.Temperature),
			)
		} else {
			client = litellm.New(
				litellm.WithAnthropic(config.APIKey),
				litellm.WithDefaults(config.MaxTokens, config.Temperature),
			)
		}
	case "gemini":
		if config.BaseURL != "" {
			client = litellm.New(
				litellm.WithGemini(config.APIKey, config.BaseURL),
				litellm.WithDefaults(config.MaxTokens, config.Temperature),
			)
		} else {
			client = litellm.New(
				litellm.WithGemini(config.APIKey),
				litellm.WithDefaults(config.MaxTokens, config.Temperature),
			)
		}
	default:
		if config.BaseURL != "" {
			client = litellm.New(
				litellm.WithOpenAI(config.APIKey, config.BaseURL),
				litellm.WithDefaults(config.MaxTokens, config.Temperature),
			)
		} else {
			client = litellm.New(
				litellm.WithOpenAI(config.APIKey),
				litellm.WithDefaults(config.MaxTokens, config.Temperature),
			)
		}
	}

	p := &LiteLLMProvider{
		client:   client,
		config:   config,
		sanitize: []SanitizeOption{WithCallIDBinding()},
	}
	if config.LenientToolNames {
		p.sanitize = append(p.sanitize, WithLenientNameMatch())
	}
	return p, nil
}

// Chat implements the chat completion using litellm
func (p *LiteLLMProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	litellmReq := p.buildRequest(req)

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.client.Chat(ctx, litellmReq)
	if err != nil {
		return nil, schema.NewModelError(litellmReq.Model, "chat", classifyError(err))
	}
	logger.WithFields(logger.Fields{
		"model":    litellmReq.Model,
		"elapsed":  time.Since(start).String(),
		"tokens":   resp.Usage.TotalTokens,
		"messages": len(litellmReq.Messages),
	}).Debug("[LLM] completion finished")

	out := convertResponse(resp)
	out.ID = "chatcmpl-" + uuid.NewString()
	out.Model = litellmReq.Model
	return out, nil
}

// buildRequest applies defaults, sanitizes the history and converts it.
func (p *LiteLLMProvider) buildRequest(req ChatRequest) *litellm.Request {
	if req.Model == "" {
		req.Model = p.config.Model
	}
	if req.Temperature == 0 {
		req.Temperature = p.config.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = p.config.MaxTokens
	}

	msgs := NormalizeToolCallIDs(SanitizeToolMessages(req.Messages, p.sanitize...))

	litellmReq := &litellm.Request{
		Model:    req.Model,
		Messages: convertMessagesToLiteLLM(msgs),
		Tools:    convertToolsToLiteLLM(req.Tools),
	}
	if req.Temperature != 0 {
		litellmReq.Temperature = litellm.Float64Ptr(req.Temperature)
	}
	if req.MaxTokens != 0 {
		litellmReq.MaxTokens = litellm.IntPtr(req.MaxTokens)
	}
	return litellmReq
}

// classifyError maps provider failures onto the retryable sentinels.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return fmt.Errorf("%w: %v", schema.ErrModelRateLimit, err)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "overloaded"):
		return fmt.Errorf("%w: %v", schema.ErrModelAPIError, err)
	default:
		return err
	}
}

// Model returns the model name
func (p *LiteLLMProvider) Model() string {
	return p.config.Model
}

// Close closes the provider connection
func (p *LiteLLMProvider) Close() error {
	return nil
}
