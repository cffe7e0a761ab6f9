// Package runner drives a model through tool calls served by a bridge
// engine. Each turn sanitizes the history, asks the model, and answers every
// tool call through an MCP client before asking again.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcptransport "github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"

	"github.com/voocel/toolbridge/llm"
	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/pkg/logger"
	"github.com/voocel/toolbridge/schema"
)

// ErrMaxTurns is returned when the model still asks for tools after the
// last allowed turn.
var ErrMaxTurns = errors.New("runner: exceeded max turns")

// ToolClient is the part of an MCP client the runner needs. The mcp-go
// client satisfies it.
type ToolClient interface {
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Config controls Runner behavior.
type Config struct {
	Provider     llm.Provider
	Client       ToolClient
	SystemPrompt string
	MaxTurns     int

	// Tools overrides discovery through tools/list.
	Tools    []llm.ToolDefinition
	Observer Observer
	Sanitize []llm.SanitizeOption
}

// Observer provides observability callbacks.
type Observer interface {
	OnModelResponse(ctx context.Context, turn int, resp *llm.ChatResponse)
	OnToolResult(ctx context.Context, call schema.ToolCall, result string, isError bool)
}

// NoopObserver is a default no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnModelResponse(ctx context.Context, turn int, resp *llm.ChatResponse) {}
func (NoopObserver) OnToolResult(ctx context.Context, call schema.ToolCall, result string, isError bool) {
}

// Runner executes the tool-call loop.
type Runner struct {
	config Config
}

// RunResult carries full execution results.
type RunResult struct {
	Message   schema.Message
	Messages  []schema.Message
	Usage     llm.Usage
	Turns     int
	ToolCalls int
}

// New creates a Runner and fills default config.
func New(cfg Config) *Runner {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 8
	}
	if cfg.Observer == nil {
		cfg.Observer = NoopObserver{}
	}
	return &Runner{config: cfg}
}

// Run continues history until the model answers without tool calls.
func (r *Runner) Run(ctx context.Context, history []schema.Message) (RunResult, error) {
	if r.config.Provider == nil {
		return RunResult{}, fmt.Errorf("runner: provider is nil")
	}
	if r.config.Client == nil {
		return RunResult{}, fmt.Errorf("runner: tool client is nil")
	}

	defs, err := r.toolDefinitions(ctx)
	if err != nil {
		return RunResult{}, err
	}

	messages := r.initialMessages(history)
	result := RunResult{}

	for turn := 1; turn <= r.config.MaxTurns; turn++ {
		messages = llm.SanitizeToolMessages(messages, r.config.Sanitize...)

		resp, err := r.config.Provider.Chat(ctx, llm.ChatRequest{
			Messages: messages,
			Tools:    defs,
		})
		if err != nil {
			return RunResult{}, fmt.Errorf("runner: turn %d: %w", turn, err)
		}
		r.config.Observer.OnModelResponse(ctx, turn, resp)

		result.Turns = turn
		result.Usage = addUsage(result.Usage, resp.Usage)

		reply := resp.Message
		reply.Role = schema.RoleAssistant
		messages = append(messages, reply)

		if !reply.HasToolCalls() {
			result.Message = reply
			result.Messages = messages
			return result, nil
		}

		for _, call := range reply.ToolCalls {
			text, isError, err := r.callTool(ctx, call)
			if err != nil {
				return RunResult{}, err
			}
			result.ToolCalls++
			r.config.Observer.OnToolResult(ctx, call, text, isError)
			messages = append(messages, schema.ToolMessage(call.ID, call.Function.Name, text))
		}
	}

	return RunResult{}, fmt.Errorf("%w %d", ErrMaxTurns, r.config.MaxTurns)
}

func (r *Runner) initialMessages(history []schema.Message) []schema.Message {
	messages := make([]schema.Message, 0, len(history)+1)
	if sys := strings.TrimSpace(r.config.SystemPrompt); sys != "" {
		hasSystem := lo.ContainsBy(history, func(m schema.Message) bool {
			return m.Role == schema.RoleSystem
		})
		if !hasSystem {
			messages = append(messages, schema.SystemMessage(sys))
		}
	}
	for _, m := range history {
		messages = append(messages, m.Clone())
	}
	return messages
}

func (r *Runner) toolDefinitions(ctx context.Context) ([]llm.ToolDefinition, error) {
	if r.config.Tools != nil {
		return r.config.Tools, nil
	}
	list, err := r.config.Client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("runner: list tools: %w", err)
	}
	return llm.ToolDefinitions(list.Tools), nil
}

// callTool runs one model tool call. Failures the model can react to come
// back as text with isError set. Only a transport failure or a cancelled ctx
// ends the run.
func (r *Runner) callTool(ctx context.Context, call schema.ToolCall) (string, bool, error) {
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return fmt.Sprintf("Invalid arguments for %s: %v", call.Function.Name, err), true, nil
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = call.Function.Name
	req.Params.Arguments = args

	logger.WithField("call_id", call.ID).Debugf("[RUNNER] calling tool %s", call.Function.Name)
	res, err := r.config.Client.CallTool(ctx, req)
	if err != nil {
		var transportErr *mcptransport.Error
		if errors.As(err, &transportErr) || ctx.Err() != nil {
			return "", false, fmt.Errorf("runner: call %s: %w", call.Function.Name, err)
		}
		// RPC errors such as an unknown tool are reported to the model.
		return err.Error(), true, nil
	}

	texts := make([]string, 0, len(res.Content))
	for _, c := range res.Content {
		if text, ok := mcp.AsTextContent(c); ok {
			texts = append(texts, text.Text)
		}
	}
	return strings.Join(texts, "\n"), res.IsError, nil
}

func addUsage(total, turn llm.Usage) llm.Usage {
	total.PromptTokens += turn.PromptTokens
	total.CompletionTokens += turn.CompletionTokens
	total.TotalTokens += turn.TotalTokens
	return total
}
