package runner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/voocel/toolbridge/llm"
	"github.com/voocel/toolbridge/schema"
	"github.com/voocel/toolbridge/server"
	"github.com/voocel/toolbridge/tools"
	"github.com/voocel/toolbridge/transport"
)

type scriptedProvider struct {
	replies  []schema.Message
	requests []llm.ChatRequest
}

func (p *scriptedProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if len(p.replies) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	msg := p.replies[0]
	p.replies = p.replies[1:]
	return &llm.ChatResponse{
		Model:   "scripted",
		Message: msg,
		Usage:   llm.Usage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12},
	}, nil
}

func (p *scriptedProvider) Model() string { return "scripted" }
func (p *scriptedProvider) Close() error  { return nil }

func newEchoTool() tools.Tool {
	s := tools.CreateToolSchema("echo", map[string]interface{}{
		"text": tools.StringProperty("text"),
	}, []string{"text"})
	return tools.NewFunctionTool(tools.NewBaseTool("echo", "Echo the text back", s),
		func(ctx context.Context, args map[string]any) (*tools.CallResult, error) {
			text, _ := args["text"].(string)
			if text == "" {
				return tools.ErrorResult("text is required"), nil
			}
			return tools.TextResult("echo: " + text), nil
		})
}

func newClient(t *testing.T) *client.Client {
	t.Helper()
	registry := tools.MustRegistry(newEchoTool())
	tr := transport.New(server.New(mcp.Implementation{Name: "local", Version: "test"}, registry))
	c := client.NewClient(tr)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: "runner-test", Version: "test"}
	if _, err := c.Initialize(ctx, req); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return c
}

func TestRunnerToolLoop(t *testing.T) {
	provider := &scriptedProvider{replies: []schema.Message{
		schema.AssistantMessage("", schema.NewToolCall("call_1", "echo", `{"text":"hi"}`)),
		schema.AssistantMessage("done"),
	}}
	r := New(Config{Provider: provider, Client: newClient(t), SystemPrompt: "be brief"})

	result, err := r.Run(context.Background(), []schema.Message{schema.UserMessage("start")})
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if result.Message.Content != "done" {
		t.Fatalf("unexpected response: %q", result.Message.Content)
	}
	if result.Turns != 2 || result.ToolCalls != 1 {
		t.Fatalf("unexpected counters: turns=%d tool_calls=%d", result.Turns, result.ToolCalls)
	}
	if result.Usage.TotalTokens != 24 {
		t.Fatalf("usage not accumulated: %+v", result.Usage)
	}

	first := provider.requests[0]
	if len(first.Tools) != 1 || first.Tools[0].Function.Name != "echo" {
		t.Fatalf("tools not discovered: %+v", first.Tools)
	}
	if first.Messages[0].Role != schema.RoleSystem {
		t.Fatalf("system prompt missing: %+v", first.Messages)
	}

	second := provider.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != schema.RoleTool || last.ToolCallID != "call_1" || last.Content != "echo: hi" {
		t.Fatalf("unexpected tool message: %+v", last)
	}
}

func TestRunnerSanitizesHistory(t *testing.T) {
	provider := &scriptedProvider{replies: []schema.Message{schema.AssistantMessage("ok")}}
	r := New(Config{Provider: provider, Client: newClient(t)})

	history := []schema.Message{
		schema.UserMessage("hi"),
		schema.ToolMessage("ghost", "echo", "stale output"),
	}
	if _, err := r.Run(context.Background(), history); err != nil {
		t.Fatalf("run error: %v", err)
	}

	sent := provider.requests[0].Messages
	if len(sent) != 2 || sent[1].Role != schema.RoleAssistant || sent[1].Content != "stale output" {
		t.Fatalf("orphan tool message not converted: %+v", sent)
	}
	if history[1].Role != schema.RoleTool {
		t.Fatalf("caller history mutated")
	}
}

func TestRunnerReportsToolFailuresToModel(t *testing.T) {
	provider := &scriptedProvider{replies: []schema.Message{
		schema.AssistantMessage("",
			schema.NewToolCall("a", "missing_tool", `{}`),
			schema.NewToolCall("b", "echo", `{"text":""}`),
			schema.NewToolCall("c", "echo", `not json`),
		),
		schema.AssistantMessage("recovered"),
	}}
	var results []string
	obs := &recordingObserver{onTool: func(call schema.ToolCall, text string, isError bool) {
		if !isError {
			t.Errorf("call %s should have failed", call.ID)
		}
		results = append(results, text)
	}}
	r := New(Config{Provider: provider, Client: newClient(t), Observer: obs})

	result, err := r.Run(context.Background(), []schema.Message{schema.UserMessage("go")})
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if result.Message.Content != "recovered" {
		t.Fatalf("unexpected response: %q", result.Message.Content)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 tool results, got %v", results)
	}
	if !strings.Contains(results[0], "Tool not found: missing_tool") {
		t.Fatalf("unexpected unknown-tool text: %q", results[0])
	}
	if results[1] != "text is required" {
		t.Fatalf("unexpected validation text: %q", results[1])
	}
	if !strings.HasPrefix(results[2], "Invalid arguments for echo") {
		t.Fatalf("unexpected decode text: %q", results[2])
	}
}

func TestRunnerMaxTurns(t *testing.T) {
	call := schema.NewToolCall("loop", "echo", `{"text":"again"}`)
	provider := &scriptedProvider{replies: []schema.Message{
		schema.AssistantMessage("", call),
		schema.AssistantMessage("", call),
	}}
	r := New(Config{Provider: provider, Client: newClient(t), MaxTurns: 2})

	_, err := r.Run(context.Background(), []schema.Message{schema.UserMessage("spin")})
	if !errors.Is(err, ErrMaxTurns) {
		t.Fatalf("expected ErrMaxTurns, got %v", err)
	}
}

func TestRunnerRequiresDependencies(t *testing.T) {
	if _, err := New(Config{}).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected an error without a provider")
	}
	if _, err := New(Config{Provider: &scriptedProvider{}}).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected an error without a client")
	}
}

type recordingObserver struct {
	NoopObserver
	onTool func(call schema.ToolCall, text string, isError bool)
}

func (o *recordingObserver) OnToolResult(ctx context.Context, call schema.ToolCall, text string, isError bool) {
	o.onTool(call, text, isError)
}
