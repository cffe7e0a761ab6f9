package schema

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/voocel/toolbridge/pkg/json"
)

// Role defines message roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	default:
		return false
	}
}

// ToolCallTypeFunction is the only tool call type model APIs emit today.
const ToolCallTypeFunction = "function"

// Message is a chat message in the OpenAI wire shape.
//
// The role decides which optional fields may be set: ToolCalls belongs to
// assistant messages, ToolCallID to tool messages. Name is allowed on any
// role. Validate enforces this at the system boundary.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall represents a tool invocation request issued by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant turn, optionally requesting tool calls.
func AssistantMessage(content string, calls ...ToolCall) Message {
	msg := Message{Role: RoleAssistant, Content: content}
	if len(calls) > 0 {
		msg.ToolCalls = append([]ToolCall(nil), calls...)
	}
	return msg
}

// ToolMessage builds the reply to the tool call identified by callID.
func ToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Name: name, Content: content}
}

// NewToolCall builds a function tool call.
func NewToolCall(id, name, arguments string) ToolCall {
	return ToolCall{
		ID:       id,
		Type:     ToolCallTypeFunction,
		Function: FunctionCall{Name: name, Arguments: arguments},
	}
}

// HasToolCalls reports whether tool calls are present.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Clone deep-copies the message. A nil ToolCalls stays nil.
func (m Message) Clone() Message {
	clone := m
	clone.ToolCalls = nil
	if len(m.ToolCalls) > 0 {
		if err := copier.CopyWithOption(&clone.ToolCalls, &m.ToolCalls, copier.Option{DeepCopy: true}); err != nil || len(clone.ToolCalls) != len(m.ToolCalls) {
			clone.ToolCalls = slices.Clone(m.ToolCalls)
		}
	}
	return clone
}

// Validate checks the role-specific field rules.
func (m Message) Validate() error {
	if !m.Role.Valid() {
		return NewValidationError("role", string(m.Role), "unknown role")
	}
	if len(m.ToolCalls) > 0 && m.Role != RoleAssistant {
		return NewValidationError("tool_calls", string(m.Role), "tool calls are only allowed on assistant messages")
	}
	if m.ToolCallID != "" && m.Role != RoleTool {
		return NewValidationError("tool_call_id", string(m.Role), "tool_call_id is only allowed on tool messages")
	}
	for i, call := range m.ToolCalls {
		if strings.TrimSpace(call.ID) == "" {
			return NewValidationError(fmt.Sprintf("tool_calls[%d].id", i), call.ID, "tool call id is required")
		}
		if strings.TrimSpace(call.Function.Name) == "" {
			return NewValidationError(fmt.Sprintf("tool_calls[%d].function.name", i), call.Function.Name, "function name is required")
		}
		if call.Type != "" && call.Type != ToolCallTypeFunction {
			return NewValidationError(fmt.Sprintf("tool_calls[%d].type", i), call.Type, "unsupported tool call type")
		}
	}
	return nil
}

// DecodeMessages parses and validates a JSON array of messages. It is the
// entry point for histories coming from outside the process.
func DecodeMessages(data []byte) ([]Message, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, NewValidationError("messages", "", "empty input")
	}
	var msgs []Message
	if err := json.Unmarshal(trimmed, &msgs); err != nil {
		return nil, fmt.Errorf("%w: decode messages: %v", ErrInvalidInput, err)
	}
	for i := range msgs {
		if msgs[i].Role == RoleAssistant {
			for j := range msgs[i].ToolCalls {
				if msgs[i].ToolCalls[j].Type == "" {
					msgs[i].ToolCalls[j].Type = ToolCallTypeFunction
				}
			}
		}
		if err := msgs[i].Validate(); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
	}
	return msgs, nil
}
