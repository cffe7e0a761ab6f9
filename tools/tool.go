package tools

import (
	"context"
	"fmt"
)

// Tool defines the tool interface.
//
// Invoke reports tool-level failures (bad arguments, a failed fetch, a
// capability the device lacks) as a CallResult with IsError set. A non-nil
// error means the tool itself broke and is surfaced as an internal error.
type Tool interface {
	Name() string
	Description() string
	Schema() *ToolSchema
	Invoke(ctx context.Context, args map[string]any) (*CallResult, error)
}

// Capability marks a side effect a tool has beyond computing its result.
type Capability string

const (
	CapabilityNetwork Capability = "network"
	CapabilityDevice  Capability = "device"
	CapabilityPrivacy Capability = "privacy"
)

// Capable is implemented by tools that declare side effects.
type Capable interface {
	Capabilities() []Capability
}

// ToolSchema describes a tool JSON schema.
type ToolSchema struct {
	Type        string         `json:"type"`
	Properties  map[string]any `json:"properties"`
	Required    []string       `json:"required,omitempty"`
	Description string         `json:"description,omitempty"`
}

// BaseTool provides shared tool functionality.
type BaseTool struct {
	name        string
	description string
	schema      *ToolSchema
	caps        []Capability
}

// NewBaseTool creates a base tool.
func NewBaseTool(name, description string, schema *ToolSchema) *BaseTool {
	if schema == nil {
		schema = CreateToolSchema("", nil, nil)
	}
	return &BaseTool{
		name:        name,
		description: description,
		schema:      schema,
	}
}

func (t *BaseTool) Name() string {
	return t.name
}

func (t *BaseTool) Description() string {
	return t.description
}

func (t *BaseTool) Schema() *ToolSchema {
	return t.schema
}

func (t *BaseTool) Capabilities() []Capability {
	return append([]Capability(nil), t.caps...)
}

// WithCapabilities sets capability markers.
func (t *BaseTool) WithCapabilities(caps ...Capability) *BaseTool {
	t.caps = append([]Capability(nil), caps...)
	return t
}

// Invoke is a default implementation and should be overridden.
func (t *BaseTool) Invoke(ctx context.Context, args map[string]any) (*CallResult, error) {
	return ErrorResult(fmt.Sprintf("Tool %s is not implemented", t.name)), nil
}

// InvokeFunc is the body of a FunctionTool.
type InvokeFunc func(ctx context.Context, args map[string]any) (*CallResult, error)

// FunctionTool wraps a function as a tool.
type FunctionTool struct {
	*BaseTool
	fn InvokeFunc
}

// NewFunctionTool binds fn to the identity described by base.
func NewFunctionTool(base *BaseTool, fn InvokeFunc) *FunctionTool {
	return &FunctionTool{BaseTool: base, fn: fn}
}

func (ft *FunctionTool) Invoke(ctx context.Context, args map[string]any) (*CallResult, error) {
	if ft.fn == nil {
		return ft.BaseTool.Invoke(ctx, args)
	}
	if args == nil {
		args = map[string]any{}
	}
	return ft.fn(ctx, args)
}

// CreateToolSchema builds an object schema. A nil properties map becomes
// empty so the schema always carries the key.
func CreateToolSchema(description string, properties map[string]any, required []string) *ToolSchema {
	if properties == nil {
		properties = map[string]any{}
	}
	return &ToolSchema{
		Type:        "object",
		Description: description,
		Properties:  properties,
		Required:    required,
	}
}

// StringProperty defines a string property.
func StringProperty(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// StringMapProperty defines an object whose values are all strings.
func StringMapProperty(description string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"description":          description,
		"additionalProperties": map[string]any{"type": "string"},
	}
}
