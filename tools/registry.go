package tools

import (
	"github.com/voocel/toolbridge/schema"
)

// Registry is the tool table an engine serves. It is built once and never
// mutated, so it can be shared without locking.
type Registry struct {
	tools []Tool
	index map[string]int
}

// NewRegistry constructs a registry. Order of tools is the order tools/list
// reports them in.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make([]Tool, 0, len(tools)),
		index: make(map[string]int, len(tools)),
	}
	for _, tool := range tools {
		if tool == nil {
			return nil, schema.NewValidationError("tool", nil, "tool cannot be nil")
		}
		name := tool.Name()
		if name == "" {
			return nil, schema.NewValidationError("tool.name", name, "tool name cannot be empty")
		}
		if _, exists := r.index[name]; exists {
			return nil, schema.NewToolError(name, "register", schema.ErrToolAlreadyExists)
		}
		r.index[name] = len(r.tools)
		r.tools = append(r.tools, tool)
	}
	return r, nil
}

// MustRegistry is NewRegistry for static tables known to be valid.
func MustRegistry(tools ...Tool) *Registry {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get retrieves a tool
func (r *Registry) Get(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	i, exists := r.index[name]
	if !exists {
		return nil, false
	}
	return r.tools[i], true
}

// Has reports whether a tool exists
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns all tools in registration order
func (r *Registry) List() []Tool {
	if r == nil {
		return nil
	}
	return append([]Tool(nil), r.tools...)
}

// Names returns registered tool names in registration order
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.tools))
	for i, tool := range r.tools {
		names[i] = tool.Name()
	}
	return names
}

// Count returns the number of tools
func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	return len(r.tools)
}

// Schemas returns the input schema of every tool, keyed by name.
func (r *Registry) Schemas() map[string]*ToolSchema {
	schemas := make(map[string]*ToolSchema, r.Count())
	for _, tool := range r.List() {
		schemas[tool.Name()] = tool.Schema()
	}
	return schemas
}

// Merge returns a new registry holding r's tools followed by other's.
func (r *Registry) Merge(others ...*Registry) (*Registry, error) {
	all := r.List()
	for _, other := range others {
		all = append(all, other.List()...)
	}
	return NewRegistry(all...)
}
