package server

import (
	"bytes"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/tools"
)

// ErrCodeToolNotFound is returned by tools/call for an unregistered name.
const ErrCodeToolNotFound = -32101

var nullID = json.RawMessage("null")

// Response is a JSON-RPC 2.0 response envelope. ID holds the request id
// exactly as it arrived.
type Response struct {
	JSONRPC string                   `json:"jsonrpc"`
	ID      json.RawMessage          `json:"id,omitempty"`
	Result  any                      `json:"result,omitempty"`
	Error   *mcp.JSONRPCErrorDetails `json:"error,omitempty"`

	notification bool
}

// IsNoop reports whether r is the bare {"jsonrpc":"2.0"} acknowledgement.
func (r *Response) IsNoop() bool {
	return r == nil || (r.Result == nil && r.Error == nil)
}

// Suppressed reports whether r answers a notification, or is a no-op, and
// so must not be delivered to the client.
func (r *Response) Suppressed() bool {
	return r.IsNoop() || r.notification
}

func noop() *Response {
	return &Response{JSONRPC: mcp.JSONRPC_VERSION}
}

func resultResponse(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: mcp.JSONRPC_VERSION, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) *Response {
	if len(id) == 0 {
		id = nullID
	}
	return &Response{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error:   &mcp.JSONRPCErrorDetails{Code: code, Message: message},
	}
}

// request is one decoded element. Fields stay raw so that a wrong type in
// one of them does not make the whole element undecodable.
type request struct {
	ID     json.RawMessage `json:"id"`
	Method json.RawMessage `json:"method"`
	Params json.RawMessage `json:"params"`
}

// isNotification reports whether the request carries no id.
func (r *request) isNotification() bool {
	return isNull(r.ID)
}

// method returns the method name, or its raw text when it is not a string.
func (r *request) method() (string, bool) {
	var m string
	if err := json.Unmarshal(r.Method, &m); err != nil {
		return string(bytes.TrimSpace(r.Method)), false
	}
	return m, true
}

// params decodes the params object; anything else is an empty mapping.
func (r *request) params() map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	if isObject(r.Params) {
		_ = json.Unmarshal(r.Params, &out)
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, nullID)
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// validID accepts the id shapes JSON-RPC allows: string, number or null.
func validID(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}
	switch c := trimmed[0]; {
	case c == '"', c == '-', c >= '0' && c <= '9':
		return true
	default:
		return bytes.Equal(trimmed, nullID)
	}
}

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      mcp.Implementation `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

type serverCapabilities struct {
	Tools toolsCapability `json:"tools"`
}

type toolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

type toolDescriptor struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	InputSchema *tools.ToolSchema `json:"inputSchema"`
}

type listToolsResult struct {
	Tools []toolDescriptor `json:"tools"`
}
