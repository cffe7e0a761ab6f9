// Package server is the in-process MCP tool server: a JSON-RPC 2.0 engine
// answering initialize, tools/list and tools/call for a fixed registry.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/pkg/logger"
	"github.com/voocel/toolbridge/schema"
	"github.com/voocel/toolbridge/tools"
)

// Server dispatches JSON-RPC messages to its tools. It is driven by one
// caller at a time; the transport serializes access.
type Server struct {
	info         mcp.Implementation
	registry     *tools.Registry
	instructions string
	callTimeout  time.Duration

	closed atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithInstructions sets the instructions returned by initialize.
func WithInstructions(text string) Option {
	return func(s *Server) {
		s.instructions = text
	}
}

// WithCallTimeout bounds each tools/call. Zero means no bound.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.callTimeout = d
	}
}

// New creates a server for registry. A nil registry serves no tools.
func New(info mcp.Implementation, registry *tools.Registry, opts ...Option) *Server {
	if registry == nil {
		registry = tools.MustRegistry()
	}
	s := &Server{info: info, registry: registry}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Info returns the server identity reported by initialize.
func (s *Server) Info() mcp.Implementation {
	return s.info
}

// Registry returns the served tools.
func (s *Server) Registry() *tools.Registry {
	return s.registry
}

// Close stops the server. It is idempotent and never fails.
func (s *Server) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		logger.Debug("[MCP] %s closed", s.info.Name)
	}
	return nil
}

// Closed reports whether Close has been called.
func (s *Server) Closed() bool {
	return s.closed.Load()
}

// HandleMessage processes one JSON-RPC message, single or batch.
//
// It returns nil once the server is closed, a *Response for a single
// message and a []*Response in input order for a batch. Notifications yield
// a no-op Response (see Response.IsNoop) that transports must not deliver.
func (s *Server) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	if s.closed.Load() {
		return nil
	}

	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return errorResponse(nil, mcp.PARSE_ERROR, "Parse error")
	}

	if !isArray(raw) {
		return s.handleSingle(ctx, raw)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return errorResponse(nil, mcp.PARSE_ERROR, "Parse error")
	}
	if len(elems) == 0 {
		return errorResponse(nil, mcp.INVALID_REQUEST, "Invalid Request")
	}

	responses := make([]*Response, len(elems))
	for i, elem := range elems {
		responses[i] = s.handleSingle(ctx, elem)
	}
	return responses
}

// handleSingle dispatches one request object. It never returns nil.
func (s *Server) handleSingle(ctx context.Context, raw json.RawMessage) *Response {
	if !isObject(raw) {
		return errorResponse(nil, mcp.INVALID_REQUEST, "Invalid Request")
	}
	var req request
	if err := json.Unmarshal(raw, &req); err != nil || !validID(req.ID) {
		return errorResponse(nil, mcp.INVALID_REQUEST, "Invalid Request")
	}

	resp := s.dispatch(ctx, &req)
	resp.notification = req.isNotification()
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[MCP] panic during dispatch: %v", r)
			resp = errorResponse(nil, mcp.INTERNAL_ERROR, fmt.Sprintf("Internal error: %v", r))
		}
	}()

	id := req.ID
	if req.isNotification() {
		id = nil
	}
	method, _ := req.method()
	params := req.params()

	logger.Debug("[MCP] %s <- %s", s.info.Name, method)

	var (
		result any
		err    error
	)
	switch mcp.MCPMethod(method) {
	case mcp.MethodInitialize:
		result = s.initialize(params)
	case mcp.MethodToolsList:
		result = s.listTools()
	case mcp.MethodToolsCall:
		var rpcErr *mcp.JSONRPCErrorDetails
		result, rpcErr, err = s.callTool(ctx, params)
		if rpcErr != nil {
			return errorResponse(id, rpcErr.Code, rpcErr.Message)
		}
	default:
		if id == nil {
			return noop()
		}
		return errorResponse(id, mcp.METHOD_NOT_FOUND, "Method not found: "+method)
	}

	if err != nil {
		logger.Warn("[MCP] %s failed: %v", method, err)
		return errorResponse(nil, mcp.INTERNAL_ERROR, "Internal error: "+err.Error())
	}
	return resultResponse(id, result)
}

func (s *Server) initialize(params map[string]json.RawMessage) *initializeResult {
	version := mcp.LATEST_PROTOCOL_VERSION
	var requested string
	if err := json.Unmarshal(params["protocolVersion"], &requested); err == nil &&
		slices.Contains(mcp.ValidProtocolVersions, requested) {
		version = requested
	}

	return &initializeResult{
		ProtocolVersion: version,
		Capabilities:    serverCapabilities{Tools: toolsCapability{ListChanged: false}},
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}
}

func (s *Server) listTools() *listToolsResult {
	list := s.registry.List()
	out := &listToolsResult{Tools: make([]toolDescriptor, len(list))}
	for i, t := range list {
		out.Tools[i] = toolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		}
	}
	return out
}

// callTool looks the tool up before looking at the arguments, so an unknown
// name is always a -32101 whatever the arguments are.
func (s *Server) callTool(ctx context.Context, params map[string]json.RawMessage) (*tools.CallResult, *mcp.JSONRPCErrorDetails, error) {
	var name string
	_ = json.Unmarshal(params["name"], &name)

	tool, ok := s.registry.Get(name)
	if !ok {
		return nil, &mcp.JSONRPCErrorDetails{
			Code:    ErrCodeToolNotFound,
			Message: "Tool not found: " + name,
		}, nil
	}

	args := map[string]any{}
	if raw, present := params["arguments"]; present && !isNull(raw) {
		if !isObject(raw) {
			return tools.ErrorResult("Invalid arguments: expected an object"), nil, nil
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return tools.Errorf("Invalid arguments: %v", err), nil, nil
		}
	}

	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := tool.Invoke(ctx, args)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", schema.ErrToolTimeout, err)
		}
		return nil, nil, schema.NewToolError(name, "invoke", err)
	}
	if res == nil {
		return nil, nil, schema.NewToolError(name, "invoke", schema.ErrToolExecutionFailed)
	}
	logger.Debug("[MCP] %s finished in %s (isError=%t)", name, time.Since(start), res.IsError)
	return res, nil, nil
}
