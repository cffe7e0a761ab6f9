// Package transport relays JSON-RPC messages between a client and an
// in-process server without sockets. Messages are handled one at a time in
// the order they were sent.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/pkg/logger"
	"github.com/voocel/toolbridge/schema"
	"github.com/voocel/toolbridge/server"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = schema.ErrTransportClosed

// Handler is the server side of the transport.
type Handler interface {
	HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage
	Close() error
}

var _ transport.Interface = (*InMemory)(nil)

type envelope struct {
	raw   json.RawMessage
	reply chan mcp.JSONRPCMessage
}

// InMemory is a FIFO transport in front of a Handler. A single worker
// goroutine feeds the handler, so the handler never sees two messages at
// once.
type InMemory struct {
	handler   Handler
	sessionID string

	mu      sync.Mutex
	queue   []envelope
	wake    chan struct{}
	started bool
	closed  bool
	done    chan struct{}

	handlerMu      sync.RWMutex
	onMessage      func(json.RawMessage)
	onNotification func(mcp.JSONRPCNotification)

	closeOnce sync.Once
}

// Option configures an InMemory transport.
type Option func(*InMemory)

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id string) Option {
	return func(t *InMemory) {
		t.sessionID = id
	}
}

// WithMessageHandler sets the receiver for responses to Send.
func WithMessageHandler(fn func(json.RawMessage)) Option {
	return func(t *InMemory) {
		t.onMessage = fn
	}
}

// New creates a transport for handler. Call Start before expecting replies.
func New(handler Handler, opts ...Option) *InMemory {
	t := &InMemory{
		handler:   handler,
		sessionID: uuid.NewString(),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches the dispatch worker. Calling it again is a no-op. The
// worker outlives ctx's cancellation and stops on Close.
func (t *InMemory) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.started {
		return nil
	}
	t.started = true
	go t.run(context.WithoutCancel(ctx))
	return nil
}

// Send submits a raw message without waiting. Responses that are not
// suppressed go to the message handler.
func (t *InMemory) Send(raw json.RawMessage) error {
	return t.enqueue(envelope{raw: append(json.RawMessage(nil), raw...)})
}

// SetMessageHandler sets the receiver for responses to Send.
func (t *InMemory) SetMessageHandler(fn func(json.RawMessage)) {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	t.onMessage = fn
}

// SendRequest submits request and waits for its response.
func (t *InMemory) SendRequest(ctx context.Context, request transport.JSONRPCRequest) (*transport.JSONRPCResponse, error) {
	raw, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	env := envelope{raw: raw, reply: make(chan mcp.JSONRPCMessage, 1)}
	if err := t.enqueue(env); err != nil {
		return nil, err
	}

	select {
	case msg := <-env.reply:
		if msg == nil {
			return nil, ErrClosed
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response message: %w", err)
		}
		var resp transport.JSONRPCResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response message: %w", err)
		}
		return &resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, ErrClosed
	}
}

// SendNotification submits a notification. The server never answers it.
func (t *InMemory) SendNotification(ctx context.Context, notification mcp.JSONRPCNotification) error {
	raw, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return t.enqueue(envelope{raw: raw})
}

// SetNotificationHandler sets the receiver for server notifications. The
// bridge server does not emit any, but the handler is kept for clients that
// expect to register one.
func (t *InMemory) SetNotificationHandler(handler func(notification mcp.JSONRPCNotification)) {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	t.onNotification = handler
}

// GetSessionId returns the session id.
func (t *InMemory) GetSessionId() string {
	return t.sessionID
}

// Close stops the worker and closes the handler. Messages still queued are
// dropped and results of a dispatch already running are discarded. It is
// idempotent.
func (t *InMemory) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		dropped := len(t.queue)
		t.queue = nil
		t.mu.Unlock()

		close(t.done)
		err = t.handler.Close()
		logger.Debug("[TRANSPORT] session %s closed, %d queued messages dropped", t.sessionID, dropped)
	})
	return err
}

func (t *InMemory) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *InMemory) enqueue(env envelope) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.queue = append(t.queue, env)
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
	return nil
}

// next blocks until a message is queued or the transport closes.
func (t *InMemory) next() (envelope, bool) {
	for {
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return envelope{}, false
		}
		if len(t.queue) > 0 {
			env := t.queue[0]
			t.queue[0] = envelope{}
			t.queue = t.queue[1:]
			t.mu.Unlock()
			return env, true
		}
		t.mu.Unlock()

		select {
		case <-t.wake:
		case <-t.done:
			return envelope{}, false
		}
	}
}

func (t *InMemory) run(ctx context.Context) {
	for {
		env, ok := t.next()
		if !ok {
			return
		}
		t.dispatch(ctx, env)
	}
}

func (t *InMemory) dispatch(ctx context.Context, env envelope) {
	msg := deliverable(t.handler.HandleMessage(ctx, env.raw))

	if t.isClosed() {
		return
	}
	if env.reply != nil {
		env.reply <- msg
		return
	}
	if msg == nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("[TRANSPORT] encode response: %v", err)
		return
	}

	t.handlerMu.RLock()
	fn := t.onMessage
	t.handlerMu.RUnlock()
	if fn != nil {
		fn(data)
	}
}

// deliverable strips responses a client must never see: the no-op and any
// answer to a notification, including inside a batch. It returns nil when
// nothing is left.
func deliverable(msg mcp.JSONRPCMessage) mcp.JSONRPCMessage {
	switch v := msg.(type) {
	case nil:
		return nil
	case *server.Response:
		if v.Suppressed() {
			return nil
		}
		return v
	case []*server.Response:
		kept := make([]*server.Response, 0, len(v))
		for _, r := range v {
			if !r.Suppressed() {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		return kept
	default:
		return msg
	}
}

// IsClosed reports whether err came from a closed transport.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}
