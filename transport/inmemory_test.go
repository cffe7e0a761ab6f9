package transport

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/server"
	"github.com/voocel/toolbridge/tools"
	"github.com/voocel/toolbridge/tools/fetch"
)

func newEngine(t *testing.T, extra ...tools.Tool) *server.Server {
	t.Helper()
	registry, err := tools.NewRegistry(append(fetch.Tools(fetch.DefaultOptions()), extra...)...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return server.New(mcp.Implementation{Name: "test", Version: "1.0.0"}, registry)
}

func startClient(t *testing.T, tr *InMemory) *client.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := client.NewClient(tr)
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: "test-client", Version: "1.0.0"}
	res, err := c.Initialize(ctx, req)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if res.ServerInfo.Name != "test" {
		t.Fatalf("unexpected server info: %+v", res.ServerInfo)
	}
	return c
}

func TestClientRoundTrip(t *testing.T) {
	tr := New(newEngine(t))
	t.Cleanup(func() { _ = tr.Close() })
	c := startClient(t, tr)
	ctx := context.Background()

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(list.Tools) != 4 || list.Tools[0].Name != fetch.ToolHTML {
		t.Fatalf("unexpected tools: %+v", list.Tools)
	}

	call := mcp.CallToolRequest{}
	call.Params.Name = fetch.ToolHTML
	call.Params.Arguments = map[string]any{"url": "not-a-url"}
	res, err := c.CallTool(ctx, call)
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !res.IsError || mcp.GetTextFromContent(res.Content[0]) != "Invalid URL: not-a-url" {
		t.Fatalf("unexpected call result: %+v", res)
	}

	call.Params.Name = "nonexistent_tool"
	_, err = c.CallTool(ctx, call)
	if err == nil || !strings.Contains(err.Error(), "Tool not found: nonexistent_tool") {
		t.Fatalf("expected tool not found error, got %v", err)
	}
}

func TestSendDeliversInOrderAndSuppressesNotifications(t *testing.T) {
	var (
		mu   sync.Mutex
		got  []string
		done = make(chan struct{})
	)
	tr := New(newEngine(t), WithMessageHandler(func(raw json.RawMessage) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(raw))
		if len(got) == 3 {
			close(done)
		}
	}))
	t.Cleanup(func() { _ = tr.Close() })
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	msgs := []string{
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
		`[{"jsonrpc":"2.0","method":"notifications/x"},{"jsonrpc":"2.0","id":3,"method":"nope"}]`,
		`[{"jsonrpc":"2.0","method":"notifications/y"}]`,
	}
	for _, m := range msgs {
		if err := tr.Send(json.RawMessage(m)); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for responses")
	}
	// Let any stray delivery land before checking the count.
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("expected 3 deliveries, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0], `"id":1`) {
		t.Fatalf("first delivery out of order: %s", got[0])
	}
	if !strings.Contains(got[1], `"id":2`) || !strings.Contains(got[1], "-32601") {
		t.Fatalf("second delivery unexpected: %s", got[1])
	}
	var batch []map[string]any
	if err := json.Unmarshal([]byte(got[2]), &batch); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("notification elements must be stripped from batches: %s", got[2])
	}
}

// slowTool blocks until released, recording how many calls overlap.
type slowTool struct {
	*tools.BaseTool
	mu      sync.Mutex
	active  int
	maxSeen int
	release chan struct{}
}

func (s *slowTool) Invoke(ctx context.Context, args map[string]any) (*tools.CallResult, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.maxSeen {
		s.maxSeen = s.active
	}
	s.mu.Unlock()

	<-s.release

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	return tools.TextResult("done"), nil
}

func TestDispatchIsSerialized(t *testing.T) {
	slow := &slowTool{BaseTool: tools.NewBaseTool("slow", "slow", nil), release: make(chan struct{})}
	tr := New(newEngine(t, slow))
	t.Cleanup(func() { _ = tr.Close() })
	c := startClient(t, tr)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			call := mcp.CallToolRequest{}
			call.Params.Name = "slow"
			if _, err := c.CallTool(context.Background(), call); err != nil {
				t.Errorf("call: %v", err)
			}
		}()
	}
	for i := 0; i < 3; i++ {
		slow.release <- struct{}{}
	}
	wg.Wait()

	if slow.maxSeen != 1 {
		t.Fatalf("expected serialized dispatch, saw %d concurrent calls", slow.maxSeen)
	}
}

func TestCloseIsIdempotentAndFailsLaterCalls(t *testing.T) {
	engine := newEngine(t)
	tr := New(engine)
	c := startClient(t, tr)

	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !engine.Closed() {
		t.Fatalf("closing the transport must close the engine")
	}

	if err := tr.Send(json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from Send, got %v", err)
	}
	if _, err := c.ListTools(context.Background(), mcp.ListToolsRequest{}); err == nil {
		t.Fatalf("expected an error after close")
	}
	if err := tr.Start(context.Background()); !IsClosed(err) {
		t.Fatalf("expected ErrClosed from Start, got %v", err)
	}
}

func TestSendRequestHonoursContext(t *testing.T) {
	slow := &slowTool{BaseTool: tools.NewBaseTool("slow", "slow", nil), release: make(chan struct{})}
	tr := New(newEngine(t, slow))
	t.Cleanup(func() {
		close(slow.release)
		_ = tr.Close()
	})
	c := startClient(t, tr)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	call := mcp.CallToolRequest{}
	call.Params.Name = "slow"
	if _, err := c.CallTool(ctx, call); err == nil {
		t.Fatalf("expected a context error")
	}
}

func TestSessionID(t *testing.T) {
	tr := New(newEngine(t), WithSessionID("fixed"))
	if tr.GetSessionId() != "fixed" {
		t.Fatalf("unexpected session id %q", tr.GetSessionId())
	}
	if New(newEngine(t)).GetSessionId() == "" {
		t.Fatalf("expected a generated session id")
	}
}
