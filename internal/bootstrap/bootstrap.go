// Package bootstrap assembles engines, transports and clients from options.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/voocel/toolbridge/internal/options"
	"github.com/voocel/toolbridge/llm"
	"github.com/voocel/toolbridge/pkg/logger"
	"github.com/voocel/toolbridge/server"
	"github.com/voocel/toolbridge/tools"
	"github.com/voocel/toolbridge/tools/device"
	"github.com/voocel/toolbridge/tools/fetch"
	"github.com/voocel/toolbridge/transport"
)

// ClientName identifies the bridge's own client during initialize.
const ClientName = "toolbridge-client"

// NewFetchServer builds an engine serving only the fetch tools.
func NewFetchServer(o *options.Options) (*server.Server, error) {
	registry, err := fetch.NewRegistry(o.Fetch.Fetch())
	if err != nil {
		return nil, err
	}
	return newServer(o.Server, o.Server.Name+"-fetch", registry), nil
}

// NewLocalServer builds an engine serving the device tools of p.
func NewLocalServer(o *options.Options, p device.Provider) (*server.Server, error) {
	registry, err := device.NewRegistry(p)
	if err != nil {
		return nil, err
	}
	return newServer(o.Server, o.Server.Name+"-local", registry), nil
}

// NewServer builds one engine with every enabled tool family. Device tools
// are answered by the host provider.
func NewServer(o *options.Options) (*server.Server, error) {
	registry, err := Registry(o, device.NewHostProvider())
	if err != nil {
		return nil, err
	}
	return newServer(o.Server, o.Server.Name, registry), nil
}

// Registry merges the enabled tool families, fetch first.
func Registry(o *options.Options, p device.Provider) (*tools.Registry, error) {
	var parts []*tools.Registry
	if o.Fetch.Enabled {
		r, err := fetch.NewRegistry(o.Fetch.Fetch())
		if err != nil {
			return nil, err
		}
		parts = append(parts, r)
	}
	if o.Server.Device {
		r, err := device.NewRegistry(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, r)
	}
	if len(parts) == 0 {
		return nil, errors.New("bootstrap: no tool family enabled")
	}
	return parts[0].Merge(parts[1:]...)
}

func newServer(o *options.ServerOptions, name string, registry *tools.Registry) *server.Server {
	var opts []server.Option
	if o.Instructions != "" {
		opts = append(opts, server.WithInstructions(o.Instructions))
	}
	if o.CallTimeout > 0 {
		opts = append(opts, server.WithCallTimeout(o.CallTimeout))
	}
	logger.Debug("[BOOTSTRAP] server %s serving %v", name, registry.Names())
	return server.New(mcp.Implementation{Name: name, Version: o.Version}, registry, opts...)
}

// Bridge is an initialized client wired to an engine through the
// in-memory transport.
type Bridge struct {
	Engine    *server.Server
	Transport *transport.InMemory
	Client    *client.Client
	Server    mcp.Implementation
}

// Connect starts a transport in front of engine and runs the initialize
// handshake with a stock mcp-go client.
func Connect(ctx context.Context, engine *server.Server, version string) (*Bridge, error) {
	tr := transport.New(engine)
	c := client.NewClient(tr)
	if err := c.Start(ctx); err != nil {
		_ = tr.Close()
		return nil, fmt.Errorf("bootstrap: start transport: %w", err)
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: ClientName, Version: version}
	res, err := c.Initialize(ctx, req)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("bootstrap: initialize: %w", err)
	}

	return &Bridge{Engine: engine, Transport: tr, Client: c, Server: res.ServerInfo}, nil
}

// Close shuts the client, the transport and the engine down.
func (b *Bridge) Close() error {
	return b.Client.Close()
}

// NewProvider builds the chat model provider. The sanitizer mode follows
// the model options.
func NewProvider(o *options.ModelOptions) (llm.Provider, error) {
	return llm.NewProviderWithConfig(o.Provider())
}
