// Package bridge manages the connection to the document-store bridge
// process, an MCP server spoken to over stdio, and classifies its payloads
// into typed shapes at the boundary.
package bridge

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Client owns the bridge subprocess session. It is constructed explicitly,
// opened once by the hosting application, and shared by all requests. Tool
// calls are serialized: the underlying channel is a single ordered stream.
type Client struct {
	command []string
	logger  *zap.Logger

	mu      sync.Mutex
	session session
	tools   map[string]bool
}

// session is the subset of mcp.ClientSession the client uses, extracted so
// tests can substitute an in-memory connection.
type session interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Close() error
}

// NewClient creates a Client that will launch the given command as the
// bridge process. The command is not started until Open is called.
func NewClient(command []string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{command: command, logger: logger}
}

// Open launches the bridge process and connects to it. The MCP handshake
// (initialize, initialized notification) is performed by the session layer;
// Open then records the advertised tool names. Calling Open on an already
// open client is a no-op.
func (c *Client) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return nil
	}
	if len(c.command) == 0 {
		return fmt.Errorf("bridge command is empty")
	}

	c.logger.Info("starting bridge process", zap.String("command", c.command[0]))

	client := mcp.NewClient(&mcp.Implementation{Name: "confluence-assistant", Version: "1.0.0"}, nil)
	cmd := exec.Command(c.command[0], c.command[1:]...)
	sess, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return fmt.Errorf("connecting to bridge: %w", err)
	}

	return c.adopt(ctx, sess)
}

// adopt records an established session and its advertised tools.
func (c *Client) adopt(ctx context.Context, sess session) error {
	toolsRes, err := sess.ListTools(ctx, nil)
	if err != nil {
		_ = sess.Close()
		return fmt.Errorf("listing bridge tools: %w", err)
	}

	tools := make(map[string]bool, len(toolsRes.Tools))
	for _, t := range toolsRes.Tools {
		tools[t.Name] = true
	}

	c.session = sess
	c.tools = tools
	c.logger.Info("bridge connected", zap.Strings("tools", sortedKeys(tools)))
	return nil
}

// CallTool invokes a named tool through the bridge and classifies the reply.
// Names not advertised during the handshake are rejected without a call.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (Payload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Payload{}, fmt.Errorf("bridge is not connected")
	}
	if !c.tools[name] {
		return Payload{}, fmt.Errorf("tool %q not available, bridge advertises: %s",
			name, strings.Join(sortedKeys(c.tools), ", "))
	}

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return Payload{}, fmt.Errorf("calling tool %s: %w", name, err)
	}

	return classify(result)
}

// Tools returns the advertised tool names in sorted order.
func (c *Client) Tools() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.tools)
}

// Healthy reports whether the bridge session still answers a tools/list
// round trip.
func (c *Client) Healthy(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return false
	}
	_, err := c.session.ListTools(ctx, nil)
	return err == nil
}

// Close terminates the bridge session. It is idempotent and safe to call on
// a client that was never opened.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	sess := c.session
	c.session = nil
	c.tools = nil

	c.logger.Info("closing bridge connection")
	if err := sess.Close(); err != nil {
		return fmt.Errorf("closing bridge session: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
