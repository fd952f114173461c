// ABOUTME: Session abstraction over the SDK client session plus the default
// ABOUTME: dialer that builds a transport and performs the MCP handshake.
package mcpclient

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	clientName    = "mcpchat"
	clientVersion = "1.0.0"
)

// Session is the subset of *mcp.ClientSession the application uses. The
// registry owns sessions exclusively; callers borrow them per-call through
// GetClient and must not retain them.
type Session interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	ListPrompts(ctx context.Context, params *mcp.ListPromptsParams) (*mcp.ListPromptsResult, error)
	GetPrompt(ctx context.Context, params *mcp.GetPromptParams) (*mcp.GetPromptResult, error)
	ListResources(ctx context.Context, params *mcp.ListResourcesParams) (*mcp.ListResourcesResult, error)
	ReadResource(ctx context.Context, params *mcp.ReadResourceParams) (*mcp.ReadResourceResult, error)
	Close() error
}

var _ Session = (*mcp.ClientSession)(nil)

// Dialer establishes a session for a server config. Injected into the
// registry so tests can substitute a fake.
type Dialer func(ctx context.Context, cfg ServerConfig) (Session, error)

// Dial builds the transport for cfg and performs the protocol handshake.
func Dial(ctx context.Context, cfg ServerConfig) (Session, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	client := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: clientVersion}, nil)
	return client.Connect(ctx, transport, nil)
}
