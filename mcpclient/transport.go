// ABOUTME: Transport factory - builds the SDK transport matching a server
// ABOUTME: config (child-process stdio, streamable HTTP, or SSE).
package mcpclient

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// newTransport constructs the transport for a validated config. Construction
// failures (e.g. a malformed URL) are returned as plain errors; they surface
// in the connect result, not as configuration errors.
func newTransport(cfg ServerConfig) (mcp.Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Transport {
	case TransportStdio:
		cmd := exec.Command(cfg.Command, cfg.Args...)
		if len(cfg.Env) > 0 {
			env := os.Environ()
			for k, v := range cfg.Env {
				env = append(env, fmt.Sprintf("%s=%s", k, v))
			}
			cmd.Env = env
		}
		return &mcp.CommandTransport{Command: cmd}, nil

	case TransportStreamableHTTP:
		if _, err := url.ParseRequestURI(cfg.URL); err != nil {
			return nil, fmt.Errorf("malformed url %q: %w", cfg.URL, err)
		}
		return &mcp.StreamableClientTransport{Endpoint: cfg.URL}, nil

	case TransportSSE:
		if _, err := url.ParseRequestURI(cfg.URL); err != nil {
			return nil, fmt.Errorf("malformed url %q: %w", cfg.URL, err)
		}
		return &mcp.SSEClientTransport{Endpoint: cfg.URL}, nil
	}

	return nil, fmt.Errorf("%w: unsupported transport %q", ErrConfiguration, cfg.Transport)
}
