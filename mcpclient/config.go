// ABOUTME: Defines MCP server configuration - transport kinds, per-transport
// ABOUTME: parameters, and validation performed before any connection attempt.
package mcpclient

import (
	"errors"
	"fmt"
)

// TransportKind selects how a server is reached. There is no fallback or
// auto-detection between kinds.
type TransportKind string

const (
	TransportStdio          TransportKind = "stdio"
	TransportStreamableHTTP TransportKind = "streamable-http"
	TransportSSE            TransportKind = "sse"
)

// ErrConfiguration marks bad or missing transport parameters, detected before
// any network or process activity.
var ErrConfiguration = errors.New("invalid server configuration")

// ErrNotConnected is returned when an operation targets a server id that is
// not currently connected.
var ErrNotConnected = errors.New("server is not connected")

// ServerConfig identifies one external MCP server. It is immutable once
// connected; reconnection requires a fresh config.
type ServerConfig struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Transport TransportKind     `json:"transport"`
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	URL       string            `json:"url,omitempty"`
	CreatedAt int64             `json:"createdAt,omitempty"`
	UpdatedAt int64             `json:"updatedAt,omitempty"`
}

// Validate checks that the fields required by the declared transport kind are
// present.
func (c ServerConfig) Validate() error {
	if c.ID == "" || c.Name == "" || c.Transport == "" {
		return fmt.Errorf("%w: id, name and transport are required", ErrConfiguration)
	}
	switch c.Transport {
	case TransportStdio:
		if c.Command == "" {
			return fmt.Errorf("%w: stdio transport requires a command", ErrConfiguration)
		}
	case TransportStreamableHTTP, TransportSSE:
		if c.URL == "" {
			return fmt.Errorf("%w: %s transport requires a url", ErrConfiguration, c.Transport)
		}
	default:
		return fmt.Errorf("%w: unsupported transport %q", ErrConfiguration, c.Transport)
	}
	return nil
}
