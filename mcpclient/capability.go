// ABOUTME: Capability client - per-connection list/invoke operations for
// ABOUTME: tools, prompts, and resources, tolerant of unimplemented categories.
package mcpclient

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool describes one remote tool in normalized form. Names are unique within
// one server's namespace only.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"inputSchema,omitempty"`
}

// PromptArgument describes one named prompt argument.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Prompt describes one remote prompt.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// Resource describes one remote resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// Capabilities performs capability operations against servers resolved
// through the registry's GetClient choke point. List operations treat a
// "method not found" protocol error as an empty list: external servers are
// not required to implement every capability category. Invoke operations do
// not catch anything; per-call failure handling is the caller's job.
type Capabilities struct {
	registry *Registry
}

// NewCapabilities creates a capability client backed by the registry.
func NewCapabilities(registry *Registry) *Capabilities {
	return &Capabilities{registry: registry}
}

// isMethodNotFound matches the JSON-RPC -32601 error class, which servers
// return for capability categories they do not implement.
func isMethodNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "-32601") || strings.Contains(msg, "method not found")
}

// ListTools lists the tools exposed by one server.
func (c *Capabilities) ListTools(ctx context.Context, serverID string) ([]Tool, error) {
	session, err := c.registry.GetClient(serverID)
	if err != nil {
		return nil, err
	}
	res, err := session.ListTools(ctx, nil)
	if err != nil {
		if isMethodNotFound(err) {
			return []Tool{}, nil
		}
		return nil, err
	}
	tools := make([]Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		tools = append(tools, Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return tools, nil
}

// CallTool invokes a tool on one server.
func (c *Capabilities) CallTool(ctx context.Context, serverID, name string, args map[string]any) (*mcp.CallToolResult, error) {
	session, err := c.registry.GetClient(serverID)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
}

// ListPrompts lists the prompts exposed by one server.
func (c *Capabilities) ListPrompts(ctx context.Context, serverID string) ([]Prompt, error) {
	session, err := c.registry.GetClient(serverID)
	if err != nil {
		return nil, err
	}
	res, err := session.ListPrompts(ctx, nil)
	if err != nil {
		if isMethodNotFound(err) {
			return []Prompt{}, nil
		}
		return nil, err
	}
	prompts := make([]Prompt, 0, len(res.Prompts))
	for _, p := range res.Prompts {
		prompt := Prompt{Name: p.Name, Description: p.Description}
		for _, arg := range p.Arguments {
			prompt.Arguments = append(prompt.Arguments, PromptArgument{
				Name:        arg.Name,
				Description: arg.Description,
				Required:    arg.Required,
			})
		}
		prompts = append(prompts, prompt)
	}
	return prompts, nil
}

// GetPrompt fetches a prompt from one server.
func (c *Capabilities) GetPrompt(ctx context.Context, serverID, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	session, err := c.registry.GetClient(serverID)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]string{}
	}
	return session.GetPrompt(ctx, &mcp.GetPromptParams{Name: name, Arguments: args})
}

// ListResources lists the resources exposed by one server.
func (c *Capabilities) ListResources(ctx context.Context, serverID string) ([]Resource, error) {
	session, err := c.registry.GetClient(serverID)
	if err != nil {
		return nil, err
	}
	res, err := session.ListResources(ctx, nil)
	if err != nil {
		if isMethodNotFound(err) {
			return []Resource{}, nil
		}
		return nil, err
	}
	resources := make([]Resource, 0, len(res.Resources))
	for _, rs := range res.Resources {
		resources = append(resources, Resource{
			URI:         rs.URI,
			Name:        rs.Name,
			Description: rs.Description,
			MimeType:    rs.MIMEType,
		})
	}
	return resources, nil
}

// ReadResource reads a resource from one server.
func (c *Capabilities) ReadResource(ctx context.Context, serverID, uri string) (*mcp.ReadResourceResult, error) {
	session, err := c.registry.GetClient(serverID)
	if err != nil {
		return nil, err
	}
	return session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
}
