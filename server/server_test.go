// ABOUTME: Shared test fixtures for the HTTP layer - fake MCP sessions,
// ABOUTME: scripted LLM clients, and a fully wired test server.
package server

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lunalab/mcpchat/llm"
	"github.com/lunalab/mcpchat/mcpclient"
	"github.com/lunalab/mcpchat/orchestrator"
	"github.com/lunalab/mcpchat/store"
)

type fakeSession struct {
	tools      []*mcp.Tool
	callResult *mcp.CallToolResult
	callErr    error
}

func (s *fakeSession) ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error) {
	return &mcp.ListToolsResult{Tools: s.tools}, nil
}

func (s *fakeSession) CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	if s.callErr != nil {
		return nil, s.callErr
	}
	return s.callResult, nil
}

func (s *fakeSession) ListPrompts(ctx context.Context, params *mcp.ListPromptsParams) (*mcp.ListPromptsResult, error) {
	return &mcp.ListPromptsResult{}, nil
}

func (s *fakeSession) GetPrompt(ctx context.Context, params *mcp.GetPromptParams) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{}, nil
}

func (s *fakeSession) ListResources(ctx context.Context, params *mcp.ListResourcesParams) (*mcp.ListResourcesResult, error) {
	return &mcp.ListResourcesResult{}, nil
}

func (s *fakeSession) ReadResource(ctx context.Context, params *mcp.ReadResourceParams) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{}, nil
}

func (s *fakeSession) Close() error { return nil }

type scriptedLLM struct {
	responses []*llm.Response
	calls     int
}

func (c *scriptedLLM) CreateMessage(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	idx := c.calls
	c.calls++
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return c.responses[idx], nil
}

func (c *scriptedLLM) CreateMessageStream(ctx context.Context, req *llm.Request) (<-chan llm.StreamEvent, error) {
	events := make(chan llm.StreamEvent, 8)
	for _, resp := range c.responses {
		for _, block := range resp.Content {
			if block.Type == llm.ContentTypeText {
				events <- llm.StreamEvent{Type: llm.EventContentDelta, Text: block.Text}
			}
		}
	}
	events <- llm.StreamEvent{Type: llm.EventMessageStop}
	close(events)
	return events, nil
}

type fixture struct {
	server   *httptest.Server
	registry *mcpclient.Registry
	store    *store.Store
}

// newFixture wires a complete server around a fake MCP session and a
// scripted model.
func newFixture(t *testing.T, session *fakeSession, model llm.Client) *fixture {
	t.Helper()
	logger := slog.Default()

	registry := mcpclient.NewRegistryWithDialer(func(ctx context.Context, cfg mcpclient.ServerConfig) (mcpclient.Session, error) {
		return session, nil
	}, logger)
	caps := mcpclient.NewCapabilities(registry)

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	images, err := store.NewImageStore(t.TempDir(), "http://host/images")
	if err != nil {
		t.Fatalf("image store: %v", err)
	}

	orch := orchestrator.New(model, caps, images, logger, orchestrator.Config{})
	ts := httptest.NewServer(New(registry, caps, orch, st, images, logger).Handler())
	t.Cleanup(ts.Close)

	return &fixture{server: ts, registry: registry, store: st}
}

func (f *fixture) connect(t *testing.T, id string) {
	t.Helper()
	res := f.registry.Connect(context.Background(), mcpclient.ServerConfig{
		ID: id, Name: id, Transport: mcpclient.TransportStdio, Command: "fake",
	})
	if !res.Success {
		t.Fatalf("connect failed: %s", res.Error)
	}
}
