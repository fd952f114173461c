// ABOUTME: Tests for the capability client - method-not-found tolerance on
// ABOUTME: list operations and the connected-session precondition.
package mcpclient

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func connectedCaps(t *testing.T, session *fakeSession) *Capabilities {
	t.Helper()
	registry := NewRegistryWithDialer(func(ctx context.Context, cfg ServerConfig) (Session, error) {
		return session, nil
	}, nil)
	if res := registry.Connect(context.Background(), stdioConfig("s1")); !res.Success {
		t.Fatalf("connect failed: %s", res.Error)
	}
	return NewCapabilities(registry)
}

func TestListToolsRequiresConnection(t *testing.T) {
	caps := NewCapabilities(NewRegistryWithDialer(nil, nil))
	_, err := caps.ListTools(context.Background(), "nope")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestListToolsReturnsNormalizedTools(t *testing.T) {
	session := &fakeSession{listToolsResult: &mcp.ListToolsResult{
		Tools: []*mcp.Tool{
			{Name: "get_time", Description: "current time"},
		},
	}}
	caps := connectedCaps(t, session)

	tools, err := caps.ListTools(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].Name != "get_time" || tools[0].Description != "current time" {
		t.Errorf("unexpected tool: %+v", tools[0])
	}
}

func TestListOperationsTolerateMethodNotFound(t *testing.T) {
	notFound := errors.New("jsonrpc2: code -32601 message: method not found")
	session := &fakeSession{
		listToolsErr:   notFound,
		listPromptsErr: notFound,
		listResErr:     notFound,
	}
	caps := connectedCaps(t, session)
	ctx := context.Background()

	tools, err := caps.ListTools(ctx, "s1")
	if err != nil || len(tools) != 0 {
		t.Errorf("ListTools: expected empty list, got %v, %v", tools, err)
	}
	prompts, err := caps.ListPrompts(ctx, "s1")
	if err != nil || len(prompts) != 0 {
		t.Errorf("ListPrompts: expected empty list, got %v, %v", prompts, err)
	}
	resources, err := caps.ListResources(ctx, "s1")
	if err != nil || len(resources) != 0 {
		t.Errorf("ListResources: expected empty list, got %v, %v", resources, err)
	}
}

func TestListToolsPropagatesOtherErrors(t *testing.T) {
	failure := errors.New("connection reset")
	session := &fakeSession{listToolsErr: failure}
	caps := connectedCaps(t, session)

	_, err := caps.ListTools(context.Background(), "s1")
	if !errors.Is(err, failure) {
		t.Fatalf("expected original error, got %v", err)
	}
}

func TestCallToolPropagatesErrors(t *testing.T) {
	failure := errors.New("tool exploded")
	session := &fakeSession{callToolErr: failure}
	caps := connectedCaps(t, session)

	_, err := caps.CallTool(context.Background(), "s1", "get_time", nil)
	if !errors.Is(err, failure) {
		t.Fatalf("expected original error, got %v", err)
	}
}
