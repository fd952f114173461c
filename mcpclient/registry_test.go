// ABOUTME: Tests for the connection registry - lifecycle transitions,
// ABOUTME: connect idempotency, disconnect semantics, and status snapshots.
package mcpclient

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type fakeSession struct {
	listToolsResult *mcp.ListToolsResult
	listToolsErr    error
	callToolResult  *mcp.CallToolResult
	callToolErr     error
	listPromptsErr  error
	listResErr      error
	closeErr        error
	closed          bool
}

func (s *fakeSession) ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error) {
	if s.listToolsErr != nil {
		return nil, s.listToolsErr
	}
	if s.listToolsResult != nil {
		return s.listToolsResult, nil
	}
	return &mcp.ListToolsResult{}, nil
}

func (s *fakeSession) CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	if s.callToolErr != nil {
		return nil, s.callToolErr
	}
	if s.callToolResult != nil {
		return s.callToolResult, nil
	}
	return &mcp.CallToolResult{}, nil
}

func (s *fakeSession) ListPrompts(ctx context.Context, params *mcp.ListPromptsParams) (*mcp.ListPromptsResult, error) {
	if s.listPromptsErr != nil {
		return nil, s.listPromptsErr
	}
	return &mcp.ListPromptsResult{}, nil
}

func (s *fakeSession) GetPrompt(ctx context.Context, params *mcp.GetPromptParams) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{}, nil
}

func (s *fakeSession) ListResources(ctx context.Context, params *mcp.ListResourcesParams) (*mcp.ListResourcesResult, error) {
	if s.listResErr != nil {
		return nil, s.listResErr
	}
	return &mcp.ListResourcesResult{}, nil
}

func (s *fakeSession) ReadResource(ctx context.Context, params *mcp.ReadResourceParams) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{}, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return s.closeErr
}

func stdioConfig(id string) ServerConfig {
	return ServerConfig{ID: id, Name: id, Transport: TransportStdio, Command: "fake"}
}

func TestConnectAndGetClient(t *testing.T) {
	session := &fakeSession{}
	registry := NewRegistryWithDialer(func(ctx context.Context, cfg ServerConfig) (Session, error) {
		return session, nil
	}, nil)

	res := registry.Connect(context.Background(), stdioConfig("s1"))
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}

	got, err := registry.GetClient("s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != session {
		t.Error("expected the dialed session")
	}
	if !registry.IsConnected("s1") {
		t.Error("expected s1 to be connected")
	}
}

func TestConnectAlreadyConnectedIsNoOp(t *testing.T) {
	var dials atomic.Int32
	registry := NewRegistryWithDialer(func(ctx context.Context, cfg ServerConfig) (Session, error) {
		dials.Add(1)
		return &fakeSession{}, nil
	}, nil)

	cfg := stdioConfig("s1")
	registry.Connect(context.Background(), cfg)
	before, _ := registry.GetServerStatus("s1")

	res := registry.Connect(context.Background(), cfg)
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if dials.Load() != 1 {
		t.Errorf("expected 1 dial, got %d", dials.Load())
	}
	after, _ := registry.GetServerStatus("s1")
	if after.ConnectedAt != before.ConnectedAt {
		t.Error("expected connectedAt to be unchanged")
	}
}

func TestConnectFailureStoresErrorState(t *testing.T) {
	dialErr := errors.New("handshake refused")
	registry := NewRegistryWithDialer(func(ctx context.Context, cfg ServerConfig) (Session, error) {
		return nil, dialErr
	}, nil)

	res := registry.Connect(context.Background(), stdioConfig("s1"))
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != dialErr.Error() {
		t.Errorf("expected error %q, got %q", dialErr.Error(), res.Error)
	}

	status, ok := registry.GetServerStatus("s1")
	if !ok {
		t.Fatal("expected an entry for s1")
	}
	if status.Status != StatusError {
		t.Errorf("expected status error, got %s", status.Status)
	}
	if _, err := registry.GetClient("s1"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestDisconnectAbsentSucceeds(t *testing.T) {
	registry := NewRegistryWithDialer(nil, nil)
	res := registry.Disconnect(context.Background(), "nope")
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
}

func TestDisconnectClosesSession(t *testing.T) {
	session := &fakeSession{}
	registry := NewRegistryWithDialer(func(ctx context.Context, cfg ServerConfig) (Session, error) {
		return session, nil
	}, nil)

	registry.Connect(context.Background(), stdioConfig("s1"))
	res := registry.Disconnect(context.Background(), "s1")
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if !session.closed {
		t.Error("expected session to be closed")
	}
	if _, ok := registry.GetServerStatus("s1"); ok {
		t.Error("expected entry to be removed")
	}
}

func TestDisconnectCloseFailureReported(t *testing.T) {
	session := &fakeSession{closeErr: errors.New("pipe broken")}
	registry := NewRegistryWithDialer(func(ctx context.Context, cfg ServerConfig) (Session, error) {
		return session, nil
	}, nil)

	registry.Connect(context.Background(), stdioConfig("s1"))
	res := registry.Disconnect(context.Background(), "s1")
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error == "" {
		t.Error("expected an error message")
	}
}

func TestGetStatusSorted(t *testing.T) {
	registry := NewRegistryWithDialer(func(ctx context.Context, cfg ServerConfig) (Session, error) {
		return &fakeSession{}, nil
	}, nil)

	for _, id := range []string{"b", "a", "c"} {
		registry.Connect(context.Background(), stdioConfig(id))
	}

	statuses := registry.GetStatus()
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	for i, want := range []string{"a", "b", "c"} {
		if statuses[i].ServerID != want {
			t.Errorf("status %d: expected %s, got %s", i, want, statuses[i].ServerID)
		}
		if statuses[i].Status != StatusConnected {
			t.Errorf("status %d: expected connected, got %s", i, statuses[i].Status)
		}
		if statuses[i].ConnectedAt == 0 {
			t.Errorf("status %d: expected connectedAt to be set", i)
		}
	}
}

func TestGetConnectedClientsSkipsErrored(t *testing.T) {
	registry := NewRegistryWithDialer(func(ctx context.Context, cfg ServerConfig) (Session, error) {
		if cfg.ID == "bad" {
			return nil, errors.New("refused")
		}
		return &fakeSession{}, nil
	}, nil)

	registry.Connect(context.Background(), stdioConfig("good"))
	registry.Connect(context.Background(), stdioConfig("bad"))

	clients := registry.GetConnectedClients()
	if len(clients) != 1 {
		t.Fatalf("expected 1 client, got %d", len(clients))
	}
	if clients[0].ServerID != "good" {
		t.Errorf("expected good, got %s", clients[0].ServerID)
	}
}

func TestDisconnectAll(t *testing.T) {
	sessions := map[string]*fakeSession{}
	registry := NewRegistryWithDialer(func(ctx context.Context, cfg ServerConfig) (Session, error) {
		s := &fakeSession{}
		sessions[cfg.ID] = s
		return s, nil
	}, nil)

	for _, id := range []string{"a", "b", "c"} {
		registry.Connect(context.Background(), stdioConfig(id))
	}

	if err := registry.DisconnectAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(registry.GetStatus()) != 0 {
		t.Error("expected all entries removed")
	}
	for id, s := range sessions {
		if !s.closed {
			t.Errorf("expected %s session to be closed", id)
		}
	}
}
