// ABOUTME: Process-wide connection registry - tracks per-server connection
// ABOUTME: state and serializes connect/disconnect per server id.
package mcpclient

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the lifecycle state of one server connection.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// ServerStatus is a read-only snapshot of one entry.
type ServerStatus struct {
	ServerID    string `json:"serverId"`
	Status      Status `json:"status"`
	Error       string `json:"error,omitempty"`
	ConnectedAt int64  `json:"connectedAt,omitempty"` // unix millis
}

// Result reports the outcome of a connect or disconnect. Failures are values,
// not errors: the HTTP layer always responds 200 with a user-facing message.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ConnectedClient pairs a server id with its live session.
type ConnectedClient struct {
	ServerID string
	Session  Session
}

type connState struct {
	status      Status
	session     Session
	err         string
	connectedAt time.Time
}

// Registry is the process-wide table of MCP connections. It is shared mutable
// state: one instance is created at startup, injected into every consumer,
// and torn down with DisconnectAll at shutdown.
type Registry struct {
	dial   Dialer
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*connState
	locks   map[string]*sync.Mutex
}

// NewRegistry creates a registry that dials real MCP servers.
func NewRegistry(logger *slog.Logger) *Registry {
	return NewRegistryWithDialer(Dial, logger)
}

// NewRegistryWithDialer creates a registry with a custom dialer (tests).
func NewRegistryWithDialer(dial Dialer, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		dial:    dial,
		logger:  logger,
		entries: make(map[string]*connState),
		locks:   make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing operations on one server id.
// Different ids never contend.
func (r *Registry) lockFor(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

func (r *Registry) get(id string) (*connState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.entries[id]
	return st, ok
}

func (r *Registry) set(id string, st *connState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = st
}

func (r *Registry) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Connect establishes a connection for cfg. Connecting an already-connected
// id is a no-op success that leaves the existing session untouched. Any
// failure is stored as an error state and reported in the result; the caller
// decides whether to retry.
func (r *Registry) Connect(ctx context.Context, cfg ServerConfig) Result {
	lock := r.lockFor(cfg.ID)
	lock.Lock()
	defer lock.Unlock()

	if st, ok := r.get(cfg.ID); ok && st.status == StatusConnected {
		r.logger.Debug("already connected", "server", cfg.ID)
		return Result{Success: true}
	}

	r.logger.Info("connecting to server", "server", cfg.ID, "name", cfg.Name, "transport", cfg.Transport)
	r.set(cfg.ID, &connState{status: StatusConnecting})

	session, err := r.dial(ctx, cfg)
	if err != nil {
		r.logger.Error("connection failed", "server", cfg.ID, "error", err)
		r.set(cfg.ID, &connState{status: StatusError, err: err.Error()})
		return Result{Success: false, Error: err.Error()}
	}

	r.set(cfg.ID, &connState{
		status:      StatusConnected,
		session:     session,
		connectedAt: time.Now(),
	})
	r.logger.Info("connected", "server", cfg.ID)
	return Result{Success: true}
}

// Disconnect closes the connection for id, if any, and removes the entry.
// Disconnecting an absent or already-disconnected id succeeds.
func (r *Registry) Disconnect(ctx context.Context, id string) Result {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	st, ok := r.get(id)
	if !ok {
		return Result{Success: true}
	}

	if st.status == StatusConnected && st.session != nil {
		if err := st.session.Close(); err != nil {
			r.logger.Error("disconnect failed", "server", id, "error", err)
			return Result{Success: false, Error: err.Error()}
		}
	}

	r.delete(id)
	r.logger.Info("disconnected", "server", id)
	return Result{Success: true}
}

// GetStatus returns a snapshot of every entry, ordered by server id.
func (r *Registry) GetStatus() []ServerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make([]ServerStatus, 0, len(r.entries))
	for id, st := range r.entries {
		statuses = append(statuses, snapshot(id, st))
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ServerID < statuses[j].ServerID })
	return statuses
}

// GetServerStatus returns the snapshot for one server id.
func (r *Registry) GetServerStatus(id string) (ServerStatus, bool) {
	st, ok := r.get(id)
	if !ok {
		return ServerStatus{}, false
	}
	return snapshot(id, st), true
}

func snapshot(id string, st *connState) ServerStatus {
	s := ServerStatus{ServerID: id, Status: st.status, Error: st.err}
	if !st.connectedAt.IsZero() {
		s.ConnectedAt = st.connectedAt.UnixMilli()
	}
	return s
}

// GetClient returns the live session for id. It succeeds if and only if the
// current status is exactly connected; every capability operation routes
// through here, so nothing ever runs against a half-open channel.
func (r *Registry) GetClient(id string) (Session, error) {
	st, ok := r.get(id)
	if !ok || st.status != StatusConnected || st.session == nil {
		return nil, ErrNotConnected
	}
	return st.session, nil
}

// IsConnected reports whether id currently has a live connection.
func (r *Registry) IsConnected(id string) bool {
	_, err := r.GetClient(id)
	return err == nil
}

// GetConnectedClients returns every connected (id, session) pair, ordered by
// server id.
func (r *Registry) GetConnectedClients() []ConnectedClient {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make([]ConnectedClient, 0, len(r.entries))
	for id, st := range r.entries {
		if st.status == StatusConnected && st.session != nil {
			clients = append(clients, ConnectedClient{ServerID: id, Session: st.session})
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ServerID < clients[j].ServerID })
	return clients
}

// DisconnectAll disconnects every entry in parallel. Used at shutdown.
func (r *Registry) DisconnectAll(ctx context.Context) error {
	r.mu.Lock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			if res := r.Disconnect(ctx, id); !res.Success {
				r.logger.Warn("disconnect during shutdown failed", "server", id, "error", res.Error)
			}
			return nil
		})
	}
	return g.Wait()
}
