// ABOUTME: HTTP API surface - routes for chat, MCP connection management,
// ABOUTME: server configs, sessions, and uploaded images.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lunalab/mcpchat/mcpclient"
	"github.com/lunalab/mcpchat/orchestrator"
	"github.com/lunalab/mcpchat/store"
)

// Server holds the HTTP handlers' dependencies.
type Server struct {
	registry *mcpclient.Registry
	caps     *mcpclient.Capabilities
	orch     *orchestrator.Orchestrator
	store    *store.Store
	images   *store.ImageStore
	logger   *slog.Logger
}

// New creates the server. store and images may be nil in tests that only
// exercise the MCP or chat routes.
func New(registry *mcpclient.Registry, caps *mcpclient.Capabilities, orch *orchestrator.Orchestrator, st *store.Store, images *store.ImageStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{registry: registry, caps: caps, orch: orch, store: st, images: images, logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)

		r.Route("/mcp", func(r chi.Router) {
			r.Post("/connect", s.handleConnect)
			r.Post("/disconnect", s.handleDisconnect)
			r.Get("/status", s.handleStatus)

			r.Get("/tools", s.handleListTools)
			r.Post("/tools", s.handleCallTool)
			r.Get("/prompts", s.handleListPrompts)
			r.Post("/prompts", s.handleGetPrompt)
			r.Get("/resources", s.handleListResources)
			r.Post("/resources", s.handleReadResource)

			r.Get("/servers", s.handleListServerConfigs)
			r.Post("/servers", s.handleAddServerConfig)
			r.Get("/servers/export", s.handleExportServerConfigs)
			r.Post("/servers/import", s.handleImportServerConfigs)
			r.Put("/servers/{id}", s.handleUpdateServerConfig)
			r.Delete("/servers/{id}", s.handleDeleteServerConfig)
		})

		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
		r.Put("/sessions/{id}/title", s.handleUpdateSessionTitle)
		r.Post("/sessions/{id}/messages", s.handleAddMessage)
	})

	if s.images != nil {
		r.Get("/images/{name}", s.handleImage)
	}
	return r
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	// Base strips any path components a crafted name could smuggle in.
	name := filepath.Base(chi.URLParam(r, "name"))
	http.ServeFile(w, r, filepath.Join(s.images.Dir(), name))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
