// ABOUTME: Server-configuration endpoints - CRUD over stored MCP server
// ABOUTME: definitions plus versioned export and import.
package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lunalab/mcpchat/mcpclient"
	"github.com/lunalab/mcpchat/store"
)

func (s *Server) handleListServerConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.store.ServerConfigs(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"servers": configs})
}

func (s *Server) handleAddServerConfig(w http.ResponseWriter, r *http.Request) {
	var cfg mcpclient.ServerConfig
	if err := decodeBody(r, &cfg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := cfg.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.store.AddServerConfig(r.Context(), cfg)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateServerConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var cfg mcpclient.ServerConfig
	if err := decodeBody(r, &cfg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cfg.ID = id
	if err := cfg.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.store.UpdateServerConfig(r.Context(), id, cfg)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "server config not found: "+id)
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteServerConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.DeleteServerConfig(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "server config not found: "+id)
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleExportServerConfigs(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.ExportServerConfigs(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="mcp-servers.json"`)
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleImportServerConfigs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		store.ExportDoc
		Merge bool `json:"merge"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	added, updated, err := s.store.ImportServerConfigs(r.Context(), req.ExportDoc, req.Merge)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"added": added, "updated": updated})
}
