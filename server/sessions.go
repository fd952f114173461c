// ABOUTME: Chat session endpoints - session CRUD and appending persisted
// ABOUTME: messages with parsed follow-up suggestions.
package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lunalab/mcpchat/orchestrator"
	"github.com/lunalab/mcpchat/store"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.Sessions(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		req.Title = "New chat"
	}
	sess, err := s.store.CreateSession(r.Context(), store.Session{Title: req.Title})
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleUpdateSessionTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &req); err != nil || req.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	err := s.store.UpdateSessionTitle(r.Context(), chi.URLParam(r, "id"), req.Title)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	var msg store.Message
	if err := decodeBody(r, &msg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg.Role != "user" && msg.Role != "model" {
		s.respondError(w, http.StatusBadRequest, "role must be user or model")
		return
	}

	// Model answers may carry trailing follow-up suggestions; split them off
	// so the stored text is the clean answer.
	if msg.Role == "model" && len(msg.SuggestedQuestions) == 0 {
		answer, suggestions := orchestrator.ParseFollowups(msg.Text)
		msg.Text = answer
		msg.SuggestedQuestions = suggestions
	}

	err := s.store.AddMessage(r.Context(), chi.URLParam(r, "id"), msg)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, msg)
}
