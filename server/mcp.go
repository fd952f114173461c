// ABOUTME: MCP connection endpoints - connect/disconnect/status plus
// ABOUTME: capability list and invoke routes.
package server

import (
	"net/http"

	"github.com/lunalab/mcpchat/mcpclient"
)

type connectResponse struct {
	Success  bool   `json:"success"`
	ServerID string `json:"serverId"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var cfg mcpclient.ServerConfig
	if err := decodeBody(r, &cfg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := cfg.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Connection failures are reported as values, not HTTP errors.
	res := s.registry.Connect(r.Context(), cfg)
	s.respondJSON(w, http.StatusOK, connectResponse{
		Success:  res.Success,
		ServerID: cfg.ID,
		Error:    res.Error,
	})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServerID string `json:"serverId"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ServerID == "" {
		s.respondError(w, http.StatusBadRequest, "serverId is required")
		return
	}
	s.respondJSON(w, http.StatusOK, s.registry.Disconnect(r.Context(), req.ServerID))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"servers": s.registry.GetStatus()})
}

// requireServerID pulls serverId from the query and checks connectivity.
// A missing or not-connected id is a caller mistake, hence 400.
func (s *Server) requireServerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("serverId")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "serverId is required")
		return "", false
	}
	if !s.registry.IsConnected(id) {
		s.respondError(w, http.StatusBadRequest, "server is not connected: "+id)
		return "", false
	}
	return id, true
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireServerID(w, r)
	if !ok {
		return
	}
	tools, err := s.caps.ListTools(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"tools": tools})
}

func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireServerID(w, r)
	if !ok {
		return
	}
	prompts, err := s.caps.ListPrompts(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"prompts": prompts})
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireServerID(w, r)
	if !ok {
		return
	}
	resources, err := s.caps.ListResources(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"resources": resources})
}

type invokeRequest struct {
	ServerID  string         `json:"serverId"`
	Name      string         `json:"name,omitempty"`
	URI       string         `json:"uri,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

func (s *Server) decodeInvoke(w http.ResponseWriter, r *http.Request) (invokeRequest, bool) {
	var req invokeRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.ServerID == "" {
		s.respondError(w, http.StatusBadRequest, "serverId is required")
		return req, false
	}
	if !s.registry.IsConnected(req.ServerID) {
		s.respondError(w, http.StatusBadRequest, "server is not connected: "+req.ServerID)
		return req, false
	}
	return req, true
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeInvoke(w, r)
	if !ok {
		return
	}
	if req.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	result, err := s.caps.CallTool(r.Context(), req.ServerID, req.Name, req.Arguments)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"result": mcpclient.ResultValue(result)})
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeInvoke(w, r)
	if !ok {
		return
	}
	if req.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	args := make(map[string]string, len(req.Arguments))
	for k, v := range req.Arguments {
		if str, ok := v.(string); ok {
			args[k] = str
		}
	}
	result, err := s.caps.GetPrompt(r.Context(), req.ServerID, req.Name, args)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReadResource(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeInvoke(w, r)
	if !ok {
		return
	}
	if req.URI == "" {
		s.respondError(w, http.StatusBadRequest, "uri is required")
		return
	}
	result, err := s.caps.ReadResource(r.Context(), req.ServerID, req.URI)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}
