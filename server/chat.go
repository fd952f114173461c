// ABOUTME: Chat endpoint - runs one turn through the orchestrator and writes
// ABOUTME: the framed event stream to the response body.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/lunalab/mcpchat/orchestrator"
)

// Stream framing markers. Tool-call snapshots ride between START and END as
// one JSON line each; an optional IMAGES section precedes the final text.
const (
	toolCallStartMarker = "---TOOLCALL_START---\n"
	toolCallEndMarker   = "---TOOLCALL_END---\n"
	imagesMarker        = "---IMAGES---\n"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.TurnRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	// With no enabled servers the stream is raw answer text, no markers.
	if len(req.EnabledServers) == 0 {
		for event := range s.orch.RunPlain(r.Context(), req) {
			if event.Type == orchestrator.EventText {
				if _, err := w.Write([]byte(event.Text)); err != nil {
					return
				}
				flush()
			}
		}
		return
	}

	var startWritten, endWritten bool
	closeToolSection := func() {
		if startWritten && !endWritten {
			w.Write([]byte(toolCallEndMarker))
			endWritten = true
		}
	}

	for event := range s.orch.Run(r.Context(), req) {
		switch event.Type {
		case orchestrator.EventToolCalls:
			if !startWritten {
				w.Write([]byte(toolCallStartMarker))
				startWritten = true
			}
			line, err := json.Marshal(event.ToolCalls)
			if err != nil {
				s.logger.Error("encoding tool calls failed", "error", err)
				continue
			}
			w.Write(line)
			w.Write([]byte("\n"))

		case orchestrator.EventImages:
			closeToolSection()
			urls, err := json.Marshal(event.Images)
			if err != nil {
				s.logger.Error("encoding image urls failed", "error", err)
				continue
			}
			w.Write([]byte(imagesMarker))
			w.Write(urls)
			w.Write([]byte("\n"))

		case orchestrator.EventText:
			closeToolSection()
			w.Write([]byte(event.Text))
		}
		flush()
	}
}
