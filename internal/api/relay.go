package api

import (
	"encoding/json"
	"net/http"

	"github.com/voicea-dev/voicea/internal/observe"
)

// handleSendAlert triggers the emergency SMS. The message body and both
// phone numbers are fixed by configuration; the request carries nothing.
func (s *Server) handleSendAlert(w http.ResponseWriter, r *http.Request) {
	if s.opts.SMS == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "SMS relay is not configured"})
		return
	}

	sid, err := s.opts.SMS.Send(r.Context(), s.opts.AlertBody)
	if err != nil {
		s.opts.Metrics.RecordSMSAlert(r.Context(), "error")
		observe.Logger(r.Context()).Error("emergency SMS failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to send SMS",
			"details": err.Error(),
		})
		return
	}

	s.opts.Metrics.RecordSMSAlert(r.Context(), "ok")
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "SMS sent successfully!",
		"sid":     sid,
	})
}

// handleChat relays a single user message to the chat backend. Each request
// is an independent single-turn conversation.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.opts.Chat == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "chat relay is not configured"})
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message is required"})
		return
	}

	reply, err := s.opts.Chat.Complete(r.Context(), req.Message)
	if err != nil {
		s.opts.Metrics.RecordChatRequest(r.Context(), "error")
		observe.Logger(r.Context()).Error("chat relay failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch chat response"})
		return
	}

	s.opts.Metrics.RecordChatRequest(r.Context(), "ok")
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
