package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/emposo/cvision/internal/types"
)

// handleChatStream runs the employee chat pipeline and relays its events as
// server-sent events. Validation errors are reported as plain JSON before the
// stream is opened; anything after the first event goes over the stream.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "query is required and must not exceed 2000 characters")
		return
	}

	if s.services.Chat == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Chat service not configured")
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	for event := range s.services.Chat.Stream(r.Context(), req.Query, req.Language) {
		if err := sse.WriteEvent(event.Name, event.Data); err != nil {
			s.logger.Warn("chat stream write failed", zap.Error(err))
			return
		}
	}
}
