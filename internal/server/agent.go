package server

import (
	"net/http"
	"strconv"

	"github.com/louisbranch/innercity/internal/platform/errors"
	"github.com/louisbranch/innercity/internal/storage"
)

func (s *Server) handleAgentMemoryList(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeSuccess(w, map[string]any{"memory": []storage.AgentMemoryRecord{}})
		return
	}

	playerID := requestPlayerID(r, "")
	limit := storage.AgentMemoryCap
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	memory, err := s.journal.ListAgentMemory(r.Context(), playerID, limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if memory == nil {
		memory = []storage.AgentMemoryRecord{}
	}
	writeSuccess(w, map[string]any{"memory": memory})
}

type agentMemoryRequest struct {
	PlayerID string `json:"player_id"`
	Role     string `json:"role"`
	Content  string `json:"content"`
}

func (s *Server) handleAgentMemoryAppend(w http.ResponseWriter, r *http.Request) {
	var req agentMemoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	if req.Content == "" {
		writeFailure(w, r, errors.New(errors.CodeAnswerInvalid, "memory content is required"))
		return
	}
	if req.Role == "" {
		req.Role = "agent"
	}
	if s.journal == nil {
		writeFailure(w, r, errors.New(errors.CodeUnknown, "journal is not configured"))
		return
	}

	playerID := requestPlayerID(r, req.PlayerID)
	record := storage.AgentMemoryRecord{
		PlayerID:  playerID,
		Role:      req.Role,
		Content:   req.Content,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.journal.AppendAgentMemory(r.Context(), record); err != nil {
		writeFailure(w, r, err)
		return
	}

	writeSuccess(w, map[string]any{"record": record})
}
