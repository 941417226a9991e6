package server

import (
	"net/http"

	"github.com/louisbranch/innercity/internal/game/player"
	"github.com/louisbranch/innercity/internal/platform/errors"
)

type ritualRequest struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	District    string `json:"district"`
}

func (s *Server) handleRitualAdd(w http.ResponseWriter, r *http.Request) {
	var req ritualRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	if req.Name == "" {
		writeFailure(w, r, errors.New(errors.CodeAnswerInvalid, "ritual name is required"))
		return
	}

	playerID := requestPlayerID(r, req.PlayerID)
	st, err := s.loadPlayer(r, playerID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	ritual := player.AddRitual(st, player.Ritual{
		Name:        req.Name,
		Description: req.Description,
		District:    req.District,
	}, s.clock())

	saved := s.savePlayer(r, st)
	writeSuccess(w, map[string]any{
		"ritual":    ritual,
		"persisted": saved,
	})
}

func (s *Server) handleGoalAdd(w http.ResponseWriter, r *http.Request) {
	var req ritualRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	if req.Name == "" {
		writeFailure(w, r, errors.New(errors.CodeAnswerInvalid, "goal name is required"))
		return
	}

	playerID := requestPlayerID(r, req.PlayerID)
	st, err := s.loadPlayer(r, playerID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	goal := player.AddGoal(st, player.Goal{
		Name:        req.Name,
		Description: req.Description,
		District:    req.District,
	}, s.clock())

	saved := s.savePlayer(r, st)
	writeSuccess(w, map[string]any{
		"goal":      goal,
		"persisted": saved,
	})
}
