package server

import (
	"net/http"
	"strconv"

	"github.com/louisbranch/innercity/internal/game/boss"
	"github.com/louisbranch/innercity/internal/platform/errors"
	"github.com/louisbranch/innercity/internal/telemetry"
)

func (s *Server) handleBossActive(w http.ResponseWriter, r *http.Request) {
	playerID := requestPlayerID(r, "")
	st, err := s.loadPlayer(r, playerID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	type activeBoss struct {
		Boss       *boss.Boss `json:"boss"`
		Defeatable bool       `json:"defeatable"`
	}

	active := make([]activeBoss, 0, len(st.ActiveBosses))
	for _, bossID := range st.ActiveBosses {
		b := s.content.Bosses.Get(bossID)
		if b == nil {
			continue
		}
		active = append(active, activeBoss{
			Boss:       b,
			Defeatable: s.content.Bosses.CheckDefeat(bossID, st),
		})
	}

	blocked := s.content.Bosses.BlockedOptions(st)
	if blocked == nil {
		blocked = []string{}
	}
	writeSuccess(w, map[string]any{
		"bosses":          active,
		"blocked_options": blocked,
		"finale_unlocked": st.FinaleUnlocked,
	})
}

type bossDefeatRequest struct {
	PlayerID string `json:"player_id"`
	BossID   string `json:"boss_id"`
}

func (s *Server) handleBossDefeat(w http.ResponseWriter, r *http.Request) {
	var req bossDefeatRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}

	playerID := requestPlayerID(r, req.PlayerID)
	st, err := s.loadPlayer(r, playerID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	if !st.BossActive(req.BossID) {
		writeFailure(w, r, errors.WithMetadata(errors.CodeBossNotFound, "boss is not active", map[string]string{"boss": req.BossID}))
		return
	}
	if !s.content.Bosses.CheckDefeat(req.BossID, st) {
		writeFailure(w, r, errors.WithMetadata(errors.CodeUnlockConditionUnmet, "defeat conditions not met", map[string]string{"boss": req.BossID}))
		return
	}

	result, err := s.content.Bosses.Defeat(req.BossID, st)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	saved := s.savePlayer(r, st)
	s.emit(r, playerID, telemetry.KindBossDefeated, map[string]string{
		"boss":   req.BossID,
		"reward": strconv.Itoa(result.Rewards.StabilityPoints),
	})

	writeSuccess(w, map[string]any{
		"boss":            result.Boss,
		"message":         result.Message,
		"rewards":         result.Rewards,
		"finale_unlocked": result.FinaleUnlocked,
		"progress":        s.progressPayload(st),
		"persisted":       saved,
	})
}
