package server

import (
	"net/http"
	"strconv"

	"github.com/louisbranch/innercity/internal/game/card"
	"github.com/louisbranch/innercity/internal/platform/errors"
	"github.com/louisbranch/innercity/internal/telemetry"
)

func (s *Server) handleCardsOwned(w http.ResponseWriter, r *http.Request) {
	playerID := requestPlayerID(r, "")
	st, err := s.loadPlayer(r, playerID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	owned := make([]*card.Card, 0, len(st.OwnedCards))
	for _, cardID := range st.OwnedCards {
		if c := s.content.Cards.Get(cardID); c != nil {
			owned = append(owned, c)
		}
	}

	writeSuccess(w, map[string]any{
		"cards":         owned,
		"equipped_card": st.EquippedCard,
		"effort":        st.Effort,
	})
}

func (s *Server) handleCardsAvailable(w http.ResponseWriter, r *http.Request) {
	playerID := requestPlayerID(r, "")
	st, err := s.loadPlayer(r, playerID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	available := s.content.Cards.Available(st)
	if available == nil {
		available = []*card.Card{}
	}
	writeSuccess(w, map[string]any{
		"cards":  available,
		"effort": st.Effort,
	})
}

type cardRequest struct {
	PlayerID string `json:"player_id"`
	CardID   string `json:"card_id"`
}

func (s *Server) handleCardUnlock(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
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

	result, err := s.content.Cards.Unlock(req.CardID, st)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	saved := s.savePlayer(r, st)
	s.emit(r, playerID, telemetry.KindCardUnlocked, map[string]string{
		"card": req.CardID,
		"cost": strconv.Itoa(result.EffortSpent),
	})

	writeSuccess(w, map[string]any{
		"card":             result.Card,
		"effort_spent":     result.EffortSpent,
		"effort_remaining": result.EffortRemaining,
		"persisted":        saved,
	})
}

func (s *Server) handleCardEquip(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
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

	if err := s.content.Cards.Equip(req.CardID, st); err != nil {
		writeFailure(w, r, err)
		return
	}

	saved := s.savePlayer(r, st)
	writeSuccess(w, map[string]any{
		"equipped_card": st.EquippedCard,
		"persisted":     saved,
	})
}

func (s *Server) handleCardActivate(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
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

	cardID := req.CardID
	if cardID == "" {
		cardID = st.EquippedCard
	}
	if cardID == "" {
		writeFailure(w, r, errors.New(errors.CodeCardNotEquipped, "no card equipped"))
		return
	}

	result, err := s.content.Cards.Activate(cardID, st)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	// Fog reductions are reported by the card system and applied here, where
	// the district records live.
	for _, effect := range result.Effects {
		if effect.Type != "fog_reduction" {
			continue
		}
		if district, ok := st.Districts[effect.District]; ok {
			district.Fog -= effect.Amount
			if district.Fog < 0 {
				district.Fog = 0
			}
		}
	}

	saved := s.savePlayer(r, st)
	s.emit(r, playerID, telemetry.KindCardActivated, map[string]string{"card": cardID})

	writeSuccess(w, map[string]any{
		"card_id":   cardID,
		"effects":   result.Effects,
		"consumed":  result.Consumed,
		"expired":   result.Expired,
		"progress":  s.progressPayload(st),
		"persisted": saved,
	})
}
