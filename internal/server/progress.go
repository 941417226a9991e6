package server

import (
	"net/http"

	"github.com/louisbranch/innercity/internal/game/city"
	"github.com/louisbranch/innercity/internal/game/player"
)

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	playerID := requestPlayerID(r, "")
	st, err := s.loadPlayer(r, playerID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	payload := s.progressPayload(st)
	payload["districts"] = s.districtsOverview(st)
	payload["last_session"] = st.LastSessionTime
	writeSuccess(w, payload)
}

// progressPayload summarizes a player's progression for API responses.
func (s *Server) progressPayload(st *player.State) map[string]any {
	available := s.content.Cards.Available(st)
	availableIDs := make([]string, 0, len(available))
	for _, c := range available {
		availableIDs = append(availableIDs, c.ID)
	}

	return map[string]any{
		"stability_points": st.StabilityPoints,
		"effort":           st.Effort,
		"available_cards":  availableIDs,
		"owned_cards":      st.OwnedCards,
		"district_sessions": st.DistrictSessions,
		"completed_levels": st.CompletedLevels,
		"acts_completed":   st.ActsCompleted,
		"actions_history":  st.ActionsHistory,
		"active_bosses":    st.ActiveBosses,
		"blocked_options":  s.content.Bosses.BlockedOptions(st),
		"finale_unlocked":  st.FinaleUnlocked,
	}
}

type districtOverview struct {
	Name     string           `json:"name"`
	Theme    string           `json:"theme"`
	Level    int              `json:"level"`
	Unlocked bool             `json:"unlocked"`
	Visual   city.VisualState `json:"visual"`
}

// districtsOverview renders every district with its derived visual state.
// Boss fog raises the base density when it is thicker.
func (s *Server) districtsOverview(st *player.State) map[string]districtOverview {
	overview := make(map[string]districtOverview, len(st.Districts))
	for districtID, district := range st.Districts {
		visual := city.Visual(district)
		if district.Fog > visual.FogDensity {
			visual.FogDensity = district.Fog
		}
		overview[districtID] = districtOverview{
			Name:     district.Name,
			Theme:    district.Theme,
			Level:    district.Level,
			Unlocked: district.Unlocked,
			Visual:   visual,
		}
	}
	return overview
}
