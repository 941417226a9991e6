package server

import (
	"net/http"
	"strconv"

	"github.com/louisbranch/innercity/internal/game/card"
	"github.com/louisbranch/innercity/internal/game/player"
	"github.com/louisbranch/innercity/internal/platform/errors"
	"github.com/louisbranch/innercity/internal/storage"
	"github.com/louisbranch/innercity/internal/telemetry"
)

type sessionStartRequest struct {
	PlayerID  string `json:"player_id"`
	District  string `json:"district"`
	Emotion   string `json:"emotion"`
	Intensity int    `json:"intensity"`
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req sessionStartRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	if req.District == "" {
		writeFailure(w, r, errors.New(errors.CodeAnswerInvalid, "district is required"))
		return
	}
	if req.Intensity == 0 {
		req.Intensity = 5
	}

	playerID := requestPlayerID(r, req.PlayerID)
	st, err := s.loadPlayer(r, playerID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	if district, ok := st.Districts[req.District]; ok && !district.Unlocked {
		writeFailure(w, r, errors.WithMetadata(errors.CodeUnlockConditionUnmet, "district is locked", map[string]string{"district": req.District}))
		return
	}

	now := s.clock()
	if ok, remaining := player.CanStartSession(st, now, s.cooldown); !ok {
		writeFailure(w, r, errors.WithMetadata(errors.CodeSessionCooldown, "session cooldown active", map[string]string{
			"remaining_seconds": strconv.Itoa(int(remaining.Seconds()) + 1),
		}))
		return
	}

	session, err := player.StartSession(st, req.District, req.Emotion, req.Intensity, now)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	// Pin the session to the level its completed-session count points at.
	if level := s.content.Scenarios.CurrentLevel(req.District, st.DistrictSessions[req.District]+1); level != nil {
		session.LevelID = level.ID
		session.Act = level.Act
	}

	saved := s.savePlayer(r, st)
	s.emit(r, playerID, telemetry.KindSessionStarted, map[string]string{
		"district": req.District,
		"emotion":  req.Emotion,
	})

	writeSuccess(w, map[string]any{
		"session":    session,
		"philosophy": s.content.Scenarios.Philosophy(req.District),
		"progress":   s.progressPayload(st),
		"persisted":  saved,
	})
}

type sessionEndRequest struct {
	PlayerID string         `json:"player_id"`
	Session  player.Session `json:"session"`
	Points   int            `json:"points"`
}

func (s *Server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	var req sessionEndRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	if req.Points == 0 {
		req.Points = s.pointsPerSession
	}

	playerID := requestPlayerID(r, req.PlayerID)
	st, err := s.loadPlayer(r, playerID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	now := s.clock()
	summary := player.CompleteSession(st, &req.Session, req.Points, now)

	// Effort is computed against the streak before this session extends it.
	effortEarned := card.SessionEffort(req.Session, st)
	card.AddEffort(st, effortEarned)
	st.SessionStreak++

	unlocked := player.CheckUnlocks(st, s.unlockThreshold)

	saved := s.savePlayer(r, st)
	if s.journal != nil {
		_ = s.journal.AppendSession(r.Context(), storage.SessionRecord{
			PlayerID:        playerID,
			District:        req.Session.District,
			Emotion:         req.Session.Emotion,
			Intensity:       req.Session.Intensity,
			StartedAt:       req.Session.StartedAt,
			Completed:       req.Session.Completed,
			CompletedAt:     req.Session.CompletedAt,
			PointsEarned:    req.Session.PointsEarned,
			LevelID:         req.Session.LevelID,
			Act:             req.Session.Act,
			MicrostepsCount: req.Session.MicrostepsCount,
		})
	}
	s.emit(r, playerID, telemetry.KindSessionCompleted, map[string]string{
		"district": req.Session.District,
		"level":    req.Session.LevelID,
		"points":   strconv.Itoa(summary.Points),
	})

	var districtVisual any
	if _, ok := st.Districts[req.Session.District]; ok {
		districtVisual = s.districtsOverview(st)[req.Session.District].Visual
	}

	writeSuccess(w, map[string]any{
		"points_earned":      summary.Points,
		"total_points":       summary.TotalPoints,
		"district_level":     summary.DistrictLevel,
		"district_visual":    districtVisual,
		"effort_earned":      effortEarned,
		"newly_unlocked":     unlocked,
		"unlocked_districts": unlockedDistricts(st),
		"progress":           s.progressPayload(st),
		"persisted":          saved,
	})
}

func unlockedDistricts(st *player.State) []string {
	var open []string
	for districtID, district := range st.Districts {
		if district.Unlocked {
			open = append(open, districtID)
		}
	}
	return open
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeSuccess(w, map[string]any{"sessions": []storage.SessionRecord{}})
		return
	}

	playerID := requestPlayerID(r, "")
	limit := storage.SessionHistoryCap
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	sessions, err := s.journal.ListSessions(r.Context(), playerID, limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []storage.SessionRecord{}
	}
	writeSuccess(w, map[string]any{"sessions": sessions})
}
