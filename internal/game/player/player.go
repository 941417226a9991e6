// Package player defines the persisted player record and its progression
// rules: sessions, districts, currencies, and unlock thresholds.
package player

import (
	"time"

	"github.com/louisbranch/innercity/internal/platform/errors"
)

// Progression tunables. Callers may override via Config.
const (
	DefaultPointsPerSession = 15
	DefaultUnlockThreshold  = 50
)

// CanStartSession checks the session cooldown gate. When the gate is closed
// it returns the remaining wait time.
func CanStartSession(st *State, now time.Time, cooldown time.Duration) (bool, time.Duration) {
	if st == nil || st.LastSessionTime == nil || cooldown <= 0 {
		return true, 0
	}
	elapsed := now.Sub(*st.LastSessionTime)
	if elapsed < cooldown {
		return false, cooldown - elapsed
	}
	return true, 0
}

// StartSession opens a new play session in the district. The cooldown gate
// must be checked by the caller via CanStartSession.
func StartSession(st *State, district, emotion string, intensity int, now time.Time) (Session, error) {
	if st == nil {
		return Session{}, errors.New(errors.CodePlayerIDRequired, "player state is required")
	}
	if _, ok := st.Districts[district]; !ok {
		return Session{}, errors.WithMetadata(errors.CodeDistrictNotFound, "unknown district", map[string]string{"district": district})
	}

	Migrate(st)
	st.LastSessionDistrict = district
	started := now.UTC()
	st.LastSessionTime = &started

	return Session{
		District:  district,
		Emotion:   emotion,
		Intensity: intensity,
		StartedAt: started,
	}, nil
}

// CompletionSummary reports the outcome of a completed session.
type CompletionSummary struct {
	Points        int
	TotalPoints   int
	DistrictLevel int
}

// CompleteSession closes a session: marks it completed, grants stability
// points, advances the district, and records completed levels and acts.
func CompleteSession(st *State, session *Session, points int, now time.Time) CompletionSummary {
	Migrate(st)

	completed := now.UTC()
	session.Completed = true
	session.CompletedAt = &completed
	session.PointsEarned = points

	st.StabilityPoints += points

	if session.District != "" {
		st.DistrictSessions[session.District]++
		st.LastSessionDistrict = session.District
		if district, ok := st.Districts[session.District]; ok {
			district.SessionsCount++
			district.Level++
		}
	}

	if session.LevelID != "" && !st.HasCompletedLevel(session.LevelID) {
		st.CompletedLevels = append(st.CompletedLevels, session.LevelID)
	}
	if session.Act > st.ActsCompleted {
		st.ActsCompleted = session.Act
	}

	summary := CompletionSummary{
		Points:      points,
		TotalPoints: st.StabilityPoints,
	}
	if district, ok := st.Districts[session.District]; ok {
		summary.DistrictLevel = district.Level
	}
	return summary
}

// CheckUnlocks opens districts gated on accumulated stability points.
// Currently only the forum unlocks this way.
func CheckUnlocks(st *State, threshold int) []string {
	if st == nil || st.StabilityPoints < threshold {
		return nil
	}
	var unlocked []string
	if forum, ok := st.Districts["forum"]; ok && !forum.Unlocked {
		forum.Unlocked = true
		unlocked = append(unlocked, "forum")
	}
	return unlocked
}

// AddPoints grants stability points.
func AddPoints(st *State, points int) {
	st.StabilityPoints += points
}

// AddRitual appends a ritual, stamping its creation time.
func AddRitual(st *State, ritual Ritual, now time.Time) Ritual {
	ritual.CreatedAt = now.UTC()
	st.Rituals = append(st.Rituals, ritual)
	return ritual
}

// AddGoal appends a goal. New goals always start incomplete.
func AddGoal(st *State, goal Goal, now time.Time) Goal {
	goal.CreatedAt = now.UTC()
	goal.Completed = false
	st.Goals = append(st.Goals, goal)
	return goal
}
