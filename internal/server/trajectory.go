package server

import (
	"net/http"
	"strconv"

	"github.com/louisbranch/innercity/internal/game/scenario"
	"github.com/louisbranch/innercity/internal/game/trajectory"
	"github.com/louisbranch/innercity/internal/telemetry"
)

type trajectoryStartRequest struct {
	PlayerID string `json:"player_id"`
	District string `json:"district"`
	PathID   string `json:"path_id"`
}

func (s *Server) handleTrajectoryStart(w http.ResponseWriter, r *http.Request) {
	var req trajectoryStartRequest
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

	result, err := s.engine.StartLevel(r.Context(), st, req.District, req.PathID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	s.emit(r, playerID, telemetry.KindLevelStarted, map[string]string{
		"district": req.District,
		"level":    result.Level.ID,
	})

	payload := map[string]any{
		"level":      result.Level,
		"next_node":  result.NextNode,
		"philosophy": s.content.Scenarios.Philosophy(req.District),
		"persisted":  result.Persisted,
	}
	if result.Path != nil {
		payload["path"] = result.Path
	}
	if len(result.PlannedCards) > 0 {
		payload["planned_cards"] = result.PlannedCards
	}
	if result.BossHint != nil {
		payload["boss_hint"] = result.BossHint
	}
	writeSuccess(w, payload)
}

type trajectoryPathRequest struct {
	PlayerID string `json:"player_id"`
	LevelID  string `json:"level_id"`
	PathID   string `json:"path_id"`
}

func (s *Server) handleTrajectoryPath(w http.ResponseWriter, r *http.Request) {
	var req trajectoryPathRequest
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

	result, err := s.engine.ChoosePath(r.Context(), st, req.LevelID, req.PathID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeSuccess(w, map[string]any{
		"path":      result.Path,
		"persisted": result.Persisted,
	})
}

type trajectoryAdvanceRequest struct {
	PlayerID string `json:"player_id"`
	Answer   any    `json:"answer"`
}

func (s *Server) handleTrajectoryAdvance(w http.ResponseWriter, r *http.Request) {
	var req trajectoryAdvanceRequest
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

	result, err := s.engine.AdvanceNode(r.Context(), st, req.Answer)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	s.emit(r, playerID, telemetry.KindNodeAdvanced, map[string]string{
		"tree": st.Trajectory.TreeID,
		"node": st.Trajectory.NodeID,
	})
	s.emitBossState(r, playerID, result.BossState)

	payload := map[string]any{"persisted": result.Persisted}
	switch {
	case result.TaskTriggered:
		payload["task_triggered"] = true
		payload["task"] = result.Task
	case result.Completed:
		payload["completed"] = true
	default:
		payload["next_node"] = result.NextNode
	}
	if !result.BossState.Empty() {
		payload["boss_state"] = result.BossState
	}
	writeSuccess(w, payload)
}

type taskCompleteRequest struct {
	PlayerID string `json:"player_id"`
	Task     struct {
		LevelID   string `json:"level_id"`
		Type      string `json:"type"`
		TaskType  string `json:"task_type"`
		ActionKey string `json:"action_key"`
		Act       int    `json:"act"`
	} `json:"task"`
	Result scenario.TaskResult `json:"result"`
}

// taskEffortReward is the flat effort grant for resolving any task.
const taskEffortReward = 1

func (s *Server) handleTaskComplete(w http.ResponseWriter, r *http.Request) {
	var req taskCompleteRequest
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

	// Record the action for card unlock conditions and boss series tracking.
	actionKey := req.Task.ActionKey
	if actionKey == "" {
		actionKey = req.Task.TaskType
	}
	if actionKey == "" {
		actionKey = req.Task.Type
	}
	if actionKey == "" {
		actionKey = "task_completed"
	}
	st.ActionsHistory[actionKey]++
	st.Counters[actionKey+"_series"]++
	if req.Task.Type == "microstep" || req.Task.TaskType == "microstep" {
		st.ActionsHistory["microstep"]++
	}
	if req.Task.Act > st.ActsCompleted {
		st.ActsCompleted = req.Task.Act
	}
	if req.Task.LevelID != "" && !st.HasCompletedLevel(req.Task.LevelID) {
		st.CompletedLevels = append(st.CompletedLevels, req.Task.LevelID)
	}
	st.Effort += taskEffortReward

	result, err := s.engine.HandleTaskCompletion(r.Context(), st, req.Task.LevelID, req.Result)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	s.emit(r, playerID, telemetry.KindTaskCompleted, map[string]string{
		"level":  req.Task.LevelID,
		"action": actionKey,
	})
	s.emitBossState(r, playerID, result.BossState)

	payload := map[string]any{
		"level_completed": result.LevelCompleted,
		"effort_earned":   taskEffortReward,
		"total_effort":    st.Effort,
		"progress":        s.progressPayload(st),
		"persisted":       result.Persisted,
	}
	if result.Rewards != nil {
		payload["rewards"] = result.Rewards
	}
	if !result.BossState.Empty() {
		payload["boss_state"] = result.BossState
	}
	writeSuccess(w, payload)
}

// emitBossState records telemetry for boss changes caused by an engine step.
func (s *Server) emitBossState(r *http.Request, playerID string, state *trajectory.BossState) {
	if state.Empty() {
		return
	}
	if state.Spawned != nil && !state.Spawned.AlreadyActive {
		s.emit(r, playerID, telemetry.KindBossSpawned, map[string]string{"boss": state.Spawned.Boss.ID})
	}
	for _, defeated := range state.Defeated {
		s.emit(r, playerID, telemetry.KindBossDefeated, map[string]string{
			"boss":   defeated.Boss.ID,
			"reward": strconv.Itoa(defeated.Rewards.StabilityPoints),
		})
	}
}
