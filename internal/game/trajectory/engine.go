// Package trajectory orchestrates a player's movement through a level:
// question trees, triggered tasks, rewards and boss evaluation.
package trajectory

import (
	"context"

	"github.com/louisbranch/innercity/internal/game/boss"
	"github.com/louisbranch/innercity/internal/game/card"
	"github.com/louisbranch/innercity/internal/game/player"
	"github.com/louisbranch/innercity/internal/game/scenario"
	"github.com/louisbranch/innercity/internal/game/tree"
	"github.com/louisbranch/innercity/internal/platform/errors"
	"github.com/louisbranch/innercity/internal/storage"
)

// Engine composes the content catalogs into the per-player session state
// machine. Every mutating operation persists the player before returning;
// a failed persist is reported on the result, never rolled back.
type Engine struct {
	scenarios *scenario.Catalog
	trees     *tree.Catalog
	cards     *card.Catalog
	bosses    *boss.Director
	players   storage.PlayerStore
}

// NewEngine wires the catalogs and the player store together.
func NewEngine(scenarios *scenario.Catalog, trees *tree.Catalog, cards *card.Catalog, bosses *boss.Director, players storage.PlayerStore) *Engine {
	return &Engine{
		scenarios: scenarios,
		trees:     trees,
		cards:     cards,
		bosses:    bosses,
		players:   players,
	}
}

// BossState reports boss changes caused by one engine step.
type BossState struct {
	Spawned  *boss.SpawnResult    `json:"spawned,omitempty"`
	Defeated []*boss.DefeatResult `json:"defeated,omitempty"`
}

// Empty reports whether the step changed nothing boss-wise.
func (b *BossState) Empty() bool {
	return b == nil || (b.Spawned == nil && len(b.Defeated) == 0)
}

// StartLevelResult is the payload of a freshly started level.
type StartLevelResult struct {
	Level        *scenario.Level    `json:"level"`
	Path         *scenario.Path     `json:"path,omitempty"`
	NextNode     *tree.Step         `json:"next_node,omitempty"`
	PlannedCards []string           `json:"planned_cards,omitempty"`
	BossHint     *scenario.BossHint `json:"boss_hint,omitempty"`
	Persisted    bool               `json:"persisted"`
}

// StartLevel opens the level the player's completed-session count points at
// in the district, resolves the fork path (recorded choice first, then the
// supplied one, then the first declared), and plants a fresh cursor at the
// tree root, overwriting any in-progress trajectory.
func (e *Engine) StartLevel(ctx context.Context, st *player.State, district, pathID string) (*StartLevelResult, error) {
	sessions := st.DistrictSessions[district]
	level := e.scenarios.CurrentLevel(district, sessions+1)
	if level == nil {
		return nil, errors.WithMetadata(errors.CodeLevelNotFound, "no active level for district", map[string]string{"district": district})
	}

	path := e.resolvePath(level, st, pathID)
	treeID := level.BinaryTreeID
	if path != nil && path.BinaryTreeID != "" {
		treeID = path.BinaryTreeID
	}

	var rootStep *tree.Step
	if treeID != "" {
		step, err := e.trees.RootQuestion(treeID)
		if err != nil {
			return nil, err
		}
		rootStep = step
	}

	cursor := &player.TrajectoryCursor{
		LevelID:  level.ID,
		District: district,
		TreeID:   treeID,
		NodeID:   tree.RootNodeID,
	}
	if path != nil {
		cursor.PathID = path.ID
	}
	st.Trajectory = cursor

	return &StartLevelResult{
		Level:        level,
		Path:         path,
		NextNode:     rootStep,
		PlannedCards: e.plannedCards(level, path),
		BossHint:     e.scenarios.DistrictBoss(district),
		Persisted:    e.persist(ctx, st),
	}, nil
}

// ChoosePathResult reports a recorded fork choice.
type ChoosePathResult struct {
	Path      *scenario.Path `json:"path"`
	Persisted bool           `json:"persisted"`
}

// ChoosePath records the fork choice for a level, making it sticky. When the
// level is the one currently in progress, the cursor resets to the root of
// the chosen path's tree.
func (e *Engine) ChoosePath(ctx context.Context, st *player.State, levelID, pathID string) (*ChoosePathResult, error) {
	level := e.scenarios.LevelByID(levelID)
	if level == nil {
		return nil, errors.WithMetadata(errors.CodeLevelNotFound, "level not found", map[string]string{"level": levelID})
	}
	if !level.Fork {
		return nil, errors.WithMetadata(errors.CodeLevelNotFork, "level does not fork", map[string]string{"level": levelID})
	}
	path := level.PathByID(pathID)
	if path == nil {
		return nil, errors.WithMetadata(errors.CodePathNotFound, "path not found", map[string]string{"level": levelID, "path": pathID})
	}

	st.TrajectoryPaths[levelID] = pathID
	if st.Trajectory != nil && st.Trajectory.LevelID == levelID {
		st.Trajectory.PathID = pathID
		if path.BinaryTreeID != "" {
			st.Trajectory.TreeID = path.BinaryTreeID
		} else {
			st.Trajectory.TreeID = level.BinaryTreeID
		}
		st.Trajectory.NodeID = tree.RootNodeID
	}

	return &ChoosePathResult{Path: path, Persisted: e.persist(ctx, st)}, nil
}

// TaskPayload hands the caller everything needed to run a triggered task:
// the level's requirements merged with the prompt the tree produced.
type TaskPayload struct {
	LevelID      string `json:"level_id,omitempty"`
	Type         string `json:"type,omitempty"`
	Text         string `json:"text,omitempty"`
	MinWords     int    `json:"min_words,omitempty"`
	Items        int    `json:"items,omitempty"`
	Duration     int    `json:"duration,omitempty"`
	Guidance     string `json:"guidance,omitempty"`
	TreePrompt   string `json:"tree_prompt,omitempty"`
	TreeGuidance string `json:"tree_guidance,omitempty"`
}

// AdvanceResult classifies one tree step.
type AdvanceResult struct {
	TaskTriggered bool         `json:"task_triggered,omitempty"`
	Task          *TaskPayload `json:"task,omitempty"`
	Completed     bool         `json:"completed,omitempty"`
	NextNode      *tree.Step   `json:"next_node,omitempty"`
	BossState     *BossState   `json:"boss_state,omitempty"`
	Persisted     bool         `json:"persisted"`
}

// AdvanceNode feeds the player's answer into the active tree and moves the
// cursor. Terminal steps classify as task-triggered or completed; synthetic
// steps leave the recorded node id where it was. Every advance runs a boss
// spawn check.
func (e *Engine) AdvanceNode(ctx context.Context, st *player.State, answer any) (*AdvanceResult, error) {
	cursor := st.Trajectory
	if cursor == nil || cursor.TreeID == "" {
		return nil, errors.New(errors.CodeTrajectoryNotStarted, "no active trajectory")
	}

	step, err := e.trees.Traverse(cursor.TreeID, cursor.NodeID, answer)
	if err != nil {
		return nil, err
	}

	if step.NodeID != "" {
		cursor.NodeID = step.NodeID
	}

	result := &AdvanceResult{}
	switch {
	case step.Kind == tree.KindTaskTrigger:
		result.TaskTriggered = true
		result.Task = e.taskPayload(cursor.LevelID, step.Task)
	case step.Final:
		result.Completed = true
	default:
		result.NextNode = step
	}

	if bossState := e.evaluateBosses(st, false); !bossState.Empty() {
		result.BossState = bossState
	}
	result.Persisted = e.persist(ctx, st)
	return result, nil
}

// RewardStats is the currency delta granted by a level completion.
type RewardStats struct {
	StabilityPoints int `json:"stability_points"`
	Effort          int `json:"effort"`
}

// RewardsPayload lists what a completed level granted.
type RewardsPayload struct {
	Stats *RewardStats `json:"stats,omitempty"`
	Cards []string     `json:"cards,omitempty"`
}

// CompletionResult reports a resolved task.
type CompletionResult struct {
	LevelCompleted bool            `json:"level_completed"`
	Rewards        *RewardsPayload `json:"rewards,omitempty"`
	BossState      *BossState      `json:"boss_state,omitempty"`
	Persisted      bool            `json:"persisted"`
}

// HandleTaskCompletion resolves an externally completed task against its
// level. Rewards (stats plus cards, deduplicated) and the sticky path's
// reward card are granted only when the level exists and the result
// validates. A full boss spawn-and-defeat sweep runs either way.
func (e *Engine) HandleTaskCompletion(ctx context.Context, st *player.State, levelID string, result scenario.TaskResult) (*CompletionResult, error) {
	if levelID == "" && st.Trajectory != nil {
		levelID = st.Trajectory.LevelID
	}
	var level *scenario.Level
	if levelID != "" {
		level = e.scenarios.LevelByID(levelID)
	}
	completionValid := level == nil || e.scenarios.CheckCompletion(level, result)

	var rewards *RewardsPayload
	if completionValid && level != nil {
		rewards = e.applyLevelRewards(st, level)
		if rewardCard := e.applyPathReward(st, level); rewardCard != "" {
			if rewards == nil {
				rewards = &RewardsPayload{}
			}
			rewards.Cards = append(rewards.Cards, rewardCard)
		}
	}

	completion := &CompletionResult{
		LevelCompleted: completionValid && level != nil,
		Rewards:        rewards,
	}
	if bossState := e.evaluateBosses(st, true); !bossState.Empty() {
		completion.BossState = bossState
	}
	completion.Persisted = e.persist(ctx, st)
	return completion, nil
}

// resolvePath picks the fork path for a level: the recorded choice wins,
// then the supplied id, then the first declared path (which becomes sticky).
func (e *Engine) resolvePath(level *scenario.Level, st *player.State, pathID string) *scenario.Path {
	if !level.Fork {
		return nil
	}
	chosenID := pathID
	if recorded, ok := st.TrajectoryPaths[level.ID]; ok && recorded != "" {
		chosenID = recorded
	}
	if chosen := level.PathByID(chosenID); chosen != nil {
		return chosen
	}
	if len(level.Paths) == 0 {
		return nil
	}
	first := &level.Paths[0]
	st.TrajectoryPaths[level.ID] = first.ID
	return first
}

func (e *Engine) plannedCards(level *scenario.Level, path *scenario.Path) []string {
	cards := append([]string(nil), level.Rewards.Cards...)
	if path != nil && path.RewardCard != "" {
		cards = append(cards, path.RewardCard)
	}
	return cards
}

// taskPayload merges the level's task requirements with the tree trigger's
// prompt. The level requirements win; the tree's text and guidance ride
// along as the session prompt.
func (e *Engine) taskPayload(levelID string, trigger *tree.TaskTrigger) *TaskPayload {
	if trigger == nil {
		trigger = &tree.TaskTrigger{}
	}
	payload := &TaskPayload{
		LevelID:  levelID,
		Type:     trigger.TaskType,
		Text:     trigger.TaskText,
		Duration: trigger.Duration,
		Guidance: trigger.Guidance,
	}
	if levelID == "" {
		return payload
	}
	level := e.scenarios.LevelByID(levelID)
	if level == nil {
		return payload
	}
	return &TaskPayload{
		LevelID:      levelID,
		Type:         level.Task.Type,
		Text:         level.Task.Text,
		MinWords:     level.Task.MinWords,
		Items:        level.Task.Items,
		Duration:     level.Task.Duration,
		Guidance:     level.Task.Guidance,
		TreePrompt:   trigger.TaskText,
		TreeGuidance: trigger.Guidance,
	}
}

func (e *Engine) applyLevelRewards(st *player.State, level *scenario.Level) *RewardsPayload {
	rewards := e.scenarios.Rewards(level)

	payload := &RewardsPayload{}
	if rewards.StabilityPoints != 0 || rewards.Effort != 0 {
		st.StabilityPoints += rewards.StabilityPoints
		st.Effort += rewards.Effort
		payload.Stats = &RewardStats{
			StabilityPoints: rewards.StabilityPoints,
			Effort:          rewards.Effort,
		}
	}
	for _, cardID := range rewards.Cards {
		if st.GrantCard(cardID) {
			payload.Cards = append(payload.Cards, cardID)
		}
	}
	if payload.Stats == nil && payload.Cards == nil {
		return nil
	}
	return payload
}

// applyPathReward grants the sticky path's reward card, once.
func (e *Engine) applyPathReward(st *player.State, level *scenario.Level) string {
	pathID := st.TrajectoryPaths[level.ID]
	if pathID == "" {
		return ""
	}
	path := level.PathByID(pathID)
	if path == nil || path.RewardCard == "" {
		return ""
	}
	if st.GrantCard(path.RewardCard) {
		return path.RewardCard
	}
	return ""
}

// evaluateBosses runs the spawn check and, on task completion, sweeps every
// active boss for met defeat conditions.
func (e *Engine) evaluateBosses(st *player.State, checkDefeat bool) *BossState {
	state := &BossState{}

	if toSpawn := e.bosses.CheckSpawn(st); toSpawn != nil {
		if spawned, err := e.bosses.Spawn(toSpawn.ID, st); err == nil {
			state.Spawned = spawned
		}
	}

	if checkDefeat {
		active := append([]string(nil), st.ActiveBosses...)
		for _, bossID := range active {
			if !e.bosses.CheckDefeat(bossID, st) {
				continue
			}
			if defeated, err := e.bosses.Defeat(bossID, st); err == nil {
				state.Defeated = append(state.Defeated, defeated)
			}
		}
	}
	return state
}

// persist writes the state through the player store. A failure is reported
// to the caller as Persisted=false; in-memory mutations are kept.
func (e *Engine) persist(ctx context.Context, st *player.State) bool {
	if e.players == nil {
		return false
	}
	return e.players.SavePlayer(ctx, st) == nil
}
