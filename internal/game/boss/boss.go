// Package boss evaluates boss spawn triggers and defeat conditions and
// applies boss effects to player state.
package boss

import (
	"github.com/louisbranch/innercity/internal/game/player"
	"github.com/louisbranch/innercity/internal/platform/errors"
)

// Trigger kinds. Content with any other kind is rejected at load time.
const (
	TriggerPattern   = "pattern"
	TriggerMilestone = "milestone"
)

// Defeat condition kinds. Content with any other kind is rejected at load
// time.
const (
	DefeatSeries      = "series"
	DefeatCard        = "card"
	DefeatFullSession = "full_session"
)

const (
	defaultPatternThreshold = 3
	defaultLevelFloor       = 3
	defeatStabilityReward   = 20
	defeatEffortReward      = 5
)

// Trigger describes when a boss spawns. Pattern triggers watch a named
// behavioral counter; milestone triggers require every district to reach a
// level floor plus a minimum completed-acts count.
type Trigger struct {
	Type          string `json:"type"`
	Counter       string `json:"counter,omitempty"`
	Threshold     int    `json:"threshold,omitempty"`
	LevelFloor    int    `json:"level_floor,omitempty"`
	ActsCompleted int    `json:"acts_completed,omitempty"`
}

// Effects are applied on spawn and undone (per boss) on defeat.
type Effects struct {
	Penalty           int      `json:"penalty,omitempty"`
	FogIncrease       float64  `json:"fog_increase,omitempty"`
	DistrictsAffected []string `json:"districts_affected,omitempty"`
	Blocks            []string `json:"blocks,omitempty"`
}

// DefeatCondition is one way to clear a boss. Conditions are alternatives:
// any one holding defeats the boss.
type DefeatCondition struct {
	Type     string `json:"type"`
	Action   string `json:"action,omitempty"`
	Count    int    `json:"count,omitempty"`
	CardID   string `json:"card_id,omitempty"`
	District string `json:"district,omitempty"`
}

// Dialogue carries the boss's narrative lines.
type Dialogue struct {
	Appearance string `json:"appearance,omitempty"`
	Defeat     string `json:"defeat,omitempty"`
}

// Boss is an immutable content record.
type Boss struct {
	ID               string            `json:"boss_id"`
	Name             string            `json:"name,omitempty"`
	Trigger          Trigger           `json:"trigger"`
	Effects          Effects           `json:"effects,omitempty"`
	DefeatConditions []DefeatCondition `json:"defeat_conditions,omitempty"`
	Dialogue         Dialogue          `json:"dialogue,omitempty"`
	Finale           bool              `json:"finale,omitempty"`
}

// Director is a read-only boss lookup preserving declaration order; spawn
// checks honor that order.
type Director struct {
	bosses map[string]*Boss
	order  []string
}

// NewDirector builds a director from bosses in declaration order.
func NewDirector(bosses []*Boss) *Director {
	d := &Director{bosses: make(map[string]*Boss, len(bosses))}
	for _, b := range bosses {
		if b == nil || b.ID == "" {
			continue
		}
		if _, exists := d.bosses[b.ID]; exists {
			continue
		}
		d.bosses[b.ID] = b
		d.order = append(d.order, b.ID)
	}
	return d
}

// Get returns a copy of the boss, or nil.
func (d *Director) Get(bossID string) *Boss {
	b, ok := d.bosses[bossID]
	if !ok {
		return nil
	}
	dup := *b
	if b.Effects.DistrictsAffected != nil {
		dup.Effects.DistrictsAffected = make([]string, len(b.Effects.DistrictsAffected))
		copy(dup.Effects.DistrictsAffected, b.Effects.DistrictsAffected)
	}
	if b.Effects.Blocks != nil {
		dup.Effects.Blocks = make([]string, len(b.Effects.Blocks))
		copy(dup.Effects.Blocks, b.Effects.Blocks)
	}
	if b.DefeatConditions != nil {
		dup.DefeatConditions = make([]DefeatCondition, len(b.DefeatConditions))
		copy(dup.DefeatConditions, b.DefeatConditions)
	}
	return &dup
}

// CheckSpawn returns the first boss in declaration order whose trigger holds
// and that is not already active, or nil.
func (d *Director) CheckSpawn(st *player.State) *Boss {
	for _, bossID := range d.order {
		if st.BossActive(bossID) {
			continue
		}
		if d.triggered(d.bosses[bossID], st) {
			return d.Get(bossID)
		}
	}
	return nil
}

func (d *Director) triggered(b *Boss, st *player.State) bool {
	switch b.Trigger.Type {
	case TriggerPattern:
		threshold := b.Trigger.Threshold
		if threshold == 0 {
			threshold = defaultPatternThreshold
		}
		return st.Counters[b.Trigger.Counter] >= threshold
	case TriggerMilestone:
		floor := b.Trigger.LevelFloor
		if floor == 0 {
			floor = defaultLevelFloor
		}
		for _, district := range st.Districts {
			if district.Level < floor {
				return false
			}
		}
		return st.ActsCompleted >= b.Trigger.ActsCompleted
	default:
		// Unknown kinds are rejected at content load time.
		return false
	}
}

// SpawnResult reports a boss activation.
type SpawnResult struct {
	Boss    *Boss  `json:"boss"`
	Message string `json:"message,omitempty"`
	// AlreadyActive is set when the boss was spawned before; no effects are
	// reapplied in that case.
	AlreadyActive bool `json:"already_active,omitempty"`
}

// Spawn activates the boss and applies its effects: the reward penalty is
// recorded under the boss id, fog is raised in the affected districts (every
// district when none are listed), and blocked options are recorded under the
// boss id so a later defeat removes only this boss's contribution.
// Spawning an already-active boss is a no-op.
func (d *Director) Spawn(bossID string, st *player.State) (*SpawnResult, error) {
	b := d.Get(bossID)
	if b == nil {
		return nil, errors.WithMetadata(errors.CodeBossNotFound, "boss not found", map[string]string{"boss": bossID})
	}
	if st.BossActive(bossID) {
		return &SpawnResult{Boss: b, AlreadyActive: true}, nil
	}

	st.ActiveBosses = append(st.ActiveBosses, bossID)

	if b.Effects.Penalty != 0 {
		st.BossPenalties[bossID] = b.Effects.Penalty
	}
	if b.Effects.FogIncrease != 0 {
		affected := b.Effects.DistrictsAffected
		if len(affected) == 0 {
			for districtID := range st.Districts {
				affected = append(affected, districtID)
			}
		}
		for _, districtID := range affected {
			if district, ok := st.Districts[districtID]; ok {
				district.Fog = b.Effects.FogIncrease
			}
		}
	}
	if len(b.Effects.Blocks) > 0 {
		st.BlockedOptions[bossID] = append([]string(nil), b.Effects.Blocks...)
	}

	return &SpawnResult{Boss: b, Message: b.Dialogue.Appearance}, nil
}

// CheckDefeat reports whether any of the boss's defeat conditions holds.
func (d *Director) CheckDefeat(bossID string, st *player.State) bool {
	b, ok := d.bosses[bossID]
	if !ok {
		return false
	}
	for _, condition := range b.DefeatConditions {
		switch condition.Type {
		case DefeatSeries:
			if st.Counters[condition.Action+"_series"] >= condition.Count {
				return true
			}
		case DefeatCard:
			if st.LastCardUsed == condition.CardID {
				return true
			}
		case DefeatFullSession:
			if st.LastSessionDistrict == condition.District {
				return true
			}
		}
	}
	return false
}

// DefeatRewards is the fixed reward for clearing a boss.
type DefeatRewards struct {
	StabilityPoints int    `json:"stability_points"`
	Effort          int    `json:"effort"`
	Achievement     string `json:"achievement"`
}

// DefeatResult reports a cleared boss.
type DefeatResult struct {
	Boss    *Boss         `json:"boss"`
	Message string        `json:"message,omitempty"`
	Rewards DefeatRewards `json:"rewards"`
	// FinaleUnlocked is set when this defeat opened the terminal game mode.
	FinaleUnlocked bool `json:"finale_unlocked,omitempty"`
}

// Defeat clears the boss: it leaves the active set, its penalty and its
// blocked options (only its own) are removed, and the player earns a fixed
// reward plus an achievement. A finale boss unlocks the terminal game mode.
func (d *Director) Defeat(bossID string, st *player.State) (*DefeatResult, error) {
	b := d.Get(bossID)
	if b == nil {
		return nil, errors.WithMetadata(errors.CodeBossNotFound, "boss not found", map[string]string{"boss": bossID})
	}

	for i, active := range st.ActiveBosses {
		if active == bossID {
			st.ActiveBosses = append(st.ActiveBosses[:i], st.ActiveBosses[i+1:]...)
			break
		}
	}
	delete(st.BossPenalties, bossID)
	delete(st.BlockedOptions, bossID)

	rewards := DefeatRewards{
		StabilityPoints: defeatStabilityReward,
		Effort:          defeatEffortReward,
		Achievement:     "defeated_" + bossID,
	}
	st.StabilityPoints += rewards.StabilityPoints
	st.Effort += rewards.Effort
	if !hasAchievement(st, rewards.Achievement) {
		st.Achievements = append(st.Achievements, rewards.Achievement)
	}

	result := &DefeatResult{Boss: b, Message: b.Dialogue.Defeat, Rewards: rewards}
	if b.Finale {
		st.FinaleUnlocked = true
		result.FinaleUnlocked = true
	}
	return result, nil
}

// BlockedOptions flattens every active boss's blocked option ids, in active
// spawn order.
func (d *Director) BlockedOptions(st *player.State) []string {
	var blocked []string
	for _, bossID := range st.ActiveBosses {
		blocked = append(blocked, st.BlockedOptions[bossID]...)
	}
	return blocked
}

func hasAchievement(st *player.State, achievement string) bool {
	for _, have := range st.Achievements {
		if have == achievement {
			return true
		}
	}
	return false
}
