package player

import "time"

// DistrictState tracks a player's progress within one city district.
type DistrictState struct {
	Name          string  `json:"name"`
	Theme         string  `json:"theme"`
	Level         int     `json:"level"`
	Unlocked      bool    `json:"unlocked"`
	SessionsCount int     `json:"sessions_count"`
	Fog           float64 `json:"fog,omitempty"`
}

// TrajectoryCursor is the single active trajectory position for a player.
type TrajectoryCursor struct {
	LevelID  string `json:"level_id"`
	District string `json:"district"`
	TreeID   string `json:"tree_id"`
	NodeID   string `json:"node_id"`
	PathID   string `json:"path_id,omitempty"`
}

// Ritual is a recurring practice the player has committed to.
type Ritual struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	District    string    `json:"district,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Goal is a longer-term aim tracked on the player record.
type Goal struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	District    string    `json:"district,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session is one play session record.
type Session struct {
	District        string     `json:"district"`
	Emotion         string     `json:"emotion,omitempty"`
	Intensity       int        `json:"intensity,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	PointsEarned    int        `json:"points_earned,omitempty"`
	LevelID         string     `json:"level_id,omitempty"`
	Act             int        `json:"act,omitempty"`
	MicrostepsCount int        `json:"microsteps_count,omitempty"`
}

// State is the full persisted player record. It is owned by the caller and
// passed by reference into every game operation; only this record mutates,
// catalog content never does.
type State struct {
	PlayerID  string    `json:"player_id"`
	CreatedAt time.Time `json:"created_at"`

	StabilityPoints int `json:"stability_points"`
	Effort          int `json:"effort"`
	SessionStreak   int `json:"session_streak"`

	Districts        map[string]*DistrictState `json:"districts"`
	DistrictSessions map[string]int            `json:"district_sessions"`
	ActsCompleted    int                       `json:"acts_completed"`

	OwnedCards   []string       `json:"owned_cards"`
	EquippedCard string         `json:"equipped_card,omitempty"`
	EquippedAt   *time.Time     `json:"equipped_at,omitempty"`
	RelicUses    map[string]int `json:"relic_uses"`
	LastCardUsed string         `json:"last_card_used,omitempty"`

	CompletedLevels    []string `json:"completed_levels"`
	CompletedContracts []string `json:"completed_contracts"`
	Achievements       []string `json:"achievements"`

	// ActionsHistory counts named player actions for card unlock conditions.
	ActionsHistory map[string]int `json:"actions_history"`
	// Counters holds named behavioral counters driving boss pattern triggers
	// and series defeat conditions.
	Counters map[string]int `json:"counters"`

	ActiveBosses  []string       `json:"active_bosses"`
	BossPenalties map[string]int `json:"boss_penalties"`
	// BlockedOptions maps boss id to the option ids that boss blocks, so a
	// defeat removes only that boss's contribution.
	BlockedOptions map[string][]string `json:"blocked_options"`

	Rituals []Ritual `json:"rituals"`
	Goals   []Goal   `json:"goals"`

	Trajectory      *TrajectoryCursor `json:"trajectory_state,omitempty"`
	TrajectoryPaths map[string]string `json:"trajectory_paths"`

	LastSessionDistrict string     `json:"last_session_district,omitempty"`
	LastSessionTime     *time.Time `json:"last_session_time,omitempty"`

	FinaleUnlocked bool `json:"finale_unlocked"`
}

// defaultDistricts builds the starting city. Forum stays locked until the
// stability threshold is reached.
func defaultDistricts() map[string]*DistrictState {
	return map[string]*DistrictState{
		"oasis":   {Name: "Oasis", Theme: "health", Unlocked: true},
		"forum":   {Name: "Forum", Theme: "relationships", Unlocked: false},
		"citadel": {Name: "Citadel", Theme: "work", Unlocked: true},
		"arsenal": {Name: "Arsenal", Theme: "finance", Unlocked: true},
		"garden":  {Name: "Garden", Theme: "personal", Unlocked: true},
	}
}

// NewState creates a fresh player record with the default city.
func NewState(playerID string, now time.Time) *State {
	st := &State{
		PlayerID:  playerID,
		CreatedAt: now.UTC(),
		Districts: defaultDistricts(),
	}
	Migrate(st)
	return st
}

// Migrate backfills maps and slices that older saves may be missing. It is
// safe to call on any loaded state.
func Migrate(st *State) {
	if st == nil {
		return
	}
	if st.Districts == nil {
		st.Districts = defaultDistricts()
	}
	if st.DistrictSessions == nil {
		st.DistrictSessions = map[string]int{}
	}
	if st.RelicUses == nil {
		st.RelicUses = map[string]int{}
	}
	if st.ActionsHistory == nil {
		st.ActionsHistory = map[string]int{}
	}
	if st.Counters == nil {
		st.Counters = map[string]int{}
	}
	if st.BossPenalties == nil {
		st.BossPenalties = map[string]int{}
	}
	if st.BlockedOptions == nil {
		st.BlockedOptions = map[string][]string{}
	}
	if st.TrajectoryPaths == nil {
		st.TrajectoryPaths = map[string]string{}
	}
	if st.OwnedCards == nil {
		st.OwnedCards = []string{}
	}
	if st.CompletedLevels == nil {
		st.CompletedLevels = []string{}
	}
	if st.CompletedContracts == nil {
		st.CompletedContracts = []string{}
	}
	if st.Achievements == nil {
		st.Achievements = []string{}
	}
	if st.ActiveBosses == nil {
		st.ActiveBosses = []string{}
	}
	if st.Rituals == nil {
		st.Rituals = []Ritual{}
	}
	if st.Goals == nil {
		st.Goals = []Goal{}
	}
}

// OwnsCard reports whether the player owns the card.
func (st *State) OwnsCard(cardID string) bool {
	for _, owned := range st.OwnedCards {
		if owned == cardID {
			return true
		}
	}
	return false
}

// GrantCard adds the card to the player's collection, deduplicating.
// It reports whether the card was newly granted.
func (st *State) GrantCard(cardID string) bool {
	if cardID == "" || st.OwnsCard(cardID) {
		return false
	}
	st.OwnedCards = append(st.OwnedCards, cardID)
	return true
}

// RemoveCard drops the card from the player's collection.
func (st *State) RemoveCard(cardID string) {
	for i, owned := range st.OwnedCards {
		if owned == cardID {
			st.OwnedCards = append(st.OwnedCards[:i], st.OwnedCards[i+1:]...)
			return
		}
	}
}

// HasCompletedLevel reports whether the level id is recorded as completed.
func (st *State) HasCompletedLevel(levelID string) bool {
	for _, done := range st.CompletedLevels {
		if done == levelID {
			return true
		}
	}
	return false
}

// BossActive reports whether the boss is currently spawned.
func (st *State) BossActive(bossID string) bool {
	for _, active := range st.ActiveBosses {
		if active == bossID {
			return true
		}
	}
	return false
}
