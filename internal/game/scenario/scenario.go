// Package scenario holds the read-only level catalog per district and the
// task-completion rules attached to levels.
package scenario

import "strings"

// Task kinds supported by level completion checks. Content with any other
// kind is rejected at load time.
const (
	TaskReflection = "reflection"
	TaskTimer      = "timer"
	TaskChoice     = "choice"
	TaskChecklist  = "checklist"
)

// Task describes the activity a level asks the player to perform.
type Task struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	MinWords int    `json:"min_words,omitempty"`
	Items    int    `json:"items,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Guidance string `json:"guidance,omitempty"`
}

// Rewards granted when a level's task completes.
type Rewards struct {
	StabilityPoints int      `json:"stability_points,omitempty"`
	Effort          int      `json:"effort,omitempty"`
	Cards           []string `json:"cards,omitempty"`
}

// Path is one branch of a forking level.
type Path struct {
	ID           string `json:"path_id"`
	Title        string `json:"title,omitempty"`
	BinaryTreeID string `json:"binary_tree_id,omitempty"`
	RewardCard   string `json:"reward_card,omitempty"`
}

// Level is an immutable content record gating a range of completed-session
// counts within a district.
type Level struct {
	ID               string  `json:"level_id"`
	District         string  `json:"district,omitempty"`
	Act              int     `json:"act,omitempty"`
	Title            string  `json:"title,omitempty"`
	SessionsRequired [2]int  `json:"sessions_required"`
	BinaryTreeID     string  `json:"binary_tree_id,omitempty"`
	Fork             bool    `json:"fork,omitempty"`
	Paths            []Path  `json:"paths,omitempty"`
	Task             Task    `json:"task"`
	Rewards          Rewards `json:"rewards"`
}

// PathByID returns the fork path with the given id, or nil.
func (l *Level) PathByID(pathID string) *Path {
	for i := range l.Paths {
		if l.Paths[i].ID == pathID {
			return &l.Paths[i]
		}
	}
	return nil
}

// BossHint is flavor text about the district's looming boss.
type BossHint struct {
	BossID string `json:"boss_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// District is an ordered progression line of levels.
type District struct {
	ID         string    `json:"-"`
	Philosophy string    `json:"philosophy,omitempty"`
	Boss       *BossHint `json:"boss,omitempty"`
	Levels     []Level   `json:"levels"`
}

// TaskResult is the free-form completion payload handed back by the caller.
// Its populated fields depend on the task type.
type TaskResult struct {
	Text      string   `json:"text,omitempty"`
	Completed bool     `json:"completed,omitempty"`
	Choice    string   `json:"choice,omitempty"`
	Items     []string `json:"items,omitempty"`
}

// Catalog is a read-only lookup of districts and their levels. Declaration
// order is preserved.
type Catalog struct {
	districts map[string]*District
	order     []string
}

// NewCatalog builds a catalog from districts in the given order.
func NewCatalog(districts []*District) *Catalog {
	c := &Catalog{districts: make(map[string]*District, len(districts))}
	for _, d := range districts {
		if d == nil || d.ID == "" {
			continue
		}
		if _, exists := c.districts[d.ID]; exists {
			continue
		}
		c.districts[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	return c
}

// Districts returns district ids in declaration order.
func (c *Catalog) Districts() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// CurrentLevel returns the level whose session range contains sessions, for
// the given district. Counts past the last level's range clamp to the last
// level; counts below every range return nil, as does an unknown district.
func (c *Catalog) CurrentLevel(district string, sessions int) *Level {
	d, ok := c.districts[district]
	if !ok || len(d.Levels) == 0 {
		return nil
	}
	for i := range d.Levels {
		level := &d.Levels[i]
		if level.SessionsRequired[0] <= sessions && sessions <= level.SessionsRequired[1] {
			return copyLevel(level)
		}
	}
	last := &d.Levels[len(d.Levels)-1]
	if sessions > last.SessionsRequired[1] {
		return copyLevel(last)
	}
	return nil
}

// LevelByID scans all districts for a level id.
func (c *Catalog) LevelByID(levelID string) *Level {
	for _, districtID := range c.order {
		d := c.districts[districtID]
		for i := range d.Levels {
			if d.Levels[i].ID == levelID {
				return copyLevel(&d.Levels[i])
			}
		}
	}
	return nil
}

// Philosophy returns the district's guiding text, or empty.
func (c *Catalog) Philosophy(district string) string {
	if d, ok := c.districts[district]; ok {
		return d.Philosophy
	}
	return ""
}

// DistrictBoss returns the district's boss hint, or nil.
func (c *Catalog) DistrictBoss(district string) *BossHint {
	d, ok := c.districts[district]
	if !ok || d.Boss == nil {
		return nil
	}
	hint := *d.Boss
	return &hint
}

// CheckCompletion validates a task result against the level's task.
func (c *Catalog) CheckCompletion(level *Level, result TaskResult) bool {
	switch level.Task.Type {
	case TaskReflection:
		minWords := level.Task.MinWords
		if minWords == 0 {
			minWords = 10
		}
		return len(strings.Fields(result.Text)) >= minWords
	case TaskTimer:
		return result.Completed
	case TaskChoice:
		return result.Choice != ""
	case TaskChecklist:
		required := level.Task.Items
		if required == 0 {
			required = 1
		}
		return len(result.Items) >= required
	default:
		// Unknown kinds are rejected at content load time; an empty kind
		// means the level carries no gated task.
		return true
	}
}

// Rewards returns the level's reward block.
func (c *Catalog) Rewards(level *Level) Rewards {
	if level == nil {
		return Rewards{}
	}
	return level.Rewards
}

// copyLevel hands out a copy so callers never alias catalog content.
func copyLevel(level *Level) *Level {
	dup := *level
	if level.Paths != nil {
		dup.Paths = make([]Path, len(level.Paths))
		copy(dup.Paths, level.Paths)
	}
	if level.Rewards.Cards != nil {
		dup.Rewards.Cards = make([]string, len(level.Rewards.Cards))
		copy(dup.Rewards.Cards, level.Rewards.Cards)
	}
	return &dup
}
