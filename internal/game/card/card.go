// Package card implements the card economy: declarative unlock conditions,
// the effort currency, equipping, and activation effects.
package card

import (
	"strconv"
	"time"

	"github.com/louisbranch/innercity/internal/game/player"
	"github.com/louisbranch/innercity/internal/platform/errors"
)

// Card types with special consumption rules. Any other type is permanent.
const (
	TypeSkill = "skill"
	TypeRelic = "relic"
)

// Unlock condition kinds. Content with any other kind is rejected at load
// time; an absent condition is always satisfied.
const (
	ConditionAction             = "action"
	ConditionSessionsInDistrict = "sessions_in_district"
	ConditionCompleteLevel      = "complete_level"
	ConditionStabilityPoints    = "stability_points"
	ConditionContractCompletion = "contract_completion"
	ConditionCombined           = "combined"
)

// Condition is a tagged unlock requirement. Combined conditions AND their
// nested members.
type Condition struct {
	Type       string      `json:"type"`
	Action     string      `json:"action,omitempty"`
	Count      int         `json:"count,omitempty"`
	District   string      `json:"district,omitempty"`
	Level      string      `json:"level,omitempty"`
	Amount     int         `json:"amount,omitempty"`
	Contract   string      `json:"contract,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// FogReduction describes a visual effect reported to the caller; the card
// system itself never mutates district fog.
type FogReduction struct {
	District string  `json:"district"`
	Amount   float64 `json:"amount"`
}

// Effect is a card's activation payload.
type Effect struct {
	StabilityPoints int           `json:"stability_points,omitempty"`
	FogReduction    *FogReduction `json:"fog_reduction,omitempty"`
}

// Card is an immutable content record.
type Card struct {
	ID               string     `json:"card_id"`
	Name             string     `json:"name,omitempty"`
	Type             string     `json:"type"`
	Rarity           string     `json:"rarity,omitempty"`
	EffortCost       int        `json:"effort_cost,omitempty"`
	DurationSessions int        `json:"duration_sessions,omitempty"`
	UnlockCondition  *Condition `json:"unlock_condition,omitempty"`
	Effect           Effect     `json:"effect,omitempty"`
}

// Catalog is a read-only card lookup preserving declaration order.
type Catalog struct {
	cards map[string]*Card
	order []string
	clock func() time.Time
}

// NewCatalog builds a catalog from cards in declaration order.
func NewCatalog(cards []*Card) *Catalog {
	c := &Catalog{cards: make(map[string]*Card, len(cards)), clock: time.Now}
	for _, card := range cards {
		if card == nil || card.ID == "" {
			continue
		}
		if _, exists := c.cards[card.ID]; exists {
			continue
		}
		c.cards[card.ID] = card
		c.order = append(c.order, card.ID)
	}
	return c
}

// WithClock overrides the timestamp source; used in tests.
func (c *Catalog) WithClock(clock func() time.Time) *Catalog {
	c.clock = clock
	return c
}

// Get returns a copy of the card, or nil.
func (c *Catalog) Get(cardID string) *Card {
	card, ok := c.cards[cardID]
	if !ok {
		return nil
	}
	dup := *card
	if card.UnlockCondition != nil {
		cond := *card.UnlockCondition
		dup.UnlockCondition = &cond
	}
	if card.Effect.FogReduction != nil {
		fog := *card.Effect.FogReduction
		dup.Effect.FogReduction = &fog
	}
	return &dup
}

// Unlockable reports whether the card's unlock condition currently holds.
func (c *Catalog) Unlockable(cardID string, st *player.State) bool {
	card, ok := c.cards[cardID]
	if !ok {
		return false
	}
	return conditionMet(card.UnlockCondition, st)
}

func conditionMet(condition *Condition, st *player.State) bool {
	if condition == nil {
		return true
	}
	switch condition.Type {
	case ConditionAction:
		required := condition.Count
		if required == 0 {
			required = 1
		}
		return st.ActionsHistory[condition.Action] >= required
	case ConditionSessionsInDistrict:
		return st.DistrictSessions[condition.District] >= condition.Count
	case ConditionCompleteLevel:
		return st.HasCompletedLevel(condition.Level)
	case ConditionStabilityPoints:
		return st.StabilityPoints >= condition.Amount
	case ConditionContractCompletion:
		for _, done := range st.CompletedContracts {
			if done == condition.Contract {
				return true
			}
		}
		return false
	case ConditionCombined:
		for i := range condition.Conditions {
			if !conditionMet(&condition.Conditions[i], st) {
				return false
			}
		}
		return true
	default:
		// Unknown kinds are rejected at content load time.
		return false
	}
}

// EffortCost returns the card's effort price at the given upgrade level.
// Each upgrade level adds half the base cost, truncated.
func (c *Catalog) EffortCost(cardID string, upgradeLevel int) int {
	card, ok := c.cards[cardID]
	if !ok {
		return 0
	}
	baseCost := card.EffortCost
	if baseCost == 0 {
		baseCost = 1
	}
	if upgradeLevel > 0 {
		return int(float64(baseCost) * (1 + 0.5*float64(upgradeLevel)))
	}
	return baseCost
}

// Available lists, in declaration order, every card the player does not own
// whose unlock condition currently holds.
func (c *Catalog) Available(st *player.State) []*Card {
	var available []*Card
	for _, cardID := range c.order {
		if st.OwnsCard(cardID) {
			continue
		}
		if c.Unlockable(cardID, st) {
			available = append(available, c.Get(cardID))
		}
	}
	return available
}

// UnlockResult reports a successful card purchase.
type UnlockResult struct {
	Card            *Card `json:"card"`
	EffortSpent     int   `json:"effort_spent"`
	EffortRemaining int   `json:"effort_remaining"`
}

// Unlock purchases a card for effort. Either ownership is granted and effort
// decreases by exactly the cost, or the state is left untouched.
func (c *Catalog) Unlock(cardID string, st *player.State) (*UnlockResult, error) {
	card := c.Get(cardID)
	if card == nil {
		return nil, errors.WithMetadata(errors.CodeCardNotFound, "card not found", map[string]string{"card": cardID})
	}
	if !c.Unlockable(cardID, st) {
		return nil, errors.WithMetadata(errors.CodeUnlockConditionUnmet, "unlock conditions not met", map[string]string{"card": cardID})
	}

	cost := c.EffortCost(cardID, 0)
	if st.Effort < cost {
		return nil, errors.WithMetadata(errors.CodeInsufficientEffort, "not enough effort", map[string]string{
			"card": cardID,
			"need": strconv.Itoa(cost),
			"have": strconv.Itoa(st.Effort),
		})
	}

	st.Effort -= cost
	st.GrantCard(cardID)

	return &UnlockResult{
		Card:            card,
		EffortSpent:     cost,
		EffortRemaining: st.Effort,
	}, nil
}

// Equip places the card in the single active slot, unequipping any current
// card first.
func (c *Catalog) Equip(cardID string, st *player.State) error {
	if !st.OwnsCard(cardID) {
		return errors.WithMetadata(errors.CodeCardNotOwned, "card is not owned", map[string]string{"card": cardID})
	}
	if st.EquippedCard != "" {
		c.Unequip(st)
	}
	st.EquippedCard = cardID
	equipped := c.clock().UTC()
	st.EquippedAt = &equipped
	return nil
}

// Unequip clears the active slot and its timestamp.
func (c *Catalog) Unequip(st *player.State) {
	st.EquippedCard = ""
	st.EquippedAt = nil
}

// AppliedEffect is one reported activation effect.
type AppliedEffect struct {
	Type     string  `json:"type"`
	Value    int     `json:"value,omitempty"`
	District string  `json:"district,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
}

// ActivateResult reports the effects of a card activation.
type ActivateResult struct {
	Effects  []AppliedEffect `json:"effects"`
	Consumed bool            `json:"consumed,omitempty"`
	Expired  bool            `json:"expired,omitempty"`
}

// Activate uses the currently equipped card. Stability bonuses apply
// immediately; fog reductions are reported for the district-visual layer to
// apply. Skill cards are single-use; relic cards carry a per-card remaining
// uses counter seeded from their session duration.
func (c *Catalog) Activate(cardID string, st *player.State) (*ActivateResult, error) {
	card, ok := c.cards[cardID]
	if !ok {
		return nil, errors.WithMetadata(errors.CodeCardNotFound, "card not found", map[string]string{"card": cardID})
	}
	if st.EquippedCard != cardID {
		return nil, errors.WithMetadata(errors.CodeCardNotEquipped, "card is not equipped", map[string]string{"card": cardID})
	}

	result := &ActivateResult{}

	if bonus := card.Effect.StabilityPoints; bonus != 0 {
		st.StabilityPoints += bonus
		result.Effects = append(result.Effects, AppliedEffect{Type: "stability", Value: bonus})
	}
	if fog := card.Effect.FogReduction; fog != nil {
		amount := fog.Amount
		if amount == 0 {
			amount = 1
		}
		result.Effects = append(result.Effects, AppliedEffect{Type: "fog_reduction", District: fog.District, Amount: amount})
	}

	st.LastCardUsed = cardID

	switch card.Type {
	case TypeSkill:
		st.RemoveCard(cardID)
		c.Unequip(st)
		result.Consumed = true
	case TypeRelic:
		if _, seeded := st.RelicUses[cardID]; !seeded {
			duration := card.DurationSessions
			if duration == 0 {
				duration = 3
			}
			st.RelicUses[cardID] = duration
		}
		st.RelicUses[cardID]--
		if st.RelicUses[cardID] <= 0 {
			st.RemoveCard(cardID)
			delete(st.RelicUses, cardID)
			result.Expired = true
		}
	}

	return result, nil
}

// AddEffort grants effort.
func AddEffort(st *player.State, amount int) {
	st.Effort += amount
}

// SessionEffort computes the effort earned by a completed session: a base of
// 2, plus 1 per recorded microstep, plus a streak bonus of 1 once the streak
// reaches 2 sessions.
func SessionEffort(session player.Session, st *player.State) int {
	baseEffort := 2
	microstepEffort := session.MicrostepsCount

	streakBonus := 0
	if st.SessionStreak >= 2 {
		streakBonus = 1
	}

	return baseEffort + microstepEffort + streakBonus
}
