package content

import (
	"testing"
	"testing/fstest"

	"github.com/louisbranch/innercity/internal/content/defaults"
	"github.com/louisbranch/innercity/internal/platform/errors"
)

func contentFS(overrides map[string]string) fstest.MapFS {
	files := map[string]string{
		"scenarios/oasis_levels.json": `{
			"philosophy": "small steps",
			"boss": {"boss_id": "burnout", "name": "Burnout"},
			"levels": [
				{
					"level_id": "oasis_1",
					"sessions_required": [1, 3],
					"binary_tree_id": "morning",
					"task": {"type": "timer", "duration": 10},
					"rewards": {"stability_points": 5}
				}
			]
		}`,
		"scenarios/binary_trees.json": `{
			"trees": {
				"morning": {
					"root": {
						"type": "choice",
						"text": "How are you?",
						"options": [{"id": "ok", "text": "Ok", "next": "walk"}]
					},
					"nodes": {
						"walk": {"type": "task_trigger", "task_type": "timer", "duration": 10}
					}
				}
			}
		}`,
		"scenarios/cards_database.json": `{
			"cards": [
				{"card_id": "focus_lens", "type": "skill", "effort_cost": 3},
				{
					"card_id": "city_map",
					"type": "permanent",
					"unlock_condition": {
						"type": "combined",
						"conditions": [
							{"type": "action", "action": "walks", "count": 2},
							{"type": "stability_points", "amount": 10}
						]
					}
				}
			]
		}`,
		"scenarios/bosses.json": `{
			"bosses": [
				{
					"boss_id": "burnout",
					"trigger": {"type": "pattern", "counter": "sessions_without_rest"},
					"defeat_conditions": [{"type": "card", "card_id": "focus_lens"}]
				}
			]
		}`,
	}
	for name, body := range overrides {
		files[name] = body
	}
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

func TestLoad(t *testing.T) {
	set, err := Load(contentFS(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	level := set.Scenarios.LevelByID("oasis_1")
	if level == nil || level.District != "oasis" {
		t.Fatalf("level = %+v", level)
	}
	if set.Scenarios.Philosophy("oasis") != "small steps" {
		t.Fatal("philosophy lost")
	}

	if _, err := set.Trees.RootQuestion("morning"); err != nil {
		t.Fatalf("RootQuestion: %v", err)
	}
	if set.Cards.Get("city_map") == nil {
		t.Fatal("card lost")
	}
	if set.Bosses.Get("burnout") == nil {
		t.Fatal("boss lost")
	}
}

func TestLoadMissingFilesAreFine(t *testing.T) {
	set, err := Load(fstest.MapFS{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if set.Scenarios.LevelByID("anything") != nil {
		t.Fatal("empty set should have no levels")
	}
}

func TestLoadRejectsUnknownVariants(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		contents string
	}{
		{
			"unknown task type",
			"scenarios/oasis_levels.json",
			`{"levels": [{"level_id": "L1", "sessions_required": [1,1], "task": {"type": "meditate"}}]}`,
		},
		{
			"unknown node type",
			"scenarios/binary_trees.json",
			`{"trees": {"t": {"root": {"type": "quiz"}}}}`,
		},
		{
			"unknown unlock condition",
			"scenarios/cards_database.json",
			`{"cards": [{"card_id": "c", "unlock_condition": {"type": "lunar_phase"}}]}`,
		},
		{
			"unknown nested combined member",
			"scenarios/cards_database.json",
			`{"cards": [{"card_id": "c", "unlock_condition": {"type": "combined", "conditions": [{"type": "lunar_phase"}]}}]}`,
		},
		{
			"unknown boss trigger",
			"scenarios/bosses.json",
			`{"bosses": [{"boss_id": "b", "trigger": {"type": "eclipse"}}]}`,
		},
		{
			"unknown defeat condition",
			"scenarios/bosses.json",
			`{"bosses": [{"boss_id": "b", "trigger": {"type": "pattern"}, "defeat_conditions": [{"type": "wish"}]}]}`,
		},
		{
			"tree without root",
			"scenarios/binary_trees.json",
			`{"trees": {"t": {"nodes": {}}}}`,
		},
		{
			"malformed json",
			"scenarios/bosses.json",
			`{"bosses": [`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(contentFS(map[string]string{tt.file: tt.contents}))
			if errors.CodeOf(err) != errors.CodeContentInvalid {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestLoadAbsentUnlockConditionIsValid(t *testing.T) {
	set, err := Load(contentFS(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// focus_lens carries no condition: a starter card, always unlockable.
	if set.Cards.Get("focus_lens") == nil {
		t.Fatal("starter card missing")
	}
}

func TestEmbeddedDefaultsLoad(t *testing.T) {
	set, err := Load(defaults.FS)
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	// The starter set is internally consistent: every tree a level points at
	// exists, and every reward or boss-condition card exists.
	for _, districtID := range set.Scenarios.Districts() {
		for sessions := 1; sessions <= 10; sessions++ {
			level := set.Scenarios.CurrentLevel(districtID, sessions)
			if level == nil {
				continue
			}
			if level.BinaryTreeID != "" {
				if _, err := set.Trees.RootQuestion(level.BinaryTreeID); err != nil {
					t.Errorf("level %s tree %s: %v", level.ID, level.BinaryTreeID, err)
				}
			}
			for _, cardID := range level.Rewards.Cards {
				if set.Cards.Get(cardID) == nil {
					t.Errorf("level %s reward card %s missing", level.ID, cardID)
				}
			}
			for _, path := range level.Paths {
				if path.RewardCard != "" && set.Cards.Get(path.RewardCard) == nil {
					t.Errorf("path %s reward card %s missing", path.ID, path.RewardCard)
				}
			}
		}
		if hint := set.Scenarios.DistrictBoss(districtID); hint != nil {
			if set.Bosses.Get(hint.BossID) == nil {
				t.Errorf("district %s boss hint %s missing", districtID, hint.BossID)
			}
		}
	}
}
