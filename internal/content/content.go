// Package content loads the game's JSON content set and validates it at
// startup. Unknown tagged variants anywhere in the content are configuration
// errors, never silent passes.
package content

import (
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/louisbranch/innercity/internal/game/boss"
	"github.com/louisbranch/innercity/internal/game/card"
	"github.com/louisbranch/innercity/internal/game/scenario"
	"github.com/louisbranch/innercity/internal/game/tree"
	"github.com/louisbranch/innercity/internal/platform/errors"
)

// Districts that may carry a level file, in declaration order.
var districtOrder = []string{"oasis", "citadel", "arsenal", "forum", "garden"}

// Set is the full loaded content: one catalog per concern.
type Set struct {
	Scenarios *scenario.Catalog
	Trees     *tree.Catalog
	Cards     *card.Catalog
	Bosses    *boss.Director
}

type districtFile struct {
	Philosophy string             `json:"philosophy,omitempty"`
	Boss       *scenario.BossHint `json:"boss,omitempty"`
	Levels     []scenario.Level   `json:"levels"`
}

type treesFile struct {
	Trees map[string]*tree.Tree `json:"trees"`
}

type cardsFile struct {
	Cards []*card.Card `json:"cards"`
}

type bossesFile struct {
	Bosses []*boss.Boss `json:"bosses"`
}

// Load reads the content set from fsys: scenarios/<district>_levels.json per
// district (missing files are fine), scenarios/binary_trees.json,
// scenarios/cards_database.json and scenarios/bosses.json. Every record is
// validated before a catalog is built.
func Load(fsys fs.FS) (*Set, error) {
	districts, err := loadDistricts(fsys)
	if err != nil {
		return nil, err
	}
	trees, err := loadTrees(fsys)
	if err != nil {
		return nil, err
	}
	cards, err := loadCards(fsys)
	if err != nil {
		return nil, err
	}
	bosses, err := loadBosses(fsys)
	if err != nil {
		return nil, err
	}

	return &Set{
		Scenarios: scenario.NewCatalog(districts),
		Trees:     tree.NewCatalog(trees),
		Cards:     card.NewCatalog(cards),
		Bosses:    boss.NewDirector(bosses),
	}, nil
}

func loadDistricts(fsys fs.FS) ([]*scenario.District, error) {
	var districts []*scenario.District
	for _, districtID := range districtOrder {
		name := "scenarios/" + districtID + "_levels.json"
		var file districtFile
		ok, err := decodeFile(fsys, name, &file)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		district := &scenario.District{
			ID:         districtID,
			Philosophy: file.Philosophy,
			Boss:       file.Boss,
			Levels:     file.Levels,
		}
		for i := range district.Levels {
			level := &district.Levels[i]
			if level.District == "" {
				level.District = districtID
			}
			if err := validateLevel(name, level); err != nil {
				return nil, err
			}
		}
		districts = append(districts, district)
	}
	return districts, nil
}

func loadTrees(fsys fs.FS) (map[string]*tree.Tree, error) {
	const name = "scenarios/binary_trees.json"
	var file treesFile
	ok, err := decodeFile(fsys, name, &file)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	for treeID, t := range file.Trees {
		if t == nil || t.Root == nil {
			return nil, invalid(name, "tree has no root", map[string]string{"tree": treeID})
		}
		if err := validateNode(name, treeID, tree.RootNodeID, t.Root); err != nil {
			return nil, err
		}
		for nodeID, node := range t.Nodes {
			if err := validateNode(name, treeID, nodeID, node); err != nil {
				return nil, err
			}
		}
	}
	return file.Trees, nil
}

func loadCards(fsys fs.FS) ([]*card.Card, error) {
	const name = "scenarios/cards_database.json"
	var file cardsFile
	ok, err := decodeFile(fsys, name, &file)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	for _, c := range file.Cards {
		if c == nil || c.ID == "" {
			return nil, invalid(name, "card has no id", nil)
		}
		if err := validateCondition(name, c.ID, c.UnlockCondition); err != nil {
			return nil, err
		}
	}
	return file.Cards, nil
}

func loadBosses(fsys fs.FS) ([]*boss.Boss, error) {
	const name = "scenarios/bosses.json"
	var file bossesFile
	ok, err := decodeFile(fsys, name, &file)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	for _, b := range file.Bosses {
		if b == nil || b.ID == "" {
			return nil, invalid(name, "boss has no id", nil)
		}
		switch b.Trigger.Type {
		case boss.TriggerPattern, boss.TriggerMilestone:
		default:
			return nil, invalid(name, "unknown boss trigger type", map[string]string{
				"boss": b.ID, "type": b.Trigger.Type,
			})
		}
		for _, condition := range b.DefeatConditions {
			switch condition.Type {
			case boss.DefeatSeries, boss.DefeatCard, boss.DefeatFullSession:
			default:
				return nil, invalid(name, "unknown defeat condition type", map[string]string{
					"boss": b.ID, "type": condition.Type,
				})
			}
		}
	}
	return file.Bosses, nil
}

func validateLevel(file string, level *scenario.Level) error {
	if level.ID == "" {
		return invalid(file, "level has no id", nil)
	}
	switch level.Task.Type {
	case "", scenario.TaskReflection, scenario.TaskTimer, scenario.TaskChoice, scenario.TaskChecklist:
	default:
		return invalid(file, "unknown task type", map[string]string{
			"level": level.ID, "type": level.Task.Type,
		})
	}
	for i := range level.Paths {
		if level.Paths[i].ID == "" {
			return invalid(file, "fork path has no id", map[string]string{"level": level.ID})
		}
	}
	return nil
}

func validateNode(file, treeID, nodeID string, node *tree.Node) error {
	if node == nil {
		return invalid(file, "tree node is empty", map[string]string{"tree": treeID, "node": nodeID})
	}
	switch node.Type {
	case tree.KindChoice, tree.KindScale, tree.KindTaskTrigger, tree.KindReflection, tree.KindOpenOrChoice:
		return nil
	default:
		return invalid(file, "unknown node type", map[string]string{
			"tree": treeID, "node": nodeID, "type": node.Type,
		})
	}
}

// validateCondition walks unlock conditions recursively; combined members
// are held to the same variant list as top-level conditions. An absent
// condition is valid (always satisfied).
func validateCondition(file, cardID string, condition *card.Condition) error {
	if condition == nil {
		return nil
	}
	switch condition.Type {
	case card.ConditionAction, card.ConditionSessionsInDistrict, card.ConditionCompleteLevel,
		card.ConditionStabilityPoints, card.ConditionContractCompletion:
		return nil
	case card.ConditionCombined:
		for i := range condition.Conditions {
			if err := validateCondition(file, cardID, &condition.Conditions[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return invalid(file, "unknown unlock condition type", map[string]string{
			"card": cardID, "type": condition.Type,
		})
	}
}

// decodeFile reads and unmarshals one content file. A missing file reports
// ok=false without an error; a malformed one is a content error.
func decodeFile(fsys fs.FS, name string, target any) (bool, error) {
	payload, err := fs.ReadFile(fsys, name)
	if err != nil {
		if _, statErr := fs.Stat(fsys, name); statErr != nil {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return false, invalid(name, "malformed json: "+err.Error(), nil)
	}
	return true, nil
}

func invalid(file, message string, metadata map[string]string) error {
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadata["file"] = file
	return errors.WithMetadata(errors.CodeContentInvalid, message, metadata)
}
