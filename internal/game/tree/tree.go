// Package tree holds the branching question trees and the traversal rules
// that turn a player answer into the next node or a terminal outcome.
package tree

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/louisbranch/innercity/internal/platform/errors"
)

// Node kinds. Content with any other kind is rejected at load time.
const (
	KindChoice       = "choice"
	KindScale        = "scale"
	KindTaskTrigger  = "task_trigger"
	KindReflection   = "reflection"
	KindOpenOrChoice = "open_or_choice"
	// KindEnd marks a synthetic terminal step; it never appears in content.
	KindEnd = "end"
)

// RootNodeID addresses a tree's root node.
const RootNodeID = "root"

// Option is one selectable answer on a choice or open_or_choice node.
type Option struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
	Next string `json:"next,omitempty"`
}

// Node is an immutable content node. Fields are populated by kind.
type Node struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// choice
	Options []Option `json:"options,omitempty"`

	// scale: inclusive "min-max" range keys to next node ids, plus an
	// optional fallback Next.
	Branches map[string]string `json:"branches,omitempty"`

	// scale fallback, open_or_choice primary
	Next string `json:"next,omitempty"`

	// reflection
	LeadsTo string `json:"leads_to,omitempty"`

	// open_or_choice
	FallbackOptions []Option `json:"fallback_options,omitempty"`

	// task_trigger
	TaskType string `json:"task_type,omitempty"`
	TaskText string `json:"task_text,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Guidance string `json:"guidance,omitempty"`
}

// Tree is a root node plus a node-id index.
type Tree struct {
	Root  *Node            `json:"root"`
	Nodes map[string]*Node `json:"nodes"`
}

// TaskTrigger carries the task metadata of a terminal task_trigger step.
type TaskTrigger struct {
	TaskType string `json:"task_type,omitempty"`
	TaskText string `json:"task_text,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Guidance string `json:"guidance,omitempty"`
}

// Step is a resolved position in a tree: the node id attached alongside a
// copy of the node, never the stored catalog entry itself. Synthetic steps
// (end markers, reflection-to-task) carry no Node.
type Step struct {
	NodeID string       `json:"node_id,omitempty"`
	Kind   string       `json:"type"`
	Node   *Node        `json:"node,omitempty"`
	Final  bool         `json:"final,omitempty"`
	Task   *TaskTrigger `json:"task,omitempty"`
}

// Catalog is a read-only lookup of decision trees.
type Catalog struct {
	trees map[string]*Tree
}

// NewCatalog builds a catalog from trees by id.
func NewCatalog(trees map[string]*Tree) *Catalog {
	if trees == nil {
		trees = map[string]*Tree{}
	}
	return &Catalog{trees: trees}
}

// RootQuestion returns the root step of a tree.
func (c *Catalog) RootQuestion(treeID string) (*Step, error) {
	return c.NodeByID(treeID, RootNodeID)
}

// NodeByID returns a copy of the node with its id attached.
func (c *Catalog) NodeByID(treeID, nodeID string) (*Step, error) {
	t, ok := c.trees[treeID]
	if !ok {
		return nil, errors.WithMetadata(errors.CodeTreeNotFound, "tree not found", map[string]string{"tree": treeID})
	}
	node := t.lookup(nodeID)
	if node == nil {
		return nil, errors.WithMetadata(errors.CodeNodeNotFound, "node not found", map[string]string{"tree": treeID, "node": nodeID})
	}
	return stepFor(nodeID, node), nil
}

// Traverse resolves the transition from the node identified by nodeID under
// the given answer. It returns a NotFound error when no transition matches
// and a validation error when the answer shape cannot be interpreted.
func (c *Catalog) Traverse(treeID, nodeID string, answer any) (*Step, error) {
	t, ok := c.trees[treeID]
	if !ok {
		return nil, errors.WithMetadata(errors.CodeTreeNotFound, "tree not found", map[string]string{"tree": treeID})
	}
	current := t.lookup(nodeID)
	if current == nil {
		return nil, errors.WithMetadata(errors.CodeNodeNotFound, "node not found", map[string]string{"tree": treeID, "node": nodeID})
	}

	switch current.Type {
	case KindChoice:
		for _, option := range current.Options {
			if !optionMatches(option, answer) {
				continue
			}
			if option.Next == "" {
				return endStep(), nil
			}
			return c.NodeByID(treeID, option.Next)
		}
		return nil, errors.New(errors.CodeBranchNotFound, "no option matches answer")

	case KindScale:
		value, ok := answerInt(answer)
		if !ok {
			return nil, errors.New(errors.CodeAnswerInvalid, "scale answer must be numeric")
		}
		for rangeKey, nextID := range current.Branches {
			min, max, ok := parseRange(rangeKey)
			if !ok {
				continue
			}
			if min <= value && value <= max {
				return c.NodeByID(treeID, nextID)
			}
		}
		if current.Next != "" {
			return c.NodeByID(treeID, current.Next)
		}
		return nil, errors.New(errors.CodeBranchNotFound, "scale answer outside all ranges")

	case KindTaskTrigger:
		// Always terminal; the answer is irrelevant.
		return &Step{
			Kind:  KindTaskTrigger,
			Final: true,
			Task: &TaskTrigger{
				TaskType: current.TaskType,
				TaskText: current.TaskText,
				Duration: current.Duration,
				Guidance: current.Guidance,
			},
		}, nil

	case KindReflection:
		if current.LeadsTo == "task" {
			return &Step{Kind: KindTaskTrigger, Final: true, Task: &TaskTrigger{}}, nil
		}
		if current.LeadsTo != "" {
			return c.NodeByID(treeID, current.LeadsTo)
		}
		return nil, errors.New(errors.CodeBranchNotFound, "reflection node leads nowhere")

	case KindOpenOrChoice:
		text, ok := answerText(answer)
		if !ok || strings.TrimSpace(text) == "" {
			return nil, errors.New(errors.CodeBranchNotFound, "open answer must be non-empty text")
		}
		for _, option := range current.FallbackOptions {
			if !optionMatches(option, text) {
				continue
			}
			if option.Next == "" {
				return nil, errors.New(errors.CodeBranchNotFound, "fallback option leads nowhere")
			}
			return c.NodeByID(treeID, option.Next)
		}
		// Free-form answer: follow the primary next, or finish the tree.
		if current.Next != "" {
			return c.NodeByID(treeID, current.Next)
		}
		return endStep(), nil

	default:
		return nil, errors.New(errors.CodeBranchNotFound, "node kind has no transitions")
	}
}

// IsLeaf reports whether a step terminates the tree.
func IsLeaf(step *Step) bool {
	if step == nil {
		return false
	}
	if step.Kind == KindTaskTrigger || step.Kind == KindEnd || step.Final {
		return true
	}
	if step.Node == nil {
		return true
	}
	return step.Node.Next == "" && len(step.Node.Options) == 0 &&
		len(step.Node.Branches) == 0 && step.Node.LeadsTo == ""
}

func (t *Tree) lookup(nodeID string) *Node {
	if nodeID == RootNodeID {
		return t.Root
	}
	return t.Nodes[nodeID]
}

func stepFor(nodeID string, node *Node) *Step {
	dup := *node
	if node.Options != nil {
		dup.Options = make([]Option, len(node.Options))
		copy(dup.Options, node.Options)
	}
	if node.FallbackOptions != nil {
		dup.FallbackOptions = make([]Option, len(node.FallbackOptions))
		copy(dup.FallbackOptions, node.FallbackOptions)
	}
	if node.Branches != nil {
		dup.Branches = make(map[string]string, len(node.Branches))
		for k, v := range node.Branches {
			dup.Branches[k] = v
		}
	}

	step := &Step{NodeID: nodeID, Kind: node.Type, Node: &dup}
	if node.Type == KindTaskTrigger {
		step.Final = true
		step.Task = &TaskTrigger{
			TaskType: node.TaskType,
			TaskText: node.TaskText,
			Duration: node.Duration,
			Guidance: node.Guidance,
		}
	}
	return step
}

func endStep() *Step {
	return &Step{Kind: KindEnd, Final: true}
}

func optionMatches(option Option, answer any) bool {
	text, ok := answerText(answer)
	if !ok {
		return false
	}
	return option.Text == text || (option.ID != "" && option.ID == text)
}

func answerText(answer any) (string, bool) {
	s, ok := answer.(string)
	return s, ok
}

// answerInt coerces the JSON shapes an answer may arrive in.
func answerInt(answer any) (int, bool) {
	switch v := answer.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func parseRange(key string) (int, int, bool) {
	low, high, found := strings.Cut(key, "-")
	if !found {
		return 0, 0, false
	}
	min, err := strconv.Atoi(strings.TrimSpace(low))
	if err != nil {
		return 0, 0, false
	}
	max, err := strconv.Atoi(strings.TrimSpace(high))
	if err != nil {
		return 0, 0, false
	}
	return min, max, true
}
