package grimoire

import (
	"encoding/json"
	"fmt"
)

// ScriptStep is a single action in a scene script.
type ScriptStep struct {
	// Action is one of "create", "attach", "detach", "rename", "set",
	// "activate", "wait".
	Action string `json:"action"`

	Factory string `json:"factory,omitempty"` // create: registered factory name
	Node    string `json:"node,omitempty"`    // path of the node to act on
	Parent  string `json:"parent,omitempty"`  // create/attach: destination path
	Name    string `json:"name,omitempty"`    // rename: the new name
	Param   string `json:"param,omitempty"`   // set: parameter name
	Value   any    `json:"value,omitempty"`   // set: parameter value
	Frames  int    `json:"frames,omitempty"`  // wait: frames to idle
}

// scriptFile is the top-level JSON structure for a scene script.
type scriptFile struct {
	Steps []ScriptStep `json:"steps"`
}

// Script sequences tree edits across frames for automated scene testing and
// demo replays: create and move nodes, edit parameters, idle a number of
// frames between edits. Drive it from the game loop:
//
//	game.OnUpdate = script.Step
//
// Each update applies one step (or burns one wait frame), so every edit is
// observed by the following compute and render pass exactly as a live edit
// would be.
type Script struct {
	steps     []ScriptStep
	cursor    int
	waitCount int
}

// LoadScript parses a JSON scene script.
func LoadScript(data []byte) (*Script, error) {
	var f scriptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("grimoire: parse scene script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("grimoire: parse scene script: no steps")
	}
	return &Script{steps: f.Steps}, nil
}

// NewScript builds a script from already-constructed steps.
func NewScript(steps ...ScriptStep) *Script {
	return &Script{steps: steps}
}

// Done reports whether every step has been applied.
func (sc *Script) Done() bool {
	return sc.cursor >= len(sc.steps)
}

// Step applies the next pending step to the scene. Call once per update; a
// finished script is a no-op. A failing step stops the script and returns
// the error.
func (sc *Script) Step(s *Scene) error {
	if sc.Done() {
		return nil
	}
	step := sc.steps[sc.cursor]
	if step.Action == "wait" {
		sc.waitCount++
		if sc.waitCount < step.Frames {
			return nil
		}
		sc.waitCount = 0
		sc.cursor++
		return nil
	}
	sc.cursor++
	if err := sc.apply(s, step); err != nil {
		sc.cursor = len(sc.steps)
		return fmt.Errorf("grimoire: script step %d (%s): %w", sc.cursor, step.Action, err)
	}
	return nil
}

func (sc *Script) apply(s *Scene, step ScriptStep) error {
	switch step.Action {
	case "create":
		parent, err := sc.find(s, step.Parent)
		if err != nil {
			return err
		}
		_, err = s.CreateNode(parent, step.Factory)
		return err
	case "attach":
		node, err := sc.find(s, step.Node)
		if err != nil {
			return err
		}
		parent, err := sc.find(s, step.Parent)
		if err != nil {
			return err
		}
		return node.AttachTo(parent)
	case "detach":
		node, err := sc.find(s, step.Node)
		if err != nil {
			return err
		}
		node.Detach()
		return nil
	case "rename":
		node, err := sc.find(s, step.Node)
		if err != nil {
			return err
		}
		return node.SetName(step.Name)
	case "set":
		node, err := sc.find(s, step.Node)
		if err != nil {
			return err
		}
		return node.SetParam(step.Param, step.Value)
	case "activate":
		node, err := sc.find(s, step.Node)
		if err != nil {
			return err
		}
		return s.SetActiveNode(node)
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

func (sc *Script) find(s *Scene, path string) (*Node, error) {
	if path == "" {
		return s.Root(), nil
	}
	n := s.Find(path)
	if n == nil {
		return nil, fmt.Errorf("no node at %q", path)
	}
	return n, nil
}
