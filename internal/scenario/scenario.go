// Package scenario runs YAML-described studio sessions against a fresh
// store and history tracker, producing a deterministic trace for golden
// comparison.
//
// Scenarios exercise the editing surface the way the application does:
// top-level mutating steps go through the history wrapper, batch steps
// collapse into one history entry, and undo/redo move the cursor. Steps
// reference shots by title, not ID, so scenario authors never depend on
// generated identifiers.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted studio session.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps is the session script, executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and history shape.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scripted operation.
type Step struct {
	// Op selects the operation: add_shot, update_shot, remove_shot,
	// move_shot, select_shot, add_asset, add_character, enqueue_task,
	// batch, push, undo, redo.
	Op string `yaml:"op"`

	// Title identifies a shot by title (targets for update/remove/move/
	// select/enqueue) or names a new shot (add_shot).
	Title string `yaml:"title,omitempty"`

	// NewTitle is the replacement title for update_shot.
	NewTitle string `yaml:"new_title,omitempty"`

	// Position is the destination index for move_shot.
	Position *int `yaml:"position,omitempty"`

	// Kind is the asset kind (add_asset) or task kind (enqueue_task).
	Kind string `yaml:"kind,omitempty"`

	// Name names a new asset or character.
	Name string `yaml:"name,omitempty"`

	// Steps holds the sub-steps of a batch. Sub-steps mutate directly;
	// the batch contributes a single history entry.
	Steps []Step `yaml:"steps,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type selects the assertion: shot_titles, shot_count, history_length,
	// cursor, can_undo, can_redo, selected_shot, task_count.
	Type string `yaml:"type"`

	// Titles is the expected timeline, in order (shot_titles).
	Titles []string `yaml:"titles,omitempty"`

	// Count is the expected size (shot_count, history_length, task_count).
	Count *int `yaml:"count,omitempty"`

	// Value is the expected cursor position (cursor). May be -1.
	Value *int `yaml:"value,omitempty"`

	// Enabled is the expected availability (can_undo, can_redo).
	Enabled *bool `yaml:"enabled,omitempty"`

	// Title is the expected selected shot's title (selected_shot).
	// Empty asserts that nothing is selected.
	Title string `yaml:"title,omitempty"`
}

// Assertion type constants.
const (
	AssertShotTitles    = "shot_titles"
	AssertShotCount     = "shot_count"
	AssertHistoryLength = "history_length"
	AssertCursor        = "cursor"
	AssertCanUndo       = "can_undo"
	AssertCanRedo       = "can_redo"
	AssertSelectedShot  = "selected_shot"
	AssertTaskCount     = "task_count"
)

// Step op constants.
const (
	OpAddShot      = "add_shot"
	OpUpdateShot   = "update_shot"
	OpRemoveShot   = "remove_shot"
	OpMoveShot     = "move_shot"
	OpSelectShot   = "select_shot"
	OpAddAsset     = "add_asset"
	OpAddCharacter = "add_character"
	OpEnqueueTask  = "enqueue_task"
	OpBatch        = "batch"
	OpPush         = "push"
	OpUndo         = "undo"
	OpRedo         = "redo"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario yaml: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(fmt.Sprintf("steps[%d]", i), &step, false); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(path string, step *Step, inBatch bool) error {
	switch step.Op {
	case OpAddShot:
		if step.Title == "" {
			return fmt.Errorf("%s: title is required for add_shot", path)
		}
	case OpUpdateShot:
		if step.Title == "" || step.NewTitle == "" {
			return fmt.Errorf("%s: title and new_title are required for update_shot", path)
		}
	case OpRemoveShot, OpSelectShot:
		if step.Title == "" {
			return fmt.Errorf("%s: title is required for %s", path, step.Op)
		}
	case OpMoveShot:
		if step.Title == "" {
			return fmt.Errorf("%s: title is required for move_shot", path)
		}
		if step.Position == nil {
			return fmt.Errorf("%s: position is required for move_shot", path)
		}
	case OpAddAsset:
		if step.Kind == "" || step.Name == "" {
			return fmt.Errorf("%s: kind and name are required for add_asset", path)
		}
	case OpAddCharacter:
		if step.Name == "" {
			return fmt.Errorf("%s: name is required for add_character", path)
		}
	case OpEnqueueTask:
		if step.Kind == "" {
			return fmt.Errorf("%s: kind is required for enqueue_task", path)
		}
	case OpBatch:
		if inBatch {
			return fmt.Errorf("%s: batches do not nest", path)
		}
		if len(step.Steps) == 0 {
			return fmt.Errorf("%s: batch requires sub-steps", path)
		}
		for i, sub := range step.Steps {
			if err := validateStep(fmt.Sprintf("%s.steps[%d]", path, i), &sub, true); err != nil {
				return err
			}
		}
	case OpPush, OpUndo, OpRedo:
		if inBatch {
			return fmt.Errorf("%s: %s is not allowed inside a batch", path, step.Op)
		}
	case "":
		return fmt.Errorf("%s: op is required", path)
	default:
		return fmt.Errorf("%s: unknown op %q", path, step.Op)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertShotTitles:
		// An empty titles list legitimately asserts an empty timeline.
	case AssertShotCount, AssertHistoryLength, AssertTaskCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
	case AssertCursor:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for cursor", index)
		}
	case AssertCanUndo, AssertCanRedo:
		if a.Enabled == nil {
			return fmt.Errorf("assertions[%d]: enabled is required for %s", index, a.Type)
		}
	case AssertSelectedShot:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
