// Package story defines the payload value types shared between the
// screenplay (document) and flow (graph) representations of a narrative.
//
// Both views carry the same structured payloads: response choices,
// conditions, variable instructions, hub/jump markers and dual-dialogue
// halves. Keeping them in a leaf package lets pkg/screenplay and pkg/flow
// reference identical types without depending on each other.
//
// # Flexible decoding
//
// Historical documents store choice conditions and instructions either as
// structured objects or as pre-encoded JSON strings. [Condition] and
// [Instruction] accept both forms when unmarshaling and always marshal
// back to the structured form.
package story

import (
	"encoding/json"
	"fmt"
	"slices"
)

// =============================================================================
// Conditions
// =============================================================================

// Logic values for combining condition rules.
const (
	LogicAll = "all" // every rule must hold
	LogicAny = "any" // at least one rule must hold
)

// Rule is a single comparison inside a condition.
type Rule struct {
	Variable string `json:"variable" bson:"variable"`
	Operator string `json:"operator" bson:"operator"`
	Value    any    `json:"value" bson:"value"`
}

// Condition gates a branch or choice on story variables.
//
// The zero value is not a valid condition - use NewCondition for the
// canonical empty condition (all-logic, no rules).
type Condition struct {
	Logic string `json:"logic" bson:"logic"`
	Rules []Rule `json:"rules" bson:"rules"`
}

// NewCondition returns the canonical empty condition: all-logic, no rules.
func NewCondition() Condition {
	return Condition{Logic: LogicAll, Rules: []Rule{}}
}

// IsZero reports whether the condition carries no information at all.
// An explicit empty all-logic condition is not zero.
func (c Condition) IsZero() bool {
	return c.Logic == "" && len(c.Rules) == 0
}

// Clone returns a deep copy. Nil and empty rule slices stay distinct, so
// cloning the canonical empty condition yields a faithful copy.
func (c Condition) Clone() Condition {
	c.Rules = slices.Clone(c.Rules)
	return c
}

// UnmarshalJSON accepts either a structured condition object or a
// pre-encoded JSON string containing one.
func (c *Condition) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var enc string
		if err := json.Unmarshal(data, &enc); err != nil {
			return err
		}
		if enc == "" {
			*c = NewCondition()
			return nil
		}
		type alias Condition
		var a alias
		if err := json.Unmarshal([]byte(enc), &a); err != nil {
			return fmt.Errorf("decode condition string: %w", err)
		}
		*c = Condition(a)
		return nil
	}
	type alias Condition
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = Condition(a)
	return nil
}

// =============================================================================
// Instructions
// =============================================================================

// Assignment mutates one story variable.
type Assignment struct {
	Variable string `json:"variable" bson:"variable"`
	Operator string `json:"operator" bson:"operator"`
	Value    any    `json:"value" bson:"value"`
}

// Instruction is an ordered list of variable assignments executed when the
// owning element or node is reached.
type Instruction struct {
	Assignments []Assignment `json:"assignments" bson:"assignments"`
}

// IsZero reports whether the instruction carries no assignments.
func (i Instruction) IsZero() bool { return len(i.Assignments) == 0 }

// Clone returns a deep copy, preserving nil-versus-empty on Assignments.
func (i Instruction) Clone() Instruction {
	i.Assignments = slices.Clone(i.Assignments)
	return i
}

// UnmarshalJSON accepts either a structured instruction object or a
// pre-encoded JSON string containing one.
func (i *Instruction) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var enc string
		if err := json.Unmarshal(data, &enc); err != nil {
			return err
		}
		if enc == "" {
			*i = Instruction{}
			return nil
		}
		type alias Instruction
		var a alias
		if err := json.Unmarshal([]byte(enc), &a); err != nil {
			return fmt.Errorf("decode instruction string: %w", err)
		}
		*i = Instruction(a)
		return nil
	}
	type alias Instruction
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*i = Instruction(a)
	return nil
}

// =============================================================================
// Response Choices
// =============================================================================

// Choice is one selectable option of a dialogue response.
//
// LinkedScreenplayID designates the child page describing what happens when
// this option is picked. An empty value means the choice is unlinked, which
// is a valid, disconnected state.
type Choice struct {
	ID                 string       `json:"id" bson:"id"`
	Text               string       `json:"text" bson:"text"`
	Condition          *Condition   `json:"condition,omitempty" bson:"condition,omitempty"`
	Instruction        *Instruction `json:"instruction,omitempty" bson:"instruction,omitempty"`
	LinkedScreenplayID string       `json:"linked_screenplay_id,omitempty" bson:"linked_screenplay_id,omitempty"`
}

// CloneChoices returns a deep copy of a choice slice.
// A nil input returns nil.
func CloneChoices(choices []Choice) []Choice {
	if choices == nil {
		return nil
	}
	out := make([]Choice, len(choices))
	for i, c := range choices {
		out[i] = c
		if c.Condition != nil {
			cond := c.Condition.Clone()
			out[i].Condition = &cond
		}
		if c.Instruction != nil {
			ins := c.Instruction.Clone()
			out[i].Instruction = &ins
		}
	}
	return out
}

// =============================================================================
// Markers and Dual Dialogue
// =============================================================================

// Hub identifies a named re-entry point the story can loop back to.
type Hub struct {
	HubID string `json:"hub_id" bson:"hub_id"`
	Label string `json:"label,omitempty" bson:"label,omitempty"`
	Color string `json:"color,omitempty" bson:"color,omitempty"`
}

// Jump redirects the story to a hub.
type Jump struct {
	TargetHubID string `json:"target_hub_id" bson:"target_hub_id"`
}

// DualSide is one half of a dual-dialogue beat: two characters speaking at
// the same time, rendered side by side.
type DualSide struct {
	Character     string `json:"character" bson:"character"`
	Parenthetical string `json:"parenthetical,omitempty" bson:"parenthetical,omitempty"`
	Dialogue      string `json:"dialogue" bson:"dialogue"`
}

// DualDialogue combines both halves of a simultaneous exchange.
type DualDialogue struct {
	Left  DualSide `json:"left" bson:"left"`
	Right DualSide `json:"right" bson:"right"`
}
