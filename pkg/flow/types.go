// Package flow defines the graph-side data model: typed nodes and
// pin-labeled connections, plus the traversal primitives that collapse a
// graph into a linear path or expand it into a branching tree mirroring
// its response choices.
//
// # Ownership
//
// Every node carries an [Origin] tag. Nodes created by direct graph
// editing are OriginManual and permanently off-limits to the synchronizer;
// nodes the synchronizer materialized from screenplay elements are
// OriginSync and fully managed by it. The tag is a first-class field, not
// a string convention buried in metadata.
//
// # Arena storage
//
// Nodes and connections reference each other by opaque ids only. There are
// no embedded pointers, so cyclic structures (hub loops) and shared
// subtrees are representable without ownership conflicts.
package flow

import (
	"slices"

	"github.com/adnumaro/storyarn/pkg/story"
)

// NodeKind discriminates the nine flow node types.
type NodeKind string

// Node kinds.
const (
	NodeEntry       NodeKind = "entry"
	NodeExit        NodeKind = "exit"
	NodeScene       NodeKind = "scene"
	NodeDialogue    NodeKind = "dialogue"
	NodeCondition   NodeKind = "condition"
	NodeInstruction NodeKind = "instruction"
	NodeHub         NodeKind = "hub"
	NodeJump        NodeKind = "jump"
	NodeSubflow     NodeKind = "subflow"
)

// Valid reports whether k is one of the nine known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeEntry, NodeExit, NodeScene, NodeDialogue, NodeCondition,
		NodeInstruction, NodeHub, NodeJump, NodeSubflow:
		return true
	}
	return false
}

// Origin tags who owns a node.
type Origin string

const (
	// OriginManual marks nodes created by direct graph editing. The
	// synchronizer never updates or deletes them, nor any connection
	// touching them.
	OriginManual Origin = "manual"

	// OriginSync marks nodes the synchronizer materialized from
	// screenplay elements. They are created, overwritten and deleted
	// wholesale by push.
	OriginSync Origin = "screenplay_sync"
)

// Pin names for connections. A response branch uses the choice id itself
// as the source pin, so any pin value outside this set is a choice pin.
const (
	PinOutput = "output"
	PinTrue   = "true"
	PinFalse  = "false"
	PinInput  = "input"
)

// IsChoicePin reports whether pin is a response choice id rather than one
// of the fixed pin names.
func IsChoicePin(pin string) bool {
	return pin != PinOutput && pin != PinTrue && pin != PinFalse && pin != PinInput
}

// =============================================================================
// Node payloads
// =============================================================================

// SceneData describes a scene node parsed from a scene heading.
type SceneData struct {
	IntExt      string `json:"int_ext" bson:"int_ext"` // "INT.", "EXT.", "INT./EXT." or "I/E."
	Description string `json:"description" bson:"description"`
	TimeOfDay   string `json:"time_of_day,omitempty" bson:"time_of_day,omitempty"`
}

// DialogueData describes one spoken (or purely descriptive) beat.
//
// For dual dialogue the primary fields hold the left side and DualDialogue
// carries the right side; both halves are reconstructed on reverse mapping.
type DialogueData struct {
	Text            string          `json:"text" bson:"text"`
	StageDirections string          `json:"stage_directions,omitempty" bson:"stage_directions,omitempty"`
	MenuText        string          `json:"menu_text,omitempty" bson:"menu_text,omitempty"`
	SpeakerSheetID  string          `json:"speaker_sheet_id,omitempty" bson:"speaker_sheet_id,omitempty"`
	Responses       []story.Choice  `json:"responses,omitempty" bson:"responses,omitempty"`
	DualDialogue    *story.DualSide `json:"dual_dialogue,omitempty" bson:"dual_dialogue,omitempty"`
}

// ConditionData gates the true/false pins of a condition node.
type ConditionData struct {
	Condition  story.Condition `json:"condition" bson:"condition"`
	SwitchMode bool            `json:"switch_mode" bson:"switch_mode"`
}

// InstructionData carries the assignments of an instruction node.
type InstructionData struct {
	Assignments story.Instruction `json:"assignments" bson:"assignments"`
}

// Exit modes.
const (
	ExitModeTerminal = "terminal"
)

// ExitData describes an exit node.
type ExitData struct {
	Label    string `json:"label,omitempty" bson:"label,omitempty"`
	ExitMode string `json:"exit_mode,omitempty" bson:"exit_mode,omitempty"`
}

// SubflowData references another flow embedded as a single node.
type SubflowData struct {
	FlowID string `json:"flow_id" bson:"flow_id"`
}

// Data is the type-specific payload of a node. Exactly the field matching
// the node's kind is set; entry nodes have no payload at all.
type Data struct {
	Scene       *SceneData       `json:"scene,omitempty" bson:"scene,omitempty"`
	Dialogue    *DialogueData    `json:"dialogue,omitempty" bson:"dialogue,omitempty"`
	Condition   *ConditionData   `json:"condition,omitempty" bson:"condition,omitempty"`
	Instruction *InstructionData `json:"instruction,omitempty" bson:"instruction,omitempty"`
	Exit        *ExitData        `json:"exit,omitempty" bson:"exit,omitempty"`
	Hub         *story.Hub       `json:"hub,omitempty" bson:"hub,omitempty"`
	Jump        *story.Jump      `json:"jump,omitempty" bson:"jump,omitempty"`
	Subflow     *SubflowData     `json:"subflow,omitempty" bson:"subflow,omitempty"`
}

// =============================================================================
// Graph records
// =============================================================================

// Flow is a graph identity record. Nodes and connections reference it by id.
type Flow struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name,omitempty" bson:"name,omitempty"`
}

// Node is a graph vertex.
type Node struct {
	ID     string   `json:"id" bson:"_id"`
	FlowID string   `json:"flow_id" bson:"flow_id"`
	Kind   NodeKind `json:"kind" bson:"kind"`
	Data   Data     `json:"data,omitempty" bson:"data,omitempty"`
	X      float64  `json:"position_x" bson:"position_x"`
	Y      float64  `json:"position_y" bson:"position_y"`
	Origin Origin   `json:"source" bson:"source"`

	// ElementIDs records, for OriginSync nodes, the ids of the screenplay
	// elements this node was materialized from, in document order. Empty
	// for manual nodes.
	ElementIDs []string `json:"element_ids,omitempty" bson:"element_ids,omitempty"`
}

// IsManual reports whether the node is off-limits to the synchronizer.
func (n *Node) IsManual() bool { return n.Origin == OriginManual }

// Clone returns a deep copy of the node, including its payload and
// recorded element ids, so mutating the copy cannot reach the original.
func (n *Node) Clone() *Node {
	cp := *n
	cp.Data = n.Data.Clone()
	cp.ElementIDs = slices.Clone(n.ElementIDs)
	return &cp
}

// Clone returns a deep copy of the payload: every pointer field and
// nested slice is duplicated.
func (d Data) Clone() Data {
	out := d
	if d.Scene != nil {
		s := *d.Scene
		out.Scene = &s
	}
	if d.Dialogue != nil {
		dd := *d.Dialogue
		dd.Responses = story.CloneChoices(d.Dialogue.Responses)
		if d.Dialogue.DualDialogue != nil {
			side := *d.Dialogue.DualDialogue
			dd.DualDialogue = &side
		}
		out.Dialogue = &dd
	}
	if d.Condition != nil {
		c := *d.Condition
		c.Condition = d.Condition.Condition.Clone()
		out.Condition = &c
	}
	if d.Instruction != nil {
		i := *d.Instruction
		i.Assignments = d.Instruction.Assignments.Clone()
		out.Instruction = &i
	}
	if d.Exit != nil {
		e := *d.Exit
		out.Exit = &e
	}
	if d.Hub != nil {
		h := *d.Hub
		out.Hub = &h
	}
	if d.Jump != nil {
		j := *d.Jump
		out.Jump = &j
	}
	if d.Subflow != nil {
		sf := *d.Subflow
		out.Subflow = &sf
	}
	return out
}

// Connection is a directed, pin-labeled edge between two nodes.
type Connection struct {
	ID           string `json:"id" bson:"_id"`
	FlowID       string `json:"flow_id" bson:"flow_id"`
	SourceNodeID string `json:"source_node_id" bson:"source_node_id"`
	SourcePin    string `json:"source_pin" bson:"source_pin"`
	TargetNodeID string `json:"target_node_id" bson:"target_node_id"`
	TargetPin    string `json:"target_pin" bson:"target_pin"`
}
