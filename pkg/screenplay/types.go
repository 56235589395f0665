// Package screenplay defines the document-side data model: typed elements
// ordered inside pages, pages forming a tree, and the grouping pass that
// splits a flat element list into semantic groups ready for mapping onto
// flow graph nodes.
//
// # Data Model
//
// A [Page] holds an ordered list of [Element] values. Pages form a tree two
// ways: through ParentID and through a response choice's LinkedScreenplayID,
// which designates a child page as "what happens if this option is picked".
//
// Element content is opaque plain text (it may embed inline markup, which
// this package never interprets). Structured payloads live in Data.
//
// # Synchronization bookkeeping
//
// LinkedNodeID on an element is the weak back-reference to the graph node
// the synchronizer last produced from (or for) this element. An empty value
// means the element is hand-authored or not yet synced.
package screenplay

import "github.com/adnumaro/storyarn/pkg/story"

// ElementKind discriminates the sixteen element types of a screenplay
// document: eleven structural text kinds plus five interactive kinds.
type ElementKind string

// Structural text kinds.
const (
	KindSceneHeading  ElementKind = "scene_heading"
	KindAction        ElementKind = "action"
	KindCharacter     ElementKind = "character"
	KindDialogue      ElementKind = "dialogue"
	KindParenthetical ElementKind = "parenthetical"
	KindTransition    ElementKind = "transition"
	KindDualDialogue  ElementKind = "dual_dialogue"
	KindNote          ElementKind = "note"
	KindSection       ElementKind = "section"
	KindPageBreak     ElementKind = "page_break"
	KindTitlePage     ElementKind = "title_page"
)

// Interactive kinds.
const (
	KindConditional ElementKind = "conditional"
	KindInstruction ElementKind = "instruction"
	KindResponse    ElementKind = "response"
	KindHubMarker   ElementKind = "hub_marker"
	KindJumpMarker  ElementKind = "jump_marker"
)

// Valid reports whether k is one of the sixteen known element kinds.
func (k ElementKind) Valid() bool {
	switch k {
	case KindSceneHeading, KindAction, KindCharacter, KindDialogue,
		KindParenthetical, KindTransition, KindDualDialogue, KindNote,
		KindSection, KindPageBreak, KindTitlePage,
		KindConditional, KindInstruction, KindResponse,
		KindHubMarker, KindJumpMarker:
		return true
	}
	return false
}

// Data holds the type-specific structured payload of an element.
// At most one field is set, matching the element's kind; purely textual
// kinds leave all fields nil.
type Data struct {
	Response    *ResponseData       `json:"response,omitempty" bson:"response,omitempty"`
	Dual        *story.DualDialogue `json:"dual,omitempty" bson:"dual,omitempty"`
	Condition   *story.Condition    `json:"condition,omitempty" bson:"condition,omitempty"`
	Instruction *story.Instruction  `json:"instruction,omitempty" bson:"instruction,omitempty"`
	Hub         *story.Hub          `json:"hub,omitempty" bson:"hub,omitempty"`
	Jump        *story.Jump         `json:"jump,omitempty" bson:"jump,omitempty"`

	// SheetID references the character sheet of a character element.
	SheetID string `json:"sheet_id,omitempty" bson:"sheet_id,omitempty"`
}

// ResponseData is the payload of a response element: the ordered array of
// choices the reader can pick from.
type ResponseData struct {
	Choices []story.Choice `json:"choices" bson:"choices"`
}

// Clone returns a deep copy of the payload: every pointer field and
// nested slice is duplicated.
func (d Data) Clone() Data {
	out := d
	if d.Response != nil {
		out.Response = &ResponseData{Choices: story.CloneChoices(d.Response.Choices)}
	}
	if d.Dual != nil {
		dd := *d.Dual
		out.Dual = &dd
	}
	if d.Condition != nil {
		c := d.Condition.Clone()
		out.Condition = &c
	}
	if d.Instruction != nil {
		i := d.Instruction.Clone()
		out.Instruction = &i
	}
	if d.Hub != nil {
		h := *d.Hub
		out.Hub = &h
	}
	if d.Jump != nil {
		j := *d.Jump
		out.Jump = &j
	}
	return out
}

// Element is one line, beat or marker of the document.
type Element struct {
	ID      string      `json:"id" bson:"_id"`
	PageID  string      `json:"page_id" bson:"page_id"`
	Kind    ElementKind `json:"kind" bson:"kind"`
	Content string      `json:"content" bson:"content"`
	Data    Data        `json:"data,omitempty" bson:"data,omitempty"`

	// Position is the zero-based ordinal of the element, unique and
	// contiguous within its page.
	Position int `json:"position" bson:"position"`

	// LinkedNodeID points at the flow node the synchronizer last produced
	// from/for this element. Empty means hand-authored or not yet synced.
	LinkedNodeID string `json:"linked_node_id,omitempty" bson:"linked_node_id,omitempty"`
}

// Clone returns a deep copy of the element, duplicating its payload so
// mutating the copy cannot reach the original.
func (e *Element) Clone() *Element {
	cp := *e
	cp.Data = e.Data.Clone()
	return &cp
}

// Page is one node of the document tree.
type Page struct {
	ID       string `json:"id" bson:"_id"`
	ParentID string `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Title    string `json:"title,omitempty" bson:"title,omitempty"`

	// LinkedFlowID is the graph this page syncs with; empty until the
	// first sync links one.
	LinkedFlowID string `json:"linked_flow_id,omitempty" bson:"linked_flow_id,omitempty"`
}

// IsRoot reports whether the page has no parent.
func (p *Page) IsRoot() bool { return p.ParentID == "" }
