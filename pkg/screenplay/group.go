package screenplay

import "github.com/adnumaro/storyarn/pkg/errors"

// GroupKind classifies a semantic group of consecutive elements.
type GroupKind string

// Group kinds recognized by [GroupElements].
const (
	GroupDialogue     GroupKind = "dialogue_group"
	GroupSceneHeading GroupKind = "scene_heading"
	GroupAction       GroupKind = "action"
	GroupConditional  GroupKind = "conditional"
	GroupInstruction  GroupKind = "instruction"
	GroupTransition   GroupKind = "transition"
	GroupHubMarker    GroupKind = "hub_marker"
	GroupJumpMarker   GroupKind = "jump_marker"
	GroupDualDialogue GroupKind = "dual_dialogue"

	// GroupNonMappeable covers notes, sections, page breaks, title pages,
	// orphaned dialogue fragments and orphaned responses. Such groups
	// produce no flow node and are preserved untouched by sync.
	GroupNonMappeable GroupKind = "non_mappeable"
)

// Group is a run of consecutive elements forming one semantic unit.
type Group struct {
	Kind     GroupKind
	Elements []*Element
}

// Dialogue group offsets: a dialogue group always stores its elements in
// scan order, so accessors only need to probe kinds.

// Character returns the character element of a dialogue group, or nil.
func (g Group) Character() *Element { return g.find(KindCharacter) }

// Parenthetical returns the parenthetical element of a dialogue group, or nil.
func (g Group) Parenthetical() *Element { return g.find(KindParenthetical) }

// Dialogue returns the dialogue element of a dialogue group, or nil.
func (g Group) Dialogue() *Element { return g.find(KindDialogue) }

// Response returns the trailing response element of a dialogue group, or nil.
func (g Group) Response() *Element { return g.find(KindResponse) }

func (g Group) find(kind ElementKind) *Element {
	for _, e := range g.Elements {
		if e.Kind == kind {
			return e
		}
	}
	return nil
}

// ElementIDs returns the ids of the group's elements in document order.
func (g Group) ElementIDs() []string {
	ids := make([]string, len(g.Elements))
	for i, e := range g.Elements {
		ids[i] = e.ID
	}
	return ids
}

// GroupElements splits a page's ordered element list into semantic groups.
//
// The pass is a single linear scan with no lookahead beyond the current
// run, so grouping is deterministic and purely local. A dialogue run is
// a character element, optionally followed by one parenthetical, followed
// by a dialogue element, optionally followed by one trailing response.
// The run breaks as soon as a non-matching kind is seen; an incomplete
// prefix (e.g. a character with no dialogue) degrades to one non-mappeable
// group per orphaned element and scanning resumes at the breaking element.
//
// An orphan response, parenthetical or dialogue with no preceding run is
// its own standalone non-mappeable group. Elements of an unrecognized kind
// fail with an INVALID_GROUP error rather than being coerced.
func GroupElements(elements []*Element) ([]Group, error) {
	var groups []Group

	single := func(kind GroupKind, e *Element) {
		groups = append(groups, Group{Kind: kind, Elements: []*Element{e}})
	}

	for i := 0; i < len(elements); {
		e := elements[i]
		switch e.Kind {
		case KindSceneHeading:
			single(GroupSceneHeading, e)
			i++
		case KindAction:
			single(GroupAction, e)
			i++
		case KindConditional:
			single(GroupConditional, e)
			i++
		case KindInstruction:
			single(GroupInstruction, e)
			i++
		case KindTransition:
			single(GroupTransition, e)
			i++
		case KindHubMarker:
			single(GroupHubMarker, e)
			i++
		case KindJumpMarker:
			single(GroupJumpMarker, e)
			i++
		case KindDualDialogue:
			single(GroupDualDialogue, e)
			i++
		case KindNote, KindSection, KindPageBreak, KindTitlePage:
			single(GroupNonMappeable, e)
			i++
		case KindResponse, KindParenthetical, KindDialogue:
			// Orphan: never part of a run at this point.
			single(GroupNonMappeable, e)
			i++
		case KindCharacter:
			run := []*Element{e}
			j := i + 1
			if j < len(elements) && elements[j].Kind == KindParenthetical {
				run = append(run, elements[j])
				j++
			}
			if j < len(elements) && elements[j].Kind == KindDialogue {
				run = append(run, elements[j])
				j++
				if j < len(elements) && elements[j].Kind == KindResponse {
					run = append(run, elements[j])
					j++
				}
				groups = append(groups, Group{Kind: GroupDialogue, Elements: run})
			} else {
				// The run broke before a dialogue element was seen.
				for _, orphan := range run {
					single(GroupNonMappeable, orphan)
				}
			}
			i = i + len(run)
		default:
			return nil, errors.New(errors.ErrCodeInvalidGroup,
				"element %s has unrecognized kind %q", e.ID, e.Kind)
		}
	}

	return groups, nil
}
