// Package mapping converts between screenplay element groups and flow
// graph nodes, in both directions.
//
// The forward mapper turns one semantic group (see screenplay.GroupElements)
// into at most one node specification; the reverse mapper turns one graph
// node back into the element specs that would regenerate it. The two
// directions are exact inverses for every mappeable type pair, which is
// what makes repeated synchronization lossless.
package mapping

import (
	"regexp"
	"strings"

	"github.com/adnumaro/storyarn/pkg/errors"
	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/screenplay"
	"github.com/adnumaro/storyarn/pkg/story"
)

// NodeSpec describes one flow node to materialize: its kind, payload and
// the ids of the elements it originates from.
type NodeSpec struct {
	Kind       flow.NodeKind
	Data       flow.Data
	ElementIDs []string
}

// sceneHeadingRe matches the canonical heading pattern:
// INT.|EXT.|INT./EXT.|I/E. <DESCRIPTION> [- <TIME>], case-insensitive.
var sceneHeadingRe = regexp.MustCompile(`(?i)^\s*(INT\./EXT\.|I/E\.|INT\.|EXT\.)\s*(.*)$`)

// ParseSceneHeading splits a scene heading line into its structured parts.
// The INT/EXT prefix is uppercased; the time of day is whatever follows the
// last " - " separator and is left empty when absent. Content without a
// recognizable prefix becomes a pure description.
func ParseSceneHeading(content string) flow.SceneData {
	var data flow.SceneData
	rest := strings.TrimSpace(content)

	if m := sceneHeadingRe.FindStringSubmatch(rest); m != nil {
		data.IntExt = strings.ToUpper(m[1])
		rest = strings.TrimSpace(m[2])
	}

	if idx := strings.LastIndex(rest, " - "); idx >= 0 {
		data.Description = strings.TrimSpace(rest[:idx])
		data.TimeOfDay = strings.TrimSpace(rest[idx+3:])
	} else {
		data.Description = rest
	}
	return data
}

// FormatSceneHeading is the inverse of [ParseSceneHeading]. The time
// suffix is omitted when blank.
func FormatSceneHeading(data flow.SceneData) string {
	parts := data.IntExt
	if data.Description != "" {
		if parts != "" {
			parts += " "
		}
		parts += data.Description
	}
	if data.TimeOfDay != "" {
		parts += " - " + data.TimeOfDay
	}
	return parts
}

// MapGroup converts one semantic group into a node specification.
//
// entry selects the entry-node mapping for a scene heading group: the page
// tree builder passes true only for the first scene heading group of the
// root page. Non-mappeable groups return (nil, nil): they produce no node.
func MapGroup(g screenplay.Group, entry bool) (*NodeSpec, error) {
	ids := g.ElementIDs()

	switch g.Kind {
	case screenplay.GroupNonMappeable:
		return nil, nil

	case screenplay.GroupSceneHeading:
		data := ParseSceneHeading(g.Elements[0].Content)
		kind := flow.NodeScene
		if entry {
			// The entry node keeps the parsed heading so a later pull can
			// reconstruct the author's original line.
			kind = flow.NodeEntry
		}
		return &NodeSpec{
			Kind:       kind,
			Data:       flow.Data{Scene: &data},
			ElementIDs: ids,
		}, nil

	case screenplay.GroupDialogue:
		d := &flow.DialogueData{}
		if c := g.Character(); c != nil {
			d.MenuText = c.Content
			d.SpeakerSheetID = c.Data.SheetID
		}
		if p := g.Parenthetical(); p != nil {
			d.StageDirections = p.Content
		}
		if dl := g.Dialogue(); dl != nil {
			d.Text = dl.Content
		}
		if r := g.Response(); r != nil && r.Data.Response != nil {
			d.Responses = story.CloneChoices(r.Data.Response.Choices)
		}
		return &NodeSpec{
			Kind:       flow.NodeDialogue,
			Data:       flow.Data{Dialogue: d},
			ElementIDs: ids,
		}, nil

	case screenplay.GroupAction:
		// A pure description beat: no speaker, no spoken text.
		return &NodeSpec{
			Kind: flow.NodeDialogue,
			Data: flow.Data{Dialogue: &flow.DialogueData{
				StageDirections: g.Elements[0].Content,
			}},
			ElementIDs: ids,
		}, nil

	case screenplay.GroupConditional:
		cond := story.NewCondition()
		if c := g.Elements[0].Data.Condition; c != nil {
			cond = *c
		}
		return &NodeSpec{
			Kind: flow.NodeCondition,
			Data: flow.Data{Condition: &flow.ConditionData{
				Condition:  cond,
				SwitchMode: false,
			}},
			ElementIDs: ids,
		}, nil

	case screenplay.GroupInstruction:
		ins := story.Instruction{}
		if i := g.Elements[0].Data.Instruction; i != nil {
			ins = *i
		}
		return &NodeSpec{
			Kind:       flow.NodeInstruction,
			Data:       flow.Data{Instruction: &flow.InstructionData{Assignments: ins}},
			ElementIDs: ids,
		}, nil

	case screenplay.GroupTransition:
		return &NodeSpec{
			Kind: flow.NodeExit,
			Data: flow.Data{Exit: &flow.ExitData{
				Label:    g.Elements[0].Content,
				ExitMode: flow.ExitModeTerminal,
			}},
			ElementIDs: ids,
		}, nil

	case screenplay.GroupDualDialogue:
		d := &flow.DialogueData{}
		if dual := g.Elements[0].Data.Dual; dual != nil {
			d.Text = dual.Left.Dialogue
			d.StageDirections = dual.Left.Parenthetical
			d.MenuText = dual.Left.Character
			right := dual.Right
			d.DualDialogue = &right
		} else {
			d.DualDialogue = &story.DualSide{}
		}
		return &NodeSpec{
			Kind:       flow.NodeDialogue,
			Data:       flow.Data{Dialogue: d},
			ElementIDs: ids,
		}, nil

	case screenplay.GroupHubMarker:
		hub := story.Hub{}
		if h := g.Elements[0].Data.Hub; h != nil {
			hub = *h
		}
		return &NodeSpec{
			Kind:       flow.NodeHub,
			Data:       flow.Data{Hub: &hub},
			ElementIDs: ids,
		}, nil

	case screenplay.GroupJumpMarker:
		jump := story.Jump{}
		if j := g.Elements[0].Data.Jump; j != nil {
			jump = *j
		}
		return &NodeSpec{
			Kind:       flow.NodeJump,
			Data:       flow.Data{Jump: &jump},
			ElementIDs: ids,
		}, nil

	default:
		return nil, errors.New(errors.ErrCodeInvalidGroup,
			"unrecognized group kind %q", g.Kind)
	}
}
