package mapping

import (
	"github.com/adnumaro/storyarn/pkg/errors"
	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/screenplay"
	"github.com/adnumaro/storyarn/pkg/story"
)

// DefaultCharacterName is used when a dialogue node has no menu text to
// name its speaker.
const DefaultCharacterName = "CHARACTER"

// DefaultSceneHeading is the scene heading reconstructed from a bare
// entry node.
const DefaultSceneHeading = "INT. - DAY"

// ElementSpec describes one screenplay element to materialize from a
// graph node. NodeID stamps the originating node so the synchronizer can
// match the element on later passes.
type ElementSpec struct {
	Kind    screenplay.ElementKind
	Content string
	Data    screenplay.Data
	NodeID  string
}

// MapNode converts one graph node back into the ordered element specs
// that regenerate it — the exact inverse of [MapGroup] per node type.
//
// Subflow nodes produce no elements and return (nil, nil). Unrecognized
// node kinds fail with an INVALID_NODE_TYPE error.
func MapNode(n *flow.Node) ([]ElementSpec, error) {
	switch n.Kind {
	case flow.NodeEntry:
		content := DefaultSceneHeading
		if n.Data.Scene != nil {
			content = FormatSceneHeading(*n.Data.Scene)
		}
		return []ElementSpec{{
			Kind:    screenplay.KindSceneHeading,
			Content: content,
			NodeID:  n.ID,
		}}, nil

	case flow.NodeScene:
		data := flow.SceneData{}
		if n.Data.Scene != nil {
			data = *n.Data.Scene
		}
		return []ElementSpec{{
			Kind:    screenplay.KindSceneHeading,
			Content: FormatSceneHeading(data),
			NodeID:  n.ID,
		}}, nil

	case flow.NodeDialogue:
		return mapDialogueNode(n)

	case flow.NodeCondition:
		cond := story.NewCondition()
		if n.Data.Condition != nil && !n.Data.Condition.Condition.IsZero() {
			cond = n.Data.Condition.Condition
		}
		return []ElementSpec{{
			Kind:   screenplay.KindConditional,
			Data:   screenplay.Data{Condition: &cond},
			NodeID: n.ID,
		}}, nil

	case flow.NodeInstruction:
		ins := story.Instruction{}
		if n.Data.Instruction != nil {
			ins = n.Data.Instruction.Assignments
		}
		return []ElementSpec{{
			Kind:   screenplay.KindInstruction,
			Data:   screenplay.Data{Instruction: &ins},
			NodeID: n.ID,
		}}, nil

	case flow.NodeExit:
		label := ""
		if n.Data.Exit != nil {
			label = n.Data.Exit.Label
		}
		return []ElementSpec{{
			Kind:    screenplay.KindTransition,
			Content: label,
			NodeID:  n.ID,
		}}, nil

	case flow.NodeHub:
		hub := story.Hub{}
		if n.Data.Hub != nil {
			hub = *n.Data.Hub
		}
		return []ElementSpec{{
			Kind:    screenplay.KindHubMarker,
			Content: hub.Label,
			Data:    screenplay.Data{Hub: &hub},
			NodeID:  n.ID,
		}}, nil

	case flow.NodeJump:
		jump := story.Jump{}
		if n.Data.Jump != nil {
			jump = *n.Data.Jump
		}
		return []ElementSpec{{
			Kind:   screenplay.KindJumpMarker,
			Data:   screenplay.Data{Jump: &jump},
			NodeID: n.ID,
		}}, nil

	case flow.NodeSubflow:
		// Subflows have no screenplay representation.
		return nil, nil

	default:
		return nil, errors.New(errors.ErrCodeInvalidNodeType,
			"node %s has unrecognized kind %q", n.ID, n.Kind)
	}
}

func mapDialogueNode(n *flow.Node) ([]ElementSpec, error) {
	d := flow.DialogueData{}
	if n.Data.Dialogue != nil {
		d = *n.Data.Dialogue
	}

	// Dual dialogue: one element reconstructing both halves, left from the
	// primary fields and right from the dual sub-object.
	if d.DualDialogue != nil {
		dual := &story.DualDialogue{
			Left: story.DualSide{
				Character:     d.MenuText,
				Parenthetical: d.StageDirections,
				Dialogue:      d.Text,
			},
			Right: *d.DualDialogue,
		}
		return []ElementSpec{{
			Kind:   screenplay.KindDualDialogue,
			Data:   screenplay.Data{Dual: dual},
			NodeID: n.ID,
		}}, nil
	}

	// No spoken text: a pure description beat maps back to an action.
	if d.Text == "" {
		return []ElementSpec{{
			Kind:    screenplay.KindAction,
			Content: d.StageDirections,
			NodeID:  n.ID,
		}}, nil
	}

	name := d.MenuText
	if name == "" {
		name = DefaultCharacterName
	}
	character := ElementSpec{
		Kind:    screenplay.KindCharacter,
		Content: name,
		NodeID:  n.ID,
	}
	if d.SpeakerSheetID != "" {
		character.Data.SheetID = d.SpeakerSheetID
	}

	specs := []ElementSpec{character}
	if d.StageDirections != "" {
		specs = append(specs, ElementSpec{
			Kind:    screenplay.KindParenthetical,
			Content: d.StageDirections,
			NodeID:  n.ID,
		})
	}
	specs = append(specs, ElementSpec{
		Kind:    screenplay.KindDialogue,
		Content: d.Text,
		NodeID:  n.ID,
	})
	if len(d.Responses) > 0 {
		specs = append(specs, ElementSpec{
			Kind: screenplay.KindResponse,
			Data: screenplay.Data{Response: &screenplay.ResponseData{
				Choices: story.CloneChoices(d.Responses),
			}},
			NodeID: n.ID,
		})
	}
	return specs, nil
}
