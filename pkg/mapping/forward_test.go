package mapping

import (
	"reflect"
	"testing"

	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/screenplay"
	"github.com/adnumaro/storyarn/pkg/story"
)

func TestParseSceneHeading(t *testing.T) {
	tests := []struct {
		in   string
		want flow.SceneData
	}{
		{"INT. OFFICE - DAY", flow.SceneData{IntExt: "INT.", Description: "OFFICE", TimeOfDay: "DAY"}},
		{"EXT. ROOFTOP - NIGHT", flow.SceneData{IntExt: "EXT.", Description: "ROOFTOP", TimeOfDay: "NIGHT"}},
		{"int. kitchen - dawn", flow.SceneData{IntExt: "INT.", Description: "kitchen", TimeOfDay: "dawn"}},
		{"INT./EXT. CAR - CONTINUOUS", flow.SceneData{IntExt: "INT./EXT.", Description: "CAR", TimeOfDay: "CONTINUOUS"}},
		{"I/E. TRAIN", flow.SceneData{IntExt: "I/E.", Description: "TRAIN"}},
		{"INT. BAR", flow.SceneData{IntExt: "INT.", Description: "BAR"}},
		{"THE VOID", flow.SceneData{Description: "THE VOID"}},
		{"INT. WAREHOUSE - BACK ROOM - NIGHT", flow.SceneData{IntExt: "INT.", Description: "WAREHOUSE - BACK ROOM", TimeOfDay: "NIGHT"}},
		{"  INT. OFFICE - DAY  ", flow.SceneData{IntExt: "INT.", Description: "OFFICE", TimeOfDay: "DAY"}},
		{"", flow.SceneData{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseSceneHeading(tt.in)
			if got != tt.want {
				t.Errorf("ParseSceneHeading(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatSceneHeadingRoundTrip(t *testing.T) {
	headings := []string{
		"INT. OFFICE - DAY",
		"EXT. ROOFTOP - NIGHT",
		"INT./EXT. CAR - CONTINUOUS",
		"I/E. TRAIN",
		"INT. BAR",
	}
	for _, h := range headings {
		if got := FormatSceneHeading(ParseSceneHeading(h)); got != h {
			t.Errorf("round trip of %q produced %q", h, got)
		}
	}
}

func group(kind screenplay.GroupKind, elements ...*screenplay.Element) screenplay.Group {
	return screenplay.Group{Kind: kind, Elements: elements}
}

func TestMapGroupSceneHeading(t *testing.T) {
	g := group(screenplay.GroupSceneHeading,
		&screenplay.Element{ID: "e1", Kind: screenplay.KindSceneHeading, Content: "INT. OFFICE - DAY"})

	spec, err := MapGroup(g, true)
	if err != nil {
		t.Fatalf("MapGroup error: %v", err)
	}
	if spec.Kind != flow.NodeEntry {
		t.Errorf("entry mapping produced kind %s", spec.Kind)
	}
	if spec.Data.Scene == nil || spec.Data.Scene.Description != "OFFICE" {
		t.Errorf("entry node should keep the parsed heading, got %+v", spec.Data.Scene)
	}

	spec, err = MapGroup(g, false)
	if err != nil {
		t.Fatalf("MapGroup error: %v", err)
	}
	if spec.Kind != flow.NodeScene {
		t.Errorf("non-entry mapping produced kind %s", spec.Kind)
	}
	want := []string{"e1"}
	if !reflect.DeepEqual(spec.ElementIDs, want) {
		t.Errorf("ElementIDs = %v, want %v", spec.ElementIDs, want)
	}
}

func TestMapGroupDialogue(t *testing.T) {
	g := group(screenplay.GroupDialogue,
		&screenplay.Element{ID: "e1", Kind: screenplay.KindCharacter, Content: "VERA", Data: screenplay.Data{SheetID: "sheet-7"}},
		&screenplay.Element{ID: "e2", Kind: screenplay.KindParenthetical, Content: "(whispering)"},
		&screenplay.Element{ID: "e3", Kind: screenplay.KindDialogue, Content: "They're listening."},
		&screenplay.Element{ID: "e4", Kind: screenplay.KindResponse, Data: screenplay.Data{
			Response: &screenplay.ResponseData{Choices: []story.Choice{{ID: "c1", Text: "Nod"}}},
		}},
	)

	spec, err := MapGroup(g, false)
	if err != nil {
		t.Fatalf("MapGroup error: %v", err)
	}
	if spec.Kind != flow.NodeDialogue {
		t.Fatalf("kind = %s, want dialogue", spec.Kind)
	}
	d := spec.Data.Dialogue
	if d.MenuText != "VERA" || d.SpeakerSheetID != "sheet-7" ||
		d.StageDirections != "(whispering)" || d.Text != "They're listening." {
		t.Errorf("dialogue payload = %+v", d)
	}
	if len(d.Responses) != 1 || d.Responses[0].ID != "c1" {
		t.Errorf("responses = %+v", d.Responses)
	}
	if len(spec.ElementIDs) != 4 {
		t.Errorf("ElementIDs = %v", spec.ElementIDs)
	}
}

func TestMapGroupAction(t *testing.T) {
	g := group(screenplay.GroupAction,
		&screenplay.Element{ID: "e1", Kind: screenplay.KindAction, Content: "The door creaks open."})

	spec, err := MapGroup(g, false)
	if err != nil {
		t.Fatalf("MapGroup error: %v", err)
	}
	if spec.Kind != flow.NodeDialogue {
		t.Fatalf("kind = %s, want dialogue", spec.Kind)
	}
	if spec.Data.Dialogue.Text != "" || spec.Data.Dialogue.StageDirections != "The door creaks open." {
		t.Errorf("action payload = %+v", spec.Data.Dialogue)
	}
}

func TestMapGroupTransition(t *testing.T) {
	g := group(screenplay.GroupTransition,
		&screenplay.Element{ID: "e1", Kind: screenplay.KindTransition, Content: "CUT TO:"})

	spec, err := MapGroup(g, false)
	if err != nil {
		t.Fatalf("MapGroup error: %v", err)
	}
	if spec.Kind != flow.NodeExit {
		t.Fatalf("kind = %s, want exit", spec.Kind)
	}
	if spec.Data.Exit.Label != "CUT TO:" || spec.Data.Exit.ExitMode != flow.ExitModeTerminal {
		t.Errorf("exit payload = %+v", spec.Data.Exit)
	}
}

func TestMapGroupConditionalDefaults(t *testing.T) {
	g := group(screenplay.GroupConditional,
		&screenplay.Element{ID: "e1", Kind: screenplay.KindConditional})

	spec, err := MapGroup(g, false)
	if err != nil {
		t.Fatalf("MapGroup error: %v", err)
	}
	if spec.Kind != flow.NodeCondition {
		t.Fatalf("kind = %s, want condition", spec.Kind)
	}
	if spec.Data.Condition.Condition.Logic != story.LogicAll {
		t.Errorf("missing condition payload should default to empty all-logic, got %+v", spec.Data.Condition)
	}
	if spec.Data.Condition.SwitchMode {
		t.Error("switch mode should default off")
	}
}

func TestMapGroupDualDialogue(t *testing.T) {
	dual := &story.DualDialogue{
		Left:  story.DualSide{Character: "VERA", Dialogue: "Go left."},
		Right: story.DualSide{Character: "MARK", Dialogue: "Go right."},
	}
	g := group(screenplay.GroupDualDialogue,
		&screenplay.Element{ID: "e1", Kind: screenplay.KindDualDialogue, Data: screenplay.Data{Dual: dual}})

	spec, err := MapGroup(g, false)
	if err != nil {
		t.Fatalf("MapGroup error: %v", err)
	}
	d := spec.Data.Dialogue
	if d.MenuText != "VERA" || d.Text != "Go left." {
		t.Errorf("primary fields should carry the left half, got %+v", d)
	}
	if d.DualDialogue == nil || d.DualDialogue.Character != "MARK" {
		t.Errorf("dual sub-object should carry the right half, got %+v", d.DualDialogue)
	}
}

func TestMapGroupNonMappeable(t *testing.T) {
	g := group(screenplay.GroupNonMappeable,
		&screenplay.Element{ID: "e1", Kind: screenplay.KindNote, Content: "fix pacing"})

	spec, err := MapGroup(g, false)
	if err != nil {
		t.Fatalf("MapGroup error: %v", err)
	}
	if spec != nil {
		t.Errorf("non-mappeable group produced a node spec: %+v", spec)
	}
}
