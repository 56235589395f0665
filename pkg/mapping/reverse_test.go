package mapping

import (
	"testing"

	"github.com/adnumaro/storyarn/pkg/errors"
	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/screenplay"
	"github.com/adnumaro/storyarn/pkg/story"
)

func node(id string, kind flow.NodeKind, data flow.Data) *flow.Node {
	return &flow.Node{ID: id, Kind: kind, Data: data}
}

func TestMapNodeEntry(t *testing.T) {
	t.Run("with scene data", func(t *testing.T) {
		n := node("n1", flow.NodeEntry, flow.Data{
			Scene: &flow.SceneData{IntExt: "INT.", Description: "OFFICE", TimeOfDay: "DAY"},
		})
		specs, err := MapNode(n)
		if err != nil {
			t.Fatalf("MapNode error: %v", err)
		}
		if len(specs) != 1 || specs[0].Kind != screenplay.KindSceneHeading {
			t.Fatalf("specs = %+v", specs)
		}
		if specs[0].Content != "INT. OFFICE - DAY" {
			t.Errorf("content = %q", specs[0].Content)
		}
		if specs[0].NodeID != "n1" {
			t.Errorf("node id not stamped: %q", specs[0].NodeID)
		}
	})

	t.Run("bare entry", func(t *testing.T) {
		specs, err := MapNode(node("n1", flow.NodeEntry, flow.Data{}))
		if err != nil {
			t.Fatalf("MapNode error: %v", err)
		}
		if specs[0].Content != DefaultSceneHeading {
			t.Errorf("content = %q, want default heading", specs[0].Content)
		}
	})
}

func TestMapNodeDialogue(t *testing.T) {
	tests := []struct {
		name      string
		data      flow.DialogueData
		wantKinds []screenplay.ElementKind
	}{
		{
			name:      "full dialogue",
			data:      flow.DialogueData{Text: "Hello.", StageDirections: "(softly)", MenuText: "VERA"},
			wantKinds: []screenplay.ElementKind{screenplay.KindCharacter, screenplay.KindParenthetical, screenplay.KindDialogue},
		},
		{
			name:      "text only",
			data:      flow.DialogueData{Text: "Hello.", MenuText: "VERA"},
			wantKinds: []screenplay.ElementKind{screenplay.KindCharacter, screenplay.KindDialogue},
		},
		{
			name:      "with responses",
			data:      flow.DialogueData{Text: "Choose.", MenuText: "VERA", Responses: []story.Choice{{ID: "c1", Text: "Run"}}},
			wantKinds: []screenplay.ElementKind{screenplay.KindCharacter, screenplay.KindDialogue, screenplay.KindResponse},
		},
		{
			name:      "no text maps to action",
			data:      flow.DialogueData{StageDirections: "The lights flicker."},
			wantKinds: []screenplay.ElementKind{screenplay.KindAction},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, err := MapNode(node("n1", flow.NodeDialogue, flow.Data{Dialogue: &tt.data}))
			if err != nil {
				t.Fatalf("MapNode error: %v", err)
			}
			if len(specs) != len(tt.wantKinds) {
				t.Fatalf("got %d specs, want %d: %+v", len(specs), len(tt.wantKinds), specs)
			}
			for i, k := range tt.wantKinds {
				if specs[i].Kind != k {
					t.Errorf("specs[%d].Kind = %s, want %s", i, specs[i].Kind, k)
				}
				if specs[i].NodeID != "n1" {
					t.Errorf("specs[%d] missing node id", i)
				}
			}
		})
	}
}

func TestMapNodeDialogueDefaultSpeaker(t *testing.T) {
	specs, err := MapNode(node("n1", flow.NodeDialogue, flow.Data{
		Dialogue: &flow.DialogueData{Text: "Who said that?"},
	}))
	if err != nil {
		t.Fatalf("MapNode error: %v", err)
	}
	if specs[0].Kind != screenplay.KindCharacter || specs[0].Content != DefaultCharacterName {
		t.Errorf("unnamed speaker should default to %s, got %+v", DefaultCharacterName, specs[0])
	}
}

func TestMapNodeDualDialogue(t *testing.T) {
	specs, err := MapNode(node("n1", flow.NodeDialogue, flow.Data{
		Dialogue: &flow.DialogueData{
			Text:         "Go left.",
			MenuText:     "VERA",
			DualDialogue: &story.DualSide{Character: "MARK", Dialogue: "Go right."},
		},
	}))
	if err != nil {
		t.Fatalf("MapNode error: %v", err)
	}
	if len(specs) != 1 || specs[0].Kind != screenplay.KindDualDialogue {
		t.Fatalf("specs = %+v", specs)
	}
	dual := specs[0].Data.Dual
	if dual.Left.Character != "VERA" || dual.Left.Dialogue != "Go left." {
		t.Errorf("left half = %+v", dual.Left)
	}
	if dual.Right.Character != "MARK" || dual.Right.Dialogue != "Go right." {
		t.Errorf("right half = %+v", dual.Right)
	}
}

func TestMapNodeSubflow(t *testing.T) {
	specs, err := MapNode(node("n1", flow.NodeSubflow, flow.Data{Subflow: &flow.SubflowData{FlowID: "f2"}}))
	if err != nil {
		t.Fatalf("MapNode error: %v", err)
	}
	if specs != nil {
		t.Errorf("subflow should produce no elements, got %+v", specs)
	}
}

func TestMapNodeUnknownKind(t *testing.T) {
	_, err := MapNode(node("n1", flow.NodeKind("teleport"), flow.Data{}))
	if !errors.Is(err, errors.ErrCodeInvalidNodeType) {
		t.Errorf("expected INVALID_NODE_TYPE error, got %v", err)
	}
}

// TestRoundTrip feeds a group through the forward mapper, the resulting
// node through the reverse mapper, and checks the regenerated elements
// reproduce the original content.
func TestRoundTrip(t *testing.T) {
	original := []*screenplay.Element{
		{ID: "e1", Kind: screenplay.KindCharacter, Content: "VERA", Data: screenplay.Data{SheetID: "sheet-7"}},
		{ID: "e2", Kind: screenplay.KindParenthetical, Content: "(whispering)"},
		{ID: "e3", Kind: screenplay.KindDialogue, Content: "They're listening."},
		{ID: "e4", Kind: screenplay.KindResponse, Data: screenplay.Data{
			Response: &screenplay.ResponseData{Choices: []story.Choice{{ID: "c1", Text: "Nod"}}},
		}},
	}
	groups, err := screenplay.GroupElements(original)
	if err != nil {
		t.Fatalf("GroupElements error: %v", err)
	}
	spec, err := MapGroup(groups[0], false)
	if err != nil {
		t.Fatalf("MapGroup error: %v", err)
	}

	specs, err := MapNode(&flow.Node{ID: "n1", Kind: spec.Kind, Data: spec.Data})
	if err != nil {
		t.Fatalf("MapNode error: %v", err)
	}
	if len(specs) != len(original) {
		t.Fatalf("round trip produced %d elements, want %d", len(specs), len(original))
	}
	for i, orig := range original {
		if specs[i].Kind != orig.Kind {
			t.Errorf("specs[%d].Kind = %s, want %s", i, specs[i].Kind, orig.Kind)
		}
		if specs[i].Content != orig.Content {
			t.Errorf("specs[%d].Content = %q, want %q", i, specs[i].Content, orig.Content)
		}
	}
	if specs[0].Data.SheetID != "sheet-7" {
		t.Error("speaker sheet id lost in round trip")
	}
	if got := specs[3].Data.Response.Choices; len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("choices lost in round trip: %+v", got)
	}
}
