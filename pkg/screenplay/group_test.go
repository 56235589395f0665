package screenplay

import (
	"testing"

	"github.com/adnumaro/storyarn/pkg/errors"
)

func el(id string, kind ElementKind) *Element {
	return &Element{ID: id, Kind: kind}
}

// kinds summarizes a grouping result for compact comparison.
func kinds(groups []Group) []GroupKind {
	out := make([]GroupKind, len(groups))
	for i, g := range groups {
		out[i] = g.Kind
	}
	return out
}

func TestGroupElements(t *testing.T) {
	tests := []struct {
		name string
		in   []*Element
		want []GroupKind
	}{
		{
			name: "empty page",
			in:   nil,
			want: []GroupKind{},
		},
		{
			name: "linear scene",
			in: []*Element{
				el("e1", KindSceneHeading),
				el("e2", KindAction),
				el("e3", KindTransition),
			},
			want: []GroupKind{GroupSceneHeading, GroupAction, GroupTransition},
		},
		{
			name: "full dialogue run",
			in: []*Element{
				el("e1", KindCharacter),
				el("e2", KindParenthetical),
				el("e3", KindDialogue),
				el("e4", KindResponse),
			},
			want: []GroupKind{GroupDialogue},
		},
		{
			name: "minimal dialogue run",
			in: []*Element{
				el("e1", KindCharacter),
				el("e2", KindDialogue),
			},
			want: []GroupKind{GroupDialogue},
		},
		{
			name: "two runs back to back",
			in: []*Element{
				el("e1", KindCharacter),
				el("e2", KindDialogue),
				el("e3", KindCharacter),
				el("e4", KindDialogue),
				el("e5", KindResponse),
			},
			want: []GroupKind{GroupDialogue, GroupDialogue},
		},
		{
			name: "character with no dialogue degrades per element",
			in: []*Element{
				el("e1", KindCharacter),
				el("e2", KindAction),
			},
			want: []GroupKind{GroupNonMappeable, GroupAction},
		},
		{
			name: "character and parenthetical with no dialogue",
			in: []*Element{
				el("e1", KindCharacter),
				el("e2", KindParenthetical),
				el("e3", KindTransition),
			},
			want: []GroupKind{GroupNonMappeable, GroupNonMappeable, GroupTransition},
		},
		{
			name: "orphan response",
			in: []*Element{
				el("e1", KindAction),
				el("e2", KindResponse),
			},
			want: []GroupKind{GroupAction, GroupNonMappeable},
		},
		{
			name: "orphan dialogue and parenthetical",
			in: []*Element{
				el("e1", KindDialogue),
				el("e2", KindParenthetical),
			},
			want: []GroupKind{GroupNonMappeable, GroupNonMappeable},
		},
		{
			name: "annotations are non-mappeable",
			in: []*Element{
				el("e1", KindNote),
				el("e2", KindSection),
				el("e3", KindPageBreak),
				el("e4", KindTitlePage),
			},
			want: []GroupKind{GroupNonMappeable, GroupNonMappeable, GroupNonMappeable, GroupNonMappeable},
		},
		{
			name: "markers and structured kinds",
			in: []*Element{
				el("e1", KindConditional),
				el("e2", KindInstruction),
				el("e3", KindHubMarker),
				el("e4", KindJumpMarker),
				el("e5", KindDualDialogue),
			},
			want: []GroupKind{GroupConditional, GroupInstruction, GroupHubMarker, GroupJumpMarker, GroupDualDialogue},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := GroupElements(tt.in)
			if err != nil {
				t.Fatalf("GroupElements error: %v", err)
			}
			got := kinds(groups)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d groups (%v), want %d (%v)", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("group[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGroupElementsUnknownKind(t *testing.T) {
	_, err := GroupElements([]*Element{el("e1", ElementKind("hologram"))})
	if !errors.Is(err, errors.ErrCodeInvalidGroup) {
		t.Errorf("expected INVALID_GROUP error, got %v", err)
	}
}

func TestDialogueGroupAccessors(t *testing.T) {
	char := el("e1", KindCharacter)
	paren := el("e2", KindParenthetical)
	dia := el("e3", KindDialogue)
	resp := el("e4", KindResponse)

	groups, err := GroupElements([]*Element{char, paren, dia, resp})
	if err != nil {
		t.Fatalf("GroupElements error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}

	g := groups[0]
	if g.Character() != char || g.Parenthetical() != paren || g.Dialogue() != dia || g.Response() != resp {
		t.Error("accessors did not return the run's elements")
	}
	wantIDs := []string{"e1", "e2", "e3", "e4"}
	gotIDs := g.ElementIDs()
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Errorf("ElementIDs[%d] = %s, want %s", i, gotIDs[i], wantIDs[i])
		}
	}
}
