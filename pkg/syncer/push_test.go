package syncer

import (
	"context"
	"fmt"
	"testing"

	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/pagetree"
	"github.com/adnumaro/storyarn/pkg/screenplay"
	"github.com/adnumaro/storyarn/pkg/store/memory"
)

func TestPushCreatesGraph(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := New(st)
	pageID := seedLinearPage(t, st)

	res, err := s.Push(ctx, pageID)
	if err != nil {
		t.Fatalf("Push error: %v", err)
	}
	if res.NodesCreated != 4 {
		t.Errorf("NodesCreated = %d, want 4", res.NodesCreated)
	}
	if res.ConnectionsCreated != 3 {
		t.Errorf("ConnectionsCreated = %d, want 3", res.ConnectionsCreated)
	}
	if res.ElementsLinked != 5 {
		t.Errorf("ElementsLinked = %d, want 5", res.ElementsLinked)
	}

	nodes, _ := st.Nodes(ctx, res.FlowID)
	kinds := map[flow.NodeKind]int{}
	for _, n := range nodes {
		kinds[n.Kind]++
		if n.Origin != flow.OriginSync {
			t.Errorf("node %s has origin %q", n.ID, n.Origin)
		}
	}
	if kinds[flow.NodeEntry] != 1 || kinds[flow.NodeDialogue] != 2 || kinds[flow.NodeExit] != 1 {
		t.Errorf("node kinds = %v", kinds)
	}

	// A fresh flow gets the full tree layout: one vertical stack.
	for _, n := range nodes {
		if n.X != pagetree.LayoutCenterX {
			t.Errorf("node %s at x=%v, want %v", n.ID, n.X, pagetree.LayoutCenterX)
		}
	}

	els, _ := st.Elements(ctx, pageID)
	for _, e := range els {
		if e.LinkedNodeID == "" {
			t.Errorf("element %s not stamped with its node", e.ID)
		}
	}
}

func TestPushIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := New(st)
	pageID := seedLinearPage(t, st)

	if _, err := s.Push(ctx, pageID); err != nil {
		t.Fatalf("first Push error: %v", err)
	}
	res, err := s.Push(ctx, pageID)
	if err != nil {
		t.Fatalf("second Push error: %v", err)
	}
	if res.NodesCreated+res.NodesUpdated+res.NodesDeleted != 0 {
		t.Errorf("second push touched nodes: %+v", res)
	}
	if res.ConnectionsCreated+res.ConnectionsDeleted != 0 {
		t.Errorf("second push touched connections: %+v", res)
	}
	if res.ElementsLinked != 0 {
		t.Errorf("second push re-stamped elements: %+v", res)
	}
}

func TestPushPreservesNodePositions(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := New(st)
	pageID := seedLinearPage(t, st)

	if _, err := s.Push(ctx, pageID); err != nil {
		t.Fatalf("Push error: %v", err)
	}

	// The author drags the dialogue node somewhere else.
	els, _ := st.Elements(ctx, pageID)
	var dialogueNodeID string
	for _, e := range els {
		if e.ID == "e4" {
			dialogueNodeID = e.LinkedNodeID
		}
	}
	page, _ := st.Page(ctx, pageID)
	nodes, _ := st.Nodes(ctx, page.LinkedFlowID)
	for _, n := range nodes {
		if n.ID == dialogueNodeID {
			n.X, n.Y = 1200, 640
			if err := st.UpdateNode(ctx, n); err != nil {
				t.Fatalf("UpdateNode error: %v", err)
			}
		}
	}

	// The writer edits the line; push must update data but keep position.
	for _, e := range els {
		if e.ID == "e4" {
			e.Content = "We're very late."
			if err := st.UpdateElement(ctx, e); err != nil {
				t.Fatalf("UpdateElement error: %v", err)
			}
		}
	}

	res, err := s.Push(ctx, pageID)
	if err != nil {
		t.Fatalf("Push error: %v", err)
	}
	if res.NodesUpdated != 1 || res.NodesCreated != 0 || res.NodesDeleted != 0 {
		t.Errorf("res = %+v, want exactly one node update", res)
	}

	nodes, _ = st.Nodes(ctx, page.LinkedFlowID)
	for _, n := range nodes {
		if n.ID != dialogueNodeID {
			continue
		}
		if n.X != 1200 || n.Y != 640 {
			t.Errorf("node moved to (%v, %v), authored position lost", n.X, n.Y)
		}
		if n.Data.Dialogue.Text != "We're very late." {
			t.Errorf("node text = %q, edit not pushed", n.Data.Dialogue.Text)
		}
	}
}

func TestPushLeavesManualNodesAlone(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := New(st)
	pageID := seedLinearPage(t, st)

	res, err := s.Push(ctx, pageID)
	if err != nil {
		t.Fatalf("Push error: %v", err)
	}

	// The author hand-builds a node and wires it into a synced one.
	nodes, _ := st.Nodes(ctx, res.FlowID)
	manual, _ := st.CreateNode(ctx, &flow.Node{
		FlowID: res.FlowID,
		Kind:   flow.NodeDialogue,
		Data:   flow.Data{Dialogue: &flow.DialogueData{Text: "Handmade aside."}},
		Origin: flow.OriginManual,
	})
	manualConn, _ := st.CreateConnection(ctx, &flow.Connection{
		FlowID:       res.FlowID,
		SourceNodeID: manual.ID,
		SourcePin:    flow.PinOutput,
		TargetNodeID: nodes[0].ID,
		TargetPin:    flow.PinInput,
	})

	res2, err := s.Push(ctx, pageID)
	if err != nil {
		t.Fatalf("second Push error: %v", err)
	}
	if res2.NodesDeleted != 0 || res2.ConnectionsDeleted != 0 {
		t.Errorf("push deleted around a manual node: %+v", res2)
	}

	if _, err := findNode(ctx, st, res.FlowID, manual.ID); err != nil {
		t.Error("manual node vanished")
	}
	conns, _ := st.Connections(ctx, res.FlowID)
	found := false
	for _, c := range conns {
		if c.ID == manualConn.ID {
			found = true
		}
	}
	if !found {
		t.Error("connection touching a manual node vanished")
	}
}

func findNode(ctx context.Context, st *memory.Store, flowID, nodeID string) (*flow.Node, error) {
	nodes, err := st.Nodes(ctx, flowID)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.ID == nodeID {
			return n, nil
		}
	}
	return nil, fmt.Errorf("node %s not in flow %s", nodeID, flowID)
}

func TestPushDeletesStaleNodes(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := New(st)
	pageID := seedLinearPage(t, st)

	if _, err := s.Push(ctx, pageID); err != nil {
		t.Fatalf("Push error: %v", err)
	}

	// Cutting the transition makes its exit node stale.
	if err := st.DeleteElement(ctx, "e5"); err != nil {
		t.Fatalf("DeleteElement error: %v", err)
	}

	res, err := s.Push(ctx, pageID)
	if err != nil {
		t.Fatalf("second Push error: %v", err)
	}
	if res.NodesDeleted != 1 {
		t.Errorf("NodesDeleted = %d, want 1", res.NodesDeleted)
	}
	if res.ConnectionsDeleted != 1 {
		t.Errorf("ConnectionsDeleted = %d, want 1", res.ConnectionsDeleted)
	}

	nodes, _ := st.Nodes(ctx, res.FlowID)
	for _, n := range nodes {
		if n.Kind == flow.NodeExit {
			t.Error("stale exit node survived")
		}
	}
}

func TestPushBranchingPages(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := New(st)
	rootID := seedBranchingPages(t, st)

	res, err := s.Push(ctx, rootID)
	if err != nil {
		t.Fatalf("Push error: %v", err)
	}
	// Root: entry + dialogue. Children: one action beat each.
	if res.NodesCreated != 4 {
		t.Errorf("NodesCreated = %d, want 4", res.NodesCreated)
	}

	conns, _ := st.Connections(ctx, res.FlowID)
	choicePins := map[string]bool{}
	for _, c := range conns {
		if flow.IsChoicePin(c.SourcePin) {
			choicePins[c.SourcePin] = true
		}
	}
	if !choicePins["c-left"] || !choicePins["c-right"] {
		t.Errorf("choice-pin connections missing: %v", choicePins)
	}

	// Child elements are stamped too.
	for _, pid := range []string{"left", "right"} {
		els, _ := st.Elements(ctx, pid)
		for _, e := range els {
			if e.LinkedNodeID == "" {
				t.Errorf("element %s on child page %s not stamped", e.ID, pid)
			}
		}
	}

	// Idempotence holds across the whole tree.
	res2, err := s.Push(ctx, rootID)
	if err != nil {
		t.Fatalf("second Push error: %v", err)
	}
	if res2.NodesCreated+res2.NodesUpdated+res2.NodesDeleted+res2.ConnectionsCreated+res2.ConnectionsDeleted != 0 {
		t.Errorf("second push not idempotent: %+v", res2)
	}
}

func TestPushPreservesNonMappeableElements(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := New(st)
	pageID := seedLinearPage(t, st)

	note, _ := st.CreateElement(ctx, &screenplay.Element{
		PageID:   pageID,
		Kind:     screenplay.KindNote,
		Content:  "tighten the pacing here",
		Position: 10, // after the transition
	})

	if _, err := s.Push(ctx, pageID); err != nil {
		t.Fatalf("Push error: %v", err)
	}

	els, _ := st.Elements(ctx, pageID)
	for _, e := range els {
		if e.ID == note.ID {
			if e.LinkedNodeID != "" {
				t.Error("non-mappeable element was stamped with a node")
			}
			return
		}
	}
	t.Error("note element vanished during push")
}
