package syncer

import (
	"context"
	"reflect"

	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/mapping"
	"github.com/adnumaro/storyarn/pkg/screenplay"
)

// PullResult summarizes the writes one pull performed. A second pull with
// no intervening edits reports all zeros.
type PullResult struct {
	FlowID string

	ElementsCreated int
	ElementsUpdated int
	ElementsDeleted int

	PagesCreated    int
	ChoicesLinked   int
	ChoicesUnlinked int
}

// pullState carries the per-pull context shared across the page recursion.
type pullState struct {
	nodeSet     map[string]bool       // every node id currently in the graph
	visitedTree map[string]bool       // every node id the traversal emitted
	nodeByID    map[string]*flow.Node // graph nodes for choice-link write-back
	res         *PullResult
	pages       map[string]bool // pages reconciled this pull
}

// Pull synchronizes the linked flow back into the page tree.
//
// The graph is expanded with [flow.LinearizeTree] and every visited node
// is reverse-mapped to element specs. Elements previously produced by
// sync (found via their linked node id) are updated in place, or deleted
// when their source node vanished; hand-authored elements are never
// touched and keep their place immediately before whichever mapped
// element they originally preceded. Branch subtrees without a linked
// child page get one created (named from the choice text); a choice whose
// branch connection disappeared is unlinked, but its orphaned child page
// survives.
//
// Fails with NOT_LINKED when the page has no flow and NO_ENTRY_NODE when
// the graph has no entry node.
func (s *Syncer) Pull(ctx context.Context, pageID string) (*PullResult, error) {
	page, err := s.store.Page(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page.LinkedFlowID == "" {
		return nil, notLinked(pageID)
	}

	nodes, err := s.store.Nodes(ctx, page.LinkedFlowID)
	if err != nil {
		return nil, err
	}
	conns, err := s.store.Connections(ctx, page.LinkedFlowID)
	if err != nil {
		return nil, err
	}

	tree, err := flow.LinearizeTree(nodes, conns)
	if err != nil {
		return nil, err
	}

	st := &pullState{
		nodeSet:     make(map[string]bool, len(nodes)),
		visitedTree: make(map[string]bool, len(nodes)),
		nodeByID:    make(map[string]*flow.Node, len(nodes)),
		res:         &PullResult{FlowID: page.LinkedFlowID},
		pages:       make(map[string]bool),
	}
	for _, n := range nodes {
		st.nodeSet[n.ID] = true
		st.nodeByID[n.ID] = n
	}
	collectVisited(tree, st.visitedTree)

	if err := s.reconcilePage(ctx, pageID, tree, st); err != nil {
		return nil, err
	}

	s.log.Debug("pull complete", "page", pageID, "flow", page.LinkedFlowID,
		"created", st.res.ElementsCreated, "updated", st.res.ElementsUpdated,
		"deleted", st.res.ElementsDeleted, "pages", st.res.PagesCreated)
	return st.res, nil
}

func collectVisited(t *flow.PathTree, into map[string]bool) {
	for _, n := range t.Nodes {
		into[n.ID] = true
	}
	for _, b := range t.Branches {
		collectVisited(b.Subtree, into)
	}
}

// elementKey matches existing synced elements to reverse-mapped specs:
// one node can produce several elements, so the kind disambiguates.
type elementKey struct {
	nodeID string
	kind   screenplay.ElementKind
}

type recursion struct {
	pageID  string
	subtree *flow.PathTree
}

func (s *Syncer) reconcilePage(ctx context.Context, pageID string, t *flow.PathTree, st *pullState) error {
	if st.pages[pageID] {
		return nil
	}
	st.pages[pageID] = true

	// Reverse-map the subtree's main sequence into the desired spec list.
	var desired []mapping.ElementSpec
	for _, n := range t.Nodes {
		specs, err := mapping.MapNode(n)
		if err != nil {
			return err
		}
		desired = append(desired, specs...)
	}

	existing, err := s.store.Elements(ctx, pageID)
	if err != nil {
		return err
	}

	avail := make(map[elementKey][]*screenplay.Element)
	for _, e := range existing {
		if e.LinkedNodeID != "" {
			k := elementKey{e.LinkedNodeID, e.Kind}
			avail[k] = append(avail[k], e)
		}
	}

	used := make(map[string]bool)
	var ordered []*screenplay.Element
	var recurse []recursion

	for i := range desired {
		spec := &desired[i]
		if spec.Kind == screenplay.KindResponse {
			// The stored element is the durable record of choice links for
			// manual nodes, whose graph side is never written.
			if list := avail[elementKey{spec.NodeID, spec.Kind}]; len(list) > 0 {
				seedChoiceLinks(spec, list[0])
			}
			if err := s.reconcileChoices(ctx, pageID, spec, t, st, &recurse); err != nil {
				return err
			}
		}

		k := elementKey{spec.NodeID, spec.Kind}
		if list := avail[k]; len(list) > 0 {
			e := list[0]
			avail[k] = list[1:]
			used[e.ID] = true
			if e.Content != spec.Content || !reflect.DeepEqual(e.Data, spec.Data) {
				e.Content = spec.Content
				e.Data = spec.Data
				if err := s.store.UpdateElement(ctx, e); err != nil {
					return err
				}
				st.res.ElementsUpdated++
			}
			ordered = append(ordered, e)
			continue
		}

		created, err := s.store.CreateElement(ctx, &screenplay.Element{
			PageID:       pageID,
			Kind:         spec.Kind,
			Content:      spec.Content,
			Data:         spec.Data,
			Position:     len(existing) + i, // provisional, renumbered below
			LinkedNodeID: spec.NodeID,
		})
		if err != nil {
			return err
		}
		st.res.ElementsCreated++
		ordered = append(ordered, created)
	}

	// Partition the remaining elements: synced leftovers whose node
	// vanished (or was re-mapped without them) are deleted; hand-authored
	// elements and elements of existing-but-unvisited nodes are kept.
	deleted := make(map[string]bool)
	kept := make(map[string]bool)
	for _, e := range existing {
		if used[e.ID] {
			continue
		}
		if e.LinkedNodeID == "" {
			kept[e.ID] = true
			continue
		}
		if !st.nodeSet[e.LinkedNodeID] || st.visitedTree[e.LinkedNodeID] {
			if err := s.store.DeleteElement(ctx, e.ID); err != nil {
				return err
			}
			st.res.ElementsDeleted++
			deleted[e.ID] = true
			continue
		}
		kept[e.ID] = true
	}

	// Re-anchor every kept element immediately before the mapped element
	// it originally preceded; kept elements with no surviving successor
	// trail at the end.
	anchors := make(map[string][]*screenplay.Element)
	var pending, tail []*screenplay.Element
	for _, e := range existing {
		switch {
		case used[e.ID]:
			anchors[e.ID] = pending
			pending = nil
		case kept[e.ID]:
			pending = append(pending, e)
		}
	}
	tail = pending

	var final []*screenplay.Element
	for _, e := range ordered {
		final = append(final, anchors[e.ID]...)
		final = append(final, e)
	}
	final = append(final, tail...)

	for pos, e := range final {
		if e.Position == pos {
			continue
		}
		e.Position = pos
		if err := s.store.UpdateElement(ctx, e); err != nil {
			return err
		}
	}

	for _, r := range recurse {
		if err := s.reconcilePage(ctx, r.pageID, r.subtree, st); err != nil {
			return err
		}
	}
	return nil
}

// reconcileChoices aligns one response spec's choices with the branch
// connections the traversal found: missing child pages are materialized
// and linked, and choices whose branch connection disappeared are
// unlinked without deleting the orphaned page. Link changes are written
// back to the owning node too, unless the node is manual.
func (s *Syncer) reconcileChoices(ctx context.Context, pageID string, spec *mapping.ElementSpec,
	t *flow.PathTree, st *pullState, recurse *[]recursion) error {

	rd := spec.Data.Response
	if rd == nil {
		return nil
	}

	branchByChoice := make(map[string]flow.PathBranch)
	for _, b := range t.BranchesOf(spec.NodeID) {
		branchByChoice[b.ChoiceID] = b
	}

	// Manual nodes keep their stored responses exactly as authored; link
	// changes land on the screenplay element only.
	node := st.nodeByID[spec.NodeID]
	if node != nil && node.IsManual() {
		node = nil
	}
	nodeChanged := false

	for i := range rd.Choices {
		ch := &rd.Choices[i]
		b, hasBranch := branchByChoice[ch.ID]

		if hasBranch && ch.LinkedScreenplayID == "" {
			title := ch.Text
			if title == "" {
				title = "Untitled choice"
			}
			child, err := s.store.CreatePage(ctx, &screenplay.Page{
				ParentID: pageID,
				Title:    title,
			})
			if err != nil {
				return err
			}
			ch.LinkedScreenplayID = child.ID
			st.res.PagesCreated++
			st.res.ChoicesLinked++
			nodeChanged = setNodeChoiceLink(node, ch.ID, child.ID) || nodeChanged
		}

		if !hasBranch && ch.LinkedScreenplayID != "" {
			// The branch connection is gone; the orphaned child page stays.
			ch.LinkedScreenplayID = ""
			st.res.ChoicesUnlinked++
			nodeChanged = setNodeChoiceLink(node, ch.ID, "") || nodeChanged
		}

		// An empty subtree means the branch's nodes were emitted elsewhere
		// (shared target); the link stands, there is nothing to reconcile.
		if hasBranch && ch.LinkedScreenplayID != "" && len(b.Subtree.Nodes) > 0 {
			*recurse = append(*recurse, recursion{pageID: ch.LinkedScreenplayID, subtree: b.Subtree})
		}
	}

	if nodeChanged && node != nil {
		if err := s.store.UpdateNode(ctx, node); err != nil {
			return err
		}
	}
	return nil
}

// seedChoiceLinks carries the screenplay links already recorded on the
// existing response element over to the freshly mapped spec. The node's
// own responses win when set; the element fills the gaps, which is the
// only durable side for manual nodes.
func seedChoiceLinks(spec *mapping.ElementSpec, e *screenplay.Element) {
	if spec.Data.Response == nil || e.Data.Response == nil {
		return
	}
	linked := make(map[string]string)
	for _, ch := range e.Data.Response.Choices {
		if ch.LinkedScreenplayID != "" {
			linked[ch.ID] = ch.LinkedScreenplayID
		}
	}
	for i := range spec.Data.Response.Choices {
		ch := &spec.Data.Response.Choices[i]
		if ch.LinkedScreenplayID == "" {
			ch.LinkedScreenplayID = linked[ch.ID]
		}
	}
}

// setNodeChoiceLink mirrors a choice's screenplay link onto the graph
// node's stored responses so the next traversal sees the same state.
// Manual nodes are left untouched by the caller.
func setNodeChoiceLink(n *flow.Node, choiceID, screenplayID string) bool {
	if n == nil || n.Data.Dialogue == nil {
		return false
	}
	for i := range n.Data.Dialogue.Responses {
		ch := &n.Data.Dialogue.Responses[i]
		if ch.ID == choiceID && ch.LinkedScreenplayID != screenplayID {
			ch.LinkedScreenplayID = screenplayID
			return true
		}
	}
	return false
}
