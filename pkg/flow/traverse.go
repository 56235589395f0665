package flow

import (
	"slices"
	"strings"

	"github.com/adnumaro/storyarn/pkg/errors"
)

// PathTree is the result of expanding a graph into a branching tree that
// mirrors its response-choice structure. Nodes is the main sequence;
// Branches attach recursively-built subtrees to the dialogue nodes that
// fan out through choice pins.
type PathTree struct {
	Nodes    []*Node
	Branches []PathBranch
}

// PathBranch links one choice pin of a dialogue node to its subtree. The
// subtree is empty (never nil) when the pin's target was already emitted
// elsewhere in the tree, e.g. two choices converging on one node.
type PathBranch struct {
	SourceNodeID string
	ChoiceID     string
	Subtree      *PathTree
}

// BranchesOf returns the branches rooted at the given node, in traversal order.
func (t *PathTree) BranchesOf(nodeID string) []PathBranch {
	var out []PathBranch
	for _, b := range t.Branches {
		if b.SourceNodeID == nodeID {
			out = append(out, b)
		}
	}
	return out
}

// walker holds the shared traversal state: id and adjacency indexes plus
// the visited set that makes hub cycles safe.
type walker struct {
	byID     map[string]*Node
	outgoing map[string][]*Connection
	visited  map[string]bool
}

func newWalker(nodes []*Node, conns []*Connection) *walker {
	w := &walker{
		byID:     make(map[string]*Node, len(nodes)),
		outgoing: make(map[string][]*Connection),
		visited:  make(map[string]bool, len(nodes)),
	}
	for _, n := range nodes {
		w.byID[n.ID] = n
	}
	for _, c := range conns {
		w.outgoing[c.SourceNodeID] = append(w.outgoing[c.SourceNodeID], c)
	}
	return w
}

// entries returns all entry nodes in ascending id order.
func (w *walker) entries() []*Node {
	var out []*Node
	for _, n := range w.byID {
		if n.Kind == NodeEntry {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b *Node) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// next returns the target of the node's single-path continuation: the
// "output" pin, or "true" for condition nodes. Returns nil when the node
// has no such outgoing connection.
func (w *walker) next(n *Node) *Node {
	pin := PinOutput
	if n.Kind == NodeCondition {
		pin = PinTrue
	}
	for _, c := range w.outgoing[n.ID] {
		if c.SourcePin == pin {
			return w.byID[c.TargetNodeID]
		}
	}
	return nil
}

// choiceConns returns the node's choice-pin connections in a deterministic
// order: the declaration order of the dialogue's responses first, then any
// remaining choice pins sorted ascending. Only the first connection per
// pin is considered.
func (w *walker) choiceConns(n *Node) []*Connection {
	byPin := make(map[string]*Connection)
	var pins []string
	for _, c := range w.outgoing[n.ID] {
		if !IsChoicePin(c.SourcePin) {
			continue
		}
		if _, seen := byPin[c.SourcePin]; !seen {
			byPin[c.SourcePin] = c
			pins = append(pins, c.SourcePin)
		}
	}
	if len(pins) == 0 {
		return nil
	}

	var ordered []string
	if n.Data.Dialogue != nil {
		for _, ch := range n.Data.Dialogue.Responses {
			if _, ok := byPin[ch.ID]; ok && !slices.Contains(ordered, ch.ID) {
				ordered = append(ordered, ch.ID)
			}
		}
	}
	var rest []string
	for _, pin := range pins {
		if !slices.Contains(ordered, pin) {
			rest = append(rest, pin)
		}
	}
	slices.Sort(rest)
	ordered = append(ordered, rest...)

	out := make([]*Connection, len(ordered))
	for i, pin := range ordered {
		out[i] = byPin[pin]
	}
	return out
}

// Linearize collapses a graph into one ordered path.
//
// The walk starts at the lowest-id entry node and follows "output"
// connections ("true" for condition nodes; the false branch is ignored by
// this single-path mode), stopping at exit and jump nodes. A visited set
// makes cycles through hub nodes safe: a revisited node is not re-emitted.
// When several entry nodes exist they are each walked in ascending id
// order and their reachable sequences concatenated. Unreachable nodes are
// silently excluded.
//
// Returns a NO_ENTRY_NODE error when the graph has no entry node.
func Linearize(nodes []*Node, conns []*Connection) ([]*Node, error) {
	w := newWalker(nodes, conns)
	entries := w.entries()
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeNoEntryNode, "flow has no entry node")
	}

	var path []*Node
	for _, entry := range entries {
		for cur := entry; cur != nil; cur = w.next(cur) {
			if w.visited[cur.ID] {
				break
			}
			w.visited[cur.ID] = true
			path = append(path, cur)
			if cur.Kind == NodeExit || cur.Kind == NodeJump {
				break
			}
		}
	}
	return path, nil
}

// LinearizeTree expands a graph into a branching tree mirroring its
// response choices.
//
// The walk is the same as [Linearize], except that when a dialogue node
// has response-keyed outgoing connections the main sequence stops there
// and each distinct choice pin spawns a recursively-built subtree. The
// visited set is shared across the whole tree, so shared or cyclic
// subtrees are walked once: every wired pin still yields a branch record,
// but a pin whose target was already emitted elsewhere carries an empty
// subtree.
//
// Returns a NO_ENTRY_NODE error when the graph has no entry node.
func LinearizeTree(nodes []*Node, conns []*Connection) (*PathTree, error) {
	w := newWalker(nodes, conns)
	entries := w.entries()
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeNoEntryNode, "flow has no entry node")
	}

	root := &PathTree{}
	for _, entry := range entries {
		w.walkTree(entry, root)
	}
	return root, nil
}

func (w *walker) walkTree(cur *Node, t *PathTree) {
	for cur != nil {
		if w.visited[cur.ID] {
			return
		}
		w.visited[cur.ID] = true
		t.Nodes = append(t.Nodes, cur)

		if cur.Kind == NodeExit || cur.Kind == NodeJump {
			return
		}

		if cur.Kind == NodeDialogue {
			if branches := w.choiceConns(cur); len(branches) > 0 {
				for _, c := range branches {
					target := w.byID[c.TargetNodeID]
					if target == nil {
						continue
					}
					// An already-visited target still gets a branch record,
					// with an empty subtree: the connection exists even when
					// its nodes were emitted elsewhere.
					sub := &PathTree{}
					if !w.visited[target.ID] {
						w.walkTree(target, sub)
					}
					t.Branches = append(t.Branches, PathBranch{
						SourceNodeID: cur.ID,
						ChoiceID:     c.SourcePin,
						Subtree:      sub,
					})
				}
				return
			}
		}

		cur = w.next(cur)
	}
}
