package pagetree

import (
	"slices"

	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/mapping"
)

// ConnSpec is one connection of the flattened tree, expressed as indices
// into [Flat.Specs]. The target pin is always "input".
type ConnSpec struct {
	SourceIndex int
	SourcePin   string
	TargetIndex int
}

// Flat is the flattened form of a page tree: one global node-spec list,
// one connection list and the sorted set of every page id the tree
// visited.
type Flat struct {
	Specs   []*mapping.NodeSpec
	Conns   []ConnSpec
	PageIDs []string
}

// Flatten walks the tree depth-first in pre-order and produces the global
// spec and connection lists.
//
// Sequential "output" connections link each node to its successor within
// the same page, except that:
//   - a node that is the source of branches emits one choice-pinned
//     connection per branch instead of a sequential output,
//   - exit nodes are terminal and emit nothing,
//   - condition nodes emit exactly two connections to their sequential
//     successor, pinned "true" and "false".
func Flatten(t *Tree) Flat {
	bases, total := t.indexBases()

	f := Flat{Specs: make([]*mapping.NodeSpec, 0, total)}
	t.walk(func(sub *Tree) {
		f.Specs = append(f.Specs, sub.Specs...)
		f.PageIDs = append(f.PageIDs, sub.ScreenplayID)
	})
	slices.Sort(f.PageIDs)

	t.walk(func(sub *Tree) {
		base := bases[sub]
		for i, spec := range sub.Specs {
			if spec.Kind == flow.NodeExit {
				continue
			}

			if branches := sub.branchesOf(i); len(branches) > 0 {
				for _, b := range branches {
					f.Conns = append(f.Conns, ConnSpec{
						SourceIndex: base + i,
						SourcePin:   b.ChoiceID,
						TargetIndex: bases[b.Child],
					})
				}
				continue
			}

			if i+1 >= len(sub.Specs) {
				continue
			}
			target := base + i + 1
			if spec.Kind == flow.NodeCondition {
				f.Conns = append(f.Conns,
					ConnSpec{SourceIndex: base + i, SourcePin: flow.PinTrue, TargetIndex: target},
					ConnSpec{SourceIndex: base + i, SourcePin: flow.PinFalse, TargetIndex: target},
				)
				continue
			}
			f.Conns = append(f.Conns, ConnSpec{
				SourceIndex: base + i,
				SourcePin:   flow.PinOutput,
				TargetIndex: target,
			})
		}
	})

	return f
}
