// Package pagetree assembles a page and its linked child pages into a tree
// of node specifications, flattens that tree into one global node list plus
// one connection list, and computes 2-D positions for the tree's nodes.
//
// # Shape
//
// Build walks a page's element groups through the forward mapper and
// recurses into every child page a response choice links to. Flatten and
// ComputePositions share the same depth-first pre-order, so the i-th
// flattened spec and the i-th computed position always describe the same
// node.
package pagetree

import (
	"context"

	"github.com/adnumaro/storyarn/pkg/errors"
	"github.com/adnumaro/storyarn/pkg/mapping"
	"github.com/adnumaro/storyarn/pkg/screenplay"
)

// Loader supplies pages and their ordered element lists. It is the only
// read contract the builder needs from the storage collaborator.
type Loader interface {
	Page(ctx context.Context, id string) (*screenplay.Page, error)
	Elements(ctx context.Context, pageID string) ([]*screenplay.Element, error)
}

// Tree is a page converted to node specs plus the branch edges into its
// child page trees.
type Tree struct {
	// ScreenplayID is the id of the page this tree was built from.
	ScreenplayID string

	// Specs are the page's own node specifications in document order.
	Specs []*mapping.NodeSpec

	// Branches attach child trees to the specs that fan out through
	// response choices.
	Branches []Branch
}

// Branch records that choice ChoiceID of the dialogue node at
// Specs[SourceIndex] leads into Child.
type Branch struct {
	SourceIndex int
	ChoiceID    string
	Child       *Tree
}

// Build converts the page and, recursively, every linked child page into a
// tree of node specs and branch edges.
//
// The first scene heading group of the root page maps to an entry node;
// every other scene heading (including the first one of any child page)
// maps to a scene node. A child page whose grouping yields nothing
// produces no branch, and a page reached twice (shared or cyclic links)
// is built only once.
func Build(ctx context.Context, l Loader, pageID string) (*Tree, error) {
	return build(ctx, l, pageID, false, map[string]bool{})
}

func build(ctx context.Context, l Loader, pageID string, isChild bool, visited map[string]bool) (*Tree, error) {
	visited[pageID] = true

	elements, err := l.Elements(ctx, pageID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load elements for page %s", pageID)
	}
	groups, err := screenplay.GroupElements(elements)
	if err != nil {
		return nil, err
	}

	t := &Tree{ScreenplayID: pageID}
	sawSceneHeading := false

	for _, g := range groups {
		entry := false
		if g.Kind == screenplay.GroupSceneHeading && !sawSceneHeading {
			sawSceneHeading = true
			entry = !isChild
		}

		spec, err := mapping.MapGroup(g, entry)
		if err != nil {
			return nil, err
		}
		if spec == nil {
			continue
		}
		t.Specs = append(t.Specs, spec)
		srcIndex := len(t.Specs) - 1

		if g.Kind != screenplay.GroupDialogue {
			continue
		}
		r := g.Response()
		if r == nil || r.Data.Response == nil {
			continue
		}
		for _, choice := range r.Data.Response.Choices {
			if choice.LinkedScreenplayID == "" || visited[choice.LinkedScreenplayID] {
				continue
			}
			child, err := build(ctx, l, choice.LinkedScreenplayID, true, visited)
			if err != nil {
				return nil, err
			}
			if len(child.Specs) == 0 {
				continue
			}
			t.Branches = append(t.Branches, Branch{
				SourceIndex: srcIndex,
				ChoiceID:    choice.ID,
				Child:       child,
			})
		}
	}

	return t, nil
}

// branchesOf groups the tree's branches by source spec index.
func (t *Tree) branchesOf(index int) []Branch {
	var out []Branch
	for _, b := range t.Branches {
		if b.SourceIndex == index {
			out = append(out, b)
		}
	}
	return out
}

// walk visits every tree of the page tree in depth-first pre-order:
// the tree itself first, then each branch child in declaration order.
func (t *Tree) walk(fn func(*Tree)) {
	fn(t)
	for _, b := range t.Branches {
		b.Child.walk(fn)
	}
}

// indexBases assigns each tree its base offset into the global pre-order
// spec list shared by Flatten and ComputePositions.
func (t *Tree) indexBases() (map[*Tree]int, int) {
	bases := make(map[*Tree]int)
	total := 0
	t.walk(func(sub *Tree) {
		bases[sub] = total
		total += len(sub.Specs)
	})
	return bases, total
}
