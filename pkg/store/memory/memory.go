// Package memory provides an in-process arena implementation of the
// storage contract: flat id→record maps with uuid-assigned ids.
//
// It backs the CLI (through JSON project snapshots, see [Store.Load] and
// [Store.Save]) and the engine's tests. Reads return deep copies, so
// records must be written back through the update calls to take effect,
// matching the behavior of the database-backed stores.
package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/adnumaro/storyarn/pkg/errors"
	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/screenplay"
)

// Store is an in-memory arena store. The zero value is not usable - use
// New. Store is not safe for concurrent use without external
// synchronization, mirroring the engine's single-writer model.
type Store struct {
	pages    map[string]*screenplay.Page
	elements map[string]*screenplay.Element
	flows    map[string]*flow.Flow
	nodes    map[string]*flow.Node
	conns    map[string]*flow.Connection
}

// New creates an empty store.
func New() *Store {
	return &Store{
		pages:    make(map[string]*screenplay.Page),
		elements: make(map[string]*screenplay.Element),
		flows:    make(map[string]*flow.Flow),
		nodes:    make(map[string]*flow.Node),
		conns:    make(map[string]*flow.Connection),
	}
}

func newID() string { return uuid.NewString() }

// =============================================================================
// Pages
// =============================================================================

// Page returns the page with the given id.
func (s *Store) Page(_ context.Context, id string) (*screenplay.Page, error) {
	p, ok := s.pages[id]
	if !ok {
		return nil, errors.New(errors.ErrCodePageNotFound, "page %s not found", id)
	}
	cp := *p
	return &cp, nil
}

// ChildPages returns the pages whose parent is parentID, sorted by id for
// deterministic iteration.
func (s *Store) ChildPages(_ context.Context, parentID string) ([]*screenplay.Page, error) {
	var out []*screenplay.Page
	for _, p := range s.pages {
		if p.ParentID == parentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *screenplay.Page) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// CreatePage stores a page, assigning an id when empty.
func (s *Store) CreatePage(_ context.Context, p *screenplay.Page) (*screenplay.Page, error) {
	cp := *p
	if cp.ID == "" {
		cp.ID = newID()
	}
	s.pages[cp.ID] = &cp
	out := cp
	return &out, nil
}

// UpdatePage replaces a stored page.
func (s *Store) UpdatePage(_ context.Context, p *screenplay.Page) error {
	if _, ok := s.pages[p.ID]; !ok {
		return errors.New(errors.ErrCodePageNotFound, "page %s not found", p.ID)
	}
	cp := *p
	s.pages[cp.ID] = &cp
	return nil
}

// =============================================================================
// Elements
// =============================================================================

// Elements returns the page's elements ordered by position.
func (s *Store) Elements(_ context.Context, pageID string) ([]*screenplay.Element, error) {
	var out []*screenplay.Element
	for _, e := range s.elements {
		if e.PageID == pageID {
			out = append(out, e.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *screenplay.Element) int { return a.Position - b.Position })
	return out, nil
}

// CreateElement stores an element, assigning an id when empty.
func (s *Store) CreateElement(_ context.Context, e *screenplay.Element) (*screenplay.Element, error) {
	cp := e.Clone()
	if cp.ID == "" {
		cp.ID = newID()
	}
	s.elements[cp.ID] = cp
	return cp.Clone(), nil
}

// UpdateElement replaces a stored element.
func (s *Store) UpdateElement(_ context.Context, e *screenplay.Element) error {
	if _, ok := s.elements[e.ID]; !ok {
		return errors.New(errors.ErrCodeElementNotFound, "element %s not found", e.ID)
	}
	s.elements[e.ID] = e.Clone()
	return nil
}

// DeleteElement removes an element. Deleting a missing element is a no-op.
func (s *Store) DeleteElement(_ context.Context, id string) error {
	delete(s.elements, id)
	return nil
}

// =============================================================================
// Flows
// =============================================================================

// Flow returns the flow with the given id.
func (s *Store) Flow(_ context.Context, id string) (*flow.Flow, error) {
	f, ok := s.flows[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeFlowNotFound, "flow %s not found", id)
	}
	cp := *f
	return &cp, nil
}

// CreateFlow stores a flow, assigning an id when empty.
func (s *Store) CreateFlow(_ context.Context, f *flow.Flow) (*flow.Flow, error) {
	cp := *f
	if cp.ID == "" {
		cp.ID = newID()
	}
	s.flows[cp.ID] = &cp
	out := cp
	return &out, nil
}

// =============================================================================
// Nodes
// =============================================================================

// Nodes returns the flow's nodes sorted by id.
func (s *Store) Nodes(_ context.Context, flowID string) ([]*flow.Node, error) {
	var out []*flow.Node
	for _, n := range s.nodes {
		if n.FlowID == flowID {
			out = append(out, n.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *flow.Node) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// CreateNode stores a node, assigning an id when empty.
func (s *Store) CreateNode(_ context.Context, n *flow.Node) (*flow.Node, error) {
	cp := n.Clone()
	if cp.ID == "" {
		cp.ID = newID()
	}
	s.nodes[cp.ID] = cp
	return cp.Clone(), nil
}

// UpdateNode replaces a stored node.
func (s *Store) UpdateNode(_ context.Context, n *flow.Node) error {
	if _, ok := s.nodes[n.ID]; !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s not found", n.ID)
	}
	s.nodes[n.ID] = n.Clone()
	return nil
}

// DeleteNode removes a node. Deleting a missing node is a no-op.
func (s *Store) DeleteNode(_ context.Context, id string) error {
	delete(s.nodes, id)
	return nil
}

// =============================================================================
// Connections
// =============================================================================

// Connections returns the flow's connections sorted by id.
func (s *Store) Connections(_ context.Context, flowID string) ([]*flow.Connection, error) {
	var out []*flow.Connection
	for _, c := range s.conns {
		if c.FlowID == flowID {
			cp := *c
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *flow.Connection) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// CreateConnection stores a connection, assigning an id when empty.
func (s *Store) CreateConnection(_ context.Context, c *flow.Connection) (*flow.Connection, error) {
	cp := *c
	if cp.ID == "" {
		cp.ID = newID()
	}
	s.conns[cp.ID] = &cp
	out := cp
	return &out, nil
}

// DeleteConnection removes a connection. Deleting a missing connection is
// a no-op.
func (s *Store) DeleteConnection(_ context.Context, id string) error {
	delete(s.conns, id)
	return nil
}
