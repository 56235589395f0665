// Package syncer drives the bidirectional synchronization between a page
// tree of screenplay elements and a flow graph.
//
// # Directions
//
// Push ([Syncer.Push]) moves page-tree state into the graph; pull
// ([Syncer.Pull]) moves graph state back into the page tree. Both
// directions are identity-preserving and idempotent: re-running either
// with no intervening edits performs no writes beyond identity
// bookkeeping. Nodes tagged manual, and connections touching them, are
// never created, updated or deleted by either direction.
//
// # Concurrency
//
// Every operation is a synchronous computation over one consistent
// snapshot of the store. The engine has no internal locking: callers must
// serialize push/pull per flow (see pkg/flowlock) and are expected to wrap
// each operation in a storage transaction so a mid-write failure rolls the
// whole sync back.
package syncer

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/adnumaro/storyarn/pkg/errors"
	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/store"
)

// Syncer orchestrates push and pull reconciliation against a storage
// collaborator.
type Syncer struct {
	store store.Store
	log   *log.Logger
}

// Option customizes a Syncer.
type Option func(*Syncer)

// WithLogger attaches a logger. Without it the syncer is silent.
func WithLogger(l *log.Logger) Option {
	return func(s *Syncer) { s.log = l }
}

// New creates a Syncer over the given store.
func New(st store.Store, opts ...Option) *Syncer {
	s := &Syncer{
		store: st,
		log:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureFlow returns the flow linked to the page, creating and linking a
// fresh one when the page has none.
func (s *Syncer) EnsureFlow(ctx context.Context, pageID string) (*flow.Flow, error) {
	page, err := s.store.Page(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page.LinkedFlowID != "" {
		return s.store.Flow(ctx, page.LinkedFlowID)
	}

	f, err := s.store.CreateFlow(ctx, &flow.Flow{Name: page.Title})
	if err != nil {
		return nil, err
	}
	page.LinkedFlowID = f.ID
	if err := s.store.UpdatePage(ctx, page); err != nil {
		return nil, err
	}
	s.log.Debug("created flow for page", "page", pageID, "flow", f.ID)
	return f, nil
}

// LinkToFlow rebinds the page to an existing flow.
func (s *Syncer) LinkToFlow(ctx context.Context, pageID, flowID string) error {
	page, err := s.store.Page(ctx, pageID)
	if err != nil {
		return err
	}
	if _, err := s.store.Flow(ctx, flowID); err != nil {
		return err
	}
	page.LinkedFlowID = flowID
	return s.store.UpdatePage(ctx, page)
}

// UnlinkFlow clears the page⇄flow association and the node back-reference
// of every element across the whole page tree. Unlinking an already
// unlinked page is a no-op.
func (s *Syncer) UnlinkFlow(ctx context.Context, pageID string) error {
	page, err := s.store.Page(ctx, pageID)
	if err != nil {
		return err
	}
	if page.LinkedFlowID == "" {
		return nil
	}
	page.LinkedFlowID = ""
	if err := s.store.UpdatePage(ctx, page); err != nil {
		return err
	}
	return s.clearElementLinks(ctx, pageID, map[string]bool{})
}

func (s *Syncer) clearElementLinks(ctx context.Context, pageID string, visited map[string]bool) error {
	if visited[pageID] {
		return nil
	}
	visited[pageID] = true

	elements, err := s.store.Elements(ctx, pageID)
	if err != nil {
		return err
	}
	for _, e := range elements {
		if e.LinkedNodeID == "" {
			continue
		}
		e.LinkedNodeID = ""
		if err := s.store.UpdateElement(ctx, e); err != nil {
			return err
		}
	}

	children, err := s.store.ChildPages(ctx, pageID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.clearElementLinks(ctx, child.ID, visited); err != nil {
			return err
		}
	}
	return nil
}

// notLinked builds the error returned when pull is requested on an
// unsynced page.
func notLinked(pageID string) error {
	return errors.New(errors.ErrCodeNotLinked, "page %s has no linked flow", pageID)
}
