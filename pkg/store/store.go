// Package store defines the storage collaborator contract of the sync
// engine.
//
// The engine consumes and produces plain data records addressed by opaque
// ids the storage layer assigns; it never performs I/O of its own. Every
// write is expressed as a create/update/delete of one record, so a backing
// implementation can wrap a whole push or pull in its own transaction and
// roll partial writes back on failure.
//
// Two implementations ship with the module: an in-process arena store
// (memory) used by the CLI and tests, and a MongoDB-backed store (mongo).
package store

import (
	"context"

	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/screenplay"
)

// Store is the full read/write contract the synchronizer requires.
//
// Reads return copies: mutating a returned record has no effect until it
// is written back through the corresponding update call. Create calls
// assign the record's id when it is empty and return the stored record.
type Store interface {
	// Pages
	Page(ctx context.Context, id string) (*screenplay.Page, error)
	ChildPages(ctx context.Context, parentID string) ([]*screenplay.Page, error)
	CreatePage(ctx context.Context, p *screenplay.Page) (*screenplay.Page, error)
	UpdatePage(ctx context.Context, p *screenplay.Page) error

	// Elements, ordered by position within their page.
	Elements(ctx context.Context, pageID string) ([]*screenplay.Element, error)
	CreateElement(ctx context.Context, e *screenplay.Element) (*screenplay.Element, error)
	UpdateElement(ctx context.Context, e *screenplay.Element) error
	DeleteElement(ctx context.Context, id string) error

	// Flows
	Flow(ctx context.Context, id string) (*flow.Flow, error)
	CreateFlow(ctx context.Context, f *flow.Flow) (*flow.Flow, error)

	// Nodes
	Nodes(ctx context.Context, flowID string) ([]*flow.Node, error)
	CreateNode(ctx context.Context, n *flow.Node) (*flow.Node, error)
	UpdateNode(ctx context.Context, n *flow.Node) error
	DeleteNode(ctx context.Context, id string) error

	// Connections
	Connections(ctx context.Context, flowID string) ([]*flow.Connection, error)
	CreateConnection(ctx context.Context, c *flow.Connection) (*flow.Connection, error)
	DeleteConnection(ctx context.Context, id string) error
}
