// Package mongo provides a MongoDB-backed implementation of the storage
// contract.
//
// Records are stored one collection per kind (pages, elements, flows,
// nodes, connections) with the record id as the document _id. Ids are
// uuid strings assigned on create, so documents remain addressable by the
// same opaque ids the engine exchanges with every other store.
package mongo

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adnumaro/storyarn/pkg/errors"
	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/screenplay"
)

// Collection names.
const (
	colPages       = "pages"
	colElements    = "elements"
	colFlows       = "flows"
	colNodes       = "nodes"
	colConnections = "connections"
)

// Store implements the storage contract on a MongoDB database.
type Store struct {
	db *mongo.Database
}

// New wraps an existing database handle.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Connect dials a MongoDB deployment and returns a Store plus a disconnect
// function the caller must invoke on shutdown.
func Connect(ctx context.Context, uri, database string) (*Store, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to %s", uri)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "ping %s", uri)
	}
	return New(client.Database(database)), client.Disconnect, nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, id string, code errors.Code) (*T, error) {
	var out T
	err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(code, "%s %s not found", col.Name(), id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "find %s %s", col.Name(), id)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M, sort bson.D) ([]*T, error) {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "find in %s", col.Name())
	}
	var out []*T
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode %s cursor", col.Name())
	}
	return out, nil
}

func replace(ctx context.Context, col *mongo.Collection, id string, doc any, code errors.Code) error {
	res, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "update %s %s", col.Name(), id)
	}
	if res.MatchedCount == 0 {
		return errors.New(code, "%s %s not found", col.Name(), id)
	}
	return nil
}

func remove(ctx context.Context, col *mongo.Collection, id string) error {
	if _, err := col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete %s %s", col.Name(), id)
	}
	return nil
}

// =============================================================================
// Pages
// =============================================================================

// Page returns the page with the given id.
func (s *Store) Page(ctx context.Context, id string) (*screenplay.Page, error) {
	return findOne[screenplay.Page](ctx, s.db.Collection(colPages), id, errors.ErrCodePageNotFound)
}

// ChildPages returns the pages whose parent is parentID, sorted by id.
func (s *Store) ChildPages(ctx context.Context, parentID string) ([]*screenplay.Page, error) {
	return findAll[screenplay.Page](ctx, s.db.Collection(colPages),
		bson.M{"parent_id": parentID}, bson.D{{Key: "_id", Value: 1}})
}

// CreatePage stores a page, assigning an id when empty.
func (s *Store) CreatePage(ctx context.Context, p *screenplay.Page) (*screenplay.Page, error) {
	cp := *p
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(colPages).InsertOne(ctx, cp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "insert page")
	}
	return &cp, nil
}

// UpdatePage replaces a stored page.
func (s *Store) UpdatePage(ctx context.Context, p *screenplay.Page) error {
	return replace(ctx, s.db.Collection(colPages), p.ID, p, errors.ErrCodePageNotFound)
}

// =============================================================================
// Elements
// =============================================================================

// Elements returns the page's elements ordered by position.
func (s *Store) Elements(ctx context.Context, pageID string) ([]*screenplay.Element, error) {
	return findAll[screenplay.Element](ctx, s.db.Collection(colElements),
		bson.M{"page_id": pageID}, bson.D{{Key: "position", Value: 1}})
}

// CreateElement stores an element, assigning an id when empty.
func (s *Store) CreateElement(ctx context.Context, e *screenplay.Element) (*screenplay.Element, error) {
	cp := *e
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(colElements).InsertOne(ctx, cp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "insert element")
	}
	return &cp, nil
}

// UpdateElement replaces a stored element.
func (s *Store) UpdateElement(ctx context.Context, e *screenplay.Element) error {
	return replace(ctx, s.db.Collection(colElements), e.ID, e, errors.ErrCodeElementNotFound)
}

// DeleteElement removes an element.
func (s *Store) DeleteElement(ctx context.Context, id string) error {
	return remove(ctx, s.db.Collection(colElements), id)
}

// =============================================================================
// Flows
// =============================================================================

// Flow returns the flow with the given id.
func (s *Store) Flow(ctx context.Context, id string) (*flow.Flow, error) {
	return findOne[flow.Flow](ctx, s.db.Collection(colFlows), id, errors.ErrCodeFlowNotFound)
}

// CreateFlow stores a flow, assigning an id when empty.
func (s *Store) CreateFlow(ctx context.Context, f *flow.Flow) (*flow.Flow, error) {
	cp := *f
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(colFlows).InsertOne(ctx, cp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "insert flow")
	}
	return &cp, nil
}

// =============================================================================
// Nodes
// =============================================================================

// Nodes returns the flow's nodes sorted by id.
func (s *Store) Nodes(ctx context.Context, flowID string) ([]*flow.Node, error) {
	return findAll[flow.Node](ctx, s.db.Collection(colNodes),
		bson.M{"flow_id": flowID}, bson.D{{Key: "_id", Value: 1}})
}

// CreateNode stores a node, assigning an id when empty.
func (s *Store) CreateNode(ctx context.Context, n *flow.Node) (*flow.Node, error) {
	cp := *n
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(colNodes).InsertOne(ctx, cp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "insert node")
	}
	return &cp, nil
}

// UpdateNode replaces a stored node.
func (s *Store) UpdateNode(ctx context.Context, n *flow.Node) error {
	return replace(ctx, s.db.Collection(colNodes), n.ID, n, errors.ErrCodeNodeNotFound)
}

// DeleteNode removes a node.
func (s *Store) DeleteNode(ctx context.Context, id string) error {
	return remove(ctx, s.db.Collection(colNodes), id)
}

// =============================================================================
// Connections
// =============================================================================

// Connections returns the flow's connections sorted by id.
func (s *Store) Connections(ctx context.Context, flowID string) ([]*flow.Connection, error) {
	return findAll[flow.Connection](ctx, s.db.Collection(colConnections),
		bson.M{"flow_id": flowID}, bson.D{{Key: "_id", Value: 1}})
}

// CreateConnection stores a connection, assigning an id when empty.
func (s *Store) CreateConnection(ctx context.Context, c *flow.Connection) (*flow.Connection, error) {
	cp := *c
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if _, err := s.db.Collection(colConnections).InsertOne(ctx, cp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "insert connection")
	}
	return &cp, nil
}

// DeleteConnection removes a connection.
func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	return remove(ctx, s.db.Collection(colConnections), id)
}
