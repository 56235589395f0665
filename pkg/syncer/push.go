package syncer

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/pagetree"
)

// PushResult summarizes the writes one push performed. A second push with
// no intervening edits reports all zeros.
type PushResult struct {
	FlowID string

	NodesCreated int
	NodesUpdated int
	NodesDeleted int

	ConnectionsCreated int
	ConnectionsDeleted int

	ElementsLinked int
}

// specKey matches managed nodes to specs by their recorded element ids.
// The ids are order-sensitive: a group whose membership changed is a
// different node.
func specKey(elementIDs []string) string {
	return strings.Join(elementIDs, "\x1f")
}

// connKey identifies a connection by its endpoints and source pin.
func connKey(src, pin, tgt string) string {
	return fmt.Sprintf("%s\x1f%s\x1f%s", src, pin, tgt)
}

// Push synchronizes the page tree into its linked flow, creating and
// linking the flow first when the page has none.
//
// Managed (screenplay_sync) nodes are matched to the freshly built specs
// by recorded element ids: matched nodes get their kind and data
// overwritten but keep their stored position; unmatched specs become new
// nodes; managed nodes with no surviving match are deleted, connections
// first. Connections among managed nodes are replaced wholesale by the
// computed list, while manual nodes and every connection touching one are
// left untouched. Finally each source element is stamped with its node id.
func (s *Syncer) Push(ctx context.Context, pageID string) (*PushResult, error) {
	f, err := s.EnsureFlow(ctx, pageID)
	if err != nil {
		return nil, err
	}
	res := &PushResult{FlowID: f.ID}

	tree, err := pagetree.Build(ctx, s.store, pageID)
	if err != nil {
		return nil, err
	}
	flat := pagetree.Flatten(tree)

	nodes, err := s.store.Nodes(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	conns, err := s.store.Connections(ctx, f.ID)
	if err != nil {
		return nil, err
	}

	// Partition the graph into manual (untouched) and managed nodes.
	managed := make(map[string]*flow.Node) // node id -> node
	byKey := make(map[string]*flow.Node)   // element-id key -> node
	for _, n := range nodes {
		if n.Origin != flow.OriginSync {
			continue
		}
		managed[n.ID] = n
		byKey[specKey(n.ElementIDs)] = n
	}

	// A flow with no managed nodes yet gets the full tree layout; later
	// pushes slot new nodes below the default column, keyed only to their
	// ordinal among the newly created.
	fresh := len(managed) == 0
	var pts []pagetree.Point
	if fresh {
		pts = pagetree.ComputePositions(tree)
	}

	resolved := make([]string, len(flat.Specs))
	newOrdinal := 0
	for i, spec := range flat.Specs {
		if n, ok := byKey[specKey(spec.ElementIDs)]; ok {
			delete(byKey, specKey(spec.ElementIDs))
			if n.Kind != spec.Kind || !reflect.DeepEqual(n.Data, spec.Data) ||
				!slices.Equal(n.ElementIDs, spec.ElementIDs) {
				n.Kind = spec.Kind
				n.Data = spec.Data
				n.ElementIDs = spec.ElementIDs
				if err := s.store.UpdateNode(ctx, n); err != nil {
					return nil, err
				}
				res.NodesUpdated++
			}
			resolved[i] = n.ID
			continue
		}

		var x, y float64
		if fresh {
			x, y = pts[i].X, pts[i].Y
		} else {
			x = pagetree.LayoutCenterX
			y = pagetree.LayoutStartY + float64(newOrdinal)*pagetree.VSpacing
		}
		newOrdinal++

		created, err := s.store.CreateNode(ctx, &flow.Node{
			FlowID:     f.ID,
			Kind:       spec.Kind,
			Data:       spec.Data,
			X:          x,
			Y:          y,
			Origin:     flow.OriginSync,
			ElementIDs: spec.ElementIDs,
		})
		if err != nil {
			return nil, err
		}
		managed[created.ID] = created
		resolved[i] = created.ID
		res.NodesCreated++
	}

	// Managed nodes with no surviving spec are stale.
	stale := make(map[string]bool)
	for _, n := range byKey {
		stale[n.ID] = true
	}

	// Replace the managed connection set wholesale: a connection is
	// managed iff both endpoints are managed nodes. Everything touching a
	// manual node stays.
	desired := make(map[string]pagetree.ConnSpec, len(flat.Conns))
	for _, c := range flat.Conns {
		desired[connKey(resolved[c.SourceIndex], c.SourcePin, resolved[c.TargetIndex])] = c
	}

	for _, c := range conns {
		_, srcManaged := managed[c.SourceNodeID]
		_, tgtManaged := managed[c.TargetNodeID]
		if !srcManaged || !tgtManaged {
			continue
		}
		key := connKey(c.SourceNodeID, c.SourcePin, c.TargetNodeID)
		if _, want := desired[key]; want && !stale[c.SourceNodeID] && !stale[c.TargetNodeID] {
			delete(desired, key)
			continue
		}
		if err := s.store.DeleteConnection(ctx, c.ID); err != nil {
			return nil, err
		}
		res.ConnectionsDeleted++
	}

	for _, c := range desired {
		if _, err := s.store.CreateConnection(ctx, &flow.Connection{
			FlowID:       f.ID,
			SourceNodeID: resolved[c.SourceIndex],
			SourcePin:    c.SourcePin,
			TargetNodeID: resolved[c.TargetIndex],
			TargetPin:    flow.PinInput,
		}); err != nil {
			return nil, err
		}
		res.ConnectionsCreated++
	}

	// Connections are gone; now the stale nodes themselves.
	for id := range stale {
		if err := s.store.DeleteNode(ctx, id); err != nil {
			return nil, err
		}
		res.NodesDeleted++
	}

	if err := s.stampElements(ctx, flat, resolved, res); err != nil {
		return nil, err
	}

	s.log.Debug("push complete", "page", pageID, "flow", f.ID,
		"created", res.NodesCreated, "updated", res.NodesUpdated, "deleted", res.NodesDeleted)
	return res, nil
}

// stampElements records on every visited element the node id it resolved
// to, so the next push can match nodes and pull can match elements.
func (s *Syncer) stampElements(ctx context.Context, flat pagetree.Flat, resolved []string, res *PushResult) error {
	nodeByElement := make(map[string]string)
	for i, spec := range flat.Specs {
		for _, elemID := range spec.ElementIDs {
			nodeByElement[elemID] = resolved[i]
		}
	}

	for _, pid := range flat.PageIDs {
		elements, err := s.store.Elements(ctx, pid)
		if err != nil {
			return err
		}
		for _, e := range elements {
			nodeID, mapped := nodeByElement[e.ID]
			if !mapped || e.LinkedNodeID == nodeID {
				continue
			}
			e.LinkedNodeID = nodeID
			if err := s.store.UpdateElement(ctx, e); err != nil {
				return err
			}
			res.ElementsLinked++
		}
	}
	return nil
}
