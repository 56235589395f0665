package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/adnumaro/storyarn/pkg/flow"
	"github.com/adnumaro/storyarn/pkg/screenplay"
)

// Project is the JSON snapshot format of a whole store: every page,
// element, flow, node and connection of one authoring project. Records
// are sorted by id (elements by page then position) for deterministic
// output and reviewable diffs.
type Project struct {
	Pages       []*screenplay.Page    `json:"pages"`
	Elements    []*screenplay.Element `json:"elements"`
	Flows       []*flow.Flow          `json:"flows,omitempty"`
	Nodes       []*flow.Node          `json:"nodes,omitempty"`
	Connections []*flow.Connection    `json:"connections,omitempty"`
}

// Snapshot exports the store's current contents.
func (s *Store) Snapshot() Project {
	var p Project
	for _, v := range s.pages {
		cp := *v
		p.Pages = append(p.Pages, &cp)
	}
	for _, v := range s.elements {
		cp := *v
		p.Elements = append(p.Elements, &cp)
	}
	for _, v := range s.flows {
		cp := *v
		p.Flows = append(p.Flows, &cp)
	}
	for _, v := range s.nodes {
		cp := *v
		p.Nodes = append(p.Nodes, &cp)
	}
	for _, v := range s.conns {
		cp := *v
		p.Connections = append(p.Connections, &cp)
	}

	slices.SortFunc(p.Pages, func(a, b *screenplay.Page) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(p.Elements, func(a, b *screenplay.Element) int {
		if c := strings.Compare(a.PageID, b.PageID); c != 0 {
			return c
		}
		return a.Position - b.Position
	})
	slices.SortFunc(p.Flows, func(a, b *flow.Flow) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(p.Nodes, func(a, b *flow.Node) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(p.Connections, func(a, b *flow.Connection) int { return strings.Compare(a.ID, b.ID) })
	return p
}

// Restore replaces the store's contents with the snapshot.
func (s *Store) Restore(p Project) {
	s.pages = make(map[string]*screenplay.Page, len(p.Pages))
	s.elements = make(map[string]*screenplay.Element, len(p.Elements))
	s.flows = make(map[string]*flow.Flow, len(p.Flows))
	s.nodes = make(map[string]*flow.Node, len(p.Nodes))
	s.conns = make(map[string]*flow.Connection, len(p.Connections))

	for _, v := range p.Pages {
		cp := *v
		s.pages[cp.ID] = &cp
	}
	for _, v := range p.Elements {
		cp := *v
		s.elements[cp.ID] = &cp
	}
	for _, v := range p.Flows {
		cp := *v
		s.flows[cp.ID] = &cp
	}
	for _, v := range p.Nodes {
		cp := *v
		s.nodes[cp.ID] = &cp
	}
	for _, v := range p.Connections {
		cp := *v
		s.conns[cp.ID] = &cp
	}
}

// Load reads a project snapshot file into a fresh store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	s := New()
	s.Restore(p)
	return s, nil
}

// Save writes the store's snapshot to a JSON file with 0644 permissions.
func (s *Store) Save(path string) error {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
