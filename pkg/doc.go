// Package pkg provides the core libraries for Storyarn screenplay/flow
// synchronization.
//
// # Overview
//
// Storyarn keeps two representations of a branching story in lockstep: a
// screenplay (pages of ordered elements, the writer's view) and a flow
// graph (nodes wired by pinned connections, the designer's view). Either
// side can be edited and synchronized into the other without losing
// identity or hand-made changes.
//
// # Architecture
//
// The data flow of a push (screenplay → graph):
//
//	screenplay page tree
//	         ↓
//	    [screenplay] (group elements into semantic units)
//	         ↓
//	    [pagetree] (build the cross-page tree, flatten to specs, lay out)
//	         ↓
//	    [mapping] (element groups → node specifications)
//	         ↓
//	    [syncer] (reconcile specs against the stored graph)
//
// and of a pull (graph → screenplay):
//
//	flow graph
//	         ↓
//	    [flow] (linearize into a path tree of main path + choice branches)
//	         ↓
//	    [mapping] (nodes → element specifications)
//	         ↓
//	    [syncer] (reconcile specs against the stored pages)
//
// # Main Packages
//
// [screenplay] - Page and element model plus the grouping pass that turns
// a flat element list into semantic groups (scene headings, dialogue runs,
// logic markers).
//
// [flow] - Node, connection and pin model plus graph traversal: Linearize
// for the single main path and LinearizeTree for the full branch tree.
//
// [mapping] - The bidirectional element-group ↔ node conversion rules.
// MapGroup and MapNode are exact inverses, which is what makes a
// push-then-pull (or pull-then-push) a no-op.
//
// [pagetree] - Cross-page assembly: Build walks parent pages and linked
// choice pages into one tree, Flatten produces node and connection specs
// in pre-order, and ComputePositions lays the tree out on the canvas.
//
// [syncer] - The reconciliation engine. Push and Pull diff desired state
// against stored state and apply minimal creates, updates and deletes,
// never touching manually authored nodes or elements.
//
// [store] - Persistence interface with an in-memory implementation (plus
// JSON snapshots) and a MongoDB implementation.
//
// [flowlock] - Per-flow exclusive locks serializing sync runs, in-process
// or Redis-backed.
//
// [export/dot] - Graphviz DOT and SVG rendering of flows for inspection.
//
// [errors] - Structured error codes shared across the module; HTTP and
// CLI surfaces branch on codes, not messages.
package pkg
