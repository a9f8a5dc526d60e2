/*
hierarchy.go - Graph edge extraction and the iterative ancestor resolver

PURPOSE:
  Resolves multi-level ownership and facility hierarchies over large
  counterparty/facility graphs WITHOUT recursive traversal. This is the
  single most important re-architecture decision in the engine: the natural
  recursive definition ("ancestor of ancestor...") is reimplemented as
  bounded-iteration batch joins so the work is O(D x N) set-at-a-time
  operations regardless of graph size, never O(N) stack frames.

ALGORITHM:
  Maintain a working table of (node, current_ancestor, depth). Initialize
  current_ancestor = parent, depth = 1 (or the node itself at depth 0 for
  roots). Each round joins the working table against the parent map: every
  row whose current ancestor still has a parent advances one hop and
  increments depth. Stop early when a round changes nothing, or after
  MaxDepth-1 rounds.

EDGE CASES:
  - A node with no parent resolves to itself at depth 0.
  - A self-referencing parent (id == parent_id) is treated as a root.
  - A node not resolved within MaxDepth is flagged Unresolved with its
    best-effort partial ancestor. Hierarchies are regulatory data; the run
    must never abort on them.
  - A node reachable as its own ancestor is flagged Cycle and excluded from
    inheritance, never forced to an arbitrary root.

SEE ALSO:
  - inherit.go: Consumes ancestor records for rating inheritance
  - aggregate.go: Consumes ancestor records for facility aggregation
*/
package engine

// =============================================================================
// EDGE EXTRACTION
// =============================================================================

// Edge is one directed child -> parent relationship.
type Edge struct {
	Child  NodeID
	Parent NodeID
}

// ExtractEdges derives the directed edge set from counterparty/facility
// parent references and facility-linkage records. Self edges are dropped
// (self-referencing roots carry no traversal information) and duplicates
// collapse to one edge.
func ExtractEdges(nodes []Node, links []FacilityLink) []Edge {
	seen := make(map[Edge]struct{})
	var edges []Edge

	add := func(child, parent NodeID) {
		if child == "" || parent == "" || child == parent {
			return
		}
		e := Edge{Child: child, Parent: parent}
		if _, dup := seen[e]; dup {
			return
		}
		seen[e] = struct{}{}
		edges = append(edges, e)
	}

	for _, n := range nodes {
		add(n.ID, n.ParentID)
	}
	for _, l := range links {
		// Loan links attach exposures, not hierarchy nodes; only
		// facility-to-facility links extend the graph.
		if l.ChildType == ChildFacility {
			add(l.ChildReference, l.FacilityID)
		}
	}
	return edges
}

// =============================================================================
// ANCESTOR RECORD - Per-node resolution result
// =============================================================================

// AncestorRecord is the resolution result for one node.
type AncestorRecord struct {
	Node  NodeID
	Root  NodeID // ultimate ancestor; best-effort partial ancestor if Unresolved
	Depth int    // edges between node and Root; never exceeds Config.MaxDepth

	// Unresolved marks nodes whose chain did not reach a root within
	// MaxDepth hops.
	Unresolved bool

	// Cycle marks nodes reachable as their own ancestor. Cycle nodes are
	// excluded from inheritance.
	Cycle bool
}

// =============================================================================
// ITERATIVE ANCESTOR RESOLVER
// =============================================================================

type AncestorResolver struct {
	Config Config
}

// Resolve computes an AncestorRecord for every node appearing in the edge
// set (as child or parent). Structural defects are accumulated on the
// returned ErrorList; Resolve itself never fails.
func (r *AncestorResolver) Resolve(edges []Edge) (map[NodeID]AncestorRecord, *ErrorList) {
	errs := &ErrorList{}
	parent := make(map[NodeID]NodeID, len(edges))
	for _, e := range edges {
		parent[e.Child] = e.Parent
	}

	// Working table: one row per node. Roots (no parent entry) resolve
	// immediately to themselves at depth 0.
	records := make(map[NodeID]AncestorRecord, len(edges)*2)
	active := make(map[NodeID]*AncestorRecord)

	for _, e := range edges {
		for _, id := range []NodeID{e.Child, e.Parent} {
			if _, ok := records[id]; ok {
				continue
			}
			if _, ok := active[id]; ok {
				continue
			}
			p, hasParent := parent[id]
			if !hasParent {
				records[id] = AncestorRecord{Node: id, Root: id, Depth: 0}
				continue
			}
			active[id] = &AncestorRecord{Node: id, Root: p, Depth: 1}
		}
	}

	// Settle retires rows whose current ancestor is a root.
	settle := func() {
		for id, rec := range active {
			if _, hasParent := parent[rec.Root]; !hasParent {
				records[id] = *rec
				delete(active, id)
			}
		}
	}
	settle()

	// Batch rounds: every remaining row advances one hop per round. Depth
	// is capped at MaxDepth, so at most MaxDepth-1 rounds after the depth-1
	// initialization.
	for round := 1; round < r.Config.MaxDepth && len(active) > 0; round++ {
		for id, rec := range active {
			rec.Root = parent[rec.Root]
			rec.Depth++
			if rec.Root == id {
				// The node is its own ancestor: a cycle. Flag and retire
				// the row so it cannot spin for the remaining rounds.
				rec.Cycle = true
				records[id] = *rec
				delete(active, id)
				errs.AddStructural(id, ErrCycleDetected.Error())
			}
		}
		settle()
	}

	// Anything still active is beyond the depth bound: keep the best-effort
	// partial ancestor and flag it.
	for id, rec := range active {
		rec.Unresolved = true
		records[id] = *rec
		errs.AddStructural(id, ErrDepthExceeded.Error())
	}

	return records, errs
}
