/*
inherit.go - Rating and lending-group inheritance

PURPOSE:
  Propagates a parent's attributes down to children lacking their own value.
  A subsidiary without its own external rating inherits from the nearest
  RATED ancestor (not just the immediate parent - see DESIGN.md for the
  policy decision), walking the chain the same batch way the resolver does.
  Lending-group membership inherits from the resolved root.

EXCLUSIONS:
  Nodes flagged Cycle by the resolver are excluded from inheritance
  entirely. Unresolved nodes inherit along their best-effort partial chain.
*/
package engine

// InheritanceResult carries the effective attributes per node after
// inheritance.
type InheritanceResult struct {
	// EffectiveRating maps node -> its own rating, or the nearest rated
	// ancestor's. Nodes absent from the map are unrated end to end.
	EffectiveRating map[NodeID]string

	// EffectiveLendingGroup maps node -> its own lending group, or the
	// resolved root's.
	EffectiveLendingGroup map[NodeID]string
}

// Inheritor propagates ratings and lending-group membership.
type Inheritor struct {
	Config Config
}

// Inherit computes effective attributes for every node. It walks rating
// chains with the same bounded batch rounds as the resolver: each round,
// every still-unrated node adopts its parent's current effective rating.
func (in *Inheritor) Inherit(nodes []Node, records map[NodeID]AncestorRecord) InheritanceResult {
	byID := make(map[NodeID]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	excluded := func(id NodeID) bool {
		rec, ok := records[id]
		return ok && rec.Cycle
	}

	// Seed with directly-held values.
	rating := make(map[NodeID]string)
	group := make(map[NodeID]string)
	for _, n := range nodes {
		if n.Rating != "" {
			rating[n.ID] = n.Rating
		}
		if n.LendingGroupID != "" {
			group[n.ID] = n.LendingGroupID
		}
	}

	// Rating: nearest rated ancestor, bounded batch rounds. Each round a
	// node one level further up can supply the value, so MaxDepth rounds
	// cover every resolvable chain.
	for round := 0; round < in.Config.MaxDepth; round++ {
		changed := false
		for _, n := range nodes {
			if _, has := rating[n.ID]; has || n.IsRoot() || excluded(n.ID) {
				continue
			}
			if parentRating, ok := rating[n.ParentID]; ok && !excluded(n.ParentID) {
				rating[n.ID] = parentRating
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	// Lending group: inherit from the resolved root directly.
	for _, n := range nodes {
		if _, has := group[n.ID]; has || excluded(n.ID) {
			continue
		}
		rec, ok := records[n.ID]
		if !ok || rec.Cycle {
			continue
		}
		if rootGroup, has := group[rec.Root]; has {
			group[n.ID] = rootGroup
		}
	}

	return InheritanceResult{
		EffectiveRating:       rating,
		EffectiveLendingGroup: group,
	}
}
