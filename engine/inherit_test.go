package engine_test

import (
	"testing"

	"github.com/warp/capital-engine/engine"
)

func inherit(t *testing.T, nodes []engine.Node) engine.InheritanceResult {
	t.Helper()
	resolver := &engine.AncestorResolver{Config: testConfig()}
	records, _ := resolver.Resolve(engine.ExtractEdges(nodes, nil))
	inheritor := &engine.Inheritor{Config: testConfig()}
	return inheritor.Inherit(nodes, records)
}

func ratedCounterparty(id, parent, rating string) engine.Node {
	n := counterparty(id, parent)
	n.Rating = rating
	return n
}

// =============================================================================
// RATING INHERITANCE
// =============================================================================

func TestInherit_UnratedChain_TakesNearestRatedAncestor(t *testing.T) {
	// GIVEN: c2 -> c1 -> c0 where only c0 carries a rating
	// WHEN: Inheriting
	// THEN: c1 and c2 both carry c0's rating

	nodes := []engine.Node{
		ratedCounterparty("c0", "", "AA"),
		ratedCounterparty("c1", "c0", ""),
		ratedCounterparty("c2", "c1", ""),
	}
	result := inherit(t, nodes)

	if got := result.EffectiveRating["c1"]; got != "AA" {
		t.Errorf("c1: expected AA, got %q", got)
	}
	if got := result.EffectiveRating["c2"]; got != "AA" {
		t.Errorf("c2: expected AA, got %q", got)
	}
}

func TestInherit_NearestRatedWins_NotTheRoot(t *testing.T) {
	// GIVEN: c2 -> c1 -> c0, where c0 is rated AA and c1 is rated BB
	// WHEN: Inheriting
	// THEN: c2 takes BB from its immediate parent, not AA from the root

	nodes := []engine.Node{
		ratedCounterparty("c0", "", "AA"),
		ratedCounterparty("c1", "c0", "BB"),
		ratedCounterparty("c2", "c1", ""),
	}
	result := inherit(t, nodes)

	if got := result.EffectiveRating["c2"]; got != "BB" {
		t.Errorf("c2: expected nearest rated ancestor BB, got %q", got)
	}
	if got := result.EffectiveRating["c1"]; got != "BB" {
		t.Errorf("c1: own rating must never be overwritten, got %q", got)
	}
}

func TestInherit_UnratedEndToEnd_StaysUnrated(t *testing.T) {
	// GIVEN: A chain with no rating anywhere
	// WHEN: Inheriting
	// THEN: No effective rating is invented

	nodes := []engine.Node{
		counterparty("c0", ""),
		counterparty("c1", "c0"),
	}
	result := inherit(t, nodes)

	if _, has := result.EffectiveRating["c1"]; has {
		t.Error("c1: expected no effective rating")
	}
}

func TestInherit_CycleNodes_Excluded(t *testing.T) {
	// GIVEN: a <-> b where a is rated
	// WHEN: Inheriting
	// THEN: b does not inherit through the cycle

	nodes := []engine.Node{
		ratedCounterparty("a", "b", "AA"),
		ratedCounterparty("b", "a", ""),
	}
	result := inherit(t, nodes)

	if _, has := result.EffectiveRating["b"]; has {
		t.Error("b: cycle members must be excluded from inheritance")
	}
}

// =============================================================================
// LENDING GROUP INHERITANCE
// =============================================================================

func TestInherit_LendingGroup_ComesFromResolvedRoot(t *testing.T) {
	// GIVEN: c2 -> c1 -> c0 where only the root belongs to lending group G1
	// WHEN: Inheriting
	// THEN: Every descendant is assigned G1; a node with its own group
	//       keeps it.

	root := counterparty("c0", "")
	root.LendingGroupID = "G1"
	own := counterparty("c2", "c1")
	own.LendingGroupID = "G9"

	nodes := []engine.Node{root, counterparty("c1", "c0"), own}
	result := inherit(t, nodes)

	if got := result.EffectiveLendingGroup["c1"]; got != "G1" {
		t.Errorf("c1: expected lending group G1 from root, got %q", got)
	}
	if got := result.EffectiveLendingGroup["c2"]; got != "G9" {
		t.Errorf("c2: own lending group must win, got %q", got)
	}
}
