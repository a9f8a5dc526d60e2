package engine_test

import (
	"testing"

	"github.com/warp/capital-engine/engine"
)

func facility(id, counterparty string, limit float64) engine.Node {
	return engine.Node{
		ID:             engine.NodeID(id),
		Kind:           engine.KindFacility,
		CounterpartyID: engine.NodeID(counterparty),
		Limit:          engine.NewMoney(limit),
	}
}

func aggregate(t *testing.T, facilities []engine.Node, links []engine.FacilityLink, exposures []engine.Exposure) []engine.FacilityAggregate {
	t.Helper()
	resolver := &engine.AncestorResolver{Config: testConfig()}
	records, _ := resolver.Resolve(engine.ExtractEdges(facilities, links))
	aggregator := &engine.FacilityAggregator{Config: testConfig()}
	return aggregator.Aggregate(facilities, exposures, records)
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestAggregate_SubFacilityDrawn_RollsUpToRoot(t *testing.T) {
	// GIVEN: Root facility F (limit 1000) with sub-facility S; loans drawn
	//        400 under F and 250 under S
	// WHEN: Aggregating
	// THEN: Only F is emitted, with total drawn 650 and headroom 350

	facilities := []engine.Node{facility("F", "cp1", 1000), facility("S", "cp1", 500)}
	links := []engine.FacilityLink{
		{FacilityID: "F", ChildReference: "S", ChildType: engine.ChildFacility},
	}
	exposures := []engine.Exposure{
		{ID: "e1", FacilityID: "F", Drawn: engine.NewMoney(400)},
		{ID: "e2", FacilityID: "S", Drawn: engine.NewMoney(250)},
	}

	aggs := aggregate(t, facilities, links, exposures)

	if len(aggs) != 1 {
		t.Fatalf("expected headroom for the root only, got %d aggregates", len(aggs))
	}
	a := aggs[0]
	if a.FacilityID != "F" {
		t.Fatalf("expected root facility F, got %s", a.FacilityID)
	}
	if !a.TotalDrawn.Equal(engine.NewMoney(650)) {
		t.Errorf("total drawn: expected 650, got %s", a.TotalDrawn)
	}
	if !a.Undrawn.Equal(engine.NewMoney(350)) {
		t.Errorf("undrawn: expected 350, got %s", a.Undrawn)
	}
}

func TestAggregate_NegativeDrawn_ClampedBeforeSumming(t *testing.T) {
	// GIVEN: A facility with one loan drawn 300 and one overpaid loan at -80
	// WHEN: Aggregating
	// THEN: The negative balance is clamped; headroom is computed off 300,
	//       never off 220

	facilities := []engine.Node{facility("F", "cp1", 500)}
	exposures := []engine.Exposure{
		{ID: "e1", FacilityID: "F", Drawn: engine.NewMoney(300)},
		{ID: "e2", FacilityID: "F", Drawn: engine.NewMoney(-80)},
	}

	aggs := aggregate(t, facilities, nil, exposures)

	if len(aggs) != 1 {
		t.Fatalf("expected 1 aggregate, got %d", len(aggs))
	}
	if !aggs[0].TotalDrawn.Equal(engine.NewMoney(300)) {
		t.Errorf("total drawn: expected 300, got %s", aggs[0].TotalDrawn)
	}
	if !aggs[0].Undrawn.Equal(engine.NewMoney(200)) {
		t.Errorf("undrawn: expected 200, got %s", aggs[0].Undrawn)
	}
}

func TestAggregate_Overdrawn_HeadroomFloorsAtZero(t *testing.T) {
	// GIVEN: Drawn exceeds the facility limit
	// WHEN: Aggregating
	// THEN: Undrawn headroom is zero, never negative

	facilities := []engine.Node{facility("F", "cp1", 100)}
	exposures := []engine.Exposure{
		{ID: "e1", FacilityID: "F", Drawn: engine.NewMoney(180)},
	}

	aggs := aggregate(t, facilities, nil, exposures)

	if !aggs[0].Undrawn.IsZero() {
		t.Errorf("undrawn: expected 0, got %s", aggs[0].Undrawn)
	}
}

func TestAggregate_StandaloneFacility_EmittedWithOwnDrawn(t *testing.T) {
	// GIVEN: A facility with no hierarchy links at all
	// WHEN: Aggregating
	// THEN: It is treated as its own root

	facilities := []engine.Node{facility("F", "cp1", 400)}
	exposures := []engine.Exposure{
		{ID: "e1", FacilityID: "F", Drawn: engine.NewMoney(150)},
	}

	aggs := aggregate(t, facilities, nil, exposures)

	if len(aggs) != 1 || !aggs[0].Undrawn.Equal(engine.NewMoney(250)) {
		t.Fatalf("expected standalone facility with headroom 250, got %+v", aggs)
	}
}
