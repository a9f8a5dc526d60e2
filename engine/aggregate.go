/*
aggregate.go - Facility drawn/undrawn aggregation

PURPOSE:
  Rolls leaf-loan drawn amounts up to root facilities and computes undrawn
  headroom against the root facility limit. Headroom is emitted ONLY for
  root or standalone facilities: emitting it at every hierarchy level would
  double-count the same headroom once per level.

CLAMPING:
  Negative drawn amounts are clamped to zero before aggregation. A negative
  balance (an overpaid loan) never increases available headroom.
*/
package engine

// FacilityAggregate is the rolled-up position of one root or standalone
// facility.
type FacilityAggregate struct {
	FacilityID     NodeID
	CounterpartyID NodeID
	Limit          Money
	TotalDrawn     Money // sum of descendant loans' drawn, clamped per loan
	Undrawn        Money // max(0, Limit - TotalDrawn)
}

// FacilityAggregator rolls drawn amounts up the facility hierarchy.
type FacilityAggregator struct {
	Config Config
}

// Aggregate computes per-root-facility totals. records is the ancestor
// resolution over the facility graph; facilities absent from it are
// standalone roots. Cycle-flagged facilities are excluded (already reported
// as structural errors by the resolver).
func (fa *FacilityAggregator) Aggregate(
	facilities []Node,
	exposures []Exposure,
	records map[NodeID]AncestorRecord,
) []FacilityAggregate {

	rootOf := func(id NodeID) (NodeID, bool) {
		rec, ok := records[id]
		if !ok {
			return id, true // standalone facility
		}
		if rec.Cycle {
			return "", false
		}
		return rec.Root, true
	}

	// Aggregate-then-join: one pass sums clamped drawn per root facility.
	drawnByRoot := make(map[NodeID]Money)
	for _, e := range exposures {
		if e.FacilityID == "" {
			continue
		}
		root, ok := rootOf(e.FacilityID)
		if !ok {
			continue
		}
		drawnByRoot[root] = drawnByRoot[root].Add(e.Drawn.ClampZero())
	}

	var out []FacilityAggregate
	for _, f := range facilities {
		if f.Kind != KindFacility {
			continue
		}
		root, ok := rootOf(f.ID)
		if !ok || root != f.ID {
			// Intermediate or sub-facility: suppressed.
			continue
		}
		drawn := drawnByRoot[f.ID]
		out = append(out, FacilityAggregate{
			FacilityID:     f.ID,
			CounterpartyID: f.CounterpartyID,
			Limit:          f.Limit,
			TotalDrawn:     drawn,
			Undrawn:        f.Limit.Sub(drawn).ClampZero(),
		})
	}
	return out
}
