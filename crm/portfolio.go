/*
portfolio.go - Beneficiary resolution and membership context

PURPOSE:
  One Portfolio holds the canonical exposure dataset for a run plus the
  membership indexes the pro-rata engines join against: exposure-by-ID,
  exposures-by-facility (root facilities see their descendants' exposures)
  and exposures-by-counterparty (direct ownership and via facility).

  Beneficiary resolution is the three-way tagged dispatch: one function per
  beneficiary level. All three mitigant engines share it, so provisions,
  collateral and guarantees cannot drift apart in how they find their
  exposures.

OWNERSHIP:
  The Portfolio is owned by the orchestrating run for the duration of one
  calculation. Nothing here survives across runs.
*/
package crm

import (
	"github.com/warp/capital-engine/engine"
)

// Portfolio is the canonical exposure dataset plus membership indexes.
type Portfolio struct {
	Exposures []*AdjustedExposure

	byID           map[engine.ExposureID]*AdjustedExposure
	byFacility     map[engine.NodeID][]*AdjustedExposure
	byCounterparty map[engine.NodeID][]*AdjustedExposure
}

// NewPortfolio indexes the exposure dataset against the resolved facility
// hierarchy. facilityRecords is the ancestor resolution over the facility
// graph; it routes each exposure's membership up to its root facility so a
// root-facility mitigant covers descendant facilities' exposures too.
// facilityOwner maps facility -> owning counterparty, so counterparty-level
// mitigants reach exposures held via that counterparty's facilities.
func NewPortfolio(
	exposures []*AdjustedExposure,
	facilityRecords map[engine.NodeID]engine.AncestorRecord,
	facilityOwner map[engine.NodeID]engine.NodeID,
) *Portfolio {
	p := &Portfolio{
		Exposures:      exposures,
		byID:           make(map[engine.ExposureID]*AdjustedExposure, len(exposures)),
		byFacility:     make(map[engine.NodeID][]*AdjustedExposure),
		byCounterparty: make(map[engine.NodeID][]*AdjustedExposure),
	}

	for _, e := range exposures {
		p.byID[e.ID] = e
		p.byCounterparty[e.CounterpartyID] = append(p.byCounterparty[e.CounterpartyID], e)

		if e.FacilityID == "" {
			continue
		}
		p.byFacility[e.FacilityID] = append(p.byFacility[e.FacilityID], e)

		// Root facilities also see descendant facilities' exposures.
		if rec, ok := facilityRecords[e.FacilityID]; ok && !rec.Cycle && rec.Root != e.FacilityID {
			p.byFacility[rec.Root] = append(p.byFacility[rec.Root], e)
		}

		// Ownership via facility: the facility's counterparty sees the
		// exposure too, unless it is the direct owner already.
		if owner, ok := facilityOwner[e.FacilityID]; ok && owner != "" && owner != e.CounterpartyID {
			p.byCounterparty[owner] = append(p.byCounterparty[owner], e)
		}
	}
	return p
}

// =============================================================================
// BENEFICIARY RESOLUTION - One function per level
// =============================================================================

// ResolveBeneficiaries returns the exposures a mitigant benefits. An empty
// result means the reference did not resolve; the caller records an
// allocation error and the mitigant contributes nothing.
func (p *Portfolio) ResolveBeneficiaries(level engine.BeneficiaryLevel, ref string) []*AdjustedExposure {
	switch level {
	case engine.LevelDirect:
		return p.resolveDirect(engine.ExposureID(ref))
	case engine.LevelFacility:
		return p.resolveFacility(engine.NodeID(ref))
	case engine.LevelCounterparty:
		return p.resolveCounterparty(engine.NodeID(ref))
	}
	return nil
}

func (p *Portfolio) resolveDirect(id engine.ExposureID) []*AdjustedExposure {
	e, ok := p.byID[id]
	if !ok {
		return nil
	}
	return []*AdjustedExposure{e}
}

func (p *Portfolio) resolveFacility(id engine.NodeID) []*AdjustedExposure {
	return p.byFacility[id]
}

func (p *Portfolio) resolveCounterparty(id engine.NodeID) []*AdjustedExposure {
	return p.byCounterparty[id]
}

// grossWeights extracts the pro-rata weights for a beneficiary set: each
// exposure's gross amount (drawn + nominal, negatives clamped).
func grossWeights(members []*AdjustedExposure) []engine.Money {
	weights := make([]engine.Money, len(members))
	for i, e := range members {
		weights[i] = e.Gross()
	}
	return weights
}

// allocateShares spreads one mitigant amount over its beneficiary set. A
// direct-level mitigant names exactly one exposure and receives the full
// amount with no weighting: a zero-gross exposure still takes its direct
// provision (the allocation feeds the IRB expected-loss comparison even
// when current gross is zero). Facility- and counterparty-level mitigants
// spread pro-rata by gross exposure.
func allocateShares(level engine.BeneficiaryLevel, amount engine.Money, members []*AdjustedExposure) ([]engine.Share, error) {
	if level == engine.LevelDirect {
		return []engine.Share{{Index: 0, Amount: amount}}, nil
	}
	return engine.Allocate(amount, grossWeights(members))
}
