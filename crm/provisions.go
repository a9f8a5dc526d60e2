/*
provisions.go - Provision resolution and approach-dependent deduction

PURPOSE:
  Resolves each provision's beneficiary set, spreads the amount pro-rata by
  gross exposure, and applies the approach-dependent deduction:

  Standardised - drawn-first deduction. The allocated provision first
  reduces the drawn amount; the remainder reduces the nominal amount that
  feeds credit-conversion-factor application. Both floored at zero.

  IRB/Slotting - tracked, never deducted. The allocation is recorded on
  provision_allocated for the downstream expected-loss shortfall/excess
  comparison, which is outside this engine.

LEVELS:
  A direct provision assigns its full amount to the named exposure, even
  when the exposure's current gross is zero (the tracking column feeds the
  IRB expected-loss comparison regardless). Facility- and counterparty-
  level provisions spread pro-rata by gross exposure.

FAILURE SEMANTICS:
  A provision with a negative amount, a beneficiary resolving to no
  exposure, or a facility/counterparty beneficiary set with zero total
  gross is reported as an allocation error and contributes nothing. It
  must neither vanish silently nor abort the run.
*/
package crm

import (
	"github.com/warp/capital-engine/engine"
)

// ProvisionResolver spreads provisions over their beneficiary sets.
type ProvisionResolver struct {
	Config engine.Config
}

// Resolve allocates every provision and writes the provision columns on
// each exposure. Returns a fatal error only on arithmetic invariant
// violations; recoverable defects go to errs.
func (pr *ProvisionResolver) Resolve(
	portfolio *Portfolio,
	provisions []engine.Provision,
	errs *engine.ErrorList,
) error {

	for _, prov := range provisions {
		if prov.Amount.IsNegative() {
			errs.AddAllocation(prov.ID, engine.NodeID(prov.BeneficiaryID), engine.ErrNegativeAmount.Error())
			continue
		}
		members := portfolio.ResolveBeneficiaries(prov.Level, prov.BeneficiaryID)
		if len(members) == 0 {
			errs.AddAllocation(prov.ID, engine.NodeID(prov.BeneficiaryID), engine.ErrUnmatchedBeneficiary.Error())
			continue
		}

		shares, err := allocateShares(prov.Level, prov.Amount, members)
		if err != nil {
			if engine.IsFatal(err) {
				return err
			}
			errs.AddAllocation(prov.ID, engine.NodeID(prov.BeneficiaryID), err.Error())
			continue
		}

		for _, s := range shares {
			e := members[s.Index]
			e.ProvisionAllocated = e.ProvisionAllocated.Add(s.Amount)
		}
	}

	// Deduction pass: runs once over the full dataset after all provisions
	// are allocated, so results do not depend on provision input order.
	for _, e := range portfolio.Exposures {
		pr.deduct(e)
	}
	return nil
}

// deduct applies drawn-first deduction for Standardised exposures. IRB and
// Slotting keep the allocation on the tracking column only.
func (pr *ProvisionResolver) deduct(e *AdjustedExposure) {
	if !e.Approach.DeductsProvisions() {
		e.NominalAfterProvision = e.Nominal.ClampZero()
		return
	}

	onDrawn := e.ProvisionAllocated.Min(e.Drawn.ClampZero())
	onNominal := e.ProvisionAllocated.Sub(onDrawn)

	e.ProvisionOnDrawn = onDrawn
	e.ProvisionOnNominal = onNominal
	// The remainder may exceed the nominal itself; the floor absorbs it.
	e.NominalAfterProvision = e.Nominal.ClampZero().Sub(onNominal).ClampZero()
	e.ProvisionDeducted = onDrawn.Add(onNominal)
}
