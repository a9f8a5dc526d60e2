/*
guarantees.go - Guarantee substitution

PURPOSE:
  Splits each exposure's post-collateral EAD into a guaranteed portion
  (effective protection from a qualifying guarantor) and an unguaranteed
  residual. Guarantees substitute the guarantor's risk for the obligor's on
  the covered portion; they never reduce EAD, so the split plus audit
  columns are this engine's whole output. The downstream risk-weight
  calculator populates pre/post-CRM RWA from the split.

CROSS-APPROACH CCF SUBSTITUTION:
  When an IRB (or Slotting) exposure is guaranteed by a Standardised-
  approach counterparty, the guaranteed portion's credit conversion factor
  is replaced by the Standardised CCF for the guarantor's risk-type
  category. ccf_original, ccf_guaranteed, ccf_unguaranteed, guarantee_ratio
  and guarantor_approach are all recorded for audit.

MATURITY MISMATCH:
  Protection maturing before the exposure is scaled by
  (t - 0.25) / (T - 0.25); protection maturing below the 0.25y floor
  provides zero benefit.
*/
package crm

import (
	"github.com/warp/capital-engine/engine"
)

// GuaranteeEngine computes the guaranteed/unguaranteed split.
type GuaranteeEngine struct {
	Config   engine.Config
	Schedule HaircutSchedule
}

// guarantorPick tracks, per exposure, the guarantor supplying the most
// protection; its approach drives the CCF substitution audit columns.
type guarantorPick struct {
	id         engine.MitigantID
	protection engine.Money
	approach   engine.Approach
	riskType   engine.RiskType
}

// Apply allocates guarantees, scales for maturity mismatch, caps at the
// post-collateral EAD and records the substitution audit columns.
func (ge *GuaranteeEngine) Apply(
	portfolio *Portfolio,
	guarantees []engine.Guarantee,
	errs *engine.ErrorList,
) error {

	picks := make(map[engine.ExposureID]guarantorPick)

	for _, g := range guarantees {
		if g.Amount.IsNegative() {
			errs.AddAllocation(g.ID, engine.NodeID(g.BeneficiaryID), engine.ErrNegativeAmount.Error())
			continue
		}
		members := portfolio.ResolveBeneficiaries(g.Level, g.BeneficiaryID)
		if len(members) == 0 {
			errs.AddAllocation(g.ID, engine.NodeID(g.BeneficiaryID), engine.ErrUnmatchedBeneficiary.Error())
			continue
		}

		shares, err := allocateShares(g.Level, g.Amount, members)
		if err != nil {
			if engine.IsFatal(err) {
				return err
			}
			errs.AddAllocation(g.ID, engine.NodeID(g.BeneficiaryID), err.Error())
			continue
		}

		for _, s := range shares {
			e := members[s.Index]
			scale, eligible := maturityScale(g.ResidualMaturityYears, e.ResidualMaturityYears, ge.Schedule.MaturityFloor)
			if !eligible || !s.Amount.IsPositive() {
				continue
			}
			protection := s.Amount.Mul(scale)
			e.GuaranteedAmount = e.GuaranteedAmount.Add(protection)

			// Dominant guarantor wins the audit columns; ties break on
			// mitigant ID so results are input-order independent.
			cur, ok := picks[e.ID]
			if !ok || protection.GreaterThan(cur.protection) ||
				(protection.Equal(cur.protection) && g.ID < cur.id) {
				picks[e.ID] = guarantorPick{
					id:         g.ID,
					protection: protection,
					approach:   g.GuarantorApproach,
					riskType:   g.GuarantorRiskType,
				}
			}
		}
	}

	// Cap and record audit columns once per exposure.
	for _, e := range portfolio.Exposures {
		e.CCFGuaranteed = e.CCFOriginal
		e.CCFUnguaranteed = e.CCFOriginal

		remaining := e.EADAfterCollateral.ClampZero()
		e.GuaranteedAmount = e.GuaranteedAmount.Min(remaining)
		if e.GuaranteedAmount.IsNegative() {
			return &engine.InvariantViolationError{
				Invariant: "non-negative guaranteed amount",
				Detail:    string(e.ID) + ": " + e.GuaranteedAmount.String(),
			}
		}
		if remaining.IsPositive() {
			e.GuaranteeRatio = e.GuaranteedAmount.Value.Div(remaining.Value)
		}

		pick, ok := picks[e.ID]
		if !ok {
			continue
		}
		e.GuarantorApproach = pick.approach

		// Cross-approach substitution: Standardised guarantor behind a
		// non-Standardised exposure replaces the covered portion's CCF.
		if !e.Approach.DeductsProvisions() && pick.approach == engine.ApproachStandardised {
			e.CCFGuaranteed = ge.Config.CCFFor(pick.riskType)
		}
	}
	return nil
}
