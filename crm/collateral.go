/*
collateral.go - Haircut-adjusted collateral valuation

PURPOSE:
  Computes, per exposure, the collateral value usable to reduce net
  exposure. Per unit of collateral: classify by residual-maturity band, look
  up the supervisory haircut (type x issuer quality step x band), apply the
  FX haircut when collateral and exposure currencies differ, scale for
  maturity mismatch, divide by the overcollateralisation ratio, and check
  the minimum coverage threshold. Facility- and counterparty-level
  collateral is first spread pro-rata exactly like provisions; thresholds
  are re-evaluated at the allocated per-exposure level.

SEPARATE RUNNING TOTALS:
  Financial and non-financial collateral accumulate separately because
  coverage thresholds are type-specific.

ORDER INDEPENDENCE:
  Every unit contributes additively; the cap at the exposure's net amount is
  applied once per exposure after all units are summed, so results do not
  depend on collateral input order.
*/
package crm

import (
	"github.com/shopspring/decimal"

	"github.com/warp/capital-engine/engine"
)

// CollateralEngine values collateral against exposures.
type CollateralEngine struct {
	Config   engine.Config
	Schedule HaircutSchedule
}

// Apply computes adjusted collateral values and the effectively-secured
// amount per exposure, then nets them off EAD. Recoverable defects go to
// errs; only arithmetic invariant violations return an error.
func (ce *CollateralEngine) Apply(
	portfolio *Portfolio,
	collaterals []engine.Collateral,
	errs *engine.ErrorList,
) error {

	for _, col := range collaterals {
		if col.MarketValue.IsNegative() {
			errs.AddAllocation(col.ID, engine.NodeID(col.BeneficiaryID), engine.ErrNegativeAmount.Error())
			continue
		}
		members := portfolio.ResolveBeneficiaries(col.Level, col.BeneficiaryID)
		if len(members) == 0 {
			errs.AddAllocation(col.ID, engine.NodeID(col.BeneficiaryID), engine.ErrUnmatchedBeneficiary.Error())
			continue
		}

		shares, err := allocateShares(col.Level, col.MarketValue, members)
		if err != nil {
			if engine.IsFatal(err) {
				return err
			}
			errs.AddAllocation(col.ID, engine.NodeID(col.BeneficiaryID), err.Error())
			continue
		}

		for _, s := range shares {
			ce.applyUnit(members[s.Index], col, s.Amount)
		}
	}

	// Cap and net once per exposure, after all units are in.
	for _, e := range portfolio.Exposures {
		e.EffectivelySecured = e.EffectivelySecured.Min(e.EADPreCRM.ClampZero())
		if e.EffectivelySecured.IsNegative() {
			return &engine.InvariantViolationError{
				Invariant: "non-negative effectively secured",
				Detail:    string(e.ID) + ": " + e.EffectivelySecured.String(),
			}
		}
		e.EADAfterCollateral = e.EADPreCRM.Sub(e.EffectivelySecured).ClampZero()
	}
	return nil
}

// applyUnit values one exposure's allocated slice of one collateral unit.
func (ce *CollateralEngine) applyUnit(e *AdjustedExposure, col engine.Collateral, allocated engine.Money) {
	if !allocated.IsPositive() {
		return
	}

	one := decimal.NewFromInt(1)

	adjusted := allocated.Mul(one.Sub(ce.Schedule.HaircutFor(col)))
	if col.Currency != "" && e.Currency != "" && col.Currency != e.Currency {
		adjusted = adjusted.Mul(one.Sub(ce.Config.FXHaircut))
	}

	scale, eligible := maturityScale(col.ResidualMaturityYears, e.ResidualMaturityYears, ce.Schedule.MaturityFloor)
	if !eligible {
		return
	}
	adjusted = adjusted.Mul(scale)

	secured := adjusted.Div(ce.Schedule.RatioFor(col.Type))

	// Coverage threshold, evaluated at the allocated per-exposure level:
	// under-threshold collateral contributes zero benefit.
	if minCov := ce.Schedule.MinCoverageFor(col.Type); minCov.IsPositive() {
		if secured.LessThan(e.EADPreCRM.Mul(minCov)) {
			return
		}
	}

	e.AdjustedCollateralValue = e.AdjustedCollateralValue.Add(adjusted)
	if col.Type.IsFinancial() {
		e.FinancialCollateral = e.FinancialCollateral.Add(adjusted)
	} else {
		e.NonFinancialCollateral = e.NonFinancialCollateral.Add(adjusted)
	}
	e.EffectivelySecured = e.EffectivelySecured.Add(secured)
}

// maturityScale computes the maturity-mismatch scaling factor
// (t - floor) / (T - floor) for protection maturing before the exposure.
// Zero maturities mean "not supplied" and disable the adjustment.
// Protection maturing below the floor is ineligible entirely.
func maturityScale(t, T, floor decimal.Decimal) (decimal.Decimal, bool) {
	one := decimal.NewFromInt(1)
	if t.IsZero() || T.IsZero() {
		return one, true
	}
	if t.LessThan(floor) {
		return decimal.Zero, false
	}
	if !t.LessThan(T) {
		return one, true
	}
	denom := T.Sub(floor)
	if !denom.IsPositive() {
		return one, true
	}
	return t.Sub(floor).Div(denom), true
}
