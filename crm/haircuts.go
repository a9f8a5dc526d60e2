/*
haircuts.go - Supervisory haircut schedule and collateral parameters

PURPOSE:
  The lookup tables behind the collateral engine: supervisory haircut by
  collateral type, issuer credit-quality step and residual-maturity band;
  overcollateralisation ratios; and minimum coverage thresholds. Defaults
  follow the supervisory comprehensive-approach tables; production runs load
  a reviewed parameter file through the factory package.
*/
package crm

import (
	"github.com/shopspring/decimal"

	"github.com/warp/capital-engine/engine"
)

// =============================================================================
// MATURITY BANDS
// =============================================================================

type MaturityBand string

const (
	BandShort  MaturityBand = "short"  // <= 1 year
	BandMedium MaturityBand = "medium" // > 1 and <= 5 years
	BandLong   MaturityBand = "long"   // > 5 years
)

// BandFor classifies a residual maturity in years.
func BandFor(years decimal.Decimal) MaturityBand {
	one := decimal.NewFromInt(1)
	five := decimal.NewFromInt(5)
	switch {
	case years.LessThanOrEqual(one):
		return BandShort
	case years.LessThanOrEqual(five):
		return BandMedium
	default:
		return BandLong
	}
}

// =============================================================================
// HAIRCUT SCHEDULE
// =============================================================================

// HaircutSchedule holds the supervisory collateral parameters for one run.
type HaircutSchedule struct {
	Cash   decimal.Decimal
	Gold   decimal.Decimal
	Equity decimal.Decimal

	// Debt is keyed by maturity band, then issuer quality step. Steps below
	// the table's floor clamp to the floor; steps beyond the worst entry
	// clamp to the worst entry.
	Debt map[MaturityBand]map[int]decimal.Decimal

	// Ratios maps collateral type to its overcollateralisation ratio:
	// value must exceed exposure by this multiple before offsetting it.
	Ratios map[engine.CollateralType]decimal.Decimal

	// MinCoverage maps collateral type to the minimum effectively-secured
	// fraction of EAD below which the collateral contributes zero benefit.
	MinCoverage map[engine.CollateralType]decimal.Decimal

	// MaturityFloor is the minimum residual maturity, in years, for
	// mitigant protection. Protection maturing below it provides zero
	// benefit; mismatch scaling uses it as the floor term.
	MaturityFloor decimal.Decimal
}

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultHaircutSchedule returns the supervisory defaults.
func DefaultHaircutSchedule() HaircutSchedule {
	return HaircutSchedule{
		Cash:   decimal.Zero,
		Gold:   pct("0.15"),
		Equity: pct("0.25"),
		Debt: map[MaturityBand]map[int]decimal.Decimal{
			BandShort: {
				1: pct("0.005"),
				2: pct("0.01"),
				3: pct("0.01"),
				4: pct("0.15"),
			},
			BandMedium: {
				1: pct("0.02"),
				2: pct("0.03"),
				3: pct("0.03"),
				4: pct("0.15"),
			},
			BandLong: {
				1: pct("0.04"),
				2: pct("0.06"),
				3: pct("0.06"),
				4: pct("0.15"),
			},
		},
		Ratios: map[engine.CollateralType]decimal.Decimal{
			engine.CollateralCash:           pct("1.0"),
			engine.CollateralGold:           pct("1.0"),
			engine.CollateralDebtSecurities: pct("1.0"),
			engine.CollateralEquity:         pct("1.0"),
			engine.CollateralReceivables:    pct("1.25"),
			engine.CollateralRealEstate:     pct("1.4"),
			engine.CollateralOtherPhysical:  pct("1.4"),
		},
		MinCoverage: map[engine.CollateralType]decimal.Decimal{
			engine.CollateralRealEstate:    pct("0.30"),
			engine.CollateralOtherPhysical: pct("0.30"),
		},
		MaturityFloor: pct("0.25"),
	}
}

// HaircutFor returns the supervisory haircut for one collateral unit.
// Non-financial collateral carries no haircut; its liquidation uncertainty
// is expressed through the overcollateralisation ratio instead.
func (h HaircutSchedule) HaircutFor(c engine.Collateral) decimal.Decimal {
	switch c.Type {
	case engine.CollateralCash:
		return h.Cash
	case engine.CollateralGold:
		return h.Gold
	case engine.CollateralEquity:
		return h.Equity
	case engine.CollateralDebtSecurities:
		band := h.Debt[BandFor(c.ResidualMaturityYears)]
		step := c.IssuerQualityStep
		if step < 1 {
			step = 1
		}
		if step > 4 {
			step = 4
		}
		return band[step]
	}
	return decimal.Zero
}

// RatioFor returns the overcollateralisation ratio, defaulting to 1.0 for
// types absent from the table.
func (h HaircutSchedule) RatioFor(t engine.CollateralType) decimal.Decimal {
	if r, ok := h.Ratios[t]; ok && r.IsPositive() {
		return r
	}
	return decimal.NewFromInt(1)
}

// MinCoverageFor returns the minimum coverage threshold, zero for types
// without one.
func (h HaircutSchedule) MinCoverageFor(t engine.CollateralType) decimal.Decimal {
	return h.MinCoverage[t]
}
