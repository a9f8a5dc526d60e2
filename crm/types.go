/*
Package crm implements the Credit-Risk-Mitigation EAD waterfall.

PURPOSE:
  Applies a strictly-ordered, multi-level proportional allocation of
  provisions, collateral and guarantees to raw exposures and produces a
  final Exposure-at-Default value per exposure record, plus a full audit
  trail of the amounts each mitigant consumed.

ORDERING SEMANTICS:
  Regulatory order is mandated and enforced by the waterfall state machine:
  provisions before credit-conversion-factor application, collateral before
  guarantees. See waterfall.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - AdjustedExposure: One exposure row plus every derived CRM column
  - Stage: The waterfall state machine states
  - Result: Final dataset + accumulated allocation errors + run summary

SEE ALSO:
  - portfolio.go: Beneficiary resolution and membership context
  - provisions.go, collateral.go, guarantees.go: The mitigant engines
  - waterfall.go: The orchestrator
*/
package crm

import (
	"github.com/shopspring/decimal"

	"github.com/warp/capital-engine/engine"
)

// =============================================================================
// WATERFALL STAGES - Mandated order, enforced transitions
// =============================================================================

type Stage string

const (
	StageRaw                Stage = "RAW"
	StageProvisionsResolved Stage = "PROVISIONS_RESOLVED"
	StageCCFApplied         Stage = "CCF_APPLIED"
	StageEADInitialized     Stage = "EAD_INITIALIZED"
	StageCollateralApplied  Stage = "COLLATERAL_APPLIED"
	StageGuaranteesApplied  Stage = "GUARANTEES_APPLIED"
	StageFinalized          Stage = "FINALIZED"
)

// next returns the only legal successor of a stage.
func (s Stage) next() Stage {
	switch s {
	case StageRaw:
		return StageProvisionsResolved
	case StageProvisionsResolved:
		return StageCCFApplied
	case StageCCFApplied:
		return StageEADInitialized
	case StageEADInitialized:
		return StageCollateralApplied
	case StageCollateralApplied:
		return StageGuaranteesApplied
	case StageGuaranteesApplied:
		return StageFinalized
	}
	return s
}

// =============================================================================
// ADJUSTED EXPOSURE - Input row + appended CRM columns
// =============================================================================

// AdjustedExposure is one exposure threading through the waterfall. The
// embedded input row is never modified; every derived value is an appended
// column. Each column is written by exactly one stage and read-only
// afterwards.
type AdjustedExposure struct {
	engine.Exposure

	// PROVISIONS_RESOLVED
	ProvisionAllocated    engine.Money // pro-rata share of all provisions, all approaches
	ProvisionOnDrawn      engine.Money // Standardised only: deducted from drawn
	ProvisionOnNominal    engine.Money // Standardised only: deducted from nominal pre-CCF
	NominalAfterProvision engine.Money
	ProvisionDeducted     engine.Money

	// CCF_APPLIED
	CCFOriginal      decimal.Decimal
	ConvertedNominal engine.Money // nominal_after_provision x CCF

	// EAD_INITIALIZED
	EADPreCRM engine.Money

	// COLLATERAL_APPLIED
	AdjustedCollateralValue engine.Money // post-haircut, pre-overcollateralisation
	FinancialCollateral     engine.Money // running total, financial types
	NonFinancialCollateral  engine.Money // running total, non-financial types
	EffectivelySecured      engine.Money // capped at net exposure
	EADAfterCollateral      engine.Money

	// GUARANTEES_APPLIED
	GuaranteedAmount  engine.Money
	GuaranteeRatio    decimal.Decimal
	CCFGuaranteed     decimal.Decimal
	CCFUnguaranteed   decimal.Decimal
	GuarantorApproach engine.Approach

	// FINALIZED
	EADFinal engine.Money
}

// =============================================================================
// RESULT - What one run yields
// =============================================================================

// Summary aggregates one run for the audit trail.
type Summary struct {
	RunID          string
	ExposureCount  int
	HeadroomCount  int // synthetic undrawn exposures emitted by aggregation
	TotalEADPreCRM engine.Money
	TotalEADFinal  engine.Money
	ErrorCounts    map[engine.ErrorCategory]int
}

// Result is the terminal output of the waterfall: the adjusted exposure
// dataset consumed by the downstream risk-weight calculators, with the
// accumulated allocation/structural errors.
type Result struct {
	Exposures []*AdjustedExposure
	Errors    *engine.ErrorList
	Summary   Summary

	// Hierarchy context, exported for the downstream calculators that need
	// inherited ratings and facility aggregates.
	Ancestors   map[engine.NodeID]engine.AncestorRecord
	Inheritance engine.InheritanceResult
	Aggregates  []engine.FacilityAggregate
}
