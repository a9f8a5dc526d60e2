/*
mitigants.go - Credit-risk-mitigant input rows

PURPOSE:
  Raw provision, collateral and guarantee records as they arrive from the
  upstream tables. Each mitigant names exactly one beneficiary at exactly
  one of three levels: a single exposure, a facility's exposures, or a
  counterparty's exposures. The level is an explicit enumerated type; the
  crm package dispatches one resolution path per level, never a string-keyed
  branch over raw input.

SEE ALSO:
  - crm/provisions.go, crm/collateral.go, crm/guarantees.go: Consumers
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// BENEFICIARY LEVEL - Tagged three-way dispatch
// =============================================================================

type BeneficiaryLevel string

const (
	// LevelDirect: the beneficiary reference is one exposure ID.
	LevelDirect BeneficiaryLevel = "direct"

	// LevelFacility: the reference is a facility; the mitigant spreads
	// pro-rata over the facility's exposures (and, when the facility is a
	// hierarchy root, its descendant facilities' exposures).
	LevelFacility BeneficiaryLevel = "facility"

	// LevelCounterparty: the reference is a counterparty; the mitigant
	// spreads pro-rata over every exposure owned directly or via facility.
	LevelCounterparty BeneficiaryLevel = "counterparty"
)

// =============================================================================
// PROVISION
// =============================================================================

type Provision struct {
	ID            MitigantID
	BeneficiaryID string
	Level         BeneficiaryLevel
	Amount        Money
}

// =============================================================================
// COLLATERAL
// =============================================================================

type CollateralType string

const (
	CollateralCash           CollateralType = "cash"
	CollateralGold           CollateralType = "gold"
	CollateralDebtSecurities CollateralType = "debt_securities"
	CollateralEquity         CollateralType = "equity"
	CollateralReceivables    CollateralType = "receivables"
	CollateralRealEstate     CollateralType = "real_estate"
	CollateralOtherPhysical  CollateralType = "other_physical"
)

// IsFinancial reports whether the type counts toward the financial running
// total. Financial and non-financial collateral are tracked separately
// because coverage thresholds are type-specific.
func (t CollateralType) IsFinancial() bool {
	switch t {
	case CollateralCash, CollateralGold, CollateralDebtSecurities, CollateralEquity:
		return true
	}
	return false
}

type Collateral struct {
	ID            MitigantID
	BeneficiaryID string
	Level         BeneficiaryLevel
	MarketValue   Money
	Type          CollateralType
	Currency      string

	// IssuerQualityStep is the credit-quality step of the collateral issuer
	// (1 = best). Drives the supervisory haircut lookup for debt securities.
	IssuerQualityStep int

	ResidualMaturityYears decimal.Decimal
}

// =============================================================================
// GUARANTEE
// =============================================================================

type Guarantee struct {
	ID            MitigantID
	BeneficiaryID string
	Level         BeneficiaryLevel
	Amount        Money

	GuarantorID       NodeID
	GuarantorQuality  int
	GuarantorApproach Approach
	GuarantorRiskType RiskType

	ResidualMaturityYears decimal.Decimal
}
