package crm_test

import (
	"testing"

	"github.com/warp/capital-engine/crm"
	"github.com/warp/capital-engine/engine"
)

func applyCollateral(t *testing.T, p *crm.Portfolio, collaterals []engine.Collateral) *engine.ErrorList {
	t.Helper()
	errs := &engine.ErrorList{}
	ce := &crm.CollateralEngine{Config: engine.DefaultConfig(), Schedule: crm.DefaultHaircutSchedule()}
	if err := ce.Apply(p, collaterals, errs); err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	return errs
}

// preCRM builds an exposure already carrying its net EAD, the state the
// collateral stage receives.
func preCRM(id string, ead float64) *crm.AdjustedExposure {
	e := stdExposure(id, ead, 0)
	e.EADPreCRM = m(ead)
	return e
}

// =============================================================================
// OVERCOLLATERALISATION AND COVERAGE THRESHOLDS
// =============================================================================

func TestCollateral_RealEstate_DividedByRatio(t *testing.T) {
	// GIVEN: EAD 300 secured by real estate worth 140
	// WHEN: Applying collateral
	// THEN: Effectively secured is 140 / 1.4 = 100 and net EAD is 200

	e := preCRM("e1", 300)
	p := portfolioOf(e)

	applyCollateral(t, p, []engine.Collateral{
		{ID: "col1", BeneficiaryID: "e1", Level: engine.LevelDirect,
			MarketValue: m(140), Type: engine.CollateralRealEstate},
	})

	if !e.EffectivelySecured.Equal(m(100)) {
		t.Errorf("effectively secured: expected 100, got %s", e.EffectivelySecured)
	}
	if !e.EADAfterCollateral.Equal(m(200)) {
		t.Errorf("EAD after collateral: expected 200, got %s", e.EADAfterCollateral)
	}
}

func TestCollateral_RealEstate_FractionalRatio(t *testing.T) {
	// GIVEN: EAD 200 secured by real estate worth 100
	// WHEN: Applying
	// THEN: Effectively secured is exactly 100 / 1.4

	e := preCRM("e1", 200)
	p := portfolioOf(e)

	applyCollateral(t, p, []engine.Collateral{
		{ID: "col1", BeneficiaryID: "e1", Level: engine.LevelDirect,
			MarketValue: m(100), Type: engine.CollateralRealEstate},
	})

	want := m(100).Div(dec("1.4"))
	if !e.EffectivelySecured.Equal(want) {
		t.Errorf("effectively secured: expected %s, got %s", want, e.EffectivelySecured)
	}
}

func TestCollateral_BelowMinimumCoverage_ZeroBenefit(t *testing.T) {
	// GIVEN: EAD 1000 secured by real estate worth 140 (secured 100, under
	//        the 30% threshold of 300)
	// WHEN: Applying
	// THEN: The collateral contributes nothing

	e := preCRM("e1", 1000)
	p := portfolioOf(e)

	applyCollateral(t, p, []engine.Collateral{
		{ID: "col1", BeneficiaryID: "e1", Level: engine.LevelDirect,
			MarketValue: m(140), Type: engine.CollateralRealEstate},
	})

	if !e.EffectivelySecured.IsZero() {
		t.Errorf("effectively secured: expected 0 below coverage threshold, got %s", e.EffectivelySecured)
	}
	if !e.EADAfterCollateral.Equal(m(1000)) {
		t.Errorf("EAD after collateral: expected unchanged 1000, got %s", e.EADAfterCollateral)
	}
}

// =============================================================================
// HAIRCUTS
// =============================================================================

func TestCollateral_FXMismatch_AppliesCurrencyHaircut(t *testing.T) {
	// GIVEN: A EUR exposure of 200 secured by 100 of USD cash
	// WHEN: Applying
	// THEN: The 8% FX haircut leaves 92 effectively secured

	e := preCRM("e1", 200)
	e.Currency = "EUR"
	p := portfolioOf(e)

	applyCollateral(t, p, []engine.Collateral{
		{ID: "col1", BeneficiaryID: "e1", Level: engine.LevelDirect,
			MarketValue: m(100), Type: engine.CollateralCash, Currency: "USD"},
	})

	if !e.EffectivelySecured.Equal(m(92)) {
		t.Errorf("effectively secured: expected 92, got %s", e.EffectivelySecured)
	}
}

func TestCollateral_DebtSecurities_HaircutByStepAndBand(t *testing.T) {
	// GIVEN: Debt-security collateral worth 100, issuer quality step 2,
	//        residual maturity 3 years (medium band, haircut 3%)
	// WHEN: Applying against a matching-maturity exposure
	// THEN: Effectively secured is 97

	e := preCRM("e1", 500)
	e.ResidualMaturityYears = dec("3")
	p := portfolioOf(e)

	applyCollateral(t, p, []engine.Collateral{
		{ID: "col1", BeneficiaryID: "e1", Level: engine.LevelDirect,
			MarketValue: m(100), Type: engine.CollateralDebtSecurities,
			IssuerQualityStep: 2, ResidualMaturityYears: dec("3")},
	})

	if !e.EffectivelySecured.Equal(m(97)) {
		t.Errorf("effectively secured: expected 97, got %s", e.EffectivelySecured)
	}
}

// =============================================================================
// MATURITY MISMATCH
// =============================================================================

func TestCollateral_MaturityMismatch_Scaled(t *testing.T) {
	// GIVEN: Cash collateral of 100 maturing at 1y against a 5y exposure
	// WHEN: Applying
	// THEN: The benefit scales by (1 - 0.25) / (5 - 0.25)

	e := preCRM("e1", 500)
	e.ResidualMaturityYears = dec("5")
	p := portfolioOf(e)

	applyCollateral(t, p, []engine.Collateral{
		{ID: "col1", BeneficiaryID: "e1", Level: engine.LevelDirect,
			MarketValue: m(100), Type: engine.CollateralCash,
			ResidualMaturityYears: dec("1")},
	})

	want := m(100).Mul(dec("0.75").Div(dec("4.75")))
	if !e.EffectivelySecured.Equal(want) {
		t.Errorf("effectively secured: expected %s, got %s", want, e.EffectivelySecured)
	}
}

func TestCollateral_BelowMaturityFloor_Ineligible(t *testing.T) {
	// GIVEN: Collateral maturing in 0.2 years, under the 0.25y floor
	// WHEN: Applying
	// THEN: It provides zero benefit

	e := preCRM("e1", 500)
	e.ResidualMaturityYears = dec("5")
	p := portfolioOf(e)

	applyCollateral(t, p, []engine.Collateral{
		{ID: "col1", BeneficiaryID: "e1", Level: engine.LevelDirect,
			MarketValue: m(100), Type: engine.CollateralCash,
			ResidualMaturityYears: dec("0.2")},
	})

	if !e.EffectivelySecured.IsZero() {
		t.Errorf("effectively secured: expected 0 below maturity floor, got %s", e.EffectivelySecured)
	}
}

// =============================================================================
// RUNNING TOTALS AND CAPPING
// =============================================================================

func TestCollateral_FinancialAndNonFinancial_TrackedSeparately(t *testing.T) {
	// GIVEN: One exposure secured by cash 50 and real estate 140
	// WHEN: Applying
	// THEN: The running totals split by type and both benefits accumulate

	e := preCRM("e1", 300)
	p := portfolioOf(e)

	applyCollateral(t, p, []engine.Collateral{
		{ID: "col1", BeneficiaryID: "e1", Level: engine.LevelDirect,
			MarketValue: m(50), Type: engine.CollateralCash},
		{ID: "col2", BeneficiaryID: "e1", Level: engine.LevelDirect,
			MarketValue: m(140), Type: engine.CollateralRealEstate},
	})

	if !e.FinancialCollateral.Equal(m(50)) {
		t.Errorf("financial total: expected 50, got %s", e.FinancialCollateral)
	}
	if !e.NonFinancialCollateral.Equal(m(140)) {
		t.Errorf("non-financial total: expected 140, got %s", e.NonFinancialCollateral)
	}
	if !e.EffectivelySecured.Equal(m(150)) {
		t.Errorf("effectively secured: expected 50 + 100 = 150, got %s", e.EffectivelySecured)
	}
}

func TestCollateral_NegativeMarketValue_ReportedNotFatal(t *testing.T) {
	// GIVEN: A collateral record with a negative market value
	// WHEN: Applying
	// THEN: The record is reported as an allocation error and skipped; the
	//       run is not aborted

	e := preCRM("e1", 300)
	p := portfolioOf(e)

	errs := applyCollateral(t, p, []engine.Collateral{
		{ID: "col1", BeneficiaryID: "e1", Level: engine.LevelDirect,
			MarketValue: m(-40), Type: engine.CollateralCash},
	})

	if errs.Len() != 1 {
		t.Fatalf("expected 1 allocation error, got %d", errs.Len())
	}
	if !e.EffectivelySecured.IsZero() {
		t.Errorf("effectively secured: expected 0, got %s", e.EffectivelySecured)
	}
	if !e.EADAfterCollateral.Equal(m(300)) {
		t.Errorf("EAD after collateral: expected unchanged 300, got %s", e.EADAfterCollateral)
	}
}

func TestCollateral_Oversecured_CappedAtNetExposure(t *testing.T) {
	// GIVEN: EAD 100 secured by 500 of cash
	// WHEN: Applying
	// THEN: Effectively secured caps at 100 and net EAD floors at zero

	e := preCRM("e1", 100)
	p := portfolioOf(e)

	applyCollateral(t, p, []engine.Collateral{
		{ID: "col1", BeneficiaryID: "e1", Level: engine.LevelDirect,
			MarketValue: m(500), Type: engine.CollateralCash},
	})

	if !e.EffectivelySecured.Equal(m(100)) {
		t.Errorf("effectively secured: expected cap at 100, got %s", e.EffectivelySecured)
	}
	if !e.EADAfterCollateral.IsZero() {
		t.Errorf("EAD after collateral: expected 0, got %s", e.EADAfterCollateral)
	}
}
