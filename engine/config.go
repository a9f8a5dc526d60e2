/*
config.go - Explicit calculation configuration

PURPOSE:
  Every tunable regulatory parameter lives in an explicit Config struct that
  is passed into each component call. Nothing is read from ambient or global
  state, so two runs with different configs can execute side by side and a
  run is fully reproducible from its config.

SEE ALSO:
  - factory/config.go: Builds Config from YAML parameter files
  - crm/haircuts.go: Collateral-specific supervisory parameters
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// CONFIG - Per-run calculation parameters
// =============================================================================

// Config carries the engine-level calculation parameters for one run.
type Config struct {
	// MaxDepth bounds the iterative ancestor resolver. Nodes not resolved
	// within MaxDepth hops are flagged, never silently dropped.
	MaxDepth int

	// Tolerance is the relative tolerance for conservation checks on
	// pro-rata allocation.
	Tolerance decimal.Decimal

	// FXHaircut is the additional fixed haircut applied when collateral
	// currency differs from exposure currency.
	FXHaircut decimal.Decimal

	// CCFs maps an exposure risk type to its credit conversion factor.
	// Risk types absent from the map fall back to DefaultCCF.
	CCFs map[RiskType]decimal.Decimal

	// DefaultCCF applies to risk types without an explicit entry.
	DefaultCCF decimal.Decimal
}

// DefaultConfig returns the supervisory defaults. Production runs load a
// reviewed parameter file through the factory package instead.
func DefaultConfig() Config {
	return Config{
		MaxDepth:   10,
		Tolerance:  decimal.RequireFromString("0.000001"),
		FXHaircut:  decimal.RequireFromString("0.08"),
		DefaultCCF: decimal.RequireFromString("1.0"),
		CCFs: map[RiskType]decimal.Decimal{
			RiskTypeCommitted:        decimal.RequireFromString("0.75"),
			RiskTypeUncommitted:      decimal.RequireFromString("0.10"),
			RiskTypeTradeFinance:     decimal.RequireFromString("0.20"),
			RiskTypePerformance:      decimal.RequireFromString("0.50"),
			RiskTypeDirectCredit:     decimal.RequireFromString("1.0"),
			RiskTypeNoteIssuance:     decimal.RequireFromString("0.50"),
		},
	}
}

// Standard risk-type categories for CCF lookup.
const (
	RiskTypeCommitted    RiskType = "committed"
	RiskTypeUncommitted  RiskType = "uncommitted"
	RiskTypeTradeFinance RiskType = "trade_finance"
	RiskTypePerformance  RiskType = "performance"
	RiskTypeDirectCredit RiskType = "direct_credit"
	RiskTypeNoteIssuance RiskType = "note_issuance"
)

// CCFFor returns the credit conversion factor for a risk type.
func (c Config) CCFFor(rt RiskType) decimal.Decimal {
	if ccf, ok := c.CCFs[rt]; ok {
		return ccf
	}
	return c.DefaultCCF
}
