package factory_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capital-engine/crm"
	"github.com/warp/capital-engine/engine"
	"github.com/warp/capital-engine/factory"
)

func TestParse_EmptyFile_YieldsSupervisoryDefaults(t *testing.T) {
	cfg, schedule, err := factory.Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.MaxDepth)
	assert.True(t, cfg.FXHaircut.Equal(decimal.RequireFromString("0.08")))
	assert.True(t, cfg.CCFFor(engine.RiskTypeCommitted).Equal(decimal.RequireFromString("0.75")))
	assert.True(t, schedule.Gold.Equal(decimal.RequireFromString("0.15")))
	assert.True(t, schedule.MaturityFloor.Equal(decimal.RequireFromString("0.25")))
}

func TestParse_Overrides_MergeOverDefaults(t *testing.T) {
	yaml := strings.TrimSpace(`
max_depth: 6
fx_haircut: "0.10"
ccfs:
  committed: "0.50"
haircuts:
  equity: "0.30"
  debt:
    medium: {"2": "0.035"}
ratios:
  real_estate: "1.5"
maturity_floor: "0.5"
`)

	cfg, schedule, err := factory.Parse([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.MaxDepth)
	assert.True(t, cfg.FXHaircut.Equal(decimal.RequireFromString("0.10")))
	assert.True(t, cfg.CCFFor(engine.RiskTypeCommitted).Equal(decimal.RequireFromString("0.50")))
	// Untouched entries keep the defaults.
	assert.True(t, cfg.CCFFor(engine.RiskTypeTradeFinance).Equal(decimal.RequireFromString("0.20")))

	assert.True(t, schedule.Equity.Equal(decimal.RequireFromString("0.30")))
	assert.True(t, schedule.Debt[crm.BandMedium][2].Equal(decimal.RequireFromString("0.035")))
	assert.True(t, schedule.Debt[crm.BandMedium][1].Equal(decimal.RequireFromString("0.02")))
	assert.True(t, schedule.RatioFor(engine.CollateralRealEstate).Equal(decimal.RequireFromString("1.5")))
	assert.True(t, schedule.MaturityFloor.Equal(decimal.RequireFromString("0.5")))
}

func TestParse_NonDecimalRate_Rejected(t *testing.T) {
	_, _, err := factory.Parse([]byte(`fx_haircut: "lots"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fx_haircut")
}

func TestParse_UnknownMaturityBand_Rejected(t *testing.T) {
	yaml := `
haircuts:
  debt:
    decade: {"1": "0.05"}
`
	_, _, err := factory.Parse([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown maturity band")
}

func TestParse_QualityStepOutOfRange_Rejected(t *testing.T) {
	yaml := `
haircuts:
  debt:
    short: {"9": "0.05"}
`
	_, _, err := factory.Parse([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quality step")
}

func TestParse_MalformedYAML_Rejected(t *testing.T) {
	_, _, err := factory.Parse([]byte("ccfs: [not-a-map"))
	require.Error(t, err)
}

func TestLoad_MissingFile_Rejected(t *testing.T) {
	_, _, err := factory.Load("/does/not/exist.yaml")
	require.Error(t, err)
}
