/*
Package factory builds calculation configurations from parameter files.

PURPOSE:
  Regulatory parameters (haircut tables, overcollateralisation ratios,
  CCFs, depth bounds) are maintained by the credit-risk team in reviewed
  YAML files, not in code. The factory parses a parameter file into the
  explicit engine.Config and crm.HaircutSchedule structs the engine runs
  on, filling supervisory defaults for anything the file omits.

YAML SCHEMA:
  max_depth: 10
  tolerance: "0.000001"
  fx_haircut: "0.08"
  default_ccf: "1.0"
  ccfs:
    committed: "0.75"
    uncommitted: "0.10"
  haircuts:
    gold: "0.15"
    equity: "0.25"
    debt:
      short:  {"1": "0.005", "2": "0.01", "3": "0.01", "4": "0.15"}
      medium: {"1": "0.02",  "2": "0.03", "3": "0.03", "4": "0.15"}
      long:   {"1": "0.04",  "2": "0.06", "3": "0.06", "4": "0.15"}
  ratios:
    receivables: "1.25"
    real_estate: "1.4"
  min_coverage:
    real_estate: "0.30"
  maturity_floor: "0.25"

  All rates are decimal strings: float literals in YAML would reintroduce
  the binary-float rounding the engine exists to avoid.

SEE ALSO:
  - engine/config.go: The target Config struct and supervisory defaults
  - crm/haircuts.go: The target HaircutSchedule struct
*/
package factory

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/capital-engine/crm"
	"github.com/warp/capital-engine/engine"
)

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// ParamsYAML is the YAML representation of one parameter file. Every field
// is optional; omitted fields keep supervisory defaults.
type ParamsYAML struct {
	MaxDepth   int               `yaml:"max_depth,omitempty"`
	Tolerance  string            `yaml:"tolerance,omitempty"`
	FXHaircut  string            `yaml:"fx_haircut,omitempty"`
	DefaultCCF string            `yaml:"default_ccf,omitempty"`
	CCFs       map[string]string `yaml:"ccfs,omitempty"`

	Haircuts      *HaircutsYAML     `yaml:"haircuts,omitempty"`
	Ratios        map[string]string `yaml:"ratios,omitempty"`
	MinCoverage   map[string]string `yaml:"min_coverage,omitempty"`
	MaturityFloor string            `yaml:"maturity_floor,omitempty"`
}

// HaircutsYAML carries the supervisory haircut overrides.
type HaircutsYAML struct {
	Cash   string                       `yaml:"cash,omitempty"`
	Gold   string                       `yaml:"gold,omitempty"`
	Equity string                       `yaml:"equity,omitempty"`
	Debt   map[string]map[string]string `yaml:"debt,omitempty"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads a parameter file and builds the run configuration.
func Load(path string) (engine.Config, crm.HaircutSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Config{}, crm.HaircutSchedule{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds the run configuration from raw YAML.
func Parse(data []byte) (engine.Config, crm.HaircutSchedule, error) {
	var p ParamsYAML
	if err := yaml.Unmarshal(data, &p); err != nil {
		return engine.Config{}, crm.HaircutSchedule{}, fmt.Errorf("unmarshal parameters: %w", err)
	}
	cfg, err := p.buildConfig()
	if err != nil {
		return engine.Config{}, crm.HaircutSchedule{}, err
	}
	schedule, err := p.buildSchedule()
	if err != nil {
		return engine.Config{}, crm.HaircutSchedule{}, err
	}
	return cfg, schedule, nil
}

func (p ParamsYAML) buildConfig() (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if p.MaxDepth > 0 {
		cfg.MaxDepth = p.MaxDepth
	}
	if err := setRate(&cfg.Tolerance, p.Tolerance, "tolerance"); err != nil {
		return cfg, err
	}
	if err := setRate(&cfg.FXHaircut, p.FXHaircut, "fx_haircut"); err != nil {
		return cfg, err
	}
	if err := setRate(&cfg.DefaultCCF, p.DefaultCCF, "default_ccf"); err != nil {
		return cfg, err
	}
	for rt, s := range p.CCFs {
		d, err := parseRate(s, "ccfs."+rt)
		if err != nil {
			return cfg, err
		}
		cfg.CCFs[engine.RiskType(rt)] = d
	}
	return cfg, nil
}

func (p ParamsYAML) buildSchedule() (crm.HaircutSchedule, error) {
	schedule := crm.DefaultHaircutSchedule()
	if h := p.Haircuts; h != nil {
		if err := setRate(&schedule.Cash, h.Cash, "haircuts.cash"); err != nil {
			return schedule, err
		}
		if err := setRate(&schedule.Gold, h.Gold, "haircuts.gold"); err != nil {
			return schedule, err
		}
		if err := setRate(&schedule.Equity, h.Equity, "haircuts.equity"); err != nil {
			return schedule, err
		}
		for band, steps := range h.Debt {
			row, ok := schedule.Debt[crm.MaturityBand(band)]
			if !ok {
				return schedule, fmt.Errorf("haircuts.debt: unknown maturity band %q", band)
			}
			for step, s := range steps {
				var n int
				if _, err := fmt.Sscanf(step, "%d", &n); err != nil || n < 1 || n > 4 {
					return schedule, fmt.Errorf("haircuts.debt.%s: invalid quality step %q", band, step)
				}
				d, err := parseRate(s, fmt.Sprintf("haircuts.debt.%s.%s", band, step))
				if err != nil {
					return schedule, err
				}
				row[n] = d
			}
		}
	}
	for t, s := range p.Ratios {
		d, err := parseRate(s, "ratios."+t)
		if err != nil {
			return schedule, err
		}
		schedule.Ratios[engine.CollateralType(t)] = d
	}
	for t, s := range p.MinCoverage {
		d, err := parseRate(s, "min_coverage."+t)
		if err != nil {
			return schedule, err
		}
		schedule.MinCoverage[engine.CollateralType(t)] = d
	}
	if err := setRate(&schedule.MaturityFloor, p.MaturityFloor, "maturity_floor"); err != nil {
		return schedule, err
	}
	return schedule, nil
}

func parseRate(s, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q is not a decimal", field, s)
	}
	return d, nil
}

// setRate overwrites dst only when the file supplies a value.
func setRate(dst *decimal.Decimal, s, field string) error {
	if s == "" {
		return nil
	}
	d, err := parseRate(s, field)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
