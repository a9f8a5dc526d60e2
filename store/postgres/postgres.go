/*
Package postgres provides a PostgreSQL-backed input snapshot source.

PURPOSE:
  Implements engine.Source over a warehouse extract. Banks typically land
  the calculation-date portfolio in a reporting schema; this source reads
  one snapshot_date partition of each table. It is strictly read-only: the
  engine never writes results back, and ingestion owns the schema.

SCHEMA CONTRACT:
  Same logical columns as store/sqlite, each table with an additional
  snapshot_date column. Monetary columns are NUMERIC, scanned as text to
  preserve exact decimals.

USAGE:
  src, err := postgres.New("postgres://calc@warehouse/capital", "2026-06-30")
  if err != nil { ... }
  defer src.Close()
  result, err := waterfall.Run(ctx, src)

SEE ALSO:
  - engine/source.go: Interface definition
  - store/sqlite: Snapshot-file implementation with the table DDL
*/
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/warp/capital-engine/engine"
)

// Source implements engine.Source over a PostgreSQL warehouse extract.
type Source struct {
	db           *sql.DB
	snapshotDate string
}

var _ engine.Source = (*Source)(nil)

// New connects to the warehouse and binds the source to one snapshot date.
func New(dsn, snapshotDate string) (*Source, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &Source{db: db, snapshotDate: snapshotDate}, nil
}

// Close closes the database connection.
func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) Counterparties(ctx context.Context) ([]engine.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(parent_id, ''), COALESCE(rating, ''),
		       COALESCE(lending_group_id, ''), COALESCE(turnover::text, '0'),
		       COALESCE(total_assets::text, '0')
		FROM counterparties WHERE snapshot_date = $1 ORDER BY id`, s.snapshotDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []engine.Node
	for rows.Next() {
		var n engine.Node
		var turnover, assets string
		if err := rows.Scan(&n.ID, &n.ParentID, &n.Rating, &n.LendingGroupID, &turnover, &assets); err != nil {
			return nil, err
		}
		n.Kind = engine.KindCounterparty
		n.Turnover = engine.MustParseMoney(turnover)
		n.TotalAssets = engine.MustParseMoney(assets)
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *Source) Facilities(ctx context.Context) ([]engine.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(counterparty_id, ''), COALESCE(parent_id, ''),
		       COALESCE(limit_amount::text, '0')
		FROM facilities WHERE snapshot_date = $1 ORDER BY id`, s.snapshotDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []engine.Node
	for rows.Next() {
		var n engine.Node
		var limit string
		if err := rows.Scan(&n.ID, &n.CounterpartyID, &n.ParentID, &limit); err != nil {
			return nil, err
		}
		n.Kind = engine.KindFacility
		n.Limit = engine.MustParseMoney(limit)
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *Source) FacilityLinks(ctx context.Context) ([]engine.FacilityLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT facility_id, child_reference, child_type
		FROM facility_links WHERE snapshot_date = $1
		ORDER BY facility_id, child_reference`, s.snapshotDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []engine.FacilityLink
	for rows.Next() {
		var l engine.FacilityLink
		if err := rows.Scan(&l.FacilityID, &l.ChildReference, &l.ChildType); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (s *Source) Exposures(ctx context.Context) ([]engine.Exposure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, counterparty_id, COALESCE(facility_id, ''), approach,
		       COALESCE(risk_type, ''), COALESCE(drawn::text, '0'),
		       COALESCE(nominal::text, '0'), COALESCE(currency, ''),
		       COALESCE(residual_maturity_years::text, '0')
		FROM exposures WHERE snapshot_date = $1 ORDER BY id`, s.snapshotDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exposures []engine.Exposure
	for rows.Next() {
		var e engine.Exposure
		var drawn, nominal, maturity string
		if err := rows.Scan(&e.ID, &e.CounterpartyID, &e.FacilityID, &e.Approach,
			&e.RiskType, &drawn, &nominal, &e.Currency, &maturity); err != nil {
			return nil, err
		}
		e.Drawn = engine.MustParseMoney(drawn)
		e.Nominal = engine.MustParseMoney(nominal)
		e.ResidualMaturityYears = parseDecimal(maturity)
		exposures = append(exposures, e)
	}
	return exposures, rows.Err()
}

func (s *Source) Provisions(ctx context.Context) ([]engine.Provision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, beneficiary_id, beneficiary_level, COALESCE(amount::text, '0')
		FROM provisions WHERE snapshot_date = $1 ORDER BY id`, s.snapshotDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var provisions []engine.Provision
	for rows.Next() {
		var p engine.Provision
		var amount string
		if err := rows.Scan(&p.ID, &p.BeneficiaryID, &p.Level, &amount); err != nil {
			return nil, err
		}
		p.Amount = engine.MustParseMoney(amount)
		provisions = append(provisions, p)
	}
	return provisions, rows.Err()
}

func (s *Source) Collaterals(ctx context.Context) ([]engine.Collateral, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, beneficiary_id, beneficiary_level, COALESCE(market_value::text, '0'),
		       collateral_type, COALESCE(currency, ''),
		       COALESCE(issuer_quality_step, 0),
		       COALESCE(residual_maturity_years::text, '0')
		FROM collaterals WHERE snapshot_date = $1 ORDER BY id`, s.snapshotDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collaterals []engine.Collateral
	for rows.Next() {
		var c engine.Collateral
		var value, maturity string
		if err := rows.Scan(&c.ID, &c.BeneficiaryID, &c.Level, &value,
			&c.Type, &c.Currency, &c.IssuerQualityStep, &maturity); err != nil {
			return nil, err
		}
		c.MarketValue = engine.MustParseMoney(value)
		c.ResidualMaturityYears = parseDecimal(maturity)
		collaterals = append(collaterals, c)
	}
	return collaterals, rows.Err()
}

func (s *Source) Guarantees(ctx context.Context) ([]engine.Guarantee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, beneficiary_id, beneficiary_level, COALESCE(amount::text, '0'),
		       COALESCE(guarantor_id, ''), COALESCE(guarantor_quality, 0),
		       COALESCE(guarantor_approach, ''), COALESCE(guarantor_risk_type, ''),
		       COALESCE(residual_maturity_years::text, '0')
		FROM guarantees WHERE snapshot_date = $1 ORDER BY id`, s.snapshotDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guarantees []engine.Guarantee
	for rows.Next() {
		var g engine.Guarantee
		var amount, maturity string
		if err := rows.Scan(&g.ID, &g.BeneficiaryID, &g.Level, &amount, &g.GuarantorID,
			&g.GuarantorQuality, &g.GuarantorApproach, &g.GuarantorRiskType, &maturity); err != nil {
			return nil, err
		}
		g.Amount = engine.MustParseMoney(amount)
		g.ResidualMaturityYears = parseDecimal(maturity)
		guarantees = append(guarantees, g)
	}
	return guarantees, rows.Err()
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
