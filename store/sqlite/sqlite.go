/*
Package sqlite provides a SQLite-backed input snapshot store.

PURPOSE:
  Implements engine.Source over a SQLite portfolio snapshot file. Upstream
  ingestion writes one snapshot per calculation date; the engine reads it as
  an immutable set of tables. The same patterns apply to PostgreSQL (see
  store/postgres) - only minor SQL dialect differences.

KEY TABLES:
  counterparties:  Ownership hierarchy with ratings and lending groups
  facilities:      Facility hierarchy with limits
  facility_links:  Loan/sub-facility attachment records
  exposures:       Classified exposure rows
  provisions, collaterals, guarantees: Mitigant tables

DECIMAL STORAGE:
  Monetary columns are stored as decimal TEXT, never REAL. SQLite REAL is a
  binary float and would corrupt amounts the engine keeps exact end to end.

WAL MODE:
  The database is opened with WAL so snapshot writers and calculation
  readers do not block each other.

USAGE:
  src, err := sqlite.New("./snapshots/2026-06-30.db")
  if err != nil { ... }
  defer src.Close()
  result, err := waterfall.Run(ctx, src)

SEE ALSO:
  - engine/source.go: Interface definition
  - store/postgres: Warehouse-backed implementation
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/capital-engine/engine"
)

// Store implements engine.Source over a SQLite snapshot file.
type Store struct {
	db *sql.DB
}

var _ engine.Source = (*Store)(nil)

// New opens (and if necessary initializes) a snapshot database.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS counterparties (
		id               TEXT PRIMARY KEY,
		parent_id        TEXT NOT NULL DEFAULT '',
		rating           TEXT NOT NULL DEFAULT '',
		lending_group_id TEXT NOT NULL DEFAULT '',
		turnover         TEXT NOT NULL DEFAULT '0',
		total_assets     TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS facilities (
		id              TEXT PRIMARY KEY,
		counterparty_id TEXT NOT NULL DEFAULT '',
		parent_id       TEXT NOT NULL DEFAULT '',
		limit_amount    TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS facility_links (
		facility_id     TEXT NOT NULL,
		child_reference TEXT NOT NULL,
		child_type      TEXT NOT NULL,
		PRIMARY KEY (facility_id, child_reference)
	);

	CREATE TABLE IF NOT EXISTS exposures (
		id                      TEXT PRIMARY KEY,
		counterparty_id         TEXT NOT NULL,
		facility_id             TEXT NOT NULL DEFAULT '',
		approach                TEXT NOT NULL,
		risk_type               TEXT NOT NULL DEFAULT '',
		drawn                   TEXT NOT NULL DEFAULT '0',
		nominal                 TEXT NOT NULL DEFAULT '0',
		currency                TEXT NOT NULL DEFAULT '',
		residual_maturity_years TEXT NOT NULL DEFAULT '0'
	);
	CREATE INDEX IF NOT EXISTS idx_exposures_counterparty ON exposures(counterparty_id);
	CREATE INDEX IF NOT EXISTS idx_exposures_facility ON exposures(facility_id);

	CREATE TABLE IF NOT EXISTS provisions (
		id                TEXT PRIMARY KEY,
		beneficiary_id    TEXT NOT NULL,
		beneficiary_level TEXT NOT NULL,
		amount            TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS collaterals (
		id                      TEXT PRIMARY KEY,
		beneficiary_id          TEXT NOT NULL,
		beneficiary_level       TEXT NOT NULL,
		market_value            TEXT NOT NULL DEFAULT '0',
		collateral_type         TEXT NOT NULL,
		currency                TEXT NOT NULL DEFAULT '',
		issuer_quality_step     INTEGER NOT NULL DEFAULT 0,
		residual_maturity_years TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS guarantees (
		id                      TEXT PRIMARY KEY,
		beneficiary_id          TEXT NOT NULL,
		beneficiary_level       TEXT NOT NULL,
		amount                  TEXT NOT NULL DEFAULT '0',
		guarantor_id            TEXT NOT NULL DEFAULT '',
		guarantor_quality       INTEGER NOT NULL DEFAULT 0,
		guarantor_approach      TEXT NOT NULL DEFAULT '',
		guarantor_risk_type     TEXT NOT NULL DEFAULT '',
		residual_maturity_years TEXT NOT NULL DEFAULT '0'
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SOURCE IMPLEMENTATION
// =============================================================================

func (s *Store) Counterparties(ctx context.Context) ([]engine.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, rating, lending_group_id, turnover, total_assets
		FROM counterparties ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []engine.Node
	for rows.Next() {
		var n engine.Node
		var parent, turnover, assets string
		if err := rows.Scan(&n.ID, &parent, &n.Rating, &n.LendingGroupID, &turnover, &assets); err != nil {
			return nil, err
		}
		n.Kind = engine.KindCounterparty
		n.ParentID = engine.NodeID(parent)
		n.Turnover = engine.MustParseMoney(turnover)
		n.TotalAssets = engine.MustParseMoney(assets)
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *Store) Facilities(ctx context.Context) ([]engine.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, counterparty_id, parent_id, limit_amount
		FROM facilities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []engine.Node
	for rows.Next() {
		var n engine.Node
		var cpty, parent, limit string
		if err := rows.Scan(&n.ID, &cpty, &parent, &limit); err != nil {
			return nil, err
		}
		n.Kind = engine.KindFacility
		n.CounterpartyID = engine.NodeID(cpty)
		n.ParentID = engine.NodeID(parent)
		n.Limit = engine.MustParseMoney(limit)
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *Store) FacilityLinks(ctx context.Context) ([]engine.FacilityLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT facility_id, child_reference, child_type
		FROM facility_links ORDER BY facility_id, child_reference`)
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

func (s *Store) Exposures(ctx context.Context) ([]engine.Exposure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, counterparty_id, facility_id, approach, risk_type,
		       drawn, nominal, currency, residual_maturity_years
		FROM exposures ORDER BY id`)
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

func (s *Store) Provisions(ctx context.Context) ([]engine.Provision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, beneficiary_id, beneficiary_level, amount
		FROM provisions ORDER BY id`)
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

func (s *Store) Collaterals(ctx context.Context) ([]engine.Collateral, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, beneficiary_id, beneficiary_level, market_value,
		       collateral_type, currency, issuer_quality_step, residual_maturity_years
		FROM collaterals ORDER BY id`)
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

func (s *Store) Guarantees(ctx context.Context) ([]engine.Guarantee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, beneficiary_id, beneficiary_level, amount, guarantor_id,
		       guarantor_quality, guarantor_approach, guarantor_risk_type,
		       residual_maturity_years
		FROM guarantees ORDER BY id`)
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

// =============================================================================
// SNAPSHOT WRITING - Used by ingestion tooling and tests
// =============================================================================

func (s *Store) InsertCounterparty(ctx context.Context, n engine.Node) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO counterparties (id, parent_id, rating, lending_group_id, turnover, total_assets)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.ParentID, n.Rating, n.LendingGroupID, n.Turnover.String(), n.TotalAssets.String())
	return err
}

func (s *Store) InsertFacility(ctx context.Context, n engine.Node) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO facilities (id, counterparty_id, parent_id, limit_amount)
		VALUES (?, ?, ?, ?)`,
		n.ID, n.CounterpartyID, n.ParentID, n.Limit.String())
	return err
}

func (s *Store) InsertFacilityLink(ctx context.Context, l engine.FacilityLink) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO facility_links (facility_id, child_reference, child_type)
		VALUES (?, ?, ?)`,
		l.FacilityID, l.ChildReference, l.ChildType)
	return err
}

func (s *Store) InsertExposure(ctx context.Context, e engine.Exposure) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exposures (id, counterparty_id, facility_id, approach, risk_type,
		                       drawn, nominal, currency, residual_maturity_years)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CounterpartyID, e.FacilityID, e.Approach, e.RiskType,
		e.Drawn.String(), e.Nominal.String(), e.Currency, e.ResidualMaturityYears.String())
	return err
}

func (s *Store) InsertProvision(ctx context.Context, p engine.Provision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provisions (id, beneficiary_id, beneficiary_level, amount)
		VALUES (?, ?, ?, ?)`,
		p.ID, p.BeneficiaryID, p.Level, p.Amount.String())
	return err
}

func (s *Store) InsertCollateral(ctx context.Context, c engine.Collateral) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collaterals (id, beneficiary_id, beneficiary_level, market_value,
		                         collateral_type, currency, issuer_quality_step, residual_maturity_years)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.BeneficiaryID, c.Level, c.MarketValue.String(),
		c.Type, c.Currency, c.IssuerQualityStep, c.ResidualMaturityYears.String())
	return err
}

func (s *Store) InsertGuarantee(ctx context.Context, g engine.Guarantee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guarantees (id, beneficiary_id, beneficiary_level, amount, guarantor_id,
		                        guarantor_quality, guarantor_approach, guarantor_risk_type,
		                        residual_maturity_years)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.BeneficiaryID, g.Level, g.Amount.String(), g.GuarantorID,
		g.GuarantorQuality, g.GuarantorApproach, g.GuarantorRiskType,
		g.ResidualMaturityYears.String())
	return err
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
