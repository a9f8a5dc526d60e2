/*
source.go - Input dataset source interface

PURPOSE:
  Defines the boundary between the calculation engine and wherever the
  input tables live. One calculation run loads one immutable snapshot of
  every table up front; the engine is CPU/memory-bound afterwards and does
  no further I/O.

READ-ONLY CONTRACT:
  A Source only reads. The engine never writes back: results are returned
  to the caller, persistence of outputs is a downstream concern.

IMPLEMENTATIONS:
  - store/sqlite:        Portfolio snapshot in a SQLite file
  - store/postgres:      Warehouse extract over lib/pq
  - engine/store/memory: In-memory fixtures for testing

SEE ALSO:
  - crm/waterfall.go: Loads a full snapshot through this interface
*/
package engine

import "context"

// Source supplies one immutable snapshot of the input tables.
type Source interface {
	// Counterparties returns the counterparty hierarchy table.
	Counterparties(ctx context.Context) ([]Node, error)

	// Facilities returns the facility table.
	Facilities(ctx context.Context) ([]Node, error)

	// FacilityLinks returns the facility-linkage table.
	FacilityLinks(ctx context.Context) ([]FacilityLink, error)

	// Exposures returns the classified exposure table.
	Exposures(ctx context.Context) ([]Exposure, error)

	// Provisions, Collaterals and Guarantees return the mitigant tables.
	Provisions(ctx context.Context) ([]Provision, error)
	Collaterals(ctx context.Context) ([]Collateral, error)
	Guarantees(ctx context.Context) ([]Guarantee, error)
}

// Snapshot is a fully-loaded, immutable copy of every input table. All
// stages read it by reference; only the orchestrator holds write authority
// over the derived dataset as it threads through the state machine.
type Snapshot struct {
	Counterparties []Node
	Facilities     []Node
	FacilityLinks  []FacilityLink
	Exposures      []Exposure
	Provisions     []Provision
	Collaterals    []Collateral
	Guarantees     []Guarantee
}

// LoadSnapshot reads every table from the source.
func LoadSnapshot(ctx context.Context, src Source) (*Snapshot, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	var (
		snap Snapshot
		err  error
	)
	if snap.Counterparties, err = src.Counterparties(ctx); err != nil {
		return nil, err
	}
	if snap.Facilities, err = src.Facilities(ctx); err != nil {
		return nil, err
	}
	if snap.FacilityLinks, err = src.FacilityLinks(ctx); err != nil {
		return nil, err
	}
	if snap.Exposures, err = src.Exposures(ctx); err != nil {
		return nil, err
	}
	if snap.Provisions, err = src.Provisions(ctx); err != nil {
		return nil, err
	}
	if snap.Collaterals, err = src.Collaterals(ctx); err != nil {
		return nil, err
	}
	if snap.Guarantees, err = src.Guarantees(ctx); err != nil {
		return nil, err
	}
	return &snap, nil
}
