// Package store provides Source implementations.
package store

import (
	"context"

	"github.com/warp/capital-engine/engine"
)

// =============================================================================
// MEMORY SOURCE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is an in-memory Source. Fixtures are assigned directly to its
// fields; reads return them as-is.
type Memory struct {
	CounterpartyRows []engine.Node
	FacilityRows     []engine.Node
	LinkRows         []engine.FacilityLink
	ExposureRows     []engine.Exposure
	ProvisionRows    []engine.Provision
	CollateralRows   []engine.Collateral
	GuaranteeRows    []engine.Guarantee
}

func NewMemory() *Memory {
	return &Memory{}
}

var _ engine.Source = (*Memory)(nil)

func (m *Memory) Counterparties(_ context.Context) ([]engine.Node, error) {
	return m.CounterpartyRows, nil
}

func (m *Memory) Facilities(_ context.Context) ([]engine.Node, error) {
	return m.FacilityRows, nil
}

func (m *Memory) FacilityLinks(_ context.Context) ([]engine.FacilityLink, error) {
	return m.LinkRows, nil
}

func (m *Memory) Exposures(_ context.Context) ([]engine.Exposure, error) {
	return m.ExposureRows, nil
}

func (m *Memory) Provisions(_ context.Context) ([]engine.Provision, error) {
	return m.ProvisionRows, nil
}

func (m *Memory) Collaterals(_ context.Context) ([]engine.Collateral, error) {
	return m.CollateralRows, nil
}

func (m *Memory) Guarantees(_ context.Context) ([]engine.Guarantee, error) {
	return m.GuaranteeRows, nil
}
