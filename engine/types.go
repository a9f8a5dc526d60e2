/*
Package engine provides the core hierarchy-resolution and allocation engine.

PURPOSE:
  This package contains the domain-agnostic machinery for regulatory capital
  calculations: exact-decimal money arithmetic, the counterparty/facility
  hierarchy graph, the iterative ancestor resolver, attribute inheritance,
  facility aggregation and pro-rata allocation. The crm package layers the
  Credit-Risk-Mitigation waterfall on top of it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: An exact-decimal monetary amount (never float64 internally)
  - Node: A counterparty or facility in the ownership/facility hierarchy
  - Exposure: One credit exposure record, read-only to this engine
  - Typed IDs: NodeID, ExposureID etc. prevent mixing identifier spaces

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Immutability: Input tables are never mutated; derived values are
     appended on output rows owned by the calculation run
  3. Determinism: All configuration is an explicit struct, no globals
  4. Batch execution: Set-at-a-time joins, never per-node recursion

SEE ALSO:
  - hierarchy.go: Edge extraction and the iterative ancestor resolver
  - inherit.go: Rating and lending-group inheritance
  - aggregate.go: Facility drawn/undrawn aggregation
  - prorata.go: Conservation-exact pro-rata allocation
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Exact-decimal monetary amount
// =============================================================================

// Money is a monetary amount backed by decimal.Decimal. Currency is carried
// separately on the owning row; Money itself is a pure quantity.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

// MustParseMoney parses a decimal string, returning zero on malformed input.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(b Money) Money            { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money            { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Mul(s decimal.Decimal) Money  { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money  { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                   { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool             { return m.Value.IsNegative() }
func (m Money) IsZero() bool                 { return m.Value.IsZero() }
func (m Money) IsPositive() bool             { return m.Value.IsPositive() }
func (m Money) GreaterThan(b Money) bool     { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool        { return m.Value.LessThan(b.Value) }
func (m Money) Equal(b Money) bool           { return m.Value.Equal(b.Value) }
func (m Money) Float64() float64             { f, _ := m.Value.Float64(); return f }
func (m Money) String() string               { return m.Value.String() }

func (m Money) Min(b Money) Money {
	if m.LessThan(b) {
		return m
	}
	return b
}

func (m Money) Max(b Money) Money {
	if m.GreaterThan(b) {
		return m
	}
	return b
}

// ClampZero floors a Money at zero. Clamping is idempotent: clamping an
// already non-negative amount returns it unchanged.
func (m Money) ClampZero() Money {
	if m.IsNegative() {
		return ZeroMoney()
	}
	return m
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type NodeID string
type ExposureID string
type MitigantID string

// =============================================================================
// HIERARCHY NODE - Counterparty or facility
// =============================================================================

type NodeKind string

const (
	KindCounterparty NodeKind = "counterparty"
	KindFacility     NodeKind = "facility"
)

// Node is one entry in the counterparty-ownership or facility hierarchy.
// ParentID empty means the node is a root. A node whose ParentID equals its
// own ID is also treated as a root (self-referencing roots appear in real
// regulatory extracts).
type Node struct {
	ID       NodeID
	ParentID NodeID
	Kind     NodeKind

	// Counterparty attributes. Rating empty means unrated; inheritance may
	// fill InheritedRating from the nearest rated ancestor.
	Rating         string
	LendingGroupID string

	// Facility attributes.
	CounterpartyID NodeID
	Limit          Money

	// Numeric attributes used by other subsystems, opaque here.
	Turnover    Money
	TotalAssets Money
}

// IsRoot reports whether the node terminates ancestor resolution.
func (n Node) IsRoot() bool {
	return n.ParentID == "" || n.ParentID == n.ID
}

// FacilityLink ties a child loan or sub-facility to a parent facility.
type FacilityLink struct {
	FacilityID     NodeID
	ChildReference NodeID
	ChildType      ChildType
}

type ChildType string

const (
	ChildLoan     ChildType = "loan"
	ChildFacility ChildType = "facility"
)

// =============================================================================
// EXPOSURE - One credit exposure record
// =============================================================================

// Approach tags which capital treatment an exposure follows. Standardised
// and IRB/Slotting diverge at specific waterfall steps: provisions reduce
// Standardised EAD but are only tracked for IRB, and guarantee CCF
// substitution applies when the regimes differ between exposure and
// guarantor.
type Approach string

const (
	ApproachStandardised Approach = "standardised"
	ApproachIRB          Approach = "irb"
	ApproachSlotting     Approach = "slotting"
)

// DeductsProvisions reports whether provision amounts reduce EAD for this
// approach. IRB and Slotting reserve provisions for the downstream
// expected-loss comparison instead.
func (a Approach) DeductsProvisions() bool {
	return a == ApproachStandardised
}

// RiskType is the credit-conversion-factor category of an exposure
// (e.g. committed revolver, trade finance, performance guarantee). The CCF
// table in Config is keyed by it.
type RiskType string

// Exposure is one credit exposure row from the upstream classification.
// The engine never mutates it; the waterfall appends derived values on
// crm.AdjustedExposure instead.
type Exposure struct {
	ID             ExposureID
	CounterpartyID NodeID
	FacilityID     NodeID // empty when the exposure sits outside any facility
	Approach       Approach
	RiskType       RiskType

	Drawn    Money
	Nominal  Money // undrawn or off-balance nominal, feeds CCF application
	Currency string

	ResidualMaturityYears decimal.Decimal
}

// Gross is the pro-rata allocation weight: drawn plus nominal, with negative
// components clamped to zero so a negative balance never earns a mitigant
// share.
func (e Exposure) Gross() Money {
	return e.Drawn.ClampZero().Add(e.Nominal.ClampZero())
}
