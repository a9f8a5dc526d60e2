/*
prorata.go - Conservation-exact pro-rata allocation

PURPOSE:
  Distributes a single mitigant amount across the exposures of a facility or
  counterparty in proportion to each exposure's gross amount. The allocation
  is aggregate-then-join: the weight total is computed once, every exposure
  reads its own share, and no two exposures contend on a shared counter.

CONSERVATION:
  Decimal division leaves a residue, so one share is computed as
  (total - sum of the other shares) rather than by division. The sum of
  shares therefore equals the mitigant amount exactly, not just within
  tolerance. The residue lands on the largest-weight slot: its share is the
  largest, so a residue of either sign cannot push it negative.

SEE ALSO:
  - crm/provisions.go, crm/collateral.go, crm/guarantees.go: Callers
*/
package engine

// roundingSlack bounds the division residue a remainder assignment may
// absorb silently. Anything larger is a real defect.
var roundingSlack = MustParseMoney("0.000000001")

// Share is the portion of an allocated amount attributed to one weight slot.
type Share struct {
	Index  int
	Amount Money
}

// Allocate distributes total across weights pro-rata. Weights must be
// non-negative (negative weights are clamped upstream by Exposure.Gross).
//
// Returns ErrZeroWeights when the weights sum to zero: the caller records an
// allocation error and the mitigant contributes no benefit. Returns a fatal
// InvariantViolationError if any computed share is negative, which can only
// happen through a programming defect.
func Allocate(total Money, weights []Money) ([]Share, error) {
	if len(weights) == 0 {
		return nil, ErrZeroWeights
	}

	weightSum := ZeroMoney()
	for _, w := range weights {
		weightSum = weightSum.Add(w)
	}
	if !weightSum.IsPositive() {
		return nil, ErrZeroWeights
	}

	remainderSlot := 0
	for i, w := range weights {
		if w.GreaterThan(weights[remainderSlot]) {
			remainderSlot = i
		}
	}

	shares := make([]Share, len(weights))
	allocated := ZeroMoney()
	for i, w := range weights {
		if i == remainderSlot {
			continue
		}
		amt := total.Mul(w.Value).Div(weightSum.Value)
		if amt.IsNegative() {
			return nil, &InvariantViolationError{
				Invariant: "non-negative allocation share",
				Detail:    "share " + amt.String() + " for weight " + w.String(),
			}
		}
		shares[i] = Share{Index: i, Amount: amt}
		allocated = allocated.Add(amt)
	}

	// Remainder assignment: the largest-weight slot absorbs the division
	// residue so the shares conserve the total exactly. A sub-tolerance
	// negative remainder can only occur for a near-zero total and clamps.
	remainder := total.Sub(allocated)
	if remainder.IsNegative() && remainder.Neg().LessThan(roundingSlack) {
		remainder = ZeroMoney()
	}
	if remainder.IsNegative() {
		return nil, &InvariantViolationError{
			Invariant: "non-negative allocation share",
			Detail:    "remainder " + remainder.String() + " exceeds rounding slack",
		}
	}
	shares[remainderSlot] = Share{Index: remainderSlot, Amount: remainder}
	return shares, nil
}
