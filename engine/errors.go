/*
errors.go - Centralized error taxonomy for the calculation engine

PURPOSE:
  All error types in one place. The engine distinguishes three categories
  with different propagation rules:

  1. Structural  - hierarchy defects (cycles, depth overruns). Accumulated.
  2. Allocation  - mitigant beneficiary did not resolve, or pro-rata weights
                   sum to zero. Accumulated.
  3. Arithmetic  - a clamp-at-zero or conservation invariant was violated.
                   Fatal: indicates a programming defect, aborts the run.

COLLECT, DON'T RAISE:
  A single bad mitigant record must not abort capital calculation for an
  entire portfolio. Structural and allocation errors are appended to an
  ErrorList carried on the run result; the affected row gets a skip/zero
  outcome and the run continues. The final output always exposes the list
  so the caller can judge whether the error rate is acceptable for
  regulatory submission.

USAGE:
  Callers can test categories with errors.Is:

    if errors.Is(err, engine.ErrInvariantViolation) {
        // programming defect, do not submit results
    }

SEE ALSO:
  - hierarchy.go: Emits structural errors
  - prorata.go: Emits allocation and arithmetic errors
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCycleDetected is returned when a node is reachable as its own
	// ancestor. The node is excluded from inheritance, never forced to an
	// arbitrary root.
	ErrCycleDetected = errors.New("cycle detected in hierarchy graph")

	// ErrDepthExceeded is returned when ancestor resolution did not reach a
	// root within the configured maximum depth.
	ErrDepthExceeded = errors.New("ancestor resolution exceeded maximum depth")

	// ErrUnmatchedBeneficiary is returned when a mitigant's beneficiary
	// reference resolves to no exposure.
	ErrUnmatchedBeneficiary = errors.New("mitigant beneficiary matched no exposure")

	// ErrZeroWeights is returned when pro-rata weights sum to zero, e.g. a
	// facility whose exposures all have zero gross amount.
	ErrZeroWeights = errors.New("pro-rata weights sum to zero")

	// ErrNegativeAmount is returned when a mitigant record carries a
	// negative amount. Bad input data, never fatal: the record is reported
	// and skipped.
	ErrNegativeAmount = errors.New("mitigant amount is negative")

	// ErrInvariantViolation indicates an arithmetic invariant was broken.
	// Always fatal; never accumulated.
	ErrInvariantViolation = errors.New("arithmetic invariant violation")

	// ErrSourceRequired is returned when a calculation is started without an
	// input dataset source.
	ErrSourceRequired = errors.New("calculation requires a dataset source")
)

// =============================================================================
// ERROR CATEGORIES
// =============================================================================

type ErrorCategory string

const (
	CategoryStructural ErrorCategory = "structural"
	CategoryAllocation ErrorCategory = "allocation"
	CategoryArithmetic ErrorCategory = "arithmetic"
)

// =============================================================================
// CALCERROR - One accumulated, recoverable defect
// =============================================================================

// CalcError records one recoverable defect: which record, which reference,
// why. These tuples are the audit trail the caller uses to decide whether a
// run is submittable.
type CalcError struct {
	Category    ErrorCategory
	MitigantID  MitigantID // empty for structural errors
	NodeID      NodeID     // the node or beneficiary reference involved
	Reason      string
}

func (e CalcError) Error() string {
	if e.MitigantID != "" {
		return fmt.Sprintf("%s: mitigant %s (beneficiary %s): %s",
			e.Category, e.MitigantID, e.NodeID, e.Reason)
	}
	return fmt.Sprintf("%s: node %s: %s", e.Category, e.NodeID, e.Reason)
}

// ErrorList accumulates recoverable errors across a run.
type ErrorList struct {
	Errors []CalcError
}

func (l *ErrorList) Add(e CalcError) {
	l.Errors = append(l.Errors, e)
}

func (l *ErrorList) AddStructural(node NodeID, reason string) {
	l.Add(CalcError{Category: CategoryStructural, NodeID: node, Reason: reason})
}

func (l *ErrorList) AddAllocation(mitigant MitigantID, beneficiary NodeID, reason string) {
	l.Add(CalcError{Category: CategoryAllocation, MitigantID: mitigant, NodeID: beneficiary, Reason: reason})
}

func (l *ErrorList) Len() int { return len(l.Errors) }

// CountByCategory returns the number of accumulated errors per category,
// used by the run summary.
func (l *ErrorList) CountByCategory() map[ErrorCategory]int {
	counts := make(map[ErrorCategory]int)
	for _, e := range l.Errors {
		counts[e.Category]++
	}
	return counts
}

// =============================================================================
// INVARIANT VIOLATION - Fatal, never accumulated
// =============================================================================

// InvariantViolationError reports an arithmetic invariant breach. It aborts
// the run: an incorrect capital number is worse than no number.
type InvariantViolationError struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant %q violated: %s", e.Invariant, e.Detail)
}

func (e *InvariantViolationError) Unwrap() error {
	return ErrInvariantViolation
}

// IsFatal reports whether an error must abort the run rather than be
// accumulated.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
