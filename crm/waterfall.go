/*
waterfall.go - The EAD waterfall orchestrator

PURPOSE:
  Sequences the whole calculation against a single exposure dataset in the
  mandated order and emits the final adjusted exposure/EAD dataset with full
  audit columns:

    RAW -> PROVISIONS_RESOLVED -> CCF_APPLIED -> EAD_INITIALIZED
        -> COLLATERAL_APPLIED -> GUARANTEES_APPLIED -> FINALIZED

  Each stage is a deterministic, total transformation: every row passes
  through every stage, rows with no applicable mitigant unchanged. A stage
  may read columns produced earlier but never re-derives a finalized column
  (finalize does not re-subtract provisions; they were absorbed into
  ead_pre_crm at initialization). Advancing out of order is a programming
  defect and fails fatally.

RUN SHAPE:
  One run loads one immutable snapshot, resolves both hierarchies, inherits
  attributes, aggregates facilities, emits undrawn headroom exposures for
  root facilities, then threads the dataset through the stages. There is no
  retry and no cancellation mid-run: a run either completes all stages or
  is reported failed as a whole.

SEE ALSO:
  - engine/hierarchy.go: The iterative ancestor resolver
  - provisions.go, collateral.go, guarantees.go: The stage engines
*/
package crm

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/warp/capital-engine/engine"
)

// =============================================================================
// DATASET - The canonical table threading through the state machine
// =============================================================================

// Dataset is the canonical exposure table plus its current stage. Only the
// orchestrator holds write authority over it, so no stage-level write
// conflicts are possible.
type Dataset struct {
	stage     Stage
	portfolio *Portfolio
}

func (d *Dataset) Stage() Stage { return d.stage }

// advance checks the transition is the mandated one, then moves the stage.
func (d *Dataset) advance(from Stage) error {
	if d.stage != from {
		return &engine.InvariantViolationError{
			Invariant: "waterfall stage order",
			Detail:    fmt.Sprintf("expected stage %s, dataset is at %s", from, d.stage),
		}
	}
	d.stage = from.next()
	return nil
}

// =============================================================================
// WATERFALL - Orchestrator
// =============================================================================

type Waterfall struct {
	Config   engine.Config
	Schedule HaircutSchedule
}

func NewWaterfall(cfg engine.Config, schedule HaircutSchedule) *Waterfall {
	return &Waterfall{Config: cfg, Schedule: schedule}
}

// Run executes one full calculation over the source's snapshot.
func (w *Waterfall) Run(ctx context.Context, src engine.Source) (*Result, error) {
	snap, err := engine.LoadSnapshot(ctx, src)
	if err != nil {
		return nil, err
	}
	return w.RunSnapshot(snap)
}

// RunSnapshot executes one full calculation over an already-loaded
// snapshot. All work from here is CPU/memory-bound; no further I/O.
func (w *Waterfall) RunSnapshot(snap *engine.Snapshot) (*Result, error) {
	errs := &engine.ErrorList{}
	resolver := &engine.AncestorResolver{Config: w.Config}

	// Hierarchy phase. Counterparty ownership and facility linkage are
	// separate forests resolved independently.
	cptyRecords, cptyErrs := resolver.Resolve(engine.ExtractEdges(snap.Counterparties, nil))
	facRecords, facErrs := resolver.Resolve(engine.ExtractEdges(snap.Facilities, snap.FacilityLinks))
	for _, e := range cptyErrs.Errors {
		errs.Add(e)
	}
	for _, e := range facErrs.Errors {
		errs.Add(e)
	}

	inheritor := &engine.Inheritor{Config: w.Config}
	inheritance := inheritor.Inherit(snap.Counterparties, cptyRecords)

	aggregator := &engine.FacilityAggregator{Config: w.Config}
	aggregates := aggregator.Aggregate(snap.Facilities, snap.Exposures, facRecords)

	// Canonical dataset: input exposures plus synthetic undrawn headroom
	// exposures for root/standalone facilities.
	rows := make([]*AdjustedExposure, 0, len(snap.Exposures)+len(aggregates))
	for _, e := range snap.Exposures {
		if e.CounterpartyID == "" {
			errs.AddStructural(engine.NodeID(e.ID), "exposure has no counterparty")
		}
		rows = append(rows, &AdjustedExposure{Exposure: e})
	}
	headroom := 0
	for _, agg := range aggregates {
		if !agg.Undrawn.IsPositive() {
			continue
		}
		headroom++
		rows = append(rows, &AdjustedExposure{Exposure: engine.Exposure{
			ID:             engine.ExposureID("undrawn:" + string(agg.FacilityID)),
			CounterpartyID: agg.CounterpartyID,
			FacilityID:     agg.FacilityID,
			Approach:       engine.ApproachStandardised,
			RiskType:       engine.RiskTypeCommitted,
			Nominal:        agg.Undrawn,
		}})
	}

	facilityOwner := make(map[engine.NodeID]engine.NodeID, len(snap.Facilities))
	for _, f := range snap.Facilities {
		facilityOwner[f.ID] = f.CounterpartyID
	}

	dataset := &Dataset{
		stage:     StageRaw,
		portfolio: NewPortfolio(rows, facRecords, facilityOwner),
	}

	// Waterfall stages, mandated order.
	if err := w.resolveProvisions(dataset, snap.Provisions, errs); err != nil {
		return nil, err
	}
	if err := w.applyCCF(dataset); err != nil {
		return nil, err
	}
	if err := w.initializeEAD(dataset); err != nil {
		return nil, err
	}
	if err := w.applyCollateral(dataset, snap.Collaterals, errs); err != nil {
		return nil, err
	}
	if err := w.applyGuarantees(dataset, snap.Guarantees, errs); err != nil {
		return nil, err
	}
	if err := w.finalize(dataset); err != nil {
		return nil, err
	}

	summary := Summary{
		RunID:         uuid.NewString(),
		ExposureCount: len(rows),
		HeadroomCount: headroom,
		ErrorCounts:   errs.CountByCategory(),
	}
	for _, e := range rows {
		summary.TotalEADPreCRM = summary.TotalEADPreCRM.Add(e.EADPreCRM)
		summary.TotalEADFinal = summary.TotalEADFinal.Add(e.EADFinal)
	}

	return &Result{
		Exposures:   rows,
		Errors:      errs,
		Summary:     summary,
		Ancestors:   cptyRecords,
		Inheritance: inheritance,
		Aggregates:  aggregates,
	}, nil
}

// =============================================================================
// STAGES
// =============================================================================

func (w *Waterfall) resolveProvisions(d *Dataset, provisions []engine.Provision, errs *engine.ErrorList) error {
	if err := d.advance(StageRaw); err != nil {
		return err
	}
	pr := &ProvisionResolver{Config: w.Config}
	return pr.Resolve(d.portfolio, provisions, errs)
}

// applyCCF converts the post-provision nominal into an on-balance-sheet
// equivalent amount.
func (w *Waterfall) applyCCF(d *Dataset) error {
	if err := d.advance(StageProvisionsResolved); err != nil {
		return err
	}
	for _, e := range d.portfolio.Exposures {
		e.CCFOriginal = w.Config.CCFFor(e.RiskType)
		e.ConvertedNominal = e.NominalAfterProvision.Mul(e.CCFOriginal)
	}
	return nil
}

// initializeEAD absorbs the drawn-side provision deduction and the
// converted nominal into ead_pre_crm. Later stages read ead_pre_crm and
// never re-subtract provisions.
func (w *Waterfall) initializeEAD(d *Dataset) error {
	if err := d.advance(StageCCFApplied); err != nil {
		return err
	}
	for _, e := range d.portfolio.Exposures {
		drawn := e.Drawn.ClampZero()
		if e.Approach.DeductsProvisions() {
			drawn = drawn.Sub(e.ProvisionOnDrawn).ClampZero()
		}
		e.EADPreCRM = drawn.Add(e.ConvertedNominal)
	}
	return nil
}

func (w *Waterfall) applyCollateral(d *Dataset, collaterals []engine.Collateral, errs *engine.ErrorList) error {
	if err := d.advance(StageEADInitialized); err != nil {
		return err
	}
	ce := &CollateralEngine{Config: w.Config, Schedule: w.Schedule}
	return ce.Apply(d.portfolio, collaterals, errs)
}

func (w *Waterfall) applyGuarantees(d *Dataset, guarantees []engine.Guarantee, errs *engine.ErrorList) error {
	if err := d.advance(StageCollateralApplied); err != nil {
		return err
	}
	ge := &GuaranteeEngine{Config: w.Config, Schedule: w.Schedule}
	return ge.Apply(d.portfolio, guarantees, errs)
}

// finalize seals the dataset. Guarantees substitute risk rather than reduce
// exposure, so ead_final is the post-collateral EAD.
func (w *Waterfall) finalize(d *Dataset) error {
	if err := d.advance(StageGuaranteesApplied); err != nil {
		return err
	}
	for _, e := range d.portfolio.Exposures {
		e.EADFinal = e.EADAfterCollateral
		if e.EADFinal.IsNegative() {
			return &engine.InvariantViolationError{
				Invariant: "non-negative final EAD",
				Detail:    string(e.ID) + ": " + e.EADFinal.String(),
			}
		}
	}
	return nil
}
