/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal decimal-exact domain model from the external contract. Monetary
  values cross the boundary as decimal strings, never floats: a reporting
  client re-parsing "123.45" gets the same number the engine computed.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - crm/types.go: The internal Result/AdjustedExposure types
*/
package api

import (
	"github.com/warp/capital-engine/crm"
	"github.com/warp/capital-engine/engine"
)

// =============================================================================
// REQUESTS
// =============================================================================

// SubmitRunRequest starts a calculation over a named snapshot file.
type SubmitRunRequest struct {
	// Snapshot is the SQLite snapshot path registered with the server.
	Snapshot string `json:"snapshot"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type RunSummaryDTO struct {
	RunID          string         `json:"run_id"`
	Snapshot       string         `json:"snapshot"`
	ExposureCount  int            `json:"exposure_count"`
	HeadroomCount  int            `json:"headroom_count"`
	TotalEADPreCRM string         `json:"total_ead_pre_crm"`
	TotalEADFinal  string         `json:"total_ead_final"`
	ErrorCounts    map[string]int `json:"error_counts"`
}

type ExposureDTO struct {
	ID             string `json:"id"`
	CounterpartyID string `json:"counterparty_id"`
	FacilityID     string `json:"facility_id,omitempty"`
	Approach       string `json:"approach"`
	Currency       string `json:"currency,omitempty"`

	Drawn   string `json:"drawn"`
	Nominal string `json:"nominal"`

	ProvisionAllocated    string `json:"provision_allocated"`
	ProvisionOnDrawn      string `json:"provision_on_drawn"`
	ProvisionOnNominal    string `json:"provision_on_nominal"`
	NominalAfterProvision string `json:"nominal_after_provision"`
	ProvisionDeducted     string `json:"provision_deducted"`

	CCFOriginal     string `json:"ccf_original"`
	CCFGuaranteed   string `json:"ccf_guaranteed"`
	CCFUnguaranteed string `json:"ccf_unguaranteed"`

	AdjustedCollateralValue string `json:"adjusted_collateral_value"`
	EffectivelySecured      string `json:"effectively_secured"`

	GuaranteedAmount  string `json:"guaranteed_amount"`
	GuaranteeRatio    string `json:"guarantee_ratio"`
	GuarantorApproach string `json:"guarantor_approach,omitempty"`

	EADPreCRM string `json:"ead_pre_crm"`
	EADFinal  string `json:"ead_final"`
}

type CalcErrorDTO struct {
	Category    string `json:"category"`
	MitigantID  string `json:"mitigant_id,omitempty"`
	Beneficiary string `json:"beneficiary,omitempty"`
	Reason      string `json:"reason"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRunSummaryDTO(snapshot string, s crm.Summary) RunSummaryDTO {
	counts := make(map[string]int, len(s.ErrorCounts))
	for cat, n := range s.ErrorCounts {
		counts[string(cat)] = n
	}
	return RunSummaryDTO{
		RunID:          s.RunID,
		Snapshot:       snapshot,
		ExposureCount:  s.ExposureCount,
		HeadroomCount:  s.HeadroomCount,
		TotalEADPreCRM: s.TotalEADPreCRM.String(),
		TotalEADFinal:  s.TotalEADFinal.String(),
		ErrorCounts:    counts,
	}
}

func toExposureDTO(e *crm.AdjustedExposure) ExposureDTO {
	return ExposureDTO{
		ID:             string(e.ID),
		CounterpartyID: string(e.CounterpartyID),
		FacilityID:     string(e.FacilityID),
		Approach:       string(e.Approach),
		Currency:       e.Currency,

		Drawn:   e.Drawn.String(),
		Nominal: e.Nominal.String(),

		ProvisionAllocated:    e.ProvisionAllocated.String(),
		ProvisionOnDrawn:      e.ProvisionOnDrawn.String(),
		ProvisionOnNominal:    e.ProvisionOnNominal.String(),
		NominalAfterProvision: e.NominalAfterProvision.String(),
		ProvisionDeducted:     e.ProvisionDeducted.String(),

		CCFOriginal:     e.CCFOriginal.String(),
		CCFGuaranteed:   e.CCFGuaranteed.String(),
		CCFUnguaranteed: e.CCFUnguaranteed.String(),

		AdjustedCollateralValue: e.AdjustedCollateralValue.String(),
		EffectivelySecured:      e.EffectivelySecured.String(),

		GuaranteedAmount:  e.GuaranteedAmount.String(),
		GuaranteeRatio:    e.GuaranteeRatio.String(),
		GuarantorApproach: string(e.GuarantorApproach),

		EADPreCRM: e.EADPreCRM.String(),
		EADFinal:  e.EADFinal.String(),
	}
}

func toCalcErrorDTOs(errs *engine.ErrorList) []CalcErrorDTO {
	out := make([]CalcErrorDTO, 0, errs.Len())
	for _, e := range errs.Errors {
		out = append(out, CalcErrorDTO{
			Category:    string(e.Category),
			MitigantID:  string(e.MitigantID),
			Beneficiary: string(e.NodeID),
			Reason:      e.Reason,
		})
	}
	return out
}
