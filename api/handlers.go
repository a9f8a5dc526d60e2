/*
handlers.go - HTTP handlers for the calculation service

PURPOSE:
  A thin operational wrapper around the waterfall: submit a run over a
  registered snapshot, fetch its summary, exposures and error list. The
  handlers never implement waterfall semantics; they only translate between
  HTTP and crm.Waterfall.

ERROR HANDLING:
  - 400: Invalid request body or unknown snapshot
  - 404: Unknown run ID
  - 500: Source or calculation failure (including fatal invariant breaches)

  Accumulated allocation/structural errors are NOT HTTP errors: a run with
  unmatched mitigants still completes, and the error list is part of its
  result.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/warp/capital-engine/crm"
	"github.com/warp/capital-engine/engine"
)

// SourceOpener opens the input source behind a snapshot reference. The
// server wires this to store/sqlite; tests wire an in-memory source.
type SourceOpener func(snapshot string) (engine.Source, func(), error)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Waterfall *crm.Waterfall
	Open      SourceOpener

	mu   sync.RWMutex
	runs map[string]*runRecord
}

type runRecord struct {
	snapshot string
	result   *crm.Result
}

// NewHandler creates a handler running the given waterfall configuration.
func NewHandler(w *crm.Waterfall, open SourceOpener) *Handler {
	return &Handler{
		Waterfall: w,
		Open:      open,
		runs:      make(map[string]*runRecord),
	}
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// SubmitRun executes a calculation synchronously and returns its summary.
func (h *Handler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	var req SubmitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Snapshot == "" {
		writeError(w, http.StatusBadRequest, "snapshot is required", nil)
		return
	}

	src, closeSrc, err := h.Open(req.Snapshot)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to open snapshot", err)
		return
	}
	defer closeSrc()

	result, err := h.Waterfall.Run(r.Context(), src)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Calculation failed", err)
		return
	}

	h.mu.Lock()
	h.runs[result.Summary.RunID] = &runRecord{snapshot: req.Snapshot, result: result}
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, toRunSummaryDTO(req.Snapshot, result.Summary))
}

// ListRuns returns the summaries of all completed runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	summaries := make([]RunSummaryDTO, 0, len(h.runs))
	for _, rec := range h.runs {
		summaries = append(summaries, toRunSummaryDTO(rec.snapshot, rec.result.Summary))
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetRun returns one run's summary.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRunSummaryDTO(rec.snapshot, rec.result.Summary))
}

// GetRunExposures returns the adjusted exposure dataset of one run.
func (h *Handler) GetRunExposures(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	dtos := make([]ExposureDTO, 0, len(rec.result.Exposures))
	for _, e := range rec.result.Exposures {
		dtos = append(dtos, toExposureDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRunErrors returns the accumulated allocation/structural errors.
func (h *Handler) GetRunErrors(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toCalcErrorDTOs(rec.result.Errors))
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) lookup(id string) (*runRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.runs[id]
	return rec, ok
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
