/*
handlers.go - HTTP API handlers for the contract wizard

PURPOSE:
  Exposes the draft engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the draft engine.

ENDPOINTS:
  Sessions:
    POST   /api/sessions                    Open a wizard session
    GET    /api/sessions/{id}               Get session + draft
    DELETE /api/sessions/{id}               Discard session (no save)
    PUT    /api/sessions/{id}/sections/{section}  Replace one draft section
    POST   /api/sessions/{id}/advance       Validate and advance a step
    GET    /api/sessions/{id}/warnings      Non-fatal date/release advisories
    POST   /api/sessions/{id}/extraction    Apply an extraction payload
    POST   /api/sessions/{id}/submit        Submit to the contracts API

  Allocations:
    POST   .../allocations/{aid}/cost                Edit one cost side
    POST   .../allocations/{aid}/releases            Add a release
    PUT    .../allocations/{aid}/releases/{rid}      Edit one release field
    DELETE .../allocations/{aid}/releases/{rid}      Remove a release
    POST   .../allocations/{aid}/releases/suggest    Generate the 50/25/rem cadence
    GET    .../allocations/{aid}/releases/summary    Released/remaining aggregates

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Session/allocation/release not found
  - 502: Contracts API unreachable
  Upstream contracts-API rejections pass their status and message through
  verbatim.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielGPGT/tour-ops-saas-app-sub001/draft"
	"github.com/danielGPGT/tour-ops-saas-app-sub001/extract"
	"github.com/danielGPGT/tour-ops-saas-app-sub001/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Sessions  *SessionRegistry
	Store     *sqlite.Store // optional; nil disables submission records
	Contracts *ContractsClient
	Logger    *slog.Logger
}

// NewHandler wires the handler with its dependencies.
func NewHandler(sessions *SessionRegistry, store *sqlite.Store, contracts *ContractsClient) *Handler {
	return &Handler{
		Sessions:  sessions,
		Store:     store,
		Contracts: contracts,
		Logger:    slog.Default(),
	}
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// CreateSession opens a new wizard session with an empty draft.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.Create()
	h.Logger.Info("wizard session opened", "session", sess.ID)
	writeJSON(w, http.StatusCreated, h.sessionDTO(sess))
}

// GetSession returns the session and its current draft.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.sessionDTO(sess))
}

// DeleteSession discards the session. The pending auto-save timer is
// cancelled without saving; discarding unsaved changes is the caller's
// explicit, confirmed decision.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Sessions.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, "Session not found", err)
		return
	}
	h.Logger.Info("wizard session discarded", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SECTION UPDATES
// =============================================================================

// UpdateSection replaces one draft section wholesale. The body is the full
// updated sub-object for the section; this is not a deep merge.
func (h *Handler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	section := draft.Section(chi.URLParam(r, "section"))
	dec := json.NewDecoder(r.Body)

	switch section {
	case draft.SectionContract:
		var dto ContractDTO
		if err := dec.Decode(&dto); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid contract body", err)
			return
		}
		fields, err := fromContractDTO(dto)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid contract fields", err)
			return
		}
		sess.Store.UpdateContract(&fields)

	case draft.SectionAllocations:
		var dtos []AllocationDTO
		if err := dec.Decode(&dtos); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid allocations body", err)
			return
		}
		allocs := make([]draft.Allocation, len(dtos))
		for i, dto := range dtos {
			if dto.ID == "" {
				dto.ID = uuid.NewString()
			}
			a, err := fromAllocationDTO(dto)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid allocation", err)
				return
			}
			allocs[i] = a
		}
		sess.Store.UpdateAllocations(allocs)

	case draft.SectionRates:
		var dtos []RateDTO
		if err := dec.Decode(&dtos); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid rates body", err)
			return
		}
		rates := make([]draft.Rate, len(dtos))
		for i, dto := range dtos {
			if dto.ID == "" {
				dto.ID = uuid.NewString()
			}
			rate, err := fromRateDTO(dto)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid rate", err)
				return
			}
			rates[i] = rate
		}
		sess.Store.UpdateRates(rates)

	case draft.SectionPayments:
		var dtos []PaymentDTO
		if err := dec.Decode(&dtos); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payments body", err)
			return
		}
		payments := make([]draft.Payment, len(dtos))
		for i, dto := range dtos {
			p, err := fromPaymentDTO(dto)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid payment", err)
				return
			}
			payments[i] = p
		}
		sess.Store.UpdatePayments(payments)

	default:
		writeError(w, http.StatusBadRequest, "Unknown section", draft.ErrUnknownSection)
		return
	}

	writeJSON(w, http.StatusOK, h.sessionDTO(sess))
}

// AdvanceStep validates the given step and, if it passes, records the new
// current step. Validation failures block navigation with a 400 listing
// every problem; the user corrects and retries.
func (h *Handler) AdvanceStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Step int `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	d := sess.Store.Draft()
	if err := draft.ValidateStep(&d, draft.Step(req.Step)); err != nil {
		var sv *draft.StepValidationError
		if errors.As(err, &sv) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   sv.Error(),
				Code:    "step_incomplete",
				Details: sv.Problems,
			})
			return
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	sess.Scheduler.SetStep(draft.Step(req.Step + 1))
	writeJSON(w, http.StatusOK, h.sessionDTO(sess))
}

// GetWarnings surfaces the non-fatal date and release advisories.
func (h *Handler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	d := sess.Store.Draft()
	writeJSON(w, http.StatusOK, toWarningDTOs(draft.DateWarnings(&d)))
}

// =============================================================================
// ALLOCATION COST + RELEASES
// =============================================================================

// EditAllocationCost edits one side of the cost relationship and derives the
// other when the allocation has a quantity.
func (h *Handler) EditAllocationCost(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	allocID := chi.URLParam(r, "allocationID")

	var req CostEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err := sess.Store.MutateAllocation(allocID, func(a *draft.Allocation) error {
		return draft.ApplyCostEdit(a, draft.CostField(req.Field), decimal.NewFromFloat(req.Value))
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	alloc, _ := sess.Store.Allocation(allocID)
	writeJSON(w, http.StatusOK, toAllocationDTO(alloc))
}

// AddRelease appends a fresh release to the allocation.
func (h *Handler) AddRelease(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	allocID := chi.URLParam(r, "allocationID")

	var created draft.Release
	err := sess.Store.MutateAllocation(allocID, func(a *draft.Allocation) error {
		created = *draft.AddRelease(a)
		return nil
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReleaseDTO(created))
}

// UpdateRelease edits one field of a release, firing the percentage/quantity
// derivation where applicable.
func (h *Handler) UpdateRelease(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	allocID := chi.URLParam(r, "allocationID")
	releaseID := chi.URLParam(r, "releaseID")

	var req ReleaseUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err := sess.Store.MutateAllocation(allocID, func(a *draft.Allocation) error {
		return draft.UpdateRelease(a, releaseID, draft.ReleaseField(req.Field), req.Value)
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	alloc, _ := sess.Store.Allocation(allocID)
	writeJSON(w, http.StatusOK, toAllocationDTO(alloc))
}

// RemoveRelease deletes a release. No cascading effects.
func (h *Handler) RemoveRelease(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	allocID := chi.URLParam(r, "allocationID")
	releaseID := chi.URLParam(r, "releaseID")

	err := sess.Store.MutateAllocation(allocID, func(a *draft.Allocation) error {
		return draft.RemoveRelease(a, releaseID)
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SuggestReleases replaces the allocation's schedule with the standard
// cascading cadence. 409 when the allocation lacks the preconditions.
func (h *Handler) SuggestReleases(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	allocID := chi.URLParam(r, "allocationID")

	generated := false
	err := sess.Store.MutateAllocation(allocID, func(a *draft.Allocation) error {
		generated = draft.Suggest(a)
		return nil
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !generated {
		writeError(w, http.StatusConflict,
			"Allocation needs a start date and a total quantity before a schedule can be suggested", nil)
		return
	}

	alloc, _ := sess.Store.Allocation(allocID)
	writeJSON(w, http.StatusOK, toAllocationDTO(alloc))
}

// ReleaseSummary reports released/remaining aggregates and advisories.
func (h *Handler) ReleaseSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	alloc, err := sess.Store.Allocation(chi.URLParam(r, "allocationID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ReleaseSummaryDTO{
		ReleasedQuantity:  draft.ReleasedQuantity(&alloc),
		RemainingQuantity: draft.RemainingQuantity(&alloc),
		ReleasedPercent:   draft.ReleasedPercent(&alloc),
		Warnings:          toWarningDTOs(draft.CheckReleases(&alloc)),
	})
}

// =============================================================================
// EXTRACTION
// =============================================================================

// ApplyExtraction receives an extraction-service result and merges it into
// the draft. The merge is diff-based and idempotent: replaying the same
// payload with no intervening edits reports changed=false and does not touch
// the dirty flag.
func (h *Handler) ApplyExtraction(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var res extract.Result
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		extractionFailuresTotal.Inc()
		writeError(w, http.StatusBadRequest, "Invalid extraction payload", err)
		return
	}
	if !res.Success {
		// Failed extraction leaves the draft untouched; the user may retry
		// or proceed manually. Previously merged data is never lost.
		extractionFailuresTotal.Inc()
		writeError(w, http.StatusUnprocessableEntity, "Extraction did not succeed", nil)
		return
	}

	changed := draft.ApplyExtraction(sess.Store, &res.Extracted)
	if changed {
		mergesTotal.WithLabelValues("changed").Inc()
	} else {
		mergesTotal.WithLabelValues("noop").Inc()
	}
	h.Logger.Info("extraction applied",
		"session", sess.ID, "changed", changed, "confidence", res.Confidence)

	d := sess.Store.Draft()
	writeJSON(w, http.StatusOK, ExtractionResultDTO{
		Changed:  changed,
		Warnings: res.Warnings,
		Draft:    toDraftDTO(d),
		Advisory: toWarningDTOs(draft.DateWarnings(&d)),
	})
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates the draft, flushes a final snapshot, POSTs the draft to
// the external contracts API, records the submission, and resets the
// session. Upstream rejections are surfaced verbatim.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	d := sess.Store.Draft()
	for _, step := range []draft.Step{draft.StepContract, draft.StepAllocations} {
		if err := draft.ValidateStep(&d, step); err != nil {
			var sv *draft.StepValidationError
			if errors.As(err, &sv) {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{
					Error:   sv.Error(),
					Code:    "draft_incomplete",
					Details: sv.Problems,
				})
				return
			}
			writeError(w, http.StatusBadRequest, "Validation failed", err)
			return
		}
	}

	if err := sess.Scheduler.Flush(ctx); err != nil {
		h.Logger.Warn("final snapshot flush failed", "session", sess.ID, "err", err)
	}

	contractID, err := h.Contracts.Create(ctx, toDraftDTO(d))
	if err != nil {
		var apiErr *ContractsAPIError
		if errors.As(err, &apiErr) {
			submissionsTotal.WithLabelValues("rejected").Inc()
			writeJSON(w, apiErr.StatusCode, ErrorResponse{Error: apiErr.Message})
			return
		}
		submissionsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadGateway, "Contracts API unreachable", err)
		return
	}

	if h.Store != nil {
		rec := sqlite.SubmittedContract{
			ID:          contractID,
			SessionID:   sess.ID,
			SubmittedAt: time.Now().UTC(),
			Draft:       d,
		}
		if d.Contract != nil {
			rec.ContractNumber = d.Contract.ContractNumber
			rec.ContractName = d.Contract.ContractName
		}
		if err := h.Store.RecordSubmission(ctx, rec); err != nil {
			h.Logger.Warn("failed to record submission", "session", sess.ID, "err", err)
		}
	}

	// Successful submit discards the draft.
	sess.Store.Reset()
	_ = h.Sessions.Delete(sess.ID)
	submissionsTotal.WithLabelValues("accepted").Inc()
	h.Logger.Info("contract submitted", "session", sess.ID, "contract", contractID)

	writeJSON(w, http.StatusCreated, SubmitResponseDTO{ContractID: contractID, Status: "created"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*draft.Session, bool) {
	sess, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found", err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) sessionDTO(sess *draft.Session) SessionDTO {
	return SessionDTO{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt.Format(time.RFC3339),
		Dirty:     sess.Store.Dirty(),
		Draft:     toDraftDTO(sess.Store.Draft()),
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case draft.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case draft.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
