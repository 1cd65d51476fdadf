package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielGPGT/tour-ops-saas-app-sub001/draft"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type testEnv struct {
	router    http.Handler
	sink      *draft.MemorySink
	contracts *httptest.Server

	// The fake contracts service: set reply before calling submit.
	contractsStatus int
	contractsBody   string
	received        []DraftDTO
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		sink:            draft.NewMemorySink(),
		contractsStatus: http.StatusCreated,
		contractsBody:   `{"id": "contract-123"}`,
	}

	env.contracts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var d DraftDTO
		_ = json.NewDecoder(r.Body).Decode(&d)
		env.received = append(env.received, d)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(env.contractsStatus)
		fmt.Fprint(w, env.contractsBody)
	}))
	t.Cleanup(env.contracts.Close)

	sessions := NewSessionRegistry(env.sink, draft.WithDelay(time.Hour))
	t.Cleanup(sessions.CloseAll)

	h := NewHandler(sessions, nil, NewContractsClient(env.contracts.URL))
	env.router = NewRouter(h)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}

func (env *testEnv) createSession(t *testing.T) SessionDTO {
	t.Helper()
	rec := env.do(t, "POST", "/api/sessions", nil)
	wantStatus(t, rec, http.StatusCreated)
	return decode[SessionDTO](t, rec)
}

func (env *testEnv) putSection(t *testing.T, sessionID, section string, body any) SessionDTO {
	t.Helper()
	rec := env.do(t, "PUT", "/api/sessions/"+sessionID+"/sections/"+section, body)
	wantStatus(t, rec, http.StatusOK)
	return decode[SessionDTO](t, rec)
}

func testContract() ContractDTO {
	return ContractDTO{
		SupplierID:     "sup-1",
		ContractNumber: "HTL-2025-001",
		ContractName:   "Grand Hotel Summer Block",
		Currency:       "EUR",
		ValidFrom:      "2025-06-01",
		ValidTo:        "2025-09-30",
	}
}

func testAllocation() AllocationDTO {
	return AllocationDTO{
		AllocationName: "Deluxe Double",
		AllocationType: "allotment",
		TotalQuantity:  30,
		ValidFrom:      "2025-06-01",
		ValidTo:        "2025-06-30",
	}
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

func TestCreateSession_ReturnsEmptyCleanDraft(t *testing.T) {
	env := newTestEnv(t)

	sess := env.createSession(t)
	if sess.ID == "" {
		t.Fatal("session has no id")
	}
	if sess.Dirty {
		t.Error("fresh session must not be dirty")
	}
	if sess.Draft.Contract != nil || len(sess.Draft.Allocations) != 0 {
		t.Error("fresh draft must be empty")
	}
}

func TestGetSession_UnknownID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "GET", "/api/sessions/nope", nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestDeleteSession_RemovesIt(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	rec := env.do(t, "DELETE", "/api/sessions/"+sess.ID, nil)
	wantStatus(t, rec, http.StatusNoContent)

	rec = env.do(t, "GET", "/api/sessions/"+sess.ID, nil)
	wantStatus(t, rec, http.StatusNotFound)
}

// =============================================================================
// SECTION UPDATES
// =============================================================================

func TestUpdateSection_ContractRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	updated := env.putSection(t, sess.ID, "contract", testContract())

	if !updated.Dirty {
		t.Error("section update must mark the draft dirty")
	}
	if updated.Draft.Contract == nil || updated.Draft.Contract.ContractNumber != "HTL-2025-001" {
		t.Errorf("contract not stored: %+v", updated.Draft.Contract)
	}
	if updated.Draft.Contract.ValidFrom != "2025-06-01" {
		t.Errorf("valid_from = %q", updated.Draft.Contract.ValidFrom)
	}
}

func TestUpdateSection_AllocationsAssignIDs(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	updated := env.putSection(t, sess.ID, "allocations", []AllocationDTO{testAllocation()})

	if len(updated.Draft.Allocations) != 1 {
		t.Fatalf("allocations = %d, want 1", len(updated.Draft.Allocations))
	}
	if updated.Draft.Allocations[0].ID == "" {
		t.Error("allocation was not assigned an id")
	}
}

func TestUpdateSection_UnknownSection(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	rec := env.do(t, "PUT", "/api/sessions/"+sess.ID+"/sections/bogus", map[string]string{})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestUpdateSection_BadDate(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	c := testContract()
	c.ValidFrom = "not-a-date"
	rec := env.do(t, "PUT", "/api/sessions/"+sess.ID+"/sections/contract", c)
	wantStatus(t, rec, http.StatusBadRequest)
}

// =============================================================================
// STEP ADVANCEMENT
// =============================================================================

func TestAdvanceStep_IncompleteContractBlocks(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	rec := env.do(t, "POST", "/api/sessions/"+sess.ID+"/advance", map[string]int{"step": 0})
	wantStatus(t, rec, http.StatusBadRequest)

	resp := decode[ErrorResponse](t, rec)
	if resp.Code != "step_incomplete" {
		t.Errorf("code = %q, want step_incomplete", resp.Code)
	}
	if resp.Details == nil {
		t.Error("expected the problem list in details")
	}
}

func TestAdvanceStep_CompleteContractPasses(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)
	env.putSection(t, sess.ID, "contract", testContract())

	rec := env.do(t, "POST", "/api/sessions/"+sess.ID+"/advance", map[string]int{"step": 0})
	wantStatus(t, rec, http.StatusOK)
}

// =============================================================================
// COST EDITS
// =============================================================================

func TestEditAllocationCost_DerivesOtherSide(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)
	updated := env.putSection(t, sess.ID, "allocations", []AllocationDTO{testAllocation()})
	allocID := updated.Draft.Allocations[0].ID

	rec := env.do(t, "POST",
		"/api/sessions/"+sess.ID+"/allocations/"+allocID+"/cost",
		CostEditRequest{Field: "total_cost", Value: 3000})
	wantStatus(t, rec, http.StatusOK)

	alloc := decode[AllocationDTO](t, rec)
	if alloc.TotalCost != 3000 {
		t.Errorf("total_cost = %v, want 3000", alloc.TotalCost)
	}
	if alloc.CostPerUnit != 100 {
		t.Errorf("cost_per_unit = %v, want 100 (3000 / 30 units)", alloc.CostPerUnit)
	}
}

func TestEditAllocationCost_UnknownAllocation(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	rec := env.do(t, "POST",
		"/api/sessions/"+sess.ID+"/allocations/missing/cost",
		CostEditRequest{Field: "total_cost", Value: 100})
	wantStatus(t, rec, http.StatusNotFound)
}

// =============================================================================
// RELEASES
// =============================================================================

func addAllocation(t *testing.T, env *testEnv, sessionID string) string {
	t.Helper()
	updated := env.putSection(t, sessionID, "allocations", []AllocationDTO{testAllocation()})
	return updated.Draft.Allocations[0].ID
}

func TestReleaseLifecycle(t *testing.T) {
	// GIVEN: An allocation of 30 units
	// WHEN: Adding a release and setting it to 50%
	// THEN: The quantity derives to 15 and the summary reflects it

	env := newTestEnv(t)
	sess := env.createSession(t)
	allocID := addAllocation(t, env, sess.ID)
	base := "/api/sessions/" + sess.ID + "/allocations/" + allocID

	rec := env.do(t, "POST", base+"/releases", nil)
	wantStatus(t, rec, http.StatusCreated)
	rel := decode[ReleaseDTO](t, rec)
	if rel.ID == "" {
		t.Fatal("release has no id")
	}
	if rel.ReleaseType != "percentage" {
		t.Errorf("default type = %q, want percentage", rel.ReleaseType)
	}

	rec = env.do(t, "PUT", base+"/releases/"+rel.ID,
		ReleaseUpdateRequest{Field: "release_percentage", Value: 50})
	wantStatus(t, rec, http.StatusOK)
	alloc := decode[AllocationDTO](t, rec)
	if q := alloc.Releases[0].Quantity; q == nil || *q != 15 {
		t.Errorf("derived quantity = %v, want 15", q)
	}

	rec = env.do(t, "GET", base+"/releases/summary", nil)
	wantStatus(t, rec, http.StatusOK)
	sum := decode[ReleaseSummaryDTO](t, rec)
	if sum.ReleasedQuantity != 15 || sum.RemainingQuantity != 15 {
		t.Errorf("summary = %+v, want 15 released / 15 remaining", sum)
	}

	rec = env.do(t, "DELETE", base+"/releases/"+rel.ID, nil)
	wantStatus(t, rec, http.StatusNoContent)
}

func TestUpdateRelease_UnknownRelease(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)
	allocID := addAllocation(t, env, sess.ID)

	rec := env.do(t, "PUT",
		"/api/sessions/"+sess.ID+"/allocations/"+allocID+"/releases/missing",
		ReleaseUpdateRequest{Field: "notes", Value: "x"})
	wantStatus(t, rec, http.StatusNotFound)
}

func TestSuggestReleases_StandardCadence(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)
	allocID := addAllocation(t, env, sess.ID)

	rec := env.do(t, "POST",
		"/api/sessions/"+sess.ID+"/allocations/"+allocID+"/releases/suggest", nil)
	wantStatus(t, rec, http.StatusOK)

	alloc := decode[AllocationDTO](t, rec)
	if len(alloc.Releases) != 3 {
		t.Fatalf("releases = %d, want 3", len(alloc.Releases))
	}
	if alloc.Releases[2].ReleaseType != "remaining" {
		t.Errorf("final release type = %q, want remaining", alloc.Releases[2].ReleaseType)
	}
	if !alloc.Releases[2].PenaltyApplies {
		t.Error("final release must carry the penalty flag")
	}
}

func TestSuggestReleases_MissingPreconditions(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	a := testAllocation()
	a.TotalQuantity = 0
	updated := env.putSection(t, sess.ID, "allocations", []AllocationDTO{a})

	rec := env.do(t, "POST",
		"/api/sessions/"+sess.ID+"/allocations/"+updated.Draft.Allocations[0].ID+"/releases/suggest", nil)
	wantStatus(t, rec, http.StatusConflict)
}

// =============================================================================
// WARNINGS
// =============================================================================

func TestGetWarnings_InvertedDates(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	c := testContract()
	c.ValidFrom, c.ValidTo = c.ValidTo, c.ValidFrom
	env.putSection(t, sess.ID, "contract", c)

	rec := env.do(t, "GET", "/api/sessions/"+sess.ID+"/warnings", nil)
	wantStatus(t, rec, http.StatusOK)

	warnings := decode[[]WarningDTO](t, rec)
	if len(warnings) != 1 || warnings[0].Code != "contract_dates_inverted" {
		t.Errorf("warnings = %+v", warnings)
	}
}

// =============================================================================
// EXTRACTION
// =============================================================================

const extractionPayload = `{
	"success": true,
	"confidence": 0.9,
	"extracted": {
		"supplier_id": "sup-1",
		"contract_number": "HTL-2025-001",
		"contract_name": "Extracted Name",
		"contract_dates": {"valid_from": "2025-06-01", "valid_to": "2025-09-30"},
		"payment_schedule": [
			{"payment_number": 1, "due_date": "2025-05-01", "amount": 1000, "description": "Deposit"}
		],
		"room_requirements": [
			{"room_type": "Deluxe Double", "quantity": 20, "nights": 3, "base_rate": 150, "surcharge": 10}
		]
	}
}`

func (env *testEnv) postExtraction(t *testing.T, sessionID, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/sessions/"+sessionID+"/extraction", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestApplyExtraction_PopulatesDraft(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	rec := env.postExtraction(t, sess.ID, extractionPayload)
	wantStatus(t, rec, http.StatusOK)

	res := decode[ExtractionResultDTO](t, rec)
	if !res.Changed {
		t.Error("first apply must report changed")
	}
	if res.Draft.Contract == nil || res.Draft.Contract.ContractName != "Extracted Name" {
		t.Errorf("contract = %+v", res.Draft.Contract)
	}
	if len(res.Draft.Allocations) != 1 || len(res.Draft.Payments) != 1 {
		t.Errorf("allocations = %d, payments = %d, want 1/1",
			len(res.Draft.Allocations), len(res.Draft.Payments))
	}
}

func TestApplyExtraction_ReplayIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	env.postExtraction(t, sess.ID, extractionPayload)
	rec := env.postExtraction(t, sess.ID, extractionPayload)
	wantStatus(t, rec, http.StatusOK)

	res := decode[ExtractionResultDTO](t, rec)
	if res.Changed {
		t.Error("replaying an identical payload must report changed=false")
	}
	if len(res.Draft.Allocations) != 1 {
		t.Errorf("allocations duplicated on replay: %d", len(res.Draft.Allocations))
	}
}

func TestApplyExtraction_FailureLeavesDraftUntouched(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)
	env.putSection(t, sess.ID, "contract", testContract())

	rec := env.postExtraction(t, sess.ID, `{"success": false, "extracted": {"contract_name": "Ignored"}}`)
	wantStatus(t, rec, http.StatusUnprocessableEntity)

	got := decode[SessionDTO](t, env.do(t, "GET", "/api/sessions/"+sess.ID, nil))
	if got.Draft.Contract.ContractName != "Grand Hotel Summer Block" {
		t.Errorf("draft mutated by failed extraction: %q", got.Draft.Contract.ContractName)
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

func setupSubmittableSession(t *testing.T, env *testEnv) string {
	t.Helper()
	sess := env.createSession(t)
	env.putSection(t, sess.ID, "contract", testContract())
	env.putSection(t, sess.ID, "allocations", []AllocationDTO{testAllocation()})
	return sess.ID
}

func TestSubmit_IncompleteDraftRejected(t *testing.T) {
	env := newTestEnv(t)
	sess := env.createSession(t)

	rec := env.do(t, "POST", "/api/sessions/"+sess.ID+"/submit", nil)
	wantStatus(t, rec, http.StatusBadRequest)

	resp := decode[ErrorResponse](t, rec)
	if resp.Code != "draft_incomplete" {
		t.Errorf("code = %q, want draft_incomplete", resp.Code)
	}
	if len(env.received) != 0 {
		t.Error("incomplete draft must never reach the contracts API")
	}
}

func TestSubmit_Success(t *testing.T) {
	env := newTestEnv(t)
	id := setupSubmittableSession(t, env)

	rec := env.do(t, "POST", "/api/sessions/"+id+"/submit", nil)
	wantStatus(t, rec, http.StatusCreated)

	resp := decode[SubmitResponseDTO](t, rec)
	if resp.ContractID != "contract-123" {
		t.Errorf("contract_id = %q", resp.ContractID)
	}

	if len(env.received) != 1 {
		t.Fatalf("contracts API calls = %d, want 1", len(env.received))
	}
	if env.received[0].Contract.ContractNumber != "HTL-2025-001" {
		t.Errorf("submitted contract = %+v", env.received[0].Contract)
	}

	// The session is gone after a successful submit.
	wantStatus(t, env.do(t, "GET", "/api/sessions/"+id, nil), http.StatusNotFound)

	// The final snapshot was flushed before the POST.
	if saves := env.sink.Saves(); len(saves) == 0 {
		t.Error("submit must flush a final snapshot")
	}
}

func TestSubmit_UpstreamRejectionPassedThrough(t *testing.T) {
	// A contracts-API rejection surfaces its status and message verbatim and
	// keeps the session alive for correction.
	env := newTestEnv(t)
	id := setupSubmittableSession(t, env)
	env.contractsStatus = http.StatusConflict
	env.contractsBody = `{"error": "duplicate contract number"}`

	rec := env.do(t, "POST", "/api/sessions/"+id+"/submit", nil)
	wantStatus(t, rec, http.StatusConflict)

	resp := decode[ErrorResponse](t, rec)
	if resp.Error != "duplicate contract number" {
		t.Errorf("error = %q, want upstream message verbatim", resp.Error)
	}

	wantStatus(t, env.do(t, "GET", "/api/sessions/"+id, nil), http.StatusOK)
}

func TestSubmit_ContractsAPIUnreachable(t *testing.T) {
	env := newTestEnv(t)
	id := setupSubmittableSession(t, env)
	env.contracts.Close()

	rec := env.do(t, "POST", "/api/sessions/"+id+"/submit", nil)
	wantStatus(t, rec, http.StatusBadGateway)
}
