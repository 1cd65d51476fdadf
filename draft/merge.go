/*
merge.go - Extraction payload reconciliation

PURPOSE:
  One-shot, idempotent, edit-preserving merge of an external extraction
  payload into the draft's contract and payment sections, plus the sibling
  allocation-population step for room requirements.

MERGE SEMANTICS:
  For each target field the candidate value is computed (straight copy for
  scalars, nested-path lookup for dated fields, shape transformation for
  payment_schedule -> payments). A field is included in the update ONLY if
  the candidate is defined AND differs from the current value (deep equality
  for arrays). If nothing differs the merge returns nil, so callers can skip
  the dirty-state transition entirely.

  Comparison is by value only, not edit provenance: a current value the user
  typed is still overwritten when the extraction disagrees. Running the same
  payload twice with no intervening edits is a guaranteed no-op the second
  time.

INVOCATION:
  Merging is an explicit, imperative call triggered by the extraction
  completion event (ApplyExtraction). There is no reactive watcher, so
  re-entrant or repeated firing is impossible.

DEFENSIVE DECODING:
  A malformed or partially-absent payload degrades to "fewer fields merged",
  never an error. Unparseable dates are skipped field-by-field.

SEE ALSO:
  - extract: Payload types
  - store.go: Section updates the merge result is applied through
*/
package draft

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielGPGT/tour-ops-saas-app-sub001/extract"
)

// ContractUpdates is a partial update of the contract section. A nil field
// means "no change proposed".
type ContractUpdates struct {
	SupplierID         *string
	ContractNumber     *string
	ContractName       *string
	ContractType       *string
	Currency           *string
	ValidFrom          *Date
	ValidTo            *Date
	SignatureDeadline  *Date
	TotalValue         *decimal.Decimal
	PaymentTerms       *string
	CancellationPolicy *string
	AttritionPolicy    *string
	CommissionRate     *decimal.Decimal
	SpecialTerms       []string
}

// =============================================================================
// CONTRACT MERGE
// =============================================================================

// MergeContract computes the contract-section updates implied by an
// extraction payload. Returns nil when no field would change. current may be
// nil (section not started yet).
func MergeContract(current *ContractFields, ext *extract.Extracted) *ContractUpdates {
	if ext == nil {
		return nil
	}
	cur := ContractFields{}
	if current != nil {
		cur = *current
	}

	u := &ContractUpdates{}
	changed := false

	mergeString(ext.SupplierID, cur.SupplierID, &u.SupplierID, &changed)
	mergeString(ext.ContractNumber, cur.ContractNumber, &u.ContractNumber, &changed)
	mergeString(ext.ContractName, cur.ContractName, &u.ContractName, &changed)
	mergeString(ext.ContractType, cur.ContractType, &u.ContractType, &changed)
	mergeString(ext.Currency, cur.Currency, &u.Currency, &changed)
	mergeString(ext.PaymentTerms, cur.PaymentTerms, &u.PaymentTerms, &changed)
	mergeString(ext.CancellationPolicy, cur.CancellationPolicy, &u.CancellationPolicy, &changed)
	mergeString(ext.AttritionPolicy, cur.AttritionPolicy, &u.AttritionPolicy, &changed)

	mergeDecimal(ext.TotalValue, cur.TotalValue, &u.TotalValue, &changed)
	mergeDecimal(ext.CommissionRate, cur.CommissionRate, &u.CommissionRate, &changed)

	if ext.ContractDates != nil {
		mergeDate(ext.ContractDates.ValidFrom, cur.ValidFrom, &u.ValidFrom, &changed)
		mergeDate(ext.ContractDates.ValidTo, cur.ValidTo, &u.ValidTo, &changed)
		mergeDate(ext.ContractDates.SignatureDeadline, cur.SignatureDeadline, &u.SignatureDeadline, &changed)
	}

	if ext.SpecialTerms != nil && !stringSlicesEqual(ext.SpecialTerms, cur.SpecialTerms) {
		u.SpecialTerms = append([]string{}, ext.SpecialTerms...)
		changed = true
	}

	if !changed {
		return nil
	}
	return u
}

// Apply returns a copy of cur with the proposed updates applied.
func (u *ContractUpdates) Apply(cur ContractFields) ContractFields {
	out := cur.Clone()
	if u == nil {
		return out
	}
	if u.SupplierID != nil {
		out.SupplierID = *u.SupplierID
	}
	if u.ContractNumber != nil {
		out.ContractNumber = *u.ContractNumber
	}
	if u.ContractName != nil {
		out.ContractName = *u.ContractName
	}
	if u.ContractType != nil {
		out.ContractType = *u.ContractType
	}
	if u.Currency != nil {
		out.Currency = *u.Currency
	}
	if u.ValidFrom != nil {
		out.ValidFrom = *u.ValidFrom
	}
	if u.ValidTo != nil {
		out.ValidTo = *u.ValidTo
	}
	if u.SignatureDeadline != nil {
		out.SignatureDeadline = *u.SignatureDeadline
	}
	if u.TotalValue != nil {
		out.TotalValue = *u.TotalValue
	}
	if u.PaymentTerms != nil {
		out.PaymentTerms = *u.PaymentTerms
	}
	if u.CancellationPolicy != nil {
		out.CancellationPolicy = *u.CancellationPolicy
	}
	if u.AttritionPolicy != nil {
		out.AttritionPolicy = *u.AttritionPolicy
	}
	if u.SpecialTerms != nil {
		out.SpecialTerms = append([]string{}, u.SpecialTerms...)
	}
	return out
}

func mergeString(candidate *string, current string, target **string, changed *bool) {
	if candidate != nil && *candidate != current {
		v := *candidate
		*target = &v
		*changed = true
	}
}

func mergeDecimal(candidate *float64, current decimal.Decimal, target **decimal.Decimal, changed *bool) {
	if candidate == nil {
		return
	}
	v := decimal.NewFromFloat(*candidate)
	if !v.Equal(current) {
		*target = &v
		*changed = true
	}
}

func mergeDate(candidate *string, current Date, target **Date, changed *bool) {
	if candidate == nil {
		return
	}
	d, err := ParseDate(*candidate)
	if err != nil || d.IsZero() {
		// Unparseable date: degrade to "field not merged".
		return
	}
	if !d.Equal(current) {
		*target = &d
		*changed = true
	}
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// =============================================================================
// PAYMENT SCHEDULE TRANSFORMATION
// =============================================================================

// MergePayments transforms payment_schedule entries into Payment records and
// proposes them as the new payments section. Returns (nil, false) when the
// transformed list deep-equals the current one, so a repeated merge is a
// no-op.
func MergePayments(current []Payment, schedule []extract.ScheduledPayment) ([]Payment, bool) {
	if len(schedule) == 0 {
		return nil, false
	}

	candidate := make([]Payment, len(schedule))
	for i, sp := range schedule {
		due, err := ParseDate(sp.DueDate)
		if err != nil {
			due = Date{}
		}
		p := Payment{
			ID:            fmt.Sprintf("payment-%d", sp.PaymentNumber),
			PaymentNumber: sp.PaymentNumber,
			DueDate:       due,
			AmountDue:     decimal.NewFromFloat(sp.Amount),
			Description:   sp.Description,
			Status:        PaymentPending,
		}
		if sp.Percentage != nil {
			pct := decimal.NewFromFloat(*sp.Percentage)
			p.Percentage = &pct
		}
		candidate[i] = p
	}

	if paymentsEqual(current, candidate) {
		return nil, false
	}
	return candidate, true
}

// paymentsEqual compares by serialized value. Decimal internals vary with
// exponent, so structural comparison would report false differences.
func paymentsEqual(a, b []Payment) bool {
	if len(a) != len(b) {
		return false
	}
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aj) == string(bj)
}

// =============================================================================
// ALLOCATION POPULATION (sibling step, not part of the merge proper)
// =============================================================================

// AllocationsFromRoomRequirements builds one allotment allocation per room
// requirement: total_cost = total_rate * quantity * nights, cost_per_unit =
// total_rate, and an auto-built notes string summarizing base rate and
// surcharge. Release-schedule entries from the payload are attached to each
// allocation, with quantities derived per allocation.
func AllocationsFromRoomRequirements(ext *extract.Extracted) []Allocation {
	if ext == nil || len(ext.RoomRequirements) == 0 {
		return nil
	}

	var validFrom, validTo Date
	if ext.ContractDates != nil {
		if ext.ContractDates.ValidFrom != nil {
			validFrom, _ = ParseDate(*ext.ContractDates.ValidFrom)
		}
		if ext.ContractDates.ValidTo != nil {
			validTo, _ = ParseDate(*ext.ContractDates.ValidTo)
		}
	}

	allocs := make([]Allocation, 0, len(ext.RoomRequirements))
	for _, rr := range ext.RoomRequirements {
		rate := decimal.NewFromFloat(rr.TotalRate)
		a := Allocation{
			ID:             uuid.NewString(),
			AllocationName: rr.RoomType,
			AllocationType: AllocationAllotment,
			TotalQuantity:  rr.Quantity,
			ValidFrom:      validFrom,
			ValidTo:        validTo,
			TotalCost: rate.
				Mul(decimal.NewFromInt(int64(rr.Quantity))).
				Mul(decimal.NewFromInt(int64(rr.Nights))),
			CostPerUnit: rate,
			Notes: fmt.Sprintf("Base rate %.2f + surcharge %.2f per night",
				rr.BaseRate, rr.Surcharge),
		}
		attachExtractedReleases(&a, ext.ReleaseSchedule)
		allocs = append(allocs, a)
	}
	return allocs
}

func attachExtractedReleases(a *Allocation, schedule []extract.ScheduledRelease) {
	for _, sr := range schedule {
		var date Date
		switch {
		case sr.Date != nil:
			date, _ = ParseDate(*sr.Date)
		case sr.DaysBefore != nil && !a.ValidFrom.IsZero():
			date = a.ValidFrom.AddDays(-*sr.DaysBefore)
		}

		r := AddRelease(a)
		r.ReleaseDate = date
		r.PenaltyApplies = sr.PenaltyApplies
		if sr.Percentage != nil {
			_ = SetReleasePercentage(a, r.ID, decimal.NewFromFloat(*sr.Percentage))
		} else {
			_ = SetReleaseType(a, r.ID, ReleaseRemaining)
		}
	}
}

// =============================================================================
// EXTRACTION-COMPLETION EVENT
// =============================================================================

// ApplyExtraction reconciles a full extraction payload into the store. It is
// the imperative hook for the extraction-completion event: contract fields
// and payments are merged diff-wise, and allocations are populated from room
// requirements only when the allocation list is still empty (population is a
// one-shot step, not a merge). Returns true if anything changed.
func ApplyExtraction(s *Store, ext *extract.Extracted) bool {
	if ext == nil {
		return false
	}
	changed := false

	d := s.Draft()

	if u := MergeContract(d.Contract, ext); u != nil {
		cur := ContractFields{}
		if d.Contract != nil {
			cur = *d.Contract
		}
		merged := u.Apply(cur)
		s.UpdateContract(&merged)
		changed = true
	}

	if payments, ok := MergePayments(d.Payments, ext.PaymentSchedule); ok {
		s.UpdatePayments(payments)
		changed = true
	}

	if len(d.Allocations) == 0 {
		if allocs := AllocationsFromRoomRequirements(ext); len(allocs) > 0 {
			s.UpdateAllocations(allocs)
			changed = true
		}
	}

	return changed
}
