/*
Package draft provides the contract-wizard draft engine.

PURPOSE:
  This package contains the domain types and algorithms behind the multi-step
  contract-creation wizard: the evolving draft tree, the allocation cost
  derivations, the inventory release-schedule engine, the extraction-merge
  reconciliation, and the debounced auto-save scheduler.

KEY CONCEPTS IN THIS FILE (types.go):
  - WizardDraft: The full draft tree (contract, allocations, rates, payments)
  - ContractFields: Supplier contract header data
  - Allocation: A committed block of inventory with cost and release schedule
  - Release: A scheduled point at which unsold inventory reverts to supplier
  - Payment: A scheduled payment obligation under the contract

DESIGN PRINCIPLES:
  1. Single owner: one wizard session owns the draft tree; no sharing
  2. Precision: uses decimal.Decimal to avoid floating-point errors in money
  3. Section-scoped mutation: every edit funnels through the draft store
  4. Pure derivation: cost and release math never reads outside one allocation

USAGE:
  a := draft.Allocation{TotalQuantity: 30, ValidFrom: draft.MustParseDate("2025-06-01")}
  draft.ApplyCostEdit(&a, draft.CostFieldTotal, decimal.NewFromInt(3000))
  draft.Suggest(&a) // 50/25/remainder release cadence

SEE ALSO:
  - cost.go: Bidirectional total-cost / cost-per-unit derivation
  - release.go: Release schedule CRUD, aggregates, suggested cadence
  - store.go: Section-scoped draft store with dirty tracking
  - merge.go: Idempotent extraction-payload reconciliation
  - autosave.go: Debounced, snapshot-deduplicated persistence trigger
*/
package draft

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// WIZARD DRAFT - The full draft tree for one wizard session
// =============================================================================

// WizardDraft holds the evolving, partially-filled contract draft across
// wizard steps. It is created empty on wizard open, mutated only through
// section-scoped updates, and discarded on explicit reset or submit.
type WizardDraft struct {
	Contract    *ContractFields `json:"contract,omitempty"`
	Allocations []Allocation    `json:"allocations"`
	Rates       []Rate          `json:"rates"`
	Payments    []Payment       `json:"payments"`
}

// Clone returns a deep copy of the draft. The store hands out clones so
// callers can never mutate the owned tree behind the dirty flag's back.
func (d WizardDraft) Clone() WizardDraft {
	out := WizardDraft{}
	if d.Contract != nil {
		c := d.Contract.Clone()
		out.Contract = &c
	}
	if d.Allocations != nil {
		out.Allocations = make([]Allocation, len(d.Allocations))
		for i, a := range d.Allocations {
			out.Allocations[i] = a.Clone()
		}
	}
	if d.Rates != nil {
		out.Rates = append([]Rate{}, d.Rates...)
	}
	if d.Payments != nil {
		out.Payments = make([]Payment, len(d.Payments))
		for i, p := range d.Payments {
			out.Payments[i] = p.Clone()
		}
	}
	return out
}

// =============================================================================
// CONTRACT FIELDS
// =============================================================================

// ContractFields is the contract header section. All fields are optional
// while the draft is in flight; step validation decides what blocks
// navigation (see validate.go).
type ContractFields struct {
	SupplierID         string          `json:"supplier_id,omitempty"`
	ContractNumber     string          `json:"contract_number,omitempty"`
	ContractName       string          `json:"contract_name,omitempty"`
	ContractType       string          `json:"contract_type,omitempty"`
	Currency           string          `json:"currency,omitempty"`
	ValidFrom          Date            `json:"valid_from,omitempty"`
	ValidTo            Date            `json:"valid_to,omitempty"`
	SignatureDeadline  Date            `json:"signature_deadline,omitempty"`
	TotalValue         decimal.Decimal `json:"total_value"`
	PaymentTerms       string          `json:"payment_terms,omitempty"`
	CancellationPolicy string          `json:"cancellation_policy,omitempty"`
	AttritionPolicy    string          `json:"attrition_policy,omitempty"`
	CommissionRate     decimal.Decimal `json:"commission_rate"`
	SpecialTerms       []string        `json:"special_terms,omitempty"`
}

func (c ContractFields) Clone() ContractFields {
	out := c
	if c.SpecialTerms != nil {
		out.SpecialTerms = append([]string{}, c.SpecialTerms...)
	}
	return out
}

// =============================================================================
// ALLOCATION - Committed inventory block
// =============================================================================

type AllocationType string

const (
	AllocationAllotment AllocationType = "allotment"
	AllocationBatch     AllocationType = "batch"
	AllocationFreeSell  AllocationType = "free_sell"
	AllocationOnRequest AllocationType = "on_request"
)

// Allocation is a block of inventory units reserved under the contract.
//
// Invariant: CostPerUnit == TotalCost / TotalQuantity whenever both sides are
// program-derived. Derivation only re-fires on the edited field's own change,
// not on quantity changes (see cost.go).
type Allocation struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id,omitempty"`
	AllocationName string          `json:"allocation_name,omitempty"`
	AllocationType AllocationType  `json:"allocation_type"`
	TotalQuantity  int             `json:"total_quantity"`
	ValidFrom      Date            `json:"valid_from,omitempty"`
	ValidTo        Date            `json:"valid_to,omitempty"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit"`
	MinNights      *int            `json:"min_nights,omitempty"`
	MaxNights      *int            `json:"max_nights,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Releases       []Release       `json:"releases"`
}

func (a Allocation) Clone() Allocation {
	out := a
	if a.MinNights != nil {
		v := *a.MinNights
		out.MinNights = &v
	}
	if a.MaxNights != nil {
		v := *a.MaxNights
		out.MaxNights = &v
	}
	if a.Releases != nil {
		out.Releases = make([]Release, len(a.Releases))
		for i, r := range a.Releases {
			out.Releases[i] = r.Clone()
		}
	}
	return out
}

// =============================================================================
// RELEASE - Scheduled reversion of unsold inventory
// =============================================================================

type ReleaseType string

const (
	// ReleasePercentage releases a percentage of the allocation's total.
	ReleasePercentage ReleaseType = "percentage"
	// ReleaseQuantity releases an absolute number of units.
	ReleaseQuantity ReleaseType = "quantity"
	// ReleaseRemaining is a sentinel: release whatever inventory remains
	// unassigned at this date. It carries neither percentage nor quantity
	// and contributes zero to the released sum.
	ReleaseRemaining ReleaseType = "remaining"
)

// Release is one entry in an allocation's release schedule. Insertion order
// is display order; no chronological sort is enforced.
type Release struct {
	ID             string           `json:"id"`
	ReleaseDate    Date             `json:"release_date,omitempty"`
	ReleaseType    ReleaseType      `json:"release_type"`
	Percentage     *decimal.Decimal `json:"release_percentage,omitempty"`
	Quantity       *int             `json:"release_quantity,omitempty"`
	PenaltyApplies bool             `json:"penalty_applies"`
	Notes          string           `json:"notes,omitempty"`
}

func (r Release) Clone() Release {
	out := r
	if r.Percentage != nil {
		v := *r.Percentage
		out.Percentage = &v
	}
	if r.Quantity != nil {
		v := *r.Quantity
		out.Quantity = &v
	}
	return out
}

// =============================================================================
// PAYMENT - Scheduled payment obligation
// =============================================================================

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"
	PaymentOverdue PaymentStatus = "overdue"
	PaymentWaived  PaymentStatus = "waived"
)

type Payment struct {
	ID               string           `json:"id"`
	PaymentNumber    int              `json:"payment_number"`
	DueDate          Date             `json:"due_date,omitempty"`
	AmountDue        decimal.Decimal  `json:"amount_due"`
	Percentage       *decimal.Decimal `json:"percentage,omitempty"`
	Description      string           `json:"description,omitempty"`
	Status           PaymentStatus    `json:"status"`
	PaidDate         *Date            `json:"paid_date,omitempty"`
	PaidAmount       *decimal.Decimal `json:"paid_amount,omitempty"`
	PaymentReference string           `json:"payment_reference,omitempty"`
}

func (p Payment) Clone() Payment {
	out := p
	if p.Percentage != nil {
		v := *p.Percentage
		out.Percentage = &v
	}
	if p.PaidDate != nil {
		v := *p.PaidDate
		out.PaidDate = &v
	}
	if p.PaidAmount != nil {
		v := *p.PaidAmount
		out.PaidAmount = &v
	}
	return out
}

// =============================================================================
// RATE - Nightly rate entry for the rates section
// =============================================================================

type Rate struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id,omitempty"`
	RateName    string          `json:"rate_name,omitempty"`
	Currency    string          `json:"currency,omitempty"`
	ValidFrom   Date            `json:"valid_from,omitempty"`
	ValidTo     Date            `json:"valid_to,omitempty"`
	NightlyRate decimal.Decimal `json:"nightly_rate"`
}
