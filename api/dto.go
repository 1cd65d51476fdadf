/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model (decimal.Decimal, Date) from the external API
  contract (plain JSON numbers and ISO date strings).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the draft engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/danielGPGT/tour-ops-saas-app-sub001/draft"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// SessionDTO describes a live wizard session.
type SessionDTO struct {
	ID          string   `json:"id"`
	CreatedAt   string   `json:"created_at"`
	Dirty       bool     `json:"dirty"`
	Draft       DraftDTO `json:"draft"`
	CurrentStep string   `json:"current_step,omitempty"`
}

// DraftDTO is the full draft tree.
type DraftDTO struct {
	Contract    *ContractDTO    `json:"contract,omitempty"`
	Allocations []AllocationDTO `json:"allocations"`
	Rates       []RateDTO       `json:"rates"`
	Payments    []PaymentDTO    `json:"payments"`
}

type ContractDTO struct {
	SupplierID         string   `json:"supplier_id,omitempty"`
	ContractNumber     string   `json:"contract_number,omitempty"`
	ContractName       string   `json:"contract_name,omitempty"`
	ContractType       string   `json:"contract_type,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	ValidFrom          string   `json:"valid_from,omitempty"`
	ValidTo            string   `json:"valid_to,omitempty"`
	SignatureDeadline  string   `json:"signature_deadline,omitempty"`
	TotalValue         float64  `json:"total_value"`
	PaymentTerms       string   `json:"payment_terms,omitempty"`
	CancellationPolicy string   `json:"cancellation_policy,omitempty"`
	AttritionPolicy    string   `json:"attrition_policy,omitempty"`
	CommissionRate     float64  `json:"commission_rate"`
	SpecialTerms       []string `json:"special_terms,omitempty"`
}

type AllocationDTO struct {
	ID             string       `json:"id"`
	ProductID      string       `json:"product_id,omitempty"`
	AllocationName string       `json:"allocation_name,omitempty"`
	AllocationType string       `json:"allocation_type"`
	TotalQuantity  int          `json:"total_quantity"`
	ValidFrom      string       `json:"valid_from,omitempty"`
	ValidTo        string       `json:"valid_to,omitempty"`
	TotalCost      float64      `json:"total_cost"`
	CostPerUnit    float64      `json:"cost_per_unit"`
	MinNights      *int         `json:"min_nights,omitempty"`
	MaxNights      *int         `json:"max_nights,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	Releases       []ReleaseDTO `json:"releases"`
}

type ReleaseDTO struct {
	ID             string   `json:"id"`
	ReleaseDate    string   `json:"release_date,omitempty"`
	ReleaseType    string   `json:"release_type"`
	Percentage     *float64 `json:"release_percentage,omitempty"`
	Quantity       *int     `json:"release_quantity,omitempty"`
	PenaltyApplies bool     `json:"penalty_applies"`
	Notes          string   `json:"notes,omitempty"`
}

type PaymentDTO struct {
	ID               string   `json:"id"`
	PaymentNumber    int      `json:"payment_number"`
	DueDate          string   `json:"due_date,omitempty"`
	AmountDue        float64  `json:"amount_due"`
	Percentage       *float64 `json:"percentage,omitempty"`
	Description      string   `json:"description,omitempty"`
	Status           string   `json:"status"`
	PaidDate         string   `json:"paid_date,omitempty"`
	PaidAmount       *float64 `json:"paid_amount,omitempty"`
	PaymentReference string   `json:"payment_reference,omitempty"`
}

type RateDTO struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id,omitempty"`
	RateName    string  `json:"rate_name,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	ValidFrom   string  `json:"valid_from,omitempty"`
	ValidTo     string  `json:"valid_to,omitempty"`
	NightlyRate float64 `json:"nightly_rate"`
}

// CostEditRequest edits one side of the cost relationship.
type CostEditRequest struct {
	Field string  `json:"field"` // "total_cost" or "cost_per_unit"
	Value float64 `json:"value"`
}

// ReleaseUpdateRequest is the generic single-field release edit.
type ReleaseUpdateRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// ReleaseSummaryDTO reports the aggregate release state of one allocation.
type ReleaseSummaryDTO struct {
	ReleasedQuantity  int          `json:"released_quantity"`
	RemainingQuantity int          `json:"remaining_quantity"`
	ReleasedPercent   int          `json:"released_percent"`
	Warnings          []WarningDTO `json:"warnings,omitempty"`
}

type WarningDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ExtractionResultDTO summarizes what an extraction apply changed.
type ExtractionResultDTO struct {
	Changed  bool         `json:"changed"`
	Warnings []string     `json:"warnings,omitempty"`
	Draft    DraftDTO     `json:"draft"`
	Advisory []WarningDTO `json:"advisory,omitempty"`
}

// SubmitResponseDTO is returned after a successful submit.
type SubmitResponseDTO struct {
	ContractID string `json:"contract_id"`
	Status     string `json:"status"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func f64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toDraftDTO(d draft.WizardDraft) DraftDTO {
	out := DraftDTO{
		Allocations: make([]AllocationDTO, len(d.Allocations)),
		Rates:       make([]RateDTO, len(d.Rates)),
		Payments:    make([]PaymentDTO, len(d.Payments)),
	}
	if d.Contract != nil {
		c := toContractDTO(*d.Contract)
		out.Contract = &c
	}
	for i, a := range d.Allocations {
		out.Allocations[i] = toAllocationDTO(a)
	}
	for i, r := range d.Rates {
		out.Rates[i] = RateDTO{
			ID:          r.ID,
			ProductID:   r.ProductID,
			RateName:    r.RateName,
			Currency:    r.Currency,
			ValidFrom:   r.ValidFrom.String(),
			ValidTo:     r.ValidTo.String(),
			NightlyRate: f64(r.NightlyRate),
		}
	}
	for i, p := range d.Payments {
		out.Payments[i] = toPaymentDTO(p)
	}
	return out
}

func toContractDTO(c draft.ContractFields) ContractDTO {
	return ContractDTO{
		SupplierID:         c.SupplierID,
		ContractNumber:     c.ContractNumber,
		ContractName:       c.ContractName,
		ContractType:       c.ContractType,
		Currency:           c.Currency,
		ValidFrom:          c.ValidFrom.String(),
		ValidTo:            c.ValidTo.String(),
		SignatureDeadline:  c.SignatureDeadline.String(),
		TotalValue:         f64(c.TotalValue),
		PaymentTerms:       c.PaymentTerms,
		CancellationPolicy: c.CancellationPolicy,
		AttritionPolicy:    c.AttritionPolicy,
		CommissionRate:     f64(c.CommissionRate),
		SpecialTerms:       c.SpecialTerms,
	}
}

func toAllocationDTO(a draft.Allocation) AllocationDTO {
	dto := AllocationDTO{
		ID:             a.ID,
		ProductID:      a.ProductID,
		AllocationName: a.AllocationName,
		AllocationType: string(a.AllocationType),
		TotalQuantity:  a.TotalQuantity,
		ValidFrom:      a.ValidFrom.String(),
		ValidTo:        a.ValidTo.String(),
		TotalCost:      f64(a.TotalCost),
		CostPerUnit:    f64(a.CostPerUnit),
		MinNights:      a.MinNights,
		MaxNights:      a.MaxNights,
		Notes:          a.Notes,
		Releases:       make([]ReleaseDTO, len(a.Releases)),
	}
	for i, r := range a.Releases {
		dto.Releases[i] = toReleaseDTO(r)
	}
	return dto
}

func toReleaseDTO(r draft.Release) ReleaseDTO {
	dto := ReleaseDTO{
		ID:             r.ID,
		ReleaseDate:    r.ReleaseDate.String(),
		ReleaseType:    string(r.ReleaseType),
		Quantity:       r.Quantity,
		PenaltyApplies: r.PenaltyApplies,
		Notes:          r.Notes,
	}
	if r.Percentage != nil {
		v := f64(*r.Percentage)
		dto.Percentage = &v
	}
	return dto
}

func toPaymentDTO(p draft.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:               p.ID,
		PaymentNumber:    p.PaymentNumber,
		DueDate:          p.DueDate.String(),
		AmountDue:        f64(p.AmountDue),
		Description:      p.Description,
		Status:           string(p.Status),
		PaymentReference: p.PaymentReference,
	}
	if p.Percentage != nil {
		v := f64(*p.Percentage)
		dto.Percentage = &v
	}
	if p.PaidDate != nil {
		dto.PaidDate = p.PaidDate.String()
	}
	if p.PaidAmount != nil {
		v := f64(*p.PaidAmount)
		dto.PaidAmount = &v
	}
	return dto
}

func toWarningDTOs(ws []draft.Warning) []WarningDTO {
	if len(ws) == 0 {
		return nil
	}
	out := make([]WarningDTO, len(ws))
	for i, w := range ws {
		out[i] = WarningDTO{Code: w.Code, Message: w.Message}
	}
	return out
}

// =============================================================================
// INBOUND CONVERSIONS
// =============================================================================

func fromContractDTO(c ContractDTO) (draft.ContractFields, error) {
	validFrom, err := draft.ParseDate(c.ValidFrom)
	if err != nil {
		return draft.ContractFields{}, err
	}
	validTo, err := draft.ParseDate(c.ValidTo)
	if err != nil {
		return draft.ContractFields{}, err
	}
	deadline, err := draft.ParseDate(c.SignatureDeadline)
	if err != nil {
		return draft.ContractFields{}, err
	}
	return draft.ContractFields{
		SupplierID:         c.SupplierID,
		ContractNumber:     c.ContractNumber,
		ContractName:       c.ContractName,
		ContractType:       c.ContractType,
		Currency:           c.Currency,
		ValidFrom:          validFrom,
		ValidTo:            validTo,
		SignatureDeadline:  deadline,
		TotalValue:         decimal.NewFromFloat(c.TotalValue),
		PaymentTerms:       c.PaymentTerms,
		CancellationPolicy: c.CancellationPolicy,
		AttritionPolicy:    c.AttritionPolicy,
		CommissionRate:     decimal.NewFromFloat(c.CommissionRate),
		SpecialTerms:       c.SpecialTerms,
	}, nil
}

func fromAllocationDTO(a AllocationDTO) (draft.Allocation, error) {
	validFrom, err := draft.ParseDate(a.ValidFrom)
	if err != nil {
		return draft.Allocation{}, err
	}
	validTo, err := draft.ParseDate(a.ValidTo)
	if err != nil {
		return draft.Allocation{}, err
	}
	alloc := draft.Allocation{
		ID:             a.ID,
		ProductID:      a.ProductID,
		AllocationName: a.AllocationName,
		AllocationType: draft.AllocationType(a.AllocationType),
		TotalQuantity:  a.TotalQuantity,
		ValidFrom:      validFrom,
		ValidTo:        validTo,
		TotalCost:      decimal.NewFromFloat(a.TotalCost),
		CostPerUnit:    decimal.NewFromFloat(a.CostPerUnit),
		MinNights:      a.MinNights,
		MaxNights:      a.MaxNights,
		Notes:          a.Notes,
		Releases:       make([]draft.Release, len(a.Releases)),
	}
	for i, r := range a.Releases {
		rel, err := fromReleaseDTO(r)
		if err != nil {
			return draft.Allocation{}, err
		}
		alloc.Releases[i] = rel
	}
	return alloc, nil
}

func fromReleaseDTO(r ReleaseDTO) (draft.Release, error) {
	date, err := draft.ParseDate(r.ReleaseDate)
	if err != nil {
		return draft.Release{}, err
	}
	rel := draft.Release{
		ID:             r.ID,
		ReleaseDate:    date,
		ReleaseType:    draft.ReleaseType(r.ReleaseType),
		Quantity:       r.Quantity,
		PenaltyApplies: r.PenaltyApplies,
		Notes:          r.Notes,
	}
	if r.Percentage != nil {
		pct := decimal.NewFromFloat(*r.Percentage)
		rel.Percentage = &pct
	}
	return rel, nil
}

func fromPaymentDTO(p PaymentDTO) (draft.Payment, error) {
	due, err := draft.ParseDate(p.DueDate)
	if err != nil {
		return draft.Payment{}, err
	}
	pay := draft.Payment{
		ID:               p.ID,
		PaymentNumber:    p.PaymentNumber,
		DueDate:          due,
		AmountDue:        decimal.NewFromFloat(p.AmountDue),
		Description:      p.Description,
		Status:           draft.PaymentStatus(p.Status),
		PaymentReference: p.PaymentReference,
	}
	if pay.Status == "" {
		pay.Status = draft.PaymentPending
	}
	if p.Percentage != nil {
		pct := decimal.NewFromFloat(*p.Percentage)
		pay.Percentage = &pct
	}
	if p.PaidDate != "" {
		d, err := draft.ParseDate(p.PaidDate)
		if err != nil {
			return draft.Payment{}, err
		}
		pay.PaidDate = &d
	}
	if p.PaidAmount != nil {
		amt := decimal.NewFromFloat(*p.PaidAmount)
		pay.PaidAmount = &amt
	}
	return pay, nil
}

func fromRateDTO(r RateDTO) (draft.Rate, error) {
	validFrom, err := draft.ParseDate(r.ValidFrom)
	if err != nil {
		return draft.Rate{}, err
	}
	validTo, err := draft.ParseDate(r.ValidTo)
	if err != nil {
		return draft.Rate{}, err
	}
	return draft.Rate{
		ID:          r.ID,
		ProductID:   r.ProductID,
		RateName:    r.RateName,
		Currency:    r.Currency,
		ValidFrom:   validFrom,
		ValidTo:     validTo,
		NightlyRate: decimal.NewFromFloat(r.NightlyRate),
	}, nil
}
