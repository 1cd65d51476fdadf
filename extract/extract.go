/*
Package extract models the payload returned by the external document
extraction service.

PURPOSE:
  The extraction service reads a supplier contract document and returns a
  nested, heterogeneous payload: contract header fields, dated fields under
  contract_dates, a payment schedule, special terms, room requirements, and a
  release schedule. The payload is schema-free in practice - every field is
  optional - so this package models everything with pointers and slices and
  decodes defensively. A malformed or partially-absent payload degrades to
  "fewer fields extracted", never an error for missing data.

USAGE:
  res, err := extract.Parse(body)
  if err != nil { ... }           // body was not JSON at all
  if res.Extracted.ContractName != nil { ... }

SEE ALSO:
  - draft/merge.go: Reconciles Extracted into the wizard draft
*/
package extract

import "encoding/json"

// Result is the top-level response of the extraction service.
type Result struct {
	Success      bool      `json:"success"`
	Confidence   float64   `json:"confidence"`
	Extracted    Extracted `json:"extracted"`
	Warnings     []string  `json:"warnings"`
	DocumentURL  string    `json:"document_url"`
	DocumentName string    `json:"document_name"`
}

// Extracted is the nested payload. Optional throughout: a nil pointer means
// the service did not produce that field.
type Extracted struct {
	SupplierID         *string  `json:"supplier_id"`
	ContractNumber     *string  `json:"contract_number"`
	ContractName       *string  `json:"contract_name"`
	ContractType       *string  `json:"contract_type"`
	Currency           *string  `json:"currency"`
	TotalValue         *float64 `json:"total_value"`
	PaymentTerms       *string  `json:"payment_terms"`
	CancellationPolicy *string  `json:"cancellation_policy"`
	AttritionPolicy    *string  `json:"attrition_policy"`
	CommissionRate     *float64 `json:"commission_rate"`

	ContractDates    *ContractDates     `json:"contract_dates"`
	PaymentSchedule  []ScheduledPayment `json:"payment_schedule"`
	SpecialTerms     []string           `json:"special_terms"`
	RoomRequirements []RoomRequirement  `json:"room_requirements"`
	ReleaseSchedule  []ScheduledRelease `json:"release_schedule"`
}

// ContractDates groups the dated fields, nested under their own key in the
// payload.
type ContractDates struct {
	ValidFrom         *string `json:"valid_from"`
	ValidTo           *string `json:"valid_to"`
	SignatureDeadline *string `json:"signature_deadline"`
}

// ScheduledPayment is one entry of payment_schedule.
type ScheduledPayment struct {
	PaymentNumber int      `json:"payment_number"`
	DueDate       string   `json:"due_date"`
	Amount        float64  `json:"amount"`
	Percentage    *float64 `json:"percentage"`
	Description   string   `json:"description"`
}

// RoomRequirement is one entry of room_requirements. Each produces one
// allotment allocation in the wizard draft.
type RoomRequirement struct {
	RoomType  string  `json:"room_type"`
	Quantity  int     `json:"quantity"`
	Nights    int     `json:"nights"`
	TotalRate float64 `json:"total_rate"`
	BaseRate  float64 `json:"base_rate"`
	Surcharge float64 `json:"surcharge"`
}

// ScheduledRelease is one entry of release_schedule: a cutoff the document
// states, expressed either as an absolute date or days before arrival.
type ScheduledRelease struct {
	Date           *string  `json:"date"`
	DaysBefore     *int     `json:"days_before"`
	Percentage     *float64 `json:"percentage"`
	PenaltyApplies bool     `json:"penalty_applies"`
}

// Parse decodes an extraction service response. Unknown fields are ignored;
// only structurally invalid JSON is an error.
func Parse(data []byte) (*Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
