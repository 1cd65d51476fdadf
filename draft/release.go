/*
release.go - Inventory release-schedule engine

PURPOSE:
  CRUD over an allocation's release list, percentage <-> quantity derivation,
  aggregate released/remaining computation, and the suggested-schedule
  generator. A release is a scheduled point at which unsold allotment
  inventory reverts to the supplier or becomes subject to penalty.

RELEASE TYPES:
  percentage - releases floor(total_quantity * pct / 100) units
  quantity   - releases an absolute number of units
  remaining  - sentinel: "whatever is left" at this date. Carries neither
               percentage nor quantity and contributes ZERO to the released
               sum; it is a terminal catch-all, not a counted amount.

ORDERING:
  Insertion order is display order. No chronological sort is enforced.

SUGGESTED CADENCE:
  Suggest() encodes the industry-standard cascading release cadence:
  50% at cutoff-90d, 25% at cutoff-60d, remainder at cutoff-30d, with
  penalties activating only after the final cutoff.

SEE ALSO:
  - cost.go: The cost derivation pair
  - validate.go: Date-bound warnings for release schedules
*/
package draft

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReleaseField names the editable fields of a release for the generic
// update path used by the HTTP layer.
type ReleaseField string

const (
	ReleaseFieldDate       ReleaseField = "release_date"
	ReleaseFieldType       ReleaseField = "release_type"
	ReleaseFieldPercentage ReleaseField = "release_percentage"
	ReleaseFieldQuantity   ReleaseField = "release_quantity"
	ReleaseFieldPenalty    ReleaseField = "penalty_applies"
	ReleaseFieldNotes      ReleaseField = "notes"
)

// =============================================================================
// CRUD
// =============================================================================

// AddRelease appends a new release with a generated unique id, empty date,
// percentage type at 0%, and no penalty. Returns the appended release.
func AddRelease(a *Allocation) *Release {
	zero := decimal.Zero
	a.Releases = append(a.Releases, Release{
		ID:          uuid.NewString(),
		ReleaseType: ReleasePercentage,
		Percentage:  &zero,
	})
	return &a.Releases[len(a.Releases)-1]
}

// RemoveRelease filters the release out of the list. No cascading effects.
func RemoveRelease(a *Allocation, id string) error {
	for i, r := range a.Releases {
		if r.ID == id {
			a.Releases = append(a.Releases[:i], a.Releases[i+1:]...)
			return nil
		}
	}
	return ErrReleaseNotFound
}

func findRelease(a *Allocation, id string) (*Release, error) {
	for i := range a.Releases {
		if a.Releases[i].ID == id {
			return &a.Releases[i], nil
		}
	}
	return nil, ErrReleaseNotFound
}

// =============================================================================
// FIELD EDITS WITH DERIVATION
// =============================================================================

// SetReleaseDate sets the release date.
func SetReleaseDate(a *Allocation, id string, d Date) error {
	r, err := findRelease(a, id)
	if err != nil {
		return err
	}
	r.ReleaseDate = d
	return nil
}

// SetReleaseType changes the release type and clears type-irrelevant fields:
// a remaining release carries neither percentage nor quantity, so switching
// to remaining zeroes both rather than leaving orphaned values behind.
func SetReleaseType(a *Allocation, id string, t ReleaseType) error {
	r, err := findRelease(a, id)
	if err != nil {
		return err
	}
	r.ReleaseType = t
	if t == ReleaseRemaining {
		r.Percentage = nil
		r.Quantity = nil
	}
	return nil
}

// SetReleasePercentage sets the percentage and derives the implied quantity
// as floor(total_quantity * pct / 100).
func SetReleasePercentage(a *Allocation, id string, pct decimal.Decimal) error {
	r, err := findRelease(a, id)
	if err != nil {
		return err
	}
	r.Percentage = &pct
	q := quantityFromPercent(a.TotalQuantity, pct)
	r.Quantity = &q
	return nil
}

// SetReleaseQuantity sets the quantity and derives the implied percentage as
// round(quantity / total_quantity * 100). When total_quantity is zero the
// percentage is left untouched; the relationship is inactive.
func SetReleaseQuantity(a *Allocation, id string, q int) error {
	r, err := findRelease(a, id)
	if err != nil {
		return err
	}
	r.Quantity = &q
	if a.TotalQuantity > 0 {
		pct := decimal.NewFromInt(int64(q) * 100).
			Div(decimal.NewFromInt(int64(a.TotalQuantity))).
			Round(0)
		r.Percentage = &pct
	}
	return nil
}

// SetReleasePenalty sets whether penalty terms apply after this cutoff.
func SetReleasePenalty(a *Allocation, id string, applies bool) error {
	r, err := findRelease(a, id)
	if err != nil {
		return err
	}
	r.PenaltyApplies = applies
	return nil
}

// SetReleaseNotes sets the free-text notes.
func SetReleaseNotes(a *Allocation, id string, notes string) error {
	r, err := findRelease(a, id)
	if err != nil {
		return err
	}
	r.Notes = notes
	return nil
}

// quantityFromPercent computes floor(total * pct / 100) without touching
// binary floating point.
func quantityFromPercent(total int, pct decimal.Decimal) int {
	return int(decimal.NewFromInt(int64(total)).
		Mul(pct).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart())
}

// =============================================================================
// AGGREGATES
// =============================================================================

// ReleasedQuantity sums the quantities implied by the release schedule.
// quantity-type releases contribute their quantity, percentage-type releases
// contribute floor(total * pct / 100), and remaining-type releases contribute
// zero (they must not double-count toward the released sum).
func ReleasedQuantity(a *Allocation) int {
	total := 0
	for _, r := range a.Releases {
		switch r.ReleaseType {
		case ReleaseQuantity:
			if r.Quantity != nil {
				total += *r.Quantity
			}
		case ReleasePercentage:
			if r.Percentage != nil {
				total += quantityFromPercent(a.TotalQuantity, *r.Percentage)
			}
		case ReleaseRemaining:
			// Sentinel: not a counted amount.
		}
	}
	return total
}

// RemainingQuantity is total_quantity minus the released sum.
func RemainingQuantity(a *Allocation) int {
	return a.TotalQuantity - ReleasedQuantity(a)
}

// ReleasedPercent is round(released / total * 100), or 0 when the allocation
// has no quantity.
func ReleasedPercent(a *Allocation) int {
	if a.TotalQuantity <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(ReleasedQuantity(a)) * 100).
		Div(decimal.NewFromInt(int64(a.TotalQuantity))).
		Round(0).
		IntPart())
}

// CheckReleases returns non-fatal advisories about the schedule. These never
// block navigation.
func CheckReleases(a *Allocation) []Warning {
	var warnings []Warning
	if len(a.Releases) > 0 {
		hasRemaining := false
		for _, r := range a.Releases {
			if r.ReleaseType == ReleaseRemaining {
				hasRemaining = true
				break
			}
		}
		if !hasRemaining {
			warnings = append(warnings, Warning{
				Code:    "no_remaining_release",
				Message: "no remaining-type release: final disposition of remaining inventory is unspecified",
			})
		}
	}
	if a.TotalQuantity > 0 && ReleasedQuantity(a) > a.TotalQuantity {
		warnings = append(warnings, Warning{
			Code:    "released_exceeds_total",
			Message: "scheduled releases exceed the allocation's total quantity",
		})
	}
	return warnings
}

// =============================================================================
// SUGGESTED SCHEDULE
// =============================================================================

// Suggest replaces the allocation's release list with the standard cascading
// cadence: 50% at valid_from-90d, 25% at valid_from-60d, and the remainder at
// valid_from-30d with penalties active. No-op (returns false) unless the
// allocation has both a valid_from date and a total quantity.
func Suggest(a *Allocation) bool {
	if a.ValidFrom.IsZero() || a.TotalQuantity <= 0 {
		return false
	}

	fifty := decimal.NewFromInt(50)
	twentyFive := decimal.NewFromInt(25)
	q50 := quantityFromPercent(a.TotalQuantity, fifty)
	q25 := quantityFromPercent(a.TotalQuantity, twentyFive)

	a.Releases = []Release{
		{
			ID:          uuid.NewString(),
			ReleaseDate: a.ValidFrom.AddDays(-90),
			ReleaseType: ReleasePercentage,
			Percentage:  &fifty,
			Quantity:    &q50,
		},
		{
			ID:          uuid.NewString(),
			ReleaseDate: a.ValidFrom.AddDays(-60),
			ReleaseType: ReleasePercentage,
			Percentage:  &twentyFive,
			Quantity:    &q25,
		},
		{
			ID:             uuid.NewString(),
			ReleaseDate:    a.ValidFrom.AddDays(-30),
			ReleaseType:    ReleaseRemaining,
			PenaltyApplies: true,
		},
	}
	return true
}

// UpdateRelease is the generic field-update entry point used by the HTTP
// layer, where field names and values arrive as loose JSON. Typed callers
// should use the Set* functions directly.
func UpdateRelease(a *Allocation, id string, field ReleaseField, value any) error {
	switch field {
	case ReleaseFieldDate:
		s, ok := value.(string)
		if !ok {
			return ErrUnknownField
		}
		d, err := ParseDate(s)
		if err != nil {
			return err
		}
		return SetReleaseDate(a, id, d)
	case ReleaseFieldType:
		s, ok := value.(string)
		if !ok {
			return ErrUnknownField
		}
		return SetReleaseType(a, id, ReleaseType(s))
	case ReleaseFieldPercentage:
		f, ok := toFloat(value)
		if !ok {
			return ErrUnknownField
		}
		return SetReleasePercentage(a, id, decimal.NewFromFloat(f))
	case ReleaseFieldQuantity:
		f, ok := toFloat(value)
		if !ok {
			return ErrUnknownField
		}
		return SetReleaseQuantity(a, id, int(f))
	case ReleaseFieldPenalty:
		b, ok := value.(bool)
		if !ok {
			return ErrUnknownField
		}
		return SetReleasePenalty(a, id, b)
	case ReleaseFieldNotes:
		s, ok := value.(string)
		if !ok {
			return ErrUnknownField
		}
		return SetReleaseNotes(a, id, s)
	default:
		return ErrUnknownField
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
