/*
validate.go - Step-advancement validation and date-bound warnings

PURPOSE:
  Two distinct severities:

  1. Blocking errors (ValidateStep): missing supplier, contract number,
     dates, empty allocation list. Detected synchronously before step
     advancement; they block navigation and are always recoverable by user
     correction.

  2. Warnings (DateWarnings): cross-field date checks - valid_to before
     valid_from, release dates outside the allocation window, missing
     remaining-type release, over-released schedules. These are advisory
     only and never block anything.

SEE ALSO:
  - release.go: CheckReleases, folded into DateWarnings
*/
package draft

// Step identifies a wizard step. Steps advance in order; each step's
// validation gates advancement past it.
type Step int

const (
	StepContract Step = iota
	StepAllocations
	StepRates
	StepPayments
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepContract:
		return "contract"
	case StepAllocations:
		return "allocations"
	case StepRates:
		return "rates"
	case StepPayments:
		return "payments"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// ValidateStep checks whether the draft may advance past the given step.
// Returns a *StepValidationError listing every problem, or nil.
func ValidateStep(d *WizardDraft, step Step) error {
	var problems []string

	switch step {
	case StepContract:
		c := d.Contract
		if c == nil {
			problems = append(problems, "contract details are required")
			break
		}
		if c.SupplierID == "" {
			problems = append(problems, "supplier is required")
		}
		if c.ContractNumber == "" {
			problems = append(problems, "contract number is required")
		}
		if c.ValidFrom.IsZero() || c.ValidTo.IsZero() {
			problems = append(problems, "contract validity dates are required")
		}

	case StepAllocations:
		if len(d.Allocations) == 0 {
			problems = append(problems, "at least one allocation is required")
		}
		for _, a := range d.Allocations {
			if a.AllocationName == "" && a.ProductID == "" {
				problems = append(problems, "allocation "+a.ID+" needs a name or product")
			}
		}

	case StepRates, StepPayments, StepReview:
		// Nothing blocks these steps today.
	}

	if len(problems) > 0 {
		return &StepValidationError{Step: step, Problems: problems}
	}
	return nil
}

// DateWarnings surfaces cross-field date issues as non-fatal advisories.
// The contract's validity ordering and release-date bounds were never hard
// rules in this system; they are reported, not enforced.
func DateWarnings(d *WizardDraft) []Warning {
	var warnings []Warning

	if c := d.Contract; c != nil {
		if !c.ValidFrom.IsZero() && !c.ValidTo.IsZero() && c.ValidTo.Before(c.ValidFrom) {
			warnings = append(warnings, Warning{
				Code:    "contract_dates_inverted",
				Message: "contract valid_to is before valid_from",
			})
		}
	}

	for i := range d.Allocations {
		a := &d.Allocations[i]
		if !a.ValidFrom.IsZero() && !a.ValidTo.IsZero() && a.ValidTo.Before(a.ValidFrom) {
			warnings = append(warnings, Warning{
				Code:    "allocation_dates_inverted",
				Message: "allocation " + a.ID + ": valid_to is before valid_from",
			})
		}
		for _, r := range a.Releases {
			if r.ReleaseDate.IsZero() {
				continue
			}
			// Releases are cutoffs ahead of the stay window; only a release
			// after the window end is suspicious.
			if !a.ValidTo.IsZero() && r.ReleaseDate.After(a.ValidTo) {
				warnings = append(warnings, Warning{
					Code:    "release_after_window",
					Message: "allocation " + a.ID + ": release " + r.ID + " dated after the allocation window",
				})
			}
		}
		warnings = append(warnings, CheckReleases(a)...)
	}

	return warnings
}
