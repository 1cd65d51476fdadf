/*
errors.go - Centralized error types for the draft engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The api package wraps these with HTTP status mapping.

ERROR CATEGORIES:
  1. Lookup errors - Missing allocations, releases, sessions
  2. Validation errors - Step-advancement blockers (recoverable by the user)
  3. Field errors - Unknown section/field names in generic update paths

USAGE:
  if errors.Is(err, draft.ErrAllocationNotFound) {
      // 404
  }

SEE ALSO:
  - validate.go: Produces StepValidationError
  - store.go: Uses ErrUnknownSection
*/
package draft

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAllocationNotFound is returned when a referenced allocation doesn't
	// exist in the draft.
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrReleaseNotFound is returned when a referenced release doesn't exist
	// on the allocation.
	ErrReleaseNotFound = errors.New("release not found")

	// ErrUnknownSection is returned for a section name outside the draft tree.
	ErrUnknownSection = errors.New("unknown draft section")

	// ErrUnknownField is returned by generic field-update paths for a field
	// name the engine doesn't recognize.
	ErrUnknownField = errors.New("unknown field")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// StepValidationError blocks step advancement. It is always recoverable by
// user correction, never fatal.
type StepValidationError struct {
	Step     Step
	Problems []string
}

func (e *StepValidationError) Error() string {
	return fmt.Sprintf("step %s incomplete: %s", e.Step, strings.Join(e.Problems, "; "))
}

// Warning is a non-fatal advisory surfaced alongside the draft (e.g. date
// bounds, missing remaining-type release). Warnings never block navigation.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string { return w.Code + ": " + w.Message }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing draft element.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAllocationNotFound) || errors.Is(err, ErrReleaseNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var sv *StepValidationError
	return errors.As(err, &sv) ||
		errors.Is(err, ErrUnknownSection) ||
		errors.Is(err, ErrUnknownField)
}
