/*
errors.go - Centralized error types for the allocation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Guard blocks are deliberately NOT here: a block is a Decision result
  variant (types.go), an expected refusal the caller must render
  distinctly from failures.

ERROR CATEGORIES:
  1. Validation errors - Unknown preset, unknown issue key, malformed date.
     Never retried, always surfaced verbatim.
  2. Resolution errors - Person not found, ambiguous person. Carry
     actionable candidate data.
  3. Transport errors - An external capability unreachable or erroring.
     Surfaced with which call failed, never swallowed, never retried
     by the engine.

USAGE:
  Callers classify with errors.Is / errors.As:

    if errors.Is(err, allocation.ErrAmbiguousPerson) {
        var ambErr *allocation.AmbiguousPersonError
        errors.As(err, &ambErr)
        // show ambErr.Candidates
    }
*/
package allocation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPersonNotFound is returned when a free-text person reference
	// matches no identity.
	ErrPersonNotFound = errors.New("person not found")

	// ErrAmbiguousPerson is returned when a free-text person reference
	// matches more than one identity. Exactly one match is required.
	ErrAmbiguousPerson = errors.New("ambiguous person reference")

	// ErrUnknownPreset is returned when the requested preset name is not
	// configured.
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrUnknownIssue is returned when a preset line's issue key has no
	// configured numeric issue id.
	ErrUnknownIssue = errors.New("unknown issue key")

	// ErrInvalidDate is returned for a malformed calendar date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrCapabilityUnavailable is returned when an external capability
	// call fails (transport or auth). The engine never retries these.
	ErrCapabilityUnavailable = errors.New("capability unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PersonNotFoundError reports a free-text reference with zero matches.
type PersonNotFoundError struct {
	Reference string
}

func (e *PersonNotFoundError) Error() string {
	return fmt.Sprintf("person not found: %q", e.Reference)
}

func (e *PersonNotFoundError) Unwrap() error { return ErrPersonNotFound }

// AmbiguousPersonError reports multiple matches. Candidates let the
// caller disambiguate instead of the engine guessing.
type AmbiguousPersonError struct {
	Reference  string
	Candidates []Candidate
}

func (e *AmbiguousPersonError) Error() string {
	return fmt.Sprintf("ambiguous person reference %q: %d matches", e.Reference, len(e.Candidates))
}

func (e *AmbiguousPersonError) Unwrap() error { return ErrAmbiguousPerson }

// UnknownPresetError reports an unconfigured preset name, with the
// configured names so the caller can show what is available.
type UnknownPresetError struct {
	Name      string
	Available []string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset %q (available: %v)", e.Name, e.Available)
}

func (e *UnknownPresetError) Unwrap() error { return ErrUnknownPreset }

// UnknownIssueError reports a preset line whose issue key has no
// configured numeric id.
type UnknownIssueError struct {
	IssueKey string
}

func (e *UnknownIssueError) Error() string {
	return fmt.Sprintf("no issue id configured for key %q", e.IssueKey)
}

func (e *UnknownIssueError) Unwrap() error { return ErrUnknownIssue }

// InvalidDateError reports a malformed calendar date.
type InvalidDateError struct {
	Input string
	Cause error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q: %v", e.Input, e.Cause)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }

// CapabilityError reports which external call failed and why. Capability
// is one of "schedule", "identity-search", "worklog-store".
type CapabilityError struct {
	Capability string
	Op         string
	Cause      error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s capability: %s: %v", e.Capability, e.Op, e.Cause)
}

func (e *CapabilityError) Unwrap() []error {
	return []error{ErrCapabilityUnavailable, e.Cause}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidationError returns true for errors caused by invalid input or
// configuration. These never succeed on retry.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnknownPreset) ||
		errors.Is(err, ErrUnknownIssue) ||
		errors.Is(err, ErrInvalidDate)
}

// IsResolutionError returns true for person-resolution failures.
func IsResolutionError(err error) bool {
	return errors.Is(err, ErrPersonNotFound) ||
		errors.Is(err, ErrAmbiguousPerson)
}

// IsTransportError returns true when an external capability failed.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrCapabilityUnavailable)
}
