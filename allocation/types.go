/*
Package allocation provides the preset-based time allocation engine.

PURPOSE:
  This package turns (date, person, preset) into a validated set of
  time-tracking entries, and reconciles expected vs. logged time for a
  date. A preset describes the recurring "shape" of a workday as a set
  of issue allocations expressed as percentages; the engine applies that
  shape to a specific calendar date while respecting the person's actual
  contracted hours for that date.

KEY CONCEPTS IN THIS FILE (types.go):
  - Preset/PresetLine: A named template of issue/percentage/description lines
  - Identity: Opaque token identifying a person in the tracking system
  - WorklogEntry: One logged span of time against one issue
  - Decision: The duplicate guard's Allow/Block outcome with evidence
  - AllocationResult: Outcome of one engine invocation

DESIGN PRINCIPLES:
  1. Append-only: The engine never edits or deletes an existing entry,
     it only creates new ones or refuses to.
  2. Precision: Percentages are decimal.Decimal so splits are exact and
     deterministic. No floating point anywhere near durations.
  3. Schedule-derived: Required duration always comes from the schedule
     capability. There is no "8 hours" constant in this package.
  4. Blocks are outcomes: A guard block is a tagged result variant, not
     an error. Callers must render it distinctly from failures.

USAGE:
  engine := &allocation.AllocationEngine{...}
  result, err := engine.Allocate(ctx, allocation.AllocationRequest{
      Preset: "usual",
      Date:   allocation.NewDate(2026, time.March, 9),
  })

SEE ALSO:
  - split.go: Percentage split with deterministic remainder distribution
  - guard.go: Non-working-day and duplicate-entry guards
  - engine.go: The orchestrating allocation engine
*/
package allocation

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTITY - Opaque person token
// =============================================================================

// Identity is the canonical token referencing a person in the tracking
// system (e.g. an Atlassian account id). The engine never interprets it.
type Identity string

// identityTokenPattern matches the two account-id forms the tracking
// system issues: 24 hex characters, or a numeric prefix plus a UUID.
var identityTokenPattern = regexp.MustCompile(`^(?:[0-9a-fA-F]{24}|[0-9]+:[0-9a-fA-F-]{36})$`)

// IsIdentityToken reports whether a person reference already has the
// shape of a resolved Identity and needs no search call.
func IsIdentityToken(ref string) bool {
	return identityTokenPattern.MatchString(ref)
}

// Candidate is one identity-search match.
type Candidate struct {
	Identity    Identity
	DisplayName string
}

// =============================================================================
// PRESET - Workday shape template
// =============================================================================

// PresetLine is one allocation within a preset. Percentage is in (0, 100];
// the config layer validates this once at load, the engine assumes it.
type PresetLine struct {
	IssueKey    string
	Percentage  decimal.Decimal
	Description string
}

// Preset is a named, ordered sequence of allocation lines. Percentages
// need not sum to exactly 100 (partial days are allowed) but must not
// exceed it.
type Preset struct {
	Name  string
	Lines []PresetLine
}

// TotalPercentage returns the sum of line percentages.
func (p Preset) TotalPercentage() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.Lines {
		total = total.Add(l.Percentage)
	}
	return total
}

// LineShare is one preset line with its computed duration for a date.
type LineShare struct {
	Line    PresetLine
	Seconds int
}

// =============================================================================
// WORKLOG ENTRIES
// =============================================================================

// WorklogEntry is one logged span of time. Entries are append-only from
// the engine's perspective.
type WorklogEntry struct {
	ID          string // remote worklog id, if known
	IssueID     int
	IssueKey    string // empty when the store only reports numeric ids
	Identity    Identity
	Date        Date
	Seconds     int
	Description string
}

// NewEntry is the creation request passed to the worklog store.
type NewEntry struct {
	IssueID     int
	IssueKey    string
	Identity    Identity
	Date        Date
	Seconds     int
	Description string
}

// TotalSeconds sums the durations of a set of entries.
func TotalSeconds(entries []WorklogEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Seconds
	}
	return total
}

// =============================================================================
// GUARD DECISION - Allow | Block(reason, evidence)
// =============================================================================

// BlockReason codes the guard's refusal. These are user-actionable
// outcomes, not failures; force on a subsequent call overrides them.
type BlockReason string

const (
	BlockNonWorkingDay    BlockReason = "non_working_day"
	BlockDuplicateEntries BlockReason = "duplicate_entries"
)

// Decision is the guard outcome. When Allowed is false, Reason says why
// and Existing carries the conflicting entries (for duplicate blocks) so
// the caller can show them.
type Decision struct {
	Allowed  bool
	Reason   BlockReason
	Existing []WorklogEntry
}

// =============================================================================
// ALLOCATION RESULT
// =============================================================================

// AllocationStatus tags the result variant of one engine invocation.
type AllocationStatus string

const (
	StatusCreated AllocationStatus = "created" // every line submitted
	StatusPartial AllocationStatus = "partial" // some lines submitted, some failed
	StatusFailed  AllocationStatus = "failed"  // no line submitted, all failed
	StatusBlocked AllocationStatus = "blocked" // guard refused, nothing submitted
)

// LineFailure records one per-line submission failure. Lines already
// submitted are NOT rolled back; the store offers no transaction across
// entries, so a multi-line allocation is never all-or-nothing.
type LineFailure struct {
	Line    PresetLine
	IssueID int
	Seconds int
	Err     error
}

// AllocationResult is the outcome of one AllocationEngine.Allocate call.
type AllocationResult struct {
	Status          AllocationStatus
	Identity        Identity
	Date            Date
	Preset          string
	RequiredSeconds int
	Created         []WorklogEntry
	Failed          []LineFailure

	// Populated only when Status is StatusBlocked.
	BlockReason BlockReason
	Existing    []WorklogEntry
}

// =============================================================================
// WORKLOAD REPORT
// =============================================================================

// WorkloadReport is the raw expected-vs-logged comparison for one date.
// Any over/under judgement is presentation, not this package's concern.
type WorkloadReport struct {
	Identity        Identity
	Date            Date
	RequiredSeconds int
	LoggedSeconds   int
	Entries         []WorklogEntry
}
