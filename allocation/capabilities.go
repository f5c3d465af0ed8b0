/*
capabilities.go - External capability interfaces

PURPOSE:
  The engine consumes three remote collaborators, each modeled as a
  narrow interface so the core is testable against in-memory fakes
  without any network dependency.

IMPLEMENTATIONS:
  - tempo/: HTTP client against the Tempo REST API (production)
  - allocation/memory/: In-memory fakes (tests, demo mode)

CONTRACT:
  Every call takes a context carrying the request-scoped deadline.
  Implementations do not retry; a transient failure surfaces as a
  *CapabilityError so the caller sees exactly which call failed.
*/
package allocation

import "context"

// ScheduleCapability reports contracted work time per person per date.
// Zero seconds is a valid, non-error result meaning no work is expected
// (weekend, holiday, leave).
type ScheduleCapability interface {
	RequiredSeconds(ctx context.Context, identity Identity, date Date) (int, error)
}

// IdentitySearchCapability resolves free-text names to identities.
// An empty result list means no match; it is not an error.
type IdentitySearchCapability interface {
	SearchByName(ctx context.Context, text string) ([]Candidate, error)
}

// WorklogStoreCapability reads and creates worklog entries. There is no
// update or delete: the engine treats the store as append-only.
type WorklogStoreCapability interface {
	ListEntries(ctx context.Context, identity Identity, date Date) ([]WorklogEntry, error)
	CreateEntry(ctx context.Context, entry NewEntry) (WorklogEntry, error)
}
