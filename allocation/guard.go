/*
guard.go - Non-working-day and duplicate-entry guards

PURPOSE:
  Decides whether new logging for (identity, date) should be blocked
  absent an explicit override. This is a pure decision function over
  fetched state: it performs exactly one read call and no writes.

KNOWN LIMITATION:
  The read-then-write sequence across Check and the engine's submission
  loop is not atomic. Two concurrent allocations for the same person and
  date can both pass the guard and produce duplicate entries; the remote
  store offers no uniqueness constraint this engine could lean on. This
  is documented behavior, not something the guard papers over.
*/
package allocation

import "context"

// DuplicateGuard blocks allocation on non-working days or pre-existing
// entries unless force is set.
type DuplicateGuard struct {
	Worklogs WorklogStoreCapability
}

// Check fetches existing entries for (identity, date) and decides:
//
//   - requiredSeconds == 0 and !force: Block(NonWorkingDay).
//   - existing entries and !force: Block(DuplicateEntries) with the
//     existing entries as evidence.
//   - otherwise: Allow.
//
// force bypasses both checks but never bypasses validation errors.
func (g *DuplicateGuard) Check(ctx context.Context, identity Identity, date Date, requiredSeconds int, force bool) (Decision, error) {
	existing, err := g.Worklogs.ListEntries(ctx, identity, date)
	if err != nil {
		return Decision{}, err
	}

	if force {
		return Decision{Allowed: true, Existing: existing}, nil
	}
	if requiredSeconds == 0 {
		return Decision{Allowed: false, Reason: BlockNonWorkingDay, Existing: existing}, nil
	}
	if len(existing) > 0 {
		return Decision{Allowed: false, Reason: BlockDuplicateEntries, Existing: existing}, nil
	}
	return Decision{Allowed: true}, nil
}
