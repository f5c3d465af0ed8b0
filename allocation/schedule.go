package allocation

import "context"

// ScheduleResolver returns the contracted required duration for a person
// on a date. It is pure delegation: the defining design choice of this
// system is that required duration is always schedule-derived, never a
// local "8 hours" constant. Zero is a valid result and is the signal the
// guard's non-working-day check acts on.
type ScheduleResolver struct {
	Schedule ScheduleCapability
}

// RequiredSeconds reports the contracted seconds for identity on date.
func (r *ScheduleResolver) RequiredSeconds(ctx context.Context, identity Identity, date Date) (int, error) {
	return r.Schedule.RequiredSeconds(ctx, identity, date)
}
