package allocation

import "context"

// WorkloadReporter produces the expected-vs-logged comparison for one
// person and date. It is read-only: no guard logic, no writes, no
// judgement about whether the day is over- or under-logged.
type WorkloadReporter struct {
	People   *PersonResolver
	Schedule *ScheduleResolver
	Worklogs WorklogStoreCapability
}

// Report resolves the person, fetches required duration and existing
// entries, and returns the raw comparison.
func (r *WorkloadReporter) Report(ctx context.Context, personRef string, date Date) (*WorkloadReport, error) {
	identity, err := r.People.Resolve(ctx, personRef)
	if err != nil {
		return nil, err
	}

	required, err := r.Schedule.RequiredSeconds(ctx, identity, date)
	if err != nil {
		return nil, err
	}

	entries, err := r.Worklogs.ListEntries(ctx, identity, date)
	if err != nil {
		return nil, err
	}

	return &WorkloadReport{
		Identity:        identity,
		Date:            date,
		RequiredSeconds: required,
		LoggedSeconds:   TotalSeconds(entries),
		Entries:         entries,
	}, nil
}
