package allocation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/allocation/memory"
)

func newReporterFixture() (*allocation.WorkloadReporter, *memory.Schedule, *memory.WorklogStore) {
	schedule := memory.NewSchedule()
	worklogs := memory.NewWorklogStore()
	directory := memory.NewDirectory()
	directory.Add(aliceIdentity, "Alice Archer")

	reporter := &allocation.WorkloadReporter{
		People:   &allocation.PersonResolver{Self: selfIdentity, Search: directory},
		Schedule: &allocation.ScheduleResolver{Schedule: schedule},
		Worklogs: worklogs,
	}
	return reporter, schedule, worklogs
}

func TestReport_SumsLoggedAgainstRequired(t *testing.T) {
	// GIVEN: 8h contracted, two entries totalling 6h logged
	// WHEN: Reporting
	// THEN: Raw numbers come back; no over/under judgement is made here

	reporter, schedule, worklogs := newReporterFixture()
	schedule.SetRequired(selfIdentity, march9(), 28800)
	worklogs.Seed(allocation.WorklogEntry{ID: "wl-1", IssueID: 10001, Identity: selfIdentity, Date: march9(), Seconds: 14400})
	worklogs.Seed(allocation.WorklogEntry{ID: "wl-2", IssueID: 10002, Identity: selfIdentity, Date: march9(), Seconds: 7200})

	report, err := reporter.Report(context.Background(), "", march9())

	require.NoError(t, err)
	assert.Equal(t, selfIdentity, report.Identity)
	assert.Equal(t, 28800, report.RequiredSeconds)
	assert.Equal(t, 21600, report.LoggedSeconds)
	assert.Len(t, report.Entries, 2)
}

func TestReport_EmptyDay_ZeroLogged(t *testing.T) {
	// GIVEN: Nothing logged on a working day
	// WHEN: Reporting
	// THEN: Zero logged, empty entries, required still schedule-derived

	reporter, schedule, _ := newReporterFixture()
	schedule.SetRequired(selfIdentity, march9(), 27000)

	report, err := reporter.Report(context.Background(), "", march9())

	require.NoError(t, err)
	assert.Equal(t, 27000, report.RequiredSeconds)
	assert.Equal(t, 0, report.LoggedSeconds)
	assert.Empty(t, report.Entries)
}

func TestReport_ForAnotherPerson(t *testing.T) {
	// GIVEN: Alice's schedule and worklogs
	// WHEN: Reporting by her name
	// THEN: Her numbers, her identity

	reporter, schedule, worklogs := newReporterFixture()
	schedule.SetRequired(aliceIdentity, march9(), 21600)
	worklogs.Seed(allocation.WorklogEntry{ID: "wl-9", IssueID: 10001, Identity: aliceIdentity, Date: march9(), Seconds: 21600})

	report, err := reporter.Report(context.Background(), "Alice Archer", march9())

	require.NoError(t, err)
	assert.Equal(t, aliceIdentity, report.Identity)
	assert.Equal(t, 21600, report.LoggedSeconds)
}

func TestReport_AmbiguousPerson_Surfaced(t *testing.T) {
	// GIVEN: Two people match the reference
	// WHEN: Reporting
	// THEN: The resolution error propagates with its candidates

	reporter, _, _ := newReporterFixture()
	directory := memory.NewDirectory()
	directory.Add(aliceIdentity, "Sam Doe")
	directory.Add(bobIdentity, "Sam Roe")
	reporter.People = &allocation.PersonResolver{Self: selfIdentity, Search: directory}

	_, err := reporter.Report(context.Background(), "sam", march9())

	var ambErr *allocation.AmbiguousPersonError
	require.ErrorAs(t, err, &ambErr)
	assert.Len(t, ambErr.Candidates, 2)
}
