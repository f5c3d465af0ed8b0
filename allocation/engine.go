/*
engine.go - The orchestrating allocation engine

PURPOSE:
  Turns (person reference, date, preset name, force) into a validated
  set of worklog entries. Control flow, in order, short-circuiting on
  the first failure:

    1. Resolve the person reference to an Identity.
    2. Look up the preset by name (UnknownPresetError).
    3. Fetch the schedule-derived required duration for the date.
    4. Run the duplicate guard. A block is returned as the result, not
       an error: it is an expected, user-actionable outcome.
    5. Split the required duration across the preset lines.
    6. Resolve every submittable issue key to its numeric id up front
       (UnknownIssueError). Issue-key resolution is configuration
       validation, so it must never cause a partial submission.
    7. Submit one entry per line with seconds > 0, sequentially in
       preset order. A failure on one line does not roll back lines
       already submitted; the result reports each line's fate.

CONCURRENCY:
  One invocation is one synchronous request/response sequence. The
  sequential submission loop keeps error attribution line-accurate.
*/
package allocation

import (
	"context"
	"sort"
)

// AllocationRequest is the input to one Allocate call. PersonRef is
// optional (empty means the configured self identity). Description, when
// non-empty, overrides every line's configured description.
type AllocationRequest struct {
	PersonRef   string
	Date        Date
	Preset      string
	Description string
	Force       bool
}

// AllocationEngine orchestrates resolver, schedule, guard, splitter and
// submission. It holds no state across calls: presets and issue mappings
// are read-only configuration, everything else is fetched fresh.
type AllocationEngine struct {
	People   *PersonResolver
	Schedule *ScheduleResolver
	Guard    *DuplicateGuard
	Worklogs WorklogStoreCapability

	Presets  map[string]Preset
	IssueIDs map[string]int
}

// Allocate applies a preset to a date for a person. A guard block is a
// successful call with Status == StatusBlocked; the error return is for
// validation, resolution and transport failures only.
func (e *AllocationEngine) Allocate(ctx context.Context, req AllocationRequest) (*AllocationResult, error) {
	identity, err := e.People.Resolve(ctx, req.PersonRef)
	if err != nil {
		return nil, err
	}

	preset, ok := e.Presets[req.Preset]
	if !ok {
		return nil, &UnknownPresetError{Name: req.Preset, Available: e.presetNames()}
	}

	required, err := e.Schedule.RequiredSeconds(ctx, identity, req.Date)
	if err != nil {
		return nil, err
	}

	decision, err := e.Guard.Check(ctx, identity, req.Date, required, req.Force)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return &AllocationResult{
			Status:          StatusBlocked,
			Identity:        identity,
			Date:            req.Date,
			Preset:          preset.Name,
			RequiredSeconds: required,
			BlockReason:     decision.Reason,
			Existing:        decision.Existing,
		}, nil
	}

	shares := Split(preset, required)

	// Resolve every submittable key before the first write. An unmapped
	// key is a configuration error and must not leave a half-logged day.
	issueIDs := make(map[string]int, len(shares))
	for _, s := range shares {
		if s.Seconds == 0 {
			continue
		}
		id, ok := e.IssueIDs[s.Line.IssueKey]
		if !ok {
			return nil, &UnknownIssueError{IssueKey: s.Line.IssueKey}
		}
		issueIDs[s.Line.IssueKey] = id
	}

	result := &AllocationResult{
		Status:          StatusCreated,
		Identity:        identity,
		Date:            req.Date,
		Preset:          preset.Name,
		RequiredSeconds: required,
	}

	for _, s := range shares {
		if s.Seconds == 0 {
			continue
		}
		description := s.Line.Description
		if req.Description != "" {
			description = req.Description
		}

		entry, err := e.Worklogs.CreateEntry(ctx, NewEntry{
			IssueID:     issueIDs[s.Line.IssueKey],
			IssueKey:    s.Line.IssueKey,
			Identity:    identity,
			Date:        req.Date,
			Seconds:     s.Seconds,
			Description: description,
		})
		if err != nil {
			result.Failed = append(result.Failed, LineFailure{
				Line:    s.Line,
				IssueID: issueIDs[s.Line.IssueKey],
				Seconds: s.Seconds,
				Err:     err,
			})
			continue
		}
		result.Created = append(result.Created, entry)
	}

	switch {
	case len(result.Failed) == 0:
		result.Status = StatusCreated
	case len(result.Created) > 0:
		result.Status = StatusPartial
	default:
		result.Status = StatusFailed
	}
	return result, nil
}

func (e *AllocationEngine) presetNames() []string {
	names := make([]string, 0, len(e.Presets))
	for name := range e.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
