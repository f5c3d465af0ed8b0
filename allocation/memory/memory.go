// Package memory provides in-memory capability implementations.
// They back the engine's tests and the server's demo mode; none of them
// touch the network.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/warp/allocation-engine/allocation"
)

// =============================================================================
// SCHEDULE - In-memory ScheduleCapability
// =============================================================================

type scheduleKey struct {
	Identity allocation.Identity
	Date     string
}

// Schedule is an in-memory schedule. Dates with no configured value
// report zero required seconds, i.e. a non-working day.
type Schedule struct {
	mu       sync.RWMutex
	required map[scheduleKey]int

	// Err, when set, is returned by every call. For transport-failure tests.
	Err error
}

func NewSchedule() *Schedule {
	return &Schedule{required: make(map[scheduleKey]int)}
}

// SetRequired configures the contracted seconds for identity on date.
func (s *Schedule) SetRequired(identity allocation.Identity, date allocation.Date, seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.required[scheduleKey{Identity: identity, Date: date.String()}] = seconds
}

func (s *Schedule) RequiredSeconds(_ context.Context, identity allocation.Identity, date allocation.Date) (int, error) {
	if s.Err != nil {
		return 0, &allocation.CapabilityError{Capability: "schedule", Op: "get required seconds", Cause: s.Err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.required[scheduleKey{Identity: identity, Date: date.String()}], nil
}

// =============================================================================
// DIRECTORY - In-memory IdentitySearchCapability
// =============================================================================

// Directory is an in-memory people directory. SearchByName matches
// case-insensitive substrings of display names.
type Directory struct {
	mu     sync.RWMutex
	people []allocation.Candidate

	Err error
}

func NewDirectory() *Directory {
	return &Directory{}
}

// Add registers a person.
func (d *Directory) Add(identity allocation.Identity, displayName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.people = append(d.people, allocation.Candidate{Identity: identity, DisplayName: displayName})
}

func (d *Directory) SearchByName(_ context.Context, text string) ([]allocation.Candidate, error) {
	if d.Err != nil {
		return nil, &allocation.CapabilityError{Capability: "identity-search", Op: "search by name", Cause: d.Err}
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(text))
	var matches []allocation.Candidate
	for _, p := range d.people {
		if strings.Contains(strings.ToLower(p.DisplayName), needle) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// =============================================================================
// WORKLOG STORE - In-memory WorklogStoreCapability
// =============================================================================

type worklogKey struct {
	Identity allocation.Identity
	Date     string
}

// WorklogStore is an in-memory worklog store. Append-only, like the
// real one.
type WorklogStore struct {
	mu      sync.RWMutex
	entries map[worklogKey][]allocation.WorklogEntry
	nextID  int

	// ListErr fails every read; FailIssues fails creation for specific
	// issue ids. Both are for failure-path tests.
	ListErr    error
	FailIssues map[int]error
}

func NewWorklogStore() *WorklogStore {
	return &WorklogStore{entries: make(map[worklogKey][]allocation.WorklogEntry)}
}

func (w *WorklogStore) ListEntries(_ context.Context, identity allocation.Identity, date allocation.Date) ([]allocation.WorklogEntry, error) {
	if w.ListErr != nil {
		return nil, &allocation.CapabilityError{Capability: "worklog-store", Op: "list entries", Cause: w.ListErr}
	}
	w.mu.RLock()
	defer w.mu.RUnlock()

	k := worklogKey{Identity: identity, Date: date.String()}
	result := make([]allocation.WorklogEntry, len(w.entries[k]))
	copy(result, w.entries[k])
	return result, nil
}

func (w *WorklogStore) CreateEntry(_ context.Context, entry allocation.NewEntry) (allocation.WorklogEntry, error) {
	if err, ok := w.FailIssues[entry.IssueID]; ok {
		return allocation.WorklogEntry{}, &allocation.CapabilityError{Capability: "worklog-store", Op: "create entry", Cause: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	created := allocation.WorklogEntry{
		ID:          fmt.Sprintf("wl-%d", w.nextID),
		IssueID:     entry.IssueID,
		IssueKey:    entry.IssueKey,
		Identity:    entry.Identity,
		Date:        entry.Date,
		Seconds:     entry.Seconds,
		Description: entry.Description,
	}

	k := worklogKey{Identity: entry.Identity, Date: entry.Date.String()}
	w.entries[k] = append(w.entries[k], created)
	return created, nil
}

// Seed inserts an entry directly, bypassing CreateEntry. For tests that
// need pre-existing state.
func (w *WorklogStore) Seed(entry allocation.WorklogEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	k := worklogKey{Identity: entry.Identity, Date: entry.Date.String()}
	w.entries[k] = append(w.entries[k], entry)
}
