package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/allocation/memory"
	"github.com/warp/allocation-engine/api"
	"github.com/warp/allocation-engine/config"
	"github.com/warp/allocation-engine/store/sqlite"
)

const (
	selfID  = "5b10ac8d82e05b22cc7d4ef5"
	aliceID = "6c21bd9e93f16c33dd8e5fa6"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	router   http.Handler
	schedule *memory.Schedule
	worklogs *memory.WorklogStore
	journal  *sqlite.Journal
}

func testConfig() *config.Config {
	return &config.Config{
		APIToken:  "secret-token-abcd",
		AccountID: selfID,
		BaseURL:   config.DefaultBaseURL,
		IssueIDs:  map[string]int{"ISSUE-A": 10001, "ISSUE-B": 10002},
		Presets: map[string][]config.Line{
			"usual": {
				{IssueKey: "ISSUE-A", Percentage: dec("50"), Description: "capex work"},
				{IssueKey: "ISSUE-B", Percentage: dec("50"), Description: "opex work"},
			},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	schedule := memory.NewSchedule()
	worklogs := memory.NewWorklogStore()
	directory := memory.NewDirectory()
	directory.Add(aliceID, "Alice Archer")
	directory.Add("7d32ce0fa4f27d44ee9f6fb7", "Alice Baker")

	people := &allocation.PersonResolver{Self: cfg.Self(), Search: directory}
	scheduleResolver := &allocation.ScheduleResolver{Schedule: schedule}

	engine := &allocation.AllocationEngine{
		People:   people,
		Schedule: scheduleResolver,
		Guard:    &allocation.DuplicateGuard{Worklogs: worklogs},
		Worklogs: worklogs,
		Presets:  cfg.EnginePresets(),
		IssueIDs: cfg.IssueIDs,
	}
	reporter := &allocation.WorkloadReporter{
		People:   people,
		Schedule: scheduleResolver,
		Worklogs: worklogs,
	}

	journal, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	handler := api.NewHandler(engine, reporter, directory, cfg, journal)
	return &fixture{
		router:   api.NewRouter(handler),
		schedule: schedule,
		worklogs: worklogs,
		journal:  journal,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// ALLOCATE-TIME
// =============================================================================

func TestAllocateEndpoint_FullSuccess_201(t *testing.T) {
	f := newFixture(t)
	f.schedule.SetRequired(selfID, allocation.NewDate(2026, time.March, 9), 24300)

	rec := f.do(t, http.MethodPost, "/api/allocations", api.AllocateRequest{
		Date:   "2026-03-09",
		Preset: "usual",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result api.AllocationResultDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "created", result.Status)
	assert.Equal(t, 24300, result.RequiredSeconds)
	require.Len(t, result.Created, 2)
	assert.Equal(t, 12150, result.Created[0].Seconds)
	assert.Equal(t, "ISSUE-A", result.Created[0].IssueKey)
}

func TestAllocateEndpoint_NonWorkingDay_200Blocked(t *testing.T) {
	f := newFixture(t)
	// No schedule configured: 0 required seconds.

	rec := f.do(t, http.MethodPost, "/api/allocations", api.AllocateRequest{
		Date:   "2026-03-08",
		Preset: "usual",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result api.AllocationResultDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "blocked", result.Status)
	assert.Equal(t, "non_working_day", result.BlockReason)
	assert.Empty(t, result.Created)
}

func TestAllocateEndpoint_Duplicate_BlockCarriesExisting(t *testing.T) {
	f := newFixture(t)
	date := allocation.NewDate(2026, time.March, 9)
	f.schedule.SetRequired(selfID, date, 28800)
	f.worklogs.Seed(allocation.WorklogEntry{ID: "wl-1", IssueID: 10001, Identity: selfID, Date: date, Seconds: 3600})

	rec := f.do(t, http.MethodPost, "/api/allocations", api.AllocateRequest{
		Date:   "2026-03-09",
		Preset: "usual",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result api.AllocationResultDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "duplicate_entries", result.BlockReason)
	require.Len(t, result.Existing, 1)
	assert.Equal(t, "ISSUE-A", result.Existing[0].IssueKey, "numeric ids are annotated with keys")
}

func TestAllocateEndpoint_UnknownPreset_400(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/allocations", api.AllocateRequest{
		Date:   "2026-03-09",
		Preset: "nope",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errDTO api.ErrorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errDTO))
	assert.Equal(t, "validation", errDTO.Kind)
}

func TestAllocateEndpoint_AmbiguousPerson_409WithCandidates(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/allocations", api.AllocateRequest{
		Person: "alice",
		Date:   "2026-03-09",
		Preset: "usual",
	})

	require.Equal(t, http.StatusConflict, rec.Code)

	var errDTO api.ErrorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errDTO))
	assert.Equal(t, "resolution", errDTO.Kind)
	assert.Len(t, errDTO.Candidates, 2)
}

func TestAllocateEndpoint_MalformedDate_400(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/allocations", api.AllocateRequest{
		Date:   "03/09/2026",
		Preset: "usual",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAllocateEndpoint_JournalsSubmittedLines(t *testing.T) {
	f := newFixture(t)
	date := allocation.NewDate(2026, time.March, 9)
	f.schedule.SetRequired(selfID, date, 28800)

	rec := f.do(t, http.MethodPost, "/api/allocations", api.AllocateRequest{
		Date:   "2026-03-09",
		Preset: "usual",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	subs, err := f.journal.ListByDay(context.Background(), selfID, date)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

// =============================================================================
// GET-WORKLOAD
// =============================================================================

func TestWorkloadEndpoint_ComparesLoggedToRequired(t *testing.T) {
	f := newFixture(t)
	date := allocation.NewDate(2026, time.March, 9)
	f.schedule.SetRequired(selfID, date, 28800)
	f.worklogs.Seed(allocation.WorklogEntry{ID: "wl-1", IssueID: 10001, Identity: selfID, Date: date, Seconds: 21600})

	rec := f.do(t, http.MethodGet, "/api/workload?date=2026-03-09", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var workload api.WorkloadDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &workload))
	assert.Equal(t, 28800, workload.RequiredSeconds)
	assert.Equal(t, 21600, workload.LoggedSeconds)
	assert.Equal(t, 7200, workload.RemainingSeconds)
	assert.Len(t, workload.Entries, 1)
}

// =============================================================================
// SEARCH-PERSON AND GET-CONFIG
// =============================================================================

func TestSearchEndpoint_ReturnsCandidates(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/people/search?q=alice", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var candidates []api.CandidateDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &candidates))
	assert.Len(t, candidates, 2)
}

func TestSearchEndpoint_MissingQuery_400(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/people/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigEndpoint_RedactsToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/config", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "****abcd")
	assert.NotContains(t, rec.Body.String(), "secret-token-abcd")
}
