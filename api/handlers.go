/*
handlers.go - HTTP handlers for the four allocator operations

PURPOSE:
  Exposes the allocation engine via REST. Handles HTTP request/response,
  JSON serialization, date-keyword resolution, and delegates every
  decision to the allocation package.

ENDPOINTS:
  POST /api/allocations          Apply a preset to a date (allocate-time)
  GET  /api/workload             Expected vs. logged for a date (get-workload)
  GET  /api/people/search        Identity search passthrough (search-person)
  GET  /api/config               Redacted configuration (get-config)

ERROR HANDLING:
  Guard blocks are NOT errors: they come back 200 with status "blocked"
  so clients are forced to handle the expected-refusal path distinctly.
  Errors map by taxonomy:
  - 400: Validation (unknown preset, unknown issue key, malformed date)
  - 404: Person not found
  - 409: Ambiguous person (body carries the candidates)
  - 502: An external capability failed
  Partial submissions come back 207 so callers notice that follow-up is
  needed.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/config"
	"github.com/warp/allocation-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers. Journal is optional:
// without it, submissions simply are not journaled locally.
type Handler struct {
	Engine   *allocation.AllocationEngine
	Reporter *allocation.WorkloadReporter
	Search   allocation.IdentitySearchCapability
	Config   *config.Config
	Journal  *sqlite.Journal

	keyByID map[int]string
}

// NewHandler creates a handler wired to the given engine and collaborators.
func NewHandler(engine *allocation.AllocationEngine, reporter *allocation.WorkloadReporter, search allocation.IdentitySearchCapability, cfg *config.Config, journal *sqlite.Journal) *Handler {
	return &Handler{
		Engine:   engine,
		Reporter: reporter,
		Search:   search,
		Config:   cfg,
		Journal:  journal,
		keyByID:  cfg.IssueKeyByID(),
	}
}

// resolveDate turns "today"/"yesterday"/ISO into a Date. Keyword
// resolution happens here, never inside the engine.
func resolveDate(s string) (allocation.Date, error) {
	switch s {
	case "", "today":
		return allocation.Today(), nil
	case "yesterday":
		return allocation.Today().AddDays(-1), nil
	default:
		return allocation.ParseDate(s)
	}
}

// =============================================================================
// ALLOCATE-TIME
// =============================================================================

// Allocate applies a preset to a date for a person.
func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	date, err := resolveDate(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.Engine.Allocate(r.Context(), allocation.AllocationRequest{
		PersonRef:   req.Person,
		Date:        date,
		Preset:      req.Preset,
		Description: req.Description,
		Force:       req.Force,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	observeResult(result)

	if h.Journal != nil {
		if err := h.Journal.RecordResult(r.Context(), result); err != nil {
			// The remote store already has the entries; a journal hiccup
			// must not turn the allocation into a failure.
			log.Printf("journal: failed to record result: %v", err)
		}
	}

	writeJSON(w, statusCode(result), ToResultDTO(result, h.keyByID))
}

func statusCode(result *allocation.AllocationResult) int {
	switch result.Status {
	case allocation.StatusCreated:
		return http.StatusCreated
	case allocation.StatusPartial, allocation.StatusFailed:
		return http.StatusMultiStatus
	default: // blocked: an expected outcome, not an error
		return http.StatusOK
	}
}

// =============================================================================
// GET-WORKLOAD
// =============================================================================

// GetWorkload returns the expected-vs-logged comparison for a date.
func (h *Handler) GetWorkload(w http.ResponseWriter, r *http.Request) {
	date, err := resolveDate(r.URL.Query().Get("date"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	report, err := h.Reporter.Report(r.Context(), r.URL.Query().Get("person"), date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	remaining := report.RequiredSeconds - report.LoggedSeconds
	if remaining < 0 {
		remaining = 0
	}

	writeJSON(w, http.StatusOK, WorkloadDTO{
		Identity:         string(report.Identity),
		Date:             report.Date.String(),
		RequiredSeconds:  report.RequiredSeconds,
		LoggedSeconds:    report.LoggedSeconds,
		RemainingSeconds: remaining,
		Entries:          ToEntryDTOs(report.Entries, h.keyByID),
	})
}

// =============================================================================
// SEARCH-PERSON
// =============================================================================

// SearchPeople is a thin passthrough to the identity-search capability.
func (h *Handler) SearchPeople(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q", nil)
		return
	}

	candidates, err := h.Search.SearchByName(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ToCandidateDTOs(candidates))
}

// =============================================================================
// GET-CONFIG
// =============================================================================

// GetConfig returns the loaded configuration with the token redacted.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Config.Redact())
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("api: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	dto := ErrorDTO{Error: message}
	if err != nil {
		dto.Error = message + ": " + err.Error()
	}
	writeJSON(w, status, dto)
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var ambErr *allocation.AmbiguousPersonError
	switch {
	case errors.As(err, &ambErr):
		writeJSON(w, http.StatusConflict, ErrorDTO{
			Error:      ambErr.Error(),
			Kind:       "resolution",
			Candidates: ToCandidateDTOs(ambErr.Candidates),
		})
	case errors.Is(err, allocation.ErrPersonNotFound):
		writeJSON(w, http.StatusNotFound, ErrorDTO{Error: err.Error(), Kind: "resolution"})
	case allocation.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, ErrorDTO{Error: err.Error(), Kind: "validation"})
	case allocation.IsTransportError(err):
		writeJSON(w, http.StatusBadGateway, ErrorDTO{Error: err.Error(), Kind: "transport"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorDTO{Error: err.Error()})
	}
}
