/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the engine's domain model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import "github.com/warp/allocation-engine/allocation"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AllocateRequest is the body of POST /api/allocations. Person is
// optional (empty means self); Date accepts an ISO date or the keywords
// "today" and "yesterday".
type AllocateRequest struct {
	Person      string `json:"person,omitempty"`
	Date        string `json:"date"`
	Preset      string `json:"preset"`
	Description string `json:"description,omitempty"`
	Force       bool   `json:"force,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// WorklogEntryDTO represents one worklog entry in API responses.
type WorklogEntryDTO struct {
	ID          string `json:"id,omitempty"`
	IssueID     int    `json:"issue_id"`
	IssueKey    string `json:"issue_key,omitempty"`
	Identity    string `json:"identity"`
	Date        string `json:"date"`
	Seconds     int    `json:"seconds"`
	Description string `json:"description,omitempty"`
}

// LineFailureDTO represents one per-line submission failure.
type LineFailureDTO struct {
	IssueKey string `json:"issue_key"`
	IssueID  int    `json:"issue_id"`
	Seconds  int    `json:"seconds"`
	Error    string `json:"error"`
}

// AllocationResultDTO is the structured outcome of an allocation call.
// Status is one of "created", "partial", "failed", "blocked".
type AllocationResultDTO struct {
	Status          string            `json:"status"`
	Identity        string            `json:"identity"`
	Date            string            `json:"date"`
	Preset          string            `json:"preset"`
	RequiredSeconds int               `json:"required_seconds"`
	Created         []WorklogEntryDTO `json:"created,omitempty"`
	Failed          []LineFailureDTO  `json:"failed,omitempty"`
	BlockReason     string            `json:"block_reason,omitempty"`
	Existing        []WorklogEntryDTO `json:"existing,omitempty"`
}

// WorkloadDTO is the expected-vs-logged comparison for one date.
type WorkloadDTO struct {
	Identity         string            `json:"identity"`
	Date             string            `json:"date"`
	RequiredSeconds  int               `json:"required_seconds"`
	LoggedSeconds    int               `json:"logged_seconds"`
	RemainingSeconds int               `json:"remaining_seconds"`
	Entries          []WorklogEntryDTO `json:"entries"`
}

// CandidateDTO is one identity-search match.
type CandidateDTO struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name"`
}

// ErrorDTO is the error body for non-2xx responses.
type ErrorDTO struct {
	Error      string         `json:"error"`
	Kind       string         `json:"kind,omitempty"` // validation | resolution | transport
	Candidates []CandidateDTO `json:"candidates,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func ToEntryDTOs(entries []allocation.WorklogEntry, keyByID map[int]string) []WorklogEntryDTO {
	if len(entries) == 0 {
		return nil
	}
	dtos := make([]WorklogEntryDTO, len(entries))
	for i, e := range entries {
		key := e.IssueKey
		if key == "" {
			key = keyByID[e.IssueID]
		}
		dtos[i] = WorklogEntryDTO{
			ID:          e.ID,
			IssueID:     e.IssueID,
			IssueKey:    key,
			Identity:    string(e.Identity),
			Date:        e.Date.String(),
			Seconds:     e.Seconds,
			Description: e.Description,
		}
	}
	return dtos
}

func ToResultDTO(result *allocation.AllocationResult, keyByID map[int]string) AllocationResultDTO {
	dto := AllocationResultDTO{
		Status:          string(result.Status),
		Identity:        string(result.Identity),
		Date:            result.Date.String(),
		Preset:          result.Preset,
		RequiredSeconds: result.RequiredSeconds,
		Created:         ToEntryDTOs(result.Created, keyByID),
		BlockReason:     string(result.BlockReason),
		Existing:        ToEntryDTOs(result.Existing, keyByID),
	}
	for _, f := range result.Failed {
		dto.Failed = append(dto.Failed, LineFailureDTO{
			IssueKey: f.Line.IssueKey,
			IssueID:  f.IssueID,
			Seconds:  f.Seconds,
			Error:    f.Err.Error(),
		})
	}
	return dto
}

func ToCandidateDTOs(candidates []allocation.Candidate) []CandidateDTO {
	dtos := make([]CandidateDTO, len(candidates))
	for i, c := range candidates {
		dtos[i] = CandidateDTO{Identity: string(c.Identity), DisplayName: c.DisplayName}
	}
	return dtos
}
