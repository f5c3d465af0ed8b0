/*
Package tempo implements the engine's capability interfaces against the
Tempo REST API v4 (schedule and worklogs) and the issue tracker's user
search (identity search).

PURPOSE:
  Thin request/response plumbing. All decision-making lives in the
  allocation package; this client only translates between the wire
  format and the engine's types.

ERROR CONTRACT:
  Any transport problem or non-2xx status becomes a
  *allocation.CapabilityError naming the capability and operation that
  failed. The client never retries: a transient failure surfaces to the
  caller rather than being masked.

ENDPOINTS:
  GET  {base}/user-schedule/{accountId}?from=D&to=D   required seconds
  GET  {base}/worklogs?from=D&to=D                    entries (filtered by author)
  POST {base}/worklogs                                create entry
  GET  {directory}/user/search?query=TEXT             identity search
*/
package tempo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/warp/allocation-engine/allocation"
)

// startTime is the fixed start-of-day stamp Tempo requires on created
// worklogs. The engine models whole days, not clock times.
const startTime = "08:00:00"

// Client talks to Tempo and (optionally) the issue tracker's user
// search. DirectoryURL may be empty when identity search is not
// configured.
type Client struct {
	BaseURL      string
	DirectoryURL string
	Token        string
	HTTP         *http.Client
}

// New returns a client with a sane request timeout.
func New(token, baseURL, directoryURL string) *Client {
	return &Client{
		BaseURL:      baseURL,
		DirectoryURL: directoryURL,
		Token:        token,
		HTTP:         &http.Client{Timeout: 30 * time.Second},
	}
}

// Compile-time capability checks.
var (
	_ allocation.ScheduleCapability       = (*Client)(nil)
	_ allocation.IdentitySearchCapability = (*Client)(nil)
	_ allocation.WorklogStoreCapability   = (*Client)(nil)
)

// =============================================================================
// WIRE TYPES
// =============================================================================

type scheduleResponse struct {
	Results []struct {
		Date            string `json:"date"`
		RequiredSeconds int    `json:"requiredSeconds"`
		Type            string `json:"type"`
	} `json:"results"`
}

type worklogJSON struct {
	TempoWorklogID   int    `json:"tempoWorklogId"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
	StartDate        string `json:"startDate"`
	Description      string `json:"description"`
	Issue            struct {
		ID int `json:"id"`
	} `json:"issue"`
	Author struct {
		AccountID string `json:"accountId"`
	} `json:"author"`
}

type worklogListResponse struct {
	Results []worklogJSON `json:"results"`
}

type createWorklogRequest struct {
	AuthorAccountID  string `json:"authorAccountId"`
	IssueID          int    `json:"issueId"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
	StartDate        string `json:"startDate"`
	StartTime        string `json:"startTime"`
	Description      string `json:"description"`
}

type userSearchResult struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// =============================================================================
// SCHEDULE CAPABILITY
// =============================================================================

// RequiredSeconds fetches the contracted seconds for identity on date.
// Tempo reports zero for weekends, holidays and leave; that is a valid
// result, not an error.
func (c *Client) RequiredSeconds(ctx context.Context, identity allocation.Identity, date allocation.Date) (int, error) {
	endpoint := fmt.Sprintf("%s/user-schedule/%s?from=%s&to=%s",
		c.BaseURL, url.PathEscape(string(identity)), date, date)

	var resp scheduleResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return 0, &allocation.CapabilityError{Capability: "schedule", Op: "get required seconds", Cause: err}
	}
	if len(resp.Results) == 0 {
		return 0, &allocation.CapabilityError{
			Capability: "schedule",
			Op:         "get required seconds",
			Cause:      fmt.Errorf("no schedule result for %s", date),
		}
	}
	return resp.Results[0].RequiredSeconds, nil
}

// =============================================================================
// WORKLOG STORE CAPABILITY
// =============================================================================

// ListEntries fetches the date's worklogs and keeps only those authored
// by identity. Tempo's list endpoint is not author-scoped, so the filter
// happens here.
func (c *Client) ListEntries(ctx context.Context, identity allocation.Identity, date allocation.Date) ([]allocation.WorklogEntry, error) {
	endpoint := fmt.Sprintf("%s/worklogs?from=%s&to=%s", c.BaseURL, date, date)

	var resp worklogListResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, &allocation.CapabilityError{Capability: "worklog-store", Op: "list entries", Cause: err}
	}

	var entries []allocation.WorklogEntry
	for _, wl := range resp.Results {
		if wl.Author.AccountID != string(identity) {
			continue
		}
		entries = append(entries, toEntry(wl, date))
	}
	return entries, nil
}

// CreateEntry submits one worklog.
func (c *Client) CreateEntry(ctx context.Context, entry allocation.NewEntry) (allocation.WorklogEntry, error) {
	payload := createWorklogRequest{
		AuthorAccountID:  string(entry.Identity),
		IssueID:          entry.IssueID,
		TimeSpentSeconds: entry.Seconds,
		StartDate:        entry.Date.String(),
		StartTime:        startTime,
		Description:      entry.Description,
	}

	var created worklogJSON
	if err := c.postJSON(ctx, c.BaseURL+"/worklogs", payload, &created); err != nil {
		return allocation.WorklogEntry{}, &allocation.CapabilityError{Capability: "worklog-store", Op: "create entry", Cause: err}
	}

	result := toEntry(created, entry.Date)
	result.IssueKey = entry.IssueKey
	return result, nil
}

func toEntry(wl worklogJSON, fallbackDate allocation.Date) allocation.WorklogEntry {
	date := fallbackDate
	if d, err := allocation.ParseDate(wl.StartDate); err == nil {
		date = d
	}
	return allocation.WorklogEntry{
		ID:          strconv.Itoa(wl.TempoWorklogID),
		IssueID:     wl.Issue.ID,
		Identity:    allocation.Identity(wl.Author.AccountID),
		Date:        date,
		Seconds:     wl.TimeSpentSeconds,
		Description: wl.Description,
	}
}

// =============================================================================
// IDENTITY SEARCH CAPABILITY
// =============================================================================

// SearchByName queries the issue tracker's user search. An empty result
// is not an error. Without a configured directory URL the capability is
// unavailable.
func (c *Client) SearchByName(ctx context.Context, text string) ([]allocation.Candidate, error) {
	if c.DirectoryURL == "" {
		return nil, &allocation.CapabilityError{
			Capability: "identity-search",
			Op:         "search by name",
			Cause:      fmt.Errorf("no directoryUrl configured"),
		}
	}

	endpoint := fmt.Sprintf("%s/user/search?query=%s", c.DirectoryURL, url.QueryEscape(text))

	var results []userSearchResult
	if err := c.getJSON(ctx, endpoint, &results); err != nil {
		return nil, &allocation.CapabilityError{Capability: "identity-search", Op: "search by name", Cause: err}
	}

	candidates := make([]allocation.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, allocation.Candidate{
			Identity:    allocation.Identity(r.AccountID),
			DisplayName: r.DisplayName,
		})
	}
	return candidates, nil
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
