/*
Package sqlite provides the local submission journal.

PURPOSE:
  Records every worklog line the engine submitted (or tried to submit)
  in a local SQLite database. The journal is the audit trail for "what
  did I actually log that day?" without a round-trip to the remote
  store, and it keeps the failed lines that the remote store never saw.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the submissions table
  - No DELETE statements on the submissions table
  The journal records what happened; it never rewrites history.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so the serve and
  one-shot CLI paths can read while a submission is being recorded.

USAGE:
  journal, err := sqlite.New("./allocator-journal.db")
  if err != nil {
      log.Fatal(err)
  }
  defer journal.Close()

  journal.RecordResult(ctx, result)

SEE ALSO:
  - allocation/types.go: AllocationResult, the unit being journaled
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/allocation-engine/allocation"
)

// Submission statuses as stored in the journal.
const (
	SubmissionCreated = "created"
	SubmissionFailed  = "failed"
)

// Submission is one journaled line.
type Submission struct {
	ID          string
	Identity    string
	Date        string
	Preset      string
	IssueKey    string
	IssueID     int
	Seconds     int
	Description string
	Status      string
	Error       string
	WorklogID   string
	CreatedAt   time.Time
}

// Journal is the SQLite-backed submission journal.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (and migrates) the journal at dbPath. Use ":memory:" for
// tests.
func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	schema := `
	-- Submissions (append-only journal)
	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		identity TEXT NOT NULL,
		date TEXT NOT NULL,
		preset TEXT NOT NULL,
		issue_key TEXT NOT NULL,
		issue_id INTEGER NOT NULL,
		seconds INTEGER NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		error TEXT,
		worklog_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_identity_date
		ON submissions(identity, date);
	`
	_, err := j.db.Exec(schema)
	return err
}

// RecordResult journals every created and failed line of one allocation
// result. Guard blocks journal nothing: nothing was submitted.
func (j *Journal) RecordResult(ctx context.Context, result *allocation.AllocationResult) error {
	if result == nil || result.Status == allocation.StatusBlocked {
		return nil
	}

	subs := make([]Submission, 0, len(result.Created)+len(result.Failed))
	for _, e := range result.Created {
		subs = append(subs, Submission{
			Identity:    string(result.Identity),
			Date:        result.Date.String(),
			Preset:      result.Preset,
			IssueKey:    e.IssueKey,
			IssueID:     e.IssueID,
			Seconds:     e.Seconds,
			Description: e.Description,
			Status:      SubmissionCreated,
			WorklogID:   e.ID,
		})
	}
	for _, f := range result.Failed {
		subs = append(subs, Submission{
			Identity:    string(result.Identity),
			Date:        result.Date.String(),
			Preset:      result.Preset,
			IssueKey:    f.Line.IssueKey,
			IssueID:     f.IssueID,
			Seconds:     f.Seconds,
			Description: f.Line.Description,
			Status:      SubmissionFailed,
			Error:       f.Err.Error(),
		})
	}
	return j.Append(ctx, subs...)
}

// Append journals submissions atomically. Missing IDs and timestamps
// are assigned here.
func (j *Journal) Append(ctx context.Context, subs ...Submission) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, s := range subs {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO submissions
				(id, identity, date, preset, issue_key, issue_id, seconds,
				 description, status, error, worklog_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Identity, s.Date, s.Preset, s.IssueKey, s.IssueID, s.Seconds,
			s.Description, s.Status, s.Error, s.WorklogID,
			s.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListByDay returns all journaled submissions for (identity, date), in
// insertion order.
func (j *Journal) ListByDay(ctx context.Context, identity allocation.Identity, date allocation.Date) ([]Submission, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, identity, date, preset, issue_key, issue_id, seconds,
		       description, status, error, worklog_id, created_at
		FROM submissions
		WHERE identity = ? AND date = ?
		ORDER BY rowid`,
		string(identity), date.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var s Submission
		var createdAt string
		if err := rows.Scan(&s.ID, &s.Identity, &s.Date, &s.Preset, &s.IssueKey,
			&s.IssueID, &s.Seconds, &s.Description, &s.Status, &s.Error,
			&s.WorklogID, &createdAt); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			s.CreatedAt = t
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
