package allocation

import "time"

// =============================================================================
// DATE - Calendar date (day granularity, UTC)
// =============================================================================

// Date is a calendar date with no time-of-day component. The engine
// operates on whole days; hour granularity belongs to the worklog store.
type Date struct {
	Time time.Time
}

// NewDate constructs a Date for a specific day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD). Relative keywords
// like "today" are resolved by callers before reaching this package.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, &InvalidDateError{Input: s, Cause: err}
	}
	return Date{Time: t.UTC()}, nil
}

// Today returns the current date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Equal(other Date) bool  { return d.normalize().Equal(other.normalize()) }
func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool  { return d.normalize().After(other.normalize()) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.normalize().Format("2006-01-02") }
