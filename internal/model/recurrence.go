package model

import (
	"time"

	"github.com/nhle/dayplanner/internal/dateonly"
)

// Frequency is the unit a recurrence interval is counted in.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// RecurrenceRule is the repeat policy of a task lineage. TaskID always
// points at the current occurrence; the rule moves forward as occurrences
// are completed instead of being copied.
type RecurrenceRule struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Frequency Frequency `json:"frequency"`
	Interval  int       `json:"interval"`

	// EndDate is the last calendar date an occurrence may fall on.
	EndDate string `json:"end_date,omitempty"`

	// Count is the number of occurrences left, including the current one.
	// Nil means unbounded.
	Count *int `json:"count,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RulePatch lists the rule fields to change. Nil fields are left alone.
type RulePatch struct {
	TaskID    *string
	Frequency *Frequency
	Interval  *int
	EndDate   *string
	Count     *int
}

// Validate checks the rule invariants.
func (r RecurrenceRule) Validate() error {
	fe := &fieldErrors{entity: "recurrence rule"}
	if r.TaskID == "" {
		fe.add("task_id", "must not be empty")
	}
	if !r.Frequency.Valid() {
		fe.add("frequency", "unknown value %q", r.Frequency)
	}
	if r.Interval <= 0 {
		fe.add("interval", "must be positive, got %d", r.Interval)
	}
	if r.EndDate != "" && !dateonly.Valid(r.EndDate) {
		fe.add("end_date", "must be YYYY-MM-DD, got %q", r.EndDate)
	}
	if r.Count != nil && *r.Count < 1 {
		fe.add("count", "must be at least 1, got %d", *r.Count)
	}
	return fe.err()
}

// AddInterval moves the calendar date base forward by interval units of f.
// Month and year arithmetic normalizes overflowing days the way
// time.AddDate does (Jan 31 + 1 month = Mar 2 or 3).
func AddInterval(base string, f Frequency, interval int) (string, bool) {
	day, err := dateonly.ParseLocal(base)
	if err != nil || interval <= 0 {
		return "", false
	}
	switch f {
	case FrequencyDaily:
		day = day.AddDate(0, 0, interval)
	case FrequencyWeekly:
		day = day.AddDate(0, 0, interval*7)
	case FrequencyMonthly:
		day = day.AddDate(0, interval, 0)
	case FrequencyYearly:
		day = day.AddDate(interval, 0, 0)
	default:
		return "", false
	}
	return day.Format(dateonly.Layout), true
}

// NextOccurrence returns the calendar date of the occurrence after from.
// The boolean is false when from is malformed, already past the end date,
// or when the computed date would fall after the end date.
func (r RecurrenceRule) NextOccurrence(from string) (string, bool) {
	base, ok := dateonly.Coerce(from)
	if !ok {
		return "", false
	}
	if r.EndDate != "" && dateonly.Compare(base, r.EndDate) > 0 {
		return "", false
	}
	next, ok := AddInterval(base, r.Frequency, r.Interval)
	if !ok {
		return "", false
	}
	if r.EndDate != "" && dateonly.Compare(next, r.EndDate) > 0 {
		return "", false
	}
	return next, true
}

// ShouldContinue reports whether the series goes on with an occurrence on
// next once the current occurrence is completed.
func (r RecurrenceRule) ShouldContinue(next string) bool {
	if r.EndDate != "" && dateonly.Compare(next, r.EndDate) > 0 {
		return false
	}
	if r.Count != nil && *r.Count-1 <= 0 {
		return false
	}
	return true
}

// IsLastOccurrence reports whether the remaining count says the current
// occurrence ends the series.
func (r RecurrenceRule) IsLastOccurrence() bool {
	return r.Count != nil && *r.Count <= 1
}
