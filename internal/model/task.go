package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nhle/dayplanner/internal/dateonly"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusPlanning Status = "PLANNING"
	StatusDoing    Status = "DOING"
	StatusDone     Status = "DONE"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusDoing, StatusDone:
		return true
	}
	return false
}

// Priority is the importance of a task.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities; a higher rank is planned earlier. Unknown
// priorities rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

const (
	// MaxTextLength bounds task names and descriptions, in characters.
	MaxTextLength = 255

	// DefaultDuration is assumed for tasks without an estimate, in minutes.
	DefaultDuration = 30

	// MaxDuration caps a task estimate at one day, in minutes.
	MaxDuration = 24 * 60
)

// Task is one unit of work.
type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Duration is the estimated effort in minutes. Nil means unknown.
	Duration *int `json:"duration,omitempty"`

	ProjectID string `json:"project_id"`

	// DueDate is a local calendar date ("YYYY-MM-DD") or empty.
	DueDate string `json:"due_date,omitempty"`

	// PlannedTime is the start time assigned by the day planner.
	PlannedTime *time.Time `json:"planned_time,omitempty"`

	Status       Status    `json:"status"`
	Priority     Priority  `json:"priority"`
	Labels       []string  `json:"labels"`
	Dependencies []string  `json:"dependencies"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsDone reports whether the task is completed.
func (t Task) IsDone() bool { return t.Status == StatusDone }

// DurationOr returns the task duration in minutes, or def when unset.
func (t Task) DurationOr(def int) int {
	if t.Duration == nil {
		return def
	}
	return *t.Duration
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	if t.Duration != nil {
		d := *t.Duration
		c.Duration = &d
	}
	if t.PlannedTime != nil {
		p := *t.PlannedTime
		c.PlannedTime = &p
	}
	c.Labels = cloneStrings(t.Labels)
	c.Dependencies = cloneStrings(t.Dependencies)
	return c
}

// Validate checks every task invariant, including the ones relative to the
// creation time: the due date may not precede the creation day and the
// planned time may not precede creation.
func (t Task) Validate() error {
	fe := t.shapeErrors()
	if !t.CreatedAt.IsZero() && t.DueDate != "" && dateonly.Valid(t.DueDate) {
		if dateonly.Compare(t.DueDate, dateonly.FormatLocal(t.CreatedAt)) < 0 {
			fe.add("due_date", "must not be before the creation date")
		}
	}
	return fe.err()
}

// ValidateShape checks the structural invariants only: enumerations,
// lengths and formats. Occurrences cloned for an overdue series carry a
// due date in the past and are checked with this.
func (t Task) ValidateShape() error {
	return t.shapeErrors().err()
}

func (t Task) shapeErrors() *fieldErrors {
	fe := &fieldErrors{entity: "task"}

	if strings.TrimSpace(t.Name) == "" {
		fe.add("name", "must not be empty")
	} else if utf8.RuneCountInString(t.Name) > MaxTextLength {
		fe.add("name", "must be at most %d characters", MaxTextLength)
	}
	if utf8.RuneCountInString(t.Description) > MaxTextLength {
		fe.add("description", "must be at most %d characters", MaxTextLength)
	}
	if t.Duration != nil {
		switch d := *t.Duration; {
		case d <= 0:
			fe.add("duration", "must be positive, got %d", d)
		case d > MaxDuration:
			fe.add("duration", "must be at most %d minutes, got %d", MaxDuration, d)
		}
	}
	if strings.TrimSpace(t.ProjectID) == "" {
		fe.add("project_id", "must not be empty")
	}
	if t.DueDate != "" && !dateonly.Valid(t.DueDate) {
		fe.add("due_date", "must be YYYY-MM-DD, got %q", t.DueDate)
	}
	if t.PlannedTime != nil && !t.CreatedAt.IsZero() && t.PlannedTime.Before(t.CreatedAt) {
		fe.add("planned_time", "must not be before creation")
	}
	if !t.Status.Valid() {
		fe.add("status", "unknown value %q", t.Status)
	}
	if !t.Priority.Valid() {
		fe.add("priority", "unknown value %q", t.Priority)
	}
	return fe
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
