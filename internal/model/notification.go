package model

import "time"

// Notification is a reminder recorded for a task, for example when the
// auto-planner schedules it.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// TaskID links this notification to its task. Deleting the task
	// deletes the notification.
	TaskID string `json:"task_id" db:"task_id"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// ScheduledAt is when the reminder is meant to fire, if any.
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	// CreatedAt is when this notification was recorded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
