package model

import "time"

// Project groups related tasks. Deleting a project deletes its tasks.
type Project struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Color       string    `json:"color" db:"color"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectSummary is a project with counts of the work it holds.
type ProjectSummary struct {
	Project
	OpenTasks      int `json:"open_tasks" db:"open_tasks"`
	RecurringRules int `json:"recurring_rules" db:"recurring_rules"`
}
