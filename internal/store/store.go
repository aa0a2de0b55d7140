package store

import (
	"context"
	"errors"

	"github.com/nhle/dayplanner/internal/model"
)

// ErrNotFound is returned (wrapped) when a row addressed by id does not
// exist. Check for it with errors.Is to tell it apart from storage failures.
var ErrNotFound = errors.New("not found")

// TaskFilter controls filtering, sorting, and pagination for task queries.
type TaskFilter struct {
	ProjectID *string
	Status    *model.Status
	DueDate   *string // exact local calendar date
	Query     *string // search name + description
	SortBy    string  // "created_at", "updated_at", "due_date", "planned_time", "priority", "name"
	SortDesc  bool
	Limit     int
	Offset    int
}

// Store defines the persistence interface for tasks, recurrence rules,
// projects and notifications.
type Store interface {
	// === Tasks ===

	CreateTask(ctx context.Context, task model.Task) (string, error)
	UpdateTask(ctx context.Context, task model.Task) error
	DeleteTask(ctx context.Context, id string) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetPlanningCandidates(ctx context.Context, today string) ([]model.Task, error)

	// === Recurrence rules ===

	CreateRule(ctx context.Context, rule model.RecurrenceRule) (string, error)
	GetRuleByID(ctx context.Context, id string) (*model.RecurrenceRule, error)
	GetRuleByTaskID(ctx context.Context, taskID string) (*model.RecurrenceRule, error)
	UpdateRule(ctx context.Context, id string, patch model.RulePatch) error
	DeleteRule(ctx context.Context, id string) error

	// === Projects ===

	CreateProject(ctx context.Context, project model.Project) (string, error)
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	GetProjects(ctx context.Context) ([]model.Project, error)
	GetProjectSummaries(ctx context.Context) ([]model.ProjectSummary, error)
	DeleteProject(ctx context.Context, id string) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}
