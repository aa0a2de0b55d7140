// Package tasks holds the user-facing task operations: creating and
// editing tasks, status changes, and attaching recurrence rules.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/dayplanner/internal/dateonly"
	"github.com/nhle/dayplanner/internal/logging"
	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/store"
)

// ErrAlreadyRecurring is returned when a task already carries a rule.
var ErrAlreadyRecurring = errors.New("task already has a recurrence rule")

// Store is the storage the service needs.
type Store interface {
	CreateTask(ctx context.Context, task model.Task) (string, error)
	UpdateTask(ctx context.Context, task model.Task) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetRuleByTaskID(ctx context.Context, taskID string) (*model.RecurrenceRule, error)
	CreateRule(ctx context.Context, rule model.RecurrenceRule) (string, error)
	DeleteRule(ctx context.Context, id string) error
}

// Completer produces the next occurrence of a completed recurring task.
// recurrence.Engine implements it.
type Completer interface {
	ProcessTaskCompletion(ctx context.Context, taskID string) *model.Task
}

// UpdateResult is the outcome of an update. Next is the successor
// occurrence created when the update completed a recurring task.
type UpdateResult struct {
	Task model.Task
	Next *model.Task
}

// Service implements task operations on top of a Store.
type Service struct {
	store     Store
	completer Completer
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. completer may be nil, in which case
// completing a task never produces a successor.
func NewService(s Store, completer Completer, log *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:     s,
		completer: completer,
		log:       logging.OrDiscard(log),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create fills defaults, validates and stores a new task.
func (s *Service) Create(ctx context.Context, task model.Task) (model.Task, error) {
	now := s.now()
	task.ID = ""
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = model.StatusPlanning
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Labels == nil {
		task.Labels = []string{}
	}
	if task.Dependencies == nil {
		task.Dependencies = []string{}
	}
	if err := normalizeDueDate(&task); err != nil {
		return model.Task{}, err
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}

	id, err := s.store.CreateTask(ctx, task)
	if err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}
	task.ID = id
	s.log.Debug("task created", "task_id", id)
	return task, nil
}

// Update validates and stores task. When the update moves the task into
// DONE, the recurrence engine runs and its successor is returned.
func (s *Service) Update(ctx context.Context, task model.Task) (UpdateResult, error) {
	prev, err := s.store.GetTaskByID(ctx, task.ID)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("loading task %s: %w", task.ID, err)
	}

	task.CreatedAt = prev.CreatedAt
	if err := normalizeDueDate(&task); err != nil {
		return UpdateResult{}, err
	}
	if err := task.ValidateShape(); err != nil {
		return UpdateResult{}, err
	}
	// The due date may only be checked against creation when it changes;
	// an unchanged overdue occurrence stays editable.
	if task.DueDate != prev.DueDate {
		if err := task.Validate(); err != nil {
			return UpdateResult{}, err
		}
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return UpdateResult{}, fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	task.UpdatedAt = s.now()

	res := UpdateResult{Task: task}
	if !prev.IsDone() && task.IsDone() && s.completer != nil {
		res.Next = s.completer.ProcessTaskCompletion(ctx, task.ID)
	}
	return res, nil
}

// SetStatus changes only the status of a task.
func (s *Service) SetStatus(ctx context.Context, id string, status model.Status) (UpdateResult, error) {
	if !status.Valid() {
		return UpdateResult{}, &model.ValidationError{
			Entity: "task", Field: "status", Message: fmt.Sprintf("unknown value %q", status),
		}
	}
	task, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("loading task %s: %w", id, err)
	}
	task.Status = status
	return s.Update(ctx, *task)
}

// Complete marks a task DONE.
func (s *Service) Complete(ctx context.Context, id string) (UpdateResult, error) {
	return s.SetStatus(ctx, id, model.StatusDone)
}

// AttachRecurrence attaches rule to the task. A task carries at most one
// rule.
func (s *Service) AttachRecurrence(ctx context.Context, taskID string, rule model.RecurrenceRule) (model.RecurrenceRule, error) {
	if _, err := s.store.GetTaskByID(ctx, taskID); err != nil {
		return model.RecurrenceRule{}, fmt.Errorf("loading task %s: %w", taskID, err)
	}

	rule.ID = ""
	rule.TaskID = taskID
	rule.CreatedAt = s.now()
	if rule.EndDate != "" {
		end, ok := dateonly.Coerce(rule.EndDate)
		if !ok {
			return model.RecurrenceRule{}, &model.ValidationError{
				Entity: "recurrence rule", Field: "end_date", Message: fmt.Sprintf("cannot read %q", rule.EndDate),
			}
		}
		rule.EndDate = end
	}
	if err := rule.Validate(); err != nil {
		return model.RecurrenceRule{}, err
	}

	existing, err := s.store.GetRuleByTaskID(ctx, taskID)
	switch {
	case err == nil:
		return model.RecurrenceRule{}, fmt.Errorf("task %s (rule %s): %w", taskID, existing.ID, ErrAlreadyRecurring)
	case !errors.Is(err, store.ErrNotFound):
		return model.RecurrenceRule{}, fmt.Errorf("checking rule for task %s: %w", taskID, err)
	}

	id, err := s.store.CreateRule(ctx, rule)
	if err != nil {
		return model.RecurrenceRule{}, fmt.Errorf("attaching rule to task %s: %w", taskID, err)
	}
	rule.ID = id
	s.log.Info("recurrence attached", "task_id", taskID, "rule_id", id, "frequency", rule.Frequency)
	return rule, nil
}

// DetachRecurrence removes the rule from the task.
func (s *Service) DetachRecurrence(ctx context.Context, taskID string) error {
	rule, err := s.store.GetRuleByTaskID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("loading rule for task %s: %w", taskID, err)
	}
	if err := s.store.DeleteRule(ctx, rule.ID); err != nil {
		return fmt.Errorf("detaching rule from task %s: %w", taskID, err)
	}
	s.log.Info("recurrence detached", "task_id", taskID, "rule_id", rule.ID)
	return nil
}

// normalizeDueDate pads or converts the due date to YYYY-MM-DD.
func normalizeDueDate(task *model.Task) error {
	if task.DueDate == "" {
		return nil
	}
	due, ok := dateonly.Coerce(task.DueDate)
	if !ok {
		return &model.ValidationError{
			Entity: "task", Field: "due_date", Message: fmt.Sprintf("cannot read %q", task.DueDate),
		}
	}
	task.DueDate = due
	return nil
}
