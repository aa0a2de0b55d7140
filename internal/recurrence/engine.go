// Package recurrence regenerates repeating tasks when an occurrence is
// completed.
package recurrence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/dayplanner/internal/dateonly"
	"github.com/nhle/dayplanner/internal/logging"
	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/store"
)

// Store is the storage the engine reads occurrences and rules from.
type Store interface {
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	CreateTask(ctx context.Context, task model.Task) (string, error)
	GetRuleByTaskID(ctx context.Context, taskID string) (*model.RecurrenceRule, error)
	UpdateRule(ctx context.Context, id string, patch model.RulePatch) error
	DeleteRule(ctx context.Context, id string) error
}

// Engine turns the completion of a recurring occurrence into its successor.
type Engine struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
	locks *keyedMutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(s Store, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: s,
		log:   logging.OrDiscard(log),
		now:   time.Now,
		locks: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessTaskCompletion runs after taskID moved to DONE. When the task
// carries a recurrence rule and the series goes on, it stores the next
// occurrence, moves the rule onto it and returns it. It returns nil when
// there is no rule, the series has ended, or the successor could not be
// stored. Failures are logged, never returned.
//
// Calls for the same task id are serialized; a repeated call finds the
// rule already moved and returns nil.
func (e *Engine) ProcessTaskCompletion(ctx context.Context, taskID string) *model.Task {
	unlock := e.locks.lock(taskID)
	defer unlock()

	log := e.log.With("task_id", taskID)

	task, err := e.store.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Error("completed task not found")
		} else {
			log.Error("loading completed task", "error", err)
		}
		return nil
	}

	rule, err := e.store.GetRuleByTaskID(ctx, taskID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("loading recurrence rule", "error", err)
		}
		return nil
	}
	log = log.With("rule_id", rule.ID)

	if rule.IsLastOccurrence() {
		log.Info("last occurrence completed, ending series")
		e.endSeries(ctx, log, rule.ID)
		return nil
	}

	now := e.now()
	base := task.DueDate
	if base == "" {
		base = dateonly.FormatLocal(now)
	}

	next, ok := rule.NextOccurrence(base)
	if !ok || !rule.ShouldContinue(next) {
		log.Info("series past its end, ending series", "base", base, "end_date", rule.EndDate)
		e.endSeries(ctx, log, rule.ID)
		return nil
	}

	successor := nextOccurrence(*task, next, now)
	id, err := e.store.CreateTask(ctx, successor)
	if err != nil {
		log.Error("storing next occurrence, rule left in place", "due_date", next, "error", err)
		return nil
	}
	successor.ID = id

	patch := model.RulePatch{TaskID: &id}
	if rule.Count != nil && *rule.Count > 0 {
		remaining := *rule.Count - 1
		patch.Count = &remaining
	}
	if err := e.store.UpdateRule(ctx, rule.ID, patch); err != nil {
		log.Error("moving rule to next occurrence", "next_task_id", id, "error", err)
	} else {
		log.Info("scheduled next occurrence", "next_task_id", id, "due_date", next)
	}

	return &successor
}

func (e *Engine) endSeries(ctx context.Context, log *slog.Logger, ruleID string) {
	if err := e.store.DeleteRule(ctx, ruleID); err != nil {
		log.Error("deleting finished rule", "error", err)
	}
}

// nextOccurrence copies the completed task into a fresh PLANNING
// occurrence due on next.
func nextOccurrence(done model.Task, next string, now time.Time) model.Task {
	t := done.Clone()
	t.ID = uuid.New().String()
	t.DueDate = next
	t.PlannedTime = nil
	t.Status = model.StatusPlanning
	t.Labels = store.DecodeStringList(done.Labels)
	t.Dependencies = store.DecodeStringList(done.Dependencies)
	t.CreatedAt = now
	t.UpdatedAt = now
	return t
}
