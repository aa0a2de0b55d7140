package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nhle/dayplanner/internal/dateonly"
	"github.com/nhle/dayplanner/internal/logging"
	"github.com/nhle/dayplanner/internal/model"
)

// NoTasksMessage is the result message when nothing is due or planned today.
const NoTasksMessage = "No tasks to plan for today"

// TaskStore is the storage the planner reads candidates from and writes
// planned times to.
type TaskStore interface {
	GetPlanningCandidates(ctx context.Context, today string) ([]model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) error
}

// Result is what PlanDay reports back. Scheduled is ordered by planned time.
type Result struct {
	Scheduled   []model.Task
	Unscheduled []model.Task

	// Failed maps the ids of tasks whose new plan could not be saved to the
	// storage error. Those tasks are also listed in Unscheduled.
	Failed map[string]error

	Message string
}

// Planner plans the current day against a task store.
type Planner struct {
	store TaskStore
	log   *slog.Logger
	now   func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// New creates a Planner. A nil logger discards output.
func New(store TaskStore, log *slog.Logger, opts ...Option) *Planner {
	p := &Planner{
		store: store,
		log:   logging.OrDiscard(log),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanDay loads today's candidates, builds a schedule and saves every new
// planned time. It never fails as a whole: problems are reported through
// the result message and the Failed map.
func (p *Planner) PlanDay(ctx context.Context, prefs model.Preferences) Result {
	now := p.now()
	today := dateonly.FormatLocal(now)

	candidates, err := p.store.GetPlanningCandidates(ctx, today)
	if err != nil {
		p.log.Error("loading planning candidates", "date", today, "error", err)
		return Result{
			Scheduled:   []model.Task{},
			Unscheduled: []model.Task{},
			Message:     fmt.Sprintf("Could not load tasks for today: %v", err),
		}
	}
	if len(candidates) == 0 {
		return Result{
			Scheduled:   []model.Task{},
			Unscheduled: []model.Task{},
			Message:     NoTasksMessage,
		}
	}

	plan, err := Build(candidates, prefs, now)
	if err != nil {
		p.log.Warn("invalid planning preferences", "error", err)
		unscheduled := make([]model.Task, 0, len(candidates))
		for _, t := range candidates {
			unscheduled = append(unscheduled, t.Clone())
		}
		return Result{
			Scheduled:   []model.Task{},
			Unscheduled: unscheduled,
			Message:     fmt.Sprintf("Invalid preferences: %v", err),
		}
	}

	res := Result{
		Scheduled:   append([]model.Task{}, plan.Kept...),
		Unscheduled: append([]model.Task{}, plan.Unscheduled...),
	}
	for _, t := range plan.Assigned {
		if err := p.store.UpdateTask(ctx, t); err != nil {
			p.log.Warn("saving planned time", "task_id", t.ID, "error", err)
			if res.Failed == nil {
				res.Failed = make(map[string]error)
			}
			res.Failed[t.ID] = err
			t.PlannedTime = nil
			res.Unscheduled = append(res.Unscheduled, t)
			continue
		}
		res.Scheduled = append(res.Scheduled, t)
	}

	sort.SliceStable(res.Scheduled, func(i, j int) bool {
		return res.Scheduled[i].PlannedTime.Before(*res.Scheduled[j].PlannedTime)
	})

	res.Message = summary(len(res.Scheduled), len(res.Unscheduled), len(res.Failed))
	p.log.Info("planned day",
		"date", today,
		"scheduled", len(res.Scheduled),
		"unscheduled", len(res.Unscheduled),
		"failed", len(res.Failed),
	)
	return res
}

func summary(scheduled, unscheduled, failed int) string {
	msg := fmt.Sprintf("Scheduled %d %s", scheduled, plural(scheduled))
	if unscheduled > 0 {
		msg += fmt.Sprintf(", %d left unscheduled", unscheduled)
	}
	if failed > 0 {
		msg += fmt.Sprintf(" (%d failed to save)", failed)
	}
	return msg
}

func plural(n int) string {
	if n == 1 {
		return "task"
	}
	return "tasks"
}
