// Package autoplan plans the day on a daily schedule and records a
// notification for every task it places.
package autoplan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"

	"github.com/nhle/dayplanner/internal/logging"
	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/planner"
)

// runTimeout bounds a single planning run.
const runTimeout = 30 * time.Second

// RunState is the state of the runner's job.
type RunState int

const (
	RunIdle RunState = iota
	RunRunning
	RunError
)

// Status describes the most recent run.
type Status struct {
	State       RunState
	LastRun     time.Time
	NextRun     time.Time
	Scheduled   int
	Unscheduled int
	Notified    int
	Message     string
	Error       error
}

// RunDoneMsg is a tea.Msg sent when a planning run completes.
type RunDoneMsg struct {
	Result planner.Result
	Status Status
}

// DayPlanner plans the current day.
type DayPlanner interface {
	PlanDay(ctx context.Context, prefs model.Preferences) planner.Result
}

// Notifier records notifications.
type Notifier interface {
	CreateNotification(ctx context.Context, n model.Notification) error
}

// Runner runs the day planner once a day at a fixed local wall-clock time.
type Runner struct {
	planner  DayPlanner
	notifier Notifier
	log      *slog.Logger
	cron     *cron.Cron
	spec     string
	now      func() time.Time

	mu      sync.Mutex
	prefs   model.Preferences
	status  Status
	entry   cron.EntryID
	started bool

	runMu    sync.Mutex
	resultCh chan RunDoneMsg
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner that plans the day at the local time at ("HH:MM").
func New(p DayPlanner, n Notifier, prefs model.Preferences, at string, log *slog.Logger, opts ...Option) (*Runner, error) {
	spec, err := dailySpec(at)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		planner:  p,
		notifier: n,
		log:      logging.OrDiscard(log),
		cron:     cron.New(cron.WithLocation(time.Local)),
		spec:     spec,
		now:      time.Now,
		prefs:    prefs,
		resultCh: make(chan RunDoneMsg, 4),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// dailySpec turns "HH:MM" into a five-field cron spec.
func dailySpec(at string) (string, error) {
	hour, minute, err := model.ParseClock(at)
	if err != nil {
		return "", fmt.Errorf("autoplan time: %w", err)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// Start registers the daily job and starts the scheduler. Calling Start
// twice is a no-op.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}
	id, err := r.cron.AddFunc(r.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		r.RunNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling autoplan: %w", err)
	}
	r.entry = id
	r.started = true
	r.cron.Start()
	r.log.Info("autoplan scheduled", "spec", r.spec, "next", r.cron.Entry(id).Next)
	return nil
}

// Stop removes the daily job, stops the scheduler and waits for a running
// job to finish. A later Start registers the job again.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.cron.Remove(r.entry)
	r.entry = 0
	r.mu.Unlock()

	<-r.cron.Stop().Done()
}

// SetPreferences replaces the preferences used by the following runs.
func (r *Runner) SetPreferences(prefs model.Preferences) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs = prefs
}

// Status returns the state of the most recent run and the next run time.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.status
	if r.started {
		s.NextRun = r.cron.Entry(r.entry).Next
	}
	return s
}

// RunNow plans the day immediately and records one notification per
// scheduled task. Runs never overlap.
func (r *Runner) RunNow(ctx context.Context) Status {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.mu.Lock()
	prefs := r.prefs
	r.status.State = RunRunning
	r.mu.Unlock()

	res := r.planner.PlanDay(ctx, prefs)

	notified := 0
	var notifyErr error
	for _, t := range res.Scheduled {
		if t.PlannedTime == nil {
			continue
		}
		at := *t.PlannedTime
		err := r.notifier.CreateNotification(ctx, model.Notification{
			TaskID:      t.ID,
			Message:     fmt.Sprintf("Planned %s at %s", t.Name, at.In(time.Local).Format("15:04")),
			ScheduledAt: &at,
			CreatedAt:   r.now(),
		})
		if err != nil {
			r.log.Warn("recording plan notification", "task_id", t.ID, "error", err)
			notifyErr = err
			continue
		}
		notified++
	}

	r.mu.Lock()
	r.status = Status{
		State:       RunIdle,
		LastRun:     r.now(),
		Scheduled:   len(res.Scheduled),
		Unscheduled: len(res.Unscheduled),
		Notified:    notified,
		Message:     res.Message,
		Error:       notifyErr,
	}
	if notifyErr != nil || len(res.Failed) > 0 {
		r.status.State = RunError
	}
	status := r.status
	r.mu.Unlock()

	r.log.Info("autoplan run finished",
		"scheduled", status.Scheduled,
		"unscheduled", status.Unscheduled,
		"notified", status.Notified,
		"message", status.Message,
	)
	r.sendResult(RunDoneMsg{Result: res, Status: status})
	return status
}

// sendResult publishes a run result without blocking the job.
func (r *Runner) sendResult(msg RunDoneMsg) {
	select {
	case r.resultCh <- msg:
	default:
	}
}

// WaitForRun returns a tea.Cmd that waits for the next completed run.
// Call it again after handling each RunDoneMsg to keep listening.
func (r *Runner) WaitForRun() tea.Cmd {
	return func() tea.Msg {
		return <-r.resultCh
	}
}
