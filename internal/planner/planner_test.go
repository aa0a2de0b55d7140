package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/tests/testutil"
)

func TestMain(m *testing.M) {
	time.Local = time.FixedZone("UTC-5", -5*60*60)
	m.Run()
}

// --- fakes ---

type fakeStore struct {
	candidatesFn func(string) ([]model.Task, error)
	updateFn     func(model.Task) error
}

func (s *fakeStore) GetPlanningCandidates(_ context.Context, today string) ([]model.Task, error) {
	return s.candidatesFn(today)
}

func (s *fakeStore) UpdateTask(_ context.Context, task model.Task) error {
	return s.updateFn(task)
}

// --- helpers ---

var created = time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)

func at(hh, mm int) time.Time {
	return time.Date(2024, 3, 4, hh, mm, 0, 0, time.Local)
}

func prefs(start, end string, buffer int) model.Preferences {
	return model.Preferences{
		WorkingHours:    model.WorkingHours{StartTime: start, EndTime: end},
		BufferTime:      buffer,
		DefaultDuration: 30,
	}
}

func task(id string, p model.Priority, duration int) model.Task {
	t := model.Task{
		ID:        id,
		Name:      id,
		ProjectID: "p1",
		DueDate:   "2024-03-04",
		Status:    model.StatusPlanning,
		Priority:  p,
		CreatedAt: created,
	}
	if duration > 0 {
		t.Duration = testutil.IntPtr(duration)
	}
	return t
}

func ids(tasks []model.Task) string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return strings.Join(out, ",")
}

func recordingStore(candidates []model.Task, saved *[]model.Task) *fakeStore {
	return &fakeStore{
		candidatesFn: func(string) ([]model.Task, error) { return candidates, nil },
		updateFn: func(t model.Task) error {
			*saved = append(*saved, t)
			return nil
		},
	}
}

// --- tests ---

func TestPlanDayBufferBeforeEveryTask(t *testing.T) {
	var saved []model.Task
	store := recordingStore([]model.Task{
		task("a", model.PriorityMedium, 30),
		task("b", model.PriorityMedium, 30),
	}, &saved)
	p := New(store, nil, WithClock(func() time.Time { return at(10, 0) }))

	res := p.PlanDay(context.Background(), prefs("10:00", "17:00", 15))

	if len(res.Scheduled) != 2 {
		t.Fatalf("scheduled = %d, want 2 (%s)", len(res.Scheduled), res.Message)
	}
	if got := *res.Scheduled[0].PlannedTime; !got.Equal(at(10, 15)) {
		t.Fatalf("first start = %v, want 10:15", got)
	}
	if got := *res.Scheduled[1].PlannedTime; !got.Equal(at(11, 0)) {
		t.Fatalf("second start = %v, want 11:00", got)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d tasks, want 2", len(saved))
	}
}

func TestPlanDayNoCandidates(t *testing.T) {
	store := &fakeStore{
		candidatesFn: func(string) ([]model.Task, error) { return nil, nil },
		updateFn: func(model.Task) error {
			t.Fatal("UpdateTask() should not be called without candidates")
			return nil
		},
	}
	res := New(store, nil).PlanDay(context.Background(), prefs("09:00", "17:00", 0))

	if res.Scheduled == nil || res.Unscheduled == nil {
		t.Fatal("empty result lists must be non-nil")
	}
	if len(res.Scheduled) != 0 || len(res.Unscheduled) != 0 {
		t.Fatalf("got %d/%d tasks, want none", len(res.Scheduled), len(res.Unscheduled))
	}
	if !strings.Contains(res.Message, "No tasks to plan") {
		t.Fatalf("Message = %q", res.Message)
	}
}

func TestPlanDayQueriesLocalToday(t *testing.T) {
	var asked string
	store := &fakeStore{
		candidatesFn: func(today string) ([]model.Task, error) {
			asked = today
			return nil, nil
		},
		updateFn: func(model.Task) error { return nil },
	}
	// 03:30 UTC on Mar 5 is still Mar 4 at UTC-5.
	now := time.Date(2024, 3, 5, 3, 30, 0, 0, time.UTC)
	New(store, nil, WithClock(func() time.Time { return now })).
		PlanDay(context.Background(), prefs("09:00", "17:00", 0))

	if asked != "2024-03-04" {
		t.Fatalf("candidates requested for %q, want 2024-03-04", asked)
	}
}

func TestPlanDayPriorityOrderIsStable(t *testing.T) {
	var saved []model.Task
	store := recordingStore([]model.Task{
		task("low", model.PriorityLow, 30),
		task("med1", model.PriorityMedium, 30),
		task("high", model.PriorityHigh, 30),
		task("med2", model.PriorityMedium, 30),
	}, &saved)
	p := New(store, nil, WithClock(func() time.Time { return at(8, 0) }))

	res := p.PlanDay(context.Background(), prefs("09:00", "17:00", 0))

	if got := ids(res.Scheduled); got != "high,med1,med2,low" {
		t.Fatalf("order = %s, want high,med1,med2,low", got)
	}
	if got := *res.Scheduled[0].PlannedTime; !got.Equal(at(9, 0)) {
		t.Fatalf("first start = %v, want 09:00", got)
	}
}

func TestPlanDayUsesDefaultDuration(t *testing.T) {
	var saved []model.Task
	store := recordingStore([]model.Task{
		task("unsized", model.PriorityHigh, 0),
		task("next", model.PriorityLow, 10),
	}, &saved)
	pr := prefs("09:00", "17:00", 0)
	pr.DefaultDuration = 45
	res := New(store, nil, WithClock(func() time.Time { return at(9, 0) })).
		PlanDay(context.Background(), pr)

	if got := *res.Scheduled[1].PlannedTime; !got.Equal(at(9, 45)) {
		t.Fatalf("second start = %v, want 09:45", got)
	}
}

func TestPlanDayEndOfDayGoesUnscheduled(t *testing.T) {
	var saved []model.Task
	store := recordingStore([]model.Task{
		task("fits", model.PriorityHigh, 60),
		task("late", model.PriorityMedium, 30),
	}, &saved)
	p := New(store, nil, WithClock(func() time.Time { return at(15, 0) }))

	res := p.PlanDay(context.Background(), prefs("09:00", "16:00", 0))

	if got := ids(res.Scheduled); got != "fits" {
		t.Fatalf("scheduled = %s, want fits", got)
	}
	if got := ids(res.Unscheduled); got != "late" {
		t.Fatalf("unscheduled = %s, want late", got)
	}
	if res.Unscheduled[0].PlannedTime != nil {
		t.Fatal("unscheduled task received a planned time")
	}
	if len(saved) != 1 {
		t.Fatalf("saved %d tasks, want 1", len(saved))
	}
}

func TestPlanDayAfterHoursSchedulesNothing(t *testing.T) {
	var saved []model.Task
	store := recordingStore([]model.Task{task("a", model.PriorityHigh, 30)}, &saved)
	res := New(store, nil, WithClock(func() time.Time { return at(18, 0) })).
		PlanDay(context.Background(), prefs("09:00", "17:00", 0))

	if len(res.Scheduled) != 0 || len(res.Unscheduled) != 1 {
		t.Fatalf("got %d scheduled / %d unscheduled, want 0/1", len(res.Scheduled), len(res.Unscheduled))
	}
}

func TestPlanDayKeepsValidFuturePlans(t *testing.T) {
	kept := task("kept", model.PriorityLow, 30)
	kept.PlannedTime = testutil.TimePtr(at(10, 30))
	stale := task("stale", model.PriorityHigh, 30)
	stale.PlannedTime = testutil.TimePtr(at(9, 0))

	var saved []model.Task
	store := recordingStore([]model.Task{kept, stale, task("new", model.PriorityMedium, 30)}, &saved)
	p := New(store, nil, WithClock(func() time.Time { return at(10, 0) }))

	res := p.PlanDay(context.Background(), prefs("09:00", "17:00", 15))

	// stale would start at 10:15 but kept holds 10:30, so it moves past
	// kept's end plus the buffer.
	if got := ids(res.Scheduled); got != "kept,stale,new" {
		t.Fatalf("scheduled = %s, want kept,stale,new", got)
	}
	if got := *res.Scheduled[0].PlannedTime; !got.Equal(at(10, 30)) {
		t.Fatalf("kept moved to %v", got)
	}
	if got := *res.Scheduled[1].PlannedTime; !got.Equal(at(11, 15)) {
		t.Fatalf("stale start = %v, want 11:15", got)
	}
	if got := *res.Scheduled[2].PlannedTime; !got.Equal(at(12, 0)) {
		t.Fatalf("new start = %v, want 12:00", got)
	}
	for _, s := range saved {
		if s.ID == "kept" {
			t.Fatal("kept task was re-saved")
		}
	}
}

func TestPlanDayReplansOutsideWorkingHours(t *testing.T) {
	evening := task("evening", model.PriorityMedium, 30)
	evening.PlannedTime = testutil.TimePtr(at(20, 0))

	var saved []model.Task
	store := recordingStore([]model.Task{evening}, &saved)
	res := New(store, nil, WithClock(func() time.Time { return at(9, 0) })).
		PlanDay(context.Background(), prefs("09:00", "17:00", 0))

	if len(res.Scheduled) != 1 || !res.Scheduled[0].PlannedTime.Equal(at(9, 0)) {
		t.Fatalf("scheduled = %+v, want evening moved to 09:00", res.Scheduled)
	}
}

func TestPlanDayPersistenceFailureMovesTaskToUnscheduled(t *testing.T) {
	boom := errors.New("disk full")
	store := &fakeStore{
		candidatesFn: func(string) ([]model.Task, error) {
			return []model.Task{
				task("ok1", model.PriorityHigh, 30),
				task("broken", model.PriorityMedium, 30),
				task("ok2", model.PriorityLow, 30),
			}, nil
		},
		updateFn: func(t model.Task) error {
			if t.ID == "broken" {
				return boom
			}
			return nil
		},
	}
	res := New(store, nil, WithClock(func() time.Time { return at(9, 0) })).
		PlanDay(context.Background(), prefs("09:00", "17:00", 0))

	if got := ids(res.Scheduled); got != "ok1,ok2" {
		t.Fatalf("scheduled = %s, want ok1,ok2", got)
	}
	if got := ids(res.Unscheduled); got != "broken" {
		t.Fatalf("unscheduled = %s, want broken", got)
	}
	if !errors.Is(res.Failed["broken"], boom) {
		t.Fatalf("Failed[broken] = %v, want %v", res.Failed["broken"], boom)
	}
	// The slot of the failed task is not reused.
	if got := *res.Scheduled[1].PlannedTime; !got.Equal(at(10, 0)) {
		t.Fatalf("ok2 start = %v, want 10:00", got)
	}
}

func TestPlanDayCandidateLoadFailure(t *testing.T) {
	store := &fakeStore{
		candidatesFn: func(string) ([]model.Task, error) { return nil, errors.New("locked") },
		updateFn:     func(model.Task) error { return nil },
	}
	res := New(store, nil).PlanDay(context.Background(), prefs("09:00", "17:00", 0))

	if !strings.Contains(res.Message, "locked") {
		t.Fatalf("Message = %q, want load error", res.Message)
	}
}

func TestPlanDayInvalidPreferences(t *testing.T) {
	var saved []model.Task
	store := recordingStore([]model.Task{task("a", model.PriorityHigh, 30)}, &saved)
	res := New(store, nil, WithClock(func() time.Time { return at(9, 0) })).
		PlanDay(context.Background(), prefs("17:00", "09:00", 0))

	if len(res.Unscheduled) != 1 || len(saved) != 0 {
		t.Fatalf("got %d unscheduled, %d saved; want 1, 0", len(res.Unscheduled), len(saved))
	}
	if !strings.HasPrefix(res.Message, "Invalid preferences") {
		t.Fatalf("Message = %q", res.Message)
	}
}

func TestBuildNeverOverlapsAndStaysInHours(t *testing.T) {
	var candidates []model.Task
	pri := []model.Priority{model.PriorityLow, model.PriorityHigh, model.PriorityMedium}
	for i := 0; i < 20; i++ {
		c := task(string(rune('a'+i)), pri[i%3], 10+i*7%50)
		if i%4 == 0 {
			c.PlannedTime = testutil.TimePtr(at(11+i/4, 20))
		}
		candidates = append(candidates, c)
	}
	pr := prefs("09:00", "17:00", 10)
	now := at(9, 7)

	plan, err := Build(candidates, pr, now)
	if err != nil {
		t.Fatalf("Build() err=%v", err)
	}

	buffer := 10 * time.Minute
	for i, a := range plan.Assigned {
		if a.PlannedTime.Before(at(9, 0)) || !a.PlannedTime.Before(at(17, 0)) {
			t.Fatalf("%s planned at %v, outside working hours", a.ID, a.PlannedTime)
		}
		if i > 0 {
			prev := plan.Assigned[i-1]
			minStart := prev.PlannedTime.Add(time.Duration(*prev.Duration)*time.Minute + buffer)
			if a.PlannedTime.Before(minStart) {
				t.Fatalf("%s at %v starts before %v", a.ID, a.PlannedTime, minStart)
			}
		}
		for _, k := range plan.Kept {
			aEnd := a.PlannedTime.Add(time.Duration(*a.Duration) * time.Minute)
			kEnd := k.PlannedTime.Add(time.Duration(*k.Duration) * time.Minute)
			if a.PlannedTime.Before(kEnd.Add(buffer)) && aEnd.Add(buffer).After(*k.PlannedTime) {
				t.Fatalf("%s [%v, %v) collides with kept %s [%v, %v)",
					a.ID, a.PlannedTime, aEnd, k.ID, k.PlannedTime, kEnd)
			}
		}
	}
	if got := len(plan.Assigned) + len(plan.Kept) + len(plan.Unscheduled); got != len(candidates) {
		t.Fatalf("placed %d tasks, want %d", got, len(candidates))
	}
}

func TestBuildIsDeterministicAndPure(t *testing.T) {
	candidates := []model.Task{task("a", model.PriorityLow, 20), task("b", model.PriorityHigh, 40)}
	pr := prefs("09:00", "17:00", 5)

	first, err := Build(candidates, pr, at(9, 0))
	if err != nil {
		t.Fatalf("Build() err=%v", err)
	}
	second, _ := Build(candidates, pr, at(9, 0))

	if ids(first.Assigned) != ids(second.Assigned) {
		t.Fatalf("order differs: %s vs %s", ids(first.Assigned), ids(second.Assigned))
	}
	for i := range first.Assigned {
		if !first.Assigned[i].PlannedTime.Equal(*second.Assigned[i].PlannedTime) {
			t.Fatal("planned times differ between identical runs")
		}
	}
	if candidates[0].PlannedTime != nil || candidates[1].PlannedTime != nil {
		t.Fatal("Build modified its input")
	}
}

func TestBuildRoundsNowUpToMinute(t *testing.T) {
	now := at(10, 0).Add(37 * time.Second)
	plan, err := Build([]model.Task{task("a", model.PriorityHigh, 30)}, prefs("09:00", "17:00", 0), now)
	if err != nil {
		t.Fatalf("Build() err=%v", err)
	}
	if got := *plan.Assigned[0].PlannedTime; !got.Equal(at(10, 1)) {
		t.Fatalf("start = %v, want 10:01", got)
	}
}
