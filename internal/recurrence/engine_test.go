package recurrence

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/store"
	"github.com/nhle/dayplanner/tests/testutil"
)

// --- fakes ---

// memStore keeps tasks and rules in maps. The *Fn fields, when set,
// replace the matching method for failure injection.
type memStore struct {
	mu    sync.Mutex
	tasks map[string]model.Task
	rules map[string]model.RecurrenceRule
	seq   int

	createFn     func(model.Task) (string, error)
	updateRuleFn func(string, model.RulePatch) error
}

func newMemStore() *memStore {
	return &memStore{
		tasks: make(map[string]model.Task),
		rules: make(map[string]model.RecurrenceRule),
	}
}

func (s *memStore) GetTaskByID(_ context.Context, id string) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, store.ErrNotFound)
	}
	c := t.Clone()
	return &c, nil
}

func (s *memStore) CreateTask(_ context.Context, t model.Task) (string, error) {
	if s.createFn != nil {
		return s.createFn(t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		s.seq++
		t.ID = fmt.Sprintf("gen-%d", s.seq)
	}
	s.tasks[t.ID] = t.Clone()
	return t.ID, nil
}

func (s *memStore) GetRuleByTaskID(_ context.Context, taskID string) (*model.RecurrenceRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if r.TaskID == taskID {
			c := r
			return &c, nil
		}
	}
	return nil, fmt.Errorf("rule for task %s: %w", taskID, store.ErrNotFound)
}

func (s *memStore) UpdateRule(_ context.Context, id string, patch model.RulePatch) error {
	if s.updateRuleFn != nil {
		return s.updateRuleFn(id, patch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return fmt.Errorf("rule %s: %w", id, store.ErrNotFound)
	}
	if patch.TaskID != nil {
		r.TaskID = *patch.TaskID
	}
	if patch.Count != nil {
		c := *patch.Count
		r.Count = &c
	}
	s.rules[id] = r
	return nil
}

func (s *memStore) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return fmt.Errorf("rule %s: %w", id, store.ErrNotFound)
	}
	delete(s.rules, id)
	return nil
}

func (s *memStore) rule(id string) (model.RecurrenceRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	return r, ok
}

// --- helpers ---

var fixedNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)

func clock() time.Time { return fixedNow }

func doneTask(id, due string) model.Task {
	return model.Task{
		ID:           id,
		Name:         "water plants",
		Description:  "balcony",
		Duration:     testutil.IntPtr(15),
		ProjectID:    "home",
		DueDate:      due,
		PlannedTime:  testutil.TimePtr(time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)),
		Status:       model.StatusDone,
		Priority:     model.PriorityHigh,
		Labels:       []string{"garden"},
		Dependencies: []string{"t0"},
		CreatedAt:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local),
	}
}

func seed(s *memStore, task model.Task, rule model.RecurrenceRule) {
	s.tasks[task.ID] = task
	rule.TaskID = task.ID
	s.rules[rule.ID] = rule
}

// --- tests ---

func TestProcessTaskCompletionDailyIntervalTwo(t *testing.T) {
	s := newMemStore()
	seed(s, doneTask("t1", "2024-06-01"), model.RecurrenceRule{
		ID: "r1", Frequency: model.FrequencyDaily, Interval: 2,
	})
	e := NewEngine(s, nil, WithClock(clock))

	next := e.ProcessTaskCompletion(context.Background(), "t1")
	if next == nil {
		t.Fatal("ProcessTaskCompletion() = nil, want successor")
	}
	if next.DueDate != "2024-06-03" {
		t.Fatalf("DueDate = %q, want 2024-06-03", next.DueDate)
	}
	if next.Status != model.StatusPlanning {
		t.Fatalf("Status = %q, want PLANNING", next.Status)
	}
	if next.ID == "t1" || next.ID == "" {
		t.Fatalf("successor id = %q, want a new id", next.ID)
	}
	if next.PlannedTime != nil {
		t.Fatalf("PlannedTime = %v, want cleared", next.PlannedTime)
	}
	if next.Name != "water plants" || next.Description != "balcony" || *next.Duration != 15 ||
		next.ProjectID != "home" || next.Priority != model.PriorityHigh {
		t.Fatalf("copied fields differ: %+v", next)
	}
	if !reflect.DeepEqual(next.Labels, []string{"garden"}) || !reflect.DeepEqual(next.Dependencies, []string{"t0"}) {
		t.Fatalf("Labels=%v Dependencies=%v", next.Labels, next.Dependencies)
	}
	if !next.CreatedAt.Equal(fixedNow) || !next.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("timestamps = %v/%v, want %v", next.CreatedAt, next.UpdatedAt, fixedNow)
	}

	rule, ok := s.rule("r1")
	if !ok {
		t.Fatal("rule deleted, want rotated")
	}
	if rule.TaskID != next.ID {
		t.Fatalf("rule.TaskID = %q, want %q", rule.TaskID, next.ID)
	}
	if rule.Count != nil {
		t.Fatalf("rule.Count = %d, want unbounded", *rule.Count)
	}
	if _, err := s.GetTaskByID(context.Background(), next.ID); err != nil {
		t.Fatalf("successor not stored: %v", err)
	}
}

func TestProcessTaskCompletionLastOccurrence(t *testing.T) {
	for _, count := range []int{1, 0} {
		t.Run(fmt.Sprintf("count=%d", count), func(t *testing.T) {
			s := newMemStore()
			seed(s, doneTask("t1", "2024-06-01"), model.RecurrenceRule{
				ID: "r1", Frequency: model.FrequencyDaily, Interval: 1, Count: testutil.IntPtr(count),
			})
			s.createFn = func(model.Task) (string, error) {
				t.Fatal("CreateTask() should not be called for the last occurrence")
				return "", nil
			}

			if got := NewEngine(s, nil, WithClock(clock)).ProcessTaskCompletion(context.Background(), "t1"); got != nil {
				t.Fatalf("ProcessTaskCompletion() = %+v, want nil", got)
			}
			if _, ok := s.rule("r1"); ok {
				t.Fatal("rule still present, want deleted")
			}
		})
	}
}

func TestProcessTaskCompletionDecrementsCount(t *testing.T) {
	s := newMemStore()
	seed(s, doneTask("t1", "2024-06-01"), model.RecurrenceRule{
		ID: "r1", Frequency: model.FrequencyMonthly, Interval: 1, Count: testutil.IntPtr(3),
	})
	e := NewEngine(s, nil, WithClock(clock))

	first := e.ProcessTaskCompletion(context.Background(), "t1")
	if first == nil || first.DueDate != "2024-07-01" {
		t.Fatalf("first successor = %+v, want due 2024-07-01", first)
	}
	if r, _ := s.rule("r1"); r.Count == nil || *r.Count != 2 {
		t.Fatalf("count after first completion = %v, want 2", r.Count)
	}

	second := e.ProcessTaskCompletion(context.Background(), first.ID)
	if second == nil || second.DueDate != "2024-08-01" {
		t.Fatalf("second successor = %+v, want due 2024-08-01", second)
	}
	if r, _ := s.rule("r1"); r.Count == nil || *r.Count != 1 {
		t.Fatalf("count after second completion = %v, want 1", r.Count)
	}

	if third := e.ProcessTaskCompletion(context.Background(), second.ID); third != nil {
		t.Fatalf("third completion = %+v, want nil", third)
	}
	if _, ok := s.rule("r1"); ok {
		t.Fatal("rule still present after the series ended")
	}
}

func TestProcessTaskCompletionWeeklyPastEndDate(t *testing.T) {
	s := newMemStore()
	seed(s, doneTask("t1", "2024-01-01"), model.RecurrenceRule{
		ID: "r1", Frequency: model.FrequencyWeekly, Interval: 2, EndDate: "2024-01-01",
	})

	if got := NewEngine(s, nil, WithClock(clock)).ProcessTaskCompletion(context.Background(), "t1"); got != nil {
		t.Fatalf("ProcessTaskCompletion() = %+v, want nil", got)
	}
	if _, ok := s.rule("r1"); ok {
		t.Fatal("rule still present, want deleted")
	}
}

func TestProcessTaskCompletionBaseAfterEndDate(t *testing.T) {
	s := newMemStore()
	seed(s, doneTask("t1", "2024-03-01"), model.RecurrenceRule{
		ID: "r1", Frequency: model.FrequencyDaily, Interval: 1, EndDate: "2024-02-01",
	})

	if got := NewEngine(s, nil, WithClock(clock)).ProcessTaskCompletion(context.Background(), "t1"); got != nil {
		t.Fatalf("ProcessTaskCompletion() = %+v, want nil", got)
	}
	if _, ok := s.rule("r1"); ok {
		t.Fatal("rule still present, want deleted")
	}
}

func TestProcessTaskCompletionWithoutDueDateUsesToday(t *testing.T) {
	s := newMemStore()
	seed(s, doneTask("t1", ""), model.RecurrenceRule{
		ID: "r1", Frequency: model.FrequencyWeekly, Interval: 1,
	})

	next := NewEngine(s, nil, WithClock(clock)).ProcessTaskCompletion(context.Background(), "t1")
	if next == nil || next.DueDate != "2024-06-17" {
		t.Fatalf("successor = %+v, want due 2024-06-17", next)
	}
}

func TestProcessTaskCompletionNoRule(t *testing.T) {
	s := newMemStore()
	s.tasks["t1"] = doneTask("t1", "2024-06-01")

	if got := NewEngine(s, nil).ProcessTaskCompletion(context.Background(), "t1"); got != nil {
		t.Fatalf("ProcessTaskCompletion() = %+v, want nil", got)
	}
	if len(s.tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(s.tasks))
	}
}

func TestProcessTaskCompletionMissingTask(t *testing.T) {
	if got := NewEngine(newMemStore(), nil).ProcessTaskCompletion(context.Background(), "ghost"); got != nil {
		t.Fatalf("ProcessTaskCompletion() = %+v, want nil", got)
	}
}

func TestProcessTaskCompletionInsertFailureKeepsRule(t *testing.T) {
	s := newMemStore()
	seed(s, doneTask("t1", "2024-06-01"), model.RecurrenceRule{
		ID: "r1", Frequency: model.FrequencyDaily, Interval: 1, Count: testutil.IntPtr(5),
	})
	s.createFn = func(model.Task) (string, error) { return "", errors.New("disk full") }
	s.updateRuleFn = func(string, model.RulePatch) error {
		t.Fatal("UpdateRule() should not be called after a failed insert")
		return nil
	}

	if got := NewEngine(s, nil, WithClock(clock)).ProcessTaskCompletion(context.Background(), "t1"); got != nil {
		t.Fatalf("ProcessTaskCompletion() = %+v, want nil", got)
	}
	r, ok := s.rule("r1")
	if !ok || r.TaskID != "t1" || *r.Count != 5 {
		t.Fatalf("rule = %+v (present=%v), want untouched", r, ok)
	}
}

func TestProcessTaskCompletionRuleUpdateFailureStillReturnsTask(t *testing.T) {
	s := newMemStore()
	seed(s, doneTask("t1", "2024-06-01"), model.RecurrenceRule{
		ID: "r1", Frequency: model.FrequencyDaily, Interval: 1,
	})
	s.updateRuleFn = func(string, model.RulePatch) error { return errors.New("locked") }

	next := NewEngine(s, nil, WithClock(clock)).ProcessTaskCompletion(context.Background(), "t1")
	if next == nil {
		t.Fatal("ProcessTaskCompletion() = nil, want the stored successor")
	}
	if _, err := s.GetTaskByID(context.Background(), next.ID); err != nil {
		t.Fatalf("successor not stored: %v", err)
	}
}

func TestProcessTaskCompletionMalformedLabelsCloneToEmpty(t *testing.T) {
	st, path := testutil.NewTestStoreAt(t)
	ctx := context.Background()
	done := testutil.SeedTask(t, st, model.Task{
		Name: "journal", DueDate: "2024-06-01", Status: model.StatusDone,
		Labels: []string{"x"}, CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local),
	})
	testutil.ExecSQL(t, path, "UPDATE tasks SET labels = ? WHERE id = ?", "{not json", done.ID)
	if _, err := st.CreateRule(ctx, model.RecurrenceRule{
		TaskID: done.ID, Frequency: model.FrequencyDaily, Interval: 1,
	}); err != nil {
		t.Fatalf("CreateRule() err=%v", err)
	}

	next := NewEngine(st, nil, WithClock(clock)).ProcessTaskCompletion(ctx, done.ID)
	if next == nil {
		t.Fatal("ProcessTaskCompletion() = nil, want successor")
	}
	if next.Labels == nil || len(next.Labels) != 0 {
		t.Fatalf("Labels = %#v, want empty", next.Labels)
	}

	stored, err := st.GetTaskByID(ctx, next.ID)
	if err != nil {
		t.Fatalf("GetTaskByID() err=%v", err)
	}
	if stored.DueDate != "2024-06-02" || stored.Status != model.StatusPlanning {
		t.Fatalf("stored successor = %+v", stored)
	}
	rule, err := st.GetRuleByTaskID(ctx, next.ID)
	if err != nil {
		t.Fatalf("rule did not move to the successor: %v", err)
	}
	if _, err := st.GetRuleByTaskID(ctx, done.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("rule still on completed task (rule %s), err=%v", rule.ID, err)
	}
}

func TestProcessTaskCompletionConcurrentCallsCreateOneSuccessor(t *testing.T) {
	s := newMemStore()
	seed(s, doneTask("t1", "2024-06-01"), model.RecurrenceRule{
		ID: "r1", Frequency: model.FrequencyDaily, Interval: 1,
	})
	e := NewEngine(s, nil, WithClock(clock))

	var wg sync.WaitGroup
	results := make(chan *model.Task, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- e.ProcessTaskCompletion(context.Background(), "t1")
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for r := range results {
		if r != nil {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("successors = %d, want 1", created)
	}
	if len(s.tasks) != 2 {
		t.Fatalf("stored tasks = %d, want 2", len(s.tasks))
	}
}
