// Package planner assigns start times to the tasks due or planned today.
package planner

import (
	"sort"
	"time"

	"github.com/nhle/dayplanner/internal/dateonly"
	"github.com/nhle/dayplanner/internal/model"
)

// Schedule is the outcome of placing one day's candidates on the clock.
type Schedule struct {
	// Assigned tasks received a new planned time and must be persisted.
	Assigned []model.Task

	// Kept tasks already had a valid future plan and are left untouched.
	Kept []model.Task

	// Unscheduled tasks did not fit before the end of working hours.
	Unscheduled []model.Task
}

type interval struct {
	start, end time.Time
}

// Build places candidates inside today's working hours. It is pure: the
// inputs are not modified and the same inputs always give the same result.
//
// Tasks with a planned time later today inside working hours are kept.
// The others are ordered by priority, highest first, keeping the input
// order among equal priorities, and placed one after another starting at
// the later of now and the start of working hours. The buffer is applied
// before every placed task, and placed tasks also keep a buffer away from
// kept ones. A task whose start would land at or after the end of working
// hours is left unscheduled.
func Build(candidates []model.Task, prefs model.Preferences, now time.Time) (Schedule, error) {
	if err := prefs.Validate(); err != nil {
		return Schedule{}, err
	}

	today := dateonly.FormatLocal(now)
	sh, sm, _ := model.ParseClock(prefs.WorkingHours.StartTime)
	eh, em, _ := model.ParseClock(prefs.WorkingHours.EndTime)
	dayStart, _ := dateonly.AtClock(today, sh, sm)
	dayEnd, _ := dateonly.AtClock(today, eh, em)

	defaultDuration := prefs.DefaultDuration
	if defaultDuration <= 0 {
		defaultDuration = model.DefaultDuration
	}
	buffer := time.Duration(prefs.BufferTime) * time.Minute
	length := func(t model.Task) time.Duration {
		return time.Duration(t.DurationOr(defaultDuration)) * time.Minute
	}

	var out Schedule
	var pending []model.Task
	var busy []interval
	for _, t := range candidates {
		if p := t.PlannedTime; p != nil && dateonly.SameDay(*p, today) &&
			p.After(now) && !p.Before(dayStart) && p.Before(dayEnd) {
			out.Kept = append(out.Kept, t.Clone())
			busy = append(busy, interval{start: *p, end: p.Add(length(t))})
			continue
		}
		pending = append(pending, t)
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].start.Before(busy[j].start) })

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Priority.Rank() > pending[j].Priority.Rank()
	})

	cursor := ceilMinute(now)
	if cursor.Before(dayStart) {
		cursor = dayStart
	}

	for _, t := range pending {
		d := length(t)
		start := skipBusy(cursor.Add(buffer), d, buffer, busy)
		if !start.Before(dayEnd) {
			out.Unscheduled = append(out.Unscheduled, t.Clone())
			continue
		}
		placed := t.Clone()
		placed.PlannedTime = &start
		out.Assigned = append(out.Assigned, placed)
		cursor = start.Add(d)
	}

	return out, nil
}

// skipBusy moves start forward until [start, start+d) keeps at least
// buffer away from every busy interval.
func skipBusy(start time.Time, d, buffer time.Duration, busy []interval) time.Time {
	for moved := true; moved; {
		moved = false
		for _, b := range busy {
			if start.Before(b.end.Add(buffer)) && start.Add(d+buffer).After(b.start) {
				start = b.end.Add(buffer)
				moved = true
			}
		}
	}
	return start
}

// ceilMinute rounds t up to the next whole minute.
func ceilMinute(t time.Time) time.Time {
	if r := t.Truncate(time.Minute); !r.Equal(t) {
		return r.Add(time.Minute)
	}
	return t
}
