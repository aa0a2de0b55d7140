package recurrence

import (
	"github.com/nhle/dayplanner/internal/dateonly"
	"github.com/nhle/dayplanner/internal/model"
)

// NextOccurrence previews the date that follows from under rule. from may
// be a calendar date, a timestamp string or a time.Time. The boolean is
// false when from cannot be read or the series ends first.
func NextOccurrence(rule model.RecurrenceRule, from any) (string, bool) {
	base, ok := dateonly.Coerce(from)
	if !ok {
		return "", false
	}
	return rule.NextOccurrence(base)
}

// Upcoming lists up to n occurrence dates after from, stopping at the end
// date and at the remaining count (the occurrence on from counts as one).
func Upcoming(rule model.RecurrenceRule, from any, n int) []string {
	dates := []string{}
	cur, ok := dateonly.Coerce(from)
	if !ok {
		return dates
	}
	left := -1
	if rule.Count != nil {
		left = *rule.Count - 1
	}
	for len(dates) < n && left != 0 {
		next, ok := rule.NextOccurrence(cur)
		if !ok {
			break
		}
		dates = append(dates, next)
		cur = next
		if left > 0 {
			left--
		}
	}
	return dates
}
