package mastery

import (
	"sort"
	"time"
)

// Priority filters due items by review urgency.
type Priority string

const (
	PriorityOverdue  Priority = "overdue"
	PriorityDueToday Priority = "due_today"
	PriorityUpcoming Priority = "upcoming"
	PriorityAll      Priority = "all"
)

// IsOverdue reports whether the record's review date is more than 24 hours
// in the past.
func (r *Record) IsOverdue(now time.Time) bool {
	return r.NextReviewDate.Before(now.Add(-24 * time.Hour))
}

// isDueToday reports whether the review date falls within the current
// calendar day.
func (r *Record) isDueToday(now time.Time) bool {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)
	return !r.NextReviewDate.Before(start) && r.NextReviewDate.Before(end)
}

// isUpcoming reports whether the review date lies within the next 7 days.
func (r *Record) isUpcoming(now time.Time) bool {
	return r.NextReviewDate.After(now) && r.NextReviewDate.Before(now.AddDate(0, 0, 7))
}

// FilterDue returns the records matching the given priority, ordered by
// urgency: overdue records first, then by next review date ascending.
// The sort is stable; the input slice is not modified.
func FilterDue(records []*Record, now time.Time, priority Priority) []*Record {
	var out []*Record
	for _, r := range records {
		var keep bool
		switch priority {
		case PriorityOverdue:
			keep = r.IsOverdue(now)
		case PriorityDueToday:
			keep = r.isDueToday(now)
		case PriorityUpcoming:
			keep = r.isUpcoming(now)
		default: // PriorityAll
			keep = r.IsOverdue(now) || r.isDueToday(now) || r.isUpcoming(now)
		}
		if keep {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := out[i].IsOverdue(now), out[j].IsOverdue(now)
		if oi != oj {
			return oi
		}
		return out[i].NextReviewDate.Before(out[j].NextReviewDate)
	})
	return out
}
