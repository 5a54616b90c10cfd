package streak

import (
	"sort"
	"time"

	"github.com/mmynk/streakly/internal/models"
)

// Result holds the streak metrics for one habit.
type Result struct {
	Current int
	Best    int
}

// Day truncates t to its calendar day in t's own location, expressed as UTC midnight.
// Calendar arithmetic is done on these values so DST shifts never skew a day count.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a "YYYY-MM-DD" calendar day.
func ParseDay(s string) (time.Time, bool) {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// FormatDay renders t's calendar day as "YYYY-MM-DD".
func FormatDay(t time.Time) string {
	return Day(t).Format(models.DateLayout)
}

// CompletedDays returns the distinct days on which habitID was completed, most recent first.
// Records with unparseable dates are ignored.
func CompletedDays(habitID string, completions []models.Completion) []time.Time {
	seen := make(map[time.Time]struct{})
	days := make([]time.Time, 0)
	for _, c := range completions {
		if c.HabitID != habitID || !c.Completed {
			continue
		}
		d, ok := ParseDay(c.Date)
		if !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

// Calculate computes the current and best streak for habitID as of today.
//
// Algorithm:
//   - Current: count consecutive completed days walking back from today.
//     If today itself is not completed, the current streak is 0.
//   - Best: scan the days pairwise; days exactly one apart extend the run,
//     anything else resets it to 1. Best is never below Current.
func Calculate(habitID string, completions []models.Completion, today time.Time) Result {
	days := CompletedDays(habitID, completions)
	if len(days) == 0 {
		return Result{}
	}

	present := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		present[d] = struct{}{}
	}

	current := 0
	for d := Day(today); ; d = d.AddDate(0, 0, -1) {
		if _, ok := present[d]; !ok {
			break
		}
		current++
	}

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	if current > best {
		best = current
	}

	return Result{Current: current, Best: best}
}
