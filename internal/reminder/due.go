// Package reminder decides which habit and todo reminders are due and fires
// them through the push relay on a fixed interval.
package reminder

import (
	"sort"
	"time"

	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/streak"
)

// Kind distinguishes habit reminders from todo reminders.
type Kind string

const (
	KindHabit Kind = "habit"
	KindTodo  Kind = "todo"
)

// DefaultTodoTime is used for todos that have a due date but no due time.
const DefaultTodoTime = "09:00"

// Reminder is one notification that should fire at At.
type Reminder struct {
	Kind  Kind
	ID    string
	Title string
	Body  string
	At    time.Time
	// Key identifies this occurrence; a reminder with the same key fires once.
	Key string
}

// CompletedFunc reports whether a habit is completed on a "YYYY-MM-DD" day.
type CompletedFunc func(habitID, date string) bool

// Due returns the reminders whose time falls in (from, to], ordered by time.
// Wall-clock reminder times are interpreted in to's location.
//
// A habit reminder is due on day D when the habit is scheduled on D, its
// reminder date is empty or D, and it is not yet completed on D. A todo
// reminder is due at its due date and time when the todo is incomplete.
func Due(habits []models.Habit, todos []models.Todo, completed CompletedFunc, from, to time.Time) []Reminder {
	if !to.After(from) {
		return nil
	}
	loc := to.Location()
	from = from.In(loc)

	var out []Reminder
	for day := streak.Day(from); !day.After(streak.Day(to)); day = day.AddDate(0, 0, 1) {
		date := day.Format(models.DateLayout)
		local := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)

		for _, h := range habits {
			if h.ReminderTime == "" {
				continue
			}
			if h.ReminderDate != "" && h.ReminderDate != date {
				continue
			}
			at, ok := wallTime(date, h.ReminderTime, loc)
			if !ok || !at.After(from) || at.After(to) {
				continue
			}
			if !h.ScheduledOn(local) || (completed != nil && completed(h.ID, date)) {
				continue
			}
			out = append(out, Reminder{
				Kind:  KindHabit,
				ID:    h.ID,
				Title: "Habit reminder",
				Body:  "Time for: " + h.Title,
				At:    at,
				Key:   string(KindHabit) + ":" + h.ID + ":" + date + "T" + h.ReminderTime,
			})
		}
	}

	for _, td := range todos {
		if td.Completed || td.DueDate == "" {
			continue
		}
		clock := td.DueTime
		if clock == "" {
			clock = DefaultTodoTime
		}
		at, ok := wallTime(td.DueDate, clock, loc)
		if !ok || !at.After(from) || at.After(to) {
			continue
		}
		out = append(out, Reminder{
			Kind:  KindTodo,
			ID:    td.ID,
			Title: "Todo due",
			Body:  td.Title,
			At:    at,
			Key:   string(KindTodo) + ":" + td.ID + ":" + td.DueDate + "T" + clock,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

func wallTime(date, clock string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(models.DateLayout+" "+models.TimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
