// Package models defines the core domain models for streakly.
//
// # Models
//
//   - Habit: a recurring activity the user wants to build a streak on
//   - Completion: one (habit, day) check-in
//   - Achievement: a milestone from the fixed catalog, unlocked at most once
//   - Todo: a one-off task, independent of habits and streaks
//   - Subscription: a browser push subscription registered with the relay
//
// All state belongs to a single local user. Relationships use ID strings
// instead of pointers (a Completion references its Habit by HabitID).
//
// # Dates
//
// Calendar days are stored as "YYYY-MM-DD" strings (DateLayout) and wall-clock
// reminder times as "HH:MM" (TimeLayout). Neither carries a time zone: they are
// interpreted in the tracker's local zone.
package models

const (
	// DateLayout is the format of calendar-day fields (Completion.Date, Todo.DueDate, ...).
	DateLayout = "2006-01-02"

	// TimeLayout is the format of wall-clock fields (Habit.ReminderTime, Todo.DueTime).
	TimeLayout = "15:04"
)
