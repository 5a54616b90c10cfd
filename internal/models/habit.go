package models

import "time"

// Frequency is a habit's recurrence rule.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// Frequencies lists every recurrence kind in display order.
var Frequencies = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyCustom}

// Valid reports whether f is one of the known recurrence kinds.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	}
	return false
}

// Habit represents a recurring activity tracked by the user.
type Habit struct {
	// ID is the unique identifier for the habit (UUID format).
	ID string `json:"id"`

	// Title is the display name of the habit (e.g., "Read 20 pages").
	Title string `json:"title"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// FrequencyType is the recurrence rule.
	FrequencyType Frequency `json:"frequencyType"`

	// CustomDays holds weekday indices (0 = Sunday ... 6 = Saturday).
	// Only meaningful when FrequencyType is FrequencyCustom.
	CustomDays []int `json:"customDays,omitempty"`

	// CurrentStreak is the number of consecutive days, ending today, with a completion.
	CurrentStreak int `json:"currentStreak"`

	// BestStreak is the longest run ever observed. Always >= CurrentStreak.
	BestStreak int `json:"bestStreak"`

	// CreatedAt is when the habit was created (UTC).
	CreatedAt time.Time `json:"createdAt"`

	// ReminderTime is an optional "HH:MM" wall-clock time for a push reminder.
	ReminderTime string `json:"reminderTime,omitempty"`

	// ReminderDate restricts the reminder to a single "YYYY-MM-DD" day when set.
	ReminderDate string `json:"reminderDate,omitempty"`
}

// ScheduledOn reports whether the habit's recurrence rule includes the given day.
// Weekly habits recur on the weekday they were created.
func (h Habit) ScheduledOn(day time.Time) bool {
	switch h.FrequencyType {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return h.CreatedAt.In(day.Location()).Weekday() == day.Weekday()
	case FrequencyCustom:
		wd := int(day.Weekday())
		for _, d := range h.CustomDays {
			if d == wd {
				return true
			}
		}
	}
	return false
}

// Completion records whether a habit was completed on a calendar day.
// There is at most one Completion per (HabitID, Date).
type Completion struct {
	HabitID   string `json:"habitId"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}
