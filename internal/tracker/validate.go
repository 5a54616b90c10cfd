package tracker

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mmynk/streakly/internal/export"
	"github.com/mmynk/streakly/internal/models"
)

// HabitInput holds the user-editable fields of a habit.
type HabitInput struct {
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	FrequencyType models.Frequency `json:"frequencyType"`
	CustomDays    []int            `json:"customDays,omitempty"`
	ReminderTime  string           `json:"reminderTime,omitempty"`
	ReminderDate  string           `json:"reminderDate,omitempty"`
}

// TodoInput holds the user-editable fields of a todo.
type TodoInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	DueDate     string          `json:"dueDate,omitempty"`
	DueTime     string          `json:"dueTime,omitempty"`
	Priority    models.Priority `json:"priority,omitempty"`
	Category    string          `json:"category,omitempty"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validDate(s string) bool {
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}

// normalize trims and validates in. Custom days are sorted and deduplicated,
// and dropped for non-custom frequencies.
func (in HabitInput) normalize() (HabitInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, invalid("title is required")
	}
	if in.FrequencyType == "" {
		in.FrequencyType = models.FrequencyDaily
	}
	if !in.FrequencyType.Valid() {
		return in, invalid("unknown frequency %q", in.FrequencyType)
	}

	if in.FrequencyType != models.FrequencyCustom {
		in.CustomDays = nil
	} else {
		if len(in.CustomDays) == 0 {
			return in, invalid("custom frequency needs at least one day")
		}
		seen := make(map[int]bool)
		days := make([]int, 0, len(in.CustomDays))
		for _, d := range in.CustomDays {
			if d < 0 || d > 6 {
				return in, invalid("custom day %d out of range 0-6", d)
			}
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
		sort.Ints(days)
		in.CustomDays = days
	}

	if in.ReminderTime != "" && !export.ValidClockTime(in.ReminderTime) {
		return in, invalid("reminder time %q is not HH:MM", in.ReminderTime)
	}
	if in.ReminderDate != "" && !validDate(in.ReminderDate) {
		return in, invalid("reminder date %q is not YYYY-MM-DD", in.ReminderDate)
	}
	return in, nil
}

func (in TodoInput) normalize() (TodoInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if in.Title == "" {
		return in, invalid("title is required")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return in, invalid("unknown priority %q", in.Priority)
	}
	if in.Category == "" {
		in.Category = models.TodoCategoryPersonal
	}
	if in.DueDate != "" && !validDate(in.DueDate) {
		return in, invalid("due date %q is not YYYY-MM-DD", in.DueDate)
	}
	if in.DueTime != "" && !export.ValidClockTime(in.DueTime) {
		return in, invalid("due time %q is not HH:MM", in.DueTime)
	}
	return in, nil
}
