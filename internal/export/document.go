// Package export serializes tracker state to a JSON backup document and a
// printable PDF report.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/mmynk/streakly/internal/models"
)

// ErrMalformed is returned by Decode when a document cannot be applied.
var ErrMalformed = errors.New("malformed export document")

// Document is the backup format. A nil collection was absent from the
// decoded file and must be left untouched on import.
type Document struct {
	Habits       []models.Habit       `json:"habits"`
	Completions  []models.Completion  `json:"completions"`
	Achievements []models.Achievement `json:"achievements"`
}

var clockTime = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Filename returns the suggested download name for a backup taken at now.
func Filename(now time.Time) string {
	return "habit-tracker-backup-" + now.Format(models.DateLayout) + ".json"
}

// ReportFilename returns the suggested download name for a PDF report generated at now.
func ReportFilename(now time.Time) string {
	return "habits-report-" + now.Format(models.DateLayout) + ".pdf"
}

// Encode writes doc as indented JSON. Nil collections are written as empty arrays.
func Encode(w io.Writer, doc Document) error {
	if doc.Habits == nil {
		doc.Habits = []models.Habit{}
	}
	if doc.Completions == nil {
		doc.Completions = []models.Completion{}
	}
	if doc.Achievements == nil {
		doc.Achievements = []models.Achievement{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// Decode parses and validates a backup document.
//
// Every collection present in the file must be valid or the whole document
// is rejected. Repeated (habitId, date) completions collapse into one record
// holding the last value.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Normalize(doc)
}

// Normalize validates doc and collapses repeated completions.
func Normalize(doc Document) (Document, error) {
	if err := Validate(doc); err != nil {
		return Document{}, err
	}
	if doc.Completions != nil {
		doc.Completions = dedupeCompletions(doc.Completions)
	}
	return doc, nil
}

// Validate checks every present collection of doc.
func Validate(doc Document) error {
	seenHabits := make(map[string]bool, len(doc.Habits))
	for i, h := range doc.Habits {
		if err := ValidateHabit(h); err != nil {
			return fmt.Errorf("%w: habits[%d]: %v", ErrMalformed, i, err)
		}
		if seenHabits[h.ID] {
			return fmt.Errorf("%w: habits[%d]: duplicate id %q", ErrMalformed, i, h.ID)
		}
		seenHabits[h.ID] = true
	}

	for i, c := range doc.Completions {
		if c.HabitID == "" {
			return fmt.Errorf("%w: completions[%d]: habitId is required", ErrMalformed, i)
		}
		if _, err := time.Parse(models.DateLayout, c.Date); err != nil {
			return fmt.Errorf("%w: completions[%d]: date %q is not YYYY-MM-DD", ErrMalformed, i, c.Date)
		}
	}

	seenAchievements := make(map[string]bool, len(doc.Achievements))
	for i, a := range doc.Achievements {
		if a.ID == "" {
			return fmt.Errorf("%w: achievements[%d]: id is required", ErrMalformed, i)
		}
		if !a.Category.Valid() {
			return fmt.Errorf("%w: achievements[%d]: unknown category %q", ErrMalformed, i, a.Category)
		}
		if seenAchievements[a.ID] {
			return fmt.Errorf("%w: achievements[%d]: duplicate id %q", ErrMalformed, i, a.ID)
		}
		seenAchievements[a.ID] = true
	}
	return nil
}

// ValidateHabit checks the fields of a stored habit.
func ValidateHabit(h models.Habit) error {
	if h.ID == "" {
		return errors.New("id is required")
	}
	if h.Title == "" {
		return errors.New("title is required")
	}
	if !h.FrequencyType.Valid() {
		return fmt.Errorf("unknown frequency %q", h.FrequencyType)
	}
	if h.FrequencyType == models.FrequencyCustom && len(h.CustomDays) == 0 {
		return errors.New("custom frequency needs at least one day")
	}
	for _, d := range h.CustomDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("custom day %d out of range 0-6", d)
		}
	}
	if h.CurrentStreak < 0 || h.BestStreak < 0 {
		return errors.New("streaks must be non-negative")
	}
	if h.BestStreak < h.CurrentStreak {
		return fmt.Errorf("bestStreak %d is below currentStreak %d", h.BestStreak, h.CurrentStreak)
	}
	if h.ReminderTime != "" && !ValidClockTime(h.ReminderTime) {
		return fmt.Errorf("reminderTime %q is not HH:MM", h.ReminderTime)
	}
	if h.ReminderDate != "" {
		if _, err := time.Parse(models.DateLayout, h.ReminderDate); err != nil {
			return fmt.Errorf("reminderDate %q is not YYYY-MM-DD", h.ReminderDate)
		}
	}
	return nil
}

// ValidClockTime reports whether s is a 24-hour "HH:MM" time.
func ValidClockTime(s string) bool {
	return clockTime.MatchString(s)
}

func dedupeCompletions(in []models.Completion) []models.Completion {
	type key struct{ habit, date string }
	index := make(map[key]int, len(in))
	out := make([]models.Completion, 0, len(in))
	for _, c := range in {
		k := key{c.HabitID, c.Date}
		if i, ok := index[k]; ok {
			out[i] = c
			continue
		}
		index[k] = len(out)
		out = append(out, c)
	}
	return out
}
