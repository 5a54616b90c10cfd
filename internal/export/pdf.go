package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/mmynk/streakly/internal/models"
)

const (
	margin = 20.0
	indent = margin + 8
)

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// FrequencyLabel renders a habit's recurrence rule for display.
func FrequencyLabel(h models.Habit) string {
	switch h.FrequencyType {
	case models.FrequencyDaily:
		return "Daily"
	case models.FrequencyWeekly:
		return "Weekly"
	}
	if len(h.CustomDays) == 0 {
		return "Custom"
	}
	names := make([]string, 0, len(h.CustomDays))
	for _, d := range h.CustomDays {
		if d >= 0 && d < len(weekdayNames) {
			names = append(names, weekdayNames[d])
		}
	}
	return strings.Join(names, ", ")
}

// WritePDF renders the "My Habits Report" document for habits to w.
func WritePDF(w io.Writer, habits []models.Habit, completions []models.Completion, now time.Time) error {
	pdf := buildReport(habits, completions, now)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func buildReport(habits []models.Habit, completions []models.Completion, now time.Time) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(now)
	pdf.SetTitle("My Habits Report", true)
	pdf.SetCreator("streakly", false)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, pageHeight := pdf.GetPageSize()
	y := margin

	pdf.SetFont("Helvetica", "B", 24)
	pdf.Text(margin, y, "My Habits Report")
	y += 15

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Text(margin, y, "Generated on "+now.Format("January 02, 2006 at 3:04 PM"))
	y += 15

	completedBy := make(map[string]int)
	total := 0
	for _, c := range completions {
		if c.Completed {
			completedBy[c.HabitID]++
			total++
		}
	}

	pdf.SetFontSize(12)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(margin, y, fmt.Sprintf("Total Habits: %d", len(habits)))
	y += 8
	pdf.Text(margin, y, fmt.Sprintf("Total Completions: %d", total))
	y += 15

	for i, h := range habits {
		if y+60 > pageHeight-margin {
			pdf.AddPage()
			y = margin
		}

		pdf.SetFillColor(74, 222, 128)
		pdf.Rect(margin, y-5, 3, 40, "F")

		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(0, 0, 0)
		pdf.Text(indent, y, tr(fmt.Sprintf("%d. %s", i+1, h.Title)))
		y += 14*0.35 + 5

		if h.Description != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(80, 80, 80)
			for _, line := range pdf.SplitText(tr(h.Description), pageWidth-2*margin-8) {
				pdf.Text(indent, y, line)
				y += 10 * 0.35
			}
			y += 5
		}

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(100, 100, 100)
		for _, line := range []string{
			"Frequency: " + FrequencyLabel(h),
			fmt.Sprintf("Current Streak: %d days", h.CurrentStreak),
			fmt.Sprintf("Best Streak: %d days", h.BestStreak),
		} {
			pdf.Text(indent, y, line)
			y += 6
		}
		pdf.Text(indent, y, fmt.Sprintf("Total Completions: %d", completedBy[h.ID]))
		y += 8

		if h.BestStreak > 0 {
			width := pageWidth - 2*margin - 8
			ratio := float64(h.CurrentStreak) / float64(h.BestStreak)
			if ratio > 1 {
				ratio = 1
			}
			pdf.SetFillColor(240, 240, 240)
			pdf.RoundedRect(indent, y, width, 4, 2, "1234", "F")
			if ratio > 0 {
				pdf.SetFillColor(74, 222, 128)
				pdf.RoundedRect(indent, y, width*ratio, 4, 2, "1234", "F")
			}
			y += 10
		}

		pdf.SetDrawColor(230, 230, 230)
		pdf.Line(margin, y, pageWidth-margin, y)
		y += 12
	}

	if len(habits) == 0 {
		pdf.SetFontSize(12)
		pdf.SetTextColor(150, 150, 150)
		pdf.Text(margin, y, "No habits to display")
	}

	return pdf
}
