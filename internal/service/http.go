package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/streakly/internal/export"
	"github.com/mmynk/streakly/internal/tracker"
)

const (
	ReportPath = "/export/report.pdf"
	BackupPath = "/export/backup.json"
	HealthPath = "/healthz"
)

// Pinger checks that a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ExportHandler serves downloadable backups and reports.
type ExportHandler struct {
	tracker *tracker.Tracker
	clock   func() time.Time
}

// NewExportHandler creates an ExportHandler. A nil clock uses time.Now.
func NewExportHandler(t *tracker.Tracker, clock func() time.Time) *ExportHandler {
	if clock == nil {
		clock = time.Now
	}
	return &ExportHandler{tracker: t, clock: clock}
}

// Register mounts the download endpoints on mux.
func (h *ExportHandler) Register(mux Mux) {
	mux.Handle(ReportPath, http.HandlerFunc(h.Report))
	mux.Handle(BackupPath, http.HandlerFunc(h.Backup))
}

// Report renders the PDF habit report.
func (h *ExportHandler) Report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	now := h.clock()
	doc := h.tracker.Export()

	// render fully before writing headers so a failure can still be reported
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, doc.Habits, doc.Completions, now); err != nil {
		slog.Error("Report failed", "error", err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.ReportFilename(now)))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("Report write failed", "error", err)
	}
}

// Backup serves the JSON export document.
func (h *ExportHandler) Backup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	now := h.clock()

	var buf bytes.Buffer
	if err := export.Encode(&buf, h.tracker.Export()); err != nil {
		slog.Error("Backup failed", "error", err)
		http.Error(w, "failed to encode backup", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(now)))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("Backup write failed", "error", err)
	}
}

// HealthHandler reports 200 when every pinger answers, 503 otherwise.
func HealthHandler(pingers ...Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, p := range pingers {
			if err := p.Ping(ctx); err != nil {
				slog.Warn("Health check failed", "error", err)
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ok")
	})
}
