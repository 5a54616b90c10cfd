package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/streakly/internal/export"
	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/tracker"
)

const (
	DataServiceName = "streakly.v1.DataService"

	DataServiceExportProcedure   = "/streakly.v1.DataService/Export"
	DataServiceImportProcedure   = "/streakly.v1.DataService/Import"
	DataServiceClearProcedure    = "/streakly.v1.DataService/Clear"
	DataServiceGetThemeProcedure = "/streakly.v1.DataService/GetTheme"
	DataServiceSetThemeProcedure = "/streakly.v1.DataService/SetTheme"
	DataServiceSaveProcedure     = "/streakly.v1.DataService/Save"
)

type ExportRequest struct{}

type ExportResponse struct {
	Document export.Document `json:"document"`
}

// ImportRequest carries a backup document. Collections that are null or
// missing in the document are left untouched.
type ImportRequest struct {
	Document export.Document `json:"document"`
}

type ImportResponse struct{}

type ClearRequest struct{}

type ClearResponse struct{}

type GetThemeRequest struct{}

type ThemeResponse struct {
	Theme models.Theme `json:"theme"`
}

type SetThemeRequest struct {
	Theme models.Theme `json:"theme"`
}

// SaveRequest retries writing collections whose last write failed.
type SaveRequest struct{}

type SaveResponse struct {
	Dirty bool `json:"dirty"`
}

// DataService implements backup, restore, reset and settings RPCs.
type DataService struct {
	tracker *tracker.Tracker
}

// NewDataService creates a new DataService backed by t.
func NewDataService(t *tracker.Tracker) *DataService {
	return &DataService{tracker: t}
}

// Register mounts every DataService procedure on mux.
func (s *DataService) Register(mux Mux, opts ...connect.HandlerOption) {
	opts = handlerOptions(opts)
	mux.Handle(DataServiceExportProcedure, connect.NewUnaryHandler(DataServiceExportProcedure, s.Export, opts...))
	mux.Handle(DataServiceImportProcedure, connect.NewUnaryHandler(DataServiceImportProcedure, s.Import, opts...))
	mux.Handle(DataServiceClearProcedure, connect.NewUnaryHandler(DataServiceClearProcedure, s.Clear, opts...))
	mux.Handle(DataServiceGetThemeProcedure, connect.NewUnaryHandler(DataServiceGetThemeProcedure, s.GetTheme, opts...))
	mux.Handle(DataServiceSetThemeProcedure, connect.NewUnaryHandler(DataServiceSetThemeProcedure, s.SetTheme, opts...))
	mux.Handle(DataServiceSaveProcedure, connect.NewUnaryHandler(DataServiceSaveProcedure, s.Save, opts...))
}

// Export snapshots habits, completions and achievements.
func (s *DataService) Export(ctx context.Context, req *connect.Request[ExportRequest]) (*connect.Response[ExportResponse], error) {
	slog.Info("Export request received")

	doc := s.tracker.Export()
	slog.Info("Export successful",
		"habits", len(doc.Habits),
		"completions", len(doc.Completions),
	)
	return connect.NewResponse(&ExportResponse{Document: doc}), nil
}

// Import restores a backup document.
func (s *DataService) Import(ctx context.Context, req *connect.Request[ImportRequest]) (*connect.Response[ImportResponse], error) {
	doc := req.Msg.Document
	slog.Info("Import request received",
		"habits", len(doc.Habits),
		"completions", len(doc.Completions),
		"achievements", len(doc.Achievements),
	)

	if err := s.tracker.Import(ctx, doc); err != nil {
		return nil, fail("Import failed", err)
	}
	return connect.NewResponse(&ImportResponse{}), nil
}

// Clear deletes all habits, completions and todos.
func (s *DataService) Clear(ctx context.Context, req *connect.Request[ClearRequest]) (*connect.Response[ClearResponse], error) {
	slog.Info("Clear request received")

	if err := s.tracker.Clear(ctx); err != nil {
		return nil, fail("Clear failed", err)
	}
	return connect.NewResponse(&ClearResponse{}), nil
}

// GetTheme returns the stored theme.
func (s *DataService) GetTheme(ctx context.Context, req *connect.Request[GetThemeRequest]) (*connect.Response[ThemeResponse], error) {
	return connect.NewResponse(&ThemeResponse{Theme: s.tracker.Theme()}), nil
}

// SetTheme stores the theme.
func (s *DataService) SetTheme(ctx context.Context, req *connect.Request[SetThemeRequest]) (*connect.Response[ThemeResponse], error) {
	slog.Info("SetTheme request received", "theme", req.Msg.Theme)

	if err := s.tracker.SetTheme(ctx, req.Msg.Theme); err != nil {
		return nil, fail("SetTheme failed", err, "theme", req.Msg.Theme)
	}
	return connect.NewResponse(&ThemeResponse{Theme: s.tracker.Theme()}), nil
}

// Save retries pending writes.
func (s *DataService) Save(ctx context.Context, req *connect.Request[SaveRequest]) (*connect.Response[SaveResponse], error) {
	slog.Info("Save request received")

	if err := s.tracker.Save(ctx); err != nil {
		return nil, fail("Save failed", err)
	}
	return connect.NewResponse(&SaveResponse{Dirty: s.tracker.Dirty()}), nil
}
