package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/tracker"
)

const (
	HabitServiceName = "streakly.v1.HabitService"

	HabitServiceListHabitsProcedure       = "/streakly.v1.HabitService/ListHabits"
	HabitServiceGetHabitProcedure         = "/streakly.v1.HabitService/GetHabit"
	HabitServiceAddHabitProcedure         = "/streakly.v1.HabitService/AddHabit"
	HabitServiceUpdateHabitProcedure      = "/streakly.v1.HabitService/UpdateHabit"
	HabitServiceDeleteHabitProcedure      = "/streakly.v1.HabitService/DeleteHabit"
	HabitServiceToggleCompletionProcedure = "/streakly.v1.HabitService/ToggleCompletion"
	HabitServiceRecordCompletionProcedure = "/streakly.v1.HabitService/RecordCompletion"
	HabitServiceGetStreakProcedure        = "/streakly.v1.HabitService/GetStreak"
	HabitServiceGetCalendarProcedure      = "/streakly.v1.HabitService/GetCalendar"
	HabitServiceGetProgressProcedure      = "/streakly.v1.HabitService/GetProgress"
)

type ListHabitsRequest struct{}

type ListHabitsResponse struct {
	Habits   []models.Habit   `json:"habits"`
	Progress tracker.Progress `json:"progress"`
}

type GetHabitRequest struct {
	HabitID string `json:"habitId"`
}

type GetHabitResponse struct {
	Habit models.Habit `json:"habit"`
}

type AddHabitRequest struct {
	Habit tracker.HabitInput `json:"habit"`
}

type UpdateHabitRequest struct {
	HabitID string             `json:"habitId"`
	Habit   tracker.HabitInput `json:"habit"`
}

type DeleteHabitRequest struct {
	HabitID string `json:"habitId"`
}

type ToggleCompletionRequest struct {
	HabitID string `json:"habitId"`
}

type RecordCompletionRequest struct {
	HabitID   string `json:"habitId"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// HabitMutationResponse is returned by every habit mutation. Unlocked lists
// achievements the mutation unlocked, for the client to celebrate.
type HabitMutationResponse struct {
	Habit    *models.Habit        `json:"habit,omitempty"`
	Unlocked []models.Achievement `json:"unlocked"`
}

type GetStreakRequest struct {
	HabitID string `json:"habitId"`
}

type GetStreakResponse struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

type GetCalendarRequest struct {
	HabitID string `json:"habitId"`
}

// GetCalendarResponse lists completed days, most recent first.
type GetCalendarResponse struct {
	Dates []string `json:"dates"`
}

type GetProgressRequest struct{}

type GetProgressResponse struct {
	Progress tracker.Progress `json:"progress"`
}

// HabitService implements the HabitService RPCs.
type HabitService struct {
	tracker *tracker.Tracker
}

// NewHabitService creates a new HabitService backed by t.
func NewHabitService(t *tracker.Tracker) *HabitService {
	return &HabitService{tracker: t}
}

// Register mounts every HabitService procedure on mux.
func (s *HabitService) Register(mux Mux, opts ...connect.HandlerOption) {
	opts = handlerOptions(opts)
	mux.Handle(HabitServiceListHabitsProcedure, connect.NewUnaryHandler(HabitServiceListHabitsProcedure, s.ListHabits, opts...))
	mux.Handle(HabitServiceGetHabitProcedure, connect.NewUnaryHandler(HabitServiceGetHabitProcedure, s.GetHabit, opts...))
	mux.Handle(HabitServiceAddHabitProcedure, connect.NewUnaryHandler(HabitServiceAddHabitProcedure, s.AddHabit, opts...))
	mux.Handle(HabitServiceUpdateHabitProcedure, connect.NewUnaryHandler(HabitServiceUpdateHabitProcedure, s.UpdateHabit, opts...))
	mux.Handle(HabitServiceDeleteHabitProcedure, connect.NewUnaryHandler(HabitServiceDeleteHabitProcedure, s.DeleteHabit, opts...))
	mux.Handle(HabitServiceToggleCompletionProcedure, connect.NewUnaryHandler(HabitServiceToggleCompletionProcedure, s.ToggleCompletion, opts...))
	mux.Handle(HabitServiceRecordCompletionProcedure, connect.NewUnaryHandler(HabitServiceRecordCompletionProcedure, s.RecordCompletion, opts...))
	mux.Handle(HabitServiceGetStreakProcedure, connect.NewUnaryHandler(HabitServiceGetStreakProcedure, s.GetStreak, opts...))
	mux.Handle(HabitServiceGetCalendarProcedure, connect.NewUnaryHandler(HabitServiceGetCalendarProcedure, s.GetCalendar, opts...))
	mux.Handle(HabitServiceGetProgressProcedure, connect.NewUnaryHandler(HabitServiceGetProgressProcedure, s.GetProgress, opts...))
}

func mutationResponse(m tracker.Mutation) *connect.Response[HabitMutationResponse] {
	unlocked := m.Unlocked
	if unlocked == nil {
		unlocked = []models.Achievement{}
	}
	return connect.NewResponse(&HabitMutationResponse{Habit: m.Habit, Unlocked: unlocked})
}

// ListHabits returns every habit with today's progress.
func (s *HabitService) ListHabits(ctx context.Context, req *connect.Request[ListHabitsRequest]) (*connect.Response[ListHabitsResponse], error) {
	slog.Info("ListHabits request received")

	habits := s.tracker.ListHabits()
	slog.Info("ListHabits successful", "count", len(habits))

	return connect.NewResponse(&ListHabitsResponse{
		Habits:   habits,
		Progress: s.tracker.Progress(),
	}), nil
}

// GetHabit retrieves a habit by ID.
func (s *HabitService) GetHabit(ctx context.Context, req *connect.Request[GetHabitRequest]) (*connect.Response[GetHabitResponse], error) {
	slog.Info("GetHabit request received", "habit_id", req.Msg.HabitID)

	habit, err := s.tracker.GetHabit(req.Msg.HabitID)
	if err != nil {
		return nil, fail("GetHabit failed", err, "habit_id", req.Msg.HabitID)
	}
	return connect.NewResponse(&GetHabitResponse{Habit: habit}), nil
}

// AddHabit creates a habit.
func (s *HabitService) AddHabit(ctx context.Context, req *connect.Request[AddHabitRequest]) (*connect.Response[HabitMutationResponse], error) {
	slog.Info("AddHabit request received",
		"title", req.Msg.Habit.Title,
		"frequency", req.Msg.Habit.FrequencyType,
	)

	m, err := s.tracker.AddHabit(ctx, req.Msg.Habit)
	if err != nil {
		return nil, fail("AddHabit failed", err)
	}

	slog.Info("Habit created", "habit_id", m.Habit.ID, "unlocked", len(m.Unlocked))
	return mutationResponse(m), nil
}

// UpdateHabit edits a habit's title, description, schedule and reminder.
func (s *HabitService) UpdateHabit(ctx context.Context, req *connect.Request[UpdateHabitRequest]) (*connect.Response[HabitMutationResponse], error) {
	slog.Info("UpdateHabit request received", "habit_id", req.Msg.HabitID)

	m, err := s.tracker.UpdateHabit(ctx, req.Msg.HabitID, req.Msg.Habit)
	if err != nil {
		return nil, fail("UpdateHabit failed", err, "habit_id", req.Msg.HabitID)
	}

	slog.Info("Habit updated", "habit_id", req.Msg.HabitID)
	return mutationResponse(m), nil
}

// DeleteHabit removes a habit and its completions.
func (s *HabitService) DeleteHabit(ctx context.Context, req *connect.Request[DeleteHabitRequest]) (*connect.Response[HabitMutationResponse], error) {
	slog.Info("DeleteHabit request received", "habit_id", req.Msg.HabitID)

	m, err := s.tracker.DeleteHabit(ctx, req.Msg.HabitID)
	if err != nil {
		return nil, fail("DeleteHabit failed", err, "habit_id", req.Msg.HabitID)
	}

	slog.Info("Habit deleted", "habit_id", req.Msg.HabitID)
	return mutationResponse(m), nil
}

// ToggleCompletion flips today's completion for a habit.
func (s *HabitService) ToggleCompletion(ctx context.Context, req *connect.Request[ToggleCompletionRequest]) (*connect.Response[HabitMutationResponse], error) {
	slog.Info("ToggleCompletion request received", "habit_id", req.Msg.HabitID)

	m, err := s.tracker.ToggleCompletion(ctx, req.Msg.HabitID)
	if err != nil {
		return nil, fail("ToggleCompletion failed", err, "habit_id", req.Msg.HabitID)
	}
	return mutationResponse(m), nil
}

// RecordCompletion sets the completion state of a habit on a given day.
func (s *HabitService) RecordCompletion(ctx context.Context, req *connect.Request[RecordCompletionRequest]) (*connect.Response[HabitMutationResponse], error) {
	slog.Info("RecordCompletion request received",
		"habit_id", req.Msg.HabitID,
		"date", req.Msg.Date,
		"completed", req.Msg.Completed,
	)

	m, err := s.tracker.RecordCompletion(ctx, req.Msg.HabitID, req.Msg.Date, req.Msg.Completed)
	if err != nil {
		return nil, fail("RecordCompletion failed", err, "habit_id", req.Msg.HabitID)
	}
	return mutationResponse(m), nil
}

// GetStreak computes a habit's streak as of today.
func (s *HabitService) GetStreak(ctx context.Context, req *connect.Request[GetStreakRequest]) (*connect.Response[GetStreakResponse], error) {
	r := s.tracker.Streak(req.Msg.HabitID)
	return connect.NewResponse(&GetStreakResponse{Current: r.Current, Best: r.Best}), nil
}

// GetCalendar lists the days a habit was completed.
func (s *HabitService) GetCalendar(ctx context.Context, req *connect.Request[GetCalendarRequest]) (*connect.Response[GetCalendarResponse], error) {
	return connect.NewResponse(&GetCalendarResponse{Dates: s.tracker.CompletedDates(req.Msg.HabitID)}), nil
}

// GetProgress reports today's completed habit count.
func (s *HabitService) GetProgress(ctx context.Context, req *connect.Request[GetProgressRequest]) (*connect.Response[GetProgressResponse], error) {
	return connect.NewResponse(&GetProgressResponse{Progress: s.tracker.Progress()}), nil
}
