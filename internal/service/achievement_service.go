package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/streakly/internal/achievements"
	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/tracker"
)

const (
	AchievementServiceName = "streakly.v1.AchievementService"

	AchievementServiceListAchievementsProcedure = "/streakly.v1.AchievementService/ListAchievements"
)

type ListAchievementsRequest struct{}

type ListAchievementsResponse struct {
	Achievements []models.Achievement `json:"achievements"`
	Unlocked     int                  `json:"unlocked"`
	Total        int                  `json:"total"`
}

// AchievementService implements the AchievementService RPCs.
type AchievementService struct {
	tracker *tracker.Tracker
}

// NewAchievementService creates a new AchievementService backed by t.
func NewAchievementService(t *tracker.Tracker) *AchievementService {
	return &AchievementService{tracker: t}
}

// Register mounts every AchievementService procedure on mux.
func (s *AchievementService) Register(mux Mux, opts ...connect.HandlerOption) {
	opts = handlerOptions(opts)
	mux.Handle(AchievementServiceListAchievementsProcedure, connect.NewUnaryHandler(AchievementServiceListAchievementsProcedure, s.ListAchievements, opts...))
}

// ListAchievements returns the catalog with unlock state.
func (s *AchievementService) ListAchievements(ctx context.Context, req *connect.Request[ListAchievementsRequest]) (*connect.Response[ListAchievementsResponse], error) {
	slog.Info("ListAchievements request received")

	list := s.tracker.Achievements()
	unlocked, total := achievements.Count(list)

	slog.Info("ListAchievements successful", "unlocked", unlocked, "total", total)
	return connect.NewResponse(&ListAchievementsResponse{
		Achievements: list,
		Unlocked:     unlocked,
		Total:        total,
	}), nil
}
