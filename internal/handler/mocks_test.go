package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

// MockProgressionService mocks progression.Service
type MockProgressionService struct {
	mock.Mock
}

func (m *MockProgressionService) Initialize(ctx context.Context, userID string, assessed *domain.ProficiencyBand) (*domain.UserLevelView, error) {
	args := m.Called(ctx, userID, assessed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserLevelView), args.Error(1)
}

func (m *MockProgressionService) ApplyEvent(ctx context.Context, evt domain.Event) (*domain.ApplyResult, error) {
	args := m.Called(ctx, evt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApplyResult), args.Error(1)
}

func (m *MockProgressionService) EvaluateBadges(ctx context.Context, userID string, counters map[string]int64) (*domain.ApplyResult, error) {
	args := m.Called(ctx, userID, counters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApplyResult), args.Error(1)
}

func (m *MockProgressionService) GetLevel(ctx context.Context, userID string) (*domain.UserLevelView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserLevelView), args.Error(1)
}

func (m *MockProgressionService) GetBadges(ctx context.Context, userID string) ([]domain.BadgeView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BadgeView), args.Error(1)
}

func (m *MockProgressionService) GetNewBadges(ctx context.Context, userID string) ([]domain.BadgeView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BadgeView), args.Error(1)
}

func (m *MockProgressionService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LeaderboardEntry), args.Error(1)
}

func (m *MockProgressionService) SetBadgeDisplayed(ctx context.Context, userID, badgeCode string, displayed bool) error {
	args := m.Called(ctx, userID, badgeCode, displayed)
	return args.Error(0)
}

func (m *MockProgressionService) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPinger mocks a readiness dependency
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
