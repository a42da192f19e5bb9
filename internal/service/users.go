package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tonpoints/internal/model"
	"tonpoints/internal/repository"
	"tonpoints/pkg/logger"

	"go.uber.org/zap"
)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

type Profile struct {
	User      *model.User
	Inventory []*model.InventoryEntry
	Today     *model.TodayStats
}

// RegisterUser creates the user on first contact and applies an optional
// referral code. A referral failure never fails the registration.
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, referralCode string) (*model.User, error) {
	user, err := s.repo.EnsureUser(ctx, telegramID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	if referralCode != "" {
		if err := s.ApplyReferral(ctx, telegramID, referralCode); err != nil {
			logger.Logger().Info("referral not applied",
				zap.Int64("telegram_id", telegramID),
				zap.Error(err))
		}
	}

	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, telegramID int64) (*Profile, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	inventory, err := s.repo.GetInventory(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}

	dayKey := model.DayKey(time.Now().UTC())
	tickets, err := s.repo.GetDailyTickets(ctx, dayKey, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily tickets: %w", err)
	}

	today := &model.TodayStats{
		DayKey:  dayKey,
		Tickets: tickets,
	}
	day, err := s.repo.GetPoolDay(ctx, dayKey)
	if err == nil {
		today.PoolPoints = day.PoolPoints
		today.Distributed = day.Distributed
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get pool day: %w", err)
	}

	return &Profile{
		User:      user,
		Inventory: inventory,
		Today:     today,
	}, nil
}

// ApplyReferral links a user to the owner of a referral code. The link is
// first-write-wins: a second application is silently ignored, as is an
// unknown code. Self-referral is the one hard failure.
func (s *UserService) ApplyReferral(ctx context.Context, telegramID int64, code string) error {
	cfg, err := s.repo.GetAdminConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get admin config: %w", err)
	}
	if !cfg.ReferralsEnabled {
		return nil
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}

	referrer, err := s.repo.GetUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up referral code: %w", err)
	}

	if referrer.TelegramID == telegramID {
		return ErrReferralSelf
	}

	err = s.repo.SetReferrer(ctx, telegramID, referrer.TelegramID)
	if err != nil {
		if errors.Is(err, repository.ErrReferrerAlreadySet) {
			return nil
		}
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to set referrer: %w", err)
	}

	return nil
}

func (s *UserService) GetLeaderboard(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.GetTopUsers(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return users, nil
}

func (s *UserService) ListUsersWithParticipation(ctx context.Context, dayKey string, limit int) ([]*model.AdminUserRow, error) {
	rows, err := s.repo.ListUsersWithParticipation(ctx, dayKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return rows, nil
}

func (s *UserService) ListActiveItems(ctx context.Context) ([]*model.Item, error) {
	items, err := s.repo.ListActiveItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}
