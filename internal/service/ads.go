package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tonpoints/internal/model"
	"tonpoints/internal/repository"

	"github.com/google/uuid"
)

// AdService drives the ad session state machine: created -> opened ->
// claimed. The repository's conditional claim update is the authority on
// the claimed transition; this layer handles ownership, dwell time and the
// optional limits in front of it.
type AdService struct {
	repo     AdRepository
	cfg      RewardConfig
	notifier Notifier
}

func NewAdService(repo AdRepository, cfg RewardConfig, notifier Notifier) *AdService {
	return &AdService{
		repo:     repo,
		cfg:      cfg,
		notifier: notifier,
	}
}

type AdStart struct {
	Nonce           string
	MinWatchSeconds int
}

func (s *AdService) Start(ctx context.Context, telegramID int64, username string) (*AdStart, error) {
	if _, err := s.repo.EnsureUser(ctx, telegramID, username); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	nonce, err := s.repo.CreateAdSession(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to create ad session: %w", err)
	}

	return &AdStart{
		Nonce:           nonce,
		MinWatchSeconds: int(s.cfg.MinimumDwell / time.Second),
	}, nil
}

func (s *AdService) MarkOpened(ctx context.Context, telegramID int64, nonce string) error {
	session, err := s.repo.GetAdSession(ctx, nonce)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidNonce
		}
		return err
	}

	if session.TelegramID != telegramID {
		return ErrNotOwner
	}
	if session.Claimed {
		return ErrAlreadyClaimed
	}
	if session.Opened {
		// Repeating the call is fine, the first open timestamp stands.
		return nil
	}

	return s.repo.MarkAdOpened(ctx, nonce, time.Now().UTC())
}

func (s *AdService) Claim(ctx context.Context, telegramID int64, nonce string) (*model.ClaimResult, error) {
	session, err := s.repo.GetAdSession(ctx, nonce)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidNonce
		}
		return nil, err
	}

	if session.TelegramID != telegramID {
		return nil, ErrNotOwner
	}
	if session.Claimed {
		return nil, ErrAlreadyClaimed
	}
	if !session.Opened || session.OpenedAt == nil {
		return nil, ErrNotOpened
	}

	now := time.Now().UTC()
	elapsed := now.Sub(*session.OpenedAt)
	if elapsed < s.cfg.MinimumDwell {
		return nil, &TooFastError{
			ElapsedSeconds: int(elapsed / time.Second),
			NeedSeconds:    int(s.cfg.MinimumDwell / time.Second),
		}
	}

	dayKey := model.DayKey(now)

	if s.cfg.DailyAdLimitPerUser > 0 {
		tickets, err := s.repo.GetDailyTickets(ctx, dayKey, telegramID)
		if err != nil {
			return nil, fmt.Errorf("failed to get daily tickets: %w", err)
		}
		if tickets >= s.cfg.DailyAdLimitPerUser {
			return nil, &DailyLimitError{Used: tickets, Limit: s.cfg.DailyAdLimitPerUser}
		}
	}

	if s.cfg.AdCooldown > 0 {
		last, err := s.repo.GetLastClaimTime(ctx, telegramID)
		if err != nil {
			return nil, fmt.Errorf("failed to get last claim time: %w", err)
		}
		if last != nil {
			if since := now.Sub(*last); since < s.cfg.AdCooldown {
				return nil, &CooldownError{
					RemainingSeconds: int((s.cfg.AdCooldown - since) / time.Second),
				}
			}
		}
	}

	err = s.repo.ClaimAdSession(ctx, nonce, telegramID, dayKey,
		s.cfg.PointsPerAdView, s.cfg.PoolContributionPerAdView)
	if err != nil {
		if errors.Is(err, repository.ErrSessionAlreadyClaimed) {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.RewardGranted(RewardEvent{
			ID:         uuid.NewString(),
			TelegramID: telegramID,
			Amount:     s.cfg.PointsPerAdView,
			Reason:     "ad_view",
		})
	}

	return &model.ClaimResult{
		DayKey:       dayKey,
		PointsToUser: s.cfg.PointsPerAdView,
		PointsToPool: s.cfg.PoolContributionPerAdView,
	}, nil
}
