package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tonpoints/internal/model"
	"tonpoints/internal/repository"

	"github.com/google/uuid"
)

type PromoService struct {
	repo     PromoRepository
	notifier Notifier
}

func NewPromoService(repo PromoRepository, notifier Notifier) *PromoService {
	return &PromoService{
		repo:     repo,
		notifier: notifier,
	}
}

// Redeem grants a promo code's points to the user at most once. Codes are
// case-insensitive; every failure is a distinct outcome the caller can show.
func (s *PromoService) Redeem(ctx context.Context, telegramID int64, code string) (int64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0, ErrPromoInactive
	}

	cfg, err := s.repo.GetAdminConfig(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get admin config: %w", err)
	}
	if !cfg.PromoEnabled {
		return 0, ErrPromoDisabled
	}

	if _, err := s.repo.EnsureUser(ctx, telegramID, ""); err != nil {
		return 0, fmt.Errorf("failed to ensure user: %w", err)
	}

	granted, err := s.repo.RedeemPromo(ctx, code, telegramID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrPromoInactive):
			return 0, ErrPromoInactive
		case errors.Is(err, repository.ErrPromoExhausted):
			return 0, ErrPromoExhausted
		case errors.Is(err, repository.ErrPromoAlreadyRedeemed):
			return 0, ErrPromoAlreadyRedeemed
		}
		return 0, err
	}

	if s.notifier != nil {
		s.notifier.RewardGranted(RewardEvent{
			ID:         uuid.NewString(),
			TelegramID: telegramID,
			Amount:     granted,
			Reason:     "promo:" + code,
		})
	}

	return granted, nil
}

func (s *PromoService) CreatePromoCode(ctx context.Context, code string, points int64, maxUses int) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || points <= 0 || maxUses <= 0 {
		return errors.New("promo code requires a code, positive points and a positive use cap")
	}

	return s.repo.CreatePromoCode(ctx, &model.PromoCode{
		Code:    code,
		Points:  points,
		MaxUses: maxUses,
	})
}

func (s *PromoService) SetPromoActive(ctx context.Context, code string, active bool) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	err := s.repo.SetPromoActive(ctx, code, active)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPromoInactive
		}
		return err
	}
	return nil
}

func (s *PromoService) ListPromoCodes(ctx context.Context, limit int) ([]*model.PromoCode, error) {
	promos, err := s.repo.ListPromoCodes(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	return promos, nil
}

func (s *PromoService) GetAdminConfig(ctx context.Context) (*model.AdminConfig, error) {
	cfg, err := s.repo.GetAdminConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin config: %w", err)
	}
	return cfg, nil
}

func (s *PromoService) UpdateAdminConfig(ctx context.Context, cfg *model.AdminConfig) error {
	if err := s.repo.UpdateAdminConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to update admin config: %w", err)
	}
	return nil
}
