package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tonpoints/internal/model"
)

var (
	ErrUserNotFound = errors.New("user not found")

	ErrInvalidNonce   = errors.New("unknown ad session nonce")
	ErrNotOwner       = errors.New("ad session belongs to a different user")
	ErrAlreadyClaimed = errors.New("ad session already claimed")
	ErrNotOpened      = errors.New("ad session not opened yet")

	ErrPromoDisabled        = errors.New("promo codes are disabled")
	ErrPromoInactive        = errors.New("promo code is invalid or inactive")
	ErrPromoExhausted       = errors.New("promo code has no uses left")
	ErrPromoAlreadyRedeemed = errors.New("promo code already redeemed by this user")

	ErrReferralSelf = errors.New("cannot refer yourself")
)

// TooFastError is returned when a claim arrives before the minimum dwell
// time has elapsed. It is retryable: the caller should wait and claim again.
type TooFastError struct {
	ElapsedSeconds int
	NeedSeconds    int
}

func (e *TooFastError) Error() string {
	return fmt.Sprintf("claimed too fast: %ds elapsed, %ds required", e.ElapsedSeconds, e.NeedSeconds)
}

type DailyLimitError struct {
	Used  int
	Limit int
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily ad limit reached: %d of %d", e.Used, e.Limit)
}

type CooldownError struct {
	RemainingSeconds int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("claim cooldown active: %ds remaining", e.RemainingSeconds)
}

// RewardConfig carries the tunables of the points economy.
type RewardConfig struct {
	PointsPerAdView           int64
	PoolContributionPerAdView int64
	MinimumDwell              time.Duration
	DistributionCheckInterval time.Duration
	DailyAdLimitPerUser       int
	AdCooldown                time.Duration
}

func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		PointsPerAdView:           1,
		PoolContributionPerAdView: 1,
		MinimumDwell:              20 * time.Second,
		DistributionCheckInterval: 30 * time.Second,
		DailyAdLimitPerUser:       0,
		AdCooldown:                0,
	}
}

// RewardEvent is emitted after a credit has been committed. Delivery is
// best-effort and never affects the credit itself.
type RewardEvent struct {
	ID         string
	TelegramID int64
	Amount     int64
	Reason     string
}

type Notifier interface {
	RewardGranted(event RewardEvent)
}

type Service struct {
	*UserService
	*AdService
	*PoolService
	*PromoService
}

func NewService(users *UserService, ads *AdService, pool *PoolService, promo *PromoService) *Service {
	return &Service{
		UserService:  users,
		AdService:    ads,
		PoolService:  pool,
		PromoService: promo,
	}
}

type UserServiceI interface {
	RegisterUser(ctx context.Context, telegramID int64, username, referralCode string) (*model.User, error)
	GetProfile(ctx context.Context, telegramID int64) (*Profile, error)
	ApplyReferral(ctx context.Context, telegramID int64, code string) error
	GetLeaderboard(ctx context.Context) ([]*model.User, error)
	ListUsersWithParticipation(ctx context.Context, dayKey string, limit int) ([]*model.AdminUserRow, error)
	ListActiveItems(ctx context.Context) ([]*model.Item, error)
}

type AdServiceI interface {
	Start(ctx context.Context, telegramID int64, username string) (*AdStart, error)
	MarkOpened(ctx context.Context, telegramID int64, nonce string) error
	Claim(ctx context.Context, telegramID int64, nonce string) (*model.ClaimResult, error)
}

type PoolServiceI interface {
	Status(ctx context.Context, dayKey string) (*model.PoolDay, error)
	Distribute(ctx context.Context, dayKey string) (*model.PoolDistribution, error)
}

type PromoServiceI interface {
	Redeem(ctx context.Context, telegramID int64, code string) (int64, error)
	CreatePromoCode(ctx context.Context, code string, points int64, maxUses int) error
	SetPromoActive(ctx context.Context, code string, active bool) error
	ListPromoCodes(ctx context.Context, limit int) ([]*model.PromoCode, error)
	GetAdminConfig(ctx context.Context) (*model.AdminConfig, error)
	UpdateAdminConfig(ctx context.Context, cfg *model.AdminConfig) error
}

type UserRepository interface {
	EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	SetReferrer(ctx context.Context, telegramID, referrerID int64) error
	GetTopUsers(ctx context.Context, limit int) ([]*model.User, error)
	ListUsersWithParticipation(ctx context.Context, dayKey string, limit int) ([]*model.AdminUserRow, error)
	GetInventory(ctx context.Context, telegramID int64) ([]*model.InventoryEntry, error)
	ListActiveItems(ctx context.Context) ([]*model.Item, error)
	GetDailyTickets(ctx context.Context, dayKey string, telegramID int64) (int, error)
	GetPoolDay(ctx context.Context, dayKey string) (*model.PoolDay, error)
	GetAdminConfig(ctx context.Context) (*model.AdminConfig, error)
}

type AdRepository interface {
	EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, error)
	CreateAdSession(ctx context.Context, telegramID int64) (string, error)
	GetAdSession(ctx context.Context, nonce string) (*model.AdSession, error)
	MarkAdOpened(ctx context.Context, nonce string, openedAt time.Time) error
	ClaimAdSession(ctx context.Context, nonce string, telegramID int64, dayKey string, userPoints, poolPoints int64) error
	GetDailyTickets(ctx context.Context, dayKey string, telegramID int64) (int, error)
	GetLastClaimTime(ctx context.Context, telegramID int64) (*time.Time, error)
}

type PoolRepository interface {
	EnsurePoolDay(ctx context.Context, dayKey string) (*model.PoolDay, error)
	DistributePoolDay(ctx context.Context, dayKey string, split func(poolPoints int64, entries []model.DayTickets) []model.Payout) (*model.PoolDistribution, error)
	CreditMinerIncome(ctx context.Context, dayKey string) (bool, error)
}

type PromoRepository interface {
	EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, error)
	GetPromoCode(ctx context.Context, code string) (*model.PromoCode, error)
	RedeemPromo(ctx context.Context, code string, telegramID int64) (int64, error)
	CreatePromoCode(ctx context.Context, promo *model.PromoCode) error
	SetPromoActive(ctx context.Context, code string, active bool) error
	ListPromoCodes(ctx context.Context, limit int) ([]*model.PromoCode, error)
	GetAdminConfig(ctx context.Context) (*model.AdminConfig, error)
	UpdateAdminConfig(ctx context.Context, cfg *model.AdminConfig) error
}
