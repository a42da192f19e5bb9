package mocks

import (
	"context"
	"time"

	"tonpoints/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAdRepository struct {
	mock.Mock
}

func (m *MockAdRepository) EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, error) {
	args := m.Called(ctx, telegramID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAdRepository) CreateAdSession(ctx context.Context, telegramID int64) (string, error) {
	args := m.Called(ctx, telegramID)
	return args.String(0), args.Error(1)
}

func (m *MockAdRepository) GetAdSession(ctx context.Context, nonce string) (*model.AdSession, error) {
	args := m.Called(ctx, nonce)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdSession), args.Error(1)
}

func (m *MockAdRepository) MarkAdOpened(ctx context.Context, nonce string, openedAt time.Time) error {
	args := m.Called(ctx, nonce, openedAt)
	return args.Error(0)
}

func (m *MockAdRepository) ClaimAdSession(ctx context.Context, nonce string, telegramID int64, dayKey string, userPoints, poolPoints int64) error {
	args := m.Called(ctx, nonce, telegramID, dayKey, userPoints, poolPoints)
	return args.Error(0)
}

func (m *MockAdRepository) GetDailyTickets(ctx context.Context, dayKey string, telegramID int64) (int, error) {
	args := m.Called(ctx, dayKey, telegramID)
	return args.Int(0), args.Error(1)
}

func (m *MockAdRepository) GetLastClaimTime(ctx context.Context, telegramID int64) (*time.Time, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

type MockPoolRepository struct {
	mock.Mock
}

func (m *MockPoolRepository) EnsurePoolDay(ctx context.Context, dayKey string) (*model.PoolDay, error) {
	args := m.Called(ctx, dayKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PoolDay), args.Error(1)
}

func (m *MockPoolRepository) DistributePoolDay(ctx context.Context, dayKey string, split func(poolPoints int64, entries []model.DayTickets) []model.Payout) (*model.PoolDistribution, error) {
	args := m.Called(ctx, dayKey, split)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PoolDistribution), args.Error(1)
}

func (m *MockPoolRepository) CreditMinerIncome(ctx context.Context, dayKey string) (bool, error) {
	args := m.Called(ctx, dayKey)
	return args.Bool(0), args.Error(1)
}

type MockPromoRepository struct {
	mock.Mock
}

func (m *MockPromoRepository) EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, error) {
	args := m.Called(ctx, telegramID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockPromoRepository) GetPromoCode(ctx context.Context, code string) (*model.PromoCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PromoCode), args.Error(1)
}

func (m *MockPromoRepository) RedeemPromo(ctx context.Context, code string, telegramID int64) (int64, error) {
	args := m.Called(ctx, code, telegramID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPromoRepository) CreatePromoCode(ctx context.Context, promo *model.PromoCode) error {
	args := m.Called(ctx, promo)
	return args.Error(0)
}

func (m *MockPromoRepository) SetPromoActive(ctx context.Context, code string, active bool) error {
	args := m.Called(ctx, code, active)
	return args.Error(0)
}

func (m *MockPromoRepository) ListPromoCodes(ctx context.Context, limit int) ([]*model.PromoCode, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PromoCode), args.Error(1)
}

func (m *MockPromoRepository) GetAdminConfig(ctx context.Context) (*model.AdminConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminConfig), args.Error(1)
}

func (m *MockPromoRepository) UpdateAdminConfig(ctx context.Context, cfg *model.AdminConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, error) {
	args := m.Called(ctx, telegramID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) SetReferrer(ctx context.Context, telegramID, referrerID int64) error {
	args := m.Called(ctx, telegramID, referrerID)
	return args.Error(0)
}

func (m *MockUserRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) ListUsersWithParticipation(ctx context.Context, dayKey string, limit int) ([]*model.AdminUserRow, error) {
	args := m.Called(ctx, dayKey, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AdminUserRow), args.Error(1)
}

func (m *MockUserRepository) GetInventory(ctx context.Context, telegramID int64) ([]*model.InventoryEntry, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.InventoryEntry), args.Error(1)
}

func (m *MockUserRepository) ListActiveItems(ctx context.Context) ([]*model.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Item), args.Error(1)
}

func (m *MockUserRepository) GetDailyTickets(ctx context.Context, dayKey string, telegramID int64) (int, error) {
	args := m.Called(ctx, dayKey, telegramID)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) GetPoolDay(ctx context.Context, dayKey string) (*model.PoolDay, error) {
	args := m.Called(ctx, dayKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PoolDay), args.Error(1)
}

func (m *MockUserRepository) GetAdminConfig(ctx context.Context) (*model.AdminConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminConfig), args.Error(1)
}
