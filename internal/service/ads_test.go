package service

import (
	"context"
	"os"
	"testing"
	"time"

	"tonpoints/internal/model"
	"tonpoints/internal/repository"
	"tonpoints/internal/service/mocks"
	"tonpoints/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestAdService_Start(t *testing.T) {
	mockRepo := &mocks.MockAdRepository{}
	service := NewAdService(mockRepo, DefaultRewardConfig(), nil)

	mockRepo.On("EnsureUser", mock.Anything, int64(100), "alice").
		Return(&model.User{TelegramID: 100, Username: "alice"}, nil)
	mockRepo.On("CreateAdSession", mock.Anything, int64(100)).
		Return("a1b2c3", nil)

	started, err := service.Start(context.Background(), 100, "alice")

	assert.NoError(t, err)
	assert.Equal(t, "a1b2c3", started.Nonce)
	assert.Equal(t, 20, started.MinWatchSeconds)
	mockRepo.AssertExpectations(t)
}

func TestAdService_MarkOpened(t *testing.T) {
	openedAt := time.Now().UTC().Add(-time.Minute)

	tests := []struct {
		name          string
		telegramID    int64
		nonce         string
		mockSetup     func(mockRepo *mocks.MockAdRepository)
		expectedError error
	}{
		{
			name:       "Unknown nonce",
			telegramID: 100,
			nonce:      "missing",
			mockSetup: func(mockRepo *mocks.MockAdRepository) {
				mockRepo.On("GetAdSession", mock.Anything, "missing").
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrInvalidNonce,
		},
		{
			name:       "Not the session owner",
			telegramID: 100,
			nonce:      "n1",
			mockSetup: func(mockRepo *mocks.MockAdRepository) {
				mockRepo.On("GetAdSession", mock.Anything, "n1").
					Return(&model.AdSession{Nonce: "n1", TelegramID: 200}, nil)
			},
			expectedError: ErrNotOwner,
		},
		{
			name:       "Already claimed",
			telegramID: 100,
			nonce:      "n2",
			mockSetup: func(mockRepo *mocks.MockAdRepository) {
				mockRepo.On("GetAdSession", mock.Anything, "n2").
					Return(&model.AdSession{Nonce: "n2", TelegramID: 100, Opened: true, OpenedAt: &openedAt, Claimed: true}, nil)
			},
			expectedError: ErrAlreadyClaimed,
		},
		{
			name:       "Already opened is a no-op",
			telegramID: 100,
			nonce:      "n3",
			mockSetup: func(mockRepo *mocks.MockAdRepository) {
				mockRepo.On("GetAdSession", mock.Anything, "n3").
					Return(&model.AdSession{Nonce: "n3", TelegramID: 100, Opened: true, OpenedAt: &openedAt}, nil)
			},
			expectedError: nil,
		},
		{
			name:       "First open records timestamp",
			telegramID: 100,
			nonce:      "n4",
			mockSetup: func(mockRepo *mocks.MockAdRepository) {
				mockRepo.On("GetAdSession", mock.Anything, "n4").
					Return(&model.AdSession{Nonce: "n4", TelegramID: 100}, nil)
				mockRepo.On("MarkAdOpened", mock.Anything, "n4", mock.AnythingOfType("time.Time")).
					Return(nil)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockAdRepository{}
			service := NewAdService(mockRepo, DefaultRewardConfig(), nil)
			tt.mockSetup(mockRepo)

			err := service.MarkOpened(context.Background(), tt.telegramID, tt.nonce)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAdService_Claim(t *testing.T) {
	now := time.Now().UTC()
	dayKey := model.DayKey(now)

	openedLongAgo := now.Add(-time.Minute)
	openedJustNow := now.Add(-5 * time.Second)
	openedAtThreshold := now.Add(-20 * time.Second)

	session := func(openedAt *time.Time, opened, claimed bool) *model.AdSession {
		return &model.AdSession{
			Nonce:      "nonce",
			TelegramID: 100,
			Opened:     opened,
			OpenedAt:   openedAt,
			Claimed:    claimed,
		}
	}

	t.Run("Unknown nonce", func(t *testing.T) {
		mockRepo := &mocks.MockAdRepository{}
		service := NewAdService(mockRepo, DefaultRewardConfig(), nil)
		mockRepo.On("GetAdSession", mock.Anything, "nonce").
			Return(nil, repository.ErrNotFound)

		_, err := service.Claim(context.Background(), 100, "nonce")
		assert.ErrorIs(t, err, ErrInvalidNonce)
	})

	t.Run("Not the session owner", func(t *testing.T) {
		mockRepo := &mocks.MockAdRepository{}
		service := NewAdService(mockRepo, DefaultRewardConfig(), nil)
		s := session(&openedLongAgo, true, false)
		s.TelegramID = 200
		mockRepo.On("GetAdSession", mock.Anything, "nonce").Return(s, nil)

		_, err := service.Claim(context.Background(), 100, "nonce")
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("Second claim returns AlreadyClaimed", func(t *testing.T) {
		mockRepo := &mocks.MockAdRepository{}
		service := NewAdService(mockRepo, DefaultRewardConfig(), nil)
		mockRepo.On("GetAdSession", mock.Anything, "nonce").
			Return(session(&openedLongAgo, true, true), nil)

		_, err := service.Claim(context.Background(), 100, "nonce")
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
		mockRepo.AssertNotCalled(t, "ClaimAdSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Claim before open returns NotOpened", func(t *testing.T) {
		mockRepo := &mocks.MockAdRepository{}
		service := NewAdService(mockRepo, DefaultRewardConfig(), nil)
		mockRepo.On("GetAdSession", mock.Anything, "nonce").
			Return(session(nil, false, false), nil)

		_, err := service.Claim(context.Background(), 100, "nonce")
		assert.ErrorIs(t, err, ErrNotOpened)
	})

	t.Run("Claim under dwell time returns TooFast with details", func(t *testing.T) {
		mockRepo := &mocks.MockAdRepository{}
		service := NewAdService(mockRepo, DefaultRewardConfig(), nil)
		mockRepo.On("GetAdSession", mock.Anything, "nonce").
			Return(session(&openedJustNow, true, false), nil)

		_, err := service.Claim(context.Background(), 100, "nonce")

		var tooFast *TooFastError
		assert.ErrorAs(t, err, &tooFast)
		assert.Equal(t, 20, tooFast.NeedSeconds)
		assert.Less(t, tooFast.ElapsedSeconds, 20)
	})

	t.Run("Claim exactly at dwell threshold succeeds", func(t *testing.T) {
		mockRepo := &mocks.MockAdRepository{}
		service := NewAdService(mockRepo, DefaultRewardConfig(), nil)
		mockRepo.On("GetAdSession", mock.Anything, "nonce").
			Return(session(&openedAtThreshold, true, false), nil)
		mockRepo.On("ClaimAdSession", mock.Anything, "nonce", int64(100), dayKey, int64(1), int64(1)).
			Return(nil)

		result, err := service.Claim(context.Background(), 100, "nonce")

		assert.NoError(t, err)
		assert.Equal(t, int64(1), result.PointsToUser)
		assert.Equal(t, int64(1), result.PointsToPool)
		assert.Equal(t, dayKey, result.DayKey)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Lost claim race maps to AlreadyClaimed", func(t *testing.T) {
		mockRepo := &mocks.MockAdRepository{}
		service := NewAdService(mockRepo, DefaultRewardConfig(), nil)
		mockRepo.On("GetAdSession", mock.Anything, "nonce").
			Return(session(&openedLongAgo, true, false), nil)
		mockRepo.On("ClaimAdSession", mock.Anything, "nonce", int64(100), dayKey, int64(1), int64(1)).
			Return(repository.ErrSessionAlreadyClaimed)

		_, err := service.Claim(context.Background(), 100, "nonce")
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
	})

	t.Run("Daily limit reached", func(t *testing.T) {
		cfg := DefaultRewardConfig()
		cfg.DailyAdLimitPerUser = 2

		mockRepo := &mocks.MockAdRepository{}
		service := NewAdService(mockRepo, cfg, nil)
		mockRepo.On("GetAdSession", mock.Anything, "nonce").
			Return(session(&openedLongAgo, true, false), nil)
		mockRepo.On("GetDailyTickets", mock.Anything, dayKey, int64(100)).
			Return(2, nil)

		_, err := service.Claim(context.Background(), 100, "nonce")

		var limitErr *DailyLimitError
		assert.ErrorAs(t, err, &limitErr)
		assert.Equal(t, 2, limitErr.Used)
		assert.Equal(t, 2, limitErr.Limit)
	})

	t.Run("Cooldown active", func(t *testing.T) {
		cfg := DefaultRewardConfig()
		cfg.AdCooldown = time.Minute

		lastClaim := now.Add(-30 * time.Second)

		mockRepo := &mocks.MockAdRepository{}
		service := NewAdService(mockRepo, cfg, nil)
		mockRepo.On("GetAdSession", mock.Anything, "nonce").
			Return(session(&openedLongAgo, true, false), nil)
		mockRepo.On("GetLastClaimTime", mock.Anything, int64(100)).
			Return(&lastClaim, nil)

		_, err := service.Claim(context.Background(), 100, "nonce")

		var cooldown *CooldownError
		assert.ErrorAs(t, err, &cooldown)
		assert.Greater(t, cooldown.RemainingSeconds, 0)
		assert.LessOrEqual(t, cooldown.RemainingSeconds, 30)
	})

	t.Run("Configured reward amounts are applied", func(t *testing.T) {
		cfg := DefaultRewardConfig()
		cfg.PointsPerAdView = 3
		cfg.PoolContributionPerAdView = 2

		mockRepo := &mocks.MockAdRepository{}
		service := NewAdService(mockRepo, cfg, nil)
		mockRepo.On("GetAdSession", mock.Anything, "nonce").
			Return(session(&openedLongAgo, true, false), nil)
		mockRepo.On("ClaimAdSession", mock.Anything, "nonce", int64(100), dayKey, int64(3), int64(2)).
			Return(nil)

		result, err := service.Claim(context.Background(), 100, "nonce")

		assert.NoError(t, err)
		assert.Equal(t, int64(3), result.PointsToUser)
		assert.Equal(t, int64(2), result.PointsToPool)
		mockRepo.AssertExpectations(t)
	})
}
