package service

import (
	"context"
	"testing"

	"tonpoints/internal/model"
	"tonpoints/internal/repository"
	"tonpoints/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserService_ApplyReferral(t *testing.T) {
	enabled := &model.AdminConfig{ReferralsEnabled: true, PromoEnabled: true}

	tests := []struct {
		name          string
		telegramID    int64
		code          string
		mockSetup     func(mockRepo *mocks.MockUserRepository)
		expectedError error
	}{
		{
			name:       "Referrals disabled is a no-op",
			telegramID: 100,
			code:       "ABCD1234",
			mockSetup: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetAdminConfig", mock.Anything).
					Return(&model.AdminConfig{ReferralsEnabled: false, PromoEnabled: true}, nil)
			},
		},
		{
			name:       "Unknown code is silently ignored",
			telegramID: 100,
			code:       "ABCD1234",
			mockSetup: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetAdminConfig", mock.Anything).Return(enabled, nil)
				mockRepo.On("GetUserByReferralCode", mock.Anything, "ABCD1234").
					Return(nil, repository.ErrNotFound)
			},
		},
		{
			name:       "Self referral is rejected",
			telegramID: 100,
			code:       "ABCD1234",
			mockSetup: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetAdminConfig", mock.Anything).Return(enabled, nil)
				mockRepo.On("GetUserByReferralCode", mock.Anything, "ABCD1234").
					Return(&model.User{TelegramID: 100, ReferralCode: "ABCD1234"}, nil)
			},
			expectedError: ErrReferralSelf,
		},
		{
			name:       "Second application keeps the first referrer",
			telegramID: 100,
			code:       "ABCD1234",
			mockSetup: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetAdminConfig", mock.Anything).Return(enabled, nil)
				mockRepo.On("GetUserByReferralCode", mock.Anything, "ABCD1234").
					Return(&model.User{TelegramID: 200, ReferralCode: "ABCD1234"}, nil)
				mockRepo.On("SetReferrer", mock.Anything, int64(100), int64(200)).
					Return(repository.ErrReferrerAlreadySet)
			},
		},
		{
			name:       "Code is trimmed and uppercased before lookup",
			telegramID: 100,
			code:       " abcd1234 ",
			mockSetup: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetAdminConfig", mock.Anything).Return(enabled, nil)
				mockRepo.On("GetUserByReferralCode", mock.Anything, "ABCD1234").
					Return(&model.User{TelegramID: 200, ReferralCode: "ABCD1234"}, nil)
				mockRepo.On("SetReferrer", mock.Anything, int64(100), int64(200)).
					Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockUserRepository{}
			service := NewUserService(mockRepo)
			tt.mockSetup(mockRepo)

			err := service.ApplyReferral(context.Background(), tt.telegramID, tt.code)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_RegisterUser(t *testing.T) {
	t.Run("Referral failure never fails registration", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		service := NewUserService(mockRepo)

		mockRepo.On("EnsureUser", mock.Anything, int64(100), "alice").
			Return(&model.User{TelegramID: 100, Username: "alice"}, nil)
		mockRepo.On("GetAdminConfig", mock.Anything).
			Return(nil, assert.AnError)

		user, err := service.RegisterUser(context.Background(), 100, "alice", "ABCD1234")

		assert.NoError(t, err)
		assert.Equal(t, int64(100), user.TelegramID)
	})

	t.Run("No referral code skips the referral path", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		service := NewUserService(mockRepo)

		mockRepo.On("EnsureUser", mock.Anything, int64(100), "alice").
			Return(&model.User{TelegramID: 100, Username: "alice"}, nil)

		_, err := service.RegisterUser(context.Background(), 100, "alice", "")

		assert.NoError(t, err)
		mockRepo.AssertNotCalled(t, "GetAdminConfig", mock.Anything)
	})
}

func TestUserService_GetProfile(t *testing.T) {
	t.Run("Unknown user", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		service := NewUserService(mockRepo)

		mockRepo.On("GetUserByTelegramID", mock.Anything, int64(100)).
			Return(nil, repository.ErrNotFound)

		_, err := service.GetProfile(context.Background(), 100)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Missing pool day leaves today's pool at zero", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		service := NewUserService(mockRepo)

		mockRepo.On("GetUserByTelegramID", mock.Anything, int64(100)).
			Return(&model.User{TelegramID: 100, Points: 42}, nil)
		mockRepo.On("GetInventory", mock.Anything, int64(100)).
			Return([]*model.InventoryEntry{}, nil)
		mockRepo.On("GetDailyTickets", mock.Anything, mock.AnythingOfType("string"), int64(100)).
			Return(3, nil)
		mockRepo.On("GetPoolDay", mock.Anything, mock.AnythingOfType("string")).
			Return(nil, repository.ErrNotFound)

		profile, err := service.GetProfile(context.Background(), 100)

		assert.NoError(t, err)
		assert.Equal(t, int64(42), profile.User.Points)
		assert.Equal(t, 3, profile.Today.Tickets)
		assert.Equal(t, int64(0), profile.Today.PoolPoints)
		assert.False(t, profile.Today.Distributed)
	})
}
