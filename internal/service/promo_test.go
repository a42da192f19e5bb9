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

func TestPromoService_Redeem(t *testing.T) {
	enabled := &model.AdminConfig{ReferralsEnabled: true, PromoEnabled: true}

	tests := []struct {
		name          string
		code          string
		mockSetup     func(mockRepo *mocks.MockPromoRepository)
		expectedError error
		expected      int64
	}{
		{
			name: "Promo codes disabled",
			code: "WELCOME",
			mockSetup: func(mockRepo *mocks.MockPromoRepository) {
				mockRepo.On("GetAdminConfig", mock.Anything).
					Return(&model.AdminConfig{ReferralsEnabled: true, PromoEnabled: false}, nil)
			},
			expectedError: ErrPromoDisabled,
		},
		{
			name: "Unknown code",
			code: "NOPE",
			mockSetup: func(mockRepo *mocks.MockPromoRepository) {
				mockRepo.On("GetAdminConfig", mock.Anything).Return(enabled, nil)
				mockRepo.On("EnsureUser", mock.Anything, int64(100), "").
					Return(&model.User{TelegramID: 100}, nil)
				mockRepo.On("RedeemPromo", mock.Anything, "NOPE", int64(100)).
					Return(int64(0), repository.ErrNotFound)
			},
			expectedError: ErrPromoInactive,
		},
		{
			name: "Deactivated code",
			code: "OLD",
			mockSetup: func(mockRepo *mocks.MockPromoRepository) {
				mockRepo.On("GetAdminConfig", mock.Anything).Return(enabled, nil)
				mockRepo.On("EnsureUser", mock.Anything, int64(100), "").
					Return(&model.User{TelegramID: 100}, nil)
				mockRepo.On("RedeemPromo", mock.Anything, "OLD", int64(100)).
					Return(int64(0), repository.ErrPromoInactive)
			},
			expectedError: ErrPromoInactive,
		},
		{
			name: "No uses left",
			code: "FULL",
			mockSetup: func(mockRepo *mocks.MockPromoRepository) {
				mockRepo.On("GetAdminConfig", mock.Anything).Return(enabled, nil)
				mockRepo.On("EnsureUser", mock.Anything, int64(100), "").
					Return(&model.User{TelegramID: 100}, nil)
				mockRepo.On("RedeemPromo", mock.Anything, "FULL", int64(100)).
					Return(int64(0), repository.ErrPromoExhausted)
			},
			expectedError: ErrPromoExhausted,
		},
		{
			name: "Second redemption by the same user",
			code: "WELCOME",
			mockSetup: func(mockRepo *mocks.MockPromoRepository) {
				mockRepo.On("GetAdminConfig", mock.Anything).Return(enabled, nil)
				mockRepo.On("EnsureUser", mock.Anything, int64(100), "").
					Return(&model.User{TelegramID: 100}, nil)
				mockRepo.On("RedeemPromo", mock.Anything, "WELCOME", int64(100)).
					Return(int64(0), repository.ErrPromoAlreadyRedeemed)
			},
			expectedError: ErrPromoAlreadyRedeemed,
		},
		{
			name: "Code is trimmed and uppercased before lookup",
			code: "  welcome ",
			mockSetup: func(mockRepo *mocks.MockPromoRepository) {
				mockRepo.On("GetAdminConfig", mock.Anything).Return(enabled, nil)
				mockRepo.On("EnsureUser", mock.Anything, int64(100), "").
					Return(&model.User{TelegramID: 100}, nil)
				mockRepo.On("RedeemPromo", mock.Anything, "WELCOME", int64(100)).
					Return(int64(500), nil)
			},
			expected: 500,
		},
		{
			name:          "Blank code",
			code:          "   ",
			mockSetup:     func(mockRepo *mocks.MockPromoRepository) {},
			expectedError: ErrPromoInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockPromoRepository{}
			service := NewPromoService(mockRepo, nil)
			tt.mockSetup(mockRepo)

			granted, err := service.Redeem(context.Background(), 100, tt.code)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, granted)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestPromoService_CreatePromoCode(t *testing.T) {
	t.Run("Rejects invalid parameters", func(t *testing.T) {
		mockRepo := &mocks.MockPromoRepository{}
		service := NewPromoService(mockRepo, nil)

		assert.Error(t, service.CreatePromoCode(context.Background(), "", 100, 10))
		assert.Error(t, service.CreatePromoCode(context.Background(), "CODE", 0, 10))
		assert.Error(t, service.CreatePromoCode(context.Background(), "CODE", 100, 0))
		mockRepo.AssertNotCalled(t, "CreatePromoCode", mock.Anything, mock.Anything)
	})

	t.Run("Stores a normalized code", func(t *testing.T) {
		mockRepo := &mocks.MockPromoRepository{}
		service := NewPromoService(mockRepo, nil)

		mockRepo.On("CreatePromoCode", mock.Anything, &model.PromoCode{
			Code:    "SUMMER26",
			Points:  250,
			MaxUses: 50,
		}).Return(nil)

		err := service.CreatePromoCode(context.Background(), " summer26 ", 250, 50)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}
