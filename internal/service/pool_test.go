package service

import (
	"context"
	"testing"

	"tonpoints/internal/model"
	"tonpoints/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSplitPool(t *testing.T) {
	tests := []struct {
		name       string
		poolPoints int64
		entries    []model.DayTickets
		expected   []model.Payout
	}{
		{
			name:       "Even split without remainder",
			poolPoints: 10,
			entries: []model.DayTickets{
				{TelegramID: 1, Tickets: 5},
				{TelegramID: 2, Tickets: 3},
				{TelegramID: 3, Tickets: 2},
			},
			expected: []model.Payout{
				{TelegramID: 1, Amount: 5},
				{TelegramID: 2, Amount: 3},
				{TelegramID: 3, Amount: 2},
			},
		},
		{
			name:       "Remainder goes to the lowest telegram ID",
			poolPoints: 11,
			entries: []model.DayTickets{
				{TelegramID: 1, Tickets: 5},
				{TelegramID: 2, Tickets: 3},
				{TelegramID: 3, Tickets: 2},
			},
			expected: []model.Payout{
				{TelegramID: 1, Amount: 6},
				{TelegramID: 2, Amount: 3},
				{TelegramID: 3, Amount: 2},
			},
		},
		{
			name:       "Remainder larger than first participant's tickets spills over",
			poolPoints: 9,
			entries: []model.DayTickets{
				{TelegramID: 1, Tickets: 1},
				{TelegramID: 2, Tickets: 5},
			},
			expected: []model.Payout{
				{TelegramID: 1, Amount: 2},
				{TelegramID: 2, Amount: 7},
			},
		},
		{
			name:       "Pool smaller than total tickets",
			poolPoints: 3,
			entries: []model.DayTickets{
				{TelegramID: 1, Tickets: 5},
				{TelegramID: 2, Tickets: 3},
				{TelegramID: 3, Tickets: 2},
			},
			expected: []model.Payout{
				{TelegramID: 1, Amount: 3},
				{TelegramID: 2, Amount: 0},
				{TelegramID: 3, Amount: 0},
			},
		},
		{
			name:       "Unsorted input is ordered by telegram ID",
			poolPoints: 11,
			entries: []model.DayTickets{
				{TelegramID: 3, Tickets: 2},
				{TelegramID: 1, Tickets: 5},
				{TelegramID: 2, Tickets: 3},
			},
			expected: []model.Payout{
				{TelegramID: 1, Amount: 6},
				{TelegramID: 2, Amount: 3},
				{TelegramID: 3, Amount: 2},
			},
		},
		{
			name:       "Zero ticket entries are dropped",
			poolPoints: 4,
			entries: []model.DayTickets{
				{TelegramID: 1, Tickets: 2},
				{TelegramID: 2, Tickets: 0},
				{TelegramID: 3, Tickets: 2},
			},
			expected: []model.Payout{
				{TelegramID: 1, Amount: 2},
				{TelegramID: 3, Amount: 2},
			},
		},
		{
			name:       "Empty pool",
			poolPoints: 0,
			entries: []model.DayTickets{
				{TelegramID: 1, Tickets: 5},
			},
			expected: nil,
		},
		{
			name:       "No participants",
			poolPoints: 10,
			entries:    nil,
			expected:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payouts := SplitPool(tt.poolPoints, tt.entries)
			assert.Equal(t, tt.expected, payouts)
		})
	}
}

func TestSplitPool_Conservation(t *testing.T) {
	entries := []model.DayTickets{
		{TelegramID: 7, Tickets: 13},
		{TelegramID: 2, Tickets: 1},
		{TelegramID: 42, Tickets: 8},
		{TelegramID: 9, Tickets: 3},
	}

	for pool := int64(1); pool <= 100; pool++ {
		payouts := SplitPool(pool, entries)

		var sum int64
		for _, p := range payouts {
			sum += p.Amount
			assert.GreaterOrEqual(t, p.Amount, int64(0))
		}
		assert.Equal(t, pool, sum, "pool %d leaked points", pool)
	}
}

func TestPoolService_Distribute(t *testing.T) {
	t.Run("Fresh day pays out", func(t *testing.T) {
		mockRepo := &mocks.MockPoolRepository{}
		service := NewPoolService(mockRepo, DefaultRewardConfig())

		mockRepo.On("DistributePoolDay", mock.Anything, "2026-08-31", mock.Anything).
			Return(&model.PoolDistribution{
				DayKey:       "2026-08-31",
				PoolPoints:   10,
				TotalTickets: 10,
				Payouts: []model.Payout{
					{TelegramID: 1, Amount: 6},
					{TelegramID: 2, Amount: 4},
				},
			}, nil)

		dist, err := service.Distribute(context.Background(), "2026-08-31")

		assert.NoError(t, err)
		assert.False(t, dist.AlreadyDistributed)
		assert.Len(t, dist.Payouts, 2)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Repeat distribution is a no-op", func(t *testing.T) {
		mockRepo := &mocks.MockPoolRepository{}
		service := NewPoolService(mockRepo, DefaultRewardConfig())

		mockRepo.On("DistributePoolDay", mock.Anything, "2026-08-31", mock.Anything).
			Return(&model.PoolDistribution{
				DayKey:             "2026-08-31",
				AlreadyDistributed: true,
			}, nil)

		dist, err := service.Distribute(context.Background(), "2026-08-31")

		assert.NoError(t, err)
		assert.True(t, dist.AlreadyDistributed)
		assert.Empty(t, dist.Payouts)
	})

	t.Run("Repository error surfaces", func(t *testing.T) {
		mockRepo := &mocks.MockPoolRepository{}
		service := NewPoolService(mockRepo, DefaultRewardConfig())

		mockRepo.On("DistributePoolDay", mock.Anything, "2026-08-31", mock.Anything).
			Return(nil, assert.AnError)

		_, err := service.Distribute(context.Background(), "2026-08-31")
		assert.ErrorIs(t, err, assert.AnError)
	})
}
