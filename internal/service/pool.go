package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tonpoints/internal/model"
	"tonpoints/pkg/logger"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// SplitPool divides a day's pool across participants proportionally to
// their ticket counts. Shares are floored per ticket and the remainder is
// handed out in ascending telegram ID order, each participant taking at
// most their own ticket count, so the payouts always sum to poolPoints.
func SplitPool(poolPoints int64, entries []model.DayTickets) []model.Payout {
	sorted := make([]model.DayTickets, 0, len(entries))
	var totalTickets int64
	for _, e := range entries {
		if e.Tickets <= 0 {
			continue
		}
		sorted = append(sorted, e)
		totalTickets += int64(e.Tickets)
	}
	if poolPoints <= 0 || totalTickets <= 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TelegramID < sorted[j].TelegramID
	})

	perTicket := poolPoints / totalTickets
	remainder := poolPoints - perTicket*totalTickets

	payouts := make([]model.Payout, len(sorted))
	for i, e := range sorted {
		tickets := int64(e.Tickets)
		gain := perTicket * tickets

		if remainder > 0 {
			extra := remainder
			if tickets < extra {
				extra = tickets
			}
			gain += extra
			remainder -= extra
		}

		payouts[i] = model.Payout{TelegramID: e.TelegramID, Amount: gain}
	}

	return payouts
}

// PoolService owns the daily pool: live status, the distribution algorithm
// and the background schedule that seals the previous day after the UTC
// rollover.
type PoolService struct {
	repo PoolRepository
	cfg  RewardConfig

	sched gocron.Scheduler

	mu sync.Mutex
	// lastDistributedKey is a cheap debounce so the tick does not hit the
	// database every interval once today's rollover is handled. The
	// persisted distributed flag stays the authority.
	lastDistributedKey string
}

func NewPoolService(repo PoolRepository, cfg RewardConfig) *PoolService {
	return &PoolService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *PoolService) Status(ctx context.Context, dayKey string) (*model.PoolDay, error) {
	day, err := s.repo.EnsurePoolDay(ctx, dayKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool day: %w", err)
	}
	return day, nil
}

// Distribute seals dayKey's pool and pays the proportional shares. Safe to
// call any number of times: once the day is distributed it is a no-op.
func (s *PoolService) Distribute(ctx context.Context, dayKey string) (*model.PoolDistribution, error) {
	log := logger.Logger()

	dist, err := s.repo.DistributePoolDay(ctx, dayKey, SplitPool)
	if err != nil {
		return nil, fmt.Errorf("failed to distribute pool for %s: %w", dayKey, err)
	}

	if dist.AlreadyDistributed {
		return dist, nil
	}

	log.Info("pool distributed",
		zap.String("day_key", dayKey),
		zap.Int64("pool_points", dist.PoolPoints),
		zap.Int("total_tickets", dist.TotalTickets),
		zap.Int("participants", len(dist.Payouts)))

	return dist, nil
}

// StartScheduler launches the two background jobs: the rollover check that
// distributes yesterday's pool, and the daily miner income credit.
func (s *PoolService) StartScheduler() error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.cfg.DistributionCheckInterval),
		gocron.NewTask(s.distributionTick),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule distribution check: %w", err)
	}

	_, err = sched.NewJob(
		gocron.CronJob("10 0 * * *", false),
		gocron.NewTask(s.minerIncomeTick),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule miner income: %w", err)
	}

	sched.Start()
	s.sched = sched
	return nil
}

func (s *PoolService) StopScheduler() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}

// distributionTick runs every check interval. It distributes the previous
// day's pool once per current day; failures are logged and retried on the
// next tick because the distributed flag was never set.
func (s *PoolService) distributionTick() {
	log := logger.Logger()

	now := time.Now().UTC()
	todayKey := model.DayKey(now)

	s.mu.Lock()
	done := s.lastDistributedKey == todayKey
	s.mu.Unlock()
	if done {
		return
	}

	yesterdayKey := model.DayKey(now.AddDate(0, 0, -1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.Distribute(ctx, yesterdayKey); err != nil {
		log.Error("distribution tick failed",
			zap.String("day_key", yesterdayKey),
			zap.Error(err))
		return
	}

	s.mu.Lock()
	s.lastDistributedKey = todayKey
	s.mu.Unlock()
}

func (s *PoolService) minerIncomeTick() {
	log := logger.Logger()

	dayKey := model.DayKey(time.Now().UTC())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	credited, err := s.repo.CreditMinerIncome(ctx, dayKey)
	if err != nil {
		log.Error("miner income tick failed",
			zap.String("day_key", dayKey),
			zap.Error(err))
		return
	}
	if credited {
		log.Info("miner income credited", zap.String("day_key", dayKey))
	}
}
