package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tonpoints/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type PoolDay struct {
	DayKey        string     `db:"day_key"`
	PoolPoints    int64      `db:"pool_points"`
	Distributed   bool       `db:"distributed"`
	DistributedAt *time.Time `db:"distributed_at"`
}

type dayTickets struct {
	TelegramID int64 `db:"telegram_id"`
	Tickets    int   `db:"count"`
}

// EnsurePoolDay guarantees a pool row exists for the day and returns it.
func (r *Repository) EnsurePoolDay(ctx context.Context, dayKey string) (*model.PoolDay, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pool_days (day_key) VALUES ($1)
		ON CONFLICT (day_key) DO NOTHING`,
		dayKey)
	if err != nil {
		return nil, err
	}

	return r.GetPoolDay(ctx, dayKey)
}

func (r *Repository) GetPoolDay(ctx context.Context, dayKey string) (*model.PoolDay, error) {
	var day PoolDay
	query, args, err := squirrel.
		Select("*").
		From("pool_days").
		Where(squirrel.Eq{"day_key": dayKey}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &day, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.PoolDay{
		DayKey:        day.DayKey,
		PoolPoints:    day.PoolPoints,
		Distributed:   day.Distributed,
		DistributedAt: day.DistributedAt,
	}, nil
}

// DistributePoolDay seals a day's pool and pays out the shares computed by
// split, all inside one transaction. The pool row is locked FOR UPDATE so
// concurrent triggers serialize on it; whoever sees distributed already set
// gets ErrAlreadyDistributed and changes nothing. A failure anywhere rolls
// the whole day back, leaving it eligible for retry.
func (r *Repository) DistributePoolDay(
	ctx context.Context,
	dayKey string,
	split func(poolPoints int64, entries []model.DayTickets) []model.Payout,
) (*model.PoolDistribution, error) {
	dist := &model.PoolDistribution{DayKey: dayKey}

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pool_days (day_key) VALUES ($1)
			ON CONFLICT (day_key) DO NOTHING`,
			dayKey)
		if err != nil {
			return err
		}

		var day PoolDay
		err = tx.GetContext(ctx, &day, `
			SELECT * FROM pool_days WHERE day_key = $1 FOR UPDATE`,
			dayKey)
		if err != nil {
			return err
		}

		if day.Distributed {
			return ErrAlreadyDistributed
		}
		dist.PoolPoints = day.PoolPoints

		var rows []dayTickets
		err = tx.SelectContext(ctx, &rows, `
			SELECT telegram_id, count
			FROM ad_participation
			WHERE day_key = $1 AND count > 0
			ORDER BY telegram_id ASC`,
			dayKey)
		if err != nil {
			return err
		}

		entries := make([]model.DayTickets, len(rows))
		for i, row := range rows {
			entries[i] = model.DayTickets{TelegramID: row.TelegramID, Tickets: row.Tickets}
			dist.TotalTickets += row.Tickets
		}

		if day.PoolPoints > 0 && dist.TotalTickets > 0 {
			dist.Payouts = split(day.PoolPoints, entries)
			for _, payout := range dist.Payouts {
				if payout.Amount <= 0 {
					continue
				}
				_, err = tx.ExecContext(ctx, `
					UPDATE users SET points = points + $1 WHERE telegram_id = $2`,
					payout.Amount, payout.TelegramID)
				if err != nil {
					return fmt.Errorf("failed to credit payout for %d: %w", payout.TelegramID, err)
				}
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE pool_days SET distributed = TRUE, distributed_at = $1 WHERE day_key = $2`,
			time.Now().UTC(), dayKey)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyDistributed) {
			dist.AlreadyDistributed = true
			return dist, nil
		}
		return nil, err
	}

	return dist, nil
}

// CreditMinerIncome credits every holder of unexpired active miners with
// their daily points_per_day yield, at most once per day key. Returns false
// when the day was already credited.
func (r *Repository) CreditMinerIncome(ctx context.Context, dayKey string) (bool, error) {
	credited := false
	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO miner_income_days (day_key) VALUES ($1)
			ON CONFLICT (day_key) DO NOTHING`,
			dayKey)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users u
			SET points = points + earned.total
			FROM (
				SELECT inv.telegram_id, SUM(it.points_per_day * inv.quantity) AS total
				FROM inventory inv
				JOIN items it ON it.id = inv.item_id
				WHERE it.active
				  AND it.points_per_day > 0
				  AND (inv.expires_at IS NULL OR inv.expires_at > now())
				GROUP BY inv.telegram_id
			) earned
			WHERE u.telegram_id = earned.telegram_id`)
		if err != nil {
			return err
		}

		credited = true
		return nil
	})
	return credited, err
}
