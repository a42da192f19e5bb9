package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"tonpoints/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type AdSession struct {
	Nonce      string     `db:"nonce"`
	TelegramID int64      `db:"telegram_id"`
	CreatedAt  time.Time  `db:"created_at"`
	Opened     bool       `db:"opened"`
	OpenedAt   *time.Time `db:"opened_at"`
	Claimed    bool       `db:"claimed"`
	ClaimedAt  *time.Time `db:"claimed_at"`
}

func genNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// CreateAdSession persists a fresh session in the created state and returns
// its nonce.
func (r *Repository) CreateAdSession(ctx context.Context, telegramID int64) (string, error) {
	nonce, err := genNonce()
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	query, args, err := squirrel.
		Insert("ad_sessions").
		SetMap(map[string]interface{}{
			"nonce":       nonce,
			"telegram_id": telegramID,
			"created_at":  time.Now().UTC(),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build session insert query: %w", err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to insert ad session: %w", err)
	}

	return nonce, nil
}

func (r *Repository) GetAdSession(ctx context.Context, nonce string) (*model.AdSession, error) {
	var s AdSession
	query, args, err := squirrel.
		Select("*").
		From("ad_sessions").
		Where(squirrel.Eq{"nonce": nonce}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &s, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.AdSession{
		Nonce:      s.Nonce,
		TelegramID: s.TelegramID,
		CreatedAt:  s.CreatedAt,
		Opened:     s.Opened,
		OpenedAt:   s.OpenedAt,
		Claimed:    s.Claimed,
		ClaimedAt:  s.ClaimedAt,
	}, nil
}

// MarkAdOpened records the open timestamp once. Re-opening an already open
// session is a no-op, so the call is idempotent for the client.
func (r *Repository) MarkAdOpened(ctx context.Context, nonce string, openedAt time.Time) error {
	query, args, err := squirrel.
		Update("ad_sessions").
		Set("opened", true).
		Set("opened_at", openedAt).
		Where(squirrel.Eq{"nonce": nonce, "opened": false}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// ClaimAdSession performs the whole claim effect set in one transaction:
// flip the session to claimed, credit the user, grow the day's pool and
// bump the user's ticket count. The conditional update on the session row
// is the compare-and-set that makes concurrent claims race-free: only the
// transaction that flips claimed from false to true proceeds, the loser
// gets ErrSessionAlreadyClaimed.
func (r *Repository) ClaimAdSession(ctx context.Context, nonce string, telegramID int64, dayKey string, userPoints, poolPoints int64) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		claimQuery, claimArgs, err := squirrel.
			Update("ad_sessions").
			Set("claimed", true).
			Set("claimed_at", time.Now().UTC()).
			Where(squirrel.Eq{"nonce": nonce, "claimed": false}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, claimQuery, claimArgs...)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrSessionAlreadyClaimed
		}

		creditQuery, creditArgs, err := squirrel.
			Update("users").
			Set("points", squirrel.Expr("points + ?", userPoints)).
			Where(squirrel.Eq{"telegram_id": telegramID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, creditQuery, creditArgs...); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO pool_days (day_key, pool_points)
			VALUES ($1, $2)
			ON CONFLICT (day_key) DO UPDATE SET pool_points = pool_days.pool_points + $2`,
			dayKey, poolPoints)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO ad_participation (day_key, telegram_id, count)
			VALUES ($1, $2, 1)
			ON CONFLICT (day_key, telegram_id) DO UPDATE SET count = ad_participation.count + 1`,
			dayKey, telegramID)
		return err
	})
}

func (r *Repository) GetDailyTickets(ctx context.Context, dayKey string, telegramID int64) (int, error) {
	query, args, err := squirrel.
		Select("count").
		From("ad_participation").
		Where(squirrel.Eq{"day_key": dayKey, "telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}

	return count, nil
}

// GetLastClaimTime returns the most recent claim timestamp for a user, or
// nil if the user has never claimed. Used for the optional claim cooldown.
func (r *Repository) GetLastClaimTime(ctx context.Context, telegramID int64) (*time.Time, error) {
	var last sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(claimed_at)
		FROM ad_sessions
		WHERE telegram_id = $1 AND claimed = TRUE`,
		telegramID,
	).Scan(&last)
	if err != nil {
		return nil, err
	}

	if !last.Valid {
		return nil, nil
	}
	t := last.Time.UTC()
	return &t, nil
}
