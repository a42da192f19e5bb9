package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"tonpoints/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type User struct {
	TelegramID   int64     `db:"telegram_id"`
	Username     string    `db:"username"`
	Points       int64     `db:"points"`
	ReferralCode string    `db:"referral_code"`
	ReferrerID   *int64    `db:"referrer_id"`
	CreatedAt    time.Time `db:"created_at"`
}

type adminUserRow struct {
	TelegramID         int64  `db:"telegram_id"`
	Username           string `db:"username"`
	Points             int64  `db:"points"`
	ReferralCode       string `db:"referral_code"`
	ReferrerID         *int64 `db:"referrer_id"`
	TodayParticipation int    `db:"today_participation"`
}

const trialMinerSKU = "TRIAL_MINER"
const trialMinerDuration = 72 * time.Hour

func genReferralCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// EnsureUser creates the user on first contact, with a unique referral code
// and a time-limited trial miner. Existing users are returned as-is.
func (r *Repository) EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, error) {
	user, err := r.GetUserByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// The referral code column is unique; on a collision we regenerate.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := genReferralCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate referral code: %w", err)
		}

		err = r.Transaction(ctx, func(tx *sqlx.Tx) error {
			query, args, err := squirrel.
				Insert("users").
				SetMap(map[string]interface{}{
					"telegram_id":   telegramID,
					"username":      username,
					"referral_code": code,
				}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build user insert query: %w", err)
			}

			if _, err = tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO inventory (telegram_id, item_id, quantity, expires_at)
				SELECT $1, id, 1, $2 FROM items WHERE sku = $3
				ON CONFLICT (telegram_id, item_id) DO NOTHING`,
				telegramID, time.Now().UTC().Add(trialMinerDuration), trialMinerSKU)
			if err != nil {
				return fmt.Errorf("failed to grant trial miner: %w", err)
			}

			return nil
		})
		if err != nil {
			if isUniqueViolation(err) {
				// Either the referral code collided or a concurrent request
				// created the same user; re-read to find out.
				if user, getErr := r.GetUserByTelegramID(ctx, telegramID); getErr == nil {
					return user, nil
				}
				continue
			}
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		return r.GetUserByTelegramID(ctx, telegramID)
	}

	return nil, errors.New("failed to allocate a unique referral code")
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.User{
		TelegramID:   user.TelegramID,
		Username:     user.Username,
		Points:       user.Points,
		ReferralCode: user.ReferralCode,
		ReferrerID:   user.ReferrerID,
		CreatedAt:    user.CreatedAt,
	}, nil
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"referral_code": code}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.User{
		TelegramID:   user.TelegramID,
		Username:     user.Username,
		Points:       user.Points,
		ReferralCode: user.ReferralCode,
		ReferrerID:   user.ReferrerID,
		CreatedAt:    user.CreatedAt,
	}, nil
}

// UpdateUserPoints applies an additive delta so concurrent credits from ad
// claims, promo redemptions and pool distribution never lose updates.
func (r *Repository) UpdateUserPoints(ctx context.Context, telegramID int64, points int64) error {
	updateQuery, updateArgs, err := squirrel.
		Update("users").
		Set("points", squirrel.Expr("points + ?", points)).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, updateQuery, updateArgs...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SetReferrer links a user to a referrer exactly once. The first write wins;
// later attempts return ErrReferrerAlreadySet.
func (r *Repository) SetReferrer(ctx context.Context, telegramID, referrerID int64) error {
	updateQuery, updateArgs, err := squirrel.
		Update("users").
		Set("referrer_id", referrerID).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		Where("referrer_id IS NULL").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, updateQuery, updateArgs...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := r.GetUserByTelegramID(ctx, telegramID); err != nil {
			return err
		}
		return ErrReferrerAlreadySet
	}

	return nil
}

func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	var users []User

	query, args, err := squirrel.
		Select("telegram_id", "username", "points", "referral_code", "referrer_id", "created_at").
		From("users").
		OrderBy("points DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, err
	}

	userList := make([]*model.User, len(users))
	for i, user := range users {
		userList[i] = &model.User{
			TelegramID:   user.TelegramID,
			Username:     user.Username,
			Points:       user.Points,
			ReferralCode: user.ReferralCode,
			ReferrerID:   user.ReferrerID,
			CreatedAt:    user.CreatedAt,
		}
	}

	return userList, nil
}

func (r *Repository) ListUsersWithParticipation(ctx context.Context, dayKey string, limit int) ([]*model.AdminUserRow, error) {
	query, args, err := squirrel.
		Select(
			"u.telegram_id",
			"u.username",
			"u.points",
			"u.referral_code",
			"u.referrer_id",
			"COALESCE(p.count, 0) AS today_participation",
		).
		From("users u").
		LeftJoin("ad_participation p ON p.telegram_id = u.telegram_id AND p.day_key = ?", dayKey).
		OrderBy("u.points DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []adminUserRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]*model.AdminUserRow, len(rows))
	for i, row := range rows {
		out[i] = &model.AdminUserRow{
			TelegramID:         row.TelegramID,
			Username:           row.Username,
			Points:             row.Points,
			ReferralCode:       row.ReferralCode,
			ReferrerID:         row.ReferrerID,
			TodayParticipation: row.TodayParticipation,
		}
	}

	return out, nil
}
