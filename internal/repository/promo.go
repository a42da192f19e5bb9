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

type PromoCode struct {
	Code      string    `db:"code"`
	Points    int64     `db:"points"`
	MaxUses   int       `db:"max_uses"`
	Uses      int       `db:"uses"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *Repository) GetPromoCode(ctx context.Context, code string) (*model.PromoCode, error) {
	var promo PromoCode
	query, args, err := squirrel.
		Select("*").
		From("promo_codes").
		Where(squirrel.Eq{"code": code}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &promo, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.PromoCode{
		Code:      promo.Code,
		Points:    promo.Points,
		MaxUses:   promo.MaxUses,
		Uses:      promo.Uses,
		Active:    promo.Active,
		CreatedAt: promo.CreatedAt,
	}, nil
}

// RedeemPromo grants a promo code's points at most once per (code, user).
// The redemption insert rides on the UNIQUE(code, telegram_id) constraint
// and the usage-cap bump is conditional on uses < max_uses, so two racing
// redemptions of the last slot cannot both commit.
func (r *Repository) RedeemPromo(ctx context.Context, code string, telegramID int64) (int64, error) {
	var granted int64

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		var promo PromoCode
		err := tx.GetContext(ctx, &promo, `
			SELECT * FROM promo_codes WHERE code = $1 FOR UPDATE`,
			code)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if !promo.Active {
			return ErrPromoInactive
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO promo_redemptions (code, telegram_id) VALUES ($1, $2)`,
			code, telegramID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrPromoAlreadyRedeemed
			}
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE promo_codes SET uses = uses + 1
			WHERE code = $1 AND uses < max_uses`,
			code)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrPromoExhausted
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users SET points = points + $1 WHERE telegram_id = $2`,
			promo.Points, telegramID)
		if err != nil {
			return err
		}

		granted = promo.Points
		return nil
	})
	if err != nil {
		return 0, err
	}

	return granted, nil
}

func (r *Repository) CreatePromoCode(ctx context.Context, promo *model.PromoCode) error {
	query, args, err := squirrel.
		Insert("promo_codes").
		SetMap(map[string]interface{}{
			"code":     promo.Code,
			"points":   promo.Points,
			"max_uses": promo.MaxUses,
			"uses":     0,
			"active":   true,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build promo insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("promo code %s already exists", promo.Code)
		}
		return err
	}

	return nil
}

func (r *Repository) SetPromoActive(ctx context.Context, code string, active bool) error {
	query, args, err := squirrel.
		Update("promo_codes").
		Set("active", active).
		Where(squirrel.Eq{"code": code}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
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

func (r *Repository) ListPromoCodes(ctx context.Context, limit int) ([]*model.PromoCode, error) {
	var promos []PromoCode

	query, args, err := squirrel.
		Select("*").
		From("promo_codes").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &promos, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.PromoCode, len(promos))
	for i, promo := range promos {
		out[i] = &model.PromoCode{
			Code:      promo.Code,
			Points:    promo.Points,
			MaxUses:   promo.MaxUses,
			Uses:      promo.Uses,
			Active:    promo.Active,
			CreatedAt: promo.CreatedAt,
		}
	}

	return out, nil
}

func (r *Repository) GetAdminConfig(ctx context.Context) (*model.AdminConfig, error) {
	var cfg struct {
		ReferralsEnabled bool `db:"referrals_enabled"`
		PromoEnabled     bool `db:"promo_enabled"`
	}

	err := r.db.GetContext(ctx, &cfg, `
		SELECT referrals_enabled, promo_enabled FROM admin_config WHERE id = 1`)
	if err != nil {
		return nil, err
	}

	return &model.AdminConfig{
		ReferralsEnabled: cfg.ReferralsEnabled,
		PromoEnabled:     cfg.PromoEnabled,
	}, nil
}

func (r *Repository) UpdateAdminConfig(ctx context.Context, cfg *model.AdminConfig) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admin_config SET referrals_enabled = $1, promo_enabled = $2 WHERE id = 1`,
		cfg.ReferralsEnabled, cfg.PromoEnabled)
	return err
}
