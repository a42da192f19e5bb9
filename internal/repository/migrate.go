package repository

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		telegram_id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		points BIGINT NOT NULL DEFAULT 0 CHECK (points >= 0),
		referral_code TEXT UNIQUE,
		referrer_id BIGINT DEFAULT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS ad_sessions (
		nonce TEXT PRIMARY KEY,
		telegram_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		opened BOOLEAN NOT NULL DEFAULT FALSE,
		opened_at TIMESTAMPTZ DEFAULT NULL,
		claimed BOOLEAN NOT NULL DEFAULT FALSE,
		claimed_at TIMESTAMPTZ DEFAULT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS ad_participation (
		day_key TEXT NOT NULL,
		telegram_id BIGINT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (day_key, telegram_id)
	)`,

	`CREATE TABLE IF NOT EXISTS pool_days (
		day_key TEXT PRIMARY KEY,
		pool_points BIGINT NOT NULL DEFAULT 0,
		distributed BOOLEAN NOT NULL DEFAULT FALSE,
		distributed_at TIMESTAMPTZ DEFAULT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS items (
		id BIGSERIAL PRIMARY KEY,
		sku TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		price_ton DOUBLE PRECISION NOT NULL DEFAULT 0,
		points_per_day INTEGER NOT NULL DEFAULT 0,
		ad_boost_pct INTEGER NOT NULL DEFAULT 0,
		max_ads_per_day INTEGER NOT NULL DEFAULT 10,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS inventory (
		id BIGSERIAL PRIMARY KEY,
		telegram_id BIGINT NOT NULL,
		item_id BIGINT NOT NULL REFERENCES items (id),
		quantity INTEGER NOT NULL DEFAULT 1,
		expires_at TIMESTAMPTZ DEFAULT NULL,
		UNIQUE (telegram_id, item_id)
	)`,

	`CREATE TABLE IF NOT EXISTS miner_income_days (
		day_key TEXT PRIMARY KEY,
		credited_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS admin_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		referrals_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		promo_enabled BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`INSERT INTO admin_config (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,

	`CREATE TABLE IF NOT EXISTS promo_codes (
		code TEXT PRIMARY KEY,
		points BIGINT NOT NULL,
		max_uses INTEGER NOT NULL,
		uses INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS promo_redemptions (
		id BIGSERIAL PRIMARY KEY,
		code TEXT NOT NULL,
		telegram_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (code, telegram_id)
	)`,
}

// seedItems mirrors the launch catalogue: a free trial miner plus the point
// packs. Inserted once, keyed by sku.
var seedItems = []struct {
	sku          string
	name         string
	priceTON     float64
	pointsPerDay int
	adBoostPct   int
	maxAdsPerDay int
}{
	{"TRIAL_MINER", "Trial Miner (3 day trial)", 0, 5, 0, 10},
	{"PACK_A", "Pack Starter", 0, 10, 0, 10},
	{"PACK_B", "Pack Growth", 0, 25, 0, 12},
	{"PACK_C", "Pack Builder", 0, 60, 0, 14},
	{"PACK_D", "Pack Pro", 0, 120, 0, 16},
	{"PACK_E", "Pack Elite", 0, 250, 0, 20},
}

func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	for _, it := range seedItems {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO items (sku, name, price_ton, points_per_day, ad_boost_pct, max_ads_per_day)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (sku) DO NOTHING`,
			it.sku, it.name, it.priceTON, it.pointsPerDay, it.adBoostPct, it.maxAdsPerDay)
		if err != nil {
			return fmt.Errorf("failed to seed item %s: %w", it.sku, err)
		}
	}

	return nil
}
