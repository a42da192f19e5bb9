package repository

import (
	"context"
	"time"

	"tonpoints/internal/model"

	"github.com/Masterminds/squirrel"
)

type Item struct {
	ID           int64   `db:"id"`
	SKU          string  `db:"sku"`
	Name         string  `db:"name"`
	PriceTON     float64 `db:"price_ton"`
	PointsPerDay int     `db:"points_per_day"`
	AdBoostPct   int     `db:"ad_boost_pct"`
	MaxAdsPerDay int     `db:"max_ads_per_day"`
	Active       bool    `db:"active"`
}

type inventoryRow struct {
	ItemID       int64      `db:"item_id"`
	SKU          string     `db:"sku"`
	Name         string     `db:"name"`
	Quantity     int        `db:"quantity"`
	PointsPerDay int        `db:"points_per_day"`
	ExpiresAt    *time.Time `db:"expires_at"`
}

func (r *Repository) ListActiveItems(ctx context.Context) ([]*model.Item, error) {
	var items []Item

	query, args, err := squirrel.
		Select("*").
		From("items").
		Where(squirrel.Eq{"active": true}).
		OrderBy("id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Item, len(items))
	for i, it := range items {
		out[i] = &model.Item{
			ID:           it.ID,
			SKU:          it.SKU,
			Name:         it.Name,
			PriceTON:     it.PriceTON,
			PointsPerDay: it.PointsPerDay,
			AdBoostPct:   it.AdBoostPct,
			MaxAdsPerDay: it.MaxAdsPerDay,
			Active:       it.Active,
		}
	}

	return out, nil
}

func (r *Repository) GetInventory(ctx context.Context, telegramID int64) ([]*model.InventoryEntry, error) {
	query, args, err := squirrel.
		Select("inv.item_id", "it.sku", "it.name", "inv.quantity", "it.points_per_day", "inv.expires_at").
		From("inventory inv").
		Join("items it ON it.id = inv.item_id").
		Where(squirrel.Eq{"inv.telegram_id": telegramID}).
		OrderBy("it.id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []inventoryRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.InventoryEntry, len(rows))
	for i, row := range rows {
		out[i] = &model.InventoryEntry{
			ItemID:       row.ItemID,
			SKU:          row.SKU,
			Name:         row.Name,
			Quantity:     row.Quantity,
			PointsPerDay: row.PointsPerDay,
			ExpiresAt:    row.ExpiresAt,
		}
	}

	return out, nil
}
