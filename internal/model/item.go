package model

import "time"

// Item is a miner SKU from the points shop. PointsPerDay accrues daily for
// every unexpired unit held in inventory.
type Item struct {
	ID           int64
	SKU          string
	Name         string
	PriceTON     float64
	PointsPerDay int
	AdBoostPct   int
	MaxAdsPerDay int
	Active       bool
}

type InventoryEntry struct {
	ItemID       int64
	SKU          string
	Name         string
	Quantity     int
	PointsPerDay int
	ExpiresAt    *time.Time
}
