package model

import "time"

// AdSession is a single-use reward capability. The nonce is handed to the
// client on start and must come back on opened/claim. A session moves
// created -> opened -> claimed and never transitions backwards.
type AdSession struct {
	Nonce      string
	TelegramID int64
	CreatedAt  time.Time
	Opened     bool
	OpenedAt   *time.Time
	Claimed    bool
	ClaimedAt  *time.Time
}

// ClaimResult reports the amounts applied by a successful ad claim.
type ClaimResult struct {
	DayKey       string
	PointsToUser int64
	PointsToPool int64
}
