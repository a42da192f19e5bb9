package model

import "time"

type User struct {
	TelegramID   int64
	Username     string
	Points       int64
	ReferralCode string
	ReferrerID   *int64
	CreatedAt    time.Time
}

// TodayStats is the per-day slice of a user profile: the user's ad tickets
// for the current UTC day plus the state of that day's pool.
type TodayStats struct {
	DayKey      string
	Tickets     int
	PoolPoints  int64
	Distributed bool
}

type AdminUserRow struct {
	TelegramID         int64
	Username           string
	Points             int64
	ReferralCode       string
	ReferrerID         *int64
	TodayParticipation int
}
