package model

import "time"

// DayKey buckets a point in time into the UTC calendar date used for
// participation counting and pool accrual.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

type PoolDay struct {
	DayKey        string
	PoolPoints    int64
	Distributed   bool
	DistributedAt *time.Time
}

// DayTickets is one participant's weight for a given day.
type DayTickets struct {
	TelegramID int64
	Tickets    int
}

type Payout struct {
	TelegramID int64
	Amount     int64
}

// PoolDistribution summarises one distribution run.
type PoolDistribution struct {
	DayKey             string
	PoolPoints         int64
	TotalTickets       int
	Payouts            []Payout
	AlreadyDistributed bool
}
