package model

import "time"

type PromoCode struct {
	Code      string
	Points    int64
	MaxUses   int
	Uses      int
	Active    bool
	CreatedAt time.Time
}

type AdminConfig struct {
	ReferralsEnabled bool
	PromoEnabled     bool
}
