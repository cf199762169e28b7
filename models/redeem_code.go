package models

import (
	"time"
)

// RedeemCode is a one-time credit voucher created by the admin dashboard.
// CurrentUses never exceeds MaxUses; the counter is only advanced by the
// redeem engine's conditional increment.
type RedeemCode struct {
	ID          int64      `db:"id"`
	Code        string     `db:"code"`
	Credits     int64      `db:"credits"`
	MaxUses     int64      `db:"max_uses"`
	CurrentUses int64      `db:"current_uses"`
	ExpiresAt   *time.Time `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

// Redemption records that a user has consumed a code. The (user, code)
// pair is unique, which is the idempotency guard against double redemption.
type Redemption struct {
	ID     int64     `db:"id"`
	UserID int64     `db:"user_id"`
	CodeID int64     `db:"code_id"`
	UsedAt time.Time `db:"used_at"`
}
