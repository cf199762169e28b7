package models

import (
	"time"
)

// User represents a Telegram user with a credit balance
type User struct {
	UserID        int64     `db:"user_id"`
	Username      *string   `db:"username"`
	FirstName     *string   `db:"first_name"`
	Credits       int64     `db:"credits"`
	ReferredBy    *int64    `db:"referred_by"`
	FirstTime     bool      `db:"first_time"`
	JoinedChannel bool      `db:"joined_channel"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
