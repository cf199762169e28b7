package models

import (
	"time"
)

// Report is a cached search result: an ordered sequence of pre-rendered
// display pages keyed by an ephemeral query token.
type Report struct {
	QueryID   string    `db:"query_id"`
	UserID    int64     `db:"user_id"`
	Pages     []string  `db:"report_data"`
	CreatedAt time.Time `db:"created_at"`
}
