package testutil

import (
	"context"
	"testing"
	"time"

	"osintbot/database"

	"github.com/stretchr/testify/require"
)

// InsertRedeemCode creates a redeem code row and returns its ID
func InsertRedeemCode(t *testing.T, db *database.DB, code string, credits, maxUses int64, expiresAt *time.Time) int64 {
	var id int64
	err := db.Pool.QueryRow(context.Background(), `
		INSERT INTO redeem_codes (code, credits, max_uses, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, code, credits, maxUses, expiresAt).Scan(&id)
	require.NoError(t, err)
	return id
}

// SetCredits overwrites a user's balance directly, bypassing the ledger
func SetCredits(t *testing.T, db *database.DB, userID, credits int64) {
	_, err := db.Pool.Exec(context.Background(),
		`UPDATE users SET credits = $2 WHERE user_id = $1`, userID, credits)
	require.NoError(t, err)
}
