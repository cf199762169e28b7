package repository

import (
	"context"
	"fmt"

	"osintbot/database"
	"osintbot/models"

	"github.com/jackc/pgx/v5"
)

// RedeemCodeRepository implements the service.RedeemCodeRepository interface
type RedeemCodeRepository struct {
	q queryable
}

// NewRedeemCodeRepository creates a new redeem code repository
func NewRedeemCodeRepository(db *database.DB) *RedeemCodeRepository {
	return &RedeemCodeRepository{q: db.Pool}
}

// newRedeemCodeRepositoryWithTx creates a new redeem code repository with a transaction
func newRedeemCodeRepositoryWithTx(tx queryable) *RedeemCodeRepository {
	return &RedeemCodeRepository{q: tx}
}

// GetByCode retrieves a redeem code by its code string
func (r *RedeemCodeRepository) GetByCode(ctx context.Context, code string) (*models.RedeemCode, error) {
	query := `
		SELECT id, code, credits, max_uses, current_uses, expires_at, created_at
		FROM redeem_codes
		WHERE code = $1
	`

	var rc models.RedeemCode
	err := r.q.QueryRow(ctx, query, code).Scan(
		&rc.ID,
		&rc.Code,
		&rc.Credits,
		&rc.MaxUses,
		&rc.CurrentUses,
		&rc.ExpiresAt,
		&rc.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get redeem code: %w", err)
	}

	return &rc, nil
}

// RecordRedemption inserts the (user, code) redemption record. The unique
// constraint on the pair makes this the authoritative guard against double
// redemption: returns false when the user already redeemed this code.
func (r *RedeemCodeRepository) RecordRedemption(ctx context.Context, userID, codeID int64) (bool, error) {
	query := `
		INSERT INTO used_redeem_codes (user_id, code_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, code_id) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, userID, codeID)
	if err != nil {
		return false, fmt.Errorf("failed to record redemption of code %d by user %d: %w", codeID, userID, err)
	}

	return result.RowsAffected() > 0, nil
}

// IncrementUses advances the use counter only while it is below max_uses, as
// a single compare-and-increment. Returns false when the code is exhausted.
func (r *RedeemCodeRepository) IncrementUses(ctx context.Context, codeID int64) (bool, error) {
	query := `
		UPDATE redeem_codes
		SET current_uses = current_uses + 1
		WHERE id = $1 AND current_uses < max_uses
	`

	result, err := r.q.Exec(ctx, query, codeID)
	if err != nil {
		return false, fmt.Errorf("failed to increment uses for code %d: %w", codeID, err)
	}

	return result.RowsAffected() > 0, nil
}
