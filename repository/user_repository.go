package repository

import (
	"context"
	"fmt"

	"osintbot/database"
	"osintbot/models"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByUserID retrieves a user by their Telegram ID
func (r *UserRepository) GetByUserID(ctx context.Context, userID int64) (*models.User, error) {
	query := `
		SELECT user_id, username, first_name, credits, referred_by, first_time, joined_channel, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&user.UserID,
		&user.Username,
		&user.FirstName,
		&user.Credits,
		&user.ReferredBy,
		&user.FirstTime,
		&user.JoinedChannel,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	return &user, nil
}

// Upsert creates the user on first contact or refreshes the display name
// fields on later contacts. Balance, flags and referrer are never touched.
func (r *UserRepository) Upsert(ctx context.Context, userID int64, username, firstName *string) (*models.User, error) {
	query := `
		INSERT INTO users (user_id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username, first_name = EXCLUDED.first_name, updated_at = NOW()
		RETURNING user_id, username, first_name, credits, referred_by, first_time, joined_channel, created_at, updated_at
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, userID, username, firstName).Scan(
		&user.UserID,
		&user.Username,
		&user.FirstName,
		&user.Credits,
		&user.ReferredBy,
		&user.FirstTime,
		&user.JoinedChannel,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user %d: %w", userID, err)
	}

	return &user, nil
}

// SetReferrer records the referring user, but only if no referrer has ever
// been set. Returns true when this call established the referral.
func (r *UserRepository) SetReferrer(ctx context.Context, userID, referrerID int64) (bool, error) {
	query := `
		UPDATE users
		SET referred_by = $2, updated_at = NOW()
		WHERE user_id = $1 AND referred_by IS NULL
	`

	result, err := r.q.Exec(ctx, query, userID, referrerID)
	if err != nil {
		return false, fmt.Errorf("failed to set referrer for user %d: %w", userID, err)
	}

	return result.RowsAffected() > 0, nil
}

// AddCredits adds to a user's balance atomically
func (r *UserRepository) AddCredits(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET credits = credits + $1, updated_at = NOW()
		WHERE user_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to add credits for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", userID)
	}

	return nil
}

// DeductSearchCredit subtracts exactly one credit, refusing when the balance
// is not positive at the moment of the update. The sufficiency check and the
// write are one statement so concurrent handlers serialize on the row.
// Returns true when a credit was deducted.
func (r *UserRepository) DeductSearchCredit(ctx context.Context, userID int64) (bool, error) {
	query := `
		UPDATE users
		SET credits = credits - 1, updated_at = NOW()
		WHERE user_id = $1 AND credits > 0
	`

	result, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to deduct credit for user %d: %w", userID, err)
	}

	return result.RowsAffected() > 0, nil
}

// ClearFirstTime flips the first-time-bonus flag off. Returns true only for
// the caller that actually flipped it, which makes the flag a one-shot gate
// under concurrent grant attempts.
func (r *UserRepository) ClearFirstTime(ctx context.Context, userID int64) (bool, error) {
	query := `
		UPDATE users
		SET first_time = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND first_time = TRUE
	`

	result, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to clear first-time flag for user %d: %w", userID, err)
	}

	return result.RowsAffected() > 0, nil
}

// MarkJoined records that the user passed the channel membership check
func (r *UserRepository) MarkJoined(ctx context.Context, userID int64) error {
	query := `
		UPDATE users
		SET joined_channel = TRUE, updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark user %d joined: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", userID)
	}

	return nil
}
