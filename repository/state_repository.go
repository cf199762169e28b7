package repository

import (
	"context"
	"fmt"

	"osintbot/database"
	"osintbot/models"

	"github.com/jackc/pgx/v5"
)

// StateRepository implements the service.StateRepository interface
type StateRepository struct {
	q queryable
}

// NewStateRepository creates a new conversation state repository
func NewStateRepository(db *database.DB) *StateRepository {
	return &StateRepository{q: db.Pool}
}

// newStateRepositoryWithTx creates a new conversation state repository with a transaction
func newStateRepositoryWithTx(tx queryable) *StateRepository {
	return &StateRepository{q: tx}
}

// Set records the outstanding prompt for a user as an atomic upsert, so a
// newer prompt replaces an older one without a read-modify-write window.
func (r *StateRepository) Set(ctx context.Context, userID int64, state models.UserState) error {
	query := `
		INSERT INTO user_states (user_id, state)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET state = EXCLUDED.state, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, userID, string(state)); err != nil {
		return fmt.Errorf("failed to set state for user %d: %w", userID, err)
	}

	return nil
}

// Consume reads and deletes the outstanding prompt in one statement.
// Returns ("", false) when no prompt was pending.
func (r *StateRepository) Consume(ctx context.Context, userID int64) (models.UserState, bool, error) {
	query := `
		DELETE FROM user_states
		WHERE user_id = $1
		RETURNING state
	`

	var state string
	err := r.q.QueryRow(ctx, query, userID).Scan(&state)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to consume state for user %d: %w", userID, err)
	}

	return models.UserState(state), true, nil
}
