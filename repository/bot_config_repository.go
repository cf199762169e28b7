package repository

import (
	"context"
	"fmt"

	"osintbot/database"
	"osintbot/models"

	"github.com/jackc/pgx/v5"
)

// BotConfigRepository reads the single-row configuration table shared with
// the admin dashboard.
type BotConfigRepository struct {
	q queryable
}

// NewBotConfigRepository creates a new bot config repository
func NewBotConfigRepository(db *database.DB) *BotConfigRepository {
	return &BotConfigRepository{q: db.Pool}
}

// Get loads the bot configuration row
func (r *BotConfigRepository) Get(ctx context.Context) (*models.BotConfig, error) {
	query := `
		SELECT id, bot_token, bot_username, required_channel, api_base_url, api_global_token, admin_contact
		FROM bot_config
		WHERE id = 1
	`

	var cfg models.BotConfig
	err := r.q.QueryRow(ctx, query).Scan(
		&cfg.ID,
		&cfg.BotToken,
		&cfg.BotUsername,
		&cfg.RequiredChannel,
		&cfg.APIBaseURL,
		&cfg.APIGlobalToken,
		&cfg.AdminContact,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("bot_config row is missing")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bot config: %w", err)
	}

	return &cfg, nil
}
