package models

// BotConfig is the single-row configuration table shared with the admin
// dashboard: platform credentials, the required-membership channel and the
// search provider endpoint.
type BotConfig struct {
	ID              int64  `db:"id"`
	BotToken        string `db:"bot_token"`
	BotUsername     string `db:"bot_username"`
	RequiredChannel string `db:"required_channel"`
	APIBaseURL      string `db:"api_base_url"`
	APIGlobalToken  string `db:"api_global_token"`
	AdminContact    string `db:"admin_contact"`
}
