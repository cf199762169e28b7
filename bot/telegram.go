package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Messenger is the outbound Telegram surface used by the dispatcher.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup, parseMode string) error
	Edit(ctx context.Context, chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup, parseMode string) error
	AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error
}

// MembershipChecker reports whether a user belongs to the required channel.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) bool
}

type TelegramClient struct {
	api             *tgbotapi.BotAPI
	requiredChannel string
}

func NewTelegramClient(token, requiredChannel string) (*TelegramClient, error) {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram client: %w", err)
	}
	return &TelegramClient{api: api, requiredChannel: requiredChannel}, nil
}

// Username returns the bot account name Telegram resolved during login.
func (c *TelegramClient) Username() string {
	return c.api.Self.UserName
}

func (c *TelegramClient) Send(ctx context.Context, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup, parseMode string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	msg.ParseMode = parseMode
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("error sending message to chat %d: %w", chatID, err)
	}
	return nil
}

func (c *TelegramClient) Edit(ctx context.Context, chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup, parseMode string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = markup
	edit.ParseMode = parseMode
	if _, err := c.api.Send(edit); err != nil {
		// Re-rendering the same page is a no-op, not a failure.
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("error editing message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

func (c *TelegramClient) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error {
	callback := tgbotapi.CallbackConfig{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       showAlert,
	}
	if _, err := c.api.Request(callback); err != nil {
		return fmt.Errorf("error answering callback query: %w", err)
	}
	return nil
}

// IsMember queries getChatMember and accepts only statuses that grant
// access to the channel. Lookup failures count as not a member.
func (c *TelegramClient) IsMember(ctx context.Context, userID int64) bool {
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: c.requiredChannel,
			UserID:             userID,
		},
	})
	if err != nil {
		log.WithFields(log.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("Membership check failed, treating user as not joined")
		return false
	}
	switch member.Status {
	case "creator", "administrator", "member", "restricted":
		return true
	default:
		return false
	}
}
