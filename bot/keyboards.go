package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func mainMenu() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Check Data Breach (Phone)", "search_number"),
			tgbotapi.NewInlineKeyboardButtonData("🔎 Search Username", "search_username"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Refer & Earn", "refer"),
			tgbotapi.NewInlineKeyboardButtonData("💳 Buy Credits", "buy_credits"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Price List", "price_list"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Balance", "balance"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎟️ Redeem Code", "redeem_code"),
		),
	)
	return &markup
}

func joinChannelKeyboard(requiredChannel string) *tgbotapi.InlineKeyboardMarkup {
	channelURL := "https://t.me/" + strings.TrimPrefix(requiredChannel, "@")
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 Join Channel", channelURL),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ I've Joined, Continue", "joined_channel"),
		),
	)
	return &markup
}

// paginationKeyboard builds the prev/indicator/next row for a cached report.
// Neighbour indices are sent raw; the page handler wraps them into range.
func paginationKeyboard(queryID string, pageIndex, pageCount int) *tgbotapi.InlineKeyboardMarkup {
	if pageCount <= 1 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("<<", fmt.Sprintf("/page %s %d", queryID, pageIndex-1)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", pageIndex+1, pageCount), "noop"),
			tgbotapi.NewInlineKeyboardButtonData(">>", fmt.Sprintf("/page %s %d", queryID, pageIndex+1)),
		),
	)
	return &markup
}
