package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"osintbot/models"
	"osintbot/search"
	"osintbot/service"
)

// Config holds bot identity settings loaded from the bot_config table.
type Config struct {
	Username        string
	RequiredChannel string
	AdminContact    string
}

// gatedCallbacks are the main menu actions that require channel membership.
var gatedCallbacks = map[string]bool{
	"search_number":   true,
	"search_username": true,
	"refer":           true,
	"buy_credits":     true,
	"price_list":      true,
	"balance":         true,
	"redeem_code":     true,
}

// Dispatcher routes webhook updates to the ledger, redeem, report and
// state services. It holds no per-user state itself; concurrent updates
// for the same user are serialized by the database writes.
type Dispatcher struct {
	config     Config
	messenger  Messenger
	membership MembershipChecker
	provider   search.Provider
	ledger     service.LedgerService
	redeem     service.RedeemService
	reports    service.ReportService
	states     service.StateService
}

func NewDispatcher(
	config Config,
	messenger Messenger,
	membership MembershipChecker,
	provider search.Provider,
	ledger service.LedgerService,
	redeem service.RedeemService,
	reports service.ReportService,
	states service.StateService,
) *Dispatcher {
	return &Dispatcher{
		config:     config,
		messenger:  messenger,
		membership: membership,
		provider:   provider,
		ledger:     ledger,
		redeem:     redeem,
		reports:    reports,
		states:     states,
	}
}

// HandleUpdate processes a single webhook update. Errors are handled by
// replying to the user; the webhook response is always 200 so Telegram
// does not redeliver.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		d.handleMessage(ctx, update.Message)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "/start" || strings.HasPrefix(text, "/start ") {
		d.handleStart(ctx, msg)
		return
	}
	d.handleFreeText(ctx, msg)
}

// handleStart registers the user, records the referrer from a ref<id>
// payload, and either prompts for channel membership or grants the
// first-contact credits and shows the menu.
func (d *Dispatcher) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	user, err := d.ledger.GetOrCreateUser(ctx, userID, optionalString(msg.From.UserName), optionalString(msg.From.FirstName))
	if err != nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to get or create user")
		d.send(ctx, chatID, msgGenericError, nil, "")
		return
	}

	if referrerID, ok := parseReferralPayload(msg.Text); ok && referrerID != userID {
		if err := d.ledger.SetReferrer(ctx, userID, referrerID); err != nil {
			log.WithFields(log.Fields{"user_id": userID, "referrer_id": referrerID, "error": err}).Error("Failed to set referrer")
		}
	}

	if !d.membership.IsMember(ctx, userID) {
		d.send(ctx, chatID, msgWelcomeJoin, joinChannelKeyboard(d.config.RequiredChannel), tgbotapi.ModeMarkdown)
		return
	}

	if !user.JoinedChannel {
		if err := d.ledger.MarkJoined(ctx, userID); err != nil {
			log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to mark user joined")
		}
	}

	d.grantWelcomeCredits(ctx, userID)
	d.send(ctx, chatID, msgWelcomeBack, mainMenu(), tgbotapi.ModeMarkdown)
}

// grantWelcomeCredits pays the one-time signup grant plus the referral
// bonus. The ledger's first-contact gate makes repeated calls no-ops.
func (d *Dispatcher) grantWelcomeCredits(ctx context.Context, userID int64) {
	user, err := d.ledger.GetUser(ctx, userID)
	if err != nil || user == nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to load user for welcome grant")
		return
	}
	result, err := d.ledger.GrantCredits(ctx, userID, service.WelcomeCredits, user.ReferredBy)
	if err != nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to grant welcome credits")
		return
	}
	if result.BonusReferrerID != nil {
		// Best effort; the bonus is already committed.
		if err := d.send(ctx, *result.BonusReferrerID, msgReferrerBonus(userID), nil, ""); err != nil {
			log.WithFields(log.Fields{"referrer_id": *result.BonusReferrerID, "error": err}).Warn("Failed to notify referrer")
		}
	}
}

// handleFreeText consumes the user's pending conversation state, if any,
// and routes the text to the matching input handler.
func (d *Dispatcher) handleFreeText(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	state, found, err := d.states.Consume(ctx, userID)
	if err != nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to consume user state")
		d.send(ctx, chatID, msgGenericError, mainMenu(), "")
		return
	}
	if !found {
		if text != "" && !strings.HasPrefix(text, "/") {
			d.send(ctx, chatID, msgUseMenu, mainMenu(), "")
		}
		return
	}

	switch state {
	case models.StateWaitingForNumber:
		d.performSearch(ctx, chatID, userID, text, "number")
	case models.StateWaitingForUsername:
		d.performSearch(ctx, chatID, userID, text, "username")
	case models.StateAwaitingRedeemCode:
		d.handleRedeemSubmission(ctx, chatID, userID, text)
	}
}

func (d *Dispatcher) performSearch(ctx context.Context, chatID, userID int64, query, searchType string) {
	if !d.membership.IsMember(ctx, userID) {
		d.send(ctx, chatID, msgJoinFirstStart, nil, "")
		return
	}

	user, err := d.ledger.GetUser(ctx, userID)
	if err != nil || user == nil || user.Credits <= 0 {
		d.send(ctx, chatID, msgNoCredits, mainMenu(), "")
		return
	}

	if query == "" {
		d.send(ctx, chatID, msgInvalidInput(searchType), mainMenu(), "")
		return
	}
	if searchType == "number" && !validPhoneNumber(query) {
		d.send(ctx, chatID, msgInvalidNumber, mainMenu(), "")
		return
	}

	d.send(ctx, chatID, msgSearching, nil, "")

	sources, err := d.provider.Lookup(ctx, query)
	if err != nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Search provider lookup failed")
		d.send(ctx, chatID, msgNoData, mainMenu(), "")
		return
	}
	pages := service.RenderPages(sources)
	if len(pages) == 0 {
		d.send(ctx, chatID, msgNoData, mainMenu(), "")
		return
	}

	queryID, err := d.reports.Store(ctx, userID, pages)
	if err != nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to store search report")
		d.send(ctx, chatID, msgGenericError, mainMenu(), "")
		return
	}

	if err := d.ledger.DeductSearchCredit(ctx, userID); err != nil {
		if errors.Is(err, service.ErrInsufficientCredits) {
			d.send(ctx, chatID, msgNoCredits, mainMenu(), "")
		} else {
			log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to deduct search credit")
			d.send(ctx, chatID, msgDeductFailed, mainMenu(), "")
		}
		return
	}

	markup := paginationKeyboard(queryID, 0, len(pages))
	if err := d.send(ctx, chatID, pages[0], markup, tgbotapi.ModeHTML); err != nil {
		log.WithFields(log.Fields{"user_id": userID, "query_id": queryID, "error": err}).Error("Failed to send search results")
	}

	remaining := int64(0)
	if updated, err := d.ledger.GetUser(ctx, userID); err == nil && updated != nil {
		remaining = updated.Credits
	}
	d.send(ctx, chatID, msgSearchDone(remaining), mainMenu(), tgbotapi.ModeMarkdown)
}

func (d *Dispatcher) handleRedeemSubmission(ctx context.Context, chatID, userID int64, code string) {
	if code == "" {
		d.send(ctx, chatID, msgEmptyRedeem, mainMenu(), "")
		return
	}

	granted, err := d.redeem.Redeem(ctx, userID, code)
	if err != nil {
		if redemptionErr, ok := service.AsRedemptionError(err); ok {
			d.send(ctx, chatID, redemptionMessage(redemptionErr.Reason), mainMenu(), "")
			return
		}
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to process redeem code")
		d.send(ctx, chatID, msgRedeemFailed, mainMenu(), "")
		return
	}
	d.send(ctx, chatID, msgRedeemed(granted), mainMenu(), "")
}

func redemptionMessage(reason service.RedemptionReason) string {
	switch reason {
	case service.RedemptionNotFound:
		return msgRedeemNotFound
	case service.RedemptionExpired:
		return msgRedeemExpired
	case service.RedemptionExhausted:
		return msgRedeemExhausted
	case service.RedemptionAlreadyUsed:
		return msgRedeemAlreadyUsed
	}
	return msgRedeemFailed
}

func (d *Dispatcher) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}
	if cb.Message == nil {
		d.answer(ctx, cb.ID, "", false)
		return
	}
	userID := cb.From.ID

	user, err := d.ledger.GetUser(ctx, userID)
	if err != nil || user == nil {
		d.answer(ctx, cb.ID, msgCallbackError, true)
		return
	}

	data := cb.Data

	if data == "joined_channel" {
		d.handleJoinedChannel(ctx, cb)
		return
	}

	if gatedCallbacks[data] && !d.membership.IsMember(ctx, userID) {
		d.answer(ctx, cb.ID, msgJoinFirst, true)
		return
	}

	if user.Credits <= 0 && (data == "search_number" || data == "search_username") {
		d.answer(ctx, cb.ID, msgNotEnough, true)
		return
	}

	chatID := cb.Message.Chat.ID

	switch {
	case data == "search_number":
		d.send(ctx, chatID, msgPromptNumber, nil, "")
		d.answer(ctx, cb.ID, "", false)
		d.setState(ctx, userID, models.StateWaitingForNumber)

	case data == "search_username":
		d.send(ctx, chatID, msgPromptUsername, nil, "")
		d.answer(ctx, cb.ID, "", false)
		d.setState(ctx, userID, models.StateWaitingForUsername)

	case data == "refer":
		refLink := fmt.Sprintf("https://t.me/%s?start=ref%d", d.config.Username, userID)
		d.send(ctx, chatID, msgReferralInfo(refLink), mainMenu(), tgbotapi.ModeMarkdown)
		d.answer(ctx, cb.ID, "", false)

	case data == "buy_credits":
		d.send(ctx, chatID, msgBuyCredits(d.config.AdminContact), mainMenu(), tgbotapi.ModeMarkdown)
		d.answer(ctx, cb.ID, "", false)

	case data == "price_list":
		d.send(ctx, chatID, msgPriceList(d.config.AdminContact), mainMenu(), tgbotapi.ModeMarkdown)
		d.answer(ctx, cb.ID, "", false)

	case data == "balance":
		d.answer(ctx, cb.ID, msgBalance(user.Credits), true)

	case data == "redeem_code":
		d.send(ctx, chatID, msgPromptRedeem, nil, "")
		d.answer(ctx, cb.ID, "", false)
		d.setState(ctx, userID, models.StateAwaitingRedeemCode)

	case strings.HasPrefix(data, "/page "):
		d.handlePageFlip(ctx, cb)

	default:
		// noop and unknown payloads just dismiss the spinner.
		d.answer(ctx, cb.ID, "", false)
	}
}

func (d *Dispatcher) handleJoinedChannel(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID

	if !d.membership.IsMember(ctx, userID) {
		d.answer(ctx, cb.ID, msgJoinNotVerified, true)
		return
	}

	if err := d.ledger.MarkJoined(ctx, userID); err != nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to mark user joined")
	}
	d.grantWelcomeCredits(ctx, userID)

	d.answer(ctx, cb.ID, msgJoinThanks, false)

	chatID := cb.Message.Chat.ID
	if err := d.messenger.Edit(ctx, chatID, cb.Message.MessageID, msgWelcome, mainMenu(), tgbotapi.ModeMarkdown); err != nil {
		d.send(ctx, chatID, msgWelcome, mainMenu(), tgbotapi.ModeMarkdown)
	}
}

// handlePageFlip re-renders a cached report page in place. Out-of-range
// indices wrap around, so << on the first page shows the last one.
func (d *Dispatcher) handlePageFlip(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	parts := strings.Fields(cb.Data)
	if len(parts) < 3 {
		d.answer(ctx, cb.ID, "", false)
		return
	}
	queryID := parts[1]
	requested, err := strconv.Atoi(parts[2])
	if err != nil {
		d.answer(ctx, cb.ID, "", false)
		return
	}

	report, err := d.reports.Fetch(ctx, queryID)
	if err != nil {
		if !errors.Is(err, service.ErrReportNotFound) {
			log.WithFields(log.Fields{"query_id": queryID, "error": err}).Error("Failed to fetch report")
		}
		d.messenger.Edit(ctx, chatID, messageID, msgResultsExpired, nil, "")
		d.answer(ctx, cb.ID, "", false)
		return
	}

	pageIndex := service.WrapPage(requested, len(report.Pages))
	markup := paginationKeyboard(queryID, pageIndex, len(report.Pages))
	if err := d.messenger.Edit(ctx, chatID, messageID, report.Pages[pageIndex], markup, tgbotapi.ModeHTML); err != nil {
		log.WithFields(log.Fields{"query_id": queryID, "page": pageIndex, "error": err}).Error("Failed to edit report page")
	}
	d.answer(ctx, cb.ID, "", false)
}

func (d *Dispatcher) setState(ctx context.Context, userID int64, state models.UserState) {
	if err := d.states.Set(ctx, userID, state); err != nil {
		log.WithFields(log.Fields{"user_id": userID, "state": state, "error": err}).Error("Failed to store user state")
	}
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup, parseMode string) error {
	err := d.messenger.Send(ctx, chatID, text, markup, parseMode)
	if err != nil {
		log.WithFields(log.Fields{"chat_id": chatID, "error": err}).Error("Failed to send message")
	}
	return err
}

func (d *Dispatcher) answer(ctx context.Context, callbackID, text string, showAlert bool) {
	if err := d.messenger.AnswerCallback(ctx, callbackID, text, showAlert); err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Failed to answer callback query")
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseReferralPayload extracts the referrer ID from "/start ref<id>".
func parseReferralPayload(text string) (int64, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 || !strings.HasPrefix(fields[1], "ref") {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(fields[1], "ref"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// validPhoneNumber accepts "+" followed by digits, spaces allowed.
func validPhoneNumber(query string) bool {
	if !strings.HasPrefix(query, "+") {
		return false
	}
	digits := strings.ReplaceAll(query[1:], " ", "")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
