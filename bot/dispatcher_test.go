package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osintbot/models"
	"osintbot/search"
	"osintbot/service"
)

// --- Fakes ---

type sentMessage struct {
	chatID    int64
	text      string
	markup    *tgbotapi.InlineKeyboardMarkup
	parseMode string
}

type editedMessage struct {
	chatID    int64
	messageID int
	text      string
	markup    *tgbotapi.InlineKeyboardMarkup
	parseMode string
}

type answeredCallback struct {
	callbackID string
	text       string
	showAlert  bool
}

type fakeMessenger struct {
	sends   []sentMessage
	edits   []editedMessage
	answers []answeredCallback
	editErr error
}

func (m *fakeMessenger) Send(ctx context.Context, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup, parseMode string) error {
	m.sends = append(m.sends, sentMessage{chatID, text, markup, parseMode})
	return nil
}

func (m *fakeMessenger) Edit(ctx context.Context, chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup, parseMode string) error {
	m.edits = append(m.edits, editedMessage{chatID, messageID, text, markup, parseMode})
	return m.editErr
}

func (m *fakeMessenger) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error {
	m.answers = append(m.answers, answeredCallback{callbackID, text, showAlert})
	return nil
}

type fakeMembership struct {
	member bool
}

func (f *fakeMembership) IsMember(ctx context.Context, userID int64) bool {
	return f.member
}

type fakeProvider struct {
	sources []search.Source
	err     error
	queries []string
}

func (f *fakeProvider) Lookup(ctx context.Context, query string) ([]search.Source, error) {
	f.queries = append(f.queries, query)
	return f.sources, f.err
}

type fakeLedger struct {
	user             *models.User
	grantResult      *service.GrantResult
	grantCalls       int
	grantAmount      int64
	grantReferrer    *int64
	deductErr        error
	deductCalls      int
	referrerCalls    [][2]int64
	markJoinedCalls  []int64
	getOrCreateCalls int
}

func (f *fakeLedger) GetOrCreateUser(ctx context.Context, userID int64, username, firstName *string) (*models.User, error) {
	f.getOrCreateCalls++
	return f.user, nil
}

func (f *fakeLedger) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return f.user, nil
}

func (f *fakeLedger) SetReferrer(ctx context.Context, userID, referrerID int64) error {
	f.referrerCalls = append(f.referrerCalls, [2]int64{userID, referrerID})
	return nil
}

func (f *fakeLedger) GrantCredits(ctx context.Context, userID int64, amount int64, referrerID *int64) (*service.GrantResult, error) {
	f.grantCalls++
	f.grantAmount = amount
	f.grantReferrer = referrerID
	if f.grantResult != nil {
		return f.grantResult, nil
	}
	return &service.GrantResult{}, nil
}

func (f *fakeLedger) DeductSearchCredit(ctx context.Context, userID int64) error {
	f.deductCalls++
	return f.deductErr
}

func (f *fakeLedger) MarkJoined(ctx context.Context, userID int64) error {
	f.markJoinedCalls = append(f.markJoinedCalls, userID)
	return nil
}

type fakeRedeem struct {
	granted int64
	err     error
	code    string
}

func (f *fakeRedeem) Redeem(ctx context.Context, userID int64, code string) (int64, error) {
	f.code = code
	return f.granted, f.err
}

type fakeReports struct {
	storedPages []string
	queryID     string
	report      *models.Report
	fetchErr    error
}

func (f *fakeReports) Store(ctx context.Context, userID int64, pages []string) (string, error) {
	f.storedPages = pages
	return f.queryID, nil
}

func (f *fakeReports) Fetch(ctx context.Context, queryID string) (*models.Report, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.report, nil
}

func (f *fakeReports) EvictExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

type fakeStates struct {
	state   models.UserState
	found   bool
	setTo   []models.UserState
	cleared bool
}

func (f *fakeStates) Set(ctx context.Context, userID int64, state models.UserState) error {
	f.setTo = append(f.setTo, state)
	return nil
}

func (f *fakeStates) Consume(ctx context.Context, userID int64) (models.UserState, bool, error) {
	f.cleared = true
	return f.state, f.found, nil
}

type dispatcherFixture struct {
	dispatcher *Dispatcher
	messenger  *fakeMessenger
	membership *fakeMembership
	provider   *fakeProvider
	ledger     *fakeLedger
	redeem     *fakeRedeem
	reports    *fakeReports
	states     *fakeStates
}

func newDispatcherFixture() *dispatcherFixture {
	f := &dispatcherFixture{
		messenger:  &fakeMessenger{},
		membership: &fakeMembership{member: true},
		provider:   &fakeProvider{},
		ledger:     &fakeLedger{user: &models.User{UserID: 42, Credits: 4, JoinedChannel: true}},
		redeem:     &fakeRedeem{},
		reports:    &fakeReports{queryID: "tok-1"},
		states:     &fakeStates{},
	}
	f.dispatcher = NewDispatcher(
		Config{Username: "osint_test_bot", RequiredChannel: "@testchannel", AdminContact: "@testadmin"},
		f.messenger,
		f.membership,
		f.provider,
		f.ledger,
		f.redeem,
		f.reports,
		f.states,
	)
	return f
}

func messageUpdate(userID, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID, UserName: "alice", FirstName: "Alice"},
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
		},
	}
}

func callbackUpdate(userID, chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			From: &tgbotapi.User{ID: userID},
			Data: data,
			Message: &tgbotapi.Message{
				MessageID: 99,
				Chat:      &tgbotapi.Chat{ID: chatID},
			},
		},
	}
}

// --- /start ---

func TestHandleStart_NotMemberPromptsJoin(t *testing.T) {
	f := newDispatcherFixture()
	f.membership.member = false

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "/start"))

	require.Len(t, f.messenger.sends, 1)
	assert.Equal(t, msgWelcomeJoin, f.messenger.sends[0].text)
	assert.NotNil(t, f.messenger.sends[0].markup)
	assert.Equal(t, 0, f.ledger.grantCalls)
	assert.Empty(t, f.ledger.markJoinedCalls)
}

func TestHandleStart_MemberGetsWelcomeGrant(t *testing.T) {
	f := newDispatcherFixture()
	referrer := int64(7)
	f.ledger.user = &models.User{UserID: 42, FirstTime: true, ReferredBy: &referrer}
	f.ledger.grantResult = &service.GrantResult{Granted: service.WelcomeCredits, BonusReferrerID: &referrer}

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "/start"))

	assert.Equal(t, 1, f.ledger.grantCalls)
	assert.Equal(t, int64(service.WelcomeCredits), f.ledger.grantAmount)
	require.NotNil(t, f.ledger.grantReferrer)
	assert.Equal(t, referrer, *f.ledger.grantReferrer)
	assert.Equal(t, []int64{42}, f.ledger.markJoinedCalls)

	// Referrer notification goes out before the menu.
	require.Len(t, f.messenger.sends, 2)
	assert.Equal(t, referrer, f.messenger.sends[0].chatID)
	assert.Contains(t, f.messenger.sends[0].text, "You earned 2 credits")
	assert.Equal(t, msgWelcomeBack, f.messenger.sends[1].text)
}

func TestHandleStart_RecordsReferralPayload(t *testing.T) {
	f := newDispatcherFixture()

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "/start ref123"))

	require.Len(t, f.ledger.referrerCalls, 1)
	assert.Equal(t, [2]int64{42, 123}, f.ledger.referrerCalls[0])
}

func TestHandleStart_IgnoresSelfReferral(t *testing.T) {
	f := newDispatcherFixture()

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "/start ref42"))

	assert.Empty(t, f.ledger.referrerCalls)
}

func TestParseReferralPayload(t *testing.T) {
	tests := []struct {
		text   string
		wantID int64
		wantOK bool
	}{
		{"/start ref123", 123, true},
		{"/start", 0, false},
		{"/start refabc", 0, false},
		{"/start ref-5", 0, false},
		{"/start ref0", 0, false},
		{"/start promo123", 0, false},
	}

	for _, tt := range tests {
		id, ok := parseReferralPayload(tt.text)
		assert.Equal(t, tt.wantOK, ok, tt.text)
		assert.Equal(t, tt.wantID, id, tt.text)
	}
}

// --- Free text ---

func TestFreeText_NoStateShowsMenuHint(t *testing.T) {
	f := newDispatcherFixture()

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "hello"))

	require.Len(t, f.messenger.sends, 1)
	assert.Equal(t, msgUseMenu, f.messenger.sends[0].text)
}

func TestFreeText_NoStateIgnoresCommands(t *testing.T) {
	f := newDispatcherFixture()

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "/help"))

	assert.Empty(t, f.messenger.sends)
}

func TestFreeText_RedeemSuccess(t *testing.T) {
	f := newDispatcherFixture()
	f.states.state = models.StateAwaitingRedeemCode
	f.states.found = true
	f.redeem.granted = 10

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, " WELCOME100 "))

	assert.Equal(t, "WELCOME100", f.redeem.code)
	require.Len(t, f.messenger.sends, 1)
	assert.Contains(t, f.messenger.sends[0].text, "10 credits have been added")
}

func TestFreeText_RedeemRefusalMessages(t *testing.T) {
	tests := []struct {
		reason service.RedemptionReason
		want   string
	}{
		{service.RedemptionNotFound, msgRedeemNotFound},
		{service.RedemptionExpired, msgRedeemExpired},
		{service.RedemptionExhausted, msgRedeemExhausted},
		{service.RedemptionAlreadyUsed, msgRedeemAlreadyUsed},
	}

	for _, tt := range tests {
		f := newDispatcherFixture()
		f.states.state = models.StateAwaitingRedeemCode
		f.states.found = true
		f.redeem.err = &service.RedemptionError{Reason: tt.reason}

		f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "SOMECODE"))

		require.Len(t, f.messenger.sends, 1, string(tt.reason))
		assert.Equal(t, tt.want, f.messenger.sends[0].text, string(tt.reason))
	}
}

// --- Search flow ---

func searchFixtureWithState(state models.UserState) *dispatcherFixture {
	f := newDispatcherFixture()
	f.states.state = state
	f.states.found = true
	f.provider.sources = []search.Source{
		{Name: "breach_db", Records: []search.Record{{"name": "John", "phone": "+1999"}}},
	}
	return f
}

func TestSearch_HappyPath(t *testing.T) {
	f := searchFixtureWithState(models.StateWaitingForNumber)

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "+91 99999 99999"))

	assert.Equal(t, []string{"+91 99999 99999"}, f.provider.queries)
	assert.Equal(t, 1, f.ledger.deductCalls)
	assert.NotEmpty(t, f.reports.storedPages)

	// searching notice, results page, completion summary
	require.Len(t, f.messenger.sends, 3)
	assert.Equal(t, msgSearching, f.messenger.sends[0].text)
	assert.Contains(t, f.messenger.sends[1].text, "breach_db")
	assert.Equal(t, tgbotapi.ModeHTML, f.messenger.sends[1].parseMode)
	// One page means no navigation row.
	assert.Nil(t, f.messenger.sends[1].markup)
	assert.Contains(t, f.messenger.sends[2].text, "credits remaining")
}

func TestSearch_InvalidNumberRejected(t *testing.T) {
	f := searchFixtureWithState(models.StateWaitingForNumber)

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "99999"))

	assert.Empty(t, f.provider.queries)
	assert.Equal(t, 0, f.ledger.deductCalls)
	require.Len(t, f.messenger.sends, 1)
	assert.Equal(t, msgInvalidNumber, f.messenger.sends[0].text)
}

func TestSearch_UsernameSkipsPhoneValidation(t *testing.T) {
	f := searchFixtureWithState(models.StateWaitingForUsername)

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "john_doe"))

	assert.Equal(t, []string{"john_doe"}, f.provider.queries)
	assert.Equal(t, 1, f.ledger.deductCalls)
}

func TestSearch_NoCreditsRefused(t *testing.T) {
	f := searchFixtureWithState(models.StateWaitingForUsername)
	f.ledger.user.Credits = 0

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "john_doe"))

	assert.Empty(t, f.provider.queries)
	require.Len(t, f.messenger.sends, 1)
	assert.Equal(t, msgNoCredits, f.messenger.sends[0].text)
}

func TestSearch_NotMemberRedirectedToStart(t *testing.T) {
	f := searchFixtureWithState(models.StateWaitingForUsername)
	f.membership.member = false

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "john_doe"))

	assert.Empty(t, f.provider.queries)
	require.Len(t, f.messenger.sends, 1)
	assert.Equal(t, msgJoinFirstStart, f.messenger.sends[0].text)
}

func TestSearch_ProviderFailureKeepsCredit(t *testing.T) {
	f := searchFixtureWithState(models.StateWaitingForUsername)
	f.provider.sources = nil
	f.provider.err = assert.AnError

	f.dispatcher.HandleUpdate(context.Background(), messageUpdate(42, 42, "john_doe"))

	assert.Equal(t, 0, f.ledger.deductCalls)
	require.Len(t, f.messenger.sends, 2)
	assert.Equal(t, msgNoData, f.messenger.sends[1].text)
}

func TestValidPhoneNumber(t *testing.T) {
	assert.True(t, validPhoneNumber("+919999999999"))
	assert.True(t, validPhoneNumber("+91 99999 99999"))
	assert.False(t, validPhoneNumber("919999999999"))
	assert.False(t, validPhoneNumber("+"))
	assert.False(t, validPhoneNumber("+91abc"))
}

// --- Callbacks ---

func TestCallback_BalanceAnsweredInline(t *testing.T) {
	f := newDispatcherFixture()
	f.ledger.user.Credits = 3

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "balance"))

	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, msgBalance(3), f.messenger.answers[0].text)
	assert.True(t, f.messenger.answers[0].showAlert)
	assert.Empty(t, f.messenger.sends)
}

func TestCallback_GatedActionsRequireMembership(t *testing.T) {
	f := newDispatcherFixture()
	f.membership.member = false

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "refer"))

	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, msgJoinFirst, f.messenger.answers[0].text)
	assert.True(t, f.messenger.answers[0].showAlert)
	assert.Empty(t, f.messenger.sends)
}

func TestCallback_SearchRefusedWithoutCredits(t *testing.T) {
	f := newDispatcherFixture()
	f.ledger.user.Credits = 0

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "search_number"))

	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, msgNotEnough, f.messenger.answers[0].text)
	assert.Empty(t, f.states.setTo)
}

func TestCallback_SearchPromptStoresState(t *testing.T) {
	f := newDispatcherFixture()

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "search_number"))

	require.Len(t, f.messenger.sends, 1)
	assert.Equal(t, msgPromptNumber, f.messenger.sends[0].text)
	assert.Equal(t, []models.UserState{models.StateWaitingForNumber}, f.states.setTo)
}

func TestCallback_RedeemPromptStoresState(t *testing.T) {
	f := newDispatcherFixture()

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "redeem_code"))

	require.Len(t, f.messenger.sends, 1)
	assert.Equal(t, msgPromptRedeem, f.messenger.sends[0].text)
	assert.Equal(t, []models.UserState{models.StateAwaitingRedeemCode}, f.states.setTo)
}

func TestCallback_ReferLinkUsesBotUsername(t *testing.T) {
	f := newDispatcherFixture()

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "refer"))

	require.Len(t, f.messenger.sends, 1)
	assert.Contains(t, f.messenger.sends[0].text, "https://t.me/osint_test_bot?start=ref42")
}

func TestCallback_JoinedChannelVerified(t *testing.T) {
	f := newDispatcherFixture()
	f.ledger.user = &models.User{UserID: 42, FirstTime: true}
	f.ledger.grantResult = &service.GrantResult{Granted: service.WelcomeCredits}

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "joined_channel"))

	assert.Equal(t, []int64{42}, f.ledger.markJoinedCalls)
	assert.Equal(t, 1, f.ledger.grantCalls)
	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, msgJoinThanks, f.messenger.answers[0].text)
	require.Len(t, f.messenger.edits, 1)
	assert.Equal(t, msgWelcome, f.messenger.edits[0].text)
}

func TestCallback_JoinedChannelNotVerified(t *testing.T) {
	f := newDispatcherFixture()
	f.membership.member = false

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "joined_channel"))

	assert.Empty(t, f.ledger.markJoinedCalls)
	assert.Equal(t, 0, f.ledger.grantCalls)
	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, msgJoinNotVerified, f.messenger.answers[0].text)
	assert.True(t, f.messenger.answers[0].showAlert)
}

func TestCallback_JoinedChannelEditFallsBackToSend(t *testing.T) {
	f := newDispatcherFixture()
	f.messenger.editErr = assert.AnError

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "joined_channel"))

	require.Len(t, f.messenger.sends, 1)
	assert.Equal(t, msgWelcome, f.messenger.sends[0].text)
}

func TestCallback_PageFlipWrapsIndex(t *testing.T) {
	f := newDispatcherFixture()
	f.reports.report = &models.Report{
		QueryID:   "tok-1",
		UserID:    42,
		Pages:     []string{"page zero", "page one", "page two"},
		CreatedAt: time.Now(),
	}

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "/page tok-1 -1"))

	require.Len(t, f.messenger.edits, 1)
	assert.Equal(t, "page two", f.messenger.edits[0].text)
	require.NotNil(t, f.messenger.edits[0].markup)
	row := f.messenger.edits[0].markup.InlineKeyboard[0]
	assert.Equal(t, "3/3", row[1].Text)
	assert.True(t, strings.HasSuffix(*row[0].CallbackData, " 1"))
	assert.True(t, strings.HasSuffix(*row[2].CallbackData, " 3"))
}

func TestCallback_PageFlipExpiredReport(t *testing.T) {
	f := newDispatcherFixture()
	f.reports.fetchErr = service.ErrReportNotFound

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "/page tok-1 1"))

	require.Len(t, f.messenger.edits, 1)
	assert.Equal(t, msgResultsExpired, f.messenger.edits[0].text)
	assert.Nil(t, f.messenger.edits[0].markup)
}

func TestCallback_WithoutSenderDiscarded(t *testing.T) {
	f := newDispatcherFixture()

	update := tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			Data: "balance",
			Message: &tgbotapi.Message{
				MessageID: 99,
				Chat:      &tgbotapi.Chat{ID: 42},
			},
		},
	}
	f.dispatcher.HandleUpdate(context.Background(), update)

	assert.Empty(t, f.messenger.sends)
	assert.Empty(t, f.messenger.edits)
	assert.Empty(t, f.messenger.answers)
}

func TestCallback_WithoutMessageStillAnswered(t *testing.T) {
	f := newDispatcherFixture()

	update := tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			From: &tgbotapi.User{ID: 42},
			Data: "balance",
		},
	}
	f.dispatcher.HandleUpdate(context.Background(), update)

	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, "", f.messenger.answers[0].text)
	assert.Empty(t, f.messenger.sends)
	assert.Empty(t, f.messenger.edits)
}

func TestCallback_NoopDismissesSpinner(t *testing.T) {
	f := newDispatcherFixture()

	f.dispatcher.HandleUpdate(context.Background(), callbackUpdate(42, 42, "noop"))

	require.Len(t, f.messenger.answers, 1)
	assert.Equal(t, "", f.messenger.answers[0].text)
	assert.Empty(t, f.messenger.sends)
}
