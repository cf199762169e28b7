package bot

import "fmt"

// User-facing texts. Markdown unless a handler sends them as HTML.
const (
	msgWelcomeJoin = "👋 *Welcome to the osintricx Data Search Bot!*\n\n" +
		"🔍 Search for phone numbers or usernames.\n" +
		"🚫 *No real personal information is searched or displayed.*\n\n" +
		"📢 *Please join our channel first to use the bot:*"

	msgWelcomeBack = "👋 *Welcome back to the osintricx Data Search Bot!*\n" +
		"🔍 Use the buttons below to explore features."

	msgWelcome = "👋 *Welcome to the osintricx Data Search Bot!*\n" +
		"🔍 Use the buttons below to explore features."

	msgUseMenu        = "Please use the menu options."
	msgGenericError   = "❌ An error occurred. Please try again later."
	msgSearching      = "🔍 Searching database... please wait."
	msgNoData         = "❌ No data found for this query or an error occurred."
	msgResultsExpired = "❌ Search results expired. Please perform a new search."
	msgDeductFailed   = "❌ An error occurred while deducting credits."
	msgNoCredits      = "❌ You don't have enough credits to perform a search. Earn more or buy credits."

	msgPromptNumber   = "📞 Enter the phone number to check (e.g., +919999999999):"
	msgPromptUsername = "👤 Enter the username to search (e.g., john_doe):"
	msgPromptRedeem   = "🎫 Please enter the redeem code:"
	msgInvalidNumber  = "❌ Please enter a valid phone number starting with + (e.g., +919999999999)."
	msgEmptyRedeem    = "❌ Please provide a valid redeem code."

	msgJoinFirst       = "📢 Please join our channel first!"
	msgJoinFirstStart  = "📢 Please join our channel first. Use /start to begin."
	msgJoinThanks      = "✅ Thanks for joining! Enjoy the bot."
	msgJoinNotVerified = "❌ Please join the channel first!"
	msgNotEnough       = "❌ Not enough credits! Earn more or buy credits."
	msgCallbackError   = "❌ An error occurred. Please try again."

	msgRedeemNotFound    = "❌ Invalid or non-existent redeem code."
	msgRedeemExpired     = "❌ This redeem code has expired."
	msgRedeemExhausted   = "❌ This redeem code has already been used the maximum number of times."
	msgRedeemAlreadyUsed = "❌ You have already used this redeem code."
	msgRedeemFailed      = "❌ An error occurred while processing the code. Please try again later."
)

func msgReferralInfo(refLink string) string {
	return fmt.Sprintf("📨 Share this link to earn credits:\n\n`%s`\n\n"+
		"🎁 Earn 2 credits for each friend who joins using your link!\n"+
		"Your friends get 4 free credits too!", refLink)
}

func msgBuyCredits(adminContact string) string {
	return fmt.Sprintf("*💳 To purchase credits, please contact the admin:*\n\n%s", adminContact)
}

func msgPriceList(adminContact string) string {
	return fmt.Sprintf("*💰 Credit Purchase Options:*\n\n"+
		"🔹 4 Credits - ₹10\n"+
		"🔹 20 Credits - ₹40\n"+
		"🔹 50 Credits - ₹99\n\n"+
		"*💳 To purchase, contact:*\n%s", adminContact)
}

func msgBalance(credits int64) string {
	return fmt.Sprintf("💰 Balance: %d credits", credits)
}

func msgSearchDone(credits int64) string {
	return fmt.Sprintf("✅ Search completed! You have *%d* credits remaining.", credits)
}

func msgRedeemed(credits int64) string {
	return fmt.Sprintf("✅ Redeemed successfully! %d credits have been added to your account.", credits)
}

func msgReferrerBonus(referredID int64) string {
	return fmt.Sprintf("🎉 You earned 2 credits! A referred user (%d) performed an action.", referredID)
}

func msgInvalidInput(searchType string) string {
	return fmt.Sprintf("❌ Please enter a valid %s.", searchType)
}
