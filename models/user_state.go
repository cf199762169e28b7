package models

// UserState is the single outstanding prompt for a user. The next free-text
// message consumes it; a new prompt overwrites it (last prompt wins).
type UserState string

const (
	StateWaitingForNumber   UserState = "waiting_for_number"
	StateWaitingForUsername UserState = "waiting_for_username"
	StateAwaitingRedeemCode UserState = "awaiting_redeem_code"
)
