package service

import (
	"context"
	"time"

	"osintbot/models"
)

// Credit amounts for the welcome grant and the referral bonus
const (
	WelcomeCredits = 4
	ReferralBonus  = 2
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByUserID retrieves a user by their Telegram ID, nil if absent
	GetByUserID(ctx context.Context, userID int64) (*models.User, error)

	// Upsert creates the user on first contact or refreshes display names
	Upsert(ctx context.Context, userID int64, username, firstName *string) (*models.User, error)

	// SetReferrer records the referrer only if none was ever set
	SetReferrer(ctx context.Context, userID, referrerID int64) (bool, error)

	// AddCredits adds to a user's balance atomically
	AddCredits(ctx context.Context, userID int64, amount int64) error

	// DeductSearchCredit subtracts one credit only while the balance is positive
	DeductSearchCredit(ctx context.Context, userID int64) (bool, error)

	// ClearFirstTime flips the first-time flag off; true only for the winner
	ClearFirstTime(ctx context.Context, userID int64) (bool, error)

	// MarkJoined records a passed membership check
	MarkJoined(ctx context.Context, userID int64) error
}

// RedeemCodeRepository defines the interface for redeem code data access
type RedeemCodeRepository interface {
	// GetByCode retrieves a code by its code string, nil if absent
	GetByCode(ctx context.Context, code string) (*models.RedeemCode, error)

	// RecordRedemption inserts the (user, code) record; false if it exists
	RecordRedemption(ctx context.Context, userID, codeID int64) (bool, error)

	// IncrementUses advances the counter while below max_uses; false if exhausted
	IncrementUses(ctx context.Context, codeID int64) (bool, error)
}

// ReportRepository defines the interface for cached report data access
type ReportRepository interface {
	// Store saves a report's pages, replacing any report under the same token
	Store(ctx context.Context, report *models.Report) error

	// Get retrieves a cached report, nil if absent
	Get(ctx context.Context, queryID string) (*models.Report, error)

	// DeleteOlderThan evicts reports created before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StateRepository defines the interface for conversation state access
type StateRepository interface {
	// Set records the outstanding prompt as an atomic upsert
	Set(ctx context.Context, userID int64, state models.UserState) error

	// Consume reads and deletes the outstanding prompt in one statement
	Consume(ctx context.Context, userID int64) (models.UserState, bool, error)
}

// UnitOfWork represents a transactional boundary across repositories
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	RedeemCodeRepository() RedeemCodeRepository
	ReportRepository() ReportRepository
	StateRepository() StateRepository
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// GrantResult reports what a credit grant actually did
type GrantResult struct {
	// Granted is the amount credited to the user, zero when the user was
	// no longer eligible
	Granted int64

	// BonusReferrerID is set when the referral bonus was credited; the
	// caller should best-effort notify that user after the grant commits
	BonusReferrerID *int64
}

// LedgerService defines credit balance and referral bookkeeping
type LedgerService interface {
	// GetOrCreateUser idempotently ensures the user row exists
	GetOrCreateUser(ctx context.Context, userID int64, username, firstName *string) (*models.User, error)

	// GetUser retrieves a user, nil if absent
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// SetReferrer records the referrer set-once; self-referrals are ignored
	SetReferrer(ctx context.Context, userID, referrerID int64) error

	// GrantCredits performs the one-shot first-contact grant: amount to the
	// user and the referral bonus to the referrer, gated atomically on the
	// user's first-time flag so concurrent grant paths cannot double-pay
	GrantCredits(ctx context.Context, userID int64, amount int64, referrerID *int64) (*GrantResult, error)

	// DeductSearchCredit charges one credit for a search
	DeductSearchCredit(ctx context.Context, userID int64) error

	// MarkJoined records a passed membership check
	MarkJoined(ctx context.Context, userID int64) error
}

// RedeemService validates and applies one-time redemption codes
type RedeemService interface {
	// Redeem applies a code for a user, returning the credits granted or a
	// RedemptionError with the refusal reason
	Redeem(ctx context.Context, userID int64, code string) (int64, error)
}

// ReportService stores rendered search reports and computes pagination
type ReportService interface {
	// Store caches the pages under a fresh query token and returns it
	Store(ctx context.Context, userID int64, pages []string) (string, error)

	// Fetch retrieves a cached report; ErrReportNotFound if missing or evicted
	Fetch(ctx context.Context, queryID string) (*models.Report, error)

	// EvictExpired removes reports older than the retention TTL
	EvictExpired(ctx context.Context) (int64, error)
}

// StateService tracks the single outstanding prompt per user
type StateService interface {
	Set(ctx context.Context, userID int64, state models.UserState) error
	Consume(ctx context.Context, userID int64) (models.UserState, bool, error)
}
