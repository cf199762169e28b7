package service

import (
	"context"
	"fmt"

	"osintbot/models"
)

// ledgerService implements the LedgerService interface
type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{uowFactory: uowFactory}
}

// GetOrCreateUser ensures the user row exists, refreshing the display name
// fields. Safe to call on every inbound event for the user.
func (s *ledgerService) GetOrCreateUser(ctx context.Context, userID int64, username, firstName *string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().Upsert(ctx, userID, username, firstName)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by Telegram ID
func (s *ledgerService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// SetReferrer records who referred the user. The row is written at most
// once; later attempts and self-referrals are silently ignored.
func (s *ledgerService) SetReferrer(ctx context.Context, userID, referrerID int64) error {
	if userID == referrerID {
		return nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := uow.UserRepository().SetReferrer(ctx, userID, referrerID); err != nil {
		return fmt.Errorf("failed to set referrer: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GrantCredits performs the first-contact grant as one transaction. The
// user's first-time flag is cleared with a compare-and-set before anything
// is credited; only the event that wins the flag pays out, so the start and
// join-confirmation paths cannot both grant even when delivered
// concurrently. When a referrer is present and is not the user themselves,
// the referral bonus is credited inside the same transaction and the result
// carries the referrer id so the caller can notify them after commit.
func (s *ledgerService) GrantCredits(ctx context.Context, userID int64, amount int64, referrerID *int64) (*GrantResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	eligible, err := uow.UserRepository().ClearFirstTime(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check first-time eligibility: %w", err)
	}
	if !eligible {
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return &GrantResult{}, nil
	}

	if err := uow.UserRepository().AddCredits(ctx, userID, amount); err != nil {
		return nil, fmt.Errorf("failed to grant credits: %w", err)
	}

	result := &GrantResult{Granted: amount}

	if referrerID != nil && *referrerID != userID {
		if err := uow.UserRepository().AddCredits(ctx, *referrerID, ReferralBonus); err != nil {
			return nil, fmt.Errorf("failed to grant referral bonus: %w", err)
		}
		result.BonusReferrerID = referrerID
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// DeductSearchCredit charges one credit. The sufficiency check happens at
// the moment of the update, not from an earlier read, so a concurrent spend
// cannot drive the balance negative.
func (s *ledgerService) DeductSearchCredit(ctx context.Context, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	deducted, err := uow.UserRepository().DeductSearchCredit(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to deduct credit: %w", err)
	}
	if !deducted {
		return ErrInsufficientCredits
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// MarkJoined records that the user passed the channel membership check
func (s *ledgerService) MarkJoined(ctx context.Context, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().MarkJoined(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark joined: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
