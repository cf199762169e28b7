package service

import (
	"context"
	"fmt"
	"time"
)

// redeemService implements the RedeemService interface
type redeemService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewRedeemService creates a new redeem service
func NewRedeemService(uowFactory UnitOfWorkFactory) RedeemService {
	return &redeemService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// Redeem validates and applies a one-time code inside a single transaction.
// The (user, code) uniqueness insert and the compare-and-increment on the
// use counter are the concurrency guards: a losing concurrent attempt rolls
// back with AlreadyUsed or Exhausted and no credits move.
func (s *redeemService) Redeem(ctx context.Context, userID int64, code string) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rc, err := uow.RedeemCodeRepository().GetByCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("failed to look up code: %w", err)
	}
	if rc == nil {
		return 0, &RedemptionError{Reason: RedemptionNotFound}
	}

	if rc.ExpiresAt != nil && s.now().After(*rc.ExpiresAt) {
		return 0, &RedemptionError{Reason: RedemptionExpired}
	}

	if rc.CurrentUses >= rc.MaxUses {
		return 0, &RedemptionError{Reason: RedemptionExhausted}
	}

	recorded, err := uow.RedeemCodeRepository().RecordRedemption(ctx, userID, rc.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to record redemption: %w", err)
	}
	if !recorded {
		return 0, &RedemptionError{Reason: RedemptionAlreadyUsed}
	}

	// Re-evaluated as part of the write: the pre-check above can be stale
	// under concurrent redemptions of the last remaining use.
	incremented, err := uow.RedeemCodeRepository().IncrementUses(ctx, rc.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to increment code uses: %w", err)
	}
	if !incremented {
		return 0, &RedemptionError{Reason: RedemptionExhausted}
	}

	if err := uow.UserRepository().AddCredits(ctx, userID, rc.Credits); err != nil {
		return 0, fmt.Errorf("failed to credit user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return rc.Credits, nil
}
