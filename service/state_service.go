package service

import (
	"context"
	"fmt"

	"osintbot/models"
)

// stateService implements the StateService interface
type stateService struct {
	uowFactory UnitOfWorkFactory
}

// NewStateService creates a new conversation state service
func NewStateService(uowFactory UnitOfWorkFactory) StateService {
	return &stateService{uowFactory: uowFactory}
}

// Set records the outstanding prompt; a later prompt silently replaces it
func (s *stateService) Set(ctx context.Context, userID int64, state models.UserState) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.StateRepository().Set(ctx, userID, state); err != nil {
		return fmt.Errorf("failed to set state: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Consume reads and clears the outstanding prompt. The state is cleared
// whether or not the message that triggered it turns out to be valid.
func (s *stateService) Consume(ctx context.Context, userID int64) (models.UserState, bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	state, ok, err := uow.StateRepository().Consume(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("failed to consume state: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return "", false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return state, ok, nil
}
