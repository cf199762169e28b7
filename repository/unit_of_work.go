package repository

import (
	"context"
	"fmt"

	"osintbot/database"
	"osintbot/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db         *database.DB
	tx         pgx.Tx
	ctx        context.Context
	userRepo   service.UserRepository
	redeemRepo service.RedeemCodeRepository
	reportRepo service.ReportRepository
	stateRepo  service.StateRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{db: db}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{db: f.db}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = newUserRepositoryWithTx(tx)
	u.redeemRepo = newRedeemCodeRepositoryWithTx(tx)
	u.reportRepo = newReportRepositoryWithTx(tx)
	u.stateRepo = newStateRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil
	return nil
}

// Rollback rolls back the transaction. Safe to defer after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil
	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// RedeemCodeRepository returns the redeem code repository for this unit of work
func (u *unitOfWork) RedeemCodeRepository() service.RedeemCodeRepository {
	if u.redeemRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.redeemRepo
}

// ReportRepository returns the report repository for this unit of work
func (u *unitOfWork) ReportRepository() service.ReportRepository {
	if u.reportRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.reportRepo
}

// StateRepository returns the conversation state repository for this unit of work
func (u *unitOfWork) StateRepository() service.StateRepository {
	if u.stateRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.stateRepo
}
