package service

import (
	"context"
	"time"

	"osintbot/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUserID(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Upsert(ctx context.Context, userID int64, username, firstName *string) (*models.User, error) {
	args := m.Called(ctx, userID, username, firstName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) SetReferrer(ctx context.Context, userID, referrerID int64) (bool, error) {
	args := m.Called(ctx, userID, referrerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) AddCredits(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductSearchCredit(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ClearFirstTime(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) MarkJoined(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockRedeemCodeRepository is a mock implementation of RedeemCodeRepository
type MockRedeemCodeRepository struct {
	mock.Mock
}

func (m *MockRedeemCodeRepository) GetByCode(ctx context.Context, code string) (*models.RedeemCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedeemCode), args.Error(1)
}

func (m *MockRedeemCodeRepository) RecordRedemption(ctx context.Context, userID, codeID int64) (bool, error) {
	args := m.Called(ctx, userID, codeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRedeemCodeRepository) IncrementUses(ctx context.Context, codeID int64) (bool, error) {
	args := m.Called(ctx, codeID)
	return args.Bool(0), args.Error(1)
}

// MockReportRepository is a mock implementation of ReportRepository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Store(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) Get(ctx context.Context, queryID string) (*models.Report, error) {
	args := m.Called(ctx, queryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *MockReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockStateRepository is a mock implementation of StateRepository
type MockStateRepository struct {
	mock.Mock
}

func (m *MockStateRepository) Set(ctx context.Context, userID int64, state models.UserState) error {
	args := m.Called(ctx, userID, state)
	return args.Error(0)
}

func (m *MockStateRepository) Consume(ctx context.Context, userID int64) (models.UserState, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.UserState), args.Bool(1), args.Error(2)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// attached with SetRepositories rather than mocked calls.
type MockUnitOfWork struct {
	mock.Mock
	userRepo   UserRepository
	redeemRepo RedeemCodeRepository
	reportRepo ReportRepository
	stateRepo  StateRepository
}

// SetRepositories attaches the repositories this unit of work exposes
func (m *MockUnitOfWork) SetRepositories(user UserRepository, redeem RedeemCodeRepository, report ReportRepository, state StateRepository) {
	m.userRepo = user
	m.redeemRepo = redeem
	m.reportRepo = report
	m.stateRepo = state
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) RedeemCodeRepository() RedeemCodeRepository {
	return m.redeemRepo
}

func (m *MockUnitOfWork) ReportRepository() ReportRepository {
	return m.reportRepo
}

func (m *MockUnitOfWork) StateRepository() StateRepository {
	return m.stateRepo
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
