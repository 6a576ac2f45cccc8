package service_test

import (
	"context"
	"time"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/repository"

	"github.com/stretchr/testify/mock"
)

// fakeStore hands the same mocks to direct reads and transactions.
type fakeStore struct {
	repos    repository.Repositories
	txCalls  int
	txResult error
}

func (s *fakeStore) Repositories() repository.Repositories {
	return s.repos
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	s.txCalls++
	s.txResult = fn(s.repos)
	return s.txResult
}

type MockCatalogRepo struct {
	mock.Mock
}

func (m *MockCatalogRepo) GetBook(ctx context.Context, id int32) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockCatalogRepo) GetBranch(ctx context.Context, id int32) (*domain.Branch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Branch), args.Error(1)
}

type MockInventoryRepo struct {
	mock.Mock
}

func (m *MockInventoryRepo) GetByID(ctx context.Context, id int32) (*domain.InventoryRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRepo) UpdateAvailability(ctx context.Context, id, delta, expectedVersion int32) error {
	args := m.Called(ctx, id, delta, expectedVersion)
	return args.Error(0)
}

type MockLoanRepo struct {
	mock.Mock
}

func (m *MockLoanRepo) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepo) GetByID(ctx context.Context, id int32) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepo) MarkReturned(ctx context.Context, id int32, returnDate time.Time) error {
	args := m.Called(ctx, id, returnDate)
	return args.Error(0)
}

func (m *MockLoanRepo) HasOpenLoan(ctx context.Context, borrowerID, bookID int32) (bool, error) {
	args := m.Called(ctx, borrowerID, bookID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoanRepo) CountOpenByCategory(ctx context.Context, borrowerID int32, category domain.Category) (int, error) {
	args := m.Called(ctx, borrowerID, category)
	return args.Int(0), args.Error(1)
}

func (m *MockLoanRepo) ListByBorrower(ctx context.Context, borrowerID int32, status domain.LoanStatus) ([]domain.LoanDetail, error) {
	args := m.Called(ctx, borrowerID, status)
	return args.Get(0).([]domain.LoanDetail), args.Error(1)
}

func (m *MockLoanRepo) ListOverdue(ctx context.Context, today time.Time) ([]domain.LoanDetail, error) {
	args := m.Called(ctx, today)
	return args.Get(0).([]domain.LoanDetail), args.Error(1)
}

func (m *MockLoanRepo) ListDueBetween(ctx context.Context, after, through time.Time) ([]domain.LoanDetail, error) {
	args := m.Called(ctx, after, through)
	return args.Get(0).([]domain.LoanDetail), args.Error(1)
}

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) ListOverdue(ctx context.Context) ([]domain.LoanDetail, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.LoanDetail), args.Error(1)
}

func (m *MockScanner) ListDueSoon(ctx context.Context) ([]domain.LoanDetail, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.LoanDetail), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendDueSoonReminder(ctx context.Context, loan domain.LoanDetail) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockNotifier) SendOverdueNotice(ctx context.Context, loan domain.LoanDetail) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}
