package http_test

import (
	"context"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/policy"
	"github.com/barneeyyu/library-server/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockBorrowService struct {
	mock.Mock
}

func (m *MockBorrowService) Borrow(ctx context.Context, borrowerID, inventoryID int32) (*domain.LoanSummary, error) {
	args := m.Called(ctx, borrowerID, inventoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanSummary), args.Error(1)
}

func (m *MockBorrowService) Return(ctx context.Context, borrowerID, loanID int32) (*domain.LoanSummary, error) {
	args := m.Called(ctx, borrowerID, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanSummary), args.Error(1)
}

func (m *MockBorrowService) GetBorrowLimits(ctx context.Context, borrowerID int32) (map[domain.Category]policy.LimitInfo, error) {
	args := m.Called(ctx, borrowerID)
	return args.Get(0).(map[domain.Category]policy.LimitInfo), args.Error(1)
}

func (m *MockBorrowService) ListCurrentLoans(ctx context.Context, borrowerID int32) ([]domain.LoanView, error) {
	args := m.Called(ctx, borrowerID)
	return args.Get(0).([]domain.LoanView), args.Error(1)
}

func (m *MockBorrowService) ListHistory(ctx context.Context, borrowerID int32) ([]domain.LoanView, error) {
	args := m.Called(ctx, borrowerID)
	return args.Get(0).([]domain.LoanView), args.Error(1)
}

type MockScannerService struct {
	mock.Mock
}

func (m *MockScannerService) ListOverdue(ctx context.Context) ([]domain.LoanDetail, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.LoanDetail), args.Error(1)
}

func (m *MockScannerService) ListDueSoon(ctx context.Context) ([]domain.LoanDetail, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.LoanDetail), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendDueSoonNotices(ctx context.Context) (service.DeliveryReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.DeliveryReport), args.Error(1)
}

func (m *MockNotificationService) SendOverdueNotices(ctx context.Context) (service.DeliveryReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.DeliveryReport), args.Error(1)
}
