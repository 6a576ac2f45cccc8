package service

import (
	"context"
	"time"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/policy"
)

// Clock returns the current time. A nil Clock means time.Now.
type Clock func() time.Time

type BorrowService interface {
	Borrow(ctx context.Context, borrowerID, inventoryID int32) (*domain.LoanSummary, error)
	Return(ctx context.Context, borrowerID, loanID int32) (*domain.LoanSummary, error)
	GetBorrowLimits(ctx context.Context, borrowerID int32) (map[domain.Category]policy.LimitInfo, error)
	ListCurrentLoans(ctx context.Context, borrowerID int32) ([]domain.LoanView, error)
	ListHistory(ctx context.Context, borrowerID int32) ([]domain.LoanView, error)
}

// ScannerService answers the read-only urgency queries over open loans.
type ScannerService interface {
	ListOverdue(ctx context.Context) ([]domain.LoanDetail, error)
	ListDueSoon(ctx context.Context) ([]domain.LoanDetail, error)
}

type NotificationService interface {
	SendDueSoonNotices(ctx context.Context) (DeliveryReport, error)
	SendOverdueNotices(ctx context.Context) (DeliveryReport, error)
}

// Notifier delivers a single message about a loan to its borrower.
type Notifier interface {
	SendDueSoonReminder(ctx context.Context, loan domain.LoanDetail) error
	SendOverdueNotice(ctx context.Context, loan domain.LoanDetail) error
}

type DeliveryReport struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
