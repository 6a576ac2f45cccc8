package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/logger"
	"github.com/barneeyyu/library-server/internal/policy"
	"github.com/barneeyyu/library-server/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/barneeyyu/library-server/internal/service"

type LoanSettings struct {
	PeriodMonths int
	DueSoonDays  int
}

type borrowService struct {
	store    repository.Store
	limits   *policy.LimitPolicy
	settings LoanSettings
	now      Clock
	tracer   trace.Tracer
}

func NewBorrowService(store repository.Store, limits *policy.LimitPolicy, settings LoanSettings, clock Clock) BorrowService {
	if clock == nil {
		clock = time.Now
	}
	if settings.PeriodMonths <= 0 {
		settings.PeriodMonths = 1
	}
	if settings.DueSoonDays <= 0 {
		settings.DueSoonDays = domain.DueSoonDays
	}
	return &borrowService{
		store:    store,
		limits:   limits,
		settings: settings,
		now:      clock,
		tracer:   otel.Tracer(tracerName),
	}
}

func (s *borrowService) Borrow(ctx context.Context, borrowerID, inventoryID int32) (*domain.LoanSummary, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.borrow",
		trace.WithAttributes(
			attribute.Int("borrower.id", int(borrowerID)),
			attribute.Int("inventory.id", int(inventoryID)),
		),
	)
	defer span.End()
	logger.EnterMethod("borrowService.Borrow", "borrowerID", borrowerID, "inventoryID", inventoryID)

	var summary *domain.LoanSummary
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		inv, err := repos.Inventory.GetByID(ctx, inventoryID)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("expected.version", int(inv.Version)))

		if inv.AvailableCopies <= 0 {
			return fmt.Errorf("%w: no copies available", domain.ErrUnavailable)
		}
		if inv.Status != domain.CopyStatusActive {
			return fmt.Errorf("%w: copy inactive", domain.ErrUnavailable)
		}
		branch, err := repos.Catalog.GetBranch(ctx, inv.BranchID)
		if err != nil {
			return err
		}
		if !branch.Active {
			return fmt.Errorf("%w: branch inactive", domain.ErrUnavailable)
		}

		book, err := repos.Catalog.GetBook(ctx, inv.BookID)
		if err != nil {
			return err
		}
		open, err := repos.Loans.HasOpenLoan(ctx, borrowerID, book.ID)
		if err != nil {
			return err
		}
		if open {
			return fmt.Errorf("%w: %q is already on loan to this borrower", domain.ErrAlreadyBorrowed, book.Title)
		}

		count, err := repos.Loans.CountOpenByCategory(ctx, borrowerID, book.Category)
		if err != nil {
			return err
		}
		if err := s.limits.Check(book.Category, count); err != nil {
			return err
		}

		today := domain.DateOf(s.now())
		loan := &domain.Loan{
			BorrowerID:  borrowerID,
			InventoryID: inv.ID,
			BookID:      book.ID,
			BranchID:    branch.ID,
			BorrowDate:  today,
			DueDate:     today.AddDate(0, s.settings.PeriodMonths, 0),
			Status:      domain.LoanStatusBorrowed,
		}
		if err := repos.Loans.Create(ctx, loan); err != nil {
			return err
		}
		if err := repos.Inventory.UpdateAvailability(ctx, inv.ID, -1, inv.Version); err != nil {
			return err
		}

		summary = domain.NewLoanSummary(loan, book, branch)
		return nil
	})
	if err != nil {
		s.fail(span, "borrowService.Borrow", err, "borrowerID", borrowerID, "inventoryID", inventoryID)
		return nil, err
	}

	span.SetAttributes(attribute.Int("loan.id", int(summary.LoanID)))
	logger.Info("Book borrowed", "loanID", summary.LoanID, "borrowerID", borrowerID, "inventoryID", inventoryID, "dueDate", summary.DueDate.Format(time.DateOnly))
	logger.ExitMethod("borrowService.Borrow", "loanID", summary.LoanID)
	return summary, nil
}

func (s *borrowService) Return(ctx context.Context, borrowerID, loanID int32) (*domain.LoanSummary, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.return",
		trace.WithAttributes(
			attribute.Int("borrower.id", int(borrowerID)),
			attribute.Int("loan.id", int(loanID)),
		),
	)
	defer span.End()
	logger.EnterMethod("borrowService.Return", "borrowerID", borrowerID, "loanID", loanID)

	var summary *domain.LoanSummary
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		loan, err := repos.Loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.BorrowerID != borrowerID {
			return fmt.Errorf("%w: loan %d", domain.ErrNotBorrowedByUser, loanID)
		}
		if !loan.Open() {
			return fmt.Errorf("%w: loan %d", domain.ErrAlreadyReturned, loanID)
		}

		inv, err := repos.Inventory.GetByID(ctx, loan.InventoryID)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("expected.version", int(inv.Version)))
		// A full shelf means the loan was read before another return of it
		// committed. Retrying re-reads the loan as returned.
		if _, err := inv.Adjusted(1); err != nil {
			return fmt.Errorf("loan %d changed while returning (%v): %w", loanID, err, domain.ErrConflict)
		}
		book, err := repos.Catalog.GetBook(ctx, loan.BookID)
		if err != nil {
			return err
		}
		branch, err := repos.Catalog.GetBranch(ctx, loan.BranchID)
		if err != nil {
			return err
		}

		returned := domain.DateOf(s.now())
		if err := repos.Loans.MarkReturned(ctx, loan.ID, returned); err != nil {
			return err
		}
		if err := repos.Inventory.UpdateAvailability(ctx, inv.ID, 1, inv.Version); err != nil {
			return err
		}

		loan.Status = domain.LoanStatusReturned
		loan.ReturnDate = &returned
		summary = domain.NewLoanSummary(loan, book, branch)
		return nil
	})
	if err != nil {
		s.fail(span, "borrowService.Return", err, "borrowerID", borrowerID, "loanID", loanID)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("loan.was_overdue", summary.WasOverdue))
	logger.Info("Book returned", "loanID", loanID, "borrowerID", borrowerID, "wasOverdue", summary.WasOverdue)
	logger.ExitMethod("borrowService.Return", "loanID", loanID)
	return summary, nil
}

func (s *borrowService) GetBorrowLimits(ctx context.Context, borrowerID int32) (map[domain.Category]policy.LimitInfo, error) {
	loans := s.store.Repositories().Loans
	limits := make(map[domain.Category]policy.LimitInfo, len(domain.Categories))
	for _, category := range domain.Categories {
		count, err := loans.CountOpenByCategory(ctx, borrowerID, category)
		if err != nil {
			return nil, err
		}
		limits[category] = s.limits.Info(category, count)
	}
	return limits, nil
}

func (s *borrowService) ListCurrentLoans(ctx context.Context, borrowerID int32) ([]domain.LoanView, error) {
	return s.list(ctx, borrowerID, domain.LoanStatusBorrowed)
}

func (s *borrowService) ListHistory(ctx context.Context, borrowerID int32) ([]domain.LoanView, error) {
	return s.list(ctx, borrowerID, "")
}

func (s *borrowService) list(ctx context.Context, borrowerID int32, status domain.LoanStatus) ([]domain.LoanView, error) {
	details, err := s.store.Repositories().Loans.ListByBorrower(ctx, borrowerID, status)
	if err != nil {
		return nil, err
	}
	today := s.now()
	views := make([]domain.LoanView, 0, len(details))
	for _, d := range details {
		views = append(views, domain.NewLoanView(d, today, s.settings.DueSoonDays))
	}
	return views, nil
}

func (s *borrowService) fail(span trace.Span, method string, err error, args ...any) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	switch {
	case domain.IsRetryable(err):
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		logger.Warn("Optimistic lock conflict", append([]any{"method", method, "error", err}, args...)...)
	case isRejection(err):
		logger.Info("Request rejected", append([]any{"method", method, "reason", err.Error()}, args...)...)
	default:
		logger.ExitMethodWithError(method, err, args...)
	}
}

// isRejection reports whether err is a business rule outcome rather than a fault.
func isRejection(err error) bool {
	for _, kind := range []error{
		domain.ErrNotFound,
		domain.ErrUnavailable,
		domain.ErrAlreadyBorrowed,
		domain.ErrAlreadyReturned,
		domain.ErrNotBorrowedByUser,
		domain.ErrLimitExceeded,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
