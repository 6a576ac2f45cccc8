package service

import (
	"context"
	"time"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/logger"
	"github.com/barneeyyu/library-server/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// scannerService never writes and takes no locks; its results may trail
// concurrent borrows and returns by one commit.
type scannerService struct {
	loans       repository.LoanRepository
	dueSoonDays int
	now         Clock
	tracer      trace.Tracer
}

func NewScannerService(loans repository.LoanRepository, dueSoonDays int, clock Clock) ScannerService {
	if clock == nil {
		clock = time.Now
	}
	if dueSoonDays <= 0 {
		dueSoonDays = domain.DueSoonDays
	}
	return &scannerService{
		loans:       loans,
		dueSoonDays: dueSoonDays,
		now:         clock,
		tracer:      otel.Tracer(tracerName),
	}
}

// ListOverdue returns open loans whose due date is before today.
func (s *scannerService) ListOverdue(ctx context.Context) ([]domain.LoanDetail, error) {
	today := domain.DateOf(s.now())
	ctx, span := s.tracer.Start(ctx, "scanner.overdue",
		trace.WithAttributes(attribute.String("today", today.Format(time.DateOnly))))
	defer span.End()

	loans, err := s.loans.ListOverdue(ctx, today)
	if err != nil {
		span.RecordError(err)
		logger.Error("Failed to list overdue loans", "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("loan.count", len(loans)))
	return loans, nil
}

// ListDueSoon returns open loans due after today and no later than the
// end of the due-soon window.
func (s *scannerService) ListDueSoon(ctx context.Context) ([]domain.LoanDetail, error) {
	today := domain.DateOf(s.now())
	through := today.AddDate(0, 0, s.dueSoonDays)
	ctx, span := s.tracer.Start(ctx, "scanner.due_soon",
		trace.WithAttributes(
			attribute.String("today", today.Format(time.DateOnly)),
			attribute.Int("window.days", s.dueSoonDays),
		))
	defer span.End()

	loans, err := s.loans.ListDueBetween(ctx, today, through)
	if err != nil {
		span.RecordError(err)
		logger.Error("Failed to list loans due soon", "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("loan.count", len(loans)))
	return loans, nil
}
