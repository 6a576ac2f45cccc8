package service

import (
	"context"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/logger"
)

type notificationService struct {
	scanner  ScannerService
	notifier Notifier
}

func NewNotificationService(scanner ScannerService, notifier Notifier) NotificationService {
	return &notificationService{scanner: scanner, notifier: notifier}
}

func (s *notificationService) SendDueSoonNotices(ctx context.Context) (DeliveryReport, error) {
	loans, err := s.scanner.ListDueSoon(ctx)
	if err != nil {
		return DeliveryReport{}, err
	}
	report := s.deliver(ctx, loans, s.notifier.SendDueSoonReminder)
	logger.WithService("notification").Info("Due-soon notices delivered", "total", report.Total, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

func (s *notificationService) SendOverdueNotices(ctx context.Context) (DeliveryReport, error) {
	loans, err := s.scanner.ListOverdue(ctx)
	if err != nil {
		return DeliveryReport{}, err
	}
	report := s.deliver(ctx, loans, s.notifier.SendOverdueNotice)
	logger.WithService("notification").Info("Overdue notices delivered", "total", report.Total, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

// deliver sends one message per loan. A failed send is logged and skipped.
func (s *notificationService) deliver(ctx context.Context, loans []domain.LoanDetail, send func(context.Context, domain.LoanDetail) error) DeliveryReport {
	report := DeliveryReport{Total: len(loans)}
	for _, loan := range loans {
		if err := ctx.Err(); err != nil {
			logger.WithService("notification").Warn("Notice delivery interrupted", "error", err, "remaining", report.Total-report.Sent-report.Failed)
			report.Failed += report.Total - report.Sent - report.Failed
			break
		}
		if err := send(ctx, loan); err != nil {
			logger.WithService("notification").Error("Failed to send notice", "loanID", loan.ID, "borrowerID", loan.BorrowerID, "error", err)
			report.Failed++
			continue
		}
		report.Sent++
	}
	return report
}
