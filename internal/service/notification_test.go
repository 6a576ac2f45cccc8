package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/logger"
	"github.com/barneeyyu/library-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func detail(id int32) domain.LoanDetail {
	return domain.LoanDetail{Loan: domain.Loan{ID: id, BorrowerID: id}, BorrowerEmail: "reader@example.com", BookTitle: "Dune"}
}

func TestNotificationService_SendDueSoonNotices(t *testing.T) {
	ctx := context.Background()

	t.Run("Failed Send Does Not Stop The Batch", func(t *testing.T) {
		scanner := new(MockScanner)
		notifier := new(MockNotifier)
		scanner.On("ListDueSoon", ctx).Return([]domain.LoanDetail{detail(1), detail(2), detail(3)}, nil)
		notifier.On("SendDueSoonReminder", ctx, detail(1)).Return(nil)
		notifier.On("SendDueSoonReminder", ctx, detail(2)).Return(errors.New("mailbox unavailable"))
		notifier.On("SendDueSoonReminder", ctx, detail(3)).Return(nil)

		report, err := service.NewNotificationService(scanner, notifier).SendDueSoonNotices(ctx)
		require.NoError(t, err)
		assert.Equal(t, service.DeliveryReport{Total: 3, Sent: 2, Failed: 1}, report)
		notifier.AssertExpectations(t)
	})

	t.Run("Scan Error", func(t *testing.T) {
		scanner := new(MockScanner)
		notifier := new(MockNotifier)
		scanner.On("ListDueSoon", ctx).Return([]domain.LoanDetail(nil), errors.New("db down"))

		_, err := service.NewNotificationService(scanner, notifier).SendDueSoonNotices(ctx)
		assert.Error(t, err)
		notifier.AssertNotCalled(t, "SendDueSoonReminder", mock.Anything, mock.Anything)
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		scanner := new(MockScanner)
		notifier := new(MockNotifier)
		scanner.On("ListDueSoon", ctx).Return([]domain.LoanDetail{detail(1), detail(2)}, nil)

		report, err := service.NewNotificationService(scanner, notifier).SendDueSoonNotices(ctx)
		require.NoError(t, err)
		assert.Equal(t, service.DeliveryReport{Total: 2, Sent: 0, Failed: 2}, report)
		notifier.AssertNotCalled(t, "SendDueSoonReminder", mock.Anything, mock.Anything)
	})
}

func TestNotificationService_SendOverdueNotices(t *testing.T) {
	ctx := context.Background()
	scanner := new(MockScanner)
	notifier := new(MockNotifier)
	scanner.On("ListOverdue", ctx).Return([]domain.LoanDetail{detail(4)}, nil)
	notifier.On("SendOverdueNotice", ctx, detail(4)).Return(nil)

	report, err := service.NewNotificationService(scanner, notifier).SendOverdueNotices(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.DeliveryReport{Total: 1, Sent: 1}, report)
	notifier.AssertExpectations(t)
}

func TestNotificationService_LogsDeliveryCountsOnce(t *testing.T) {
	var buf bytes.Buffer
	logger.InitializeWriter(&buf, "info", "json")
	t.Cleanup(func() { logger.Initialize("info", "text") })

	ctx := context.Background()
	scanner := new(MockScanner)
	notifier := new(MockNotifier)
	scanner.On("ListOverdue", ctx).Return([]domain.LoanDetail{detail(1)}, nil)
	notifier.On("SendOverdueNotice", ctx, detail(1)).Return(nil)

	_, err := service.NewNotificationService(scanner, notifier).SendOverdueNotices(ctx)
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "Overdue notices delivered"))
	assert.Contains(t, out, `"service":"notification"`)
	assert.Contains(t, out, `"sent":1`)
}
