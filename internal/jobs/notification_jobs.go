package jobs

import (
	"context"
)

// SendDueSoonNotices reminds borrowers whose loans fall due within the window
func (jr *JobRunner) SendDueSoonNotices() {
	jr.runWithRecovery("SendDueSoonNotices", func(ctx context.Context) error {
		_, err := jr.notifications.SendDueSoonNotices(ctx)
		return err
	})
}

// ReportOverdueLoans notifies borrowers of loans past their due date
func (jr *JobRunner) ReportOverdueLoans() {
	jr.runWithRecovery("ReportOverdueLoans", func(ctx context.Context) error {
		_, err := jr.notifications.SendOverdueNotices(ctx)
		return err
	})
}
