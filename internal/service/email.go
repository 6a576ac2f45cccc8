package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"
)

type message struct {
	Subject string
	Plain   string
	HTML    string
}

func dueSoonMessage(l domain.LoanDetail) message {
	due := l.DueDate.Format(time.DateOnly)
	plain := fmt.Sprintf("Hello %s,\n\n%q borrowed from %s is due on %s. Please return or renew it in time.\n\nLibrary Circulation",
		l.BorrowerName, l.BookTitle, l.BranchName, due)
	return message{
		Subject: fmt.Sprintf("Reminder: %q is due on %s", l.BookTitle, due),
		Plain:   plain,
		HTML: fmt.Sprintf("<p>Hello %s,</p><p><strong>%s</strong> borrowed from %s is due on <strong>%s</strong>. Please return or renew it in time.</p>",
			html.EscapeString(l.BorrowerName), html.EscapeString(l.BookTitle), html.EscapeString(l.BranchName), due),
	}
}

func overdueMessage(l domain.LoanDetail) message {
	due := l.DueDate.Format(time.DateOnly)
	plain := fmt.Sprintf("Hello %s,\n\n%q borrowed from %s was due on %s and is now overdue. Please return it as soon as possible.\n\nLibrary Circulation",
		l.BorrowerName, l.BookTitle, l.BranchName, due)
	return message{
		Subject: fmt.Sprintf("Overdue: %q was due on %s", l.BookTitle, due),
		Plain:   plain,
		HTML: fmt.Sprintf("<p>Hello %s,</p><p><strong>%s</strong> borrowed from %s was due on <strong>%s</strong> and is now overdue.</p>",
			html.EscapeString(l.BorrowerName), html.EscapeString(l.BookTitle), html.EscapeString(l.BranchName), due),
	}
}

// logNotifier only records what would have been sent.
type logNotifier struct{}

func NewLogNotifier() Notifier {
	return logNotifier{}
}

func (logNotifier) SendDueSoonReminder(ctx context.Context, l domain.LoanDetail) error {
	logger.InfoContext(ctx, "Due-soon reminder", "to", l.BorrowerEmail, "subject", dueSoonMessage(l).Subject)
	return nil
}

func (logNotifier) SendOverdueNotice(ctx context.Context, l domain.LoanDetail) error {
	logger.InfoContext(ctx, "Overdue notice", "to", l.BorrowerEmail, "subject", overdueMessage(l).Subject)
	return nil
}

type sendGridNotifier struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string) Notifier {
	return &sendGridNotifier{apiKey: apiKey, fromEmail: fromEmail, fromName: fromName}
}

func (n *sendGridNotifier) SendDueSoonReminder(ctx context.Context, l domain.LoanDetail) error {
	return n.send(l, dueSoonMessage(l))
}

func (n *sendGridNotifier) SendOverdueNotice(ctx context.Context, l domain.LoanDetail) error {
	return n.send(l, overdueMessage(l))
}

func (n *sendGridNotifier) send(l domain.LoanDetail, msg message) error {
	logger.ExternalServiceCall("sendgrid", "send", "to", l.BorrowerEmail, "loanID", l.ID)

	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail(l.BorrowerName, l.BorrowerEmail)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Plain, msg.HTML)

	response, err := sendgrid.NewSendClient(n.apiKey).Send(email)
	if err != nil {
		err = fmt.Errorf("failed to send email: %w", err)
	} else if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "loanID", l.ID)
	return err
}

type smtpNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPNotifier(host string, port int, username, password, from string) Notifier {
	return &smtpNotifier{host: host, port: port, username: username, password: password, from: from}
}

func (n *smtpNotifier) SendDueSoonReminder(ctx context.Context, l domain.LoanDetail) error {
	return n.send(l, dueSoonMessage(l))
}

func (n *smtpNotifier) SendOverdueNotice(ctx context.Context, l domain.LoanDetail) error {
	return n.send(l, overdueMessage(l))
}

func (n *smtpNotifier) send(l domain.LoanDetail, msg message) error {
	logger.ExternalServiceCall("smtp", "send", "to", l.BorrowerEmail, "loanID", l.ID)

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", l.BorrowerEmail)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Plain)
	m.AddAlternative("text/html", msg.HTML)

	d := gomail.NewDialer(n.host, n.port, n.username, n.password)
	err := d.DialAndSend(m)
	if err != nil {
		err = fmt.Errorf("failed to send email via gomail: %w", err)
	}
	logger.ExternalServiceResult("smtp", "send", err, "loanID", l.ID)
	return err
}
