package domain

import "time"

type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "BORROWED"
	LoanStatusReturned LoanStatus = "RETURNED"
)

// DueSoonDays is the default width of the due-soon window.
const DueSoonDays = 5

type Loan struct {
	ID          int32      `json:"id"`
	BorrowerID  int32      `json:"borrower_id"`
	InventoryID int32      `json:"inventory_id"`
	BookID      int32      `json:"book_id"`
	BranchID    int32      `json:"branch_id"`
	BorrowDate  time.Time  `json:"borrow_date"`
	DueDate     time.Time  `json:"due_date"`
	ReturnDate  *time.Time `json:"return_date,omitempty"`
	Status      LoanStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (l *Loan) Open() bool {
	return l.Status == LoanStatusBorrowed
}

// IsOverdue reports whether an open loan is past its due date on day today.
func (l *Loan) IsOverdue(today time.Time) bool {
	return l.Open() && DateOf(today).After(DateOf(l.DueDate))
}

// IsDueSoon reports whether today falls inside the window of days before the due date.
func (l *Loan) IsDueSoon(today time.Time, days int) bool {
	return l.Open() && DateOf(today).After(DateOf(l.DueDate).AddDate(0, 0, -days))
}

// DaysUntilDue is zero for closed loans and negative once overdue.
func (l *Loan) DaysUntilDue(today time.Time) int {
	if !l.Open() {
		return 0
	}
	return DaysBetween(today, l.DueDate)
}

// WasOverdue reports whether the loan was returned after its due date.
func (l *Loan) WasOverdue() bool {
	return l.ReturnDate != nil && DateOf(*l.ReturnDate).After(DateOf(l.DueDate))
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// LoanDetail is a loan joined with the names a reader or notifier needs.
type LoanDetail struct {
	Loan
	BorrowerName  string   `json:"borrower_name"`
	BorrowerEmail string   `json:"borrower_email"`
	BookTitle     string   `json:"book_title"`
	BookAuthor    string   `json:"book_author"`
	Category      Category `json:"category"`
	BranchName    string   `json:"branch_name"`
}

// LoanView is a LoanDetail with urgency flags evaluated for one day.
type LoanView struct {
	LoanDetail
	IsOverdue    bool `json:"is_overdue"`
	IsDueSoon    bool `json:"is_due_soon"`
	DaysUntilDue int  `json:"days_until_due"`
}

func NewLoanView(d LoanDetail, today time.Time, dueSoonDays int) LoanView {
	return LoanView{
		LoanDetail:   d,
		IsOverdue:    d.IsOverdue(today),
		IsDueSoon:    d.IsDueSoon(today, dueSoonDays),
		DaysUntilDue: d.DaysUntilDue(today),
	}
}

// LoanSummary is the outcome of a borrow or return.
type LoanSummary struct {
	LoanID     int32      `json:"loan_id"`
	BookID     int32      `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	BookAuthor string     `json:"book_author"`
	Category   Category   `json:"category"`
	BranchName string     `json:"branch_name"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     LoanStatus `json:"status"`
	WasOverdue bool       `json:"was_overdue"`
}

func NewLoanSummary(l *Loan, book *Book, branch *Branch) *LoanSummary {
	return &LoanSummary{
		LoanID:     l.ID,
		BookID:     book.ID,
		BookTitle:  book.Title,
		BookAuthor: book.Author,
		Category:   book.Category,
		BranchName: branch.Name,
		BorrowDate: l.BorrowDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Status:     l.Status,
		WasOverdue: l.WasOverdue(),
	}
}
