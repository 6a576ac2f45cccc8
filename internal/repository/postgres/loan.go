package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/logger"
	"github.com/barneeyyu/library-server/internal/repository"
)

const loanDetailColumns = `l.id, l.borrower_id, l.inventory_id, l.book_id, l.branch_id, l.borrow_date, l.due_date, l.return_date, l.status, l.created_at,
	       u.name, u.email, b.title, b.author, b.category, br.name`

const loanDetailFrom = `FROM loans l
	JOIN borrowers u ON u.id = l.borrower_id
	JOIN books b ON b.id = l.book_id
	JOIN branches br ON br.id = l.branch_id`

type loanRepository struct {
	db DBTX
}

func NewLoanRepository(db DBTX) repository.LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, l *domain.Loan) error {
	query := `INSERT INTO loans (borrower_id, inventory_id, book_id, branch_id, borrow_date, due_date, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	logger.DatabaseCall("loans.Create", query, "borrowerID", l.BorrowerID, "bookID", l.BookID)

	err := r.db.QueryRowContext(ctx, query, l.BorrowerID, l.InventoryID, l.BookID, l.BranchID, l.BorrowDate, l.DueDate, l.Status).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		logger.DatabaseResult("loans.Create", 0, err)
		return fmt.Errorf("creating loan: %w", translateError(err))
	}
	logger.DatabaseResult("loans.Create", 1, nil, "loanID", l.ID)
	return nil
}

func (r *loanRepository) GetByID(ctx context.Context, id int32) (*domain.Loan, error) {
	l := &domain.Loan{}
	query := `SELECT id, borrower_id, inventory_id, book_id, branch_id, borrow_date, due_date, return_date, status, created_at FROM loans WHERE id = $1`
	var returnDate sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.BorrowerID, &l.InventoryID, &l.BookID, &l.BranchID, &l.BorrowDate, &l.DueDate, &returnDate, &l.Status, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("loading loan %d: %w", id, translateError(err))
	}
	if returnDate.Valid {
		l.ReturnDate = &returnDate.Time
	}
	return l, nil
}

func (r *loanRepository) MarkReturned(ctx context.Context, id int32, returnDate time.Time) error {
	query := `UPDATE loans SET status = $1, return_date = $2 WHERE id = $3 AND status = $4`
	logger.DatabaseCall("loans.MarkReturned", query, "loanID", id)

	res, err := r.db.ExecContext(ctx, query, domain.LoanStatusReturned, returnDate, id, domain.LoanStatusBorrowed)
	if err != nil {
		logger.DatabaseResult("loans.MarkReturned", 0, err)
		return fmt.Errorf("returning loan %d: %w", id, translateError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("returning loan %d: %w", id, err)
	}
	logger.DatabaseResult("loans.MarkReturned", n, nil, "loanID", id)

	if n == 0 {
		return fmt.Errorf("loan %d is no longer open: %w", id, domain.ErrConflict)
	}
	return nil
}

func (r *loanRepository) HasOpenLoan(ctx context.Context, borrowerID, bookID int32) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM loans WHERE borrower_id = $1 AND book_id = $2 AND status = $3)`
	if err := r.db.QueryRowContext(ctx, query, borrowerID, bookID, domain.LoanStatusBorrowed).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking open loans: %w", err)
	}
	return exists, nil
}

func (r *loanRepository) CountOpenByCategory(ctx context.Context, borrowerID int32, category domain.Category) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM loans l JOIN books b ON b.id = l.book_id
	          WHERE l.borrower_id = $1 AND l.status = $2 AND b.category = $3`
	if err := r.db.QueryRowContext(ctx, query, borrowerID, domain.LoanStatusBorrowed, category).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting open %s loans: %w", category, err)
	}
	return count, nil
}

func (r *loanRepository) ListByBorrower(ctx context.Context, borrowerID int32, status domain.LoanStatus) ([]domain.LoanDetail, error) {
	query := `SELECT ` + loanDetailColumns + ` ` + loanDetailFrom + ` WHERE l.borrower_id = $1`
	args := []any{borrowerID}
	if status != "" {
		query += " AND l.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY l.borrow_date DESC, l.id DESC"

	return r.listDetails(ctx, "listing loans by borrower", query, args...)
}

func (r *loanRepository) ListOverdue(ctx context.Context, today time.Time) ([]domain.LoanDetail, error) {
	query := `SELECT ` + loanDetailColumns + ` ` + loanDetailFrom + `
	          WHERE l.status = $1 AND l.due_date < $2 ORDER BY l.due_date, l.id`
	return r.listDetails(ctx, "listing overdue loans", query, domain.LoanStatusBorrowed, domain.DateOf(today))
}

func (r *loanRepository) ListDueBetween(ctx context.Context, after, through time.Time) ([]domain.LoanDetail, error) {
	query := `SELECT ` + loanDetailColumns + ` ` + loanDetailFrom + `
	          WHERE l.status = $1 AND l.due_date > $2 AND l.due_date <= $3 ORDER BY l.due_date, l.id`
	return r.listDetails(ctx, "listing loans due soon", query, domain.LoanStatusBorrowed, domain.DateOf(after), domain.DateOf(through))
}

func (r *loanRepository) listDetails(ctx context.Context, op, query string, args ...any) ([]domain.LoanDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var details []domain.LoanDetail
	for rows.Next() {
		var d domain.LoanDetail
		var returnDate sql.NullTime
		if err := rows.Scan(&d.ID, &d.BorrowerID, &d.InventoryID, &d.BookID, &d.BranchID, &d.BorrowDate, &d.DueDate, &returnDate, &d.Status, &d.CreatedAt,
			&d.BorrowerName, &d.BorrowerEmail, &d.BookTitle, &d.BookAuthor, &d.Category, &d.BranchName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if returnDate.Valid {
			d.ReturnDate = &returnDate.Time
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return details, nil
}
