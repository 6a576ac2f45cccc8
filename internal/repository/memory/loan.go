package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/barneeyyu/library-server/internal/domain"

	"github.com/hashicorp/go-memdb"
)

type loanRepository struct {
	s   *Store
	uow *unitOfWork
}

func (r *loanRepository) Create(ctx context.Context, l *domain.Loan) error {
	l.ID = r.s.loanID.Add(1)
	l.CreatedAt = time.Now()
	row := *l

	return r.s.stage(r.uow, func(txn *memdb.Txn) error {
		open, err := openLoan(txn, row.BorrowerID, row.BookID)
		if err != nil {
			return err
		}
		if open {
			return fmt.Errorf("%w: an open loan for this title already exists", domain.ErrAlreadyBorrowed)
		}
		return txn.Insert(tableLoan, &row)
	})
}

func (r *loanRepository) GetByID(ctx context.Context, id int32) (*domain.Loan, error) {
	return first[domain.Loan](r.s.db.Txn(false), tableLoan, id)
}

func (r *loanRepository) MarkReturned(ctx context.Context, id int32, returnDate time.Time) error {
	return r.s.stage(r.uow, func(txn *memdb.Txn) error {
		l, err := first[domain.Loan](txn, tableLoan, id)
		if err != nil {
			return err
		}
		if !l.Open() {
			return fmt.Errorf("loan %d is no longer open: %w", id, domain.ErrConflict)
		}
		l.Status = domain.LoanStatusReturned
		l.ReturnDate = &returnDate
		return txn.Insert(tableLoan, l)
	})
}

func (r *loanRepository) HasOpenLoan(ctx context.Context, borrowerID, bookID int32) (bool, error) {
	return openLoan(r.s.db.Txn(false), borrowerID, bookID)
}

func (r *loanRepository) CountOpenByCategory(ctx context.Context, borrowerID int32, category domain.Category) (int, error) {
	txn := r.s.db.Txn(false)
	loans, err := loansOf(txn, borrowerID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, l := range loans {
		if !l.Open() {
			continue
		}
		book, err := first[domain.Book](txn, tableBook, l.BookID)
		if err != nil {
			return 0, err
		}
		if book.Category == category {
			count++
		}
	}
	return count, nil
}

func (r *loanRepository) ListByBorrower(ctx context.Context, borrowerID int32, status domain.LoanStatus) ([]domain.LoanDetail, error) {
	txn := r.s.db.Txn(false)
	loans, err := loansOf(txn, borrowerID)
	if err != nil {
		return nil, err
	}
	var matched []*domain.Loan
	for _, l := range loans {
		if status == "" || l.Status == status {
			matched = append(matched, l)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].BorrowDate.Equal(matched[j].BorrowDate) {
			return matched[i].BorrowDate.After(matched[j].BorrowDate)
		}
		return matched[i].ID > matched[j].ID
	})
	return details(txn, matched)
}

func (r *loanRepository) ListOverdue(ctx context.Context, today time.Time) ([]domain.LoanDetail, error) {
	cutoff := domain.DateOf(today)
	return r.openWhere(func(l *domain.Loan) bool {
		return domain.DateOf(l.DueDate).Before(cutoff)
	})
}

func (r *loanRepository) ListDueBetween(ctx context.Context, after, through time.Time) ([]domain.LoanDetail, error) {
	from, to := domain.DateOf(after), domain.DateOf(through)
	return r.openWhere(func(l *domain.Loan) bool {
		due := domain.DateOf(l.DueDate)
		return due.After(from) && !due.After(to)
	})
}

func (r *loanRepository) openWhere(match func(l *domain.Loan) bool) ([]domain.LoanDetail, error) {
	txn := r.s.db.Txn(false)
	it, err := txn.Get(tableLoan, "status", string(domain.LoanStatusBorrowed))
	if err != nil {
		return nil, fmt.Errorf("scanning open loans: %w", err)
	}
	var matched []*domain.Loan
	for raw := it.Next(); raw != nil; raw = it.Next() {
		if l := raw.(*domain.Loan); match(l) {
			matched = append(matched, l)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].DueDate.Equal(matched[j].DueDate) {
			return matched[i].DueDate.Before(matched[j].DueDate)
		}
		return matched[i].ID < matched[j].ID
	})
	return details(txn, matched)
}

func loansOf(txn *memdb.Txn, borrowerID int32) ([]*domain.Loan, error) {
	it, err := txn.Get(tableLoan, "borrower", borrowerID)
	if err != nil {
		return nil, fmt.Errorf("reading loans of borrower %d: %w", borrowerID, err)
	}
	var loans []*domain.Loan
	for raw := it.Next(); raw != nil; raw = it.Next() {
		loans = append(loans, raw.(*domain.Loan))
	}
	return loans, nil
}

func openLoan(txn *memdb.Txn, borrowerID, bookID int32) (bool, error) {
	loans, err := loansOf(txn, borrowerID)
	if err != nil {
		return false, err
	}
	for _, l := range loans {
		if l.BookID == bookID && l.Open() {
			return true, nil
		}
	}
	return false, nil
}

func details(txn *memdb.Txn, loans []*domain.Loan) ([]domain.LoanDetail, error) {
	out := make([]domain.LoanDetail, 0, len(loans))
	for _, l := range loans {
		borrower, err := first[domain.Borrower](txn, tableBorrower, l.BorrowerID)
		if err != nil {
			return nil, err
		}
		book, err := first[domain.Book](txn, tableBook, l.BookID)
		if err != nil {
			return nil, err
		}
		branch, err := first[domain.Branch](txn, tableBranch, l.BranchID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.LoanDetail{
			Loan:          *l,
			BorrowerName:  borrower.Name,
			BorrowerEmail: borrower.Email,
			BookTitle:     book.Title,
			BookAuthor:    book.Author,
			Category:      book.Category,
			BranchName:    branch.Name,
		})
	}
	return out, nil
}
