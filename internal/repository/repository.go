package repository

import (
	"context"
	"time"

	"github.com/barneeyyu/library-server/internal/domain"
)

type CatalogRepository interface {
	GetBook(ctx context.Context, id int32) (*domain.Book, error)
	GetBranch(ctx context.Context, id int32) (*domain.Branch, error)
}

type InventoryRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.InventoryRecord, error)
	// UpdateAvailability adds delta to the available copies and bumps the
	// version, but only if the stored version still equals expectedVersion.
	// A mismatch returns domain.ErrConflict and changes nothing.
	UpdateAvailability(ctx context.Context, id, delta, expectedVersion int32) error
}

type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id int32) (*domain.Loan, error)
	// MarkReturned closes an open loan. It returns domain.ErrConflict if the
	// loan was closed by someone else after it was read.
	MarkReturned(ctx context.Context, id int32, returnDate time.Time) error
	HasOpenLoan(ctx context.Context, borrowerID, bookID int32) (bool, error)
	CountOpenByCategory(ctx context.Context, borrowerID int32, category domain.Category) (int, error)
	// ListByBorrower returns loans newest first; an empty status means all.
	ListByBorrower(ctx context.Context, borrowerID int32, status domain.LoanStatus) ([]domain.LoanDetail, error)
	ListOverdue(ctx context.Context, today time.Time) ([]domain.LoanDetail, error)
	// ListDueBetween returns open loans with after < due_date <= through.
	ListDueBetween(ctx context.Context, after, through time.Time) ([]domain.LoanDetail, error)
}

// Repositories is the set of repositories bound to one unit of work.
type Repositories struct {
	Catalog   CatalogRepository
	Inventory InventoryRepository
	Loans     LoanRepository
}

// Store gives access to repositories, either directly or inside a
// transaction whose writes commit together or not at all.
type Store interface {
	Repositories() Repositories
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
