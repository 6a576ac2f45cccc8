package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/barneeyyu/library-server/internal/domain"

	"github.com/lib/pq"
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"

	openLoanIndex = "loans_open_borrower_book_idx"
)

// translateError maps driver errors onto domain error kinds. Anything it
// does not recognise is returned unchanged.
func translateError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeUniqueViolation:
		if pqErr.Constraint == openLoanIndex {
			return fmt.Errorf("%w: an open loan for this title already exists", domain.ErrAlreadyBorrowed)
		}
	case codeCheckViolation:
		return fmt.Errorf("%w: %s", domain.ErrInventoryBounds, pqErr.Message)
	case codeSerializationFailure:
		return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Message)
	}
	return err
}
