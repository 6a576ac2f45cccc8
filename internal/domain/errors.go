package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnavailable       = errors.New("unavailable")
	ErrAlreadyBorrowed   = errors.New("already borrowed")
	ErrAlreadyReturned   = errors.New("already returned")
	ErrNotBorrowedByUser = errors.New("not borrowed by user")
	ErrLimitExceeded     = errors.New("borrow limit exceeded")

	// ErrConflict means a concurrent writer changed the record since it was
	// read. The whole operation may be attempted again.
	ErrConflict = errors.New("concurrent modification")

	ErrInventoryBounds = errors.New("inventory out of bounds")
)

// LimitExceededError reports the open-loan count that hit the category cap.
type LimitExceededError struct {
	Category Category
	Current  int
	Max      int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s: %s loans open %d, maximum %d", ErrLimitExceeded, e.Category, e.Current, e.Max)
}

func (e *LimitExceededError) Unwrap() error {
	return ErrLimitExceeded
}

// IsRetryable reports whether err is worth a fresh attempt of the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
