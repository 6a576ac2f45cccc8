package memory

import (
	"context"

	"github.com/barneeyyu/library-server/internal/domain"
)

type catalogRepository struct {
	s *Store
}

func (r *catalogRepository) GetBook(ctx context.Context, id int32) (*domain.Book, error) {
	return first[domain.Book](r.s.db.Txn(false), tableBook, id)
}

func (r *catalogRepository) GetBranch(ctx context.Context, id int32) (*domain.Branch, error) {
	return first[domain.Branch](r.s.db.Txn(false), tableBranch, id)
}
