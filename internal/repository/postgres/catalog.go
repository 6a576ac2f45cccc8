package postgres

import (
	"context"
	"fmt"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/repository"
)

type catalogRepository struct {
	db DBTX
}

func NewCatalogRepository(db DBTX) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetBook(ctx context.Context, id int32) (*domain.Book, error) {
	b := &domain.Book{}
	query := `SELECT id, title, author, COALESCE(isbn, ''), COALESCE(publisher, ''), category FROM books WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Publisher, &b.Category)
	if err != nil {
		return nil, fmt.Errorf("loading book %d: %w", id, translateError(err))
	}
	return b, nil
}

func (r *catalogRepository) GetBranch(ctx context.Context, id int32) (*domain.Branch, error) {
	br := &domain.Branch{}
	query := `SELECT id, name, COALESCE(address, ''), active FROM branches WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&br.ID, &br.Name, &br.Address, &br.Active)
	if err != nil {
		return nil, fmt.Errorf("loading branch %d: %w", id, translateError(err))
	}
	return br, nil
}
