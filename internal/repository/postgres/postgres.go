package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/barneeyyu/library-server/internal/logger"
	"github.com/barneeyyu/library-server/internal/repository"

	_ "github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db    *sql.DB
	repos repository.Repositories
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repos: bindRepositories(db)}
}

func bindRepositories(db DBTX) repository.Repositories {
	return repository.Repositories{
		Catalog:   NewCatalogRepository(db),
		Inventory: NewInventoryRepository(db),
		Loans:     NewLoanRepository(db),
	}
}

func (s *Store) Repositories() repository.Repositories {
	return s.repos
}

// WithinTx runs fn against repositories bound to a single transaction. The
// transaction commits only if fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(bindRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Transaction commit failed", "error", err)
		return fmt.Errorf("committing transaction: %w", translateError(err))
	}
	return nil
}
