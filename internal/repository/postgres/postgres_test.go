package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/repository"
	"github.com/barneeyyu/library-server/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithinTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := postgres.NewStore(db)
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE inventory_records").
			WithArgs(int32(1), int32(7), int32(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithinTx(ctx, func(repos repository.Repositories) error {
			return repos.Inventory.UpdateAvailability(ctx, 7, 1, 2)
		})
		assert.NoError(t, err)
	})

	t.Run("Rollback On Conflict", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE loans").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE inventory_records").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(repos repository.Repositories) error {
			if err := repos.Loans.MarkReturned(ctx, 11, testDay); err != nil {
				return err
			}
			return repos.Inventory.UpdateAvailability(ctx, 7, 1, 2)
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("Begin Failure", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		err := store.WithinTx(ctx, func(repos repository.Repositories) error {
			t.Fatal("callback must not run")
			return nil
		})
		assert.ErrorContains(t, err, "beginning transaction")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
