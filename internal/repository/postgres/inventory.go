package postgres

import (
	"context"
	"fmt"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/logger"
	"github.com/barneeyyu/library-server/internal/repository"
)

type inventoryRepository struct {
	db DBTX
}

func NewInventoryRepository(db DBTX) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) GetByID(ctx context.Context, id int32) (*domain.InventoryRecord, error) {
	inv := &domain.InventoryRecord{}
	query := `SELECT id, book_id, branch_id, total_copies, available_copies, status, version FROM inventory_records WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&inv.ID, &inv.BookID, &inv.BranchID, &inv.TotalCopies, &inv.AvailableCopies, &inv.Status, &inv.Version)
	if err != nil {
		return nil, fmt.Errorf("loading inventory record %d: %w", id, translateError(err))
	}
	return inv, nil
}

func (r *inventoryRepository) UpdateAvailability(ctx context.Context, id, delta, expectedVersion int32) error {
	query := `UPDATE inventory_records
	          SET available_copies = available_copies + $1, version = version + 1, updated_at = NOW()
	          WHERE id = $2 AND version = $3`
	logger.DatabaseCall("inventory.UpdateAvailability", query, "inventoryID", id, "delta", delta, "expectedVersion", expectedVersion)

	res, err := r.db.ExecContext(ctx, query, delta, id, expectedVersion)
	if err != nil {
		logger.DatabaseResult("inventory.UpdateAvailability", 0, err)
		return fmt.Errorf("updating inventory record %d: %w", id, translateError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating inventory record %d: %w", id, err)
	}
	logger.DatabaseResult("inventory.UpdateAvailability", n, nil, "inventoryID", id)

	if n == 0 {
		return fmt.Errorf("inventory record %d no longer at version %d: %w", id, expectedVersion, domain.ErrConflict)
	}
	return nil
}
