package memory

import (
	"context"
	"fmt"

	"github.com/barneeyyu/library-server/internal/domain"

	"github.com/hashicorp/go-memdb"
)

type inventoryRepository struct {
	s   *Store
	uow *unitOfWork
}

func (r *inventoryRepository) GetByID(ctx context.Context, id int32) (*domain.InventoryRecord, error) {
	return first[domain.InventoryRecord](r.s.db.Txn(false), tableInventory, id)
}

func (r *inventoryRepository) UpdateAvailability(ctx context.Context, id, delta, expectedVersion int32) error {
	// Fail early against committed state, as the SQL update would.
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("inventory record %d no longer at version %d: %w", id, expectedVersion, domain.ErrConflict)
	}

	return r.s.stage(r.uow, func(txn *memdb.Txn) error {
		inv, err := first[domain.InventoryRecord](txn, tableInventory, id)
		if err != nil {
			return err
		}
		if inv.Version != expectedVersion {
			return fmt.Errorf("inventory record %d no longer at version %d: %w", id, expectedVersion, domain.ErrConflict)
		}
		next, err := inv.Adjusted(delta)
		if err != nil {
			return err
		}
		inv.AvailableCopies = next
		inv.Version++
		return txn.Insert(tableInventory, inv)
	})
}
