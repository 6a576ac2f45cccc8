package domain

import "fmt"

type CopyStatus string

const (
	CopyStatusActive      CopyStatus = "ACTIVE"
	CopyStatusInactive    CopyStatus = "INACTIVE"
	CopyStatusMaintenance CopyStatus = "MAINTENANCE"
)

// InventoryRecord is the stock of one title at one branch. Version increases
// by one on every successful write and guards concurrent updates.
type InventoryRecord struct {
	ID              int32      `json:"id"`
	BookID          int32      `json:"book_id"`
	BranchID        int32      `json:"branch_id"`
	TotalCopies     int32      `json:"total_copies"`
	AvailableCopies int32      `json:"available_copies"`
	Status          CopyStatus `json:"status"`
	Version         int32      `json:"version"`
}

// Adjusted returns the available count after applying delta, or
// ErrInventoryBounds if the result would leave [0, TotalCopies].
func (r *InventoryRecord) Adjusted(delta int32) (int32, error) {
	next := r.AvailableCopies + delta
	if next < 0 || next > r.TotalCopies {
		return r.AvailableCopies, fmt.Errorf("%w: inventory %d would hold %d of %d copies",
			ErrInventoryBounds, r.ID, next, r.TotalCopies)
	}
	return next, nil
}
