package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/repository"

	"github.com/hashicorp/go-memdb"
)

const (
	tableBorrower  = "borrower"
	tableBook      = "book"
	tableBranch    = "branch"
	tableInventory = "inventory"
	tableLoan      = "loan"
)

func schema() *memdb.DBSchema {
	byID := func() map[string]*memdb.IndexSchema {
		return map[string]*memdb.IndexSchema{
			"id": {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
		}
	}
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableBorrower: {Name: tableBorrower, Indexes: byID()},
			tableBook:     {Name: tableBook, Indexes: byID()},
			tableBranch:   {Name: tableBranch, Indexes: byID()},
			tableInventory: {
				Name: tableInventory,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
					"book_branch": {
						Name:   "book_branch",
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.IntFieldIndex{Field: "BookID"},
								&memdb.IntFieldIndex{Field: "BranchID"},
							},
						},
					},
				},
			},
			tableLoan: {
				Name: tableLoan,
				Indexes: map[string]*memdb.IndexSchema{
					"id":       {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
					"borrower": {Name: "borrower", Indexer: &memdb.IntFieldIndex{Field: "BorrowerID"}},
					"status":   {Name: "status", Indexer: &memdb.StringFieldIndex{Field: "Status"}},
				},
			},
		},
	}
}

// Store keeps circulation data in go-memdb. Reads see the last committed
// state; writes made inside WithinTx are staged and re-validated under the
// single memdb writer when the unit of work commits, which gives the same
// optimistic outcome as a version-guarded SQL update.
type Store struct {
	db     *memdb.MemDB
	loanID atomic.Int32
}

func NewStore() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize in-memory database: %w", err)
	}
	return &Store{db: db}, nil
}

type op func(txn *memdb.Txn) error

type unitOfWork struct {
	ops []op
}

func (s *Store) Repositories() repository.Repositories {
	return s.repositories(nil)
}

func (s *Store) repositories(uow *unitOfWork) repository.Repositories {
	return repository.Repositories{
		Catalog:   &catalogRepository{s: s},
		Inventory: &inventoryRepository{s: s, uow: uow},
		Loans:     &loanRepository{s: s, uow: uow},
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	uow := &unitOfWork{}
	if err := fn(s.repositories(uow)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(uow.ops...)
}

// stage defers o to the unit of work, or applies it at once outside one.
func (s *Store) stage(uow *unitOfWork, o op) error {
	if uow != nil {
		uow.ops = append(uow.ops, o)
		return nil
	}
	return s.commit(o)
}

func (s *Store) commit(ops ...op) error {
	if len(ops) == 0 {
		return nil
	}
	txn := s.db.Txn(true)
	for _, o := range ops {
		if err := o(txn); err != nil {
			txn.Abort()
			return err
		}
	}
	txn.Commit()
	return nil
}

func (s *Store) insert(table string, obj any) error {
	txn := s.db.Txn(true)
	if err := txn.Insert(table, obj); err != nil {
		txn.Abort()
		return fmt.Errorf("inserting into %s: %w", table, err)
	}
	txn.Commit()
	return nil
}

func (s *Store) AddBorrower(b domain.Borrower) error { return s.insert(tableBorrower, &b) }

func (s *Store) AddBook(b domain.Book) error { return s.insert(tableBook, &b) }

func (s *Store) AddBranch(b domain.Branch) error { return s.insert(tableBranch, &b) }

func (s *Store) AddInventory(r domain.InventoryRecord) error { return s.insert(tableInventory, &r) }

// AddLoan stores a loan as is. A zero ID is replaced with the next free one.
func (s *Store) AddLoan(l domain.Loan) (int32, error) {
	if l.ID == 0 {
		l.ID = s.loanID.Add(1)
	} else {
		for {
			cur := s.loanID.Load()
			if l.ID <= cur || s.loanID.CompareAndSwap(cur, l.ID) {
				break
			}
		}
	}
	return l.ID, s.insert(tableLoan, &l)
}

func first[T any](txn *memdb.Txn, table string, id int32) (*T, error) {
	raw, err := txn.First(table, "id", id)
	if err != nil {
		return nil, fmt.Errorf("reading %s %d: %w", table, id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s %d: %w", table, id, domain.ErrNotFound)
	}
	v := *raw.(*T)
	return &v, nil
}
