package repositories

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleWrite is returned when a conditional write matched no row
	// because the stored state moved on since it was read.
	ErrStaleWrite = errors.New("stale write")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the persistence boundary of the core. Repositories obtained from a
// Store passed to a Transaction callback share that transaction.
type Store interface {
	Accounts() AccountRepository
	Foods() FoodRepository
	Carts() CartRepository
	Orders() OrderRepository
	Reviews() ReviewRepository
	Addresses() AddressRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
