// Package repository is the record-store boundary: every read and write the
// services make goes through these interfaces.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yeremiapane/table-order-app/models"
)

// ErrNotFound is returned when a lookup by key matches nothing.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

type TableRepository interface {
	Create(ctx context.Context, table *models.Table) error
	FindByID(ctx context.Context, id string) (*models.Table, error)
	FindByNumber(ctx context.Context, number string) (*models.Table, error)
	ListAll(ctx context.Context) ([]models.Table, error)
	UpdateNumber(ctx context.Context, id, number string) error
	// Delete removes the table together with its orders and their items.
	Delete(ctx context.Context, id string) error

	// Lock applies only while the table is unlocked and reports whether it did.
	Lock(ctx context.Context, id, code string) (bool, error)
	// Relock replaces the code of a table that is still locked with
	// expectedCode ("" matches a missing code) and reports whether it applied.
	Relock(ctx context.Context, id, expectedCode, code string) (bool, error)
	// ForceLock overwrites whatever lock state is stored.
	ForceLock(ctx context.Context, id, code string) error
	// Unlock applies only while the table still holds code.
	Unlock(ctx context.Context, id, code string) (bool, error)
	ForceUnlock(ctx context.Context, id string) error
}

// MenuFilter narrows List. Zero values mean no filter.
type MenuFilter struct {
	Category      string
	AvailableOnly bool
}

type MenuRepository interface {
	Create(ctx context.Context, item *models.MenuItem) error
	FindByID(ctx context.Context, id string) (*models.MenuItem, error)
	List(ctx context.Context, filter MenuFilter) ([]models.MenuItem, error)
	Update(ctx context.Context, item *models.MenuItem) error
	SetAvailability(ctx context.Context, id string, available bool) error
	Delete(ctx context.Context, id string) error
	IsReferenced(ctx context.Context, id string) (bool, error)
}

// OrderFilter drives Search. CreatedFrom is inclusive, CreatedTo exclusive.
type OrderFilter struct {
	TableNumber  string
	MobileNumber string
	OrderCode    string
	Status       models.OrderStatus
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	// FindDetailed preloads the table and the items with their menu items.
	FindDetailed(ctx context.Context, id string) (*models.Order, error)
	// FindActiveByTable returns the most recent non-served order of a table.
	FindActiveByTable(ctx context.Context, tableID string) (*models.Order, error)
	// FindActiveByCode returns the most recent non-served order carrying code.
	FindActiveByCode(ctx context.Context, code string) (*models.Order, error)
	CountActiveByTable(ctx context.Context, tableID, excludeOrderID string) (int64, error)
	CodeInUse(ctx context.Context, code string) (bool, error)
	// ListActive returns non-served orders, oldest first, fully loaded.
	ListActive(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)

	// UpsertItem inserts the line or adds quantity to the existing one in a
	// single statement keyed on (order, menu item).
	UpsertItem(ctx context.Context, orderID, menuItemID string, quantity int) (*models.OrderItem, error)
	FindItem(ctx context.Context, itemID string) (*models.OrderItem, error)
	SetItemQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteItem(ctx context.Context, itemID string) error
	CountItems(ctx context.Context, orderID string) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	ListByOrder(ctx context.Context, orderID string) ([]models.User, error)
}

// Store hands out repositories bound to one connection or transaction.
type Store interface {
	Tables() TableRepository
	Menus() MenuRepository
	Orders() OrderRepository
	Users() UserRepository

	// WithTx runs fn against a transactional Store. A non-nil error from fn
	// rolls back every write fn made.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
