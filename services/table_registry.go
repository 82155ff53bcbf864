package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yeremiapane/table-order-app/kds"
	"github.com/yeremiapane/table-order-app/models"
	"github.com/yeremiapane/table-order-app/repository"
	"github.com/yeremiapane/table-order-app/utils"
)

// TableRegistry manages table records. Lock state is only changed through the
// session protocol, never through Rename.
type TableRegistry struct {
	store  repository.Store
	events EventPublisher
}

func NewTableRegistry(store repository.Store, events EventPublisher) *TableRegistry {
	return &TableRegistry{store: store, events: publisherOrNoop(events)}
}

func normalizeTableNumber(number string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return "", invalid("table_number", "is required")
	}
	if len(number) > 50 {
		return "", invalid("table_number", "must be at most 50 characters")
	}
	return number, nil
}

func (r *TableRegistry) Create(ctx context.Context, number string) (*models.Table, error) {
	number, err := normalizeTableNumber(number)
	if err != nil {
		return nil, err
	}
	table := &models.Table{TableNumber: number}
	if err := r.store.Tables().Create(ctx, table); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("table %s: %w", number, ErrDuplicate)
		}
		return nil, err
	}
	utils.InfoLogger.WithField("table", number).Info("Table created")
	r.events.Publish(kds.Event{Type: kds.EventTableChanged, TableID: table.ID})
	return table, nil
}

func (r *TableRegistry) Get(ctx context.Context, id string) (*models.Table, error) {
	table, err := r.store.Tables().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTableNotFound
	}
	return table, err
}

func (r *TableRegistry) FindByNumber(ctx context.Context, number string) (*models.Table, error) {
	return findTableByNumber(ctx, r.store, strings.TrimSpace(number))
}

func findTableByNumber(ctx context.Context, store repository.Store, number string) (*models.Table, error) {
	table, err := store.Tables().FindByNumber(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("table %s: %w", number, ErrTableNotFound)
	}
	return table, err
}

// List returns all tables ordered by number.
func (r *TableRegistry) List(ctx context.Context) ([]models.Table, error) {
	return r.store.Tables().ListAll(ctx)
}

// Rename changes the table number; locked tables may be renamed.
func (r *TableRegistry) Rename(ctx context.Context, id, number string) (*models.Table, error) {
	number, err := normalizeTableNumber(number)
	if err != nil {
		return nil, err
	}
	err = r.store.Tables().UpdateNumber(ctx, id, number)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrTableNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return nil, fmt.Errorf("table %s: %w", number, ErrDuplicate)
	case err != nil:
		return nil, err
	}
	r.events.Publish(kds.Event{Type: kds.EventTableChanged, TableID: id})
	return r.Get(ctx, id)
}

// Delete removes the table with all of its orders.
func (r *TableRegistry) Delete(ctx context.Context, id string) error {
	err := r.store.WithTx(ctx, func(tx repository.Store) error {
		return tx.Tables().Delete(ctx, id)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTableNotFound
	}
	if err != nil {
		return err
	}
	utils.InfoLogger.WithField("table_id", id).Info("Table deleted")
	r.events.Publish(kds.Event{Type: kds.EventTableChanged, TableID: id})
	return nil
}

// Lock locks an unlocked table with code, or fails with ErrTableLocked.
func (r *TableRegistry) Lock(ctx context.Context, id, code string) error {
	if err := lockTable(ctx, r.store, id, code); err != nil {
		return err
	}
	r.events.Publish(kds.Event{Type: kds.EventTableLocked, TableID: id})
	return nil
}

// Unlock clears the lock if the table still holds code. It reports whether
// anything changed.
func (r *TableRegistry) Unlock(ctx context.Context, id, code string) (bool, error) {
	ok, err := r.store.Tables().Unlock(ctx, id, code)
	if err != nil {
		return false, err
	}
	if ok {
		r.events.Publish(kds.Event{Type: kds.EventTableUnlocked, TableID: id})
	}
	return ok, nil
}

func lockTable(ctx context.Context, store repository.Store, id, code string) error {
	ok, err := store.Tables().Lock(ctx, id, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTableLocked
	}
	return nil
}
