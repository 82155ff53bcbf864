package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/table-order-app/kds"
	"github.com/yeremiapane/table-order-app/models"
	"github.com/yeremiapane/table-order-app/repository"
	"github.com/yeremiapane/table-order-app/utils"
)

// MenuInput is the writable part of a menu item. A nil IsAvailable means
// "available" on create and "unchanged" on update.
type MenuInput struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	IsAvailable *bool           `json:"is_available"`
}

type MenuCatalog struct {
	store      repository.Store
	events     EventPublisher
	categories []string
}

func NewMenuCatalog(store repository.Store, events EventPublisher, categories []string) *MenuCatalog {
	if len(categories) == 0 {
		categories = models.DefaultCategories
	}
	return &MenuCatalog{store: store, events: publisherOrNoop(events), categories: categories}
}

// Categories returns the configured categories in display order.
func (m *MenuCatalog) Categories() []string {
	return append([]string(nil), m.categories...)
}

// canonicalCategory matches case-insensitively and returns the configured
// spelling.
func (m *MenuCatalog) canonicalCategory(category string) (string, bool) {
	category = strings.TrimSpace(category)
	for _, c := range m.categories {
		if strings.EqualFold(c, category) {
			return c, true
		}
	}
	return "", false
}

func (m *MenuCatalog) validate(in MenuInput) (MenuInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, invalid("name", "is required")
	}
	category, ok := m.canonicalCategory(in.Category)
	if !ok {
		return in, invalid("category", "must be one of "+strings.Join(m.categories, ", "))
	}
	in.Category = category
	if !in.Price.IsPositive() {
		return in, invalid("price", "must be greater than zero")
	}
	in.Price = in.Price.Round(2)
	in.Description = strings.TrimSpace(in.Description)
	return in, nil
}

func (m *MenuCatalog) Create(ctx context.Context, in MenuInput) (*models.MenuItem, error) {
	in, err := m.validate(in)
	if err != nil {
		return nil, err
	}
	item := &models.MenuItem{
		Name:        in.Name,
		Category:    in.Category,
		Price:       in.Price,
		Description: in.Description,
		IsAvailable: in.IsAvailable == nil || *in.IsAvailable,
	}
	if err := m.store.Menus().Create(ctx, item); err != nil {
		return nil, err
	}
	utils.InfoLogger.WithField("menu", item.Name).Info("Menu item created")
	m.events.Publish(kds.Event{Type: kds.EventMenuChanged})
	return item, nil
}

func (m *MenuCatalog) Get(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := m.store.Menus().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrMenuItemNotFound
	}
	return item, err
}

// List filters by category (empty for all) and optionally hides unavailable
// items.
func (m *MenuCatalog) List(ctx context.Context, category string, availableOnly bool) ([]models.MenuItem, error) {
	filter := repository.MenuFilter{AvailableOnly: availableOnly}
	if strings.TrimSpace(category) != "" {
		canonical, ok := m.canonicalCategory(category)
		if !ok {
			return nil, invalid("category", "unknown category")
		}
		filter.Category = canonical
	}
	return m.store.Menus().List(ctx, filter)
}

func (m *MenuCatalog) ListAvailable(ctx context.Context, category string) ([]models.MenuItem, error) {
	return m.List(ctx, category, true)
}

func (m *MenuCatalog) ListAll(ctx context.Context, category string) ([]models.MenuItem, error) {
	return m.List(ctx, category, false)
}

// Update replaces the writable fields. Existing order lines are untouched;
// totals pick up a new price at read time.
func (m *MenuCatalog) Update(ctx context.Context, id string, in MenuInput) (*models.MenuItem, error) {
	in, err := m.validate(in)
	if err != nil {
		return nil, err
	}
	item, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Name = in.Name
	item.Category = in.Category
	item.Price = in.Price
	item.Description = in.Description
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}
	if err := m.store.Menus().Update(ctx, item); err != nil {
		return nil, err
	}
	m.events.Publish(kds.Event{Type: kds.EventMenuChanged})
	return item, nil
}

func (m *MenuCatalog) SetAvailability(ctx context.Context, id string, available bool) (*models.MenuItem, error) {
	err := m.store.Menus().SetAvailability(ctx, id, available)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, err
	}
	m.events.Publish(kds.Event{Type: kds.EventMenuChanged})
	return m.Get(ctx, id)
}

// Delete refuses while any order line references the item.
func (m *MenuCatalog) Delete(ctx context.Context, id string) error {
	err := m.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Menus().FindByID(ctx, id); err != nil {
			return err
		}
		referenced, err := tx.Menus().IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return ErrMenuItemInUse
		}
		return tx.Menus().Delete(ctx, id)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrMenuItemNotFound
	}
	if err != nil {
		return err
	}
	m.events.Publish(kds.Event{Type: kds.EventMenuChanged})
	return nil
}
