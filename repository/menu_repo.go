package repository

import (
	"context"
	"time"

	"github.com/yeremiapane/table-order-app/models"
	"gorm.io/gorm"
)

type menuRepository struct {
	db *gorm.DB
}

func (r *menuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

func (r *menuRepository) FindByID(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *menuRepository) List(ctx context.Context, filter MenuFilter) ([]models.MenuItem, error) {
	q := r.db.WithContext(ctx).Model(&models.MenuItem{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.AvailableOnly {
		q = q.Where("is_available = ?", true)
	}
	var items []models.MenuItem
	err := q.Order("category ASC").Order("name ASC").Find(&items).Error
	return items, translate(err)
}

// Update writes every column, so an explicit IsAvailable=false sticks.
func (r *menuRepository) Update(ctx context.Context, item *models.MenuItem) error {
	return translate(r.db.WithContext(ctx).Save(item).Error)
}

func (r *menuRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	res := r.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_available": available, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *menuRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MenuItem{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *menuRepository) IsReferenced(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Count(&count).Error
	return count > 0, translate(err)
}
