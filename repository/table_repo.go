package repository

import (
	"context"
	"time"

	"github.com/yeremiapane/table-order-app/models"
	"gorm.io/gorm"
)

type tableRepository struct {
	db *gorm.DB
}

func (r *tableRepository) Create(ctx context.Context, table *models.Table) error {
	return translate(r.db.WithContext(ctx).Create(table).Error)
}

func (r *tableRepository) FindByID(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&table).Error; err != nil {
		return nil, translate(err)
	}
	return &table, nil
}

func (r *tableRepository) FindByNumber(ctx context.Context, number string) (*models.Table, error) {
	var table models.Table
	if err := r.db.WithContext(ctx).Where("table_number = ?", number).First(&table).Error; err != nil {
		return nil, translate(err)
	}
	return &table, nil
}

func (r *tableRepository) ListAll(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := r.db.WithContext(ctx).Order("table_number ASC").Find(&tables).Error
	return tables, translate(err)
}

func (r *tableRepository) UpdateNumber(ctx context.Context, id, number string) error {
	res := r.db.WithContext(ctx).Model(&models.Table{}).Where("id = ?", id).
		Updates(map[string]interface{}{"table_number": number, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	orderIDs := db.Model(&models.Order{}).Select("id").Where("table_id = ?", id)
	if err := db.Where("order_id IN (?)", orderIDs).Delete(&models.OrderItem{}).Error; err != nil {
		return translate(err)
	}
	if err := db.Where("table_id = ?", id).Delete(&models.Order{}).Error; err != nil {
		return translate(err)
	}
	res := db.Where("id = ?", id).Delete(&models.Table{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) Lock(ctx context.Context, id, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND locked = ?", id, false).
		Updates(map[string]interface{}{
			"locked":           true,
			"active_join_code": code,
			"updated_at":       time.Now().UTC(),
		})
	return res.RowsAffected == 1, translate(res.Error)
}

func (r *tableRepository) Relock(ctx context.Context, id, expectedCode, code string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Table{}).Where("id = ? AND locked = ?", id, true)
	if expectedCode == "" {
		q = q.Where("(active_join_code IS NULL OR active_join_code = '')")
	} else {
		q = q.Where("active_join_code = ?", expectedCode)
	}
	res := q.Updates(map[string]interface{}{
		"active_join_code": code,
		"updated_at":       time.Now().UTC(),
	})
	return res.RowsAffected == 1, translate(res.Error)
}

func (r *tableRepository) ForceLock(ctx context.Context, id, code string) error {
	return translate(r.db.WithContext(ctx).Model(&models.Table{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"locked":           true,
			"active_join_code": code,
			"updated_at":       time.Now().UTC(),
		}).Error)
}

func (r *tableRepository) Unlock(ctx context.Context, id, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND active_join_code = ?", id, code).
		Updates(map[string]interface{}{
			"locked":           false,
			"active_join_code": nil,
			"updated_at":       time.Now().UTC(),
		})
	return res.RowsAffected == 1, translate(res.Error)
}

func (r *tableRepository) ForceUnlock(ctx context.Context, id string) error {
	return translate(r.db.WithContext(ctx).Model(&models.Table{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"locked":           false,
			"active_join_code": nil,
			"updated_at":       time.Now().UTC(),
		}).Error)
}
