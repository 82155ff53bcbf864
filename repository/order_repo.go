package repository

import (
	"context"
	"time"

	"github.com/yeremiapane/table-order-app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

// withDetails preloads everything a surface needs to render an order.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Table").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.created_at ASC")
		}).
		Preload("Items.MenuItem")
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error)
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) FindDetailed(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := withDetails(r.db.WithContext(ctx)).Where("orders.id = ?", id).First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) FindActiveByTable(ctx context.Context, tableID string) (*models.Order, error) {
	var order models.Order
	err := withDetails(r.db.WithContext(ctx)).
		Where("orders.table_id = ? AND orders.status <> ?", tableID, models.OrderStatusServed).
		Order("orders.created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) FindActiveByCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := withDetails(r.db.WithContext(ctx)).
		Where("orders.join_code = ? AND orders.status <> ?", code, models.OrderStatusServed).
		Order("orders.created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) CountActiveByTable(ctx context.Context, tableID, excludeOrderID string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("table_id = ? AND status <> ?", tableID, models.OrderStatusServed)
	if excludeOrderID != "" {
		q = q.Where("id <> ?", excludeOrderID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, translate(err)
}

func (r *orderRepository) CodeInUse(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("join_code = ? AND status <> ?", code, models.OrderStatusServed).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	if count > 0 {
		return true, nil
	}
	// A locked table without a live order still owns its code.
	err = r.db.WithContext(ctx).Model(&models.Table{}).Where("active_join_code = ?", code).Count(&count).Error
	return count > 0, translate(err)
}

func (r *orderRepository) ListActive(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := withDetails(r.db.WithContext(ctx)).
		Where("orders.status <> ?", models.OrderStatusServed).
		Order("orders.created_at ASC").
		Find(&orders).Error
	return orders, translate(err)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return translate(err)
	}
	res := db.Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) applyFilter(q *gorm.DB, f OrderFilter) *gorm.DB {
	if f.TableNumber != "" {
		tableIDs := r.db.Model(&models.Table{}).Select("id").Where("table_number = ?", f.TableNumber)
		q = q.Where("orders.table_id IN (?)", tableIDs)
	}
	if f.MobileNumber != "" {
		q = q.Where("orders.mobile_number = ?", f.MobileNumber)
	}
	if f.OrderCode != "" {
		q = q.Where("orders.join_code = ?", f.OrderCode)
	}
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	if f.CreatedFrom != nil {
		q = q.Where("orders.created_at >= ?", f.CreatedFrom.UTC())
	}
	if f.CreatedTo != nil {
		q = q.Where("orders.created_at < ?", f.CreatedTo.UTC())
	}
	return q
}

func (r *orderRepository) Search(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	var total int64
	countQ := r.applyFilter(r.db.WithContext(ctx).Model(&models.Order{}), f)
	if err := countQ.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var orders []models.Order
	q := r.applyFilter(withDetails(r.db.WithContext(ctx)).Model(&models.Order{}), f)
	// id sebagai tiebreak agar paging stabil
	err := q.Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return orders, total, nil
}

// quantityExpr references the stored quantity inside the upsert. Postgres
// needs the column qualified because EXCLUDED is in scope too.
func (r *orderRepository) quantityExpr(quantity int) clause.Expr {
	if r.db.Dialector.Name() == "postgres" {
		return gorm.Expr("order_items.quantity + ?", quantity)
	}
	return gorm.Expr("quantity + ?", quantity)
}

func (r *orderRepository) UpsertItem(ctx context.Context, orderID, menuItemID string, quantity int) (*models.OrderItem, error) {
	db := r.db.WithContext(ctx)
	item := models.OrderItem{OrderID: orderID, MenuItemID: menuItemID, Quantity: quantity}
	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}, {Name: "menu_item_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   r.quantityExpr(quantity),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, translate(err)
	}

	var stored models.OrderItem
	if err := db.Preload("MenuItem").
		Where("order_id = ? AND menu_item_id = ?", orderID, menuItemID).
		First(&stored).Error; err != nil {
		return nil, translate(err)
	}
	return &stored, nil
}

func (r *orderRepository) FindItem(ctx context.Context, itemID string) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.WithContext(ctx).Preload("MenuItem").Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *orderRepository) SetItemQuantity(ctx context.Context, itemID string, quantity int) error {
	res := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("id = ?", itemID).
		Updates(map[string]interface{}{"quantity": quantity, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) DeleteItem(ctx context.Context, itemID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.OrderItem{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) CountItems(ctx context.Context, orderID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&count).Error
	return count, translate(err)
}
