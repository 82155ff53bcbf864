package repository

import (
	"context"

	"github.com/yeremiapane/table-order-app/models"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) ListByOrder(ctx context.Context, orderID string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&users).Error
	return users, translate(err)
}
