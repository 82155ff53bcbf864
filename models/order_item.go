package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/table-order-app/codegen"
	"gorm.io/gorm"
)

// OrderItem is a line item. (OrderID, MenuItemID) is unique: adding the same
// dish again bumps Quantity instead of inserting a row.
type OrderItem struct {
	ID      string `gorm:"type:varchar(32);primaryKey" json:"id"`
	OrderID string `gorm:"type:varchar(32);not null;uniqueIndex:idx_order_items_order_menu" json:"order_id"`
	// Omitted from JSON to avoid recursive nesting
	Order      *Order    `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_order_items_order_menu" json:"menu_item_id"`
	MenuItem   *MenuItem `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item,omitempty"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = codegen.NewID()
	}
	return nil
}

// Subtotal is quantity times the current menu price.
func (i *OrderItem) Subtotal() decimal.Decimal {
	if i.MenuItem == nil {
		return decimal.Zero
	}
	return i.MenuItem.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
