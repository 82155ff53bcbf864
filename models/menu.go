package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/table-order-app/codegen"
	"gorm.io/gorm"
)

// Default menu categories; the list is configurable.
const (
	CategoryStarters = "Starters"
	CategoryMains    = "Mains"
	CategoryDrinks   = "Drinks"
	CategoryDesserts = "Desserts"
)

var DefaultCategories = []string{CategoryStarters, CategoryMains, CategoryDrinks, CategoryDesserts}

// MenuItem is read by order items at display time; price is never snapshotted.
// IsAvailable has no gorm default on purpose: a default would swallow an
// explicit false on insert.
type MenuItem struct {
	ID          string          `gorm:"type:varchar(32);primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Category    string          `gorm:"type:varchar(50);not null;index" json:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Description string          `gorm:"type:text" json:"description"`
	IsAvailable bool            `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (MenuItem) TableName() string { return "menu_items" }

func (m *MenuItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = codegen.NewID()
	}
	return nil
}
