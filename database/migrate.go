package database

import (
	"github.com/yeremiapane/table-order-app/models"
	"github.com/yeremiapane/table-order-app/utils"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Table{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.User{},
	}
}

// Migrate creates or updates the schema, including the unique index on
// (order_id, menu_item_id) that the item upsert relies on.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}

	// Verifikasi index yang dibutuhkan oleh upsert
	if !db.Migrator().HasIndex(&models.OrderItem{}, "idx_order_items_order_menu") {
		if err := db.Migrator().CreateIndex(&models.OrderItem{}, "idx_order_items_order_menu"); err != nil {
			return err
		}
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
