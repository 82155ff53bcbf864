package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/table-order-app/codegen"
	"gorm.io/gorm"
)

// Order is one kitchen ticket. JoinCode is copied from the table when the
// ticket is created and never changes, even after the table is reused.
type Order struct {
	ID           string      `gorm:"type:varchar(32);primaryKey" json:"id"`
	TableID      string      `gorm:"type:varchar(32);not null;index:idx_orders_table_status" json:"table_id"`
	Table        *Table      `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"table,omitempty"`
	JoinCode     string      `gorm:"type:varchar(6);not null;index:idx_orders_code_status" json:"join_code"`
	Status       OrderStatus `gorm:"type:varchar(20);not null;default:'Pending';index:idx_orders_table_status;index:idx_orders_code_status" json:"status"`
	MobileNumber string      `gorm:"type:varchar(20);index" json:"mobile_number"`
	Items        []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt    time.Time   `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null" json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = codegen.NewID()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return nil
}

// IsActive is true until the order is served.
func (o *Order) IsActive() bool {
	return !o.Status.IsTerminal()
}

// ItemCount sums the quantities of the loaded items.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Total prices the loaded items at their current menu price. Items whose menu
// item was not preloaded count as zero.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total.Round(2)
}
