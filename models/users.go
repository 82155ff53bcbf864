package models

import (
	"time"

	"github.com/yeremiapane/table-order-app/codegen"
	"gorm.io/gorm"
)

// User records the contact number a guest gave when joining a session.
// OrderID is informational only and carries no foreign key.
type User struct {
	ID           string    `gorm:"type:varchar(32);primaryKey" json:"id"`
	MobileNumber string    `gorm:"type:varchar(20);not null;index" json:"mobile_number"`
	OrderID      string    `gorm:"type:varchar(32);index" json:"order_id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = codegen.NewID()
	}
	return nil
}
