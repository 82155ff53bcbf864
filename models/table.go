package models

import (
	"time"

	"github.com/yeremiapane/table-order-app/codegen"
	"gorm.io/gorm"
)

// Table is a physical table. Locked and ActiveJoinCode always move together:
// a table carries a join code exactly while it is locked for a session.
type Table struct {
	ID             string    `gorm:"type:varchar(32);primaryKey" json:"id"`
	TableNumber    string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"table_number"`
	Locked         bool      `gorm:"not null;default:false" json:"locked"`
	ActiveJoinCode *string   `gorm:"type:varchar(6);index" json:"active_join_code"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = codegen.NewID()
	}
	return nil
}

// HasSession reports whether the table is locked with a join code.
func (t *Table) HasSession() bool {
	return t.Locked && t.ActiveJoinCode != nil && *t.ActiveJoinCode != ""
}

// JoinCode returns the active code or "".
func (t *Table) JoinCode() string {
	if t.ActiveJoinCode == nil {
		return ""
	}
	return *t.ActiveJoinCode
}
