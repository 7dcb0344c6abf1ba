package models

import (
	"time"
)

// Branch represents a pawnshop branch office
type Branch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:10;not null;uniqueIndex" json:"code"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Address   *string   `json:"address"`
	Phone     *string   `gorm:"size:20" json:"phone"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Branch
func (Branch) TableName() string {
	return "branches"
}
