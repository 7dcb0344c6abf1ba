package models

import (
	"time"
)

// Pawner represents a pawnshop customer
type Pawner struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:100;not null" json:"first_name"`
	LastName  string    `gorm:"size:100;not null" json:"last_name"`
	Identity  string    `gorm:"size:40;uniqueIndex" json:"identity"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   *string   `json:"address"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Pawner
func (Pawner) TableName() string {
	return "pawners"
}

// FullName returns the pawner's display name
func (p *Pawner) FullName() string {
	return p.FirstName + " " + p.LastName
}
