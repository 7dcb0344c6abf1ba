package models

import (
	"time"
)

// PawnItem represents a pledged item held against a pawn loan
type PawnItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TransactionID  uint      `gorm:"not null;index" json:"transaction_id"`
	TrackingNumber string    `gorm:"size:40;not null;index" json:"tracking_number"`
	Description    string    `gorm:"size:255;not null" json:"description"`
	Category       *string   `gorm:"size:60" json:"category"`
	AppraisedValue float64   `gorm:"type:decimal(12,2);not null" json:"appraised_value"`
	LoanAmount     float64   `gorm:"type:decimal(12,2);not null" json:"loan_amount"`
	AuctionPrice   *float64  `gorm:"type:decimal(12,2)" json:"auction_price"`
	Status         string    `gorm:"size:20;default:in_vault;not null;index" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for PawnItem
func (PawnItem) TableName() string {
	return "pawn_items"
}

// Item status constants
const (
	ItemStatusInVault   = "in_vault"
	ItemStatusRedeemed  = "redeemed"
	ItemStatusForfeited = "forfeited"
	ItemStatusSold      = "sold"
)

// MaySell returns true if the item can be sold at auction
func (i *PawnItem) MaySell() bool {
	return i.Status == ItemStatusForfeited
}
