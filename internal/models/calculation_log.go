package models

import (
	"encoding/json"
	"time"
)

// CalculationLog records the computed amounts of one lifecycle event
// together with the exact configuration values that produced them, so a
// later rule change never reinterprets a past transaction.
type CalculationLog struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	TransactionID  uint            `gorm:"not null;index" json:"transaction_id"`
	TrackingNumber string          `gorm:"size:40;not null;index" json:"tracking_number"`
	InterestAmount float64         `gorm:"type:decimal(12,2);not null" json:"interest_amount"`
	PenaltyAmount  float64         `gorm:"type:decimal(12,2);not null" json:"penalty_amount"`
	ServiceCharge  float64         `gorm:"type:decimal(12,2);not null" json:"service_charge"`
	TotalAmount    float64         `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	ConfigSnapshot json.RawMessage `gorm:"type:jsonb;not null" json:"config_snapshot"`
	CreatedAt      time.Time       `json:"created_at"`

	// Associations
	Transaction *PawnTransaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
}

// TableName specifies the table name for CalculationLog
func (CalculationLog) TableName() string {
	return "calculation_logs"
}
