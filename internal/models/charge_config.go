package models

import (
	"time"
)

// ChargeConfigEntry is one versioned row of keyed charge configuration.
// History is never edited in place: a rule change is a new row with a later
// effective date, so past calculations stay reproducible.
type ChargeConfigEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Key           string    `gorm:"size:60;not null;index" json:"key"`
	Value         float64   `gorm:"type:decimal(12,6);not null" json:"value"`
	Description   *string   `json:"description"`
	IsActive      bool      `gorm:"default:true;index" json:"is_active"`
	EffectiveDate time.Time `gorm:"not null;index" json:"effective_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for ChargeConfigEntry
func (ChargeConfigEntry) TableName() string {
	return "charge_config_entries"
}

// Charge configuration keys
const (
	ConfigKeyMonthlyInterestRate       = "monthly_interest_rate"
	ConfigKeyMonthlyPenaltyRate        = "monthly_penalty_rate"
	ConfigKeyGracePeriodDays           = "grace_period_days"
	ConfigKeyDailyPenaltyThresholdDays = "daily_penalty_threshold_days"
	ConfigKeyMaxPenaltyMultiplier      = "max_penalty_multiplier"
	ConfigKeyMaturityPeriodDays        = "maturity_period_days"
	ConfigKeyExpiryPeriodDays          = "expiry_period_days"
)

// ServiceChargeBracket maps a principal range to a flat service charge.
// MaxAmount nil means the bracket is unbounded above.
type ServiceChargeBracket struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:60;not null" json:"name"`
	MinAmount    float64   `gorm:"type:decimal(12,2);not null" json:"min_amount"`
	MaxAmount    *float64  `gorm:"type:decimal(12,2)" json:"max_amount"`
	Charge       float64   `gorm:"type:decimal(12,2);not null" json:"charge"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for ServiceChargeBracket
func (ServiceChargeBracket) TableName() string {
	return "service_charge_brackets"
}

// Contains reports whether principal falls inside the bracket.
// MaxAmount is inclusive, so a boundary principal belongs to the lower bracket.
func (b *ServiceChargeBracket) Contains(principal float64) bool {
	if principal < b.MinAmount {
		return false
	}
	return b.MaxAmount == nil || principal <= *b.MaxAmount
}
