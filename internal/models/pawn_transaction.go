package models

import (
	"time"
)

// PawnTransaction is one event in a pawn loan's lifecycle chain. Rows are
// immutable once written; each lifecycle event appends a child row pointing
// at the previous tail, and all rows of one loan share a tracking number.
// The unique index on ParentTransactionID guarantees at most one child per
// row, so a racing append that slips past the tail lock fails at insert
// instead of forking the chain.
type PawnTransaction struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	TicketNumber        string    `gorm:"size:40;not null;uniqueIndex" json:"ticket_number"`
	TrackingNumber      string    `gorm:"size:40;not null;index" json:"tracking_number"`
	ParentTransactionID *uint     `gorm:"uniqueIndex" json:"parent_transaction_id"`
	RequestID           *string   `gorm:"size:64;uniqueIndex" json:"request_id,omitempty"`
	BranchID            uint      `gorm:"not null;index" json:"branch_id"`
	PawnerID            uint      `gorm:"not null;index" json:"pawner_id"`
	TransactionType     string    `gorm:"size:20;not null;index" json:"transaction_type"`
	PrincipalAmount     float64   `gorm:"type:decimal(12,2);not null" json:"principal_amount"`
	NewPrincipalLoan    *float64  `gorm:"type:decimal(12,2)" json:"new_principal_loan"`
	Balance             float64   `gorm:"type:decimal(12,2);not null" json:"balance"`
	AmountPaid          float64   `gorm:"type:decimal(12,2);default:0" json:"amount_paid"`
	InterestRate        float64   `gorm:"type:decimal(8,6);not null" json:"interest_rate"`
	InterestAmount      float64   `gorm:"type:decimal(12,2);default:0" json:"interest_amount"`
	PenaltyAmount       float64   `gorm:"type:decimal(12,2);default:0" json:"penalty_amount"`
	ServiceCharge       float64   `gorm:"type:decimal(12,2);default:0" json:"service_charge"`
	Status              string    `gorm:"size:20;default:active;not null;index" json:"status"`
	GrantedDate         time.Time `gorm:"not null" json:"granted_date"`
	MaturityDate        time.Time `gorm:"not null;index" json:"maturity_date"`
	ExpiryDate          time.Time `gorm:"not null;index" json:"expiry_date"`
	CreatedAt           time.Time `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	// Associations
	Branch Branch     `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	Pawner Pawner     `gorm:"foreignKey:PawnerID" json:"pawner,omitempty"`
	Items  []PawnItem `gorm:"foreignKey:TransactionID" json:"items,omitempty"`
}

// TableName specifies the table name for PawnTransaction
func (PawnTransaction) TableName() string {
	return "pawn_transactions"
}

// Transaction type constants
const (
	TransactionTypeNewLoan        = "new_loan"
	TransactionTypeAdditionalLoan = "additional_loan"
	TransactionTypePartialPayment = "partial_payment"
	TransactionTypeRenewal        = "renewal"
	TransactionTypeRedemption     = "redemption"
)

// Transaction status constants
const (
	TransactionStatusActive    = "active"
	TransactionStatusMatured   = "matured"
	TransactionStatusExpired   = "expired"
	TransactionStatusRedeemed  = "redeemed"
	TransactionStatusDefaulted = "defaulted"
)

// IsOpen returns true while the loan can still accept lifecycle events
func (t *PawnTransaction) IsOpen() bool {
	return t.Status == TransactionStatusActive || t.Status == TransactionStatusMatured
}

// MayAddLoan returns true if an additional loan can be taken against this tail
func (t *PawnTransaction) MayAddLoan() bool {
	return t.IsOpen()
}

// MayPay returns true if a partial payment can be applied to this tail
func (t *PawnTransaction) MayPay() bool {
	return t.IsOpen()
}

// MayRenew returns true if the loan term can be renewed from this tail
func (t *PawnTransaction) MayRenew() bool {
	return t.IsOpen()
}

// MayRedeem returns true if the loan can be redeemed from this tail
func (t *PawnTransaction) MayRedeem() bool {
	return t.IsOpen()
}

// CurrentPrincipal returns the principal base for the next chain event.
// After a partial payment the snapshot field carries the reduced principal;
// otherwise the outstanding balance is authoritative.
func (t *PawnTransaction) CurrentPrincipal() float64 {
	if t.NewPrincipalLoan != nil {
		return *t.NewPrincipalLoan
	}
	return t.Balance
}

// DaysOverdue returns how many whole days past maturity the loan is
func (t *PawnTransaction) DaysOverdue(now time.Time) int {
	if !now.After(t.MaturityDate) {
		return 0
	}
	return int(now.Sub(t.MaturityDate).Hours() / 24)
}

// IsPastExpiry returns true once the redemption window has closed
func (t *PawnTransaction) IsPastExpiry(now time.Time) bool {
	return now.After(t.ExpiryDate)
}

// PawnTransactionResponse is the JSON response format for chain events
type PawnTransactionResponse struct {
	ID                  uint      `json:"id"`
	TicketNumber        string    `json:"ticket_number"`
	TrackingNumber      string    `json:"tracking_number"`
	ParentTransactionID *uint     `json:"parent_transaction_id"`
	TransactionType     string    `json:"transaction_type"`
	PrincipalAmount     float64   `json:"principal_amount"`
	NewPrincipalLoan    *float64  `json:"new_principal_loan,omitempty"`
	Balance             float64   `json:"balance"`
	AmountPaid          float64   `json:"amount_paid"`
	InterestRate        float64   `json:"interest_rate"`
	InterestAmount      float64   `json:"interest_amount"`
	PenaltyAmount       float64   `json:"penalty_amount"`
	ServiceCharge       float64   `json:"service_charge"`
	Status              string    `json:"status"`
	GrantedDate         time.Time `json:"granted_date"`
	MaturityDate        time.Time `json:"maturity_date"`
	ExpiryDate          time.Time `json:"expiry_date"`
	CreatedAt           time.Time `json:"created_at"`

	PawnerName string `json:"pawner_name,omitempty"`
	BranchCode string `json:"branch_code,omitempty"`
	ItemCount  int    `json:"item_count,omitempty"`
}

// ToResponse converts PawnTransaction to PawnTransactionResponse
func (t *PawnTransaction) ToResponse() PawnTransactionResponse {
	resp := PawnTransactionResponse{
		ID:                  t.ID,
		TicketNumber:        t.TicketNumber,
		TrackingNumber:      t.TrackingNumber,
		ParentTransactionID: t.ParentTransactionID,
		TransactionType:     t.TransactionType,
		PrincipalAmount:     t.PrincipalAmount,
		NewPrincipalLoan:    t.NewPrincipalLoan,
		Balance:             t.Balance,
		AmountPaid:          t.AmountPaid,
		InterestRate:        t.InterestRate,
		InterestAmount:      t.InterestAmount,
		PenaltyAmount:       t.PenaltyAmount,
		ServiceCharge:       t.ServiceCharge,
		Status:              t.Status,
		GrantedDate:         t.GrantedDate,
		MaturityDate:        t.MaturityDate,
		ExpiryDate:          t.ExpiryDate,
		CreatedAt:           t.CreatedAt,
	}

	if t.Pawner.ID != 0 {
		resp.PawnerName = t.Pawner.FullName()
	}
	if t.Branch.ID != 0 {
		resp.BranchCode = t.Branch.Code
	}
	resp.ItemCount = len(t.Items)

	return resp
}
