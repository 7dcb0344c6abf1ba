package models

import (
	"time"
)

// TransactionSequence stores the last issued number for one
// (branch, type, period) counter. Numbers only ever increase; rows are
// never deleted so restarts cannot reissue a number.
type TransactionSequence struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BranchID      uint      `gorm:"not null;uniqueIndex:idx_sequence_key" json:"branch_id"`
	SequenceType  string    `gorm:"size:20;not null;uniqueIndex:idx_sequence_key" json:"sequence_type"`
	Year          int       `gorm:"not null;uniqueIndex:idx_sequence_key" json:"year"`
	Month         int       `gorm:"not null;uniqueIndex:idx_sequence_key" json:"month"`
	CurrentNumber int64     `gorm:"not null;default:0" json:"current_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for TransactionSequence
func (TransactionSequence) TableName() string {
	return "transaction_sequences"
}

// Sequence type constants
const (
	SequenceTypeTicket      = "TICKET"
	SequenceTypeTransaction = "TXN"
)
