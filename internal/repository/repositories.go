package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Branch         BranchRepository
	Pawner         PawnerRepository
	Transaction    TransactionRepository
	Item           ItemRepository
	Sequence       SequenceRepository
	ChargeConfig   ChargeConfigRepository
	CalculationLog CalculationLogRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Branch:         NewBranchRepository(db),
		Pawner:         NewPawnerRepository(db),
		Transaction:    NewTransactionRepository(db),
		Item:           NewItemRepository(db),
		Sequence:       NewSequenceRepository(db),
		ChargeConfig:   NewChargeConfigRepository(db),
		CalculationLog: NewCalculationLogRepository(db),
	}
}
