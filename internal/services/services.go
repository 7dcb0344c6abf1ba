package services

import (
	"github.com/prendasoft/prenda-api/internal/jobs"
	"github.com/prendasoft/prenda-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	ChargeConfig *ChargeConfigService
	Loan         *LoanService
	Auction      *AuctionService
	Pawner       *PawnerService
	Branch       *BranchService
	Audit        *AuditService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, db *gorm.DB) *Services {
	auditSvc := NewAuditService(db)
	sequenceSvc := NewSequenceService(repos.Sequence)
	configSvc := NewChargeConfigService(repos.ChargeConfig)

	writer := NewLedgerWriter(db, sequenceSvc, repos.Transaction, repos.Item, repos.CalculationLog)

	return &Services{
		ChargeConfig: configSvc,
		Loan:         NewLoanService(repos.Transaction, repos.Item, repos.Branch, repos.Pawner, repos.CalculationLog, configSvc, writer, auditSvc),
		Auction:      NewAuctionService(repos.Transaction, repos.Item, auditSvc),
		Pawner:       NewPawnerService(repos.Pawner),
		Branch:       NewBranchService(repos.Branch),
		Audit:        auditSvc,
		Job:          NewJobService(worker),
	}
}
