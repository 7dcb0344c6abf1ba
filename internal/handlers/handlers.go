package handlers

import (
	"github.com/prendasoft/prenda-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health  *HealthHandler
	Loan    *LoanHandler
	Auction *AuctionHandler
	Pawner  *PawnerHandler
	Branch  *BranchHandler
	Config  *ConfigHandler
	Audit   *AuditHandler
	Job     *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(),
		Loan:    NewLoanHandler(svcs.Loan),
		Auction: NewAuctionHandler(svcs.Auction),
		Pawner:  NewPawnerHandler(svcs.Pawner),
		Branch:  NewBranchHandler(svcs.Branch),
		Config:  NewConfigHandler(svcs.ChargeConfig),
		Audit:   NewAuditHandler(svcs.Audit),
		Job:     NewJobHandler(svcs.Job),
	}
}
