package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/repository"
	"github.com/prendasoft/prenda-api/internal/statemachine"
	"github.com/prendasoft/prenda-api/pkg/logger"
)

// Actor identifies who performed a lifecycle operation, for audit records
type Actor struct {
	ID        uint
	IP        string
	UserAgent string
}

// NewLoanItemInput describes one pledged item on a new loan
type NewLoanItemInput struct {
	Description    string
	Category       *string
	AppraisedValue float64
}

// NewLoanInput is the request to open a new pawn loan
type NewLoanInput struct {
	BranchID  uint
	PawnerID  uint
	Principal float64
	Items     []NewLoanItemInput
	RequestID string
}

// chainWriter persists lifecycle events; satisfied by LedgerWriter
type chainWriter interface {
	ApplyNew(ctx context.Context, ev *LoanEvent) (*models.PawnTransaction, error)
	Append(ctx context.Context, trackingNumber string, requestID *string, build BuildEventFunc) (*models.PawnTransaction, error)
}

// auditRecorder writes trail records; satisfied by AuditService
type auditRecorder interface {
	Log(ctx context.Context, actorID uint, action, entity string, entityID uint, details, ip, userAgent string) error
}

// LoanService drives the lifecycle chain of a pawn loan. Every mutating
// operation reads the chain tail and appends a child row in one atomic unit
// through the ledger writer; rows are never updated in place except for the
// time-based status sweep.
type LoanService struct {
	txnRepo    repository.TransactionRepository
	itemRepo   repository.ItemRepository
	branchRepo repository.BranchRepository
	pawnerRepo repository.PawnerRepository
	calcRepo   repository.CalculationLogRepository
	configSvc  *ChargeConfigService
	writer     chainWriter
	auditSvc   auditRecorder
}

// NewLoanService creates a new loan service
func NewLoanService(
	txnRepo repository.TransactionRepository,
	itemRepo repository.ItemRepository,
	branchRepo repository.BranchRepository,
	pawnerRepo repository.PawnerRepository,
	calcRepo repository.CalculationLogRepository,
	configSvc *ChargeConfigService,
	writer chainWriter,
	auditSvc auditRecorder,
) *LoanService {
	return &LoanService{
		txnRepo:    txnRepo,
		itemRepo:   itemRepo,
		branchRepo: branchRepo,
		pawnerRepo: pawnerRepo,
		calcRepo:   calcRepo,
		configSvc:  configSvc,
		writer:     writer,
		auditSvc:   auditSvc,
	}
}

// CreateNewLoan opens a loan chain: allocates a ticket number, computes
// advance interest and the service charge, and stores the root transaction
// with its items
func (s *LoanService) CreateNewLoan(ctx context.Context, input *NewLoanInput, actor Actor) (*models.PawnTransaction, error) {
	if input.Principal <= 0 {
		return nil, fmt.Errorf("%w: principal must be positive", ErrValidation)
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}

	totalAppraised := 0.0
	for _, it := range input.Items {
		if it.AppraisedValue <= 0 {
			return nil, fmt.Errorf("%w: appraised value must be positive", ErrValidation)
		}
		totalAppraised += it.AppraisedValue
	}
	if input.Principal > totalAppraised {
		return nil, fmt.Errorf("%w: principal %.2f exceeds total appraised value %.2f",
			ErrValidation, input.Principal, totalAppraised)
	}

	branch, err := s.branchRepo.FindByID(ctx, input.BranchID)
	if err != nil {
		return nil, fmt.Errorf("%w: branch %d", ErrNotFound, input.BranchID)
	}
	if _, err := s.pawnerRepo.FindByID(ctx, input.PawnerID); err != nil {
		return nil, fmt.Errorf("%w: pawner %d", ErrNotFound, input.PawnerID)
	}

	cfg, err := s.configSvc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	brackets, err := s.configSvc.Brackets(ctx)
	if err != nil {
		return nil, err
	}

	interest := ComputeInterest(input.Principal, cfg.MonthlyInterestRate, 1)
	serviceCharge, err := ComputeServiceCharge(input.Principal, brackets)
	if err != nil {
		return nil, err
	}
	total := round2(input.Principal + interest + serviceCharge)

	now := time.Now()
	maturity := now.AddDate(0, 0, cfg.MaturityPeriodDays)
	expiry := maturity.AddDate(0, 0, cfg.ExpiryPeriodDays)

	txn := &models.PawnTransaction{
		TrackingNumber:  uuid.NewString(),
		RequestID:       optionalString(input.RequestID),
		BranchID:        input.BranchID,
		PawnerID:        input.PawnerID,
		TransactionType: models.TransactionTypeNewLoan,
		PrincipalAmount: input.Principal,
		Balance:         input.Principal,
		InterestRate:    cfg.MonthlyInterestRate,
		InterestAmount:  interest,
		ServiceCharge:   serviceCharge,
		Status:          models.TransactionStatusActive,
		GrantedDate:     now,
		MaturityDate:    maturity,
		ExpiryDate:      expiry,
	}

	items := make([]models.PawnItem, 0, len(input.Items))
	for _, it := range input.Items {
		items = append(items, models.PawnItem{
			Description:    it.Description,
			Category:       it.Category,
			AppraisedValue: it.AppraisedValue,
			LoanAmount:     round2(input.Principal * it.AppraisedValue / totalAppraised),
			Status:         models.ItemStatusInVault,
		})
	}

	ev := &LoanEvent{
		Transaction:   txn,
		Items:         items,
		Interest:      interest,
		ServiceCharge: serviceCharge,
		Total:         total,
		Config:        cfg,
		SequenceType:  models.SequenceTypeTicket,
		BranchCode:    branch.Code,
	}

	persisted, err := s.writer.ApplyNew(ctx, ev)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "CREATE", persisted.ID,
		fmt.Sprintf("New loan %s granted: principal %.2f, interest %.2f, service charge %.2f",
			persisted.TicketNumber, input.Principal, interest, serviceCharge))

	return persisted, nil
}

// AddToLoan grants an additional amount against an open chain. The base is
// the tail's current principal snapshot, never the root's original amount.
func (s *LoanService) AddToLoan(ctx context.Context, trackingNumber string, amount float64, requestID string, actor Actor) (*models.PawnTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: additional amount must be positive", ErrValidation)
	}

	cfg, err := s.configSvc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	brackets, err := s.configSvc.Brackets(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	persisted, err := s.writer.Append(ctx, trackingNumber, optionalString(requestID), func(tail *models.PawnTransaction) (*LoanEvent, error) {
		if !tail.MayAddLoan() {
			return nil, fmt.Errorf("%w: cannot add to a loan in status %s", ErrInvalidState, tail.Status)
		}

		branch, err := s.branchRepo.FindByID(ctx, tail.BranchID)
		if err != nil {
			return nil, fmt.Errorf("%w: branch %d", ErrNotFound, tail.BranchID)
		}

		newPrincipal := round2(tail.CurrentPrincipal() + amount)
		interest := ComputeInterest(newPrincipal, cfg.MonthlyInterestRate, 1)
		serviceCharge, err := ComputeServiceCharge(newPrincipal, brackets)
		if err != nil {
			return nil, err
		}
		penalty := ComputePenalty(tail.Balance, tail.DaysOverdue(now), cfg)

		maturity := now.AddDate(0, 0, cfg.MaturityPeriodDays)
		txn := &models.PawnTransaction{
			BranchID:        tail.BranchID,
			PawnerID:        tail.PawnerID,
			TransactionType: models.TransactionTypeAdditionalLoan,
			PrincipalAmount: newPrincipal,
			Balance:         newPrincipal,
			InterestRate:    cfg.MonthlyInterestRate,
			InterestAmount:  interest,
			PenaltyAmount:   penalty,
			ServiceCharge:   serviceCharge,
			Status:          models.TransactionStatusActive,
			GrantedDate:     now,
			MaturityDate:    maturity,
			ExpiryDate:      maturity.AddDate(0, 0, cfg.ExpiryPeriodDays),
		}

		return &LoanEvent{
			Transaction:   txn,
			Interest:      interest,
			Penalty:       penalty,
			ServiceCharge: serviceCharge,
			Total:         round2(newPrincipal + interest + penalty + serviceCharge),
			Config:        cfg,
			SequenceType:  models.SequenceTypeTransaction,
			BranchCode:    branch.Code,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "ADDITIONAL", persisted.ID,
		fmt.Sprintf("Additional loan of %.2f on %s: new principal %.2f",
			amount, trackingNumber, persisted.PrincipalAmount))

	return persisted, nil
}

// MakePartialPayment reduces the outstanding balance. The new balance is
// snapshotted as NewPrincipalLoan so later events read the reduced base.
func (s *LoanService) MakePartialPayment(ctx context.Context, trackingNumber string, amountPaid float64, requestID string, actor Actor) (*models.PawnTransaction, error) {
	if amountPaid <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}

	cfg, err := s.configSvc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	persisted, err := s.writer.Append(ctx, trackingNumber, optionalString(requestID), func(tail *models.PawnTransaction) (*LoanEvent, error) {
		if !tail.MayPay() {
			return nil, fmt.Errorf("%w: cannot pay a loan in status %s", ErrInvalidState, tail.Status)
		}
		if amountPaid > tail.Balance {
			return nil, fmt.Errorf("%w: payment %.2f exceeds balance %.2f", ErrValidation, amountPaid, tail.Balance)
		}

		branch, err := s.branchRepo.FindByID(ctx, tail.BranchID)
		if err != nil {
			return nil, fmt.Errorf("%w: branch %d", ErrNotFound, tail.BranchID)
		}

		newBalance := round2(tail.Balance - amountPaid)
		penalty := ComputePenalty(tail.Balance, tail.DaysOverdue(now), cfg)

		txn := &models.PawnTransaction{
			BranchID:         tail.BranchID,
			PawnerID:         tail.PawnerID,
			TransactionType:  models.TransactionTypePartialPayment,
			PrincipalAmount:  tail.CurrentPrincipal(),
			NewPrincipalLoan: &newBalance,
			Balance:          newBalance,
			AmountPaid:       amountPaid,
			InterestRate:     tail.InterestRate,
			PenaltyAmount:    penalty,
			Status:           tail.Status,
			GrantedDate:      now,
			MaturityDate:     tail.MaturityDate,
			ExpiryDate:       tail.ExpiryDate,
		}

		return &LoanEvent{
			Transaction:  txn,
			Penalty:      penalty,
			Total:        round2(amountPaid + penalty),
			Config:       cfg,
			SequenceType: models.SequenceTypeTransaction,
			BranchCode:   branch.Code,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "PAYMENT", persisted.ID,
		fmt.Sprintf("Partial payment of %.2f on %s: new balance %.2f",
			amountPaid, trackingNumber, persisted.Balance))

	return persisted, nil
}

// RenewLoan starts a fresh term on the outstanding balance: advance
// interest, any penalty owed and the service charge are collected, and
// maturity/expiry move forward. Principal does not change.
func (s *LoanService) RenewLoan(ctx context.Context, trackingNumber string, requestID string, actor Actor) (*models.PawnTransaction, error) {
	cfg, err := s.configSvc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	brackets, err := s.configSvc.Brackets(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	persisted, err := s.writer.Append(ctx, trackingNumber, optionalString(requestID), func(tail *models.PawnTransaction) (*LoanEvent, error) {
		if !tail.MayRenew() {
			return nil, fmt.Errorf("%w: cannot renew a loan in status %s", ErrInvalidState, tail.Status)
		}

		branch, err := s.branchRepo.FindByID(ctx, tail.BranchID)
		if err != nil {
			return nil, fmt.Errorf("%w: branch %d", ErrNotFound, tail.BranchID)
		}

		interest := ComputeInterest(tail.Balance, cfg.MonthlyInterestRate, 1)
		penalty := ComputePenalty(tail.Balance, tail.DaysOverdue(now), cfg)
		serviceCharge, err := ComputeServiceCharge(tail.Balance, brackets)
		if err != nil {
			return nil, err
		}
		renewalFee := round2(interest + penalty + serviceCharge)

		maturity := now.AddDate(0, 0, cfg.MaturityPeriodDays)
		txn := &models.PawnTransaction{
			BranchID:        tail.BranchID,
			PawnerID:        tail.PawnerID,
			TransactionType: models.TransactionTypeRenewal,
			PrincipalAmount: tail.CurrentPrincipal(),
			Balance:         tail.Balance,
			AmountPaid:      renewalFee,
			InterestRate:    cfg.MonthlyInterestRate,
			InterestAmount:  interest,
			PenaltyAmount:   penalty,
			ServiceCharge:   serviceCharge,
			Status:          models.TransactionStatusActive,
			GrantedDate:     now,
			MaturityDate:    maturity,
			ExpiryDate:      maturity.AddDate(0, 0, cfg.ExpiryPeriodDays),
		}

		return &LoanEvent{
			Transaction:   txn,
			Interest:      interest,
			Penalty:       penalty,
			ServiceCharge: serviceCharge,
			Total:         renewalFee,
			Config:        cfg,
			SequenceType:  models.SequenceTypeTransaction,
			BranchCode:    branch.Code,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "RENEW", persisted.ID,
		fmt.Sprintf("Loan %s renewed until %s", trackingNumber, persisted.MaturityDate.Format("2006-01-02")))

	return persisted, nil
}

// RedeemLoan settles the chain in full and releases the items. The payment
// must cover the outstanding balance plus any penalty owed.
func (s *LoanService) RedeemLoan(ctx context.Context, trackingNumber string, amountPaid float64, requestID string, actor Actor) (*models.PawnTransaction, error) {
	if amountPaid <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}

	cfg, err := s.configSvc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	persisted, err := s.writer.Append(ctx, trackingNumber, optionalString(requestID), func(tail *models.PawnTransaction) (*LoanEvent, error) {
		child := *tail
		fsm := statemachine.NewLoanFSM(&child)
		if err := fsm.Redeem(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}

		if amountPaid < tail.Balance {
			return nil, fmt.Errorf("%w: redemption requires full settlement, paid %.2f of balance %.2f",
				ErrValidation, amountPaid, tail.Balance)
		}

		branch, err := s.branchRepo.FindByID(ctx, tail.BranchID)
		if err != nil {
			return nil, fmt.Errorf("%w: branch %d", ErrNotFound, tail.BranchID)
		}

		penalty := ComputePenalty(tail.Balance, tail.DaysOverdue(now), cfg)

		txn := &models.PawnTransaction{
			BranchID:        tail.BranchID,
			PawnerID:        tail.PawnerID,
			TransactionType: models.TransactionTypeRedemption,
			PrincipalAmount: tail.CurrentPrincipal(),
			Balance:         0,
			AmountPaid:      amountPaid,
			InterestRate:    tail.InterestRate,
			PenaltyAmount:   penalty,
			Status:          models.TransactionStatusRedeemed,
			GrantedDate:     now,
			MaturityDate:    tail.MaturityDate,
			ExpiryDate:      tail.ExpiryDate,
		}

		return &LoanEvent{
			Transaction:    txn,
			ItemStatusFrom: models.ItemStatusInVault,
			ItemStatusTo:   models.ItemStatusRedeemed,
			Penalty:        penalty,
			Total:          round2(tail.Balance + penalty),
			Config:         cfg,
			SequenceType:   models.SequenceTypeTransaction,
			BranchCode:     branch.Code,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "REDEEM", persisted.ID,
		fmt.Sprintf("Loan %s redeemed for %.2f", trackingNumber, amountPaid))

	return persisted, nil
}

// GetChain returns the full event history for a tracking number, oldest first
func (s *LoanService) GetChain(ctx context.Context, trackingNumber string) ([]models.PawnTransaction, error) {
	chain, err := s.txnRepo.FindChain(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: no loan found for tracking number %s", ErrNotFound, trackingNumber)
	}
	return chain, nil
}

// GetByTicketNumber looks up a single transaction by its printed number
func (s *LoanService) GetByTicketNumber(ctx context.Context, ticketNumber string) (*models.PawnTransaction, error) {
	return s.txnRepo.FindByTicketNumber(ctx, ticketNumber)
}

// GetItems returns the collateral pledged on a chain
func (s *LoanService) GetItems(ctx context.Context, trackingNumber string) ([]models.PawnItem, error) {
	return s.itemRepo.FindByTrackingNumber(ctx, trackingNumber)
}

// GetCalculationLogs returns the charge breakdowns recorded for a chain,
// each with the config snapshot it was computed from
func (s *LoanService) GetCalculationLogs(ctx context.Context, trackingNumber string) ([]models.CalculationLog, error) {
	return s.calcRepo.FindByTrackingNumber(ctx, trackingNumber)
}

// List returns transactions matching the query
func (s *LoanService) List(ctx context.Context, query *repository.ListQuery) ([]models.PawnTransaction, int64, error) {
	return s.txnRepo.List(ctx, query)
}

// SweepStatuses advances time-based statuses on chain tails: past-maturity
// active loans become matured, and loans past their redemption window
// become expired with their items forfeited. Intended to run on a schedule.
func (s *LoanService) SweepStatuses(ctx context.Context) error {
	now := time.Now()

	matured, err := s.txnRepo.FindOpenTailsPastMaturity(ctx, now)
	if err != nil {
		return fmt.Errorf("find loans past maturity: %w", err)
	}
	maturedCount := 0
	for i := range matured {
		txn := &matured[i]
		fsm := statemachine.NewLoanFSM(txn)
		if err := fsm.Mature(ctx); err != nil {
			logger.Warn("Skipping maturity transition", "ticket", txn.TicketNumber, "error", err)
			continue
		}
		if err := s.txnRepo.UpdateStatus(ctx, txn.ID, txn.Status); err != nil {
			logger.Error("Failed to mark loan matured", "ticket", txn.TicketNumber, "error", err)
			continue
		}
		maturedCount++
	}

	expired, err := s.txnRepo.FindMaturedTailsPastExpiry(ctx, now)
	if err != nil {
		return fmt.Errorf("find loans past expiry: %w", err)
	}
	expiredCount := 0
	for i := range expired {
		txn := &expired[i]
		fsm := statemachine.NewLoanFSM(txn)
		if err := fsm.Expire(ctx); err != nil {
			logger.Warn("Skipping expiry transition", "ticket", txn.TicketNumber, "error", err)
			continue
		}
		if err := s.txnRepo.UpdateStatus(ctx, txn.ID, txn.Status); err != nil {
			logger.Error("Failed to mark loan expired", "ticket", txn.TicketNumber, "error", err)
			continue
		}
		if err := s.itemRepo.UpdateStatusByTrackingNumber(ctx, txn.TrackingNumber,
			models.ItemStatusInVault, models.ItemStatusForfeited); err != nil {
			logger.Error("Failed to forfeit items", "tracking_number", txn.TrackingNumber, "error", err)
		}
		expiredCount++
	}

	if maturedCount > 0 || expiredCount > 0 {
		logger.Info("Loan status sweep completed", "matured", maturedCount, "expired", expiredCount)
	}
	return nil
}

// audit writes the trail record; audit failures never abort the business
// operation
func (s *LoanService) audit(ctx context.Context, actor Actor, action string, entityID uint, details string) {
	if err := s.auditSvc.Log(ctx, actor.ID, action, "PawnTransaction", entityID, details, actor.IP, actor.UserAgent); err != nil {
		logger.Warn("Failed to write audit record", "action", action, "entity_id", entityID, "error", err)
	}
}

// optionalString returns nil for empty strings so unique indexes ignore them
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
