package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/repository"

	"gorm.io/gorm"
)

// LoanEvent is one fully computed lifecycle event ready to persist.
type LoanEvent struct {
	Transaction *models.PawnTransaction
	Items       []models.PawnItem // created with the transaction (new loans)

	// Optional chain-wide item status push (e.g. in_vault → redeemed).
	ItemStatusFrom string
	ItemStatusTo   string

	// Calculation log payload; Config is serialized as the snapshot.
	Interest      float64
	Penalty       float64
	ServiceCharge float64
	Total         float64
	Config        *ChargeConfig

	// Number allocation for the new row.
	SequenceType string
	BranchCode   string
}

// BuildEventFunc computes a chain event from the locked tail. It runs inside
// the same database transaction that inserts the child row, so the tail it
// sees cannot be superseded concurrently.
type BuildEventFunc func(tail *models.PawnTransaction) (*LoanEvent, error)

// LedgerWriter applies lifecycle events atomically: sequence allocation,
// transaction insert, item changes and the calculation log either all
// commit or none do. Transient serialization failures are retried once.
type LedgerWriter struct {
	db       *gorm.DB
	seqSvc   *SequenceService
	txnRepo  repository.TransactionRepository
	itemRepo repository.ItemRepository
	calcRepo repository.CalculationLogRepository
}

// NewLedgerWriter creates a new ledger writer
func NewLedgerWriter(
	db *gorm.DB,
	seqSvc *SequenceService,
	txnRepo repository.TransactionRepository,
	itemRepo repository.ItemRepository,
	calcRepo repository.CalculationLogRepository,
) *LedgerWriter {
	return &LedgerWriter{
		db:       db,
		seqSvc:   seqSvc,
		txnRepo:  txnRepo,
		itemRepo: itemRepo,
		calcRepo: calcRepo,
	}
}

// ApplyNew persists a chain root (new loan) with its items
func (w *LedgerWriter) ApplyNew(ctx context.Context, ev *LoanEvent) (*models.PawnTransaction, error) {
	return w.withRetry(ctx, ev.Transaction.RequestID, func() error {
		return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := w.persist(ctx, tx, ev); err != nil {
				return err
			}
			return nil
		})
	}, func() *models.PawnTransaction { return ev.Transaction })
}

// Append locks the chain tail, lets build compute the child event from it,
// and persists the child in the same transaction. Two concurrent appends on
// one chain serialize on the tail row lock: FindTailForUpdate chases the
// lock until the locked row is still the tail, and the unique index on
// parent_transaction_id catches anything that slips through, surfacing as a
// duplicate-key error that withRetry turns into a fresh attempt against the
// real tail. A chain can therefore never fork.
func (w *LedgerWriter) Append(ctx context.Context, trackingNumber string, requestID *string, build BuildEventFunc) (*models.PawnTransaction, error) {
	var result *models.PawnTransaction

	return w.withRetry(ctx, requestID, func() error {
		return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tail, err := w.txnRepo.WithTx(tx).FindTailForUpdate(ctx, trackingNumber)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: no loan found for tracking number %s", ErrNotFound, trackingNumber)
				}
				return err
			}

			ev, err := build(tail)
			if err != nil {
				return err
			}

			ev.Transaction.ParentTransactionID = &tail.ID
			ev.Transaction.TrackingNumber = tail.TrackingNumber
			ev.Transaction.RequestID = requestID

			if err := w.persist(ctx, tx, ev); err != nil {
				return err
			}
			result = ev.Transaction
			return nil
		})
	}, func() *models.PawnTransaction { return result })
}

// persist writes one event inside tx: number allocation, transaction row,
// item rows/status pushes, calculation log
func (w *LedgerWriter) persist(ctx context.Context, tx *gorm.DB, ev *LoanEvent) error {
	txn := ev.Transaction

	now := txn.GrantedDate
	if now.IsZero() {
		now = time.Now()
	}

	number, err := w.seqSvc.WithTx(tx).NextNumber(ctx, txn.BranchID, ev.BranchCode, ev.SequenceType, now)
	if err != nil {
		return err
	}
	txn.TicketNumber = number

	if err := w.txnRepo.WithTx(tx).Create(ctx, txn); err != nil {
		return err
	}

	if len(ev.Items) > 0 {
		for i := range ev.Items {
			ev.Items[i].TransactionID = txn.ID
			ev.Items[i].TrackingNumber = txn.TrackingNumber
		}
		if err := w.itemRepo.WithTx(tx).CreateBatch(ctx, ev.Items); err != nil {
			return err
		}
	}

	if ev.ItemStatusTo != "" {
		if err := w.itemRepo.WithTx(tx).UpdateStatusByTrackingNumber(ctx, txn.TrackingNumber, ev.ItemStatusFrom, ev.ItemStatusTo); err != nil {
			return err
		}
	}

	snapshot, err := json.Marshal(ev.Config)
	if err != nil {
		return fmt.Errorf("marshal config snapshot: %w", err)
	}

	entry := &models.CalculationLog{
		TransactionID:  txn.ID,
		TrackingNumber: txn.TrackingNumber,
		InterestAmount: ev.Interest,
		PenaltyAmount:  ev.Penalty,
		ServiceCharge:  ev.ServiceCharge,
		TotalAmount:    ev.Total,
		ConfigSnapshot: snapshot,
	}
	return w.calcRepo.WithTx(tx).Create(ctx, entry)
}

// withRetry runs apply, retrying once on a transient serialization failure.
// When a request ID is present, a retried client call that already committed
// resolves to the existing transaction instead of creating a duplicate.
func (w *LedgerWriter) withRetry(ctx context.Context, requestID *string, apply func() error, result func() *models.PawnTransaction) (*models.PawnTransaction, error) {
	if requestID != nil && *requestID != "" {
		if existing, err := w.txnRepo.FindByRequestID(ctx, *requestID); err == nil {
			return existing, nil
		}
	}

	err := apply()
	if err != nil && isRetryableAppend(err) {
		err = apply()
		if err != nil && isRetryableAppend(err) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	if err != nil {
		// A unique violation on request_id means a concurrent retry of the
		// same request already committed; return its transaction.
		if requestID != nil && *requestID != "" && repository.IsDuplicateKeyError(err, "request_id") {
			if existing, ferr := w.txnRepo.FindByRequestID(ctx, *requestID); ferr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	return result(), nil
}

// isRetryableAppend reports whether a failed append is worth one more
// attempt. Besides transient serialization failures, a unique violation on
// parent_transaction_id means a concurrent append claimed the tail first;
// the retry re-reads the chain and builds against the new tail.
func isRetryableAppend(err error) bool {
	return repository.IsRetryableTxError(err) ||
		repository.IsDuplicateKeyError(err, "parent_transaction_id")
}
