package repository

import (
	"context"
	"time"

	"github.com/prendasoft/prenda-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tailFilter keeps only chain tails: rows no other row of the same chain
// supersedes by (created_at, id).
const tailFilter = `NOT EXISTS (
	SELECT 1 FROM pawn_transactions AS child
	WHERE child.tracking_number = pawn_transactions.tracking_number
	  AND (child.created_at > pawn_transactions.created_at
	       OR (child.created_at = pawn_transactions.created_at AND child.id > pawn_transactions.id))
)`

// TransactionRepository defines the interface for pawn transaction data access
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.PawnTransaction) error
	FindByID(ctx context.Context, id uint) (*models.PawnTransaction, error)
	FindByTicketNumber(ctx context.Context, ticketNumber string) (*models.PawnTransaction, error)
	FindByRequestID(ctx context.Context, requestID string) (*models.PawnTransaction, error)
	FindChain(ctx context.Context, trackingNumber string) ([]models.PawnTransaction, error)
	FindTail(ctx context.Context, trackingNumber string) (*models.PawnTransaction, error)
	FindTailForUpdate(ctx context.Context, trackingNumber string) (*models.PawnTransaction, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	FindOpenTailsPastMaturity(ctx context.Context, now time.Time) ([]models.PawnTransaction, error)
	FindMaturedTailsPastExpiry(ctx context.Context, now time.Time) ([]models.PawnTransaction, error)
	List(ctx context.Context, query *ListQuery) ([]models.PawnTransaction, int64, error)
	WithTx(tx *gorm.DB) TransactionRepository
}

// transactionSortColumns are the columns List accepts for client-driven
// ordering
var transactionSortColumns = map[string]bool{
	"created_at":       true,
	"granted_date":     true,
	"maturity_date":    true,
	"expiry_date":      true,
	"principal_amount": true,
	"balance":          true,
	"amount_paid":      true,
	"ticket_number":    true,
	"status":           true,
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *transactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepository{db: tx}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.PawnTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id uint) (*models.PawnTransaction, error) {
	var txn models.PawnTransaction
	err := r.db.WithContext(ctx).
		Preload("Pawner").
		Preload("Branch").
		Preload("Items").
		First(&txn, id).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) FindByTicketNumber(ctx context.Context, ticketNumber string) (*models.PawnTransaction, error) {
	var txn models.PawnTransaction
	err := r.db.WithContext(ctx).
		Preload("Pawner").
		Preload("Branch").
		Preload("Items").
		Where("ticket_number = ?", ticketNumber).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) FindByRequestID(ctx context.Context, requestID string) (*models.PawnTransaction, error) {
	var txn models.PawnTransaction
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// FindChain returns every transaction sharing the tracking number, oldest first
func (r *transactionRepository) FindChain(ctx context.Context, trackingNumber string) ([]models.PawnTransaction, error) {
	var txns []models.PawnTransaction
	err := r.db.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		Order("created_at ASC, id ASC").
		Find(&txns).Error
	return txns, err
}

// FindTail returns the most recent transaction of a chain, ties broken by id
func (r *transactionRepository) FindTail(ctx context.Context, trackingNumber string) (*models.PawnTransaction, error) {
	var txn models.PawnTransaction
	err := r.db.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		Order("created_at DESC, id DESC").
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// FindTailForUpdate locks the tail row so a concurrent append on the same
// chain blocks until this transaction commits. Must run inside the same
// database transaction that inserts the child row.
//
// Under read committed a locking SELECT with LIMIT does not see a child row
// committed while it was blocked on the tail's lock, so the row we locked
// may no longer be the tail. After each lock the tail is re-read in a fresh
// statement, whose snapshot does include concurrently committed children,
// and the lock is chased to the newer row until the two agree.
func (r *transactionRepository) FindTailForUpdate(ctx context.Context, trackingNumber string) (*models.PawnTransaction, error) {
	var txn models.PawnTransaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tracking_number = ?", trackingNumber).
		Order("created_at DESC, id DESC").
		First(&txn).Error
	if err != nil {
		return nil, err
	}

	for {
		current, err := r.FindTail(ctx, trackingNumber)
		if err != nil {
			return nil, err
		}
		if current.ID == txn.ID {
			return &txn, nil
		}
		txn = models.PawnTransaction{}
		err = r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", current.ID).
			First(&txn).Error
		if err != nil {
			return nil, err
		}
	}
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.PawnTransaction{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// FindOpenTailsPastMaturity returns active chain tails whose maturity date
// has passed, for the status sweep
func (r *transactionRepository) FindOpenTailsPastMaturity(ctx context.Context, now time.Time) ([]models.PawnTransaction, error) {
	var txns []models.PawnTransaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND maturity_date < ?", models.TransactionStatusActive, now).
		Where(tailFilter).
		Find(&txns).Error
	return txns, err
}

// FindMaturedTailsPastExpiry returns open chain tails whose redemption
// window has closed
func (r *transactionRepository) FindMaturedTailsPastExpiry(ctx context.Context, now time.Time) ([]models.PawnTransaction, error) {
	var txns []models.PawnTransaction
	err := r.db.WithContext(ctx).
		Where("status IN ? AND expiry_date < ?",
			[]string{models.TransactionStatusActive, models.TransactionStatusMatured}, now).
		Where(tailFilter).
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepository) List(ctx context.Context, query *ListQuery) ([]models.PawnTransaction, int64, error) {
	var txns []models.PawnTransaction
	var total int64

	db := r.db.WithContext(ctx).Model(&models.PawnTransaction{})

	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}
	if query.Filters["transaction_type"] != "" {
		db = db.Where("transaction_type = ?", query.Filters["transaction_type"])
	}
	if query.Filters["branch_id"] != "" {
		db = db.Where("branch_id = ?", query.Filters["branch_id"])
	}
	if query.Filters["pawner_id"] != "" {
		db = db.Where("pawner_id = ?", query.Filters["pawner_id"])
	}
	if query.Search != "" {
		db = db.Where("ticket_number ILIKE ? OR tracking_number ILIKE ?",
			"%"+query.Search+"%", "%"+query.Search+"%")
	}

	db.Count(&total)

	db = db.Order(orderClause(query.SortBy, query.SortDir, transactionSortColumns, "created_at DESC"))

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Pawner").Preload("Branch").Find(&txns).Error
	return txns, total, err
}
