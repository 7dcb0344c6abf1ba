package repository

import (
	"context"

	"github.com/prendasoft/prenda-api/internal/models"

	"gorm.io/gorm"
)

// CalculationLogRepository defines the interface for calculation log access
type CalculationLogRepository interface {
	Create(ctx context.Context, entry *models.CalculationLog) error
	FindByTransactionID(ctx context.Context, transactionID uint) (*models.CalculationLog, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) ([]models.CalculationLog, error)
	WithTx(tx *gorm.DB) CalculationLogRepository
}

type calculationLogRepository struct {
	db *gorm.DB
}

// NewCalculationLogRepository creates a new calculation log repository
func NewCalculationLogRepository(db *gorm.DB) CalculationLogRepository {
	return &calculationLogRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *calculationLogRepository) WithTx(tx *gorm.DB) CalculationLogRepository {
	return &calculationLogRepository{db: tx}
}

func (r *calculationLogRepository) Create(ctx context.Context, entry *models.CalculationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *calculationLogRepository) FindByTransactionID(ctx context.Context, transactionID uint) (*models.CalculationLog, error) {
	var entry models.CalculationLog
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *calculationLogRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) ([]models.CalculationLog, error) {
	var entries []models.CalculationLog
	err := r.db.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
