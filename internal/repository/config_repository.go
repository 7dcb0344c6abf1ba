package repository

import (
	"context"
	"time"

	"github.com/prendasoft/prenda-api/internal/models"

	"gorm.io/gorm"
)

// ChargeConfigRepository defines the interface for charge configuration access.
// Resolution always picks the most recent active row effective at or before
// the given instant; history rows are never edited.
type ChargeConfigRepository interface {
	FindActiveEntry(ctx context.Context, key string, at time.Time) (*models.ChargeConfigEntry, error)
	FindActiveBrackets(ctx context.Context) ([]models.ServiceChargeBracket, error)
	ListEntries(ctx context.Context, key string) ([]models.ChargeConfigEntry, error)
	CreateEntry(ctx context.Context, entry *models.ChargeConfigEntry) error
	CreateBracket(ctx context.Context, bracket *models.ServiceChargeBracket) error
}

type chargeConfigRepository struct {
	db *gorm.DB
}

// NewChargeConfigRepository creates a new charge config repository
func NewChargeConfigRepository(db *gorm.DB) ChargeConfigRepository {
	return &chargeConfigRepository{db: db}
}

func (r *chargeConfigRepository) FindActiveEntry(ctx context.Context, key string, at time.Time) (*models.ChargeConfigEntry, error) {
	var entry models.ChargeConfigEntry
	err := r.db.WithContext(ctx).
		Where("key = ? AND is_active = ? AND effective_date <= ?", key, true, at).
		Order("effective_date DESC, id DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *chargeConfigRepository) FindActiveBrackets(ctx context.Context) ([]models.ServiceChargeBracket, error) {
	var brackets []models.ServiceChargeBracket
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("min_amount ASC").
		Find(&brackets).Error
	return brackets, err
}

func (r *chargeConfigRepository) ListEntries(ctx context.Context, key string) ([]models.ChargeConfigEntry, error) {
	var entries []models.ChargeConfigEntry
	db := r.db.WithContext(ctx)
	if key != "" {
		db = db.Where("key = ?", key)
	}
	err := db.Order("key ASC, effective_date DESC").Find(&entries).Error
	return entries, err
}

func (r *chargeConfigRepository) CreateEntry(ctx context.Context, entry *models.ChargeConfigEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *chargeConfigRepository) CreateBracket(ctx context.Context, bracket *models.ServiceChargeBracket) error {
	return r.db.WithContext(ctx).Create(bracket).Error
}
