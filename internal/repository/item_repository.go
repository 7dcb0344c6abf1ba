package repository

import (
	"context"

	"github.com/prendasoft/prenda-api/internal/models"

	"gorm.io/gorm"
)

// ItemRepository defines the interface for pawn item data access
type ItemRepository interface {
	Create(ctx context.Context, item *models.PawnItem) error
	CreateBatch(ctx context.Context, items []models.PawnItem) error
	FindByID(ctx context.Context, id uint) (*models.PawnItem, error)
	FindByTransaction(ctx context.Context, transactionID uint) ([]models.PawnItem, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) ([]models.PawnItem, error)
	Update(ctx context.Context, item *models.PawnItem) error
	UpdateStatusByTrackingNumber(ctx context.Context, trackingNumber, from, to string) error
	WithTx(tx *gorm.DB) ItemRepository
}

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *itemRepository) WithTx(tx *gorm.DB) ItemRepository {
	return &itemRepository{db: tx}
}

func (r *itemRepository) Create(ctx context.Context, item *models.PawnItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepository) CreateBatch(ctx context.Context, items []models.PawnItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *itemRepository) FindByID(ctx context.Context, id uint) (*models.PawnItem, error) {
	var item models.PawnItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByTransaction(ctx context.Context, transactionID uint) ([]models.PawnItem, error) {
	var items []models.PawnItem
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *itemRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) ([]models.PawnItem, error) {
	var items []models.PawnItem
	err := r.db.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *itemRepository) Update(ctx context.Context, item *models.PawnItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// UpdateStatusByTrackingNumber moves every item of a chain from one status
// to another (e.g. in_vault → redeemed on redemption, in_vault → forfeited
// on expiry)
func (r *itemRepository) UpdateStatusByTrackingNumber(ctx context.Context, trackingNumber, from, to string) error {
	return r.db.WithContext(ctx).
		Model(&models.PawnItem{}).
		Where("tracking_number = ? AND status = ?", trackingNumber, from).
		Update("status", to).Error
}
