package repository

import (
	"context"

	"github.com/prendasoft/prenda-api/internal/models"

	"gorm.io/gorm"
)

// BranchRepository defines the interface for branch data access
type BranchRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Branch, error)
	FindByCode(ctx context.Context, code string) (*models.Branch, error)
	FindAll(ctx context.Context) ([]models.Branch, error)
	Create(ctx context.Context, branch *models.Branch) error
	Update(ctx context.Context, branch *models.Branch) error
}

type branchRepository struct {
	db *gorm.DB
}

// NewBranchRepository creates a new branch repository
func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) FindByID(ctx context.Context, id uint) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).First(&branch, id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *branchRepository) FindByCode(ctx context.Context, code string) (*models.Branch, error) {
	var branch models.Branch
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&branch).Error
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *branchRepository) FindAll(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("code ASC").
		Find(&branches).Error
	return branches, err
}

func (r *branchRepository) Create(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *branchRepository) Update(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Save(branch).Error
}
