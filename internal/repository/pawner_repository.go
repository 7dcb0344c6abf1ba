package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prendasoft/prenda-api/internal/models"

	"gorm.io/gorm"
)

// PawnerRepository defines the interface for pawner data access
type PawnerRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Pawner, error)
	FindByIdentity(ctx context.Context, identity string) (*models.Pawner, error)
	Create(ctx context.Context, pawner *models.Pawner) error
	Update(ctx context.Context, pawner *models.Pawner) error
	List(ctx context.Context, query *ListQuery) ([]models.Pawner, int64, error)
}

type pawnerRepository struct {
	db *gorm.DB
}

// NewPawnerRepository creates a new pawner repository
func NewPawnerRepository(db *gorm.DB) PawnerRepository {
	return &pawnerRepository{db: db}
}

func (r *pawnerRepository) FindByID(ctx context.Context, id uint) (*models.Pawner, error) {
	var pawner models.Pawner
	if err := r.db.WithContext(ctx).First(&pawner, id).Error; err != nil {
		return nil, err
	}
	return &pawner, nil
}

func (r *pawnerRepository) FindByIdentity(ctx context.Context, identity string) (*models.Pawner, error) {
	var pawner models.Pawner
	err := r.db.WithContext(ctx).
		Where("identity = ?", identity).
		First(&pawner).Error
	if err != nil {
		return nil, err
	}
	return &pawner, nil
}

func (r *pawnerRepository) Create(ctx context.Context, pawner *models.Pawner) error {
	if err := r.db.WithContext(ctx).Create(pawner).Error; err != nil {
		if IsDuplicateKeyError(err, "") {
			return errors.New("a pawner with this identity already exists")
		}
		return err
	}
	return nil
}

func (r *pawnerRepository) Update(ctx context.Context, pawner *models.Pawner) error {
	return r.db.WithContext(ctx).Save(pawner).Error
}

func (r *pawnerRepository) List(ctx context.Context, query *ListQuery) ([]models.Pawner, int64, error) {
	var pawners []models.Pawner
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Pawner{})

	if query.Search != "" {
		term := "%" + query.Search + "%"
		db = db.Where("first_name ILIKE ? OR last_name ILIKE ? OR identity ILIKE ?", term, term, term)
	}

	db.Count(&total)

	db = db.Order("last_name ASC, first_name ASC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&pawners).Error
	return pawners, total, err
}

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// orderClause builds an ORDER BY fragment from user-supplied sort fields.
// Only whitelisted column names are interpolated; anything else falls back,
// so request parameters can never reach the SQL text.
func orderClause(sortBy, sortDir string, allowed map[string]bool, fallback string) string {
	if !allowed[sortBy] {
		return fallback
	}
	if sortDir == "desc" {
		return sortBy + " DESC"
	}
	return sortBy + " ASC"
}

// IsDuplicateKeyError reports whether err is a Postgres unique violation,
// optionally on a specific constraint
func IsDuplicateKeyError(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraint == "" || strings.Contains(pgErr.ConstraintName, constraint)
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
