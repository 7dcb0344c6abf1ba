package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/repository"
)

type PawnerService struct {
	repo repository.PawnerRepository
}

func NewPawnerService(repo repository.PawnerRepository) *PawnerService {
	return &PawnerService{repo: repo}
}

// Register creates a new pawner record
func (s *PawnerService) Register(ctx context.Context, pawner *models.Pawner) error {
	if strings.TrimSpace(pawner.FirstName) == "" || strings.TrimSpace(pawner.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", ErrValidation)
	}
	if strings.TrimSpace(pawner.Identity) == "" {
		return fmt.Errorf("%w: identity number is required", ErrValidation)
	}
	if err := s.repo.Create(ctx, pawner); err != nil {
		if repository.IsDuplicateKeyError(err, "identity") {
			return fmt.Errorf("%w: identity number %s is already registered", ErrConflict, pawner.Identity)
		}
		return err
	}
	return nil
}

// Get retrieves a pawner by ID
func (s *PawnerService) Get(ctx context.Context, id uint) (*models.Pawner, error) {
	pawner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: pawner %d", ErrNotFound, id)
	}
	return pawner, nil
}

// GetByIdentity retrieves a pawner by identity number
func (s *PawnerService) GetByIdentity(ctx context.Context, identity string) (*models.Pawner, error) {
	pawner, err := s.repo.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%w: pawner with identity %s", ErrNotFound, identity)
	}
	return pawner, nil
}

// Update saves changes to a pawner record
func (s *PawnerService) Update(ctx context.Context, pawner *models.Pawner) error {
	return s.repo.Update(ctx, pawner)
}

// List returns pawners matching the query
func (s *PawnerService) List(ctx context.Context, query *repository.ListQuery) ([]models.Pawner, int64, error) {
	return s.repo.List(ctx, query)
}
