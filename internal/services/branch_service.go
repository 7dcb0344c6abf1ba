package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/repository"
)

type BranchService struct {
	repo repository.BranchRepository
}

func NewBranchService(repo repository.BranchRepository) *BranchService {
	return &BranchService{repo: repo}
}

// Create registers a new branch. The code becomes part of every number
// issued by the branch, so it is normalized to upper case.
func (s *BranchService) Create(ctx context.Context, branch *models.Branch) error {
	branch.Code = strings.ToUpper(strings.TrimSpace(branch.Code))
	if branch.Code == "" {
		return fmt.Errorf("%w: branch code is required", ErrValidation)
	}
	if branch.Name == "" {
		return fmt.Errorf("%w: branch name is required", ErrValidation)
	}
	if err := s.repo.Create(ctx, branch); err != nil {
		if repository.IsDuplicateKeyError(err, "code") {
			return fmt.Errorf("%w: branch code %s already exists", ErrConflict, branch.Code)
		}
		return err
	}
	return nil
}

// Get retrieves a branch by ID
func (s *BranchService) Get(ctx context.Context, id uint) (*models.Branch, error) {
	branch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: branch %d", ErrNotFound, id)
	}
	return branch, nil
}

// List returns all branches
func (s *BranchService) List(ctx context.Context) ([]models.Branch, error) {
	return s.repo.FindAll(ctx)
}

// Update saves changes to a branch
func (s *BranchService) Update(ctx context.Context, branch *models.Branch) error {
	return s.repo.Update(ctx, branch)
}
