package services

import (
	"context"
	"fmt"
	"time"

	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/repository"

	"gorm.io/gorm"
)

// SequenceService issues ticket and transaction numbers. Uniqueness comes
// entirely from the repository's atomic increment; formatting is a pure
// function and can never introduce a collision two counters did not have.
type SequenceService struct {
	repo repository.SequenceRepository
}

// NewSequenceService creates a new sequence service
func NewSequenceService(repo repository.SequenceRepository) *SequenceService {
	return &SequenceService{repo: repo}
}

// WithTx returns a service whose allocations join the given database
// transaction, so a number is only consumed if the caller commits
func (s *SequenceService) WithTx(tx *gorm.DB) *SequenceService {
	return &SequenceService{repo: s.repo.WithTx(tx)}
}

// NextTicketNumber allocates and formats the next pawn ticket number for a branch
func (s *SequenceService) NextTicketNumber(ctx context.Context, branchID uint, branchCode string, at time.Time) (string, error) {
	return s.NextNumber(ctx, branchID, branchCode, models.SequenceTypeTicket, at)
}

// NextTransactionNumber allocates and formats the next transaction number for a branch
func (s *SequenceService) NextTransactionNumber(ctx context.Context, branchID uint, branchCode string, at time.Time) (string, error) {
	return s.NextNumber(ctx, branchID, branchCode, models.SequenceTypeTransaction, at)
}

// NextNumber allocates and formats the next number of the given sequence type
func (s *SequenceService) NextNumber(ctx context.Context, branchID uint, branchCode, sequenceType string, at time.Time) (string, error) {
	n, err := s.repo.Next(ctx, branchID, sequenceType, at.Year(), int(at.Month()))
	if err != nil {
		return "", fmt.Errorf("allocate %s number: %w", sequenceType, err)
	}
	return FormatNumber(sequenceType, branchCode, at, n), nil
}

// FormatNumber renders a human-readable ticket/transaction number, e.g.
// PT-MN01-202510-000007. The branch code is part of the printed form
// because counters run per branch.
func FormatNumber(sequenceType, branchCode string, period time.Time, n int64) string {
	prefix := "TXN"
	if sequenceType == models.SequenceTypeTicket {
		prefix = "PT"
	}
	return fmt.Sprintf("%s-%s-%s-%06d", prefix, branchCode, period.Format("200601"), n)
}
