package repository

import (
	"context"
	"strings"

	"github.com/prendasoft/prenda-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository issues strictly increasing numbers per
// (branch, type, period) key. The increment is a locked read-modify-write
// in one database transaction, so no two callers can receive the same
// number even across process restarts or multiple instances.
type SequenceRepository interface {
	Next(ctx context.Context, branchID uint, sequenceType string, year, month int) (int64, error)
	WithTx(tx *gorm.DB) SequenceRepository
}

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// WithTx returns a repository bound to the given transaction so the
// allocation joins the caller's atomic unit
func (r *sequenceRepository) WithTx(tx *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: tx}
}

func (r *sequenceRepository) Next(ctx context.Context, branchID uint, sequenceType string, year, month int) (int64, error) {
	var current int64

	next := func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Seed the counter row on first use; ON CONFLICT keeps the
			// existing row untouched when it already exists.
			seed := &models.TransactionSequence{
				BranchID:      branchID,
				SequenceType:  sequenceType,
				Year:          year,
				Month:         month,
				CurrentNumber: 0,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
				return err
			}

			var seq models.TransactionSequence
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("branch_id = ? AND sequence_type = ? AND year = ? AND month = ?",
					branchID, sequenceType, year, month).
				First(&seq).Error; err != nil {
				return err
			}

			seq.CurrentNumber++
			if err := tx.Save(&seq).Error; err != nil {
				return err
			}

			current = seq.CurrentNumber
			return nil
		})
	}

	err := next()
	if err != nil && IsRetryableTxError(err) {
		err = next()
	}
	if err != nil {
		return 0, err
	}
	return current, nil
}

// IsRetryableTxError reports whether err is a transient serialization or
// deadlock failure that a single retry may resolve. Postgres signals these
// as SQLSTATE 40001 and 40P01.
func IsRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "40P01") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "deadlock detected")
}
