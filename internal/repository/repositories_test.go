package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestOrderClauseWhitelistsColumns(t *testing.T) {
	allowed := map[string]bool{"created_at": true, "balance": true}

	tests := []struct {
		name    string
		sortBy  string
		sortDir string
		want    string
	}{
		{"allowed ascending", "balance", "asc", "balance ASC"},
		{"allowed descending", "balance", "desc", "balance DESC"},
		{"empty falls back", "", "", "created_at DESC"},
		{"unknown column falls back", "pawner_name", "desc", "created_at DESC"},
		{"injection in column falls back", "balance; DROP TABLE pawn_transactions", "desc", "created_at DESC"},
		{"injection in direction is ignored", "balance", "desc; DROP TABLE pawn_transactions", "balance ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderClause(tt.sortBy, tt.sortDir, allowed, "created_at DESC"))
		})
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "idx_pawn_transactions_parent_transaction_id"}

	assert.True(t, IsDuplicateKeyError(dup, ""))
	assert.True(t, IsDuplicateKeyError(dup, "parent_transaction_id"))
	assert.False(t, IsDuplicateKeyError(dup, "request_id"))
	assert.True(t, IsDuplicateKeyError(fmt.Errorf("create transaction: %w", dup), "parent_transaction_id"))
	assert.False(t, IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsDuplicateKeyError(errors.New("connection reset"), ""))
}

func TestIsRetryableTxError(t *testing.T) {
	assert.True(t, IsRetryableTxError(errors.New("ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)")))
	assert.True(t, IsRetryableTxError(errors.New("ERROR: deadlock detected (SQLSTATE 40P01)")))
	assert.False(t, IsRetryableTxError(errors.New("duplicate key value violates unique constraint")))
	assert.False(t, IsRetryableTxError(nil))
}
