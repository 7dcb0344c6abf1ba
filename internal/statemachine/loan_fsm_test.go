package statemachine

import (
	"context"
	"testing"

	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loanIn(status string) *models.PawnTransaction {
	return &models.PawnTransaction{Status: status}
}

func TestLoanLifecyclePath(t *testing.T) {
	ctx := context.Background()
	txn := loanIn(models.TransactionStatusActive)

	f := NewLoanFSM(txn)
	require.NoError(t, f.Mature(ctx))
	assert.Equal(t, models.TransactionStatusMatured, txn.Status)

	f = NewLoanFSM(txn)
	require.NoError(t, f.Expire(ctx))
	assert.Equal(t, models.TransactionStatusExpired, txn.Status)

	f = NewLoanFSM(txn)
	require.NoError(t, f.Default(ctx))
	assert.Equal(t, models.TransactionStatusDefaulted, txn.Status)
}

func TestRedeemFromActiveAndMatured(t *testing.T) {
	ctx := context.Background()

	for _, status := range []string{models.TransactionStatusActive, models.TransactionStatusMatured} {
		txn := loanIn(status)
		require.NoError(t, NewLoanFSM(txn).Redeem(ctx), "redeem from %s", status)
		assert.Equal(t, models.TransactionStatusRedeemed, txn.Status)
	}
}

func TestTerminalStatesRejectEvents(t *testing.T) {
	ctx := context.Background()

	for _, status := range []string{models.TransactionStatusRedeemed, models.TransactionStatusDefaulted} {
		txn := loanIn(status)
		f := NewLoanFSM(txn)
		assert.Error(t, f.Mature(ctx), "mature from %s", status)
		assert.Error(t, f.Expire(ctx), "expire from %s", status)
		assert.Error(t, f.Redeem(ctx), "redeem from %s", status)
		assert.Error(t, f.Default(ctx), "default from %s", status)
		assert.Equal(t, status, txn.Status, "status must not change")
	}
}

func TestExpiredOnlyDefaults(t *testing.T) {
	ctx := context.Background()
	txn := loanIn(models.TransactionStatusExpired)

	f := NewLoanFSM(txn)
	assert.Error(t, f.Redeem(ctx), "expired loans are past the redemption window")
	assert.Error(t, f.Mature(ctx))
	assert.True(t, f.Can("default"))
}

func TestDirectExpireFromActive(t *testing.T) {
	// The sweep may find a loan already past expiry without having seen it
	// mature first
	txn := loanIn(models.TransactionStatusActive)
	require.NoError(t, NewLoanFSM(txn).Expire(context.Background()))
	assert.Equal(t, models.TransactionStatusExpired, txn.Status)
}
