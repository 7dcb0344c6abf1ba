package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrentPrincipal(t *testing.T) {
	txn := &PawnTransaction{Balance: 1000}
	assert.Equal(t, 1000.0, txn.CurrentPrincipal())

	// After a partial payment the snapshot carries the reduced base
	reduced := 500.0
	txn.NewPrincipalLoan = &reduced
	assert.Equal(t, 500.0, txn.CurrentPrincipal())
}

func TestDaysOverdue(t *testing.T) {
	maturity := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	txn := &PawnTransaction{MaturityDate: maturity}

	assert.Equal(t, 0, txn.DaysOverdue(maturity.AddDate(0, 0, -5)), "before maturity")
	assert.Equal(t, 0, txn.DaysOverdue(maturity), "on maturity day")
	assert.Equal(t, 2, txn.DaysOverdue(maturity.AddDate(0, 0, 2)))
	assert.Equal(t, 17, txn.DaysOverdue(maturity.AddDate(0, 0, 17)))
}

func TestLifecycleEligibility(t *testing.T) {
	open := []string{TransactionStatusActive, TransactionStatusMatured}
	closed := []string{TransactionStatusExpired, TransactionStatusRedeemed, TransactionStatusDefaulted}

	for _, status := range open {
		txn := &PawnTransaction{Status: status}
		assert.True(t, txn.MayAddLoan(), "add loan while %s", status)
		assert.True(t, txn.MayPay(), "pay while %s", status)
		assert.True(t, txn.MayRenew(), "renew while %s", status)
		assert.True(t, txn.MayRedeem(), "redeem while %s", status)
	}

	for _, status := range closed {
		txn := &PawnTransaction{Status: status}
		assert.False(t, txn.MayAddLoan(), "add loan while %s", status)
		assert.False(t, txn.MayPay(), "pay while %s", status)
		assert.False(t, txn.MayRenew(), "renew while %s", status)
		assert.False(t, txn.MayRedeem(), "redeem while %s", status)
	}
}

func TestBracketContains(t *testing.T) {
	max := 200.0
	bounded := &ServiceChargeBracket{MinAmount: 101, MaxAmount: &max}
	assert.False(t, bounded.Contains(100.99))
	assert.True(t, bounded.Contains(101))
	assert.True(t, bounded.Contains(200), "max is inclusive")
	assert.False(t, bounded.Contains(200.01))

	unbounded := &ServiceChargeBracket{MinAmount: 500}
	assert.True(t, unbounded.Contains(500))
	assert.True(t, unbounded.Contains(1000000))
	assert.False(t, unbounded.Contains(499.99))
}
