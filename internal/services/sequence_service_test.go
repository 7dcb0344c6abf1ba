package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSequenceRepo struct {
	counters map[string]int64
}

func (f *fakeSequenceRepo) Next(ctx context.Context, branchID uint, sequenceType string, year, month int) (int64, error) {
	if f.counters == nil {
		f.counters = make(map[string]int64)
	}
	key := fmt.Sprintf("%s/%d/%04d%02d", sequenceType, branchID, year, month)
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeSequenceRepo) WithTx(tx *gorm.DB) repository.SequenceRepository {
	return f
}

func TestFormatNumber(t *testing.T) {
	period := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "PT-MN01-202510-000007",
		FormatNumber(models.SequenceTypeTicket, "MN01", period, 7))
	assert.Equal(t, "TXN-MN01-202510-000123",
		FormatNumber(models.SequenceTypeTransaction, "MN01", period, 123))
}

func TestSequenceServiceIndependentCounters(t *testing.T) {
	svc := NewSequenceService(&fakeSequenceRepo{})
	ctx := context.Background()
	at := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	// Same branch and period: tickets and transactions count separately
	ticket, err := svc.NextTicketNumber(ctx, 1, "MN01", at)
	require.NoError(t, err)
	txn, err := svc.NextTransactionNumber(ctx, 1, "MN01", at)
	require.NoError(t, err)
	assert.Equal(t, "PT-MN01-202510-000001", ticket)
	assert.Equal(t, "TXN-MN01-202510-000001", txn)

	// Another branch starts its own count
	other, err := svc.NextTicketNumber(ctx, 2, "QC02", at)
	require.NoError(t, err)
	assert.Equal(t, "PT-QC02-202510-000001", other)

	// A new month resets the number
	nextMonth, err := svc.NextTicketNumber(ctx, 1, "MN01", at.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, "PT-MN01-202511-000001", nextMonth)
}

func TestSequenceServiceWithTxSharesCounters(t *testing.T) {
	svc := NewSequenceService(&fakeSequenceRepo{})
	ctx := context.Background()
	at := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.WithTx(nil).NextNumber(ctx, 1, "MN01", models.SequenceTypeTicket, at)
	require.NoError(t, err)
	second, err := svc.NextTicketNumber(ctx, 1, "MN01", at)
	require.NoError(t, err)

	assert.Equal(t, "PT-MN01-202510-000001", first)
	assert.Equal(t, "PT-MN01-202510-000002", second)
}
