package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeChainWriter applies build funcs against an in-memory tail, mirroring
// what the ledger writer does under its row lock.
type fakeChainWriter struct {
	tail *models.PawnTransaction
	last *LoanEvent
}

func (w *fakeChainWriter) ApplyNew(ctx context.Context, ev *LoanEvent) (*models.PawnTransaction, error) {
	w.last = ev
	ev.Transaction.ID = 1
	return ev.Transaction, nil
}

func (w *fakeChainWriter) Append(ctx context.Context, trackingNumber string, requestID *string, build BuildEventFunc) (*models.PawnTransaction, error) {
	if w.tail == nil {
		return nil, fmt.Errorf("%w: no loan found for tracking number %s", ErrNotFound, trackingNumber)
	}
	ev, err := build(w.tail)
	if err != nil {
		return nil, err
	}
	ev.Transaction.ParentTransactionID = &w.tail.ID
	ev.Transaction.TrackingNumber = w.tail.TrackingNumber
	ev.Transaction.RequestID = requestID
	ev.Transaction.ID = w.tail.ID + 1
	w.last = ev
	return ev.Transaction, nil
}

type fakeBranchRepo struct{ branch *models.Branch }

func (f *fakeBranchRepo) FindByID(ctx context.Context, id uint) (*models.Branch, error) {
	if f.branch == nil || f.branch.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.branch, nil
}
func (f *fakeBranchRepo) FindByCode(ctx context.Context, code string) (*models.Branch, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeBranchRepo) FindAll(ctx context.Context) ([]models.Branch, error)    { return nil, nil }
func (f *fakeBranchRepo) Create(ctx context.Context, branch *models.Branch) error { return nil }
func (f *fakeBranchRepo) Update(ctx context.Context, branch *models.Branch) error { return nil }

type fakePawnerRepo struct{ pawner *models.Pawner }

func (f *fakePawnerRepo) FindByID(ctx context.Context, id uint) (*models.Pawner, error) {
	if f.pawner == nil || f.pawner.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.pawner, nil
}
func (f *fakePawnerRepo) FindByIdentity(ctx context.Context, identity string) (*models.Pawner, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakePawnerRepo) Create(ctx context.Context, pawner *models.Pawner) error { return nil }
func (f *fakePawnerRepo) Update(ctx context.Context, pawner *models.Pawner) error { return nil }
func (f *fakePawnerRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.Pawner, int64, error) {
	return nil, 0, nil
}

type nopAudit struct{}

func (nopAudit) Log(ctx context.Context, actorID uint, action, entity string, entityID uint, details, ip, userAgent string) error {
	return nil
}

// Input validation runs before any storage access, so these paths need no
// repositories behind the service.
func validationOnlyLoanService() *LoanService {
	return &LoanService{}
}

// chainLoanService wires a loan service over the fake writer so the chain
// operations run end to end against a crafted tail.
func chainLoanService(tail *models.PawnTransaction) (*LoanService, *fakeChainWriter) {
	writer := &fakeChainWriter{tail: tail}
	svc := NewLoanService(nil, nil,
		&fakeBranchRepo{branch: &models.Branch{ID: 1, Code: "MN01"}},
		&fakePawnerRepo{pawner: &models.Pawner{ID: 1}},
		nil,
		NewChargeConfigService(seededConfigRepo()),
		writer, nopAudit{})
	return svc, writer
}

func activeTail() *models.PawnTransaction {
	now := time.Now()
	return &models.PawnTransaction{
		ID:              7,
		TicketNumber:    "PT-MN01-202508-000001",
		TrackingNumber:  "3f2c7f9a",
		BranchID:        1,
		PawnerID:        1,
		TransactionType: models.TransactionTypeNewLoan,
		PrincipalAmount: 1000,
		Balance:         1000,
		InterestRate:    0.03,
		Status:          models.TransactionStatusActive,
		GrantedDate:     now,
		MaturityDate:    now.AddDate(0, 0, 30),
		ExpiryDate:      now.AddDate(0, 0, 120),
	}
}

func TestCreateNewLoanValidation(t *testing.T) {
	svc := validationOnlyLoanService()
	ctx := context.Background()
	actor := Actor{ID: 1}

	item := NewLoanItemInput{Description: "Gold ring", AppraisedValue: 20000}

	tests := []struct {
		name  string
		input *NewLoanInput
	}{
		{"zero principal", &NewLoanInput{BranchID: 1, PawnerID: 1, Principal: 0, Items: []NewLoanItemInput{item}}},
		{"negative principal", &NewLoanInput{BranchID: 1, PawnerID: 1, Principal: -100, Items: []NewLoanItemInput{item}}},
		{"no items", &NewLoanInput{BranchID: 1, PawnerID: 1, Principal: 1000}},
		{"item without appraised value", &NewLoanInput{BranchID: 1, PawnerID: 1, Principal: 1000,
			Items: []NewLoanItemInput{{Description: "Watch"}}}},
		{"principal above appraised total", &NewLoanInput{BranchID: 1, PawnerID: 1, Principal: 25000,
			Items: []NewLoanItemInput{item}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateNewLoan(ctx, tt.input, actor)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "expected validation error, got %v", err)
		})
	}
}

func TestCreateNewLoanChargesAndItems(t *testing.T) {
	svc, writer := chainLoanService(nil)

	txn, err := svc.CreateNewLoan(context.Background(), &NewLoanInput{
		BranchID:  1,
		PawnerID:  1,
		Principal: 15000,
		Items: []NewLoanItemInput{
			{Description: "Gold ring", AppraisedValue: 12000},
			{Description: "Gold necklace", AppraisedValue: 8000},
		},
	}, Actor{ID: 1})
	require.NoError(t, err)

	assert.Equal(t, 450.0, txn.InterestAmount)
	assert.Equal(t, 5.0, txn.ServiceCharge)
	assert.Equal(t, 15000.0, txn.Balance)
	assert.Equal(t, 15455.0, writer.last.Total)

	require.Len(t, writer.last.Items, 2)
	assert.Equal(t, 9000.0, writer.last.Items[0].LoanAmount)
	assert.Equal(t, 6000.0, writer.last.Items[1].LoanAmount)
	assert.Equal(t, models.ItemStatusInVault, writer.last.Items[0].Status)
}

func TestAddToLoanRejectsNonPositiveAmount(t *testing.T) {
	svc := validationOnlyLoanService()

	for _, amount := range []float64{0, -500} {
		_, err := svc.AddToLoan(context.Background(), "track-1", amount, "", Actor{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
	}
}

func TestAddToLoanReadsReducedPrincipal(t *testing.T) {
	tail := activeTail()
	tail.TransactionType = models.TransactionTypePartialPayment
	tail.NewPrincipalLoan = floatPtr(500)
	tail.Balance = 500
	svc, _ := chainLoanService(tail)

	txn, err := svc.AddToLoan(context.Background(), "3f2c7f9a", 300, "", Actor{ID: 1})
	require.NoError(t, err)

	// The base is the post-payment snapshot, not the original principal
	assert.Equal(t, 800.0, txn.PrincipalAmount)
	assert.Equal(t, 800.0, txn.Balance)
	assert.Equal(t, 24.0, txn.InterestAmount)
	assert.Equal(t, models.TransactionStatusActive, txn.Status)
}

func TestMakePartialPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc := validationOnlyLoanService()

	for _, amount := range []float64{0, -1} {
		_, err := svc.MakePartialPayment(context.Background(), "track-1", amount, "", Actor{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
	}
}

func TestMakePartialPaymentReducesBalance(t *testing.T) {
	svc, writer := chainLoanService(activeTail())

	txn, err := svc.MakePartialPayment(context.Background(), "3f2c7f9a", 500, "", Actor{ID: 1})
	require.NoError(t, err)

	assert.Equal(t, 500.0, txn.Balance)
	require.NotNil(t, txn.NewPrincipalLoan)
	assert.Equal(t, 500.0, *txn.NewPrincipalLoan)
	assert.Equal(t, 500.0, txn.AmountPaid)
	assert.Equal(t, 0.0, txn.PenaltyAmount)
	assert.Equal(t, models.TransactionTypePartialPayment, txn.TransactionType)
	require.NotNil(t, txn.ParentTransactionID)
	assert.Equal(t, uint(7), *txn.ParentTransactionID)
	assert.Equal(t, 500.0, writer.last.Total)
}

func TestMakePartialPaymentRejectsOverpayment(t *testing.T) {
	svc, _ := chainLoanService(activeTail())

	_, err := svc.MakePartialPayment(context.Background(), "3f2c7f9a", 1500, "", Actor{ID: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRenewLoanKeepsBalance(t *testing.T) {
	tail := activeTail()
	tail.MaturityDate = time.Now().AddDate(0, 0, 10)
	svc, writer := chainLoanService(tail)

	txn, err := svc.RenewLoan(context.Background(), "3f2c7f9a", "", Actor{ID: 1})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, txn.Balance)
	assert.Equal(t, 35.0, txn.AmountPaid, "one month of interest plus the bracket charge")
	assert.True(t, txn.MaturityDate.After(tail.MaturityDate))
	assert.Equal(t, 35.0, writer.last.Total)
}

func TestRedeemLoanRejectsNonPositiveAmount(t *testing.T) {
	svc := validationOnlyLoanService()

	_, err := svc.RedeemLoan(context.Background(), "track-1", 0, "", Actor{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRedeemLoanRequiresFullBalance(t *testing.T) {
	svc, _ := chainLoanService(activeTail())

	_, err := svc.RedeemLoan(context.Background(), "3f2c7f9a", 999.99, "", Actor{ID: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRedeemLoanSettlesChain(t *testing.T) {
	svc, writer := chainLoanService(activeTail())

	txn, err := svc.RedeemLoan(context.Background(), "3f2c7f9a", 1000, "", Actor{ID: 1})
	require.NoError(t, err)

	assert.Equal(t, 0.0, txn.Balance)
	assert.Equal(t, models.TransactionStatusRedeemed, txn.Status)
	assert.Equal(t, models.ItemStatusInVault, writer.last.ItemStatusFrom)
	assert.Equal(t, models.ItemStatusRedeemed, writer.last.ItemStatusTo)
	assert.Equal(t, 1000.0, writer.last.Total)
}

func TestRedeemLoanCollectsPenaltyWhenOverdue(t *testing.T) {
	tail := activeTail()
	tail.Status = models.TransactionStatusMatured
	tail.MaturityDate = time.Now().AddDate(0, 0, -2)
	svc, writer := chainLoanService(tail)

	txn, err := svc.RedeemLoan(context.Background(), "3f2c7f9a", 1000, "", Actor{ID: 1})
	require.NoError(t, err)

	// Two days overdue at 2% monthly, prorated daily
	assert.InDelta(t, 1.33, txn.PenaltyAmount, 0.001)
	assert.InDelta(t, 1001.33, writer.last.Total, 0.001)
}

func TestChainOperationsRejectSettledTail(t *testing.T) {
	tail := activeTail()
	tail.Status = models.TransactionStatusRedeemed
	tail.Balance = 0
	svc, _ := chainLoanService(tail)
	ctx := context.Background()

	ops := []struct {
		name string
		run  func() error
	}{
		{"partial payment", func() error {
			_, err := svc.MakePartialPayment(ctx, "3f2c7f9a", 100, "", Actor{})
			return err
		}},
		{"additional loan", func() error {
			_, err := svc.AddToLoan(ctx, "3f2c7f9a", 100, "", Actor{})
			return err
		}},
		{"renewal", func() error {
			_, err := svc.RenewLoan(ctx, "3f2c7f9a", "", Actor{})
			return err
		}},
		{"redemption", func() error {
			_, err := svc.RedeemLoan(ctx, "3f2c7f9a", 100, "", Actor{})
			return err
		}},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			err := op.run()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidState), "got %v", err)
		})
	}
}
