package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/prendasoft/prenda-api/internal/models"
)

// LoanFSM wraps a chain tail transaction with its status state machine.
// Redeemed and defaulted are terminal; expired only leaves through default
// (after auction of the forfeited items).
type LoanFSM struct {
	txn *models.PawnTransaction
	fsm *fsm.FSM
}

// NewLoanFSM creates a state machine positioned at the tail's current status
func NewLoanFSM(txn *models.PawnTransaction) *LoanFSM {
	l := &LoanFSM{
		txn: txn,
	}

	l.fsm = fsm.NewFSM(
		txn.Status,
		fsm.Events{
			// active → matured (past maturity date)
			{Name: "mature", Src: []string{models.TransactionStatusActive}, Dst: models.TransactionStatusMatured},

			// active/matured → expired (redemption window closed)
			{Name: "expire", Src: []string{models.TransactionStatusActive, models.TransactionStatusMatured}, Dst: models.TransactionStatusExpired},

			// active/matured → redeemed (full settlement)
			{Name: "redeem", Src: []string{models.TransactionStatusActive, models.TransactionStatusMatured}, Dst: models.TransactionStatusRedeemed},

			// expired → defaulted (items auctioned off)
			{Name: "default", Src: []string{models.TransactionStatusExpired}, Dst: models.TransactionStatusDefaulted},
		},
		fsm.Callbacks{},
	)

	return l
}

// Mature transitions the loan to matured status
func (l *LoanFSM) Mature(ctx context.Context) error {
	if err := l.fsm.Event(ctx, "mature"); err != nil {
		return fmt.Errorf("loan cannot mature from status %s: %w", l.txn.Status, err)
	}

	l.txn.Status = l.fsm.Current()
	return nil
}

// Expire transitions the loan to expired status
func (l *LoanFSM) Expire(ctx context.Context) error {
	if err := l.fsm.Event(ctx, "expire"); err != nil {
		return fmt.Errorf("loan cannot expire from status %s: %w", l.txn.Status, err)
	}

	l.txn.Status = l.fsm.Current()
	return nil
}

// Redeem transitions the loan to redeemed status
func (l *LoanFSM) Redeem(ctx context.Context) error {
	if !l.txn.MayRedeem() {
		return fmt.Errorf("loan cannot be redeemed in current status: %s", l.txn.Status)
	}

	if err := l.fsm.Event(ctx, "redeem"); err != nil {
		return fmt.Errorf("failed to redeem loan: %w", err)
	}

	l.txn.Status = l.fsm.Current()
	return nil
}

// Default transitions an expired loan to defaulted status
func (l *LoanFSM) Default(ctx context.Context) error {
	if err := l.fsm.Event(ctx, "default"); err != nil {
		return fmt.Errorf("loan cannot default from status %s: %w", l.txn.Status, err)
	}

	l.txn.Status = l.fsm.Current()
	return nil
}

// Current returns the current state
func (l *LoanFSM) Current() string {
	return l.fsm.Current()
}

// Can checks if a transition is possible
func (l *LoanFSM) Can(event string) bool {
	return l.fsm.Can(event)
}
