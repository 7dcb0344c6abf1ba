package services

import (
	"context"
	"fmt"

	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/repository"
	"github.com/prendasoft/prenda-api/internal/statemachine"
	"github.com/prendasoft/prenda-api/pkg/logger"
)

// AuctionService disposes of forfeited collateral. Once every item on a
// chain has been sold the chain tail moves to defaulted, closing the loan.
type AuctionService struct {
	txnRepo  repository.TransactionRepository
	itemRepo repository.ItemRepository
	auditSvc auditRecorder
}

func NewAuctionService(txnRepo repository.TransactionRepository, itemRepo repository.ItemRepository, auditSvc auditRecorder) *AuctionService {
	return &AuctionService{txnRepo: txnRepo, itemRepo: itemRepo, auditSvc: auditSvc}
}

// Sell marks a forfeited item as sold at the given price
func (s *AuctionService) Sell(ctx context.Context, itemID uint, price float64, actor Actor) (*models.PawnItem, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: auction price must be positive", ErrValidation)
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, itemID)
	}
	if !item.MaySell() {
		return nil, fmt.Errorf("%w: item %d is %s, only forfeited items can be sold", ErrInvalidState, itemID, item.Status)
	}

	item.Status = models.ItemStatusSold
	item.AuctionPrice = &price
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	if err := s.auditSvc.Log(ctx, actor.ID, "AUCTION_SALE", "PawnItem", item.ID,
		fmt.Sprintf("Item %d sold at auction for %.2f", item.ID, price), actor.IP, actor.UserAgent); err != nil {
		logger.Warn("Failed to write audit record", "action", "AUCTION_SALE", "entity_id", item.ID, "error", err)
	}

	if err := s.settleIfFullySold(ctx, item.TrackingNumber); err != nil {
		logger.Error("Failed to settle chain after auction sale", "tracking_number", item.TrackingNumber, "error", err)
	}

	return item, nil
}

// settleIfFullySold moves the chain tail to defaulted once no item remains
// unsold
func (s *AuctionService) settleIfFullySold(ctx context.Context, trackingNumber string) error {
	items, err := s.itemRepo.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].Status != models.ItemStatusSold {
			return nil
		}
	}

	tail, err := s.txnRepo.FindTail(ctx, trackingNumber)
	if err != nil {
		return err
	}
	fsm := statemachine.NewLoanFSM(tail)
	if err := fsm.Default(ctx); err != nil {
		return err
	}
	return s.txnRepo.UpdateStatus(ctx, tail.ID, tail.Status)
}
