package service

import (
	"context"

	"github.com/cafevt/storefront/internal/model"
	"github.com/cafevt/storefront/internal/repository"
)

// LoyaltyService exposes point balances and credits points for completed
// purchases. Crediting is called by the queue consumer, not by the HTTP
// layer: checkout publishes a purchase.completed event and the award
// happens asynchronously.
type LoyaltyService struct {
	ledger *repository.LoyaltyRepo
	// centsPerPoint is how many cents of purchase total earn one point.
	centsPerPoint int64
}

func NewLoyaltyService(ledger *repository.LoyaltyRepo, centsPerPoint int64) *LoyaltyService {
	if ledger == nil {
		panic("nil dependency passed to NewLoyaltyService")
	}
	if centsPerPoint <= 0 {
		centsPerPoint = 100
	}
	return &LoyaltyService{ledger: ledger, centsPerPoint: centsPerPoint}
}

// PointsFor returns the points earned by a purchase total, rounding down.
func (s *LoyaltyService) PointsFor(totalCents int64) int64 {
	return totalCents / s.centsPerPoint
}

// CreditPurchase awards points for a completed purchase. It is idempotent
// per purchase id, so redelivered queue messages cannot double-credit.
// Returns true when a new ledger entry was written.
func (s *LoyaltyService) CreditPurchase(ctx context.Context, userID, purchaseID uint64, totalCents int64) (bool, error) {
	points := s.PointsFor(totalCents)
	if points <= 0 {
		return false, nil
	}
	return s.ledger.CreditPurchase(ctx, userID, purchaseID, points)
}

// Balance returns the user's current point balance.
func (s *LoyaltyService) Balance(ctx context.Context, userID uint64) (int64, error) {
	return s.ledger.Balance(ctx, userID)
}

// History returns the user's ledger entries, newest first.
func (s *LoyaltyService) History(ctx context.Context, userID uint64) ([]model.LoyaltyEntry, error) {
	return s.ledger.History(ctx, userID)
}
