package model

import "time"

// Loyalty ledger reasons.
const (
	LoyaltyReasonPurchase = "purchase"
	LoyaltyReasonAdjust   = "adjustment"
)

// LoyaltyEntry mirrors the `loyalty_ledger` table. The ledger is
// append-only; a user's balance is the sum of Points over their entries.
// Purchase-earned entries carry the purchase id, which also makes the
// credit idempotent when a queue message is redelivered.
type LoyaltyEntry struct {
	ID         uint64    // loyalty_ledger.id
	UserID     uint64    // loyalty_ledger.user_id
	Points     int64     // loyalty_ledger.points (signed delta)
	Reason     string    // loyalty_ledger.reason
	PurchaseID *uint64   // loyalty_ledger.purchase_id (nullable)
	CreatedAt  time.Time // loyalty_ledger.created_at
}
