package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cafevt/storefront/internal/model"
)

// LoyaltyRepo manages the append-only loyalty_ledger table. Balances are
// derived with SUM rather than maintained as a counter, so a crashed
// consumer can never leave a balance out of sync with its ledger.
type LoyaltyRepo struct{ db *sql.DB }

func NewLoyaltyRepo(db *sql.DB) *LoyaltyRepo { return &LoyaltyRepo{db: db} }

// CreditPurchase appends an earn entry for a completed purchase. The
// credit is idempotent per purchase: the unique index on
// loyalty_ledger.purchase_id rejects a second row with a MySQL 1062
// duplicate-key error, which is reported as a no-op returning false. The
// index makes the idempotency hold even for two concurrent deliveries of
// the same event.
func (r *LoyaltyRepo) CreditPurchase(ctx context.Context, userID, purchaseID uint64, points int64) (bool, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO loyalty_ledger (user_id, points, reason, purchase_id) VALUES (?,?,?,?)",
		userID, points, model.LoyaltyReasonPurchase, purchaseID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Balance returns the sum of all ledger deltas for the user.
func (r *LoyaltyRepo) Balance(ctx context.Context, userID uint64) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(points), 0) FROM loyalty_ledger WHERE user_id=?", userID).Scan(&balance)
	return balance, err
}

// History returns the user's ledger entries, newest first.
func (r *LoyaltyRepo) History(ctx context.Context, userID uint64) ([]model.LoyaltyEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, points, reason, purchase_id, created_at FROM loyalty_ledger WHERE user_id=? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.LoyaltyEntry, 0)
	for rows.Next() {
		var e model.LoyaltyEntry
		var pid sql.NullInt64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Points, &e.Reason, &pid, &e.CreatedAt); err != nil {
			return nil, err
		}
		if pid.Valid {
			v := uint64(pid.Int64)
			e.PurchaseID = &v
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
