package repository

import (
	"context"
	"database/sql"

	"github.com/cafevt/storefront/internal/model"
)

// CartRepo manages the cart_items table. A (user, product) pair has at
// most one row, enforced by a unique index; Upsert relies on it to
// increment an existing line instead of inserting a duplicate.
type CartRepo struct{ db *sql.DB }

func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{db: db} }

// Upsert inserts a cart line or increments the existing one when the
// (user, product) pair already has a row.
func (r *CartRepo) Upsert(ctx context.Context, userID, productID uint64, qty int64) error {
	const q = `INSERT INTO cart_items (user_id, product_id, quantity)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`
	_, err := r.db.ExecContext(ctx, q, userID, productID, qty)
	return err
}

// SetQuantity replaces the quantity of an existing line, creating it when
// absent. Used by the explicit cart-update flow; Add always increments.
func (r *CartRepo) SetQuantity(ctx context.Context, userID, productID uint64, qty int64) error {
	const q = `INSERT INTO cart_items (user_id, product_id, quantity)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE quantity = VALUES(quantity)`
	_, err := r.db.ExecContext(ctx, q, userID, productID, qty)
	return err
}

// GetQuantity returns the current quantity of a cart line, or 0 when the
// pair has no row.
func (r *CartRepo) GetQuantity(ctx context.Context, userID, productID uint64) (int64, error) {
	var qty int64
	err := r.db.QueryRowContext(ctx,
		"SELECT quantity FROM cart_items WHERE user_id=? AND product_id=? LIMIT 1",
		userID, productID).Scan(&qty)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return qty, err
}

// Remove deletes a single cart line. Removing an absent line is not an error.
func (r *CartRepo) Remove(ctx context.Context, userID, productID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id=? AND product_id=?", userID, productID)
	return err
}

const cartLineQuery = `SELECT ci.product_id, p.name, ci.quantity, p.price_cents, p.stock_qty
                       FROM cart_items ci
                       JOIN products p ON p.id = ci.product_id
                       WHERE ci.user_id = ?
                       ORDER BY ci.created_at, ci.id`

func scanCartLines(rows *sql.Rows) ([]model.CartLine, error) {
	defer rows.Close()
	lines := make([]model.CartLine, 0)
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &l.PriceCents, &l.StockQty); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Lines returns the user's cart joined with live product names and prices,
// in insertion order.
func (r *CartRepo) Lines(ctx context.Context, userID uint64) ([]model.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, cartLineQuery, userID)
	if err != nil {
		return nil, err
	}
	return scanCartLines(rows)
}

// LinesTx is Lines inside an existing transaction. Checkout loads the cart
// through the transaction so the snapshot it prices is the one it clears.
func (r *CartRepo) LinesTx(ctx context.Context, tx *sql.Tx, userID uint64) ([]model.CartLine, error) {
	rows, err := tx.QueryContext(ctx, cartLineQuery, userID)
	if err != nil {
		return nil, err
	}
	return scanCartLines(rows)
}

// Clear deletes all cart lines for the user.
func (r *CartRepo) Clear(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id=?", userID)
	return err
}

// ClearTx clears the cart within the checkout transaction so a rollback
// restores the lines together with the stock.
func (r *CartRepo) ClearTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id=?", userID)
	return err
}
