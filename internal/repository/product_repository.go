package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cafevt/storefront/internal/model"
)

// ProductRepo provides read access to the catalog and the conditional
// stock decrement used by checkout. Stock is never mutated anywhere else.
type ProductRepo struct{ db *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// DB exposes the underlying handle so services can open transactions that
// span several repositories.
func (r *ProductRepo) DB() *sql.DB { return r.db }

const productCols = "id, name, description, category, price_cents, stock_qty, created_at, updated_at"

func scanProduct(row interface{ Scan(...any) error }) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.PriceCents, &p.StockQty, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetByID fetches a single product. Returns ErrProductNotFound when the id
// does not resolve.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productCols+" FROM products WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return p, ErrProductNotFound
	}
	return p, err
}

// GetByIDTx is GetByID inside an existing transaction. Checkout uses it to
// re-validate each cart line against current stock rather than trusting
// quantities checked at add-to-cart time.
func (r *ProductRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Product, error) {
	p, err := scanProduct(tx.QueryRowContext(ctx,
		"SELECT "+productCols+" FROM products WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return p, ErrProductNotFound
	}
	return p, err
}

// List returns products matching the optional category and free-text
// filters, newest first. Both filters may be empty.
func (r *ProductRepo) List(ctx context.Context, category, q string) ([]model.Product, error) {
	query := "SELECT " + productCols + " FROM products"
	var conds []string
	var args []any
	if category != "" {
		conds = append(conds, "category = ?")
		args = append(args, category)
	}
	if q != "" {
		conds = append(conds, "(name LIKE ? OR description LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// ReserveStockTx atomically decrements stock for one cart line inside the
// checkout transaction:
//
//	UPDATE products SET stock_qty = stock_qty - ? WHERE id = ? AND stock_qty >= ?
//
// The WHERE guard makes the decrement race-safe: when a concurrent checkout
// has taken the remaining stock since validation, zero rows are affected
// and ErrInsufficientStock is returned even though the earlier check
// passed. The caller rolls back the whole transaction in that case.
func (r *ProductRepo) ReserveStockTx(ctx context.Context, tx *sql.Tx, productID uint64, qty int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock_qty = stock_qty - ? WHERE id = ? AND stock_qty >= ?",
		qty, productID, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}
