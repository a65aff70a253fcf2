package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cafevt/storefront/internal/model"
)

// PurchaseRepo provides writes for the checkout transaction and reads for
// order history. A purchase and its detail rows are only ever created
// together inside one transaction; there is no path that persists a
// purchase without its lines.
type PurchaseRepo struct{ db *sql.DB }

func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{db: db} }

// CreateTx inserts the purchase row within the checkout transaction and
// populates the generated ID on the record. The caller commits or rolls
// back.
func (r *PurchaseRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Purchase) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO purchases (user_id, total_cents, status) VALUES (?, ?, ?)",
		p.UserID, p.TotalCents, p.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// CreateDetailsBulkTx inserts all purchase_details rows in a single
// statement. Each detail must already carry the purchase ID. An empty
// slice is a no-op.
func (r *PurchaseRepo) CreateDetailsBulkTx(ctx context.Context, tx *sql.Tx, details []model.PurchaseDetail) error {
	if len(details) == 0 {
		return nil
	}
	query := "INSERT INTO purchase_details (purchase_id, product_id, quantity, unit_price_cents) VALUES "
	args := make([]any, 0, len(details)*4)
	for i, d := range details {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, d.PurchaseID, d.ProductID, d.Quantity, d.UnitPriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// PurchaseDetailView is a detail row joined with the product name for
// history display.
type PurchaseDetailView struct {
	ProductID      uint64 `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// PurchaseView is a purchase with its line items, as returned to clients.
type PurchaseView struct {
	ID         uint64               `json:"id"`
	TotalCents int64                `json:"total_cents"`
	Status     string               `json:"status"`
	CreatedAt  string               `json:"created_at"`
	Items      []PurchaseDetailView `json:"items"`
}

// GetByIDForUser returns one purchase with its details, restricted to the
// owning user. Returns ErrPurchaseNotFound when the id does not exist or
// belongs to someone else; ownership is not distinguished from absence to
// avoid leaking other users' order ids.
func (r *PurchaseRepo) GetByIDForUser(ctx context.Context, purchaseID, userID uint64) (*PurchaseView, error) {
	var v PurchaseView
	var created sql.NullTime
	err := r.db.QueryRowContext(ctx,
		"SELECT id, total_cents, status, created_at FROM purchases WHERE id=? AND user_id=?",
		purchaseID, userID).Scan(&v.ID, &v.TotalCents, &v.Status, &created)
	if err == sql.ErrNoRows {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	if created.Valid {
		v.CreatedAt = created.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	v.Items = make([]PurchaseDetailView, 0)
	rows, err := r.db.QueryContext(ctx,
		`SELECT pd.product_id, p.name, pd.quantity, pd.unit_price_cents
		 FROM purchase_details pd
		 JOIN products p ON p.id = pd.product_id
		 WHERE pd.purchase_id = ?
		 ORDER BY pd.id`, v.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var d PurchaseDetailView
		if err := rows.Scan(&d.ProductID, &d.ProductName, &d.Quantity, &d.UnitPriceCents); err != nil {
			return nil, err
		}
		v.Items = append(v.Items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByUser returns all purchases for the user, newest first, with line
// items populated through a single batched IN-clause query.
func (r *PurchaseRepo) ListByUser(ctx context.Context, userID uint64) ([]PurchaseView, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, total_cents, status, created_at FROM purchases WHERE user_id=? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	views := make([]PurchaseView, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var v PurchaseView
		var created sql.NullTime
		if err := rows.Scan(&v.ID, &v.TotalCents, &v.Status, &created); err != nil {
			return nil, err
		}
		if created.Valid {
			v.CreatedAt = created.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		v.Items = make([]PurchaseDetailView, 0)
		index[v.ID] = len(views)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return views, nil
	}
	ids := make([]any, 0, len(views))
	placeholders := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
		placeholders = append(placeholders, "?")
	}
	detailQuery := `SELECT pd.purchase_id, pd.product_id, p.name, pd.quantity, pd.unit_price_cents
	                FROM purchase_details pd
	                JOIN products p ON p.id = pd.product_id
	                WHERE pd.purchase_id IN (` + strings.Join(placeholders, ",") + `)
	                ORDER BY pd.purchase_id, pd.id`
	drows, err := r.db.QueryContext(ctx, detailQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer drows.Close()
	for drows.Next() {
		var pid uint64
		var d PurchaseDetailView
		if err := drows.Scan(&pid, &d.ProductID, &d.ProductName, &d.Quantity, &d.UnitPriceCents); err != nil {
			return nil, err
		}
		idx, ok := index[pid]
		if !ok {
			continue
		}
		views[idx].Items = append(views[idx].Items, d)
	}
	if err := drows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}
