package model

import "time"

// Product mirrors the `products` table. Prices are stored as integer cents
// to avoid floating point arithmetic on money. StockQty never goes below
// zero: the only mutation path is the conditional decrement performed
// during checkout.
//
// Fields:
//
//	ID          – primary key identifier.
//	Name        – display name.
//	Description – long form description.
//	Category    – free-form category label used for browse filtering.
//	PriceCents  – unit price in cents, always > 0.
//	StockQty    – units available, always >= 0.
//	CreatedAt   – timestamp of creation.
//	UpdatedAt   – timestamp of last update.
type Product struct {
	ID          uint64    // products.id
	Name        string    // products.name
	Description string    // products.description
	Category    string    // products.category
	PriceCents  int64     // products.price_cents
	StockQty    int64     // products.stock_qty
	CreatedAt   time.Time // products.created_at
	UpdatedAt   time.Time // products.updated_at
}
