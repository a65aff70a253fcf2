package model

import "time"

// CartItem is one pending line in a user's cart as stored in the
// `cart_items` table. The (UserID, ProductID) pair is unique: re-adding a
// product increments the existing row instead of inserting a second one.
// Stock is not reserved at cart time; it is only decremented at checkout.
type CartItem struct {
	ID        uint64    // cart_items.id
	UserID    uint64    // cart_items.user_id
	ProductID uint64    // cart_items.product_id
	Quantity  int64     // cart_items.quantity (> 0)
	CreatedAt time.Time // cart_items.created_at
	UpdatedAt time.Time // cart_items.updated_at
}

// CartLine is a cart item joined with its product for display and for the
// checkout snapshot: the price here is the live product price at read time.
type CartLine struct {
	ProductID   uint64 `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	PriceCents  int64  `json:"price_cents"`
	StockQty    int64  `json:"-"`
}

// Subtotal returns price × quantity for the line.
func (l CartLine) Subtotal() int64 { return l.PriceCents * l.Quantity }
