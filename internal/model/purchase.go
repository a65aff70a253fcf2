package model

import "time"

// Purchase status values. No transitions beyond these three are modelled;
// a purchase is created as COMPLETED by checkout and only an operator ever
// moves it to CANCELLED.
const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
	PurchaseCancelled = "cancelled"
)

// Purchase records a committed checkout as stored in the `purchases`
// table. It is created atomically with its PurchaseDetail line items inside
// one transaction and is immutable afterwards except for Status.
//
// Fields:
//
//	ID         – primary key identifier.
//	UserID     – user who checked out.
//	TotalCents – Σ(unit price snapshot × quantity) over all details.
//	Status     – pending, completed or cancelled.
//	CreatedAt  – creation timestamp.
type Purchase struct {
	ID         uint64    // purchases.id
	UserID     uint64    // purchases.user_id
	TotalCents int64     // purchases.total_cents
	Status     string    // purchases.status
	CreatedAt  time.Time // purchases.created_at
}

// PurchaseDetail is one line item of a purchase in the `purchase_details`
// table. UnitPriceCents is the price captured at checkout time; later
// product price changes never affect historical orders.
type PurchaseDetail struct {
	ID             uint64 // purchase_details.id
	PurchaseID     uint64 // purchase_details.purchase_id
	ProductID      uint64 // purchase_details.product_id
	Quantity       int64  // purchase_details.quantity
	UnitPriceCents int64  // purchase_details.unit_price_cents
}
