// Package queue defines the message payloads exchanged over the broker
// and the background consumer that processes them.
package queue

// PurchaseQueueName is the durable queue carrying purchase.completed
// events from checkout to the loyalty/notification consumer.
const PurchaseQueueName = "purchase.completed"

// PurchaseCompletedEvent is published after a checkout transaction
// commits. It carries enough information for downstream consumers to
// credit loyalty points and send the confirmation email without querying
// the primary database.
type PurchaseCompletedEvent struct {
	PurchaseID uint64          `json:"purchase_id"`
	UserID     uint64          `json:"user_id"`
	UserEmail  string          `json:"user_email"`
	UserName   string          `json:"user_name"`
	TotalCents int64           `json:"total_cents"`
	Items      []PurchasedItem `json:"items"`
	OccurredAt string          `json:"occurred_at"`
}

// PurchasedItem is one line of the committed purchase as seen by
// consumers.
type PurchasedItem struct {
	ProductID      uint64 `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}
