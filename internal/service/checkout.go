package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cafevt/storefront/internal/model"
	"github.com/cafevt/storefront/internal/repository"
)

// Checkout steps, in order. A CheckoutError names the step it failed at so
// diagnostics can show how far the attempt got before the rollback.
const (
	StepStarted        = "started"
	StepItemsValidated = "items_validated"
	StepStockReserved  = "stock_reserved"
	StepPersisted      = "persisted"
	StepCartCleared    = "cart_cleared"
	StepCommitted      = "committed"
)

// CheckoutError wraps any failure between loading the cart and committing
// the transaction. It carries the in-flight cart snapshot for diagnostic
// display; by the time the caller sees it, every write has been rolled
// back.
type CheckoutError struct {
	Step  string
	Lines []model.CartLine
	Err   error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout failed at %s: %v", e.Step, e.Err)
}

func (e *CheckoutError) Unwrap() error { return e.Err }

// CheckoutService converts a user's cart into a persisted purchase with
// stock decremented, all inside one database transaction.
type CheckoutService struct {
	db        *sql.DB
	carts     *repository.CartRepo
	products  *repository.ProductRepo
	purchases *repository.PurchaseRepo
}

func NewCheckoutService(db *sql.DB, carts *repository.CartRepo, products *repository.ProductRepo, purchases *repository.PurchaseRepo) *CheckoutService {
	if db == nil || carts == nil || products == nil || purchases == nil {
		panic("nil dependency passed to NewCheckoutService")
	}
	return &CheckoutService{db: db, carts: carts, products: products, purchases: purchases}
}

// CreatePurchase runs the checkout state machine:
//
//	Started -> ItemsValidated -> StockReserved -> Persisted -> CartCleared -> Committed
//
// Every step runs inside one transaction opened at Started. Stock is
// decremented with a conditional update (stock_qty >= requested), so two
// concurrent checkouts against the same product serialize on the row and
// the loser gets ErrInsufficientStock even though its earlier validation
// passed. Unit prices are snapshotted into the purchase details at this
// point; later catalog price changes never touch committed orders. Any
// failure after Started rolls the whole transaction back, leaving stock,
// purchases and the cart exactly as they were.
func (s *CheckoutService) CreatePurchase(ctx context.Context, userID uint64) (*model.Purchase, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkout tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Started: load the cart through the transaction.
	lines, err := s.carts.LinesTx(ctx, tx, userID)
	if err != nil {
		return nil, &CheckoutError{Step: StepStarted, Err: err}
	}
	if len(lines) == 0 {
		return nil, &CheckoutError{Step: StepStarted, Err: repository.ErrEmptyCart}
	}

	// ItemsValidated: re-fetch each product; stock may have changed since
	// the lines were added to the cart.
	for _, l := range lines {
		p, err := s.products.GetByIDTx(ctx, tx, l.ProductID)
		if err != nil {
			return nil, &CheckoutError{Step: StepItemsValidated, Lines: lines, Err: err}
		}
		if p.StockQty < l.Quantity {
			return nil, &CheckoutError{Step: StepItemsValidated, Lines: lines, Err: repository.ErrInsufficientStock}
		}
	}

	// StockReserved: conditional decrement per line. A zero-row update
	// here means a concurrent checkout won the race after validation.
	for _, l := range lines {
		if err := s.products.ReserveStockTx(ctx, tx, l.ProductID, l.Quantity); err != nil {
			return nil, &CheckoutError{Step: StepStockReserved, Lines: lines, Err: err}
		}
	}

	// Persisted: purchase row plus one detail per line, prices snapshotted.
	var total int64
	details := make([]model.PurchaseDetail, 0, len(lines))
	for _, l := range lines {
		total += l.Subtotal()
		details = append(details, model.PurchaseDetail{
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			UnitPriceCents: l.PriceCents,
		})
	}
	purchase := &model.Purchase{UserID: userID, TotalCents: total, Status: model.PurchaseCompleted}
	if err := s.purchases.CreateTx(ctx, tx, purchase); err != nil {
		return nil, &CheckoutError{Step: StepPersisted, Lines: lines, Err: err}
	}
	for i := range details {
		details[i].PurchaseID = purchase.ID
	}
	if err := s.purchases.CreateDetailsBulkTx(ctx, tx, details); err != nil {
		return nil, &CheckoutError{Step: StepPersisted, Lines: lines, Err: err}
	}

	// CartCleared: inside the tx, so a failed commit restores the cart.
	if err := s.carts.ClearTx(ctx, tx, userID); err != nil {
		return nil, &CheckoutError{Step: StepCartCleared, Lines: lines, Err: err}
	}

	// Committed.
	if err := tx.Commit(); err != nil {
		return nil, &CheckoutError{Step: StepCommitted, Lines: lines, Err: err}
	}
	committed = true
	return purchase, nil
}
