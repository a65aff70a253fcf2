package service

import (
	"context"
	"errors"

	"github.com/cafevt/storefront/internal/model"
	"github.com/cafevt/storefront/internal/repository"
)

// ErrInvalidQuantity is returned when a cart mutation asks for a quantity
// the cart cannot store. Cart lines hold positive quantities only; zero is
// meaningful solely as the remove signal in Update.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// CartService maintains a user's pending cart lines. It never touches
// stock: quantities are validated against current stock as a courtesy at
// add time, but the authoritative check is the conditional decrement in
// checkout.
type CartService struct {
	carts    *repository.CartRepo
	products *repository.ProductRepo
}

func NewCartService(carts *repository.CartRepo, products *repository.ProductRepo) *CartService {
	if carts == nil || products == nil {
		panic("nil dependency passed to NewCartService")
	}
	return &CartService{carts: carts, products: products}
}

// Add puts qty units of a product into the cart, incrementing an existing
// line for the same product. Fails with ErrInvalidQuantity for qty < 1,
// ErrProductNotFound when the product does not resolve, and
// ErrInsufficientStock when the prospective line quantity (existing +
// added) exceeds current stock.
func (s *CartService) Add(ctx context.Context, userID, productID uint64, qty int64) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	existing, err := s.carts.GetQuantity(ctx, userID, productID)
	if err != nil {
		return err
	}
	if existing+qty > p.StockQty {
		return repository.ErrInsufficientStock
	}
	return s.carts.Upsert(ctx, userID, productID, qty)
}

// Update replaces the quantity of a cart line. A quantity of zero removes
// the line. Same validations as Add, but against the new absolute
// quantity.
func (s *CartService) Update(ctx context.Context, userID, productID uint64, qty int64) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if qty == 0 {
		return s.carts.Remove(ctx, userID, productID)
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if qty > p.StockQty {
		return repository.ErrInsufficientStock
	}
	return s.carts.SetQuantity(ctx, userID, productID, qty)
}

// Remove deletes a single line from the cart.
func (s *CartService) Remove(ctx context.Context, userID, productID uint64) error {
	return s.carts.Remove(ctx, userID, productID)
}

// Items returns the cart lines joined with live product names and prices.
func (s *CartService) Items(ctx context.Context, userID uint64) ([]model.CartLine, error) {
	return s.carts.Lines(ctx, userID)
}

// Total returns Σ(price × quantity) over the cart in cents. No tax is
// applied at any layer; the committed purchase total uses the same sum.
func (s *CartService) Total(ctx context.Context, userID uint64) (int64, error) {
	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total, nil
}

// Clear empties the cart outside of checkout (checkout clears it inside
// its own transaction).
func (s *CartService) Clear(ctx context.Context, userID uint64) error {
	return s.carts.Clear(ctx, userID)
}
