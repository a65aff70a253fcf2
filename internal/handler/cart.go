package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/cafevt/storefront/internal/model"
	"github.com/cafevt/storefront/internal/queue"
	"github.com/cafevt/storefront/internal/repository"
	"github.com/cafevt/storefront/internal/service"
)

// CartHandler serves the cart and checkout endpoints. All routes sit
// behind the session middleware. Responses use a success/message envelope
// so API clients can branch without inspecting status codes.
type CartHandler struct {
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Users    *repository.UserRepo
}

func NewCartHandler(cart *service.CartService, checkout *service.CheckoutService, users *repository.UserRepo) *CartHandler {
	if cart == nil || checkout == nil || users == nil {
		panic("nil dependency passed to NewCartHandler")
	}
	return &CartHandler{Cart: cart, Checkout: checkout, Users: users}
}

type cartLineReq struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

func cartFail(c echo.Context, status int, msg, code string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg, "code": code})
}

// mapCartErr translates service errors into the JSON error envelope.
func mapCartErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		return cartFail(c, http.StatusBadRequest, "quantity must be at least 1", "validation")
	case errors.Is(err, repository.ErrProductNotFound):
		return cartFail(c, http.StatusNotFound, "product not found", "not_found")
	case errors.Is(err, repository.ErrInsufficientStock):
		return cartFail(c, http.StatusConflict, "insufficient stock", "insufficient_stock")
	case errors.Is(err, repository.ErrEmptyCart):
		return cartFail(c, http.StatusBadRequest, "cart is empty", "empty_cart")
	default:
		logrus.WithError(err).Error("cart operation failed")
		return cartFail(c, http.StatusInternalServerError, "internal error", "internal")
	}
}

// Get handles GET /v1/cart: lines plus the untaxed total.
func (h *CartHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lines, err := h.Cart.Items(ctx, userID)
	if err != nil {
		return mapCartErr(c, err)
	}
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return c.JSON(http.StatusOK, echo.Map{"items": lines, "total_cents": total})
}

// Add handles POST /v1/cart/add. Re-adding a product increments the
// existing line.
func (h *CartHandler) Add(c echo.Context) error {
	return h.mutateLine(c, h.Cart.Add, "added to cart")
}

// Update handles POST /v1/cart/update, replacing a line's quantity.
// Quantity 0 removes the line.
func (h *CartHandler) Update(c echo.Context) error {
	return h.mutateLine(c, h.Cart.Update, "cart updated")
}

func (h *CartHandler) mutateLine(c echo.Context, op func(context.Context, uint64, uint64, int64) error, okMsg string) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req cartLineReq
	if err := c.Bind(&req); err != nil {
		return cartFail(c, http.StatusBadRequest, "invalid request body", "validation")
	}
	if req.ProductID == 0 || req.Quantity < 0 {
		return cartFail(c, http.StatusBadRequest, "product_id and a non-negative quantity are required", "validation")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := op(ctx, userID, req.ProductID, req.Quantity); err != nil {
		return mapCartErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": okMsg})
}

// Remove handles POST /v1/cart/remove.
func (h *CartHandler) Remove(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req cartLineReq
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return cartFail(c, http.StatusBadRequest, "product_id is required", "validation")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.Remove(ctx, userID, req.ProductID); err != nil {
		return mapCartErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "removed from cart"})
}

// DoCheckout handles POST /v1/cart/checkout. On success the purchase id
// and total are returned and a purchase.completed event is published for
// the loyalty/notification consumer; a publish failure is logged but never
// fails the already-committed purchase.
func (h *CartHandler) DoCheckout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	// Snapshot the lines before checkout so the event can carry product
	// names without re-querying after the cart is cleared.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	lines, err := h.Cart.Items(ctx, userID)
	if err != nil {
		return mapCartErr(c, err)
	}

	purchase, err := h.Checkout.CreatePurchase(ctx, userID)
	if err != nil {
		var ce *service.CheckoutError
		if errors.As(err, &ce) {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"step":    ce.Step,
				"lines":   len(ce.Lines),
			}).Warn("checkout rolled back")
		}
		return mapCartErr(c, err)
	}

	h.publishCompleted(userID, purchase, lines)

	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"message":     "purchase completed",
		"purchase_id": purchase.ID,
		"total_cents": purchase.TotalCents,
	})
}

func (h *CartHandler) publishCompleted(userID uint64, purchase *model.Purchase, lines []model.CartLine) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ev := queue.PurchaseCompletedEvent{
		PurchaseID: purchase.ID,
		UserID:     userID,
		TotalCents: purchase.TotalCents,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if u, err := h.Users.GetByID(ctx, userID); err == nil {
		ev.UserEmail = u.Email
		ev.UserName = u.FirstName
	}
	for _, l := range lines {
		ev.Items = append(ev.Items, queue.PurchasedItem{
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			UnitPriceCents: l.PriceCents,
		})
	}
	if err := queue.PublishPurchaseCompleted(ctx, ev); err != nil {
		logrus.WithError(err).WithField("purchase_id", purchase.ID).
			Warn("purchase.completed publish failed")
	}
}
