package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cafevt/storefront/internal/service"
)

// LoyaltyHandler exposes the points balance and ledger history. Earning
// happens asynchronously in the queue consumer, so these are read-only.
type LoyaltyHandler struct {
	Loyalty *service.LoyaltyService
}

func NewLoyaltyHandler(loyalty *service.LoyaltyService) *LoyaltyHandler {
	if loyalty == nil {
		panic("nil dependency passed to NewLoyaltyHandler")
	}
	return &LoyaltyHandler{Loyalty: loyalty}
}

// Balance handles GET /v1/loyalty.
func (h *LoyaltyHandler) Balance(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	balance, err := h.Loyalty.Balance(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"points": balance})
}

type loyaltyEntryResp struct {
	Points     int64   `json:"points"`
	Reason     string  `json:"reason"`
	PurchaseID *uint64 `json:"purchase_id,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// History handles GET /v1/loyalty/history.
func (h *LoyaltyHandler) History(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Loyalty.History(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]loyaltyEntryResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, loyaltyEntryResp{
			Points:     e.Points,
			Reason:     e.Reason,
			PurchaseID: e.PurchaseID,
			CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": out})
}
