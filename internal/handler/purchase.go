package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cafevt/storefront/internal/repository"
)

// PurchaseHandler serves order history for the authenticated user.
type PurchaseHandler struct {
	Purchases *repository.PurchaseRepo
}

func NewPurchaseHandler(purchases *repository.PurchaseRepo) *PurchaseHandler {
	if purchases == nil {
		panic("nil repository passed to NewPurchaseHandler")
	}
	return &PurchaseHandler{Purchases: purchases}
}

// List handles GET /v1/purchases.
func (h *PurchaseHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	views, err := h.Purchases.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"purchases": views})
}

// Get handles GET /v1/purchases/:id. Another user's purchase id looks the
// same as a missing one.
func (h *PurchaseHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid purchase id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	view, err := h.Purchases.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if err == repository.ErrPurchaseNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "purchase not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, view)
}
