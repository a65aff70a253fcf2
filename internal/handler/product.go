package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cafevt/storefront/internal/model"
	"github.com/cafevt/storefront/internal/repository"
)

// ProductHandler serves the public catalog. These endpoints sit behind
// the redis response cache; they never depend on the requesting user.
type ProductHandler struct {
	Products *repository.ProductRepo
	Reviews  *repository.ReviewRepo
}

func NewProductHandler(products *repository.ProductRepo, reviews *repository.ReviewRepo) *ProductHandler {
	if products == nil || reviews == nil {
		panic("nil repository passed to NewProductHandler")
	}
	return &ProductHandler{Products: products, Reviews: reviews}
}

type productResp struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"price_cents"`
	StockQty    int64  `json:"stock_qty"`
}

func toProductResp(p model.Product) productResp {
	return productResp{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		PriceCents:  p.PriceCents,
		StockQty:    p.StockQty,
	}
}

// List handles GET /v1/products with optional ?category= and ?q= filters.
func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.List(ctx, c.QueryParam("category"), c.QueryParam("q"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"products": out})
}

// Detail handles GET /v1/products/:id.
func (h *ProductHandler) Detail(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toProductResp(p))
}

// ListReviews handles GET /v1/products/:id/reviews, returning approved
// reviews only.
func (h *ProductHandler) ListReviews(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Products.GetByID(ctx, id); err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	reviews, err := h.Reviews.ListApprovedByProduct(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": reviews})
}
