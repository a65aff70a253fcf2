package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cafevt/storefront/internal/repository"
	"github.com/cafevt/storefront/internal/service"
)

// ReviewHandler serves review submission, reporting and deletion for
// authenticated customers.
type ReviewHandler struct {
	Reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	if reviews == nil {
		panic("nil dependency passed to NewReviewHandler")
	}
	return &ReviewHandler{Reviews: reviews}
}

type createReviewReq struct {
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}
type reportReviewReq struct {
	Reason string `json:"reason"`
}

// Create handles POST /v1/products/:id/reviews. The review lands in the
// pending moderation queue; it is not publicly visible until approved.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return cartFail(c, http.StatusBadRequest, "invalid request body", "validation")
	}
	if strings.TrimSpace(req.Content) == "" {
		return cartFail(c, http.StatusBadRequest, "content is required", "validation")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Reviews.Create(ctx, userID, productID, req.Rating, strings.TrimSpace(req.Content))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRating):
			return cartFail(c, http.StatusBadRequest, "rating must be between 1 and 5", "validation")
		case errors.Is(err, repository.ErrProductNotFound):
			return cartFail(c, http.StatusNotFound, "product not found", "not_found")
		default:
			return cartFail(c, http.StatusInternalServerError, "internal error", "internal")
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":   true,
		"message":   "review submitted for moderation",
		"review_id": id,
	})
}

// Report handles POST /v1/reviews/:id/report.
func (h *ReviewHandler) Report(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || reviewID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	var req reportReviewReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		return cartFail(c, http.StatusBadRequest, "reason is required", "validation")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reviews.Report(ctx, reviewID, userID, strings.TrimSpace(req.Reason)); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return cartFail(c, http.StatusNotFound, "review not found", "not_found")
		}
		return cartFail(c, http.StatusInternalServerError, "internal error", "internal")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "review reported"})
}

// Delete handles DELETE /v1/reviews/:id. Only the author may delete.
func (h *ReviewHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || reviewID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reviews.Delete(ctx, reviewID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrReviewNotFound):
			return cartFail(c, http.StatusNotFound, "review not found", "not_found")
		case errors.Is(err, repository.ErrForbidden):
			return cartFail(c, http.StatusForbidden, "not your review", "forbidden")
		default:
			return cartFail(c, http.StatusInternalServerError, "internal error", "internal")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "review deleted"})
}
