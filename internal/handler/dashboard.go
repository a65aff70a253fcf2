package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cafevt/storefront/internal/model"
	"github.com/cafevt/storefront/internal/repository"
	"github.com/cafevt/storefront/internal/service"
)

// DashboardHandler serves the moderation dashboard. All routes require
// the MODERATOR role, enforced by middleware on the route group.
type DashboardHandler struct {
	Reviews *service.ReviewService
}

func NewDashboardHandler(reviews *service.ReviewService) *DashboardHandler {
	if reviews == nil {
		panic("nil dependency passed to NewDashboardHandler")
	}
	return &DashboardHandler{Reviews: reviews}
}

type moderateReq struct {
	ReviewID uint64 `json:"review_id"`
	Action   string `json:"action"` // approved | rejected
	Comment  string `json:"comment"`
}

// ListReviews handles GET /v1/dashboard/reviews?status=pending. The
// default is the pending queue, oldest first, with open report counts.
func (h *DashboardHandler) ListReviews(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = model.ReviewPending
	}
	if status != model.ReviewPending && status != model.ReviewApproved && status != model.ReviewRejected {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	views, err := h.Reviews.ListByStatus(ctx, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": views})
}

// Moderate handles POST /v1/dashboard/moderate-review with body
// {"review_id": n, "action": "approved"|"rejected", "comment": "..."}.
func (h *DashboardHandler) Moderate(c echo.Context) error {
	moderatorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req moderateReq
	if err := c.Bind(&req); err != nil || req.ReviewID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "review_id and action required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reviews.Moderate(ctx, req.ReviewID, moderatorID, req.Action, req.Comment); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAction):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "action must be approved or rejected"})
		case errors.Is(err, repository.ErrReviewNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "review already moderated"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "moderation failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "review " + req.Action})
}
