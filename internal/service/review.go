package service

import (
	"context"
	"errors"

	"github.com/cafevt/storefront/internal/model"
	"github.com/cafevt/storefront/internal/repository"
)

// ErrInvalidRating is returned when a submitted rating falls outside the
// 1–5 range. The range is enforced here, server-side, regardless of what
// any client form allows.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ErrInvalidAction is returned when a moderation action is neither
// approved nor rejected.
var ErrInvalidAction = errors.New("action must be approved or rejected")

// ReviewService handles review submission, reporting, deletion and the
// moderation workflow.
type ReviewService struct {
	reviews  *repository.ReviewRepo
	products *repository.ProductRepo
}

func NewReviewService(reviews *repository.ReviewRepo, products *repository.ProductRepo) *ReviewService {
	if reviews == nil || products == nil {
		panic("nil dependency passed to NewReviewService")
	}
	return &ReviewService{reviews: reviews, products: products}
}

// Create validates and inserts a review in pending status, returning its
// ID. Fails with ErrInvalidRating or repository.ErrProductNotFound.
func (s *ReviewService) Create(ctx context.Context, userID, productID uint64, rating int, content string) (uint64, error) {
	if rating < 1 || rating > 5 {
		return 0, ErrInvalidRating
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return 0, err
	}
	return s.reviews.Create(ctx, &model.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Content:   content,
	})
}

// ListApproved returns the approved reviews for a product.
func (s *ReviewService) ListApproved(ctx context.Context, productID uint64) ([]repository.ReviewView, error) {
	return s.reviews.ListApprovedByProduct(ctx, productID)
}

// ListByStatus returns the moderation queue for a status.
func (s *ReviewService) ListByStatus(ctx context.Context, status string) ([]repository.ReviewView, error) {
	return s.reviews.ListByStatus(ctx, status)
}

// Report records a report against an existing review.
func (s *ReviewService) Report(ctx context.Context, reviewID, reporterID uint64, reason string) error {
	if _, err := s.reviews.GetByID(ctx, reviewID); err != nil {
		return err
	}
	return s.reviews.CreateReport(ctx, reviewID, reporterID, reason)
}

// Delete removes the caller's own review along with its reports.
func (s *ReviewService) Delete(ctx context.Context, reviewID, userID uint64) error {
	return s.reviews.Delete(ctx, reviewID, userID)
}

// Moderate transitions a pending review to approved or rejected. The
// status update, the moderation log entry and (on approval) the report
// cleanup happen in one transaction: either the full transition is
// recorded or none of it is. Resolved reports are deleted, not archived;
// the moderation log is the retained history.
func (s *ReviewService) Moderate(ctx context.Context, reviewID, moderatorID uint64, action string, comment string) error {
	if action != model.ModerationApprove && action != model.ModerationReject {
		return ErrInvalidAction
	}
	if _, err := s.reviews.GetByID(ctx, reviewID); err != nil {
		return err
	}
	tx, err := s.reviews.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	status := model.ReviewRejected
	if action == model.ModerationApprove {
		status = model.ReviewApproved
	}
	if err := s.reviews.SetStatusTx(ctx, tx, reviewID, status); err != nil {
		return err
	}
	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}
	if err := s.reviews.AppendModerationLogTx(ctx, tx, model.ModerationLogEntry{
		ReviewID:    reviewID,
		ModeratorID: moderatorID,
		Action:      action,
		Comment:     commentPtr,
	}); err != nil {
		return err
	}
	if action == model.ModerationApprove {
		if err := s.reviews.DeleteReportsTx(ctx, tx, reviewID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
