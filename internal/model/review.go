package model

import "time"

// Review moderation states. Reviews are created pending and become visible
// to other customers only after a moderator approves them.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// Moderation actions recorded in review_moderation_log.action.
const (
	ModerationApprove = "approved"
	ModerationReject  = "rejected"
)

// Review mirrors the `product_reviews` table. Rating is validated
// server-side to the 1–5 range before insert.
type Review struct {
	ID        uint64    // product_reviews.id
	ProductID uint64    // product_reviews.product_id
	UserID    uint64    // product_reviews.user_id
	Rating    int       // product_reviews.rating (1–5)
	Content   string    // product_reviews.content
	Status    string    // product_reviews.status
	CreatedAt time.Time // product_reviews.created_at
}

// ReviewReport mirrors the `review_reports` table. Reports are working
// state for the moderation queue, not history: approving a reported review
// deletes its reports in the same transaction.
type ReviewReport struct {
	ID         uint64    // review_reports.id
	ReviewID   uint64    // review_reports.review_id
	ReporterID uint64    // review_reports.reporter_id
	Reason     string    // review_reports.reason
	CreatedAt  time.Time // review_reports.created_at
}

// ModerationLogEntry mirrors the `review_moderation_log` table. One row is
// appended for every status transition, inside the same transaction as the
// transition itself.
type ModerationLogEntry struct {
	ID          uint64    // review_moderation_log.id
	ReviewID    uint64    // review_moderation_log.review_id
	ModeratorID uint64    // review_moderation_log.moderator_id
	Action      string    // review_moderation_log.action
	Comment     *string   // review_moderation_log.comment (nullable)
	CreatedAt   time.Time // review_moderation_log.created_at
}
