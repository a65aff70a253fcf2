package repository

import (
	"context"
	"database/sql"

	"github.com/cafevt/storefront/internal/model"
)

// ReviewRepo manages product reviews, their reports and the moderation
// log. Moderation is a three-statement transaction (status update, log
// append, report cleanup) driven by the service layer through the Tx
// methods below.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// DB exposes the underlying handle so the service can open the moderation
// transaction.
func (r *ReviewRepo) DB() *sql.DB { return r.db }

// Create inserts a review in pending status and returns its ID.
func (r *ReviewRepo) Create(ctx context.Context, rev *model.Review) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO product_reviews (product_id, user_id, rating, content, status) VALUES (?,?,?,?,?)",
		rev.ProductID, rev.UserID, rev.Rating, rev.Content, model.ReviewPending)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a review by id. Returns ErrReviewNotFound when absent.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	var rev model.Review
	err := r.db.QueryRowContext(ctx,
		"SELECT id, product_id, user_id, rating, content, status, created_at FROM product_reviews WHERE id=? LIMIT 1",
		id).Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.Rating, &rev.Content, &rev.Status, &rev.CreatedAt)
	if err == sql.ErrNoRows {
		return rev, ErrReviewNotFound
	}
	return rev, err
}

// ReviewView is a review joined with the author's name for listing.
type ReviewView struct {
	ID        uint64 `json:"id"`
	ProductID uint64 `json:"product_id"`
	Rating    int    `json:"rating"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	Status    string `json:"status,omitempty"`
	Reports   int64  `json:"reports,omitempty"`
	CreatedAt string `json:"created_at"`
}

func scanReviewViews(rows *sql.Rows, withStatus bool) ([]ReviewView, error) {
	defer rows.Close()
	views := make([]ReviewView, 0)
	for rows.Next() {
		var v ReviewView
		var created sql.NullTime
		var err error
		if withStatus {
			err = rows.Scan(&v.ID, &v.ProductID, &v.Rating, &v.Content, &v.Author, &v.Status, &v.Reports, &created)
		} else {
			err = rows.Scan(&v.ID, &v.ProductID, &v.Rating, &v.Content, &v.Author, &created)
		}
		if err != nil {
			return nil, err
		}
		if created.Valid {
			v.CreatedAt = created.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

// ListApprovedByProduct returns approved reviews for a product, newest
// first. Pending and rejected reviews are never exposed publicly.
func (r *ReviewRepo) ListApprovedByProduct(ctx context.Context, productID uint64) ([]ReviewView, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rv.id, rv.product_id, rv.rating, rv.content,
		        CONCAT(u.first_name, ' ', u.last_name),
		        rv.created_at
		 FROM product_reviews rv
		 JOIN users u ON u.id = rv.user_id
		 WHERE rv.product_id = ? AND rv.status = ?
		 ORDER BY rv.created_at DESC, rv.id DESC`,
		productID, model.ReviewApproved)
	if err != nil {
		return nil, err
	}
	return scanReviewViews(rows, false)
}

// ListByStatus returns reviews in the given moderation status together
// with their open report counts, oldest first so the moderation queue is
// worked in arrival order.
func (r *ReviewRepo) ListByStatus(ctx context.Context, status string) ([]ReviewView, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rv.id, rv.product_id, rv.rating, rv.content,
		        CONCAT(u.first_name, ' ', u.last_name),
		        rv.status,
		        (SELECT COUNT(*) FROM review_reports rr WHERE rr.review_id = rv.id),
		        rv.created_at
		 FROM product_reviews rv
		 JOIN users u ON u.id = rv.user_id
		 WHERE rv.status = ?
		 ORDER BY rv.created_at, rv.id`,
		status)
	if err != nil {
		return nil, err
	}
	return scanReviewViews(rows, true)
}

// CreateReport records a report against a review.
func (r *ReviewRepo) CreateReport(ctx context.Context, reviewID, reporterID uint64, reason string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO review_reports (review_id, reporter_id, reason) VALUES (?,?,?)",
		reviewID, reporterID, reason)
	return err
}

// Delete removes a review together with its reports in one transaction.
// Only the author may delete; ownership is checked inside the transaction
// so a concurrent delete cannot slip through.
func (r *ReviewRepo) Delete(ctx context.Context, reviewID, userID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var ownerID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM product_reviews WHERE id=?", reviewID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrReviewNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != userID {
		return ErrForbidden
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM review_reports WHERE review_id=?", reviewID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM product_reviews WHERE id=?", reviewID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SetStatusTx updates a review's moderation status inside the moderation
// transaction. Only pending reviews may transition; a zero-row update
// means the review was already moderated (or never existed) and is
// reported as ErrConflict / ErrReviewNotFound by the caller via GetByID.
func (r *ReviewRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, reviewID uint64, status string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE product_reviews SET status=? WHERE id=? AND status=?",
		status, reviewID, model.ReviewPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// AppendModerationLogTx records a moderation action inside the same
// transaction as the status change.
func (r *ReviewRepo) AppendModerationLogTx(ctx context.Context, tx *sql.Tx, entry model.ModerationLogEntry) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO review_moderation_log (review_id, moderator_id, action, comment) VALUES (?,?,?,?)",
		entry.ReviewID, entry.ModeratorID, entry.Action, entry.Comment)
	return err
}

// DeleteReportsTx removes all reports for a review inside the moderation
// transaction. Called on approval: resolved reports are not kept as
// history, the moderation log is.
func (r *ReviewRepo) DeleteReportsTx(ctx context.Context, tx *sql.Tx, reviewID uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM review_reports WHERE review_id=?", reviewID)
	return err
}
