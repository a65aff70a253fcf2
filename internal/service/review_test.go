package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafevt/storefront/internal/repository"
)

var (
	reviewByIDPattern  = regexp.QuoteMeta("SELECT id, product_id, user_id, rating, content, status, created_at FROM product_reviews WHERE id=?")
	insertReviewSQL    = regexp.QuoteMeta("INSERT INTO product_reviews (product_id, user_id, rating, content, status) VALUES (?,?,?,?,?)")
	setStatusSQL       = regexp.QuoteMeta("UPDATE product_reviews SET status=? WHERE id=? AND status=?")
	moderationLogSQL   = regexp.QuoteMeta("INSERT INTO review_moderation_log (review_id, moderator_id, action, comment) VALUES (?,?,?,?)")
	deleteReportsSQL   = regexp.QuoteMeta("DELETE FROM review_reports WHERE review_id=?")
	insertReportSQL    = regexp.QuoteMeta("INSERT INTO review_reports (review_id, reporter_id, reason) VALUES (?,?,?)")
)

func newReviewFixture(t *testing.T) (*ReviewService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := NewReviewService(repository.NewReviewRepo(db), repository.NewProductRepo(db))
	return svc, mock
}

func reviewRow(mock sqlmock.Sqlmock, id, productID, userID uint64, status string) *sqlmock.Rows {
	return mock.NewRows([]string{"id", "product_id", "user_id", "rating", "content", "status", "created_at"}).
		AddRow(id, productID, userID, 4, "smooth, chocolatey", status, time.Now())
}

func TestCreateReviewRejectsOutOfRangeRating(t *testing.T) {
	svc, mock := newReviewFixture(t)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), 1, 1, rating, "x")
		assert.ErrorIs(t, err, ErrInvalidRating)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewStartsPending(t *testing.T) {
	svc, mock := newReviewFixture(t)

	mock.ExpectQuery(productByIDPattern).WithArgs(uint64(3)).
		WillReturnRows(productRow(mock, 3, 1200, 10))
	mock.ExpectExec(insertReviewSQL).
		WithArgs(uint64(3), uint64(9), 5, "best beans in town", "pending").
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := svc.Create(context.Background(), 9, 3, 5, "best beans in town")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewUnknownProduct(t *testing.T) {
	svc, mock := newReviewFixture(t)

	mock.ExpectQuery(productByIDPattern).WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Create(context.Background(), 9, 99, 5, "x")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModerateApproveClearsReportsInOneTransaction(t *testing.T) {
	svc, mock := newReviewFixture(t)

	mock.ExpectQuery(reviewByIDPattern).WithArgs(uint64(5)).
		WillReturnRows(reviewRow(mock, 5, 3, 9, "pending"))
	mock.ExpectBegin()
	mock.ExpectExec(setStatusSQL).WithArgs("approved", uint64(5), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(moderationLogSQL).WithArgs(uint64(5), uint64(2), "approved", "fine").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(deleteReportsSQL).WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := svc.Moderate(context.Background(), 5, 2, "approved", "fine")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModerateRejectKeepsReports(t *testing.T) {
	svc, mock := newReviewFixture(t)

	mock.ExpectQuery(reviewByIDPattern).WithArgs(uint64(5)).
		WillReturnRows(reviewRow(mock, 5, 3, 9, "pending"))
	mock.ExpectBegin()
	mock.ExpectExec(setStatusSQL).WithArgs("rejected", uint64(5), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(moderationLogSQL).WithArgs(uint64(5), uint64(2), "rejected", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := svc.Moderate(context.Background(), 5, 2, "rejected", "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModerateAlreadyModeratedRollsBack(t *testing.T) {
	svc, mock := newReviewFixture(t)

	mock.ExpectQuery(reviewByIDPattern).WithArgs(uint64(5)).
		WillReturnRows(reviewRow(mock, 5, 3, 9, "approved"))
	mock.ExpectBegin()
	// Status guard matches zero rows: another moderator got there first.
	mock.ExpectExec(setStatusSQL).WithArgs("rejected", uint64(5), "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.Moderate(context.Background(), 5, 2, "rejected", "")
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModerateInvalidAction(t *testing.T) {
	svc, mock := newReviewFixture(t)

	err := svc.Moderate(context.Background(), 5, 2, "escalated", "")
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportUnknownReview(t *testing.T) {
	svc, mock := newReviewFixture(t)

	mock.ExpectQuery(reviewByIDPattern).WithArgs(uint64(77)).
		WillReturnError(sql.ErrNoRows)

	err := svc.Report(context.Background(), 77, 9, "spam")
	assert.ErrorIs(t, err, repository.ErrReviewNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRecordsReason(t *testing.T) {
	svc, mock := newReviewFixture(t)

	mock.ExpectQuery(reviewByIDPattern).WithArgs(uint64(5)).
		WillReturnRows(reviewRow(mock, 5, 3, 9, "approved"))
	mock.ExpectExec(insertReportSQL).WithArgs(uint64(5), uint64(8), "offensive").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := svc.Report(context.Background(), 5, 8, "offensive")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
