package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafevt/storefront/internal/repository"
)

func newCheckoutFixture(t *testing.T) (*CheckoutService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := NewCheckoutService(db,
		repository.NewCartRepo(db),
		repository.NewProductRepo(db),
		repository.NewPurchaseRepo(db))
	return svc, mock
}

var (
	cartLinesPattern   = regexp.QuoteMeta("SELECT ci.product_id, p.name, ci.quantity, p.price_cents, p.stock_qty")
	productByIDPattern = regexp.QuoteMeta("SELECT id, name, description, category, price_cents, stock_qty, created_at, updated_at FROM products WHERE id=?")
	reserveStockSQL    = regexp.QuoteMeta("UPDATE products SET stock_qty = stock_qty - ? WHERE id = ? AND stock_qty >= ?")
	insertPurchaseSQL  = regexp.QuoteMeta("INSERT INTO purchases (user_id, total_cents, status) VALUES (?, ?, ?)")
	insertDetailsSQL   = regexp.QuoteMeta("INSERT INTO purchase_details (purchase_id, product_id, quantity, unit_price_cents) VALUES")
	clearCartSQL       = regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id=?")
)

func cartRows(mock sqlmock.Sqlmock) *sqlmock.Rows {
	return mock.NewRows([]string{"product_id", "name", "quantity", "price_cents", "stock_qty"})
}

func productRow(mock sqlmock.Sqlmock, id int64, price, stock int64) *sqlmock.Rows {
	now := time.Now()
	return mock.NewRows([]string{"id", "name", "description", "category", "price_cents", "stock_qty", "created_at", "updated_at"}).
		AddRow(id, "Espresso", "double shot", "coffee", price, stock, now, now)
}

func TestCreatePurchaseHappyPath(t *testing.T) {
	svc, mock := newCheckoutFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(cartLinesPattern).WithArgs(uint64(7)).
		WillReturnRows(cartRows(mock).
			AddRow(1, "Espresso", 3, 1000, 5).
			AddRow(2, "Mug", 1, 2500, 2))
	mock.ExpectQuery(productByIDPattern).WithArgs(uint64(1)).WillReturnRows(productRow(mock, 1, 1000, 5))
	mock.ExpectQuery(productByIDPattern).WithArgs(uint64(2)).WillReturnRows(productRow(mock, 2, 2500, 2))
	mock.ExpectExec(reserveStockSQL).WithArgs(int64(3), uint64(1), int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(reserveStockSQL).WithArgs(int64(1), uint64(2), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertPurchaseSQL).WithArgs(uint64(7), int64(5500), "completed").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(insertDetailsSQL).
		WithArgs(uint64(42), uint64(1), int64(3), int64(1000), uint64(42), uint64(2), int64(1), int64(2500)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(clearCartSQL).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	purchase, err := svc.CreatePurchase(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), purchase.ID)
	// Total is the sum of unit-price snapshots times quantities.
	assert.Equal(t, int64(5500), purchase.TotalCents)
	assert.Equal(t, "completed", purchase.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePurchaseEmptyCart(t *testing.T) {
	svc, mock := newCheckoutFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(cartLinesPattern).WithArgs(uint64(7)).WillReturnRows(cartRows(mock))
	mock.ExpectRollback()

	_, err := svc.CreatePurchase(context.Background(), 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrEmptyCart)

	var ce *CheckoutError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StepStarted, ce.Step)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePurchaseInsufficientStockAtValidation(t *testing.T) {
	svc, mock := newCheckoutFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(cartLinesPattern).WithArgs(uint64(7)).
		WillReturnRows(cartRows(mock).AddRow(1, "Espresso", 10, 1000, 2))
	// Stock dropped to 2 since add-to-cart time.
	mock.ExpectQuery(productByIDPattern).WithArgs(uint64(1)).WillReturnRows(productRow(mock, 1, 1000, 2))
	mock.ExpectRollback()

	_, err := svc.CreatePurchase(context.Background(), 7)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	var ce *CheckoutError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StepItemsValidated, ce.Step)
	assert.Len(t, ce.Lines, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePurchaseReservationRaceRollsBack(t *testing.T) {
	svc, mock := newCheckoutFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(cartLinesPattern).WithArgs(uint64(7)).
		WillReturnRows(cartRows(mock).AddRow(1, "Espresso", 3, 1000, 5))
	mock.ExpectQuery(productByIDPattern).WithArgs(uint64(1)).WillReturnRows(productRow(mock, 1, 1000, 5))
	// Validation saw stock 5, but a concurrent checkout takes it first:
	// the conditional update affects zero rows.
	mock.ExpectExec(reserveStockSQL).WithArgs(int64(3), uint64(1), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.CreatePurchase(context.Background(), 7)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	var ce *CheckoutError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StepStockReserved, ce.Step)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePurchaseDetailInsertFailureRollsBack(t *testing.T) {
	svc, mock := newCheckoutFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(cartLinesPattern).WithArgs(uint64(7)).
		WillReturnRows(cartRows(mock).AddRow(1, "Espresso", 2, 1000, 5))
	mock.ExpectQuery(productByIDPattern).WithArgs(uint64(1)).WillReturnRows(productRow(mock, 1, 1000, 5))
	mock.ExpectExec(reserveStockSQL).WithArgs(int64(2), uint64(1), int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertPurchaseSQL).WithArgs(uint64(7), int64(2000), "completed").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(insertDetailsSQL).WillReturnError(errors.New("disk full"))
	// Everything rolls back: the earlier stock decrement never commits.
	mock.ExpectRollback()

	_, err := svc.CreatePurchase(context.Background(), 7)
	require.Error(t, err)

	var ce *CheckoutError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StepPersisted, ce.Step)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePurchaseCommitFailure(t *testing.T) {
	svc, mock := newCheckoutFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(cartLinesPattern).WithArgs(uint64(7)).
		WillReturnRows(cartRows(mock).AddRow(1, "Espresso", 2, 1000, 5))
	mock.ExpectQuery(productByIDPattern).WithArgs(uint64(1)).WillReturnRows(productRow(mock, 1, 1000, 5))
	mock.ExpectExec(reserveStockSQL).WithArgs(int64(2), uint64(1), int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertPurchaseSQL).WithArgs(uint64(7), int64(2000), "completed").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(insertDetailsSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(clearCartSQL).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("connection lost"))

	_, err := svc.CreatePurchase(context.Background(), 7)
	require.Error(t, err)

	var ce *CheckoutError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StepCommitted, ce.Step)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePurchaseProductDeletedMidFlight(t *testing.T) {
	svc, mock := newCheckoutFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(cartLinesPattern).WithArgs(uint64(7)).
		WillReturnRows(cartRows(mock).AddRow(99, "Ghost", 1, 500, 1))
	mock.ExpectQuery(productByIDPattern).WithArgs(uint64(99)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.CreatePurchase(context.Background(), 7)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
