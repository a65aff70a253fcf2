package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reserveStockPattern = regexp.QuoteMeta("UPDATE products SET stock_qty = stock_qty - ? WHERE id = ? AND stock_qty >= ?")

func TestReserveStockTxDecrements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProductRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(reserveStockPattern).WithArgs(int64(3), uint64(1), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.ReserveStockTx(context.Background(), tx, 1, 3))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveStockTxRaceYieldsInsufficientStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProductRepo(db)

	mock.ExpectBegin()
	// The guard in the WHERE clause matched nothing: stock moved between
	// the validation read and this decrement.
	mock.ExpectExec(reserveStockPattern).WithArgs(int64(3), uint64(1), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.ReserveStockTx(context.Background(), tx, 1, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBuildsFiltersIncrementally(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProductRepo(db)

	cols := []string{"id", "name", "description", "category", "price_cents", "stock_qty", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM products ORDER BY created_at DESC")).
		WillReturnRows(mock.NewRows(cols))
	_, err = repo.List(context.Background(), "", "")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE category = ? AND (name LIKE ? OR description LIKE ?)")).
		WithArgs("coffee", "%ethiopia%", "%ethiopia%").
		WillReturnRows(mock.NewRows(cols))
	_, err = repo.List(context.Background(), "coffee", "ethiopia")
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
