package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafevt/storefront/internal/repository"
)

var (
	ledgerInsertSQL      = regexp.QuoteMeta("INSERT INTO loyalty_ledger (user_id, points, reason, purchase_id) VALUES (?,?,?,?)")
	ledgerBalancePattern = regexp.QuoteMeta("SELECT COALESCE(SUM(points), 0) FROM loyalty_ledger WHERE user_id=?")
)

func newLoyaltyFixture(t *testing.T, centsPerPoint int64) (*LoyaltyService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLoyaltyService(repository.NewLoyaltyRepo(db), centsPerPoint), mock
}

func TestPointsForRoundsDown(t *testing.T) {
	svc, _ := newLoyaltyFixture(t, 100)

	assert.Equal(t, int64(0), svc.PointsFor(99))
	assert.Equal(t, int64(1), svc.PointsFor(100))
	assert.Equal(t, int64(55), svc.PointsFor(5599))
}

func TestCreditPurchaseWritesLedgerEntry(t *testing.T) {
	svc, mock := newLoyaltyFixture(t, 100)

	mock.ExpectExec(ledgerInsertSQL).WithArgs(uint64(7), int64(55), "purchase", uint64(42)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	credited, err := svc.CreditPurchase(context.Background(), 7, 42, 5500)
	require.NoError(t, err)
	assert.True(t, credited)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditPurchaseRedeliveryIsNoOp(t *testing.T) {
	svc, mock := newLoyaltyFixture(t, 100)

	// The unique index on purchase_id rejects the second insert; the
	// duplicate reads as "already credited", not as a failure, so a
	// redelivered event is acked instead of requeued.
	mock.ExpectExec(ledgerInsertSQL).WithArgs(uint64(7), int64(55), "purchase", uint64(42)).
		WillReturnError(&duplicateKeyErr{})

	credited, err := svc.CreditPurchase(context.Background(), 7, 42, 5500)
	require.NoError(t, err)
	assert.False(t, credited)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// duplicateKeyErr mimics the driver's duplicate-key error text; the
// repository matches on the 1062 code.
type duplicateKeyErr struct{}

func (*duplicateKeyErr) Error() string {
	return "Error 1062 (23000): Duplicate entry '42' for key 'loyalty_ledger.purchase_id'"
}

func TestCreditPurchaseBelowThresholdSkipsLedger(t *testing.T) {
	svc, mock := newLoyaltyFixture(t, 100)

	credited, err := svc.CreditPurchase(context.Background(), 7, 43, 99)
	require.NoError(t, err)
	assert.False(t, credited)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceSumsLedger(t *testing.T) {
	svc, mock := newLoyaltyFixture(t, 100)

	mock.ExpectQuery(ledgerBalancePattern).WithArgs(uint64(7)).
		WillReturnRows(mock.NewRows([]string{"balance"}).AddRow(120))

	balance, err := svc.Balance(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(120), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}
