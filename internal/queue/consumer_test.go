package queue

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafevt/storefront/internal/repository"
	"github.com/cafevt/storefront/internal/service"
)

func TestDecodeEventRejectsMalformedPayload(t *testing.T) {
	for _, body := range [][]byte{
		[]byte("not json at all"),
		[]byte("{"),
		[]byte(`{"purchase_id": "forty-two"}`),
	} {
		_, err := decodeEvent(body)
		assert.Error(t, err, "payload %q", body)
	}
}

func TestDecodeEventRejectsMissingIdentifiers(t *testing.T) {
	_, err := decodeEvent([]byte(`{"user_id": 7, "total_cents": 5500}`))
	assert.Error(t, err)

	_, err = decodeEvent([]byte(`{"purchase_id": 42, "total_cents": 5500}`))
	assert.Error(t, err)
}

func TestDecodeEventRoundTrip(t *testing.T) {
	in := PurchaseCompletedEvent{
		PurchaseID: 42,
		UserID:     7,
		UserEmail:  "a@b.com",
		TotalCents: 5500,
		Items:      []PurchasedItem{{ProductID: 1, ProductName: "Espresso", Quantity: 3, UnitPriceCents: 1000}},
	}
	body, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := decodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestHandleEventCreditsPoints(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	loyalty := service.NewLoyaltyService(repository.NewLoyaltyRepo(db), 100)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO loyalty_ledger (user_id, points, reason, purchase_id)")).
		WithArgs(uint64(7), int64(55), "purchase", uint64(42)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = handleEvent(PurchaseCompletedEvent{PurchaseID: 42, UserID: 7, TotalCents: 5500}, loyalty, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
