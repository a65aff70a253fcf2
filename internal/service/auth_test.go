package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafevt/storefront/internal/repository"
	"github.com/cafevt/storefront/internal/session"
	"github.com/cafevt/storefront/internal/utils"
)

const testBcryptCost = 4 // minimum cost keeps the test suite fast

var userByEmailPattern = regexp.QuoteMeta("SELECT id,first_name,last_name,email,password_hash,role,created_at,updated_at FROM users WHERE email=?")

func newAuthFixture(t *testing.T) (*AuthService, sqlmock.Sqlmock, *session.Store) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(rdb, 30*time.Minute)

	return NewAuthService(repository.NewUserRepo(db), store, testBcryptCost), mock, store
}

func userRow(mock sqlmock.Sqlmock, id int64, email, passwordHash string) *sqlmock.Rows {
	now := time.Now()
	return mock.NewRows([]string{"id", "first_name", "last_name", "email", "password_hash", "role", "created_at", "updated_at"}).
		AddRow(id, "Ana", "Vergara", email, passwordHash, "CUSTOMER", now, now)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, mock, _ := newAuthFixture(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysqlDuplicateErr{})

	_, err := svc.Register(context.Background(), "Ana", "Vergara", "a@b.com", "secret")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Ana", "Vergara", "a@b.com", "secret")
	assert.ErrorIs(t, err, repository.ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// mysqlDuplicateErr mimics the driver's duplicate-key error text; the
// repository matches on the 1062 code.
type mysqlDuplicateErr struct{}

func (*mysqlDuplicateErr) Error() string {
	return "Error 1062 (23000): Duplicate entry 'a@b.com' for key 'users.email'"
}

func TestLoginFailureDoesNotRevealWhichFieldWasWrong(t *testing.T) {
	svc, mock, _ := newAuthFixture(t)

	hash, err := utils.HashPassword("rightpassword", testBcryptCost)
	require.NoError(t, err)

	// Unknown email.
	mock.ExpectQuery(userByEmailPattern).WithArgs("unknown@b.com").WillReturnError(sql.ErrNoRows)
	_, _, errUnknown := svc.Login(context.Background(), "unknown@b.com", "x")

	// Known email, wrong password.
	mock.ExpectQuery(userByEmailPattern).WithArgs("a@b.com").
		WillReturnRows(userRow(mock, 1, "a@b.com", hash))
	_, _, errWrongPass := svc.Login(context.Background(), "a@b.com", "wrongpassword")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.Equal(t, errUnknown, errWrongPass)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginSuccessEstablishesFreshSession(t *testing.T) {
	svc, mock, store := newAuthFixture(t)

	hash, err := utils.HashPassword("secret", testBcryptCost)
	require.NoError(t, err)

	mock.ExpectQuery(userByEmailPattern).WithArgs("a@b.com").
		WillReturnRows(userRow(mock, 1, "a@b.com", hash))
	mock.ExpectQuery(userByEmailPattern).WithArgs("a@b.com").
		WillReturnRows(userRow(mock, 1, "a@b.com", hash))

	u, token1, err := svc.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u.ID)
	require.NotEmpty(t, token1)

	data, err := store.Get(context.Background(), token1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), data.UserID)
	assert.Equal(t, "a@b.com", data.Email)

	// A second login issues a different token: pre-login tokens never
	// carry over into an authenticated session.
	_, token2, err := svc.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.NotEqual(t, token1, token2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogoutDestroysSession(t *testing.T) {
	svc, mock, store := newAuthFixture(t)

	hash, err := utils.HashPassword("secret", testBcryptCost)
	require.NoError(t, err)
	mock.ExpectQuery(userByEmailPattern).WithArgs("a@b.com").
		WillReturnRows(userRow(mock, 1, "a@b.com", hash))

	_, token, err := svc.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))

	_, err = store.Get(context.Background(), token)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
