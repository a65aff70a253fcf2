// Package session implements the server-side session store backing the
// cookie-based authentication flow. Sessions live in Redis under the
// SHA-256 digest of the cookie token; the TTL is the idle window and is
// renewed on every authenticated request, which gives the sliding timeout
// without a separate last-activity sweep.
package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cafevt/storefront/internal/utils"
)

// ErrNotFound is returned when a token does not resolve to a live session,
// either because it never existed, was destroyed at logout, or idled out.
var ErrNotFound = errors.New("session not found")

// Data is the identity carried by a session.
type Data struct {
	UserID uint64
	Email  string
	Role   string
}

// Store persists sessions in Redis.
type Store struct {
	rdb  *redis.Client
	idle time.Duration
}

// NewStore returns a Store with the given idle window. The window is both
// the Redis TTL and the advertised cookie lifetime.
func NewStore(rdb *redis.Client, idle time.Duration) *Store {
	return &Store{rdb: rdb, idle: idle}
}

// IdleWindow reports the configured idle timeout.
func (s *Store) IdleWindow() time.Duration { return s.idle }

func sessionKey(token string) string {
	return "sess:" + utils.HashSessionToken(token)
}

// Create issues a fresh session for the user and returns the raw token to
// be set as the cookie value. Login always calls Create with a brand-new
// token, which is the session-fixation mitigation: a pre-login token never
// becomes an authenticated session.
func (s *Store) Create(ctx context.Context, d Data) (string, error) {
	token, err := utils.NewSessionToken()
	if err != nil {
		return "", err
	}
	key := sessionKey(token)
	if err := s.rdb.HSet(ctx, key,
		"user_id", strconv.FormatUint(d.UserID, 10),
		"email", d.Email,
		"role", d.Role,
		"created_at", time.Now().UTC().Format(time.RFC3339),
	).Err(); err != nil {
		return "", err
	}
	if err := s.rdb.Expire(ctx, key, s.idle).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Get resolves a raw cookie token to its session data and slides the idle
// window forward. An expired or unknown token yields ErrNotFound.
func (s *Store) Get(ctx context.Context, token string) (Data, error) {
	key := sessionKey(token)
	vals, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return Data{}, err
	}
	if len(vals) == 0 {
		return Data{}, ErrNotFound
	}
	uid, err := strconv.ParseUint(vals["user_id"], 10, 64)
	if err != nil || uid == 0 {
		return Data{}, ErrNotFound
	}
	// Touch: renew the TTL so activity keeps the session alive.
	_ = s.rdb.Expire(ctx, key, s.idle).Err()
	return Data{UserID: uid, Email: vals["email"], Role: vals["role"]}, nil
}

// Destroy removes the session. Destroying an absent session is not an
// error; logout stays idempotent.
func (s *Store) Destroy(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}
