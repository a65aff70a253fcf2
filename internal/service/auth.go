package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cafevt/storefront/internal/model"
	"github.com/cafevt/storefront/internal/repository"
	"github.com/cafevt/storefront/internal/session"
	"github.com/cafevt/storefront/internal/utils"
)

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password. Login deliberately does not reveal which field was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService implements registration, login and logout on top of the
// user repository and the redis session store. Password verification is
// bcrypt only.
type AuthService struct {
	users      *repository.UserRepo
	sessions   *session.Store
	bcryptCost int
}

func NewAuthService(users *repository.UserRepo, sessions *session.Store, bcryptCost int) *AuthService {
	if users == nil || sessions == nil {
		panic("nil dependency passed to NewAuthService")
	}
	return &AuthService{users: users, sessions: sessions, bcryptCost: bcryptCost}
}

// Register creates a customer account. Fails with
// repository.ErrEmailExists when the email already has a user row; the
// unique index on users.email makes the duplicate check race-free. Email
// is not auto-verified.
func (s *AuthService) Register(ctx context.Context, firstName, lastName, email, password string) (uint64, error) {
	return s.users.Create(ctx, firstName, lastName, email, password, s.bcryptCost)
}

// Login verifies the credentials and, on success, establishes a fresh
// session and returns its cookie token alongside the user. A brand-new
// session token is issued on every login (session-fixation mitigation).
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, string, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == sql.ErrNoRows {
			// Burn a hash comparison anyway so the unknown-email path does
			// not return measurably faster than the wrong-password path.
			utils.VerifyPassword("$2a$10$0000000000000000000000uGZz1G5dDD8T1S9hQm3O9d6nI3mKh6y", password)
			return model.User{}, "", ErrInvalidCredentials
		}
		return model.User{}, "", fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, "", ErrInvalidCredentials
	}
	token, err := s.sessions.Create(ctx, session.Data{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return model.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return u, token, nil
}

// Logout destroys the session behind the given cookie token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}
