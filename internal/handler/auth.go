package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cafevt/storefront/internal/config"
	"github.com/cafevt/storefront/internal/repository"
	"github.com/cafevt/storefront/internal/service"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg  config.Config
	Auth *service.AuthService
}

func NewAuthHandler(cfg config.Config, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// sessionCookie builds the session cookie. HttpOnly keeps it away from
// page scripts; SameSite=Lax stops cross-site POSTs from riding the
// session. MaxAge matches the idle window, but the redis TTL is the
// authority: a stale cookie simply fails the session lookup.
func (h *AuthHandler) sessionCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.Cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.Env == "prod",
	}
}

// Register creates a customer account. It does not log the user in;
// clients follow up with a login call.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Email == "" || req.Password == "" || req.FirstName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name/email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Auth.Register(ctx, req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"user": userPart{ID: uid, Email: req.Email, Role: "CUSTOMER"},
	})
}

// Login verifies credentials and establishes a fresh session. Unknown
// email and wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, token, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	c.SetCookie(h.sessionCookie(token, h.Cfg.SessionIdleMin*60))
	return c.JSON(http.StatusOK, echo.Map{
		"user": userPart{ID: u.ID, Email: u.Email, Role: u.Role},
	})
}

// Logout destroys the server-side session and expires the cookie. Safe to
// call with a dead session.
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie, err := c.Cookie(h.Cfg.SessionCookie)
	if err == nil && cookie.Value != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Auth.Logout(ctx, cookie.Value); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
	}
	c.SetCookie(h.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated identity (protected).
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"email":   c.Get("email"),
		"role":    c.Get("role"),
	})
}
